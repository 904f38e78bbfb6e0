package vm

import "math/big"

func opInvert(e *Engine, _ Instruction) error {
	x, err := e.popInteger()
	if err != nil {
		return err
	}
	return e.pushBig(new(big.Int).Not(x.Big()))
}

func opAnd(e *Engine, _ Instruction) error {
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) {
		return x1.And(x1, x2), nil
	})
}

func opOr(e *Engine, _ Instruction) error {
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) {
		return x1.Or(x1, x2), nil
	})
}

func opXor(e *Engine, _ Instruction) error {
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) {
		return x1.Xor(x1, x2), nil
	})
}

func opEqual(e *Engine, _ Instruction) error {
	eq, err := e.popEqual()
	if err != nil {
		return err
	}
	return e.pushBool(eq)
}

func opNotEqual(e *Engine, _ Instruction) error {
	eq, err := e.popEqual()
	if err != nil {
		return err
	}
	return e.pushBool(!eq)
}

func (e *Engine) popEqual() (bool, error) {
	x2, err := e.Pop()
	if err != nil {
		return false, err
	}
	x1, err := e.Pop()
	if err != nil {
		return false, err
	}
	return Equal(x1, x2, &e.limits)
}
