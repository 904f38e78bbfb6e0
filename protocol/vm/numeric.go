package vm

import (
	"math/big"

	"chainvm/errors"
)

func (e *Engine) pushBig(x *big.Int) error {
	if intSize(x) > maxIntegerSize {
		return errors.WithDetailf(ErrIntegerOverflow, "%d-bit result", x.BitLen())
	}
	return e.Push(normalize(x))
}

// unaryBig pops x and pushes f(x). f may modify its argument.
func (e *Engine) unaryBig(f func(x *big.Int) (*big.Int, error)) error {
	x, err := e.popInteger()
	if err != nil {
		return err
	}
	r, err := f(x.Big())
	if err != nil {
		return err
	}
	return e.pushBig(r)
}

// binaryBig pops x2 then x1 and pushes f(x1, x2). f may modify its
// arguments.
func (e *Engine) binaryBig(f func(x1, x2 *big.Int) (*big.Int, error)) error {
	x2, err := e.popInteger()
	if err != nil {
		return err
	}
	x1, err := e.popInteger()
	if err != nil {
		return err
	}
	r, err := f(x1.Big(), x2.Big())
	if err != nil {
		return err
	}
	return e.pushBig(r)
}

// compare pops x2 then x1 and pushes f(x1 cmp x2).
func (e *Engine) compare(f func(c int) bool) error {
	x2, err := e.popInteger()
	if err != nil {
		return err
	}
	x1, err := e.popInteger()
	if err != nil {
		return err
	}
	return e.pushBool(f(x1.Cmp(x2)))
}

// order is compare for LT, LE, GT and GE, which yield false when
// either operand is null.
func (e *Engine) order(f func(c int) bool) error {
	x2, err := e.Pop()
	if err != nil {
		return err
	}
	x1, err := e.Pop()
	if err != nil {
		return err
	}
	if isNull(x1) || isNull(x2) {
		return e.pushBool(false)
	}
	i1, err := AsInteger(x1)
	if err != nil {
		return err
	}
	i2, err := AsInteger(x2)
	if err != nil {
		return err
	}
	return e.pushBool(f(i1.Cmp(i2)))
}

func isNull(item Item) bool {
	_, ok := item.(Null)
	return ok
}

// checkShift validates a shift amount or exponent.
func (e *Engine) checkShift(n int) error {
	if n < 0 || n > e.limits.MaxShift {
		return errors.WithDetailf(ErrShift, "%d, max %d", n, e.limits.MaxShift)
	}
	return nil
}

func opSign(e *Engine, _ Instruction) error {
	x, err := e.popInteger()
	if err != nil {
		return err
	}
	return e.pushInt64(int64(x.Sign()))
}

func opAbs(e *Engine, _ Instruction) error {
	return e.unaryBig(func(x *big.Int) (*big.Int, error) { return x.Abs(x), nil })
}

func opNegate(e *Engine, _ Instruction) error {
	return e.unaryBig(func(x *big.Int) (*big.Int, error) { return x.Neg(x), nil })
}

func opInc(e *Engine, _ Instruction) error {
	return e.unaryBig(func(x *big.Int) (*big.Int, error) { return x.Add(x, bigOne), nil })
}

func opDec(e *Engine, _ Instruction) error {
	return e.unaryBig(func(x *big.Int) (*big.Int, error) { return x.Sub(x, bigOne), nil })
}

func opAdd(e *Engine, _ Instruction) error {
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) { return x1.Add(x1, x2), nil })
}

func opSub(e *Engine, _ Instruction) error {
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) { return x1.Sub(x1, x2), nil })
}

func opMul(e *Engine, _ Instruction) error {
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) { return x1.Mul(x1, x2), nil })
}

// opDiv truncates toward zero.
func opDiv(e *Engine, _ Instruction) error {
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) {
		if x2.Sign() == 0 {
			return nil, ErrDivZero
		}
		return x1.Quo(x1, x2), nil
	})
}

// opMod takes the sign of the dividend.
func opMod(e *Engine, _ Instruction) error {
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) {
		if x2.Sign() == 0 {
			return nil, ErrDivZero
		}
		return x1.Rem(x1, x2), nil
	})
}

func opPow(e *Engine, _ Instruction) error {
	exp, err := e.popInt()
	if err != nil {
		return err
	}
	if err := e.checkShift(exp); err != nil {
		return err
	}
	return e.unaryBig(func(x *big.Int) (*big.Int, error) {
		return x.Exp(x, big.NewInt(int64(exp)), nil), nil
	})
}

func opSqrt(e *Engine, _ Instruction) error {
	return e.unaryBig(func(x *big.Int) (*big.Int, error) {
		if x.Sign() < 0 {
			return nil, errors.WithDetail(ErrBadValue, "square root of a negative number")
		}
		return x.Sqrt(x), nil
	})
}

func opModMul(e *Engine, _ Instruction) error {
	m, err := e.popInteger()
	if err != nil {
		return err
	}
	if m.Sign() == 0 {
		return ErrDivZero
	}
	return e.binaryBig(func(x1, x2 *big.Int) (*big.Int, error) {
		x1.Mul(x1, x2)
		return x1.Rem(x1, m.Big()), nil
	})
}

// opModPow computes value^exp mod m, with exp -1 meaning the modular
// inverse of value. A nonzero result takes the sign of value when exp
// is odd.
func opModPow(e *Engine, _ Instruction) error {
	m, err := e.popInteger()
	if err != nil {
		return err
	}
	exp, err := e.popInteger()
	if err != nil {
		return err
	}
	value, err := e.popInteger()
	if err != nil {
		return err
	}
	mod, x, y := m.Big(), value.Big(), exp.Big()
	if y.Cmp(big.NewInt(-1)) == 0 {
		if x.Sign() <= 0 {
			return errors.WithDetail(ErrBadValue, "modular inverse of a nonpositive value")
		}
		if mod.Cmp(big.NewInt(2)) < 0 {
			return errors.WithDetail(ErrBadValue, "modular inverse with modulus below 2")
		}
		r := new(big.Int).ModInverse(x, mod)
		if r == nil {
			return errors.WithDetail(ErrBadValue, "no modular inverse")
		}
		return e.pushBig(r)
	}
	if y.Sign() < 0 {
		return errors.WithDetail(ErrBadValue, "negative exponent")
	}
	if mod.Sign() == 0 {
		return ErrDivZero
	}
	neg := x.Sign() < 0 && y.Bit(0) == 1
	r := new(big.Int).Exp(x.Abs(x), y, mod.Abs(mod))
	if neg {
		r.Neg(r)
	}
	return e.pushBig(r)
}

func opShl(e *Engine, _ Instruction) error {
	shift, err := e.popInt()
	if err != nil {
		return err
	}
	if err := e.checkShift(shift); err != nil {
		return err
	}
	if shift == 0 {
		return nil
	}
	return e.unaryBig(func(x *big.Int) (*big.Int, error) { return x.Lsh(x, uint(shift)), nil })
}

// opShr rounds toward negative infinity.
func opShr(e *Engine, _ Instruction) error {
	shift, err := e.popInt()
	if err != nil {
		return err
	}
	if err := e.checkShift(shift); err != nil {
		return err
	}
	if shift == 0 {
		return nil
	}
	return e.unaryBig(func(x *big.Int) (*big.Int, error) { return x.Rsh(x, uint(shift)), nil })
}

func opNot(e *Engine, _ Instruction) error {
	b, err := e.popBool()
	if err != nil {
		return err
	}
	return e.pushBool(!b)
}

func opBoolAnd(e *Engine, _ Instruction) error {
	x2, err := e.popBool()
	if err != nil {
		return err
	}
	x1, err := e.popBool()
	if err != nil {
		return err
	}
	return e.pushBool(x1 && x2)
}

func opBoolOr(e *Engine, _ Instruction) error {
	x2, err := e.popBool()
	if err != nil {
		return err
	}
	x1, err := e.popBool()
	if err != nil {
		return err
	}
	return e.pushBool(x1 || x2)
}

func opNz(e *Engine, _ Instruction) error {
	x, err := e.popInteger()
	if err != nil {
		return err
	}
	return e.pushBool(x.Sign() != 0)
}

func opNumEqual(e *Engine, _ Instruction) error {
	return e.compare(func(c int) bool { return c == 0 })
}

func opNumNotEqual(e *Engine, _ Instruction) error {
	return e.compare(func(c int) bool { return c != 0 })
}

func opLt(e *Engine, _ Instruction) error {
	return e.order(func(c int) bool { return c < 0 })
}

func opLe(e *Engine, _ Instruction) error {
	return e.order(func(c int) bool { return c <= 0 })
}

func opGt(e *Engine, _ Instruction) error {
	return e.order(func(c int) bool { return c > 0 })
}

func opGe(e *Engine, _ Instruction) error {
	return e.order(func(c int) bool { return c >= 0 })
}

func opMin(e *Engine, _ Instruction) error {
	x2, err := e.popInteger()
	if err != nil {
		return err
	}
	x1, err := e.popInteger()
	if err != nil {
		return err
	}
	if x2.Cmp(x1) < 0 {
		return e.Push(x2)
	}
	return e.Push(x1)
}

func opMax(e *Engine, _ Instruction) error {
	x2, err := e.popInteger()
	if err != nil {
		return err
	}
	x1, err := e.popInteger()
	if err != nil {
		return err
	}
	if x2.Cmp(x1) > 0 {
		return e.Push(x2)
	}
	return e.Push(x1)
}

// opWithin tests a <= x < b.
func opWithin(e *Engine, _ Instruction) error {
	b, err := e.popInteger()
	if err != nil {
		return err
	}
	a, err := e.popInteger()
	if err != nil {
		return err
	}
	x, err := e.popInteger()
	if err != nil {
		return err
	}
	return e.pushBool(a.Cmp(x) <= 0 && x.Cmp(b) < 0)
}
