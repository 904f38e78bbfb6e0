package vm

import "chainvm/errors"

// dup returns the item to push when item is copied to another slot:
// structs are cloned, everything else is shared.
func (e *Engine) dup(item Item) (Item, error) {
	if s, ok := item.(*Struct); ok {
		return s.clone(e.limits.MaxStackSize)
	}
	return item, nil
}

func (e *Engine) pushCopy(item Item) error {
	item, err := e.dup(item)
	if err != nil {
		return err
	}
	return e.Push(item)
}

// popIndex pops a nonnegative stack index or count.
func (e *Engine) popIndex() (int, error) {
	n, err := e.popInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.WithDetailf(ErrBadValue, "negative index %d", n)
	}
	return n, nil
}

func opDepth(e *Engine, _ Instruction) error {
	return e.pushInt64(int64(e.estack().Len()))
}

func opDrop(e *Engine, _ Instruction) error {
	_, err := e.Pop()
	return err
}

func opNip(e *Engine, _ Instruction) error {
	_, err := e.estack().Remove(1)
	return err
}

func opXdrop(e *Engine, _ Instruction) error {
	n, err := e.popIndex()
	if err != nil {
		return err
	}
	_, err = e.estack().Remove(n)
	return err
}

func opClear(e *Engine, _ Instruction) error {
	e.estack().Clear()
	return nil
}

func opDup(e *Engine, _ Instruction) error {
	item, err := e.Peek(0)
	if err != nil {
		return err
	}
	return e.pushCopy(item)
}

func opOver(e *Engine, _ Instruction) error {
	item, err := e.Peek(1)
	if err != nil {
		return err
	}
	return e.pushCopy(item)
}

func opPick(e *Engine, _ Instruction) error {
	n, err := e.popIndex()
	if err != nil {
		return err
	}
	item, err := e.Peek(n)
	if err != nil {
		return err
	}
	return e.pushCopy(item)
}

func opTuck(e *Engine, _ Instruction) error {
	item, err := e.Peek(0)
	if err != nil {
		return err
	}
	item, err = e.dup(item)
	if err != nil {
		return err
	}
	return e.estack().Insert(2, item)
}

func opSwap(e *Engine, _ Instruction) error {
	item, err := e.estack().Remove(1)
	if err != nil {
		return err
	}
	return e.Push(item)
}

func opRot(e *Engine, _ Instruction) error {
	item, err := e.estack().Remove(2)
	if err != nil {
		return err
	}
	return e.Push(item)
}

func opRoll(e *Engine, _ Instruction) error {
	n, err := e.popIndex()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	item, err := e.estack().Remove(n)
	if err != nil {
		return err
	}
	return e.Push(item)
}

func opReverse3(e *Engine, _ Instruction) error {
	return e.estack().Reverse(3)
}

func opReverse4(e *Engine, _ Instruction) error {
	return e.estack().Reverse(4)
}

func opReverseN(e *Engine, _ Instruction) error {
	n, err := e.popIndex()
	if err != nil {
		return err
	}
	return e.estack().Reverse(n)
}
