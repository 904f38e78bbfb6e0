package vm

import "chainvm/errors"

func (e *Engine) checkItemSize(n int) error {
	if n > e.limits.MaxItemSize {
		return errors.WithDetailf(ErrItemTooLarge, "%d bytes, max %d", n, e.limits.MaxItemSize)
	}
	return nil
}

func opNewBuffer(e *Engine, _ Instruction) error {
	n, err := e.popIndex()
	if err != nil {
		return err
	}
	if err := e.checkItemSize(n); err != nil {
		return err
	}
	return e.Push(NewBuffer(make([]byte, n)))
}

func opMemcpy(e *Engine, _ Instruction) error {
	count, err := e.popIndex()
	if err != nil {
		return err
	}
	si, err := e.popIndex()
	if err != nil {
		return err
	}
	src, err := e.popBytes()
	if err != nil {
		return err
	}
	if si+count > len(src) {
		return errors.WithDetailf(ErrBadValue, "MEMCPY source range %d+%d of %d", si, count, len(src))
	}
	di, err := e.popIndex()
	if err != nil {
		return err
	}
	item, err := e.Pop()
	if err != nil {
		return err
	}
	dst, ok := item.(*Buffer)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "MEMCPY into %s", item.Type())
	}
	if di+count > len(dst.data) {
		return errors.WithDetailf(ErrBadValue, "MEMCPY destination range %d+%d of %d", di, count, len(dst.data))
	}
	copy(dst.data[di:di+count], src[si:si+count])
	dst.touch()
	return nil
}

func opCat(e *Engine, _ Instruction) error {
	x2, err := e.popBytes()
	if err != nil {
		return err
	}
	x1, err := e.popBytes()
	if err != nil {
		return err
	}
	if err := e.checkItemSize(len(x1) + len(x2)); err != nil {
		return err
	}
	b := make([]byte, 0, len(x1)+len(x2))
	b = append(b, x1...)
	b = append(b, x2...)
	return e.Push(NewBuffer(b))
}

func opSubstr(e *Engine, _ Instruction) error {
	count, err := e.popIndex()
	if err != nil {
		return err
	}
	index, err := e.popIndex()
	if err != nil {
		return err
	}
	x, err := e.popBytes()
	if err != nil {
		return err
	}
	if index+count > len(x) {
		return errors.WithDetailf(ErrBadValue, "SUBSTR range %d+%d of %d", index, count, len(x))
	}
	return e.Push(NewBuffer(append([]byte{}, x[index:index+count]...)))
}

func opLeft(e *Engine, _ Instruction) error {
	count, err := e.popIndex()
	if err != nil {
		return err
	}
	x, err := e.popBytes()
	if err != nil {
		return err
	}
	if count > len(x) {
		return errors.WithDetailf(ErrBadValue, "LEFT %d of %d", count, len(x))
	}
	return e.Push(NewBuffer(append([]byte{}, x[:count]...)))
}

func opRight(e *Engine, _ Instruction) error {
	count, err := e.popIndex()
	if err != nil {
		return err
	}
	x, err := e.popBytes()
	if err != nil {
		return err
	}
	if count > len(x) {
		return errors.WithDetailf(ErrBadValue, "RIGHT %d of %d", count, len(x))
	}
	return e.Push(NewBuffer(append([]byte{}, x[len(x)-count:]...)))
}
