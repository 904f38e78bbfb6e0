package vm

import "chainvm/errors"

func opInitSSlot(e *Engine, inst Instruction) error {
	c := e.current()
	if c.statics != nil {
		return errors.WithDetail(ErrSlotInitTwice, "static fields")
	}
	n := int(inst.TokenU8())
	if n == 0 {
		return errors.WithDetail(ErrBadValue, "INITSSLOT with no fields")
	}
	s, err := NewSlot(n, e.refs)
	c.statics = s
	return err
}

func opInitSlot(e *Engine, inst Instruction) error {
	c := e.current()
	if c.locals != nil || c.args != nil {
		return errors.WithDetail(ErrSlotInitTwice, "locals or arguments")
	}
	if inst.TokenU16() == 0 {
		return errors.WithDetail(ErrBadValue, "INITSLOT with no locals or arguments")
	}
	if n := int(inst.TokenU8()); n > 0 {
		s, err := NewSlot(n, e.refs)
		c.locals = s
		if err != nil {
			return err
		}
	}
	if n := int(inst.TokenU8_1()); n > 0 {
		items := make([]Item, n)
		for i := range items {
			item, err := e.Pop()
			if err != nil {
				return err
			}
			items[i] = item
		}
		c.args = &Slot{rc: e.refs}
		for _, item := range items {
			c.args.items = append(c.args.items, item)
			if err := e.refs.Add(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// slotIndex returns the index encoded in a slot opcode: the opcode's
// distance from the 0 form, or the operand for the indexed form.
func slotIndex(inst Instruction, base Op) int {
	if len(inst.Data) > 0 {
		return int(inst.TokenU8())
	}
	return int(inst.Op - base)
}

func (e *Engine) load(s *Slot, i int) error {
	if s == nil {
		return ErrSlotUninit
	}
	item, err := s.Get(i)
	if err != nil {
		return err
	}
	return e.Push(item)
}

func (e *Engine) store(s *Slot, i int) error {
	if s == nil {
		return ErrSlotUninit
	}
	if i >= s.Len() {
		return errors.WithDetailf(ErrSlotIndex, "index %d of %d", i, s.Len())
	}
	item, err := e.Pop()
	if err != nil {
		return err
	}
	return s.Set(i, item)
}

func opLdsfld(e *Engine, inst Instruction) error {
	return e.load(e.current().statics, slotIndex(inst, OP_LDSFLD0))
}

func opStsfld(e *Engine, inst Instruction) error {
	return e.store(e.current().statics, slotIndex(inst, OP_STSFLD0))
}

func opLdloc(e *Engine, inst Instruction) error {
	return e.load(e.current().locals, slotIndex(inst, OP_LDLOC0))
}

func opStloc(e *Engine, inst Instruction) error {
	return e.store(e.current().locals, slotIndex(inst, OP_STLOC0))
}

func opLdarg(e *Engine, inst Instruction) error {
	return e.load(e.current().args, slotIndex(inst, OP_LDARG0))
}

func opStarg(e *Engine, inst Instruction) error {
	return e.store(e.current().args, slotIndex(inst, OP_STARG0))
}
