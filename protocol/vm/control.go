package vm

import "chainvm/errors"

func opNop(*Engine, Instruction) error {
	return nil
}

// offset returns the relative target of a jump, call or ENDTRY,
// whichever operand width the opcode uses.
func offset(inst Instruction) int {
	if len(inst.Data) == 1 {
		return int(inst.TokenI8())
	}
	return int(inst.TokenI32())
}

func opJmp(e *Engine, inst Instruction) error {
	return e.jumpOffset(offset(inst))
}

func opJmpIf(e *Engine, inst Instruction) error {
	b, err := e.popBool()
	if err != nil {
		return err
	}
	if b {
		return e.jumpOffset(offset(inst))
	}
	return nil
}

func opJmpIfNot(e *Engine, inst Instruction) error {
	b, err := e.popBool()
	if err != nil {
		return err
	}
	if !b {
		return e.jumpOffset(offset(inst))
	}
	return nil
}

// opJmpCmp handles JMPEQ through JMPLE_L, comparing the second item
// against the top one.
func opJmpCmp(e *Engine, inst Instruction) error {
	x2, err := e.popInteger()
	if err != nil {
		return err
	}
	x1, err := e.popInteger()
	if err != nil {
		return err
	}
	c := x1.Cmp(x2)
	var jump bool
	switch inst.Op {
	case OP_JMPEQ, OP_JMPEQ_L:
		jump = c == 0
	case OP_JMPNE, OP_JMPNE_L:
		jump = c != 0
	case OP_JMPGT, OP_JMPGT_L:
		jump = c > 0
	case OP_JMPGE, OP_JMPGE_L:
		jump = c >= 0
	case OP_JMPLT, OP_JMPLT_L:
		jump = c < 0
	case OP_JMPLE, OP_JMPLE_L:
		jump = c <= 0
	}
	if jump {
		return e.jumpOffset(offset(inst))
	}
	return nil
}

// call pushes a frame at pos sharing the current frame's script,
// evaluation stack and static fields. The caller's pointer still
// advances past the calling instruction.
func (e *Engine) call(pos int) error {
	c := e.current()
	if pos < 0 || pos > c.script.Len() {
		return errors.WithDetailf(ErrBadJump, "call to %d of %d", pos, c.script.Len())
	}
	return e.loadContext(c.clone(pos))
}

func opCall(e *Engine, inst Instruction) error {
	return e.call(e.current().IP + offset(inst))
}

func opCallA(e *Engine, _ Instruction) error {
	item, err := e.Pop()
	if err != nil {
		return err
	}
	p, ok := item.(Pointer)
	if !ok {
		return errors.WithDetailf(ErrInvalidType, "CALLA on %s", item.Type())
	}
	if p.Script != e.current().script {
		return ErrBadPointer
	}
	return e.call(p.Pos)
}

// opCallT is the token-call extension point. Hosts replace it.
func opCallT(_ *Engine, inst Instruction) error {
	return errors.WithDetailf(ErrTokenNotFound, "token %d", inst.TokenU16())
}

// opSyscall is the syscall extension point. Hosts replace it, usually
// with a SyscallTable.
func opSyscall(_ *Engine, inst Instruction) error {
	return errors.WithDetailf(ErrSyscallNotFound, "syscall 0x%08x", inst.TokenU32())
}

func opAbort(*Engine, Instruction) error {
	return ErrAbort
}

func opAbortMsg(e *Engine, _ Instruction) error {
	msg, err := e.popBytes()
	if err != nil {
		return err
	}
	return errors.WithDetailf(ErrAbort, "%s", msg)
}

func opAssert(e *Engine, _ Instruction) error {
	ok, err := e.popBool()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssert
	}
	return nil
}

func opAssertMsg(e *Engine, _ Instruction) error {
	msg, err := e.popBytes()
	if err != nil {
		return err
	}
	ok, err := e.popBool()
	if err != nil {
		return err
	}
	if !ok {
		return errors.WithDetailf(ErrAssert, "%s", msg)
	}
	return nil
}

func opThrow(e *Engine, _ Instruction) error {
	ex, err := e.Pop()
	if err != nil {
		return err
	}
	return e.throw(ex)
}

func opTry(e *Engine, inst Instruction) error {
	var catchOff, finallyOff int
	if inst.Op == OP_TRY {
		catchOff, finallyOff = int(inst.TokenI8()), int(inst.TokenI8_1())
	} else {
		catchOff, finallyOff = int(inst.TokenI32()), int(inst.TokenI32_1())
	}
	if catchOff == 0 && finallyOff == 0 {
		return errors.WithDetail(ErrBadTry, "neither catch nor finally")
	}
	c := e.current()
	if len(c.tries) >= e.limits.MaxTryNestingDepth {
		return errors.WithDetailf(ErrTryNesting, "depth %d", len(c.tries))
	}
	t := &TryContext{CatchPtr: -1, FinallyPtr: -1, EndPtr: -1}
	if catchOff != 0 {
		t.CatchPtr = c.IP + catchOff
	}
	if finallyOff != 0 {
		t.FinallyPtr = c.IP + finallyOff
	}
	c.tries = append(c.tries, t)
	return nil
}

func opEndTry(e *Engine, inst Instruction) error {
	c := e.current()
	t := c.currentTry()
	if t == nil {
		return ErrNoTry
	}
	if t.State == TryFinally {
		return ErrEndTryInFinally
	}
	end := c.IP + offset(inst)
	if t.HasFinally() {
		t.State = TryFinally
		t.EndPtr = end
		c.IP = t.FinallyPtr
	} else {
		c.popTry()
		c.IP = end
	}
	e.jumping = true
	return nil
}

func opEndFinally(e *Engine, _ Instruction) error {
	c := e.current()
	t := c.currentTry()
	if t == nil {
		return ErrNoTry
	}
	c.popTry()
	if e.uncaught == nil {
		c.IP = t.EndPtr
		e.jumping = true
		return nil
	}
	return e.handleException()
}

func opRet(e *Engine, _ Instruction) error {
	c := e.current()
	dst := e.rstack
	if len(e.istack) > 1 {
		dst = e.istack[len(e.istack)-2].estack
	}
	if c.estack != dst {
		if c.RVCount >= 0 && c.estack.Len() != c.RVCount {
			return errors.WithDetailf(ErrReturnCount, "want %d, have %d", c.RVCount, c.estack.Len())
		}
		if err := c.estack.MoveTo(dst, -1); err != nil {
			return err
		}
	}
	e.unloadContext()
	if len(e.istack) == 0 {
		e.state = StateHalt
	}
	e.jumping = true
	return nil
}
