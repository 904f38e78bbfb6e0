package vm

import "chainvm/math/checked"

// OptimizedJumpTable returns a copy of the default table whose
// integer arithmetic and comparisons take an int64 path when every
// operand fits in one, falling back to arbitrary precision on
// overflow or any other operand. Results are identical to the
// default table's.
func OptimizedJumpTable() *JumpTable {
	t := defaultTable
	t[OP_ADD] = fastBinary(checked.AddInt64, opAdd)
	t[OP_SUB] = fastBinary(checked.SubInt64, opSub)
	t[OP_MUL] = fastBinary(checked.MulInt64, opMul)
	t[OP_DIV] = fastBinary(checked.DivInt64, opDiv)
	t[OP_MOD] = fastBinary(checked.ModInt64, opMod)
	t[OP_MIN] = fastBinary(min64, opMin)
	t[OP_MAX] = fastBinary(max64, opMax)
	t[OP_INC] = fastUnary(func(a int64) (int64, bool) { return checked.AddInt64(a, 1) }, opInc)
	t[OP_DEC] = fastUnary(func(a int64) (int64, bool) { return checked.SubInt64(a, 1) }, opDec)
	t[OP_NEGATE] = fastUnary(checked.NegateInt64, opNegate)
	t[OP_ABS] = fastUnary(checked.AbsInt64, opAbs)
	t[OP_SIGN] = fastUnary(sign64, opSign)
	t[OP_SHL] = fastShift(checked.LshiftInt64, opShl)
	t[OP_SHR] = fastShift(checked.RshiftInt64, opShr)
	t[OP_NUMEQUAL] = fastCompare(func(a, b int64) bool { return a == b }, opNumEqual)
	t[OP_NUMNOTEQUAL] = fastCompare(func(a, b int64) bool { return a != b }, opNumNotEqual)
	t[OP_LT] = fastCompare(func(a, b int64) bool { return a < b }, opLt)
	t[OP_LE] = fastCompare(func(a, b int64) bool { return a <= b }, opLe)
	t[OP_GT] = fastCompare(func(a, b int64) bool { return a > b }, opGt)
	t[OP_GE] = fastCompare(func(a, b int64) bool { return a >= b }, opGe)
	return &t
}

// small returns the nth item from the top as an int64 when it is an
// Integer held without a big.Int.
func (e *Engine) small(n int) (int64, bool) {
	item, err := e.Peek(n)
	if err != nil {
		return 0, false
	}
	i, ok := item.(Integer)
	if !ok || i.big != nil {
		return 0, false
	}
	return i.small, true
}

// replace pops n items and pushes r.
func (e *Engine) replace(n int, r Item) error {
	for ; n > 0; n-- {
		if _, err := e.Pop(); err != nil {
			return err
		}
	}
	return e.Push(r)
}

func fastBinary(f func(a, b int64) (int64, bool), slow OpFunc) OpFunc {
	return func(e *Engine, inst Instruction) error {
		x2, ok2 := e.small(0)
		x1, ok1 := e.small(1)
		if ok1 && ok2 {
			if r, ok := f(x1, x2); ok {
				return e.replace(2, NewInt64(r))
			}
		}
		return slow(e, inst)
	}
}

func fastUnary(f func(a int64) (int64, bool), slow OpFunc) OpFunc {
	return func(e *Engine, inst Instruction) error {
		if x, ok := e.small(0); ok {
			if r, ok := f(x); ok {
				return e.replace(1, NewInt64(r))
			}
		}
		return slow(e, inst)
	}
}

// fastShift leaves zero and out-of-range shifts to slow, which
// reports the error or leaves the value untouched.
func fastShift(f func(a, b int64) (int64, bool), slow OpFunc) OpFunc {
	return func(e *Engine, inst Instruction) error {
		n, ok2 := e.small(0)
		x, ok1 := e.small(1)
		if ok1 && ok2 && n > 0 && n <= int64(e.limits.MaxShift) {
			if r, ok := f(x, n); ok {
				return e.replace(2, NewInt64(r))
			}
		}
		return slow(e, inst)
	}
}

func fastCompare(f func(a, b int64) bool, slow OpFunc) OpFunc {
	return func(e *Engine, inst Instruction) error {
		x2, ok2 := e.small(0)
		x1, ok1 := e.small(1)
		if ok1 && ok2 {
			return e.replace(2, Boolean(f(x1, x2)))
		}
		return slow(e, inst)
	}
}

func min64(a, b int64) (int64, bool) {
	if b < a {
		return b, true
	}
	return a, true
}

func max64(a, b int64) (int64, bool) {
	if b > a {
		return b, true
	}
	return a, true
}

func sign64(a int64) (int64, bool) {
	switch {
	case a < 0:
		return -1, true
	case a > 0:
		return 1, true
	}
	return 0, true
}
