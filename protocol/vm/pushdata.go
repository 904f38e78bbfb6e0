package vm

import (
	"encoding/binary"
	"math/big"

	"chainvm/errors"
)

func opPushInt(e *Engine, inst Instruction) error {
	return e.Push(bytesToInteger(inst.Data))
}

func opPushT(e *Engine, _ Instruction) error {
	return e.pushBool(true)
}

func opPushF(e *Engine, _ Instruction) error {
	return e.pushBool(false)
}

func opPushA(e *Engine, inst Instruction) error {
	c := e.current()
	pos := c.IP + int(inst.TokenI32())
	if pos < 0 || pos > c.script.Len() {
		return errors.WithDetailf(ErrBadJump, "pointer to %d of %d", pos, c.script.Len())
	}
	return e.Push(Pointer{Script: c.script, Pos: pos})
}

func opPushNull(e *Engine, _ Instruction) error {
	return e.Push(Null{})
}

func opPushdata(e *Engine, inst Instruction) error {
	if len(inst.Data) > e.limits.MaxItemSize {
		return errors.WithDetailf(ErrItemTooLarge, "%d bytes", len(inst.Data))
	}
	return e.Push(ByteString(inst.Data))
}

// opPushSmall handles PUSHM1 and PUSH0 through PUSH16.
func opPushSmall(e *Engine, inst Instruction) error {
	return e.pushInt64(int64(inst.Op) - int64(OP_PUSH0))
}

func signExtend(b []byte, n int) []byte {
	var fill byte
	if len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		fill = 0xff
	}
	r := make([]byte, n)
	copy(r, b)
	for i := len(b); i < n; i++ {
		r[i] = fill
	}
	return r
}

// PushdataBigInt returns the shortest instruction pushing x.
func PushdataBigInt(x *big.Int) ([]byte, error) {
	if x.IsInt64() {
		if n := x.Int64(); n >= -1 && n <= 16 {
			return []byte{byte(OP_PUSH0) + byte(n)}, nil
		}
	}
	b := bigBytes(x)
	for i, op := range []Op{OP_PUSHINT8, OP_PUSHINT16, OP_PUSHINT32, OP_PUSHINT64, OP_PUSHINT128, OP_PUSHINT256} {
		if n := 1 << uint(i); len(b) <= n {
			return append([]byte{byte(op)}, signExtend(b, n)...), nil
		}
	}
	return nil, errors.WithDetailf(ErrIntegerOverflow, "%s", x)
}

// PushdataBytes returns the shortest instruction pushing b.
func PushdataBytes(b []byte) []byte {
	info := ops[OP_PUSHDATA4]
	switch {
	case len(b) <= 0xff:
		info = ops[OP_PUSHDATA1]
	case len(b) <= 0xffff:
		info = ops[OP_PUSHDATA2]
	}
	raw, _ := pushDataAs(info, b)
	return raw
}

func pushDataAs(info opInfo, b []byte) ([]byte, error) {
	raw := []byte{byte(info.op)}
	switch info.prefix {
	case 1:
		if len(b) > 0xff {
			return nil, errors.WithDetailf(ErrToken, "%d bytes exceed %s", len(b), info.name)
		}
		raw = append(raw, byte(len(b)))
	case 2:
		if len(b) > 0xffff {
			return nil, errors.WithDetailf(ErrToken, "%d bytes exceed %s", len(b), info.name)
		}
		raw = binary.LittleEndian.AppendUint16(raw, uint16(len(b)))
	default:
		raw = binary.LittleEndian.AppendUint32(raw, uint32(len(b)))
	}
	return append(raw, b...), nil
}

// PushdataInt64 returns the shortest instruction pushing n.
func PushdataInt64(n int64) []byte {
	b, _ := PushdataBigInt(big.NewInt(n))
	return b
}
