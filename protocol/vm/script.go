package vm

import (
	"sync"

	"golang.org/x/crypto/sha3"

	"chainvm/errors"
)

// Script is an immutable program. Instructions are decoded once, when
// the script is created, so a Script may be shared by engines running
// concurrently.
type Script struct {
	prog   []byte
	strict bool
	insts  []Instruction // insts[pos].Len == 0 unless an instruction starts at pos

	hashOnce sync.Once
	hash     [32]byte
}

// NewScript wraps prog. Without strict, a decoding error ends the
// precomputed instruction stream and surfaces only if execution
// reaches it. With strict, every instruction must decode, name a
// defined opcode and type, and every jump, call, TRY, ENDTRY and
// PUSHA target must land on an instruction boundary.
func NewScript(prog []byte, strict bool) (*Script, error) {
	s := &Script{
		prog:   prog,
		strict: strict,
		insts:  make([]Instruction, len(prog)),
	}
	for pc := uint32(0); pc < uint32(len(prog)); {
		inst, err := ParseOp(prog, pc)
		if err != nil {
			if strict {
				return nil, errors.Sub(ErrBadScript, err)
			}
			break
		}
		s.insts[pc] = inst
		pc += inst.Len
	}
	if strict {
		if err := s.validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Script) validate() error {
	for pos, inst := range s.insts {
		if inst.Len == 0 {
			continue
		}
		if !inst.defined() {
			return errors.WithDetailf(ErrBadScript, "undefined opcode 0x%02x at %d", uint8(inst.Op), pos)
		}
		var targets []int
		switch inst.Op {
		case OP_JMP, OP_JMPIF, OP_JMPIFNOT, OP_JMPEQ, OP_JMPNE, OP_JMPGT,
			OP_JMPGE, OP_JMPLT, OP_JMPLE, OP_CALL, OP_ENDTRY:
			targets = []int{pos + int(inst.TokenI8())}
		case OP_JMP_L, OP_JMPIF_L, OP_JMPIFNOT_L, OP_JMPEQ_L, OP_JMPNE_L, OP_JMPGT_L,
			OP_JMPGE_L, OP_JMPLT_L, OP_JMPLE_L, OP_CALL_L, OP_ENDTRY_L, OP_PUSHA:
			targets = []int{pos + int(inst.TokenI32())}
		case OP_TRY:
			targets = []int{pos + int(inst.TokenI8()), pos + int(inst.TokenI8_1())}
		case OP_TRY_L:
			targets = []int{pos + int(inst.TokenI32()), pos + int(inst.TokenI32_1())}
		case OP_NEWARRAY_T:
			if t := ItemType(inst.TokenU8()); !t.Valid() {
				return errors.WithDetailf(ErrBadScript, "invalid type 0x%02x at %d", uint8(t), pos)
			}
		case OP_ISTYPE, OP_CONVERT:
			if t := ItemType(inst.TokenU8()); !t.Valid() || t == AnyType {
				return errors.WithDetailf(ErrBadScript, "invalid type 0x%02x at %d", uint8(t), pos)
			}
		}
		for _, t := range targets {
			if t < 0 || t >= len(s.insts) || s.insts[t].Len == 0 {
				return errors.WithDetailf(ErrBadScript, "%s at %d targets %d", inst.Op, pos, t)
			}
		}
	}
	return nil
}

func (s *Script) Bytes() []byte { return s.prog }
func (s *Script) Len() int      { return len(s.prog) }
func (s *Script) Strict() bool  { return s.strict }

// Hash returns the SHA3-256 digest of the script bytes.
func (s *Script) Hash() [32]byte {
	s.hashOnce.Do(func() {
		s.hash = sha3.Sum256(s.prog)
	})
	return s.hash
}

// At returns the instruction at pos. The position just past the end
// of the script holds an implicit RET.
func (s *Script) At(pos int) (Instruction, error) {
	if pos < 0 || pos > len(s.prog) {
		return Instruction{}, errors.WithDetailf(ErrBadJump, "position %d of %d", pos, len(s.prog))
	}
	if pos == len(s.prog) {
		return Instruction{Op: OP_RET, Len: 1}, nil
	}
	if inst := s.insts[pos]; inst.Len > 0 {
		return inst, nil
	}
	return ParseOp(s.prog, uint32(pos))
}
