package vm

import (
	"crypto/sha256"
	"encoding/binary"

	"chainvm/errors"
)

// SyscallID derives the 32-bit id of a named syscall: the first four
// bytes, little-endian, of the SHA-256 of the name.
func SyscallID(name string) uint32 {
	h := sha256.Sum256([]byte(name))
	return binary.LittleEndian.Uint32(h[:4])
}

// SyscallTable maps syscall ids to host functions.
type SyscallTable map[uint32]func(*Engine) error

// Install points t's SYSCALL entry at s.
func (s SyscallTable) Install(t *JumpTable) {
	t[OP_SYSCALL] = func(e *Engine, inst Instruction) error {
		id := inst.TokenU32()
		f, ok := s[id]
		if !ok {
			return errors.WithDetailf(ErrSyscallNotFound, "syscall 0x%08x", id)
		}
		return f(e)
	}
}

// TokenTable maps CALLT tokens to the script and position they
// invoke. Each call gets a new frame with its own evaluation stack.
type TokenTable map[uint16]TokenTarget

type TokenTarget struct {
	Script  *Script
	Pos     int
	RVCount int
}

func (tt TokenTable) Install(t *JumpTable) {
	t[OP_CALLT] = func(e *Engine, inst Instruction) error {
		tok := inst.TokenU16()
		target, ok := tt[tok]
		if !ok {
			return errors.WithDetailf(ErrTokenNotFound, "token %d", tok)
		}
		_, err := e.LoadScript(target.Script, target.RVCount, target.Pos)
		return err
	}
}
