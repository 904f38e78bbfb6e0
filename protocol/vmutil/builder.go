package vmutil

import (
	"encoding/binary"
	"math"
	"math/big"

	"chainvm/errors"
	"chainvm/protocol/vm"
)

var (
	ErrUnresolvedJump = errors.New("unresolved jump target")
	ErrNotJump        = errors.New("opcode takes no jump target")
	ErrJumpRange      = errors.New("jump offset out of range")
)

// NoTarget marks an absent catch or finally block in AddTry.
const NoTarget = 0

// longForm maps each relative jump opcode to its 4-byte-offset form.
// The builder always emits the long form.
var longForm = map[vm.Op]vm.Op{
	vm.OP_JMP:      vm.OP_JMP_L,
	vm.OP_JMPIF:    vm.OP_JMPIF_L,
	vm.OP_JMPIFNOT: vm.OP_JMPIFNOT_L,
	vm.OP_JMPEQ:    vm.OP_JMPEQ_L,
	vm.OP_JMPNE:    vm.OP_JMPNE_L,
	vm.OP_JMPGT:    vm.OP_JMPGT_L,
	vm.OP_JMPGE:    vm.OP_JMPGE_L,
	vm.OP_JMPLT:    vm.OP_JMPLT_L,
	vm.OP_JMPLE:    vm.OP_JMPLE_L,
	vm.OP_CALL:     vm.OP_CALL_L,
	vm.OP_ENDTRY:   vm.OP_ENDTRY_L,
}

func init() {
	for _, l := range []vm.Op{
		vm.OP_JMP_L, vm.OP_JMPIF_L, vm.OP_JMPIFNOT_L, vm.OP_JMPEQ_L, vm.OP_JMPNE_L,
		vm.OP_JMPGT_L, vm.OP_JMPGE_L, vm.OP_JMPLT_L, vm.OP_JMPLE_L,
		vm.OP_CALL_L, vm.OP_ENDTRY_L, vm.OP_PUSHA,
	} {
		longForm[l] = l
	}
}

// placeholder is a 4-byte offset operand awaiting its target.
type placeholder struct {
	inst    int // position of the instruction the offset is relative to
	operand int // position of the operand
}

type Builder struct {
	program     []byte
	jumpCounter int
	err         error

	// Maps a jump target number to its absolute address.
	jumpAddr map[int]int

	// Maps a jump target number to the operands that must be filled
	// in once its address is known.
	jumpPlaceholders map[int][]placeholder
}

func NewBuilder() *Builder {
	return &Builder{
		jumpAddr:         make(map[int]int),
		jumpPlaceholders: make(map[int][]placeholder),
	}
}

// AddInt64 adds the shortest push instruction for n.
func (b *Builder) AddInt64(n int64) *Builder {
	b.program = append(b.program, vm.PushdataInt64(n)...)
	return b
}

// AddBigInt adds the shortest push instruction for x. A value whose
// encoding exceeds 32 bytes is reported by Build.
func (b *Builder) AddBigInt(x *big.Int) *Builder {
	prog, err := vm.PushdataBigInt(x)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.program = append(b.program, prog...)
	return b
}

// AddData adds a pushdata instruction for a given byte string.
func (b *Builder) AddData(data []byte) *Builder {
	b.program = append(b.program, vm.PushdataBytes(data)...)
	return b
}

func (b *Builder) AddString(s string) *Builder {
	return b.AddData([]byte(s))
}

func (b *Builder) AddBool(v bool) *Builder {
	if v {
		return b.AddOp(vm.OP_PUSHT)
	}
	return b.AddOp(vm.OP_PUSHF)
}

func (b *Builder) AddNull() *Builder {
	return b.AddOp(vm.OP_PUSHNULL)
}

// AddRawBytes simply appends the given bytes to the program. (It does
// not introduce a pushdata opcode.)
func (b *Builder) AddRawBytes(data []byte) *Builder {
	b.program = append(b.program, data...)
	return b
}

// AddOp adds the given opcode to the program.
func (b *Builder) AddOp(op vm.Op) *Builder {
	b.program = append(b.program, byte(op))
	return b
}

// AddOpOperand adds op followed by its fixed-size operand, as for
// slot, type and INITSLOT instructions.
func (b *Builder) AddOpOperand(op vm.Op, operand ...byte) *Builder {
	b.program = append(b.program, byte(op))
	b.program = append(b.program, operand...)
	return b
}

// AddSysCall adds a SYSCALL of the named service.
func (b *Builder) AddSysCall(name string) *Builder {
	b.AddOp(vm.OP_SYSCALL)
	b.program = binary.LittleEndian.AppendUint32(b.program, vm.SyscallID(name))
	return b
}

// AddCallT adds a CALLT of the given token.
func (b *Builder) AddCallT(token uint16) *Builder {
	b.AddOp(vm.OP_CALLT)
	b.program = binary.LittleEndian.AppendUint16(b.program, token)
	return b
}

// NewJumpTarget allocates a number that can be used as a jump target
// in AddJump and the other target-taking methods. Call SetJumpTarget
// to associate the number with a program location.
func (b *Builder) NewJumpTarget() int {
	b.jumpCounter++
	return b.jumpCounter
}

// AddJump adds a JMP_L whose target is the given target number. The
// actual program location of the target does not need to be known
// yet, as long as SetJumpTarget is called before Build.
func (b *Builder) AddJump(target int) *Builder {
	return b.AddJumpOp(vm.OP_JMP_L, target)
}

// AddJumpIf adds a JMPIF_L, as AddJump.
func (b *Builder) AddJumpIf(target int) *Builder {
	return b.AddJumpOp(vm.OP_JMPIF_L, target)
}

// AddJumpIfNot adds a JMPIFNOT_L, as AddJump.
func (b *Builder) AddJumpIfNot(target int) *Builder {
	return b.AddJumpOp(vm.OP_JMPIFNOT_L, target)
}

// AddCall adds a CALL_L to the function starting at target.
func (b *Builder) AddCall(target int) *Builder {
	return b.AddJumpOp(vm.OP_CALL_L, target)
}

// AddPushA pushes a pointer to target.
func (b *Builder) AddPushA(target int) *Builder {
	return b.AddJumpOp(vm.OP_PUSHA, target)
}

// AddEndTry leaves the current try region, continuing at target once
// any finally block has run.
func (b *Builder) AddEndTry(target int) *Builder {
	return b.AddJumpOp(vm.OP_ENDTRY_L, target)
}

// AddJumpOp adds any jump, call, ENDTRY or PUSHA opcode with a
// target. Short forms are widened.
func (b *Builder) AddJumpOp(op vm.Op, target int) *Builder {
	l, ok := longForm[op]
	if !ok {
		b.setErr(errors.WithDetailf(ErrNotJump, "%s", op))
		return b
	}
	start := len(b.program)
	b.AddOp(l)
	b.addPlaceholder(start, target)
	return b
}

// AddTry opens a try region. Either target may be NoTarget, but not
// both.
func (b *Builder) AddTry(catch, finally int) *Builder {
	if catch == NoTarget && finally == NoTarget {
		b.setErr(errors.WithDetail(vm.ErrBadTry, "try without catch or finally"))
		return b
	}
	start := len(b.program)
	b.AddOp(vm.OP_TRY_L)
	for _, target := range []int{catch, finally} {
		if target == NoTarget {
			b.AddRawBytes([]byte{0, 0, 0, 0})
			continue
		}
		b.addPlaceholder(start, target)
	}
	return b
}

func (b *Builder) addPlaceholder(inst, target int) {
	b.jumpPlaceholders[target] = append(b.jumpPlaceholders[target], placeholder{inst, len(b.program)})
	b.AddRawBytes([]byte{0, 0, 0, 0})
}

// SetJumpTarget associates the given jump-target number with the
// current position in the program - namely, the program's length,
// such that the first instruction executed by a jump using this
// target will be whatever instruction is added next. It is legal for
// SetJumpTarget to be called at the end of the program, causing jumps
// using that target to fall off the end (an implicit RET).
func (b *Builder) SetJumpTarget(target int) *Builder {
	b.jumpAddr[target] = len(b.program)
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build produces the bytecode of the program. It first resolves any
// jumps in the program by filling in the offsets of their targets.
// This requires SetJumpTarget to be called prior to Build for each
// jump target used. If any target's address hasn't been set in this
// way, this function produces ErrUnresolvedJump. It also reports the
// first error recorded by an Add method.
func (b *Builder) Build() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	for target, placeholders := range b.jumpPlaceholders {
		addr, ok := b.jumpAddr[target]
		if !ok {
			return nil, errors.Wrapf(ErrUnresolvedJump, "target %d", target)
		}
		for _, p := range placeholders {
			off := addr - p.inst
			if off < math.MinInt32 || off > math.MaxInt32 {
				return nil, errors.WithDetailf(ErrJumpRange, "offset %d", off)
			}
			binary.LittleEndian.PutUint32(b.program[p.operand:p.operand+4], uint32(int32(off)))
		}
	}
	return b.program, nil
}
