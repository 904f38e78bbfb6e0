package vm

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"chainvm/errors"
)

// stmt is one assembled statement. Labels occupy no bytes.
type stmt struct {
	label string
	op    Op
	args  []string
	raw   []byte // complete encoding, for literal pushes
	pos   int
}

func (s *stmt) size() int {
	if s.label != "" {
		return 0
	}
	if s.raw != nil {
		return len(s.raw)
	}
	return 1 + int(ops[s.op].size)
}

// Assemble converts a textual program to bytecode.
//
// Notation:
//
//	ADD            mnemonic
//	-12345         integer, pushed with the shortest PUSH form
//	0x0a0b         bytes, pushed with the shortest PUSHDATA form
//	'foo'          text, pushed with the shortest PUSHDATA form
//	$loop          label marking the next instruction
//	JMP:$loop      operand; jump operands are labels or byte offsets
//	TRY:$c,0       two operands; 0 marks an absent catch or finally
//	SYSCALL:name   syscall by name or by 0x-prefixed id
//	ISTYPE:Integer item type operand
//	# comment      ignored to end of line
func Assemble(src string) ([]byte, error) {
	words, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	stmts := make([]*stmt, 0, len(words))
	labels := make(map[string]int)
	pos := 0
	for _, w := range words {
		s, err := parseWord(w)
		if err != nil {
			return nil, err
		}
		s.pos = pos
		if s.label != "" {
			if _, ok := labels[s.label]; ok {
				return nil, errors.WithDetailf(ErrToken, "duplicate label %s", s.label)
			}
			labels[s.label] = pos
		}
		pos += s.size()
		stmts = append(stmts, s)
	}

	prog := make([]byte, 0, pos)
	for _, s := range stmts {
		switch {
		case s.label != "":
		case s.raw != nil:
			prog = append(prog, s.raw...)
		default:
			operand, err := encodeOperand(s, labels)
			if err != nil {
				return nil, err
			}
			prog = append(prog, byte(s.op))
			prog = append(prog, operand...)
		}
	}
	return prog, nil
}

func tokenize(src string) ([]string, error) {
	var words []string
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case unicode.IsSpace(rune(c)):
			i++
		case c == '\'':
			j := i + 1
			for ; j < len(src) && src[j] != '\''; j++ {
				if src[j] == '\\' {
					j++
				}
			}
			if j >= len(src) {
				return nil, errors.WithDetailf(ErrToken, "unterminated text %s", src[i:])
			}
			words = append(words, src[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(src) && !unicode.IsSpace(rune(src[j])) {
				j++
			}
			words = append(words, src[i:j])
			i = j
		}
	}
	return words, nil
}

func parseWord(w string) (*stmt, error) {
	switch {
	case w[0] == '$':
		if len(w) == 1 {
			return nil, errors.WithDetail(ErrToken, "empty label")
		}
		return &stmt{label: w}, nil
	case w[0] == '\'':
		return &stmt{raw: PushdataBytes(unescape(w[1 : len(w)-1]))}, nil
	case strings.HasPrefix(w, "0x"):
		b, err := hex.DecodeString(w[2:])
		if err != nil {
			return nil, errors.Wrap(err, "bad hex literal "+w)
		}
		return &stmt{raw: PushdataBytes(b)}, nil
	case w[0] == '-' || (w[0] >= '0' && w[0] <= '9'):
		x, ok := new(big.Int).SetString(w, 10)
		if !ok {
			return nil, errors.WithDetailf(ErrToken, "bad number %s", w)
		}
		raw, err := PushdataBigInt(x)
		if err != nil {
			return nil, err
		}
		return &stmt{raw: raw}, nil
	}

	name, arg, hasArg := strings.Cut(w, ":")
	if strings.HasPrefix(name, "UNKNOWNx") && !hasArg {
		n, err := strconv.ParseUint(name[len("UNKNOWNx"):], 16, 8)
		if err != nil {
			return nil, errors.WithDetailf(ErrToken, "bad opcode %s", w)
		}
		return &stmt{raw: []byte{byte(n)}}, nil
	}
	info, ok := opsByName[name]
	if !ok {
		return nil, errors.WithDetailf(ErrToken, "bad mnemonic %s", w)
	}
	s := &stmt{op: info.op}
	if hasArg {
		s.args = strings.Split(arg, ",")
	}
	if info.prefix > 0 {
		if len(s.args) != 1 || !strings.HasPrefix(s.args[0], "0x") {
			return nil, errors.WithDetailf(ErrToken, "%s needs a hex operand", name)
		}
		b, err := hex.DecodeString(s.args[0][2:])
		if err != nil {
			return nil, errors.Wrap(err, "bad hex literal "+s.args[0])
		}
		raw, err := pushDataAs(info, b)
		if err != nil {
			return nil, err
		}
		s.raw = raw
		return s, nil
	}
	want := 0
	switch {
	case info.op == OP_TRY || info.op == OP_TRY_L || info.op == OP_INITSLOT:
		want = 2
	case info.size > 0:
		want = 1
	}
	if len(s.args) != want {
		return nil, errors.WithDetailf(ErrToken, "%s takes %d operands", name, want)
	}
	return s, nil
}

func unescape(s string) []byte {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b = append(b, s[i])
	}
	return b
}

func encodeOperand(s *stmt, labels map[string]int) ([]byte, error) {
	info := ops[s.op]
	operand := make([]byte, info.size)
	switch s.op {
	case OP_PUSHINT8, OP_PUSHINT16, OP_PUSHINT32, OP_PUSHINT64, OP_PUSHINT128, OP_PUSHINT256:
		x, ok := new(big.Int).SetString(s.args[0], 10)
		if !ok {
			return nil, errors.WithDetailf(ErrToken, "bad number %s", s.args[0])
		}
		b := bigBytes(x)
		if len(b) > len(operand) {
			return nil, errors.WithDetailf(ErrToken, "%s does not fit %s", s.args[0], s.op)
		}
		return signExtend(b, len(operand)), nil

	case OP_JMP, OP_JMPIF, OP_JMPIFNOT, OP_JMPEQ, OP_JMPNE, OP_JMPGT,
		OP_JMPGE, OP_JMPLT, OP_JMPLE, OP_CALL, OP_ENDTRY,
		OP_JMP_L, OP_JMPIF_L, OP_JMPIFNOT_L, OP_JMPEQ_L, OP_JMPNE_L, OP_JMPGT_L,
		OP_JMPGE_L, OP_JMPLT_L, OP_JMPLE_L, OP_CALL_L, OP_ENDTRY_L, OP_PUSHA:
		return putOffset(operand, s, s.args[0], labels)

	case OP_TRY, OP_TRY_L:
		half := len(operand) / 2
		if _, err := putOffset(operand[:half], s, s.args[0], labels); err != nil {
			return nil, err
		}
		if _, err := putOffset(operand[half:], s, s.args[1], labels); err != nil {
			return nil, err
		}
		return operand, nil

	case OP_SYSCALL:
		id, err := strconv.ParseUint(s.args[0], 0, 32)
		if err != nil {
			id = uint64(SyscallID(s.args[0]))
		}
		binary.LittleEndian.PutUint32(operand, uint32(id))
		return operand, nil

	case OP_CALLT:
		n, err := strconv.ParseUint(s.args[0], 0, 16)
		if err != nil {
			return nil, errors.WithDetailf(ErrToken, "bad token %s", s.args[0])
		}
		binary.LittleEndian.PutUint16(operand, uint16(n))
		return operand, nil

	case OP_NEWARRAY_T, OP_ISTYPE, OP_CONVERT:
		t, ok := ParseItemType(s.args[0])
		if !ok {
			n, err := strconv.ParseUint(s.args[0], 0, 8)
			if err != nil {
				return nil, errors.WithDetailf(ErrToken, "bad item type %s", s.args[0])
			}
			t = ItemType(n)
		}
		operand[0] = byte(t)
		return operand, nil
	}

	// slot indexes and counts
	for i, a := range s.args {
		n, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, errors.WithDetailf(ErrToken, "bad %s operand %s", s.op, a)
		}
		operand[i] = byte(n)
	}
	return operand, nil
}

// putOffset writes the offset named by arg, relative to s, into
// operand, which is one or four bytes wide.
func putOffset(operand []byte, s *stmt, arg string, labels map[string]int) ([]byte, error) {
	var off int64
	if strings.HasPrefix(arg, "$") {
		pos, ok := labels[arg]
		if !ok {
			return nil, errors.WithDetailf(ErrToken, "undefined label %s", arg)
		}
		off = int64(pos - s.pos)
	} else {
		n, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return nil, errors.WithDetailf(ErrToken, "bad offset %s", arg)
		}
		off = n
	}
	if len(operand) == 1 {
		if off < -128 || off > 127 {
			return nil, errors.WithDetailf(ErrToken, "%s offset %d out of range", s.op, off)
		}
		operand[0] = byte(int8(off))
		return operand, nil
	}
	binary.LittleEndian.PutUint32(operand, uint32(int32(off)))
	return operand, nil
}

// Disassemble renders prog in the notation accepted by Assemble.
// Assembling the result reproduces prog exactly.
func Disassemble(prog []byte) (string, error) {
	var insts []Instruction
	var starts []int
	for pc := uint32(0); pc < uint32(len(prog)); {
		inst, err := ParseOp(prog, pc)
		if err != nil {
			return "", err
		}
		insts = append(insts, inst)
		starts = append(starts, int(pc))
		pc += inst.Len
	}

	boundary := make(map[int]bool, len(starts)+1)
	for _, pc := range starts {
		boundary[pc] = true
	}
	boundary[len(prog)] = true
	labels := make(map[int]string)
	var targets []int
	for i, inst := range insts {
		for _, t := range jumpTargets(inst, starts[i]) {
			if boundary[t] && labels[t] == "" {
				labels[t] = "?"
				targets = append(targets, t)
			}
		}
	}
	sort.Ints(targets)
	for i, t := range targets {
		labels[t] = "$L" + strconv.Itoa(i)
	}

	var result []string
	for i, inst := range insts {
		if l := labels[starts[i]]; l != "" {
			result = append(result, l)
		}
		result = append(result, formatInst(inst, starts[i], labels))
	}
	if l := labels[len(prog)]; l != "" {
		result = append(result, l)
	}
	return strings.Join(result, " "), nil
}

func jumpTargets(inst Instruction, pc int) []int {
	switch inst.Op {
	case OP_JMP, OP_JMPIF, OP_JMPIFNOT, OP_JMPEQ, OP_JMPNE, OP_JMPGT,
		OP_JMPGE, OP_JMPLT, OP_JMPLE, OP_CALL, OP_ENDTRY:
		return []int{pc + int(inst.TokenI8())}
	case OP_JMP_L, OP_JMPIF_L, OP_JMPIFNOT_L, OP_JMPEQ_L, OP_JMPNE_L, OP_JMPGT_L,
		OP_JMPGE_L, OP_JMPLT_L, OP_JMPLE_L, OP_CALL_L, OP_ENDTRY_L, OP_PUSHA:
		return []int{pc + int(inst.TokenI32())}
	case OP_TRY:
		return nonzeroTargets(pc, int(inst.TokenI8()), int(inst.TokenI8_1()))
	case OP_TRY_L:
		return nonzeroTargets(pc, int(inst.TokenI32()), int(inst.TokenI32_1()))
	}
	return nil
}

func nonzeroTargets(pc int, offs ...int) []int {
	var t []int
	for _, off := range offs {
		if off != 0 {
			t = append(t, pc+off)
		}
	}
	return t
}

func formatInst(inst Instruction, pc int, labels map[int]string) string {
	if !inst.defined() {
		return fmt.Sprintf("UNKNOWNx%02x", uint8(inst.Op))
	}
	info := ops[inst.Op]
	raw := append([]byte{byte(inst.Op)}, inst.Data...)
	if info.prefix > 0 {
		raw = rawPushData(inst)
		text := string(inst.Data)
		if bytes.Equal(PushdataBytes(inst.Data), raw) {
			if printable(text) {
				return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(text) + "'"
			}
			return "0x" + hex.EncodeToString(inst.Data)
		}
		return fmt.Sprintf("%s:0x%x", info.name, inst.Data)
	}

	target := func(off int) string {
		if off == 0 && (inst.Op == OP_TRY || inst.Op == OP_TRY_L) {
			return "0"
		}
		if l := labels[pc+off]; l != "" {
			return l
		}
		return strconv.Itoa(off)
	}

	switch inst.Op {
	case OP_PUSHM1, OP_PUSH0, OP_PUSH1, OP_PUSH2, OP_PUSH3, OP_PUSH4, OP_PUSH5, OP_PUSH6, OP_PUSH7,
		OP_PUSH8, OP_PUSH9, OP_PUSH10, OP_PUSH11, OP_PUSH12, OP_PUSH13, OP_PUSH14, OP_PUSH15, OP_PUSH16:
		return strconv.Itoa(int(inst.Op) - int(OP_PUSH0))
	case OP_PUSHINT8, OP_PUSHINT16, OP_PUSHINT32, OP_PUSHINT64, OP_PUSHINT128, OP_PUSHINT256:
		x := bytesToInteger(inst.Data).Big()
		if canon, err := PushdataBigInt(x); err == nil && bytes.Equal(canon, raw) {
			return x.String()
		}
		return fmt.Sprintf("%s:%s", info.name, x)
	case OP_JMP, OP_JMPIF, OP_JMPIFNOT, OP_JMPEQ, OP_JMPNE, OP_JMPGT,
		OP_JMPGE, OP_JMPLT, OP_JMPLE, OP_CALL, OP_ENDTRY:
		return info.name + ":" + target(int(inst.TokenI8()))
	case OP_JMP_L, OP_JMPIF_L, OP_JMPIFNOT_L, OP_JMPEQ_L, OP_JMPNE_L, OP_JMPGT_L,
		OP_JMPGE_L, OP_JMPLT_L, OP_JMPLE_L, OP_CALL_L, OP_ENDTRY_L, OP_PUSHA:
		return info.name + ":" + target(int(inst.TokenI32()))
	case OP_TRY:
		return info.name + ":" + target(int(inst.TokenI8())) + "," + target(int(inst.TokenI8_1()))
	case OP_TRY_L:
		return info.name + ":" + target(int(inst.TokenI32())) + "," + target(int(inst.TokenI32_1()))
	case OP_SYSCALL:
		return fmt.Sprintf("%s:0x%08x", info.name, inst.TokenU32())
	case OP_CALLT:
		return fmt.Sprintf("%s:%d", info.name, inst.TokenU16())
	case OP_NEWARRAY_T, OP_ISTYPE, OP_CONVERT:
		if t := ItemType(inst.TokenU8()); t.Valid() {
			return info.name + ":" + t.String()
		}
		return fmt.Sprintf("%s:0x%02x", info.name, inst.TokenU8())
	case OP_INITSLOT:
		return fmt.Sprintf("%s:%d,%d", info.name, inst.TokenU8(), inst.TokenU8_1())
	}
	if info.size == 1 {
		return fmt.Sprintf("%s:%d", info.name, inst.TokenU8())
	}
	return info.name
}

func rawPushData(inst Instruction) []byte {
	raw, _ := pushDataAs(ops[inst.Op], inst.Data)
	return raw
}

func printable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
