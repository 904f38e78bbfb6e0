package vm

import "chainvm/errors"

// An OpFunc executes one instruction against the engine's current
// frame. Handlers must not advance the instruction pointer themselves
// unless they also mark the engine as jumping.
type OpFunc func(e *Engine, inst Instruction) error

// JumpTable maps every opcode byte to its handler. Hosts copy a table
// and replace entries to add syscalls, token calls or
// instrumentation.
type JumpTable [256]OpFunc

var defaultTable JumpTable

func init() {
	for i := range defaultTable {
		defaultTable[i] = opUnknown
	}
	for op, f := range handlers {
		defaultTable[op] = f
	}
}

// DefaultJumpTable returns a copy of the arbitrary-precision table.
func DefaultJumpTable() *JumpTable {
	t := defaultTable
	return &t
}

var handlers = map[Op]OpFunc{
	OP_PUSHINT8:   opPushInt,
	OP_PUSHINT16:  opPushInt,
	OP_PUSHINT32:  opPushInt,
	OP_PUSHINT64:  opPushInt,
	OP_PUSHINT128: opPushInt,
	OP_PUSHINT256: opPushInt,
	OP_PUSHT:      opPushT,
	OP_PUSHF:      opPushF,
	OP_PUSHA:      opPushA,
	OP_PUSHNULL:   opPushNull,
	OP_PUSHDATA1:  opPushdata,
	OP_PUSHDATA2:  opPushdata,
	OP_PUSHDATA4:  opPushdata,
	OP_PUSHM1:     opPushSmall,
	OP_PUSH0:      opPushSmall,
	OP_PUSH1:      opPushSmall,
	OP_PUSH2:      opPushSmall,
	OP_PUSH3:      opPushSmall,
	OP_PUSH4:      opPushSmall,
	OP_PUSH5:      opPushSmall,
	OP_PUSH6:      opPushSmall,
	OP_PUSH7:      opPushSmall,
	OP_PUSH8:      opPushSmall,
	OP_PUSH9:      opPushSmall,
	OP_PUSH10:     opPushSmall,
	OP_PUSH11:     opPushSmall,
	OP_PUSH12:     opPushSmall,
	OP_PUSH13:     opPushSmall,
	OP_PUSH14:     opPushSmall,
	OP_PUSH15:     opPushSmall,
	OP_PUSH16:     opPushSmall,

	OP_NOP:        opNop,
	OP_JMP:        opJmp,
	OP_JMP_L:      opJmp,
	OP_JMPIF:      opJmpIf,
	OP_JMPIF_L:    opJmpIf,
	OP_JMPIFNOT:   opJmpIfNot,
	OP_JMPIFNOT_L: opJmpIfNot,
	OP_JMPEQ:      opJmpCmp,
	OP_JMPEQ_L:    opJmpCmp,
	OP_JMPNE:      opJmpCmp,
	OP_JMPNE_L:    opJmpCmp,
	OP_JMPGT:      opJmpCmp,
	OP_JMPGT_L:    opJmpCmp,
	OP_JMPGE:      opJmpCmp,
	OP_JMPGE_L:    opJmpCmp,
	OP_JMPLT:      opJmpCmp,
	OP_JMPLT_L:    opJmpCmp,
	OP_JMPLE:      opJmpCmp,
	OP_JMPLE_L:    opJmpCmp,
	OP_CALL:       opCall,
	OP_CALL_L:     opCall,
	OP_CALLA:      opCallA,
	OP_CALLT:      opCallT,
	OP_ABORT:      opAbort,
	OP_ASSERT:     opAssert,
	OP_THROW:      opThrow,
	OP_TRY:        opTry,
	OP_TRY_L:      opTry,
	OP_ENDTRY:     opEndTry,
	OP_ENDTRY_L:   opEndTry,
	OP_ENDFINALLY: opEndFinally,
	OP_RET:        opRet,
	OP_SYSCALL:    opSyscall,

	OP_DEPTH:    opDepth,
	OP_DROP:     opDrop,
	OP_NIP:      opNip,
	OP_XDROP:    opXdrop,
	OP_CLEAR:    opClear,
	OP_DUP:      opDup,
	OP_OVER:     opOver,
	OP_PICK:     opPick,
	OP_TUCK:     opTuck,
	OP_SWAP:     opSwap,
	OP_ROT:      opRot,
	OP_ROLL:     opRoll,
	OP_REVERSE3: opReverse3,
	OP_REVERSE4: opReverse4,
	OP_REVERSEN: opReverseN,

	OP_INITSSLOT: opInitSSlot,
	OP_INITSLOT:  opInitSlot,
	OP_LDSFLD0:   opLdsfld,
	OP_LDSFLD1:   opLdsfld,
	OP_LDSFLD2:   opLdsfld,
	OP_LDSFLD3:   opLdsfld,
	OP_LDSFLD4:   opLdsfld,
	OP_LDSFLD5:   opLdsfld,
	OP_LDSFLD6:   opLdsfld,
	OP_LDSFLD:    opLdsfld,
	OP_STSFLD0:   opStsfld,
	OP_STSFLD1:   opStsfld,
	OP_STSFLD2:   opStsfld,
	OP_STSFLD3:   opStsfld,
	OP_STSFLD4:   opStsfld,
	OP_STSFLD5:   opStsfld,
	OP_STSFLD6:   opStsfld,
	OP_STSFLD:    opStsfld,
	OP_LDLOC0:    opLdloc,
	OP_LDLOC1:    opLdloc,
	OP_LDLOC2:    opLdloc,
	OP_LDLOC3:    opLdloc,
	OP_LDLOC4:    opLdloc,
	OP_LDLOC5:    opLdloc,
	OP_LDLOC6:    opLdloc,
	OP_LDLOC:     opLdloc,
	OP_STLOC0:    opStloc,
	OP_STLOC1:    opStloc,
	OP_STLOC2:    opStloc,
	OP_STLOC3:    opStloc,
	OP_STLOC4:    opStloc,
	OP_STLOC5:    opStloc,
	OP_STLOC6:    opStloc,
	OP_STLOC:     opStloc,
	OP_LDARG0:    opLdarg,
	OP_LDARG1:    opLdarg,
	OP_LDARG2:    opLdarg,
	OP_LDARG3:    opLdarg,
	OP_LDARG4:    opLdarg,
	OP_LDARG5:    opLdarg,
	OP_LDARG6:    opLdarg,
	OP_LDARG:     opLdarg,
	OP_STARG0:    opStarg,
	OP_STARG1:    opStarg,
	OP_STARG2:    opStarg,
	OP_STARG3:    opStarg,
	OP_STARG4:    opStarg,
	OP_STARG5:    opStarg,
	OP_STARG6:    opStarg,
	OP_STARG:     opStarg,

	OP_NEWBUFFER: opNewBuffer,
	OP_MEMCPY:    opMemcpy,
	OP_CAT:       opCat,
	OP_SUBSTR:    opSubstr,
	OP_LEFT:      opLeft,
	OP_RIGHT:     opRight,

	OP_INVERT:   opInvert,
	OP_AND:      opAnd,
	OP_OR:       opOr,
	OP_XOR:      opXor,
	OP_EQUAL:    opEqual,
	OP_NOTEQUAL: opNotEqual,

	OP_SIGN:        opSign,
	OP_ABS:         opAbs,
	OP_NEGATE:      opNegate,
	OP_INC:         opInc,
	OP_DEC:         opDec,
	OP_ADD:         opAdd,
	OP_SUB:         opSub,
	OP_MUL:         opMul,
	OP_DIV:         opDiv,
	OP_MOD:         opMod,
	OP_POW:         opPow,
	OP_SQRT:        opSqrt,
	OP_MODMUL:      opModMul,
	OP_MODPOW:      opModPow,
	OP_SHL:         opShl,
	OP_SHR:         opShr,
	OP_NOT:         opNot,
	OP_BOOLAND:     opBoolAnd,
	OP_BOOLOR:      opBoolOr,
	OP_NZ:          opNz,
	OP_NUMEQUAL:    opNumEqual,
	OP_NUMNOTEQUAL: opNumNotEqual,
	OP_LT:          opLt,
	OP_LE:          opLe,
	OP_GT:          opGt,
	OP_GE:          opGe,
	OP_MIN:         opMin,
	OP_MAX:         opMax,
	OP_WITHIN:      opWithin,

	OP_PACKMAP:      opPackMap,
	OP_PACKSTRUCT:   opPack,
	OP_PACK:         opPack,
	OP_UNPACK:       opUnpack,
	OP_NEWARRAY0:    opNewArray0,
	OP_NEWARRAY:     opNewArray,
	OP_NEWARRAY_T:   opNewArrayT,
	OP_NEWSTRUCT0:   opNewStruct0,
	OP_NEWSTRUCT:    opNewArray,
	OP_NEWMAP:       opNewMap,
	OP_SIZE:         opSize,
	OP_HASKEY:       opHasKey,
	OP_KEYS:         opKeys,
	OP_VALUES:       opValues,
	OP_PICKITEM:     opPickItem,
	OP_APPEND:       opAppend,
	OP_SETITEM:      opSetItem,
	OP_REVERSEITEMS: opReverseItems,
	OP_REMOVE:       opRemove,
	OP_CLEARITEMS:   opClearItems,
	OP_POPITEM:      opPopItem,

	OP_ISNULL:  opIsNull,
	OP_ISTYPE:  opIsType,
	OP_CONVERT: opConvert,

	OP_ABORTMSG:  opAbortMsg,
	OP_ASSERTMSG: opAssertMsg,
}

func opUnknown(e *Engine, inst Instruction) error {
	return errors.WithDetailf(ErrUnknownOpcode, "opcode 0x%02x", uint8(inst.Op))
}
