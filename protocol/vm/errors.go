package vm

import "errors"

var (
	ErrBadJump            = errors.New("jump target out of range")
	ErrBadPointer         = errors.New("pointer from a different script")
	ErrBadScript          = errors.New("invalid script")
	ErrBadTry             = errors.New("invalid try block")
	ErrBadValue           = errors.New("bad value")
	ErrAbort              = errors.New("ABORT executed")
	ErrAssert             = errors.New("ASSERT failed")
	ErrComparableSize     = errors.New("comparison too large")
	ErrDataStackUnderflow = errors.New("data stack underflow")
	ErrDivZero            = errors.New("division by zero")
	ErrEndTryInFinally    = errors.New("ENDTRY inside finally block")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrIntegerOverflow    = errors.New("integer too large")
	ErrInvalidCast        = errors.New("invalid conversion")
	ErrInvalidType        = errors.New("invalid item type")
	ErrInvocationOverflow = errors.New("invocation stack overflow")
	ErrItemTooLarge       = errors.New("item too large")
	ErrKeyNotFound        = errors.New("key not found")
	ErrLongProgram        = errors.New("program size exceeds max int32")
	ErrMapKey             = errors.New("invalid map key")
	ErrNoTry              = errors.New("no try block")
	ErrReturnCount        = errors.New("return value count mismatch")
	ErrRunLimitExceeded   = errors.New("run limit exceeded")
	ErrShift              = errors.New("shift out of range")
	ErrShortProgram       = errors.New("unexpected end of program")
	ErrSlotIndex          = errors.New("slot index out of range")
	ErrSlotInitTwice      = errors.New("slot already initialized")
	ErrSlotUninit         = errors.New("slot not initialized")
	ErrStackOverflow      = errors.New("reference count exceeds max stack size")
	ErrSyscallNotFound    = errors.New("syscall not found")
	ErrToken              = errors.New("unrecognized token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTryNesting         = errors.New("try nesting too deep")
	ErrUnexpected         = errors.New("unexpected error")
	ErrUnhandledException = errors.New("unhandled exception")
	ErrUnknownOpcode      = errors.New("unknown opcode")
)

// IsCatchable reports whether err, after unwrapping, is one a
// contract can catch.
func IsCatchable(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange) || errors.Is(err, ErrKeyNotFound)
}
