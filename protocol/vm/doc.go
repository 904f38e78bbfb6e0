/*
Package vm implements a deterministic, metered stack machine for
smart-contract bytecode.

A Script wraps a program and decodes it once. An Engine runs scripts:
LoadScript pushes a call frame (a Context) onto the invocation stack
and Execute steps until the engine halts or faults. Each Context
owns an evaluation stack, optional static, local and argument slots,
and a stack of active try regions. Values returned by the entry
frame land on the engine's result stack.

Each step decodes the instruction at the current frame's pointer and
dispatches it through a JumpTable. Opcodes fall into these
categories, each with a corresponding .go file:
  - pushdata
  - control
  - stackops
  - slots
  - splice
  - bitwise
  - numeric
  - compound
OptimizedJumpTable replaces the common integer opcodes with versions
that avoid big.Int arithmetic when both operands fit in 64 bits.
SYSCALL and CALLT are extension points; a host installs a
SyscallTable or TokenTable to give them meaning.

Every item reachable from a stack or slot is counted by the engine's
RefCounter. After each instruction the count must not exceed
Limits.MaxStackSize. CountPrecise enforces the ceiling on every push
as well.

Errors raised by an instruction fault the engine, except that the
catchable ones (ErrIndexOutOfRange and ErrKeyNotFound) are first
offered to the innermost enclosing TRY region as a ByteString
exception when Limits.CatchEngineExceptions is set. Values thrown with
THROW unwind frames until a try region handles them; if none does,
the engine faults with ErrUnhandledException and the thrown value
stays in UncaughtException.

If WithRunLimit is given, every instruction is charged its opcode
price before it executes, and the engine faults with
ErrRunLimitExceeded once the limit would be passed.

Assemble and Disassemble convert between bytecode and a textual
notation used by tests and tools. Debugger steps an engine with
breakpoints.
*/
package vm
