package errors

import (
	"fmt"
	"runtime"
)

const stackTraceSize = 10

// StackFrame represents a single entry in a stack trace.
type StackFrame struct {
	Func string
	File string
	Line int
}

// String satisfies the fmt.Stringer interface.
func (f StackFrame) String() string {
	return fmt.Sprintf("%s:%d - %s", f.File, f.Line, f.Func)
}

// Stack returns the stack recorded when err was first wrapped, or nil
// if err carries none.
func Stack(err error) []StackFrame {
	if wErr, ok := err.(wrapperError); ok {
		return wErr.stack
	}
	return nil
}

// getStack records up to size frames of the caller's stack, skipping
// skip frames. Inlined calls get frames of their own.
func getStack(skip int, size int) []StackFrame {
	pc := make([]uintptr, size)
	n := runtime.Callers(skip+1, pc)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pc[:n])
	trace := make([]StackFrame, 0, n)
	for {
		f, more := frames.Next()
		trace = append(trace, StackFrame{Func: f.Function, File: f.File, Line: f.Line})
		if !more || len(trace) == size {
			break
		}
	}
	return trace
}
