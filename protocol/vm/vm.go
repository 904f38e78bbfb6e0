package vm

import (
	"context"
	"fmt"
	"io"
	"time"

	"chainvm/errors"
	"chainvm/log"
	"chainvm/metrics"
)

// State is the run state of an engine.
type State uint8

const (
	StateNone  State = iota // running or not yet started
	StateHalt               // finished; results are on the result stack
	StateFault              // stopped by an error
	StateBreak              // paused between steps by a debugger
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StateHalt:
		return "HALT"
	case StateFault:
		return "FAULT"
	case StateBreak:
		return "BREAK"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Limits bounds the resources a run may use.
type Limits struct {
	MaxShift               int  `toml:"max_shift"`
	MaxStackSize           int  `toml:"max_stack_size"`
	MaxItemSize            int  `toml:"max_item_size"`
	MaxComparableSize      int  `toml:"max_comparable_size"`
	MaxInvocationStackSize int  `toml:"max_invocation_stack_size"`
	MaxTryNestingDepth     int  `toml:"max_try_nesting_depth"`
	CatchEngineExceptions  bool `toml:"catch_engine_exceptions"`
}

var DefaultLimits = Limits{
	MaxShift:               256,
	MaxStackSize:           2 * 1024,
	MaxItemSize:            2 * 65535,
	MaxComparableSize:      65536,
	MaxInvocationStackSize: 1024,
	MaxTryNestingDepth:     16,
	CatchEngineExceptions:  true,
}

// Engine executes scripts. An Engine and everything it holds is
// confined to one goroutine; concurrent runs use separate engines.
type Engine struct {
	state   State
	jumping bool
	limits  Limits
	table   *JumpTable
	mode    CountMode
	refs    *RefCounter

	istack   []*Context // istack[len(istack)-1] is the current frame
	rstack   *Stack
	uncaught Item
	faultErr error

	metered  bool
	runLimit int64
	gas      int64

	traceOut   io.Writer
	traceOp    func(*Engine, Instruction)
	traceError func(*Engine, error)
	ctx        context.Context
	recorder   *metrics.Recorder
}

// New returns an engine with default limits and the default jump
// table, modified by opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		limits: DefaultLimits,
		table:  &defaultTable,
	}
	for _, o := range opts {
		o(e)
	}
	e.refs = NewRefCounter(e.mode, e.limits.MaxStackSize)
	e.rstack = NewStack(e.refs)
	return e
}

func (e *Engine) State() State                { return e.state }
func (e *Engine) Limits() Limits              { return e.limits }
func (e *Engine) RefCounter() *RefCounter     { return e.refs }
func (e *Engine) ResultStack() *Stack         { return e.rstack }
func (e *Engine) UncaughtException() Item     { return e.uncaught }
func (e *Engine) FaultErr() error             { return e.faultErr }
func (e *Engine) GasConsumed() int64          { return e.gas }
func (e *Engine) InvocationDepth() int        { return len(e.istack) }
func (e *Engine) InvocationStack() []*Context { return e.istack }

// CurrentContext returns the executing frame, or nil.
func (e *Engine) CurrentContext() *Context {
	if len(e.istack) == 0 {
		return nil
	}
	return e.istack[len(e.istack)-1]
}

// EntryContext returns the bottom frame, or nil.
func (e *Engine) EntryContext() *Context {
	if len(e.istack) == 0 {
		return nil
	}
	return e.istack[0]
}

// LoadScript pushes a frame executing script from pos. If rvcount is
// nonnegative the frame must return exactly that many items.
func (e *Engine) LoadScript(script *Script, rvcount, pos int) (*Context, error) {
	c := newContext(script, rvcount, pos, e.refs)
	if err := e.loadContext(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) loadContext(c *Context) error {
	if len(e.istack) >= e.limits.MaxInvocationStackSize {
		return errors.WithDetailf(ErrInvocationOverflow, "depth %d", len(e.istack))
	}
	e.istack = append(e.istack, c)
	return nil
}

// unloadContext pops the current frame and releases what it alone
// held.
func (e *Engine) unloadContext() *Context {
	c := e.istack[len(e.istack)-1]
	e.istack[len(e.istack)-1] = nil
	e.istack = e.istack[:len(e.istack)-1]
	next := e.CurrentContext()
	if next == nil || next.shared != c.shared {
		if next == nil || next.estack != c.estack {
			c.estack.Clear()
		}
		if c.statics != nil && (next == nil || next.statics != c.statics) {
			c.statics.clear()
		}
	}
	if c.locals != nil {
		c.locals.clear()
	}
	if c.args != nil {
		c.args.clear()
	}
	return c
}

// Push pushes item on the current frame's evaluation stack.
func (e *Engine) Push(item Item) error {
	c := e.CurrentContext()
	if c == nil {
		return errors.WithDetail(ErrDataStackUnderflow, "no current context")
	}
	return c.estack.Push(item)
}

// Pop pops the current frame's evaluation stack.
func (e *Engine) Pop() (Item, error) {
	c := e.CurrentContext()
	if c == nil {
		return nil, errors.WithDetail(ErrDataStackUnderflow, "no current context")
	}
	return c.estack.Pop()
}

// Peek returns the nth item of the current frame's evaluation stack.
func (e *Engine) Peek(n int) (Item, error) {
	c := e.CurrentContext()
	if c == nil {
		return nil, errors.WithDetail(ErrDataStackUnderflow, "no current context")
	}
	return c.estack.Peek(n)
}

func (e *Engine) pushBool(b bool) error   { return e.Push(Boolean(b)) }
func (e *Engine) pushInt64(n int64) error { return e.Push(NewInt64(n)) }
func (e *Engine) estack() *Stack          { return e.istack[len(e.istack)-1].estack }
func (e *Engine) current() *Context       { return e.istack[len(e.istack)-1] }

func (e *Engine) popInteger() (Integer, error) {
	item, err := e.Pop()
	if err != nil {
		return Integer{}, err
	}
	return AsInteger(item)
}

func (e *Engine) popInt() (int, error) {
	item, err := e.Pop()
	if err != nil {
		return 0, err
	}
	return AsInt(item)
}

func (e *Engine) popBool() (bool, error) {
	item, err := e.Pop()
	if err != nil {
		return false, err
	}
	return AsBool(item)
}

func (e *Engine) popBytes() ([]byte, error) {
	item, err := e.Pop()
	if err != nil {
		return nil, err
	}
	return AsBytes(item)
}

// Execute runs until the engine halts or faults.
func (e *Engine) Execute() State {
	if e.state == StateBreak {
		e.state = StateNone
	}
	var start time.Time
	if e.recorder != nil {
		start = time.Now()
	}
	for e.state != StateHalt && e.state != StateFault {
		e.Step()
	}
	if e.recorder != nil {
		e.recorder.ObserveRun(time.Since(start), e.state == StateFault)
	}
	return e.state
}

// Step executes one instruction. It returns the error that faulted
// the engine, if this step did. Stepping a halted or faulted engine
// does nothing.
func (e *Engine) Step() (err error) {
	if e.state == StateHalt || e.state == StateFault {
		return nil
	}
	if len(e.istack) == 0 {
		e.state = StateHalt
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = e.fault(errors.WithDetailf(ErrUnexpected, "%v", r))
		}
	}()
	if e.recorder != nil {
		defer func(start time.Time) { e.recorder.ObserveStep(time.Since(start)) }(time.Now())
	}

	context := e.current()
	inst, err := context.Instruction()
	if err != nil {
		return e.fault(err)
	}
	if e.metered {
		price := inst.Op.Price()
		if e.gas+price > e.runLimit {
			return e.fault(errors.WithDetailf(ErrRunLimitExceeded, "%s costs %d, %d left", inst.Op, price, e.runLimit-e.gas))
		}
		e.gas += price
	}
	if e.traceOp != nil {
		e.traceOp(e, inst)
	}
	if e.traceOut != nil {
		fmt.Fprintf(e.traceOut, "vm %d pc %d gas %d %s", len(e.istack), context.IP, e.gas, inst.Op)
		if len(inst.Data) > 0 {
			fmt.Fprintf(e.traceOut, " %x", inst.Data)
		}
		fmt.Fprint(e.traceOut, "\n")
	}

	err = e.table[inst.Op](e, inst)
	if err != nil && e.limits.CatchEngineExceptions && IsCatchable(err) {
		err = e.throw(ByteString(err.Error()))
	}
	if err == nil {
		err = e.refs.Check()
	}
	if err != nil {
		return e.fault(err)
	}
	if !e.jumping {
		context.IP += int(inst.Len)
	}
	e.jumping = false

	if e.traceOut != nil && len(e.istack) > 0 {
		items := e.estack().Items()
		for i := len(items) - 1; i >= 0; i-- {
			fmt.Fprintf(e.traceOut, "  stack %d: %s\n", len(items)-1-i, items[i])
		}
	}
	return nil
}

// fault stops the engine. The uncaught-exception slot keeps a pending
// thrown value, or else records err's message.
func (e *Engine) fault(err error) error {
	var prog []byte
	ip := -1
	if c := e.CurrentContext(); c != nil {
		prog, ip = c.script.prog, c.IP
	}
	if e.uncaught == nil {
		e.uncaught = ByteString(err.Error())
	}
	e.faultErr = Error{Err: err, Prog: prog, IP: ip}
	e.state = StateFault
	if e.traceError != nil {
		e.traceError(e, err)
	}
	if e.ctx != nil {
		log.Error(e.ctx, err, "vm fault")
	}
	return e.faultErr
}

// throw raises ex as a contract exception.
func (e *Engine) throw(ex Item) error {
	e.uncaught = ex
	return e.handleException()
}

// handleException transfers control to the innermost try region still
// able to handle the pending exception, unwinding frames above it.
func (e *Engine) handleException() error {
	pop := 0
	for i := len(e.istack) - 1; i >= 0; i-- {
		context := e.istack[i]
		for len(context.tries) > 0 {
			t := context.currentTry()
			if t.State == TryFinally || (t.State == TryCatch && !t.HasFinally()) {
				context.popTry()
				continue
			}
			for j := 0; j < pop; j++ {
				e.unloadContext()
			}
			e.jumping = true
			if t.State == TryBody && t.HasCatch() {
				t.State = TryCatch
				context.IP = t.CatchPtr
				ex := e.uncaught
				e.uncaught = nil
				return context.estack.Push(ex)
			}
			t.State = TryFinally
			context.IP = t.FinallyPtr
			return nil
		}
		pop++
	}
	return errors.WithDetailf(ErrUnhandledException, "%s", e.uncaught)
}

// jump moves the current frame to pos, which must lie inside the
// script.
func (e *Engine) jump(pos int) error {
	c := e.current()
	if pos < 0 || pos >= c.script.Len() {
		return errors.WithDetailf(ErrBadJump, "position %d of %d", pos, c.script.Len())
	}
	c.IP = pos
	e.jumping = true
	return nil
}

func (e *Engine) jumpOffset(off int) error {
	return e.jump(e.current().IP + off)
}

// Error decorates a fault with the script that raised it.
type Error struct {
	Err  error
	Prog []byte
	IP   int
}

func (e Error) Error() string {
	dis, err := Disassemble(e.Prog)
	if err != nil {
		dis = "???"
	}
	return fmt.Sprintf("%s [ip %d; prog %x = %s]", e.Err.Error(), e.IP, e.Prog, dis)
}

func (e Error) Unwrap() error { return e.Err }
