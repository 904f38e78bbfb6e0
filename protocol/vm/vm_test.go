package vm

import (
	"bytes"
	"context"
	"encoding/hex"
	"reflect"
	"strings"
	"testing"

	"chainvm/errors"
	"chainvm/metrics"
	"chainvm/testutil"
)

// load assembles src into a strict script and loads it as the entry
// frame of a new engine.
func load(t testing.TB, src string, opts ...Option) (*Engine, *Script) {
	t.Helper()
	script := mustScript(t, src)
	e := New(opts...)
	if _, err := e.LoadScript(script, -1, 0); err != nil {
		testutil.FatalErr(t, err)
	}
	return e, script
}

func mustScript(t testing.TB, src string) *Script {
	t.Helper()
	prog, err := Assemble(src)
	if err != nil {
		testutil.FatalErr(t, err)
	}
	script, err := NewScript(prog, true)
	if err != nil {
		testutil.FatalErr(t, err)
	}
	return script
}

func run(t testing.TB, src string, opts ...Option) *Engine {
	t.Helper()
	e, _ := load(t, src, opts...)
	e.Execute()
	return e
}

// runLoose runs src from a script that skips strict validation.
func runLoose(t testing.TB, src string) *Engine {
	t.Helper()
	prog, err := Assemble(src)
	if err != nil {
		testutil.FatalErr(t, err)
	}
	script, err := NewScript(prog, false)
	if err != nil {
		testutil.FatalErr(t, err)
	}
	e := New()
	if _, err := e.LoadScript(script, -1, 0); err != nil {
		testutil.FatalErr(t, err)
	}
	e.Execute()
	return e
}

// faultRoot returns the root of the error that faulted e.
func faultRoot(e *Engine) error {
	if ve, ok := e.FaultErr().(Error); ok {
		return errors.Root(ve.Err)
	}
	return e.FaultErr()
}

func results(e *Engine) []string {
	return describeAll(e.ResultStack().Items())
}

func describeAll(items []Item) []string {
	s := make([]string, 0, len(items))
	for _, item := range items {
		s = append(s, describe(item))
	}
	return s
}

func describe(item Item) string {
	switch item := item.(type) {
	case *Buffer:
		return "buffer:" + hex.EncodeToString(item.Bytes())
	case *Array:
		return "array[" + strings.Join(describeAll(item.Items()), " ") + "]"
	case *Struct:
		return "struct[" + strings.Join(describeAll(item.Items()), " ") + "]"
	case *Map:
		var parts []string
		for i, k := range item.Keys() {
			parts = append(parts, describe(k)+":"+describe(item.Values()[i]))
		}
		return "map{" + strings.Join(parts, " ") + "}"
	}
	return item.String()
}

func expectHalt(t *testing.T, e *Engine, want ...string) {
	t.Helper()
	if e.State() != StateHalt {
		t.Fatalf("state = %s (%v), want HALT", e.State(), e.FaultErr())
	}
	if want == nil {
		want = []string{}
	}
	if got := results(e); !reflect.DeepEqual(got, want) {
		t.Errorf("results = %v want %v", got, want)
	}
}

func expectFault(t *testing.T, e *Engine, want error) {
	t.Helper()
	if e.State() != StateFault {
		t.Fatalf("state = %s, want FAULT", e.State())
	}
	if got := faultRoot(e); got != want {
		t.Errorf("fault = %v want %v", e.FaultErr(), want)
	}
}

func TestScenarios(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		expectHalt(t, run(t, "PUSH2 PUSH3 ADD PUSH5 NUMEQUAL"), "true")
	})
	t.Run("array", func(t *testing.T) {
		expectHalt(t, run(t, "NEWARRAY0 DUP PUSH1 APPEND PUSH0 PICKITEM"), "1")
	})
	t.Run("append consumes the array", func(t *testing.T) {
		expectFault(t, run(t, "NEWARRAY0 PUSH1 APPEND PUSH0 PICKITEM"), ErrDataStackUnderflow)
	})
	t.Run("div zero", func(t *testing.T) {
		e := run(t, "PUSH1 PUSH0 DIV")
		expectFault(t, e, ErrDivZero)
		if e.ResultStack().Len() != 0 {
			t.Errorf("result stack = %v, want empty", results(e))
		}
		if e.UncaughtException() == nil {
			t.Error("uncaught exception not set")
		}
		if !errors.Is(e.FaultErr(), ErrDivZero) {
			t.Errorf("errors.Is(%v, ErrDivZero) = false", e.FaultErr())
		}
	})
}

func TestInitialState(t *testing.T) {
	e := New()
	if e.State() != StateNone {
		t.Errorf("state = %s want NONE", e.State())
	}
	if e.CurrentContext() != nil || e.EntryContext() != nil {
		t.Error("fresh engine has a context")
	}
	if e.Execute() != StateHalt {
		t.Errorf("empty engine did not halt")
	}
	if err := e.Push(NewInt64(1)); errors.Root(err) != ErrDataStackUnderflow {
		t.Errorf("Push without context error = %v", err)
	}
}

func TestStepAfterHalt(t *testing.T) {
	e := run(t, "PUSH1")
	expectHalt(t, e, "1")
	if err := e.Step(); err != nil || e.State() != StateHalt {
		t.Errorf("Step after halt = %v, state %s", err, e.State())
	}
}

func TestTryFinallyOrder(t *testing.T) {
	src := `
		TRY:$catch,0
		TRY:0,$finally
		'boom' THROW
		$finally
		1 ENDFINALLY
		$catch
		2 ENDTRY:$end
		$end
		RET`
	e := run(t, src)
	expectHalt(t, e, "1", ByteString("boom").String(), "2")
	if e.UncaughtException() != nil {
		t.Errorf("uncaught = %v, want nil", e.UncaughtException())
	}
}

func TestTryFinallyNormalFlow(t *testing.T) {
	src := `
		TRY:0,$finally
		1 ENDTRY:$end
		$finally
		2 ENDFINALLY
		$end
		3 RET`
	expectHalt(t, run(t, src), "1", "2", "3")
}

func TestThrowUnwindsFrames(t *testing.T) {
	src := `
		TRY:$catch,0
		CALL:$f
		ENDTRY:$end
		$catch
		ENDTRY:$end
		$end
		RET
		$f
		'oops' THROW`
	e := run(t, src)
	expectHalt(t, e, ByteString("oops").String())
	if d := e.InvocationDepth(); d != 0 {
		t.Errorf("depth = %d", d)
	}
}

func TestUnhandledThrow(t *testing.T) {
	e := run(t, "'x' THROW")
	expectFault(t, e, ErrUnhandledException)
	if got := e.UncaughtException(); got != ByteString("x") {
		t.Errorf("uncaught = %v want 'x'", got)
	}
}

func TestCatchableEngineException(t *testing.T) {
	src := `
		TRY:$catch,0
		NEWARRAY0 0 PICKITEM
		$catch
		DROP 7 ENDTRY:$end
		$end
		RET`
	expectHalt(t, run(t, src), "7")

	limits := DefaultLimits
	limits.CatchEngineExceptions = false
	expectFault(t, run(t, src, WithLimits(limits)), ErrIndexOutOfRange)

	expectFault(t, run(t, "NEWMAP 1 PICKITEM"), ErrUnhandledException)
	expectFault(t, run(t, "TRY:$c,0 1 0 DIV $c 7 ENDTRY:$e $e RET"), ErrDivZero)

	expectHalt(t, run(t, "TRY:$c,0 NEWMAP 1 PICKITEM $c DROP 8 ENDTRY:$e $e RET"), "8")
	e := run(t, "TRY:$c,0 NEWARRAY0 0 PICKITEM $c ENDTRY:$e $e RET")
	if e.State() != StateHalt {
		t.Fatalf("state = %s (%v), want HALT", e.State(), e.FaultErr())
	}
	top, err := e.ResultStack().Peek(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := top.(ByteString); !ok {
		t.Errorf("caught exception = %s want a ByteString message", top)
	}
}

func TestIsCatchable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{ErrIndexOutOfRange, true},
		{ErrKeyNotFound, true},
		{errors.WithDetailf(ErrIndexOutOfRange, "index %d", 3), true},
		{errors.Wrap(errors.WithDetail(ErrKeyNotFound, "k")), true},
		{errors.WithDetailf(ErrBadJump, "call to %d", 9), false},
		{errors.Wrap(ErrInvalidType), false},
		{ErrDivZero, false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsCatchable(c.err); got != c.want {
			t.Errorf("IsCatchable(%v) = %v want %v", c.err, got, c.want)
		}
	}
}

// Wrapped faults keep their root when engine exceptions are catchable.
func TestWrappedFaultRoot(t *testing.T) {
	if !DefaultLimits.CatchEngineExceptions {
		t.Fatal("engine exceptions are not catchable by default")
	}
	cases := []struct {
		src  string
		want error
	}{
		{"1 CALLA", ErrInvalidType},
		{"TRY:$c,0 1 CALLA $c 7 ENDTRY:$e $e RET", ErrInvalidType},
		{"SYSCALL:Test.Missing", ErrSyscallNotFound},
		{"CALLT:1", ErrTokenNotFound},
		{"1 UNKNOWNx06", ErrUnknownOpcode},
	}
	for _, c := range cases {
		e := runLoose(t, c.src)
		if got := faultRoot(e); e.State() != StateFault || got != c.want {
			t.Errorf("%s: state %s fault %v want FAULT %v", c.src, e.State(), e.FaultErr(), c.want)
		}
	}
}

func TestTryErrors(t *testing.T) {
	limits := DefaultLimits
	limits.MaxTryNestingDepth = 2
	expectFault(t, run(t, "TRY:$c,0 TRY:$c,0 TRY:$c,0 $c RET", WithLimits(limits)), ErrTryNesting)
	expectFault(t, run(t, "ENDTRY:$e $e RET"), ErrNoTry)
	expectFault(t, run(t, "ENDFINALLY"), ErrNoTry)
	expectFault(t, run(t, "TRY:0,$f $f ENDTRY:$e $e RET"), ErrEndTryInFinally)
}

func TestCalls(t *testing.T) {
	expectHalt(t, run(t, "CALL:$f 1 ADD RET $f 41 RET"), "42")
	expectHalt(t, run(t, "CALL_L:$f 1 ADD RET $f 41 RET"), "42")
	expectHalt(t, run(t, "PUSHA:$f CALLA RET $f 5 RET"), "5")
	expectFault(t, run(t, "1 CALLA"), ErrInvalidType)
	expectFault(t, run(t, "$f CALL:$f"), ErrInvocationOverflow)

	// A call to the end of the script runs the implicit RET.
	expectHalt(t, runLoose(t, "PUSHA:$end CALLA 5 $end"), "5")
	expectHalt(t, runLoose(t, "CALL:$end 6 $end"), "6")
}

func TestCallSharesStatics(t *testing.T) {
	src := `
		INITSSLOT:1
		5 STSFLD0
		CALL:$f
		LDSFLD0 RET
		$f
		LDSFLD0 INC STSFLD0 RET`
	expectHalt(t, run(t, src), "6")
}

func TestPointerScope(t *testing.T) {
	other := mustScript(t, "RET $f 5 RET")
	e, _ := load(t, "CALLA")
	if err := e.Push(Pointer{Script: other, Pos: 1}); err != nil {
		t.Fatal(err)
	}
	e.Execute()
	expectFault(t, e, ErrBadPointer)

	e, script := load(t, "CALLA RET $f 5 RET")
	if err := e.Push(Pointer{Script: script, Pos: 2}); err != nil {
		t.Fatal(err)
	}
	e.Execute()
	expectHalt(t, e, "5")
}

// A pointer made by PUSHA in one script is only data in another.
func TestPointerAcrossScripts(t *testing.T) {
	callee := mustScript(t, "CALLA")
	table := DefaultJumpTable()
	table[OP_CALLT] = func(e *Engine, _ Instruction) error {
		p, err := e.Pop()
		if err != nil {
			return err
		}
		if _, err := e.LoadScript(callee, -1, 0); err != nil {
			return err
		}
		return e.Push(p)
	}
	expectFault(t, run(t, "PUSHA:$f CALLT:0 RET $f 5 RET", WithJumpTable(table)), ErrBadPointer)

	table[OP_CALLT] = func(e *Engine, _ Instruction) error {
		p, err := e.Pop()
		if err != nil {
			return err
		}
		if _, err := e.LoadScript(mustScript(t, "ISTYPE:Pointer"), 1, 0); err != nil {
			return err
		}
		return e.Push(p)
	}
	expectHalt(t, run(t, "PUSHA:$f CALLT:0 RET $f 5 RET", WithJumpTable(table)), "true")
}

func TestReturnCount(t *testing.T) {
	e := New()
	if _, err := e.LoadScript(mustScript(t, "NOP"), 1, 0); err != nil {
		t.Fatal(err)
	}
	e.Execute()
	expectFault(t, e, ErrReturnCount)

	script := mustScript(t, "1 2")
	e = New()
	if _, err := e.LoadScript(script, 1, 0); err != nil {
		t.Fatal(err)
	}
	e.Execute()
	expectFault(t, e, ErrReturnCount)

	e = New()
	if _, err := e.LoadScript(script, 2, 0); err != nil {
		t.Fatal(err)
	}
	e.Execute()
	expectHalt(t, e, "1", "2")
}

func TestLimitsReadOnly(t *testing.T) {
	e := New()
	l := e.Limits()
	l.MaxStackSize = 1
	if got := e.Limits().MaxStackSize; got != DefaultLimits.MaxStackSize {
		t.Errorf("MaxStackSize = %d after changing a copy, want %d", got, DefaultLimits.MaxStackSize)
	}
}

func TestLoadScriptDepth(t *testing.T) {
	limits := DefaultLimits
	limits.MaxInvocationStackSize = 2
	e := New(WithLimits(limits))
	script := mustScript(t, "RET")
	for i := 0; i < 2; i++ {
		if _, err := e.LoadScript(script, -1, 0); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.LoadScript(script, -1, 0); errors.Root(err) != ErrInvocationOverflow {
		t.Errorf("third LoadScript error = %v want %v", err, ErrInvocationOverflow)
	}
	if e.EntryContext() == e.CurrentContext() {
		t.Error("entry and current frames coincide")
	}
}

func TestTokenCall(t *testing.T) {
	lib := mustScript(t, "42 RET")
	table := DefaultJumpTable()
	TokenTable{7: {Script: lib, Pos: 0, RVCount: 1}}.Install(table)
	expectHalt(t, run(t, "CALLT:7 1 ADD", WithJumpTable(table)), "43")
	expectFault(t, run(t, "CALLT:8", WithJumpTable(table)), ErrTokenNotFound)
	expectFault(t, run(t, "CALLT:7"), ErrTokenNotFound)
}

func TestSyscall(t *testing.T) {
	table := DefaultJumpTable()
	SyscallTable{
		SyscallID("Test.Double"): func(e *Engine) error {
			x, err := e.popInteger()
			if err != nil {
				return err
			}
			return e.pushBig(x.Big().Lsh(x.Big(), 1))
		},
	}.Install(table)
	expectHalt(t, run(t, "21 SYSCALL:Test.Double", WithJumpTable(table)), "42")
	expectFault(t, run(t, "SYSCALL:Test.Missing", WithJumpTable(table)), ErrSyscallNotFound)
	expectFault(t, run(t, "SYSCALL:Test.Double"), ErrSyscallNotFound)
}

func TestSyscallID(t *testing.T) {
	a, b := SyscallID("System.Runtime.Log"), SyscallID("System.Runtime.Notify")
	if a == b {
		t.Errorf("distinct names share id 0x%08x", a)
	}
	if SyscallID("System.Runtime.Log") != a {
		t.Error("SyscallID is not deterministic")
	}
}

func TestRunLimit(t *testing.T) {
	e := run(t, "1 2 ADD", WithRunLimit(1000))
	expectHalt(t, e, "3")
	want := OP_PUSH1.Price() + OP_PUSH2.Price() + OP_ADD.Price() + OP_RET.Price()
	if got := e.GasConsumed(); got != want {
		t.Errorf("gas = %d want %d", got, want)
	}

	e = run(t, "1 2 ADD", WithRunLimit(OP_PUSH1.Price()+OP_PUSH2.Price()))
	expectFault(t, e, ErrRunLimitExceeded)
	if got := e.GasConsumed(); got != OP_PUSH1.Price()+OP_PUSH2.Price() {
		t.Errorf("gas = %d", got)
	}

	if e := run(t, "1 2 ADD"); e.GasConsumed() != 0 {
		t.Errorf("unmetered gas = %d", e.GasConsumed())
	}
}

func TestStackLimit(t *testing.T) {
	limits := DefaultLimits
	limits.MaxStackSize = 4
	for _, mode := range []CountMode{CountPrecise, CountLegacy} {
		expectFault(t, run(t, "1 2 3 4 5", WithLimits(limits), WithCountMode(mode)), ErrStackOverflow)
		expectHalt(t, run(t, "1 2 3 4", WithLimits(limits), WithCountMode(mode)), "1", "2", "3", "4")
		expectFault(t, run(t, "1 2 3 3 PACK DUP", WithLimits(limits), WithCountMode(mode)), ErrStackOverflow)
	}
}

func TestStructValueSemantics(t *testing.T) {
	expectHalt(t, run(t, "NEWARRAY0 DUP 1 APPEND SIZE"), "1")
	expectHalt(t, run(t, "NEWSTRUCT0 DUP 1 APPEND SIZE"), "0")
	expectHalt(t, run(t, "1 NEWARRAY DUP 0 5 SETITEM 0 PICKITEM"), "5")
	expectHalt(t, run(t, "1 NEWSTRUCT DUP 0 5 SETITEM 0 PICKITEM"), "null")
	expectHalt(t, run(t, "NEWSTRUCT0 NEWSTRUCT0 EQUAL"), "true")
	expectHalt(t, run(t, "NEWARRAY0 NEWARRAY0 EQUAL"), "false")
	expectHalt(t, run(t, "NEWARRAY0 DUP EQUAL"), "true")

	// a struct stored into an array is a copy
	src := `
		INITSLOT:2,0
		NEWSTRUCT0 STLOC0
		NEWARRAY0 STLOC1
		LDLOC1 LDLOC0 APPEND
		LDLOC0 9 APPEND
		LDLOC1 0 PICKITEM SIZE
		LDLOC0 SIZE`
	expectHalt(t, run(t, src), "0", "1")
}

func TestStructCloneLimit(t *testing.T) {
	limits := DefaultLimits
	limits.MaxStackSize = 16
	src := "1 2 3 4 5 6 7 8 8 PACKSTRUCT DUP DUP"
	expectFault(t, run(t, src, WithLimits(limits)), ErrStackOverflow)
}

// checkRefs recomputes the reference counts from the engine's roots
// and compares them with the counter.
func checkRefs(t *testing.T, e *Engine) {
	t.Helper()
	want := make(map[Item]int)
	size := 0
	var visit func(Item)
	visit = func(item Item) {
		size++
		if !tracked(item) {
			return
		}
		want[item]++
		if want[item] == 1 {
			eachChild(item, visit)
		}
	}
	stacks := []*Stack{e.rstack}
	seenStack := map[*Stack]bool{e.rstack: true}
	seenSlot := map[*Slot]bool{}
	var slots []*Slot
	for _, c := range e.istack {
		if !seenStack[c.estack] {
			seenStack[c.estack] = true
			stacks = append(stacks, c.estack)
		}
		for _, s := range []*Slot{c.statics, c.locals, c.args} {
			if s != nil && !seenSlot[s] {
				seenSlot[s] = true
				slots = append(slots, s)
			}
		}
	}
	for _, s := range stacks {
		for _, item := range s.Items() {
			visit(item)
		}
	}
	for _, s := range slots {
		for _, item := range s.items {
			visit(item)
		}
	}
	if got := e.refs.Size(); got != size {
		t.Fatalf("pc %d: counted %d references, reachable %d", ipOf(e), got, size)
	}
	if len(e.refs.refs) != len(want) {
		t.Fatalf("pc %d: counter tracks %d items, reachable %d", ipOf(e), len(e.refs.refs), len(want))
	}
	for item, n := range want {
		if got := e.refs.Count(item); got != n {
			t.Fatalf("pc %d: %s counted %d times, reachable %d", ipOf(e), describe(item), got, n)
		}
	}
}

func ipOf(e *Engine) int {
	if c := e.CurrentContext(); c != nil {
		return c.IP
	}
	return -1
}

func TestRefCountConservation(t *testing.T) {
	src := `
		INITSLOT:1,0
		NEWARRAY0 STLOC0
		LDLOC0 1 APPEND
		LDLOC0 NEWMAP APPEND
		LDLOC0 1 PICKITEM 'k' 5 SETITEM
		LDLOC0 1 PICKITEM 'k' 6 SETITEM
		LDLOC0 NEWSTRUCT0 APPEND
		LDLOC0 0 REMOVE
		LDLOC0 DUP SIZE
		LDLOC0 POPITEM
		LDLOC0 0 PICKITEM KEYS
		LDLOC0 0 PICKITEM VALUES
		LDLOC0 0 PICKITEM 'k' REMOVE
		LDLOC0 CLEARITEMS
		4 NEWBUFFER
		1 2 3 3 PACK UNPACK
		DROP
		1 'a' 2 'b' 2 PACKMAP UNPACK
		CLEAR
		CALL:$f
		LDLOC0 RET
		$f
		NEWARRAY0 DUP NEWMAP APPEND DROP
		RET`
	for _, mode := range []CountMode{CountPrecise, CountLegacy} {
		e, _ := load(t, src, WithCountMode(mode))
		for e.State() == StateNone {
			e.Step()
			if e.State() == StateFault {
				t.Fatalf("fault: %v", e.FaultErr())
			}
			checkRefs(t, e)
		}
		expectHalt(t, e, "array[]")
	}
}

func TestUnloadReleasesFrame(t *testing.T) {
	lib := mustScript(t, "INITSLOT:1,0 NEWARRAY0 STLOC0 INITSSLOT:1 NEWMAP STSFLD0 1 RET")
	table := DefaultJumpTable()
	TokenTable{1: {Script: lib, RVCount: 1}}.Install(table)
	e, _ := load(t, "CALLT:1", WithJumpTable(table))
	e.Execute()
	expectHalt(t, e, "1")
	if got := e.RefCounter().Size(); got != 1 {
		t.Errorf("references after halt = %d want 1", got)
	}
	checkRefs(t, e)
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	var ops []Op
	e := run(t, "1 2 ADD",
		TraceOut(&buf),
		TraceOp(func(_ *Engine, inst Instruction) { ops = append(ops, inst.Op) }),
	)
	expectHalt(t, e, "3")
	out := buf.String()
	for _, want := range []string{"vm 1 pc 0 gas 0 PUSH1", "pc 2 gas 0 ADD", "  stack 0: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
	testutil.ExpectEqual(t, ops, []Op{OP_PUSH1, OP_PUSH2, OP_ADD, OP_RET}, "traced ops")

	var traced error
	e = run(t, "1 0 DIV", TraceError(func(_ *Engine, err error) { traced = err }), WithContext(context.Background()))
	expectFault(t, e, ErrDivZero)
	if errors.Root(traced) != ErrDivZero {
		t.Errorf("traced error = %v", traced)
	}
}

func TestMetrics(t *testing.T) {
	r := metrics.NewRecorder()
	run(t, "1 2 ADD", WithMetrics(r))
	run(t, "1 0 DIV", WithMetrics(r))
	s := r.Snapshot()
	if s.Runs != 2 || s.Halts != 1 || s.Faults != 1 {
		t.Errorf("runs/halts/faults = %d/%d/%d want 2/1/1", s.Runs, s.Halts, s.Faults)
	}
	if s.Instructions != 7 {
		t.Errorf("instructions = %d want 7", s.Instructions)
	}
}

func TestErrorString(t *testing.T) {
	e := run(t, "1 0 DIV")
	msg := e.FaultErr().Error()
	if !strings.Contains(msg, "ip 2") || !strings.Contains(msg, "1 0 DIV") {
		t.Errorf("error = %q", msg)
	}
}

func TestUnexpectedPanic(t *testing.T) {
	table := DefaultJumpTable()
	table[OP_NOP] = func(*Engine, Instruction) error { panic("boom") }
	expectFault(t, run(t, "NOP", WithJumpTable(table)), ErrUnexpected)
}

func TestUnknownOpcode(t *testing.T) {
	prog, err := Assemble("1 UNKNOWNx06")
	if err != nil {
		t.Fatal(err)
	}
	script, err := NewScript(prog, false)
	if err != nil {
		t.Fatal(err)
	}
	e := New()
	e.LoadScript(script, -1, 0)
	e.Execute()
	expectFault(t, e, ErrUnknownOpcode)
}
