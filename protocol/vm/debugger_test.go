package vm

import "testing"

func TestDebuggerBreakPoint(t *testing.T) {
	e, script := load(t, "1 2 ADD RET")
	d := NewDebugger(e)
	d.AddBreakPoint(script, 2)

	if s := d.Execute(); s != StateBreak {
		t.Fatalf("Execute() = %s want BREAK", s)
	}
	if ip := e.CurrentContext().IP; ip != 2 {
		t.Errorf("IP = %d want 2", ip)
	}
	if n := e.CurrentContext().Stack().Len(); n != 2 {
		t.Errorf("stack depth = %d want 2", n)
	}

	if s := d.StepInto(); s != StateBreak {
		t.Fatalf("StepInto() = %s want BREAK", s)
	}
	if ip := e.CurrentContext().IP; ip != 3 {
		t.Errorf("IP = %d want 3", ip)
	}

	if s := d.Execute(); s != StateHalt {
		t.Fatalf("Execute() = %s want HALT", s)
	}
	expectHalt(t, e, "3")

	if s := d.StepInto(); s != StateHalt {
		t.Errorf("StepInto() after halt = %s", s)
	}
}

func TestDebuggerBreakInCallee(t *testing.T) {
	e, script := load(t, "CALL:$f 5 RET $f 1 2 ADD RET")
	d := NewDebugger(e)
	d.AddBreakPoint(script, 6)

	if s := d.Execute(); s != StateBreak {
		t.Fatalf("Execute() = %s want BREAK", s)
	}
	if depth := e.InvocationDepth(); depth != 2 {
		t.Errorf("depth = %d want 2", depth)
	}
	if ip := e.CurrentContext().IP; ip != 6 {
		t.Errorf("IP = %d want 6", ip)
	}

	if s := d.StepOut(); s != StateBreak {
		t.Fatalf("StepOut() = %s want BREAK", s)
	}
	if depth := e.InvocationDepth(); depth != 1 {
		t.Errorf("depth after StepOut = %d want 1", depth)
	}
	if ip := e.CurrentContext().IP; ip != 2 {
		t.Errorf("IP after StepOut = %d want 2", ip)
	}

	if s := d.Execute(); s != StateHalt {
		t.Fatalf("Execute() = %s want HALT", s)
	}
	expectHalt(t, e, "3", "5")
}

func TestDebuggerStepOver(t *testing.T) {
	e, _ := load(t, "CALL:$f 5 RET $f 1 2 ADD RET")
	d := NewDebugger(e)

	if s := d.StepOver(); s != StateBreak {
		t.Fatalf("StepOver() = %s want BREAK", s)
	}
	if depth, ip := e.InvocationDepth(), e.CurrentContext().IP; depth != 1 || ip != 2 {
		t.Errorf("after CALL: depth %d IP %d, want 1 and 2", depth, ip)
	}
	if got := describeAll(e.CurrentContext().Stack().Items()); len(got) != 1 || got[0] != "3" {
		t.Errorf("stack after CALL = %v want [3]", got)
	}

	d.StepOver()
	if s := d.StepOver(); s != StateHalt {
		t.Fatalf("StepOver() at RET = %s want HALT", s)
	}
	expectHalt(t, e, "3", "5")
}

func TestDebuggerStepInto(t *testing.T) {
	e, _ := load(t, "CALL:$f RET $f 1 RET")
	d := NewDebugger(e)

	d.StepInto()
	if depth, ip := e.InvocationDepth(), e.CurrentContext().IP; depth != 2 || ip != 3 {
		t.Errorf("after StepInto: depth %d IP %d, want 2 and 3", depth, ip)
	}
	d.StepInto()
	d.StepInto()
	if depth := e.InvocationDepth(); depth != 1 {
		t.Errorf("depth after callee RET = %d want 1", depth)
	}
	if s := d.StepInto(); s != StateHalt {
		t.Errorf("final StepInto() = %s want HALT", s)
	}
	expectHalt(t, e, "1")
}

func TestRemoveBreakPoint(t *testing.T) {
	e, script := load(t, "1 2 ADD")
	d := NewDebugger(e)
	d.AddBreakPoint(script, 1)
	if !d.RemoveBreakPoint(script, 1) {
		t.Error("RemoveBreakPoint(1) = false want true")
	}
	if d.RemoveBreakPoint(script, 1) {
		t.Error("second RemoveBreakPoint(1) = true want false")
	}
	if d.RemoveBreakPoint(script, 5) {
		t.Error("RemoveBreakPoint(5) = true want false")
	}
	if s := d.Execute(); s != StateHalt {
		t.Errorf("Execute() = %s want HALT", s)
	}
	if d.Engine() != e {
		t.Error("Engine() returned a different engine")
	}
}
