package vm

// Debugger drives an engine step by step, pausing in StateBreak at
// breakpoints and after each stepping call.
type Debugger struct {
	e      *Engine
	breaks map[*Script]map[int]bool
}

func NewDebugger(e *Engine) *Debugger {
	return &Debugger{e: e, breaks: make(map[*Script]map[int]bool)}
}

func (d *Debugger) Engine() *Engine { return d.e }

// AddBreakPoint pauses execution before the instruction at pos in
// script.
func (d *Debugger) AddBreakPoint(script *Script, pos int) {
	if d.breaks[script] == nil {
		d.breaks[script] = make(map[int]bool)
	}
	d.breaks[script][pos] = true
}

// RemoveBreakPoint reports whether the breakpoint existed.
func (d *Debugger) RemoveBreakPoint(script *Script, pos int) bool {
	set := d.breaks[script]
	if !set[pos] {
		return false
	}
	delete(set, pos)
	if len(set) == 0 {
		delete(d.breaks, script)
	}
	return true
}

// Execute runs until the engine halts, faults or reaches a
// breakpoint.
func (d *Debugger) Execute() State {
	if d.e.state == StateBreak {
		d.e.state = StateNone
	}
	for d.e.state == StateNone {
		d.step()
	}
	return d.e.state
}

// StepInto executes one instruction.
func (d *Debugger) StepInto() State {
	if d.e.state == StateHalt || d.e.state == StateFault {
		return d.e.state
	}
	d.e.state = StateNone
	d.e.Step()
	if d.e.state == StateNone {
		d.e.state = StateBreak
	}
	return d.e.state
}

// StepOver executes one instruction, running any frames it calls to
// completion.
func (d *Debugger) StepOver() State {
	if d.e.state == StateHalt || d.e.state == StateFault {
		return d.e.state
	}
	d.e.state = StateNone
	depth := len(d.e.istack)
	for {
		d.step()
		if d.e.state != StateNone || len(d.e.istack) <= depth {
			break
		}
	}
	if d.e.state == StateNone {
		d.e.state = StateBreak
	}
	return d.e.state
}

// StepOut runs until the current frame returns.
func (d *Debugger) StepOut() State {
	if d.e.state == StateBreak {
		d.e.state = StateNone
	}
	depth := len(d.e.istack)
	for d.e.state == StateNone && len(d.e.istack) >= depth {
		d.step()
	}
	if d.e.state == StateNone {
		d.e.state = StateBreak
	}
	return d.e.state
}

func (d *Debugger) step() {
	d.e.Step()
	if d.e.state != StateNone {
		return
	}
	c := d.e.CurrentContext()
	if c != nil && d.breaks[c.script][c.IP] {
		d.e.state = StateBreak
	}
}
