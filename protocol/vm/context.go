package vm

// TryState is the phase of an active try region.
type TryState uint8

const (
	TryBody TryState = iota
	TryCatch
	TryFinally
)

func (s TryState) String() string {
	switch s {
	case TryBody:
		return "try"
	case TryCatch:
		return "catch"
	}
	return "finally"
}

// TryContext is one active TRY region. Absent catch and finally
// blocks have pointer -1.
type TryContext struct {
	CatchPtr   int
	FinallyPtr int
	EndPtr     int
	State      TryState
}

func (t *TryContext) HasCatch() bool   { return t.CatchPtr >= 0 }
func (t *TryContext) HasFinally() bool { return t.FinallyPtr >= 0 }

// shared is the part of a context inherited by frames created
// with CALL: the script, the evaluation stack and the static fields.
type shared struct {
	script  *Script
	estack  *Stack
	statics *Slot
}

// Context is one call frame.
//
// By convention, variables of this type have the name context, _not_
// ctx (to avoid confusion with context.Context).
type Context struct {
	*shared
	IP      int
	RVCount int // -1 if any number of results may be returned
	locals  *Slot
	args    *Slot
	tries   []*TryContext
}

func newContext(script *Script, rvcount, pos int, rc *RefCounter) *Context {
	return &Context{
		shared:  &shared{script: script, estack: NewStack(rc)},
		IP:      pos,
		RVCount: rvcount,
	}
}

// clone returns a frame at pos sharing this frame's script,
// evaluation stack and static fields.
func (c *Context) clone(pos int) *Context {
	return &Context{
		shared:  c.shared,
		IP:      pos,
		RVCount: 0,
	}
}

func (c *Context) Script() *Script      { return c.script }
func (c *Context) Stack() *Stack        { return c.estack }
func (c *Context) Statics() *Slot       { return c.statics }
func (c *Context) Locals() *Slot        { return c.locals }
func (c *Context) Args() *Slot          { return c.args }
func (c *Context) Tries() []*TryContext { return c.tries }

// Instruction returns the instruction at the frame's pointer.
func (c *Context) Instruction() (Instruction, error) {
	return c.script.At(c.IP)
}

func (c *Context) currentTry() *TryContext {
	if len(c.tries) == 0 {
		return nil
	}
	return c.tries[len(c.tries)-1]
}

func (c *Context) popTry() {
	c.tries[len(c.tries)-1] = nil
	c.tries = c.tries[:len(c.tries)-1]
}
