package vm

import (
	"context"
	"io"

	"chainvm/metrics"
)

type Option func(*Engine)

func WithLimits(l Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// WithJumpTable replaces the handlers the engine dispatches to.
func WithJumpTable(t *JumpTable) Option {
	return func(e *Engine) {
		e.table = t
	}
}

func WithCountMode(m CountMode) Option {
	return func(e *Engine) {
		e.mode = m
	}
}

// WithRunLimit meters the run: each instruction's price is charged
// before it executes and the run faults once the total would exceed n.
func WithRunLimit(n int64) Option {
	return func(e *Engine) {
		e.metered = true
		e.runLimit = n
	}
}

// TraceOut writes each instruction and the resulting evaluation
// stack to w.
func TraceOut(w io.Writer) Option {
	return func(e *Engine) {
		e.traceOut = w
	}
}

func TraceOp(f func(*Engine, Instruction)) Option {
	return func(e *Engine) {
		e.traceOp = f
	}
}

func TraceError(f func(*Engine, error)) Option {
	return func(e *Engine) {
		e.traceError = f
	}
}

// WithContext makes the engine log faults with ctx.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) {
		e.ctx = ctx
	}
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}
