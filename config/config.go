// Package config loads engine settings from a TOML file and the
// environment.
package config

import (
	"io"

	"github.com/BurntSushi/toml"

	"chainvm/env"
	"chainvm/errors"
	"chainvm/protocol/vm"
)

var (
	ErrUnknownKey = errors.New("unknown config key")
	ErrInvalid    = errors.New("invalid config")
)

// Config holds everything needed to construct engines for a run.
type Config struct {
	Limits     vm.Limits `toml:"limits"`
	RunLimit   int64     `toml:"run_limit"` // 0 disables metering
	CountMode  string    `toml:"count_mode"`
	Optimized  bool      `toml:"optimized"`
	Trace      bool      `toml:"trace"`
	Workers    int       `toml:"workers"`
	Iterations int       `toml:"iterations"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Limits:     vm.DefaultLimits,
		CountMode:  "precise",
		Workers:    4,
		Iterations: 1000,
	}
}

// Load reads the TOML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, c)
		if err != nil {
			return nil, errors.Wrap(err, "decoding "+path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.WithDetailf(ErrUnknownKey, "%s in %s", undecoded[0], path)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	var s env.Set
	s.IntVar(&c.Limits.MaxStackSize, "VM_MAX_STACK_SIZE", c.Limits.MaxStackSize)
	s.IntVar(&c.Limits.MaxItemSize, "VM_MAX_ITEM_SIZE", c.Limits.MaxItemSize)
	s.IntVar(&c.Limits.MaxInvocationStackSize, "VM_MAX_INVOCATION_STACK", c.Limits.MaxInvocationStackSize)
	s.IntVar(&c.Limits.MaxTryNestingDepth, "VM_MAX_TRY_DEPTH", c.Limits.MaxTryNestingDepth)
	s.IntVar(&c.Limits.MaxShift, "VM_MAX_SHIFT", c.Limits.MaxShift)
	s.Int64Var(&c.RunLimit, "VM_RUN_LIMIT", c.RunLimit)
	s.BoolVar(&c.Trace, "VM_TRACE", c.Trace)
	return s.Parse()
}

// Validate reports the first setting no engine could run with.
func (c *Config) Validate() error {
	l := c.Limits
	checks := []struct {
		name string
		v    int64
	}{
		{"limits.max_shift", int64(l.MaxShift)},
		{"limits.max_stack_size", int64(l.MaxStackSize)},
		{"limits.max_item_size", int64(l.MaxItemSize)},
		{"limits.max_comparable_size", int64(l.MaxComparableSize)},
		{"limits.max_invocation_stack_size", int64(l.MaxInvocationStackSize)},
		{"limits.max_try_nesting_depth", int64(l.MaxTryNestingDepth)},
		{"workers", int64(c.Workers)},
		{"iterations", int64(c.Iterations)},
	}
	for _, ch := range checks {
		if ch.v <= 0 {
			return errors.WithDetailf(ErrInvalid, "%s must be positive, got %d", ch.name, ch.v)
		}
	}
	if c.RunLimit < 0 {
		return errors.WithDetailf(ErrInvalid, "run_limit must not be negative, got %d", c.RunLimit)
	}
	if _, err := c.countMode(); err != nil {
		return err
	}
	return nil
}

func (c *Config) countMode() (vm.CountMode, error) {
	switch c.CountMode {
	case "", "precise":
		return vm.CountPrecise, nil
	case "legacy":
		return vm.CountLegacy, nil
	}
	return 0, errors.WithDetailf(ErrInvalid, "count_mode %q", c.CountMode)
}

// Options returns the engine options c describes. Instruction traces
// go to trace when c.Trace is set and trace is non-nil.
func (c *Config) Options(trace io.Writer) []vm.Option {
	mode, _ := c.countMode()
	opts := []vm.Option{
		vm.WithLimits(c.Limits),
		vm.WithCountMode(mode),
	}
	if c.Optimized {
		opts = append(opts, vm.WithJumpTable(vm.OptimizedJumpTable()))
	}
	if c.RunLimit > 0 {
		opts = append(opts, vm.WithRunLimit(c.RunLimit))
	}
	if c.Trace && trace != nil {
		opts = append(opts, vm.TraceOut(trace))
	}
	return opts
}
