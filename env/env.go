// Package env provides a convenient way to convert environment
// variables into Go data. It is similar in design to package
// flag: variables are registered on a Set, and Parse reads the
// environment and assigns every registered variable at once.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chainvm/errors"
)

// ErrParse is the root of every error returned by Set.Parse.
var ErrParse = errors.New("bad environment value")

// A Set is a collection of registered environment variables.
// The zero value is ready to use.
type Set struct {
	funcs []func() error
}

// CommandLine is the default set used by the package-level functions.
var CommandLine = new(Set)

func (s *Set) add(name string, parse func(string) error) {
	s.funcs = append(s.funcs, func() error {
		v := os.Getenv(name)
		if v == "" {
			return nil
		}
		if err := parse(v); err != nil {
			return errors.WithDetailf(ErrParse, "%s=%q: %s", name, v, err)
		}
		return nil
	})
}

// IntVar defines an int var with the specified
// name and default value. The argument p points
// to an int variable in which to store the
// value of the environment var.
func (s *Set) IntVar(p *int, name string, value int) {
	*p = value
	s.add(name, func(v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			*p = n
		}
		return err
	})
}

// Int64Var is like IntVar for int64 values.
func (s *Set) Int64Var(p *int64, name string, value int64) {
	*p = value
	s.add(name, func(v string) error {
		n, err := strconv.ParseInt(v, 0, 64)
		if err == nil {
			*p = n
		}
		return err
	})
}

// BoolVar defines a bool var with the specified
// name and default value. Parsing uses strconv.ParseBool.
func (s *Set) BoolVar(p *bool, name string, value bool) {
	*p = value
	s.add(name, func(v string) error {
		b, err := strconv.ParseBool(v)
		if err == nil {
			*p = b
		}
		return err
	})
}

// DurationVar defines a time.Duration var,
// parsed with time.ParseDuration.
func (s *Set) DurationVar(p *time.Duration, name string, value time.Duration) {
	*p = value
	s.add(name, func(v string) error {
		d, err := time.ParseDuration(v)
		if err == nil {
			*p = d
		}
		return err
	})
}

// StringVar defines a string with the
// specified name and default value.
func (s *Set) StringVar(p *string, name string, value string) {
	*p = value
	s.add(name, func(v string) error {
		*p = v
		return nil
	})
}

// StringSliceVar defines a string slice read as a
// comma-separated list.
func (s *Set) StringSliceVar(p *[]string, name string, value ...string) {
	*p = value
	s.add(name, func(v string) error {
		*p = strings.Split(v, ",")
		return nil
	})
}

// Parse reads every registered variable from the environment.
// It reports the first malformed value;
// variables registered before it are still assigned.
func (s *Set) Parse() error {
	var first error
	for _, f := range s.funcs {
		if err := f(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Int returns a new int pointer.
// When Parse is called,
// env var name will be parsed
// and the resulting value
// will be assigned to the returned location.
func Int(name string, value int) *int {
	p := new(int)
	CommandLine.IntVar(p, name, value)
	return p
}

// IntVar registers p on CommandLine.
func IntVar(p *int, name string, value int) { CommandLine.IntVar(p, name, value) }

// Int64 returns a new int64 pointer, as Int.
func Int64(name string, value int64) *int64 {
	p := new(int64)
	CommandLine.Int64Var(p, name, value)
	return p
}

// Bool returns a new bool pointer, as Int.
func Bool(name string, value bool) *bool {
	p := new(bool)
	CommandLine.BoolVar(p, name, value)
	return p
}

// BoolVar registers p on CommandLine.
func BoolVar(p *bool, name string, value bool) { CommandLine.BoolVar(p, name, value) }

// String returns a new string pointer, as Int.
func String(name string, value string) *string {
	p := new(string)
	CommandLine.StringVar(p, name, value)
	return p
}

// Duration returns the value of the named environment variable,
// interpreted as a time.Duration (using time.ParseDuration).
// If there is an error parsing the value, it prints a
// diagnostic message and calls os.Exit(1).
// If name isn't in the environment, it returns value.
func Duration(name string, value time.Duration) time.Duration {
	var s Set
	s.DurationVar(&value, name, value)
	if err := s.Parse(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return value
}

// Parse parses known env vars
// and assigns the values to the variables
// that were previously registered on CommandLine.
// If any values cannot be parsed,
// Parse prints an error message
// and exits the process with status 1.
func Parse() {
	if err := CommandLine.Parse(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
