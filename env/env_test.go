package env

import (
	"os"
	"reflect"
	"testing"
	"time"

	"chainvm/errors"
)

func TestInt(t *testing.T) {
	result := Int("nonexistent", 15)
	Parse()

	if *result != 15 {
		t.Fatalf("expected result=15, got result=%d", *result)
	}

	os.Setenv("int-key", "25")
	defer os.Unsetenv("int-key")

	result = Int("int-key", 15)
	Parse()

	if *result != 25 {
		t.Fatalf("expected result=25, got result=%d", *result)
	}
}

func TestSetInt64Var(t *testing.T) {
	os.Setenv("int64-key", "0x10")
	defer os.Unsetenv("int64-key")

	var s Set
	var got int64
	s.Int64Var(&got, "int64-key", 3)
	if got != 3 {
		t.Fatalf("default not assigned before Parse: got %d", got)
	}
	if err := s.Parse(); err != nil {
		t.Fatal(err)
	}
	if got != 16 {
		t.Fatalf("got %d want 16", got)
	}
}

func TestBoolVar(t *testing.T) {
	var result bool
	BoolVar(&result, "nonexistent", true)
	Parse()

	if result != true {
		t.Fatalf("expected result=true, got result=%t", result)
	}

	os.Setenv("bool-key", "false")
	defer os.Unsetenv("bool-key")

	BoolVar(&result, "bool-key", true)
	Parse()

	if result != false {
		t.Fatalf("expected result=false, got result=%t", result)
	}
}

func TestDuration(t *testing.T) {
	result := Duration("nonexistent", 15*time.Second)

	if result != 15*time.Second {
		t.Fatalf("expected result=15s, got result=%v", result)
	}

	os.Setenv("duration-key", "25s")
	defer os.Unsetenv("duration-key")

	result = Duration("duration-key", 15*time.Second)

	if result != 25*time.Second {
		t.Fatalf("expected result=25s, got result=%v", result)
	}
}

func TestStringSliceVar(t *testing.T) {
	os.Setenv("slice-key", "a,b,c")
	defer os.Unsetenv("slice-key")

	var s Set
	var got []string
	s.StringSliceVar(&got, "slice-key", "x")
	if err := s.Parse(); err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestParseError(t *testing.T) {
	os.Setenv("bad-int", "many")
	defer os.Unsetenv("bad-int")

	var s Set
	var n, m int
	s.IntVar(&n, "bad-int", 4)
	s.IntVar(&m, "nonexistent", 5)
	err := s.Parse()
	if errors.Root(err) != ErrParse {
		t.Fatalf("Parse() err = %v want %v", err, ErrParse)
	}
	if n != 4 || m != 5 {
		t.Fatalf("defaults changed: n=%d m=%d", n, m)
	}
}
