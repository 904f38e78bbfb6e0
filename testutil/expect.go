// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"chainvm/errors"
)

var wd, _ = os.Getwd()

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump renders v for a failure message.
func Dump(v interface{}) string {
	return dumper.Sdump(v)
}

func ExpectEqual(t testing.TB, actual, expected interface{}, msg string) {
	t.Helper()
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("%s:\ngot:\n%s\nexpected:\n%s\n%s", msg, Dump(actual), Dump(expected), stackTrace())
	}
}

func ExpectError(t testing.TB, expected error, msg string, fn func() error) {
	t.Helper()
	actual := fn()
	if expected != errors.Root(actual) {
		t.Errorf("%s: got error %v, expected %v\n%s", msg, actual, expected, stackTrace())
	}
}

func FatalErr(t testing.TB, err error) {
	t.Helper()
	args := []interface{}{err}
	for _, frame := range errors.Stack(err) {
		file := frame.File
		if rel, err := filepath.Rel(wd, file); err == nil && !strings.HasPrefix(rel, "../") {
			file = rel
		}
		funcname := frame.Func[strings.IndexByte(frame.Func, '.')+1:]
		s := fmt.Sprintf("\n%s:%d: %s", file, frame.Line, funcname)
		args = append(args, s)
	}
	t.Fatal(args...)
}

func stackTrace() []byte {
	buf := make([]byte, 16384)
	len := runtime.Stack(buf, false)
	return buf[:len]
}
