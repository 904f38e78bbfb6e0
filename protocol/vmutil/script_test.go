package vmutil

import (
	"testing"

	"golang.org/x/sync/errgroup"

	"chainvm/errors"
	"chainvm/protocol/vm"
)

func TestScriptCache(t *testing.T) {
	c := NewScriptCache(2)
	good := []byte{byte(vm.OP_PUSH1), byte(vm.OP_RET)}
	bad := []byte{byte(vm.OP_JMP), 9}

	s1, err := c.Script(good)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := c.Script(append([]byte(nil), good...))
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Error("equal programs produced different scripts")
	}

	for i := 0; i < 2; i++ {
		s, err := c.Script(bad)
		if s != nil || errors.Root(err) != vm.ErrBadScript {
			t.Errorf("Script(bad) #%d = %v, %v want %v", i, s, err, vm.ErrBadScript)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d want 2", c.Len())
	}

	c.Script([]byte{byte(vm.OP_PUSH2)})
	if c.Len() != 2 {
		t.Errorf("Len() after eviction = %d want 2", c.Len())
	}
	s3, _ := c.Script(good)
	if s3 == s1 {
		t.Error("least recently used script was not evicted")
	}
}

func TestScriptCacheConcurrent(t *testing.T) {
	c := NewScriptCache(0)
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		prog := []byte{byte(vm.OP_PUSH0) + byte(i%4), byte(vm.OP_RET)}
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				s, err := c.Script(prog)
				if err != nil {
					return err
				}
				if s.Len() != len(prog) {
					return errors.New("wrong script")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d want 4", c.Len())
	}
}
