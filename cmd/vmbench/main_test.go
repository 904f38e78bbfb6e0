package main

import (
	"context"
	"testing"

	"chainvm/config"
	"chainvm/protocol/vm"
	"chainvm/protocol/vmutil"
)

func TestBench(t *testing.T) {
	prog, err := vm.Assemble("1 2 ADD 3 NUMEQUAL ASSERT")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Workers = 3
	cfg.Iterations = 10

	snap, err := bench(context.Background(), cfg, prog, vmutil.NewScriptCache(1))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Runs != 10 || snap.Halts != 10 || snap.Faults != 0 {
		t.Errorf("runs/halts/faults = %d/%d/%d want 10/10/0", snap.Runs, snap.Halts, snap.Faults)
	}
	if snap.Instructions != 70 {
		t.Errorf("instructions = %d want 70", snap.Instructions)
	}
	if snap.Run.Count != 10 {
		t.Errorf("run latency count = %d want 10", snap.Run.Count)
	}
}

func TestBenchInvalidScript(t *testing.T) {
	cfg := config.Default()
	_, err := bench(context.Background(), cfg, []byte{byte(vm.OP_PUSHINT32), 1}, vmutil.NewScriptCache(1))
	if err == nil {
		t.Error("bench(truncated script) error = nil")
	}
}
