// Command vmrun executes a script and prints how it ended.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"chainvm/config"
	"chainvm/log"
	"chainvm/protocol/vm"
	"chainvm/protocol/vm/itemcodec"
)

const help = `Usage: vmrun [flags] [SCRIPT]

Command vmrun reads a script from its argument, or from stdin if
there is none, executes it, and prints the final state, the run
limit consumed, the result stack, and the fault, if any.

The script is hex unless -asm is given, in which case it is the
text notation accepted by vmasm. The demo syscall System.Runtime.Log
pops a byte string and writes it to the log.

With -o cbor, the result stack is written to stdout as CBOR instead.

Exit code 0 indicates HALT.
Exit code 1 indicates FAULT, or BREAK when -steps stops the run.
Exit code 2 indicates a usage or I/O error.

Flags:
`

var (
	flagT      = flag.Bool("t", false, "print execution trace to stderr")
	flagConfig = flag.String("config", "", "TOML `file` of engine settings")
	flagAsm    = flag.Bool("asm", false, "read assembly text instead of hex")
	flagOut    = flag.String("o", "text", "output `format`: text or cbor")
	flagSteps  = flag.Int("steps", 0, "stop after `n` instructions (0 runs to completion)")
)

// LogSyscall is the name of the demo syscall installed by vmrun.
const LogSyscall = "System.Runtime.Log"

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, help)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 || (*flagOut != "text" && *flagOut != "cbor") {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fatal(err)
	}
	if *flagT {
		cfg.Trace = true
	}

	src, err := readSource(flag.Args())
	if err != nil {
		fatal(err)
	}
	prog, err := decode(src, *flagAsm)
	if err != nil {
		fatal(err)
	}
	script, err := vm.NewScript(prog, true)
	if err != nil {
		fatal(err)
	}

	ctx := log.WithRunID(context.Background())
	e := newEngine(ctx, cfg, os.Stderr)
	if _, err := e.LoadScript(script, -1, 0); err != nil {
		fatal(err)
	}

	log.Write(ctx, "at", "vmrun", "script", fmt.Sprintf("%x", script.Hash()), "len", script.Len())
	state := run(e, *flagSteps)
	log.Write(ctx, "at", "vmrun", "state", state, "gas", e.GasConsumed())

	if *flagOut == "cbor" {
		data, err := itemcodec.MarshalItems(e.ResultStack().Items())
		if err != nil {
			fatal(err)
		}
		os.Stdout.Write(data)
	} else {
		report(os.Stdout, e)
	}
	if state != vm.StateHalt {
		os.Exit(1)
	}
}

func newEngine(ctx context.Context, cfg *config.Config, trace io.Writer) *vm.Engine {
	table := vm.DefaultJumpTable()
	if cfg.Optimized {
		table = vm.OptimizedJumpTable()
	}
	vm.SyscallTable{
		vm.SyscallID(LogSyscall): func(e *vm.Engine) error {
			item, err := e.Pop()
			if err != nil {
				return err
			}
			b, err := vm.AsBytes(item)
			if err != nil {
				return err
			}
			log.Write(ctx, "syscall", LogSyscall, log.KeyMessage, string(b))
			return nil
		},
	}.Install(table)

	opts := append(cfg.Options(trace), vm.WithJumpTable(table), vm.WithContext(ctx))
	return vm.New(opts...)
}

// run executes e to completion, or for at most steps instructions.
func run(e *vm.Engine, steps int) vm.State {
	if steps <= 0 {
		return e.Execute()
	}
	d := vm.NewDebugger(e)
	state := e.State()
	for i := 0; i < steps; i++ {
		if state = d.StepInto(); state == vm.StateHalt || state == vm.StateFault {
			break
		}
	}
	return state
}

func report(w io.Writer, e *vm.Engine) {
	fmt.Fprintln(w, "state", e.State())
	fmt.Fprintln(w, "gas", e.GasConsumed())
	items := e.ResultStack().Items()
	for i := len(items) - 1; i >= 0; i-- {
		fmt.Fprintf(w, "result %d: %s\n", len(items)-1-i, items[i])
	}
	if c := e.CurrentContext(); c != nil && e.State() == vm.StateBreak {
		fmt.Fprintf(w, "break depth %d pc %d\n", e.InvocationDepth(), c.IP)
	}
	if err := e.FaultErr(); err != nil {
		fmt.Fprintln(w, "fault", err)
	}
	if ex := e.UncaughtException(); ex != nil {
		fmt.Fprintln(w, "exception", ex)
	}
}

func readSource(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	b, err := io.ReadAll(os.Stdin)
	return string(b), err
}

func decode(src string, asm bool) ([]byte, error) {
	if asm {
		return vm.Assemble(src)
	}
	return hex.DecodeString(strings.Join(strings.Fields(src), ""))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}
