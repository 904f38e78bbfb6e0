// Command vmbench runs a script repeatedly in parallel engines and
// reports execution counts and latency percentiles.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"chainvm/config"
	"chainvm/errors"
	"chainvm/log"
	"chainvm/metrics"
	"chainvm/protocol/vm"
	"chainvm/protocol/vmutil"
)

const help = `Usage: vmbench [flags] SCRIPT

Command vmbench executes SCRIPT (hex, or assembly with -asm) the
given number of times, spread over the given number of workers,
each with its own engine, and prints run counts and step and run
latency percentiles. Settings not given by flags come from the
config file and environment.

Flags:
`

var (
	flagN      = flag.Int("n", 0, "total `iterations` (default from config)")
	flagW      = flag.Int("w", 0, "number of `workers` (default from config)")
	flagConfig = flag.String("config", "", "TOML `file` of engine settings")
	flagAsm    = flag.Bool("asm", false, "read assembly text instead of hex")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, help)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fatal(err)
	}
	if *flagN > 0 {
		cfg.Iterations = *flagN
	}
	if *flagW > 0 {
		cfg.Workers = *flagW
	}
	cfg.Trace = false

	var prog []byte
	if *flagAsm {
		prog, err = vm.Assemble(flag.Arg(0))
	} else {
		prog, err = hex.DecodeString(strings.Join(strings.Fields(flag.Arg(0)), ""))
	}
	if err != nil {
		fatal(err)
	}

	ctx := log.WithRunID(context.Background())
	start := time.Now()
	snap, err := bench(ctx, cfg, prog, vmutil.NewScriptCache(1))
	if err != nil {
		fatal(err)
	}
	log.Write(ctx, "at", "vmbench", "workers", cfg.Workers, "iterations", cfg.Iterations, "elapsed", time.Since(start))
	printSnapshot(os.Stdout, snap)
}

// bench runs cfg.Iterations executions of prog over cfg.Workers
// goroutines. Each worker validates through cache and records into
// its own recorder; the recorders are merged at the end.
func bench(ctx context.Context, cfg *config.Config, prog []byte, cache *vmutil.ScriptCache) (metrics.Snapshot, error) {
	total := metrics.NewRecorder()
	recorders := make([]*metrics.Recorder, cfg.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		n := cfg.Iterations / cfg.Workers
		if w < cfg.Iterations%cfg.Workers {
			n++
		}
		rec := metrics.NewRecorder()
		recorders[w] = rec
		g.Go(func() error {
			for i := 0; i < n; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				script, err := cache.Script(prog)
				if err != nil {
					return err
				}
				opts := append(cfg.Options(nil), vm.WithMetrics(rec), vm.WithContext(ctx))
				e := vm.New(opts...)
				if _, err := e.LoadScript(script, -1, 0); err != nil {
					return err
				}
				e.Execute()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return metrics.Snapshot{}, errors.Wrap(err, "benchmark worker")
	}
	for _, rec := range recorders {
		total.Merge(rec)
	}
	return total.Snapshot(), nil
}

func printSnapshot(w io.Writer, s metrics.Snapshot) {
	fmt.Fprintf(w, "runs %d halts %d faults %d instructions %d\n", s.Runs, s.Halts, s.Faults, s.Instructions)
	for _, l := range []struct {
		name string
		lat  metrics.Latency
	}{{"step", s.Step}, {"run", s.Run}} {
		fmt.Fprintf(w, "%s n=%d mean=%s p50=%s p90=%s p99=%s max=%s\n", l.name, l.lat.Count,
			time.Duration(l.lat.Mean), time.Duration(l.lat.P50), time.Duration(l.lat.P90),
			time.Duration(l.lat.P99), time.Duration(l.lat.Max))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "vmbench:", err)
	os.Exit(1)
}
