// Package metrics records VM execution counters and latency histograms.
// Defined metrics:
//   runs (counter)
//   halts (counter)
//   faults (counter)
//   instructions (counter)
//   step latency (histogram, nanoseconds)
//   run latency (histogram, nanoseconds)
package metrics

import (
	"expvar"
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
)

const (
	minLatency = int64(time.Nanosecond)
	maxLatency = int64(10 * time.Second)
	sigfigs    = 3
)

// A Recorder accumulates execution metrics.
// It is safe for concurrent use.
type Recorder struct {
	Runs         expvar.Int
	Halts        expvar.Int
	Faults       expvar.Int
	Instructions expvar.Int

	mu    sync.Mutex // protects the following
	steps *hdrhistogram.Histogram
	runs  *hdrhistogram.Histogram
}

func NewRecorder() *Recorder {
	return &Recorder{
		steps: hdrhistogram.New(minLatency, maxLatency, sigfigs),
		runs:  hdrhistogram.New(minLatency, maxLatency, sigfigs),
	}
}

// ObserveStep records one executed instruction that took d.
func (r *Recorder) ObserveStep(d time.Duration) {
	r.Instructions.Add(1)
	r.mu.Lock()
	r.steps.RecordValue(clamp(d))
	r.mu.Unlock()
}

// ObserveRun records one finished run.
func (r *Recorder) ObserveRun(d time.Duration, faulted bool) {
	r.Runs.Add(1)
	if faulted {
		r.Faults.Add(1)
	} else {
		r.Halts.Add(1)
	}
	r.mu.Lock()
	r.runs.RecordValue(clamp(d))
	r.mu.Unlock()
}

// Merge adds everything recorded in o to r.
func (r *Recorder) Merge(o *Recorder) {
	o.mu.Lock()
	steps := hdrhistogram.Import(o.steps.Export())
	runs := hdrhistogram.Import(o.runs.Export())
	o.mu.Unlock()

	r.Runs.Add(o.Runs.Value())
	r.Halts.Add(o.Halts.Value())
	r.Faults.Add(o.Faults.Value())
	r.Instructions.Add(o.Instructions.Value())
	r.mu.Lock()
	r.steps.Merge(steps)
	r.runs.Merge(runs)
	r.mu.Unlock()
}

// Latency summarizes one histogram, in nanoseconds.
type Latency struct {
	Count int64
	Mean  float64
	P50   int64
	P90   int64
	P99   int64
	Max   int64
}

// Snapshot is a point-in-time copy of a Recorder.
type Snapshot struct {
	Runs         int64
	Halts        int64
	Faults       int64
	Instructions int64
	Step         Latency
	Run          Latency
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Runs:         r.Runs.Value(),
		Halts:        r.Halts.Value(),
		Faults:       r.Faults.Value(),
		Instructions: r.Instructions.Value(),
		Step:         summarize(r.steps),
		Run:          summarize(r.runs),
	}
}

// Publish exposes the recorder's snapshot under name in expvar.
// Like expvar.Publish, it panics if name is already in use.
func (r *Recorder) Publish(name string) {
	expvar.Publish(name, expvar.Func(func() interface{} { return r.Snapshot() }))
}

func summarize(h *hdrhistogram.Histogram) Latency {
	return Latency{
		Count: h.TotalCount(),
		Mean:  h.Mean(),
		P50:   h.ValueAtQuantile(50),
		P90:   h.ValueAtQuantile(90),
		P99:   h.ValueAtQuantile(99),
		Max:   h.Max(),
	}
}

func clamp(d time.Duration) int64 {
	n := int64(d)
	if n < minLatency {
		return minLatency
	}
	if n > maxLatency {
		return maxLatency
	}
	return n
}
