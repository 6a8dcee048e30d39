// Package runner implements the concurrent test runner: a fixed-size
// worker pool pulls test closures off a work queue, captures assertion
// failures and panics with source location, times each test, and streams
// outcomes to a Reporter.
package runner

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/primablock/parables/log"
	"github.com/primablock/parables/metrics"
)

// Status is the outcome discriminant of one test.
type Status int

const (
	StatusOk Status = iota
	StatusFailed
	StatusPanicked
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusPanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// Outcome is the result of running one registered test.
type Outcome struct {
	Name     string
	Duration time.Duration
	Status   Status
	Message  string
	File     string
	Line     int
	TimedOut bool
}

// TestFunc is a registered test closure. It runs on a single worker
// goroutine; everything it does (World mutation, executor calls, log
// draining) is single-threaded from the closure's point of view.
type TestFunc func(t *T)

// T is passed to a running TestFunc for assertion capture. Source location
// is recovered via runtime.Caller at the Assert/Fail call site, since Go
// has no macro system to rewrite assertion expressions (column is not
// available from runtime.Caller and is always reported as 0).
type T struct {
	failed  bool
	message string
	file    string
	line    int
}

// Fail marks the test as failed with message, capturing the caller's
// source location.
func (t *T) Fail(message string) {
	if t.failed {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	t.failed = true
	t.message = message
	t.file = file
	t.line = line
}

// Assert fails the test with message unless cond holds.
func (t *T) Assert(cond bool, message string) {
	if cond {
		return
	}
	if t.failed {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	t.failed = true
	t.message = message
	t.file = file
	t.line = line
}

// Failed reports whether Fail or a failing Assert has been called.
func (t *T) Failed() bool { return t.failed }

type registration struct {
	name    string
	fn      TestFunc
	timeout time.Duration
}

// Runner schedules registered tests across a fixed-size worker pool.
type Runner struct {
	mu       sync.Mutex
	tests    []registration
	workers  int
	bail     bool
	reporter Reporter

	bailed atomic.Bool
	passed atomic.Int64
	failed atomic.Int64
}

// Option configures a Runner at construction.
type Option func(*Runner)

// WithWorkers sets the worker pool size. Defaults to
// runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithBail enables --bail mode: once any test fails, workers stop pulling
// new tests (in-flight tests still complete).
func WithBail() Option {
	return func(r *Runner) { r.bail = true }
}

// WithReporter sets the reporter outcomes stream to. Defaults to
// StdoutReporter.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) { r.reporter = rep }
}

// New returns a Runner ready to accept registrations.
func New(opts ...Option) *Runner {
	r := &Runner{
		workers:  runtime.GOMAXPROCS(0),
		reporter: NewStdoutReporter(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a test with no deadline.
func (r *Runner) Register(name string, fn TestFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests = append(r.tests, registration{name: name, fn: fn})
}

// RegisterWithTimeout adds a test with an optional wall-clock deadline.
func (r *Runner) RegisterWithTimeout(name string, fn TestFunc, timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests = append(r.tests, registration{name: name, fn: fn, timeout: timeout})
}

// Run executes every registered test and returns exactly one Outcome per
// registration, in registration order, regardless of
// worker count. Cancelling ctx stops workers from pulling new tests; any
// test already in flight still runs to completion. A test skipped because
// ctx was cancelled or bail mode tripped is not run, and its slot holds the
// zero Outcome.
func (r *Runner) Run(ctx context.Context) []Outcome {
	r.mu.Lock()
	tests := make([]registration, len(r.tests))
	copy(tests, r.tests)
	r.mu.Unlock()

	queue := make(chan int, len(tests))
	for i := range tests {
		queue <- i
	}
	close(queue)

	outcomes := make([]Outcome, len(tests))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if ctx.Err() != nil || (r.bail && r.bailed.Load()) {
					continue
				}
				outcome := r.runOne(tests[i])
				outcomes[i] = outcome
				if outcome.Status != StatusOk {
					r.failed.Add(1)
					if r.bail {
						r.bailed.Store(true)
					}
				} else {
					r.passed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	return outcomes
}

// runOne executes one test closure inside a panic-recovery frame and
// streams TestStarted/TestFinished events to the reporter.
func (r *Runner) runOne(reg registration) Outcome {
	r.reporter.TestStarted(reg.name)

	t := &T{}
	start := time.Now()
	outcome := Outcome{Name: reg.name}

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				// The original panic site isn't recoverable as a clean
				// (file, line) pair from here — runtime.Caller at this
				// point walks into the recover/defer machinery, not the
				// test body. The full stack is preserved in Message
				// instead.
				outcome.Status = StatusPanicked
				outcome.Message = fmt.Sprintf("%v\n%s", rec, debug.Stack())
			}
		}()
		reg.fn(t)
	}()

	outcome.Duration = time.Since(start)

	if outcome.Status != StatusPanicked {
		if t.failed {
			outcome.Status = StatusFailed
			outcome.Message = t.message
			outcome.File = t.file
			outcome.Line = t.line
		} else {
			outcome.Status = StatusOk
		}

		if reg.timeout > 0 && outcome.Duration > reg.timeout {
			outcome.Status = StatusFailed
			outcome.TimedOut = true
			outcome.Message = fmt.Sprintf("timeout: ran %s, budget %s", outcome.Duration, reg.timeout)
		}
	}

	r.recordMetrics(outcome)
	r.reporter.TestFinished(outcome)
	return outcome
}

func (r *Runner) recordMetrics(o Outcome) {
	metrics.TestsRun.Inc()
	metrics.TestDuration.Observe(float64(o.Duration.Milliseconds()))
	metrics.TestsRate.Mark(1)
	switch o.Status {
	case StatusOk:
		metrics.TestsPassed.Inc()
	case StatusFailed:
		metrics.TestsFailed.Inc()
		log.Default().Module("runner").With("test", o.Name, "file", o.File, "line", o.Line).
			Warn(o.Message)
	case StatusPanicked:
		metrics.TestsPanicked.Inc()
		log.Default().Module("runner").With("test", o.Name).Error(o.Message)
	}
}

// Passed returns the number of tests that completed with StatusOk so far.
func (r *Runner) Passed() int64 { return r.passed.Load() }

// Failed returns the number of tests that did not complete with StatusOk
// so far.
func (r *Runner) Failed() int64 { return r.failed.Load() }

// ExitCode returns 0 if every test run so far passed, 1 otherwise.
func (r *Runner) ExitCode() int {
	if r.failed.Load() > 0 {
		return 1
	}
	return 0
}
