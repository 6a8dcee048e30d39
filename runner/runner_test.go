package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunnerTotality(t *testing.T) {
	var buf bytes.Buffer
	r := New(WithWorkers(4), WithReporter(NewStdoutReporter(&buf)))

	for i := 0; i < 20; i++ {
		name := "test"
		r.Register(name, func(t *T) {})
	}

	outcomes := r.Run(context.Background())
	if len(outcomes) != 20 {
		t.Fatalf("got %d outcomes, want 20", len(outcomes))
	}
}

func TestRunnerCapturesAssertFailure(t *testing.T) {
	r := New(WithWorkers(1), WithReporter(NewStdoutReporter(&bytes.Buffer{})))
	r.Register("boom", func(t *T) {
		t.Assert(1 == 2, "one should equal two")
	})

	outcomes := r.Run(context.Background())
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	o := outcomes[0]
	if o.Status != StatusFailed {
		t.Fatalf("status = %v, want Failed", o.Status)
	}
	if o.Message != "one should equal two" {
		t.Fatalf("message = %q", o.Message)
	}
	if o.Line == 0 {
		t.Fatal("expected a captured line number")
	}
}

func TestRunnerCapturesPanic(t *testing.T) {
	r := New(WithWorkers(1), WithReporter(NewStdoutReporter(&bytes.Buffer{})))
	r.Register("panics", func(t *T) {
		panic("kaboom")
	})

	outcomes := r.Run(context.Background())
	o := outcomes[0]
	if o.Status != StatusPanicked {
		t.Fatalf("status = %v, want Panicked", o.Status)
	}
	if !strings.Contains(o.Message, "kaboom") {
		t.Fatalf("message = %q, want it to contain kaboom", o.Message)
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := New(WithWorkers(1), WithReporter(NewStdoutReporter(&bytes.Buffer{})))
	r.RegisterWithTimeout("slow", func(t *T) {
		time.Sleep(20 * time.Millisecond)
	}, 1*time.Millisecond)

	outcomes := r.Run(context.Background())
	o := outcomes[0]
	if !o.TimedOut {
		t.Fatalf("expected TimedOut, got %+v", o)
	}
	if o.Status != StatusFailed {
		t.Fatalf("status = %v, want Failed", o.Status)
	}
}

func TestRunnerExitCode(t *testing.T) {
	r := New(WithWorkers(2), WithReporter(NewStdoutReporter(&bytes.Buffer{})))
	r.Register("ok1", func(t *T) {})
	r.Register("bad", func(t *T) { t.Fail("nope") })
	r.Run(context.Background())

	if r.ExitCode() != 1 {
		t.Fatalf("ExitCode = %d, want 1", r.ExitCode())
	}
}
