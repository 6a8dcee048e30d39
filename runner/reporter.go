package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Reporter observes TestStarted/TestFinished events. Multiple
// workers call into one Reporter concurrently; implementations serialize
// their own output.
type Reporter interface {
	TestStarted(name string)
	TestFinished(outcome Outcome)
}

// StdoutReporter renders one line per test to an io.Writer, serialized
// through a mutex — the only sink multiple workers write to concurrently.
type StdoutReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdoutReporter returns a StdoutReporter writing to w. A nil w writes
// to os.Stdout.
func NewStdoutReporter(w io.Writer) *StdoutReporter {
	if w == nil {
		w = os.Stdout
	}
	return &StdoutReporter{w: w}
}

func (r *StdoutReporter) TestStarted(name string) {}

func (r *StdoutReporter) TestFinished(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seconds := o.Duration.Seconds()
	switch o.Status {
	case StatusOk:
		fmt.Fprintf(r.w, "%s in %.6fs: ok\n", o.Name, seconds)
	case StatusFailed:
		fmt.Fprintf(r.w, "%s in %.6fs: failed at %s:%d:0\n%s\n", o.Name, seconds, o.File, o.Line, o.Message)
	case StatusPanicked:
		fmt.Fprintf(r.w, "%s in %.6fs: panicked at %s:%d:0\n%s\n", o.Name, seconds, o.File, o.Line, o.Message)
	}
}

// JSONReporter streams one JSON object per event to an io.Writer,
// newline-delimited, for machine consumption (e.g. CI log aggregation)
// alongside StdoutReporter's human-readable output.
type JSONReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONReporter returns a JSONReporter writing to w. A nil w writes to
// os.Stdout.
func NewJSONReporter(w io.Writer) *JSONReporter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONReporter{w: w}
}

type jsonEvent struct {
	Event    string  `json:"event"`
	Name     string  `json:"name"`
	Seconds  float64 `json:"seconds,omitempty"`
	Status   string  `json:"status,omitempty"`
	Message  string  `json:"message,omitempty"`
	File     string  `json:"file,omitempty"`
	Line     int     `json:"line,omitempty"`
	TimedOut bool    `json:"timed_out,omitempty"`
}

func (r *JSONReporter) TestStarted(name string) {
	r.write(jsonEvent{Event: "started", Name: name})
}

func (r *JSONReporter) TestFinished(o Outcome) {
	r.write(jsonEvent{
		Event:    "finished",
		Name:     o.Name,
		Seconds:  o.Duration.Seconds(),
		Status:   o.Status.String(),
		Message:  o.Message,
		File:     o.File,
		Line:     o.Line,
		TimedOut: o.TimedOut,
	})
}

func (r *JSONReporter) write(e jsonEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enc := json.NewEncoder(r.w)
	_ = enc.Encode(e)
}
