// Package testutil holds helpers shared by the kernel's test suites.
package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
)

// Noop is a body that returns at once.
func Noop(context.Context, core.Activation) error { return nil }

// Recorder is a LifecyclePublisher that keeps every record in memory.
type Recorder struct {
	mu      sync.Mutex
	records []core.LifecycleRecord
	closed  bool
}

func (r *Recorder) Publish(_ context.Context, rec core.LifecycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Transitions returns the transitions recorded for process, in order.
func (r *Recorder) Transitions(process string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, rec := range r.records {
		if rec.Process == process {
			out = append(out, rec.Transition)
		}
	}
	return out
}

// Signal is one monitor notification as seen by a MonitorLog.
type Signal struct {
	Monitor string
	Thread  string
	Sig     primitives.MonitorSignal
	// Static and Dynamic count the thread's subscriptions when the signal
	// arrived.
	Static  int
	Dynamic int
}

// MonitorLog hands out named monitors that append to a shared log.
type MonitorLog struct {
	Signals []Signal
}

// Monitor returns a monitor that records under name.
func (l *MonitorLog) Monitor(name string) core.Monitor {
	return core.MonitorFunc(func(th core.ThreadHandle, sig primitives.MonitorSignal) {
		p := th.Process()
		l.Signals = append(l.Signals, Signal{
			Monitor: name,
			Thread:  th.Name(),
			Sig:     sig,
			Static:  len(p.StaticEvents()),
			Dynamic: len(p.DynamicEvents()),
		})
	})
}

// ExpectViolation runs fn and fails t unless it panics with an
// InvariantError wrapping target.
func ExpectViolation(t *testing.T, target error, fn func()) (ie *primitives.InvariantError) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected invariant violation %v, got none", target)
		}
		err, ok := r.(error)
		if !ok || !errors.As(err, &ie) {
			t.Fatalf("expected *InvariantError, got %T: %v", r, r)
		}
		if !errors.Is(ie, target) {
			t.Fatalf("expected violation %v, got %v", target, ie)
		}
	}()
	fn()
	return nil
}
