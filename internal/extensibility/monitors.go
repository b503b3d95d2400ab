// Package extensibility provides pluggable process monitors and the body
// registry used to elaborate declarative models.
package extensibility

import (
	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
)

// ExitNotice is what a ChannelMonitor forwards.
type ExitNotice struct {
	ProcessID primitives.ProcessID
	Process   string
	Signal    primitives.MonitorSignal
}

// ChannelMonitor forwards monitor signals to a Go channel.
// Non-blocking send with drop on backpressure.
type ChannelMonitor struct {
	ch chan<- ExitNotice
}

// NewChannelMonitor creates a ChannelMonitor with the given output channel.
// The channel should be buffered.
func NewChannelMonitor(ch chan<- ExitNotice) *ChannelMonitor {
	return &ChannelMonitor{ch: ch}
}

// Signal implements core.Monitor.
func (m *ChannelMonitor) Signal(thread core.ThreadHandle, sig primitives.MonitorSignal) {
	select {
	case m.ch <- ExitNotice{ProcessID: thread.ID(), Process: thread.Name(), Signal: sig}:
	default:
	}
}

// JoinMonitor waits for a set of threads and notifies an event once the
// last of them has exited.
type JoinMonitor struct {
	done    *core.Event
	pending int
}

// NewJoinMonitor creates a join whose completion is signalled on done.
func NewJoinMonitor(done *core.Event) *JoinMonitor {
	return &JoinMonitor{done: done}
}

// Add registers a thread with the join. Terminated threads are not added.
func (j *JoinMonitor) Add(h core.ThreadHandle) error {
	if !h.Valid() || h.Terminated() {
		return nil
	}
	if err := h.AddMonitor(j); err != nil {
		return err
	}
	j.pending++
	return nil
}

// Pending returns how many threads have not exited yet.
func (j *JoinMonitor) Pending() int { return j.pending }

// Done returns the completion event.
func (j *JoinMonitor) Done() *core.Event { return j.done }

// Signal implements core.Monitor.
func (j *JoinMonitor) Signal(_ core.ThreadHandle, sig primitives.MonitorSignal) {
	if sig != primitives.SignalExit || j.pending == 0 {
		return
	}
	j.pending--
	if j.pending == 0 {
		j.done.Notify()
	}
}

// Wait suspends the calling body until every joined thread has exited.
func (j *JoinMonitor) Wait(a core.Activation) {
	if j.pending > 0 {
		a.Wait(j.done)
	}
}
