package core

import "github.com/comalice/simkernel/internal/primitives"

// Monitor observes a thread and is signalled exactly once when it exits.
// A monitor must not call back into Disconnect of the thread it observes.
type Monitor interface {
	Signal(thread ThreadHandle, sig primitives.MonitorSignal)
}

// MonitorFunc adapts a function to Monitor. Function values are not
// comparable, so RemoveMonitor rejects a MonitorFunc with
// ErrUncomparableMonitor; wrap it in a pointer type when removal is needed.
type MonitorFunc func(thread ThreadHandle, sig primitives.MonitorSignal)

// Signal calls f.
func (f MonitorFunc) Signal(thread ThreadHandle, sig primitives.MonitorSignal) {
	f(thread, sig)
}
