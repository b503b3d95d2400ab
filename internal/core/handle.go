package core

import (
	"github.com/comalice/simkernel/internal/primitives"
)

// ProcessHandle is a nullable view of a process. The zero value is the null
// handle: every query on it returns an empty default instead of failing.
//
// NewProcessHandle acquires a reference that Release gives back. Typed
// handles obtained through AsMethod, AsThread and AsCThread share the
// reference of the handle they were converted from.
type ProcessHandle struct {
	p *Process
}

// NewProcessHandle returns an owning handle for p. A nil or destroyed
// process yields the null handle.
func NewProcessHandle(p *Process) ProcessHandle {
	if p == nil || p.destroyed || p.pendingDelete {
		return ProcessHandle{}
	}
	p.Acquire()
	return ProcessHandle{p: p}
}

// Valid reports whether the handle refers to a live process object.
func (h ProcessHandle) Valid() bool {
	return h.p != nil && !h.p.destroyed
}

// Process returns the underlying process, or nil.
func (h ProcessHandle) Process() *Process {
	if !h.Valid() {
		return nil
	}
	return h.p
}

// Name returns the full name, or "".
func (h ProcessHandle) Name() string {
	if !h.Valid() {
		return ""
	}
	return h.p.Name()
}

// ID returns the process ID, or 0.
func (h ProcessHandle) ID() primitives.ProcessID {
	if !h.Valid() {
		return 0
	}
	return h.p.id
}

// Kind returns the process kind, or KindUnclassified.
func (h ProcessHandle) Kind() primitives.Kind {
	if !h.Valid() {
		return primitives.KindUnclassified
	}
	return h.p.kind
}

// Dynamic reports whether the process was created after elaboration.
func (h ProcessHandle) Dynamic() bool {
	return h.Valid() && h.p.dynamicCreated
}

// Terminated reports whether the process is a zombie. False on null.
func (h ProcessHandle) Terminated() bool {
	return h.Valid() && h.p.Terminated()
}

// TerminatedEvent returns the termination event, or the inert sentinel.
func (h ProcessHandle) TerminatedEvent() *Event {
	if !h.Valid() {
		return nonEvent
	}
	return h.p.TerminatedEvent()
}

// ChildObjects returns the children, or an empty list.
func (h ProcessHandle) ChildObjects() []Object {
	if !h.Valid() {
		return []Object{}
	}
	return h.p.ChildObjects()
}

// ParentObject returns the parent, or nil.
func (h ProcessHandle) ParentObject() Object {
	if !h.Valid() {
		return nil
	}
	return h.p.ParentObject()
}

// Attribute returns an attribute value.
func (h ProcessHandle) Attribute(key string) (any, bool) {
	if !h.Valid() {
		return nil, false
	}
	return h.p.Attributes().Get(key)
}

// Release gives the handle's reference back. When it was the last
// reference to a terminated process, the process is deleted.
func (h *ProcessHandle) Release() {
	p := h.p
	h.p = nil
	if p == nil || p.destroyed {
		return
	}
	p.Release()
}

// AsMethod converts to a method view, or the null view on kind mismatch.
func (h ProcessHandle) AsMethod() MethodHandle {
	if h.Valid() && h.p.kind == primitives.KindMethod {
		return MethodHandle{h}
	}
	return MethodHandle{}
}

// AsThread converts to a thread view. A cthread is a thread, so the
// conversion succeeds for both.
func (h ProcessHandle) AsThread() ThreadHandle {
	if h.Valid() && h.p.kind.IsThread() {
		return ThreadHandle{h}
	}
	return ThreadHandle{}
}

// AsCThread converts to a clocked-thread view, or the null view.
func (h ProcessHandle) AsCThread() CThreadHandle {
	if h.Valid() && h.p.kind == primitives.KindCThread {
		return CThreadHandle{ThreadHandle{h}}
	}
	return CThreadHandle{}
}

// MethodHandle is a method view.
type MethodHandle struct {
	ProcessHandle
}

// ThreadHandle is a thread view.
type ThreadHandle struct {
	ProcessHandle
}

// Monitors returns the attached monitors, or none.
func (h ThreadHandle) Monitors() []Monitor {
	if !h.Valid() {
		return nil
	}
	return h.p.Monitors()
}

// AddMonitor attaches m. No-op on the null view.
func (h ThreadHandle) AddMonitor(m Monitor) error {
	if !h.Valid() {
		return nil
	}
	return h.p.AddMonitor(m)
}

// TimeoutEvent returns the timeout event, or the inert sentinel.
func (h ThreadHandle) TimeoutEvent() *Event {
	if !h.Valid() || h.p.timeoutEvent == nil {
		return nonEvent
	}
	return h.p.timeoutEvent
}

// CThreadHandle is a clocked-thread view.
type CThreadHandle struct {
	ThreadHandle
}

// Clock returns the clock event, or the inert sentinel.
func (h CThreadHandle) Clock() *Event {
	if !h.Valid() || h.p.clock == nil {
		return nonEvent
	}
	return h.p.clock
}
