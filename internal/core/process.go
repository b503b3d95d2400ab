package core

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"slices"

	"github.com/comalice/simkernel/internal/primitives"
)

// Body is the code a process runs. A thread body runs once and the thread
// terminates when it returns; a method body runs to completion on every
// trigger. A non-nil error terminates the process either way.
type Body func(ctx context.Context, a Activation) error

// Activation is the view a running body has of its own process. It is
// implemented by the scheduler driving the body.
type Activation interface {
	// Process returns the running process.
	Process() *Process

	// Wait suspends a thread until one of events triggers, or until its
	// static sensitivity triggers when events is empty. On a method it sets
	// the next trigger and returns immediately.
	Wait(events ...*Event)

	// WaitTimeout is Wait that also gives up after deltas delta cycles.
	WaitTimeout(deltas uint64, events ...*Event)

	// TimedOut reports whether the last WaitTimeout ended by timeout.
	TimedOut() bool
}

// Process is the schedulable unit of the kernel.
//
// A process is created with one reference owned by its creator. Handles
// acquire further references. Disconnect drops the creator's reference;
// the process may only be deleted once every reference is gone.
type Process struct {
	objectBase
	sim *Simcontext

	id             primitives.ProcessID
	kind           primitives.Kind
	state          primitives.State
	refs           int
	body           Body
	clock          *Event
	dontInit       bool
	dynamicCreated bool
	dispatched     bool

	host     io.Closer
	freeHost bool

	staticEvents []*Event
	dynEvent     *Event
	dynList      *EventList
	timeoutArmed bool
	timedOut     bool

	monitors     []Monitor
	resets       []ResetSource
	activeResets int

	termEvent    *Event
	resumeEvent  *Event
	timeoutEvent *Event

	nameGen    *NameGen
	lastReport *primitives.Report

	disconnecting bool
	pendingDelete bool
	destroyed     bool
}

// ID returns the scheduler-assigned process ID.
func (p *Process) ID() primitives.ProcessID { return p.id }

// Kind returns the process kind.
func (p *Process) Kind() primitives.Kind { return p.kind }

// State returns the lifecycle state.
func (p *Process) State() primitives.State { return p.state }

// Terminated reports whether the process is a zombie.
func (p *Process) Terminated() bool { return p.state == primitives.StateZombie }

// References returns the reference count.
func (p *Process) References() int { return p.refs }

// Body returns the process body.
func (p *Process) Body() Body { return p.body }

// Clock returns the clock of a cthread, or nil.
func (p *Process) Clock() *Event { return p.clock }

// Dynamic reports whether the process was created after elaboration.
func (p *Process) Dynamic() bool { return p.dynamicCreated }

// InitSuppressed reports whether DontInitialize(true) was requested.
func (p *Process) InitSuppressed() bool { return p.dontInit }

// Destroyed reports whether the destructor has run.
func (p *Process) Destroyed() bool { return p.destroyed }

// PendingDelete reports whether the process is detached and waiting in the
// scheduler's deferred-deletion queue.
func (p *Process) PendingDelete() bool { return p.pendingDelete }

// LastReport returns the most recent diagnostic raised against the process.
func (p *Process) LastReport() *primitives.Report { return p.lastReport }

// StaticEvents returns the static sensitivity in registration order.
func (p *Process) StaticEvents() []*Event { return slices.Clone(p.staticEvents) }

// Monitors returns the attached monitors in registration order.
func (p *Process) Monitors() []Monitor { return slices.Clone(p.monitors) }

// Resets returns the reset sources the process is registered with.
func (p *Process) Resets() []ResetSource { return slices.Clone(p.resets) }

// ResetActive reports whether any registered reset is asserted.
func (p *Process) ResetActive() bool { return p.activeResets > 0 }

// TimedOut reports whether the last timed wait ended by timeout.
func (p *Process) TimedOut() bool { return p.timedOut }

// Waiting reports whether a dynamic wait is pending.
func (p *Process) Waiting() bool {
	return p.dynEvent != nil || p.dynList != nil || p.timeoutArmed
}

// DynamicEvents returns the events of the pending dynamic wait, including
// the timeout event when armed.
func (p *Process) DynamicEvents() []*Event {
	var out []*Event
	if p.dynEvent != nil {
		out = append(out, p.dynEvent)
	}
	if p.dynList != nil {
		out = append(out, p.dynList.events...)
	}
	if p.timeoutArmed {
		out = append(out, p.timeoutEvent)
	}
	return out
}

// TimeoutEvent returns the thread's timeout event, or nil for a method.
func (p *Process) TimeoutEvent() *Event { return p.timeoutEvent }

// DontInitialize controls whether the process runs once before waiting on
// its sensitivity.
//
// The flag only means something before the first dispatch; later calls are
// ignored with a warning.
func (p *Process) DontInitialize(dont bool) {
	if p.dispatched {
		p.sim.Report(primitives.SeverityWarning, primitives.MsgLateDontInitialize,
			"dont-initialize changed after the process was dispatched", p)
		return
	}
	p.dontInit = dont
}

// Dispatched reports whether the process has been activated at least once.
func (p *Process) Dispatched() bool { return p.dispatched }

// Acquire adds a reference.
func (p *Process) Acquire() {
	p.refs++
}

// Release drops a reference and reports whether the count reached zero.
// Dropping the last reference of a terminated process deletes it; a live
// process is only authorized for deletion.
func (p *Process) Release() bool {
	if !p.decRef() {
		return false
	}
	if p.Terminated() {
		p.Delete()
	}
	return true
}

// decRef drops a reference without deleting.
func (p *Process) decRef() bool {
	if p.refs <= 0 {
		primitives.Violation("Process.Release", p.Name(), primitives.ErrOverRelease)
	}
	p.refs--
	return p.refs == 0
}

// GenUniqueName returns a name unique among those generated by this process.
func (p *Process) GenUniqueName(basename string, preserveFirst bool) string {
	if p.nameGen == nil {
		p.nameGen = NewNameGen()
	}
	return p.nameGen.Gen(basename, preserveFirst)
}

// AddStaticEvent makes the process permanently sensitive to e. Adding an
// event already in the list is a no-op.
func (p *Process) AddStaticEvent(e *Event) error {
	if p.state == primitives.StateZombie {
		return fmt.Errorf("add static event %q to %q: %w", e.Name(), p.Name(), primitives.ErrZombie)
	}
	if slices.Contains(p.staticEvents, e) {
		return nil
	}
	p.staticEvents = append(p.staticEvents, e)
	e.addStatic(p)
	return nil
}

// RemoveStaticEvents unregisters the process from every static event, then
// clears its static list.
func (p *Process) RemoveStaticEvents() {
	switch p.kind {
	case primitives.KindMethod, primitives.KindThread, primitives.KindCThread:
		for i := len(p.staticEvents) - 1; i >= 0; i-- {
			p.staticEvents[i].removeStatic(p)
		}
		p.staticEvents = nil
	default:
		primitives.Violation("Process.RemoveStaticEvents", p.Name(), primitives.ErrUnknownKind)
	}
}

// WaitEvent replaces the pending dynamic wait with a one-shot wait on e.
func (p *Process) WaitEvent(e *Event) error {
	if p.state == primitives.StateZombie {
		return fmt.Errorf("wait on %q: %w", p.Name(), primitives.ErrZombie)
	}
	p.RemoveDynamicEvents()
	p.timedOut = false
	p.dynEvent = e
	e.addDynamic(p)
	return nil
}

// WaitList replaces the pending dynamic wait with an any-of wait on l.
func (p *Process) WaitList(l *EventList) error {
	if p.state == primitives.StateZombie {
		return fmt.Errorf("wait on %q: %w", p.Name(), primitives.ErrZombie)
	}
	p.RemoveDynamicEvents()
	p.timedOut = false
	p.dynList = l
	for _, e := range l.events {
		e.addDynamic(p)
	}
	return nil
}

// ArmTimeout adds the thread's timeout event to the pending wait and
// schedules it deltas cycles ahead.
func (p *Process) ArmTimeout(deltas uint64) error {
	if !p.kind.IsThread() {
		return fmt.Errorf("timeout on %s %q: %w", p.kind, p.Name(), primitives.ErrKindMismatch)
	}
	if p.state == primitives.StateZombie {
		return fmt.Errorf("timeout on %q: %w", p.Name(), primitives.ErrZombie)
	}
	p.timedOut = false
	p.timeoutArmed = true
	p.timeoutEvent.addDynamic(p)
	p.timeoutEvent.NotifyAfter(deltas)
	return nil
}

// RemoveDynamicEvents clears the pending dynamic wait. For threads the
// timeout event is also removed and its notification cancelled. No-op
// without a pending wait.
func (p *Process) RemoveDynamicEvents() {
	switch p.kind {
	case primitives.KindThread, primitives.KindCThread:
		if p.timeoutEvent != nil {
			p.timeoutEvent.removeDynamic(p)
			p.timeoutEvent.Cancel()
		}
		p.timeoutArmed = false
	case primitives.KindMethod:
	default:
		primitives.Violation("Process.RemoveDynamicEvents", p.Name(), primitives.ErrUnknownKind)
	}
	if p.dynEvent != nil {
		p.dynEvent.removeDynamic(p)
		p.dynEvent = nil
	}
	if p.dynList != nil {
		for _, e := range p.dynList.events {
			e.removeDynamic(p)
		}
		p.dynList = nil
	}
}

// dynamicTriggered is called by e after it removed p from its dynamic set.
// The rest of the wait is torn down: the other events of an any-of list,
// and the timeout unless the timeout is what fired.
func (p *Process) dynamicTriggered(e *Event) {
	fromTimeout := p.timeoutArmed && e == p.timeoutEvent
	if p.timeoutArmed && !fromTimeout {
		p.timeoutEvent.removeDynamic(p)
		p.timeoutEvent.Cancel()
	}
	p.timeoutArmed = false
	p.timedOut = fromTimeout

	if p.dynEvent != nil && p.dynEvent != e {
		p.dynEvent.removeDynamic(p)
	}
	p.dynEvent = nil
	if p.dynList != nil {
		for _, other := range p.dynList.events {
			if other != e {
				other.removeDynamic(p)
			}
		}
		p.dynList = nil
	}
}

// forgetDynamic drops e from the pending wait without waking p. Used when
// an owned event is released under a waiting subscriber.
func (p *Process) forgetDynamic(e *Event) {
	if p.dynEvent == e {
		p.dynEvent = nil
	}
	if p.dynList != nil {
		p.dynList.events = remove(p.dynList.events, e)
		if len(p.dynList.events) == 0 {
			p.dynList = nil
		}
	}
	if p.timeoutEvent == e {
		p.timeoutArmed = false
	}
}

// AddMonitor attaches an exit monitor. Only threads have monitors.
func (p *Process) AddMonitor(m Monitor) error {
	if !p.kind.IsThread() {
		return fmt.Errorf("monitor on %s %q: %w", p.kind, p.Name(), primitives.ErrKindMismatch)
	}
	if p.state == primitives.StateZombie {
		return fmt.Errorf("monitor on %q: %w", p.Name(), primitives.ErrZombie)
	}
	p.monitors = append(p.monitors, m)
	return nil
}

// RemoveMonitor detaches the first registration of m. No-op if absent.
// Monitors of a non-comparable type, such as MonitorFunc, cannot be matched.
func (p *Process) RemoveMonitor(m Monitor) error {
	if m == nil {
		return nil
	}
	if !reflect.TypeOf(m).Comparable() {
		return fmt.Errorf("remove %T from %q: %w", m, p.Name(), primitives.ErrUncomparableMonitor)
	}
	if i := slices.Index(p.monitors, m); i >= 0 {
		p.monitors = slices.Delete(p.monitors, i, i+1)
	}
	return nil
}

// RegisterReset records that r holds a back-reference to p. Called by
// reset sources when they add the process.
func (p *Process) RegisterReset(r ResetSource) {
	p.resets = appendUnique(p.resets, r)
}

// UnregisterReset forgets r. Called by reset sources when they drop the
// process on their own initiative.
func (p *Process) UnregisterReset(r ResetSource) {
	p.resets = remove(p.resets, r)
}

// TerminatedEvent returns the event fired when the process ends, allocating
// it on first use. Methods have no meaningful end, so asking a method for it
// raises a warning; the returned event is still usable.
func (p *Process) TerminatedEvent() *Event {
	if p.kind == primitives.KindMethod {
		p.sim.Report(primitives.SeverityWarning, primitives.MsgMethodTerminationEvent,
			"terminated event requested for a method process", p)
	}
	if p.termEvent == nil {
		p.termEvent = p.sim.newOwnedEvent(p.Name() + ".terminated_event")
	}
	return p.termEvent
}

// ResumeEvent returns the process's resume event, allocating it on first use.
func (p *Process) ResumeEvent() *Event {
	if p.resumeEvent == nil {
		p.resumeEvent = p.sim.newOwnedEvent(p.Name() + ".resume_event")
	}
	return p.resumeEvent
}

// Disconnect terminates the process. It is the only way into the zombie
// state and is idempotent.
//
// Order: monitors are signalled first so they observe the live
// subscriptions; then dynamic and static subscriptions and reset
// registrations are torn down; then the state flips, the terminated event
// fires and the creator's reference is dropped. Disconnect never deletes.
func (p *Process) Disconnect() {
	if p.state == primitives.StateZombie || p.destroyed || p.pendingDelete {
		return
	}
	if p.disconnecting {
		p.sim.Report(primitives.SeverityWarning, primitives.MsgReentrantDisconnect,
			"disconnect called from inside the process's own disconnect", p)
		return
	}
	p.disconnecting = true

	switch p.kind {
	case primitives.KindThread, primitives.KindCThread:
		th := ThreadHandle{ProcessHandle{p}}
		for _, m := range slices.Clone(p.monitors) {
			m.Signal(th, primitives.SignalExit)
		}
		p.monitors = nil
	case primitives.KindMethod:
	default:
		primitives.Violation("Process.Disconnect", p.Name(), primitives.ErrUnknownKind)
	}

	p.teardownSubscriptions()

	p.state = primitives.StateZombie
	p.disconnecting = false
	p.sim.lifecycle(p, TransitionZombie)

	if p.termEvent != nil {
		p.termEvent.Notify()
	}
	p.decRef()
}

func (p *Process) teardownSubscriptions() {
	p.RemoveDynamicEvents()
	p.RemoveStaticEvents()

	resets := p.resets
	p.resets = nil
	for _, r := range resets {
		r.RemoveProcess(p)
	}
	p.activeResets = 0
}

// Delete destroys the process. The reference count must be zero.
//
// When p is not the current activation it is destroyed at once. When p is
// deleting itself, it is detached from the hierarchy now and handed to the
// scheduler's deferred-deletion queue; the destructor runs when the queue
// is drained after the activation has ended.
func (p *Process) Delete() {
	if p.refs != 0 {
		primitives.Violation("Process.Delete", p.Name(),
			fmt.Errorf("%w: %d remaining", primitives.ErrReferencesHeld, p.refs))
	}
	if p.disconnecting {
		primitives.Violation("Process.Delete", p.Name(), primitives.ErrReentrantDelete)
	}
	if p.destroyed || p.pendingDelete {
		return
	}

	if p != p.sim.CurrentProcess() {
		p.destroy()
		return
	}

	p.pendingDelete = true
	p.sim.detachProcess(p)
	p.sim.EnqueuePendingDeletion(p)
}

// destroy releases everything the process owns.
func (p *Process) destroy() {
	if p.destroyed {
		return
	}
	p.sim.detachProcess(p)

	if p.state != primitives.StateZombie {
		p.teardownSubscriptions()
	}

	for _, child := range p.children {
		p.sim.addChildObject(child)
	}
	p.children = nil
	p.monitors = nil

	if p.freeHost && p.host != nil {
		if err := p.host.Close(); err != nil {
			p.sim.logger.Warn("process host close failed", "process", p.Name(), "error", err)
		}
	}
	p.host = nil

	p.nameGen = nil
	p.lastReport = nil
	for _, e := range []*Event{p.resumeEvent, p.termEvent, p.timeoutEvent} {
		if e != nil {
			e.release()
		}
	}
	p.resumeEvent = nil
	p.termEvent = nil
	p.timeoutEvent = nil

	p.pendingDelete = false
	p.destroyed = true
	p.sim.lifecycle(p, TransitionDeleted)
}

// String returns "kind name".
func (p *Process) String() string {
	return fmt.Sprintf("%s %s", p.kind, p.Name())
}
