package core

import (
	"slices"

	"github.com/comalice/simkernel/internal/primitives"
)

// Event is a condition processes subscribe to.
//
// Static subscribers stay subscribed across triggers. Dynamic subscribers
// are one-shot: triggering removes them. Both sets keep registration order,
// which is the order subscribers are woken in.
//
// An Event never owns the processes it lists; the lists are back-references
// kept consistent with each process's own static list and pending wait.
type Event struct {
	sim     *Simcontext
	name    string
	static  []*Process
	dynamic []*Process

	pending  bool
	released bool
	inert    bool
	fired    uint64
}

// nonEvent is the inert event returned by null handles. Every mutation on an
// inert event is a no-op, so the sentinel is never observably shared state.
var nonEvent = &Event{name: "non_event", inert: true}

// NonEvent returns the inert sentinel event.
func NonEvent() *Event {
	return nonEvent
}

// Name returns the event name.
func (e *Event) Name() string { return e.name }

// Pending reports whether a delta notification is scheduled.
func (e *Event) Pending() bool { return e.pending }

// Released reports whether the event's owner has destroyed it.
func (e *Event) Released() bool { return e.released }

// Inert reports whether e is the sentinel.
func (e *Event) Inert() bool { return e.inert }

// Fired returns how many times the event has triggered.
func (e *Event) Fired() uint64 { return e.fired }

// StaticSubscribers returns the static subscribers in registration order.
func (e *Event) StaticSubscribers() []*Process { return slices.Clone(e.static) }

// DynamicSubscribers returns the dynamic subscribers in registration order.
func (e *Event) DynamicSubscribers() []*Process { return slices.Clone(e.dynamic) }

// HasStatic reports whether p is a static subscriber.
func (e *Event) HasStatic(p *Process) bool { return slices.Contains(e.static, p) }

// HasDynamic reports whether p is a dynamic subscriber.
func (e *Event) HasDynamic(p *Process) bool { return slices.Contains(e.dynamic, p) }

// Notify triggers the event immediately: subscribers are woken in the
// current evaluation phase.
func (e *Event) Notify() {
	e.Trigger()
}

// NotifyDelta schedules a trigger for the update phase of the current delta
// cycle.
func (e *Event) NotifyDelta() {
	e.NotifyAfter(0)
}

// NotifyAfter schedules a trigger n delta cycles from now. An earlier
// pending notification wins over a later one.
func (e *Event) NotifyAfter(n uint64) {
	if e.inert || e.released || e.sim == nil {
		return
	}
	e.sim.scheduleNotify(e, n)
}

// Cancel withdraws a pending notification. No-op if none is pending.
func (e *Event) Cancel() {
	if !e.pending || e.sim == nil {
		return
	}
	e.sim.cancelNotify(e)
}

// Trigger wakes subscribers: static subscribers are re-signalled and stay
// subscribed; dynamic subscribers are removed, their pending wait is
// cleared, then they are woken.
func (e *Event) Trigger() {
	if e.inert || e.released {
		return
	}
	e.fired++

	for _, p := range slices.Clone(e.static) {
		switch p.kind {
		case primitives.KindMethod:
			e.sim.triggerStaticMethod(MethodHandle{ProcessHandle{p}})
		case primitives.KindThread, primitives.KindCThread:
			e.sim.triggerStaticThread(ThreadHandle{ProcessHandle{p}})
		default:
			primitives.Violation("Event.Trigger", p.Name(), primitives.ErrUnknownKind)
		}
	}

	dyn := e.dynamic
	e.dynamic = nil
	for _, p := range dyn {
		p.dynamicTriggered(e)
		switch p.kind {
		case primitives.KindMethod:
			e.sim.triggerDynamicMethod(MethodHandle{ProcessHandle{p}})
		case primitives.KindThread, primitives.KindCThread:
			e.sim.triggerDynamicThread(ThreadHandle{ProcessHandle{p}})
		default:
			primitives.Violation("Event.Trigger", p.Name(), primitives.ErrUnknownKind)
		}
	}
}

// Kind-specific registration entry points. Methods and threads resume
// through different scheduler paths, so an Event is told which one it is
// registering.

func (e *Event) addStaticMethod(h MethodHandle)      { e.static = appendUnique(e.static, h.p) }
func (e *Event) addStaticThread(h ThreadHandle)      { e.static = appendUnique(e.static, h.p) }
func (e *Event) removeStaticMethod(h MethodHandle)   { e.static = remove(e.static, h.p) }
func (e *Event) removeStaticThread(h ThreadHandle)   { e.static = remove(e.static, h.p) }
func (e *Event) addDynamicMethod(h MethodHandle)     { e.dynamic = appendUnique(e.dynamic, h.p) }
func (e *Event) addDynamicThread(h ThreadHandle)     { e.dynamic = appendUnique(e.dynamic, h.p) }
func (e *Event) removeDynamicMethod(h MethodHandle)  { e.dynamic = remove(e.dynamic, h.p) }
func (e *Event) removeDynamicThread(h ThreadHandle)  { e.dynamic = remove(e.dynamic, h.p) }

func (e *Event) addStatic(p *Process) {
	if e.inert {
		return
	}
	switch p.kind {
	case primitives.KindMethod:
		e.addStaticMethod(MethodHandle{ProcessHandle{p}})
	case primitives.KindThread, primitives.KindCThread:
		e.addStaticThread(ThreadHandle{ProcessHandle{p}})
	default:
		primitives.Violation("Event.addStatic", p.Name(), primitives.ErrUnknownKind)
	}
}

func (e *Event) removeStatic(p *Process) {
	if e.inert {
		return
	}
	switch p.kind {
	case primitives.KindMethod:
		e.removeStaticMethod(MethodHandle{ProcessHandle{p}})
	case primitives.KindThread, primitives.KindCThread:
		e.removeStaticThread(ThreadHandle{ProcessHandle{p}})
	default:
		primitives.Violation("Event.removeStatic", p.Name(), primitives.ErrUnknownKind)
	}
}

func (e *Event) addDynamic(p *Process) {
	if e.inert {
		return
	}
	switch p.kind {
	case primitives.KindMethod:
		e.addDynamicMethod(MethodHandle{ProcessHandle{p}})
	case primitives.KindThread, primitives.KindCThread:
		e.addDynamicThread(ThreadHandle{ProcessHandle{p}})
	default:
		primitives.Violation("Event.addDynamic", p.Name(), primitives.ErrUnknownKind)
	}
}

func (e *Event) removeDynamic(p *Process) {
	if e.inert {
		return
	}
	switch p.kind {
	case primitives.KindMethod:
		e.removeDynamicMethod(MethodHandle{ProcessHandle{p}})
	case primitives.KindThread, primitives.KindCThread:
		e.removeDynamicThread(ThreadHandle{ProcessHandle{p}})
	default:
		primitives.Violation("Event.removeDynamic", p.Name(), primitives.ErrUnknownKind)
	}
}

// release destroys a process-owned event: the pending notification is
// cancelled and every subscriber forgets it, so no process is left holding
// a reference into a released event.
func (e *Event) release() {
	if e.released {
		return
	}
	e.Cancel()
	for _, p := range slices.Clone(e.static) {
		p.staticEvents = remove(p.staticEvents, e)
	}
	for _, p := range slices.Clone(e.dynamic) {
		p.forgetDynamic(e)
	}
	e.static = nil
	e.dynamic = nil
	e.released = true
}

// EventList is an any-of list for a single dynamic wait.
type EventList struct {
	events []*Event
}

// NewEventList creates an any-of list. Duplicates and nil events are dropped.
func NewEventList(events ...*Event) *EventList {
	l := &EventList{}
	for _, e := range events {
		if e != nil {
			l.events = appendUnique(l.events, e)
		}
	}
	return l
}

// Events returns the listed events in order.
func (l *EventList) Events() []*Event { return slices.Clone(l.events) }

// Len returns the number of events.
func (l *EventList) Len() int { return len(l.events) }

func appendUnique[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

func remove[T comparable](s []T, v T) []T {
	return slices.DeleteFunc(s, func(x T) bool { return x == v })
}
