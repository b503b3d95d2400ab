// Package core provides the process-lifecycle and event-subscription core of
// the simulation kernel: processes, events, monitors, reset sources, process
// handles and the Simcontext that owns them.
//
// The kernel is cooperative and single-threaded. Exactly one activation is
// current at any time, so nothing in this package takes a lock; drivers that
// run bodies on other goroutines must hand control over strictly.
package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/comalice/simkernel/internal/primitives"
)

// Pluggable component interfaces.

// Waker is implemented by the delta-cycle driver. Events call it to make a
// triggered process runnable; the method and thread paths differ because
// methods run to completion while threads resume a suspended body.
type Waker interface {
	TriggerStaticMethod(h MethodHandle)
	TriggerStaticThread(h ThreadHandle)
	TriggerDynamicMethod(h MethodHandle)
	TriggerDynamicThread(h ThreadHandle)
}

// ReportHandler receives every diagnostic report.
type ReportHandler func(r primitives.Report)

// LifecyclePublisher receives process lifecycle transitions.
type LifecyclePublisher interface {
	Publish(ctx context.Context, rec LifecycleRecord) error
	Close() error
}

// Persister stores simulation snapshots.
type Persister interface {
	Save(ctx context.Context, snapshot SimSnapshot) error
	Load(ctx context.Context, simID string) (SimSnapshot, error)
}

// Visualizer renders a snapshot's sensitivity graph.
type Visualizer interface {
	ExportDOT(snapshot SimSnapshot) string
	ExportJSON(snapshot SimSnapshot) ([]byte, error)
}

// Option applies configuration to a Simcontext.
type Option func(*Simcontext)

type pendingNotification struct {
	event *Event
	due   uint64
	seq   uint64
}

// Simcontext is the scheduler side of the core. It assigns process IDs,
// tracks elaboration and the current activation, owns the object registry
// and the deferred-deletion queue, and queues delta notifications.
type Simcontext struct {
	id        string
	logger    *slog.Logger
	publisher LifecyclePublisher
	onReport  ReportHandler
	waker     Waker
	version   string

	nextID          primitives.ProcessID
	elaborationDone bool
	current         *Process
	lastCreated     *Process
	pendingDeletes  []*Process

	names    *NameGen
	objects  map[string]Object
	topLevel []Object

	processes    []*Process
	events       []*Event
	eventsByName map[string]*Event
	resets       []*Reset

	delta         uint64
	notifySeq     uint64
	notifications []pendingNotification

	closed bool
}

// NewSimcontext creates a simulation context. The context-wide state (ID
// counter, name registry, last-created process, deletion queue) is set up
// here and torn down by Close.
func NewSimcontext(opts ...Option) *Simcontext {
	s := &Simcontext{
		id:           "sim",
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		names:        NewNameGen(),
		objects:      make(map[string]Object),
		eventsByName: make(map[string]*Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the simulation ID.
func (s *Simcontext) ID() string { return s.id }

// Logger returns the context logger.
func (s *Simcontext) Logger() *slog.Logger { return s.logger }

// SetWaker installs the driver that makes triggered processes runnable.
func (s *Simcontext) SetWaker(w Waker) { s.waker = w }

// SetModelVersion records the version of the model being simulated.
func (s *Simcontext) SetModelVersion(v string) { s.version = v }

// NextProcessID returns a fresh, monotonically increasing process ID.
func (s *Simcontext) NextProcessID() primitives.ProcessID {
	s.nextID++
	return s.nextID
}

// ElaborationDone reports whether EndElaboration was called.
func (s *Simcontext) ElaborationDone() bool { return s.elaborationDone }

// EndElaboration marks the end of model construction; processes created
// afterwards are flagged dynamic.
func (s *Simcontext) EndElaboration() { s.elaborationDone = true }

// CurrentProcess returns the executing process, or nil between activations.
func (s *Simcontext) CurrentProcess() *Process { return s.current }

// SetCurrentProcess is called by the driver around every activation. A
// process made current counts as dispatched.
func (s *Simcontext) SetCurrentProcess(p *Process) {
	s.current = p
	if p != nil {
		p.dispatched = true
	}
}

// LastCreatedProcess returns the most recently created process.
func (s *Simcontext) LastCreatedProcess() *Process { return s.lastCreated }

// Processes returns the live (attached) processes in creation order.
func (s *Simcontext) Processes() []*Process { return slices.Clone(s.processes) }

// ProcessesSince returns the live processes with an ID greater than id, in
// creation order.
func (s *Simcontext) ProcessesSince(id primitives.ProcessID) []*Process {
	i := len(s.processes)
	for i > 0 && s.processes[i-1].id > id {
		i--
	}
	return slices.Clone(s.processes[i:])
}

// Events returns the registered events in creation order.
func (s *Simcontext) Events() []*Event { return slices.Clone(s.events) }

// Resets returns the reset sources in creation order.
func (s *Simcontext) Resets() []*Reset { return slices.Clone(s.resets) }

// DeltaCount returns the number of completed delta cycles.
func (s *Simcontext) DeltaCount() uint64 { return s.delta }

// AdvanceDelta closes the current delta cycle.
func (s *Simcontext) AdvanceDelta() { s.delta++ }

// EnqueuePendingDeletion queues a detached process for finalization.
func (s *Simcontext) EnqueuePendingDeletion(p *Process) {
	s.pendingDeletes = appendUnique(s.pendingDeletes, p)
	s.logger.Debug("process queued for deletion", "process", p.Name(), "id", p.id)
}

// PendingDeletions returns the number of queued processes.
func (s *Simcontext) PendingDeletions() int { return len(s.pendingDeletes) }

// CollectDeletedProcesses runs the destructor of every queued process that
// is no longer the current activation, and returns how many it finalized.
func (s *Simcontext) CollectDeletedProcesses() int {
	var keep []*Process
	n := 0
	for _, p := range s.pendingDeletes {
		if p == s.current {
			keep = append(keep, p)
			continue
		}
		p.destroy()
		n++
	}
	s.pendingDeletes = keep
	return n
}

// NewEvent creates a registered event. An empty name is generated.
func (s *Simcontext) NewEvent(name string) (*Event, error) {
	if name == "" {
		name = s.names.Gen("event", false)
	}
	if _, exists := s.eventsByName[name]; exists {
		return nil, fmt.Errorf("event %q: %w", name, primitives.ErrDuplicateName)
	}
	e := &Event{sim: s, name: name}
	s.events = append(s.events, e)
	s.eventsByName[name] = e
	return e, nil
}

// FindEvent looks a registered event up by name.
func (s *Simcontext) FindEvent(name string) (*Event, error) {
	e, ok := s.eventsByName[name]
	if !ok {
		return nil, fmt.Errorf("event %q: %w", name, primitives.ErrNotFound)
	}
	return e, nil
}

// newOwnedEvent creates an event owned by a process. It is not registered.
func (s *Simcontext) newOwnedEvent(name string) *Event {
	return &Event{sim: s, name: name}
}

// NewReset creates a reset source.
func (s *Simcontext) NewReset(name string) *Reset {
	if name == "" {
		name = s.names.Gen("reset", false)
	}
	r := &Reset{sim: s, name: name}
	s.resets = append(s.resets, r)
	return r
}

// FindReset looks a reset source up by name.
func (s *Simcontext) FindReset(name string) (*Reset, error) {
	for _, r := range s.resets {
		if r.name == name {
			return r, nil
		}
	}
	return nil, fmt.Errorf("reset %q: %w", name, primitives.ErrNotFound)
}

// CreateMethod creates a method process under parent (nil for top level).
func (s *Simcontext) CreateMethod(parent Object, name string, body Body, opts ...ProcessOption) (*Process, error) {
	return s.createProcess(parent, name, primitives.KindMethod, nil, body, opts)
}

// CreateThread creates a thread process.
func (s *Simcontext) CreateThread(parent Object, name string, body Body, opts ...ProcessOption) (*Process, error) {
	return s.createProcess(parent, name, primitives.KindThread, nil, body, opts)
}

// CreateCThread creates a clocked thread statically sensitive to clock.
func (s *Simcontext) CreateCThread(parent Object, name string, clock *Event, body Body, opts ...ProcessOption) (*Process, error) {
	if clock == nil {
		return nil, fmt.Errorf("cthread %q: clock is required", name)
	}
	return s.createProcess(parent, name, primitives.KindCThread, clock, body, opts)
}

// CreateProcess creates a process of the given kind. It is the entry point
// for declarative elaboration; clock is only used for cthreads.
func (s *Simcontext) CreateProcess(parent Object, name string, kind primitives.Kind, clock *Event, body Body, opts ...ProcessOption) (*Process, error) {
	switch kind {
	case primitives.KindMethod:
		return s.CreateMethod(parent, name, body, opts...)
	case primitives.KindThread:
		return s.CreateThread(parent, name, body, opts...)
	case primitives.KindCThread:
		return s.CreateCThread(parent, name, clock, body, opts...)
	default:
		return nil, fmt.Errorf("process %q: %w: %s", name, primitives.ErrUnknownKind, kind)
	}
}

func (s *Simcontext) createProcess(parent Object, name string, kind primitives.Kind, clock *Event, body Body, opts []ProcessOption) (*Process, error) {
	if body == nil {
		return nil, fmt.Errorf("process %q: body is required", name)
	}
	var so spawnOptions
	for _, opt := range opts {
		opt(&so)
	}

	p := &Process{
		sim:            s,
		kind:           kind,
		state:          primitives.StateNormal,
		refs:           1,
		body:           body,
		clock:          clock,
		dontInit:       so.dontInit,
		dynamicCreated: s.elaborationDone,
		host:           so.host,
		freeHost:       so.freeHost,
	}
	if name == "" {
		name = s.names.Gen(kind.String()+"_p", false)
	}
	if err := s.attach(p, parent, name); err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	p.id = s.NextProcessID()
	if kind.IsThread() {
		p.timeoutEvent = s.newOwnedEvent(p.Name() + ".timeout_event")
	}
	for k, v := range so.attrs {
		p.attrs.Set(k, v)
	}

	if clock != nil {
		_ = p.AddStaticEvent(clock)
	}
	for _, e := range so.sensitive {
		_ = p.AddStaticEvent(e)
	}

	s.processes = append(s.processes, p)
	s.lastCreated = p
	s.lifecycle(p, TransitionCreated)
	return p, nil
}

// detachProcess is phase one of deletion: the process becomes unreachable
// from the registry, its parent and the process list.
func (s *Simcontext) detachProcess(p *Process) {
	if !p.attached {
		return
	}
	s.detach(p)
	s.processes = remove(s.processes, p)
	if s.lastCreated == p {
		s.lastCreated = nil
	}
	s.lifecycle(p, TransitionDetached)
}

// Report raises a diagnostic. The record is logged, passed to the report
// handler and, when p is non-nil, kept as p's last report.
func (s *Simcontext) Report(sev primitives.Severity, msgType, msg string, p *Process) {
	r := primitives.Report{Severity: sev, MsgType: msgType, Message: msg}
	if p != nil {
		r.Process = p.Name()
		rec := r
		p.lastReport = &rec
	}

	level := slog.LevelInfo
	switch sev {
	case primitives.SeverityWarning:
		level = slog.LevelWarn
	case primitives.SeverityError, primitives.SeverityFatal:
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, msg, "msgType", msgType, "process", r.Process)

	if s.onReport != nil {
		s.onReport(r)
	}
}

// scheduleNotify queues e for the update phase n cycles from now. An
// already pending notification that is due earlier wins.
func (s *Simcontext) scheduleNotify(e *Event, n uint64) {
	due := s.delta + n
	for i := range s.notifications {
		pn := &s.notifications[i]
		if pn.event != e {
			continue
		}
		if pn.due <= due {
			return
		}
		pn.due = due
		pn.seq = s.nextSeq()
		return
	}
	s.notifications = append(s.notifications, pendingNotification{event: e, due: due, seq: s.nextSeq()})
	e.pending = true
}

func (s *Simcontext) nextSeq() uint64 {
	s.notifySeq++
	return s.notifySeq
}

func (s *Simcontext) cancelNotify(e *Event) {
	s.notifications = slices.DeleteFunc(s.notifications, func(pn pendingNotification) bool {
		return pn.event == e
	})
	e.pending = false
}

// HasPendingNotifications reports whether any notification is queued.
func (s *Simcontext) HasPendingNotifications() bool { return len(s.notifications) > 0 }

// TakeDueNotifications removes and returns the events due in the current
// delta cycle, ordered by due cycle then request order.
func (s *Simcontext) TakeDueNotifications() []*Event {
	var due []pendingNotification
	rest := s.notifications[:0]
	for _, pn := range s.notifications {
		if pn.due <= s.delta {
			due = append(due, pn)
		} else {
			rest = append(rest, pn)
		}
	}
	s.notifications = rest

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	events := make([]*Event, 0, len(due))
	for _, pn := range due {
		pn.event.pending = false
		events = append(events, pn.event)
	}
	return events
}

func (s *Simcontext) triggerStaticMethod(h MethodHandle) {
	if s.waker != nil {
		s.waker.TriggerStaticMethod(h)
	}
}

func (s *Simcontext) triggerStaticThread(h ThreadHandle) {
	if s.waker != nil {
		s.waker.TriggerStaticThread(h)
	}
}

func (s *Simcontext) triggerDynamicMethod(h MethodHandle) {
	if s.waker != nil {
		s.waker.TriggerDynamicMethod(h)
	}
}

func (s *Simcontext) triggerDynamicThread(h ThreadHandle) {
	if s.waker != nil {
		s.waker.TriggerDynamicThread(h)
	}
}

func (s *Simcontext) lifecycle(p *Process, transition string) {
	s.logger.Debug("process "+transition, "process", p.Name(), "id", p.id, "kind", p.kind)
	if s.publisher == nil {
		return
	}
	rec := LifecycleRecord{
		SimID:      s.id,
		ProcessID:  p.id,
		Process:    p.Name(),
		Kind:       p.kind,
		Transition: transition,
		Delta:      s.delta,
		Timestamp:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(context.Background(), rec); err != nil {
		s.logger.Warn("lifecycle publish failed", "process", p.Name(), "transition", transition, "error", err)
	}
}

// Close tears the context down: queued deletions are finalized, the
// context-wide singletons are cleared and the publisher is closed. Safe to
// call more than once.
func (s *Simcontext) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.current = nil
	s.CollectDeletedProcesses()
	s.lastCreated = nil
	s.notifications = nil
	if s.publisher != nil {
		return s.publisher.Close()
	}
	return nil
}
