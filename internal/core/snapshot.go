package core

import (
	"time"

	"github.com/comalice/simkernel/internal/primitives"
)

// Lifecycle transitions published for every process.
const (
	TransitionCreated  = "created"
	TransitionZombie   = "zombie"
	TransitionDetached = "detached"
	TransitionDeleted  = "deleted"
)

// LifecycleRecord is one process lifecycle transition.
type LifecycleRecord struct {
	SimID      string               `json:"simID" yaml:"simID"`
	ProcessID  primitives.ProcessID `json:"processID" yaml:"processID"`
	Process    string               `json:"process" yaml:"process"`
	Kind       primitives.Kind      `json:"kind" yaml:"kind"`
	Transition string               `json:"transition" yaml:"transition"`
	Delta      uint64               `json:"delta" yaml:"delta"`
	Timestamp  time.Time            `json:"timestamp" yaml:"timestamp"`
}

// SimSnapshot is the serializable view of a simulation's object graph.
type SimSnapshot struct {
	SimID        string            `json:"simID" yaml:"simID"`
	ModelVersion string            `json:"modelVersion,omitempty" yaml:"modelVersion,omitempty"`
	Delta        uint64            `json:"delta" yaml:"delta"`
	Processes    []ProcessSnapshot `json:"processes" yaml:"processes"`
	Events       []EventSnapshot   `json:"events" yaml:"events"`
	Resets       []ResetSnapshot   `json:"resets,omitempty" yaml:"resets,omitempty"`
	Timestamp    time.Time         `json:"timestamp" yaml:"timestamp"`
}

// ProcessSnapshot describes one process.
type ProcessSnapshot struct {
	ID             primitives.ProcessID `json:"id" yaml:"id"`
	Name           string               `json:"name" yaml:"name"`
	Kind           primitives.Kind      `json:"kind" yaml:"kind"`
	State          primitives.State     `json:"state" yaml:"state"`
	References     int                  `json:"references" yaml:"references"`
	Dynamic        bool                 `json:"dynamic,omitempty" yaml:"dynamic,omitempty"`
	DontInitialize bool                 `json:"dontInitialize,omitempty" yaml:"dontInitialize,omitempty"`
	StaticEvents   []string             `json:"staticEvents,omitempty" yaml:"staticEvents,omitempty"`
	DynamicEvents  []string             `json:"dynamicEvents,omitempty" yaml:"dynamicEvents,omitempty"`
	Monitors       int                  `json:"monitors,omitempty" yaml:"monitors,omitempty"`
	Resets         []string             `json:"resets,omitempty" yaml:"resets,omitempty"`
	Attributes     map[string]any       `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// EventSnapshot describes one registered event.
type EventSnapshot struct {
	Name               string   `json:"name" yaml:"name"`
	Pending            bool     `json:"pending,omitempty" yaml:"pending,omitempty"`
	Fired              uint64   `json:"fired" yaml:"fired"`
	StaticSubscribers  []string `json:"staticSubscribers,omitempty" yaml:"staticSubscribers,omitempty"`
	DynamicSubscribers []string `json:"dynamicSubscribers,omitempty" yaml:"dynamicSubscribers,omitempty"`
}

// ResetSnapshot describes one reset source.
type ResetSnapshot struct {
	Name      string   `json:"name" yaml:"name"`
	Asserted  bool     `json:"asserted,omitempty" yaml:"asserted,omitempty"`
	Processes []string `json:"processes,omitempty" yaml:"processes,omitempty"`
}

// Snapshot captures the live object graph.
func (s *Simcontext) Snapshot() SimSnapshot {
	snap := SimSnapshot{
		SimID:        s.id,
		ModelVersion: s.version,
		Delta:        s.delta,
		Timestamp:    time.Now().UTC(),
	}
	for _, p := range s.processes {
		ps := ProcessSnapshot{
			ID:             p.id,
			Name:           p.Name(),
			Kind:           p.kind,
			State:          p.state,
			References:     p.refs,
			Dynamic:        p.dynamicCreated,
			DontInitialize: p.dontInit,
			StaticEvents:   eventNames(p.staticEvents),
			DynamicEvents:  eventNames(p.DynamicEvents()),
			Monitors:       len(p.monitors),
		}
		for _, r := range p.resets {
			ps.Resets = append(ps.Resets, r.Name())
		}
		if attrs := p.attrs.Snapshot(); len(attrs) > 0 {
			ps.Attributes = attrs
		}
		snap.Processes = append(snap.Processes, ps)
	}
	for _, e := range s.events {
		snap.Events = append(snap.Events, EventSnapshot{
			Name:               e.name,
			Pending:            e.pending,
			Fired:              e.fired,
			StaticSubscribers:  processNames(e.static),
			DynamicSubscribers: processNames(e.dynamic),
		})
	}
	for _, r := range s.resets {
		snap.Resets = append(snap.Resets, ResetSnapshot{
			Name:      r.name,
			Asserted:  r.asserted,
			Processes: processNames(r.processes),
		})
	}
	return snap
}

func eventNames(events []*Event) []string {
	if len(events) == 0 {
		return nil
	}
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.name)
	}
	return out
}

func processNames(procs []*Process) []string {
	if len(procs) == 0 {
		return nil
	}
	out := make([]string, 0, len(procs))
	for _, p := range procs {
		out = append(out, p.Name())
	}
	return out
}
