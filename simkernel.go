// Package simkernel is the public surface of the process lifecycle kernel:
// method and thread processes, the events they are sensitive to, exit
// monitors, reset sources and reference-counted process handles, plus a
// delta-cycle driver that runs them.
//
// A model can be built in code:
//
//	sim := simkernel.NewSimcontext()
//	clk, _ := sim.NewEvent("clk")
//	sim.CreateMethod(nil, "sampler", body, simkernel.Sensitive(clk))
//	k := simkernel.NewKernel(sim, simkernel.WithStimulus(0, clk))
//	err := k.Run(ctx, 0)
//
// or declared in a YAML model and elaborated with NewSimulation.
package simkernel

import (
	"context"
	"errors"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/delta"
	"github.com/comalice/simkernel/internal/extensibility"
	"github.com/comalice/simkernel/internal/primitives"
)

type (
	Simcontext    = core.Simcontext
	Process       = core.Process
	Event         = core.Event
	EventList     = core.EventList
	Reset         = core.Reset
	ResetSource   = core.ResetSource
	Module        = core.Module
	Object        = core.Object
	Body          = core.Body
	Activation    = core.Activation
	Monitor       = core.Monitor
	MonitorFunc   = core.MonitorFunc
	ProcessHandle = core.ProcessHandle
	MethodHandle  = core.MethodHandle
	ThreadHandle  = core.ThreadHandle
	CThreadHandle = core.CThreadHandle
	Option        = core.Option
	ProcessOption = core.ProcessOption
	SimSnapshot   = core.SimSnapshot

	Kernel       = delta.Kernel
	KernelOption = delta.Option

	Kind           = primitives.Kind
	State          = primitives.State
	ProcessID      = primitives.ProcessID
	Report         = primitives.Report
	InvariantError = primitives.InvariantError
	ModelConfig    = primitives.ModelConfig
	ModelBuilder   = primitives.ModelBuilder

	BodyRegistry = extensibility.BodyRegistry
	JoinMonitor  = extensibility.JoinMonitor
)

const (
	KindUnclassified = primitives.KindUnclassified
	KindMethod       = primitives.KindMethod
	KindThread       = primitives.KindThread
	KindCThread      = primitives.KindCThread

	StateNormal = primitives.StateNormal
	StateZombie = primitives.StateZombie
)

var (
	ErrReferencesHeld  = primitives.ErrReferencesHeld
	ErrUnknownKind     = primitives.ErrUnknownKind
	ErrKindMismatch    = primitives.ErrKindMismatch
	ErrNotFound        = primitives.ErrNotFound
	ErrDuplicateName   = primitives.ErrDuplicateName
	ErrZombie          = primitives.ErrZombie
	ErrReentrantDelete = primitives.ErrReentrantDelete
	ErrNotRunnable     = primitives.ErrNotRunnable
	ErrInvalidConfig   = primitives.ErrInvalidConfig
)

var (
	NewSimcontext    = core.NewSimcontext
	NewEventList     = core.NewEventList
	NewProcessHandle = core.NewProcessHandle
	NonEvent         = core.NonEvent
	WithID           = core.WithID
	WithLogger       = core.WithLogger
	WithPublisher    = core.WithPublisher
	WithReport       = core.WithReportHandler
	DontInitialize   = core.DontInitialize
	Sensitive        = core.Sensitive
	WithHost         = core.WithHost
	WithAttribute    = core.WithAttribute

	NewKernel    = delta.New
	WithStimulus = delta.WithStimulus

	NewModelBuilder = primitives.NewModelBuilder
	DefaultBodies   = extensibility.DefaultBodies
	NewJoinMonitor  = extensibility.NewJoinMonitor
)

// ParseModel decodes a YAML (or JSON, which is valid YAML) model and
// validates it.
func ParseModel(data []byte) (ModelConfig, error) {
	var cfg ModelConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Simulation is an elaborated model bound to a kernel.
type Simulation struct {
	Sim       *Simcontext
	Kernel    *Kernel
	Processes []*Process
	Events    map[string]*Event
	Resets    map[string]*Reset
}

// NewSimulation elaborates cfg into a fresh Simcontext with the built-in
// bodies, or with bodies when non-nil, and wires the model's stimulus into
// a kernel.
func NewSimulation(cfg ModelConfig, bodies *BodyRegistry, opts ...Option) (*Simulation, error) {
	if bodies == nil {
		bodies = extensibility.DefaultBodies()
	}
	sim := core.NewSimcontext(append([]Option{core.WithID(cfg.ID)}, opts...)...)
	el, err := extensibility.Elaborate(sim, cfg, bodies)
	if err != nil {
		return nil, errors.Join(err, sim.Close())
	}

	cycles := make([]uint64, 0, len(el.Stimulus))
	for c := range el.Stimulus {
		cycles = append(cycles, c)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i] < cycles[j] })
	var kopts []KernelOption
	for _, c := range cycles {
		kopts = append(kopts, delta.WithStimulus(c, el.Stimulus[c]...))
	}

	return &Simulation{
		Sim:       sim,
		Kernel:    delta.New(sim, kopts...),
		Processes: el.Processes,
		Events:    el.Events,
		Resets:    el.Resets,
	}, nil
}

// Run drives the simulation; see Kernel.Run.
func (s *Simulation) Run(ctx context.Context, maxDeltas uint64) error {
	return s.Kernel.Run(ctx, maxDeltas)
}

// Close unwinds suspended threads and closes the context.
func (s *Simulation) Close() error {
	s.Kernel.Stop()
	return s.Sim.Close()
}
