package extensibility

import (
	"fmt"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
)

// Elaboration is the result of building a model into a Simcontext.
type Elaboration struct {
	Model     primitives.ModelConfig
	Processes []*core.Process
	Events    map[string]*core.Event
	Resets    map[string]*core.Reset

	// Stimulus maps a delta cycle to the events the driver notifies in it.
	Stimulus map[uint64][]*core.Event
}

// Elaborate validates cfg and creates its events, resets and processes in
// sim, resolving bodies through bodies. Processes are created in model
// order, so their IDs follow the model.
func Elaborate(sim *core.Simcontext, cfg primitives.ModelConfig, bodies *BodyRegistry) (*Elaboration, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	el := &Elaboration{
		Model:    cfg,
		Events:   make(map[string]*core.Event, len(cfg.Events)),
		Resets:   make(map[string]*core.Reset, len(cfg.Resets)),
		Stimulus: make(map[uint64][]*core.Event),
	}
	sim.SetModelVersion(primitives.ComputeVersion(&cfg))

	for _, ec := range cfg.Events {
		e, err := sim.NewEvent(ec.Name)
		if err != nil {
			return nil, fmt.Errorf("elaborate %q: %w", cfg.ID, err)
		}
		el.Events[ec.Name] = e
		for _, cycle := range ec.Notify {
			if cycle < 0 {
				return nil, fmt.Errorf("elaborate %q: event %q: negative stimulus cycle %d: %w",
					cfg.ID, ec.Name, cycle, primitives.ErrInvalidConfig)
			}
			el.Stimulus[uint64(cycle)] = append(el.Stimulus[uint64(cycle)], e)
		}
	}
	for _, name := range cfg.Resets {
		el.Resets[name] = sim.NewReset(name)
	}

	for _, pc := range cfg.Processes {
		body, err := bodies.Resolve(sim, pc.Body)
		if err != nil {
			return nil, fmt.Errorf("elaborate %q: process %q: %w", cfg.ID, pc.Name, err)
		}

		opts := []core.ProcessOption{}
		if pc.DontInitialize {
			opts = append(opts, core.DontInitialize())
		}
		for _, name := range pc.Sensitive {
			opts = append(opts, core.Sensitive(el.Events[name]))
		}
		for k, v := range pc.Attributes {
			opts = append(opts, core.WithAttribute(k, v))
		}

		var clock *core.Event
		if pc.Clock != "" {
			clock = el.Events[pc.Clock]
		}
		p, err := sim.CreateProcess(nil, pc.Name, pc.Kind, clock, body, opts...)
		if err != nil {
			return nil, fmt.Errorf("elaborate %q: %w", cfg.ID, err)
		}
		for _, name := range pc.Resets {
			el.Resets[name].AddProcess(p)
		}
		el.Processes = append(el.Processes, p)
	}
	return el, nil
}
