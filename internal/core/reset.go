package core

import "slices"

// ResetSource holds back-references to the processes it may reset. A
// process asks each of its sources to forget it when it terminates.
type ResetSource interface {
	Name() string
	RemoveProcess(p *Process)
}

// Reset is the kernel's reset source.
type Reset struct {
	sim       *Simcontext
	name      string
	processes []*Process
	asserted  bool
}

// Name returns the reset name.
func (r *Reset) Name() string { return r.name }

// Asserted reports whether the reset is active.
func (r *Reset) Asserted() bool { return r.asserted }

// Processes returns the registered processes in registration order.
func (r *Reset) Processes() []*Process { return slices.Clone(r.processes) }

// Has reports whether p is registered.
func (r *Reset) Has(p *Process) bool { return slices.Contains(r.processes, p) }

// AddProcess registers p with r on both sides. Terminated processes are
// ignored; adding twice is a no-op.
func (r *Reset) AddProcess(p *Process) {
	if p.Terminated() || r.Has(p) {
		return
	}
	r.processes = append(r.processes, p)
	p.RegisterReset(r)
	if r.asserted {
		p.activeResets++
	}
}

// RemoveProcess forgets p on both sides. No-op if p is not registered.
func (r *Reset) RemoveProcess(p *Process) {
	if !r.Has(p) {
		return
	}
	r.processes = remove(r.processes, p)
	p.UnregisterReset(r)
	if r.asserted && p.activeResets > 0 {
		p.activeResets--
	}
}

// Assert activates the reset for every registered process.
func (r *Reset) Assert() {
	if r.asserted {
		return
	}
	r.asserted = true
	for _, p := range r.processes {
		p.activeResets++
	}
	r.sim.logger.Debug("reset asserted", "reset", r.name, "processes", len(r.processes))
}

// Deassert releases the reset.
func (r *Reset) Deassert() {
	if !r.asserted {
		return
	}
	r.asserted = false
	for _, p := range r.processes {
		if p.activeResets > 0 {
			p.activeResets--
		}
	}
	r.sim.logger.Debug("reset deasserted", "reset", r.name)
}
