package delta

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/logging"
	"github.com/comalice/simkernel/internal/primitives"
)

// errKilled is the termination cause of a killed process.
var errKilled = errors.New("process killed")

// Kernel drives a Simcontext through delta cycles.
type Kernel struct {
	sim    *core.Simcontext
	logger *slog.Logger
	ctx    context.Context

	runnable []*core.Process
	queued   map[*core.Process]bool
	threads  map[*core.Process]*coroutine
	adopted  primitives.ProcessID

	stimulus     map[uint64][]*core.Event
	lastStimulus uint64

	activations uint64
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithStimulus notifies events in the given delta cycle.
func WithStimulus(cycle uint64, events ...*core.Event) Option {
	return func(k *Kernel) {
		k.stimulus[cycle] = append(k.stimulus[cycle], events...)
		if cycle > k.lastStimulus {
			k.lastStimulus = cycle
		}
	}
}

// New creates a kernel and installs it as sim's waker.
func New(sim *core.Simcontext, opts ...Option) *Kernel {
	k := &Kernel{
		sim:      sim,
		logger:   sim.Logger(),
		ctx:      context.Background(),
		queued:   make(map[*core.Process]bool),
		threads:  make(map[*core.Process]*coroutine),
		stimulus: make(map[uint64][]*core.Event),
	}
	for _, opt := range opts {
		opt(k)
	}
	sim.SetWaker(k)
	return k
}

// Sim returns the driven context.
func (k *Kernel) Sim() *core.Simcontext { return k.sim }

// Activations returns how many activations have run.
func (k *Kernel) Activations() uint64 { return k.activations }

// Runnable returns the number of processes queued for the evaluate phase.
func (k *Kernel) Runnable() int { return len(k.runnable) }

// Idle reports whether nothing is left to do: no runnable process, no
// pending notification and no future stimulus.
func (k *Kernel) Idle() bool {
	return len(k.runnable) == 0 &&
		!k.sim.HasPendingNotifications() &&
		(len(k.stimulus) == 0 || k.sim.DeltaCount() > k.lastStimulus)
}

// Run executes delta cycles until the kernel is idle, ctx is cancelled or
// maxDeltas cycles have run (0 means no limit).
func (k *Kernel) Run(ctx context.Context, maxDeltas uint64) error {
	for n := uint64(0); maxDeltas == 0 || n < maxDeltas; n++ {
		if err := k.Step(ctx); err != nil {
			return err
		}
		if k.Idle() {
			return nil
		}
	}
	return nil
}

// Kill terminates p. A suspended thread is unwound first. The current
// activation cannot kill itself; its body should return instead.
func (k *Kernel) Kill(p *core.Process) error {
	if p == k.sim.CurrentProcess() {
		return fmt.Errorf("kill %q: %w", p.Name(), primitives.ErrNotRunnable)
	}
	if p.Terminated() || p.Destroyed() {
		// Disconnected from outside while suspended.
		k.unwind(p)
		return nil
	}
	k.dequeue(p)

	prev := k.sim.CurrentProcess()
	k.sim.SetCurrentProcess(p)
	if co := k.threads[p]; co != nil {
		co.kill()
	}
	k.terminate(p, errKilled)
	k.sim.SetCurrentProcess(prev)
	k.sim.CollectDeletedProcesses()
	return nil
}

// Stop kills every process whose thread body is still suspended, so no
// goroutine outlives the simulation. Live processes go in creation order;
// bodies of threads already terminated from outside are unwound after.
func (k *Kernel) Stop() {
	for _, p := range k.sim.Processes() {
		if _, ok := k.threads[p]; ok {
			_ = k.Kill(p)
		}
	}
	for p := range k.threads {
		k.unwind(p)
	}
	k.runnable = nil
	clear(k.queued)
}

// unwind kills the suspended body of a terminated thread and deletes the
// process once nothing references it.
func (k *Kernel) unwind(p *core.Process) {
	co := k.threads[p]
	if co == nil {
		return
	}
	delete(k.threads, p)
	k.dequeue(p)

	prev := k.sim.CurrentProcess()
	k.sim.SetCurrentProcess(p)
	co.kill()
	k.sim.SetCurrentProcess(prev)

	if !p.Destroyed() && !p.PendingDelete() && p.References() == 0 {
		p.Delete()
	}
	k.logger.Debug("process unwound", "process", p.Name())
}

// TriggerStaticMethod implements core.Waker.
func (k *Kernel) TriggerStaticMethod(h core.MethodHandle) { k.triggerStatic(h.Process()) }

// TriggerStaticThread implements core.Waker.
func (k *Kernel) TriggerStaticThread(h core.ThreadHandle) { k.triggerStatic(h.Process()) }

// TriggerDynamicMethod implements core.Waker.
func (k *Kernel) TriggerDynamicMethod(h core.MethodHandle) { k.makeRunnable(h.Process()) }

// TriggerDynamicThread implements core.Waker.
func (k *Kernel) TriggerDynamicThread(h core.ThreadHandle) { k.makeRunnable(h.Process()) }

// triggerStatic ignores processes with a pending dynamic wait; the wait
// overrides static sensitivity until it completes.
func (k *Kernel) triggerStatic(p *core.Process) {
	if p == nil || p.Waiting() {
		return
	}
	k.makeRunnable(p)
}

func (k *Kernel) makeRunnable(p *core.Process) {
	if p == nil || p.Terminated() || p.Destroyed() || p.PendingDelete() {
		return
	}
	if p == k.sim.CurrentProcess() || k.queued[p] {
		return
	}
	k.runnable = append(k.runnable, p)
	k.queued[p] = true
}

func (k *Kernel) dequeue(p *core.Process) {
	if !k.queued[p] {
		return
	}
	delete(k.queued, p)
	for i, q := range k.runnable {
		if q == p {
			k.runnable = append(k.runnable[:i], k.runnable[i+1:]...)
			return
		}
	}
}

// adoptNew queues processes created since the last call, unless they
// suppressed initialization.
func (k *Kernel) adoptNew() {
	for _, p := range k.sim.ProcessesSince(k.adopted) {
		k.adopted = p.ID()
		if !p.InitSuppressed() {
			k.makeRunnable(p)
		}
	}
}

// activate runs one activation of p and finalizes deferred deletions.
func (k *Kernel) activate(p *core.Process) {
	if p.Terminated() || p.Destroyed() || p.PendingDelete() {
		return
	}
	k.sim.SetCurrentProcess(p)
	k.activations++
	k.logger.Log(k.ctx, logging.LevelTrace, "activate",
		"process", p.Name(), "kind", p.Kind(), "delta", k.sim.DeltaCount())

	var (
		finished bool
		err      error
	)
	switch p.Kind() {
	case primitives.KindMethod:
		err = p.Body()(k.ctx, &methodActivation{p: p, k: k})
		finished = err != nil
	case primitives.KindThread, primitives.KindCThread:
		y := k.resumeThread(p)
		finished, err = y.finished, y.err
	default:
		primitives.Violation("Kernel.activate", p.Name(), primitives.ErrUnknownKind)
	}

	if finished {
		k.terminate(p, err)
	}
	k.sim.SetCurrentProcess(nil)
	k.sim.CollectDeletedProcesses()
}

// terminate disconnects p and deletes it once nothing references it. p is
// the current process here, so a self-deletion takes the deferred path.
func (k *Kernel) terminate(p *core.Process, cause error) {
	if cause != nil && !errors.Is(cause, errKilled) {
		k.sim.Report(primitives.SeverityError, primitives.MsgProcessBodyError, cause.Error(), p)
	}
	delete(k.threads, p)
	p.Disconnect()
	if p.References() == 0 {
		p.Delete()
	}
	k.logger.Debug("process terminated", "process", p.Name(), "killed", errors.Is(cause, errKilled))
}
