package delta

import "context"

// Step runs one delta cycle.
func (k *Kernel) Step(ctx context.Context) error {
	k.ctx = ctx

	// Phase 1: stimulus and newly created processes
	for _, e := range k.stimulus[k.sim.DeltaCount()] {
		e.NotifyDelta()
	}
	if !k.sim.ElaborationDone() {
		k.sim.EndElaboration()
	}
	k.adoptNew()

	// Phase 2: evaluate
	for len(k.runnable) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := k.runnable[0]
		k.runnable = k.runnable[1:]
		delete(k.queued, p)
		k.activate(p)
		k.adoptNew()
	}

	// Phase 3: update
	for _, e := range k.sim.TakeDueNotifications() {
		e.Trigger()
	}
	k.sim.AdvanceDelta()
	return nil
}
