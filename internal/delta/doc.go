// Package delta provides a deterministic delta-cycle driver for the
// simulation core.
//
// A delta cycle has two phases:
//   - evaluate: runnable processes run one at a time, in the order they
//     became runnable; immediate notifications make more processes runnable
//     within the same phase
//   - update: notifications due in this cycle are triggered in request
//     order (sequence numbers, stable sort), making their subscribers
//     runnable for the next cycle
//
// Methods run to completion on the kernel goroutine. Threads run on their
// own goroutines as coroutines: the kernel resumes one and blocks until it
// suspends or finishes, so exactly one body executes at any instant.
//
// After every activation the kernel clears the current process and drains
// the Simcontext deferred-deletion queue, finalizing processes that deleted
// themselves while they were running.
//
// # Example Usage
//
//	sim := core.NewSimcontext()
//	clk, _ := sim.NewEvent("clk")
//	sim.CreateThread(nil, "producer", producerBody, core.Sensitive(clk))
//	k := delta.New(sim, delta.WithStimulus(0, clk))
//	err := k.Run(ctx, 100)
package delta
