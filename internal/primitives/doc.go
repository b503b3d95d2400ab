// Package primitives provides the foundational value types for the simulation
// kernel: process kinds and states, monitor signals, diagnostic reports,
// sentinel errors and the declarative model configuration.
//
// Nothing in this package holds a reference to a live process or event. The
// object graph lives in internal/core; primitives only describes it.
//
// Core invariants:
//   - Kind is fixed at construction and never changes
//   - State is monotonic: once Zombie, never Normal again
//   - ModelConfig.Validate rejects every configuration the kernel cannot elaborate
package primitives
