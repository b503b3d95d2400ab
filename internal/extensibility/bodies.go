package extensibility

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
)

// Attribute keys written by the built-in bodies.
const (
	AttrCount = "count"
	AttrValue = "value"
)

// BodyFactory builds a body for one process. arg is the part of the ref
// after the colon.
type BodyFactory func(sim *core.Simcontext, arg string) (core.Body, error)

// BodyRegistry resolves BodyRefs from model files.
type BodyRegistry struct {
	factories map[string]BodyFactory
}

// NewBodyRegistry creates an empty registry.
func NewBodyRegistry() *BodyRegistry {
	return &BodyRegistry{factories: make(map[string]BodyFactory)}
}

// Register adds or replaces a factory.
func (r *BodyRegistry) Register(name string, f BodyFactory) {
	r.factories[name] = f
}

// Names returns the registered names, sorted.
func (r *BodyRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the body named by ref, wrapped so activations are logged
// at debug level.
func (r *BodyRegistry) Resolve(sim *core.Simcontext, ref primitives.BodyRef) (core.Body, error) {
	f, ok := r.factories[ref.Name()]
	if !ok {
		return nil, fmt.Errorf("body %q not registered: %w", ref.Name(), primitives.ErrNotFound)
	}
	body, err := f(sim, ref.Arg())
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", ref, err)
	}
	return Logging(sim.Logger(), body), nil
}

// DefaultBodies returns a registry with the built-in bodies:
//
//	count          increments the "count" attribute on every activation
//	toggle         flips the boolean "value" attribute
//	echo           logs every activation
//	once           runs a single activation, then stops reacting
//	notify:EVENT   notifies EVENT in the next delta on every activation
//	exit-after:N   a thread that returns after N activations
func DefaultBodies() *BodyRegistry {
	r := NewBodyRegistry()
	r.Register("count", func(*core.Simcontext, string) (core.Body, error) {
		return Loop(incrementCount), nil
	})
	r.Register("toggle", func(*core.Simcontext, string) (core.Body, error) {
		return Loop(func(_ context.Context, a core.Activation) error {
			attrs := a.Process().Attributes()
			v, _ := attrs.Get(AttrValue)
			on, _ := v.(bool)
			attrs.Set(AttrValue, !on)
			return nil
		}), nil
	})
	r.Register("echo", func(sim *core.Simcontext, _ string) (core.Body, error) {
		return Loop(func(_ context.Context, a core.Activation) error {
			sim.Logger().Info("activation", "process", a.Process().Name(), "delta", sim.DeltaCount())
			return nil
		}), nil
	})
	r.Register("once", func(*core.Simcontext, string) (core.Body, error) {
		return func(ctx context.Context, a core.Activation) error {
			if err := incrementCount(ctx, a); err != nil {
				return err
			}
			if a.Process().Kind() == primitives.KindMethod {
				// The never-firing sentinel overrides static sensitivity.
				a.Wait(core.NonEvent())
			}
			return nil
		}, nil
	})
	r.Register("notify", func(sim *core.Simcontext, arg string) (core.Body, error) {
		e, err := sim.FindEvent(arg)
		if err != nil {
			return nil, err
		}
		return Loop(func(ctx context.Context, a core.Activation) error {
			e.NotifyDelta()
			return incrementCount(ctx, a)
		}), nil
	})
	r.Register("exit-after", func(_ *core.Simcontext, arg string) (core.Body, error) {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("exit-after needs a positive count, got %q", arg)
		}
		return func(ctx context.Context, a core.Activation) error {
			if a.Process().Kind() == primitives.KindMethod {
				return fmt.Errorf("exit-after is a thread body: %w", primitives.ErrKindMismatch)
			}
			for i := 0; i < n; i++ {
				if i > 0 {
					a.Wait()
				}
				if err := incrementCount(ctx, a); err != nil {
					return err
				}
			}
			return nil
		}, nil
	})
	return r
}

// Loop turns a step into a body: a method runs the step once per
// activation, a thread runs it forever, waiting on its static sensitivity
// between steps.
func Loop(step core.Body) core.Body {
	return func(ctx context.Context, a core.Activation) error {
		if a.Process().Kind() == primitives.KindMethod {
			return step(ctx, a)
		}
		for {
			if err := step(ctx, a); err != nil {
				return err
			}
			a.Wait()
		}
	}
}

func incrementCount(_ context.Context, a core.Activation) error {
	attrs := a.Process().Attributes()
	v, _ := attrs.Get(AttrCount)
	n, _ := v.(int)
	attrs.Set(AttrCount, n+1)
	return nil
}

// Logging wraps a body and logs each activation and its duration. For
// threads the duration covers the whole body, suspensions included.
func Logging(logger *slog.Logger, inner core.Body) core.Body {
	return func(ctx context.Context, a core.Activation) error {
		name := a.Process().Name()
		logger.Debug("body start", "process", name)
		start := time.Now()
		err := inner(ctx, a)
		logger.Debug("body end", "process", name, "elapsed", time.Since(start), "error", err)
		return err
	}
}
