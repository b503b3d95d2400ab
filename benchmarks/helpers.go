// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/simkernel"
	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/extensibility"
	"github.com/comalice/simkernel/internal/primitives"
)

// GenFanOutConfig creates a model with n counting methods statically
// sensitive to one clock, notified in cycle 0.
func GenFanOutConfig(n int) primitives.ModelConfig {
	if n < 1 {
		n = 1
	}
	mb := primitives.NewModelBuilder(fmt.Sprintf("fanout_%d", n)).Event("clk", 0)
	for i := 0; i < n; i++ {
		mb.Method(fmt.Sprintf("m%d", i), "count").Sensitive("clk").DontInitialize().Done()
	}
	return mb.MustBuild()
}

// GenChainConfig creates a chain of n threads: thread i wakes on e<i> and
// notifies e<i+1>, so one notification of e0 ripples through n deltas.
func GenChainConfig(n int) primitives.ModelConfig {
	if n < 1 {
		n = 1
	}
	mb := primitives.NewModelBuilder(fmt.Sprintf("chain_%d", n))
	for i := 0; i <= n; i++ {
		mb.Event(fmt.Sprintf("e%d", i))
	}
	for i := 0; i < n; i++ {
		mb.Thread(fmt.Sprintf("t%d", i), primitives.BodyRef(fmt.Sprintf("notify:e%d", i+1))).
			Sensitive(fmt.Sprintf("e%d", i)).
			DontInitialize().
			Done()
	}
	return mb.MustBuild()
}

func elaborate(sim *core.Simcontext, cfg primitives.ModelConfig) error {
	_, err := extensibility.Elaborate(sim, cfg, extensibility.DefaultBodies())
	return err
}

// GenSnapshotYAML runs a fan-out model of n processes for one clock edge and
// returns its snapshot as YAML.
func GenSnapshotYAML(n int) []byte {
	s, err := simkernel.NewSimulation(GenFanOutConfig(n), nil)
	if err != nil {
		panic(err)
	}
	defer s.Close()
	if err := s.Run(context.Background(), 0); err != nil {
		panic(err)
	}
	data, err := yaml.Marshal(s.Sim.Snapshot())
	if err != nil {
		panic(err)
	}
	return data
}
