package extensibility_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/simkernel/internal/delta"
	"github.com/comalice/simkernel/internal/extensibility"
	"github.com/comalice/simkernel/internal/primitives"
)

func pipelineModel() primitives.ModelConfig {
	return primitives.NewModelBuilder("pipeline").
		Event("clk", 0, 1).
		Event("done").
		Reset("rst").
		Method("counter", "count").Sensitive("clk").Done().
		Thread("flipper", "toggle").Sensitive("clk").Resets("rst").Attribute("owner", "ops").Done().
		CThread("finisher", "clk", "exit-after:2").Done().
		Method("pinger", "notify:done").DontInitialize().Done().
		MustBuild()
}

func TestElaborate(t *testing.T) {
	sim := newSim(t)
	cfg := pipelineModel()

	el, err := extensibility.Elaborate(sim, cfg, extensibility.DefaultBodies())
	require.NoError(t, err)

	require.Len(t, el.Processes, 4)
	for i, name := range []string{"counter", "flipper", "finisher", "pinger"} {
		assert.Equal(t, name, el.Processes[i].Name())
		assert.Equal(t, primitives.ProcessID(i+1), el.Processes[i].ID())
	}
	assert.Equal(t, primitives.KindCThread, el.Processes[2].Kind())
	assert.Equal(t, el.Events["clk"], el.Processes[2].Clock())
	assert.True(t, el.Processes[3].InitSuppressed())

	owner, ok := el.Processes[1].Attributes().Get("owner")
	require.True(t, ok)
	assert.Equal(t, "ops", owner)
	assert.True(t, el.Resets["rst"].Has(el.Processes[1]))

	require.Len(t, el.Stimulus, 2)
	assert.Equal(t, el.Events["clk"], el.Stimulus[0][0])
	assert.Equal(t, el.Events["clk"], el.Stimulus[1][0])
	assert.Equal(t, primitives.ComputeVersion(&cfg), sim.Snapshot().ModelVersion)

	opts := []delta.Option{}
	for cycle, events := range el.Stimulus {
		opts = append(opts, delta.WithStimulus(cycle, events...))
	}
	k := delta.New(sim, opts...)
	t.Cleanup(k.Stop)
	require.NoError(t, k.Run(context.Background(), 0))

	assert.Equal(t, 3, attr(el.Processes[0], extensibility.AttrCount))
	assert.Equal(t, true, attr(el.Processes[1], extensibility.AttrValue))
	assert.True(t, el.Processes[2].Terminated())
	assert.Nil(t, attr(el.Processes[3], extensibility.AttrCount))
	assert.Equal(t, uint64(3), sim.DeltaCount())
}

func TestElaborate_Errors(t *testing.T) {
	t.Run("invalid model", func(t *testing.T) {
		cfg := pipelineModel()
		cfg.ID = ""
		_, err := extensibility.Elaborate(newSim(t), cfg, extensibility.DefaultBodies())
		assert.ErrorIs(t, err, primitives.ErrInvalidConfig)
	})

	t.Run("negative stimulus cycle", func(t *testing.T) {
		cfg := pipelineModel()
		cfg.Events[0].Notify = []int{-1}
		_, err := extensibility.Elaborate(newSim(t), cfg, extensibility.DefaultBodies())
		assert.ErrorIs(t, err, primitives.ErrInvalidConfig)
	})

	t.Run("unregistered body", func(t *testing.T) {
		cfg := pipelineModel()
		cfg.Processes[0].Body = "teleport"
		_, err := extensibility.Elaborate(newSim(t), cfg, extensibility.DefaultBodies())
		assert.ErrorIs(t, err, primitives.ErrNotFound)
		assert.ErrorContains(t, err, `process "counter"`)
	})

	t.Run("empty registry", func(t *testing.T) {
		_, err := extensibility.Elaborate(newSim(t), pipelineModel(), extensibility.NewBodyRegistry())
		assert.ErrorIs(t, err, primitives.ErrNotFound)
	})
}
