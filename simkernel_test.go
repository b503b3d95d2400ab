package simkernel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/simkernel"
)

const handshakeModel = `
id: handshake
events:
  - name: req
    notify: [0]
  - name: ack
processes:
  - name: server
    kind: thread
    body: notify:ack
    sensitive: [req]
    dontInitialize: true
  - name: client
    kind: method
    body: count
    sensitive: [ack]
    dontInitialize: true
`

func TestParseModel(t *testing.T) {
	cfg, err := simkernel.ParseModel([]byte(handshakeModel))
	require.NoError(t, err)
	assert.Equal(t, "handshake", cfg.ID)
	require.Len(t, cfg.Processes, 2)
	assert.Equal(t, simkernel.KindThread, cfg.Processes[0].Kind)

	_, err = simkernel.ParseModel([]byte(`{"id": "j", "processes": [{"name": "p", "kind": "method", "body": "count"}]}`))
	assert.NoError(t, err)

	_, err = simkernel.ParseModel([]byte("id: empty\n"))
	assert.ErrorIs(t, err, simkernel.ErrInvalidConfig)

	_, err = simkernel.ParseModel([]byte("id: [unterminated\n"))
	assert.Error(t, err)
}

func TestNewSimulation(t *testing.T) {
	cfg, err := simkernel.ParseModel([]byte(handshakeModel))
	require.NoError(t, err)

	s, err := simkernel.NewSimulation(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	assert.Equal(t, "handshake", s.Sim.ID())
	require.NoError(t, s.Run(context.Background(), 0))

	client := s.Processes[1]
	count, ok := client.Attributes().Get("count")
	require.True(t, ok)
	assert.Equal(t, 1, count)
	assert.Equal(t, uint64(1), s.Events["ack"].Fired())
	assert.Equal(t, uint64(2), s.Kernel.Activations())

	snap := s.Sim.Snapshot()
	assert.Equal(t, "handshake", snap.SimID)
	assert.Len(t, snap.Processes, 2)
}

func TestNewSimulation_CustomBodies(t *testing.T) {
	cfg := simkernel.NewModelBuilder("custom").
		Event("go", 0).
		Thread("worker", "mark").Sensitive("go").DontInitialize().Done().
		MustBuild()

	var marked []string
	bodies := simkernel.DefaultBodies()
	bodies.Register("mark", func(*simkernel.Simcontext, string) (simkernel.Body, error) {
		return func(_ context.Context, a simkernel.Activation) error {
			marked = append(marked, a.Process().Name())
			return nil
		}, nil
	})

	s, err := simkernel.NewSimulation(cfg, bodies)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Run(context.Background(), 0))

	assert.Equal(t, []string{"worker"}, marked)
	assert.True(t, s.Processes[0].Terminated())
}

func TestNewSimulation_UnknownBody(t *testing.T) {
	cfg := simkernel.NewModelBuilder("bad").
		Method("p", "teleport").Done().
		MustBuild()
	_, err := simkernel.NewSimulation(cfg, nil)
	assert.ErrorIs(t, err, simkernel.ErrNotFound)
}

func TestSimulation_CloseStopsThreads(t *testing.T) {
	cfg := simkernel.NewModelBuilder("idle").
		Event("never").
		Thread("sleeper", "count").Sensitive("never").Done().
		MustBuild()

	s, err := simkernel.NewSimulation(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Run(context.Background(), 0))
	sleeper := s.Processes[0]
	require.False(t, sleeper.Terminated())

	require.NoError(t, s.Close())
	assert.True(t, sleeper.Terminated())
	assert.Equal(t, simkernel.StateZombie, sleeper.State())
}
