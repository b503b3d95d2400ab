package production

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
)

func TestSQLiteTraceStore_RecordsLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteTraceStore(ctx, filepath.Join(t.TempDir(), "trace", "trace.db"))
	require.NoError(t, err)

	sim := core.NewSimcontext(core.WithID("traced"), core.WithPublisher(store))
	th, err := sim.CreateThread(nil, "worker", noop)
	require.NoError(t, err)
	_, err = sim.CreateMethod(nil, "other", noop)
	require.NoError(t, err)
	th.Disconnect()
	th.Delete()

	recs, err := store.Records(ctx, "worker")
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, core.TransitionCreated, recs[0].Transition)
	assert.Equal(t, core.TransitionZombie, recs[1].Transition)
	assert.Equal(t, core.TransitionDetached, recs[2].Transition)
	assert.Equal(t, core.TransitionDeleted, recs[3].Transition)
	for _, r := range recs {
		assert.Equal(t, "traced", r.SimID)
		assert.Equal(t, primitives.KindThread, r.Kind)
		assert.Equal(t, th.ID(), r.ProcessID)
		assert.False(t, r.Timestamp.IsZero())
	}

	all, err := store.Records(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	require.NoError(t, sim.Close())
	_, err = store.Records(ctx, "")
	assert.Error(t, err)
	require.NoError(t, store.Close())
}

func TestSQLiteTraceStore_InMemory(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteTraceStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Publish(ctx, core.LifecycleRecord{
		SimID: "s", ProcessID: 7, Process: "p", Kind: primitives.KindCThread,
		Transition: core.TransitionCreated, Delta: 3,
	}))
	recs, err := store.Records(ctx, "p")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, primitives.ProcessID(7), recs[0].ProcessID)
	assert.Equal(t, uint64(3), recs[0].Delta)
	assert.Equal(t, primitives.KindCThread, recs[0].Kind)
}
