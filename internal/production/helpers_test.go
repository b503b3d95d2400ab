package production

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comalice/simkernel/internal/core"
)

func noop(context.Context, core.Activation) error { return nil }

// buildSim returns a small graph: a method statically sensitive to clk, a
// thread waiting on done, and a reset holding the thread.
func buildSim(t *testing.T) *core.Simcontext {
	t.Helper()
	sim := core.NewSimcontext(core.WithID("fixture"))
	clk, err := sim.NewEvent("clk")
	require.NoError(t, err)
	done, err := sim.NewEvent("done")
	require.NoError(t, err)

	_, err = sim.CreateMethod(nil, "sampler", noop, core.Sensitive(clk))
	require.NoError(t, err)
	th, err := sim.CreateThread(nil, "worker", noop)
	require.NoError(t, err)
	require.NoError(t, th.WaitEvent(done))

	rst := sim.NewReset("rst")
	rst.AddProcess(th)
	return sim
}
