package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/testutil"
)

// wakeLog is a Waker that records which path every wake took.
type wakeLog struct {
	wakes []string
}

func (w *wakeLog) TriggerStaticMethod(h core.MethodHandle)  { w.add("static-method", h.ProcessHandle) }
func (w *wakeLog) TriggerStaticThread(h core.ThreadHandle)  { w.add("static-thread", h.ProcessHandle) }
func (w *wakeLog) TriggerDynamicMethod(h core.MethodHandle) { w.add("dynamic-method", h.ProcessHandle) }
func (w *wakeLog) TriggerDynamicThread(h core.ThreadHandle) { w.add("dynamic-thread", h.ProcessHandle) }

func (w *wakeLog) add(path string, h core.ProcessHandle) {
	w.wakes = append(w.wakes, path+":"+h.Name())
}

func newSim(t *testing.T, opts ...core.Option) (*core.Simcontext, *wakeLog, *testutil.Recorder) {
	t.Helper()
	rec := &testutil.Recorder{}
	sim := core.NewSimcontext(append([]core.Option{core.WithID(t.Name()), core.WithPublisher(rec)}, opts...)...)
	w := &wakeLog{}
	sim.SetWaker(w)
	t.Cleanup(func() { _ = sim.Close() })
	return sim, w, rec
}

func mustEvent(t *testing.T, sim *core.Simcontext, name string) *core.Event {
	t.Helper()
	e, err := sim.NewEvent(name)
	require.NoError(t, err)
	return e
}

func mustThread(t *testing.T, sim *core.Simcontext, name string, opts ...core.ProcessOption) *core.Process {
	t.Helper()
	p, err := sim.CreateThread(nil, name, testutil.Noop, opts...)
	require.NoError(t, err)
	return p
}

func mustMethod(t *testing.T, sim *core.Simcontext, name string, opts ...core.ProcessOption) *core.Process {
	t.Helper()
	p, err := sim.CreateMethod(nil, name, testutil.Noop, opts...)
	require.NoError(t, err)
	return p
}
