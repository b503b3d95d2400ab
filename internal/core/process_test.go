package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
	"github.com/comalice/simkernel/testutil"
)

func TestDisconnect_ClearsEverySubscription(t *testing.T) {
	sim, _, _ := newSim(t)
	a := mustEvent(t, sim, "a")
	b := mustEvent(t, sim, "b")
	c := mustEvent(t, sim, "c")
	rst := sim.NewReset("rst")

	p := mustThread(t, sim, "worker", core.Sensitive(a, b))
	require.NoError(t, p.WaitEvent(c))
	rst.AddProcess(p)
	require.True(t, a.HasStatic(p))
	require.True(t, c.HasDynamic(p))
	require.True(t, rst.Has(p))

	p.Disconnect()

	assert.Equal(t, primitives.StateZombie, p.State())
	assert.True(t, p.Terminated())
	assert.Equal(t, 0, p.References())
	assert.Empty(t, p.StaticEvents())
	assert.Empty(t, p.DynamicEvents())
	assert.Empty(t, p.Resets())
	assert.False(t, p.Waiting())
	for _, e := range []*core.Event{a, b, c} {
		assert.False(t, e.HasStatic(p), e.Name())
		assert.False(t, e.HasDynamic(p), e.Name())
	}
	assert.False(t, rst.Has(p))
	assert.False(t, p.Destroyed(), "disconnect never deletes")
}

func TestDisconnect_Idempotent(t *testing.T) {
	sim, _, rec := newSim(t)
	p := mustThread(t, sim, "worker")
	h := core.NewProcessHandle(p)
	defer h.Release()

	log := &testutil.MonitorLog{}
	require.NoError(t, p.AddMonitor(log.Monitor("m")))
	term := p.TerminatedEvent()

	p.Disconnect()
	p.Disconnect()

	assert.Equal(t, 1, p.References(), "creator reference dropped once")
	assert.Len(t, log.Signals, 1)
	assert.Equal(t, uint64(1), term.Fired())
	assert.Equal(t, []string{core.TransitionCreated, core.TransitionZombie}, rec.Transitions("worker"))
}

func TestDisconnect_MonitorsSignalledOnceInOrderBeforeTeardown(t *testing.T) {
	sim, _, _ := newSim(t)
	clk := mustEvent(t, sim, "clk")
	done := mustEvent(t, sim, "done")
	p := mustThread(t, sim, "worker", core.Sensitive(clk))
	require.NoError(t, p.WaitEvent(done))

	log := &testutil.MonitorLog{}
	for _, name := range []string{"m1", "m2", "m3"} {
		require.NoError(t, p.AddMonitor(log.Monitor(name)))
	}

	p.Disconnect()

	require.Len(t, log.Signals, 3)
	for i, name := range []string{"m1", "m2", "m3"} {
		s := log.Signals[i]
		assert.Equal(t, name, s.Monitor)
		assert.Equal(t, "worker", s.Thread)
		assert.Equal(t, primitives.SignalExit, s.Sig)
		// Monitors run before subscriptions are torn down.
		assert.Equal(t, 1, s.Static)
		assert.Equal(t, 1, s.Dynamic)
	}
	assert.Empty(t, p.Monitors())
}

func TestDisconnect_TwoMonitorsAndReset(t *testing.T) {
	sim, w, _ := newSim(t)
	rst := sim.NewReset("rst")
	worker := mustThread(t, sim, "worker")
	watcher := mustThread(t, sim, "watcher")

	log := &testutil.MonitorLog{}
	require.NoError(t, worker.AddMonitor(log.Monitor("first")))
	require.NoError(t, worker.AddMonitor(log.Monitor("second")))
	rst.AddProcess(worker)
	rst.Assert()
	require.True(t, worker.ResetActive())

	require.NoError(t, watcher.WaitEvent(worker.TerminatedEvent()))

	worker.Disconnect()

	require.Len(t, log.Signals, 2)
	assert.Equal(t, "first", log.Signals[0].Monitor)
	assert.Equal(t, "second", log.Signals[1].Monitor)
	assert.False(t, rst.Has(worker))
	assert.Empty(t, rst.Processes())
	assert.False(t, worker.ResetActive())
	assert.Equal(t, []string{"dynamic-thread:watcher"}, w.wakes)
	assert.False(t, watcher.Waiting())
}

func TestDisconnect_Method(t *testing.T) {
	sim, _, _ := newSim(t)
	clk := mustEvent(t, sim, "clk")
	m := mustMethod(t, sim, "m", core.Sensitive(clk))

	m.Disconnect()

	assert.True(t, m.Terminated())
	assert.False(t, clk.HasStatic(m))
	assert.Error(t, m.AddMonitor(core.MonitorFunc(func(core.ThreadHandle, primitives.MonitorSignal) {})))
}

func TestDisconnect_ReentrantIsWarning(t *testing.T) {
	var reports []primitives.Report
	sim, _, _ := newSim(t, core.WithReportHandler(func(r primitives.Report) { reports = append(reports, r) }))
	p := mustThread(t, sim, "worker")
	calls := 0
	require.NoError(t, p.AddMonitor(core.MonitorFunc(func(th core.ThreadHandle, _ primitives.MonitorSignal) {
		calls++
		th.Process().Disconnect()
	})))

	p.Disconnect()

	assert.Equal(t, 1, calls)
	assert.True(t, p.Terminated())
	assert.Equal(t, 0, p.References())
	require.Len(t, reports, 1)
	assert.Equal(t, primitives.MsgReentrantDisconnect, reports[0].MsgType)
	assert.Equal(t, primitives.SeverityWarning, reports[0].Severity)
	require.NotNil(t, p.LastReport())
	assert.Equal(t, primitives.MsgReentrantDisconnect, p.LastReport().MsgType)
}

func TestDelete_RequiresZeroReferences(t *testing.T) {
	sim, _, _ := newSim(t)
	p := mustThread(t, sim, "worker")
	h := core.NewProcessHandle(p)
	p.Disconnect()
	require.Equal(t, 1, p.References())

	ie := testutil.ExpectViolation(t, primitives.ErrReferencesHeld, p.Delete)
	assert.Equal(t, "Process.Delete", ie.Op)
	assert.Equal(t, "worker", ie.Process)
	assert.False(t, p.Destroyed())

	h.Release()
	assert.True(t, p.Destroyed(), "last handle release deletes a terminated process")
	assert.False(t, h.Valid())
}

func TestDelete_ReentrantFromDisconnectPanics(t *testing.T) {
	sim, _, _ := newSim(t)
	p := mustThread(t, sim, "worker")
	require.True(t, p.Release())
	require.NoError(t, p.AddMonitor(core.MonitorFunc(func(th core.ThreadHandle, _ primitives.MonitorSignal) {
		th.Process().Delete()
	})))

	testutil.ExpectViolation(t, primitives.ErrReentrantDelete, p.Disconnect)
}

func TestRelease_OverReleasePanics(t *testing.T) {
	sim, _, _ := newSim(t)
	p := mustMethod(t, sim, "m")
	require.True(t, p.Release())
	testutil.ExpectViolation(t, primitives.ErrOverRelease, func() { p.Release() })
}

func TestDelete_ImmediateWhenNotCurrent(t *testing.T) {
	sim, _, rec := newSim(t)
	mod, err := sim.NewModule(nil, "top")
	require.NoError(t, err)
	p, err := sim.CreateThread(mod, "worker", testutil.Noop)
	require.NoError(t, err)
	term := p.TerminatedEvent()
	timeout := p.TimeoutEvent()

	p.Disconnect()
	p.Delete()

	assert.True(t, p.Destroyed())
	assert.True(t, term.Released())
	assert.True(t, timeout.Released())
	assert.NotContains(t, sim.Processes(), p)
	_, err = sim.FindObject("top.worker")
	assert.ErrorIs(t, err, primitives.ErrNotFound)
	assert.Empty(t, mod.ChildObjects())
	assert.Equal(t, []string{
		core.TransitionCreated, core.TransitionZombie, core.TransitionDetached, core.TransitionDeleted,
	}, rec.Transitions("top.worker"))

	p.Delete()
	assert.Equal(t, 4, len(rec.Transitions("top.worker")), "second delete is a no-op")
}

func TestDelete_SelfDeletionIsDeferred(t *testing.T) {
	sim, _, _ := newSim(t)
	p := mustThread(t, sim, "worker")
	term := p.TerminatedEvent()
	sim.SetCurrentProcess(p)

	p.Disconnect()
	p.Delete()

	// Phase one: unreachable but not destroyed.
	assert.True(t, p.PendingDelete())
	assert.False(t, p.Destroyed())
	assert.NotContains(t, sim.Processes(), p)
	_, err := sim.FindObject("worker")
	assert.ErrorIs(t, err, primitives.ErrNotFound)
	assert.False(t, term.Released(), "owned events survive until the queue drains")
	assert.Equal(t, 1, sim.PendingDeletions())
	assert.False(t, core.NewProcessHandle(p).Valid())

	assert.Equal(t, 0, sim.CollectDeletedProcesses(), "current process is never finalized")

	// Phase two.
	sim.SetCurrentProcess(nil)
	assert.Equal(t, 1, sim.CollectDeletedProcesses())
	assert.True(t, p.Destroyed())
	assert.True(t, term.Released())
	assert.Equal(t, 0, sim.PendingDeletions())
}

func TestDelete_NormalProcessTearsDownSubscriptions(t *testing.T) {
	sim, _, _ := newSim(t)
	clk := mustEvent(t, sim, "clk")
	p := mustMethod(t, sim, "m", core.Sensitive(clk))
	require.True(t, p.Release())

	p.Delete()

	assert.True(t, p.Destroyed())
	assert.False(t, clk.HasStatic(p))
}

func TestDestroy_ClosesOwnedHost(t *testing.T) {
	sim, _, _ := newSim(t)
	owned := &closer{}
	borrowed := &closer{}
	a := mustMethod(t, sim, "a", core.WithHost(owned, true))
	b := mustMethod(t, sim, "b", core.WithHost(borrowed, false))
	for _, p := range []*core.Process{a, b} {
		p.Disconnect()
		p.Delete()
	}
	assert.Equal(t, 1, owned.closed)
	assert.Equal(t, 0, borrowed.closed)
}

type closer struct{ closed int }

func (c *closer) Close() error {
	c.closed++
	return nil
}

func TestAddStaticEvent_NoDuplicates(t *testing.T) {
	sim, _, _ := newSim(t)
	clk := mustEvent(t, sim, "clk")
	p := mustMethod(t, sim, "m")

	require.NoError(t, p.AddStaticEvent(clk))
	require.NoError(t, p.AddStaticEvent(clk))

	assert.Equal(t, []*core.Event{clk}, p.StaticEvents())
	assert.Equal(t, []*core.Process{p}, clk.StaticSubscribers())

	p.Disconnect()
	assert.ErrorIs(t, p.AddStaticEvent(clk), primitives.ErrZombie)
	assert.ErrorIs(t, p.WaitEvent(clk), primitives.ErrZombie)
}

func TestStaticResubscription(t *testing.T) {
	sim, _, _ := newSim(t)
	a := mustEvent(t, sim, "a")
	b := mustEvent(t, sim, "b")
	p := mustThread(t, sim, "worker", core.Sensitive(a, b))

	p.RemoveStaticEvents()
	assert.Empty(t, p.StaticEvents())
	assert.False(t, a.HasStatic(p))
	assert.False(t, b.HasStatic(p))

	require.NoError(t, p.AddStaticEvent(b))
	require.NoError(t, p.AddStaticEvent(a))
	assert.Equal(t, []*core.Event{b, a}, p.StaticEvents())
	assert.True(t, a.HasStatic(p))
	assert.True(t, b.HasStatic(p))
}

func TestWait_ReplacesPendingWait(t *testing.T) {
	sim, _, _ := newSim(t)
	a := mustEvent(t, sim, "a")
	b := mustEvent(t, sim, "b")
	c := mustEvent(t, sim, "c")
	p := mustThread(t, sim, "worker")

	require.NoError(t, p.WaitEvent(a))
	require.NoError(t, p.WaitList(core.NewEventList(b, c, b)))
	assert.False(t, a.HasDynamic(p))
	assert.Equal(t, []*core.Event{b, c}, p.DynamicEvents())

	require.NoError(t, p.ArmTimeout(3))
	assert.True(t, p.TimeoutEvent().Pending())
	assert.Len(t, p.DynamicEvents(), 3)

	p.RemoveDynamicEvents()
	assert.False(t, p.Waiting())
	assert.False(t, b.HasDynamic(p))
	assert.False(t, c.HasDynamic(p))
	assert.False(t, p.TimeoutEvent().Pending(), "timeout notification cancelled")
}

func TestArmTimeout_MethodRejected(t *testing.T) {
	sim, _, _ := newSim(t)
	m := mustMethod(t, sim, "m")
	assert.ErrorIs(t, m.ArmTimeout(1), primitives.ErrKindMismatch)
	assert.Nil(t, m.TimeoutEvent())
}

func TestTerminatedEvent_MethodWarns(t *testing.T) {
	sim, _, _ := newSim(t)
	m := mustMethod(t, sim, "m")
	th := mustThread(t, sim, "th")

	e := m.TerminatedEvent()
	require.NotNil(t, e)
	require.NotNil(t, m.LastReport())
	assert.Equal(t, primitives.SeverityWarning, m.LastReport().Severity)
	assert.Equal(t, primitives.MsgMethodTerminationEvent, m.LastReport().MsgType)
	assert.Same(t, e, m.TerminatedEvent())

	assert.Equal(t, "th.terminated_event", th.TerminatedEvent().Name())
	assert.Nil(t, th.LastReport())
}

func TestGenUniqueName(t *testing.T) {
	sim, _, _ := newSim(t)
	p := mustThread(t, sim, "worker")
	assert.Equal(t, "child", p.GenUniqueName("child", true))
	assert.Equal(t, "child_1", p.GenUniqueName("child", true))
	assert.Equal(t, "other_0", p.GenUniqueName("other", false))
	assert.Equal(t, "other_1", p.GenUniqueName("other", false))
}

func TestDontInitialize(t *testing.T) {
	var reports []primitives.Report
	sim, _, _ := newSim(t, core.WithReportHandler(func(r primitives.Report) { reports = append(reports, r) }))
	p := mustMethod(t, sim, "m", core.DontInitialize())
	assert.True(t, p.InitSuppressed())
	p.DontInitialize(false)
	assert.False(t, p.InitSuppressed())
	assert.False(t, p.Dispatched())
	assert.Empty(t, reports)

	sim.SetCurrentProcess(p)
	sim.SetCurrentProcess(nil)
	require.True(t, p.Dispatched())

	p.DontInitialize(true)
	assert.False(t, p.InitSuppressed(), "ignored once dispatched")
	require.Len(t, reports, 1)
	assert.Equal(t, primitives.MsgLateDontInitialize, reports[0].MsgType)
	assert.Equal(t, primitives.SeverityWarning, reports[0].Severity)
}

func TestRelease_LastReferenceDeletesTerminated(t *testing.T) {
	sim, _, rec := newSim(t)
	p := mustThread(t, sim, "worker")
	p.Acquire()
	p.Disconnect()
	require.Equal(t, 1, p.References())
	assert.False(t, p.Destroyed(), "disconnect never deletes")

	require.True(t, p.Release())

	assert.True(t, p.Destroyed())
	assert.NotContains(t, sim.Processes(), p)
	_, err := sim.FindObject("worker")
	assert.ErrorIs(t, err, primitives.ErrNotFound)
	assert.Equal(t, []string{
		core.TransitionCreated, core.TransitionZombie, core.TransitionDetached, core.TransitionDeleted,
	}, rec.Transitions("worker"))
}

func TestDisconnect_AfterDeleteIsNoop(t *testing.T) {
	sim, _, rec := newSim(t)
	p := mustThread(t, sim, "worker")
	log := &testutil.MonitorLog{}
	require.NoError(t, p.AddMonitor(log.Monitor("m")))
	require.True(t, p.Release())
	p.Delete()
	require.True(t, p.Destroyed())
	assert.Empty(t, p.Monitors())

	assert.NotPanics(t, p.Disconnect)

	assert.Empty(t, log.Signals)
	assert.Equal(t, primitives.StateNormal, p.State())
	assert.Equal(t, 0, p.References())
	assert.NotContains(t, rec.Transitions("worker"), core.TransitionZombie)
}

func TestDisconnect_PendingDeleteIsNoop(t *testing.T) {
	sim, _, _ := newSim(t)
	p := mustThread(t, sim, "worker")
	log := &testutil.MonitorLog{}
	require.NoError(t, p.AddMonitor(log.Monitor("m")))
	require.True(t, p.Release())
	sim.SetCurrentProcess(p)
	p.Delete()
	require.True(t, p.PendingDelete())

	assert.NotPanics(t, p.Disconnect)
	assert.Empty(t, log.Signals)
	assert.Equal(t, primitives.StateNormal, p.State())

	sim.SetCurrentProcess(nil)
	assert.Equal(t, 1, sim.CollectDeletedProcesses())
}

type countingMonitor struct{ n int }

func (m *countingMonitor) Signal(core.ThreadHandle, primitives.MonitorSignal) { m.n++ }

func TestRemoveMonitor(t *testing.T) {
	sim, _, _ := newSim(t)
	p := mustThread(t, sim, "worker")
	log := &testutil.MonitorLog{}
	fn := log.Monitor("fn")
	cm := &countingMonitor{}
	require.NoError(t, p.AddMonitor(fn))
	require.NoError(t, p.AddMonitor(cm))

	err := p.RemoveMonitor(fn)
	assert.ErrorIs(t, err, primitives.ErrUncomparableMonitor)
	assert.ErrorContains(t, err, `"worker"`)
	assert.Len(t, p.Monitors(), 2)

	require.NoError(t, p.RemoveMonitor(cm))
	assert.Len(t, p.Monitors(), 1)
	require.NoError(t, p.RemoveMonitor(cm), "absent monitor is a no-op")
	require.NoError(t, p.RemoveMonitor(nil))

	p.Disconnect()
	assert.Zero(t, cm.n)
	assert.Len(t, log.Signals, 1)
}
