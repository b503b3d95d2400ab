package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/simkernel/internal/core"
)

func TestTrigger_StaticStaysDynamicIsOneShot(t *testing.T) {
	sim, w, _ := newSim(t)
	e := mustEvent(t, sim, "e")
	m := mustMethod(t, sim, "m", core.Sensitive(e))
	th := mustThread(t, sim, "th", core.Sensitive(e))
	waiter := mustThread(t, sim, "waiter")
	require.NoError(t, waiter.WaitEvent(e))

	e.Trigger()
	assert.Equal(t, []string{
		"static-method:m",
		"static-thread:th",
		"dynamic-thread:waiter",
	}, w.wakes)
	assert.True(t, e.HasStatic(m))
	assert.True(t, e.HasStatic(th))
	assert.False(t, e.HasDynamic(waiter))
	assert.False(t, waiter.Waiting())

	w.wakes = nil
	e.Trigger()
	assert.Equal(t, []string{"static-method:m", "static-thread:th"}, w.wakes)
	assert.Equal(t, uint64(2), e.Fired())
}

func TestTrigger_AnyOfListClearsSiblings(t *testing.T) {
	sim, w, _ := newSim(t)
	a := mustEvent(t, sim, "a")
	b := mustEvent(t, sim, "b")
	p := mustThread(t, sim, "p")
	require.NoError(t, p.WaitList(core.NewEventList(a, b)))
	require.NoError(t, p.ArmTimeout(5))

	b.Trigger()

	assert.Equal(t, []string{"dynamic-thread:p"}, w.wakes)
	assert.False(t, a.HasDynamic(p))
	assert.False(t, p.TimeoutEvent().HasDynamic(p))
	assert.False(t, p.TimeoutEvent().Pending())
	assert.False(t, p.TimedOut())
}

func TestTrigger_TimeoutMarksTimedOut(t *testing.T) {
	sim, w, _ := newSim(t)
	a := mustEvent(t, sim, "a")
	p := mustThread(t, sim, "p")
	require.NoError(t, p.WaitEvent(a))
	require.NoError(t, p.ArmTimeout(0))

	for _, e := range sim.TakeDueNotifications() {
		e.Trigger()
	}

	assert.Equal(t, []string{"dynamic-thread:p"}, w.wakes)
	assert.True(t, p.TimedOut())
	assert.False(t, a.HasDynamic(p))
}

func TestTrigger_DynamicMethodPath(t *testing.T) {
	sim, w, _ := newSim(t)
	e := mustEvent(t, sim, "e")
	m := mustMethod(t, sim, "m")
	require.NoError(t, m.WaitEvent(e))
	e.Trigger()
	assert.Equal(t, []string{"dynamic-method:m"}, w.wakes)
}

func TestNotify_OrderAndCancel(t *testing.T) {
	sim, _, _ := newSim(t)
	a := mustEvent(t, sim, "a")
	b := mustEvent(t, sim, "b")
	c := mustEvent(t, sim, "c")

	c.NotifyAfter(1)
	b.NotifyDelta()
	a.NotifyDelta()
	c.NotifyDelta() // earlier notification wins
	a.NotifyAfter(3)

	assert.True(t, a.Pending())
	assert.Equal(t, []*core.Event{b, a, c}, sim.TakeDueNotifications())
	assert.False(t, sim.HasPendingNotifications())

	b.NotifyAfter(2)
	b.Cancel()
	assert.False(t, b.Pending())
	assert.False(t, sim.HasPendingNotifications())
}

func TestNonEvent_IsInert(t *testing.T) {
	sim, w, _ := newSim(t)
	ne := core.NonEvent()
	p := mustThread(t, sim, "p")

	require.NoError(t, p.WaitEvent(ne))
	require.NoError(t, p.AddStaticEvent(ne))
	assert.False(t, ne.HasDynamic(p))
	assert.False(t, ne.HasStatic(p))

	ne.Notify()
	ne.NotifyDelta()
	assert.Empty(t, w.wakes)
	assert.False(t, ne.Pending())
	assert.Equal(t, uint64(0), ne.Fired())
	assert.True(t, ne.Inert())

	p.Disconnect()
	assert.Empty(t, ne.StaticSubscribers())
	assert.Empty(t, ne.DynamicSubscribers())
}

func TestNewEvent_Names(t *testing.T) {
	sim, _, _ := newSim(t)
	e1, err := sim.NewEvent("")
	require.NoError(t, err)
	e2, err := sim.NewEvent("")
	require.NoError(t, err)
	assert.Equal(t, "event_0", e1.Name())
	assert.Equal(t, "event_1", e2.Name())

	_, err = sim.NewEvent("event_0")
	assert.Error(t, err)

	found, err := sim.FindEvent("event_1")
	require.NoError(t, err)
	assert.Same(t, e2, found)
}

func TestReleasedOwnedEventDropsSubscribers(t *testing.T) {
	sim, _, _ := newSim(t)
	owner := mustThread(t, sim, "owner")
	watcher := mustThread(t, sim, "watcher")
	term := owner.TerminatedEvent()
	require.NoError(t, watcher.AddStaticEvent(term))

	// Deleting a live process skips the zombie notification.
	require.True(t, owner.Release())
	owner.Delete()

	assert.True(t, term.Released())
	assert.Empty(t, watcher.StaticEvents())
	term.Trigger()
	assert.Equal(t, uint64(0), term.Fired())
}
