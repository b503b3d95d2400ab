package delta

import (
	"fmt"

	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/primitives"
)

type resumeMsg struct {
	kill bool
}

type yieldMsg struct {
	finished bool
	err      error
	panicked any
}

// killSignal unwinds a thread body from inside Wait.
type killSignal struct{}

// coroutine runs a thread body on its own goroutine with strict hand-off:
// whoever sends on resume blocks on yield until the body suspends or ends.
type coroutine struct {
	resume chan resumeMsg
	yield  chan yieldMsg
}

func (k *Kernel) resumeThread(p *core.Process) yieldMsg {
	co, ok := k.threads[p]
	if !ok {
		co = &coroutine{resume: make(chan resumeMsg), yield: make(chan yieldMsg)}
		k.threads[p] = co
		go co.run(k, p)
	}
	co.resume <- resumeMsg{}
	y := <-co.yield
	if y.panicked != nil {
		panic(y.panicked)
	}
	return y
}

// kill unwinds a suspended body.
func (co *coroutine) kill() {
	co.resume <- resumeMsg{kill: true}
	y := <-co.yield
	if y.panicked != nil {
		panic(y.panicked)
	}
}

func (co *coroutine) run(k *Kernel, p *core.Process) {
	if msg := <-co.resume; msg.kill {
		co.yield <- yieldMsg{finished: true, err: errKilled}
		return
	}
	act := &threadActivation{p: p, k: k, co: co}
	co.yield <- co.call(k, p, act)
}

func (co *coroutine) call(k *Kernel, p *core.Process, act *threadActivation) (out yieldMsg) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(killSignal); ok {
				out = yieldMsg{finished: true, err: errKilled}
				return
			}
			out = yieldMsg{finished: true, panicked: r}
		}
	}()
	err := p.Body()(k.ctx, act)
	return yieldMsg{finished: true, err: err}
}

// threadActivation is the Activation of a thread body.
type threadActivation struct {
	p      *core.Process
	k      *Kernel
	co     *coroutine
	killed bool
}

func (a *threadActivation) Process() *core.Process { return a.p }
func (a *threadActivation) TimedOut() bool         { return a.p.TimedOut() }

func (a *threadActivation) Wait(events ...*core.Event) {
	a.suspend(register(a.p, events))
}

func (a *threadActivation) WaitTimeout(deltas uint64, events ...*core.Event) {
	err := register(a.p, events)
	if err == nil {
		err = a.p.ArmTimeout(deltas)
	}
	a.suspend(err)
}

func (a *threadActivation) suspend(err error) {
	if a.killed {
		// A deferred call waiting while the body unwinds.
		panic(killSignal{})
	}
	if err != nil {
		panic(err)
	}
	a.co.yield <- yieldMsg{}
	if msg := <-a.co.resume; msg.kill {
		a.killed = true
		panic(killSignal{})
	}
}

// methodActivation is the Activation of a method body. Waiting sets the
// next trigger instead of suspending.
type methodActivation struct {
	p *core.Process
	k *Kernel
}

func (a *methodActivation) Process() *core.Process { return a.p }
func (a *methodActivation) TimedOut() bool         { return false }

func (a *methodActivation) Wait(events ...*core.Event) {
	if err := register(a.p, events); err != nil {
		panic(err)
	}
}

func (a *methodActivation) WaitTimeout(deltas uint64, events ...*core.Event) {
	a.k.sim.Report(primitives.SeverityWarning, primitives.MsgProcessBodyError,
		fmt.Sprintf("timed wait of %d deltas ignored for a method", deltas), a.p)
	a.Wait(events...)
}

// register records the dynamic wait. No events means the static
// sensitivity applies.
func register(p *core.Process, events []*core.Event) error {
	switch len(events) {
	case 0:
		p.RemoveDynamicEvents()
		return nil
	case 1:
		return p.WaitEvent(events[0])
	default:
		return p.WaitList(core.NewEventList(events...))
	}
}
