// Package arbiter implements the fixed-priority bus arbiter that shares the
// system bus among the masters.
package arbiter

import (
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

// NoGrant is the grant value when no master owns the bus.
const NoGrant = -1

// HookPosBusGrant triggers when the owner of the bus changes. The hook item is
// a GrantChange.
var HookPosBusGrant = &sim.HookPos{Name: "BusGrant"}

// GrantChange describes a change of bus ownership.
type GrantChange struct {
	Cycle uint64
	From  int
	To    int
}

// Arbiter grants the bus to the highest priority master that asserts CYC. The
// first registered master has the highest priority. A grant is held for as
// long as the owner keeps CYC high and is released at the edge after CYC
// drops, even if another master is waiting. Lower priority masters may starve.
type Arbiter struct {
	*sim.ComponentBase

	masters   []wishbone.Driver
	responder wishbone.Responder

	grant     int
	nextGrant int
	cycle     uint64
}

// Eval decides the owner of the bus after this edge.
func (a *Arbiter) Eval(ctx sim.TickCtx) error {
	a.cycle = ctx.Cycle

	switch {
	case ctx.Reset:
		a.nextGrant = NoGrant
	case a.grant != NoGrant:
		a.nextGrant = a.grant
		if !a.masters[a.grant].Outputs().Cyc {
			a.nextGrant = NoGrant
		}
	default:
		a.nextGrant = a.pick()
	}

	return nil
}

func (a *Arbiter) pick() int {
	for i, m := range a.masters {
		if m.Outputs().Cyc {
			return i
		}
	}

	return NoGrant
}

// Commit applies the grant decision.
func (a *Arbiter) Commit() {
	if a.nextGrant == a.grant {
		return
	}

	change := GrantChange{Cycle: a.cycle, From: a.grant, To: a.nextGrant}
	a.grant = a.nextGrant

	a.InvokeHook(sim.HookCtx{
		Domain: a,
		Pos:    HookPosBusGrant,
		Item:   change,
	})
}

// Grant returns the index of the master that owns the bus, or NoGrant.
func (a *Arbiter) Grant() int {
	return a.grant
}

// NumMasters returns the number of masters arbitrated.
func (a *Arbiter) NumMasters() int {
	return len(a.masters)
}

// Outputs returns the signals of the master that owns the bus. All the lines
// are low when the bus is idle.
func (a *Arbiter) Outputs() wishbone.Signals {
	if a.grant == NoGrant {
		return wishbone.Signals{}
	}

	return a.masters[a.grant].Outputs()
}

// ConnectResponder sets where the arbiter takes the provider response from.
func (a *Arbiter) ConnectResponder(r wishbone.Responder) {
	a.responder = r
}

// Port returns the GNT line and the response path of the i-th master.
func (a *Arbiter) Port(i int) wishbone.MasterPort {
	if i < 0 || i >= len(a.masters) {
		panic("master index out of range")
	}

	return masterPort{arbiter: a, index: i}
}

type masterPort struct {
	arbiter *Arbiter
	index   int
}

func (p masterPort) Granted() bool {
	return p.arbiter.grant == p.index
}

func (p masterPort) Response() wishbone.Response {
	if !p.Granted() || p.arbiter.responder == nil {
		return wishbone.Response{}
	}

	return p.arbiter.responder.Response()
}
