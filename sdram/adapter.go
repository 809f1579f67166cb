package sdram

import (
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

type adapterState int

const (
	adapterIdle adapterState = iota
	adapterWaiting
	adapterAcking
)

// A Completer reports the completion of a request.
type Completer interface {
	Valid() bool
	RData() uint16
}

type adapterRegs struct {
	state adapterState
	req   Request
	ack   bool
	data  uint16
}

// WishboneAdapter puts the controller on the system bus. It turns a bus
// transfer into a controller request and holds ACK low until the controller
// reports VALID. A master must keep its transfer unchanged until ACK; an SDRAM
// transfer cannot be abandoned.
type WishboneAdapter struct {
	*sim.ComponentBase

	port      wishbone.ProviderPort
	completer Completer

	cur  adapterRegs
	next adapterRegs
}

// Connect attaches the adapter to its port on the address decoder.
func (a *WishboneAdapter) Connect(port wishbone.ProviderPort) {
	a.port = port
}

// Response returns the ACK and the read data.
func (a *WishboneAdapter) Response() wishbone.Response {
	return wishbone.Response{Ack: a.cur.ack, Data: a.cur.data}
}

// Request drives the request interface of the controller.
func (a *WishboneAdapter) Request() Request {
	return a.cur.req
}

// Eval follows the bus transfer.
func (a *WishboneAdapter) Eval(ctx sim.TickCtx) error {
	if ctx.Reset {
		a.next = adapterRegs{}
		return nil
	}

	a.next = a.cur
	a.next.ack = false

	s := a.sample()

	switch a.cur.state {
	case adapterIdle:
		if s.Active() {
			a.next.req = Request{
				Req:   true,
				We:    s.We,
				Addr:  s.Addr & AddrMask,
				WData: s.Data,
			}
			a.next.state = adapterWaiting
		}
	case adapterWaiting:
		if err := a.checkHold(ctx.Cycle, s); err != nil {
			return err
		}

		if a.completer.Valid() {
			if !a.cur.req.We {
				a.next.data = a.completer.RData()
			}

			a.next.req.Req = false
			a.next.ack = true
			a.next.state = adapterAcking
		}
	case adapterAcking:
		a.next.state = adapterIdle
	}

	return nil
}

func (a *WishboneAdapter) sample() wishbone.Signals {
	if a.port == nil {
		return wishbone.Signals{}
	}

	return a.port.Sample()
}

func (a *WishboneAdapter) checkHold(cycle uint64, s wishbone.Signals) error {
	if !s.Active() {
		return wishbone.NewProtocolViolation(a.Name(), cycle,
			"transfer to %06x abandoned before ACK", a.cur.req.Addr)
	}

	held := Request{We: s.We, Addr: s.Addr & AddrMask, WData: s.Data}
	if !held.same(a.cur.req) {
		return wishbone.NewProtocolViolation(a.Name(), cycle,
			"transfer changed before ACK, was %+v, now %+v", a.cur.req, held)
	}

	return nil
}

// Commit drives ACK and REQ.
func (a *WishboneAdapter) Commit() {
	a.cur = a.next
}
