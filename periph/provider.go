// Package periph provides the memories and the peripheral registers of the
// system bus. Every provider answers a transfer with a registered ACK.
package periph

import (
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

// HookPosProviderWrite triggers when a provider takes a write. The hook item is
// a WriteRecord.
var HookPosProviderWrite = &sim.HookPos{Name: "ProviderWrite"}

// WriteRecord describes a write taken by a provider.
type WriteRecord struct {
	Cycle uint64
	Addr  uint32
	Data  uint16
}

// providerBase holds what every single-cycle provider has: the port, the ACK
// register and the data returned with ACK.
type providerBase struct {
	*sim.ComponentBase

	port wishbone.ProviderPort
	ack  wishbone.RegisteredAck

	data     uint16
	nextData uint16

	cycle        uint64
	pendingWrite *WriteRecord
}

func newProviderBase(name string) providerBase {
	return providerBase{ComponentBase: sim.NewComponentBase(name)}
}

// Connect attaches the provider to its port on the address decoder.
func (p *providerBase) Connect(port wishbone.ProviderPort) {
	p.port = port
}

// Response returns the ACK and the data latched with it.
func (p *providerBase) Response() wishbone.Response {
	return wishbone.Response{Ack: p.ack.Ack(), Data: p.data}
}

// accept samples the port and returns the signals of a transfer taken at this
// edge.
func (p *providerBase) accept(ctx sim.TickCtx) (wishbone.Signals, bool) {
	p.cycle = ctx.Cycle
	p.nextData = p.data
	p.pendingWrite = nil

	var s wishbone.Signals
	if p.port != nil {
		s = p.port.Sample()
	}

	return s, p.ack.Eval(s, ctx.Reset)
}

func (p *providerBase) write(addr uint32, data uint16) {
	p.pendingWrite = &WriteRecord{Cycle: p.cycle, Addr: addr, Data: data}
}

// commit makes the ACK and the data visible and reports the write taken, if
// any.
func (p *providerBase) commit(domain sim.Hookable) *WriteRecord {
	p.ack.Commit()
	p.data = p.nextData

	w := p.pendingWrite
	if w != nil {
		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    HookPosProviderWrite,
			Item:   *w,
		})
	}

	return w
}
