package addrdec

import (
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

// A BankSource provides the value of the BANK_SEL register.
type BankSource interface {
	Bank() uint16
}

// Decoder connects the bus, as driven by the arbiter, to the providers.
//
// Decoding itself is combinational and is evaluated whenever a provider
// samples its port. The decoder is also clocked so that it can check that the
// selection stays stable until the selected provider acknowledges.
type Decoder struct {
	*sim.ComponentBase

	addressing Addressing
	bus        wishbone.Driver
	bank       BankSource
	providers  [NumProviders]wishbone.Provider

	inFlight     Selection
	nextInFlight Selection
}

// Addressing returns the addressing scheme the decoder uses.
func (d *Decoder) Addressing() Addressing {
	return d.addressing
}

// Select decodes the current bus signals.
func (d *Decoder) Select() Selection {
	var bank uint16
	if d.bank != nil {
		bank = d.bank.Bank()
	}

	return Decode(d.addressing, d.bus.Outputs(), bank)
}

// Provider returns the provider plugged at the index.
func (d *Decoder) Provider(i ProviderIndex) wishbone.Provider {
	return d.providers[i]
}

// Response returns the ACK and the data of the selected provider.
func (d *Decoder) Response() wishbone.Response {
	if !d.bus.Outputs().Cyc {
		return wishbone.Response{}
	}

	sel := d.Select()
	if !sel.Active() || d.providers[sel.Index] == nil {
		return wishbone.Response{}
	}

	return d.providers[sel.Index].Response()
}

// Eval checks that a transfer keeps its provider until it is acknowledged.
func (d *Decoder) Eval(ctx sim.TickCtx) error {
	d.nextInFlight = Selection{Index: NoProvider}

	if ctx.Reset {
		return nil
	}

	sel := d.Select()
	if !sel.Active() || !d.bus.Outputs().Cyc {
		return nil
	}

	if d.inFlight.Active() && sel.Index != d.inFlight.Index {
		return wishbone.NewProtocolViolation(d.Name(), ctx.Cycle,
			"selection moved from %s to %s before acknowledge",
			d.inFlight.Index, sel.Index)
	}

	if !d.Response().Ack {
		d.nextInFlight = sel
	}

	return nil
}

// Commit records the transfer still waiting for its acknowledge.
func (d *Decoder) Commit() {
	d.inFlight = d.nextInFlight
}

type providerPort struct {
	decoder *Decoder
	index   ProviderIndex
}

// Sample returns the bus signals as the provider sees them. STB is low unless
// the provider is selected, and the address is the decoded one.
func (p providerPort) Sample() wishbone.Signals {
	s := p.decoder.bus.Outputs()
	sel := p.decoder.Select()

	if sel.Index != p.index {
		s.Stb = false
		return s
	}

	s.Addr = sel.Addr

	return s
}
