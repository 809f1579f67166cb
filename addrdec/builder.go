package addrdec

import (
	"fmt"

	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

// Builder can build decoders.
type Builder struct {
	addressing Addressing
	bus        wishbone.Driver
	bank       BankSource
	providers  [NumProviders]wishbone.Provider
}

// MakeBuilder creates a builder for a decoder with segment addressing.
func MakeBuilder() Builder {
	return Builder{addressing: SegmentAddressing}
}

// WithAddressing sets the addressing scheme.
func (b Builder) WithAddressing(a Addressing) Builder {
	b.addressing = a
	return b
}

// WithBus sets the signals that the decoder decodes, normally the arbiter
// output.
func (b Builder) WithBus(bus wishbone.Driver) Builder {
	b.bus = bus
	return b
}

// WithBankSource sets where the BANK_SEL value comes from.
func (b Builder) WithBankSource(bank BankSource) Builder {
	b.bank = bank
	return b
}

// WithProvider plugs a provider at an index.
func (b Builder) WithProvider(i ProviderIndex, p wishbone.Provider) Builder {
	if i < 0 || i >= NumProviders {
		panic(fmt.Sprintf("invalid provider index %d", i))
	}

	b.providers[i] = p

	return b
}

// Build creates the decoder and connects the providers to it.
func (b Builder) Build(name string) *Decoder {
	if b.bus == nil {
		panic("decoder needs a bus")
	}

	if b.addressing == BankSelectAddressing && b.bank == nil {
		panic("bank-select addressing needs a bank source")
	}

	d := &Decoder{
		ComponentBase: sim.NewComponentBase(name),
		addressing:    b.addressing,
		bus:           b.bus,
		bank:          b.bank,
		providers:     b.providers,
		inFlight:      Selection{Index: NoProvider},
		nextInFlight:  Selection{Index: NoProvider},
	}

	for i, p := range d.providers {
		if p != nil {
			p.Connect(providerPort{decoder: d, index: ProviderIndex(i)})
		}
	}

	return d
}
