// Package wishbone defines the signals and roles of the Spikeputor system bus.
//
// The bus is a single-clock Wishbone-style bus. A master drives CYC, STB, WE,
// ADDR and DATA, and a provider answers with ACK and DATA. All the elements
// are sim.Clocked. They publish the value they committed at the last edge and
// compute their next value from what other elements committed.
package wishbone

import "github.com/sarchlab/spikeputor/sim"

// AddrMask keeps the 24 address bits that the bus carries.
const AddrMask uint32 = 0xFFFFFF

// Signals are the lines that a master drives.
type Signals struct {
	Cyc  bool
	Stb  bool
	We   bool
	Addr uint32
	Data uint16

	// TGA is the address tag. With bank-select addressing it marks an access
	// that uses the BANK_SEL register.
	TGA bool

	// TGD is the data tag. Together with WE it broadcasts the data word to the
	// segment display.
	TGD bool
}

// Active returns true if the signals request a transfer.
func (s Signals) Active() bool {
	return s.Cyc && s.Stb
}

// SameRequest returns true if both signals ask for the same transfer.
func (s Signals) SameRequest(o Signals) bool {
	if s.We != o.We || s.Addr != o.Addr || s.TGA != o.TGA || s.TGD != o.TGD {
		return false
	}

	return !s.We || s.Data == o.Data
}

// Response are the lines that a provider drives.
type Response struct {
	Ack  bool
	Data uint16
}

// A Driver drives a set of master-side signals, such as a master itself or the
// output of the arbiter.
type Driver interface {
	Outputs() Signals
}

// A Responder answers transfers.
type Responder interface {
	Response() Response
}

// A MasterPort is what the arbiter exposes to one master.
type MasterPort interface {
	// Granted returns true if the master currently owns the bus.
	Granted() bool

	// Response returns the provider response if the master owns the bus and
	// an idle response otherwise.
	Response() Response
}

// A Master starts bus transfers.
type Master interface {
	sim.Named
	Driver
	Connect(port MasterPort)
}

// A ProviderPort is what the address decoder exposes to one provider. STB is
// low unless the provider is selected.
type ProviderPort interface {
	Sample() Signals
}

// A Provider serves the transfers that the address decoder routes to it.
type Provider interface {
	sim.Named
	Responder
	Connect(port ProviderPort)
}
