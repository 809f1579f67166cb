package addrdec

import "github.com/sarchlab/spikeputor/wishbone"

// Selection is the outcome of decoding one set of bus signals.
type Selection struct {
	Index ProviderIndex

	// Strobe has the bit of Index set, or is zero when STB is low.
	Strobe uint16

	// Addr is the address the selected provider sees. Extended accesses carry
	// the segment or the bank above the 16-bit offset.
	Addr uint32
}

// Active returns true if a provider is selected.
func (s Selection) Active() bool {
	return s.Index != NoProvider
}

// Decode selects the provider for the bus signals. The rules apply in this
// order:
//
//  1. TGD with WE broadcasts the data word to the segment display.
//  2. With bank-select addressing, the register addresses select their
//     register in every bank.
//  3. An extended access goes to SDRAM, or to ROM if its top bit is set.
//  4. The register addresses of the base window select their register.
//  5. Base window offsets at or above ROMBoundary read ROM and write RAM.
//  6. Everything else is RAM.
func Decode(a Addressing, s wishbone.Signals, bank uint16) Selection {
	if !s.Stb {
		return Selection{Index: NoProvider}
	}

	index, addr := route(a, s, bank)

	return Selection{Index: index, Strobe: index.Strobe(), Addr: addr}
}

func route(
	a Addressing,
	s wishbone.Signals,
	bank uint16,
) (ProviderIndex, uint32) {
	offset := s.Addr & 0xFFFF

	if s.TGD && s.We {
		return Segment, offset
	}

	if a == BankSelectAddressing {
		if index, ok := a.specials()[offset]; ok {
			return index, offset
		}
	}

	if extended, top, addr := extend(a, s, bank); extended {
		if top {
			return ROM, addr
		}

		return SDRAM, addr
	}

	if index, ok := a.specials()[offset]; ok {
		return index, offset
	}

	if offset >= ROMBoundary && !s.We {
		return ROM, offset
	}

	return RAM, offset
}

func extend(
	a Addressing,
	s wishbone.Signals,
	bank uint16,
) (extended, top bool, addr uint32) {
	switch a {
	case BankSelectAddressing:
		b := uint32(bank & BankMask)
		offset := s.Addr & 0xFFFF

		return s.TGA && b != 0, offset&0x8000 != 0, b<<16 | offset
	default:
		addr = s.Addr & wishbone.AddrMask

		return addr>>16 != 0, addr&0x800000 != 0, addr
	}
}
