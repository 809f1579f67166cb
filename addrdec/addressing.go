package addrdec

import "fmt"

// Addressing selects how an access leaves the 64K-word base window.
type Addressing int

// The supported addressing schemes.
const (
	// SegmentAddressing takes the segment from address bits 23..16. Bit 23
	// chooses between SDRAM and ROM.
	SegmentAddressing Addressing = iota

	// BankSelectAddressing extends TGA-tagged accesses with the 2-bit
	// BANK_SEL register. Address bit 15 chooses between SDRAM and ROM.
	BankSelectAddressing
)

// BankMask keeps the bits of the BANK_SEL register that take part in decoding.
const BankMask uint16 = 0x3

func (a Addressing) String() string {
	switch a {
	case SegmentAddressing:
		return "segment"
	case BankSelectAddressing:
		return "bank"
	default:
		return fmt.Sprintf("Addressing(%d)", int(a))
	}
}

// ParseAddressing converts a name into an Addressing.
func ParseAddressing(name string) (Addressing, error) {
	switch name {
	case "segment":
		return SegmentAddressing, nil
	case "bank":
		return BankSelectAddressing, nil
	default:
		return 0, fmt.Errorf("unknown addressing %q", name)
	}
}

func (a Addressing) specials() map[uint32]ProviderIndex {
	if a == BankSelectAddressing {
		return bankSpecials
	}

	return segmentSpecials
}

var segmentSpecials = map[uint32]ProviderIndex{
	AddrGPO:      GPO,
	AddrGPI:      GPI,
	AddrSegment:  Segment,
	AddrKeyboard: Keyboard,
	AddrUART:     UART,
	AddrFlash:    Flash,
	AddrSound:    Sound,
}

var bankSpecials = map[uint32]ProviderIndex{
	AddrGPO:      GPO,
	AddrGPI:      GPI,
	AddrSegment:  Segment,
	AddrKeyboard: Keyboard,
	AddrUART:     UART,
	AddrFlash:    Flash,
	AddrSound:    Sound,
	AddrBankSel:  BankSel,
}
