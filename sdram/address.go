package sdram

// Geometry of the SDRAM in 16-bit words.
const (
	NumBanks   = 4
	NumRows    = 4096
	NumColumns = 256

	// AddrBits is the width of the physical word address.
	AddrBits = 22

	// AddrMask keeps the bits of the physical word address.
	AddrMask uint32 = 1<<AddrBits - 1
)

// Location is a physical word address split into {bank, row, column}.
type Location struct {
	Bank uint8
	Row  uint16
	Col  uint16
}

// Locate splits a word address. Bits that do not fit in the physical address
// are ignored.
func Locate(addr uint32) Location {
	addr &= AddrMask

	return Location{
		Bank: uint8(addr >> 20),
		Row:  uint16(addr>>8) & 0xFFF,
		Col:  uint16(addr) & 0xFF,
	}
}

// Addr joins a location back into a word address.
func (l Location) Addr() uint32 {
	return uint32(l.Bank&0x3)<<20 | uint32(l.Row&0xFFF)<<8 | uint32(l.Col&0xFF)
}
