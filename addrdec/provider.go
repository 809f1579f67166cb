// Package addrdec implements the address decoder of the system bus. It maps
// the bus address, the tags and the bank register onto one of the eleven bus
// providers and multiplexes the answer of the selected provider back.
package addrdec

import "fmt"

// ProviderIndex identifies a bus provider. The value is the bit position of
// the provider in the one-hot strobe vector.
type ProviderIndex int

// The bus providers.
const (
	NoProvider ProviderIndex = iota - 1
	RAM
	ROM
	GPO
	GPI
	Segment
	Sound
	BankSel
	Keyboard
	UART
	Flash
	SDRAM
	NumProviders
)

var providerNames = [NumProviders]string{
	"RAM", "ROM", "GPO", "GPI", "Segment", "Sound",
	"BankSel", "Keyboard", "UART", "Flash", "SDRAM",
}

func (i ProviderIndex) String() string {
	if i < 0 || i >= NumProviders {
		return fmt.Sprintf("ProviderIndex(%d)", int(i))
	}

	return providerNames[i]
}

// Strobe returns the one-hot strobe vector that selects the provider.
func (i ProviderIndex) Strobe() uint16 {
	if i < 0 || i >= NumProviders {
		return 0
	}

	return 1 << uint(i)
}

// Addresses of the memory-mapped registers in the base window.
const (
	AddrGPO      uint32 = 0x7FFC
	AddrGPI      uint32 = 0x7FFE
	AddrSegment  uint32 = 0x7FFA
	AddrKeyboard uint32 = 0x7FF8
	AddrUART     uint32 = 0x7FF6
	AddrFlash    uint32 = 0x7FF4
	AddrBankSel  uint32 = 0x7FAE
	AddrSound    uint32 = 0x7FAC
)

// ROMBoundary is the first base window offset that reads from ROM. Writes at
// and above it go to RAM.
const ROMBoundary uint32 = 0xFC00
