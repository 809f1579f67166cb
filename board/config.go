package board

import (
	"github.com/sarchlab/spikeputor/addrdec"
	"github.com/sarchlab/spikeputor/sdram"
	"github.com/sarchlab/spikeputor/sim"
)

// Config describes a board.
type Config struct {
	Freq       sim.Freq
	Addressing addrdec.Addressing

	RAMWords int
	ROMWords int

	FlashWords   int
	FlashLatency int

	SDRAM     sdram.Timing
	RowPolicy sdram.RowPolicy

	// LoaderStart is where the DMA loader stores the first word it receives.
	LoaderStart uint32

	// SampleAddr is the address the clock stepper reads when triggered.
	SampleAddr uint32

	ROMImage   string
	FlashImage string
}

// DefaultConfig returns the configuration of the real machine.
func DefaultConfig() Config {
	return Config{
		Freq:         50 * sim.MHz,
		Addressing:   addrdec.SegmentAddressing,
		RAMWords:     1 << 16,
		ROMWords:     1 << 16,
		FlashWords:   1 << 20,
		FlashLatency: 4,
		SDRAM:        sdram.DefaultTiming(),
		RowPolicy:    sdram.OpenPage,
		LoaderStart:  0x0000,
		SampleAddr:   0x7FFE,
	}
}
