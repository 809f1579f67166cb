package sdram

import "fmt"

// Timing holds the timing parameters of the chip, in clock cycles.
type Timing struct {
	// CASLatency is the number of cycles from READ to data. It is written to
	// the mode register during initialization.
	CASLatency int

	TRP  int // PRECHARGE to ACTIVATE or REFRESH
	TRCD int // ACTIVATE to READ or WRITE
	TRFC int // REFRESH to any command
	TMRD int // LOAD MODE to any command
	TWR  int // WRITE to PRECHARGE

	// RefreshInterval is the number of cycles between two AUTO REFRESH
	// commands.
	RefreshInterval int

	// InitWaitCycles is the power-up wait before the first command.
	InitWaitCycles int

	// InitRefreshCount is the number of AUTO REFRESH commands issued during
	// initialization.
	InitRefreshCount int
}

// DefaultTiming returns the timing of a 50 MHz 16-bit SDR SDRAM.
func DefaultTiming() Timing {
	return Timing{
		CASLatency:       2,
		TRP:              2,
		TRCD:             2,
		TRFC:             4,
		TMRD:             2,
		TWR:              2,
		RefreshInterval:  390,
		InitWaitCycles:   100,
		InitRefreshCount: 8,
	}
}

// Validate checks that the timing can be programmed and honored.
func (t Timing) Validate() error {
	if t.CASLatency != 2 && t.CASLatency != 3 {
		return fmt.Errorf("CAS latency must be 2 or 3, got %d", t.CASLatency)
	}

	for _, p := range []struct {
		name string
		v    int
	}{
		{"tRP", t.TRP},
		{"tRCD", t.TRCD},
		{"tRFC", t.TRFC},
		{"tMRD", t.TMRD},
		{"tWR", t.TWR},
	} {
		if p.v < 1 {
			return fmt.Errorf("%s must be at least 1 cycle, got %d", p.name, p.v)
		}
	}

	if t.InitWaitCycles < 1 {
		return fmt.Errorf("init wait must be at least 1 cycle")
	}

	if t.InitRefreshCount < 2 {
		return fmt.Errorf("at least 2 init refreshes are required")
	}

	if busy := t.LongestBusySpan(); t.RefreshInterval <= busy {
		return fmt.Errorf(
			"refresh interval must exceed the longest busy span of %d "+
				"cycles, got %d", busy, t.RefreshInterval)
	}

	return nil
}

// LongestBusySpan returns the most cycles the controller can spend away from
// idle, where a due refresh is served. It is the longest of a page-miss read,
// a page-miss write closed after recovery and a refresh of an open bank.
func (t Timing) LongestBusySpan() int {
	read := t.TRP + t.TRCD + t.CASLatency + 1
	write := t.TRP + t.TRCD + t.TWR + t.TRP
	refresh := t.TRP + t.TRFC

	return max(read, write, refresh)
}
