package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar follows a run of the board toward a number of cycles.
type ProgressBar struct {
	mu sync.Mutex

	ID         string
	Name       string
	StartTime  time.Time
	StartCycle uint64
	Total      uint64
	Finished   uint64

	// CyclesPerSecond is the simulation speed measured since the start.
	CyclesPerSecond float64
}

// Advance moves the bar to the given clock cycle. Cycles before the start are
// ignored and the bar never goes past its total.
func (b *ProgressBar) Advance(cycle uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cycle < b.StartCycle {
		return
	}

	b.Finished = min(cycle-b.StartCycle, b.Total)

	elapsed := time.Since(b.StartTime).Seconds()
	if elapsed > 0 {
		b.CyclesPerSecond = float64(b.Finished) / elapsed
	}
}

// Done returns true once the bar reached its total.
func (b *ProgressBar) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.Finished >= b.Total
}

type progressRsp struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	StartTime       time.Time `json:"start_time"`
	StartCycle      uint64    `json:"start_cycle"`
	Total           uint64    `json:"total"`
	Finished        uint64    `json:"finished"`
	CyclesPerSecond float64   `json:"cycles_per_second"`
}

func (b *ProgressBar) snapshot() progressRsp {
	b.mu.Lock()
	defer b.mu.Unlock()

	return progressRsp{
		ID:              b.ID,
		Name:            b.Name,
		StartTime:       b.StartTime,
		StartCycle:      b.StartCycle,
		Total:           b.Total,
		Finished:        b.Finished,
		CyclesPerSecond: b.CyclesPerSecond,
	}
}
