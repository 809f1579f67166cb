package sdram

import (
	"fmt"

	"github.com/sarchlab/spikeputor/sim"
)

// Comp groups the parts of the SDRAM subsystem: the bus adapter, the
// controller and the chip.
type Comp struct {
	Adapter    *WishboneAdapter
	Controller *Controller
	Chip       *Chip
}

// Clocked returns the parts in the order they should be registered.
func (c *Comp) Clocked() []sim.Clocked {
	return []sim.Clocked{c.Adapter, c.Controller, c.Chip}
}

// Builder can build SDRAM subsystems.
type Builder struct {
	timing Timing
	policy RowPolicy
}

// MakeBuilder creates a builder with the default timing and open-page policy.
func MakeBuilder() Builder {
	return Builder{
		timing: DefaultTiming(),
		policy: OpenPage,
	}
}

// WithTiming sets the timing parameters.
func (b Builder) WithTiming(t Timing) Builder {
	b.timing = t
	return b
}

// WithCASLatency sets the CAS latency.
func (b Builder) WithCASLatency(cl int) Builder {
	b.timing.CASLatency = cl
	return b
}

// WithRefreshInterval sets the number of cycles between refreshes.
func (b Builder) WithRefreshInterval(cycles int) Builder {
	b.timing.RefreshInterval = cycles
	return b
}

// WithInitWait sets the power-up wait.
func (b Builder) WithInitWait(cycles int) Builder {
	b.timing.InitWaitCycles = cycles
	return b
}

// WithRowPolicy sets the row policy.
func (b Builder) WithRowPolicy(p RowPolicy) Builder {
	b.policy = p
	return b
}

// Build creates the subsystem. The adapter takes the given name, and the
// controller and the chip are named after it.
func (b Builder) Build(name string) *Comp {
	if err := b.timing.Validate(); err != nil {
		panic(fmt.Sprintf("invalid SDRAM timing: %v", err))
	}

	adapter := &WishboneAdapter{
		ComponentBase: sim.NewComponentBase(name),
	}

	ctrl := &Controller{
		ComponentBase: sim.NewComponentBase(sim.BuildName(name, "Controller")),
		timing:        b.timing,
		policy:        b.policy,
		requester:     adapter,
	}
	ctrl.cur = ctrl.powerUp()

	chip := NewChip(sim.BuildName(name, "Chip"), b.timing, ctrl)

	ctrl.chip = chip
	adapter.completer = ctrl

	return &Comp{
		Adapter:    adapter,
		Controller: ctrl,
		Chip:       chip,
	}
}
