package arbiter

import (
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

// Builder can build arbiters.
type Builder struct {
	masters []wishbone.Driver
}

// MakeBuilder creates a builder with no master.
func MakeBuilder() Builder {
	return Builder{}
}

// WithMaster appends a master. Masters added earlier have higher priority.
func (b Builder) WithMaster(m wishbone.Driver) Builder {
	masters := make([]wishbone.Driver, len(b.masters), len(b.masters)+1)
	copy(masters, b.masters)
	b.masters = append(masters, m)

	return b
}

// Build creates an arbiter with the given name.
func (b Builder) Build(name string) *Arbiter {
	if len(b.masters) == 0 {
		panic("arbiter needs at least one master")
	}

	a := &Arbiter{
		ComponentBase: sim.NewComponentBase(name),
		masters:       b.masters,
		grant:         NoGrant,
		nextGrant:     NoGrant,
	}

	return a
}
