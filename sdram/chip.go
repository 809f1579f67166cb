package sdram

import (
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

// A PinDriver drives the command and address lines of a chip.
type PinDriver interface {
	Pins() Pins
}

// A DataSource drives the DQ lines back to the controller.
type DataSource interface {
	DQ() uint16
}

type bankState struct {
	active bool
	row    uint16

	lastActivate  uint64
	lastPrecharge uint64
	lastWrite     uint64
	written       bool
}

type pendingRead struct {
	due  uint64
	data uint16
}

// Chip models an SDR SDRAM chip. It latches the command on the pins at every
// edge, keeps the open row of each bank, returns read data after the CAS
// latency programmed in its mode register, and reports any command that
// breaks the bank state or the timing as a ProtocolViolation.
type Chip struct {
	*sim.ComponentBase

	timing  Timing
	pins    PinDriver
	storage *storage

	banks       [NumBanks]bankState
	modeSet     bool
	casLatency  int
	lastRefresh uint64
	lastMode    uint64
	refreshed   bool
	pipeline    []pendingRead

	dq     uint16
	nextDQ uint16
}

// NewChip creates a chip that takes its commands from the pins.
func NewChip(name string, timing Timing, pins PinDriver) *Chip {
	return &Chip{
		ComponentBase: sim.NewComponentBase(name),
		timing:        timing,
		pins:          pins,
		storage:       newStorage(),
	}
}

// DQ returns the data the chip drives.
func (c *Chip) DQ() uint16 {
	return c.dq
}

// Peek returns a stored word without going through the pins.
func (c *Chip) Peek(addr uint32) uint16 {
	l := Locate(addr)
	return c.storage.read(l.Bank, l.Row, l.Col)
}

// Poke stores a word without going through the pins.
func (c *Chip) Poke(addr uint32, data uint16) {
	l := Locate(addr)
	c.storage.write(l.Bank, l.Row, l.Col, data, 0xFFFF)
}

// OpenRow returns the open row of a bank.
func (c *Chip) OpenRow(bank uint8) (row uint16, active bool) {
	b := c.banks[bank&0x3]
	return b.row, b.active
}

// CASLatency returns the latency programmed in the mode register, or 0 before
// the mode register is loaded.
func (c *Chip) CASLatency() int {
	return c.casLatency
}

// Eval latches the command on the pins.
func (c *Chip) Eval(ctx sim.TickCtx) error {
	c.nextDQ = c.dq

	p := c.pins.Pins()
	if err := c.execute(ctx.Cycle, p); err != nil {
		return err
	}

	c.drainPipeline(ctx.Cycle)

	return nil
}

func (c *Chip) drainPipeline(now uint64) {
	remaining := c.pipeline[:0]

	for _, r := range c.pipeline {
		if r.due == now {
			c.nextDQ = r.data
			continue
		}

		remaining = append(remaining, r)
	}

	c.pipeline = remaining
}

// Commit drives the DQ lines.
func (c *Chip) Commit() {
	c.dq = c.nextDQ
}

func (c *Chip) violation(now uint64, format string, args ...interface{}) error {
	return wishbone.NewProtocolViolation(c.Name(), now, format, args...)
}

func (c *Chip) execute(now uint64, p Pins) error {
	if !p.CKE {
		return nil
	}

	cmd := p.Command()
	switch cmd {
	case CmdInhibit, CmdNOP, CmdBurstTerminate:
		return nil
	case CmdLoadMode:
		return c.loadMode(now, p)
	case CmdRefresh:
		return c.refresh(now)
	case CmdPrecharge:
		return c.precharge(now, p)
	case CmdActivate:
		return c.activate(now, p)
	case CmdRead, CmdWrite:
		return c.access(now, cmd, p)
	}

	return nil
}

func (c *Chip) since(now, then uint64) int {
	return int(now - then)
}

func (c *Chip) commonTiming(now uint64, cmd Command) error {
	if c.refreshed && c.since(now, c.lastRefresh) < c.timing.TRFC {
		return c.violation(now, "%s %d cycles after REFRESH, tRFC is %d",
			cmd, c.since(now, c.lastRefresh), c.timing.TRFC)
	}

	if c.modeSet && c.since(now, c.lastMode) < c.timing.TMRD {
		return c.violation(now, "%s %d cycles after LOAD_MODE, tMRD is %d",
			cmd, c.since(now, c.lastMode), c.timing.TMRD)
	}

	return nil
}

func (c *Chip) allBanksIdle(now uint64, cmd Command) error {
	for i, b := range c.banks {
		if b.active {
			return c.violation(now, "%s with bank %d open", cmd, i)
		}

		if b.lastPrecharge != 0 &&
			c.since(now, b.lastPrecharge) < c.timing.TRP {
			return c.violation(now, "%s %d cycles after PRECHARGE, tRP is %d",
				cmd, c.since(now, b.lastPrecharge), c.timing.TRP)
		}
	}

	return nil
}

func (c *Chip) loadMode(now uint64, p Pins) error {
	if err := c.commonTiming(now, CmdLoadMode); err != nil {
		return err
	}

	if err := c.allBanksIdle(now, CmdLoadMode); err != nil {
		return err
	}

	cl := CASLatencyOf(p.Addr)
	if cl != 2 && cl != 3 {
		return c.violation(now, "unsupported CAS latency %d", cl)
	}

	c.casLatency = cl
	c.modeSet = true
	c.lastMode = now

	return nil
}

func (c *Chip) refresh(now uint64) error {
	if err := c.commonTiming(now, CmdRefresh); err != nil {
		return err
	}

	if err := c.allBanksIdle(now, CmdRefresh); err != nil {
		return err
	}

	c.refreshed = true
	c.lastRefresh = now

	return nil
}

func (c *Chip) precharge(now uint64, p Pins) error {
	if err := c.commonTiming(now, CmdPrecharge); err != nil {
		return err
	}

	for i := range c.banks {
		if !p.AllBanks() && uint8(i) != p.BA {
			continue
		}

		b := &c.banks[i]
		if b.active && b.written && c.since(now, b.lastWrite) < c.timing.TWR {
			return c.violation(now,
				"PRECHARGE of bank %d %d cycles after WRITE, tWR is %d",
				i, c.since(now, b.lastWrite), c.timing.TWR)
		}

		b.active = false
		b.written = false
		b.lastPrecharge = now
	}

	return nil
}

func (c *Chip) activate(now uint64, p Pins) error {
	if err := c.commonTiming(now, CmdActivate); err != nil {
		return err
	}

	b := &c.banks[p.BA]
	if b.active {
		return c.violation(now, "ACTIVATE of bank %d with row %d open",
			p.BA, b.row)
	}

	if b.lastPrecharge != 0 && c.since(now, b.lastPrecharge) < c.timing.TRP {
		return c.violation(now,
			"ACTIVATE of bank %d %d cycles after PRECHARGE, tRP is %d",
			p.BA, c.since(now, b.lastPrecharge), c.timing.TRP)
	}

	b.active = true
	b.row = p.Addr & 0xFFF
	b.lastActivate = now

	return nil
}

func (c *Chip) access(now uint64, cmd Command, p Pins) error {
	if !c.modeSet {
		return c.violation(now, "%s before LOAD_MODE", cmd)
	}

	b := &c.banks[p.BA]
	if !b.active {
		return c.violation(now, "%s to closed bank %d", cmd, p.BA)
	}

	if c.since(now, b.lastActivate) < c.timing.TRCD {
		return c.violation(now, "%s %d cycles after ACTIVATE, tRCD is %d",
			cmd, c.since(now, b.lastActivate), c.timing.TRCD)
	}

	col := p.Addr & 0xFF
	mask := dqmMask(p)

	if cmd == CmdWrite {
		c.storage.write(p.BA, b.row, col, p.DQ, mask)
		b.written = true
		b.lastWrite = now

		return nil
	}

	// Commands arrive one edge after the controller drives them. Data driven
	// at now+CL-2 is sampled by the controller CL edges after it drove READ.
	c.pipeline = append(c.pipeline, pendingRead{
		due:  now + uint64(c.casLatency) - 2,
		data: c.storage.read(p.BA, b.row, col) & mask,
	})

	return nil
}

func dqmMask(p Pins) uint16 {
	var mask uint16
	if !p.LDQM {
		mask |= 0x00FF
	}

	if !p.UDQM {
		mask |= 0xFF00
	}

	return mask
}
