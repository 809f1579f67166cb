package sdram

import (
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/tracing"
	"github.com/sarchlab/spikeputor/wishbone"
)

// HookPosCommand triggers when the controller drives a command other than NOP.
// The hook item is a CommandRecord.
var HookPosCommand = &sim.HookPos{Name: "SdramCommand"}

// CommandRecord describes a command driven on the pins.
type CommandRecord struct {
	Cycle   uint64
	Command Command
	Bank    uint8
	Addr    uint16
}

// Request is the request interface of the controller.
type Request struct {
	Req   bool
	We    bool
	Addr  uint32
	WData uint16
}

func (r Request) same(o Request) bool {
	return r.We == o.We && r.Addr&AddrMask == o.Addr&AddrMask &&
		(!r.We || r.WData == o.WData)
}

// A Requester drives the request interface of the controller.
type Requester interface {
	Request() Request
}

type openRow struct {
	open bool
	row  uint16
}

type registers struct {
	state State
	wait  int

	initRefreshes int
	initialized   bool
	resetN        bool

	banks [NumBanks]openRow

	req      Request
	loc      Location
	inFlight bool
	cas      int

	valid bool
	rdata uint16

	refreshCount uint64
	refreshDue   bool
	dueSince     uint64

	pins  Pins
	stats Stats

	taskID   string
	accepted bool
	finished bool
}

// Controller drives an SDR SDRAM chip. It runs the power-up sequence, keeps
// the chip refreshed, and turns single-word requests into ACTIVATE, READ,
// WRITE and PRECHARGE commands.
//
// A requester raises REQ with the address and the data, and must hold them
// until VALID. BUSY is high whenever the controller is not idle, including the
// power-up sequence. The controller takes a request only while idle and
// serves a due refresh first.
type Controller struct {
	*sim.ComponentBase

	timing    Timing
	policy    RowPolicy
	requester Requester
	chip      DataSource

	cycle uint64
	cur   registers
	next  registers
}

// ResetN returns the level of the active-low reset input sampled at the last
// edge.
func (c *Controller) ResetN() bool {
	return c.cur.resetN
}

// Busy returns the BUSY output.
func (c *Controller) Busy() bool {
	return c.cur.state != StateIdle
}

// Valid returns the VALID output. It is high for one cycle when a request
// completes.
func (c *Controller) Valid() bool {
	return c.cur.valid
}

// RData returns the data of the last completed read.
func (c *Controller) RData() uint16 {
	return c.cur.rdata
}

// Pins returns the command and address lines driven to the chip.
func (c *Controller) Pins() Pins {
	return c.cur.pins
}

// State returns the state of the controller.
func (c *Controller) State() State {
	return c.cur.state
}

// Initialized returns true once the power-up sequence is complete.
func (c *Controller) Initialized() bool {
	return c.cur.initialized
}

// RefreshDue returns true if a refresh waits for the next idle cycle.
func (c *Controller) RefreshDue() bool {
	return c.cur.refreshDue
}

// Stats returns the counters of the controller.
func (c *Controller) Stats() Stats {
	return c.cur.stats
}

// Timing returns the timing the controller follows.
func (c *Controller) Timing() Timing {
	return c.timing
}

// RowPolicy returns the row policy of the controller.
func (c *Controller) RowPolicy() RowPolicy {
	return c.policy
}

func (c *Controller) powerUp() registers {
	return registers{
		state: StateInitWait,
		wait:  c.timing.InitWaitCycles - 1,
		pins: Pins{
			CSN: true, RASN: true, CASN: true, WEN: true,
			UDQM: true, LDQM: true,
		},
	}
}

// Eval computes the state and the outputs after this edge.
func (c *Controller) Eval(ctx sim.TickCtx) error {
	c.cycle = ctx.Cycle

	// The SDRAM reset is active low.
	resetN := !ctx.Reset
	if !resetN {
		c.next = c.powerUp()
		return nil
	}

	c.next = c.cur
	r := &c.next
	r.resetN = true
	r.valid = false
	r.accepted = false
	r.finished = false
	r.pins = Drive(CmdNOP, 0, 0)

	if err := c.checkHold(); err != nil {
		return err
	}

	if err := c.countRefresh(); err != nil {
		return err
	}

	if r.wait > 0 {
		r.wait--
		return nil
	}

	c.advance()

	return nil
}

func (c *Controller) checkHold() error {
	if !c.cur.inFlight {
		return nil
	}

	req := c.requester.Request()
	if !req.Req {
		return wishbone.NewProtocolViolation(c.Name(), c.cycle,
			"REQ dropped before VALID")
	}

	if !req.same(c.cur.req) {
		return wishbone.NewProtocolViolation(c.Name(), c.cycle,
			"request changed while BUSY, was %+v, now %+v", c.cur.req, req)
	}

	return nil
}

func (c *Controller) countRefresh() error {
	r := &c.next
	if !r.initialized {
		return nil
	}

	r.refreshCount++
	if r.refreshCount < uint64(c.timing.RefreshInterval) {
		return nil
	}

	r.refreshCount = 0

	if r.refreshDue {
		return &wishbone.RefreshOverrun{
			Component: c.Name(),
			Cycle:     c.cycle,
			Pending:   c.cycle - r.dueSince,
		}
	}

	r.refreshDue = true
	r.dueSince = c.cycle

	return nil
}

func (c *Controller) advance() {
	r := &c.next

	switch r.state {
	case StateInitWait:
		c.precharge(0, true)
		r.initRefreshes = c.timing.InitRefreshCount
		r.state = StateInitRefresh
	case StateInitRefresh:
		if r.initRefreshes > 0 {
			c.refresh()
			r.initRefreshes--

			return
		}

		c.issue(CmdLoadMode, 0, ModeRegister(c.timing.CASLatency))
		r.wait = c.timing.TMRD - 1
		r.state = StateInitMode
	case StateInitMode:
		r.initialized = true
		r.state = StateIdle
		c.idle()
	case StateIdle:
		c.idle()
	case StateRefreshPrecharge:
		c.refresh()
		r.state = StateRefresh
	case StateRefresh:
		r.state = StateIdle
		c.idle()
	case StateActivate:
		c.activate()
	case StateAccess:
		c.access()
	case StateCasWait:
		c.casWait()
	case StateWriteRecover:
		c.closeOrIdle()
	case StateClosePrecharge, StateDone:
		r.state = StateIdle
	}
}

func (c *Controller) idle() {
	r := &c.next

	if r.refreshDue {
		r.refreshDue = false

		if c.anyBankOpen() {
			c.precharge(0, true)
			r.state = StateRefreshPrecharge

			return
		}

		c.refresh()
		r.state = StateRefresh

		return
	}

	req := c.requester.Request()
	if !req.Req {
		return
	}

	req.Addr &= AddrMask
	r.req = req
	r.loc = Locate(req.Addr)
	r.inFlight = true
	r.accepted = true

	bank := r.banks[r.loc.Bank]
	switch {
	case bank.open && bank.row == r.loc.Row:
		r.stats.PageHits++
		c.access()
	case !bank.open:
		r.stats.PageMisses++
		c.activate()
	default:
		r.stats.PageConflicts++
		c.precharge(r.loc.Bank, false)
		r.state = StateActivate
	}
}

func (c *Controller) anyBankOpen() bool {
	for _, b := range c.next.banks {
		if b.open {
			return true
		}
	}

	return false
}

func (c *Controller) issue(cmd Command, bank uint8, addr uint16) {
	c.next.pins = Drive(cmd, bank, addr)
}

func (c *Controller) precharge(bank uint8, all bool) {
	r := &c.next

	if all {
		c.issue(CmdPrecharge, 0, a10)
		r.banks = [NumBanks]openRow{}
	} else {
		c.issue(CmdPrecharge, bank, 0)
		r.banks[bank] = openRow{}
	}

	r.wait = c.timing.TRP - 1
}

func (c *Controller) refresh() {
	r := &c.next

	c.issue(CmdRefresh, 0, 0)
	r.wait = c.timing.TRFC - 1
	r.stats.Refreshes++
}

func (c *Controller) activate() {
	r := &c.next

	c.issue(CmdActivate, r.loc.Bank, r.loc.Row)
	r.banks[r.loc.Bank] = openRow{open: true, row: r.loc.Row}
	r.wait = c.timing.TRCD - 1
	r.state = StateAccess
}

func (c *Controller) access() {
	r := &c.next

	if r.req.We {
		c.issue(CmdWrite, r.loc.Bank, r.loc.Col)
		r.pins.DQ = r.req.WData
		r.stats.Writes++
		r.wait = c.timing.TWR - 1
		r.state = StateWriteRecover
		c.complete()

		return
	}

	c.issue(CmdRead, r.loc.Bank, r.loc.Col)
	r.stats.Reads++
	r.cas = c.timing.CASLatency
	r.state = StateCasWait
}

func (c *Controller) casWait() {
	r := &c.next

	r.cas--
	if r.cas > 0 {
		return
	}

	r.rdata = c.chip.DQ()
	c.complete()

	if c.policy == ClosePage {
		c.precharge(r.loc.Bank, false)
		r.state = StateClosePrecharge

		return
	}

	r.state = StateDone
}

func (c *Controller) closeOrIdle() {
	r := &c.next

	if c.policy == ClosePage {
		c.precharge(r.loc.Bank, false)
		r.state = StateClosePrecharge

		return
	}

	r.state = StateIdle
}

func (c *Controller) complete() {
	r := &c.next

	r.valid = true
	r.inFlight = false
	r.finished = true
}

// Commit drives the outputs computed by Eval.
func (c *Controller) Commit() {
	c.cur = c.next

	if c.cur.accepted {
		c.cur.taskID = sim.GetIDGenerator().Generate()

		what := "read"
		if c.cur.req.We {
			what = "write"
		}

		tracing.StartTask(c.cur.taskID, "", c, "sdram", what, c.cur.req)
	}

	cmd := c.cur.pins.Command()
	if cmd != CmdNOP && cmd != CmdInhibit {
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosCommand,
			Item: CommandRecord{
				Cycle:   c.cycle,
				Command: cmd,
				Bank:    c.cur.pins.BA,
				Addr:    c.cur.pins.Addr,
			},
		})

		if c.cur.taskID != "" && (c.cur.inFlight || c.cur.finished) {
			tracing.AddTaskStep(c.cur.taskID, c, cmd.String())
		}
	}

	if c.cur.finished {
		tracing.EndTask(c.cur.taskID, c)
		c.cur.taskID = ""
	}
}
