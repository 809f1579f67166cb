// Package master provides the bus masters of the system: a scripted master
// that stands in for the CPU, the serial DMA loader and the clock stepper.
package master

import (
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/tracing"
	"github.com/sarchlab/spikeputor/wishbone"
)

// Op is one bus transfer.
type Op struct {
	Write bool
	Addr  uint32
	Data  uint16
	TGA   bool
	TGD   bool

	// AbortAfter drops the transfer if it is not acknowledged within that
	// many cycles after it is driven. Zero waits forever.
	AbortAfter int

	// Hold keeps CYC asserted into the next transfer, so that the master keeps
	// the bus. Otherwise the master releases the bus for one cycle.
	Hold bool
}

func (o Op) signals() wishbone.Signals {
	return wishbone.Signals{
		Cyc:  true,
		Stb:  true,
		We:   o.Write,
		Addr: o.Addr & wishbone.AddrMask,
		Data: o.Data,
		TGA:  o.TGA,
		TGD:  o.TGD,
	}
}

// Result is the outcome of a transfer.
type Result struct {
	Op      Op
	Data    uint16
	Issued  uint64
	Acked   uint64
	Aborted bool
}

// Latency returns the number of cycles from driving the transfer to seeing
// ACK.
func (r Result) Latency() uint64 {
	return r.Acked - r.Issued
}

type opSource interface {
	peekOp() (Op, bool)
	popOp()
	finished(r Result)
}

type transactorRegs struct {
	out    wishbone.Signals
	busy   bool
	op     Op
	issued uint64
	waited int

	started *Op
	result  *Result
	taskID  string
}

// transactor runs one transfer at a time on behalf of a master.
type transactor struct {
	*sim.ComponentBase

	port   wishbone.MasterPort
	source opSource

	cur  transactorRegs
	next transactorRegs
}

func newTransactor(name string, source opSource) *transactor {
	return &transactor{
		ComponentBase: sim.NewComponentBase(name),
		source:        source,
	}
}

// Connect attaches the master to its port on the arbiter.
func (t *transactor) Connect(port wishbone.MasterPort) {
	t.port = port
}

// Outputs returns the signals the master drives.
func (t *transactor) Outputs() wishbone.Signals {
	return t.cur.out
}

// Busy returns true while a transfer is in progress.
func (t *transactor) Busy() bool {
	return t.cur.busy
}

// Eval advances the transfer in progress or starts the next one.
func (t *transactor) Eval(ctx sim.TickCtx) error {
	if ctx.Reset {
		t.next = transactorRegs{}
		return nil
	}

	t.next = t.cur
	t.next.started = nil
	t.next.result = nil

	if !t.cur.busy {
		t.start(ctx.Cycle)
		return nil
	}

	t.next.waited++

	if t.port != nil && t.port.Granted() {
		if resp := t.port.Response(); resp.Ack {
			t.finish(ctx.Cycle, resp.Data, false)
			return nil
		}
	}

	if t.cur.op.AbortAfter > 0 && t.next.waited >= t.cur.op.AbortAfter {
		t.finish(ctx.Cycle, 0, true)
	}

	return nil
}

func (t *transactor) start(cycle uint64) {
	op, ok := t.source.peekOp()
	if !ok {
		t.next.out = wishbone.Signals{}
		return
	}

	t.next.op = op
	t.next.out = op.signals()
	t.next.busy = true
	t.next.issued = cycle
	t.next.waited = 0
	t.next.started = &op
}

func (t *transactor) finish(cycle uint64, data uint16, aborted bool) {
	t.next.result = &Result{
		Op:      t.cur.op,
		Data:    data,
		Issued:  t.cur.issued,
		Acked:   cycle,
		Aborted: aborted,
	}
	t.next.busy = false
	t.next.out = wishbone.Signals{}

	if t.cur.op.Hold && !aborted {
		t.start(cycle)
	}
}

// Commit drives the signals and reports the transfers that started or ended.
func (t *transactor) Commit() {
	t.cur = t.next

	if t.cur.result != nil {
		t.source.finished(*t.cur.result)
		tracing.EndTask(t.cur.taskID, t)
		t.cur.taskID = ""
	}

	if t.cur.started != nil {
		t.source.popOp()
		t.cur.taskID = sim.GetIDGenerator().Generate()

		what := "read"
		if t.cur.started.Write {
			what = "write"
		}

		tracing.StartTask(t.cur.taskID, "", t, "req_out", what, *t.cur.started)
	}
}
