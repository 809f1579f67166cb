// Package board assembles the bus fabric of the computer: the three masters,
// the arbiter, the address decoder, the eleven providers and the SDRAM
// subsystem, all in one clock domain.
package board

import (
	"errors"
	"fmt"

	"github.com/sarchlab/spikeputor/addrdec"
	"github.com/sarchlab/spikeputor/arbiter"
	"github.com/sarchlab/spikeputor/master"
	"github.com/sarchlab/spikeputor/periph"
	"github.com/sarchlab/spikeputor/sdram"
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/wishbone"
)

// HookPosBusGrant triggers when the owner of the bus changes.
var HookPosBusGrant = arbiter.HookPosBusGrant

// HookPosSdramCommand triggers when the SDRAM controller issues a command.
var HookPosSdramCommand = sdram.HookPosCommand

// HookPosBusAck triggers at every edge after which a provider acknowledges the
// bus owner. The hook item is a Transfer.
var HookPosBusAck = &sim.HookPos{Name: "BusAck"}

// Transfer describes an acknowledged bus transfer.
type Transfer struct {
	Cycle    uint64
	Master   int
	Provider addrdec.ProviderIndex
	Write    bool
	Addr     uint32
	Data     uint16
}

// Board is the whole simulated system. Every access from a master reaches the
// providers through the arbiter and the decoder.
type Board struct {
	*sim.ComponentBase

	engine sim.Engine
	config Config
	reset  bool

	Clock *sim.Clock

	CPU     *master.ScriptedMaster
	Loader  *master.DmaLoader
	Stepper *master.ClockStepper

	Arbiter *arbiter.Arbiter
	Decoder *addrdec.Decoder

	RAM      *periph.Memory
	ROM      *periph.Memory
	GPO      *periph.Register
	GPI      *periph.Register
	Segment  *periph.Register
	Sound    *periph.Register
	BankSel  *periph.Register
	Keyboard *periph.Keyboard
	UART     *periph.UART
	Flash    *periph.Flash
	SDRAM    *sdram.Comp
}

// Engine returns the engine that runs the board.
func (b *Board) Engine() sim.Engine {
	return b.engine
}

// Config returns the configuration the board was built with.
func (b *Board) Config() Config {
	return b.config
}

// Components returns every component of the board.
func (b *Board) Components() []sim.Component {
	return []sim.Component{
		b.Clock,
		b.CPU, b.Loader, b.Stepper,
		b.Arbiter, b.Decoder,
		b.RAM, b.ROM, b.GPO, b.GPI, b.Segment, b.Sound, b.BankSel,
		b.Keyboard, b.UART, b.Flash,
		b.SDRAM.Adapter, b.SDRAM.Controller, b.SDRAM.Chip,
	}
}

// AcceptHook registers the hook with the board and all its components.
func (b *Board) AcceptHook(hook sim.Hook) {
	b.ComponentBase.AcceptHook(hook)

	for _, c := range b.Components() {
		c.AcceptHook(hook)
	}
}

// Reset holds the reset line for the given number of edges. The SDRAM
// controller starts its initialization sequence once reset is released.
func (b *Board) Reset(cycles int) error {
	if cycles < 1 {
		cycles = 1
	}

	b.Clock.SetReset(true)

	for i := 0; i < cycles; i++ {
		if err := b.Clock.Step(); err != nil {
			b.Clock.SetReset(false)
			return err
		}
	}

	b.Clock.SetReset(false)
	b.reset = true

	return nil
}

// Step advances the board by one edge.
func (b *Board) Step() error {
	if !b.reset {
		return wishbone.ErrNotReset
	}

	return b.Clock.Step()
}

// RunCycles advances the board by n edges.
func (b *Board) RunCycles(n uint64) error {
	if !b.reset {
		return wishbone.ErrNotReset
	}

	return b.Clock.RunCycles(n)
}

// RunUntil advances the board until done holds, for at most maxCycles edges.
func (b *Board) RunUntil(done func() bool, maxCycles uint64) error {
	if !b.reset {
		return wishbone.ErrNotReset
	}

	return b.Clock.RunUntil(done, maxCycles)
}

// WaitSDRAMReady runs until the SDRAM controller completes its
// initialization.
func (b *Board) WaitSDRAMReady(maxCycles uint64) error {
	return b.RunUntil(b.SDRAM.Controller.Initialized, maxCycles)
}

// Transact runs one transfer from the CPU master and returns its outcome. It
// returns ErrNoGrant if the CPU does not get the bus within maxCycles.
func (b *Board) Transact(op master.Op, maxCycles uint64) (master.Result, error) {
	if !b.CPU.Idle() {
		return master.Result{}, fmt.Errorf("%s is busy", b.CPU.Name())
	}

	before := len(b.CPU.Results())
	b.CPU.Enqueue(op)

	err := b.RunUntil(b.CPU.Idle, maxCycles)
	if errors.Is(err, sim.ErrCycleLimit) && b.Arbiter.Grant() != 0 {
		return master.Result{}, fmt.Errorf("%s: %w", b.CPU.Name(),
			wishbone.ErrNoGrant)
	}

	if err != nil {
		return master.Result{}, err
	}

	results := b.CPU.Results()
	if len(results) == before {
		return master.Result{}, fmt.Errorf("%s: %w", b.CPU.Name(),
			wishbone.ErrNoGrant)
	}

	return results[len(results)-1], nil
}

// Read reads a word with a plain base-window access.
func (b *Board) Read(addr uint32, maxCycles uint64) (uint16, error) {
	r, err := b.Transact(master.Op{Addr: addr}, maxCycles)
	return r.Data, err
}

// Write writes a word with a plain base-window access.
func (b *Board) Write(addr uint32, data uint16, maxCycles uint64) error {
	_, err := b.Transact(
		master.Op{Write: true, Addr: addr, Data: data}, maxCycles)
	return err
}

// Upload hands bytes received on the serial line to the DMA loader.
func (b *Board) Upload(start uint32, data []byte) {
	b.Loader.SetStart(start)
	b.Loader.Feed(data...)
}

type ackWatcher struct {
	board *Board
}

func (w *ackWatcher) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosClockEdge {
		return
	}

	b := w.board

	resp := b.Decoder.Response()
	if !resp.Ack {
		return
	}

	bus := b.Arbiter.Outputs()
	sel := b.Decoder.Select()

	t := Transfer{
		Cycle:    ctx.Item.(sim.TickCtx).Cycle,
		Master:   b.Arbiter.Grant(),
		Provider: sel.Index,
		Write:    bus.We,
		Addr:     bus.Addr,
		Data:     resp.Data,
	}
	if bus.We {
		t.Data = bus.Data
	}

	b.InvokeHook(sim.HookCtx{
		Domain: b,
		Pos:    HookPosBusAck,
		Item:   t,
	})
}
