package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/spikeputor/addrdec"
	"github.com/sarchlab/spikeputor/arbiter"
	"github.com/sarchlab/spikeputor/board"
	"github.com/sarchlab/spikeputor/sdram"
	"github.com/sarchlab/spikeputor/sim"
	"github.com/spf13/cobra"
)

const scenarioBudget = 500

var errSelfTestFailed = errors.New("self test failed")

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the bus fabric checks on a freshly built board.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		return selfTest(cmd.OutOrStdout(), settings.Board)
	},
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

// observer records what the board does while a scenario runs.
type observer struct {
	board     *board.Board
	transfers []board.Transfer
	lastRead  uint64 // cycle of the READ awaiting VALID, zero if none
	casCycles []uint64
}

func (p *observer) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case board.HookPosBusAck:
		p.transfers = append(p.transfers, ctx.Item.(board.Transfer))
	case board.HookPosSdramCommand:
		if ctx.Item.(sdram.CommandRecord).Command == sdram.CmdRead {
			p.lastRead = ctx.Item.(sdram.CommandRecord).Cycle
		}
	case sim.HookPosClockEdge:
		if p.lastRead != 0 && p.board.SDRAM.Controller.Valid() {
			p.casCycles = append(p.casCycles,
				ctx.Item.(sim.TickCtx).Cycle-p.lastRead)
			p.lastRead = 0
		}
	}
}

func (p *observer) lastProvider() addrdec.ProviderIndex {
	if len(p.transfers) == 0 {
		return addrdec.ProviderIndex(-1)
	}

	return p.transfers[len(p.transfers)-1].Provider
}

type scenario struct {
	name string
	run  func(b *board.Board, p *observer) error
}

var scenarios = []scenario{
	{"arbiter serves masters by priority", arbiterPriority},
	{"reset releases the bus", resetReleasesBus},
	{"writes to the ROM window land in RAM", writeRedirect},
	{"SDRAM round trip", sdramRoundTrip},
	{"SDRAM read data arrives CAS latency after READ", casLatency},
	{"extended segments route to SDRAM or ROM", segmentRouting},
}

func selfTest(out io.Writer, cfg board.Config) error {
	failed := 0

	for _, s := range scenarios {
		err := runScenario(cfg, s)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", s.name, err)

			continue
		}

		fmt.Fprintf(out, "PASS  %s\n", s.name)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d: %w", failed, len(scenarios),
			errSelfTestFailed)
	}

	return nil
}

func runScenario(cfg board.Config, s scenario) error {
	brd, err := board.MakeBuilder().WithConfig(cfg).Build("Board")
	if err != nil {
		return err
	}

	p := &observer{board: brd}
	brd.AcceptHook(p)

	if err := brd.Reset(2); err != nil {
		return err
	}

	if err := brd.WaitSDRAMReady(initBudget(cfg)); err != nil {
		return err
	}

	return s.run(brd, p)
}

func expectWord(what string, got, want uint16) error {
	if got != want {
		return fmt.Errorf("%s: got %#04x, want %#04x", what, got, want)
	}

	return nil
}

func expectProvider(p *observer, addr uint32, want addrdec.ProviderIndex) error {
	if got := p.lastProvider(); got != want {
		return fmt.Errorf("%#06x went to %v, want %v", addr, got, want)
	}

	return nil
}

func arbiterPriority(b *board.Board, p *observer) error {
	b.Stepper.Trigger()
	b.Upload(0x0300, []byte{0x12, 0x34})
	b.CPU.Read(0x0001)

	err := b.RunUntil(func() bool {
		return b.CPU.Idle() && b.Loader.Done() && b.Stepper.Done()
	}, scenarioBudget)
	if err != nil {
		return err
	}

	if len(p.transfers) != 3 {
		return fmt.Errorf("got %d transfers, want 3", len(p.transfers))
	}

	for i, t := range p.transfers {
		if t.Master != i {
			return fmt.Errorf("transfer %d came from master %d", i, t.Master)
		}
	}

	return nil
}

func resetReleasesBus(b *board.Board, _ *observer) error {
	b.CPU.Read(0x0001)

	if err := b.RunCycles(2); err != nil {
		return err
	}

	if b.Arbiter.Grant() == arbiter.NoGrant {
		return errors.New("the CPU did not get the bus")
	}

	if err := b.Reset(1); err != nil {
		return err
	}

	if b.Arbiter.Grant() != arbiter.NoGrant {
		return fmt.Errorf("master %d kept the bus through reset",
			b.Arbiter.Grant())
	}

	if b.SDRAM.Controller.Initialized() || !b.SDRAM.Controller.Busy() {
		return errors.New("the SDRAM controller ignored reset")
	}

	return nil
}

func writeRedirect(b *board.Board, p *observer) error {
	const addr = 0xFE00

	b.ROM.Poke(addr, 0x5555)

	if err := b.Write(addr, 0xBEEF, scenarioBudget); err != nil {
		return err
	}

	if err := expectProvider(p, addr, addrdec.RAM); err != nil {
		return err
	}

	data, err := b.Read(addr, scenarioBudget)
	if err != nil {
		return err
	}

	if err := expectProvider(p, addr, addrdec.ROM); err != nil {
		return err
	}

	if err := expectWord("read", data, 0x5555); err != nil {
		return err
	}

	return expectWord("RAM", b.RAM.Peek(addr), 0xBEEF)
}

func sdramRoundTrip(b *board.Board, _ *observer) error {
	words := []struct {
		addr uint32
		data uint16
	}{
		{0x010100, 0xABCD},
		{0x010200, 0x1234},
	}

	for _, w := range words {
		if err := b.Write(w.addr, w.data, scenarioBudget); err != nil {
			return err
		}
	}

	for _, w := range words {
		data, err := b.Read(w.addr, scenarioBudget)
		if err != nil {
			return err
		}

		if err := expectWord(fmt.Sprintf("%#06x", w.addr),
			data, w.data); err != nil {
			return err
		}
	}

	return nil
}

func casLatency(b *board.Board, p *observer) error {
	if err := b.Write(0x010100, 0xABCD, scenarioBudget); err != nil {
		return err
	}

	p.casCycles = nil

	if _, err := b.Read(0x010100, scenarioBudget); err != nil {
		return err
	}

	want := uint64(b.SDRAM.Controller.Timing().CASLatency)
	if len(p.casCycles) != 1 || p.casCycles[0] != want {
		return fmt.Errorf("VALID came %v cycles after READ, want %d",
			p.casCycles, want)
	}

	return nil
}

func segmentRouting(b *board.Board, p *observer) error {
	if err := b.Write(0x010100, 0x0001, scenarioBudget); err != nil {
		return err
	}

	if err := expectProvider(p, 0x010100, addrdec.SDRAM); err != nil {
		return err
	}

	if _, err := b.Read(0x800100, scenarioBudget); err != nil {
		return err
	}

	if err := expectProvider(p, 0x800100, addrdec.ROM); err != nil {
		return err
	}

	if _, err := b.Read(0x000100, scenarioBudget); err != nil {
		return err
	}

	return expectProvider(p, 0x000100, addrdec.RAM)
}
