package board

import (
	"fmt"

	"github.com/sarchlab/spikeputor/addrdec"
	"github.com/sarchlab/spikeputor/arbiter"
	"github.com/sarchlab/spikeputor/master"
	"github.com/sarchlab/spikeputor/periph"
	"github.com/sarchlab/spikeputor/sdram"
	"github.com/sarchlab/spikeputor/sim"
)

// Builder can build boards.
type Builder struct {
	engine sim.Engine
	config Config
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{config: DefaultConfig()}
}

// WithEngine sets the engine that schedules the clock edges. A serial engine
// is created if none is given.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithConfig sets the configuration.
func (b Builder) WithConfig(c Config) Builder {
	b.config = c
	return b
}

// Build creates the board with all its parts wired and registered to the
// clock. The images named in the configuration are loaded.
func (b Builder) Build(name string) (*Board, error) {
	if b.engine == nil {
		b.engine = sim.NewSerialEngine()
	}

	cfg := b.config
	if cfg.Freq <= 0 {
		panic("board frequency must be positive")
	}

	brd := &Board{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		config:        cfg,
	}

	brd.Clock = sim.NewClock(sim.BuildName(name, "Clock"), b.engine, cfg.Freq)

	brd.buildMasters(name)
	brd.buildProviders(name)
	brd.buildFabric(name)
	brd.register()

	if err := brd.loadImages(); err != nil {
		return nil, err
	}

	brd.Clock.AcceptHook(&ackWatcher{board: brd})

	return brd, nil
}

func (b *Board) buildMasters(name string) {
	b.CPU = master.NewScriptedMaster(sim.BuildName(name, "CPU"))
	b.Loader = master.NewDmaLoader(
		sim.BuildName(name, "Loader"), b.config.LoaderStart)
	b.Stepper = master.NewClockStepper(
		sim.BuildName(name, "Stepper"), b.config.SampleAddr)
}

func (b *Board) buildProviders(name string) {
	cfg := b.config

	b.RAM = periph.NewRAM(sim.BuildName(name, "RAM"), cfg.RAMWords)
	b.ROM = periph.NewROM(sim.BuildName(name, "ROM"), cfg.ROMWords)
	b.GPO = periph.NewRegister(sim.BuildName(name, "GPO"))
	b.GPI = periph.NewInputRegister(sim.BuildName(name, "GPI"))
	b.Segment = periph.NewRegister(sim.BuildName(name, "Segment"))
	b.Sound = periph.NewRegister(sim.BuildName(name, "Sound"))
	b.BankSel = periph.NewRegister(sim.BuildName(name, "BankSel"))
	b.Keyboard = periph.NewKeyboard(sim.BuildName(name, "Keyboard"))
	b.UART = periph.NewUART(sim.BuildName(name, "UART"))
	b.Flash = periph.NewFlash(
		sim.BuildName(name, "Flash"), cfg.FlashWords, cfg.FlashLatency)
	b.SDRAM = sdram.MakeBuilder().
		WithTiming(cfg.SDRAM).
		WithRowPolicy(cfg.RowPolicy).
		Build(sim.BuildName(name, "SDRAM"))
}

func (b *Board) buildFabric(name string) {
	b.Arbiter = arbiter.MakeBuilder().
		WithMaster(b.CPU).
		WithMaster(b.Loader).
		WithMaster(b.Stepper).
		Build(sim.BuildName(name, "Arbiter"))

	b.Decoder = addrdec.MakeBuilder().
		WithAddressing(b.config.Addressing).
		WithBus(b.Arbiter).
		WithBankSource(b.BankSel).
		WithProvider(addrdec.RAM, b.RAM).
		WithProvider(addrdec.ROM, b.ROM).
		WithProvider(addrdec.GPO, b.GPO).
		WithProvider(addrdec.GPI, b.GPI).
		WithProvider(addrdec.Segment, b.Segment).
		WithProvider(addrdec.Sound, b.Sound).
		WithProvider(addrdec.BankSel, b.BankSel).
		WithProvider(addrdec.Keyboard, b.Keyboard).
		WithProvider(addrdec.UART, b.UART).
		WithProvider(addrdec.Flash, b.Flash).
		WithProvider(addrdec.SDRAM, b.SDRAM.Adapter).
		Build(sim.BuildName(name, "Decoder"))

	b.Arbiter.ConnectResponder(b.Decoder)

	b.CPU.Connect(b.Arbiter.Port(0))
	b.Loader.Connect(b.Arbiter.Port(1))
	b.Stepper.Connect(b.Arbiter.Port(2))
}

func (b *Board) register() {
	members := []sim.Clocked{
		b.CPU, b.Loader, b.Stepper,
		b.Arbiter, b.Decoder,
		b.RAM, b.ROM, b.GPO, b.GPI, b.Segment, b.Sound, b.BankSel,
		b.Keyboard, b.UART, b.Flash,
	}
	members = append(members, b.SDRAM.Clocked()...)

	for _, m := range members {
		b.Clock.Register(m)
	}
}

func (b *Board) loadImages() error {
	if b.config.ROMImage != "" {
		if _, err := b.ROM.LoadFile(b.config.ROMImage, 0); err != nil {
			return fmt.Errorf("loading ROM image: %w", err)
		}
	}

	if b.config.FlashImage != "" {
		if _, err := b.Flash.LoadFile(b.config.FlashImage); err != nil {
			return fmt.Errorf("loading flash image: %w", err)
		}
	}

	return nil
}
