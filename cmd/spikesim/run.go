package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"

	"github.com/sarchlab/spikeputor/addrdec"
	"github.com/sarchlab/spikeputor/board"
	"github.com/sarchlab/spikeputor/config"
	"github.com/sarchlab/spikeputor/datarecording"
	"github.com/sarchlab/spikeputor/monitoring"
	"github.com/sarchlab/spikeputor/sim"
	"github.com/sarchlab/spikeputor/tracing"
	"github.com/spf13/cobra"
)

type runOptions struct {
	cycles      uint64
	resetCycles int
	upload      string
	uploadStart int64
	trigger     int
	openMonitor bool
	keepServing bool
	logEdges    bool
	logEvents   bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a board, run it for a number of cycles and print statistics.",
	Long: `run builds a board from the settings, resets it, waits for the ` +
		`SDRAM to initialize and runs it. A file given with --upload is ` +
		`streamed into memory through the serial DMA loader. Tasks are ` +
		`recorded into SPIKESIM_TRACE_DB when set, and SPIKESIM_MONITOR_PORT ` +
		`starts the HTTP monitor.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		if settings.TraceDB != "" {
			sim.UseParallelIDGenerator()
		}

		return runBoard(cmd.OutOrStdout(), settings, runOpts)
	},
}

func init() {
	f := runCmd.Flags()
	f.Uint64Var(&runOpts.cycles, "cycles", 10000,
		"number of cycles to run after the SDRAM is ready")
	f.IntVar(&runOpts.resetCycles, "reset-cycles", 2,
		"number of cycles the reset line is held")
	f.StringVar(&runOpts.upload, "upload", "",
		"file streamed through the DMA loader")
	f.Int64Var(&runOpts.uploadStart, "upload-start", -1,
		"address of the first uploaded word; the configured loader start "+
			"if negative")
	f.IntVar(&runOpts.trigger, "step", 0,
		"number of reads the clock stepper performs")
	f.BoolVar(&runOpts.openMonitor, "open-monitor", false,
		"open the monitor in the default browser")
	f.BoolVar(&runOpts.keepServing, "keep-serving", false,
		"keep the monitor running after the run until interrupted")
	f.BoolVar(&runOpts.logEdges, "log-edges", false,
		"print every clock edge to stderr")
	f.BoolVar(&runOpts.logEvents, "log-events", false,
		"print every engine event to stderr")

	rootCmd.AddCommand(runCmd)
}

type runStats struct {
	transfers map[addrdec.ProviderIndex]uint64
	cpu       *tracing.LatencyTracer
	loader    *tracing.LatencyTracer
	sdramBusy *tracing.BusyTimeTracer
	sdramCmds *tracing.StepCountTracer
}

func (s *runStats) Func(ctx sim.HookCtx) {
	if ctx.Pos == board.HookPosBusAck {
		s.transfers[ctx.Item.(board.Transfer).Provider]++
	}
}

func runBoard(out io.Writer, settings config.Settings, opts runOptions) error {
	brd, err := board.MakeBuilder().
		WithConfig(settings.Board).
		Build("Board")
	if err != nil {
		return err
	}

	stats := attachStats(brd)
	attachLoggers(brd, opts)

	if settings.TraceDB != "" {
		recorder := datarecording.New(settings.TraceDB)
		tracer := tracing.NewDBTracer(brd.Clock, settings.Board.Freq, recorder)

		for _, d := range tracedDomains(brd) {
			tracing.CollectTrace(d, tracer)
		}

		defer func() {
			tracer.Terminate()

			if err := recorder.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "closing trace database: %v\n", err)
			}
		}()
	}

	var m *monitoring.Monitor
	if settings.MonitorPort != 0 {
		m = startMonitor(brd, settings.MonitorPort, opts.openMonitor)
	}

	if err := brd.Reset(opts.resetCycles); err != nil {
		return err
	}

	if err := brd.WaitSDRAMReady(initBudget(settings.Board)); err != nil {
		return err
	}

	if err := queueWork(brd, opts); err != nil {
		return err
	}

	start := brd.Clock.Cycle()

	if m != nil {
		bar := m.CreateProgressBar("Run", start, opts.cycles)
		defer m.CompleteProgressBar(bar)
		brd.Clock.AcceptHook(&progressHook{bar: bar})
	}

	if err := brd.RunCycles(opts.cycles); err != nil {
		return err
	}

	printStats(out, brd, stats, brd.Clock.Cycle()-start)

	if settings.MonitorPort != 0 && opts.keepServing {
		fmt.Fprintln(out, "Monitor running, press Ctrl-C to quit.")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
	}

	return nil
}

func attachLoggers(brd *board.Board, opts runOptions) {
	logger := log.New(os.Stderr, "", 0)

	if opts.logEdges {
		brd.Clock.AcceptHook(sim.NewEdgeLogger(logger))
	}

	if opts.logEvents {
		brd.Engine().AcceptHook(sim.NewEventLogger(logger))
	}
}

func tracedDomains(brd *board.Board) []tracing.NamedHookable {
	return []tracing.NamedHookable{
		brd.CPU, brd.Loader, brd.Stepper, brd.SDRAM.Controller,
	}
}

func attachStats(brd *board.Board) *runStats {
	s := &runStats{
		transfers: make(map[addrdec.ProviderIndex]uint64),
		cpu:       tracing.NewLatencyTracer(brd.Clock, nil),
		loader:    tracing.NewLatencyTracer(brd.Clock, nil),
		sdramBusy: tracing.NewBusyTimeTracer(brd.Clock, nil),
		sdramCmds: tracing.NewStepCountTracer(nil),
	}

	brd.AcceptHook(s)
	tracing.CollectTrace(brd.CPU, s.cpu, "req_out")
	tracing.CollectTrace(brd.Loader, s.loader, "req_out")
	tracing.CollectTrace(brd.SDRAM.Controller, s.sdramBusy, "sdram")
	tracing.CollectTrace(brd.SDRAM.Controller, s.sdramCmds, "sdram")

	return s
}

func startMonitor(
	brd *board.Board,
	port int,
	openBrowser bool,
) *monitoring.Monitor {
	m := monitoring.NewMonitor().WithPortNumber(port)
	m.RegisterEngine(brd.Engine())
	m.RegisterClock(brd.Clock)
	m.RegisterRunner(brd)

	for _, c := range brd.Components() {
		m.RegisterComponent(c)
	}

	m.StartServer(openBrowser)

	return m
}

type progressHook struct {
	bar *monitoring.ProgressBar
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos == sim.HookPosClockEdge {
		h.bar.Advance(ctx.Item.(sim.TickCtx).Cycle)
	}
}

func queueWork(brd *board.Board, opts runOptions) error {
	if opts.upload != "" {
		data, err := os.ReadFile(opts.upload)
		if err != nil {
			return err
		}

		start := brd.Config().LoaderStart
		if opts.uploadStart >= 0 {
			start = uint32(opts.uploadStart)
		}

		brd.Upload(start, data)
	}

	for i := 0; i < opts.trigger; i++ {
		brd.Stepper.Trigger()
	}

	return nil
}

func initBudget(cfg board.Config) uint64 {
	t := cfg.SDRAM

	return uint64(t.InitWaitCycles+t.TRP+t.TMRD+
		t.InitRefreshCount*t.TRFC) + 100
}

func printStats(
	out io.Writer,
	brd *board.Board,
	s *runStats,
	cycles uint64,
) {
	fmt.Fprintf(out, "Cycles run:          %d (%.6f s)\n",
		cycles, float64(brd.Clock.CurrentTime()))

	providers := make([]addrdec.ProviderIndex, 0, len(s.transfers))
	for p := range s.transfers {
		providers = append(providers, p)
	}

	sort.Slice(providers, func(i, j int) bool {
		return providers[i] < providers[j]
	})

	for _, p := range providers {
		fmt.Fprintf(out, "Transfers to %-8s %d\n", p.String()+":",
			s.transfers[p])
	}

	fmt.Fprintf(out, "CPU transfers:       %d, avg latency %.2f cycles\n",
		s.cpu.Count(), s.cpu.AverageCycles())
	fmt.Fprintf(out, "DMA words written:   %d, avg latency %.2f cycles\n",
		brd.Loader.Written(), s.loader.AverageCycles())
	fmt.Fprintf(out, "Stepper samples:     %d\n", brd.Stepper.Samples())

	st := brd.SDRAM.Controller.Stats()
	fmt.Fprintf(out, "SDRAM reads/writes:  %d/%d\n", st.Reads, st.Writes)
	fmt.Fprintf(out, "SDRAM page hits:     %d, misses %d, conflicts %d\n",
		st.PageHits, st.PageMisses, st.PageConflicts)
	fmt.Fprintf(out, "SDRAM refreshes:     %d\n", st.Refreshes)

	s.sdramBusy.TerminateAllTasks(brd.Clock.Cycle())
	fmt.Fprintf(out, "SDRAM busy cycles:   %d\n", s.sdramBusy.BusyCycles())

	for _, name := range s.sdramCmds.StepNames() {
		fmt.Fprintf(out, "SDRAM %-13s %d\n", name+":",
			s.sdramCmds.StepCount(name))
	}
}
