package sim

import (
	"errors"
	"fmt"
)

// ErrCycleLimit is returned when a bounded run reaches its cycle budget before
// its stop condition holds.
var ErrCycleLimit = errors.New("cycle limit reached")

// TickCtx carries what every clocked element observes at a rising edge.
type TickCtx struct {
	// Cycle is the number of the edge being evaluated, starting from 1.
	Cycle uint64

	// Reset is the level of the active-high synchronous reset line.
	Reset bool
}

// Clocked is a piece of synchronous logic. At every rising edge, the clock
// first calls Eval on every member and then Commit on every member.
//
// Eval must compute the next state only from the current, committed state of
// the element itself and of the elements it reads from. It must not change
// anything another element can observe. Commit makes the next state current.
type Clocked interface {
	Named
	Eval(ctx TickCtx) error
	Commit()
}

// HookPosClockEdge triggers after all the members have committed an edge. The
// hook item is the TickCtx of the edge.
var HookPosClockEdge = &HookPos{Name: "ClockEdge"}

// A Clock is a single clock domain. It advances all its members in lock step
// with a two-phase evaluate/commit update, so the order in which the members
// are registered never changes the simulated behavior.
type Clock struct {
	*ComponentBase

	engine  Engine
	freq    Freq
	members []Clocked

	cycle uint64
	reset bool

	stopAt uint64
	done   func() bool
}

// NewClock creates a clock domain that schedules its edges on the engine.
func NewClock(name string, engine Engine, freq Freq) *Clock {
	if freq <= 0 {
		panic("clock frequency must be positive")
	}

	c := &Clock{
		ComponentBase: NewComponentBase(name),
		engine:        engine,
		freq:          freq,
	}

	return c
}

// Register adds a member to the clock domain.
func (c *Clock) Register(m Clocked) {
	for _, existing := range c.members {
		if existing.Name() == m.Name() {
			panic(fmt.Sprintf("clocked element %s registered twice", m.Name()))
		}
	}

	c.members = append(c.members, m)
}

// Members returns the registered members in registration order.
func (c *Clock) Members() []Clocked {
	return c.members
}

// Freq returns the frequency of the clock.
func (c *Clock) Freq() Freq {
	return c.freq
}

// Cycle returns the number of edges committed so far.
func (c *Clock) Cycle() uint64 {
	return c.cycle
}

// CurrentTime returns the time of the last committed edge. It lets tracers
// stamp tasks even when the clock is stepped without the engine.
func (c *Clock) CurrentTime() VTimeInSec {
	return c.freq.CycleTime(c.cycle)
}

// SetReset drives the synchronous reset line. The level is sampled at every
// following edge until changed.
func (c *Clock) SetReset(asserted bool) {
	c.reset = asserted
}

// Step evaluates and commits one rising edge immediately, without going
// through the engine.
func (c *Clock) Step() error {
	ctx := TickCtx{Cycle: c.cycle + 1, Reset: c.reset}

	for _, m := range c.members {
		if err := m.Eval(ctx); err != nil {
			return fmt.Errorf("cycle %d, %s: %w", ctx.Cycle, m.Name(), err)
		}
	}

	for _, m := range c.members {
		m.Commit()
	}

	c.cycle = ctx.Cycle

	c.InvokeHook(HookCtx{
		Domain: c,
		Pos:    HookPosClockEdge,
		Item:   ctx,
	})

	return nil
}

// RunCycles advances the clock by n edges through the engine.
func (c *Clock) RunCycles(n uint64) error {
	return c.run(nil, n)
}

// RunUntil advances the clock through the engine until done returns true after
// an edge. It returns ErrCycleLimit if done does not hold within maxCycles.
func (c *Clock) RunUntil(done func() bool, maxCycles uint64) error {
	if done() {
		return nil
	}

	err := c.run(done, maxCycles)
	if err != nil {
		return err
	}

	if !done() {
		return fmt.Errorf("%s after %d cycles: %w",
			c.Name(), maxCycles, ErrCycleLimit)
	}

	return nil
}

func (c *Clock) run(done func() bool, n uint64) error {
	if n == 0 {
		return nil
	}

	c.stopAt = c.cycle + n
	c.done = done
	c.scheduleNextEdge()

	return c.engine.Run()
}

func (c *Clock) scheduleNextEdge() {
	c.engine.Schedule(MakeTickEvent(c, c.freq.CycleTime(c.cycle+1)))
}

// Handle processes one edge scheduled on the engine.
func (c *Clock) Handle(_ Event) error {
	if err := c.Step(); err != nil {
		return err
	}

	if c.done != nil && c.done() {
		return nil
	}

	if c.cycle < c.stopAt {
		c.scheduleNextEdge()
	}

	return nil
}
