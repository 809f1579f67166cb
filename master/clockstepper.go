package master

// ClockStepper samples one address each time it is triggered, as the front
// panel does when the CPU clock is single-stepped.
type ClockStepper struct {
	*transactor

	addr      uint32
	triggers  int
	samples    int
	lastSample uint16
}

// NewClockStepper creates a stepper that samples the address.
func NewClockStepper(name string, addr uint32) *ClockStepper {
	s := &ClockStepper{addr: addr}
	s.transactor = newTransactor(name, s)

	return s
}

// Trigger requests one sample.
func (s *ClockStepper) Trigger() {
	s.triggers++
}

// Samples returns the number of samples completed.
func (s *ClockStepper) Samples() int {
	return s.samples
}

// LastSample returns the word read by the last sample.
func (s *ClockStepper) LastSample() uint16 {
	return s.lastSample
}

// Done returns true when no sample is pending.
func (s *ClockStepper) Done() bool {
	return s.triggers == 0 && !s.Busy()
}

func (s *ClockStepper) peekOp() (Op, bool) {
	if s.triggers == 0 {
		return Op{}, false
	}

	return Op{Addr: s.addr}, true
}

func (s *ClockStepper) popOp() {
	s.triggers--
}

func (s *ClockStepper) finished(r Result) {
	s.samples++
	s.lastSample = r.Data
}
