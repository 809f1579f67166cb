package wishbone

import (
	"errors"
	"fmt"
)

// ErrNotReset is returned when the bus is clocked before it has been reset.
var ErrNotReset = errors.New("bus used before reset")

// ErrNoGrant is returned when a master does not get the bus in time.
var ErrNoGrant = errors.New("master not granted")

// A ProtocolViolation reports an element that broke the bus discipline, such as
// a master that changes a request in flight or a decoder that selects two
// providers.
type ProtocolViolation struct {
	Component string
	Cycle     uint64
	Reason    string
}

// NewProtocolViolation creates a ProtocolViolation.
func NewProtocolViolation(
	component string,
	cycle uint64,
	format string,
	args ...interface{},
) *ProtocolViolation {
	return &ProtocolViolation{
		Component: component,
		Cycle:     cycle,
		Reason:    fmt.Sprintf(format, args...),
	}
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation at %s, cycle %d: %s",
		e.Component, e.Cycle, e.Reason)
}

// A RefreshOverrun reports a refresh that became due while the previous one
// was still pending. The SDRAM contents are not guaranteed after it.
type RefreshOverrun struct {
	Component string
	Cycle     uint64
	Pending   uint64
}

func (e *RefreshOverrun) Error() string {
	return fmt.Sprintf(
		"refresh overrun at %s, cycle %d: refresh pending for %d cycles",
		e.Component, e.Cycle, e.Pending)
}
