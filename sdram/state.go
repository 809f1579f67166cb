package sdram

import "fmt"

// State is the state of the controller.
type State int

// The controller states. A state names the work the controller does when its
// wait counter expires.
const (
	StateInitWait State = iota
	StateInitRefresh
	StateInitMode
	StateIdle
	StateRefreshPrecharge
	StateRefresh
	StateActivate
	StateAccess
	StateCasWait
	StateWriteRecover
	StateClosePrecharge
	StateDone
)

var stateNames = []string{
	"InitWait", "InitRefresh", "InitMode", "Idle", "RefreshPrecharge",
	"Refresh", "Activate", "Access", "CasWait", "WriteRecover",
	"ClosePrecharge", "Done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// Initializing returns true for the states of the power-up sequence.
func (s State) Initializing() bool {
	return s <= StateInitMode
}

// Stats counts what the controller did since reset.
type Stats struct {
	Reads         uint64
	Writes        uint64
	PageHits      uint64
	PageMisses    uint64
	PageConflicts uint64
	Refreshes     uint64
}
