package sdram

import "fmt"

// RowPolicy decides what happens to a row after an access.
type RowPolicy int

// The supported row policies.
const (
	// OpenPage leaves the row open. A later access to the same row skips
	// ACTIVATE and an access to another row of the bank precharges first.
	OpenPage RowPolicy = iota

	// ClosePage precharges the bank after every access, so every access pays
	// ACTIVATE.
	ClosePage
)

func (p RowPolicy) String() string {
	switch p {
	case OpenPage:
		return "open"
	case ClosePage:
		return "close"
	default:
		return fmt.Sprintf("RowPolicy(%d)", int(p))
	}
}

// ParseRowPolicy converts a name into a RowPolicy.
func ParseRowPolicy(name string) (RowPolicy, error) {
	switch name {
	case "open":
		return OpenPage, nil
	case "close":
		return ClosePage, nil
	default:
		return 0, fmt.Errorf("unknown row policy %q", name)
	}
}
