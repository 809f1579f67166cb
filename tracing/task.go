package tracing

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Cycle uint64 `json:"cycle"`
	What  string `json:"what"`
}

// A Task is a piece of work a component carries out, such as a bus transfer.
type Task struct {
	ID         string      `json:"id"`
	ParentID   string      `json:"parent_id"`
	Kind       string      `json:"kind"`
	What       string      `json:"what"`
	Location   string      `json:"location"`
	StartCycle uint64      `json:"start_cycle"`
	EndCycle   uint64      `json:"end_cycle"`
	Steps      []TaskStep  `json:"steps"`
	Detail     interface{} `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// Cycles returns the number of cycles from the start to the end of the task.
func (t Task) Cycles() uint64 {
	return t.EndCycle - t.StartCycle
}
