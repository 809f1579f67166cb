package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfo is one property of a recorded run.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecTableName is the table that holds the properties of the run.
const ExecTableName = "exec_info"

const timeFormat = "2006-01-02 15:04:05.000000000"

// execRecorder records when and how the program ran.
type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	e := &execRecorder{recorder: recorder}
	recorder.CreateTable(ExecTableName, ExecInfo{})

	return e
}

// Start logs the start of the run.
func (e *execRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", time.Now().Format(timeFormat)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
}

// End writes the properties along with the exit time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTableName, entry)
	}

	e.recorder.InsertData(ExecTableName,
		ExecInfo{"End Time", time.Now().Format(timeFormat)})

	e.entries = nil
}
