package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/spikeputor/datarecording"
	"github.com/sarchlab/spikeputor/sim"
	"github.com/tebeka/atexit"
)

// TraceTableName is the table the DBTracer writes tasks into.
const TraceTableName = "trace"

// TaskEntry is how a task is stored in the database.
type TaskEntry struct {
	ID         string
	ParentID   string
	Kind       string
	What       string
	Location   string
	StartCycle uint64
	EndCycle   uint64
	StartTime  float64
	EndTime    float64
	Steps      int
}

// DBTracer is a tracer that stores the tasks into a database through a
// DataRecorder.
type DBTracer struct {
	mu      sync.Mutex
	counter CycleCounter
	freq    sim.Freq
	backend datarecording.DataRecorder

	startCycle, endCycle uint64

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer. The frequency converts the cycles into
// times.
func NewDBTracer(
	counter CycleCounter,
	freq sim.Freq,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(TraceTableName, TaskEntry{})

	t := &DBTracer{
		counter:      counter,
		freq:         freq,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetCycleRange limits the tracing to the tasks that overlap the range. An end
// of zero means no limit.
func (t *DBTracer) SetCycleRange(start, end uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startCycle = start
	t.endCycle = end
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartCycle = t.counter.Cycle()
	if t.endCycle > 0 && task.StartCycle > t.endCycle {
		return
	}

	t.tracingTasks[task.ID] = task
}

// StepTask counts a step of a task.
func (t *DBTracer) StepTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	step := task.Steps[0]
	step.Cycle = t.counter.Cycle()
	originalTask.Steps = append(originalTask.Steps, step)
	t.tracingTasks[task.ID] = originalTask
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	originalTask.EndCycle = t.counter.Cycle()
	if originalTask.EndCycle < t.startCycle {
		return
	}

	t.write(originalTask)
}

// Terminate writes the tasks that are still running, ending them at the
// current cycle, and flushes the recorder.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.counter.Cycle()

	ids := make([]string, 0, len(t.tracingTasks))
	for id := range t.tracingTasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		task := t.tracingTasks[id]
		task.EndCycle = now
		t.write(task)
	}

	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}

func (t *DBTracer) write(task Task) {
	t.backend.InsertData(TraceTableName, TaskEntry{
		ID:         task.ID,
		ParentID:   task.ParentID,
		Kind:       task.Kind,
		What:       task.What,
		Location:   task.Location,
		StartCycle: task.StartCycle,
		EndCycle:   task.EndCycle,
		StartTime:  float64(t.freq.CycleTime(task.StartCycle)),
		EndTime:    float64(t.freq.CycleTime(task.EndCycle)),
		Steps:      len(task.Steps),
	})
}
