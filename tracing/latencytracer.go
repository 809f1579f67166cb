package tracing

import (
	"sync"
)

// LatencyTracer measures how many cycles tasks take. Overlapping tasks are
// counted separately.
type LatencyTracer struct {
	counter       CycleCounter
	filter        TaskFilter
	lock          sync.Mutex
	inflightTasks map[string]Task

	count uint64
	total uint64
	max   uint64
}

// NewLatencyTracer creates a new LatencyTracer. A nil filter accepts every
// task.
func NewLatencyTracer(counter CycleCounter, filter TaskFilter) *LatencyTracer {
	return &LatencyTracer{
		counter:       counter,
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
}

// Count returns the number of tasks completed.
func (t *LatencyTracer) Count() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}

// TotalCycles returns the sum of the latencies of the completed tasks.
func (t *LatencyTracer) TotalCycles() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total
}

// MaxCycles returns the longest latency seen.
func (t *LatencyTracer) MaxCycles() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.max
}

// AverageCycles returns the mean latency of the completed tasks.
func (t *LatencyTracer) AverageCycles() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.count == 0 {
		return 0
	}

	return float64(t.total) / float64(t.count)
}

// StartTask records the task start cycle.
func (t *LatencyTracer) StartTask(task Task) {
	task.StartCycle = t.counter.Cycle()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// StepTask does nothing
func (t *LatencyTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task.
func (t *LatencyTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndCycle = t.counter.Cycle()
	latency := originalTask.Cycles()

	t.count++
	t.total += latency
	if latency > t.max {
		t.max = latency
	}

	delete(t.inflightTasks, task.ID)
}
