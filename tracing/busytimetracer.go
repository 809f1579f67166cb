package tracing

import (
	"container/list"
)

type taskSpan struct {
	start, end uint64
	completed  bool
}

// BusyTimeTracer counts the cycles during which a domain works on at least one
// task. Overlapping tasks count once.
type BusyTimeTracer struct {
	counter       CycleCounter
	filter        TaskFilter
	inflightTasks map[string]*list.Element
	spans         *list.List
	busyCycles    uint64
}

// NewBusyTimeTracer creates a new BusyTimeTracer
func NewBusyTimeTracer(
	counter CycleCounter,
	filter TaskFilter,
) *BusyTimeTracer {
	t := &BusyTimeTracer{
		counter:       counter,
		filter:        filter,
		inflightTasks: make(map[string]*list.Element),
		spans:         list.New(),
	}

	return t
}

// BusyCycles returns the number of cycles spent on the tasks completed.
func (t *BusyTimeTracer) BusyCycles() uint64 {
	return t.busyCycles
}

// TerminateAllTasks will mark all the tasks as completed.
func (t *BusyTimeTracer) TerminateAllTasks(now uint64) {
	for e := t.spans.Front(); e != nil; e = e.Next() {
		span := e.Value.(*taskSpan)
		if !span.completed {
			span.completed = true
			span.end = now
		}
	}

	t.inflightTasks = make(map[string]*list.Element)
	t.collapse(now)
}

// StartTask records the task start cycle.
func (t *BusyTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	elem := t.spans.PushBack(&taskSpan{start: t.counter.Cycle()})
	t.inflightTasks[task.ID] = elem
}

// StepTask does nothing
func (t *BusyTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *BusyTimeTracer) EndTask(task Task) {
	elem, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	now := t.counter.Cycle()

	span := elem.Value.(*taskSpan)
	span.end = now
	span.completed = true
	delete(t.inflightTasks, task.ID)

	t.collapse(now)
}

// collapse accounts for the completed spans that no running task can extend
// any more.
func (t *BusyTimeTracer) collapse(now uint64) {
	start, found := t.firstIncompleteStart()
	if found && start < now {
		return
	}

	finished := make([]*taskSpan, 0)

	var next *list.Element
	for e := t.spans.Front(); e != nil; e = next {
		next = e.Next()

		span := e.Value.(*taskSpan)
		if !span.completed {
			break
		}

		if span.end <= now {
			finished = append(finished, span)
			t.spans.Remove(e)
		}
	}

	t.busyCycles += unionLength(finished)
}

func (t *BusyTimeTracer) firstIncompleteStart() (uint64, bool) {
	for e := t.spans.Front(); e != nil; e = e.Next() {
		span := e.Value.(*taskSpan)
		if !span.completed {
			return span.start, true
		}
	}

	return 0, false
}

// unionLength returns the length of the union of spans sorted by start.
func unionLength(spans []*taskSpan) uint64 {
	var total uint64

	var cur *taskSpan
	for _, s := range spans {
		if cur == nil || s.start > cur.end {
			if cur != nil {
				total += cur.end - cur.start
			}

			merged := *s
			cur = &merged

			continue
		}

		if s.end > cur.end {
			cur.end = s.end
		}
	}

	if cur != nil {
		total += cur.end - cur.start
	}

	return total
}
