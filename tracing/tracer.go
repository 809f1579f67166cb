package tracing

// A Tracer can collect task traces
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}

// A CycleCounter tells the number of the last committed clock edge.
type CycleCounter interface {
	Cycle() uint64
}
