package sim

import (
	"log"
	"reflect"
)

// EventLogger is an hook that prints the event information
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	comp, ok := evt.Handler().(Named)
	if ok {
		h.Logger.Printf("%.10f, %s -> %s",
			evt.Time(), reflect.TypeOf(evt), comp.Name())
	} else {
		h.Logger.Printf("%.10f, %s", evt.Time(), reflect.TypeOf(evt))
	}
}

// EdgeLogger is a hook that prints every committed clock edge.
type EdgeLogger struct {
	*log.Logger
}

// NewEdgeLogger returns a new EdgeLogger that writes into the logger.
func NewEdgeLogger(logger *log.Logger) *EdgeLogger {
	return &EdgeLogger{Logger: logger}
}

// Func writes the edge number and reset level.
func (h *EdgeLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosClockEdge {
		return
	}

	tick := ctx.Item.(TickCtx)
	h.Logger.Printf("%s edge %d reset=%t",
		ctx.Domain.(Named).Name(), tick.Cycle, tick.Reset)
}
