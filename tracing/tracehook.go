package tracing

import (
	"fmt"

	"github.com/sarchlab/spikeputor/sim"
)

// CollectTrace lets the tracer collect the tasks of a domain. When kinds are
// given, only the tasks of those kinds reach the tracer, together with their
// steps and ends.
func CollectTrace(domain NamedHookable, tracer Tracer, kinds ...string) {
	for _, hook := range domain.Hooks() {
		h, ok := hook.(*traceHook)
		if ok && h.t == tracer {
			panic(fmt.Sprintf("tracer %T already collects from %s",
				tracer, domain.Name()))
		}
	}

	h := &traceHook{t: tracer}

	if len(kinds) > 0 {
		h.kinds = make(map[string]bool, len(kinds))
		h.open = make(map[string]bool)

		for _, k := range kinds {
			h.kinds[k] = true
		}
	}

	domain.AcceptHook(h)
}

// A traceHook forwards the task hooks of a domain to a tracer.
type traceHook struct {
	t Tracer

	// Steps and ends only carry the task ID, so the IDs of the accepted tasks
	// are kept until they end.
	kinds map[string]bool
	open  map[string]bool
}

// Func calls the tracer interfaces when the hook is triggered
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		task := ctx.Item.(Task)
		if h.kinds != nil {
			if !h.kinds[task.Kind] {
				return
			}

			h.open[task.ID] = true
		}

		h.t.StartTask(task)
	case HookPosTaskStep:
		task := ctx.Item.(Task)
		if h.kinds != nil && !h.open[task.ID] {
			return
		}

		h.t.StepTask(task)
	case HookPosTaskEnd:
		task := ctx.Item.(Task)
		if h.kinds != nil {
			if !h.open[task.ID] {
				return
			}

			delete(h.open, task.ID)
		}

		h.t.EndTask(task)
	}
}
