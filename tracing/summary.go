package tracing

import (
	"context"

	"github.com/sarchlab/spikeputor/datarecording"
)

const summaryPageSize = 1024

// TaskSummary aggregates the recorded tasks that share a location, a kind and
// a what.
type TaskSummary struct {
	Location    string
	Kind        string
	What        string
	Count       int
	Steps       int
	TotalCycles uint64
	MaxCycles   uint64
}

// AverageCycles returns the mean task duration in cycles.
func (s TaskSummary) AverageCycles() float64 {
	if s.Count == 0 {
		return 0
	}

	return float64(s.TotalCycles) / float64(s.Count)
}

// SummarizeTrace reads the trace table written by a DBTracer and groups the
// tasks. The summaries are sorted by location, kind and what.
func SummarizeTrace(
	ctx context.Context,
	reader datarecording.DataReader,
) ([]TaskSummary, error) {
	reader.MapTable(TraceTableName, TaskEntry{})

	var summaries []TaskSummary

	for offset := 0; ; offset += summaryPageSize {
		rows, total, err := reader.Query(ctx, TraceTableName,
			datarecording.Filter{
				OrderBy: "Location, Kind, What, StartCycle",
				Limit:   summaryPageSize,
				Offset:  offset,
			})
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			summaries = addToSummary(summaries, row.(*TaskEntry))
		}

		if offset+len(rows) >= total || len(rows) == 0 {
			return summaries, nil
		}
	}
}

func addToSummary(summaries []TaskSummary, e *TaskEntry) []TaskSummary {
	n := len(summaries)
	if n == 0 ||
		summaries[n-1].Location != e.Location ||
		summaries[n-1].Kind != e.Kind ||
		summaries[n-1].What != e.What {
		summaries = append(summaries, TaskSummary{
			Location: e.Location,
			Kind:     e.Kind,
			What:     e.What,
		})
		n++
	}

	s := &summaries[n-1]

	var cycles uint64
	if e.EndCycle > e.StartCycle {
		cycles = e.EndCycle - e.StartCycle
	}

	s.Count++
	s.Steps += e.Steps
	s.TotalCycles += cycles

	if cycles > s.MaxCycles {
		s.MaxCycles = cycles
	}

	return summaries
}
