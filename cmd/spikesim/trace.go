package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/spikeputor/datarecording"
	"github.com/sarchlab/spikeputor/tracing"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <db.sqlite3>",
	Short: "Summarize the tasks recorded by a traced run.",
	Long: `trace reads the database written when SPIKESIM_TRACE_DB is set ` +
		`and prints, per component and kind of task, how many tasks ran ` +
		`and how many cycles they took.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printTrace(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

func printTrace(ctx context.Context, out io.Writer, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := datarecording.OpenReader(path)
	if err != nil {
		return fmt.Errorf("opening trace: %w", err)
	}
	defer reader.Close()

	summaries, err := tracing.SummarizeTrace(ctx, reader)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOCATION\tKIND\tWHAT\tCOUNT\tAVG CYCLES\tMAX CYCLES\tSTEPS")

	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%d\t%d\n",
			s.Location, s.Kind, s.What, s.Count,
			s.AverageCycles(), s.MaxCycles, s.Steps)
	}

	return w.Flush()
}
