package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gong-export-go/internal/aggregator"
	"gong-export-go/internal/dataset"
	"gong-export-go/internal/pipeline"
	"gong-export-go/internal/types"
)

func newListCommand(a *app) *cobra.Command {
	var (
		q    queryFlags
		f    filterFlags
		xlsx string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calls in a date range",
		Long: `List loads the calls in a date range, applies the filters and prints
one line per matching call followed by a short summary.

With --xlsx every loaded call is also written to a spreadsheet index. Calls
matching the filters are marked in its Selected column; edit the column and
pass the file to "export --select-from".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := q.query()
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			sess, err := pipeline.Connect(cmd.Context(), client, a.log)
			if err != nil {
				return err
			}
			loaded, err := sess.LoadCalls(cmd.Context(), query)
			if err != nil {
				return err
			}
			selected := aggregator.Select(loaded.Calls, f.filter())

			out := cmd.OutOrStdout()
			printCalls(out, selected)
			printInsight(out, aggregator.Aggregate(selected), len(loaded.Calls))
			for _, w := range append(sess.Warnings, loaded.Warnings...) {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}

			if xlsx == "" {
				return nil
			}
			if err := writeIndex(xlsx, markSelected(loaded.Calls, selected)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Index written: %s\n", xlsx)
			return nil
		},
	}
	q.bind(cmd)
	f.bind(cmd)
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "Also write a spreadsheet index of the loaded calls to this path")
	return cmd
}

func printCalls(w io.Writer, calls []types.ProcessedCall) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDURATION\tSPEAKERS\tTITLE")
	for _, c := range calls {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dI/%dE\t%s\n", c.ID, c.Date, c.DurationFormatted, c.InternalCount, c.ExternalCount, c.Title)
	}
	tw.Flush()
}

func printInsight(w io.Writer, in aggregator.Insight, loaded int) {
	fmt.Fprintf(w, "\n%d of %d calls, %s total, %d with details, %d internal only\n",
		in.Calls, loaded, formatTotal(in.TotalDuration), in.WithDetail, in.InternalOnly)
	if len(in.Trackers) == 0 {
		return
	}
	top := make([]string, 0, len(in.Trackers))
	for _, t := range in.Trackers {
		top = append(top, fmt.Sprintf("%s (%d)", t.Name, t.Calls))
	}
	fmt.Fprintln(w, "Trackers:", strings.Join(top, ", "))
}

func formatTotal(seconds int64) string {
	return fmt.Sprintf("%dh %02dm", seconds/3600, seconds%3600/60)
}

// markSelected flags the loaded calls that the filter kept.
func markSelected(all, selected []types.ProcessedCall) []types.ProcessedCall {
	keep := make(map[string]struct{}, len(selected))
	for _, c := range selected {
		keep[c.ID] = struct{}{}
	}
	out := make([]types.ProcessedCall, len(all))
	for i, c := range all {
		_, c.Selected = keep[c.ID]
		out[i] = c
	}
	return out
}

func writeIndex(path string, calls []types.ProcessedCall) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := dataset.WriteCallIndex(f, calls); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
