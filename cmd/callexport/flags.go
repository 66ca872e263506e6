package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gong-export-go/internal/aggregator"
	"gong-export-go/internal/gong"
)

const dayLayout = "2006-01-02"

// queryFlags are the call-list range flags shared by list and export.
type queryFlags struct {
	from, to  string
	workspace string
}

func (q *queryFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.from, "from", "", "First day to include (YYYY-MM-DD, UTC)")
	cmd.Flags().StringVar(&q.to, "to", "", "Last day to include (YYYY-MM-DD, UTC)")
	cmd.Flags().StringVar(&q.workspace, "workspace", "", "Workspace id")
}

// query turns the day flags into a range; --to is inclusive, so the upper
// bound is the start of the following day.
func (q *queryFlags) query() (gong.CallQuery, error) {
	out := gong.CallQuery{WorkspaceID: q.workspace}
	if q.from != "" {
		t, err := time.Parse(dayLayout, q.from)
		if err != nil {
			return out, fmt.Errorf("--from: %w", err)
		}
		out.From = t
	}
	if q.to != "" {
		t, err := time.Parse(dayLayout, q.to)
		if err != nil {
			return out, fmt.Errorf("--to: %w", err)
		}
		out.To = t.AddDate(0, 0, 1)
	}
	if !out.From.IsZero() && !out.To.IsZero() && !out.From.Before(out.To) {
		return out, fmt.Errorf("--from %s is after --to %s", q.from, q.to)
	}
	return out, nil
}

type filterFlags struct {
	search          string
	excludeInternal bool
	trackers        []string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.search, "search", "", "Keep calls whose title or brief contains this text")
	cmd.Flags().BoolVar(&f.excludeInternal, "exclude-internal", false, "Drop calls without an external speaker")
	cmd.Flags().StringSliceVar(&f.trackers, "tracker", nil, "Keep calls hitting any of these trackers (name or id)")
}

func (f *filterFlags) filter() aggregator.Filter {
	return aggregator.Filter{
		Search:              f.search,
		ExcludeInternalOnly: f.excludeInternal,
		Trackers:            f.trackers,
	}
}
