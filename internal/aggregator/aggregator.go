package aggregator

import (
	"sort"
	"strings"

	"gong-export-go/internal/types"
)

// Filter narrows a call list the way the call picker does. Zero values
// match everything.
type Filter struct {
	IDs                 []string `json:"ids,omitempty"`
	Search              string   `json:"search,omitempty"`
	ExcludeInternalOnly bool     `json:"excludeInternalOnly,omitempty"`
	Trackers            []string `json:"trackers,omitempty"`
}

// Select returns the calls matching f in their original order, each marked
// Selected.
func Select(calls []types.ProcessedCall, f Filter) []types.ProcessedCall {
	ids := toSet(f.IDs, false)
	trackers := toSet(f.Trackers, true)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]types.ProcessedCall, 0, len(calls))
	for _, c := range calls {
		if len(ids) > 0 {
			if _, ok := ids[c.ID]; !ok {
				continue
			}
		}
		if f.ExcludeInternalOnly && c.ExternalCount == 0 {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Brief), search) {
			continue
		}
		if len(trackers) > 0 && !hasTracker(c, trackers) {
			continue
		}
		c.Selected = true
		out = append(out, c)
	}
	return out
}

func hasTracker(c types.ProcessedCall, want map[string]struct{}) bool {
	for _, t := range c.Trackers {
		if _, ok := want[strings.ToLower(t.Name)]; ok {
			return true
		}
		if _, ok := want[strings.ToLower(t.ID)]; ok && t.ID != "" {
			return true
		}
	}
	return false
}

func toSet(values []string, fold bool) map[string]struct{} {
	set := map[string]struct{}{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if fold {
			v = strings.ToLower(v)
		}
		set[v] = struct{}{}
	}
	return set
}

type TrackerCount struct {
	Name  string `json:"name"`
	Calls int    `json:"calls"`
	Hits  int    `json:"hits"`
}

type Insight struct {
	Calls            int            `json:"calls"`
	TotalDuration    int64          `json:"total_duration_sec"`
	WithDetail       int            `json:"with_detail"`
	InternalOnly     int            `json:"internal_only"`
	WithBrief        int            `json:"with_brief"`
	Speakers         int            `json:"speakers"`
	ExternalSpeakers int            `json:"external_speakers"`
	Trackers         []TrackerCount `json:"trackers"`
}

// Aggregate summarizes a call list. Trackers are sorted by calls, then name.
func Aggregate(calls []types.ProcessedCall) Insight {
	in := Insight{Trackers: []TrackerCount{}}
	byName := map[string]*TrackerCount{}
	for _, c := range calls {
		in.Calls++
		in.TotalDuration += c.Duration
		in.Speakers += len(c.Speakers)
		in.ExternalSpeakers += c.ExternalCount
		if c.DetailAvailable {
			in.WithDetail++
		}
		if c.ExternalCount == 0 {
			in.InternalOnly++
		}
		if c.Brief != "" {
			in.WithBrief++
		}
		for _, t := range c.Trackers {
			tc, ok := byName[t.Name]
			if !ok {
				tc = &TrackerCount{Name: t.Name}
				byName[t.Name] = tc
			}
			tc.Hits += t.Count
			if t.Count > 0 {
				tc.Calls++
			}
		}
	}
	for _, tc := range byName {
		in.Trackers = append(in.Trackers, *tc)
	}
	sort.Slice(in.Trackers, func(i, j int) bool {
		if in.Trackers[i].Calls != in.Trackers[j].Calls {
			return in.Trackers[i].Calls > in.Trackers[j].Calls
		}
		return in.Trackers[i].Name < in.Trackers[j].Name
	})
	return in
}
