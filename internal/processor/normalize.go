// Package processor maps list-endpoint summaries and optional extensive
// details into the canonical ProcessedCall.
package processor

import (
	"fmt"
	"strings"
	"time"

	"gong-export-go/internal/speaker"
	"gong-export-go/internal/types"
)

const (
	untitledCall  = "Untitled Call"
	accountObject = "Account"
	dateLayout    = "Jan 2, 2006"
)

// Normalize merges a summary with an optional detail. Detail values win when
// non-empty, then the summary, then a zero default. It never fails and always
// returns non-nil slices.
func Normalize(summary types.CallMetaData, detail *types.Call, domains speaker.DomainSet) types.ProcessedCall {
	meta := summary
	var (
		parties     []types.Party
		content     types.CallContent
		context     []types.ContextObject
		interaction *types.Interaction
	)
	if detail != nil {
		meta = mergeMeta(detail.MetaData, summary)
		parties = detail.Parties
		if detail.Content != nil {
			content = *detail.Content
		}
		context = detail.Context
		interaction = detail.Interaction
	}

	call := types.ProcessedCall{
		ID:                meta.ID,
		Title:             firstNonEmpty(meta.Title, untitledCall),
		Date:              FormatDate(meta.Started),
		DateRaw:           meta.Started,
		Duration:          meta.Duration,
		DurationFormatted: FormatDuration(meta.Duration),
		URL:               meta.URL,
		Direction:         meta.Direction,
		AccountName:       FirstFieldValue(context, "name", accountObject),
		AccountIndustry:   FirstFieldValue(context, "industry", accountObject),
		AccountWebsite:    FirstFieldValue(context, "website", accountObject),
		Speakers:          make([]types.ProcessedSpeaker, 0, len(parties)),
		Topics:            texts(content.Topics),
		Trackers:          trackers(content.Trackers),
		Brief:             strings.TrimSpace(content.Brief),
		KeyPoints:         texts(content.KeyPoints),
		ActionItems:       texts(content.ActionItems),
		InteractionStats:  interactionSummary(interaction),
		DetailAvailable:   detail != nil,
	}

	for _, p := range parties {
		aff := speaker.Classify(p, domains)
		if aff == types.AffiliationInternal {
			call.InternalCount++
		} else {
			call.ExternalCount++
		}
		call.Speakers = append(call.Speakers, types.ProcessedSpeaker{
			SpeakerID:   p.SpeakerID,
			Name:        p.Name,
			FirstName:   speaker.FirstName(p.Name),
			Title:       p.Title,
			Email:       p.EmailAddress,
			Affiliation: aff,
		})
	}
	return call
}

// NormalizeAll keeps the summary order and joins details by call id, so each
// summary with an id yields exactly one processed call.
func NormalizeAll(summaries []types.CallMetaData, details []types.Call, domains speaker.DomainSet) []types.ProcessedCall {
	byID := make(map[string]*types.Call, len(details))
	for i := range details {
		if id := details[i].MetaData.ID; id != "" {
			byID[id] = &details[i]
		}
	}
	out := make([]types.ProcessedCall, 0, len(summaries))
	for _, s := range summaries {
		if s.ID == "" {
			continue
		}
		out = append(out, Normalize(s, byID[s.ID], domains))
	}
	return out
}

func mergeMeta(d, s types.CallMetaData) types.CallMetaData {
	m := d
	m.ID = firstNonEmpty(d.ID, s.ID)
	m.Title = firstNonEmpty(d.Title, s.Title)
	m.Started = firstNonEmpty(d.Started, s.Started)
	m.URL = firstNonEmpty(d.URL, s.URL)
	m.Direction = firstNonEmpty(d.Direction, s.Direction)
	m.WorkspaceID = firstNonEmpty(d.WorkspaceID, s.WorkspaceID)
	if m.Duration == 0 {
		m.Duration = s.Duration
	}
	return m
}

// FormatDate renders an RFC 3339 timestamp as "Jan 2, 2006" in its own
// offset; unparseable input is returned unchanged.
func FormatDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Format(dateLayout)
}

// FormatDuration renders seconds as "1h 5m", "5m 3s" or "45s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func texts(items []types.TextItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := it.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func trackers(in []types.ContentTracker) []types.ProcessedTracker {
	out := make([]types.ProcessedTracker, 0, len(in))
	for _, t := range in {
		if t.ID == "" && t.Name == "" {
			continue
		}
		out = append(out, types.ProcessedTracker{ID: t.ID, Name: firstNonEmpty(t.Name, t.ID), Count: t.Count})
	}
	return out
}

func interactionSummary(in *types.Interaction) *types.InteractionSummary {
	if in == nil {
		return nil
	}
	s := &types.InteractionSummary{TalkRatio: in.TalkRatio, Patience: in.Patience}
	if in.LongestMonologue != nil {
		d := in.LongestMonologue.Duration
		s.LongestMonologue = &d
	}
	for _, stat := range in.InteractionStats {
		v := stat.Value
		switch statKey(stat.Name) {
		case "talkratio":
			if s.TalkRatio == nil {
				s.TalkRatio = &v
			}
		case "longestmonologue":
			if s.LongestMonologue == nil {
				s.LongestMonologue = &v
			}
		case "patience":
			if s.Patience == nil {
				s.Patience = &v
			}
		}
	}
	return s
}

func statKey(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '_' || r == '-' {
			return -1
		}
		return r
	}, strings.ToLower(name))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
