package export

import (
	"bytes"
	"encoding/json"

	"gong-export-go/internal/transcript"
	"gong-export-go/internal/types"
)

// jsonlRecord is one line of a JSONL export. Pointer and raw fields are set
// only when the matching option asks for them.
type jsonlRecord struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Date              string                   `json:"date"`
	DateRaw           string                   `json:"dateRaw"`
	Duration          int64                    `json:"duration"`
	DurationFormatted string                   `json:"durationFormatted"`
	URL               string                   `json:"url"`
	Direction         *string                  `json:"direction,omitempty"`
	AccountName       *string                  `json:"accountName,omitempty"`
	AccountIndustry   *string                  `json:"accountIndustry,omitempty"`
	AccountWebsite    *string                  `json:"accountWebsite,omitempty"`
	Speakers          []types.ProcessedSpeaker `json:"speakers"`
	InternalCount     int                      `json:"internalCount"`
	ExternalCount     int                      `json:"externalCount"`
	Topics            []string                 `json:"topics"`
	Trackers          []types.ProcessedTracker `json:"trackers"`
	Brief             *string                  `json:"brief,omitempty"`
	KeyPoints         []string                 `json:"keyPoints"`
	ActionItems       []string                 `json:"actionItems"`
	InteractionStats  json.RawMessage          `json:"interactionStats,omitempty"`
	DetailAvailable   bool                     `json:"detailAvailable"`
	SpeakerLines      []string                 `json:"speakerLines"`
	TranscriptLines   []string                 `json:"transcriptLines"`
	Turns             []types.Turn             `json:"turns"`
}

func renderJSONL(docs []document, opts types.ExportOptions) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, d := range docs {
		rec, err := newJSONLRecord(d, opts)
		if err != nil {
			return "", err
		}
		if err := enc.Encode(rec); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func newJSONLRecord(d document, opts types.ExportOptions) (jsonlRecord, error) {
	c := d.call
	turns := make([]types.Turn, len(d.turns))
	for i, t := range d.turns {
		t.Text = transcript.RenderText(t)
		turns[i] = t
	}
	rec := jsonlRecord{
		ID:                c.ID,
		Title:             c.Title,
		Date:              c.Date,
		DateRaw:           c.DateRaw,
		Duration:          c.Duration,
		DurationFormatted: c.DurationFormatted,
		URL:               c.URL,
		Speakers:          nonNil(c.Speakers),
		InternalCount:     c.InternalCount,
		ExternalCount:     c.ExternalCount,
		Topics:            nonNil(c.Topics),
		Trackers:          nonNil(c.Trackers),
		KeyPoints:         nonNil(c.KeyPoints),
		ActionItems:       nonNil(c.ActionItems),
		DetailAvailable:   c.DetailAvailable,
		SpeakerLines:      d.speakerLines,
		TranscriptLines:   transcript.TranscriptLines(d.turns),
		Turns:             turns,
	}
	if opts.IncludeMetadata {
		rec.Direction = &c.Direction
		rec.AccountName = &c.AccountName
		rec.AccountIndustry = &c.AccountIndustry
		rec.AccountWebsite = &c.AccountWebsite
	}
	if opts.IncludeAIBrief {
		rec.Brief = &c.Brief
	}
	if opts.IncludeInteractionStats {
		raw, err := json.Marshal(c.InteractionStats)
		if err != nil {
			return jsonlRecord{}, err
		}
		rec.InteractionStats = raw
	}
	return rec, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
