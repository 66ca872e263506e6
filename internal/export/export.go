// Package export renders processed calls and their turns as Markdown, XML
// or JSON Lines documents.
package export

import (
	"fmt"
	"time"

	"gong-export-go/internal/transcript"
	"gong-export-go/internal/types"
)

const filenamePrefix = "gong-transcripts"

var extensions = map[types.ExportFormat]string{
	types.FormatMarkdown: "md",
	types.FormatXML:      "xml",
	types.FormatJSONL:    "jsonl",
}

// document is one call ready to render: transcript passes already applied.
type document struct {
	call         types.ProcessedCall
	turns        []types.Turn
	speakerLines []string
}

// Generate renders calls in opts.Format. turns is keyed by call id; a call
// without an entry renders with an empty transcript. The output depends only
// on the arguments, so the same inputs and now give identical bytes.
func Generate(calls []types.ProcessedCall, turns map[string][]types.Turn, opts types.ExportOptions, now time.Time) (types.ExportResult, error) {
	ext, ok := extensions[opts.Format]
	if !ok {
		return types.ExportResult{}, fmt.Errorf("unknown export format %q", opts.Format)
	}

	docs := make([]document, 0, len(calls))
	for _, c := range calls {
		docs = append(docs, document{
			call:         c,
			turns:        transcript.Apply(turns[c.ID], opts),
			speakerLines: transcript.SpeakerLines(c.Speakers),
		})
	}

	var (
		content string
		err     error
	)
	switch opts.Format {
	case types.FormatMarkdown:
		content = renderMarkdown(docs, opts, now)
	case types.FormatXML:
		content = renderXML(docs, opts, now)
	case types.FormatJSONL:
		content, err = renderJSONL(docs, opts)
		if err != nil {
			return types.ExportResult{}, fmt.Errorf("render jsonl: %w", err)
		}
	}

	tokens := Estimate(content)
	return types.ExportResult{
		Content:       content,
		Filename:      filename(ext, len(calls), now),
		TokenEstimate: tokens,
		ContextFit:    ContextFit(tokens),
	}, nil
}

// Filename is gong-transcripts-<n>calls-<YYYY-MM-DD>.<ext> with the date in UTC.
func Filename(format types.ExportFormat, calls int, now time.Time) string {
	ext, ok := extensions[format]
	if !ok {
		ext = string(format)
	}
	return filename(ext, calls, now)
}

func filename(ext string, calls int, now time.Time) string {
	return fmt.Sprintf("%s-%dcalls-%s.%s", filenamePrefix, calls, now.UTC().Format(time.DateOnly), ext)
}

// isoTimestamp matches the millisecond UTC form used in document headers.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
