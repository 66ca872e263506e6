package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gong-export-go/internal/transcript"
	"gong-export-go/internal/types"
)

const (
	transcriptLegend = "[I]=Internal, [E]=External (shown in ALL CAPS)"
	noTranscript     = "_No transcript available._"
)

func renderMarkdown(docs []document, opts types.ExportOptions, now time.Time) string {
	var body []string
	for _, d := range docs {
		body = append(body, markdownCall(d, opts)...)
	}
	bodyText := strings.Join(body, "\n")

	header := []string{
		"# Call Transcripts Export",
		"Generated: " + isoTimestamp(now),
		fmt.Sprintf("Total Calls: %d", len(docs)),
		fmt.Sprintf("Estimated Tokens: ~%d", Estimate(bodyText)),
		"",
		"---",
		"",
		bodyText,
	}
	return strings.Join(header, "\n")
}

func markdownCall(d document, opts types.ExportOptions) []string {
	c := d.call
	lines := []string{"## Call: " + c.Title, ""}

	lines = append(lines, fmt.Sprintf("**Date:** %s | **Duration:** %s", c.Date, c.DurationFormatted))
	if opts.IncludeMetadata {
		lines = append(lines,
			fmt.Sprintf("**Account:** %s | **Industry:** %s", c.AccountName, c.AccountIndustry),
			"**Direction:** "+c.Direction,
		)
	}
	lines = append(lines, "")

	if len(d.speakerLines) > 0 {
		lines = append(lines, "### Speakers")
		lines = appendBullets(lines, d.speakerLines)
		lines = append(lines, "")
	}

	if opts.IncludeAIBrief && c.Brief != "" {
		lines = append(lines, "### Gong AI Brief", c.Brief, "")
	}

	if len(c.KeyPoints) > 0 {
		lines = append(lines, "### Key Points")
		lines = appendBullets(lines, c.KeyPoints)
		lines = append(lines, "")
	}

	if len(c.ActionItems) > 0 {
		lines = append(lines, "### Action Items")
		lines = appendBullets(lines, c.ActionItems)
		lines = append(lines, "")
	}

	if s := c.InteractionStats; opts.IncludeInteractionStats && s.Any() {
		lines = append(lines, "### Interaction Stats")
		if s.TalkRatio != nil {
			lines = append(lines, "- Talk Ratio: "+talkRatioPercent(*s.TalkRatio)+"%")
		}
		if s.LongestMonologue != nil {
			lines = append(lines, "- Longest Monologue: "+formatNumber(*s.LongestMonologue)+"s")
		}
		if s.Patience != nil {
			lines = append(lines, "- Patience: "+formatNumber(*s.Patience))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "### Transcript")
	if len(d.turns) == 0 {
		lines = append(lines, noTranscript, "")
	} else {
		lines = append(lines, transcriptLegend, "")
		lines = append(lines, transcript.TranscriptLines(d.turns)...)
	}

	return append(lines, "---", "")
}

func appendBullets(lines, items []string) []string {
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return lines
}

// talkRatioPercent renders a 0..1 ratio as a whole percentage.
func talkRatioPercent(ratio float64) string {
	return strconv.FormatFloat(math.Round(ratio*100), 'f', 0, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
