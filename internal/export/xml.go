package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"gong-export-go/internal/transcript"
	"gong-export-go/internal/types"
)

// xmlEscaper writes the five named entities; encoding/xml would emit &#34;
// and &#39; for quotes.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// esc makes s safe for XML 1.0 character data and attribute values:
// ill-formed UTF-8 becomes U+FFFD and code points outside the XML Char
// production are dropped before the entities are applied.
func esc(s string) string {
	clean, _, err := transform.String(transform.Chain(runes.ReplaceIllFormed(), runes.Remove(runes.Predicate(notXMLChar))), s)
	if err != nil {
		clean = strings.Map(func(r rune) rune {
			if notXMLChar(r) {
				return -1
			}
			return r
		}, strings.ToValidUTF8(s, "\uFFFD"))
	}
	return xmlEscaper.Replace(clean)
}

func notXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return false
	case r < 0x20:
		return true
	case r >= 0xD800 && r <= 0xDFFF:
		return true
	case r == 0xFFFE || r == 0xFFFF:
		return true
	}
	return r > unicode.MaxRune
}

func renderXML(docs []document, opts types.ExportOptions, now time.Time) string {
	var body []string
	for _, d := range docs {
		body = append(body, xmlCall(d, opts)...)
	}
	bodyText := strings.Join(body, "\n")

	lines := []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		fmt.Sprintf(`<calls export_date="%s" total="%d" estimated_tokens="%d">`, esc(isoTimestamp(now)), len(docs), Estimate(bodyText)),
	}
	if bodyText != "" {
		lines = append(lines, bodyText)
	}
	lines = append(lines, "</calls>")
	return strings.Join(lines, "\n")
}

func xmlCall(d document, opts types.ExportOptions) []string {
	c := d.call
	lines := []string{fmt.Sprintf(`  <call id="%s" title="%s" date="%s" duration="%s">`,
		esc(c.ID), esc(c.Title), esc(c.Date), esc(c.DurationFormatted))}

	if opts.IncludeMetadata {
		lines = append(lines,
			"    <metadata>",
			"      <account>"+esc(c.AccountName)+"</account>",
			"      <industry>"+esc(c.AccountIndustry)+"</industry>",
			"      <direction>"+esc(c.Direction)+"</direction>",
			"    </metadata>",
		)
	}

	if len(d.speakerLines) > 0 {
		lines = append(lines, "    <speakers>")
		for _, s := range c.Speakers {
			if s.SpeakerID == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf(`      <speaker name="%s" role="%s" title="%s"/>`,
				esc(s.Name), s.Affiliation.Tag(), esc(s.Title)))
		}
		lines = append(lines, "    </speakers>")
	}

	if opts.IncludeAIBrief && c.Brief != "" {
		lines = append(lines, "    <ai_brief>"+esc(c.Brief)+"</ai_brief>")
	}

	if len(c.KeyPoints) > 0 {
		lines = append(lines, "    <key_points>")
		for _, kp := range c.KeyPoints {
			lines = append(lines, "      <point>"+esc(kp)+"</point>")
		}
		lines = append(lines, "    </key_points>")
	}

	if len(c.ActionItems) > 0 {
		lines = append(lines, "    <action_items>")
		for _, ai := range c.ActionItems {
			lines = append(lines, "      <item>"+esc(ai)+"</item>")
		}
		lines = append(lines, "    </action_items>")
	}

	if s := c.InteractionStats; opts.IncludeInteractionStats && s.Any() {
		var ratio, mono, patience string
		if s.TalkRatio != nil {
			ratio = talkRatioPercent(*s.TalkRatio)
		}
		if s.LongestMonologue != nil {
			mono = formatNumber(*s.LongestMonologue)
		}
		if s.Patience != nil {
			patience = formatNumber(*s.Patience)
		}
		lines = append(lines, fmt.Sprintf(`    <interaction_stats talk_ratio="%s" longest_monologue="%s" patience="%s"/>`, ratio, mono, patience))
	}

	if len(d.turns) == 0 {
		lines = append(lines, "    <transcript/>")
	} else {
		lines = append(lines, "    <transcript>")
		for _, t := range d.turns {
			role := types.AffiliationExternal.Tag()
			if t.IsInternal {
				role = types.AffiliationInternal.Tag()
			}
			lines = append(lines,
				fmt.Sprintf(`      <turn speaker="%s" role="%s" time="%s">`, esc(t.DisplayName), role, esc(t.Timestamp)),
				"        "+esc(transcript.RenderText(t)),
				"      </turn>",
			)
		}
		lines = append(lines, "    </transcript>")
	}

	return append(lines, "  </call>")
}
