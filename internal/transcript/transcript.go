// Package transcript rebuilds speaker turns from sentence-level transcript
// fragments and applies the optional filler and monologue passes.
package transcript

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gong-export-go/internal/types"
)

const (
	unknownSpeaker = "Unknown"

	// minTurnChars is the shortest trimmed turn that survives filler removal.
	minTurnChars = 5
	// minCondenseRun is the shortest run of same-speaker internal turns that gets merged.
	minCondenseRun = 3
)

// fillerPattern matches a turn made only of greetings/acknowledgements, e.g. "ok, thanks!".
var fillerPattern = regexp.MustCompile(`(?i)^(?:(?:hi|hello|hey|thanks|thank you|bye|goodbye|talk soon|have a great (?:day|week|weekend|one)|sounds good|absolutely|of course|sure|yeah|yes|no|okay|ok|alright|right|great|perfect)[!.,\s]*)+$`)

type sentence struct {
	speakerID string
	start     int64
	text      string
}

type speakerInfo struct {
	firstName  string
	isInternal bool
}

// Reconstruct merges all fragments of one call into chronological turns.
// A new turn starts whenever the speaker id changes, including a change to a
// speaker whose sentences are all blank; turns left without text are dropped.
func Reconstruct(fragments []types.Monologue, speakers []types.ProcessedSpeaker) []types.Turn {
	byID := make(map[string]speakerInfo, len(speakers))
	for _, s := range speakers {
		if s.SpeakerID == "" {
			continue
		}
		byID[s.SpeakerID] = speakerInfo{
			firstName:  s.FirstName,
			isInternal: s.Affiliation == types.AffiliationInternal,
		}
	}

	var sentences []sentence
	for _, frag := range fragments {
		for _, s := range frag.Sentences {
			sentences = append(sentences, sentence{speakerID: frag.SpeakerID, start: s.Start, text: strings.TrimSpace(s.Text)})
		}
	}
	sort.SliceStable(sentences, func(i, j int) bool { return sentences[i].start < sentences[j].start })

	var (
		turns []types.Turn
		parts []string
		open  bool
	)
	flush := func() {
		if open && len(parts) > 0 {
			turns[len(turns)-1].Text = strings.Join(parts, " ")
		}
		parts = parts[:0]
		open = false
	}
	for i, s := range sentences {
		if i > 0 && s.speakerID != sentences[i-1].speakerID {
			flush()
		}
		if s.text == "" {
			continue
		}
		if !open {
			info, ok := byID[s.speakerID]
			if !ok || info.firstName == "" {
				info.firstName = unknownSpeaker
			}
			turns = append(turns, types.Turn{
				SpeakerID:   s.speakerID,
				DisplayName: info.firstName,
				IsInternal:  ok && info.isInternal,
				Timestamp:   FormatTimestamp(s.start),
				StartMs:     s.start,
			})
			open = true
		}
		parts = append(parts, s.text)
	}
	flush()
	return turns
}

// FormatTimestamp renders an offset in ms as M:SS. Minutes are not wrapped into hours.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// IsFiller reports whether a turn carries no content worth exporting.
func IsFiller(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minTurnChars {
		return true
	}
	return fillerPattern.MatchString(trimmed)
}

// RemoveFiller drops short turns and bare greetings/acknowledgements.
func RemoveFiller(turns []types.Turn) []types.Turn {
	out := make([]types.Turn, 0, len(turns))
	for _, t := range turns {
		if !IsFiller(t.Text) {
			out = append(out, t)
		}
	}
	return out
}

// CondenseInternal merges runs of three or more consecutive turns from the
// same internal speaker into one turn that keeps the first timestamp.
func CondenseInternal(turns []types.Turn) []types.Turn {
	out := make([]types.Turn, 0, len(turns))
	for i := 0; i < len(turns); {
		turn := turns[i]
		if !turn.IsInternal {
			out = append(out, turn)
			i++
			continue
		}
		j := i + 1
		for j < len(turns) && turns[j].IsInternal && turns[j].SpeakerID == turn.SpeakerID {
			j++
		}
		if j-i < minCondenseRun {
			out = append(out, turns[i:j]...)
			i = j
			continue
		}
		texts := make([]string, 0, j-i)
		for _, t := range turns[i:j] {
			texts = append(texts, t.Text)
		}
		turn.Text = strings.Join(texts, " ")
		out = append(out, turn)
		i = j
	}
	return out
}

// Apply runs the requested passes: filler removal first, then condensation.
func Apply(turns []types.Turn, opts types.ExportOptions) []types.Turn {
	if opts.RemoveFiller {
		turns = RemoveFiller(turns)
	}
	if opts.CondenseInternal {
		turns = CondenseInternal(turns)
	}
	return turns
}

// RenderText returns the turn text as exported: external speakers in upper case.
func RenderText(t types.Turn) string {
	if t.IsInternal {
		return t.Text
	}
	return cases.Upper(language.Und).String(t.Text)
}

// Header is the "M:SS | Name [I]" line that precedes a turn.
func Header(t types.Turn) string {
	tag := types.AffiliationExternal.Tag()
	if t.IsInternal {
		tag = types.AffiliationInternal.Tag()
	}
	return fmt.Sprintf("%s | %s [%s]", t.Timestamp, t.DisplayName, tag)
}

// TranscriptLines flattens turns into header, text and blank lines.
func TranscriptLines(turns []types.Turn) []string {
	lines := make([]string, 0, len(turns)*3)
	for _, t := range turns {
		lines = append(lines, Header(t), RenderText(t), "")
	}
	return lines
}

// SpeakerLines lists speakers that can appear in a transcript as "Name [I]: Title".
func SpeakerLines(speakers []types.ProcessedSpeaker) []string {
	lines := make([]string, 0, len(speakers))
	for _, s := range speakers {
		if s.SpeakerID == "" {
			continue
		}
		name := s.Name
		if name == "" {
			name = unknownSpeaker
		}
		line := fmt.Sprintf("%s [%s]", name, s.Affiliation.Tag())
		if s.Title != "" {
			line += ": " + s.Title
		}
		lines = append(lines, line)
	}
	return lines
}
