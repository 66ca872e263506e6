package types

type Affiliation string

const (
	AffiliationInternal Affiliation = "internal"
	AffiliationExternal Affiliation = "external"
)

// Tag is the one-letter label used in exports.
func (a Affiliation) Tag() string {
	if a == AffiliationInternal {
		return "I"
	}
	return "E"
}

type ProcessedCall struct {
	ID                string              `json:"id"`
	Title             string              `json:"title"`
	Date              string              `json:"date"`
	DateRaw           string              `json:"dateRaw"`
	Duration          int64               `json:"duration"`
	DurationFormatted string              `json:"durationFormatted"`
	URL               string              `json:"url"`
	Direction         string              `json:"direction"`
	AccountName       string              `json:"accountName"`
	AccountIndustry   string              `json:"accountIndustry"`
	AccountWebsite    string              `json:"accountWebsite"`
	Speakers          []ProcessedSpeaker  `json:"speakers"`
	InternalCount     int                 `json:"internalCount"`
	ExternalCount     int                 `json:"externalCount"`
	Topics            []string            `json:"topics"`
	Trackers          []ProcessedTracker  `json:"trackers"`
	Brief             string              `json:"brief"`
	KeyPoints         []string            `json:"keyPoints"`
	ActionItems       []string            `json:"actionItems"`
	InteractionStats  *InteractionSummary `json:"interactionStats"`
	DetailAvailable   bool                `json:"detailAvailable"`
	Selected          bool                `json:"selected"`
}

type ProcessedSpeaker struct {
	SpeakerID   string      `json:"speakerId"`
	Name        string      `json:"name"`
	FirstName   string      `json:"firstName"`
	Title       string      `json:"title"`
	Email       string      `json:"email"`
	Affiliation Affiliation `json:"affiliation"`
}

type ProcessedTracker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// InteractionSummary fields are nil when upstream did not report them.
type InteractionSummary struct {
	TalkRatio        *float64 `json:"talkRatio"`
	LongestMonologue *float64 `json:"longestMonologue"`
	Patience         *float64 `json:"patience"`
}

// Any reports whether at least one stat is present.
func (s *InteractionSummary) Any() bool {
	return s != nil && (s.TalkRatio != nil || s.LongestMonologue != nil || s.Patience != nil)
}

// Turn is a contiguous run of sentences from one speaker.
type Turn struct {
	SpeakerID   string `json:"speakerId"`
	DisplayName string `json:"displayName"`
	IsInternal  bool   `json:"isInternal"`
	Timestamp   string `json:"timestamp"`
	StartMs     int64  `json:"startMs"`
	Text        string `json:"text"`
}

type ExportFormat string

const (
	FormatMarkdown ExportFormat = "markdown"
	FormatXML      ExportFormat = "xml"
	FormatJSONL    ExportFormat = "jsonl"
)

type ExportOptions struct {
	Format                  ExportFormat `json:"format" yaml:"format" validate:"oneof=markdown xml jsonl"`
	RemoveFiller            bool         `json:"removeFiller" yaml:"remove_filler"`
	CondenseInternal        bool         `json:"condenseInternal" yaml:"condense_internal"`
	IncludeMetadata         bool         `json:"includeMetadata" yaml:"include_metadata"`
	IncludeAIBrief          bool         `json:"includeAiBrief" yaml:"include_ai_brief"`
	IncludeInteractionStats bool         `json:"includeInteractionStats" yaml:"include_interaction_stats"`
}

// DefaultExportOptions matches the defaults of the export dialog.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:                  FormatMarkdown,
		RemoveFiller:            true,
		CondenseInternal:        true,
		IncludeMetadata:         true,
		IncludeAIBrief:          true,
		IncludeInteractionStats: true,
	}
}

type ExportResult struct {
	Content       string `json:"content"`
	Filename      string `json:"filename"`
	TokenEstimate int    `json:"tokenEstimate"`
	ContextFit    string `json:"contextFit"`
}

type ConnectResult struct {
	Users           []User      `json:"users"`
	Trackers        []Tracker   `json:"trackers"`
	Workspaces      []Workspace `json:"workspaces"`
	InternalDomains []string    `json:"internalDomains"`
	BaseURL         string      `json:"baseUrl"`
	Warnings        []string    `json:"warnings,omitempty"`
}
