// internal/types/gong.go
package types

import (
	"encoding/json"
	"strings"
)

// --------------------------------------------
// Roster / settings
// --------------------------------------------
type User struct {
	ID           string `json:"id"`
	EmailAddress string `json:"emailAddress"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Title        string `json:"title"`
	Active       bool   `json:"active"`
	Created      string `json:"created,omitempty"`
}

type Tracker struct {
	TrackerID   string `json:"trackerId"`
	TrackerName string `json:"trackerName"`
}

type Workspace struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// --------------------------------------------
// Call list (summary) and extensive (detail)
// --------------------------------------------
type CallMetaData struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	Started       string `json:"started"`
	Duration      int64  `json:"duration"`
	PrimaryUserID string `json:"primaryUserId,omitempty"`
	Direction     string `json:"direction,omitempty"`
	Scope         string `json:"scope,omitempty"`
	Media         string `json:"media,omitempty"`
	Language      string `json:"language,omitempty"`
	WorkspaceID   string `json:"workspaceId,omitempty"`
	MeetingURL    string `json:"meetingUrl,omitempty"`
	IsPrivate     bool   `json:"isPrivate,omitempty"`
	System        string `json:"system,omitempty"`
}

type Call struct {
	MetaData    CallMetaData    `json:"metaData"`
	Parties     []Party         `json:"parties,omitempty"`
	Content     *CallContent    `json:"content,omitempty"`
	Context     []ContextObject `json:"context,omitempty"`
	Interaction *Interaction    `json:"interaction,omitempty"`
}

type Party struct {
	SpeakerID    string          `json:"speakerId"`
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	EmailAddress string          `json:"emailAddress"`
	Affiliation  string          `json:"affiliation"` // Internal, External, Unknown
	PhoneNumber  string          `json:"phoneNumber,omitempty"`
	UserID       string          `json:"userId,omitempty"`
	Context      []ContextObject `json:"context,omitempty"`
	Methods      []string        `json:"methods,omitempty"`
}

// ContextObject is the CRM context tree attached to calls and parties.
// The top level holds a system with objects; objects hold fields.
type ContextObject struct {
	System     string          `json:"system,omitempty"`
	ObjectType string          `json:"objectType,omitempty"`
	ObjectID   any             `json:"objectId,omitempty"`
	Fields     []ContextField  `json:"fields,omitempty"`
	Objects    []ContextObject `json:"objects,omitempty"`
}

type ContextField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type CallContent struct {
	Topics      []TextItem       `json:"topics,omitempty"`
	Trackers    []ContentTracker `json:"trackers,omitempty"`
	Brief       string           `json:"brief,omitempty"`
	KeyPoints   []TextItem       `json:"keyPoints,omitempty"`
	ActionItems []TextItem       `json:"actionItems,omitempty"`
	Outline     json.RawMessage  `json:"outline,omitempty"`
}

type ContentTracker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Interaction carries talk stats either as flat fields or as a named list,
// depending on the API version that produced the payload.
type Interaction struct {
	TalkRatio        *float64          `json:"talkRatio,omitempty"`
	Interactivity    *float64          `json:"interactivity,omitempty"`
	LongestMonologue *LongestMonologue `json:"longestMonologue,omitempty"`
	Patience         *float64          `json:"patience,omitempty"`
	InteractionStats []NamedStat       `json:"interactionStats,omitempty"`
}

type LongestMonologue struct {
	Duration  float64 `json:"duration"`
	SpeakerID string  `json:"speakerId,omitempty"`
}

type NamedStat struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TextItem accepts a bare string or an object with text, snippet or name.
type TextItem string

func (t *TextItem) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = TextItem(s)
		return nil
	}
	var obj struct {
		Text    string `json:"text"`
		Snippet string `json:"snippet"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		// null and unexpected shapes decode to empty
		*t = ""
		return nil
	}
	switch {
	case obj.Text != "":
		*t = TextItem(obj.Text)
	case obj.Snippet != "":
		*t = TextItem(obj.Snippet)
	default:
		*t = TextItem(obj.Name)
	}
	return nil
}

func (t TextItem) String() string { return strings.TrimSpace(string(t)) }

// --------------------------------------------
// Transcripts
// --------------------------------------------
type Monologue struct {
	SpeakerID string     `json:"speakerId"`
	Topic     string     `json:"topic,omitempty"`
	Sentences []Sentence `json:"sentences"`
}

type Sentence struct {
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

type CallTranscript struct {
	CallID     string      `json:"callId"`
	Transcript []Monologue `json:"transcript"`
}
