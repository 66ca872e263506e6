package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gong-export-go/internal/aggregator"
	"gong-export-go/internal/gong"
	"gong-export-go/internal/logger"
	"gong-export-go/internal/types"
)

type fakeUpstream struct {
	mu sync.Mutex

	users       []types.User
	usersErr    error
	trackers    []types.Tracker
	trackersErr error
	workspaces  []types.Workspace
	wsErr       error

	summaries   []types.CallMetaData
	listErr     error
	details     []types.Call
	detailsErr  error
	transcripts map[string][]types.Monologue
	transErr    error

	transcriptIDs []string
	lastQuery     gong.CallQuery
}

func (f *fakeUpstream) FetchUsers(context.Context) ([]types.User, error) {
	return f.users, f.usersErr
}

func (f *fakeUpstream) FetchTrackers(context.Context) ([]types.Tracker, error) {
	return f.trackers, f.trackersErr
}

func (f *fakeUpstream) FetchWorkspaces(context.Context) ([]types.Workspace, error) {
	return f.workspaces, f.wsErr
}

func (f *fakeUpstream) FetchCallList(_ context.Context, q gong.CallQuery) ([]types.CallMetaData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	return f.summaries, f.listErr
}

func (f *fakeUpstream) FetchCallDetails(_ context.Context, ids []string) ([]types.Call, error) {
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return f.details, nil
}

func (f *fakeUpstream) FetchTranscripts(_ context.Context, ids []string) (map[string][]types.Monologue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcriptIDs = append([]string(nil), ids...)
	return f.transcripts, f.transErr
}

func (f *fakeUpstream) BaseURL() string { return "https://api.gong.io" }

var (
	authErr        = &gong.Error{Kind: gong.KindAuth, Status: http.StatusUnauthorized, Endpoint: "/v2/settings/trackers"}
	entitlementErr = &gong.Error{Kind: gong.KindEntitlement, Status: http.StatusForbidden, Endpoint: "/v2/calls/extensive"}
	serverErr      = &gong.Error{Kind: gong.KindUpstream, Status: http.StatusBadGateway, Endpoint: "/v2/users"}
)

func TestConnect(t *testing.T) {
	up := &fakeUpstream{
		users:      []types.User{{ID: "1", EmailAddress: "ann@acme.com"}, {ID: "2", EmailAddress: "bo@Acme.io"}},
		trackers:   []types.Tracker{{TrackerID: "t1", TrackerName: "Pricing"}},
		workspaces: []types.Workspace{{ID: "w1", Name: "Sales"}},
	}

	s, err := Connect(context.Background(), up, logger.Discard())
	require.NoError(t, err)

	res := s.Result()
	assert.Equal(t, []string{"acme.com", "acme.io"}, res.InternalDomains)
	assert.Len(t, res.Users, 2)
	assert.Len(t, res.Trackers, 1)
	assert.Len(t, res.Workspaces, 1)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "https://api.gong.io", res.BaseURL)
}

func TestConnectDegradesOptionalLists(t *testing.T) {
	up := &fakeUpstream{
		usersErr:    serverErr,
		trackersErr: errors.New("dial tcp: timeout"),
		workspaces:  []types.Workspace{{ID: "w1"}},
	}

	s, err := Connect(context.Background(), up, nil)
	require.NoError(t, err)

	res := s.Result()
	assert.Equal(t, []types.User{}, res.Users)
	assert.Equal(t, []types.Tracker{}, res.Trackers)
	assert.Equal(t, []string{}, res.InternalDomains)
	assert.ElementsMatch(t, []string{WarnUsers, WarnTrackers}, res.Warnings)
}

func TestConnectAuthIsFatal(t *testing.T) {
	up := &fakeUpstream{trackersErr: authErr, usersErr: serverErr}

	s, err := Connect(context.Background(), up, nil)

	assert.Nil(t, s)
	require.Error(t, err)
	assert.True(t, gong.IsAuth(err))
}

func summaries(n int) []types.CallMetaData {
	out := make([]types.CallMetaData, n)
	for i := range out {
		out[i] = types.CallMetaData{ID: fmt.Sprintf("c%02d", i), Title: fmt.Sprintf("Call %d", i), Duration: 60}
	}
	return out
}

func TestLoadCallsEntitlementFallback(t *testing.T) {
	up := &fakeUpstream{summaries: summaries(15), detailsErr: entitlementErr}
	s := NewSession(up, []string{"acme.com"}, nil)

	res, err := s.LoadCalls(context.Background(), gong.CallQuery{})
	require.NoError(t, err)

	require.Len(t, res.Calls, 15)
	assert.Equal(t, []string{WarnDetails}, res.Warnings)
	for i, c := range res.Calls {
		assert.Equal(t, fmt.Sprintf("c%02d", i), c.ID)
		assert.False(t, c.DetailAvailable)
		assert.Equal(t, []string{}, c.Topics)
		assert.Equal(t, []types.ProcessedTracker{}, c.Trackers)
		assert.Equal(t, "", c.Brief)
		assert.Nil(t, c.InteractionStats)
	}
}

func TestLoadCallsEnrichesAndClassifies(t *testing.T) {
	up := &fakeUpstream{
		summaries: summaries(2),
		details: []types.Call{{
			MetaData: types.CallMetaData{ID: "c01", Title: "Renewal"},
			Parties: []types.Party{
				{SpeakerID: "s1", Name: "Ann", EmailAddress: "ann@acme.com"},
				{SpeakerID: "s2", Name: "Cy", EmailAddress: "cy@client.com"},
			},
		}},
	}
	s := NewSession(up, []string{"acme.com"}, nil)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	q := gong.CallQuery{From: from, To: from.AddDate(0, 0, 7), WorkspaceID: "w1"}

	res, err := s.LoadCalls(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, q, up.lastQuery)
	require.Len(t, res.Calls, 2)
	assert.False(t, res.Calls[0].DetailAvailable)
	assert.Equal(t, "Renewal", res.Calls[1].Title)
	assert.Equal(t, 1, res.Calls[1].InternalCount)
	assert.Equal(t, 1, res.Calls[1].ExternalCount)
	assert.Empty(t, res.Warnings)
}

func TestLoadCallsErrors(t *testing.T) {
	s := NewSession(&fakeUpstream{listErr: authErr}, nil, nil)
	_, err := s.LoadCalls(context.Background(), gong.CallQuery{})
	assert.True(t, gong.IsAuth(err))

	s = NewSession(&fakeUpstream{summaries: summaries(1), detailsErr: serverErr}, nil, nil)
	_, err = s.LoadCalls(context.Background(), gong.CallQuery{})
	assert.Equal(t, http.StatusBadGateway, gong.StatusOf(err))

	now := time.Now()
	_, err = s.LoadCalls(context.Background(), gong.CallQuery{From: now, To: now})
	assert.ErrorContains(t, err, "invalid date range")
}

func TestLoadCallsEmpty(t *testing.T) {
	s := NewSession(&fakeUpstream{}, nil, nil)
	res, err := s.LoadCalls(context.Background(), gong.CallQuery{})
	require.NoError(t, err)
	assert.Equal(t, []types.ProcessedCall{}, res.Calls)
}

func monologue(speaker string, start int64, text string) types.Monologue {
	return types.Monologue{SpeakerID: speaker, Sentences: []types.Sentence{{Start: start, End: start + 500, Text: text}}}
}

func scenarioCall() types.ProcessedCall {
	return types.ProcessedCall{
		ID:    "c1",
		Title: "Scenario",
		Speakers: []types.ProcessedSpeaker{
			{SpeakerID: "i", Name: "Ivy Insider", FirstName: "Ivy", Affiliation: types.AffiliationInternal},
			{SpeakerID: "e", Name: "Ed Outsider", FirstName: "Ed", Affiliation: types.AffiliationExternal},
		},
		AccountName: "Customer Corp",
	}
}

func TestExportScenario(t *testing.T) {
	up := &fakeUpstream{transcripts: map[string][]types.Monologue{"c1": {
		monologue("e", 0, "hi"),
		monologue("i", 1000, "Let's start"),
		monologue("e", 9000, "ok thanks"),
		monologue("i", 2000, "Second point"),
		monologue("i", 3000, "Third point"),
	}}}
	s := NewSession(up, nil, nil)
	opts := types.ExportOptions{Format: types.FormatMarkdown, RemoveFiller: true, CondenseInternal: true, IncludeMetadata: false}

	res, err := s.Export(context.Background(), []types.ProcessedCall{scenarioCall(), {ID: "c2", Title: "Silent"}}, opts, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2"}, up.transcriptIDs)
	assert.Contains(t, res.Content, "0:01 | Ivy [I]\nLet's start Second point Third point\n")
	assert.NotContains(t, res.Content, "| Ed [E]")
	assert.NotContains(t, res.Content, "Customer Corp")
	assert.Equal(t, 1, strings.Count(res.Content, "_No transcript available._"))
	assert.Equal(t, "gong-transcripts-2calls-2025-03-10.md", res.Filename)
}

func TestExportTranscriptFailureIsFatal(t *testing.T) {
	s := NewSession(&fakeUpstream{transErr: serverErr}, nil, nil)
	_, err := s.Export(context.Background(), []types.ProcessedCall{{ID: "c1"}}, types.DefaultExportOptions(), time.Now())
	assert.ErrorContains(t, err, "fetch transcripts")
}

func TestExportWithoutCallsSkipsUpstream(t *testing.T) {
	up := &fakeUpstream{transErr: serverErr}
	s := NewSession(up, nil, nil)
	res, err := s.Export(context.Background(), nil, types.DefaultExportOptions(), time.Now())
	require.NoError(t, err)
	assert.Nil(t, up.transcriptIDs)
	assert.Contains(t, res.Content, "Total Calls: 0")
}

func TestRun(t *testing.T) {
	up := &fakeUpstream{
		users:       []types.User{{EmailAddress: "ann@acme.com"}},
		trackersErr: serverErr,
		summaries:   summaries(3),
		detailsErr:  entitlementErr,
		transcripts: map[string][]types.Monologue{"c01": {monologue("x", 0, "Unknown speaker talking")}},
	}
	opts := types.DefaultExportOptions()
	opts.Format = types.FormatJSONL

	res, err := Run(context.Background(), up, Request{
		Filter:  aggregator.Filter{IDs: []string{"c01", "c02"}},
		Options: opts,
		Now:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}, logger.Discard())
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Calls)
	require.Len(t, res.Selected, 2)
	assert.Equal(t, 2, res.Insight.Calls)
	assert.Equal(t, []string{WarnTrackers, WarnDetails}, res.Warnings)
	assert.Equal(t, "gong-transcripts-2calls-2025-03-10.jsonl", res.Export.Filename)
	assert.Contains(t, res.Export.Content, "0:00 | Unknown [E]")
	assert.Contains(t, res.Export.Content, "UNKNOWN SPEAKER TALKING")
	assert.Equal(t, 2, strings.Count(res.Export.Content, "\n"))
}

func TestRunNothingSelected(t *testing.T) {
	up := &fakeUpstream{summaries: summaries(2)}
	_, err := Run(context.Background(), up, Request{
		Filter:  aggregator.Filter{Search: "no such call"},
		Options: types.DefaultExportOptions(),
		RunID:   "fixed",
	}, nil)
	assert.ErrorIs(t, err, ErrNoCalls)
}

func TestRunAuthFailure(t *testing.T) {
	_, err := Run(context.Background(), &fakeUpstream{usersErr: authErr}, Request{Options: types.DefaultExportOptions()}, nil)
	assert.True(t, gong.IsAuth(err))
}
