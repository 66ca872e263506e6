package gong

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"gong-export-go/internal/types"
)

const (
	usersPath      = "/v2/users"
	trackersPath   = "/v2/settings/trackers"
	workspacesPath = "/v2/workspaces"
	callsPath      = "/v2/calls"
	extensivePath  = "/v2/calls/extensive"
	transcriptPath = "/v2/calls/transcript"

	detailBatchSize     = 10
	transcriptBatchSize = 50
)

// CallQuery selects calls by start time. To is exclusive upstream.
type CallQuery struct {
	From        time.Time
	To          time.Time
	WorkspaceID string
}

type callFilter struct {
	CallIDs []string `json:"callIds"`
}

type exposedContent struct {
	Topics      bool `json:"topics"`
	Trackers    bool `json:"trackers"`
	Brief       bool `json:"brief"`
	KeyPoints   bool `json:"keyPoints"`
	ActionItems bool `json:"actionItems"`
	Highlights  bool `json:"highlights"`
	Outline     bool `json:"outline"`
	Structure   bool `json:"structure"`
}

type exposedInteraction struct {
	Speakers          bool `json:"speakers"`
	PersonInteraction bool `json:"personInteractionStats"`
	Questions         bool `json:"questions"`
}

type exposedFields struct {
	Parties     bool               `json:"parties"`
	Content     exposedContent     `json:"content"`
	Interaction exposedInteraction `json:"interaction"`
}

type contentSelector struct {
	Context       string        `json:"context"`
	ExposedFields exposedFields `json:"exposedFields"`
}

type batchRequest struct {
	Filter          callFilter       `json:"filter"`
	ContentSelector *contentSelector `json:"contentSelector,omitempty"`
	Cursor          string           `json:"cursor,omitempty"`
}

func extensiveSelector() *contentSelector {
	s := &contentSelector{Context: "Extended"}
	s.ExposedFields.Parties = true
	s.ExposedFields.Content = exposedContent{
		Topics: true, Trackers: true, Brief: true, KeyPoints: true,
		ActionItems: true, Highlights: true, Outline: true, Structure: true,
	}
	s.ExposedFields.Interaction.PersonInteraction = true
	return s
}

func cursorQuery(cursor string) url.Values {
	if cursor == "" {
		return nil
	}
	return url.Values{"cursor": {cursor}}
}

// FetchUsers returns the whole company roster.
func (c *Client) FetchUsers(ctx context.Context) ([]types.User, error) {
	p := &pacer{delay: c.delay}
	return paginate(ctx, p, func(ctx context.Context, cursor string) ([]types.User, string, error) {
		var page struct {
			Users   []types.User `json:"users"`
			Records records      `json:"records"`
		}
		if err := c.do(ctx, http.MethodGet, usersPath, cursorQuery(cursor), nil, &page); err != nil {
			return nil, "", err
		}
		return page.Users, page.Records.Cursor, nil
	})
}

func (c *Client) FetchTrackers(ctx context.Context) ([]types.Tracker, error) {
	p := &pacer{delay: c.delay}
	return paginate(ctx, p, func(ctx context.Context, cursor string) ([]types.Tracker, string, error) {
		var page struct {
			Trackers []types.Tracker `json:"trackers"`
			Records  records         `json:"records"`
		}
		if err := c.do(ctx, http.MethodGet, trackersPath, cursorQuery(cursor), nil, &page); err != nil {
			return nil, "", err
		}
		return page.Trackers, page.Records.Cursor, nil
	})
}

func (c *Client) FetchWorkspaces(ctx context.Context) ([]types.Workspace, error) {
	p := &pacer{delay: c.delay}
	return paginate(ctx, p, func(ctx context.Context, cursor string) ([]types.Workspace, string, error) {
		var page struct {
			Workspaces []types.Workspace `json:"workspaces"`
			Records    records           `json:"records"`
		}
		if err := c.do(ctx, http.MethodGet, workspacesPath, cursorQuery(cursor), nil, &page); err != nil {
			return nil, "", err
		}
		return page.Workspaces, page.Records.Cursor, nil
	})
}

// FetchCallList lists call summaries started inside q. No calls is not an
// error.
func (c *Client) FetchCallList(ctx context.Context, q CallQuery) ([]types.CallMetaData, error) {
	p := &pacer{delay: c.delay}
	calls, err := paginate(ctx, p, func(ctx context.Context, cursor string) ([]types.CallMetaData, string, error) {
		v := url.Values{}
		if !q.From.IsZero() {
			v.Set("fromDateTime", q.From.Format(time.RFC3339))
		}
		if !q.To.IsZero() {
			v.Set("toDateTime", q.To.Format(time.RFC3339))
		}
		if q.WorkspaceID != "" {
			v.Set("workspaceId", q.WorkspaceID)
		}
		if cursor != "" {
			v.Set("cursor", cursor)
		}
		var page struct {
			Calls   []types.CallMetaData `json:"calls"`
			Records records              `json:"records"`
		}
		if err := c.do(ctx, http.MethodGet, callsPath, v, nil, &page); err != nil {
			return nil, "", err
		}
		return page.Calls, page.Records.Cursor, nil
	})
	if err != nil {
		return nil, err
	}
	c.log.WithField("calls", len(calls)).Debug("call list fetched")
	return calls, nil
}

// FetchCallDetails loads extensive records in batches of ten. Any failure,
// including a 403 on a later batch, discards everything fetched so far.
func (c *Client) FetchCallDetails(ctx context.Context, ids []string) ([]types.Call, error) {
	p := &pacer{delay: c.delay}
	selector := extensiveSelector()
	var out []types.Call
	for i, batch := range batches(ids, detailBatchSize) {
		calls, err := paginate(ctx, p, func(ctx context.Context, cursor string) ([]types.Call, string, error) {
			var page struct {
				Calls   []types.Call `json:"calls"`
				Records records      `json:"records"`
			}
			req := batchRequest{Filter: callFilter{CallIDs: batch}, ContentSelector: selector, Cursor: cursor}
			if err := c.do(ctx, http.MethodPost, extensivePath, nil, req, &page); err != nil {
				return nil, "", err
			}
			return page.Calls, page.Records.Cursor, nil
		})
		if err != nil {
			c.log.WithError(err).WithField("batch", i).Warn("call detail batch failed")
			return nil, err
		}
		out = append(out, calls...)
	}
	return out, nil
}

// FetchTranscripts loads transcripts in batches of fifty and accumulates
// monologues per call id across batches and pages.
func (c *Client) FetchTranscripts(ctx context.Context, ids []string) (map[string][]types.Monologue, error) {
	p := &pacer{delay: c.delay}
	out := make(map[string][]types.Monologue, len(ids))
	for i, batch := range batches(ids, transcriptBatchSize) {
		pages, err := paginate(ctx, p, func(ctx context.Context, cursor string) ([]types.CallTranscript, string, error) {
			var page struct {
				CallTranscripts []types.CallTranscript `json:"callTranscripts"`
				Records         records                `json:"records"`
			}
			req := batchRequest{Filter: callFilter{CallIDs: batch}, Cursor: cursor}
			if err := c.do(ctx, http.MethodPost, transcriptPath, nil, req, &page); err != nil {
				return nil, "", err
			}
			return page.CallTranscripts, page.Records.Cursor, nil
		})
		if err != nil {
			return nil, err
		}
		for _, ct := range pages {
			if ct.CallID == "" {
				continue
			}
			out[ct.CallID] = append(out[ct.CallID], ct.Transcript...)
		}
		c.log.WithFields(logrus.Fields{"batch": i, "calls": len(batch)}).Debug("transcript batch fetched")
	}
	return out, nil
}
