// Package pipeline sequences one export run: connect, load and normalize
// calls, fetch transcripts, reconstruct turns and render the document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"gong-export-go/internal/aggregator"
	"gong-export-go/internal/export"
	"gong-export-go/internal/gong"
	"gong-export-go/internal/logger"
	"gong-export-go/internal/processor"
	"gong-export-go/internal/speaker"
	"gong-export-go/internal/transcript"
	"gong-export-go/internal/types"
)

const (
	WarnUsers      = "Failed to fetch users. Speaker classification may be limited."
	WarnTrackers   = "Failed to fetch trackers."
	WarnWorkspaces = "Failed to fetch workspaces."
	WarnDetails    = "Detailed call data is unavailable for this credential (403). Showing summary data only."
)

// Upstream is the data source a run reads from. *gong.Client satisfies it.
type Upstream interface {
	FetchUsers(ctx context.Context) ([]types.User, error)
	FetchTrackers(ctx context.Context) ([]types.Tracker, error)
	FetchWorkspaces(ctx context.Context) ([]types.Workspace, error)
	FetchCallList(ctx context.Context, q gong.CallQuery) ([]types.CallMetaData, error)
	FetchCallDetails(ctx context.Context, ids []string) ([]types.Call, error)
	FetchTranscripts(ctx context.Context, ids []string) (map[string][]types.Monologue, error)
	BaseURL() string
}

var _ Upstream = (*gong.Client)(nil)

// Session carries what connect learned about the organization into the
// later steps of the same run.
type Session struct {
	upstream Upstream
	log      *logger.Logger

	Users      []types.User
	Trackers   []types.Tracker
	Workspaces []types.Workspace
	Domains    speaker.DomainSet
	Warnings   []string
}

// NewSession resumes from domains captured by an earlier Connect.
func NewSession(up Upstream, domains []string, log *logger.Logger) *Session {
	return &Session{
		upstream:   up,
		log:        componentLogger(log),
		Users:      []types.User{},
		Trackers:   []types.Tracker{},
		Workspaces: []types.Workspace{},
		Domains:    speaker.NewDomainSet(domains...),
	}
}

func componentLogger(log *logger.Logger) *logger.Logger {
	if log == nil {
		log = logger.Discard()
	}
	return log.Component("pipeline")
}

// Connect loads users, trackers and workspaces concurrently. A failed list
// becomes empty with a warning; a 401 from any of them fails the step.
func Connect(ctx context.Context, up Upstream, log *logger.Logger) (*Session, error) {
	s := NewSession(up, nil, log)

	var (
		g                         errgroup.Group
		usersErr, trackErr, wsErr error
	)
	g.Go(func() error {
		s.Users, usersErr = up.FetchUsers(ctx)
		return authOnly(usersErr)
	})
	g.Go(func() error {
		s.Trackers, trackErr = up.FetchTrackers(ctx)
		return authOnly(trackErr)
	})
	g.Go(func() error {
		s.Workspaces, wsErr = up.FetchWorkspaces(ctx)
		return authOnly(wsErr)
	})
	if err := g.Wait(); err != nil {
		s.log.WithError(err).Warn("connect rejected")
		return nil, fmt.Errorf("connect: %w", err)
	}

	degrade(s, usersErr, &s.Users, WarnUsers, "users")
	degrade(s, trackErr, &s.Trackers, WarnTrackers, "trackers")
	degrade(s, wsErr, &s.Workspaces, WarnWorkspaces, "workspaces")
	s.Domains = speaker.BuildDomainSet(s.Users)

	s.log.WithFields(logrus.Fields{
		"users":      len(s.Users),
		"trackers":   len(s.Trackers),
		"workspaces": len(s.Workspaces),
		"domains":    len(s.Domains),
		"warnings":   len(s.Warnings),
	}).Info("connected")
	return s, nil
}

func authOnly(err error) error {
	if gong.IsAuth(err) {
		return err
	}
	return nil
}

// degrade swaps a failed optional list for an empty one and records why.
func degrade[T any](s *Session, err error, list *[]T, warning, what string) {
	if err == nil {
		*list = nonNil(*list)
		return
	}
	s.log.WithError(err).WithField("list", what).Warn("optional list unavailable")
	s.Warnings = append(s.Warnings, warning)
	*list = []T{}
}

// Result is the connect outcome as handed to callers.
func (s *Session) Result() types.ConnectResult {
	return types.ConnectResult{
		Users:           nonNil(s.Users),
		Trackers:        nonNil(s.Trackers),
		Workspaces:      nonNil(s.Workspaces),
		InternalDomains: s.Domains.List(),
		BaseURL:         s.upstream.BaseURL(),
		Warnings:        s.Warnings,
	}
}

type LoadResult struct {
	Calls    []types.ProcessedCall `json:"calls"`
	Warnings []string              `json:"warnings,omitempty"`
}

// LoadCalls lists calls in q and enriches them with details. A 403 on
// details falls back to summary data for every call.
func (s *Session) LoadCalls(ctx context.Context, q gong.CallQuery) (LoadResult, error) {
	if !q.From.IsZero() && !q.To.IsZero() && !q.From.Before(q.To) {
		return LoadResult{}, fmt.Errorf("invalid date range: %s is not before %s", q.From.Format(time.RFC3339), q.To.Format(time.RFC3339))
	}
	res := LoadResult{Calls: []types.ProcessedCall{}}

	summaries, err := s.upstream.FetchCallList(ctx, q)
	if err != nil {
		return res, fmt.Errorf("fetch call list: %w", err)
	}
	if len(summaries) == 0 {
		s.log.Info("no calls in range")
		return res, nil
	}

	ids := make([]string, 0, len(summaries))
	for _, c := range summaries {
		if c.ID != "" {
			ids = append(ids, c.ID)
		}
	}

	details, err := s.upstream.FetchCallDetails(ctx, ids)
	switch {
	case gong.IsEntitlement(err):
		s.log.WithError(err).Warn("call details forbidden, using summaries only")
		res.Warnings = append(res.Warnings, WarnDetails)
		details = nil
	case err != nil:
		return res, fmt.Errorf("fetch call details: %w", err)
	}

	res.Calls = processor.NormalizeAll(summaries, details, s.Domains)
	s.log.WithFields(logrus.Fields{"calls": len(res.Calls), "details": len(details)}).Info("calls loaded")
	return res, nil
}

// Export fetches transcripts for calls, rebuilds turns and renders the
// document. A transcript failure aborts the export.
func (s *Session) Export(ctx context.Context, calls []types.ProcessedCall, opts types.ExportOptions, now time.Time) (types.ExportResult, error) {
	turns := make(map[string][]types.Turn, len(calls))
	if len(calls) > 0 {
		ids := make([]string, 0, len(calls))
		for _, c := range calls {
			ids = append(ids, c.ID)
		}
		fragments, err := s.upstream.FetchTranscripts(ctx, ids)
		if err != nil {
			return types.ExportResult{}, fmt.Errorf("fetch transcripts: %w", err)
		}
		for _, c := range calls {
			if frags, ok := fragments[c.ID]; ok {
				turns[c.ID] = transcript.Reconstruct(frags, c.Speakers)
			}
		}
		s.log.WithFields(logrus.Fields{"calls": len(calls), "with_transcript": len(turns)}).Info("transcripts reconstructed")
	}

	res, err := export.Generate(calls, turns, opts, now)
	if err != nil {
		return types.ExportResult{}, err
	}
	s.log.WithFields(logrus.Fields{
		"format":   opts.Format,
		"filename": res.Filename,
		"tokens":   res.TokenEstimate,
	}).Info("export generated")
	return res, nil
}

// Request describes one end-to-end run.
type Request struct {
	Query   gong.CallQuery
	Filter  aggregator.Filter
	Options types.ExportOptions
	Now     time.Time
	RunID   string
}

type RunResult struct {
	RunID    string                `json:"runId"`
	Connect  types.ConnectResult   `json:"connect"`
	Calls    int                   `json:"calls"`
	Selected []types.ProcessedCall `json:"-"`
	Insight  aggregator.Insight    `json:"insight"`
	Export   types.ExportResult    `json:"export"`
	Warnings []string              `json:"warnings,omitempty"`
}

// ErrNoCalls is returned by Run when the filter leaves nothing to export.
var ErrNoCalls = errors.New("no calls match the selection")

// Run performs connect, load, select and export in order.
func Run(ctx context.Context, up Upstream, req Request, log *logger.Logger) (*RunResult, error) {
	if log == nil {
		log = logger.Discard()
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	log = log.WithRun(runID)
	if req.Now.IsZero() {
		req.Now = time.Now()
	}

	sess, err := Connect(ctx, up, log)
	if err != nil {
		return nil, err
	}
	loaded, err := sess.LoadCalls(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	selected := aggregator.Select(loaded.Calls, req.Filter)
	if len(selected) == 0 {
		return nil, ErrNoCalls
	}
	insight := aggregator.Aggregate(selected)
	log.WithFields(logrus.Fields{
		"loaded":   len(loaded.Calls),
		"selected": len(selected),
		"duration": insight.TotalDuration,
	}).Info("calls selected")

	res, err := sess.Export(ctx, selected, req.Options, req.Now)
	if err != nil {
		return nil, err
	}

	warnings := append(append([]string{}, sess.Warnings...), loaded.Warnings...)
	return &RunResult{
		RunID:    runID,
		Connect:  sess.Result(),
		Calls:    len(loaded.Calls),
		Selected: selected,
		Insight:  insight,
		Export:   res,
		Warnings: warnings,
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
