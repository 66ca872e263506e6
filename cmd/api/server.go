package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"gong-export-go/internal/config"
	"gong-export-go/internal/gong"
	"gong-export-go/internal/logger"
	"gong-export-go/internal/pipeline"
	"gong-export-go/internal/types"
)

const authHeader = "X-Gong-Auth"

type server struct {
	cfg      *config.Config
	log      *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

func newServer(cfg *config.Config, log *logger.Logger) *server {
	return &server{cfg: cfg, log: log, validate: validator.New(), now: time.Now}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		s.log.WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("POST /connect", s.handleConnect)
	mux.HandleFunc("POST /calls", s.handleCalls)
	mux.HandleFunc("POST /transcripts", s.handleTranscripts)
	mux.HandleFunc("POST /export", s.handleExport)
	return mux
}

type connectRequest struct {
	BaseURL string `json:"baseUrl" validate:"omitempty,url"`
}

type callsRequest struct {
	FromDate        string   `json:"fromDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	ToDate          string   `json:"toDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	WorkspaceID     string   `json:"workspaceId"`
	BaseURL         string   `json:"baseUrl" validate:"omitempty,url"`
	InternalDomains []string `json:"internalDomains"`
}

type transcriptsRequest struct {
	CallIDs []string `json:"callIds" validate:"required,min=1,dive,required"`
	BaseURL string   `json:"baseUrl" validate:"omitempty,url"`
}

type exportRequest struct {
	Calls   []types.ProcessedCall `json:"calls" validate:"required,min=1"`
	Options *types.ExportOptions  `json:"options"`
	BaseURL string                `json:"baseUrl" validate:"omitempty,url"`
}

type callTranscript struct {
	CallID     string            `json:"callId"`
	Transcript []types.Monologue `json:"transcript"`
}

func (s *server) handleConnect(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "connect")
	var req connectRequest
	client, ok := s.prepare(w, r, reqLog, &req, func() string { return req.BaseURL })
	if !ok {
		return
	}

	sess, err := pipeline.Connect(r.Context(), client, s.log)
	if err != nil {
		s.upstreamError(w, reqLog, err, "Failed to connect to Gong")
		return
	}
	res := sess.Result()
	reqLog.WithField("warnings", len(res.Warnings)).Info("connected")
	s.writeJSON(w, reqLog, http.StatusOK, res)
}

func (s *server) handleCalls(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "calls")
	var req callsRequest
	client, ok := s.prepare(w, r, reqLog, &req, func() string { return req.BaseURL })
	if !ok {
		return
	}
	from, _ := time.Parse(time.RFC3339, req.FromDate)
	to, _ := time.Parse(time.RFC3339, req.ToDate)

	sess := pipeline.NewSession(client, req.InternalDomains, s.log)
	res, err := sess.LoadCalls(r.Context(), gong.CallQuery{From: from, To: to, WorkspaceID: req.WorkspaceID})
	if err != nil {
		if gong.StatusOf(err) == 0 && !gong.IsTransport(err) {
			s.writeError(w, reqLog, http.StatusBadRequest, err.Error())
			return
		}
		s.upstreamError(w, reqLog, err, "Failed to fetch calls from Gong")
		return
	}
	reqLog.WithField("calls", len(res.Calls)).Info("calls loaded")
	s.writeJSON(w, reqLog, http.StatusOK, res)
}

func (s *server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "transcripts")
	var req transcriptsRequest
	client, ok := s.prepare(w, r, reqLog, &req, func() string { return req.BaseURL })
	if !ok {
		return
	}

	byCall, err := client.FetchTranscripts(r.Context(), req.CallIDs)
	if err != nil {
		s.upstreamError(w, reqLog, err, "Failed to fetch transcripts from Gong")
		return
	}
	out := make([]callTranscript, 0, len(byCall))
	for _, id := range req.CallIDs {
		if t, ok := byCall[id]; ok {
			out = append(out, callTranscript{CallID: id, Transcript: t})
			delete(byCall, id)
		}
	}
	reqLog.WithField("transcripts", len(out)).Info("transcripts fetched")
	s.writeJSON(w, reqLog, http.StatusOK, map[string]any{"transcripts": out})
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "export")
	var req exportRequest
	client, ok := s.prepare(w, r, reqLog, &req, func() string { return req.BaseURL })
	if !ok {
		return
	}
	opts := types.DefaultExportOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	if err := config.ValidateExportOptions(opts); err != nil {
		s.writeError(w, reqLog, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	res, err := pipeline.NewSession(client, nil, s.log).Export(r.Context(), req.Calls, opts, s.now())
	if err != nil {
		s.upstreamError(w, reqLog, err, "Failed to export transcripts")
		return
	}
	reqLog.WithFields(logrus.Fields{
		"calls":       len(req.Calls),
		"format":      opts.Format,
		"tokens":      res.TokenEstimate,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("export generated")

	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Type", contentType(opts.Format))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
		io.WriteString(w, res.Content)
		return
	}
	s.writeJSON(w, reqLog, http.StatusOK, res)
}

// prepare decodes and validates the body into req and builds an upstream
// client from the X-Gong-Auth header. On failure the response is written.
func (s *server) prepare(w http.ResponseWriter, r *http.Request, reqLog *logrus.Entry, req any, baseURL func() string) (*gong.Client, bool) {
	auth := strings.TrimSpace(r.Header.Get(authHeader))
	if auth == "" {
		s.writeError(w, reqLog, http.StatusUnauthorized, "Missing credentials")
		return nil, false
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, reqLog, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, reqLog, http.StatusBadRequest, err.Error())
		return nil, false
	}

	cfg := *s.cfg
	if u := baseURL(); u != "" {
		cfg.BaseURL = u
	}
	client, err := cfg.NewClient("Basic "+auth, s.log)
	if err != nil {
		s.writeError(w, reqLog, http.StatusUnauthorized, err.Error())
		return nil, false
	}
	return client, true
}

// upstreamError maps a failed run onto a response: rejected credentials are
// 401, other upstream 4xx keep their status, everything else is a 5xx.
func (s *server) upstreamError(w http.ResponseWriter, reqLog *logrus.Entry, err error, fallback string) {
	reqLog = reqLog.WithField("error", err.Error())
	var gerr *gong.Error
	switch {
	case gong.IsAuth(err):
		s.writeError(w, reqLog, http.StatusUnauthorized, "Invalid API credentials")
	case errors.As(err, &gerr) && gerr.Status >= 400 && gerr.Status < 500:
		s.writeError(w, reqLog, gerr.Status, fmt.Sprintf("Gong API error (%d): %s", gerr.Status, gerr.Body))
	case gong.IsTransport(err):
		s.writeError(w, reqLog, http.StatusBadGateway, fallback)
	default:
		s.writeError(w, reqLog, http.StatusInternalServerError, fallback)
	}
}

func (s *server) writeError(w http.ResponseWriter, reqLog *logrus.Entry, status int, msg string) {
	reqLog.WithField("status", status).Warn(msg)
	s.writeJSON(w, reqLog, status, map[string]string{"error": msg})
}

func (s *server) writeJSON(w http.ResponseWriter, reqLog *logrus.Entry, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		reqLog.WithError(err).Error("failed to write response")
	}
}

func contentType(f types.ExportFormat) string {
	switch f {
	case types.FormatXML:
		return "application/xml; charset=utf-8"
	case types.FormatJSONL:
		return "application/x-ndjson"
	default:
		return "text/markdown; charset=utf-8"
	}
}
