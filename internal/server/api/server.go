// Package api serves scan results over HTTP and tracks scheduler state.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"objkt-signal-lab/internal/observability"
	"objkt-signal-lab/internal/orchestrator"
	"objkt-signal-lab/internal/storage"
)

const (
	// MaxLimit caps the limit query parameter.
	MaxLimit = 100

	// defaultListLimit applies to /signals and /runs without ?limit.
	defaultListLimit = 30
)

// ErrScanInProgress is returned when a scan is requested while another one runs.
var ErrScanInProgress = errors.New("scan already running")

// Runner executes one orchestrated scan.
type Runner interface {
	RunWithLimit(ctx context.Context, limit int) (*orchestrator.RunResult, error)
}

// Options for creating Server.
type Options struct {
	Runner Runner

	// Optional
	SignalStore storage.SignalStore
	RunStore    storage.RunStore
	Feed        http.HandlerFunc

	// HealthChecks are run by /health; any error reports 503.
	HealthChecks map[string]func(ctx context.Context) error

	Logger *logrus.Entry
}

// Server holds HTTP handlers and scan state.
type Server struct {
	opts Options
	log  *logrus.Entry

	mu         sync.Mutex
	startedAt  time.Time
	running    bool
	lastRunAt  time.Time
	lastRunID  string
	lastError  string
	runs       int
	failedRuns int
	lastResult *orchestrator.RunResult
}

// New creates a new Server.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		opts:      opts,
		log:       log.WithField("component", "api"),
		startedAt: time.Now().UTC(),
	}
}

// RunScan runs one scan unless another is in flight. Used by both the scheduler
// and GET /objkts.
func (s *Server) RunScan(ctx context.Context, limit int) (*orchestrator.RunResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}
	s.running = true
	s.mu.Unlock()

	res, err := s.opts.Runner.RunWithLimit(ctx, limit)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastRunAt = time.Now().UTC()
	s.runs++
	if err != nil {
		s.failedRuns++
		s.lastError = err.Error()
		return nil, err
	}
	s.lastError = ""
	s.lastRunID = res.RunID.String()
	s.lastResult = res
	return res, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/objkts", s.handleObjkts).Methods(http.MethodGet)
	r.HandleFunc("/signals", s.handleSignals).Methods(http.MethodGet)
	r.HandleFunc("/signals/{tokenID}", s.handleSignal).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	r.HandleFunc("/runs/{runID}", s.handleRun).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	if s.opts.Feed != nil {
		r.HandleFunc("/ws", s.opts.Feed).Methods(http.MethodGet)
	}
	return r
}

// handleObjkts runs a scan and returns its result.
// GET /objkts?limit=N
func (s *Server) handleObjkts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	res, err := s.RunScan(r.Context(), limit)
	switch {
	case errors.Is(err, ErrScanInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.log.WithError(err).Warn("on-demand scan failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res.RunResult)
}

// handleSignals lists the latest persisted signal per token.
// GET /signals?limit=N
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if s.opts.SignalStore == nil {
		writeError(w, http.StatusNotFound, "signal store not configured")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	recs, err := s.opts.SignalStore.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("list signals failed")
		writeError(w, http.StatusInternalServerError, "list signals failed")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleSignal returns the latest persisted signal of one token.
// GET /signals/{tokenID}
func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	if s.opts.SignalStore == nil {
		writeError(w, http.StatusNotFound, "signal store not configured")
		return
	}
	tokenID := mux.Vars(r)["tokenID"]
	rec, err := s.opts.SignalStore.GetByTokenID(r.Context(), tokenID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "no signal for token "+tokenID)
		return
	case err != nil:
		s.log.WithError(err).WithField("token_id", tokenID).Error("get signal failed")
		writeError(w, http.StatusInternalServerError, "get signal failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleRuns lists recent run summaries.
// GET /runs?limit=N
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.opts.RunStore == nil {
		writeError(w, http.StatusNotFound, "run store not configured")
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	runs, err := s.opts.RunStore.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.WithError(err).Error("list runs failed")
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleRun returns one run summary.
// GET /runs/{runID}
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.opts.RunStore == nil {
		writeError(w, http.StatusNotFound, "run store not configured")
		return
	}
	runID := mux.Vars(r)["runID"]
	run, err := s.opts.RunStore.GetByID(r.Context(), runID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "unknown run "+runID)
		return
	case err != nil:
		s.log.WithError(err).WithField("run_id", runID).Error("get run failed")
		writeError(w, http.StatusInternalServerError, "get run failed")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.opts.HealthChecks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status       string    `json:"status"`
	Uptime       string    `json:"uptime"`
	ScanRunning  bool      `json:"scan_running"`
	Runs         int       `json:"runs"`
	FailedRuns   int       `json:"failed_runs"`
	LastRunAt    time.Time `json:"last_run_at,omitzero"`
	LastRunID    string    `json:"last_run_id,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	LastAccepted int       `json:"last_accepted"`
	LastSkipped  int       `json:"last_skipped"`
	LastArchive  string    `json:"last_archive_key,omitempty"`
	SinkErrors   []string  `json:"sink_errors,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(s.startedAt).Truncate(time.Second).String(),
		ScanRunning: s.running,
		Runs:        s.runs,
		FailedRuns:  s.failedRuns,
		LastRunAt:   s.lastRunAt,
		LastRunID:   s.lastRunID,
		LastError:   s.lastError,
	}
	if res := s.lastResult; res != nil {
		resp.LastAccepted = res.Summary.Accepted
		resp.LastSkipped = len(res.Diagnostics)
		resp.LastArchive = res.ArchiveKey
		resp.SinkErrors = res.SinkErrors
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// parseLimit reads ?limit, writing 400 on a bad value. Missing means 0 (caller default).
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > MaxLimit {
		writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and "+strconv.Itoa(MaxLimit))
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
