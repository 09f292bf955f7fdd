// Package api exposes the control server: trigger workflow runs, fetch
// reports, health and metrics.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"stagehand/internal/collector"
	"stagehand/internal/config"
	"stagehand/internal/engine"
	"stagehand/internal/metrics"
)

// RunStatus is the lifecycle state of a triggered run.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// Run is one triggered workflow execution. Reports are held in memory
// only; historical persistence belongs to surrounding tooling.
type Run struct {
	ID         uuid.UUID                 `json:"id"`
	Workflow   string                    `json:"workflow"`
	Status     RunStatus                 `json:"status"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty"`
	Report     *collector.WorkflowReport `json:"report,omitempty"`
	Error      string                    `json:"error,omitempty"`
}

// Server owns the run store and HTTP handlers.
type Server struct {
	settings *config.Settings
	log      *slog.Logger
	metrics  *metrics.Manager

	mu    sync.Mutex
	runs  map[uuid.UUID]*Run
	order []uuid.UUID
}

func NewServer(settings *config.Settings, log *slog.Logger, m *metrics.Manager) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		settings: settings,
		log:      log,
		metrics:  m,
		runs:     make(map[uuid.UUID]*Run),
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", s.handleStartRun)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStartRun triggers a workflow run asynchronously and returns its
// id immediately; the run keeps going after the response is sent.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	run := &Run{
		ID:        uuid.New(),
		Workflow:  s.settings.Workflow.Name,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}

	s.mu.Lock()
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	s.mu.Unlock()

	go s.execute(run.ID)

	s.log.Info("run triggered", "run", run.ID.String(), "workflow", run.Workflow)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     run.ID.String(),
		"status": string(StatusRunning),
	})
}

func (s *Server) execute(id uuid.UUID) {
	eng := engine.New(s.settings, s.log.With("run", id.String()))
	eng.SetMetrics(s.metrics)

	report, err := eng.Run(context.Background())

	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	run := s.runs[id]
	run.FinishedAt = &now
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		return
	}
	run.Status = StatusCompleted
	run.Report = report
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	type summary struct {
		ID        uuid.UUID `json:"id"`
		Workflow  string    `json:"workflow"`
		Status    RunStatus `json:"status"`
		StartedAt time.Time `json:"started_at"`
		Pass      *bool     `json:"pass,omitempty"`
	}

	s.mu.Lock()
	out := make([]summary, 0, len(s.order))
	for _, id := range s.order {
		run := s.runs[id]
		item := summary{
			ID:        run.ID,
			Workflow:  run.Workflow,
			Status:    run.Status,
			StartedAt: run.StartedAt,
		}
		if run.Report != nil {
			pass := run.Report.OverallPass
			item.Pass = &pass
		}
		out = append(out, item)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
