// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/padflow/internal/adapters/repository"
	"github.com/okian/padflow/internal/domain/dedupe"
	"github.com/okian/padflow/internal/domain/grid"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/internal/domain/tuning"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a job for async solving. Returns false on backpressure.
	Enqueue(ctx context.Context, j model.Job) bool

	// Solve runs a request synchronously.
	Solve(ctx context.Context, req model.SolveRequest) (model.EngineResult, error)

	// Read operations expose published results.
	Latest(ctx context.Context, projectID string) (model.SolveRecord, error)
	Projects(ctx context.Context) ([]string, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	solveHandler   *SolveHandler
	jobsHandler    *JobsHandler
	resultsHandler *ResultsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...JobsOption) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		solveHandler:   NewSolveHandler(deps),
		jobsHandler:    NewJobsHandler(deps, opts...),
		resultsHandler: NewResultsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/solve", MetricsMiddleware(s.solveHandler.HandleSolve, "solve"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.jobsHandler.HandlePostJob, "jobs"))
	mux.HandleFunc("/results", MetricsMiddleware(s.resultsHandler.HandleListProjects, "results"))
	mux.HandleFunc("/results/", MetricsMiddleware(s.resultsHandler.HandleGetResult, "result"))
}

// jobRequest is the body of POST /jobs.
type jobRequest struct {
	JobID     string `json:"job_id"`
	ProjectID string `json:"project_id"`
	Revision  int64  `json:"revision"`
	model.SolveRequest
}

func (j *jobRequest) validate() error {
	switch {
	case strings.TrimSpace(j.ProjectID) == "":
		return errors.New("missing project_id")
	case strings.Contains(j.ProjectID, "/"):
		return errors.New("project_id must not contain '/'")
	case j.Revision < 0:
		return errors.New("revision must not be negative")
	}
	// reject before the job ID is recorded so a corrected resubmission is not a duplicate
	return j.SolveRequest.Validate()
}

type ackResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// isInvalidInput reports errors caused by the caller's request rather than the server.
func isInvalidInput(err error) bool {
	return errors.Is(err, model.ErrInvalidTempo) ||
		errors.Is(err, model.ErrInvalidSection) ||
		errors.Is(err, grid.ErrInvalidMapping) ||
		errors.Is(err, tuning.ErrInvalidConstants)
}
