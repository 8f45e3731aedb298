package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/padflow/internal/domain/dedupe"
	"github.com/okian/padflow/internal/domain/model"
	"github.com/okian/padflow/pkg/metrics"
)

// JobDependencies defines the interface for job submission dependencies.
type JobDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, j model.Job) bool
}

// JobsOption configures a JobsHandler.
type JobsOption func(*JobsHandler)

// WithIDGenerator replaces the job ID generator used when a request carries none.
func WithIDGenerator(gen func() string) JobsOption {
	return func(h *JobsHandler) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// JobsHandler handles asynchronous job submission.
type JobsHandler struct {
	deps  JobDependencies
	newID func() string
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies, opts ...JobsOption) *JobsHandler {
	h := &JobsHandler{deps: deps, newID: newJobID}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// newJobID returns a time-ordered UUID, falling back to a random one.
func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// HandlePostJob handles POST /jobs requests.
func (h *JobsHandler) HandlePostJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_job"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.JobID == "" {
		req.JobID = h.newID()
	}

	if h.deps.SeenAndRecord(r.Context(), req.JobID) {
		metrics.RecordJobDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", JobID: req.JobID, Duplicate: true})
		return
	}

	job := model.Job{
		ID:        req.JobID,
		ProjectID: req.ProjectID,
		Revision:  req.Revision,
		Request:   req.SolveRequest,
	}
	if ok := h.deps.Enqueue(r.Context(), job); !ok {
		// rejected jobs may be resubmitted
		h.deps.Unrecord(r.Context(), req.JobID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: req.JobID})
}
