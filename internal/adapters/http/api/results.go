package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/padflow/internal/domain/model"
)

// ResultsDependencies defines the read side of the result store.
type ResultsDependencies interface {
	Latest(ctx context.Context, projectID string) (model.SolveRecord, error)
	Projects(ctx context.Context) ([]string, error)
}

// ResultsHandler serves published results.
type ResultsHandler struct {
	deps ResultsDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultsDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

type projectsResponse struct {
	Projects []string `json:"projects"`
}

// HandleListProjects handles GET /results requests.
func (h *ResultsHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	ids, err := h.deps.Projects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind("api.list_results", ErrUnavailable, err))
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, projectsResponse{Projects: ids})
}

// HandleGetResult handles GET /results/{project_id} requests.
func (h *ResultsHandler) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/results/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	rec, err := h.deps.Latest(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind("api.get_result", ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
