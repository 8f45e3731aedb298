package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/padflow/internal/domain/model"
)

// SolveDependencies defines what the synchronous solve endpoint needs.
type SolveDependencies interface {
	Solve(ctx context.Context, req model.SolveRequest) (model.EngineResult, error)
}

// SolveHandler handles synchronous solve requests.
type SolveHandler struct {
	deps SolveDependencies
}

// NewSolveHandler creates a new solve handler.
func NewSolveHandler(deps SolveDependencies) *SolveHandler {
	return &SolveHandler{deps: deps}
}

// HandleSolve handles POST /solve requests.
func (h *SolveHandler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.solve"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Solve(r.Context(), req)
	if err != nil {
		if isInvalidInput(err) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
