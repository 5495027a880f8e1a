// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/types"
)

// RunDependencies defines the interface for run submission.
type RunDependencies interface {
	SubmitRun(ctx context.Context, run *model.RunRecord) (types.SubmitResult, error)
}

// RunsHandler handles run submissions.
type RunsHandler struct {
	deps RunDependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunDependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandlePostRun handles POST /runs requests. The whole pipeline runs
// synchronously: the response carries the final verdict, the new ranks,
// and any overtake events the submission produced.
func (h *RunsHandler) HandlePostRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_run"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.SubmitRun(r.Context(), req.toRecord())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if result.Rejected {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
