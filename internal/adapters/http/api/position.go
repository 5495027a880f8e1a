// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/period"
)

// PositionDependencies defines the interface for position change tracking.
type PositionDependencies interface {
	ObservePosition(ctx context.Context, board, userID string) (model.PositionChange, error)
}

// PositionHandler handles position change requests.
type PositionHandler struct {
	deps PositionDependencies
}

// NewPositionHandler creates a new position handler.
func NewPositionHandler(deps PositionDependencies) *PositionHandler {
	return &PositionHandler{deps: deps}
}

// HandleGetPosition handles GET /position/{user_id}?board=ID requests.
//
// Reading is observing: the stored baseline advances to the current rank,
// so an immediate second call reports no change. Clients poll this once
// per session open.
func (h *PositionHandler) HandleGetPosition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/position/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	board := r.URL.Query().Get("board")
	if board == "" {
		board = period.Global
	}

	change, err := h.deps.ObservePosition(r.Context(), board, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}
