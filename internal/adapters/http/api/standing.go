// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/period"
)

// StandingDependencies defines the interface for standing lookups.
type StandingDependencies interface {
	Standing(ctx context.Context, periodID, userID string) (Entry, error)
	WeeklyStats(ctx context.Context, periodID, userID string) (*model.WeeklyStats, error)
}

// StandingHandler handles per-user standing requests.
type StandingHandler struct {
	deps StandingDependencies
}

// NewStandingHandler creates a new standing handler.
func NewStandingHandler(deps StandingDependencies) *StandingHandler {
	return &StandingHandler{deps: deps}
}

// standingResponse is the per-user standing shape. Stats and the
// engagement score are attached only for weekly periods.
type standingResponse struct {
	Period          string             `json:"period"`
	Entry           Entry              `json:"entry"`
	Stats           *model.WeeklyStats `json:"stats,omitempty"`
	EngagementScore int64              `json:"engagement_score,omitempty"`
}

// HandleGetStanding handles GET /standing/{user_id}?period=ID requests.
func (h *StandingHandler) HandleGetStanding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/standing/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	periodID := r.URL.Query().Get("period")
	if periodID == "" {
		periodID = period.Global
	}

	entry, err := h.deps.Standing(r.Context(), periodID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := standingResponse{Period: periodID, Entry: entry}
	if period.IsWeekly(periodID) {
		if stats, sErr := h.deps.WeeklyStats(r.Context(), periodID, userID); sErr == nil && stats != nil {
			resp.Stats = stats
			resp.EngagementScore = stats.EngagementScore()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
