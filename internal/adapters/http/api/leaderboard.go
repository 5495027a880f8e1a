// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/314yush/caporslap/internal/domain/period"
)

// defaultLeaderboardLimit applies when the limit query param is omitted.
const defaultLeaderboardLimit = 10

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, periodID string, start, end int) ([]Entry, error)
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// leaderboardResponse wraps the entries with the window they came from.
type leaderboardResponse struct {
	Period  string  `json:"period"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
	Entries []Entry `json:"entries"`
}

// queryInt parses a positive integer query parameter, falling back to def
// when absent. ok is false on malformed or non-positive values.
func queryInt(r *http.Request, key string, def int) (n int, ok bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return 0, false
	}
	return parsed, true
}

// HandleGetLeaderboard handles GET /leaderboard requests. The window is
// selected with ?start=N&end=M (1-indexed, inclusive) or the shorthand
// ?limit=N for the top N; the period defaults to the global board.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	periodID := r.URL.Query().Get("period")
	if periodID == "" {
		periodID = period.Global
	}

	start, okStart := queryInt(r, "start", 1)
	limit, okLimit := queryInt(r, "limit", defaultLeaderboardLimit)
	end, okEnd := queryInt(r, "end", start+limit-1)
	if !okStart || !okLimit || !okEnd || end < start {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if end-start+1 > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	entries, err := h.deps.Leaderboard(r.Context(), periodID, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Period: periodID, Start: start, End: end, Entries: entries})
}
