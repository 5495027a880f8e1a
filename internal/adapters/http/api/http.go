// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/314yush/caporslap/internal/adapters/repository"
	service "github.com/314yush/caporslap/internal/app"
	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SubmitRun runs the whole submission pipeline synchronously.
	SubmitRun(ctx context.Context, run *model.RunRecord) (types.SubmitResult, error)

	// Read operations expose leaderboard data.
	Leaderboard(ctx context.Context, periodID string, start, end int) ([]Entry, error)
	Standing(ctx context.Context, periodID, userID string) (Entry, error)
	ObservePosition(ctx context.Context, board, userID string) (model.PositionChange, error)
	WeeklyStats(ctx context.Context, periodID, userID string) (*model.WeeklyStats, error)

	// Prize lifecycle.
	FinalizePeriod(ctx context.Context, periodID string) (*model.PrizeArchive, error)
	PrizeArchive(ctx context.Context, periodID string) (*model.PrizeArchive, error)
	PreviewDistribution(ctx context.Context, periodID string) ([]model.PrizeAward, error)

	HealthCheck(ctx context.Context) error
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	runsHandler        *RunsHandler
	leaderboardHandler *LeaderboardHandler
	standingHandler    *StandingHandler
	positionHandler    *PositionHandler
	prizesHandler      *PrizesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRange int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		runsHandler:        NewRunsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxRange),
		standingHandler:    NewStandingHandler(deps),
		positionHandler:    NewPositionHandler(deps),
		prizesHandler:      NewPrizesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	route := func(endpoint string, h http.HandlerFunc) http.HandlerFunc {
		return RequestIDMiddleware(MetricsMiddleware(h, endpoint))
	}

	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", route("healthz", s.healthHandler.HandleMetrics))
	mux.HandleFunc("/readyz", route("readyz", s.healthHandler.HandleReady))
	mux.HandleFunc("/stats", route("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/runs", route("runs", s.runsHandler.HandlePostRun))
	mux.HandleFunc("/leaderboard", route("leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("/standing/", route("standing", s.standingHandler.HandleGetStanding))
	mux.HandleFunc("/position/", route("position", s.positionHandler.HandleGetPosition))
	mux.HandleFunc("/prizes/", route("prizes", s.prizesHandler.HandleGetPrizes))
	mux.HandleFunc("/finalize/", route("finalize", s.prizesHandler.HandlePostFinalize))
}

// runRequest mirrors the submission schema for POST /runs.
type runRequest struct {
	RunID          string         `json:"run_id"`
	UserID         string         `json:"user_id"`
	Seed           string         `json:"seed"`
	StartedAt      string         `json:"started_at"`
	FinalStreak    int            `json:"final_streak"`
	ReprieveRounds []int          `json:"reprieve_rounds"`
	Guesses        []guessRequest `json:"guesses"`
}

type guessRequest struct {
	Round          int    `json:"round"`
	CurrentTokenID string `json:"current_token_id"`
	NextTokenID    string `json:"next_token_id"`
	Guess          string `json:"guess"`
	Timestamp      string `json:"timestamp"`
}

func (r runRequest) validate() error {
	switch {
	case strings.TrimSpace(r.RunID) == "":
		return errors.New("missing run_id")
	case strings.TrimSpace(r.UserID) == "":
		return errors.New("missing user_id")
	case r.FinalStreak < 0:
		return errors.New("negative final_streak")
	}
	if r.StartedAt != "" {
		if _, err := time.Parse(time.RFC3339, r.StartedAt); err != nil {
			return errors.New("invalid started_at; must be RFC3339")
		}
	}
	for _, g := range r.Guesses {
		if g.Guess != string(model.Higher) && g.Guess != string(model.Lower) {
			return errors.New("guess must be higher or lower")
		}
		if g.Timestamp != "" {
			if _, err := time.Parse(time.RFC3339, g.Timestamp); err != nil {
				return errors.New("invalid guess timestamp; must be RFC3339")
			}
		}
	}
	return nil
}

// toRecord converts the wire shape to the domain record. validate must
// have passed first; timestamp parse errors are unreachable here.
func (r runRequest) toRecord() *model.RunRecord {
	rec := &model.RunRecord{
		RunID:          r.RunID,
		UserID:         r.UserID,
		Seed:           r.Seed,
		FinalStreak:    r.FinalStreak,
		ReprieveRounds: r.ReprieveRounds,
	}
	if r.StartedAt != "" {
		rec.StartedAt, _ = time.Parse(time.RFC3339, r.StartedAt)
	}
	rec.Guesses = make([]model.Guess, len(r.Guesses))
	for i, g := range r.Guesses {
		rec.Guesses[i] = model.Guess{
			Round:          g.Round,
			CurrentTokenID: g.CurrentTokenID,
			NextTokenID:    g.NextTokenID,
			Guess:          model.Direction(g.Guess),
		}
		if g.Timestamp != "" {
			rec.Guesses[i].Timestamp, _ = time.Parse(time.RFC3339, g.Timestamp)
		}
	}
	return rec
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

// writeServiceError translates engine sentinels to transport semantics.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNoEntry):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrUnknownPeriod):
		writeError(w, http.StatusBadRequest, "unknown_period", err)
	case errors.Is(err, service.ErrBadSubmission):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrStoreUnavailable):
		w.Header().Set("Retry-After", "5")
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
