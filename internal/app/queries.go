package service

import (
	"context"
	"fmt"

	"github.com/314yush/caporslap/internal/domain/period"
	"github.com/314yush/caporslap/internal/domain/types"
)

// Leaderboard returns one rank window of a period's board, lowest rank
// first. Most callers ask for (1, n); any 1-indexed inclusive window is
// valid.
func (s *Service) Leaderboard(ctx context.Context, periodID string, start, end int) ([]types.Entry, error) {
	if !period.Valid(periodID) {
		return nil, ErrUnknownPeriod
	}
	if start < 1 || end < start {
		return nil, ErrBadSubmission
	}

	entries, err := s.scores.Range(ctx, periodID, start, end)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, UserID: e.UserID, Score: e.Score}
	}
	return out, nil
}

// Standing returns a user's rank and score on one board. Passes through
// repository.ErrNoEntry when the user is unranked.
func (s *Service) Standing(ctx context.Context, periodID, userID string) (types.Entry, error) {
	if !period.Valid(periodID) {
		return types.Entry{}, ErrUnknownPeriod
	}
	entry, err := s.scores.Rank(ctx, periodID, userID)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{Rank: entry.Rank, UserID: entry.UserID, Score: entry.Score}, nil
}
