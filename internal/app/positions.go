package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/314yush/caporslap/internal/adapters/repository"
	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/period"
)

// ObservePosition reports how the user's rank moved since the last call
// and advances the stored baseline to the current rank. The read and the
// overwrite are one logical operation: calling this twice in a row always
// reports "no change" the second time.
func (s *Service) ObservePosition(ctx context.Context, board, userID string) (model.PositionChange, error) {
	if !period.Valid(board) {
		return model.PositionChange{}, ErrUnknownPeriod
	}

	entry, err := s.scores.Rank(ctx, board, userID)
	if errors.Is(err, repository.ErrNoEntry) {
		// Unranked users have no movement to report and no baseline to
		// keep.
		return model.PositionChange{Direction: "none"}, nil
	}
	if err != nil {
		return model.PositionChange{}, fmt.Errorf("read rank: %w", err)
	}

	prev, hadBaseline, err := s.records.GetPosition(ctx, board, userID)
	if err != nil {
		return model.PositionChange{}, fmt.Errorf("read baseline: %w", err)
	}
	if err := s.records.PutPosition(ctx, board, userID, entry.Rank); err != nil {
		return model.PositionChange{}, fmt.Errorf("write baseline: %w", err)
	}

	change := model.PositionChange{
		PreviousRank: prev,
		CurrentRank:  entry.Rank,
		Direction:    "none",
	}
	if !hadBaseline || prev == entry.Rank {
		change.PreviousRank = entry.Rank
		return change, nil
	}

	change.Changed = true
	change.RankChange = prev - entry.Rank
	if entry.Rank < prev {
		change.Direction = "up"
	} else {
		change.Direction = "down"
	}
	return change, nil
}
