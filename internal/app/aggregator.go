package service

import (
	"context"
	"fmt"
	"time"

	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/period"
)

// recordRun folds one accepted run into the user's weekly stats and
// returns the updated record. The cumulative score it returns is the
// weekly ranking metric; BestStreak and RunCount feed the display-only
// engagement score.
func (s *Service) recordRun(ctx context.Context, periodID string, run *model.RunRecord, now time.Time) (*model.WeeklyStats, error) {
	stats, err := s.records.GetStats(ctx, periodID, run.UserID)
	if err != nil {
		return nil, fmt.Errorf("read weekly stats: %w", err)
	}
	if stats == nil {
		stats = &model.WeeklyStats{
			Period: periodID,
			UserID: run.UserID,
		}
	}

	stats.CumulativeScore += int64(run.FinalStreak)
	if run.FinalStreak > stats.BestStreak {
		stats.BestStreak = run.FinalStreak
	}
	stats.RunCount++
	stats.LastUpdated = now

	ttl := period.Retention(periodID, now)
	if err := s.records.PutStats(ctx, stats, ttl); err != nil {
		return nil, fmt.Errorf("write weekly stats: %w", err)
	}
	return stats, nil
}

// WeeklyStats returns a user's stats for the given weekly period, nil when
// the user has not played that week.
func (s *Service) WeeklyStats(ctx context.Context, periodID, userID string) (*model.WeeklyStats, error) {
	if !period.IsWeekly(periodID) || !period.Valid(periodID) {
		return nil, ErrUnknownPeriod
	}
	return s.records.GetStats(ctx, periodID, userID)
}
