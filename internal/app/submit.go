package service

import (
	"context"
	"fmt"
	"time"

	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/period"
	"github.com/314yush/caporslap/internal/domain/replay"
	"github.com/314yush/caporslap/internal/domain/types"
	"github.com/314yush/caporslap/pkg/logger"
	"github.com/314yush/caporslap/pkg/metrics"
)

// SubmitResult is the synchronous outcome of one run submission.
type SubmitResult = types.SubmitResult

// SubmitRun is the write path of the engine. It deduplicates the run,
// replay-validates suspicious streaks, applies the score to every active
// board, and emits overtake notifications.
//
// A storage outage during the write phase is a soft failure: the run id is
// released from the dedupe set and ErrStoreUnavailable is returned so the
// client can resubmit the identical run later.
func (s *Service) SubmitRun(ctx context.Context, run *model.RunRecord) (SubmitResult, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return SubmitResult{}, ErrNotStarted
	}

	if run == nil || run.RunID == "" || run.UserID == "" || run.FinalStreak < 0 {
		return SubmitResult{}, ErrBadSubmission
	}

	res := SubmitResult{RunID: run.RunID}

	// Guest runs are playable but invisible: acknowledged, never stored.
	if model.IsGuestUser(run.UserID) {
		res.Accepted = true
		res.Guest = true
		return res, nil
	}

	if s.deduper.SeenAndRecord(ctx, run.RunID) {
		metrics.RecordRunDuplicate()
		res.Duplicate = true
		return res, nil
	}

	// Replay validation gates only streaks worth cheating for. A failed
	// validation is final: the run id stays recorded so the same forged
	// run cannot be retried into acceptance.
	if run.FinalStreak >= s.verifyThreshold {
		verdict := s.validateRun(ctx, run)
		res.Validated = true
		if !verdict.Valid {
			metrics.RecordRunRejected("replay_failed")
			res.Rejected = true
			res.RejectReason = verdict.Reason
			res.FailedAtRound = verdict.FailedAtRound
			s.logger.Warn(ctx, "run rejected by replay validation",
				logger.String("run_id", run.RunID),
				logger.String("user_id", run.UserID),
				logger.String("reason", verdict.Reason),
				logger.Int("failed_at_round", verdict.FailedAtRound),
			)
			return res, nil
		}
	}

	now := s.clock()
	streak := int64(run.FinalStreak)

	// Global board ranks best single streak.
	globalOut, err := s.applyScore(ctx, period.Global, run.UserID, streak)
	if err != nil {
		return SubmitResult{}, s.softFail(ctx, run.RunID, err)
	}

	// Weekly board ranks the cumulative sum of streaks, so the raise is
	// computed from the updated stats record.
	weeklyID := period.Weekly(now)
	stats, err := s.recordRun(ctx, weeklyID, run, now)
	if err != nil {
		return SubmitResult{}, s.softFail(ctx, run.RunID, err)
	}
	weeklyOut, err := s.applyScore(ctx, weeklyID, run.UserID, stats.CumulativeScore)
	if err != nil {
		return SubmitResult{}, s.softFail(ctx, run.RunID, err)
	}

	res.Accepted = true
	res.NewBest = globalOut.applied
	res.PreviousRank = globalOut.prevRank
	res.GlobalRank = globalOut.newRank
	res.WeeklyRank = weeklyOut.newRank
	res.WeeklyScore = stats.CumulativeScore
	res.Overtakes = s.mergeOvertakes(globalOut.events, weeklyOut.events)

	metrics.RecordRunAccepted()
	if n, cErr := s.scores.Count(ctx, period.Global); cErr == nil {
		metrics.UpdateTotalPlayers(n)
	}

	s.dispatchOvertakes(ctx, run.UserID, res.Overtakes)

	s.logger.Info(ctx, "run accepted",
		logger.String("run_id", run.RunID),
		logger.String("user_id", run.UserID),
		logger.Int("streak", run.FinalStreak),
		logger.Int("global_rank", res.GlobalRank),
		logger.Int("weekly_rank", res.WeeklyRank),
		logger.Int("overtakes", len(res.Overtakes)),
	)
	return res, nil
}

func (s *Service) validateRun(ctx context.Context, run *model.RunRecord) replay.Result {
	start := time.Now()
	verdict := s.validator.Validate(ctx, run)
	metrics.RecordReplayLatency(float64(time.Since(start).Milliseconds()))
	if verdict.Valid {
		metrics.RecordReplayValidation("valid")
	} else {
		metrics.RecordReplayValidation("invalid")
	}
	return verdict
}

// softFail releases the run id for retry and maps the storage error to the
// retryable sentinel. Rejections never pass through here; only outages do.
func (s *Service) softFail(ctx context.Context, runID string, err error) error {
	s.deduper.Unrecord(ctx, runID)
	metrics.RecordRunRejected("store_unavailable")
	s.logger.Error(ctx, "submission soft-failed, run released for retry",
		logger.String("run_id", runID),
		logger.Error(err),
	)
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// mergeOvertakes combines per-period events, keeping at most one event per
// overtaken user so a single submission never double-notifies anyone.
func (s *Service) mergeOvertakes(groups ...[]model.OvertakeEvent) []model.OvertakeEvent {
	var merged []model.OvertakeEvent
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, ev := range group {
			if seen[ev.OvertakenUserID] {
				continue
			}
			seen[ev.OvertakenUserID] = true
			merged = append(merged, ev)
		}
	}
	return merged
}

// dispatchOvertakes fans events out to the notification pipeline: the
// overtaken users each learn they were passed.
func (s *Service) dispatchOvertakes(ctx context.Context, submitterID string, events []model.OvertakeEvent) {
	if len(events) == 0 {
		return
	}
	metrics.RecordOvertakeEvents(len(events))
	for _, ev := range events {
		s.enqueueNotification(ctx, model.Notification{
			ID:     fmt.Sprintf("overtake:%s:%s:%s", ev.Period, submitterID, ev.OvertakenUserID),
			UserID: ev.OvertakenUserID,
			Kind:   "overtaken",
			Payload: map[string]any{
				"period":        ev.Period,
				"by_user_id":    submitterID,
				"previous_rank": ev.PreviousRank,
				"new_rank":      ev.NewRank,
			},
		})
	}
}
