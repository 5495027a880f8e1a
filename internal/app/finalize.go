package service

import (
	"context"
	"fmt"

	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/period"
	"github.com/314yush/caporslap/internal/domain/prize"
	"github.com/314yush/caporslap/pkg/logger"
	"github.com/314yush/caporslap/pkg/metrics"
)

// maxPayingRank bounds the snapshot read at finalization; the payout table
// never pays deeper than this.
const maxPayingRank = 25

// FinalizePeriod computes and archives the prize distribution for a weekly
// period. The operation is one-way and idempotent: the first successful
// call freezes the distribution, every later call (concurrent or not)
// returns the frozen record untouched.
func (s *Service) FinalizePeriod(ctx context.Context, periodID string) (*model.PrizeArchive, error) {
	if !period.IsWeekly(periodID) || !period.Valid(periodID) {
		return nil, ErrUnknownPeriod
	}

	if arch, err := s.records.GetArchive(ctx, periodID); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	} else if arch != nil {
		metrics.RecordFinalization("already_finalized")
		return arch, nil
	}

	entries, err := s.scores.Range(ctx, periodID, 1, maxPayingRank)
	if err != nil {
		metrics.RecordFinalization("error")
		return nil, fmt.Errorf("snapshot standings: %w", err)
	}

	snapshot := make([]prize.Standing, len(entries))
	for i, e := range entries {
		snapshot[i] = prize.Standing{UserID: e.UserID, Score: e.Score}
	}

	archive := &model.PrizeArchive{
		Period:       periodID,
		Distribution: prize.Calculate(snapshot, s.prizePoolMicro, s.prizeTable),
		FinalizedAt:  s.clock(),
		Status:       model.ArchiveCompleted,
	}

	stored, err := s.records.PutArchiveOnce(ctx, archive)
	if err != nil {
		metrics.RecordFinalization("error")
		return nil, fmt.Errorf("write archive: %w", err)
	}
	if !stored {
		// Lost the race to a concurrent finalization; its record wins.
		existing, rErr := s.records.GetArchive(ctx, periodID)
		if rErr != nil {
			return nil, fmt.Errorf("read winning archive: %w", rErr)
		}
		metrics.RecordFinalization("already_finalized")
		return existing, nil
	}

	metrics.RecordFinalization("finalized")
	s.logger.Info(ctx, "period finalized",
		logger.String("period", periodID),
		logger.Int("awards", len(archive.Distribution)),
		logger.Int64("pool_micro", s.prizePoolMicro),
	)
	return archive, nil
}

// PrizeArchive returns a period's finalized distribution, nil when the
// period has not been finalized yet.
func (s *Service) PrizeArchive(ctx context.Context, periodID string) (*model.PrizeArchive, error) {
	if !period.IsWeekly(periodID) || !period.Valid(periodID) {
		return nil, ErrUnknownPeriod
	}
	return s.records.GetArchive(ctx, periodID)
}

// PreviewDistribution computes what the payout would be if the period were
// finalized now, without writing anything.
func (s *Service) PreviewDistribution(ctx context.Context, periodID string) ([]model.PrizeAward, error) {
	if !period.IsWeekly(periodID) || !period.Valid(periodID) {
		return nil, ErrUnknownPeriod
	}
	entries, err := s.scores.Range(ctx, periodID, 1, maxPayingRank)
	if err != nil {
		return nil, fmt.Errorf("snapshot standings: %w", err)
	}
	snapshot := make([]prize.Standing, len(entries))
	for i, e := range entries {
		snapshot[i] = prize.Standing{UserID: e.UserID, Score: e.Score}
	}
	return prize.Calculate(snapshot, s.prizePoolMicro, s.prizeTable), nil
}
