// Package state persists the engine's non-ranked records: weekly stats,
// last-observed positions, and finalized prize archives.
//
// Logical layout mirrors the score store's namespacing:
//
//	weeklyStats:{period}:{userId}
//	position:{board}:{userId}
//	prizeArchive:{period}
package state

import (
	"context"
	"time"

	"github.com/314yush/caporslap/internal/domain/model"
)

// Store is the record persistence contract. Absent records are returned
// as nil (or ok=false) rather than errors; absence is a normal outcome.
type Store interface {
	// GetStats returns the user's stats for a period, nil when absent.
	GetStats(ctx context.Context, periodID, userID string) (*model.WeeklyStats, error)

	// PutStats upserts the stats record. A positive ttl bounds its
	// lifetime (weekly periods); zero keeps it indefinitely.
	PutStats(ctx context.Context, stats *model.WeeklyStats, ttl time.Duration) error

	// GetPosition returns the last-observed rank for (board, user).
	GetPosition(ctx context.Context, board, userID string) (rank int, ok bool, err error)

	// PutPosition overwrites the stored baseline rank.
	PutPosition(ctx context.Context, board, userID string, rank int) error

	// GetArchive returns a period's finalized distribution, nil when the
	// period has not been finalized.
	GetArchive(ctx context.Context, periodID string) (*model.PrizeArchive, error)

	// PutArchiveOnce stores the archive only if none exists yet and
	// reports whether this call won the write. Archives are write-once;
	// losers must re-read and use the stored record.
	PutArchiveOnce(ctx context.Context, archive *model.PrizeArchive) (stored bool, err error)

	// HealthCheck reports whether the backing storage is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backing resources.
	Close() error
}
