// Package repository defines the ranked score store interface and errors.
//
// A Store keeps one ordered score board per scoring period. Periods are
// independent namespaces with independent retention; dropping one never
// affects another. Ordering is score descending with ties broken by
// userID ascending, and ranks are strict ordinals: N entries always
// occupy exactly {1..N}.
package repository

import "context"

// Entry is one row of a period's board.
type Entry struct {
	Rank   int
	UserID string
	Score  int64
}

// Store provides read/write access to ranked scores.
//
// RaiseIfGreater is the load-bearing operation of the whole engine: it
// must be a single atomic storage-side operation, never an application
// level read-compare-write, so that two concurrent submissions for the
// same user can never let a lower score stomp a higher one.
type Store interface {
	// RaiseIfGreater sets the entry's score to score only if it is
	// strictly greater than the concurrently-visible current value.
	// It reports whether the raise took effect and the previous score
	// (zero when the user had no entry).
	RaiseIfGreater(ctx context.Context, period, userID string, score int64) (applied bool, previous int64, err error)

	// Rank returns the user's current entry. Returns ErrNoEntry when the
	// user has no score in the period; that is a normal outcome, not a
	// failure.
	Rank(ctx context.Context, period, userID string) (Entry, error)

	// Range returns entries occupying ranks startRank..endRank inclusive,
	// in rank order. Out-of-bounds ranks are clamped.
	Range(ctx context.Context, period string, startRank, endRank int) ([]Entry, error)

	// CountAtLeast returns how many entries have score >= the given value.
	CountAtLeast(ctx context.Context, period string, score int64) (int, error)

	// Count returns the number of entries in the period.
	Count(ctx context.Context, period string) (int, error)

	// DropPeriod deletes all entries of one period.
	DropPeriod(ctx context.Context, period string) error

	// HealthCheck reports whether the backing storage is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backing resources.
	Close() error
}
