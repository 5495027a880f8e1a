package state

import (
	"context"
	"sync"
	"time"

	"github.com/314yush/caporslap/internal/domain/model"
)

// MemoryStore implements Store with plain maps. Expiry is checked lazily
// on read, which is plenty for stats records that expire once a week.
type MemoryStore struct {
	mu        sync.RWMutex
	stats     map[string]statsRecord
	positions map[string]int
	archives  map[string]*model.PrizeArchive
	clock     func() time.Time
}

type statsRecord struct {
	stats     model.WeeklyStats
	expiresAt time.Time // zero means no expiry
}

// MemoryStoreOption applies a configuration option to the MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock injects the time source, mainly for expiry tests.
func WithClock(clock func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore constructs an in-memory record store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		stats:     make(map[string]statsRecord),
		positions: make(map[string]int),
		archives:  make(map[string]*model.PrizeArchive),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func statsKey(periodID, userID string) string {
	return "weeklyStats:" + periodID + ":" + userID
}

func positionKey(board, userID string) string {
	return "position:" + board + ":" + userID
}

func archiveKey(periodID string) string {
	return "prizeArchive:" + periodID
}

// GetStats returns a copy of the stored stats, nil when absent or expired.
func (s *MemoryStore) GetStats(ctx context.Context, periodID, userID string) (*model.WeeklyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.stats[statsKey(periodID, userID)]
	if !ok {
		return nil, nil
	}
	if !rec.expiresAt.IsZero() && s.clock().After(rec.expiresAt) {
		return nil, nil
	}
	out := rec.stats
	return &out, nil
}

// PutStats upserts the stats record.
func (s *MemoryStore) PutStats(ctx context.Context, stats *model.WeeklyStats, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := statsRecord{stats: *stats}
	if ttl > 0 {
		rec.expiresAt = s.clock().Add(ttl)
	}
	s.stats[statsKey(stats.Period, stats.UserID)] = rec
	return nil
}

// GetPosition returns the stored baseline rank.
func (s *MemoryStore) GetPosition(ctx context.Context, board, userID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rank, ok := s.positions[positionKey(board, userID)]
	return rank, ok, nil
}

// PutPosition overwrites the stored baseline rank.
func (s *MemoryStore) PutPosition(ctx context.Context, board, userID string, rank int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[positionKey(board, userID)] = rank
	return nil
}

// GetArchive returns the finalized distribution, nil when not finalized.
func (s *MemoryStore) GetArchive(ctx context.Context, periodID string) (*model.PrizeArchive, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arch, ok := s.archives[archiveKey(periodID)]
	if !ok {
		return nil, nil
	}
	out := *arch
	out.Distribution = append([]model.PrizeAward(nil), arch.Distribution...)
	return &out, nil
}

// PutArchiveOnce stores the archive only when the slot is empty.
func (s *MemoryStore) PutArchiveOnce(ctx context.Context, archive *model.PrizeArchive) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := archiveKey(archive.Period)
	if _, exists := s.archives[key]; exists {
		return false, nil
	}
	stored := *archive
	stored.Distribution = append([]model.PrizeAward(nil), archive.Distribution...)
	s.archives[key] = &stored
	return true, nil
}

// HealthCheck always succeeds for the in-memory adapter.
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory adapter.
func (s *MemoryStore) Close() error {
	return nil
}
