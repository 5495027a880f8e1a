package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/314yush/caporslap/internal/domain/model"
)

// RedisStore implements Store with JSON values. Stats records carry the
// weekly retention TTL; archives rely on SETNX for their write-once
// guarantee, so concurrent finalizations of the same period converge on
// whichever distribution landed first.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetStats returns the user's stats for a period, nil when absent.
func (s *RedisStore) GetStats(ctx context.Context, periodID, userID string) (*model.WeeklyStats, error) {
	raw, err := s.client.Get(ctx, statsKey(periodID, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get stats failed: %v", ErrUnavailable, err)
	}
	var stats model.WeeklyStats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return nil, fmt.Errorf("%w: stats %s/%s: %v", ErrCorrupt, periodID, userID, err)
	}
	return &stats, nil
}

// PutStats upserts the stats record with the given TTL.
func (s *RedisStore) PutStats(ctx context.Context, stats *model.WeeklyStats, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, statsKey(stats.Period, stats.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set stats failed: %v", ErrUnavailable, err)
	}
	return nil
}

// GetPosition returns the stored baseline rank.
func (s *RedisStore) GetPosition(ctx context.Context, board, userID string) (int, bool, error) {
	raw, err := s.client.Get(ctx, positionKey(board, userID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: get position failed: %v", ErrUnavailable, err)
	}
	rank, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: position %s/%s: %v", ErrCorrupt, board, userID, err)
	}
	return rank, true, nil
}

// PutPosition overwrites the stored baseline rank.
func (s *RedisStore) PutPosition(ctx context.Context, board, userID string, rank int) error {
	if err := s.client.Set(ctx, positionKey(board, userID), strconv.Itoa(rank), 0).Err(); err != nil {
		return fmt.Errorf("%w: set position failed: %v", ErrUnavailable, err)
	}
	return nil
}

// GetArchive returns the finalized distribution, nil when not finalized.
func (s *RedisStore) GetArchive(ctx context.Context, periodID string) (*model.PrizeArchive, error) {
	raw, err := s.client.Get(ctx, archiveKey(periodID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get archive failed: %v", ErrUnavailable, err)
	}
	var arch model.PrizeArchive
	if err := json.Unmarshal([]byte(raw), &arch); err != nil {
		return nil, fmt.Errorf("%w: archive %s: %v", ErrCorrupt, periodID, err)
	}
	return &arch, nil
}

// PutArchiveOnce stores the archive with SETNX; archives never expire.
func (s *RedisStore) PutArchiveOnce(ctx context.Context, archive *model.PrizeArchive) (bool, error) {
	data, err := json.Marshal(archive)
	if err != nil {
		return false, fmt.Errorf("marshal archive: %w", err)
	}
	stored, err := s.client.SetNX(ctx, archiveKey(archive.Period), data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("%w: setnx archive failed: %v", ErrUnavailable, err)
	}
	return stored, nil
}

// HealthCheck pings the backend.
func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op; the shared client is owned by the caller that
// constructed it.
func (s *RedisStore) Close() error {
	return nil
}
