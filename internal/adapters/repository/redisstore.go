package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/314yush/caporslap/pkg/metrics"
)

// Redis-backed Store implementation.
//
// Each period maps to one sorted set under "score:{period}". The raise is
// a Lua script, so compare-and-set happens server-side in one atomic step.
// Redis orders equal-score members lexicographically ascending, which is
// exactly the pinned tie-break (userID ascending); rank and range reads
// reconstruct strict ordinals from that ordering rather than trusting
// ZREVRANK, whose tie order is reversed.

// raiseScript performs the conditional raise and stamps the period TTL on
// first write. Returns {applied, previousScore} with previous "-1" when
// the member was absent.
var raiseScript = redis.NewScript(`
local cur = redis.call('ZSCORE', KEYS[1], ARGV[1])
if cur and tonumber(cur) >= tonumber(ARGV[2]) then
  return {0, cur}
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[1])
local ttl = tonumber(ARGV[3])
if ttl and ttl > 0 and redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
if cur then
  return {1, cur}
end
return {1, '-1'}
`)

// RedisStore implements Store over a shared Redis client. The client is
// constructed once at startup and injected; there is no lazy connect.
type RedisStore struct {
	client    *redis.Client
	retention RetentionFunc
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithRedisRetention sets the per-period TTL policy applied on first write.
func WithRedisRetention(fn RetentionFunc) RedisOption {
	return func(s *RedisStore) {
		s.retention = fn
	}
}

// NewRedisStore wraps an already-connected client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func scoreKey(period string) string {
	return "score:" + period
}

// RaiseIfGreater runs the compare-and-set script.
func (s *RedisStore) RaiseIfGreater(ctx context.Context, period, userID string, score int64) (bool, int64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("raise_if_greater", float64(time.Since(start).Milliseconds()))
	}()
	if score < 0 {
		return false, 0, ErrInvalidScore
	}

	var ttlMillis int64
	if s.retention != nil {
		if ttl := s.retention(period, time.Now()); ttl > 0 {
			ttlMillis = ttl.Milliseconds()
		}
	}

	res, err := raiseScript.Run(ctx, s.client, []string{scoreKey(period)}, userID, score, ttlMillis).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: raise failed: %v", ErrUnavailable, err)
	}
	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return false, 0, fmt.Errorf("%w: unexpected raise reply %v", ErrUnavailable, res)
	}
	applied, _ := reply[0].(int64)
	previous := int64(0)
	if raw, ok := reply[1].(string); ok && raw != "-1" {
		if f, perr := strconv.ParseFloat(raw, 64); perr == nil {
			previous = int64(f)
		}
	}
	return applied == 1, previous, nil
}

// Rank reconstructs the strict ordinal: entries scoring higher, plus the
// user's position inside its own tie group (ascending by userID).
func (s *RedisStore) Rank(ctx context.Context, period, userID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("rank", float64(time.Since(start).Milliseconds()))
	}()
	key := scoreKey(period)

	scoreF, err := s.client.ZScore(ctx, key, userID).Result()
	if err == redis.Nil {
		return Entry{}, ErrNoEntry
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: zscore failed: %v", ErrUnavailable, err)
	}
	score := int64(scoreF)

	higher, err := s.client.ZCount(ctx, key, "("+formatScore(score), "+inf").Result()
	if err != nil {
		return Entry{}, fmt.Errorf("%w: zcount failed: %v", ErrUnavailable, err)
	}
	peers, err := s.tieGroup(ctx, key, score)
	if err != nil {
		return Entry{}, err
	}
	for i, peer := range peers {
		if peer == userID {
			return Entry{Rank: int(higher) + i + 1, UserID: userID, Score: score}, nil
		}
	}
	return Entry{}, ErrNoEntry
}

// Range rebuilds ordinal ranks for startRank..endRank. Boundary tie
// groups are refetched whole so ranks straddling the window edges stay
// deterministic.
func (s *RedisStore) Range(ctx context.Context, period string, startRank, endRank int) ([]Entry, error) {
	begin := time.Now()
	defer func() {
		metrics.RecordStoreLatency("range", float64(time.Since(begin).Milliseconds()))
	}()
	if startRank < 1 || endRank < startRank {
		return nil, ErrInvalidRange
	}
	key := scoreKey(period)

	raw, err := s.client.ZRevRangeWithScores(ctx, key, int64(startRank-1), int64(endRank-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zrevrange failed: %v", ErrUnavailable, err)
	}
	if len(raw) == 0 {
		return []Entry{}, nil
	}

	// Distinct scores in descending order, as fetched.
	scores := make([]int64, 0, len(raw))
	for _, z := range raw {
		sc := int64(z.Score)
		if len(scores) == 0 || scores[len(scores)-1] != sc {
			scores = append(scores, sc)
		}
	}
	highest, lowest := scores[0], scores[len(scores)-1]

	// Member lists per score, userID ascending. Boundary groups come from
	// a complete refetch; interior groups are fully inside the window.
	groups := make(map[int64][]string, len(scores))
	for _, z := range raw {
		sc := int64(z.Score)
		if sc == highest || sc == lowest {
			continue
		}
		groups[sc] = append(groups[sc], z.Member.(string))
	}
	for sc := range groups {
		sort.Strings(groups[sc])
	}
	for _, sc := range []int64{highest, lowest} {
		if _, done := groups[sc]; done {
			continue
		}
		peers, gerr := s.tieGroup(ctx, key, sc)
		if gerr != nil {
			return nil, gerr
		}
		groups[sc] = peers
	}

	// Ordinal rank of the highest group's first member.
	above, err := s.client.ZCount(ctx, key, "("+formatScore(highest), "+inf").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zcount failed: %v", ErrUnavailable, err)
	}

	out := make([]Entry, 0, endRank-startRank+1)
	rank := int(above) + 1
	for _, sc := range scores {
		for _, member := range groups[sc] {
			if rank >= startRank && rank <= endRank {
				out = append(out, Entry{Rank: rank, UserID: member, Score: sc})
			}
			rank++
		}
	}
	return out, nil
}

// tieGroup fetches every member holding exactly the given score, in
// lexicographic (userID ascending) order.
func (s *RedisStore) tieGroup(ctx context.Context, key string, score int64) ([]string, error) {
	peers, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: formatScore(score),
		Max: formatScore(score),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: zrangebyscore failed: %v", ErrUnavailable, err)
	}
	return peers, nil
}

// CountAtLeast counts entries scoring at or above the given value.
func (s *RedisStore) CountAtLeast(ctx context.Context, period string, score int64) (int, error) {
	n, err := s.client.ZCount(ctx, scoreKey(period), formatScore(score), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: zcount failed: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

// Count returns the period's cardinality.
func (s *RedisStore) Count(ctx context.Context, period string) (int, error) {
	n, err := s.client.ZCard(ctx, scoreKey(period)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: zcard failed: %v", ErrUnavailable, err)
	}
	return int(n), nil
}

// DropPeriod deletes the period's sorted set.
func (s *RedisStore) DropPeriod(ctx context.Context, period string) error {
	if err := s.client.Del(ctx, scoreKey(period)).Err(); err != nil {
		return fmt.Errorf("%w: del failed: %v", ErrUnavailable, err)
	}
	return nil
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

func formatScore(score int64) string {
	return strconv.FormatInt(score, 10)
}
