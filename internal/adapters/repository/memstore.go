package repository

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/314yush/caporslap/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Each period owns its own treap ordered by (score DESC, userID ASC) with
// size-augmented nodes, so rank, countAtLeast, and range reads are all
// O(log n) descents. All mutation happens under the store mutex, which is
// what makes RaiseIfGreater a single atomic operation here.

// node is one treap entry. size counts the subtree rooted at the node.
type node struct {
	userID string
	score  int64
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// ranksBefore reports whether (aScore, aID) occupies an earlier rank than
// (bScore, bID): higher score first, userID ascending on ties.
func ranksBefore(aScore int64, aID string, bScore int64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, userID string, score int64, prio uint64) *node {
	if n == nil {
		return &node{userID: userID, score: score, prio: prio, size: 1}
	}
	if ranksBefore(score, userID, n.score, n.userID) {
		n.left = insert(n.left, userID, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, userID, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, userID string, score int64) *node {
	if n == nil {
		return nil
	}
	if score == n.score && userID == n.userID {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, userID, score)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, userID, score)
		}
	} else if ranksBefore(score, userID, n.score, n.userID) {
		n.left = remove(n.left, userID, score)
	} else {
		n.right = remove(n.right, userID, score)
	}
	fix(n)
	return n
}

// rankOf returns the 1-indexed ordinal of an entry known to exist.
func rankOf(n *node, userID string, score int64) int {
	rank := 1
	for n != nil {
		if score == n.score && userID == n.userID {
			return rank + nsize(n.left)
		}
		if ranksBefore(score, userID, n.score, n.userID) {
			n = n.left
		} else {
			rank += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// countAtLeast descends counting entries with score >= s. Everything in a
// node's left subtree ranks earlier and therefore scores at least as high.
func countAtLeast(n *node, s int64) int {
	count := 0
	for n != nil {
		if n.score >= s {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectRange appends entries whose ordinal rank falls in [lo, hi].
// base is the number of entries ranking before this subtree.
func collectRange(n *node, lo, hi, base int, out *[]Entry) {
	if n == nil || lo > hi {
		return
	}
	myRank := base + nsize(n.left) + 1
	if lo < myRank {
		collectRange(n.left, lo, hi, base, out)
	}
	if myRank >= lo && myRank <= hi {
		*out = append(*out, Entry{Rank: myRank, UserID: n.userID, Score: n.score})
	}
	if hi > myRank {
		collectRange(n.right, lo, hi, myRank, out)
	}
}

// board is one period's tree plus its member index and optional expiry.
type board struct {
	root      *node
	byUser    map[string]int64
	expiresAt time.Time // zero means no retention
}

// MemoryStore implements Store with one treap per period.
type MemoryStore struct {
	mu      sync.RWMutex
	periods map[string]*board
	rng     *rand.Rand

	retention       RetentionFunc
	janitorInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// RetentionFunc decides how long a newly-created period's board lives.
// Zero or negative means the period is never expired.
type RetentionFunc func(period string, now time.Time) time.Duration

// NewMemoryStore constructs an in-memory ranked score store.
func NewMemoryStore(ctx context.Context, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		periods:         make(map[string]*board),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // treap priorities, not security
		janitorInterval: defaultJanitorInterval,
		stopChan:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startJanitor(ctx)
	return s
}

// startJanitor sweeps expired period boards in the background.
func (s *MemoryStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case now := <-ticker.C:
				s.sweep(now)
			}
		}
	}()
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for period, b := range s.periods {
		if !b.expiresAt.IsZero() && now.After(b.expiresAt) {
			delete(s.periods, period)
			metrics.UpdatePeriodEntries(period, 0)
		}
	}
}

// getBoard returns the period's board, creating it when create is set.
// Callers must hold the mutex.
func (s *MemoryStore) getBoard(period string, create bool) *board {
	b, ok := s.periods[period]
	if !ok && create {
		b = &board{byUser: make(map[string]int64)}
		if s.retention != nil {
			if ttl := s.retention(period, time.Now()); ttl > 0 {
				b.expiresAt = time.Now().Add(ttl)
			}
		}
		s.periods[period] = b
	}
	return b
}

// RaiseIfGreater implements the atomic conditional raise: the compare and
// the write happen under one lock acquisition.
func (s *MemoryStore) RaiseIfGreater(ctx context.Context, period, userID string, score int64) (bool, int64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("raise_if_greater", float64(time.Since(start).Milliseconds()))
	}()
	if score < 0 {
		return false, 0, ErrInvalidScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.getBoard(period, true)
	previous, exists := b.byUser[userID]
	if exists && score <= previous {
		return false, previous, nil
	}
	if exists {
		b.root = remove(b.root, userID, previous)
	}
	b.byUser[userID] = score
	b.root = insert(b.root, userID, score, s.rng.Uint64())
	metrics.UpdatePeriodEntries(period, len(b.byUser))
	return true, previous, nil
}

// Rank returns the user's ordinal position in the period.
func (s *MemoryStore) Rank(ctx context.Context, period, userID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("rank", float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.getBoard(period, false)
	if b == nil {
		return Entry{}, ErrNoEntry
	}
	score, ok := b.byUser[userID]
	if !ok {
		return Entry{}, ErrNoEntry
	}
	return Entry{Rank: rankOf(b.root, userID, score), UserID: userID, Score: score}, nil
}

// Range returns ranks startRank..endRank inclusive.
func (s *MemoryStore) Range(ctx context.Context, period string, startRank, endRank int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("range", float64(time.Since(start).Milliseconds()))
	}()
	if startRank < 1 || endRank < startRank {
		return nil, ErrInvalidRange
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.getBoard(period, false)
	if b == nil {
		return []Entry{}, nil
	}
	if n := nsize(b.root); endRank > n {
		endRank = n
	}
	out := make([]Entry, 0, endRank-startRank+1)
	collectRange(b.root, startRank, endRank, 0, &out)
	return out, nil
}

// CountAtLeast returns how many entries score at or above the given value.
func (s *MemoryStore) CountAtLeast(ctx context.Context, period string, score int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.getBoard(period, false)
	if b == nil {
		return 0, nil
	}
	return countAtLeast(b.root, score), nil
}

// Count returns the number of entries in the period.
func (s *MemoryStore) Count(ctx context.Context, period string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.getBoard(period, false)
	if b == nil {
		return 0, nil
	}
	return len(b.byUser), nil
}

// DropPeriod deletes one period's board without touching the others.
func (s *MemoryStore) DropPeriod(ctx context.Context, period string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.periods, period)
	metrics.UpdatePeriodEntries(period, 0)
	return nil
}

// HealthCheck always succeeds for the in-memory adapter.
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Close stops the retention janitor.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}
