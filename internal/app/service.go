// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/314yush/caporslap/internal/adapters/identity"
	notifyqueue "github.com/314yush/caporslap/internal/adapters/mq/queue"
	workerpool "github.com/314yush/caporslap/internal/adapters/mq/worker"
	"github.com/314yush/caporslap/internal/adapters/notify"
	repository "github.com/314yush/caporslap/internal/adapters/repository"
	"github.com/314yush/caporslap/internal/adapters/state"
	"github.com/314yush/caporslap/internal/domain/dedupe"
	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/period"
	"github.com/314yush/caporslap/internal/domain/prize"
	"github.com/314yush/caporslap/internal/domain/replay"
	"github.com/314yush/caporslap/pkg/logger"
)

// Service implements the submission pipeline and the read-side queries
// behind the HTTP API. All leaderboard semantics live here; the adapters
// underneath only move bytes.
type Service struct {
	mu sync.RWMutex

	// Core components
	scores    repository.Store
	records   state.Store
	validator *replay.Validator
	deduper   dedupe.Deduper
	queue     notifyqueue.Queue
	pool      *workerpool.Pool
	resolver  *identity.CachingResolver
	notifier  notify.Notifier
	scheduler *scheduler

	// Configuration
	verifyThreshold int
	overtakeWindow  int
	overtakeLimit   int
	workerCount     int
	queueSize       int
	dedupeSize      int
	prizePoolMicro  int64
	prizeTable      prize.Table
	finalizeCron    string
	clock           func() time.Time

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithScoreStore injects the ranked score store. Required before Start.
func WithScoreStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.scores = store
		}
	}
}

// WithRecordStore injects the stats/position/archive store. Required
// before Start.
func WithRecordStore(store state.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.records = store
		}
	}
}

// WithValidator injects the replay validator. Required before Start.
func WithValidator(v *replay.Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithResolver injects the identity resolver used for overtake events.
func WithResolver(r *identity.CachingResolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithNotifier sets the notification sink workers deliver to.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithVerifyThreshold sets the streak at or above which runs are replayed.
func WithVerifyThreshold(threshold int) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.verifyThreshold = threshold
		}
	}
}

// WithOvertakeWindow bounds the candidate scan below the previous rank.
func WithOvertakeWindow(window int) Option {
	return func(s *Service) {
		if window > 0 {
			s.overtakeWindow = window
		}
	}
}

// WithOvertakeLimit caps overtake events per submission.
func WithOvertakeLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.overtakeLimit = limit
		}
	}
}

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the notification queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the run deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPrizePool sets the weekly prize pool in micro-units.
func WithPrizePool(poolMicro int64) Option {
	return func(s *Service) {
		if poolMicro > 0 {
			s.prizePoolMicro = poolMicro
		}
	}
}

// WithPrizeTable overrides the default payout table.
func WithPrizeTable(table prize.Table) Option {
	return func(s *Service) {
		if table != nil {
			s.prizeTable = table
		}
	}
}

// WithFinalizeSchedule sets the cron expression that finalizes the
// previous week. Empty disables the scheduler.
func WithFinalizeSchedule(spec string) Option {
	return func(s *Service) {
		s.finalizeCron = spec
	}
}

// WithClock injects the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		verifyThreshold: 10,
		overtakeWindow:  100,
		overtakeLimit:   10,
		workerCount:     runtime.NumCPU() * 4,
		queueSize:       100000,
		dedupeSize:      50000,
		prizePoolMicro:  1_000_000_000,
		prizeTable:      prize.DefaultTable(),
		finalizeCron:    "5 0 * * 1",
		clock:           time.Now,
		stopCh:          make(chan struct{}),
		logger:          nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	if s.scores == nil {
		return ErrNoScoreStore
	}
	if s.records == nil {
		return ErrNoRecordStore
	}
	if s.validator == nil {
		return ErrNoValidator
	}

	if err := s.prizeTable.Validate(); err != nil {
		return err
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = notifyqueue.NewInMemoryQueue(
		notifyqueue.WithCapacity(s.queueSize),
		notifyqueue.WithBufferSize(s.queueSize),
	)
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier()
	}
	if s.resolver == nil {
		// Without an upstream directory, fall back to derived display
		// names so overtake events still carry something renderable.
		basic := identity.ResolverFunc(func(_ context.Context, userID string) (identity.Identity, error) {
			return identity.Fallback(userID), nil
		})
		s.resolver = identity.NewCachingResolver(basic, identity.NewCache())
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.notifier)
	s.pool.Start(ctx)

	if s.finalizeCron != "" {
		sched, err := newScheduler(s, s.finalizeCron)
		if err != nil {
			return err
		}
		s.scheduler = sched
		s.scheduler.start()
	}

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("verifyThreshold", s.verifyThreshold),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping leaderboard service...")

	if s.scheduler != nil {
		s.scheduler.stop()
	}

	if s.pool != nil {
		s.pool.Stop()
	}

	if s.queue != nil {
		_ = s.queue.Close()
	}

	if s.scores != nil {
		_ = s.scores.Close()
	}
	if s.records != nil {
		_ = s.records.Close()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

// enqueueNotification hands one notification to the async pipeline.
// Dropped notifications are logged and forgotten; delivery is best-effort.
func (s *Service) enqueueNotification(ctx context.Context, n model.Notification) {
	if !s.queue.Enqueue(ctx, n) {
		s.logger.Warn(ctx, "notification dropped, queue full",
			logger.String("user_id", n.UserID),
			logger.String("kind", n.Kind),
		)
	}
}

// activePeriods returns the boards a submission at time now scores on.
func (s *Service) activePeriods(now time.Time) []string {
	return []string{period.Global, period.Weekly(now)}
}

// HealthCheck reports whether both stores are reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.scores.HealthCheck(ctx); err != nil {
		return err
	}
	return s.records.HealthCheck(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"verifyThreshold": s.verifyThreshold,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		if total, err := s.scores.Count(ctx, period.Global); err == nil {
			stats["totalPlayers"] = total
		}
		stats["dedupeEntries"] = s.deduper.Size()
	}

	return stats
}
