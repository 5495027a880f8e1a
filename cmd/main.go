package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/314yush/caporslap/internal/adapters/http/api"
	"github.com/314yush/caporslap/internal/adapters/identity"
	"github.com/314yush/caporslap/internal/adapters/repository"
	"github.com/314yush/caporslap/internal/adapters/state"
	app "github.com/314yush/caporslap/internal/app"
	"github.com/314yush/caporslap/internal/config"
	"github.com/314yush/caporslap/internal/domain/model"
	"github.com/314yush/caporslap/internal/domain/period"
	"github.com/314yush/caporslap/internal/domain/replay"
	"github.com/314yush/caporslap/pkg/logger"
	"github.com/314yush/caporslap/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Build the storage adapters. The Redis client, when used, is owned
	// here and shared by both stores.
	var (
		scores      repository.Store
		records     state.Store
		redisClient *redis.Client
	)
	switch cfg.StoreBackend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = redisClient.Close() }()
		scores = repository.NewRedisStore(redisClient,
			repository.WithRedisRetention(period.Retention),
		)
		records = state.NewRedisStore(redisClient)
		loggerInstance.Info(ctx, "using redis stores", logger.String("addr", cfg.RedisAddr))
	default:
		scores = repository.NewMemoryStore(ctx,
			repository.WithRetention(period.Retention),
		)
		records = state.NewMemoryStore()
		loggerInstance.Info(ctx, "using in-memory stores")
	}

	// Token pool snapshot for replay validation.
	pool := make([]model.Token, len(cfg.Tokens))
	for i, t := range cfg.Tokens {
		pool[i] = model.Token{ID: t.ID, MarketCap: t.MarketCapUSD}
	}
	validator := replay.New(pool,
		replay.WithMinGuessGap(time.Duration(cfg.MinGuessGapMS)*time.Millisecond),
		replay.WithNetworkBuffer(time.Duration(cfg.NetworkBufferMS)*time.Millisecond),
		replay.WithMaxReprieves(cfg.MaxReprieves),
	)

	// Identity resolution with its explicit cache.
	cache := identity.NewCache(
		identity.WithCacheTTL(time.Duration(cfg.IdentityCacheTTLSeconds)*time.Second),
		identity.WithCacheSize(cfg.IdentityCacheSize),
	)
	resolver := identity.NewCachingResolver(
		identity.ResolverFunc(func(_ context.Context, userID string) (identity.Identity, error) {
			return identity.Fallback(userID), nil
		}),
		cache,
		identity.WithConcurrency(cfg.IdentityConcurrency),
		identity.WithTimeout(time.Duration(cfg.IdentityTimeoutMS)*time.Millisecond),
	)

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithScoreStore(scores),
		app.WithRecordStore(records),
		app.WithValidator(validator),
		app.WithResolver(resolver),
		app.WithVerifyThreshold(cfg.VerifyThreshold),
		app.WithOvertakeWindow(cfg.OvertakeWindow),
		app.WithOvertakeLimit(cfg.OvertakeLimit),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.NotifyQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithPrizePool(cfg.PrizePoolMicro),
		app.WithFinalizeSchedule(cfg.FinalizeCron),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardRange)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if total, ok := stats["totalPlayers"].(int); ok {
		metrics.UpdateTotalPlayers(total)
	}
}
