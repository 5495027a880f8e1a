// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// TokenConfig describes one token in the guessing pool.
type TokenConfig struct {
	// ID is the token identifier, e.g. "bitcoin".
	ID string `koanf:"id"`

	// MarketCapUSD is the market capitalization used for comparisons.
	MarketCapUSD float64 `koanf:"market_cap_usd"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the score store: memory or redis.
	StoreBackend string `koanf:"store_backend"`

	// Redis connection settings, used when StoreBackend is redis.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// VerifyThreshold is the streak at or above which submissions are
	// replay-validated before any score write.
	VerifyThreshold int `koanf:"verify_threshold"`

	// MinGuessGapMS is the minimum plausible time between guesses.
	MinGuessGapMS int `koanf:"min_guess_gap_ms"`

	// NetworkBufferMS is the grace added to per-round time limits.
	NetworkBufferMS int `koanf:"network_buffer_ms"`

	// MaxReprieves caps the wrong guesses a run may survive.
	MaxReprieves int `koanf:"max_reprieves"`

	// OvertakeWindow bounds how far below the old rank overtake detection
	// scans.
	OvertakeWindow int `koanf:"overtake_window"`

	// OvertakeLimit caps overtake events emitted per submission.
	OvertakeLimit int `koanf:"overtake_limit"`

	// Identity resolution settings.
	IdentityCacheTTLSeconds int `koanf:"identity_cache_ttl_seconds"`
	IdentityCacheSize       int `koanf:"identity_cache_size"`
	IdentityConcurrency     int `koanf:"identity_concurrency"`
	IdentityTimeoutMS       int `koanf:"identity_timeout_ms"`

	// PrizePoolMicro is the weekly prize pool in micro-units.
	PrizePoolMicro int64 `koanf:"prize_pool_micro"`

	// FinalizeCron schedules automatic finalization of the previous week.
	FinalizeCron string `koanf:"finalize_cron"`

	// NotifyQueueSize bounds the in-memory notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// WorkerCount sets the number of notification workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the run deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardRange caps GET /leaderboard?limit.
	MaxLeaderboardRange int `koanf:"max_leaderboard_range"`

	// Tokens is the guessing pool with market caps.
	Tokens []TokenConfig `koanf:"tokens"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		StoreBackend:            "memory",
		RedisAddr:               "localhost:6379",
		VerifyThreshold:         10,
		MinGuessGapMS:           100,
		NetworkBufferMS:         3000,
		MaxReprieves:            1,
		OvertakeWindow:          100,
		OvertakeLimit:           10,
		IdentityCacheTTLSeconds: 600,
		IdentityCacheSize:       10_000,
		IdentityConcurrency:     5,
		IdentityTimeoutMS:       2000,
		PrizePoolMicro:          1_000_000_000,
		FinalizeCron:            "5 0 * * 1",
		NotifyQueueSize:         100_000,
		WorkerCount:             runtime.NumCPU() * 4,
		DedupeSize:              500_000,
		MaxLeaderboardRange:     100,
		Tokens:                  defaultTokens(),
	}
	return c
}

// defaultTokens is the built-in pool used when no token file is supplied.
// Market caps are point-in-time snapshots; only their relative order
// matters for validation.
func defaultTokens() []TokenConfig {
	return []TokenConfig{
		{ID: "bitcoin", MarketCapUSD: 1_280_000_000_000},
		{ID: "ethereum", MarketCapUSD: 395_000_000_000},
		{ID: "tether", MarketCapUSD: 112_000_000_000},
		{ID: "bnb", MarketCapUSD: 86_000_000_000},
		{ID: "solana", MarketCapUSD: 78_000_000_000},
		{ID: "xrp", MarketCapUSD: 34_000_000_000},
		{ID: "dogecoin", MarketCapUSD: 23_000_000_000},
		{ID: "cardano", MarketCapUSD: 16_000_000_000},
		{ID: "avalanche", MarketCapUSD: 14_000_000_000},
		{ID: "chainlink", MarketCapUSD: 11_000_000_000},
		{ID: "polkadot", MarketCapUSD: 9_500_000_000},
		{ID: "polygon", MarketCapUSD: 7_200_000_000},
		{ID: "uniswap", MarketCapUSD: 6_100_000_000},
		{ID: "litecoin", MarketCapUSD: 5_900_000_000},
		{ID: "aptos", MarketCapUSD: 3_800_000_000},
		{ID: "arbitrum", MarketCapUSD: 3_200_000_000},
	}
}
