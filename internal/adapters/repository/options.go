package repository

import "time"

// defaultJanitorInterval paces the retention sweep of the memory adapter.
const defaultJanitorInterval = 1 * time.Minute

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithRetention sets the per-period retention policy.
func WithRetention(fn RetentionFunc) MemoryOption {
	return func(s *MemoryStore) {
		s.retention = fn
	}
}

// WithJanitorInterval sets how often expired periods are swept.
func WithJanitorInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.janitorInterval = interval
		}
	}
}
