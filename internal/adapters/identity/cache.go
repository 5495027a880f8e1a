package identity

import (
	"sync"
	"time"
)

const (
	defaultConcurrency = 5
	defaultTimeout     = 2 * time.Second
	defaultCacheTTL    = 10 * time.Minute
	defaultCacheSize   = 10_000
)

// Cache is an explicit TTL cache for resolved identities. It is owned by
// whoever constructs it and passed to collaborators; nothing in this
// package holds one globally.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	order   []string // insertion order for capacity eviction

	ttl     time.Duration
	maxSize int
	clock   func() time.Time
}

type cacheEntry struct {
	identity  Identity
	expiresAt time.Time
}

// CacheOption applies a configuration option to the Cache.
type CacheOption func(*Cache)

// WithCacheTTL sets how long a resolved identity stays fresh.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheSize bounds the number of cached identities.
func WithCacheSize(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithCacheClock injects the time source, mainly for expiry tests.
func WithCacheClock(clock func() time.Time) CacheOption {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCache constructs an identity cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     defaultCacheTTL,
		maxSize: defaultCacheSize,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached identity when present and unexpired.
func (c *Cache) Get(userID string) (Identity, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok || c.clock().After(entry.expiresAt) {
		return Identity{}, false
	}
	return entry.identity, true
}

// Put stores the identity, evicting the oldest insertion when full.
func (c *Cache) Put(userID string, identity Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[userID]; !exists {
		if len(c.entries) >= c.maxSize && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, userID)
	}
	c.entries[userID] = cacheEntry{
		identity:  identity,
		expiresAt: c.clock().Add(c.ttl),
	}
}

// Len reports the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
