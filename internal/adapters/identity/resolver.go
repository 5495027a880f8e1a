// Package identity resolves user IDs to display identities for overtake
// and rank-change notifications. Resolution is best-effort: it is batched,
// cached, and bounded, and a failure never propagates past this package.
package identity

import (
	"context"
	"sync"
	"time"
)

// Identity is the display shape surfaced alongside leaderboard events.
type Identity struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// ProfileKind tags the persisted profile variants. Records are stored with
// their tag so readers never have to sniff shapes.
type ProfileKind string

const (
	// ProfileResolved carries a full display identity.
	ProfileResolved ProfileKind = "resolved"
	// ProfileBasic is a bare user record with no resolved identity.
	ProfileBasic ProfileKind = "basic"
)

// ProfileRecord is the tagged union persisted for a user profile.
type ProfileRecord struct {
	Kind     ProfileKind `json:"kind"`
	UserID   string      `json:"user_id"`
	Identity *Identity   `json:"identity,omitempty"`
}

// Resolver is the external identity-resolution collaborator.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (Identity, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, userID string) (Identity, error)

func (f ResolverFunc) Resolve(ctx context.Context, userID string) (Identity, error) {
	return f(ctx, userID)
}

// CachingResolver wraps an upstream Resolver with the explicit TTL cache
// and enforces the batching constraints: bounded concurrency and a short
// per-batch timeout so a stalled upstream can never block the caller's
// score-mutation path.
type CachingResolver struct {
	upstream Resolver
	cache    *Cache

	concurrency int
	timeout     time.Duration
}

// ResolverOption applies a configuration option to the CachingResolver.
type ResolverOption func(*CachingResolver)

// WithConcurrency bounds in-flight upstream lookups per batch.
func WithConcurrency(n int) ResolverOption {
	return func(r *CachingResolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTimeout bounds a whole resolution batch.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *CachingResolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewCachingResolver builds a resolver over the given upstream and cache.
// The cache is injected, not a package singleton, so tests and callers
// control its clock and lifetime.
func NewCachingResolver(upstream Resolver, cache *Cache, opts ...ResolverOption) *CachingResolver {
	r := &CachingResolver{
		upstream:    upstream,
		cache:       cache,
		concurrency: defaultConcurrency,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveBatch resolves the given IDs cache-first. The returned map holds
// only successful resolutions; callers drop events for missing IDs rather
// than failing the whole operation. ResolveBatch itself never returns an
// error.
func (r *CachingResolver) ResolveBatch(ctx context.Context, userIDs []string) map[string]Identity {
	out := make(map[string]Identity, len(userIDs))
	if len(userIDs) == 0 {
		return out
	}

	var misses []string
	for _, id := range userIDs {
		if ident, ok := r.cache.Get(id); ok {
			out[id] = ident
		} else {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 || r.upstream == nil {
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.concurrency)
	)
	for _, id := range misses {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			ident, err := r.upstream.Resolve(ctx, userID)
			if err != nil {
				return
			}
			r.cache.Put(userID, ident)
			mu.Lock()
			out[userID] = ident
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return out
}

// Fallback returns the degraded display identity used when resolution
// fails on paths that still need a name (e.g. the submitter's own
// notification).
func Fallback(userID string) Identity {
	name := userID
	if len(name) > 10 {
		name = name[:6] + "…" + name[len(name)-3:]
	}
	return Identity{DisplayName: name}
}
