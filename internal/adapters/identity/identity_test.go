package identity_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	identity "github.com/314yush/caporslap/internal/adapters/identity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCache(t *testing.T) {
	Convey("Given an identity cache", t, func() {
		Convey("When storing and reading an identity", func() {
			cache := identity.NewCache()
			cache.Put("alice", identity.Identity{DisplayName: "Alice", AvatarURL: "https://a/alice.png"})

			ident, ok := cache.Get("alice")

			Convey("Then the identity round-trips", func() {
				So(ok, ShouldBeTrue)
				So(ident.DisplayName, ShouldEqual, "Alice")
				So(ident.AvatarURL, ShouldEqual, "https://a/alice.png")
			})

			Convey("And unknown users miss", func() {
				_, ok := cache.Get("nobody")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the TTL elapses", func() {
			now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
			cache := identity.NewCache(
				identity.WithCacheTTL(time.Minute),
				identity.WithCacheClock(func() time.Time { return now }),
			)
			cache.Put("alice", identity.Identity{DisplayName: "Alice"})

			Convey("Then the entry is fresh inside the window", func() {
				now = now.Add(30 * time.Second)
				_, ok := cache.Get("alice")
				So(ok, ShouldBeTrue)
			})

			Convey("And stale after it", func() {
				now = now.Add(2 * time.Minute)
				_, ok := cache.Get("alice")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the cache reaches capacity", func() {
			cache := identity.NewCache(identity.WithCacheSize(3))
			for i := 0; i < 3; i++ {
				cache.Put(fmt.Sprintf("user-%d", i), identity.Identity{DisplayName: fmt.Sprintf("User %d", i)})
			}
			cache.Put("user-3", identity.Identity{DisplayName: "User 3"})

			Convey("Then the oldest insertion is evicted", func() {
				So(cache.Len(), ShouldEqual, 3)

				_, ok := cache.Get("user-0")
				So(ok, ShouldBeFalse)

				_, ok = cache.Get("user-3")
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestCachingResolver(t *testing.T) {
	Convey("Given a caching resolver", t, func() {
		ctx := context.Background()

		Convey("When resolving a batch through the upstream", func() {
			var calls atomic.Int64
			upstream := identity.ResolverFunc(func(_ context.Context, userID string) (identity.Identity, error) {
				calls.Add(1)
				return identity.Identity{DisplayName: "Name of " + userID}, nil
			})
			resolver := identity.NewCachingResolver(upstream, identity.NewCache())

			out := resolver.ResolveBatch(ctx, []string{"alice", "bob"})

			Convey("Then every id resolves", func() {
				So(len(out), ShouldEqual, 2)
				So(out["alice"].DisplayName, ShouldEqual, "Name of alice")
				So(out["bob"].DisplayName, ShouldEqual, "Name of bob")
			})

			Convey("And a second batch is served from cache", func() {
				before := calls.Load()
				again := resolver.ResolveBatch(ctx, []string{"alice", "bob"})
				So(len(again), ShouldEqual, 2)
				So(calls.Load(), ShouldEqual, before)
			})
		})

		Convey("When the upstream fails for one id", func() {
			upstream := identity.ResolverFunc(func(_ context.Context, userID string) (identity.Identity, error) {
				if userID == "broken" {
					return identity.Identity{}, errors.New("profile service unavailable")
				}
				return identity.Identity{DisplayName: "Name of " + userID}, nil
			})
			resolver := identity.NewCachingResolver(upstream, identity.NewCache())

			out := resolver.ResolveBatch(ctx, []string{"alice", "broken", "bob"})

			Convey("Then the failure is dropped, not propagated", func() {
				So(len(out), ShouldEqual, 2)
				_, present := out["broken"]
				So(present, ShouldBeFalse)
			})
		})

		Convey("When the upstream stalls past the batch timeout", func() {
			upstream := identity.ResolverFunc(func(ctx context.Context, userID string) (identity.Identity, error) {
				select {
				case <-time.After(5 * time.Second):
					return identity.Identity{DisplayName: userID}, nil
				case <-ctx.Done():
					return identity.Identity{}, ctx.Err()
				}
			})
			resolver := identity.NewCachingResolver(upstream, identity.NewCache(),
				identity.WithTimeout(50*time.Millisecond),
			)

			start := time.Now()
			out := resolver.ResolveBatch(ctx, []string{"alice"})

			Convey("Then the batch returns empty within the timeout", func() {
				So(len(out), ShouldEqual, 0)
				So(time.Since(start), ShouldBeLessThan, time.Second)
			})
		})

		Convey("When there is no upstream", func() {
			cache := identity.NewCache()
			cache.Put("cached", identity.Identity{DisplayName: "Cached"})
			resolver := identity.NewCachingResolver(nil, cache)

			out := resolver.ResolveBatch(ctx, []string{"cached", "uncached"})

			Convey("Then only cached ids resolve", func() {
				So(len(out), ShouldEqual, 1)
				So(out["cached"].DisplayName, ShouldEqual, "Cached")
			})
		})

		Convey("When the batch is empty", func() {
			resolver := identity.NewCachingResolver(nil, identity.NewCache())
			out := resolver.ResolveBatch(ctx, nil)

			Convey("Then it returns an empty map", func() {
				So(out, ShouldNotBeNil)
				So(len(out), ShouldEqual, 0)
			})
		})
	})
}

func TestFallback(t *testing.T) {
	Convey("Given the fallback identity", t, func() {
		Convey("When the user id is short", func() {
			ident := identity.Fallback("alice")

			Convey("Then the id is used verbatim", func() {
				So(ident.DisplayName, ShouldEqual, "alice")
				So(ident.AvatarURL, ShouldBeEmpty)
			})
		})

		Convey("When the user id is long", func() {
			ident := identity.Fallback("0x1234567890abcdef")

			Convey("Then it is elided for display", func() {
				So(ident.DisplayName, ShouldEqual, "0x1234…def")
			})
		})
	})
}
