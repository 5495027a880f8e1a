package state_test

import (
	"context"
	"testing"
	"time"

	state "github.com/314yush/caporslap/internal/adapters/state"
	model "github.com/314yush/caporslap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStoreStats(t *testing.T) {
	Convey("Given an in-memory record store", t, func() {
		ctx := context.Background()
		store := state.NewMemoryStore()

		Convey("When no stats exist", func() {
			stats, err := store.GetStats(ctx, "weekly:2026-W35", "alice")

			Convey("Then absence is nil, not an error", func() {
				So(err, ShouldBeNil)
				So(stats, ShouldBeNil)
			})
		})

		Convey("When stats are written and read back", func() {
			in := &model.WeeklyStats{
				Period:          "weekly:2026-W35",
				UserID:          "alice",
				CumulativeScore: 31,
				BestStreak:      14,
				RunCount:        3,
			}
			err := store.PutStats(ctx, in, 0)
			out, getErr := store.GetStats(ctx, "weekly:2026-W35", "alice")

			Convey("Then the record round-trips", func() {
				So(err, ShouldBeNil)
				So(getErr, ShouldBeNil)
				So(out, ShouldNotBeNil)
				So(out.CumulativeScore, ShouldEqual, 31)
				So(out.BestStreak, ShouldEqual, 14)
				So(out.RunCount, ShouldEqual, 3)
			})

			Convey("And mutating the copy does not touch the store", func() {
				out.CumulativeScore = 999
				again, _ := store.GetStats(ctx, "weekly:2026-W35", "alice")
				So(again.CumulativeScore, ShouldEqual, 31)
			})
		})

		Convey("When stats carry a TTL", func() {
			now := time.Date(2026, time.August, 26, 0, 0, 0, 0, time.UTC)
			clock := state.NewMemoryStore(state.WithClock(func() time.Time { return now }))

			in := &model.WeeklyStats{Period: "weekly:2026-W35", UserID: "alice", CumulativeScore: 31}
			_ = clock.PutStats(ctx, in, 48*time.Hour)

			Convey("Then the record is visible inside the window", func() {
				now = now.Add(24 * time.Hour)
				out, err := clock.GetStats(ctx, "weekly:2026-W35", "alice")
				So(err, ShouldBeNil)
				So(out, ShouldNotBeNil)
			})

			Convey("And invisible once it elapses", func() {
				now = now.Add(49 * time.Hour)
				out, err := clock.GetStats(ctx, "weekly:2026-W35", "alice")
				So(err, ShouldBeNil)
				So(out, ShouldBeNil)
			})
		})

		Convey("When stats exist in two periods", func() {
			_ = store.PutStats(ctx, &model.WeeklyStats{Period: "weekly:2026-W34", UserID: "alice", CumulativeScore: 5}, 0)
			_ = store.PutStats(ctx, &model.WeeklyStats{Period: "weekly:2026-W35", UserID: "alice", CumulativeScore: 9}, 0)

			Convey("Then each period keeps its own record", func() {
				prev, _ := store.GetStats(ctx, "weekly:2026-W34", "alice")
				cur, _ := store.GetStats(ctx, "weekly:2026-W35", "alice")
				So(prev.CumulativeScore, ShouldEqual, 5)
				So(cur.CumulativeScore, ShouldEqual, 9)
			})
		})
	})
}

func TestMemoryStorePositions(t *testing.T) {
	Convey("Given an in-memory record store", t, func() {
		ctx := context.Background()
		store := state.NewMemoryStore()

		Convey("When no baseline exists", func() {
			_, ok, err := store.GetPosition(ctx, "global", "alice")

			Convey("Then it reports absence", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a baseline is stored and overwritten", func() {
			_ = store.PutPosition(ctx, "global", "alice", 7)
			_ = store.PutPosition(ctx, "global", "alice", 3)

			rank, ok, err := store.GetPosition(ctx, "global", "alice")

			Convey("Then the latest write wins", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(rank, ShouldEqual, 3)
			})
		})

		Convey("When baselines exist per board", func() {
			_ = store.PutPosition(ctx, "global", "alice", 7)
			_ = store.PutPosition(ctx, "weekly:2026-W35", "alice", 2)

			g, _, _ := store.GetPosition(ctx, "global", "alice")
			w, _, _ := store.GetPosition(ctx, "weekly:2026-W35", "alice")

			Convey("Then boards do not share baselines", func() {
				So(g, ShouldEqual, 7)
				So(w, ShouldEqual, 2)
			})
		})
	})
}

func TestMemoryStoreArchives(t *testing.T) {
	Convey("Given an in-memory record store", t, func() {
		ctx := context.Background()
		store := state.NewMemoryStore()

		archive := &model.PrizeArchive{
			Period: "weekly:2026-W34",
			Distribution: []model.PrizeAward{
				{Rank: 1, UserID: "alice", Amount: 250_000_000},
				{Rank: 2, UserID: "bob", Amount: 150_000_000},
			},
			FinalizedAt: time.Date(2026, time.August, 31, 0, 5, 0, 0, time.UTC),
			Status:      model.ArchiveCompleted,
		}

		Convey("When no archive exists", func() {
			out, err := store.GetArchive(ctx, "weekly:2026-W34")

			Convey("Then absence is nil, not an error", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeNil)
			})
		})

		Convey("When the first finalization writes the archive", func() {
			stored, err := store.PutArchiveOnce(ctx, archive)

			Convey("Then the write wins", func() {
				So(err, ShouldBeNil)
				So(stored, ShouldBeTrue)
			})

			Convey("And a second write is refused", func() {
				rival := &model.PrizeArchive{
					Period:       "weekly:2026-W34",
					Distribution: []model.PrizeAward{{Rank: 1, UserID: "mallory", Amount: 999}},
					Status:       model.ArchiveCompleted,
				}
				stored2, err2 := store.PutArchiveOnce(ctx, rival)
				So(err2, ShouldBeNil)
				So(stored2, ShouldBeFalse)

				out, _ := store.GetArchive(ctx, "weekly:2026-W34")
				So(out.Distribution[0].UserID, ShouldEqual, "alice")
			})

			Convey("And the read returns a defensive copy", func() {
				out, _ := store.GetArchive(ctx, "weekly:2026-W34")
				out.Distribution[0].Amount = 1

				again, _ := store.GetArchive(ctx, "weekly:2026-W34")
				So(again.Distribution[0].Amount, ShouldEqual, 250_000_000)
			})
		})
	})
}
