package prize_test

import (
	"fmt"
	"testing"

	prize "github.com/314yush/caporslap/internal/domain/prize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTableValidate(t *testing.T) {
	Convey("Given percentage tables", t, func() {
		Convey("When validating the default table", func() {
			err := prize.DefaultTable().Validate()

			Convey("Then it should be valid", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When a rank is out of range", func() {
			tbl := prize.Table{1: 5000, 26: 100}
			err := tbl.Validate()

			Convey("Then it should return ErrRankOutOfRange", func() {
				So(err, ShouldEqual, prize.ErrRankOutOfRange)
			})
		})

		Convey("When a share is negative", func() {
			tbl := prize.Table{1: 5000, 2: -100}
			err := tbl.Validate()

			Convey("Then it should return ErrShareNegative", func() {
				So(err, ShouldEqual, prize.ErrShareNegative)
			})
		})

		Convey("When shares sum past 100%", func() {
			tbl := prize.Table{1: 6000, 2: 5000}
			err := tbl.Validate()

			Convey("Then it should return ErrOverAllocated", func() {
				So(err, ShouldEqual, prize.ErrOverAllocated)
			})
		})

		Convey("When a lower rank pays more than a higher one", func() {
			tbl := prize.Table{1: 1000, 2: 2000}
			err := tbl.Validate()

			Convey("Then it should return ErrNotMonotonic", func() {
				So(err, ShouldEqual, prize.ErrNotMonotonic)
			})
		})

		Convey("When ranks are sparse but ordered", func() {
			tbl := prize.Table{1: 5000, 5: 2000, 10: 1000}
			err := tbl.Validate()

			Convey("Then gaps should be allowed", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestCalculate(t *testing.T) {
	Convey("Given a frozen snapshot", t, func() {
		snapshot := []prize.Standing{
			{UserID: "carol", Score: 40},
			{UserID: "alice", Score: 55},
			{UserID: "bob", Score: 40},
			{UserID: "dave", Score: 10},
		}

		Convey("When calculating with a simple table", func() {
			tbl := prize.Table{1: 5000, 2: 3000, 3: 1000}
			awards := prize.Calculate(snapshot, 1_000_000, tbl)

			Convey("Then ranks follow score desc, user id asc on ties", func() {
				So(len(awards), ShouldEqual, 3)
				So(awards[0].UserID, ShouldEqual, "alice")
				So(awards[0].Rank, ShouldEqual, 1)
				So(awards[1].UserID, ShouldEqual, "bob")
				So(awards[1].Rank, ShouldEqual, 2)
				So(awards[2].UserID, ShouldEqual, "carol")
				So(awards[2].Rank, ShouldEqual, 3)
			})

			Convey("And amounts are floor(pool*share/10000)", func() {
				So(awards[0].Amount, ShouldEqual, 500_000)
				So(awards[1].Amount, ShouldEqual, 300_000)
				So(awards[2].Amount, ShouldEqual, 100_000)
			})
		})

		Convey("When the pool does not divide evenly", func() {
			tbl := prize.Table{1: 3333, 2: 3333, 3: 3333}
			awards := prize.Calculate(snapshot, 1_000_001, tbl)

			Convey("Then rounding is always down", func() {
				var total int64
				for _, a := range awards {
					So(a.Amount, ShouldEqual, int64(1_000_001)*3333/10_000)
					total += a.Amount
				}
				So(total, ShouldBeLessThanOrEqualTo, 1_000_001)
			})
		})

		Convey("When the table pays deeper than the snapshot", func() {
			tbl := prize.Table{1: 5000, 2: 3000, 3: 1000, 4: 500, 5: 400, 6: 100}
			awards := prize.Calculate(snapshot[:2], 1_000_000, tbl)

			Convey("Then absent ranks receive nothing", func() {
				So(len(awards), ShouldEqual, 2)
			})
		})

		Convey("When the snapshot is deeper than the table", func() {
			big := make([]prize.Standing, 0, 40)
			for i := 0; i < 40; i++ {
				big = append(big, prize.Standing{
					UserID: fmt.Sprintf("user-%02d", i),
					Score:  int64(100 - i),
				})
			}
			awards := prize.Calculate(big, 1_000_000_000, prize.DefaultTable())

			Convey("Then only the top 25 are paid", func() {
				So(len(awards), ShouldEqual, 25)
				So(awards[len(awards)-1].Rank, ShouldEqual, 25)
			})

			Convey("And the payout never exceeds the pool", func() {
				var total int64
				for _, a := range awards {
					total += a.Amount
				}
				So(total, ShouldBeLessThanOrEqualTo, 1_000_000_000)
			})
		})

		Convey("When inputs are degenerate", func() {
			tbl := prize.Table{1: 5000}

			Convey("Then an empty snapshot yields no awards", func() {
				So(prize.Calculate(nil, 1_000_000, tbl), ShouldBeNil)
			})

			Convey("And a non-positive pool yields no awards", func() {
				So(prize.Calculate(snapshot, 0, tbl), ShouldBeNil)
				So(prize.Calculate(snapshot, -5, tbl), ShouldBeNil)
			})
		})

		Convey("When calculating twice from the same inputs", func() {
			tbl := prize.DefaultTable()
			a := prize.Calculate(snapshot, 1_000_000_000, tbl)
			b := prize.Calculate(snapshot, 1_000_000_000, tbl)

			Convey("Then the distribution is deterministic", func() {
				So(a, ShouldResemble, b)
			})
		})
	})
}
