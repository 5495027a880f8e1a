// Package prize computes payout distributions from frozen score snapshots.
//
// Calculation is pure: the same snapshot, pool, and table always produce
// the same distribution, which is what makes period finalization safely
// idempotent for real-money payouts.
package prize

import (
	"errors"
	"sort"

	"github.com/314yush/caporslap/internal/domain/model"
)

// basisPointsDenominator scales percentage-table entries; 100 bp == 1%.
const basisPointsDenominator = 10_000

// maxTableRank bounds how deep a percentage table may pay.
const maxTableRank = 25

// Table maps rank to payout share in basis points.
type Table map[int]int

// Validation errors for percentage tables.
var (
	ErrRankOutOfRange = errors.New("prize table rank out of range")
	ErrShareNegative  = errors.New("prize table share negative")
	ErrOverAllocated  = errors.New("prize table shares exceed 100%")
	ErrNotMonotonic   = errors.New("prize table shares increase with rank")
)

// DefaultTable pays the top 25 and sums to 95.5% of the pool.
func DefaultTable() Table {
	t := Table{
		1: 2500, 2: 1500, 3: 1000, 4: 700, 5: 600,
		6: 450, 7: 400, 8: 350, 9: 300, 10: 250,
	}
	for r := 11; r <= 15; r++ {
		t[r] = 150
	}
	for r := 16; r <= 20; r++ {
		t[r] = 100
	}
	for r := 21; r <= 25; r++ {
		t[r] = 50
	}
	return t
}

// Validate checks the table invariants: ranks within 1..25, shares
// non-negative, total at most 100%, and no lower rank paying more than a
// higher one.
func (t Table) Validate() error {
	total := 0
	prevShare := -1
	for rank := 1; rank <= maxTableRank; rank++ {
		share, ok := t[rank]
		if !ok {
			continue
		}
		if share < 0 {
			return ErrShareNegative
		}
		if prevShare >= 0 && share > prevShare {
			return ErrNotMonotonic
		}
		prevShare = share
		total += share
	}
	for rank := range t {
		if rank < 1 || rank > maxTableRank {
			return ErrRankOutOfRange
		}
	}
	if total > basisPointsDenominator {
		return ErrOverAllocated
	}
	return nil
}

// Standing is one row of the frozen snapshot handed to Calculate.
type Standing struct {
	UserID string
	Score  int64
}

// Calculate assigns ranks over the snapshot (score descending, userID
// ascending on ties) and pays every rank present in the table. Amounts are
// integer micro-units: pool * share / 10000, rounded down, so the sum can
// never exceed the pool. Ranks beyond the table or beyond the snapshot
// receive nothing.
func Calculate(snapshot []Standing, poolMicro int64, table Table) []model.PrizeAward {
	if poolMicro <= 0 || len(snapshot) == 0 {
		return nil
	}

	sorted := make([]Standing, len(snapshot))
	copy(sorted, snapshot)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	awards := make([]model.PrizeAward, 0, len(table))
	for i, s := range sorted {
		rank := i + 1
		if rank > maxTableRank {
			break
		}
		share, ok := table[rank]
		if !ok || share == 0 {
			continue
		}
		awards = append(awards, model.PrizeAward{
			Rank:   rank,
			UserID: s.UserID,
			Amount: poolMicro * int64(share) / basisPointsDenominator,
		})
	}
	return awards
}
