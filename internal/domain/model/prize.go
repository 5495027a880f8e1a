package model

import "time"

// ArchiveStatus tracks the one-way lifecycle of a period's prize run.
type ArchiveStatus string

const (
	ArchiveActive    ArchiveStatus = "active"
	ArchiveCompleted ArchiveStatus = "completed"
)

// PrizeAward is one row of a finalized distribution. Amount is in
// micro-units of the prize currency.
type PrizeAward struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

// PrizeArchive is the write-once record of a finalized period. Once the
// status reaches ArchiveCompleted the distribution is immutable and every
// later finalize call returns it unchanged.
type PrizeArchive struct {
	Period       string        `json:"period"`
	Distribution []PrizeAward  `json:"distribution"`
	FinalizedAt  time.Time     `json:"finalized_at"`
	Status       ArchiveStatus `json:"status"`
}
