// Package types contains common types used across the application
package types

import "github.com/314yush/caporslap/internal/domain/model"

// Entry represents a leaderboard entry
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Score  int64  `json:"score"`
}

// SubmitResult is the synchronous outcome of one run submission.
type SubmitResult struct {
	RunID     string `json:"run_id"`
	Accepted  bool   `json:"accepted"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Guest     bool   `json:"guest,omitempty"`

	// Rejection details, set when the replay validator refused the run.
	Rejected      bool   `json:"rejected,omitempty"`
	RejectReason  string `json:"reject_reason,omitempty"`
	FailedAtRound int    `json:"failed_at_round,omitempty"`

	// Validated reports whether the run went through replay validation
	// (runs below the verification threshold are accepted on trust).
	Validated bool `json:"validated"`

	// NewBest reports whether the run raised the user's global best;
	// PreviousRank is the user's global rank before the raise, zero on
	// first appearance.
	NewBest      bool `json:"new_best,omitempty"`
	PreviousRank int  `json:"previous_rank,omitempty"`

	GlobalRank  int   `json:"global_rank,omitempty"`
	WeeklyRank  int   `json:"weekly_rank,omitempty"`
	WeeklyScore int64 `json:"weekly_score,omitempty"`

	Overtakes []model.OvertakeEvent `json:"overtakes,omitempty"`
}
