package model

import "time"

// WeeklyStats accumulates per-user statistics inside one scoring period.
// CumulativeScore is the canonical weekly ranking metric (sum of streaks
// across qualifying runs); EngagementScore is display-only.
type WeeklyStats struct {
	Period          string    `json:"period"`
	UserID          string    `json:"user_id"`
	CumulativeScore int64     `json:"cumulative_score"`
	BestStreak      int       `json:"best_streak"`
	RunCount        int       `json:"run_count"`
	LastUpdated     time.Time `json:"last_updated"`
}

// EngagementScore is the alternate display metric. It is not wired into
// ranking or prizes.
func (s *WeeklyStats) EngagementScore() int64 {
	return int64(s.BestStreak)*10 + int64(s.RunCount)
}

// OvertakeEvent describes one user passed by a submission. PreviousRank is
// the overtaken user's rank before the raise; NewRank is the submitter's
// rank after it. Events are ephemeral: produced per submission and handed
// to the notification collaborator, never persisted.
type OvertakeEvent struct {
	Period          string `json:"period"`
	OvertakenUserID string `json:"overtaken_user_id"`
	PreviousRank    int    `json:"previous_rank"`
	NewRank         int    `json:"new_rank"`
	DisplayName     string `json:"display_name"`
	AvatarURL       string `json:"avatar_url,omitempty"`
}

// PositionChange reports leaderboard movement since the last observation.
type PositionChange struct {
	Changed      bool   `json:"changed"`
	PreviousRank int    `json:"previous_rank"`
	CurrentRank  int    `json:"current_rank"`
	Direction    string `json:"direction"` // "up", "down", or "none"
	RankChange   int    `json:"rank_change"`
}

// Standing is a user's rank and score within one period.
type Standing struct {
	Rank  int   `json:"rank"`
	Score int64 `json:"score"`
}
