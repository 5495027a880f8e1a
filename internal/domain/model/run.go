// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Direction is a player's relative-size call for a token pair.
type Direction string

const (
	// Higher claims the next token's market cap exceeds the current one.
	Higher Direction = "higher"
	// Lower claims the next token's market cap does not exceed the current one.
	Lower Direction = "lower"
)

// Token is one entry of the market-cap pool snapshot a run was played
// against. Market caps are denominated in USD.
type Token struct {
	ID        string  `json:"id"`
	MarketCap float64 `json:"market_cap"`
}

// Guess is a single recorded round of a run. Rounds are numbered from 1.
type Guess struct {
	Round          int       `json:"round"`
	CurrentTokenID string    `json:"current_token_id"`
	NextTokenID    string    `json:"next_token_id"`
	Guess          Direction `json:"guess"`
	Timestamp      time.Time `json:"timestamp"`
}

// RunRecord is one completed playthrough from start to loss. It is
// immutable once submitted and is the unit the replay validator checks.
//
// ReprieveRounds lists the round numbers on which a reprieve was consumed:
// the losing guess of that round was discarded client-side and the run
// continued, so those rounds appear in Guesses with a redrawn pair and the
// claimed streak counts them.
type RunRecord struct {
	RunID          string    `json:"run_id"`
	UserID         string    `json:"user_id"`
	Seed           string    `json:"seed"`
	StartedAt      time.Time `json:"started_at"`
	FinalStreak    int       `json:"final_streak"`
	ReprieveRounds []int     `json:"reprieve_rounds,omitempty"`
	Guesses        []Guess   `json:"guesses"`
}

// guestPrefixes mark anonymous play. Guest runs are accepted but never
// recorded or ranked.
var guestPrefixes = []string{"guest-", "guest_", "anon-", "anonymous"}

// IsGuestUser reports whether userID follows the guest/anonymous naming
// convention.
func IsGuestUser(userID string) bool {
	id := strings.ToLower(userID)
	for _, p := range guestPrefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}
