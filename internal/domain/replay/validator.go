package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/314yush/caporslap/internal/domain/model"
)

// TierTimeLimitFunc is the game-rules collaborator's per-round timer
// schedule: how long a player may think about the guess for a given round.
type TierTimeLimitFunc func(round int) time.Duration

// DefaultTierTimeLimit mirrors the game's difficulty ladder: generous
// early, tighter as the streak grows.
func DefaultTierTimeLimit(round int) time.Duration {
	switch {
	case round <= 5:
		return 15 * time.Second
	case round <= 10:
		return 10 * time.Second
	case round <= 20:
		return 7 * time.Second
	default:
		return 5 * time.Second
	}
}

// Result is the validator's verdict. FailedAtRound is the 1-indexed round
// that first contradicts the reconstruction; zero when the run is valid or
// when the failure is not tied to a round.
type Result struct {
	Valid         bool   `json:"valid"`
	FailedAtRound int    `json:"failed_at_round,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func invalid(round int, format string, args ...any) Result {
	return Result{FailedAtRound: round, Reason: fmt.Sprintf(format, args...)}
}

// Validator decides whether a submitted run is achievable without
// fabrication: the token pairs must match the seed's deterministic
// sequence, every non-final guess must be correct against the snapshot
// market caps, timings must be humanly plausible, and the claimed streak
// must reconcile with the guess log.
type Validator struct {
	pool      map[string]model.Token
	tokens    []model.Token
	tierLimit TierTimeLimitFunc

	minGuessGap   time.Duration
	networkBuffer time.Duration
	maxReprieves  int
}

// New builds a validator over a token-pool snapshot.
func New(pool []model.Token, opts ...Option) *Validator {
	v := &Validator{
		pool:          make(map[string]model.Token, len(pool)),
		tokens:        pool,
		tierLimit:     DefaultTierTimeLimit,
		minGuessGap:   defaultMinGuessGap,
		networkBuffer: defaultNetworkBuffer,
		maxReprieves:  defaultMaxReprieves,
	}
	for _, t := range pool {
		v.pool[t.ID] = t
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate replays run against the seeded sequence. It is pure with
// respect to the run: a failed validation must leave no trace anywhere.
func (v *Validator) Validate(ctx context.Context, run *model.RunRecord) Result {
	if err := ctx.Err(); err != nil {
		return invalid(0, "validation aborted: %v", err)
	}
	if run.Seed == "" {
		return invalid(0, "missing seed")
	}
	if len(run.Guesses) == 0 {
		return invalid(0, "empty guess log")
	}
	if len(run.ReprieveRounds) > v.maxReprieves {
		return invalid(0, "reprieves exceed allowance: %d > %d", len(run.ReprieveRounds), v.maxReprieves)
	}

	reprieved := make(map[int]bool, len(run.ReprieveRounds))
	for _, r := range run.ReprieveRounds {
		reprieved[r] = true
	}

	seq := newSequencer(run.Seed, v.tokens)
	prev := run.StartedAt

	for i, g := range run.Guesses {
		round := i + 1
		if g.Round != round {
			return invalid(round, "round numbering gap: got %d, want %d", g.Round, round)
		}

		// A reprieve on this round burned one draw before the pair the
		// log records was dealt.
		if reprieved[round] {
			if !seq.burn() {
				return invalid(round, "token pool exhausted during reprieve")
			}
		}

		cur, nxt, ok := seq.next()
		if !ok {
			return invalid(round, "token pool exhausted")
		}
		if g.CurrentTokenID != cur || g.NextTokenID != nxt {
			return invalid(round, "token pair mismatch: got (%s,%s), expected (%s,%s)",
				g.CurrentTokenID, g.NextTokenID, cur, nxt)
		}

		if r := v.checkTiming(round, prev, g.Timestamp); !r.Valid {
			return r
		}
		prev = g.Timestamp

		// Every round but the last must have been survived; a wrong
		// non-final guess means the run claims to have continued past a
		// loss.
		if i < len(run.Guesses)-1 && !v.guessCorrect(g) {
			return invalid(round, "incorrect guess on a non-final round")
		}
	}

	want := len(run.Guesses) - 1 + len(run.ReprieveRounds)
	if run.FinalStreak != want {
		return invalid(0, "streak mismatch: claimed %d, reconstructed %d", run.FinalStreak, want)
	}

	return Result{Valid: true}
}

// guessCorrect checks the recorded call against the snapshot market caps.
// "higher" wins on a strictly greater next cap; ties go to "lower".
func (v *Validator) guessCorrect(g model.Guess) bool {
	cur, okCur := v.pool[g.CurrentTokenID]
	nxt, okNxt := v.pool[g.NextTokenID]
	if !okCur || !okNxt {
		return false
	}
	if nxt.MarketCap > cur.MarketCap {
		return g.Guess == model.Higher
	}
	return g.Guess == model.Lower
}

func (v *Validator) checkTiming(round int, prev, ts time.Time) Result {
	gap := ts.Sub(prev)
	if gap < v.minGuessGap {
		return invalid(round, "implausibly fast guess: %v", gap)
	}
	if limit := v.tierLimit(round) + v.networkBuffer; gap > limit {
		return invalid(round, "guess exceeded round time limit: %v > %v", gap, limit)
	}
	return Result{Valid: true}
}
