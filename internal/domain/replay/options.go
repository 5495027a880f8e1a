package replay

import "time"

// Default validation thresholds.
const (
	defaultMinGuessGap   = 100 * time.Millisecond
	defaultNetworkBuffer = 3 * time.Second
	defaultMaxReprieves  = 1
)

// Option applies a configuration option to the Validator.
type Option func(*Validator)

// WithTierTimeLimit injects the game-rules timer schedule.
func WithTierTimeLimit(fn TierTimeLimitFunc) Option {
	return func(v *Validator) {
		if fn != nil {
			v.tierLimit = fn
		}
	}
}

// WithMinGuessGap sets the anti-bot minimum gap between guesses.
func WithMinGuessGap(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.minGuessGap = d
		}
	}
}

// WithNetworkBuffer sets the grace added to each round's time limit.
func WithNetworkBuffer(d time.Duration) Option {
	return func(v *Validator) {
		if d >= 0 {
			v.networkBuffer = d
		}
	}
}

// WithMaxReprieves sets how many reprieves a single run may consume.
func WithMaxReprieves(n int) Option {
	return func(v *Validator) {
		if n >= 0 {
			v.maxReprieves = n
		}
	}
}
