// Package replay reconstructs and verifies a submitted run against the
// deterministic pseudo-random token sequence its seed commits to.
package replay

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"sort"

	"github.com/314yush/caporslap/internal/domain/model"
)

// newSeededRand derives a deterministic random stream from a seed string.
// Given the same seed it always yields the same sequence, which is what
// makes a run verifiable after the fact without replaying real time.
func newSeededRand(seed string) *rand.Rand {
	hash := sha256.Sum256([]byte(seed))
	src := int64(binary.BigEndian.Uint64(hash[:8]))
	return rand.New(rand.NewSource(src)) //nolint:gosec // deterministic by design, not for security
}

// sequencer regenerates a run's token pairs. Tokens are drawn without
// replacement from the pool snapshot, which is ordered by token id so the
// index stream maps to the same tokens on every reconstruction.
type sequencer struct {
	rng       *rand.Rand
	remaining []string
	current   string
}

func newSequencer(seed string, pool []model.Token) *sequencer {
	ids := make([]string, 0, len(pool))
	for _, t := range pool {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)

	s := &sequencer{rng: newSeededRand(seed), remaining: ids}
	s.current = s.draw()
	return s
}

// draw removes and returns one token id, or "" when the pool is exhausted.
func (s *sequencer) draw() string {
	if len(s.remaining) == 0 {
		return ""
	}
	i := s.rng.Intn(len(s.remaining))
	id := s.remaining[i]
	s.remaining = append(s.remaining[:i], s.remaining[i+1:]...)
	return id
}

// next produces the expected (current, next) pair for the upcoming round
// and advances: the next token becomes the following round's current.
func (s *sequencer) next() (cur, nxt string, ok bool) {
	if s.current == "" {
		return "", "", false
	}
	nxt = s.draw()
	if nxt == "" {
		return "", "", false
	}
	cur = s.current
	s.current = nxt
	return cur, nxt, true
}

// burn consumes the draw a reprieve discarded. The current token is
// unchanged; the round is re-dealt from the same position with a fresh
// next token.
func (s *sequencer) burn() bool {
	return s.draw() != ""
}

// Pair is one dealt round of the deterministic sequence.
type Pair struct {
	CurrentTokenID string
	NextTokenID    string
}

// Deal reproduces the first n pairs the seed commits to over the given
// pool, burning one draw before each round listed in reprieves. The game
// layer deals rounds with this same function, which is what makes
// submitted runs verifiable.
func Deal(seed string, pool []model.Token, n int, reprieves map[int]bool) []Pair {
	seq := newSequencer(seed, pool)
	out := make([]Pair, 0, n)
	for round := 1; round <= n; round++ {
		if reprieves[round] && !seq.burn() {
			break
		}
		cur, nxt, ok := seq.next()
		if !ok {
			break
		}
		out = append(out, Pair{CurrentTokenID: cur, NextTokenID: nxt})
	}
	return out
}
