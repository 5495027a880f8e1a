package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/314yush/caporslap/internal/adapters/repository"
	"github.com/314yush/caporslap/internal/domain/model"
)

// scoreOutcome is the result of applying one score to one board.
type scoreOutcome struct {
	applied  bool
	prevRank int
	newRank  int
	events   []model.OvertakeEvent
}

// applyScore runs overtake detection around the atomic raise for a single
// period. Candidates are read before the raise so their ranks are the
// pre-raise ones; the raise itself decides whether any event is real.
//
// The candidate scan is bounded twice: by the previous rank (nobody below
// the submitter's old position was overtaken) and by the configured window,
// so a first-time submitter landing on a huge board cannot trigger an
// unbounded read.
func (s *Service) applyScore(ctx context.Context, periodID, userID string, newScore int64) (scoreOutcome, error) {
	var out scoreOutcome

	oldEntry, err := s.scores.Rank(ctx, periodID, userID)
	first := errors.Is(err, repository.ErrNoEntry)
	if err != nil && !first {
		return out, fmt.Errorf("read rank: %w", err)
	}
	if !first {
		out.prevRank = oldEntry.Rank
	}

	// Non-improvements never move anyone; skip the scan and the raise.
	if !first && newScore <= oldEntry.Score {
		out.newRank = oldEntry.Rank
		return out, nil
	}

	higher, err := s.scores.CountAtLeast(ctx, periodID, newScore)
	if err != nil {
		return out, fmt.Errorf("count at least: %w", err)
	}
	newRank := higher + 1

	startRank := newRank
	endRank := startRank + s.overtakeWindow - 1
	if !first && oldEntry.Rank-1 < endRank {
		endRank = oldEntry.Rank - 1
	}

	var candidates []repository.Entry
	if endRank >= startRank {
		candidates, err = s.scores.Range(ctx, periodID, startRank, endRank)
		if err != nil {
			return out, fmt.Errorf("read candidates: %w", err)
		}
	}

	applied, _, err := s.scores.RaiseIfGreater(ctx, periodID, userID, newScore)
	if err != nil {
		return out, fmt.Errorf("raise score: %w", err)
	}
	if !applied {
		// A concurrent submission already wrote an equal or higher score;
		// that submission owns the overtake events.
		if cur, rErr := s.scores.Rank(ctx, periodID, userID); rErr == nil {
			out.newRank = cur.Rank
		}
		return out, nil
	}

	out.applied = true
	out.newRank = newRank
	out.events = s.buildOvertakeEvents(ctx, periodID, userID, newRank, candidates)
	return out, nil
}

// buildOvertakeEvents resolves candidate identities and shapes the events.
// Candidates whose identity cannot be resolved are dropped rather than
// shipped half-formed.
func (s *Service) buildOvertakeEvents(ctx context.Context, periodID, userID string, newRank int, candidates []repository.Entry) []model.OvertakeEvent {
	overtaken := make([]repository.Entry, 0, s.overtakeLimit)
	for _, c := range candidates {
		if c.UserID == userID {
			continue
		}
		overtaken = append(overtaken, c)
		if len(overtaken) == s.overtakeLimit {
			break
		}
	}
	if len(overtaken) == 0 {
		return nil
	}

	ids := make([]string, len(overtaken))
	for i, c := range overtaken {
		ids[i] = c.UserID
	}
	identities := s.resolver.ResolveBatch(ctx, ids)

	events := make([]model.OvertakeEvent, 0, len(overtaken))
	for _, c := range overtaken {
		ident, ok := identities[c.UserID]
		if !ok {
			continue
		}
		events = append(events, model.OvertakeEvent{
			Period:          periodID,
			OvertakenUserID: c.UserID,
			PreviousRank:    c.Rank,
			NewRank:         newRank,
			DisplayName:     ident.DisplayName,
			AvatarURL:       ident.AvatarURL,
		})
	}
	return events
}
