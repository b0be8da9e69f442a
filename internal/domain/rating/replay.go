package rating

import (
	"context"
	"fmt"
	"sort"

	"github.com/terrylhu/scrim/internal/domain/model"
)

// Replay rebuilds every rating from scratch: participants reset to their
// base rating with zeroed counters, then every stored match is re-applied
// in chronological order. Historical edits (changing a past winner,
// deleting a match) are handled exclusively through replay, never by
// incremental correction, which keeps the registry deterministic for a
// given history.
func (e *Engine) Replay(ctx context.Context, reg Registry, matches []model.MatchRecord) error {
	reg.Each(func(p *Participant) {
		p.Rating = p.BaseRating
		p.Wins = 0
		p.Games = 0
	})

	ordered := make([]model.MatchRecord, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].When.Before(ordered[j].When)
	})

	for _, m := range ordered {
		if len(m.Winners) == 0 {
			// Undecided match: no outcome to apply yet. A genuine draw is
			// recorded as all teams winning.
			continue
		}
		if err := e.ApplyMatch(ctx, reg, m.Teams, m.Winners); err != nil {
			return fmt.Errorf("replay match %s: %w", m.ID, err)
		}
	}
	return nil
}
