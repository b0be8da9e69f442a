// Package rating applies match outcomes to participant ratings.
//
// Team strength is the sum of member ratings (the SUM model), so larger
// teams are not automatically weaker. A finished match produces a pairwise
// Elo-style delta for every unordered pair of teams; the per-team deltas are
// then distributed to members by weighted shares and committed atomically
// together with the win/loss counters.
package rating

import (
	"context"
	"fmt"
	"math"

	"github.com/terrylhu/scrim/internal/domain/model"
)

// Default engine constants.
const (
	defaultKFactor     = 4.0
	defaultScale       = 400.0
	defaultAlpha       = 0.6
	defaultWeightFloor = 1e-6
	// minRating clamps committed ratings; ratings never go negative.
	minRating = 0.0
)

// Registry gives the engine access to the shared participant pool. The
// registry is not synchronized here; callers serialize ApplyMatch and
// Replay against the same registry.
type Registry interface {
	// Lookup returns the live participant for id, or false if unregistered.
	Lookup(id string) (*Participant, bool)

	// Each visits every registered participant.
	Each(fn func(p *Participant))
}

// Participant is the mutable registry row the engine updates. It aliases
// the domain model so stores can hand out their own rows directly.
type Participant = model.Participant

// Engine computes and applies rating adjustments.
type Engine struct {
	kFactor     float64
	scale       float64
	alpha       float64
	weightFloor float64
}

// New creates an Engine with configuration options.
func New(opts ...Option) *Engine {
	e := &Engine{
		kFactor:     defaultKFactor,
		scale:       defaultScale,
		alpha:       defaultAlpha,
		weightFloor: defaultWeightFloor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyMatch adjusts ratings and win/loss counters for one finished match.
// Teams are id snapshots; current ratings are looked up in the registry and
// unregistered ids are skipped. Winners lists the winning team indices: one
// for a normal result, several for a tie among winners, none for a wash.
//
// All updates are staged and validated before anything is written, so a
// returned error leaves the registry byte-for-byte unchanged.
func (e *Engine) ApplyMatch(_ context.Context, reg Registry, teams [][]string, winners []int) error {
	if len(teams) == 0 {
		return ErrNoTeams
	}
	for _, w := range winners {
		if w < 0 || w >= len(teams) {
			return fmt.Errorf("%w: %d of %d teams", ErrInvalidWinnerIndex, w, len(teams))
		}
	}

	n := len(teams)
	teamSum := make([]float64, n)
	for i, members := range teams {
		for _, id := range members {
			if p, ok := reg.Lookup(id); ok {
				teamSum[i] += p.Rating
			}
		}
	}

	winSet := make(map[int]bool, len(winners))
	for _, w := range winners {
		winSet[w] = true
	}

	teamDelta := pairwiseDeltas(teamSum, winSet, e.kFactor, e.scale)

	// Stage every new rating first; nothing is committed until the whole
	// match validates. (An in-place update would leave earlier members
	// mutated when a later one trips the finiteness check, and a partially
	// applied match would break replay determinism.)
	staged := make(map[string]float64)
	currentOf := func(id string) (float64, bool) {
		if r, ok := staged[id]; ok {
			return r, true
		}
		if p, ok := reg.Lookup(id); ok {
			return p.Rating, true
		}
		return 0, false
	}

	for ti, members := range teams {
		if len(members) == 0 {
			continue
		}
		td := teamDelta[ti]
		if td == 0 {
			continue
		}

		if teamSum[ti] <= 0 {
			// Degenerate all-zero team: split evenly.
			even := 1.0 / float64(len(members))
			for _, id := range members {
				cur, ok := currentOf(id)
				if !ok {
					continue
				}
				next := cur + td*even
				if !isFinite(next) {
					return ErrNumericInstability
				}
				staged[id] = math.Max(minRating, next)
			}
			continue
		}

		// Weighted shares keyed on the delta sign: a gaining team weights
		// members inversely by rating, a losing team directly.
		gaining := td > 0
		weights := make([]float64, len(members))
		var weightSum float64
		for k, id := range members {
			r := e.weightFloor
			if cur, ok := currentOf(id); ok {
				r = math.Max(cur, e.weightFloor)
			}
			exp := e.alpha
			if gaining {
				exp = -e.alpha
			}
			w := math.Pow(r, exp)
			if !isFinite(w) {
				return ErrNumericInstability
			}
			weights[k] = w
			weightSum += w
		}
		if !(weightSum > 0) {
			return ErrWeightSum
		}

		for k, id := range members {
			cur, ok := currentOf(id)
			if !ok {
				continue
			}
			next := cur + td*(weights[k]/weightSum)
			if !isFinite(next) {
				return ErrNumericInstability
			}
			staged[id] = math.Max(minRating, next)
		}
	}

	// Commit: ratings, then counters.
	for id, r := range staged {
		if p, ok := reg.Lookup(id); ok {
			p.Rating = r
		}
	}

	winnerIDs := make(map[string]bool)
	for _, w := range winners {
		for _, id := range teams[w] {
			winnerIDs[id] = true
		}
	}
	for _, members := range teams {
		for _, id := range members {
			p, ok := reg.Lookup(id)
			if !ok {
				continue
			}
			p.Games++
			if winnerIDs[id] {
				p.Wins++
			}
		}
	}

	return nil
}

// pairwiseDeltas computes the per-team rating delta as the sum of K*(S-E)
// over every unordered pair of teams. Each pair contributes exactly
// opposite amounts, so the deltas telescope to zero across the match.
func pairwiseDeltas(teamRating []float64, winSet map[int]bool, kFactor, scale float64) []float64 {
	deltas := make([]float64, len(teamRating))
	for i := 0; i < len(teamRating); i++ {
		for j := i + 1; j < len(teamRating); j++ {
			ei := expectedScore(teamRating[i], teamRating[j], scale)
			ej := 1.0 - ei

			si, sj := 0.5, 0.5
			switch {
			case winSet[i] && !winSet[j]:
				si, sj = 1.0, 0.0
			case !winSet[i] && winSet[j]:
				si, sj = 0.0, 1.0
			}
			// Both winners (shared victory) or both losers (no ranking
			// among non-winners) stay at a 0.5/0.5 draw.

			deltas[i] += kFactor * (si - ei)
			deltas[j] += kFactor * (sj - ej)
		}
	}
	return deltas
}

// expectedScore is the standard logistic Elo expectation of a against b.
func expectedScore(ra, rb, scale float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/scale))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
