// Package balance forms rating-balanced teams from a participant pool.
//
// The balancer runs an exact branch-and-bound search over all feasible
// assignments of participants to teams, minimizing the spread between the
// strongest and weakest team total. Ties between optimal assignments are
// broken at random so repeated runs do not favor any particular layout.
package balance

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/terrylhu/scrim/internal/domain/model"
)

// Search tuning constants.
const (
	// spreadEpsilon guards float comparisons between candidate spreads.
	spreadEpsilon = 1e-12
	// ctxCheckInterval is how many expanded nodes pass between ctx checks.
	ctxCheckInterval = 4096

	fnvOffset = 1469598103934665603
	fnvPrime  = 1099511628211
)

// Balancer partitions participants into balanced teams.
type Balancer struct {
	seed       uint64
	seeded     bool
	nodeBudget int64
}

// New creates a Balancer with configuration options.
func New(opts ...Option) *Balancer {
	b := &Balancer{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Partition splits participants into numTeams non-empty teams minimizing the
// spread between the highest and lowest team rating total. It returns
// ErrInvalidTeamCount when numTeams < 1 and ErrInfeasibleTeamCount when
// there are fewer participants than teams.
//
// The search honors ctx cancellation and the configured node budget; in
// either case the best feasible assignment found so far is returned, which
// is at worst the greedy incumbent.
func (b *Balancer) Partition(ctx context.Context, participants []model.Participant, numTeams int) ([]model.Team, error) {
	teams, _, err := b.PartitionWithStats(ctx, participants, numTeams)
	return teams, err
}

// Stats reports how one Partition call went.
type Stats struct {
	// Nodes is the number of search nodes expanded.
	Nodes int64
	// Spread is the objective value of the returned partition.
	Spread float64
	// Exhausted is true when the node budget or ctx cut the search short,
	// in which case the result is the best incumbent rather than a proven
	// optimum.
	Exhausted bool
}

// PartitionWithStats is Partition plus search statistics.
func (b *Balancer) PartitionWithStats(ctx context.Context, participants []model.Participant, numTeams int) ([]model.Team, Stats, error) {
	if numTeams < 1 {
		return nil, Stats{}, ErrInvalidTeamCount
	}
	if len(participants) < numTeams {
		return nil, Stats{}, ErrInfeasibleTeamCount
	}

	players := make([]model.Participant, len(participants))
	copy(players, participants)

	seed := b.seed
	if !b.seeded {
		seed = deriveSeed(players)
	}
	rng := rand.New(rand.NewSource(int64(seed))) //nolint:gosec // reproducible search, not crypto

	// Shuffle first, then stable-sort descending by rating, so equal-rating
	// ties land in a randomized rather than input-dependent order.
	rng.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Rating > players[j].Rating
	})

	s := newSearch(players, numTeams, rng, b.nodeBudget)
	s.greedyIncumbent()
	s.dfs(ctx, 0)

	teams := s.materialize()
	sort.SliceStable(teams, func(i, j int) bool {
		return teams[i].Total() < teams[j].Total()
	})
	totals := make([]float64, len(teams))
	for i, t := range teams {
		totals[i] = t.Total()
	}
	return teams, Stats{Nodes: s.nodes, Spread: spreadOf(totals), Exhausted: s.stopped}, nil
}

// deriveSeed hashes the sorted participant ids (FNV-1a) and mixes in
// wall-clock entropy, so unseeded calls vary run to run while still
// depending on the pool composition.
func deriveSeed(players []model.Participant) uint64 {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	sort.Strings(ids)

	var h uint64 = fnvOffset
	for _, id := range ids {
		for i := 0; i < len(id); i++ {
			h ^= uint64(id[i])
			h *= fnvPrime
		}
	}

	t := uint64(time.Now().UnixNano())
	t ^= t >> 33
	t *= 0xff51afd7ed558ccd
	t ^= t >> 33
	t *= 0xc4ceb9fe1a85ec53
	t ^= t >> 33

	return h ^ t
}

// search owns all backtracking scratch state for one Partition call.
// Nothing here is shared between invocations.
type search struct {
	players []model.Participant
	teams   int
	rng     *rand.Rand

	suffix     []float64 // suffix[k] = sum of ratings from index k on
	targetMean float64

	totals []float64
	counts []int
	cur    []int

	bestAsg    []int
	bestSpread float64

	nodes   int64
	budget  int64
	stopped bool
}

func newSearch(players []model.Participant, teams int, rng *rand.Rand, budget int64) *search {
	n := len(players)
	s := &search{
		players: players,
		teams:   teams,
		rng:     rng,
		suffix:  make([]float64, n+1),
		totals:  make([]float64, teams),
		counts:  make([]int, teams),
		cur:     make([]int, n),
		bestAsg: make([]int, n),
		budget:  budget,
	}
	for i := n - 1; i >= 0; i-- {
		s.suffix[i] = s.suffix[i+1] + players[i].Rating
	}
	s.targetMean = s.suffix[0] / float64(teams)
	for i := range s.cur {
		s.cur[i] = -1
		s.bestAsg[i] = -1
	}
	return s
}

func spreadOf(totals []float64) float64 {
	mn, mx := totals[0], totals[0]
	for _, t := range totals[1:] {
		mn = math.Min(mn, t)
		mx = math.Max(mx, t)
	}
	return mx - mn
}

// greedyIncumbent seeds the search with a fast upper bound: place each
// participant (strongest first) on whichever team leaves the smallest
// spread, breaking exact cost ties by coin flip.
func (s *search) greedyIncumbent() {
	totals := make([]float64, s.teams)
	for k, p := range s.players {
		bestTeam := 0
		bestCost := math.Inf(1)
		for t := 0; t < s.teams; t++ {
			mx, mn := math.Inf(-1), math.Inf(1)
			for j := 0; j < s.teams; j++ {
				tj := totals[j]
				if j == t {
					tj += p.Rating
				}
				mx = math.Max(mx, tj)
				mn = math.Min(mn, tj)
			}
			cost := mx - mn
			switch {
			case cost < bestCost:
				bestCost = cost
				bestTeam = t
			case cost == bestCost && s.rng.Intn(2) == 1:
				bestTeam = t
			}
		}
		totals[bestTeam] += p.Rating
		s.bestAsg[k] = bestTeam
	}
	s.bestSpread = spreadOf(totals)

	// A degenerate pool (all-zero ratings) can leave the greedy layout with
	// an empty team; such an incumbent must not drive pruning.
	used := make([]bool, s.teams)
	for _, t := range s.bestAsg {
		used[t] = true
	}
	for _, u := range used {
		if !u {
			s.bestSpread = math.Inf(1)
			for i := range s.bestAsg {
				s.bestAsg[i] = -1
			}
			return
		}
	}
}

// lowerBound is an admissible bound on the spread achievable from the
// partial state at depth k. Totals only grow, so the final maximum is at
// least curMax while the final minimum is at most the mean and at most
// curMin plus the entire unassigned remainder. Each term alone bounds the
// final spread from below, so pruning on their maximum never cuts off an
// improving completion.
func (s *search) lowerBound(k int) float64 {
	curMin, curMax := s.totals[0], s.totals[0]
	for _, t := range s.totals[1:] {
		curMin = math.Min(curMin, t)
		curMax = math.Max(curMax, t)
	}
	reachableMin := curMin + s.suffix[k]
	lbMean := math.Max(curMax-s.targetMean, s.targetMean-reachableMin)
	lbRemaining := math.Max(0, curMax-reachableMin)
	return math.Max(lbMean, lbRemaining)
}

// emptyTeams returns the indices of teams with no members yet.
func (s *search) emptyTeams() []int {
	var empty []int
	for t, c := range s.counts {
		if c == 0 {
			empty = append(empty, t)
		}
	}
	return empty
}

// teamOrder returns all team indices ordered by ascending total (counts as
// tiebreak), biasing the search toward balanced placements so the incumbent
// tightens early and pruning bites sooner.
func (s *search) teamOrder() []int {
	order := make([]int, s.teams)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := order[a], order[b]
		if s.totals[ta] != s.totals[tb] {
			return s.totals[ta] < s.totals[tb]
		}
		return s.counts[ta] < s.counts[tb]
	})
	return order
}

func (s *search) dfs(ctx context.Context, k int) {
	if s.stopped {
		return
	}
	s.nodes++
	if s.budget > 0 && s.nodes > s.budget {
		s.stopped = true
		return
	}
	if s.nodes%ctxCheckInterval == 0 && ctx.Err() != nil {
		s.stopped = true
		return
	}

	if k == len(s.players) {
		for _, c := range s.counts {
			if c == 0 {
				return
			}
		}
		sp := spreadOf(s.totals)
		switch {
		case sp < s.bestSpread-spreadEpsilon:
			s.bestSpread = sp
			copy(s.bestAsg, s.cur)
		case math.Abs(sp-s.bestSpread) <= spreadEpsilon && s.rng.Intn(2) == 1:
			// Equal-best leaf: swap incumbents half the time so the result
			// samples uniformly-ish among optimal layouts.
			copy(s.bestAsg, s.cur)
		}
		return
	}

	if s.lowerBound(k) >= s.bestSpread-spreadEpsilon {
		return
	}

	var order []int
	empty := s.emptyTeams()
	if left := len(s.players) - k; len(empty) > 0 && left == len(empty) {
		// Every remaining participant must open an empty team or the
		// non-empty invariant becomes unsatisfiable.
		order = empty
		s.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	} else {
		order = s.teamOrder()
	}

	for _, t := range order {
		s.totals[t] += s.players[k].Rating
		s.counts[t]++
		s.cur[k] = t

		s.dfs(ctx, k+1)

		s.cur[k] = -1
		s.counts[t]--
		s.totals[t] -= s.players[k].Rating

		if s.stopped {
			return
		}
	}
}

// materialize builds the result teams from the best assignment. Participants
// the search never placed (cannot happen when the precondition holds, but
// guarded anyway) go to the currently lightest team.
func (s *search) materialize() []model.Team {
	teams := make([]model.Team, s.teams)
	totals := make([]float64, s.teams)
	for k, p := range s.players {
		t := s.bestAsg[k]
		if t < 0 || t >= s.teams {
			t = 0
			for j := 1; j < s.teams; j++ {
				if totals[j] < totals[t] ||
					(totals[j] == totals[t] && len(teams[j].Members) < len(teams[t].Members)) {
					t = j
				}
			}
		}
		teams[t].Members = append(teams[t].Members, p)
		totals[t] += p.Rating
	}
	return teams
}
