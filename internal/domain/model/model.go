// Package model contains domain models passed between layers.
package model

import "time"

// Participant represents a registered player with a live rating.
type Participant struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`      // current skill, clamped >= 0
	BaseRating float64 `json:"base_rating"` // skill at registration; replay baseline
	Wins       int     `json:"wins"`
	Games      int     `json:"games"`
}

// WinRate returns the fraction of games won, or 0 when no games were played.
func (p Participant) WinRate() float64 {
	if p.Games <= 0 {
		return 0
	}
	return float64(p.Wins) / float64(p.Games)
}

// Team is a multiset of participants formed by one balancing call.
type Team struct {
	Members []Participant `json:"members"`
}

// Total returns the sum of member ratings. It is always recomputed because
// member ratings can change between formation and use.
func (t Team) Total() float64 {
	var sum float64
	for _, m := range t.Members {
		sum += m.Rating
	}
	return sum
}

// Size returns the number of members.
func (t Team) Size() int { return len(t.Members) }

// MemberIDs returns the member identifiers in team order.
func (t Team) MemberIDs() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.ID
	}
	return ids
}

// MatchRecord is a stored match: team snapshots as participant id lists and
// the declared winning team indices. Ratings are never stored here; they are
// looked up in the registry when the match is applied.
type MatchRecord struct {
	ID      string     `json:"id"`
	When    time.Time  `json:"when"`
	Teams   [][]string `json:"teams"`
	Winners []int      `json:"winners"`
}

// TeamCount returns the number of team snapshots in the record.
func (m MatchRecord) TeamCount() int { return len(m.Teams) }
