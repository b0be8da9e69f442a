// Package repository holds the participant registry and match history.
package repository

import (
	"context"

	"github.com/terrylhu/scrim/internal/domain/model"
)

// UserOrder selects the sort applied by ListUsers.
type UserOrder int

const (
	// ByRating orders users by rating descending (leaderboard order).
	ByRating UserOrder = iota
	// ByName orders users by name ascending.
	ByName
)

// Registry is the live row view handed to a Mutate callback. Rows may be
// mutated in place; the store's write lock is held for the whole callback,
// so no other reader or writer observes a half-applied update.
type Registry interface {
	// Lookup returns the live row for id, or false if unregistered.
	Lookup(id string) (*model.Participant, bool)

	// Each visits every registered row.
	Each(fn func(p *model.Participant))
}

// Store provides read/write access to registered users and stored matches.
// Implementations must be safe for concurrent use; the rating engine's
// mutations go through Mutate, which excludes every other store access for
// the duration of the callback.
type Store interface {
	// UpsertUser registers or re-registers a user. Re-registration resets
	// both the live rating and the replay baseline to baseRating.
	UpsertUser(ctx context.Context, id, name string, baseRating float64) error

	// RemoveUser deletes a user. Returns ErrUserNotFound if unregistered.
	RemoveUser(ctx context.Context, id string) error

	// GetUser returns a copy of the user. Returns ErrUserNotFound if missing.
	GetUser(ctx context.Context, id string) (model.Participant, error)

	// ListUsers returns copies of all users in the requested order.
	ListUsers(ctx context.Context, order UserOrder) []model.Participant

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) int

	// AppendMatch stores a finished match and returns its assigned id.
	AppendMatch(ctx context.Context, rec model.MatchRecord) (string, error)

	// SetWinners replaces the winning team indices of a stored match.
	// Returns ErrMatchNotFound for an unknown id; winner indices are
	// validated against the stored team count.
	SetWinners(ctx context.Context, matchID string, winners []int) error

	// DeleteMatch removes a stored match. Returns ErrMatchNotFound if missing.
	DeleteMatch(ctx context.Context, matchID string) error

	// GetMatch returns a copy of a stored match.
	GetMatch(ctx context.Context, matchID string) (model.MatchRecord, error)

	// Matches returns copies of all stored matches in insertion order.
	Matches(ctx context.Context) []model.MatchRecord

	// RecentMatches returns up to n matches, most recent insertion first.
	RecentMatches(ctx context.Context, n int) []model.MatchRecord

	// Mutate runs fn against the live registry rows under the store's
	// write lock. Rating engine runs go through here.
	Mutate(ctx context.Context, fn func(reg Registry) error) error

	// Load reads the snapshot files from the data directory, replacing all
	// in-memory state. Missing files leave the store empty.
	Load(ctx context.Context) error

	// Save writes the snapshot files to the data directory.
	Save(ctx context.Context) error
}
