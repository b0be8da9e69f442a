package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terrylhu/scrim/internal/domain/model"
)

// Snapshot file names inside the data directory.
const (
	usersFile   = "users.json"
	matchesFile = "matches.json"

	snapshotPerm = 0o644
)

// MemStore implements Store with in-memory maps and optional JSON file
// snapshots. Individual methods are guarded by an RWMutex; compound
// sequences (apply a match, then save) are serialized by the app layer.
type MemStore struct {
	mu      sync.RWMutex
	users   map[string]*model.Participant
	matches []*model.MatchRecord
	dataDir string
}

// NewMemStore creates a MemStore with configuration options.
func NewMemStore(_ context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		users: make(map[string]*model.Participant),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertUser registers or re-registers a user, resetting rating and
// baseline to baseRating.
func (s *MemStore) UpsertUser(_ context.Context, id, name string, baseRating float64) error {
	if baseRating < 0 {
		return ErrNegativeBase
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		u = &model.Participant{ID: id}
		s.users[id] = u
	}
	u.Name = name
	u.Rating = baseRating
	u.BaseRating = baseRating
	return nil
}

func (s *MemStore) RemoveUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemStore) GetUser(_ context.Context, id string) (model.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.Participant{}, ErrUserNotFound
	}
	return *u, nil
}

func (s *MemStore) ListUsers(_ context.Context, order UserOrder) []model.Participant {
	s.mu.RLock()
	out := make([]model.Participant, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	s.mu.RUnlock()

	switch order {
	case ByName:
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	default:
		sort.Slice(out, func(i, j int) bool {
			if out[i].Rating != out[j].Rating {
				return out[i].Rating > out[j].Rating
			}
			return out[i].Name < out[j].Name
		})
	}
	return out
}

func (s *MemStore) CountUsers(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// AppendMatch stores rec, assigning an id and timestamp when absent.
func (s *MemStore) AppendMatch(_ context.Context, rec model.MatchRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.When.IsZero() {
		rec.When = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := rec
	s.matches = append(s.matches, &stored)
	return rec.ID, nil
}

func (s *MemStore) SetWinners(_ context.Context, matchID string, winners []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(matchID)
	if m == nil {
		return ErrMatchNotFound
	}
	for _, w := range winners {
		if w < 0 || w >= len(m.Teams) {
			return fmt.Errorf("%w: %d of %d teams", ErrWinnerOutOfRange, w, len(m.Teams))
		}
	}
	m.Winners = append([]int(nil), winners...)
	return nil
}

func (s *MemStore) DeleteMatch(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, m := range s.matches {
		if m.ID == matchID {
			s.matches = append(s.matches[:i], s.matches[i+1:]...)
			return nil
		}
	}
	return ErrMatchNotFound
}

func (s *MemStore) GetMatch(_ context.Context, matchID string) (model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.findLocked(matchID)
	if m == nil {
		return model.MatchRecord{}, ErrMatchNotFound
	}
	return copyMatch(*m), nil
}

func (s *MemStore) Matches(_ context.Context) []model.MatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.MatchRecord, len(s.matches))
	for i, m := range s.matches {
		out[i] = copyMatch(*m)
	}
	return out
}

func (s *MemStore) RecentMatches(_ context.Context, n int) []model.MatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || len(s.matches) == 0 {
		return nil
	}
	if n > len(s.matches) {
		n = len(s.matches)
	}
	out := make([]model.MatchRecord, 0, n)
	for i := len(s.matches) - 1; i >= len(s.matches)-n; i-- {
		out = append(out, copyMatch(*s.matches[i]))
	}
	return out
}

// Mutate runs fn with the live registry rows while holding the write lock,
// so engine updates never interleave with concurrent readers. fn must not
// call back into the store.
func (s *MemStore) Mutate(_ context.Context, fn func(reg Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(liveRows{s})
}

// liveRows exposes the store's rows to a Mutate callback without further
// locking; the callback already runs under the store's write lock.
type liveRows struct {
	s *MemStore
}

func (v liveRows) Lookup(id string) (*model.Participant, bool) {
	u, ok := v.s.users[id]
	return u, ok
}

func (v liveRows) Each(fn func(p *model.Participant)) {
	for _, u := range v.s.users {
		fn(u)
	}
}

// Load replaces in-memory state with the snapshot files. Missing files are
// not an error; they leave the corresponding state empty.
func (s *MemStore) Load(_ context.Context) error {
	if s.dataDir == "" {
		return nil
	}

	var users []model.Participant
	if err := readSnapshot(filepath.Join(s.dataDir, usersFile), &users); err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	var matches []model.MatchRecord
	if err := readSnapshot(filepath.Join(s.dataDir, matchesFile), &matches); err != nil {
		return fmt.Errorf("load matches: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]*model.Participant, len(users))
	for i := range users {
		u := users[i]
		s.users[u.ID] = &u
	}
	s.matches = make([]*model.MatchRecord, len(matches))
	for i := range matches {
		m := matches[i]
		s.matches[i] = &m
	}
	return nil
}

// Save writes the snapshot files.
func (s *MemStore) Save(ctx context.Context) error {
	if s.dataDir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("save snapshots: %w", err)
	}

	users := s.ListUsers(ctx, ByName)
	matches := s.Matches(ctx)

	if err := writeSnapshot(filepath.Join(s.dataDir, usersFile), users); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	if err := writeSnapshot(filepath.Join(s.dataDir, matchesFile), matches); err != nil {
		return fmt.Errorf("save matches: %w", err)
	}
	return nil
}

func (s *MemStore) findLocked(matchID string) *model.MatchRecord {
	for _, m := range s.matches {
		if m.ID == matchID {
			return m
		}
	}
	return nil
}

func copyMatch(m model.MatchRecord) model.MatchRecord {
	out := m
	out.Teams = make([][]string, len(m.Teams))
	for i, t := range m.Teams {
		out.Teams[i] = append([]string(nil), t...)
	}
	out.Winners = append([]int(nil), m.Winners...)
	return out
}

func readSnapshot(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeSnapshot(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, snapshotPerm)
}
