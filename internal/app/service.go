// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	repository "github.com/terrylhu/scrim/internal/adapters/repository"
	"github.com/terrylhu/scrim/internal/domain/balance"
	"github.com/terrylhu/scrim/internal/domain/model"
	"github.com/terrylhu/scrim/internal/domain/rating"
	"github.com/terrylhu/scrim/pkg/logger"
	"github.com/terrylhu/scrim/pkg/metrics"
)

// Service ties the registry, the balancer and the rating engine together.
// One mutex serializes every registry mutation, including full history
// replays; reads go straight to the store, whose own lock orders them
// against in-flight engine runs. The engine and balancer themselves hold
// no shared state.
type Service struct {
	mu sync.Mutex

	store  *repository.MemStore
	engine *rating.Engine

	// Configuration
	dataDir    string
	kFactor    float64
	eloScale   float64
	alpha      float64
	nodeBudget int64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDataDir sets the snapshot directory for the registry store.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		s.dataDir = dir
	}
}

// WithKFactor sets the rating engine's K constant.
func WithKFactor(k float64) Option {
	return func(s *Service) {
		if k > 0 {
			s.kFactor = k
		}
	}
}

// WithEloScale sets the rating engine's logistic scale.
func WithEloScale(scale float64) Option {
	return func(s *Service) {
		if scale > 0 {
			s.eloScale = scale
		}
	}
}

// WithAlpha sets the rating engine's distribution exponent.
func WithAlpha(alpha float64) Option {
	return func(s *Service) {
		if alpha > 0 {
			s.alpha = alpha
		}
	}
}

// WithNodeBudget caps search nodes per team formation.
func WithNodeBudget(budget int64) Option {
	return func(s *Service) {
		if budget > 0 {
			s.nodeBudget = budget
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		kFactor:  4.0,
		eloScale: 400.0,
		alpha:    0.6,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the registry from disk and builds the rating engine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.store = repository.NewMemStore(ctx, repository.WithDataDir(s.dataDir))
	if err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	s.engine = rating.New(
		rating.WithKFactor(s.kFactor),
		rating.WithScale(s.eloScale),
		rating.WithAlpha(s.alpha),
	)

	s.started = true
	s.updateGauges(ctx)
	s.logger.Info(ctx, "scrim service started",
		logger.Int("users", s.store.CountUsers(ctx)),
		logger.Int("matches", len(s.store.Matches(ctx))),
		logger.String("dataDir", s.dataDir),
	)
	return nil
}

// Stop persists a final snapshot.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	if err := s.store.Save(ctx); err != nil {
		s.logger.Error(ctx, "final snapshot failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "scrim service stopped")
}

// RegisterUser creates or re-registers a user. Re-registration resets the
// live rating and the replay baseline.
func (s *Service) RegisterUser(ctx context.Context, id, name string, baseRating float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UpsertUser(ctx, id, name, baseRating); err != nil {
		return err
	}
	s.updateGauges(ctx)
	return s.store.Save(ctx)
}

// RemoveUser unregisters a user. Stored matches keep referencing the id;
// replay simply skips members that are no longer registered.
func (s *Service) RemoveUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.RemoveUser(ctx, id); err != nil {
		return err
	}
	s.updateGauges(ctx)
	return s.store.Save(ctx)
}

// GetUser returns one registered user.
func (s *Service) GetUser(ctx context.Context, id string) (model.Participant, error) {
	return s.store.GetUser(ctx, id)
}

// Leaderboard returns up to limit users ordered by rating descending.
func (s *Service) Leaderboard(ctx context.Context, limit int) []model.Participant {
	users := s.store.ListUsers(ctx, repository.ByRating)
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users
}

// ListUsers returns all users ordered by name.
func (s *Service) ListUsers(ctx context.Context) []model.Participant {
	return s.store.ListUsers(ctx, repository.ByName)
}

// FormTeams balances the given registered users into numTeams teams.
// A non-nil seed makes the partition reproducible.
func (s *Service) FormTeams(ctx context.Context, ids []string, numTeams int, seed *uint64) ([]model.Team, error) {
	participants := make([]model.Participant, 0, len(ids))
	for _, id := range ids {
		p, err := s.store.GetUser(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("participant %q: %w", id, err)
		}
		participants = append(participants, p)
	}

	opts := []balance.Option{}
	if s.nodeBudget > 0 {
		opts = append(opts, balance.WithNodeBudget(s.nodeBudget))
	}
	if seed != nil {
		opts = append(opts, balance.WithSeed(*seed))
	}

	start := time.Now()
	teams, stats, err := balance.New(opts...).PartitionWithStats(ctx, participants, numTeams)
	if err != nil {
		metrics.RecordBalanceError()
		return nil, err
	}
	metrics.RecordTeamsFormed(stats.Nodes, float64(time.Since(start).Microseconds())/1000.0, stats.Spread)

	s.logger.Debug(ctx, "teams formed",
		logger.Int("participants", len(participants)),
		logger.Int("teams", numTeams),
		logger.Int64("nodes", stats.Nodes),
		logger.Float64("spread", stats.Spread),
	)
	return teams, nil
}

// RecordMatch stores a finished match without a winner yet and returns the
// stored record.
func (s *Service) RecordMatch(ctx context.Context, teams [][]string) (model.MatchRecord, error) {
	if len(teams) == 0 {
		return model.MatchRecord{}, rating.ErrNoTeams
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.AppendMatch(ctx, model.MatchRecord{Teams: teams})
	if err != nil {
		return model.MatchRecord{}, err
	}
	rec, err := s.store.GetMatch(ctx, id)
	if err != nil {
		return model.MatchRecord{}, err
	}
	s.updateGauges(ctx)
	return rec, s.store.Save(ctx)
}

// SetWinners declares (or edits) the winning teams of a stored match and
// rebuilds all ratings by replaying the full history. Winner edits are
// never applied incrementally. A failed replay restores the previous
// winners and rebuilds from them, so the store never keeps an edit the
// caller was told failed.
func (s *Service) SetWinners(ctx context.Context, matchID string, winners []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		metrics.RecordMatchError()
		return err
	}
	if err := s.store.SetWinners(ctx, matchID, winners); err != nil {
		metrics.RecordMatchError()
		return err
	}
	if err := s.replayLocked(ctx); err != nil {
		if restoreErr := s.store.SetWinners(ctx, matchID, prev.Winners); restoreErr != nil {
			s.logger.Error(ctx, "winner rollback failed", logger.Error(restoreErr))
		} else if replayErr := s.replayLocked(ctx); replayErr != nil {
			s.logger.Error(ctx, "rebuild after winner rollback failed", logger.Error(replayErr))
		}
		metrics.RecordMatchError()
		return err
	}
	metrics.RecordMatchApplied()
	return s.store.Save(ctx)
}

// DeleteMatch removes a stored match and replays the remaining history.
func (s *Service) DeleteMatch(ctx context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteMatch(ctx, matchID); err != nil {
		return err
	}
	if err := s.replayLocked(ctx); err != nil {
		return err
	}
	s.updateGauges(ctx)
	return s.store.Save(ctx)
}

// GetMatch returns one stored match.
func (s *Service) GetMatch(ctx context.Context, matchID string) (model.MatchRecord, error) {
	return s.store.GetMatch(ctx, matchID)
}

// RecentMatches returns up to n stored matches, newest first.
func (s *Service) RecentMatches(ctx context.Context, n int) []model.MatchRecord {
	return s.store.RecentMatches(ctx, n)
}

// Replay rebuilds every rating from the stored history.
func (s *Service) Replay(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.replayLocked(ctx); err != nil {
		return err
	}
	return s.store.Save(ctx)
}

func (s *Service) replayLocked(ctx context.Context) error {
	start := time.Now()
	matches := s.store.Matches(ctx)
	err := s.store.Mutate(ctx, func(reg repository.Registry) error {
		return s.engine.Replay(ctx, reg, matches)
	})
	if err != nil {
		s.logger.Error(ctx, "history replay failed", logger.Error(err))
		return err
	}
	metrics.RecordReplay(float64(time.Since(start).Microseconds()) / 1000.0)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	ctx := context.Background()
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if s.started {
		stats["users"] = s.store.CountUsers(ctx)
		stats["matches"] = len(s.store.Matches(ctx))
		stats["dataDir"] = s.dataDir
	}
	return stats
}

func (s *Service) updateGauges(ctx context.Context) {
	metrics.UpdateRegisteredUsers(s.store.CountUsers(ctx))
	metrics.UpdateStoredMatches(len(s.store.Matches(ctx)))
}
