// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/terrylhu/scrim/internal/adapters/repository"
	"github.com/terrylhu/scrim/internal/domain/balance"
	"github.com/terrylhu/scrim/internal/domain/model"
	"github.com/terrylhu/scrim/internal/domain/rating"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RegisterUser(ctx context.Context, id, name string, baseRating float64) error
	RemoveUser(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (model.Participant, error)
	ListUsers(ctx context.Context) []model.Participant
	Leaderboard(ctx context.Context, limit int) []model.Participant

	FormTeams(ctx context.Context, ids []string, numTeams int, seed *uint64) ([]model.Team, error)

	RecordMatch(ctx context.Context, teams [][]string) (model.MatchRecord, error)
	SetWinners(ctx context.Context, matchID string, winners []int) error
	DeleteMatch(ctx context.Context, matchID string) error
	GetMatch(ctx context.Context, matchID string) (model.MatchRecord, error)
	RecentMatches(ctx context.Context, n int) []model.MatchRecord
}

// StatsProvider exposes service statistics for the /stats endpoint.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	usersHandler   *UsersHandler
	teamsHandler   *TeamsHandler
	matchesHandler *MatchesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboard, maxRecent int) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		usersHandler:   NewUsersHandler(deps, maxLeaderboard),
		teamsHandler:   NewTeamsHandler(deps),
		matchesHandler: NewMatchesHandler(deps, maxRecent),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/users", MetricsMiddleware(s.usersHandler.HandleUsers, "users"))
	mux.HandleFunc("/users/", MetricsMiddleware(s.usersHandler.HandleUser, "user"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.usersHandler.HandleLeaderboard, "leaderboard"))
	mux.HandleFunc("/teams/form", MetricsMiddleware(s.teamsHandler.HandleFormTeams, "teams_form"))
	mux.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandleMatches, "matches"))
	mux.HandleFunc("/matches/", MetricsMiddleware(s.matchesHandler.HandleMatch, "match"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrMatchNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, balance.ErrInvalidTeamCount),
		errors.Is(err, balance.ErrInfeasibleTeamCount),
		errors.Is(err, rating.ErrNoTeams),
		errors.Is(err, rating.ErrInvalidWinnerIndex),
		errors.Is(err, repository.ErrWinnerOutOfRange),
		errors.Is(err, repository.ErrNegativeBase):
		writeError(w, http.StatusUnprocessableEntity, "invalid_input", err)
	case errors.Is(err, rating.ErrNumericInstability),
		errors.Is(err, rating.ErrWeightSum):
		writeError(w, http.StatusInternalServerError, "unstable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
