// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/terrylhu/scrim/internal/domain/model"
)

// TeamsHandler handles team formation requests.
type TeamsHandler struct {
	deps Dependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps Dependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// formTeamsRequest mirrors the body of POST /teams/form.
type formTeamsRequest struct {
	ParticipantIDs []string `json:"participant_ids"`
	NumTeams       int      `json:"num_teams"`
	// Seed pins the partition for reproducibility; omit for a random one.
	Seed *uint64 `json:"seed,omitempty"`
}

func (f formTeamsRequest) validate() error {
	if len(f.ParticipantIDs) == 0 {
		return ErrBadRequest
	}
	return nil
}

// teamView is the response shape for one formed team.
type teamView struct {
	Members []model.Participant `json:"members"`
	Total   float64             `json:"total"`
}

// HandleFormTeams handles POST /teams/form requests.
func (h *TeamsHandler) HandleFormTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req formTeamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	teams, err := h.deps.FormTeams(r.Context(), req.ParticipantIDs, req.NumTeams, req.Seed)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]teamView, len(teams))
	for i, t := range teams {
		views[i] = teamView{Members: t.Members, Total: t.Total()}
	}
	writeJSON(w, http.StatusOK, views)
}
