// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// MatchesHandler handles match recording and editing requests.
type MatchesHandler struct {
	deps      Dependencies
	maxRecent int
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps Dependencies, maxRecent int) *MatchesHandler {
	return &MatchesHandler{deps: deps, maxRecent: maxRecent}
}

// recordMatchRequest mirrors the body of POST /matches.
type recordMatchRequest struct {
	// Teams holds the member id snapshot of each team.
	Teams [][]string `json:"teams"`
}

func (m recordMatchRequest) validate() error {
	if len(m.Teams) == 0 {
		return ErrBadRequest
	}
	for _, t := range m.Teams {
		if len(t) == 0 {
			return ErrBadRequest
		}
	}
	return nil
}

// setWinnersRequest mirrors the body of PUT /matches/{id}/winners.
type setWinnersRequest struct {
	Winners []int `json:"winners"`
}

// HandleMatches handles POST /matches and GET /matches?limit=N requests.
func (h *MatchesHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req recordMatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		rec, err := h.deps.RecordMatch(r.Context(), req.Teams)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)

	case http.MethodGet:
		limit := h.maxRecent
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			n, err := strconv.Atoi(limitStr)
			if err != nil || n < 1 || n > h.maxRecent {
				writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, h.deps.RecentMatches(r.Context(), limit))

	default:
		http.NotFound(w, r)
	}
}

// HandleMatch handles GET/DELETE /matches/{id} and PUT /matches/{id}/winners.
func (h *MatchesHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/matches/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		rec, err := h.deps.GetMatch(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)

	case sub == "" && r.Method == http.MethodDelete:
		if err := h.deps.DeleteMatch(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case sub == "winners" && r.Method == http.MethodPut:
		var req setWinnersRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := h.deps.SetWinners(r.Context(), id, req.Winners); err != nil {
			writeDomainError(w, err)
			return
		}
		rec, err := h.deps.GetMatch(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)

	default:
		http.NotFound(w, r)
	}
}
