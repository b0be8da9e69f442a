// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// UsersHandler handles user registration and listing requests.
type UsersHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps Dependencies, maxLimit int) *UsersHandler {
	return &UsersHandler{deps: deps, maxLimit: maxLimit}
}

// registerRequest mirrors the body of PUT /users/{id}.
type registerRequest struct {
	Name       string  `json:"name"`
	BaseRating float64 `json:"base_rating"`
}

func (r registerRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrBadRequest
	}
	return nil
}

// HandleUsers handles GET /users requests.
func (h *UsersHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ListUsers(r.Context()))
}

// HandleUser handles PUT/GET/DELETE /users/{id} requests.
func (h *UsersHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		if err := h.deps.RegisterUser(r.Context(), id, req.Name, req.BaseRating); err != nil {
			writeDomainError(w, err)
			return
		}
		user, err := h.deps.GetUser(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodGet:
		user, err := h.deps.GetUser(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)

	case http.MethodDelete:
		if err := h.deps.RemoveUser(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

// HandleLeaderboard handles GET /leaderboard?limit=N requests.
func (h *UsersHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limit := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.deps.Leaderboard(r.Context(), limit))
}
