package handlers

import (
	"context"
	"net/http"
	"strconv"

	"battwatch/internal/models"
)

// SessionReader lists recorded sessions.
type SessionReader interface {
	GetAll(ctx context.Context, limit int) ([]models.Session, error)
	GetOpenSession(ctx context.Context) (*models.Session, error)
}

const (
	defaultSessionLimit = 50
	maxSessionLimit     = 500
)

// NewSessionsHandler returns GET /api/sessions handler.
func NewSessionsHandler(store SessionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultSessionLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = parsed
		}
		if limit > maxSessionLimit {
			limit = maxSessionLimit
		}

		sessions, err := store.GetAll(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch sessions")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"sessions": sessions,
		})
	}
}

// NewCurrentSessionHandler returns GET /api/sessions/current handler.
func NewCurrentSessionHandler(store SessionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := store.GetOpenSession(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch current session")
			return
		}
		if session == nil {
			writeError(w, http.StatusNotFound, "no active charging session")
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}
