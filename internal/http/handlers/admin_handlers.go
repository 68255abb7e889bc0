package handlers

import (
	"context"
	"net/http"
)

// DataWiper removes all recorded battery data.
type DataWiper interface {
	Wipe(ctx context.Context) error
}

// NewAdminDeleteDataHandler returns DELETE /api/admin/data handler.
func NewAdminDeleteDataHandler(wiper DataWiper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := wiper.Wipe(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete recorded data")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
