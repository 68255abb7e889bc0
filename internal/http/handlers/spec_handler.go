package handlers

import (
	"context"
	"net/http"

	"battwatch/internal/models"
)

// SpecResolver yields the battery spec for this device.
type SpecResolver interface {
	Resolve(ctx context.Context) (*models.DeviceSpec, error)
}

// NewDeviceSpecHandler returns GET /api/spec handler.
func NewDeviceSpecHandler(resolver SpecResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec, err := resolver.Resolve(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to resolve device spec")
			return
		}
		writeJSON(w, http.StatusOK, spec)
	}
}
