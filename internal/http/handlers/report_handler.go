package handlers

import (
	"context"
	"errors"
	"net/http"

	"battwatch/internal/health"
	"battwatch/internal/models"
)

// ReportService computes the current health report.
type ReportService interface {
	Compute(ctx context.Context) (*models.HealthReport, error)
}

// ReportBroadcaster pushes fresh reports to stream subscribers.
type ReportBroadcaster interface {
	ReportUpdated(report *models.HealthReport)
}

// NewReportHandler returns GET /api/report handler.
func NewReportHandler(svc ReportService, broadcaster ReportBroadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Compute(r.Context())
		if err != nil {
			if errors.Is(err, health.ErrInsufficientData) {
				writeError(w, http.StatusNotFound, "not enough completed sessions for a health report")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to compute health report")
			return
		}

		if broadcaster != nil {
			broadcaster.ReportUpdated(report)
		}
		writeJSON(w, http.StatusOK, report)
	}
}
