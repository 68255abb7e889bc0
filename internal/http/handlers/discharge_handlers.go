package handlers

import "net/http"

// DischargeTracker toggles discharge observation.
type DischargeTracker interface {
	StartDischargeTracking()
	StopDischargeTracking()
}

// NewDischargeStartHandler returns POST /api/discharge/start handler.
func NewDischargeStartHandler(tracker DischargeTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracker.StartDischargeTracking()
		writeJSON(w, http.StatusOK, map[string]string{"status": "tracking"})
	}
}

// NewDischargeStopHandler returns POST /api/discharge/stop handler.
func NewDischargeStopHandler(tracker DischargeTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracker.StopDischargeTracking()
		writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
	}
}
