package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	Report          http.HandlerFunc
	Sessions        http.HandlerFunc
	CurrentSession  http.HandlerFunc
	DeviceSpec      http.HandlerFunc
	DischargeStart  http.HandlerFunc
	DischargeStop   http.HandlerFunc
	AdminDeleteData http.HandlerFunc
	Health          http.HandlerFunc
	WS              http.Handler
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.Report != nil {
		mux.Handle("/api/report", method(http.MethodGet, routes.Report))
	}
	if routes.Sessions != nil {
		mux.Handle("/api/sessions", method(http.MethodGet, routes.Sessions))
	}
	if routes.CurrentSession != nil {
		mux.Handle("/api/sessions/current", method(http.MethodGet, routes.CurrentSession))
	}
	if routes.DeviceSpec != nil {
		mux.Handle("/api/spec", method(http.MethodGet, routes.DeviceSpec))
	}
	if routes.DischargeStart != nil {
		mux.Handle("/api/discharge/start", method(http.MethodPost, routes.DischargeStart))
	}
	if routes.DischargeStop != nil {
		mux.Handle("/api/discharge/stop", method(http.MethodPost, routes.DischargeStop))
	}
	if routes.AdminDeleteData != nil {
		mux.Handle("/api/admin/data", method(http.MethodDelete, routes.AdminDeleteData))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
	}
	if routes.WS != nil {
		mux.Handle("/ws", routes.WS)
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
