package httpserver

import "net/http"

// Routes groups handlers.
type Routes struct {
	SessionStart http.HandlerFunc
	SessionPush  http.HandlerFunc
	SessionEnd   http.HandlerFunc
	Stream       http.Handler
	Metrics      http.Handler
	Health       http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.SessionStart != nil {
		mux.Handle("/sessions/start", method(http.MethodPost, routes.SessionStart))
	}
	if routes.SessionPush != nil {
		mux.Handle("/sessions/push", method(http.MethodPost, routes.SessionPush))
	}
	if routes.SessionEnd != nil {
		mux.Handle("/sessions/end", method(http.MethodPost, routes.SessionEnd))
	}
	if routes.Stream != nil {
		mux.Handle("/ingest/ws", routes.Stream)
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", method(http.MethodGet, routes.Metrics.ServeHTTP))
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, routes.Health))
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
