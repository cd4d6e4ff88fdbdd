// v1
// internal/api/router.go
package api

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/anappleaday1984/cdp-visualization/internal/metrics"
)

// NewRouter wires every endpoint onto a gorilla router wrapped with
// request counting, access logging and permissive CORS for the
// dashboard frontend.
func NewRouter(h *Handlers) http.Handler {
	r := mux.NewRouter()
	r.Use(countRequests)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/behavior", h.Behavior).Methods(http.MethodGet)
	v1.HandleFunc("/behavior/summary", h.BehaviorSummary).Methods(http.MethodGet)
	v1.HandleFunc("/behavior/daily-intel", h.DailyIntel).Methods(http.MethodGet)
	v1.HandleFunc("/simulation", h.SimulationCatalog).Methods(http.MethodGet)
	v1.HandleFunc("/simulation/simulate", h.Simulate).Methods(http.MethodPost)
	v1.HandleFunc("/health", h.HealthDetail).Methods(http.MethodGet)
	v1.HandleFunc("/metrics", h.MetricsJSON).Methods(http.MethodGet)

	r.HandleFunc("/health", h.Live).Methods(http.MethodGet)
	r.HandleFunc("/health/live", h.Live).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", h.Ready).Methods(http.MethodGet)
	r.HandleFunc("/metrics", h.MetricsProm).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(os.Stdout, cors(r))
}

// countRequests labels the request counter with the route template so
// path variables do not explode metric cardinality.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		route := req.URL.Path
		if cur := mux.CurrentRoute(req); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.IncRequest(route)
		next.ServeHTTP(w, req)
	})
}
