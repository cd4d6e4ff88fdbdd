// v2
// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/anappleaday1984/cdp-visualization/internal/cache"
	"github.com/anappleaday1984/cdp-visualization/internal/health"
	"github.com/anappleaday1984/cdp-visualization/internal/metrics"
	"github.com/anappleaday1984/cdp-visualization/internal/models"
	"github.com/anappleaday1984/cdp-visualization/internal/simulation"
	"github.com/anappleaday1984/cdp-visualization/internal/store"
)

const summaryCacheKey = "behavior-summary"

// Handlers bundles every HTTP endpoint with its dependencies. All
// fields must be populated; there are no lazily constructed defaults.
type Handlers struct {
	Log          *slog.Logger
	Store        *store.BehaviorStore
	Engine       *simulation.Engine
	SummaryCache *cache.Cache[store.Summary]
	Health       *health.State
	BehaviorPath string
	IntelPath    string
}

// Behavior serves GET /api/v1/behavior: observed records filtered by
// persona, region and date range.
func (h *Handlers) Behavior(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.QueryFilter{
		Persona:   q.Get("persona"),
		Region:    q.Get("region"),
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.badRequest(w, "limit must be a positive integer", "")
			return
		}
		filter.Limit = n
	}

	records := h.Store.Query(filter)
	h.Log.Info("behavior_query",
		slog.String("persona", filter.Persona),
		slog.String("region", filter.Region),
		slog.Int("count", len(records)))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(records),
		"records": records,
	})
}

// BehaviorSummary serves GET /api/v1/behavior/summary with a cached
// aggregate view across all observed records.
func (h *Handlers) BehaviorSummary(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.SummaryCache.Get(summaryCacheKey); ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": s})
		return
	}

	s, err := h.Store.Summarize()
	if err != nil {
		if errors.Is(err, store.ErrNoRecords) {
			h.notFound(w, "no behavior data available")
			return
		}
		h.internalError(w, err)
		return
	}
	h.SummaryCache.Set(summaryCacheKey, s)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": s})
}

// DailyIntel serves GET /api/v1/behavior/daily-intel, optionally
// filtered to a single date.
func (h *Handlers) DailyIntel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.badRequest(w, "limit must be a positive integer", "")
			return
		}
		limit = n
	}

	reports, err := store.LoadDailyIntel(h.IntelPath, q.Get("date"), limit)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if reports == nil {
		reports = []models.DailyIntelReport{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(reports),
		"reports": reports,
	})
}

// SimulationCatalog serves GET /api/v1/simulation: the supported event
// types with their display names and the parameter domains.
func (h *Handlers) SimulationCatalog(w http.ResponseWriter, r *http.Request) {
	events := make([]map[string]string, 0, len(models.EventTypes))
	for _, et := range models.EventTypes {
		events = append(events, map[string]string{
			"event_type": et,
			"name":       simulation.EventDisplayName(et),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"event_types": events,
		"parameters": map[string]models.ParameterBound{
			"electricity_price":   models.BoundElectricityPrice,
			"point_multiplier":    models.BoundPointMultiplier,
			"promotion_intensity": models.BoundPromotionIntensity,
			"price_sensitivity":   models.BoundPriceSensitivity,
		},
		"defaults": models.DefaultParameters(),
	})
}

// Simulate serves POST /api/v1/simulation/simulate: run the what-if
// engine over the current baseline and return the projections.
func (h *Handlers) Simulate(w http.ResponseWriter, r *http.Request) {
	var req models.SimulationRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		h.badRequest(w, "invalid request body", err.Error())
		return
	}
	if req.Parameters == (models.SimulationParameters{}) {
		req.Parameters = models.DefaultParameters()
	}
	if err := req.Validate(); err != nil {
		h.badRequest(w, "invalid simulation request", err.Error())
		return
	}

	baseline, outcomes := simulation.ResolveBaselines(h.Store.Records())
	for reason, n := range simulation.CountSkipped(outcomes) {
		h.Log.Warn("baseline_records_skipped", slog.String("reason", reason), slog.Int("count", n))
	}

	result, err := h.Engine.Run(baseline, req)
	if err != nil {
		switch {
		case errors.Is(err, simulation.ErrNoBaselineData):
			h.notFound(w, "no behavior data available for simulation")
		case errors.Is(err, simulation.ErrNoMatchingSegments):
			h.badRequest(w, "no segments match the requested filters", "")
		default:
			h.internalError(w, err)
		}
		return
	}

	metrics.IncSimulation(req.EventType)
	h.Log.Info("simulation_completed",
		slog.String("event", req.EventType),
		slog.String("runId", result.Metadata.RunID),
		slog.Int("segments", len(result.Results)))
	writeJSON(w, http.StatusOK, result)
}

// HealthDetail serves GET /api/v1/health with data-source checks.
func (h *Handlers) HealthDetail(w http.ResponseWriter, r *http.Request) {
	sources := []health.DataSource{
		health.CheckFile("behavior_twin", h.BehaviorPath),
		health.CheckFile("daily_intel", h.IntelPath),
	}
	report := h.Health.BuildReport(time.Now(), h.Store.Report().Kept, sources)
	writeJSON(w, http.StatusOK, report)
}

// Live serves GET /health and /health/live: process is up.
func (h *Handlers) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready serves GET /health/ready: 503 until the store is loaded.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.Health.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// MetricsJSON serves GET /api/v1/metrics with the counter snapshot.
func (h *Handlers) MetricsJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Counters())
}

// MetricsProm serves GET /metrics in Prometheus exposition format.
func (h *Handlers) MetricsProm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(metrics.Render()))
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg, detail string) {
	h.Log.Warn("bad request", slog.String("error", msg), slog.String("detail", detail))
	writeError(w, http.StatusBadRequest, msg, detail)
}

func (h *Handlers) notFound(w http.ResponseWriter, msg string) {
	h.Log.Warn("not found", slog.String("error", msg))
	writeError(w, http.StatusNotFound, msg, "")
}

func (h *Handlers) internalError(w http.ResponseWriter, err error) {
	h.Log.Error("internal error", slog.Any("err", err))
	writeError(w, http.StatusInternalServerError, "internal server error", "")
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, models.ErrorResponse{
		Success:    false,
		Error:      msg,
		Detail:     detail,
		StatusCode: status,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
