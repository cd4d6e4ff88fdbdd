// v1
// internal/api/handlers_test.go
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anappleaday1984/cdp-visualization/internal/cache"
	"github.com/anappleaday1984/cdp-visualization/internal/health"
	"github.com/anappleaday1984/cdp-visualization/internal/simulation"
	"github.com/anappleaday1984/cdp-visualization/internal/store"
)

const behaviorFixture = `{"timestamp":"2025-05-01T00:00:00","group":"Fresh_Grad","region":"Taipei","brand_percentages":{"brandA":45,"brandB":35,"other":20},"avg_satisfaction":0.72}
{"timestamp":"2025-05-01T00:00:00","group":"FinTech_Family","region":"Tainan","brand_percentages":{"brandA":50,"brandB":30,"other":20},"avg_satisfaction":0.81}
`

func newTestHandlers(t *testing.T, behaviorContent string) *Handlers {
	t.Helper()
	dir := t.TempDir()
	behaviorPath := filepath.Join(dir, "behavior_twin_monthly.jsonl")
	if behaviorContent != "" {
		if err := os.WriteFile(behaviorPath, []byte(behaviorContent), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := store.NewBehaviorStore(behaviorPath, logger)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}

	hs := health.NewState(time.Now(), "test")
	hs.SetReady(true)

	return &Handlers{
		Log:          logger,
		Store:        s,
		Engine:       simulation.New(simulation.Config{ModelVersion: "test"}),
		SummaryCache: cache.New[store.Summary](time.Minute, nil),
		Health:       hs,
		BehaviorPath: behaviorPath,
		IntelPath:    filepath.Join(dir, "daily_intel_report.jsonl"),
	}
}

func postSimulate(t *testing.T, h *Handlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulation/simulate", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Simulate(rr, req)
	return rr
}

func TestSimulateSuccess(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	rr := postSimulate(t, h, `{"event_type":"price_change","parameters":{"electricity_price":1.5}}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res simulation.Result
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success || len(res.Results) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Metadata.RunID == "" {
		t.Fatalf("expected run id in metadata")
	}
}

func TestSimulateDefaultsParametersWhenOmitted(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	rr := postSimulate(t, h, `{"event_type":"external"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with omitted parameters, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSimulateInvalidEventType(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	rr := postSimulate(t, h, `{"event_type":"market_crash"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSimulateParameterOutOfBounds(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	rr := postSimulate(t, h, `{"event_type":"price_change","parameters":{"electricity_price":5.0}}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSimulateMalformedBody(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	rr := postSimulate(t, h, `{"event_type":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSimulateNoData(t *testing.T) {
	h := newTestHandlers(t, "")
	rr := postSimulate(t, h, `{"event_type":"price_change"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on empty store, got %d", rr.Code)
	}
}

func TestSimulateNoMatchingSegments(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	rr := postSimulate(t, h, `{"event_type":"price_change","region":"Kaohsiung"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on unmatched filters, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if msg, _ := payload["error"].(string); !strings.Contains(msg, "segments") {
		t.Fatalf("expected segment error message, got %v", payload)
	}
}

func TestSimulationCatalog(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/simulation", nil)
	rr := httptest.NewRecorder()
	h.SimulationCatalog(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"price_change", "promotion", "competition", "external", "electricity_price"} {
		if !strings.Contains(body, want) {
			t.Fatalf("catalog missing %q: %s", want, body)
		}
	}
}

func TestBehaviorQueryEndpoint(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/behavior?persona=fresh%20grad", nil)
	rr := httptest.NewRecorder()
	h.Behavior(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Count != 1 {
		t.Fatalf("expected 1 record via alias filter, got %d", payload.Count)
	}
}

func TestBehaviorQueryRejectsBadLimit(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/behavior?limit=zero", nil)
	rr := httptest.NewRecorder()
	h.Behavior(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestBehaviorSummaryEndpoint(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/behavior/summary", nil)
	rr := httptest.NewRecorder()
	h.BehaviorSummary(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	// Second call must be served from cache with the same payload.
	rr2 := httptest.NewRecorder()
	h.BehaviorSummary(rr2, httptest.NewRequest(http.MethodGet, "/api/v1/behavior/summary", nil))
	if rr2.Code != http.StatusOK || rr2.Body.String() != rr.Body.String() {
		t.Fatalf("cached summary diverged")
	}
}

func TestBehaviorSummaryNoData(t *testing.T) {
	h := newTestHandlers(t, "")
	rr := httptest.NewRecorder()
	h.BehaviorSummary(rr, httptest.NewRequest(http.MethodGet, "/api/v1/behavior/summary", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDailyIntelMissingFeed(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	rr := httptest.NewRecorder()
	h.DailyIntel(rr, httptest.NewRequest(http.MethodGet, "/api/v1/behavior/daily-intel", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with empty feed, got %d", rr.Code)
	}
	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Count != 0 {
		t.Fatalf("expected 0 reports, got %d", payload.Count)
	}
}

func TestReadinessReflectsState(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)

	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 when ready, got %d", rr.Code)
	}

	h.Health.SetReady(false)
	rr = httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when not ready, got %d", rr.Code)
	}
}

func TestHealthDetailReportsDataSources(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	rr := httptest.NewRecorder()
	h.HealthDetail(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var report health.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	// Intel feed does not exist in the fixture, so status degrades.
	if report.Status != "degraded" {
		t.Fatalf("expected degraded status, got %q", report.Status)
	}
	if report.RecordsLoaded != 2 {
		t.Fatalf("expected 2 records loaded, got %d", report.RecordsLoaded)
	}
}

func TestMetricsEndpoints(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)

	rr := httptest.NewRecorder()
	h.MetricsProm(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "insight_simulations_total") {
		t.Fatalf("unexpected prometheus output: %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.MetricsJSON(rr, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "simulations_run") {
		t.Fatalf("unexpected json metrics output: %d %s", rr.Code, rr.Body.String())
	}
}

func TestRouterRejectsWrongMethod(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/simulation/simulate", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRouterServesLiveness(t *testing.T) {
	h := newTestHandlers(t, behaviorFixture)
	router := NewRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
