// v1
// internal/simulation/simulation.go

// Package simulation implements the what-if impact engine: baseline
// resolution, event-specific impact calculation, narrative insight
// generation and business impact aggregation. The engine is stateless
// per invocation; given the same baseline set, parameters and filters
// it always produces the same projections.
package simulation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// ModelConfidence is a declared model-confidence placeholder, not a
// quantity derived from data.
const ModelConfidence = 0.85

var (
	// ErrNoBaselineData signals that no non-artifact records were
	// available to derive a baseline from.
	ErrNoBaselineData = errors.New("no baseline behavior data")
	// ErrNoMatchingSegments signals that the persona/region filters
	// admitted no baseline entries.
	ErrNoMatchingSegments = errors.New("no segments match the requested filters")
)

// BaselineEntry is the reference distribution for one persona/region
// segment before any simulated event.
type BaselineEntry struct {
	Persona          string             `json:"group"`
	Region           string             `json:"region"`
	BrandPercentages map[string]float64 `json:"brand_percentages"`
	AvgSatisfaction  float64            `json:"avg_satisfaction"`
}

// SegmentResult is the projected distribution for one segment together
// with the per-brand delta against its baseline.
type SegmentResult struct {
	Persona            string             `json:"group"`
	Region             string             `json:"region"`
	BrandA             float64            `json:"brandA"`
	BrandB             float64            `json:"brandB"`
	BrandOther         float64            `json:"other"`
	ChangeFromBaseline map[string]float64 `json:"change_from_baseline"`
}

// ImpactSummary rolls the per-segment deltas into business scalars.
type ImpactSummary struct {
	AvgBrandShiftPercent   float64 `json:"avg_brand_shift_percent"`
	ConfidenceScore        float64 `json:"confidence_score"`
	AffectedPersonas       int     `json:"affected_personas"`
	EstimatedRevenueChange float64 `json:"estimated_revenue_change"`
}

// Metadata carries run bookkeeping returned alongside the projections.
type Metadata struct {
	SimulationTime time.Time `json:"simulation_time"`
	DurationDays   int       `json:"duration_days"`
	ModelVersion   string    `json:"model_version"`
	RunID          string    `json:"run_id"`
}

// Result is the full engine output for one invocation. It is created
// once and never mutated afterward.
type Result struct {
	Success         bool                        `json:"success"`
	Event           string                      `json:"event"`
	EventType       string                      `json:"event_type"`
	Parameters      models.SimulationParameters `json:"parameters"`
	Results         map[string]SegmentResult    `json:"results"`
	Insights        []string                    `json:"insights"`
	ProjectedImpact ImpactSummary               `json:"projected_impact"`
	ConfidenceScore float64                     `json:"confidence_score"`
	Metadata        Metadata                    `json:"metadata"`
}

// Config carries the explicit engine configuration. Nothing here is
// ambient process state: the clock and the sensitivity roster are
// injected at construction time.
type Config struct {
	// ModelVersion is reported in result metadata.
	ModelVersion string
	// SensitivePersonas lists personas in the price-sensitive tier.
	// Matching is case-insensitive.
	SensitivePersonas []string
	// Clock supplies the simulation timestamp; defaults to UTC now.
	Clock func() time.Time
}

// Engine applies event transformations to baseline distributions.
type Engine struct {
	modelVersion string
	sensitive    map[string]struct{}
	now          func() time.Time
}

// DefaultSensitivePersonas is the tier roster used when none is
// configured. Fresh graduates shift toward cheaper options first.
var DefaultSensitivePersonas = []string{"Fresh_Grad"}

// New builds an engine from cfg, filling unset fields with defaults.
func New(cfg Config) *Engine {
	version := cfg.ModelVersion
	if version == "" {
		version = "1.0.0"
	}
	roster := cfg.SensitivePersonas
	if len(roster) == 0 {
		roster = DefaultSensitivePersonas
	}
	sensitive := make(map[string]struct{}, len(roster))
	for _, p := range roster {
		sensitive[foldKey(p)] = struct{}{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{modelVersion: version, sensitive: sensitive, now: clock}
}

// Run executes the full pipeline for one request: filter and project
// every baseline segment, derive insights and aggregate impact. Empty
// baselines and empty filtered sets surface as typed errors so the
// caller can distinguish "no data" from "no matching segments".
func (e *Engine) Run(baseline map[string]BaselineEntry, req models.SimulationRequest) (*Result, error) {
	if len(baseline) == 0 {
		return nil, ErrNoBaselineData
	}
	results := e.Calculate(baseline, req.EventType, req.Parameters, req.Persona, req.Region)
	if len(results) == 0 {
		return nil, ErrNoMatchingSegments
	}

	duration := req.DurationDays
	if duration == 0 {
		duration = 30
	}

	return &Result{
		Success:         true,
		Event:           EventDisplayName(req.EventType),
		EventType:       req.EventType,
		Parameters:      req.Parameters,
		Results:         results,
		Insights:        e.Insights(req.EventType, results, req.Parameters),
		ProjectedImpact: e.Impact(req.EventType, results, req.Parameters),
		ConfidenceScore: ModelConfidence,
		Metadata: Metadata{
			SimulationTime: e.now(),
			DurationDays:   duration,
			ModelVersion:   e.modelVersion,
			RunID:          uuid.NewString(),
		},
	}, nil
}

// EventDisplayName resolves the human-facing label for an event type.
func EventDisplayName(eventType string) string {
	switch eventType {
	case models.EventPriceChange:
		return "Price Change"
	case models.EventPromotion:
		return "Promotion Campaign"
	case models.EventCompetition:
		return "Competitive Shift"
	case models.EventExternal:
		return "External Factors"
	default:
		return eventType
	}
}
