// v1
// internal/models/models.go
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Brand keys used across the behavior twin. The brand pool is fixed at
// three entries: two tracked convenience chains plus an "other" bucket
// absorbing everything else.
const (
	BrandA     = "brandA"
	BrandB     = "brandB"
	BrandOther = "other"
)

// Brands lists the brand keys in presentation order.
var Brands = []string{BrandA, BrandB, BrandOther}

// Event types recognized by the simulation engine.
const (
	EventPriceChange = "price_change"
	EventPromotion   = "promotion"
	EventCompetition = "competition"
	EventExternal    = "external"
)

// EventTypes lists the valid event type identifiers in catalog order.
var EventTypes = []string{EventPriceChange, EventPromotion, EventCompetition, EventExternal}

// ErrInvalidEventType is returned by request validation when the event
// type is not one of the enumerated values. The engine itself treats an
// unrecognized type as a no-op; rejection happens at the API boundary.
var ErrInvalidEventType = errors.New("invalid event type")

// ValidEventType reports whether t is one of the enumerated event types.
func ValidEventType(t string) bool {
	for _, v := range EventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// BehaviorRecord is one monthly observation for a persona/region segment
// as stored in the behavior twin JSONL file. Records are immutable once
// read; the store owns them and the engine only consumes copies.
//
// A non-empty Event field marks the record as a simulation artifact
// written back by an earlier run; such records never contribute to the
// baseline.
type BehaviorRecord struct {
	Timestamp        string             `json:"timestamp"`
	Persona          string             `json:"group"`
	Region           string             `json:"region"`
	TotalPersonas    int                `json:"total_personas,omitempty"`
	BrandPercentages map[string]float64 `json:"brand_percentages"`
	AvgSatisfaction  float64            `json:"avg_satisfaction"`
	Event            string             `json:"event,omitempty"`
	KeyInsights      []string           `json:"key_insights,omitempty"`
}

// SegmentKey identifies a persona/region sub-population.
func (r *BehaviorRecord) SegmentKey() string {
	return SegmentKey(r.Persona, r.Region)
}

// SegmentKey builds the canonical "persona_region" lookup key.
func SegmentKey(persona, region string) string {
	return persona + "_" + region
}

// Validate checks the fields required for baseline derivation. Records
// failing validation are skipped at the ingestion boundary rather than
// deep inside calculation logic.
func (r *BehaviorRecord) Validate() error {
	if strings.TrimSpace(r.Persona) == "" {
		return errors.New("group is required")
	}
	if strings.TrimSpace(r.Region) == "" {
		return errors.New("region is required")
	}
	if r.BrandPercentages == nil {
		return errors.New("brand_percentages is required")
	}
	if r.AvgSatisfaction < 0 || r.AvgSatisfaction > 1 {
		return fmt.Errorf("avg_satisfaction %v outside [0,1]", r.AvgSatisfaction)
	}
	return nil
}

// IsSimulationArtifact reports whether the record was produced by a
// previous simulation run rather than observed behavior.
func (r *BehaviorRecord) IsSimulationArtifact() bool {
	return r.Event != ""
}

// ParameterBound describes the accepted range and default of one
// simulation parameter, surfaced through the parameter catalog endpoint.
type ParameterBound struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Bounds for the recognized simulation parameters.
var (
	BoundElectricityPrice   = ParameterBound{Min: 0.5, Max: 3.0, Default: 1.0}
	BoundPointMultiplier    = ParameterBound{Min: 0.5, Max: 5.0, Default: 1.0}
	BoundPromotionIntensity = ParameterBound{Min: 0.0, Max: 2.0, Default: 1.0}
	BoundPriceSensitivity   = ParameterBound{Min: 0.5, Max: 2.0, Default: 1.0}
)

// SimulationParameters carries the tunable knobs for a what-if run.
// PriceSensitivity is accepted and bounds-checked but unused by the
// current transformation rules; it is reserved for future event types.
type SimulationParameters struct {
	ElectricityPrice   float64 `json:"electricity_price"`
	PointMultiplier    float64 `json:"point_multiplier"`
	PromotionIntensity float64 `json:"promotion_intensity"`
	PriceSensitivity   float64 `json:"price_sensitivity"`
}

// DefaultParameters returns the neutral parameter set: every multiplier
// at 1.0, which every transformation rule treats as "no change".
func DefaultParameters() SimulationParameters {
	return SimulationParameters{
		ElectricityPrice:   BoundElectricityPrice.Default,
		PointMultiplier:    BoundPointMultiplier.Default,
		PromotionIntensity: BoundPromotionIntensity.Default,
		PriceSensitivity:   BoundPriceSensitivity.Default,
	}
}

// UnmarshalJSON fills absent parameters with their defaults so partial
// requests behave like the original API.
func (p *SimulationParameters) UnmarshalJSON(data []byte) error {
	raw := struct {
		ElectricityPrice   *float64 `json:"electricity_price"`
		PointMultiplier    *float64 `json:"point_multiplier"`
		PromotionIntensity *float64 `json:"promotion_intensity"`
		PriceSensitivity   *float64 `json:"price_sensitivity"`
	}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = DefaultParameters()
	if raw.ElectricityPrice != nil {
		p.ElectricityPrice = *raw.ElectricityPrice
	}
	if raw.PointMultiplier != nil {
		p.PointMultiplier = *raw.PointMultiplier
	}
	if raw.PromotionIntensity != nil {
		p.PromotionIntensity = *raw.PromotionIntensity
	}
	if raw.PriceSensitivity != nil {
		p.PriceSensitivity = *raw.PriceSensitivity
	}
	return nil
}

// Validate enforces the declared parameter domains.
func (p SimulationParameters) Validate() error {
	checks := []struct {
		name  string
		value float64
		bound ParameterBound
	}{
		{"electricity_price", p.ElectricityPrice, BoundElectricityPrice},
		{"point_multiplier", p.PointMultiplier, BoundPointMultiplier},
		{"promotion_intensity", p.PromotionIntensity, BoundPromotionIntensity},
		{"price_sensitivity", p.PriceSensitivity, BoundPriceSensitivity},
	}
	for _, c := range checks {
		if c.value < c.bound.Min || c.value > c.bound.Max {
			return fmt.Errorf("%s %v outside [%v, %v]", c.name, c.value, c.bound.Min, c.bound.Max)
		}
	}
	return nil
}

// SimulationRequest is the request body for POST /api/v1/simulation/simulate.
type SimulationRequest struct {
	EventType    string               `json:"event_type"`
	Parameters   SimulationParameters `json:"parameters"`
	Persona      string               `json:"persona,omitempty"`
	Region       string               `json:"region,omitempty"`
	DurationDays int                  `json:"duration_days,omitempty"`
}

// Validate rejects unusable requests before the engine runs.
func (r *SimulationRequest) Validate() error {
	if !ValidEventType(r.EventType) {
		return fmt.Errorf("%w: %q must be one of %s", ErrInvalidEventType, r.EventType, strings.Join(EventTypes, ", "))
	}
	if r.DurationDays < 0 || r.DurationDays > 365 {
		return fmt.Errorf("duration_days %d outside [0, 365]", r.DurationDays)
	}
	return r.Parameters.Validate()
}

// DailyIntelReport mirrors one line of the daily intelligence JSONL feed.
type DailyIntelReport struct {
	Date              string          `json:"date"`
	Summary           string          `json:"daily_intelligence_summary"`
	BehavioralReport  json.RawMessage `json:"behavioral_twin_report,omitempty"`
	AnomalyDetection  string          `json:"anomaly_detection,omitempty"`
	IncentiveAnalysis json.RawMessage `json:"incentive_analysis,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
}

// ErrorResponse is the uniform error envelope returned by the API layer.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"status_code"`
}

// ParseRecordTimestamp extracts the date component of a record timestamp.
// Records with unparseable timestamps are treated as matching any date
// filter, mirroring the permissive behavior of the original loader.
func ParseRecordTimestamp(ts string) (time.Time, bool) {
	if len(ts) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", ts[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
