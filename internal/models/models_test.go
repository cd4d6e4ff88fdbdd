// v1
// internal/models/models_test.go
package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestBehaviorRecordValidate(t *testing.T) {
	valid := BehaviorRecord{
		Persona:          "Fresh_Grad",
		Region:           "Taipei",
		BrandPercentages: map[string]float64{"brandA": 45},
		AvgSatisfaction:  0.7,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*BehaviorRecord)
	}{
		{"missing persona", func(r *BehaviorRecord) { r.Persona = " " }},
		{"missing region", func(r *BehaviorRecord) { r.Region = "" }},
		{"missing percentages", func(r *BehaviorRecord) { r.BrandPercentages = nil }},
		{"satisfaction above range", func(r *BehaviorRecord) { r.AvgSatisfaction = 1.5 }},
		{"satisfaction below range", func(r *BehaviorRecord) { r.AvgSatisfaction = -0.1 }},
	}
	for _, tc := range cases {
		rec := valid
		rec.BrandPercentages = map[string]float64{"brandA": 45}
		tc.mut(&rec)
		if err := rec.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestSimulationArtifactDetection(t *testing.T) {
	rec := BehaviorRecord{Persona: "Fresh_Grad", Region: "Taipei"}
	if rec.IsSimulationArtifact() {
		t.Fatalf("observed record flagged as artifact")
	}
	rec.Event = "price_change"
	if !rec.IsSimulationArtifact() {
		t.Fatalf("artifact record not flagged")
	}
}

func TestParametersUnmarshalFillsDefaults(t *testing.T) {
	var p SimulationParameters
	if err := json.Unmarshal([]byte(`{"electricity_price": 1.8}`), &p); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if p.ElectricityPrice != 1.8 {
		t.Fatalf("explicit value lost: %v", p.ElectricityPrice)
	}
	if p.PointMultiplier != 1.0 || p.PromotionIntensity != 1.0 || p.PriceSensitivity != 1.0 {
		t.Fatalf("absent parameters not defaulted: %+v", p)
	}
}

func TestParametersValidateBounds(t *testing.T) {
	p := DefaultParameters()
	if err := p.Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}

	p = DefaultParameters()
	p.ElectricityPrice = 3.5
	if err := p.Validate(); err == nil || !strings.Contains(err.Error(), "electricity_price") {
		t.Fatalf("expected electricity_price bound error, got %v", err)
	}

	p = DefaultParameters()
	p.PromotionIntensity = 0.0 // lower bound is inclusive
	if err := p.Validate(); err != nil {
		t.Fatalf("boundary value rejected: %v", err)
	}
}

func TestSimulationRequestValidate(t *testing.T) {
	req := SimulationRequest{EventType: EventPriceChange, Parameters: DefaultParameters()}
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	req.EventType = "market_crash"
	err := req.Validate()
	if !errors.Is(err, ErrInvalidEventType) {
		t.Fatalf("expected ErrInvalidEventType, got %v", err)
	}

	req.EventType = EventPromotion
	req.DurationDays = 400
	if err := req.Validate(); err == nil {
		t.Fatalf("expected duration bound error")
	}
}

func TestCanonicalAliases(t *testing.T) {
	cases := map[string]string{
		"fresh grad":     PersonaFreshGrad,
		"Fresh_Graduate": PersonaFreshGrad,
		"fintech family": PersonaFintechFamily,
		"Night_Owl":      "Night_Owl", // unknown passes through
	}
	for in, want := range cases {
		if got := CanonicalPersona(in); got != want {
			t.Fatalf("CanonicalPersona(%q) = %q, want %q", in, got, want)
		}
	}
	if got := CanonicalRegion("taipei"); got != RegionTaipei {
		t.Fatalf("CanonicalRegion(taipei) = %q", got)
	}
}

func TestParseRecordTimestamp(t *testing.T) {
	if ts, ok := ParseRecordTimestamp("2025-06-01T08:00:00"); !ok || ts.Day() != 1 {
		t.Fatalf("expected parse success, got %v %v", ts, ok)
	}
	if _, ok := ParseRecordTimestamp("yesterday"); ok {
		t.Fatalf("expected parse failure for junk timestamp")
	}
	if _, ok := ParseRecordTimestamp(""); ok {
		t.Fatalf("expected parse failure for empty timestamp")
	}
}
