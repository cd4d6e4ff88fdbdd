// v1
// internal/simulation/baseline_test.go
package simulation

import (
	"testing"

	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

func TestResolveBaselinesFirstSeenWins(t *testing.T) {
	records := []models.BehaviorRecord{
		{
			Timestamp:        "2025-05-01T00:00:00",
			Persona:          "Fresh_Grad",
			Region:           "Taipei",
			BrandPercentages: map[string]float64{"brandA": 45, "brandB": 35, "other": 20},
			AvgSatisfaction:  0.7,
		},
		{
			Timestamp:        "2025-06-01T00:00:00",
			Persona:          "Fresh_Grad",
			Region:           "Taipei",
			BrandPercentages: map[string]float64{"brandA": 10, "brandB": 10, "other": 80},
			AvgSatisfaction:  0.5,
		},
	}

	baseline, outcomes := ResolveBaselines(records)
	if len(baseline) != 1 {
		t.Fatalf("expected one segment, got %d", len(baseline))
	}
	entry := baseline["Fresh_Grad_Taipei"]
	if entry.BrandPercentages["brandA"] != 45 {
		t.Fatalf("expected first record to win, got %+v", entry)
	}
	if !outcomes[0].Kept || outcomes[1].Kept {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
	if outcomes[1].Reason != SkipDuplicateSegment {
		t.Fatalf("expected duplicate reason, got %q", outcomes[1].Reason)
	}
}

func TestResolveBaselinesExcludesArtifactsAndInvalid(t *testing.T) {
	records := []models.BehaviorRecord{
		{
			Persona:          "Fresh_Grad",
			Region:           "Taipei",
			BrandPercentages: map[string]float64{"brandA": 45, "brandB": 35, "other": 20},
			Event:            "price_change", // simulation artifact
		},
		{
			Persona: "FinTech_Family",
			Region:  "Tainan",
			// missing brand_percentages
		},
		{
			Persona:          "FinTech_Family",
			Region:           "Tainan",
			BrandPercentages: map[string]float64{"brandA": 50, "brandB": 30, "other": 20},
			AvgSatisfaction:  0.8,
		},
	}

	baseline, outcomes := ResolveBaselines(records)
	if len(baseline) != 1 {
		t.Fatalf("expected one usable segment, got %d", len(baseline))
	}
	if _, ok := baseline["FinTech_Family_Tainan"]; !ok {
		t.Fatalf("expected the valid observed record to survive: %v", baseline)
	}

	skipped := CountSkipped(outcomes)
	if skipped[SkipSimulationArtifact] != 1 || skipped[SkipInvalidRecord] != 1 {
		t.Fatalf("unexpected skip tally: %v", skipped)
	}
}

func TestResolveBaselinesEmptyInput(t *testing.T) {
	baseline, outcomes := ResolveBaselines(nil)
	if len(baseline) != 0 || len(outcomes) != 0 {
		t.Fatalf("expected empty output for empty input, got %v %v", baseline, outcomes)
	}
}

func TestResolveBaselinesCopiesPercentages(t *testing.T) {
	records := []models.BehaviorRecord{
		{
			Persona:          "Fresh_Grad",
			Region:           "Taipei",
			BrandPercentages: map[string]float64{"brandA": 45, "brandB": 35, "other": 20},
		},
	}
	baseline, _ := ResolveBaselines(records)
	records[0].BrandPercentages["brandA"] = 1
	if baseline["Fresh_Grad_Taipei"].BrandPercentages["brandA"] != 45 {
		t.Fatalf("baseline shares memory with input records")
	}
}
