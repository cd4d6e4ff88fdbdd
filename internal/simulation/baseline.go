// v1
// internal/simulation/baseline.go
package simulation

import (
	"strings"

	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// RecordOutcome reports what happened to one input record during
// baseline resolution, so skip counts are observable instead of being
// swallowed in a silent loop.
type RecordOutcome struct {
	Index  int    `json:"index"`
	Kept   bool   `json:"kept"`
	Reason string `json:"reason,omitempty"`
}

// Skip reasons surfaced by ResolveBaselines.
const (
	SkipSimulationArtifact = "simulation_artifact"
	SkipInvalidRecord      = "invalid_record"
	SkipDuplicateSegment   = "duplicate_segment"
)

// ResolveBaselines reduces the record sequence to one BaselineEntry per
// segment key. Precedence is first-seen-wins: later records for a key
// already resolved are ignored, so the baseline reflects the earliest
// observation in ingest order. Simulation artifacts and records failing
// validation are excluded. An input with no usable records produces an
// empty map, never an error; the caller decides whether that is fatal.
func ResolveBaselines(records []models.BehaviorRecord) (map[string]BaselineEntry, []RecordOutcome) {
	baseline := make(map[string]BaselineEntry)
	outcomes := make([]RecordOutcome, 0, len(records))

	for i := range records {
		rec := &records[i]
		if rec.IsSimulationArtifact() {
			outcomes = append(outcomes, RecordOutcome{Index: i, Reason: SkipSimulationArtifact})
			continue
		}
		if err := rec.Validate(); err != nil {
			outcomes = append(outcomes, RecordOutcome{Index: i, Reason: SkipInvalidRecord})
			continue
		}
		key := rec.SegmentKey()
		if _, seen := baseline[key]; seen {
			outcomes = append(outcomes, RecordOutcome{Index: i, Reason: SkipDuplicateSegment})
			continue
		}
		baseline[key] = BaselineEntry{
			Persona:          rec.Persona,
			Region:           rec.Region,
			BrandPercentages: clonePercentages(rec.BrandPercentages),
			AvgSatisfaction:  rec.AvgSatisfaction,
		}
		outcomes = append(outcomes, RecordOutcome{Index: i, Kept: true})
	}

	return baseline, outcomes
}

// CountSkipped tallies skip outcomes by reason.
func CountSkipped(outcomes []RecordOutcome) map[string]int {
	counts := make(map[string]int)
	for _, o := range outcomes {
		if !o.Kept {
			counts[o.Reason]++
		}
	}
	return counts
}

func clonePercentages(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
