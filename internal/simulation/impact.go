// v1
// internal/simulation/impact.go
package simulation

import (
	"math"

	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// Impact reduces the per-segment deltas into the aggregate business
// scalars. avg_brand_shift_percent is the mean magnitude of movement
// across all three brands and all segments (unsigned), and the revenue
// estimate is a per-event closed form of the input parameters.
func (e *Engine) Impact(eventType string, results map[string]SegmentResult, params models.SimulationParameters) ImpactSummary {
	var totalShift float64
	if len(results) > 0 {
		for _, r := range results {
			totalShift += math.Abs(r.ChangeFromBaseline[models.BrandA]) +
				math.Abs(r.ChangeFromBaseline[models.BrandB]) +
				math.Abs(r.ChangeFromBaseline[models.BrandOther])
		}
		totalShift /= float64(len(results) * 3)
	}

	var revenue float64
	switch eventType {
	case models.EventPriceChange:
		revenue = -2*params.ElectricityPrice + 2
	case models.EventPromotion:
		revenue = 3*params.PromotionIntensity + params.PointMultiplier
	default:
		revenue = 0.5 * totalShift
	}

	return ImpactSummary{
		AvgBrandShiftPercent:   round2(totalShift),
		ConfidenceScore:        ModelConfidence,
		AffectedPersonas:       len(results),
		EstimatedRevenueChange: round1(revenue),
	}
}
