// v1
// internal/simulation/insights.go
package simulation

import (
	"fmt"
	"math"

	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// Insights derives the ordered narrative statements for a simulation
// run. The general statement comes first, brand-specific call-outs
// after. Statements are gated on the sign and magnitude of the mean
// per-brand deltas and on the input parameters; when nothing fires a
// single fallback statement recommends empirical validation. No
// numbers are recomputed here — only the deltas already present in the
// segment results are read.
func (e *Engine) Insights(eventType string, results map[string]SegmentResult, params models.SimulationParameters) []string {
	avg := meanDeltas(results)
	var insights []string

	switch eventType {
	case models.EventPriceChange:
		if params.ElectricityPrice > 1.0 {
			insights = append(insights, fmt.Sprintf(
				"An electricity price increase of %d%% is expected to tighten dining-out budgets",
				int((params.ElectricityPrice-1.0)*100)))
			if avg[models.BrandOther] > 0 {
				insights = append(insights, fmt.Sprintf(
					"Value-oriented outlets projected to grow %.1f percentage points", avg[models.BrandOther]))
			}
			if avg[models.BrandA] < 0 {
				insights = append(insights, fmt.Sprintf(
					"Chain A projected to drop %.1f percentage points as price-sensitive segments churn",
					math.Abs(avg[models.BrandA])))
			}
		} else {
			insights = append(insights, "Electricity price unchanged; no significant behavior shift expected")
		}

	case models.EventPromotion:
		if params.PromotionIntensity > 1.0 {
			insights = append(insights, fmt.Sprintf(
				"Promotion intensity %.1fx should effectively attract price-sensitive customers",
				params.PromotionIntensity))
			if params.PointMultiplier > 1.0 {
				insights = append(insights, fmt.Sprintf(
					"A %.1fx point bonus lifts member stickiness", params.PointMultiplier))
			}
		}
		if avg[models.BrandB] > 0 {
			insights = append(insights, fmt.Sprintf(
				"Chain B projected to benefit the most (+%.1f percentage points)", avg[models.BrandB]))
		}

	case models.EventCompetition:
		insights = append(insights, "Monitor competing brand promotions and adjust strategy promptly")
		if avg[models.BrandB] > 0 {
			insights = append(insights, "The competitor promotion is most attractive to price-sensitive personas")
		}

	case models.EventExternal:
		insights = append(insights, "Weather and holiday factors drive a seasonal consumption adjustment")
	}

	if len(insights) == 0 {
		insights = append(insights, "Recommend an A/B test to validate the model projection")
	}
	return insights
}

// meanDeltas averages each brand's delta across all segment results.
// An empty result set yields zero means.
func meanDeltas(results map[string]SegmentResult) map[string]float64 {
	avg := map[string]float64{models.BrandA: 0, models.BrandB: 0, models.BrandOther: 0}
	if len(results) == 0 {
		return avg
	}
	for _, r := range results {
		for brand, delta := range r.ChangeFromBaseline {
			avg[brand] += delta
		}
	}
	n := float64(len(results))
	for brand := range avg {
		avg[brand] /= n
	}
	return avg
}
