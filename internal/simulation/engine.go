// v2
// internal/simulation/engine.go
package simulation

import (
	"math"
	"strings"

	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// Tier shift coefficients for the price_change transformation. The
// shift per brand is coefficient · (electricity_price − 1), expressed
// in percentage points of the shared pool.
const (
	priceShiftOtherSensitive = 0.15
	priceShiftASensitive     = 0.08
	priceShiftBSensitive     = 0.07
	priceShiftOtherResilient = 0.10
	priceShiftAResilient     = 0.05
	priceShiftBResilient     = 0.05
)

// Fixed-magnitude tiers for the competition transformation. The
// sensitive branch mirrors the resilient shape at double magnitude;
// "other" absorbs the remainder.
const (
	competitionGainBSensitive = 8.0
	competitionLossASensitive = 3.0
	competitionGainBResilient = 4.0
	competitionLossAResilient = 2.0
)

// Calculate applies the event transformation to every baseline entry
// matching the optional persona/region filters and returns the
// projected distribution plus delta per segment. The function is pure:
// it reads only its arguments and builds fresh output structures.
//
// An unrecognized event type is a silent no-op at this layer (result
// equals baseline, delta zero); rejecting it is the caller's job.
// Unmatched filters simply yield an empty map.
func (e *Engine) Calculate(baseline map[string]BaselineEntry, eventType string, params models.SimulationParameters, persona, region string) map[string]SegmentResult {
	results := make(map[string]SegmentResult)

	for key, entry := range baseline {
		if !matchesFilter(entry.Persona, persona, models.CanonicalPersona) {
			continue
		}
		if !matchesFilter(entry.Region, region, models.CanonicalRegion) {
			continue
		}

		sensitive := e.isSensitive(entry.Persona)
		a, b, o := e.project(eventType, params, entry.BrandPercentages, sensitive)

		baseA := pct(entry.BrandPercentages, models.BrandA, 0)
		baseB := pct(entry.BrandPercentages, models.BrandB, 0)
		baseO := pct(entry.BrandPercentages, models.BrandOther, 0)

		results[key] = SegmentResult{
			Persona:    entry.Persona,
			Region:     entry.Region,
			BrandA:     round1(a),
			BrandB:     round1(b),
			BrandOther: round1(o),
			ChangeFromBaseline: map[string]float64{
				models.BrandA:     round1(a - baseA),
				models.BrandB:     round1(b - baseB),
				models.BrandOther: round1(o - baseO),
			},
		}
	}

	return results
}

// project dispatches on event type and returns the unrounded projected
// percentages for (brandA, brandB, other). Rounding happens once in
// Calculate so clamp and normalize passes never compound rounding
// error.
func (e *Engine) project(eventType string, params models.SimulationParameters, base map[string]float64, sensitive bool) (float64, float64, float64) {
	switch eventType {
	case models.EventPriceChange:
		return projectPriceChange(params, base, sensitive)
	case models.EventPromotion:
		return projectPromotion(params, base)
	case models.EventCompetition:
		return projectCompetition(base, sensitive)
	case models.EventExternal:
		return projectExternal(base)
	default:
		// Unknown event: baseline passes through unchanged.
		return pct(base, models.BrandA, equalShare),
			pct(base, models.BrandB, equalShare),
			pct(base, models.BrandOther, equalShare)
	}
}

// projectPriceChange shifts preference away from the tracked chains and
// toward the "other" bucket proportionally to the electricity price
// factor. Price-sensitive personas move harder. The three values are
// clamped to [0, 100] and renormalized to sum to 100.
func projectPriceChange(params models.SimulationParameters, base map[string]float64, sensitive bool) (float64, float64, float64) {
	factor := params.ElectricityPrice - 1.0

	shiftA, shiftB, shiftOther := priceShiftAResilient, priceShiftBResilient, priceShiftOtherResilient
	if sensitive {
		shiftA, shiftB, shiftOther = priceShiftASensitive, priceShiftBSensitive, priceShiftOtherSensitive
	}

	a := clamp(pct(base, models.BrandA, 0)-shiftA*factor, 0, 100)
	b := clamp(pct(base, models.BrandB, 0)-shiftB*factor, 0, 100)
	o := clamp(pct(base, models.BrandOther, 0)+shiftOther*factor, 0, 100)

	return normalize3(a, b, o)
}

// projectPromotion lets brandB gain (intensity−1)·0.12·multiplier
// points, takes half of that from "other", and assigns brandA the
// residual so the three sum to 100. No renormalization pass runs here;
// the residual assignment enforces the sum at the cost of allowing an
// all-zero edge case.
func projectPromotion(params models.SimulationParameters, base map[string]float64) (float64, float64, float64) {
	gain := (params.PromotionIntensity - 1.0) * 0.12 * params.PointMultiplier

	b := math.Min(100, pct(base, models.BrandB, 0)+gain)
	o := math.Max(0, pct(base, models.BrandOther, 0)-gain*0.5)
	a := math.Max(0, 100-b-o)

	return a, b, o
}

// projectCompetition applies the fixed competitor-action shift per
// persona tier; "other" absorbs the remainder.
func projectCompetition(base map[string]float64, sensitive bool) (float64, float64, float64) {
	gainB, lossA := competitionGainBResilient, competitionLossAResilient
	if sensitive {
		gainB, lossA = competitionGainBSensitive, competitionLossASensitive
	}

	b := math.Min(100, pct(base, models.BrandB, 0)+gainB)
	a := math.Max(0, pct(base, models.BrandA, 0)-lossA)
	o := math.Max(0, 100-b-a)

	return a, b, o
}

// projectExternal applies the fixed positive external shift (weather,
// holidays) and renormalizes the result to sum to 100.
func projectExternal(base map[string]float64) (float64, float64, float64) {
	a := pct(base, models.BrandA, equalShare) + 2.0
	b := pct(base, models.BrandB, equalShare) + 1.0
	o := math.Max(0, pct(base, models.BrandOther, equalShare)-3.0)

	return normalize3(a, b, o)
}

func (e *Engine) isSensitive(persona string) bool {
	_, ok := e.sensitive[foldKey(persona)]
	return ok
}

// equalShare is the per-brand value of the equal three-way split used
// whenever a distribution total collapses to zero.
const equalShare = 100.0 / 3.0

// normalize3 rescales three percentages to sum to exactly 100, falling
// back to an equal split when the total is zero so a degenerate
// baseline never causes a division error.
func normalize3(a, b, o float64) (float64, float64, float64) {
	total := a + b + o
	if total <= 0 {
		return equalShare, equalShare, equalShare
	}
	return a / total * 100, b / total * 100, o / total * 100
}

func matchesFilter(value, filter string, canon func(string) string) bool {
	if strings.TrimSpace(filter) == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(value), canon(filter))
}

func pct(m map[string]float64, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
