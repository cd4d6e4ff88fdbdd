// v1
// internal/store/summary.go
package store

import (
	"errors"
	"math"

	"github.com/anappleaday1984/cdp-visualization/internal/models"
)

// ErrNoRecords signals that the store holds no observed records to
// summarize. The API layer maps this to a "no data" response.
var ErrNoRecords = errors.New("no behavior records available")

// Summary aggregates the observed records across all segments.
type Summary struct {
	TotalRecords             int                `json:"total_records"`
	AverageSatisfaction      float64            `json:"average_satisfaction"`
	TopBrand                 string             `json:"top_brand"`
	BrandDistributionSummary map[string]float64 `json:"brand_distribution_summary"`
	PersonaBreakdown         map[string]int     `json:"persona_breakdown"`
	RegionBreakdown          map[string]int     `json:"region_breakdown"`
}

// Summarize computes the aggregate view over all non-artifact records.
func (s *BehaviorStore) Summarize() (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var observed []models.BehaviorRecord
	for i := range s.records {
		if s.records[i].IsSimulationArtifact() {
			continue
		}
		observed = append(observed, s.records[i])
	}
	if len(observed) == 0 {
		return Summary{}, ErrNoRecords
	}

	total := len(observed)
	var satSum float64
	brandTotals := map[string]float64{models.BrandA: 0, models.BrandB: 0, models.BrandOther: 0}
	personas := make(map[string]int)
	regions := make(map[string]int)

	for _, rec := range observed {
		satSum += rec.AvgSatisfaction
		for brand, pct := range rec.BrandPercentages {
			if _, tracked := brandTotals[brand]; tracked {
				brandTotals[brand] += pct
			}
		}
		persona := rec.Persona
		if persona == "" {
			persona = "Unknown"
		}
		personas[persona]++
		region := rec.Region
		if region == "" {
			region = "Unknown"
		}
		regions[region]++
	}

	brandAvg := make(map[string]float64, len(brandTotals))
	topBrand := ""
	topValue := math.Inf(-1)
	// Iterate in fixed brand order so ties resolve deterministically.
	for _, brand := range models.Brands {
		avg := brandTotals[brand] / float64(total)
		brandAvg[brand] = avg
		if avg > topValue {
			topBrand, topValue = brand, avg
		}
	}

	return Summary{
		TotalRecords:             total,
		AverageSatisfaction:      math.Round(satSum/float64(total)*1000) / 1000,
		TopBrand:                 topBrand,
		BrandDistributionSummary: brandAvg,
		PersonaBreakdown:         personas,
		RegionBreakdown:          regions,
	}, nil
}
