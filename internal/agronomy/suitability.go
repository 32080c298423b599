package agronomy

import (
	"fmt"
	"sort"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// Scoring weights and tolerances
const (
	weightTemperature = 0.35
	weightRainfall    = 0.25
	weightPH          = 0.20
	weightSoil        = 0.20

	tempTolerance     = 10.0 // °C outside the optimal range before the factor hits zero
	rainToleranceFrac = 0.5  // share of the violated bound
	phTolerance       = 1.5

	unlistedSoilFactor    = 0.5
	seasonMismatchPenalty = 0.7

	// SuitableScore is the minimum score for a crop to be called suitable
	SuitableScore = 60.0
)

// rangeFactor is 1 inside [lo, hi] and decays linearly to 0 at tol outside it
func rangeFactor(v, lo, hi, tolBelow, tolAbove float64) float64 {
	switch {
	case v < lo:
		if tolBelow <= 0 {
			return 0
		}
		return clamp(1-(lo-v)/tolBelow, 0, 1)
	case v > hi:
		if tolAbove <= 0 {
			return 0
		}
		return clamp(1-(v-hi)/tolAbove, 0, 1)
	}
	return 1
}

// ScoreCrop scores how well a crop fits the site on a 0..100 scale
func ScoreCrop(crop domain.Crop, site domain.SiteConditions) domain.CropSuitability {
	temp := rangeFactor(site.Temperature, crop.OptimalTempMin, crop.OptimalTempMax, tempTolerance, tempTolerance)
	rain := rangeFactor(site.Rainfall, crop.OptimalRainfallMin, crop.OptimalRainfallMax,
		crop.OptimalRainfallMin*rainToleranceFrac, crop.OptimalRainfallMax*rainToleranceFrac)
	ph := rangeFactor(site.SoilPH, crop.OptimalPHMin, crop.OptimalPHMax, phTolerance, phTolerance)

	soil := 1.0
	if !crop.SupportsSoil(site.SoilType) {
		soil = unlistedSoilFactor
	}

	season := 1.0
	if site.Season != "" && crop.Season != domain.SeasonPerennial && crop.Season != site.Season {
		season = seasonMismatchPenalty
	}

	score := 100 * (weightTemperature*temp + weightRainfall*rain + weightPH*ph + weightSoil*soil) * season
	score = round1(score)

	var notes []string
	if temp < 1 {
		notes = append(notes, fmt.Sprintf("temperature %.1f°C is outside %.0f-%.0f°C", site.Temperature, crop.OptimalTempMin, crop.OptimalTempMax))
	}
	if rain < 1 {
		notes = append(notes, fmt.Sprintf("rainfall %.0fmm is outside %.0f-%.0fmm", site.Rainfall, crop.OptimalRainfallMin, crop.OptimalRainfallMax))
	}
	if ph < 1 {
		notes = append(notes, fmt.Sprintf("soil pH %.1f is outside %.1f-%.1f", site.SoilPH, crop.OptimalPHMin, crop.OptimalPHMax))
	}
	if soil < 1 {
		notes = append(notes, fmt.Sprintf("%s soil is not preferred", site.SoilType))
	}
	if season < 1 {
		notes = append(notes, fmt.Sprintf("%s crop grown in %s season", crop.Season, site.Season))
	}

	return domain.CropSuitability{
		CropID:   crop.ID,
		CropName: crop.Name,
		Score:    score,
		Suitable: score >= SuitableScore,
		Factors: map[string]float64{
			"temperature": round2(temp),
			"rainfall":    round2(rain),
			"ph":          round2(ph),
			"soil":        soil,
			"season":      season,
		},
		Notes: notes,
	}
}

// RankCrops scores every crop and returns the best limit entries, highest
// score first with ties broken by name
func RankCrops(crops []domain.Crop, site domain.SiteConditions, limit int) []domain.CropSuitability {
	out := make([]domain.CropSuitability, 0, len(crops))
	for _, c := range crops {
		out = append(out, ScoreCrop(c, site))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CropName < out[j].CropName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
