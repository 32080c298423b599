package agronomy

import (
	"time"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// YieldBand is the relative half-width of the yield estimate
const YieldBand = 0.15

// ExpectedHarvest returns planting + growth duration, or nil without a planting date
func ExpectedHarvest(planting *time.Time, crop *domain.Crop) *time.Time {
	if planting == nil || crop == nil || crop.GrowthDurationDays <= 0 {
		return nil
	}
	h := planting.AddDate(0, 0, crop.GrowthDurationDays)
	return &h
}

// StageFactor discounts fields whose crop is still young
func StageFactor(stage domain.GrowthStage) float64 {
	switch stage {
	case domain.StageInitial:
		return 0.9
	case domain.StageDevelopment:
		return 0.95
	case domain.StageMid, domain.StageLate, domain.StageHarvested:
		return 1
	}
	return 0.8
}

// PredictYield estimates the harvest of a field from the crop's average
// yield, the site suitability score (0..100) and the growth stage
func PredictYield(field domain.Field, crop domain.Crop, suitabilityScore float64) domain.YieldPrediction {
	suit := 0.5 + 0.5*clamp(suitabilityScore, 0, 100)/100
	stage := StageFactor(field.GrowthStage)

	perHa := crop.AverageYieldPerHa * suit * stage
	total := perHa * field.Area

	harvest := field.ExpectedHarvestDate
	if harvest == nil {
		harvest = ExpectedHarvest(field.PlantingDate, &crop)
	}

	return domain.YieldPrediction{
		FieldID:    field.ID,
		CropName:   crop.Name,
		Area:       field.Area,
		YieldPerHa: round2(perHa),
		TotalYield: round2(total),
		LowerBound: round2(total * (1 - YieldBand)),
		UpperBound: round2(total * (1 + YieldBand)),
		Unit:       "tonnes",
		Factors: map[string]float64{
			"baseYieldPerHa": crop.AverageYieldPerHa,
			"suitability":    round2(suit),
			"growthStage":    stage,
		},
		ExpectedHarvestAt: harvest,
	}
}
