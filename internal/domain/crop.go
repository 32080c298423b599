package domain

import (
	"time"

	"github.com/google/uuid"
)

// Crop is an entry of the crop catalogue with its agronomic envelope
type Crop struct {
	ID                 uuid.UUID    `json:"id"`
	Name               string       `json:"name"`
	ScientificName     string       `json:"scientificName,omitempty"`
	Category           CropCategory `json:"category"`
	Season             Season       `json:"season"`
	GrowthDurationDays int          `json:"growthDurationDays"`
	OptimalTempMin     float64      `json:"optimalTempMin"`
	OptimalTempMax     float64      `json:"optimalTempMax"`
	OptimalRainfallMin float64      `json:"optimalRainfallMin"`
	OptimalRainfallMax float64      `json:"optimalRainfallMax"`
	OptimalPHMin       float64      `json:"optimalPhMin"`
	OptimalPHMax       float64      `json:"optimalPhMax"`
	SoilTypes          []SoilType   `json:"soilTypes"`
	WaterRequirementMM float64      `json:"waterRequirementMm"`
	AverageYieldPerHa  float64      `json:"averageYieldPerHa"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// SupportsSoil reports whether the crop lists soil, or lists no soils at all
func (c Crop) SupportsSoil(soil SoilType) bool {
	if len(c.SoilTypes) == 0 {
		return true
	}
	for _, s := range c.SoilTypes {
		if s == soil {
			return true
		}
	}
	return false
}

// CropInput represents input for creating or replacing a crop
type CropInput struct {
	Name               string       `json:"name" validate:"required,min=2,max=100"`
	ScientificName     string       `json:"scientificName" validate:"max=150"`
	Category           CropCategory `json:"category" validate:"required,cropcategory"`
	Season             Season       `json:"season" validate:"required,season"`
	GrowthDurationDays int          `json:"growthDurationDays" validate:"required,min=1,max=3650"`
	OptimalTempMin     float64      `json:"optimalTempMin" validate:"gte=-10,lte=60,ltefield=OptimalTempMax"`
	OptimalTempMax     float64      `json:"optimalTempMax" validate:"gte=-10,lte=60"`
	OptimalRainfallMin float64      `json:"optimalRainfallMin" validate:"gte=0,lte=5000,ltefield=OptimalRainfallMax"`
	OptimalRainfallMax float64      `json:"optimalRainfallMax" validate:"gte=0,lte=5000"`
	OptimalPHMin       float64      `json:"optimalPhMin" validate:"gte=0,lte=14,ltefield=OptimalPHMax"`
	OptimalPHMax       float64      `json:"optimalPhMax" validate:"gte=0,lte=14"`
	SoilTypes          []SoilType   `json:"soilTypes" validate:"omitempty,dive,soiltype"`
	WaterRequirementMM float64      `json:"waterRequirementMm" validate:"gte=0,lte=5000"`
	AverageYieldPerHa  float64      `json:"averageYieldPerHa" validate:"gte=0,lte=500"`
}

// ToCrop builds a crop entity from the input
func (in CropInput) ToCrop(id uuid.UUID, now time.Time) *Crop {
	soils := in.SoilTypes
	if soils == nil {
		soils = []SoilType{}
	}
	return &Crop{
		ID:                 id,
		Name:               in.Name,
		ScientificName:     in.ScientificName,
		Category:           in.Category,
		Season:             in.Season,
		GrowthDurationDays: in.GrowthDurationDays,
		OptimalTempMin:     in.OptimalTempMin,
		OptimalTempMax:     in.OptimalTempMax,
		OptimalRainfallMin: in.OptimalRainfallMin,
		OptimalRainfallMax: in.OptimalRainfallMax,
		OptimalPHMin:       in.OptimalPHMin,
		OptimalPHMax:       in.OptimalPHMax,
		SoilTypes:          soils,
		WaterRequirementMM: in.WaterRequirementMM,
		AverageYieldPerHa:  in.AverageYieldPerHa,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// CropFilter filters the crop catalogue
type CropFilter struct {
	Search   string
	Category *CropCategory
	Season   *Season
}

// SiteConditions describe where a crop would be grown
type SiteConditions struct {
	Temperature float64  `json:"temperature" validate:"gte=-30,lte=60"`
	Rainfall    float64  `json:"rainfall" validate:"gte=0,lte=10000"`
	SoilPH      float64  `json:"soilPh" validate:"gte=0,lte=14"`
	SoilType    SoilType `json:"soilType" validate:"required,soiltype"`
	Season      Season   `json:"season,omitempty" validate:"omitempty,season"`
}

// CropRecommendationRequest asks for the best crops for a site
type CropRecommendationRequest struct {
	SiteConditions
	Limit int `json:"limit" validate:"omitempty,min=1,max=50"`
}

// CropSuitability is the scored fit of a crop for a site
type CropSuitability struct {
	CropID   uuid.UUID          `json:"cropId"`
	CropName string             `json:"cropName"`
	Score    float64            `json:"score"`
	Suitable bool               `json:"suitable"`
	Factors  map[string]float64 `json:"factors"`
	Notes    []string           `json:"notes,omitempty"`
}
