package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// NewTestUser creates an active farmer account
func NewTestUser() *domain.User {
	now := time.Now().UTC()
	id := uuid.New()
	return &domain.User{
		ID:        id,
		Email:     "farmer-" + id.String()[:8] + "@example.com",
		Username:  "farmer_" + id.String()[:8],
		FirstName: "Asha",
		LastName:  "Patil",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestFarm creates a 10 ha loamy farm near Pune owned by ownerID
func NewTestFarm(ownerID uuid.UUID) *domain.Farm {
	now := time.Now().UTC()
	return &domain.Farm{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           "Test Farm",
		Location:       "Pune, Maharashtra",
		Latitude:       Float(18.52),
		Longitude:      Float(73.85),
		TotalArea:      10,
		CultivatedArea: 6,
		SoilType:       domain.SoilLoamy,
		IrrigationType: domain.IrrigationDrip,
		WaterSource:    "borewell",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// NewTestField creates a planted field on farmID
func NewTestField(farmID uuid.UUID, cropID *uuid.UUID) *domain.Field {
	now := time.Now().UTC()
	planted := now.AddDate(0, 0, -40)
	return &domain.Field{
		ID:           uuid.New(),
		FarmID:       farmID,
		Name:         "North plot",
		Area:         2.5,
		CropID:       cropID,
		SoilType:     domain.SoilLoamy,
		SoilPH:       Float(6.8),
		PlantingDate: &planted,
		GrowthStage:  domain.StageDevelopment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewTestCrop creates a kharif rice entry
func NewTestCrop() *domain.Crop {
	now := time.Now().UTC()
	return &domain.Crop{
		ID:                 uuid.New(),
		Name:               "Rice",
		ScientificName:     "Oryza sativa",
		Category:           domain.CategoryCereal,
		Season:             domain.SeasonKharif,
		GrowthDurationDays: 120,
		OptimalTempMin:     20,
		OptimalTempMax:     35,
		OptimalRainfallMin: 1000,
		OptimalRainfallMax: 2000,
		OptimalPHMin:       5.5,
		OptimalPHMax:       7,
		SoilTypes:          []domain.SoilType{domain.SoilClay, domain.SoilLoamy, domain.SoilAlluvial},
		WaterRequirementMM: 1200,
		AverageYieldPerHa:  4.5,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}
