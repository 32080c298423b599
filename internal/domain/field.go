package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrFieldAreaExceeded is returned when a farm's fields would cover more than the farm
var ErrFieldAreaExceeded = errors.New("fields cannot cover more than the farm's total area")

// AreaCheck vets a write against the locked farm row and the area already
// covered by the farm's other fields
type AreaCheck func(farm *Farm, used float64) error

// Field is a plot within a farm, optionally planted with a crop
type Field struct {
	ID                  uuid.UUID   `json:"id"`
	FarmID              uuid.UUID   `json:"farmId"`
	Name                string      `json:"name"`
	Area                float64     `json:"area"`
	CropID              *uuid.UUID  `json:"cropId,omitempty"`
	SoilType            SoilType    `json:"soilType"`
	SoilPH              *float64    `json:"soilPh,omitempty"`
	PlantingDate        *time.Time  `json:"plantingDate,omitempty"`
	ExpectedHarvestDate *time.Time  `json:"expectedHarvestDate,omitempty"`
	GrowthStage         GrowthStage `json:"growthStage"`
	CreatedAt           time.Time   `json:"createdAt"`
	UpdatedAt           time.Time   `json:"updatedAt"`

	// Populated on reads that join the crop
	Crop *Crop `json:"crop,omitempty"`
}

// DaysSincePlanting returns whole days since planting, or -1 when unplanted
func (f Field) DaysSincePlanting(now time.Time) int {
	if f.PlantingDate == nil {
		return -1
	}
	return int(now.Sub(*f.PlantingDate).Hours() / 24)
}

// FieldInput represents input for creating a field
type FieldInput struct {
	FarmID       uuid.UUID   `json:"farmId" validate:"required"`
	Name         string      `json:"name" validate:"required,min=1,max=100"`
	Area         float64     `json:"area" validate:"required,gt=0"`
	CropID       *uuid.UUID  `json:"cropId,omitempty"`
	SoilType     SoilType    `json:"soilType" validate:"required,soiltype"`
	SoilPH       *float64    `json:"soilPh,omitempty" validate:"omitempty,gte=0,lte=14"`
	PlantingDate *time.Time  `json:"plantingDate,omitempty"`
	GrowthStage  GrowthStage `json:"growthStage,omitempty" validate:"omitempty,growthstage"`
	// ExpectedHarvestDate overrides planting date plus the crop's growth duration
	ExpectedHarvestDate *time.Time `json:"expectedHarvestDate,omitempty"`
}

// FieldUpdateInput represents a partial field update
type FieldUpdateInput struct {
	Name         *string      `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Area         *float64     `json:"area,omitempty" validate:"omitempty,gt=0"`
	CropID       *uuid.UUID   `json:"cropId,omitempty"`
	ClearCrop    bool         `json:"clearCrop,omitempty"`
	SoilType     *SoilType    `json:"soilType,omitempty" validate:"omitempty,soiltype"`
	SoilPH       *float64     `json:"soilPh,omitempty" validate:"omitempty,gte=0,lte=14"`
	PlantingDate *time.Time   `json:"plantingDate,omitempty"`
	GrowthStage  *GrowthStage `json:"growthStage,omitempty" validate:"omitempty,growthstage"`

	ExpectedHarvestDate *time.Time `json:"expectedHarvestDate,omitempty"`
}

// ChangesCropTiming reports whether the update moves the crop or its planting
func (in FieldUpdateInput) ChangesCropTiming() bool {
	return in.ClearCrop || in.CropID != nil || in.PlantingDate != nil
}

// Apply merges the update into field
func (in FieldUpdateInput) Apply(f *Field) {
	if in.Name != nil {
		f.Name = *in.Name
	}
	if in.Area != nil {
		f.Area = *in.Area
	}
	if in.ClearCrop {
		f.CropID = nil
		f.PlantingDate = nil
		f.ExpectedHarvestDate = nil
		f.GrowthStage = StageFallow
	}
	if in.CropID != nil {
		f.CropID = in.CropID
	}
	if in.SoilType != nil {
		f.SoilType = *in.SoilType
	}
	if in.SoilPH != nil {
		f.SoilPH = in.SoilPH
	}
	if in.PlantingDate != nil {
		f.PlantingDate = in.PlantingDate
	}
	if in.GrowthStage != nil {
		f.GrowthStage = *in.GrowthStage
	}
}

// FieldFilter filters field listings
type FieldFilter struct {
	FarmID  *uuid.UUID
	OwnerID *uuid.UUID
	CropID  *uuid.UUID
}

// YieldPrediction is an estimated harvest for a field
type YieldPrediction struct {
	FieldID           uuid.UUID          `json:"fieldId"`
	CropName          string             `json:"cropName"`
	Area              float64            `json:"area"`
	YieldPerHa        float64            `json:"yieldPerHa"`
	TotalYield        float64            `json:"totalYield"`
	LowerBound        float64            `json:"lowerBound"`
	UpperBound        float64            `json:"upperBound"`
	Unit              string             `json:"unit"`
	Factors           map[string]float64 `json:"factors"`
	ExpectedHarvestAt *time.Time         `json:"expectedHarvestAt,omitempty"`
}

// DetectionStatus is the processing state of a disease detection
type DetectionStatus string

const (
	DetectionPending   DetectionStatus = "pending"
	DetectionCompleted DetectionStatus = "completed"
	DetectionFailed    DetectionStatus = "failed"
)

// DiseaseDetection is the diagnosis of an uploaded crop image
type DiseaseDetection struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	FieldID         *uuid.UUID      `json:"fieldId,omitempty"`
	CropName        string          `json:"cropName"`
	ImageKey        string          `json:"imageKey"`
	ImageURL        string          `json:"imageUrl,omitempty"`
	DetectedDisease string          `json:"detectedDisease"`
	Confidence      float64         `json:"confidence"`
	Severity        Severity        `json:"severity"`
	Symptoms        []string        `json:"symptoms"`
	Treatments      []string        `json:"treatments"`
	Status          DetectionStatus `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// DiseaseInfo is a knowledge-base entry for a crop disease
type DiseaseInfo struct {
	Name       string   `json:"name"`
	Crop       string   `json:"crop"`
	Pathogen   string   `json:"pathogen"`
	Symptoms   []string `json:"symptoms"`
	Treatments []string `json:"treatments"`
	Prevention []string `json:"prevention"`
}
