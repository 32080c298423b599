package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrCultivatedExceedsTotal is returned when a farm's cultivated area is larger than the farm
var ErrCultivatedExceedsTotal = errors.New("cultivated area cannot exceed total area")

// Farm is a holding owned by a user
type Farm struct {
	ID             uuid.UUID      `json:"id"`
	OwnerID        uuid.UUID      `json:"ownerId"`
	Name           string         `json:"name"`
	Location       string         `json:"location"`
	Latitude       *float64       `json:"latitude,omitempty"`
	Longitude      *float64       `json:"longitude,omitempty"`
	TotalArea      float64        `json:"totalArea"`
	CultivatedArea float64        `json:"cultivatedArea"`
	SoilType       SoilType       `json:"soilType"`
	IrrigationType IrrigationType `json:"irrigationType"`
	WaterSource    string         `json:"waterSource,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// CheckAreas enforces 0 <= cultivated area <= total area
func (f Farm) CheckAreas() error {
	if f.TotalArea <= 0 || f.CultivatedArea < 0 {
		return errors.New("areas must be positive")
	}
	if f.CultivatedArea > f.TotalArea {
		return ErrCultivatedExceedsTotal
	}
	return nil
}

// HasCoordinates reports whether the farm can be located for weather lookups
func (f Farm) HasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// UtilizationPercent is the cultivated share of the farm
func (f Farm) UtilizationPercent() float64 {
	if f.TotalArea <= 0 {
		return 0
	}
	return f.CultivatedArea / f.TotalArea * 100
}

// FarmInput represents input for creating a farm
type FarmInput struct {
	Name           string         `json:"name" validate:"required,min=2,max=200"`
	Location       string         `json:"location" validate:"required,max=200"`
	Latitude       *float64       `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64       `json:"longitude,omitempty" validate:"omitempty,longitude"`
	TotalArea      float64        `json:"totalArea" validate:"required,gt=0,lte=100000"`
	CultivatedArea float64        `json:"cultivatedArea" validate:"gte=0,ltefield=TotalArea"`
	SoilType       SoilType       `json:"soilType" validate:"required,soiltype"`
	IrrigationType IrrigationType `json:"irrigationType" validate:"required,irrigationtype"`
	WaterSource    string         `json:"waterSource,omitempty" validate:"max=100"`
}

// FarmUpdateInput represents a partial farm update. The area invariant is
// checked after merging with the stored farm.
type FarmUpdateInput struct {
	Name           *string         `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Location       *string         `json:"location,omitempty" validate:"omitempty,max=200"`
	Latitude       *float64        `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64        `json:"longitude,omitempty" validate:"omitempty,longitude"`
	TotalArea      *float64        `json:"totalArea,omitempty" validate:"omitempty,gt=0,lte=100000"`
	CultivatedArea *float64        `json:"cultivatedArea,omitempty" validate:"omitempty,gte=0"`
	SoilType       *SoilType       `json:"soilType,omitempty" validate:"omitempty,soiltype"`
	IrrigationType *IrrigationType `json:"irrigationType,omitempty" validate:"omitempty,irrigationtype"`
	WaterSource    *string         `json:"waterSource,omitempty" validate:"omitempty,max=100"`
}

// Apply merges the update into farm and returns the names of changed fields
func (in FarmUpdateInput) Apply(f *Farm) []string {
	var changed []string
	if in.Name != nil {
		f.Name = *in.Name
		changed = append(changed, "name")
	}
	if in.Location != nil {
		f.Location = *in.Location
		changed = append(changed, "location")
	}
	if in.Latitude != nil {
		f.Latitude = in.Latitude
		changed = append(changed, "latitude")
	}
	if in.Longitude != nil {
		f.Longitude = in.Longitude
		changed = append(changed, "longitude")
	}
	if in.TotalArea != nil {
		f.TotalArea = *in.TotalArea
		changed = append(changed, "totalArea")
	}
	if in.CultivatedArea != nil {
		f.CultivatedArea = *in.CultivatedArea
		changed = append(changed, "cultivatedArea")
	}
	if in.SoilType != nil {
		f.SoilType = *in.SoilType
		changed = append(changed, "soilType")
	}
	if in.IrrigationType != nil {
		f.IrrigationType = *in.IrrigationType
		changed = append(changed, "irrigationType")
	}
	if in.WaterSource != nil {
		f.WaterSource = *in.WaterSource
		changed = append(changed, "waterSource")
	}
	return changed
}

// FarmFilter filters farm listings
type FarmFilter struct {
	OwnerID  *uuid.UUID
	SoilType *SoilType
	Search   string
}

// Farm activity actions
const (
	ActivityFarmCreated     = "farm_created"
	ActivityFarmUpdated     = "farm_updated"
	ActivityFieldCreated    = "field_created"
	ActivityFieldUpdated    = "field_updated"
	ActivityFieldDeleted    = "field_deleted"
	ActivitySessionStarted  = "session_started"
	ActivityAdviceGenerated = "advice_generated"
	ActivityIrrigationPlan  = "irrigation_planned"
)

// FarmActivity is one entry of a farm's audit trail
type FarmActivity struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	FarmID      uuid.UUID      `json:"farmId" db:"farm_id"`
	UserID      uuid.UUID      `json:"userId" db:"user_id"`
	Action      string         `json:"action" db:"action"`
	Description string         `json:"description" db:"description"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"-"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
}

// FarmDashboard aggregates what a farmer sees first for a farm
type FarmDashboard struct {
	Farm             *Farm               `json:"farm"`
	FieldCount       int                 `json:"fieldCount"`
	PlantedArea      float64             `json:"plantedArea"`
	ActiveSessions   int64               `json:"activeSessions"`
	UnreadAlerts     int64               `json:"unreadAlerts"`
	CurrentWeather   *WeatherObservation `json:"currentWeather,omitempty"`
	Recommendations  []Recommendation    `json:"recommendations"`
	RecentActivities []FarmActivity      `json:"recentActivities"`
}
