package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleStatus is the state of a planned irrigation
type ScheduleStatus string

const (
	ScheduleScheduled ScheduleStatus = "scheduled"
	ScheduleCompleted ScheduleStatus = "completed"
	ScheduleSkipped   ScheduleStatus = "skipped"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// IrrigationSchedule is one planned watering of a field
type IrrigationSchedule struct {
	ID              uuid.UUID      `json:"id"`
	FieldID         uuid.UUID      `json:"fieldId"`
	ScheduledDate   time.Time      `json:"scheduledDate"`
	DurationMinutes int            `json:"durationMinutes"`
	WaterAmountMM   float64        `json:"waterAmountMm"`
	Method          IrrigationType `json:"method"`
	Status          ScheduleStatus `json:"status"`
	Notes           string         `json:"notes,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// ScheduleInput represents input for creating a schedule
type ScheduleInput struct {
	FieldID         uuid.UUID      `json:"fieldId" validate:"required"`
	ScheduledDate   time.Time      `json:"scheduledDate" validate:"required"`
	DurationMinutes int            `json:"durationMinutes" validate:"required,min=1,max=1440"`
	WaterAmountMM   float64        `json:"waterAmountMm" validate:"required,gt=0,lte=300"`
	Method          IrrigationType `json:"method" validate:"required,irrigationtype"`
	Notes           string         `json:"notes" validate:"max=1000"`
}

// ScheduleUpdateInput represents a partial schedule update
type ScheduleUpdateInput struct {
	ScheduledDate   *time.Time `json:"scheduledDate,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty" validate:"omitempty,min=1,max=1440"`
	WaterAmountMM   *float64   `json:"waterAmountMm,omitempty" validate:"omitempty,gt=0,lte=300"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ScheduleFilter filters schedule listings
type ScheduleFilter struct {
	FieldID *uuid.UUID
	FarmID  *uuid.UUID
	OwnerID *uuid.UUID
	Status  *ScheduleStatus
	From    *time.Time
	To      *time.Time
}

// SoilMoistureReading is one sensor sample
type SoilMoistureReading struct {
	FieldID         uuid.UUID `json:"fieldId" ch:"field_id" validate:"required"`
	SensorID        string    `json:"sensorId" ch:"sensor_id" validate:"required,max=64"`
	MoisturePercent float64   `json:"moisturePercent" ch:"moisture_percent" validate:"gte=0,lte=100"`
	SoilTemperature float64   `json:"soilTemperature" ch:"soil_temperature" validate:"gte=-20,lte=70"`
	DepthCM         float64   `json:"depthCm" ch:"depth_cm" validate:"gte=0,lte=300"`
	RecordedAt      time.Time `json:"recordedAt" ch:"recorded_at"`
}

// MoistureStatus grades the current soil moisture
type MoistureStatus string

const (
	MoistureCritical  MoistureStatus = "critical"
	MoistureLow       MoistureStatus = "low"
	MoistureOptimal   MoistureStatus = "optimal"
	MoistureHigh      MoistureStatus = "high"
	MoistureSaturated MoistureStatus = "saturated"
)

// MoistureAlert is a finding of the moisture analysis
type MoistureAlert struct {
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// MoistureAnalysis summarises recent readings for a field
type MoistureAnalysis struct {
	FieldID           uuid.UUID       `json:"fieldId"`
	Readings          int             `json:"readings"`
	Current           float64         `json:"current"`
	Average           float64         `json:"average"`
	Min               float64         `json:"min"`
	Max               float64         `json:"max"`
	StdDev            float64         `json:"stdDev"`
	TrendPerDay       float64         `json:"trendPerDay"`
	Status            MoistureStatus  `json:"status"`
	DaysUntilCritical *float64        `json:"daysUntilCritical,omitempty"`
	Alerts            []MoistureAlert `json:"alerts"`
	Recommendation    string          `json:"recommendation"`
	AnalyzedAt        time.Time       `json:"analyzedAt"`
}

// ET0Input are the daily weather inputs of the reference evapotranspiration
type ET0Input struct {
	TempMax        float64  `json:"tempMax" validate:"gte=-30,lte=60,gtefield=TempMin"`
	TempMin        float64  `json:"tempMin" validate:"gte=-40,lte=50"`
	HumidityMean   float64  `json:"humidityMean" validate:"gte=0,lte=100"`
	WindSpeed      float64  `json:"windSpeed" validate:"gte=0,lte=60"`
	SolarRadiation *float64 `json:"solarRadiation,omitempty" validate:"omitempty,gte=0,lte=50"`
	Latitude       float64  `json:"latitude" validate:"latitude"`
	Elevation      float64  `json:"elevation" validate:"gte=-500,lte=9000"`
	DayOfYear      int      `json:"dayOfYear" validate:"min=1,max=366"`
}

// ET0Result is the evapotranspiration estimate for one day
type ET0Result struct {
	ET0         float64     `json:"et0"`
	Kc          float64     `json:"kc"`
	ETc         float64     `json:"etc"`
	GrowthStage GrowthStage `json:"growthStage"`
	Method      string      `json:"method"`
}

// OptimizeRequest asks for an irrigation plan for a field
type OptimizeRequest struct {
	HorizonDays int `json:"horizonDays" validate:"omitempty,min=1,max=30"`
	// WaterBudgetLiters caps the plan's water use; nil means unlimited and
	// zero means no water at all
	WaterBudgetLiters  *float64 `json:"waterBudgetLiters,omitempty" validate:"omitempty,gte=0"`
	InitialDepletionMM float64  `json:"initialDepletionMm" validate:"omitempty,gte=0,lte=500"`
	Persist            bool     `json:"persist"`
}

// PlannedIrrigation is one event of an optimised plan
type PlannedIrrigation struct {
	Date            time.Time `json:"date"`
	WaterAmountMM   float64   `json:"waterAmountMm"`
	VolumeLiters    float64   `json:"volumeLiters"`
	DurationMinutes int       `json:"durationMinutes"`
	DepletionBefore float64   `json:"depletionBeforeMm"`
}

// WaterBalanceDay traces the soil water balance on one day of the plan
type WaterBalanceDay struct {
	Date          time.Time `json:"date"`
	ETc           float64   `json:"etc"`
	EffectiveRain float64   `json:"effectiveRain"`
	Irrigation    float64   `json:"irrigation"`
	Depletion     float64   `json:"depletion"`
	Deficit       bool      `json:"deficit"`
}

// IrrigationPlan is the output of the schedule optimiser
type IrrigationPlan struct {
	FieldID          uuid.UUID            `json:"fieldId"`
	Events           []PlannedIrrigation  `json:"events"`
	Balance          []WaterBalanceDay    `json:"balance"`
	TotalWaterMM     float64              `json:"totalWaterMm"`
	TotalWaterLiters float64              `json:"totalWaterLiters"`
	RemainingBudget  *float64             `json:"remainingBudgetLiters,omitempty"`
	DeficitDays      int                  `json:"deficitDays"`
	TAW              float64              `json:"totalAvailableWaterMm"`
	RAW              float64              `json:"readilyAvailableWaterMm"`
	Schedules        []IrrigationSchedule `json:"schedules,omitempty"`
}
