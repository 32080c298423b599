package agronomy

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// ErrNoWeatherDays is returned when the plan horizon has no weather inputs
var ErrNoWeatherDays = errors.New("no weather days to plan over")

// DefaultRainEfficiency is the share of forecast rain assumed to enter the root zone
const DefaultRainEfficiency = 0.8

// litres per millimetre over one hectare
const litresPerMMHa = 10000

// SoilWater describes a soil's water holding capacity
type SoilWater struct {
	FieldCapacity     float64 // m3/m3
	WiltingPoint      float64 // m3/m3
	DepletionFraction float64 // p, share of TAW usable before stress
}

// SoilWaterFor returns typical FAO-56 hydraulic properties for a soil
func SoilWaterFor(soil domain.SoilType) SoilWater {
	switch soil {
	case domain.SoilSandy:
		return SoilWater{FieldCapacity: 0.12, WiltingPoint: 0.05, DepletionFraction: 0.6}
	case domain.SoilClay, domain.SoilBlack:
		return SoilWater{FieldCapacity: 0.36, WiltingPoint: 0.22, DepletionFraction: 0.45}
	case domain.SoilSilt, domain.SoilAlluvial:
		return SoilWater{FieldCapacity: 0.32, WiltingPoint: 0.15, DepletionFraction: 0.5}
	case domain.SoilPeat:
		return SoilWater{FieldCapacity: 0.45, WiltingPoint: 0.25, DepletionFraction: 0.5}
	case domain.SoilRed, domain.SoilChalk:
		return SoilWater{FieldCapacity: 0.22, WiltingPoint: 0.10, DepletionFraction: 0.55}
	}
	return SoilWater{FieldCapacity: 0.27, WiltingPoint: 0.12, DepletionFraction: 0.5}
}

// RootDepth returns the effective rooting depth in metres for a stage
func RootDepth(stage domain.GrowthStage) float64 {
	switch stage {
	case domain.StageInitial:
		return 0.3
	case domain.StageDevelopment:
		return 0.6
	case domain.StageMid, domain.StageLate:
		return 1.0
	}
	return 0.3
}

// TotalAvailableWater returns TAW and RAW in mm
func TotalAvailableWater(soil domain.SoilType, stage domain.GrowthStage) (taw, raw float64) {
	sw := SoilWaterFor(soil)
	taw = 1000 * (sw.FieldCapacity - sw.WiltingPoint) * RootDepth(stage)
	return taw, sw.DepletionFraction * taw
}

// ApplicationRate is the typical net application rate in mm/hour of a method
func ApplicationRate(method domain.IrrigationType) float64 {
	switch method {
	case domain.IrrigationDrip:
		return 4
	case domain.IrrigationSprinkler:
		return 10
	case domain.IrrigationCenterPivot:
		return 8
	case domain.IrrigationFurrow:
		return 25
	case domain.IrrigationFlood:
		return 50
	}
	return 0
}

// WeatherDay is the daily demand and supply used by the water balance
type WeatherDay struct {
	Date   time.Time
	ET0    float64
	RainMM float64
}

// PlanInput describes the field being planned
type PlanInput struct {
	FieldID            uuid.UUID
	AreaHa             float64
	Soil               domain.SoilType
	Stage              domain.GrowthStage
	Method             domain.IrrigationType
	Days               []WeatherDay
	BudgetLiters       *float64
	InitialDepletionMM float64
	RainEfficiency     float64
}

// OptimizeSchedule runs a daily root-zone depletion balance and schedules a
// refill to field capacity whenever depletion passes RAW and the water
// budget allows. Days where irrigation was needed but not possible are
// counted as deficit days. Rainfed fields never receive events.
func OptimizeSchedule(in PlanInput) (*domain.IrrigationPlan, error) {
	if len(in.Days) == 0 {
		return nil, ErrNoWeatherDays
	}
	if in.RainEfficiency <= 0 || in.RainEfficiency > 1 {
		in.RainEfficiency = DefaultRainEfficiency
	}

	taw, raw := TotalAvailableWater(in.Soil, in.Stage)
	kc := CropCoefficient(in.Stage)
	efficiency := in.Method.Efficiency()
	rate := ApplicationRate(in.Method)

	plan := &domain.IrrigationPlan{
		FieldID: in.FieldID,
		Events:  []domain.PlannedIrrigation{},
		Balance: make([]domain.WaterBalanceDay, 0, len(in.Days)),
		TAW:     round2(taw),
		RAW:     round2(raw),
	}

	var remaining float64
	if in.BudgetLiters != nil {
		remaining = *in.BudgetLiters
	}

	depletion := clamp(in.InitialDepletionMM, 0, taw)
	for _, day := range in.Days {
		etc := day.ET0 * kc
		effRain := day.RainMM * in.RainEfficiency
		depletion = clamp(depletion+etc-effRain, 0, taw)

		entry := domain.WaterBalanceDay{
			Date:          day.Date,
			ETc:           round2(etc),
			EffectiveRain: round2(effRain),
		}

		if depletion > raw {
			gross := depletion / efficiency
			litres := gross * in.AreaHa * litresPerMMHa
			affordable := in.BudgetLiters == nil || litres <= remaining

			if rate > 0 && affordable {
				minutes := int(math.Ceil(depletion / rate * 60))
				plan.Events = append(plan.Events, domain.PlannedIrrigation{
					Date:            day.Date,
					WaterAmountMM:   round2(gross),
					VolumeLiters:    math.Round(litres),
					DurationMinutes: minutes,
					DepletionBefore: round2(depletion),
				})
				plan.TotalWaterMM += gross
				plan.TotalWaterLiters += litres
				if in.BudgetLiters != nil {
					remaining -= litres
				}
				entry.Irrigation = round2(gross)
				depletion = 0
			} else {
				entry.Deficit = true
				plan.DeficitDays++
			}
		}

		entry.Depletion = round2(depletion)
		plan.Balance = append(plan.Balance, entry)
	}

	plan.TotalWaterMM = round2(plan.TotalWaterMM)
	plan.TotalWaterLiters = math.Round(plan.TotalWaterLiters)
	if in.BudgetLiters != nil {
		r := math.Round(remaining)
		plan.RemainingBudget = &r
	}
	return plan, nil
}
