package agronomy

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// ErrNoReadings is returned when a moisture analysis has nothing to work with
var ErrNoReadings = errors.New("no soil moisture readings")

// RapidDropPerDay is the trend (%/day) below which a rapid drying alert is raised
const RapidDropPerDay = -5.0

// MoistureThresholds are the volumetric moisture bands (%) used to grade a reading
type MoistureThresholds struct {
	Critical   float64 `json:"critical"`
	Low        float64 `json:"low"`
	OptimalMax float64 `json:"optimalMax"`
	HighMax    float64 `json:"highMax"`
}

// DefaultThresholds apply to medium textured soils
var DefaultThresholds = MoistureThresholds{Critical: 15, Low: 25, OptimalMax: 40, HighMax: 55}

// ThresholdsFor shifts the bands with soil texture. Coarse soils hold less
// water at field capacity, heavy soils more.
func ThresholdsFor(soil domain.SoilType) MoistureThresholds {
	switch soil {
	case domain.SoilSandy:
		return MoistureThresholds{Critical: 8, Low: 14, OptimalMax: 25, HighMax: 35}
	case domain.SoilClay, domain.SoilBlack:
		return MoistureThresholds{Critical: 20, Low: 30, OptimalMax: 45, HighMax: 60}
	case domain.SoilPeat:
		return MoistureThresholds{Critical: 25, Low: 35, OptimalMax: 55, HighMax: 70}
	}
	return DefaultThresholds
}

// Classify grades a moisture percentage
func (t MoistureThresholds) Classify(v float64) domain.MoistureStatus {
	switch {
	case v < t.Critical:
		return domain.MoistureCritical
	case v < t.Low:
		return domain.MoistureLow
	case v <= t.OptimalMax:
		return domain.MoistureOptimal
	case v <= t.HighMax:
		return domain.MoistureHigh
	}
	return domain.MoistureSaturated
}

// AnalyzeMoisture summarises readings for a field. Readings may arrive in any
// order; the trend is the least-squares slope in percentage points per day.
func AnalyzeMoisture(fieldID uuid.UUID, readings []domain.SoilMoistureReading, th MoistureThresholds, now time.Time) (*domain.MoistureAnalysis, error) {
	if len(readings) == 0 {
		return nil, ErrNoReadings
	}

	sorted := make([]domain.SoilMoistureReading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RecordedAt.Before(sorted[j].RecordedAt)
	})

	xs := make([]float64, len(sorted))
	ys := make([]float64, len(sorted))
	first := sorted[0].RecordedAt
	minV, maxV := sorted[0].MoisturePercent, sorted[0].MoisturePercent
	for i, r := range sorted {
		xs[i] = r.RecordedAt.Sub(first).Hours() / 24
		ys[i] = r.MoisturePercent
		if r.MoisturePercent < minV {
			minV = r.MoisturePercent
		}
		if r.MoisturePercent > maxV {
			maxV = r.MoisturePercent
		}
	}

	mean := stat.Mean(ys, nil)
	var std float64
	if len(ys) > 1 {
		std = stat.StdDev(ys, nil)
	}

	var slope float64
	if len(xs) > 1 && xs[len(xs)-1] > 0 {
		_, slope = stat.LinearRegression(xs, ys, nil, false)
	}

	current := ys[len(ys)-1]
	status := th.Classify(current)

	result := &domain.MoistureAnalysis{
		FieldID:     fieldID,
		Readings:    len(sorted),
		Current:     round2(current),
		Average:     round2(mean),
		Min:         round2(minV),
		Max:         round2(maxV),
		StdDev:      round2(std),
		TrendPerDay: round2(slope),
		Status:      status,
		Alerts:      []domain.MoistureAlert{},
		AnalyzedAt:  now,
	}

	if slope < 0 {
		days := 0.0
		if current > th.Critical {
			days = (current - th.Critical) / -slope
		}
		days = round1(days)
		result.DaysUntilCritical = &days
	}

	switch status {
	case domain.MoistureCritical:
		result.Alerts = append(result.Alerts, domain.MoistureAlert{
			Kind:     "critical_moisture",
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("Soil moisture %.1f%% is below the critical level of %.0f%%", current, th.Critical),
		})
	case domain.MoistureLow:
		result.Alerts = append(result.Alerts, domain.MoistureAlert{
			Kind:     "low_moisture",
			Severity: domain.SeverityModerate,
			Message:  fmt.Sprintf("Soil moisture %.1f%% is below the optimal band", current),
		})
	case domain.MoistureSaturated:
		result.Alerts = append(result.Alerts, domain.MoistureAlert{
			Kind:     "waterlogging",
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("Soil moisture %.1f%% indicates saturated soil", current),
		})
	}
	if slope < RapidDropPerDay {
		result.Alerts = append(result.Alerts, domain.MoistureAlert{
			Kind:     "rapid_drop",
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("Soil moisture is falling %.1f points per day", -slope),
		})
	}

	result.Recommendation = moistureRecommendation(status, result.DaysUntilCritical)
	return result, nil
}

func moistureRecommendation(status domain.MoistureStatus, daysUntilCritical *float64) string {
	switch status {
	case domain.MoistureCritical:
		return "Irrigate immediately to avoid crop stress"
	case domain.MoistureLow:
		return "Schedule irrigation within 24 hours"
	case domain.MoistureHigh:
		return "Hold irrigation until the soil drains"
	case domain.MoistureSaturated:
		return "Stop irrigation and check field drainage"
	}
	if daysUntilCritical != nil && *daysUntilCritical < 3 {
		return fmt.Sprintf("Moisture is optimal but drying, plan irrigation within %.0f days", *daysUntilCritical)
	}
	return "Moisture is optimal, no irrigation needed"
}
