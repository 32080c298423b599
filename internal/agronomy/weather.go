package agronomy

import (
	"fmt"
	"time"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// Weather hazard thresholds
const (
	FrostTempC       = 2.0
	HeatwaveTempC    = 40.0
	HeavyRainMM      = 50.0
	HighWindMS       = 15.0
	DroughtDryMM     = 1.0
	DroughtRunDays   = 10
	sprayMaxWindMS   = 4.0
	sprayMaxRainProb = 40.0
	heatStressTempC  = 35.0
)

// EvaluateWeatherAlerts scans a forecast for agricultural hazards. Each run of
// consecutive hazard days produces one alert, graded by its worst day.
func EvaluateWeatherAlerts(days []domain.DailyForecast) []domain.WeatherAlert {
	alerts := make([]domain.WeatherAlert, 0)

	var frost, heat, rain, wind []*domain.WeatherAlert
	for _, d := range days {
		if d.TempMin <= FrostTempC {
			sev := domain.SeverityHigh
			if d.TempMin <= 0 {
				sev = domain.SeverityCritical
			}
			frost = extend(frost, domain.WeatherFrost, sev, d.Date)
		}
		if d.TempMax >= HeatwaveTempC {
			sev := domain.SeverityHigh
			if d.TempMax >= 45 {
				sev = domain.SeverityCritical
			}
			heat = extend(heat, domain.WeatherHeatwave, sev, d.Date)
		}
		if d.Rainfall >= HeavyRainMM {
			sev := domain.SeverityHigh
			if d.Rainfall >= 100 {
				sev = domain.SeverityCritical
			}
			rain = extend(rain, domain.WeatherHeavyRain, sev, d.Date)
		}
		if d.WindSpeed >= HighWindMS {
			sev := domain.SeverityModerate
			if d.WindSpeed >= 25 {
				sev = domain.SeverityHigh
			}
			wind = extend(wind, domain.WeatherHighWind, sev, d.Date)
		}
	}

	for _, runs := range [][]*domain.WeatherAlert{frost, heat, rain, wind} {
		for _, a := range runs {
			describe(a)
			alerts = append(alerts, *a)
		}
	}

	if d := droughtAlert(days); d != nil {
		alerts = append(alerts, *d)
	}
	return alerts
}

// extend grows the last run when day follows it and starts a new run otherwise
func extend(runs []*domain.WeatherAlert, t domain.WeatherAlertType, sev domain.Severity, day time.Time) []*domain.WeatherAlert {
	if n := len(runs); n > 0 && !day.After(runs[n-1].ValidTo) {
		a := runs[n-1]
		if severityRank(sev) > severityRank(a.Severity) {
			a.Severity = sev
		}
		a.ValidTo = day.Add(24 * time.Hour)
		return runs
	}
	return append(runs, &domain.WeatherAlert{Type: t, Severity: sev, ValidFrom: day, ValidTo: day.Add(24 * time.Hour)})
}

func describe(a *domain.WeatherAlert) {
	days := int(a.ValidTo.Sub(a.ValidFrom).Hours() / 24)
	switch a.Type {
	case domain.WeatherFrost:
		a.Title = "Frost warning"
		a.Message = fmt.Sprintf("Night temperatures at or below %.0f°C expected over %d day(s). Protect seedlings and irrigate lightly in the evening.", FrostTempC, days)
	case domain.WeatherHeatwave:
		a.Title = "Heatwave warning"
		a.Message = fmt.Sprintf("Maximum temperatures of %.0f°C or more expected over %d day(s). Irrigate early and avoid midday field work.", HeatwaveTempC, days)
	case domain.WeatherHeavyRain:
		a.Title = "Heavy rain warning"
		a.Message = fmt.Sprintf("%.0f mm or more of rain in a day expected. Clear drainage channels and postpone fertiliser application.", HeavyRainMM)
	case domain.WeatherHighWind:
		a.Title = "High wind warning"
		a.Message = fmt.Sprintf("Winds of %.0f m/s or more expected. Stake tall crops and do not spray.", HighWindMS)
	}
}

// droughtAlert reports the longest run of dry days when it reaches DroughtRunDays
func droughtAlert(days []domain.DailyForecast) *domain.WeatherAlert {
	bestStart, bestLen := -1, 0
	start := -1
	for i, d := range days {
		if d.Rainfall < DroughtDryMM {
			if start < 0 {
				start = i
			}
			if n := i - start + 1; n > bestLen {
				bestStart, bestLen = start, n
			}
			continue
		}
		start = -1
	}
	if bestLen < DroughtRunDays {
		return nil
	}

	sev := domain.SeverityModerate
	if bestLen >= 2*DroughtRunDays {
		sev = domain.SeverityHigh
	}
	return &domain.WeatherAlert{
		Type:      domain.WeatherDrought,
		Severity:  sev,
		Title:     "Dry spell ahead",
		Message:   fmt.Sprintf("%d consecutive days with less than %.0f mm of rain forecast. Plan irrigation and mulch to conserve soil moisture.", bestLen, DroughtDryMM),
		ValidFrom: days[bestStart].Date,
		ValidTo:   days[bestStart+bestLen-1].Date.Add(24 * time.Hour),
	}
}

func severityRank(s domain.Severity) int {
	switch s {
	case domain.SeverityCritical:
		return 4
	case domain.SeverityHigh:
		return 3
	case domain.SeverityModerate:
		return 2
	case domain.SeverityLow:
		return 1
	}
	return 0
}

// AgroAdvice turns the current observation and the forecast into field
// operation guidance
func AgroAdvice(current *domain.WeatherObservation, days []domain.DailyForecast) domain.AgroWeatherAdvice {
	advice := domain.AgroWeatherAdvice{Alerts: EvaluateWeatherAlerts(days)}

	for i, d := range days {
		if i >= 3 {
			break
		}
		advice.RainNext72hMM += d.Rainfall
		if d.TempMin <= FrostTempC {
			advice.FrostRisk = true
		}
		if d.TempMax >= heatStressTempC {
			advice.HeatStressRisk = true
		}
	}
	advice.RainNext72hMM = round1(advice.RainNext72hMM)

	rainSoon := current.Rainfall > 0
	if len(days) > 0 && days[0].RainProbability >= sprayMaxRainProb {
		rainSoon = true
	}
	switch {
	case current.WindSpeed >= sprayMaxWindMS:
		advice.SprayingReason = fmt.Sprintf("Wind %.1f m/s will cause drift", current.WindSpeed)
	case rainSoon:
		advice.SprayingReason = "Rain is likely to wash off the spray"
	case current.Temperature > 30:
		advice.SprayingReason = "Too hot, spray in the early morning or evening"
	case current.Temperature < 10:
		advice.SprayingReason = "Too cold for the product to work well"
	default:
		advice.SprayingSuitable = true
		advice.SprayingReason = "Calm, dry conditions"
	}

	switch {
	case advice.RainNext72hMM >= 10:
		advice.IrrigationReason = fmt.Sprintf("%.0f mm of rain expected in the next 72 hours", advice.RainNext72hMM)
	case current.Temperature > 30 || current.Humidity < 50:
		advice.IrrigationNeeded = true
		advice.IrrigationReason = "Hot or dry air with little rain expected"
	case advice.RainNext72hMM < 2:
		advice.IrrigationNeeded = true
		advice.IrrigationReason = "Almost no rain expected in the next 72 hours"
	default:
		advice.IrrigationReason = "Some rain expected, check soil moisture before irrigating"
	}
	return advice
}
