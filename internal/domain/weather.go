package domain

import "time"

// Coordinates locate a weather lookup
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// WeatherObservation is a point-in-time weather reading
type WeatherObservation struct {
	Location       string    `json:"location" ch:"location"`
	Latitude       float64   `json:"latitude" ch:"latitude"`
	Longitude      float64   `json:"longitude" ch:"longitude"`
	Temperature    float64   `json:"temperature" ch:"temperature"`
	FeelsLike      float64   `json:"feelsLike" ch:"feels_like"`
	Humidity       float64   `json:"humidity" ch:"humidity"`
	Pressure       float64   `json:"pressure" ch:"pressure"`
	WindSpeed      float64   `json:"windSpeed" ch:"wind_speed"`
	WindDirection  float64   `json:"windDirection" ch:"wind_direction"`
	Rainfall       float64   `json:"rainfall" ch:"rainfall"`
	CloudCover     float64   `json:"cloudCover" ch:"cloud_cover"`
	SolarRadiation float64   `json:"solarRadiation" ch:"solar_radiation"`
	Condition      string    `json:"condition" ch:"condition"`
	Source         string    `json:"source" ch:"source"`
	ObservedAt     time.Time `json:"observedAt" ch:"observed_at"`
}

// DailyForecast is the forecast for one day
type DailyForecast struct {
	Date            time.Time `json:"date"`
	TempMin         float64   `json:"tempMin"`
	TempMax         float64   `json:"tempMax"`
	Humidity        float64   `json:"humidity"`
	Rainfall        float64   `json:"rainfall"`
	RainProbability float64   `json:"rainProbability"`
	WindSpeed       float64   `json:"windSpeed"`
	SolarRadiation  float64   `json:"solarRadiation"`
	Condition       string    `json:"condition"`
}

// Forecast is a multi-day forecast for a location
type Forecast struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Source    string          `json:"source"`
	Days      []DailyForecast `json:"days"`
}

// WeatherAlertType names an agricultural weather hazard
type WeatherAlertType string

const (
	WeatherFrost     WeatherAlertType = "frost"
	WeatherHeatwave  WeatherAlertType = "heatwave"
	WeatherHeavyRain WeatherAlertType = "heavy_rain"
	WeatherHighWind  WeatherAlertType = "high_wind"
	WeatherDrought   WeatherAlertType = "drought"
)

// WeatherAlert is a hazard derived from the forecast
type WeatherAlert struct {
	Type      WeatherAlertType `json:"type"`
	Severity  Severity         `json:"severity"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	ValidFrom time.Time        `json:"validFrom"`
	ValidTo   time.Time        `json:"validTo"`
}

// AgroWeatherAdvice turns weather into field operations guidance
type AgroWeatherAdvice struct {
	SprayingSuitable bool           `json:"sprayingSuitable"`
	SprayingReason   string         `json:"sprayingReason"`
	IrrigationNeeded bool           `json:"irrigationNeeded"`
	IrrigationReason string         `json:"irrigationReason"`
	FrostRisk        bool           `json:"frostRisk"`
	HeatStressRisk   bool           `json:"heatStressRisk"`
	RainNext72hMM    float64        `json:"rainNext72hMm"`
	Alerts           []WeatherAlert `json:"alerts"`
}
