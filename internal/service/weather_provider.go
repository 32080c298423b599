package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"net/url"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/circuitbreaker"
)

// Weather sources
const (
	SourceProvider  = "api"
	SourceSynthetic = "synthetic"
	SourceCache     = "cache"
)

// WeatherProvider fetches observations and forecasts for a location
type WeatherProvider interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) (*domain.WeatherObservation, error)
	Forecast(ctx context.Context, lat, lon float64, days int) (*domain.Forecast, error)
}

// HTTPWeatherProvider reads a One Call style JSON API. Calls go through a
// circuit breaker so a failing provider is not hammered.
type HTTPWeatherProvider struct {
	baseURL string
	apiKey  string
	fetcher PageFetcher
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewHTTPWeatherProvider creates the provider client
func NewHTTPWeatherProvider(cfg config.WeatherConfig, fetcher PageFetcher, log *zap.Logger) *HTTPWeatherProvider {
	return &HTTPWeatherProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		fetcher: fetcher,
		breaker: circuitbreaker.New[[]byte](circuitbreaker.Config{
			Name:        "weather-provider",
			MaxFailures: cfg.BreakerFailures,
			Timeout:     cfg.BreakerTimeout,
		}, log),
	}
}

func (p *HTTPWeatherProvider) Name() string { return SourceProvider }

type oneCallResponse struct {
	Current struct {
		Dt        int64   `json:"dt"`
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
		Clouds    float64 `json:"clouds"`
		WindSpeed float64 `json:"wind_speed"`
		WindDeg   float64 `json:"wind_deg"`
		Rain      struct {
			OneHour float64 `json:"1h"`
		} `json:"rain"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	} `json:"current"`
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
		Humidity  float64 `json:"humidity"`
		WindSpeed float64 `json:"wind_speed"`
		Rain      float64 `json:"rain"`
		Pop       float64 `json:"pop"`
		Weather   []struct {
			Main string `json:"main"`
		} `json:"weather"`
	} `json:"daily"`
}

func (p *HTTPWeatherProvider) call(ctx context.Context, lat, lon float64, exclude string) (*oneCallResponse, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("units", "metric")
	q.Set("exclude", exclude)
	q.Set("appid", p.apiKey)
	target := p.baseURL + "/data/3.0/onecall?" + q.Encode()

	body, err := p.breaker.Execute(func() ([]byte, error) {
		return p.fetcher.Fetch(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	var resp oneCallResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	return &resp, nil
}

// Current returns the provider's current conditions
func (p *HTTPWeatherProvider) Current(ctx context.Context, lat, lon float64) (*domain.WeatherObservation, error) {
	resp, err := p.call(ctx, lat, lon, "minutely,hourly,daily,alerts")
	if err != nil {
		return nil, err
	}
	c := resp.Current
	obs := &domain.WeatherObservation{
		Location:      coordKey(lat, lon),
		Latitude:      lat,
		Longitude:     lon,
		Temperature:   c.Temp,
		FeelsLike:     c.FeelsLike,
		Humidity:      c.Humidity,
		Pressure:      c.Pressure,
		WindSpeed:     c.WindSpeed,
		WindDirection: c.WindDeg,
		Rainfall:      c.Rain.OneHour,
		CloudCover:    c.Clouds,
		Source:        SourceProvider,
		ObservedAt:    time.Unix(c.Dt, 0).UTC(),
	}
	if len(c.Weather) > 0 {
		obs.Condition = c.Weather[0].Main
	}
	return obs, nil
}

// Forecast returns up to days daily forecasts
func (p *HTTPWeatherProvider) Forecast(ctx context.Context, lat, lon float64, days int) (*domain.Forecast, error) {
	resp, err := p.call(ctx, lat, lon, "current,minutely,hourly,alerts")
	if err != nil {
		return nil, err
	}
	fc := &domain.Forecast{Latitude: lat, Longitude: lon, Source: SourceProvider}
	for i, d := range resp.Daily {
		if i >= days {
			break
		}
		day := domain.DailyForecast{
			Date:            time.Unix(d.Dt, 0).UTC().Truncate(24 * time.Hour),
			TempMin:         d.Temp.Min,
			TempMax:         d.Temp.Max,
			Humidity:        d.Humidity,
			Rainfall:        d.Rain,
			RainProbability: math.Round(d.Pop * 100),
			WindSpeed:       d.WindSpeed,
		}
		if len(d.Weather) > 0 {
			day.Condition = d.Weather[0].Main
		}
		fc.Days = append(fc.Days, day)
	}
	return fc, nil
}

// SyntheticWeatherProvider generates plausible weather from a climate model
// of latitude and season. The output depends only on the coordinates and
// the date, so repeated calls agree with each other.
type SyntheticWeatherProvider struct {
	now func() time.Time
}

// NewSyntheticWeatherProvider creates the synthetic provider
func NewSyntheticWeatherProvider(now func() time.Time) *SyntheticWeatherProvider {
	if now == nil {
		now = time.Now
	}
	return &SyntheticWeatherProvider{now: now}
}

func (p *SyntheticWeatherProvider) Name() string { return SourceSynthetic }

// Current interpolates the day's range with a diurnal curve peaking at 15:00
func (p *SyntheticWeatherProvider) Current(_ context.Context, lat, lon float64) (*domain.WeatherObservation, error) {
	now := p.now().UTC().Truncate(time.Hour)
	day := syntheticDay(lat, lon, now)

	hour := float64(now.Hour())
	diurnal := (1 + math.Cos(2*math.Pi*(hour-15)/24)) / 2
	temp := day.TempMin + (day.TempMax-day.TempMin)*diurnal

	rnd := seeded(lat, lon, now.Unix())
	rain := 0.0
	if day.Rainfall > 0 && rnd.Float64() < day.RainProbability/100 {
		rain = round1(day.Rainfall / 6 * rnd.Float64())
	}

	return &domain.WeatherObservation{
		Location:       coordKey(lat, lon),
		Latitude:       lat,
		Longitude:      lon,
		Temperature:    round1(temp),
		FeelsLike:      round1(temp + (day.Humidity-50)/25),
		Humidity:       math.Round(day.Humidity + 10*(1-diurnal)),
		Pressure:       math.Round(1013 + 8*(rnd.Float64()-0.5)),
		WindSpeed:      round1(day.WindSpeed * (0.6 + 0.8*diurnal)),
		WindDirection:  math.Round(rnd.Float64() * 360),
		Rainfall:       rain,
		CloudCover:     math.Round(day.RainProbability*0.8 + 10*rnd.Float64()),
		SolarRadiation: round1(day.SolarRadiation),
		Condition:      day.Condition,
		Source:         SourceSynthetic,
		ObservedAt:     now,
	}, nil
}

// Forecast returns days synthetic forecasts starting today
func (p *SyntheticWeatherProvider) Forecast(_ context.Context, lat, lon float64, days int) (*domain.Forecast, error) {
	today := p.now().UTC().Truncate(24 * time.Hour)
	fc := &domain.Forecast{Latitude: lat, Longitude: lon, Source: SourceSynthetic, Days: make([]domain.DailyForecast, 0, days)}
	for i := 0; i < days; i++ {
		fc.Days = append(fc.Days, syntheticDay(lat, lon, today.AddDate(0, 0, i)))
	}
	return fc, nil
}

func syntheticDay(lat, lon float64, t time.Time) domain.DailyForecast {
	date := t.UTC().Truncate(24 * time.Hour)
	rnd := seeded(lat, lon, date.Unix())
	doy := float64(date.YearDay())
	absLat := math.Abs(lat)

	// warmest around mid July in the north, mid January in the south
	season := math.Cos(2 * math.Pi * (doy - 196) / 365.25)
	if lat < 0 {
		season = -season
	}
	mean := 27 - 0.35*absLat + (3+0.2*absLat)*season
	spread := 8 + 4*rnd.Float64()

	// tropical northern monsoon brings wet summers
	pRain := 0.25
	if lat >= 5 && lat <= 35 && date.Month() >= time.June && date.Month() <= time.September {
		pRain = 0.65
	}
	rain := 0.0
	if rnd.Float64() < pRain {
		rain = round1(-math.Log(1-rnd.Float64()) * 9)
	}

	humidity := 45 + 35*pRain + 15*rnd.Float64()
	if rain > 0 {
		humidity += 10
	}

	condition := "Clear"
	switch {
	case rain >= 20:
		condition = "Thunderstorm"
	case rain > 0:
		condition = "Rain"
	case rnd.Float64() < 0.4:
		condition = "Clouds"
	}

	return domain.DailyForecast{
		Date:            date,
		TempMin:         round1(mean - spread/2),
		TempMax:         round1(mean + spread/2),
		Humidity:        math.Min(100, math.Round(humidity)),
		Rainfall:        rain,
		RainProbability: math.Round(pRain * 100),
		WindSpeed:       round1(1 + 5*rnd.Float64()),
		SolarRadiation:  round1(14 + 10*(1-pRain)*rnd.Float64() + 4*season),
		Condition:       condition,
	}
}

// seeded derives a random source from the rounded coordinates and a time
func seeded(lat, lon float64, at int64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(coordKey(lat, lon)))
	return rand.New(rand.NewPCG(h.Sum64(), uint64(at)))
}

// coordKey rounds coordinates to about a kilometre
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
