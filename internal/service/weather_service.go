package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/agronomy"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/circuitbreaker"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/metrics"
)

const (
	MaxForecastDays     = 14
	DefaultForecastDays = 7
	maxHistoryRange     = 366 * 24 * time.Hour
	weatherAlertWindow  = 12 * time.Hour
)

// WeatherRepository stores observations for history queries
type WeatherRepository interface {
	Insert(ctx context.Context, observations []domain.WeatherObservation) error
	History(ctx context.Context, lat, lon float64, from, to time.Time) ([]domain.WeatherObservation, error)
}

// WeatherService serves weather for coordinates or farms. The configured
// provider is tried first and the synthetic provider answers when it is
// missing or its breaker is open.
type WeatherService struct {
	ownership
	provider  WeatherProvider
	fallback  WeatherProvider
	current   *database.Cache
	forecasts *database.Cache
	history   WeatherRepository
	alerts    *AlertService
	log       *zap.Logger
}

var _ WeatherLookup = (*WeatherService)(nil)

// NewWeatherService creates a weather service. provider may be nil.
func NewWeatherService(
	provider WeatherProvider,
	fallback WeatherProvider,
	current *database.Cache,
	forecasts *database.Cache,
	history WeatherRepository,
	farms FarmRepository,
	log *zap.Logger,
) *WeatherService {
	return &WeatherService{
		ownership: ownership{farms: farms},
		provider:  provider,
		fallback:  fallback,
		current:   current,
		forecasts: forecasts,
		history:   history,
		log:       log,
	}
}

// SetAlerts enables farm alerts during SyncFarms
func (s *WeatherService) SetAlerts(alerts *AlertService) {
	s.alerts = alerts
}

// Current returns the current conditions at the coordinates
func (s *WeatherService) Current(ctx context.Context, lat, lon float64) (*domain.WeatherObservation, error) {
	if err := checkCoordinates(lat, lon); err != nil {
		return nil, err
	}
	key := coordKey(lat, lon)

	var cached domain.WeatherObservation
	if ok, err := s.current.GetJSON(ctx, key, &cached); err != nil {
		s.log.Debug("weather cache read failed", zap.Error(err))
	} else if ok {
		metrics.WeatherCall(SourceCache, nil)
		return &cached, nil
	}

	obs, err := s.fetchCurrent(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if err := s.current.SetJSON(ctx, key, obs); err != nil {
		s.log.Debug("weather cache write failed", zap.Error(err))
	}
	s.persist(ctx, obs)
	return obs, nil
}

// Forecast returns a daily forecast of 1 to 14 days
func (s *WeatherService) Forecast(ctx context.Context, lat, lon float64, days int) (*domain.Forecast, error) {
	if err := checkCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if days == 0 {
		days = DefaultForecastDays
	}
	if days < 1 || days > MaxForecastDays {
		return nil, apperrors.Validation("invalid forecast length").
			WithDetail("days", fmt.Sprintf("must be between 1 and %d", MaxForecastDays))
	}

	// the full horizon is cached once and sliced per request
	key := coordKey(lat, lon)
	var cached domain.Forecast
	if ok, err := s.forecasts.GetJSON(ctx, key, &cached); err != nil {
		s.log.Debug("forecast cache read failed", zap.Error(err))
	} else if ok && len(cached.Days) >= days {
		metrics.WeatherCall(SourceCache, nil)
		cached.Days = cached.Days[:days]
		return &cached, nil
	}

	fc, err := s.fetchForecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if err := s.forecasts.SetJSON(ctx, key, fc); err != nil {
		s.log.Debug("forecast cache write failed", zap.Error(err))
	}
	if len(fc.Days) > days {
		fc.Days = fc.Days[:days]
	}
	return fc, nil
}

// History returns stored observations near the coordinates
func (s *WeatherService) History(ctx context.Context, lat, lon float64, from, to time.Time) ([]domain.WeatherObservation, error) {
	if err := checkCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-7 * 24 * time.Hour)
	}
	if !from.Before(to) {
		return nil, apperrors.Validation("invalid time range").WithDetail("from", "must be before to")
	}
	if to.Sub(from) > maxHistoryRange {
		return nil, apperrors.Validation("time range too large").WithDetail("from", "range must not exceed one year")
	}
	if s.history == nil {
		return []domain.WeatherObservation{}, nil
	}
	obs, err := s.history.History(ctx, lat, lon, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather history: %w", err)
	}
	return obs, nil
}

// Alerts evaluates the hazard rules over the forecast
func (s *WeatherService) Alerts(ctx context.Context, lat, lon float64, days int) ([]domain.WeatherAlert, error) {
	if days == 0 {
		days = MaxForecastDays
	}
	fc, err := s.Forecast(ctx, lat, lon, days)
	if err != nil {
		return nil, err
	}
	return agronomy.EvaluateWeatherAlerts(fc.Days), nil
}

// AgroAdvice translates the current weather and forecast into field work
// guidance
func (s *WeatherService) AgroAdvice(ctx context.Context, lat, lon float64) (*domain.AgroWeatherAdvice, error) {
	obs, err := s.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	fc, err := s.Forecast(ctx, lat, lon, DefaultForecastDays)
	if err != nil {
		return nil, err
	}
	advice := agronomy.AgroAdvice(obs, fc.Days)
	return &advice, nil
}

// ResolveFarm returns the coordinates of one of the actor's farms
func (s *WeatherService) ResolveFarm(ctx context.Context, actor Actor, farmID uuid.UUID) (float64, float64, error) {
	farm, err := s.farm(ctx, actor, farmID)
	if err != nil {
		return 0, 0, err
	}
	if !farm.HasCoordinates() {
		return 0, 0, apperrors.BadRequest("farm has no coordinates")
	}
	return *farm.Latitude, *farm.Longitude, nil
}

// SyncFarms refreshes the weather of every farm with coordinates and raises
// hazard alerts for their owners. It returns the number of farms synced.
func (s *WeatherService) SyncFarms(ctx context.Context) (int, error) {
	farms, err := s.farms.ListWithCoordinates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list farms: %w", err)
	}

	synced := 0
	for i := range farms {
		if err := ctx.Err(); err != nil {
			return synced, err
		}
		farm := &farms[i]
		lat, lon := *farm.Latitude, *farm.Longitude
		log := s.log.With(zap.String("farm_id", farm.ID.String()))

		// bypass the cache so every sync stores a fresh observation
		obs, err := s.fetchCurrent(ctx, lat, lon)
		if err != nil {
			log.Warn("weather sync failed", zap.Error(err))
			continue
		}
		if err := s.current.SetJSON(ctx, coordKey(lat, lon), obs); err != nil {
			log.Debug("weather cache write failed", zap.Error(err))
		}
		s.persist(ctx, obs)
		synced++

		if s.alerts == nil {
			continue
		}
		fc, err := s.Forecast(ctx, lat, lon, MaxForecastDays)
		if err != nil {
			log.Warn("forecast unavailable for alerts", zap.Error(err))
			continue
		}
		for _, wa := range agronomy.EvaluateWeatherAlerts(fc.Days) {
			alert := &domain.Alert{
				FarmID:   &farm.ID,
				UserID:   farm.OwnerID,
				Type:     domain.AlertWeather,
				Severity: wa.Severity,
				Title:    fmt.Sprintf("%s at %s", wa.Title, farm.Name),
				Message:  wa.Message,
			}
			if _, err := s.alerts.RaiseOnce(ctx, alert, weatherAlertWindow); err != nil {
				log.Warn("failed to raise weather alert", zap.String("type", string(wa.Type)), zap.Error(err))
			}
		}
	}
	return synced, nil
}

func (s *WeatherService) fetchCurrent(ctx context.Context, lat, lon float64) (*domain.WeatherObservation, error) {
	if s.provider != nil {
		obs, err := s.provider.Current(ctx, lat, lon)
		metrics.WeatherCall(s.provider.Name(), err)
		if err == nil {
			return obs, nil
		}
		if !circuitbreaker.IsOpen(err) {
			return nil, apperrors.Unavailable("weather provider is unavailable").WithError(err)
		}
		s.log.Debug("weather breaker open, using synthetic data")
	}
	obs, err := s.fallback.Current(ctx, lat, lon)
	metrics.WeatherCall(s.fallback.Name(), err)
	return obs, err
}

func (s *WeatherService) fetchForecast(ctx context.Context, lat, lon float64) (*domain.Forecast, error) {
	if s.provider != nil {
		fc, err := s.provider.Forecast(ctx, lat, lon, MaxForecastDays)
		metrics.WeatherCall(s.provider.Name(), err)
		if err == nil {
			return fc, nil
		}
		if !circuitbreaker.IsOpen(err) {
			return nil, apperrors.Unavailable("weather provider is unavailable").WithError(err)
		}
	}
	fc, err := s.fallback.Forecast(ctx, lat, lon, MaxForecastDays)
	metrics.WeatherCall(s.fallback.Name(), err)
	return fc, err
}

func (s *WeatherService) persist(ctx context.Context, obs *domain.WeatherObservation) {
	if s.history == nil {
		return
	}
	if err := s.history.Insert(ctx, []domain.WeatherObservation{*obs}); err != nil {
		s.log.Warn("failed to store weather observation", zap.String("location", obs.Location), zap.Error(err))
	}
}

func checkCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return apperrors.Validation("invalid coordinates").WithDetail("lat", "must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		return apperrors.Validation("invalid coordinates").WithDetail("lon", "must be between -180 and 180")
	}
	return nil
}
