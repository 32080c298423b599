package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
)

// WeatherService serves observations, forecasts and weather advice
type WeatherService interface {
	Current(ctx context.Context, lat, lon float64) (*domain.WeatherObservation, error)
	Forecast(ctx context.Context, lat, lon float64, days int) (*domain.Forecast, error)
	History(ctx context.Context, lat, lon float64, from, to time.Time) ([]domain.WeatherObservation, error)
	Alerts(ctx context.Context, lat, lon float64, days int) ([]domain.WeatherAlert, error)
	AgroAdvice(ctx context.Context, lat, lon float64) (*domain.AgroWeatherAdvice, error)
	ResolveFarm(ctx context.Context, actor service.Actor, farmID uuid.UUID) (float64, float64, error)
}

// WeatherHandler handles weather endpoints
type WeatherHandler struct {
	weather WeatherService
	logger  *zap.Logger
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(weather WeatherService, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		weather: weather,
		logger:  logger,
	}
}

// Current handles GET /weather/current
func (h *WeatherHandler) Current(c *fiber.Ctx) error {
	lat, lon, err := h.location(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	obs, err := h.weather.Current(c.Context(), lat, lon)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, obs)
}

// Forecast handles GET /weather/forecast?days=
func (h *WeatherHandler) Forecast(c *fiber.Ctx) error {
	lat, lon, err := h.location(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	days, err := queryIntRange(c, "days", 7, 1, 14)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	forecast, err := h.weather.Forecast(c.Context(), lat, lon, days)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, forecast)
}

// History handles GET /weather/history?from=&to=
func (h *WeatherHandler) History(c *fiber.Ctx) error {
	lat, lon, err := h.location(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	now := time.Now().UTC()
	from, to := now.AddDate(0, 0, -7), now
	if v, err := queryDate(c, "from"); err != nil {
		return errorResponse(c, h.logger, err)
	} else if v != nil {
		from = *v
	}
	if v, err := queryDate(c, "to"); err != nil {
		return errorResponse(c, h.logger, err)
	} else if v != nil {
		to = *v
	}
	if from.After(to) {
		return errorResponse(c, h.logger, apperrors.Validation("from must not be after to").WithDetail("from", "after to"))
	}

	history, err := h.weather.History(c.Context(), lat, lon, from, to)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	if history == nil {
		history = []domain.WeatherObservation{}
	}

	return ok(c, history)
}

// Alerts handles GET /weather/alerts?days=
func (h *WeatherHandler) Alerts(c *fiber.Ctx) error {
	lat, lon, err := h.location(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	days, err := queryIntRange(c, "days", 3, 1, 14)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	alerts, err := h.weather.Alerts(c.Context(), lat, lon, days)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	if alerts == nil {
		alerts = []domain.WeatherAlert{}
	}

	return ok(c, alerts)
}

// AgroAdvice handles GET /weather/agro-advice
func (h *WeatherHandler) AgroAdvice(c *fiber.Ctx) error {
	lat, lon, err := h.location(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	advice, err := h.weather.AgroAdvice(c.Context(), lat, lon)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, advice)
}

// location reads ?farmId= or ?lat=&lon=. A farm takes precedence.
func (h *WeatherHandler) location(c *fiber.Ctx) (float64, float64, error) {
	farmID, err := queryUUID(c, "farmId")
	if err != nil {
		return 0, 0, err
	}
	if farmID != nil {
		a, err := actor(c)
		if err != nil {
			return 0, 0, err
		}
		return h.weather.ResolveFarm(c.Context(), a, *farmID)
	}

	lat, err := queryFloat(c, "lat")
	if err != nil {
		return 0, 0, err
	}
	lon, err := queryFloat(c, "lon")
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
