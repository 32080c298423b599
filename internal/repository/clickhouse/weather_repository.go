package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
)

// WeatherRepository stores weather observations in ClickHouse
type WeatherRepository struct {
	db *database.ClickHouseDB
}

// NewWeatherRepository creates a new weather repository
func NewWeatherRepository(db *database.ClickHouseDB) *WeatherRepository {
	return &WeatherRepository{db: db}
}

// Insert appends observations in one batch
func (r *WeatherRepository) Insert(ctx context.Context, observations []domain.WeatherObservation) error {
	if len(observations) == 0 {
		return nil
	}

	batch, err := r.db.PrepareBatch(ctx, `
		INSERT INTO weather_observations (
			location, latitude, longitude, temperature, feels_like, humidity, pressure,
			wind_speed, wind_direction, rainfall, cloud_cover, solar_radiation,
			condition, source, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, o := range observations {
		if err := batch.Append(
			o.Location,
			o.Latitude,
			o.Longitude,
			o.Temperature,
			o.FeelsLike,
			o.Humidity,
			o.Pressure,
			o.WindSpeed,
			o.WindDirection,
			o.Rainfall,
			o.CloudCover,
			o.SolarRadiation,
			o.Condition,
			o.Source,
			o.ObservedAt,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// History returns observations recorded near the coordinates between from
// and to, oldest first. Coordinates match to two decimal places.
func (r *WeatherRepository) History(ctx context.Context, lat, lon float64, from, to time.Time) ([]domain.WeatherObservation, error) {
	query := `
		SELECT
			location, latitude, longitude, temperature, feels_like, humidity, pressure,
			wind_speed, wind_direction, rainfall, cloud_cover, solar_radiation,
			condition, source, observed_at
		FROM weather_observations
		WHERE round(latitude, 2) = round(?, 2)
			AND round(longitude, 2) = round(?, 2)
			AND observed_at >= ?
			AND observed_at < ?
		ORDER BY observed_at
		LIMIT 10000
	`

	var observations []domain.WeatherObservation
	if err := r.db.Select(ctx, &observations, query, lat, lon, from, to); err != nil {
		return nil, fmt.Errorf("failed to query weather history: %w", err)
	}
	return observations, nil
}
