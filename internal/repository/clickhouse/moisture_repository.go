package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
)

// MoistureRepository stores soil moisture sensor readings in ClickHouse
type MoistureRepository struct {
	db *database.ClickHouseDB
}

// NewMoistureRepository creates a new moisture repository
func NewMoistureRepository(db *database.ClickHouseDB) *MoistureRepository {
	return &MoistureRepository{db: db}
}

// Insert appends readings in one batch
func (r *MoistureRepository) Insert(ctx context.Context, readings []domain.SoilMoistureReading) error {
	if len(readings) == 0 {
		return nil
	}

	batch, err := r.db.PrepareBatch(ctx, `
		INSERT INTO soil_moisture_readings (
			field_id, sensor_id, moisture_percent, soil_temperature, depth_cm, recorded_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, reading := range readings {
		if err := batch.Append(
			reading.FieldID,
			reading.SensorID,
			reading.MoisturePercent,
			reading.SoilTemperature,
			reading.DepthCM,
			reading.RecordedAt,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// Since returns a field's readings recorded at or after since, oldest first
func (r *MoistureRepository) Since(ctx context.Context, fieldID uuid.UUID, since time.Time) ([]domain.SoilMoistureReading, error) {
	query := `
		SELECT field_id, sensor_id, moisture_percent, soil_temperature, depth_cm, recorded_at
		FROM soil_moisture_readings
		WHERE field_id = ? AND recorded_at >= ?
		ORDER BY recorded_at
	`

	var readings []domain.SoilMoistureReading
	if err := r.db.Select(ctx, &readings, query, fieldID, since); err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	return readings, nil
}

// FieldsReportingSince lists fields with at least one reading since since
func (r *MoistureRepository) FieldsReportingSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT DISTINCT field_id FROM soil_moisture_readings WHERE recorded_at >= ?`
	if err := r.db.Select(ctx, &ids, query, since); err != nil {
		return nil, fmt.Errorf("failed to list reporting fields: %w", err)
	}
	return ids, nil
}
