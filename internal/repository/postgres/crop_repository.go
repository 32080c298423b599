package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const cropColumns = `id, name, scientific_name, category, season, growth_duration_days,
	optimal_temp_min, optimal_temp_max, optimal_rainfall_min, optimal_rainfall_max,
	optimal_ph_min, optimal_ph_max, soil_types, water_requirement_mm, average_yield_per_ha,
	created_at, updated_at`

// CropRepository handles the crop catalogue in PostgreSQL
type CropRepository struct {
	db *database.PostgresDB
}

// NewCropRepository creates a new crop repository
func NewCropRepository(db *database.PostgresDB) *CropRepository {
	return &CropRepository{db: db}
}

func scanCrop(row pgx.Row) (*domain.Crop, error) {
	var (
		c     domain.Crop
		soils []string
	)
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.ScientificName,
		&c.Category,
		&c.Season,
		&c.GrowthDurationDays,
		&c.OptimalTempMin,
		&c.OptimalTempMax,
		&c.OptimalRainfallMin,
		&c.OptimalRainfallMax,
		&c.OptimalPHMin,
		&c.OptimalPHMax,
		&soils,
		&c.WaterRequirementMM,
		&c.AverageYieldPerHa,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.SoilTypes = make([]domain.SoilType, len(soils))
	for i, s := range soils {
		c.SoilTypes[i] = domain.SoilType(s)
	}
	return &c, nil
}

func soilStrings(soils []domain.SoilType) []string {
	out := make([]string, len(soils))
	for i, s := range soils {
		out[i] = string(s)
	}
	return out
}

// Create adds a crop to the catalogue
func (r *CropRepository) Create(ctx context.Context, crop *domain.Crop) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO crops (`+cropColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		crop.ID,
		crop.Name,
		crop.ScientificName,
		string(crop.Category),
		string(crop.Season),
		crop.GrowthDurationDays,
		crop.OptimalTempMin,
		crop.OptimalTempMax,
		crop.OptimalRainfallMin,
		crop.OptimalRainfallMax,
		crop.OptimalPHMin,
		crop.OptimalPHMax,
		soilStrings(crop.SoilTypes),
		crop.WaterRequirementMM,
		crop.AverageYieldPerHa,
		crop.CreatedAt,
		crop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create crop: %w", conflict(err, "crop already exists"))
	}
	return nil
}

// GetByID retrieves a crop by ID
func (r *CropRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Crop, error) {
	crop, err := scanCrop(r.db.Pool.QueryRow(ctx, `SELECT `+cropColumns+` FROM crops WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get crop: %w", notFound(err, "crop"))
	}
	return crop, nil
}

// GetByName retrieves a crop by case-insensitive name
func (r *CropRepository) GetByName(ctx context.Context, name string) (*domain.Crop, error) {
	crop, err := scanCrop(r.db.Pool.QueryRow(ctx, `SELECT `+cropColumns+` FROM crops WHERE lower(name) = lower($1)`, name))
	if err != nil {
		return nil, fmt.Errorf("failed to get crop: %w", notFound(err, "crop"))
	}
	return crop, nil
}

// Update replaces a crop's attributes
func (r *CropRepository) Update(ctx context.Context, crop *domain.Crop) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE crops SET
			name = $2, scientific_name = $3, category = $4, season = $5, growth_duration_days = $6,
			optimal_temp_min = $7, optimal_temp_max = $8, optimal_rainfall_min = $9, optimal_rainfall_max = $10,
			optimal_ph_min = $11, optimal_ph_max = $12, soil_types = $13, water_requirement_mm = $14,
			average_yield_per_ha = $15, updated_at = $16
		WHERE id = $1
	`,
		crop.ID,
		crop.Name,
		crop.ScientificName,
		string(crop.Category),
		string(crop.Season),
		crop.GrowthDurationDays,
		crop.OptimalTempMin,
		crop.OptimalTempMax,
		crop.OptimalRainfallMin,
		crop.OptimalRainfallMax,
		crop.OptimalPHMin,
		crop.OptimalPHMax,
		soilStrings(crop.SoilTypes),
		crop.WaterRequirementMM,
		crop.AverageYieldPerHa,
		crop.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update crop: %w", conflict(err, "crop already exists"))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("crop")
	}
	return nil
}

// Delete removes a crop. Fields planted with it become unplanted.
func (r *CropRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM crops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete crop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("crop")
	}
	return nil
}

// List lists crops by name
func (r *CropRepository) List(ctx context.Context, filter *domain.CropFilter, p pagination.Params) ([]domain.Crop, int64, error) {
	var c conditions
	if filter != nil {
		if filter.Search != "" {
			c.add("(name ILIKE $%[1]d OR scientific_name ILIKE $%[1]d)", "%"+filter.Search+"%")
		}
		if filter.Category != nil {
			c.add("category = $%d", string(*filter.Category))
		}
		if filter.Season != nil {
			c.add("season = $%d", string(*filter.Season))
		}
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM crops`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count crops: %w", err)
	}

	limit, args := c.page(p)
	crops, err := r.query(ctx, `SELECT `+cropColumns+` FROM crops`+c.where()+` ORDER BY name`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	return crops, total, nil
}

// All returns the whole catalogue
func (r *CropRepository) All(ctx context.Context) ([]domain.Crop, error) {
	return r.query(ctx, `SELECT `+cropColumns+` FROM crops ORDER BY name`)
}

// Count returns the number of crops
func (r *CropRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM crops`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count crops: %w", err)
	}
	return n, nil
}

func (r *CropRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Crop, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crops: %w", err)
	}
	defer rows.Close()

	var crops []domain.Crop
	for rows.Next() {
		crop, err := scanCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crop: %w", err)
		}
		crops = append(crops, *crop)
	}
	return crops, rows.Err()
}
