package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const farmColumns = `id, owner_id, name, location, latitude, longitude, total_area, cultivated_area,
	soil_type, irrigation_type, water_source, created_at, updated_at`

// FarmRepository handles farm data operations in PostgreSQL
type FarmRepository struct {
	db *database.PostgresDB
}

// NewFarmRepository creates a new farm repository
func NewFarmRepository(db *database.PostgresDB) *FarmRepository {
	return &FarmRepository{db: db}
}

func scanFarm(row pgx.Row) (*domain.Farm, error) {
	var f domain.Farm
	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.Name,
		&f.Location,
		&f.Latitude,
		&f.Longitude,
		&f.TotalArea,
		&f.CultivatedArea,
		&f.SoilType,
		&f.IrrigationType,
		&f.WaterSource,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create creates a new farm
func (r *FarmRepository) Create(ctx context.Context, farm *domain.Farm) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO farms (id, owner_id, name, location, latitude, longitude, total_area, cultivated_area,
		                   soil_type, irrigation_type, water_source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		farm.ID,
		farm.OwnerID,
		farm.Name,
		farm.Location,
		farm.Latitude,
		farm.Longitude,
		farm.TotalArea,
		farm.CultivatedArea,
		string(farm.SoilType),
		string(farm.IrrigationType),
		farm.WaterSource,
		farm.CreatedAt,
		farm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create farm: %w", err)
	}
	return nil
}

// GetByID retrieves a farm by ID
func (r *FarmRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Farm, error) {
	farm, err := scanFarm(r.db.Pool.QueryRow(ctx, `SELECT `+farmColumns+` FROM farms WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get farm: %w", notFound(err, "farm"))
	}
	return farm, nil
}

// Update locks the farm row, applies fn and writes the result back. fn also
// gets the area covered by the farm's fields. Field writes take the same row
// lock, so farm updates and field writes are serialised.
func (r *FarmRepository) Update(ctx context.Context, id uuid.UUID, fn func(farm *domain.Farm, fieldArea float64) error) (*domain.Farm, error) {
	var updated *domain.Farm
	err := database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		farm, fieldArea, err := lockFarm(ctx, tx, id, nil)
		if err != nil {
			return err
		}
		if err := fn(farm, fieldArea); err != nil {
			return err
		}
		farm.UpdatedAt = time.Now().UTC()

		_, err = tx.Exec(ctx, `
			UPDATE farms SET
				name = $2, location = $3, latitude = $4, longitude = $5, total_area = $6,
				cultivated_area = $7, soil_type = $8, irrigation_type = $9, water_source = $10, updated_at = $11
			WHERE id = $1
		`,
			farm.ID,
			farm.Name,
			farm.Location,
			farm.Latitude,
			farm.Longitude,
			farm.TotalArea,
			farm.CultivatedArea,
			string(farm.SoilType),
			string(farm.IrrigationType),
			farm.WaterSource,
			farm.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update farm: %w", err)
		}
		updated = farm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete deletes a farm with its fields, sessions and alerts
func (r *FarmRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM farms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete farm: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("farm")
	}
	return nil
}

// List lists farms, newest first
func (r *FarmRepository) List(ctx context.Context, filter *domain.FarmFilter, p pagination.Params) ([]domain.Farm, int64, error) {
	var c conditions
	if filter != nil {
		if filter.OwnerID != nil {
			c.add("owner_id = $%d", *filter.OwnerID)
		}
		if filter.SoilType != nil {
			c.add("soil_type = $%d", string(*filter.SoilType))
		}
		if filter.Search != "" {
			c.add("(name ILIKE $%[1]d OR location ILIKE $%[1]d)", "%"+filter.Search+"%")
		}
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM farms`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count farms: %w", err)
	}

	limit, args := c.page(p)
	farms, err := r.query(ctx, `SELECT `+farmColumns+` FROM farms`+c.where()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	return farms, total, nil
}

// ListWithCoordinates returns every farm that can be located
func (r *FarmRepository) ListWithCoordinates(ctx context.Context) ([]domain.Farm, error) {
	return r.query(ctx, `
		SELECT `+farmColumns+`
		FROM farms
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY created_at
	`)
}

// Count returns the number of farms
func (r *FarmRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM farms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count farms: %w", err)
	}
	return n, nil
}

func (r *FarmRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Farm, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list farms: %w", err)
	}
	defer rows.Close()

	var farms []domain.Farm
	for rows.Next() {
		farm, err := scanFarm(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan farm: %w", err)
		}
		farms = append(farms, *farm)
	}
	return farms, rows.Err()
}
