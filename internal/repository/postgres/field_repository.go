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

const fieldColumns = `f.id, f.farm_id, f.name, f.area, f.crop_id, f.soil_type, f.soil_ph,
	f.planting_date, f.expected_harvest_date, f.growth_stage, f.created_at, f.updated_at`

// FieldRepository handles field data operations in PostgreSQL
type FieldRepository struct {
	db *database.PostgresDB
}

// NewFieldRepository creates a new field repository
func NewFieldRepository(db *database.PostgresDB) *FieldRepository {
	return &FieldRepository{db: db}
}

func scanField(row pgx.Row) (*domain.Field, error) {
	var f domain.Field
	err := row.Scan(
		&f.ID,
		&f.FarmID,
		&f.Name,
		&f.Area,
		&f.CropID,
		&f.SoilType,
		&f.SoilPH,
		&f.PlantingDate,
		&f.ExpectedHarvestDate,
		&f.GrowthStage,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a field. With check set, the farm row is locked and check
// sees the area of the farm's existing fields before the insert, all in one
// transaction, so concurrent creates cannot overfill the farm.
func (r *FieldRepository) Create(ctx context.Context, field *domain.Field, check domain.AreaCheck) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		if err := checkFarmArea(ctx, tx, field.FarmID, nil, check); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO fields (id, farm_id, name, area, crop_id, soil_type, soil_ph, planting_date,
			                    expected_harvest_date, growth_stage, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
			field.ID,
			field.FarmID,
			field.Name,
			field.Area,
			field.CropID,
			string(field.SoilType),
			field.SoilPH,
			field.PlantingDate,
			field.ExpectedHarvestDate,
			string(field.GrowthStage),
			field.CreatedAt,
			field.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create field: %w", conflict(err, "a field with this name already exists on the farm"))
		}
		return nil
	})
}

// GetByID retrieves a field by ID
func (r *FieldRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Field, error) {
	field, err := scanField(r.db.Pool.QueryRow(ctx, `SELECT `+fieldColumns+` FROM fields f WHERE f.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get field: %w", notFound(err, "field"))
	}
	return field, nil
}

// Update writes a field back. A non-nil check runs under the farm row lock
// against the area of the farm's other fields.
func (r *FieldRepository) Update(ctx context.Context, field *domain.Field, check domain.AreaCheck) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		if err := checkFarmArea(ctx, tx, field.FarmID, &field.ID, check); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			UPDATE fields SET
				name = $2, area = $3, crop_id = $4, soil_type = $5, soil_ph = $6, planting_date = $7,
				expected_harvest_date = $8, growth_stage = $9, updated_at = $10
			WHERE id = $1
		`,
			field.ID,
			field.Name,
			field.Area,
			field.CropID,
			string(field.SoilType),
			field.SoilPH,
			field.PlantingDate,
			field.ExpectedHarvestDate,
			string(field.GrowthStage),
			field.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update field: %w", conflict(err, "a field with this name already exists on the farm"))
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("field")
		}
		return nil
	})
}

// Delete deletes a field
func (r *FieldRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM fields WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("field")
	}
	return nil
}

// ListByFarm returns all fields of a farm by name
func (r *FieldRepository) ListByFarm(ctx context.Context, farmID uuid.UUID) ([]domain.Field, error) {
	return r.query(ctx, `SELECT `+fieldColumns+` FROM fields f WHERE f.farm_id = $1 ORDER BY f.name`, farmID)
}

// List lists fields. Filtering by owner joins the farm.
func (r *FieldRepository) List(ctx context.Context, filter *domain.FieldFilter, p pagination.Params) ([]domain.Field, int64, error) {
	var c conditions
	if filter != nil {
		if filter.FarmID != nil {
			c.add("f.farm_id = $%d", *filter.FarmID)
		}
		if filter.OwnerID != nil {
			c.add("fa.owner_id = $%d", *filter.OwnerID)
		}
		if filter.CropID != nil {
			c.add("f.crop_id = $%d", *filter.CropID)
		}
	}
	from := ` FROM fields f JOIN farms fa ON fa.id = f.farm_id`

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*)`+from+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count fields: %w", err)
	}

	limit, args := c.page(p)
	fields, err := r.query(ctx, `SELECT `+fieldColumns+from+c.where()+` ORDER BY f.created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	return fields, total, nil
}

// checkFarmArea locks the farm row and hands check the area covered by the
// farm's fields, leaving exclude out. A nil check takes no lock.
func checkFarmArea(ctx context.Context, tx pgx.Tx, farmID uuid.UUID, exclude *uuid.UUID, check domain.AreaCheck) error {
	if check == nil {
		return nil
	}
	farm, used, err := lockFarm(ctx, tx, farmID, exclude)
	if err != nil {
		return err
	}
	return check(farm, used)
}

// lockFarm selects the farm FOR UPDATE and sums the area of its fields.
// Field writes take the same lock, so the sum stays valid until commit.
func lockFarm(ctx context.Context, tx pgx.Tx, farmID uuid.UUID, exclude *uuid.UUID) (*domain.Farm, float64, error) {
	farm, err := scanFarm(tx.QueryRow(ctx, `SELECT `+farmColumns+` FROM farms WHERE id = $1 FOR UPDATE`, farmID))
	if err != nil {
		return nil, 0, notFound(err, "farm")
	}

	var c conditions
	c.add("farm_id = $%d", farmID)
	if exclude != nil {
		c.add("id <> $%d", *exclude)
	}
	var used float64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(area), 0) FROM fields`+c.where(), c.args...).Scan(&used); err != nil {
		return nil, 0, fmt.Errorf("failed to sum field area: %w", err)
	}
	return farm, used, nil
}

// Count returns the number of fields
func (r *FieldRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM fields`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count fields: %w", err)
	}
	return n, nil
}

func (r *FieldRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Field, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer rows.Close()

	var fields []domain.Field
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields = append(fields, *field)
	}
	return fields, rows.Err()
}
