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

const scheduleColumns = `s.id, s.field_id, s.scheduled_date, s.duration_minutes, s.water_amount_mm,
	s.method, s.status, s.notes, s.created_at, s.updated_at`

const insertSchedule = `
	INSERT INTO irrigation_schedules (id, field_id, scheduled_date, duration_minutes, water_amount_mm,
	                                  method, status, notes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// ScheduleRepository handles irrigation schedules in PostgreSQL
type ScheduleRepository struct {
	db *database.PostgresDB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *database.PostgresDB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func scanSchedule(row pgx.Row) (*domain.IrrigationSchedule, error) {
	var s domain.IrrigationSchedule
	err := row.Scan(
		&s.ID,
		&s.FieldID,
		&s.ScheduledDate,
		&s.DurationMinutes,
		&s.WaterAmountMM,
		&s.Method,
		&s.Status,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scheduleArgs(s *domain.IrrigationSchedule) []any {
	return []any{
		s.ID,
		s.FieldID,
		s.ScheduledDate,
		s.DurationMinutes,
		s.WaterAmountMM,
		string(s.Method),
		string(s.Status),
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	}
}

// Create creates a new schedule
func (r *ScheduleRepository) Create(ctx context.Context, schedule *domain.IrrigationSchedule) error {
	if _, err := r.db.Pool.Exec(ctx, insertSchedule, scheduleArgs(schedule)...); err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// CreateBatch inserts all schedules in one transaction
func (r *ScheduleRepository) CreateBatch(ctx context.Context, schedules []domain.IrrigationSchedule) error {
	if len(schedules) == 0 {
		return nil
	}
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range schedules {
			batch.Queue(insertSchedule, scheduleArgs(&schedules[i])...)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to create schedules: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a schedule by ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.IrrigationSchedule, error) {
	s, err := scanSchedule(r.db.Pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM irrigation_schedules s WHERE s.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", notFound(err, "schedule"))
	}
	return s, nil
}

// Update updates a schedule
func (r *ScheduleRepository) Update(ctx context.Context, s *domain.IrrigationSchedule) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE irrigation_schedules SET
			scheduled_date = $2, duration_minutes = $3, water_amount_mm = $4, method = $5,
			status = $6, notes = $7, updated_at = $8
		WHERE id = $1
	`,
		s.ID,
		s.ScheduledDate,
		s.DurationMinutes,
		s.WaterAmountMM,
		string(s.Method),
		string(s.Status),
		s.Notes,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("schedule")
	}
	return nil
}

// Delete deletes a schedule
func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM irrigation_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("schedule")
	}
	return nil
}

// List lists schedules in date order. Farm and owner filters join through the field.
func (r *ScheduleRepository) List(ctx context.Context, filter *domain.ScheduleFilter, p pagination.Params) ([]domain.IrrigationSchedule, int64, error) {
	var c conditions
	if filter != nil {
		if filter.FieldID != nil {
			c.add("s.field_id = $%d", *filter.FieldID)
		}
		if filter.FarmID != nil {
			c.add("f.farm_id = $%d", *filter.FarmID)
		}
		if filter.OwnerID != nil {
			c.add("fa.owner_id = $%d", *filter.OwnerID)
		}
		if filter.Status != nil {
			c.add("s.status = $%d", string(*filter.Status))
		}
		if filter.From != nil {
			c.add("s.scheduled_date >= $%d", *filter.From)
		}
		if filter.To != nil {
			c.add("s.scheduled_date <= $%d", *filter.To)
		}
	}
	from := ` FROM irrigation_schedules s
		JOIN fields f ON f.id = s.field_id
		JOIN farms fa ON fa.id = f.farm_id`

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*)`+from+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count schedules: %w", err)
	}

	limit, args := c.page(p)
	rows, err := r.db.Pool.Query(ctx, `SELECT `+scheduleColumns+from+c.where()+` ORDER BY s.scheduled_date, s.created_at`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.IrrigationSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, *s)
	}
	return schedules, total, rows.Err()
}
