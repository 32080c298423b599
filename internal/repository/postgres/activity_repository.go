package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// ActivityRepository stores the farm audit trail through sqlx
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type activityRow struct {
	domain.FarmActivity
	MetadataJSON []byte `db:"metadata"`
}

// Create appends an entry to the farm's activity log
func (r *ActivityRepository) Create(ctx context.Context, activity *domain.FarmActivity) error {
	metadata := activity.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode activity metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO farm_activities (id, farm_id, user_id, action, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		activity.ID, activity.FarmID, activity.UserID, activity.Action, activity.Description, metadataJSON, activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// ListByFarm returns a farm's activity, newest first
func (r *ActivityRepository) ListByFarm(ctx context.Context, farmID uuid.UUID, p pagination.Params) ([]domain.FarmActivity, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM farm_activities WHERE farm_id = $1`, farmID); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	var rows []activityRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, farm_id, user_id, action, description, metadata, created_at
		FROM farm_activities
		WHERE farm_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		farmID, p.Limit(), p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}

	activities := make([]domain.FarmActivity, 0, len(rows))
	for _, row := range rows {
		a := row.FarmActivity
		if len(row.MetadataJSON) > 0 {
			if err := json.Unmarshal(row.MetadataJSON, &a.Metadata); err != nil {
				return nil, 0, fmt.Errorf("failed to decode activity metadata: %w", err)
			}
		}
		activities = append(activities, a)
	}
	return activities, total, nil
}
