package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// AlertRepository handles user alerts in PostgreSQL
type AlertRepository struct {
	db *database.PostgresDB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.PostgresDB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create creates a new alert
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO alerts (id, farm_id, user_id, type, severity, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		alert.ID,
		alert.FarmID,
		alert.UserID,
		string(alert.Type),
		string(alert.Severity),
		alert.Title,
		alert.Message,
		alert.IsRead,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

// List lists a user's alerts, newest first
func (r *AlertRepository) List(ctx context.Context, filter *domain.AlertFilter, p pagination.Params) ([]domain.Alert, int64, error) {
	var c conditions
	c.add("user_id = $%d", filter.UserID)
	if filter.FarmID != nil {
		c.add("farm_id = $%d", *filter.FarmID)
	}
	if filter.UnreadOnly {
		c.raw("NOT is_read")
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	limit, args := c.page(p)
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, farm_id, user_id, type, severity, title, message, is_read, created_at
		FROM alerts`+c.where()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.FarmID, &a.UserID, &a.Type, &a.Severity, &a.Title, &a.Message, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, total, rows.Err()
}

// MarkRead marks one of userID's alerts read
func (r *AlertRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE alerts SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("alert")
	}
	return nil
}

// MarkAllRead marks every unread alert of the user read
func (r *AlertRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE alerts SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark alerts read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountUnread counts a user's unread alerts, optionally for one farm
func (r *AlertRepository) CountUnread(ctx context.Context, userID uuid.UUID, farmID *uuid.UUID) (int64, error) {
	var c conditions
	c.add("user_id = $%d", userID)
	c.raw("NOT is_read")
	if farmID != nil {
		c.add("farm_id = $%d", *farmID)
	}

	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts`+c.where(), c.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

// ExistsSince reports whether an alert with this title was raised for the farm after since
func (r *AlertRepository) ExistsSince(ctx context.Context, farmID uuid.UUID, alertType domain.AlertType, title string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM alerts
			WHERE farm_id = $1 AND type = $2 AND title = $3 AND created_at > $4
		)
	`, farmID, string(alertType), title, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check alert: %w", err)
	}
	return exists, nil
}
