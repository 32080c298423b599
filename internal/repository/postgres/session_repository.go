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

const sessionColumns = `id, farm_id, user_id, title, query, season, status, recommendations,
	summary, confidence, created_at, updated_at, completed_at`

// SessionRepository handles advisory sessions in PostgreSQL
type SessionRepository struct {
	db *database.PostgresDB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.PostgresDB) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*domain.AdvisorySession, error) {
	var s domain.AdvisorySession
	err := row.Scan(
		&s.ID,
		&s.FarmID,
		&s.UserID,
		&s.Title,
		&s.Query,
		&s.Season,
		&s.Status,
		&s.Recommendations,
		&s.Summary,
		&s.Confidence,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.Recommendations == nil {
		s.Recommendations = []domain.Recommendation{}
	}
	return &s, nil
}

func recommendations(s *domain.AdvisorySession) []domain.Recommendation {
	if s.Recommendations == nil {
		return []domain.Recommendation{}
	}
	return s.Recommendations
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *domain.AdvisorySession) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO advisory_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		session.ID,
		session.FarmID,
		session.UserID,
		session.Title,
		session.Query,
		string(session.Season),
		string(session.Status),
		recommendations(session),
		session.Summary,
		session.Confidence,
		session.CreatedAt,
		session.UpdatedAt,
		session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AdvisorySession, error) {
	session, err := scanSession(r.db.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM advisory_sessions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", notFound(err, "session"))
	}
	return session, nil
}

// Update writes every mutable column of the session
func (r *SessionRepository) Update(ctx context.Context, session *domain.AdvisorySession) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE advisory_sessions SET
			title = $2, query = $3, season = $4, status = $5, recommendations = $6,
			summary = $7, confidence = $8, updated_at = $9, completed_at = $10
		WHERE id = $1
	`,
		session.ID,
		session.Title,
		session.Query,
		string(session.Season),
		string(session.Status),
		recommendations(session),
		session.Summary,
		session.Confidence,
		session.UpdatedAt,
		session.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("session")
	}
	return nil
}

// Delete deletes a session
func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM advisory_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("session")
	}
	return nil
}

// List lists sessions, most recently updated first
func (r *SessionRepository) List(ctx context.Context, filter *domain.SessionFilter, p pagination.Params) ([]domain.AdvisorySession, int64, error) {
	var c conditions
	if filter != nil {
		if filter.UserID != nil {
			c.add("user_id = $%d", *filter.UserID)
		}
		if filter.FarmID != nil {
			c.add("farm_id = $%d", *filter.FarmID)
		}
		if filter.Status != nil {
			c.add("status = $%d", string(*filter.Status))
		}
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM advisory_sessions`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	limit, args := c.page(p)
	rows, err := r.db.Pool.Query(ctx, `SELECT `+sessionColumns+` FROM advisory_sessions`+c.where()+` ORDER BY updated_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.AdvisorySession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, total, rows.Err()
}

// CountActive counts the active sessions of a farm
func (r *SessionRepository) CountActive(ctx context.Context, farmID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM advisory_sessions WHERE farm_id = $1 AND status = $2
	`, farmID, string(domain.SessionActive)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// CountAllActive counts active sessions across all farms
func (r *SessionRepository) CountAllActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM advisory_sessions WHERE status = $1`, string(domain.SessionActive)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// LatestWithRecommendations returns the most recently updated session of
// the farm that has recommendations
func (r *SessionRepository) LatestWithRecommendations(ctx context.Context, farmID uuid.UUID) (*domain.AdvisorySession, error) {
	session, err := scanSession(r.db.Pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM advisory_sessions
		WHERE farm_id = $1 AND jsonb_array_length(recommendations) > 0
		ORDER BY updated_at DESC
		LIMIT 1
	`, farmID))
	if err != nil {
		return nil, fmt.Errorf("failed to get latest session: %w", notFound(err, "session"))
	}
	return session, nil
}

// ArchiveInactive archives active sessions not updated since before
func (r *SessionRepository) ArchiveInactive(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE advisory_sessions SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < $3
	`, string(domain.SessionArchived), string(domain.SessionActive), before)
	if err != nil {
		return 0, fmt.Errorf("failed to archive sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
