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

const userColumns = `id, email, username, password_hash, first_name, last_name, is_active, is_staff, last_login, created_at, updated_at`

// UserRepository handles user data operations in PostgreSQL
type UserRepository struct {
	db *database.PostgresDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.IsActive,
		&user.IsStaff,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts the user and its profile in one transaction
func (r *UserRepository) Create(ctx context.Context, user *domain.User, profile *domain.UserProfile) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, username, password_hash, first_name, last_name, is_active, is_staff, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			user.ID,
			user.Email,
			user.Username,
			user.PasswordHash,
			user.FirstName,
			user.LastName,
			user.IsActive,
			user.IsStaff,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", conflict(err, "email or username already registered"))
		}
		if err := upsertProfile(ctx, tx, profile); err != nil {
			return err
		}
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound(err, "user"))
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", notFound(err, "user"))
	}
	return user, nil
}

// ExistsByEmail checks if an email is already registered
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// ExistsByUsername checks if a username is taken
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// UpdateLastLogin records a successful sign in
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// SetActive enables or disables an account
func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

// GetProfile retrieves the profile of a user
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := r.db.Pool.QueryRow(ctx, `
		SELECT user_id, phone, role, language, location, latitude, longitude,
		       farming_experience_years, preferred_crops, notify_email, notify_sms, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.Phone,
		&p.Role,
		&p.Language,
		&p.Location,
		&p.Latitude,
		&p.Longitude,
		&p.FarmingExperienceYears,
		&p.PreferredCrops,
		&p.NotifyEmail,
		&p.NotifySMS,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", notFound(err, "profile"))
	}
	return &p, nil
}

// UpdateProfile writes the user's names and its profile in one transaction
func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User, profile *domain.UserProfile) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE users SET first_name = $2, last_name = $3, updated_at = $4 WHERE id = $1
		`, user.ID, user.FirstName, user.LastName, user.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		return upsertProfile(ctx, tx, profile)
	})
}

func upsertProfile(ctx context.Context, tx pgx.Tx, p *domain.UserProfile) error {
	crops := p.PreferredCrops
	if crops == nil {
		crops = []string{}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO user_profiles (user_id, phone, role, language, location, latitude, longitude,
		                           farming_experience_years, preferred_crops, notify_email, notify_sms, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			language = EXCLUDED.language,
			location = EXCLUDED.location,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			farming_experience_years = EXCLUDED.farming_experience_years,
			preferred_crops = EXCLUDED.preferred_crops,
			notify_email = EXCLUDED.notify_email,
			notify_sms = EXCLUDED.notify_sms,
			updated_at = EXCLUDED.updated_at
	`,
		p.UserID,
		p.Phone,
		p.Role,
		p.Language,
		p.Location,
		p.Latitude,
		p.Longitude,
		p.FarmingExperienceYears,
		crops,
		p.NotifyEmail,
		p.NotifySMS,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// List lists users for staff, newest first
func (r *UserRepository) List(ctx context.Context, filter *domain.UserFilter, p pagination.Params) ([]domain.User, int64, error) {
	var c conditions
	if filter != nil {
		if filter.Search != "" {
			c.add("(email ILIKE $%[1]d OR username ILIKE $%[1]d)", "%"+filter.Search+"%")
		}
		if filter.IsActive != nil {
			c.add("is_active = $%d", *filter.IsActive)
		}
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit, args := c.page(p)
	rows, err := r.db.Pool.Query(ctx, `SELECT `+userColumns+` FROM users`+c.where()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

// Count returns the number of users
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
