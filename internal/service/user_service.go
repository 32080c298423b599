package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// UserService manages accounts and profiles
type UserService struct {
	users  UserRepository
	tokens *TokenManager
	log    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(users UserRepository, tokens *TokenManager, log *zap.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, log: log}
}

// Me returns the user with its profile
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*domain.UserWithProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.UserWithProfile{User: *user, Profile: profile}, nil
}

// UpdateProfile applies a partial update to the user's names and profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *domain.ProfileUpdateInput) (*domain.UserWithProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	profile, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	input.Apply(user, profile)
	now := time.Now().UTC()
	user.UpdatedAt = now
	profile.UpdatedAt = now

	if err := s.users.UpdateProfile(ctx, user, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &domain.UserWithProfile{User: *user, Profile: profile}, nil
}

// ChangePassword replaces the password and signs out every session
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, input *domain.ChangePasswordInput) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.OldPassword)); err != nil {
		return apperrors.Validation("current password is incorrect").WithDetail("oldPassword", "does not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		s.log.Warn("failed to revoke refresh tokens after password change", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return nil
}

// List lists accounts for staff
func (s *UserService) List(ctx context.Context, filter *domain.UserFilter, p pagination.Params) (pagination.Page[domain.User], error) {
	users, total, err := s.users.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[domain.User]{}, fmt.Errorf("failed to list users: %w", err)
	}
	return pagination.NewPage(users, p, total), nil
}

// SetStatus activates or deactivates an account. Deactivation signs the user out.
func (s *UserService) SetStatus(ctx context.Context, actor Actor, id uuid.UUID, active bool) (*domain.User, error) {
	if actor.UserID == id && !active {
		return nil, apperrors.BadRequest("you cannot deactivate your own account")
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	if !active {
		if err := s.tokens.RevokeAll(ctx, id); err != nil {
			s.log.Warn("failed to revoke refresh tokens", zap.String("user_id", id.String()), zap.Error(err))
		}
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// profile loads the profile, recreating the default for accounts that lost theirs
func (s *UserService) profile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return domain.DefaultProfile(userID), nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}
