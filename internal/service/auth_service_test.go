package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:        "test-secret-key-for-testing-only",
			Issuer:        "smartcrop-test",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 24 * time.Hour,
		},
	}
}

func newTestAuthService(users *MockUserRepository) (*AuthService, *TokenManager) {
	tokens := NewTokenManager(database.NewLocalKV(1000, time.Hour), time.Hour)
	return NewAuthService(testConfig(), users, tokens, zap.NewNop()), tokens
}

func hashedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           uuid.New(),
		Email:        "asha@example.com",
		Username:     "asha",
		PasswordHash: string(hash),
		IsActive:     true,
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with profile and tokens", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, _ := newTestAuthService(users)

		users.On("ExistsByEmail", ctx, "asha@example.com").Return(false, nil)
		users.On("ExistsByUsername", ctx, "asha").Return(false, nil)
		users.On("Create", ctx, mock.AnythingOfType("*domain.User"), mock.AnythingOfType("*domain.UserProfile")).Return(nil)

		result, err := svc.Register(ctx, &domain.RegisterInput{
			Email:    "  Asha@Example.com ",
			Username: "asha",
			Password: "password123",
		})

		require.NoError(t, err)
		assert.Equal(t, "asha@example.com", result.User.Email)
		assert.True(t, result.User.IsActive)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "Bearer", result.TokenType)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte("password123")))
		users.AssertExpectations(t)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, _ := newTestAuthService(users)
		users.On("ExistsByEmail", ctx, "asha@example.com").Return(true, nil)

		_, err := svc.Register(ctx, &domain.RegisterInput{Email: "asha@example.com", Username: "asha", Password: "password123"})

		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, _ := newTestAuthService(users)
		users.On("ExistsByEmail", ctx, "asha@example.com").Return(false, nil)
		users.On("ExistsByUsername", ctx, "asha").Return(true, nil)

		_, err := svc.Register(ctx, &domain.RegisterInput{Email: "asha@example.com", Username: "asha", Password: "password123"})

		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, _ := newTestAuthService(users)
		user := hashedUser(t, "password123")

		users.On("GetByEmail", ctx, "asha@example.com").Return(user, nil)
		users.On("UpdateLastLogin", ctx, user.ID, mock.AnythingOfType("time.Time")).Return(nil)

		result, err := svc.Login(ctx, &domain.LoginInput{Email: "ASHA@example.com", Password: "password123"})

		require.NoError(t, err)
		assert.Equal(t, user.ID, result.User.ID)
		assert.NotNil(t, result.User.LastLogin)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, _ := newTestAuthService(users)
		users.On("GetByEmail", ctx, "asha@example.com").Return(hashedUser(t, "password123"), nil)

		_, err := svc.Login(ctx, &domain.LoginInput{Email: "asha@example.com", Password: "nope"})

		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, _ := newTestAuthService(users)
		users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.NotFound("user"))

		_, err := svc.Login(ctx, &domain.LoginInput{Email: "ghost@example.com", Password: "password123"})

		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("disabled account", func(t *testing.T) {
		users := new(MockUserRepository)
		svc, _ := newTestAuthService(users)
		user := hashedUser(t, "password123")
		user.IsActive = false
		users.On("GetByEmail", ctx, "asha@example.com").Return(user, nil)

		_, err := svc.Login(ctx, &domain.LoginInput{Email: "asha@example.com", Password: "password123"})

		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
		users.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc, tokens := newTestAuthService(users)
	user := hashedUser(t, "password123")
	users.On("GetByID", ctx, user.ID).Return(user, nil)

	refresh, err := tokens.Issue(ctx, user.ID)
	require.NoError(t, err)

	result, err := svc.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.NotEqual(t, refresh, result.RefreshToken)

	_, err = svc.Refresh(ctx, refresh)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err), "refresh tokens are single use")

	claims, err := svc.ValidateJWT(ctx, result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.NotEmpty(t, claims.ID)

	require.NoError(t, svc.Logout(ctx, result.RefreshToken, claims))

	_, err = svc.Refresh(ctx, result.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = svc.ValidateJWT(ctx, result.AccessToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestAuthService_ValidateJWT(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc, _ := newTestAuthService(users)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateJWT(ctx, "not-a-token")
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("other issuer", func(t *testing.T) {
		cfg := testConfig()
		cfg.JWT.Issuer = "someone-else"
		other := NewAuthService(cfg, users, NewTokenManager(database.NewLocalKV(10, time.Hour), time.Hour), zap.NewNop())
		token, _, err := other.generateAccessToken(hashedUser(t, "password123"))
		require.NoError(t, err)

		_, err = svc.ValidateJWT(ctx, token)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("staff claim survives round trip", func(t *testing.T) {
		user := hashedUser(t, "password123")
		user.IsStaff = true
		token, _, err := svc.generateAccessToken(user)
		require.NoError(t, err)

		claims, err := svc.ValidateJWT(ctx, token)
		require.NoError(t, err)
		assert.True(t, claims.IsStaff)
		assert.Equal(t, user.Email, claims.Email)
	})
}

func TestTokenManager_RevokeAll(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenManager(database.NewLocalKV(100, time.Hour), time.Hour)
	userID := uuid.New()

	a, err := tokens.Issue(ctx, userID)
	require.NoError(t, err)
	b, err := tokens.Issue(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	require.NoError(t, tokens.RevokeAll(ctx, userID))

	for _, tok := range []string{a, b} {
		_, err := tokens.Resolve(ctx, tok)
		assert.True(t, apperrors.IsUnauthorized(err))
	}
}
