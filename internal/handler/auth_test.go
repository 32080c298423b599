package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/testutil"
)

// MockAuthService mocks the auth service for testing.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input *domain.RegisterInput) (*domain.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, refreshToken string, claims *domain.JWTClaims) error {
	args := m.Called(ctx, refreshToken, claims)
	return args.Error(0)
}

// MockUserService mocks the user service for testing.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Me(ctx context.Context, userID uuid.UUID) (*domain.UserWithProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserWithProfile), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input *domain.ProfileUpdateInput) (*domain.UserWithProfile, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserWithProfile), args.Error(1)
}

func (m *MockUserService) ChangePassword(ctx context.Context, userID uuid.UUID, input *domain.ChangePasswordInput) error {
	args := m.Called(ctx, userID, input)
	return args.Error(0)
}

func (m *MockUserService) List(ctx context.Context, filter *domain.UserFilter, p pagination.Params) (pagination.Page[domain.User], error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).(pagination.Page[domain.User]), args.Error(1)
}

func (m *MockUserService) SetStatus(ctx context.Context, actor service.Actor, id uuid.UUID, active bool) (*domain.User, error) {
	args := m.Called(ctx, actor, id, active)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func setupAuthTestApp(authSvc *MockAuthService, userSvc *MockUserService, caller fiber.Handler) *fiber.App {
	app := newTestApp()
	h := NewAuthHandler(authSvc, userSvc, zap.NewNop())

	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/refresh", h.Refresh)

	authed := app.Group("", caller)
	authed.Post("/auth/logout", h.Logout)
	authed.Get("/auth/me", h.Me)
	authed.Put("/users/profile", h.UpdateProfile)
	authed.Post("/users/change-password", h.ChangePassword)
	authed.Get("/users", h.ListUsers)
	authed.Patch("/users/:id/status", h.SetUserStatus)

	return app
}

func anonymous(c *fiber.Ctx) error { return c.Next() }

func TestAuthHandler_Register(t *testing.T) {
	t.Run("creates account", func(t *testing.T) {
		authSvc := new(MockAuthService)
		user := testutil.NewTestUser()
		authSvc.On("Register", mock.Anything, mock.MatchedBy(func(in *domain.RegisterInput) bool {
			return in.Email == "farmer@example.com" && in.Username == "farmer1"
		})).Return(&domain.AuthResult{
			User:         user,
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresAt:    time.Now().Add(time.Hour),
		}, nil)

		app := setupAuthTestApp(authSvc, new(MockUserService), anonymous)
		resp, env := doJSON(t, app, http.MethodPost, "/auth/register", map[string]string{
			"email":    "farmer@example.com",
			"username": "farmer1",
			"password": "correct-horse",
		})

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.True(t, env.Success)

		var result domain.AuthResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		assert.Equal(t, "access", result.AccessToken)
		assert.Equal(t, "Bearer", result.TokenType)
		authSvc.AssertExpectations(t)
	})

	t.Run("rejects short password", func(t *testing.T) {
		authSvc := new(MockAuthService)
		app := setupAuthTestApp(authSvc, new(MockUserService), anonymous)

		resp, env := doJSON(t, app, http.MethodPost, "/auth/register", map[string]string{
			"email":    "farmer@example.com",
			"username": "farmer1",
			"password": "short",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperrors.CodeValidation, env.Code)
		assert.Contains(t, env.Details, "password")
		authSvc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		authSvc := new(MockAuthService)
		authSvc.On("Register", mock.Anything, mock.Anything).
			Return(nil, apperrors.Conflict("A user with this email already exists"))

		app := setupAuthTestApp(authSvc, new(MockUserService), anonymous)
		resp, env := doJSON(t, app, http.MethodPost, "/auth/register", map[string]string{
			"email":    "farmer@example.com",
			"username": "farmer1",
			"password": "correct-horse",
		})

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, apperrors.CodeConflict, env.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		app := setupAuthTestApp(new(MockAuthService), new(MockUserService), anonymous)

		resp, env := doJSON(t, app, http.MethodPost, "/auth/register", "{not json")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperrors.CodeBadRequest, env.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("invalid credentials", func(t *testing.T) {
		authSvc := new(MockAuthService)
		authSvc.On("Login", mock.Anything, mock.Anything).
			Return(nil, apperrors.Unauthorized("Invalid email or password"))

		app := setupAuthTestApp(authSvc, new(MockUserService), anonymous)
		resp, env := doJSON(t, app, http.MethodPost, "/auth/login", map[string]string{
			"email":    "farmer@example.com",
			"password": "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid email or password", env.Error)
	})

	t.Run("success", func(t *testing.T) {
		authSvc := new(MockAuthService)
		authSvc.On("Login", mock.Anything, &domain.LoginInput{Email: "farmer@example.com", Password: "pw"}).
			Return(&domain.AuthResult{User: testutil.NewTestUser(), AccessToken: "a", TokenType: "Bearer"}, nil)

		app := setupAuthTestApp(authSvc, new(MockUserService), anonymous)
		resp, env := doJSON(t, app, http.MethodPost, "/auth/login", map[string]string{
			"email":    "farmer@example.com",
			"password": "pw",
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, env.Success)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		app := setupAuthTestApp(new(MockAuthService), new(MockUserService), anonymous)

		resp, env := doJSON(t, app, http.MethodPost, "/auth/refresh", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Details, "refreshToken")
	})

	t.Run("rotates token", func(t *testing.T) {
		authSvc := new(MockAuthService)
		authSvc.On("Refresh", mock.Anything, "old").
			Return(&domain.AuthResult{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil)

		app := setupAuthTestApp(authSvc, new(MockUserService), anonymous)
		resp, _ := doJSON(t, app, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": "old"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		authSvc.AssertExpectations(t)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	userID := uuid.New()
	authSvc := new(MockAuthService)
	authSvc.On("Logout", mock.Anything, "r1", mock.MatchedBy(func(c *domain.JWTClaims) bool {
		return c != nil && c.UserID == userID.String()
	})).Return(nil)

	app := setupAuthTestApp(authSvc, new(MockUserService), testutil.TestUserMiddleware(userID))
	resp, _ := doJSON(t, app, http.MethodPost, "/auth/logout", map[string]string{"refreshToken": "r1"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	authSvc.AssertExpectations(t)
}

func TestAuthHandler_Me(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		app := setupAuthTestApp(new(MockAuthService), new(MockUserService), anonymous)

		resp, env := doJSON(t, app, http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, apperrors.CodeUnauthorized, env.Code)
	})

	t.Run("returns profile", func(t *testing.T) {
		user := testutil.NewTestUser()
		userSvc := new(MockUserService)
		userSvc.On("Me", mock.Anything, user.ID).Return(&domain.UserWithProfile{User: *user}, nil)

		app := setupAuthTestApp(new(MockAuthService), userSvc, testutil.TestUserMiddleware(user.ID))
		resp, env := doJSON(t, app, http.MethodGet, "/auth/me", nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var me domain.UserWithProfile
		require.NoError(t, json.Unmarshal(env.Data, &me))
		assert.Equal(t, user.Email, me.Email)
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	userID := uuid.New()
	userSvc := new(MockUserService)
	userSvc.On("ChangePassword", mock.Anything, userID, mock.Anything).
		Return(apperrors.Validation("Old password is incorrect").WithDetail("oldPassword", "incorrect"))

	app := setupAuthTestApp(new(MockAuthService), userSvc, testutil.TestUserMiddleware(userID))
	resp, env := doJSON(t, app, http.MethodPost, "/users/change-password", map[string]string{
		"oldPassword": "nope",
		"newPassword": "a-much-better-one",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "incorrect", env.Details["oldPassword"])
}

func TestAuthHandler_ListUsers(t *testing.T) {
	staffID := uuid.New()
	userSvc := new(MockUserService)
	active := true
	userSvc.On("List", mock.Anything, &domain.UserFilter{Search: "ram", IsActive: &active}, pagination.NewParams(2, 10)).
		Return(pagination.NewPage([]domain.User{*testutil.NewTestUser()}, pagination.NewParams(2, 10), 11), nil)

	app := setupAuthTestApp(new(MockAuthService), userSvc, testutil.TestStaffMiddleware(staffID))
	resp, env := doJSON(t, app, http.MethodGet, "/users?search=ram&isActive=true&page=2&page_size=10", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(11), env.Pagination.Count)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.False(t, env.Pagination.HasNext)
	userSvc.AssertExpectations(t)
}

func TestAuthHandler_SetUserStatus(t *testing.T) {
	staffID := uuid.New()
	target := uuid.New()

	t.Run("requires isActive", func(t *testing.T) {
		app := setupAuthTestApp(new(MockAuthService), new(MockUserService), testutil.TestStaffMiddleware(staffID))

		resp, env := doJSON(t, app, http.MethodPatch, "/users/"+target.String()+"/status", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Details, "isActive")
	})

	t.Run("deactivates", func(t *testing.T) {
		userSvc := new(MockUserService)
		userSvc.On("SetStatus", mock.Anything, service.Actor{UserID: staffID, IsStaff: true}, target, false).
			Return(&domain.User{ID: target}, nil)

		app := setupAuthTestApp(new(MockAuthService), userSvc, testutil.TestStaffMiddleware(staffID))
		resp, _ := doJSON(t, app, http.MethodPatch, "/users/"+target.String()+"/status", map[string]bool{"isActive": false})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		userSvc.AssertExpectations(t)
	})

	t.Run("bad id", func(t *testing.T) {
		app := setupAuthTestApp(new(MockAuthService), new(MockUserService), testutil.TestStaffMiddleware(staffID))

		resp, _ := doJSON(t, app, http.MethodPatch, "/users/not-a-uuid/status", map[string]bool{"isActive": true})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
