package handler

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/middleware"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
)

// AuthService is the authentication surface the handlers use
type AuthService interface {
	Register(ctx context.Context, input *domain.RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, input *domain.LoginInput) (*domain.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	Logout(ctx context.Context, refreshToken string, claims *domain.JWTClaims) error
}

// UserService manages accounts and profiles
type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (*domain.UserWithProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *domain.ProfileUpdateInput) (*domain.UserWithProfile, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, input *domain.ChangePasswordInput) error
	List(ctx context.Context, filter *domain.UserFilter, p pagination.Params) (pagination.Page[domain.User], error)
	SetStatus(ctx context.Context, actor service.Actor, id uuid.UUID, active bool) (*domain.User, error)
}

// AuthHandler handles authentication and account endpoints
type AuthHandler struct {
	authService AuthService
	userService UserService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, userService UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		logger:      logger,
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type statusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input domain.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	result, err := h.authService.Register(c.Context(), &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, result)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	result, err := h.authService.Login(c.Context(), &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, result)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input refreshRequest
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	result, err := h.authService.Refresh(c.Context(), input.RefreshToken)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, result)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input logoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return errorResponse(c, h.logger, apperrors.BadRequest("Invalid request body"))
		}
	}

	claims, _ := middleware.GetClaims(c)
	if err := h.authService.Logout(c.Context(), input.RefreshToken, claims); err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, fiber.Map{"message": "Logged out"})
}

// Me handles GET /auth/me and GET /users/profile
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	me, err := h.userService.Me(c.Context(), a.UserID)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, me)
}

// UpdateProfile handles PUT /users/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.ProfileUpdateInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	me, err := h.userService.UpdateProfile(c.Context(), a.UserID, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, me)
}

// ChangePassword handles POST /users/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.ChangePasswordInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	if err := h.userService.ChangePassword(c.Context(), a.UserID, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, fiber.Map{"message": "Password changed"})
}

// ListUsers handles GET /users (staff)
func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	filter := &domain.UserFilter{Search: c.Query("search")}
	if raw := c.Query("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return errorResponse(c, h.logger, apperrors.Validation("Invalid isActive").WithDetail("isActive", "must be true or false"))
		}
		filter.IsActive = &active
	}

	page, err := h.userService.List(c.Context(), filter, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// SetUserStatus handles PATCH /users/:id/status (staff)
func (h *AuthHandler) SetUserStatus(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input statusRequest
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	user, err := h.userService.SetStatus(c.Context(), a, id, *input.IsActive)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, user)
}
