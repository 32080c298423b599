package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/middleware"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/validator"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// DataResponse is the body of every successful request
type DataResponse struct {
	Success    bool             `json:"success"`
	Data       any              `json:"data"`
	Pagination *pagination.Info `json:"pagination,omitempty"`
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(DataResponse{Success: true, Data: data})
}

func created(c *fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(DataResponse{Success: true, Data: data})
}

func paged[T any](c *fiber.Ctx, page pagination.Page[T]) error {
	return c.JSON(DataResponse{Success: true, Data: page.Results, Pagination: &page.Info})
}

func fail(c *fiber.Ctx, status int, code, message string, details map[string]string) error {
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// errorResponse writes err as an envelope. Application errors keep their
// status; anything else is logged and reported as a 500.
func errorResponse(c *fiber.Ctx, log *zap.Logger, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return fail(c, fiber.StatusBadRequest, apperrors.CodeValidation, "Validation failed", verrs.Details())
	}

	if appErr := apperrors.GetAppError(err); appErr != nil {
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			middleware.CaptureError(c, err)
		}
		return fail(c, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, codeForStatus(fe.Code), fe.Message, nil)
	}

	log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	middleware.CaptureError(c, err)
	return fail(c, fiber.StatusInternalServerError, apperrors.CodeInternal, "An unexpected error occurred", nil)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case fiber.StatusForbidden:
		return apperrors.CodeForbidden
	case fiber.StatusConflict:
		return apperrors.CodeConflict
	case fiber.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	case fiber.StatusServiceUnavailable:
		return apperrors.CodeUnavailable
	}
	if status >= fiber.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return apperrors.CodeBadRequest
}

// ErrorHandler is the Fiber application error handler. It writes the same
// envelope as the handlers for errors that escape them, such as unknown
// routes or oversized bodies.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return errorResponse(c, log, err)
	}
}

// actor builds the service actor from the authenticated request
func actor(c *fiber.Ctx) (service.Actor, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return service.Actor{}, apperrors.Unauthorized("Authentication required")
	}
	return service.Actor{UserID: userID, IsStaff: middleware.IsStaff(c)}, nil
}

// parseBody decodes the JSON body into dest and validates it
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return apperrors.BadRequest("Invalid request body")
	}
	return validator.Validate(dest)
}

// paramUUID parses a UUID route parameter
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("Invalid " + name).WithDetail(name, "must be a UUID")
	}
	return id, nil
}

// queryUUID parses an optional UUID query parameter
func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid " + name).WithDetail(name, "must be a UUID")
	}
	return &id, nil
}

// pageParams reads page and page_size query parameters
func pageParams(c *fiber.Ctx) pagination.Params {
	return pagination.NewParams(c.QueryInt("page", 1), c.QueryInt("page_size", pagination.DefaultPageSize))
}

// queryFloat parses a required float query parameter
func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, apperrors.Validation(name + " is required").WithDetail(name, "is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Validation("Invalid " + name).WithDetail(name, "must be a number")
	}
	return v, nil
}

// queryIntRange parses an optional integer query parameter bounded to [lo, hi]
func queryIntRange(c *fiber.Ctx, name string, def, lo, hi int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, apperrors.Validation("Invalid "+name).
			WithDetail(name, "must be an integer between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
	}
	return v, nil
}

// queryDate parses an optional date (2006-01-02) or RFC 3339 query parameter
func queryDate(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperrors.Validation("Invalid " + name).WithDetail(name, "must be a date (YYYY-MM-DD)")
}
