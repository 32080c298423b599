package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
)

// AdvisoryService runs advisory sessions
type AdvisoryService interface {
	Start(ctx context.Context, actor service.Actor, input *domain.SessionInput) (*domain.AdvisorySession, error)
	Get(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.AdvisorySession, error)
	Update(ctx context.Context, actor service.Actor, id uuid.UUID, input *domain.SessionUpdateInput) (*domain.AdvisorySession, error)
	Delete(ctx context.Context, actor service.Actor, id uuid.UUID) error
	List(ctx context.Context, actor service.Actor, filter *domain.SessionFilter, p pagination.Params) (pagination.Page[domain.AdvisorySession], error)
	Generate(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.AdvisorySession, error)
	Complete(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.AdvisorySession, error)
	Archive(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.AdvisorySession, error)
	Advice(ctx context.Context, actor service.Actor, req *domain.AdviceRequest) (*domain.ComprehensiveAdvice, error)
}

// AlertService lists and acknowledges alerts
type AlertService interface {
	List(ctx context.Context, userID uuid.UUID, farmID *uuid.UUID, unreadOnly bool, p pagination.Params) (pagination.Page[domain.Alert], error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AdvisoryHandler handles advisory session and alert endpoints
type AdvisoryHandler struct {
	advisory AdvisoryService
	alerts   AlertService
	logger   *zap.Logger
}

// NewAdvisoryHandler creates a new advisory handler
func NewAdvisoryHandler(advisory AdvisoryService, alerts AlertService, logger *zap.Logger) *AdvisoryHandler {
	return &AdvisoryHandler{
		advisory: advisory,
		alerts:   alerts,
		logger:   logger,
	}
}

// ListSessions handles GET /advisory/sessions
func (h *AdvisoryHandler) ListSessions(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	filter := &domain.SessionFilter{}
	if filter.FarmID, err = queryUUID(c, "farmId"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if status := domain.SessionStatus(c.Query("status")); status != "" {
		filter.Status = &status
	}

	page, err := h.advisory.List(c.Context(), a, filter, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// StartSession handles POST /advisory/sessions
func (h *AdvisoryHandler) StartSession(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.SessionInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	session, err := h.advisory.Start(c.Context(), a, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, session)
}

// GetSession handles GET /advisory/sessions/:id
func (h *AdvisoryHandler) GetSession(c *fiber.Ctx) error {
	return h.sessionAction(c, h.advisory.Get)
}

// UpdateSession handles PUT and PATCH /advisory/sessions/:id
func (h *AdvisoryHandler) UpdateSession(c *fiber.Ctx) error {
	var input domain.SessionUpdateInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}
	return h.sessionAction(c, func(ctx context.Context, a service.Actor, id uuid.UUID) (*domain.AdvisorySession, error) {
		return h.advisory.Update(ctx, a, id, &input)
	})
}

// DeleteSession handles DELETE /advisory/sessions/:id
func (h *AdvisoryHandler) DeleteSession(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	if err := h.advisory.Delete(c.Context(), a, id); err != nil {
		return errorResponse(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Generate handles POST /advisory/sessions/:id/generate
func (h *AdvisoryHandler) Generate(c *fiber.Ctx) error {
	return h.sessionAction(c, h.advisory.Generate)
}

// Complete handles POST /advisory/sessions/:id/complete
func (h *AdvisoryHandler) Complete(c *fiber.Ctx) error {
	return h.sessionAction(c, h.advisory.Complete)
}

// Archive handles POST /advisory/sessions/:id/archive
func (h *AdvisoryHandler) Archive(c *fiber.Ctx) error {
	return h.sessionAction(c, h.advisory.Archive)
}

// Advice handles POST /advisory/advice
func (h *AdvisoryHandler) Advice(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.AdviceRequest
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	advice, err := h.advisory.Advice(c.Context(), a, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, advice)
}

// ListAlerts handles GET /advisory/alerts
func (h *AdvisoryHandler) ListAlerts(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	farmID, err := queryUUID(c, "farmId")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	page, err := h.alerts.List(c.Context(), a.UserID, farmID, c.QueryBool("unread", false), pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// MarkAlertRead handles POST /advisory/alerts/:id/read
func (h *AdvisoryHandler) MarkAlertRead(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	if err := h.alerts.MarkRead(c.Context(), a.UserID, id); err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, fiber.Map{"id": id, "isRead": true})
}

// MarkAllAlertsRead handles POST /advisory/alerts/read-all
func (h *AdvisoryHandler) MarkAllAlertsRead(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	n, err := h.alerts.MarkAllRead(c.Context(), a.UserID)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, fiber.Map{"updated": n, "at": time.Now().UTC()})
}

func (h *AdvisoryHandler) sessionAction(c *fiber.Ctx, fn func(context.Context, service.Actor, uuid.UUID) (*domain.AdvisorySession, error)) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	session, err := fn(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, session)
}
