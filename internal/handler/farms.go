package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
)

// FarmService manages farms
type FarmService interface {
	Create(ctx context.Context, actor service.Actor, input *domain.FarmInput) (*domain.Farm, error)
	Get(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.Farm, error)
	Update(ctx context.Context, actor service.Actor, id uuid.UUID, input *domain.FarmUpdateInput) (*domain.Farm, error)
	Delete(ctx context.Context, actor service.Actor, id uuid.UUID) error
	List(ctx context.Context, actor service.Actor, filter *domain.FarmFilter, p pagination.Params) (pagination.Page[domain.Farm], error)
	Activities(ctx context.Context, actor service.Actor, id uuid.UUID, p pagination.Params) (pagination.Page[domain.FarmActivity], error)
	Dashboard(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.FarmDashboard, error)
}

// FieldService manages fields
type FieldService interface {
	Create(ctx context.Context, actor service.Actor, input *domain.FieldInput) (*domain.Field, error)
	Get(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.Field, error)
	Update(ctx context.Context, actor service.Actor, id uuid.UUID, input *domain.FieldUpdateInput) (*domain.Field, error)
	Delete(ctx context.Context, actor service.Actor, id uuid.UUID) error
	List(ctx context.Context, actor service.Actor, filter *domain.FieldFilter, p pagination.Params) (pagination.Page[domain.Field], error)
	PredictYield(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.YieldPrediction, error)
}

// FarmsHandler handles farm and field endpoints
type FarmsHandler struct {
	farms  FarmService
	fields FieldService
	logger *zap.Logger
}

// NewFarmsHandler creates a new farms handler
func NewFarmsHandler(farms FarmService, fields FieldService, logger *zap.Logger) *FarmsHandler {
	return &FarmsHandler{
		farms:  farms,
		fields: fields,
		logger: logger,
	}
}

// ListFarms handles GET /farms
func (h *FarmsHandler) ListFarms(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	filter := &domain.FarmFilter{Search: c.Query("search")}
	if soil := domain.SoilType(c.Query("soilType")); soil != "" {
		filter.SoilType = &soil
	}

	page, err := h.farms.List(c.Context(), a, filter, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// CreateFarm handles POST /farms
func (h *FarmsHandler) CreateFarm(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.FarmInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	farm, err := h.farms.Create(c.Context(), a, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, farm)
}

// GetFarm handles GET /farms/:id
func (h *FarmsHandler) GetFarm(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	farm, err := h.farms.Get(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, farm)
}

// UpdateFarm handles PUT and PATCH /farms/:id
func (h *FarmsHandler) UpdateFarm(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.FarmUpdateInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	farm, err := h.farms.Update(c.Context(), a, id, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, farm)
}

// DeleteFarm handles DELETE /farms/:id
func (h *FarmsHandler) DeleteFarm(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	if err := h.farms.Delete(c.Context(), a, id); err != nil {
		return errorResponse(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Activities handles GET /farms/:id/activities
func (h *FarmsHandler) Activities(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	page, err := h.farms.Activities(c.Context(), a, id, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// Dashboard handles GET /farms/:id/dashboard
func (h *FarmsHandler) Dashboard(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	dashboard, err := h.farms.Dashboard(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, dashboard)
}

// ListFields handles GET /fields
func (h *FarmsHandler) ListFields(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	filter := &domain.FieldFilter{}
	if filter.FarmID, err = queryUUID(c, "farmId"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if filter.CropID, err = queryUUID(c, "cropId"); err != nil {
		return errorResponse(c, h.logger, err)
	}

	page, err := h.fields.List(c.Context(), a, filter, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// CreateField handles POST /fields
func (h *FarmsHandler) CreateField(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.FieldInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	field, err := h.fields.Create(c.Context(), a, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, field)
}

// GetField handles GET /fields/:id
func (h *FarmsHandler) GetField(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	field, err := h.fields.Get(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, field)
}

// UpdateField handles PUT and PATCH /fields/:id
func (h *FarmsHandler) UpdateField(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.FieldUpdateInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	field, err := h.fields.Update(c.Context(), a, id, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, field)
}

// DeleteField handles DELETE /fields/:id
func (h *FarmsHandler) DeleteField(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	if err := h.fields.Delete(c.Context(), a, id); err != nil {
		return errorResponse(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PredictYield handles GET /fields/:id/yield-prediction
func (h *FarmsHandler) PredictYield(c *fiber.Ctx) error {
	a, id, err := h.target(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	prediction, err := h.fields.PredictYield(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, prediction)
}

func (h *FarmsHandler) target(c *fiber.Ctx) (service.Actor, uuid.UUID, error) {
	a, err := actor(c)
	if err != nil {
		return a, uuid.Nil, err
	}
	id, err := paramUUID(c, "id")
	return a, id, err
}
