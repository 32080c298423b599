package handler

import (
	"bytes"
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/validator"
)

// IrrigationService plans and tracks irrigation
type IrrigationService interface {
	CreateSchedule(ctx context.Context, actor service.Actor, input *domain.ScheduleInput) (*domain.IrrigationSchedule, error)
	GetSchedule(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.IrrigationSchedule, error)
	UpdateSchedule(ctx context.Context, actor service.Actor, id uuid.UUID, input *domain.ScheduleUpdateInput) (*domain.IrrigationSchedule, error)
	DeleteSchedule(ctx context.Context, actor service.Actor, id uuid.UUID) error
	ListSchedules(ctx context.Context, actor service.Actor, filter *domain.ScheduleFilter, p pagination.Params) (pagination.Page[domain.IrrigationSchedule], error)
	CompleteSchedule(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.IrrigationSchedule, error)
	SkipSchedule(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.IrrigationSchedule, error)
	RecordMoisture(ctx context.Context, actor service.Actor, readings []domain.SoilMoistureReading) (int, error)
	MoistureHistory(ctx context.Context, actor service.Actor, fieldID uuid.UUID, hours int) ([]domain.SoilMoistureReading, error)
	Analyze(ctx context.Context, actor service.Actor, fieldID uuid.UUID) (*domain.MoistureAnalysis, error)
	Optimize(ctx context.Context, actor service.Actor, fieldID uuid.UUID, req *domain.OptimizeRequest) (*domain.IrrigationPlan, error)
	ET0(input *domain.ET0Input, stage domain.GrowthStage) domain.ET0Result
}

// IrrigationHandler handles irrigation endpoints
type IrrigationHandler struct {
	irrigation IrrigationService
	logger     *zap.Logger
}

// NewIrrigationHandler creates a new irrigation handler
func NewIrrigationHandler(irrigation IrrigationService, logger *zap.Logger) *IrrigationHandler {
	return &IrrigationHandler{
		irrigation: irrigation,
		logger:     logger,
	}
}

type moistureBatch struct {
	Readings []domain.SoilMoistureReading `json:"readings" validate:"required,min=1,max=1000,dive"`
}

type et0Request struct {
	domain.ET0Input
	GrowthStage domain.GrowthStage `json:"growthStage"`
}

// ListSchedules handles GET /irrigation/schedules
func (h *IrrigationHandler) ListSchedules(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	filter := &domain.ScheduleFilter{}
	if filter.FieldID, err = queryUUID(c, "fieldId"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if filter.FarmID, err = queryUUID(c, "farmId"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if filter.From, err = queryDate(c, "from"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if status := domain.ScheduleStatus(c.Query("status")); status != "" {
		filter.Status = &status
	}

	page, err := h.irrigation.ListSchedules(c.Context(), a, filter, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// CreateSchedule handles POST /irrigation/schedules
func (h *IrrigationHandler) CreateSchedule(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.ScheduleInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	schedule, err := h.irrigation.CreateSchedule(c.Context(), a, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, schedule)
}

// GetSchedule handles GET /irrigation/schedules/:id
func (h *IrrigationHandler) GetSchedule(c *fiber.Ctx) error {
	return h.scheduleAction(c, h.irrigation.GetSchedule)
}

// UpdateSchedule handles PUT and PATCH /irrigation/schedules/:id
func (h *IrrigationHandler) UpdateSchedule(c *fiber.Ctx) error {
	var input domain.ScheduleUpdateInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}
	return h.scheduleAction(c, func(ctx context.Context, a service.Actor, id uuid.UUID) (*domain.IrrigationSchedule, error) {
		return h.irrigation.UpdateSchedule(ctx, a, id, &input)
	})
}

// DeleteSchedule handles DELETE /irrigation/schedules/:id
func (h *IrrigationHandler) DeleteSchedule(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	if err := h.irrigation.DeleteSchedule(c.Context(), a, id); err != nil {
		return errorResponse(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CompleteSchedule handles POST /irrigation/schedules/:id/complete
func (h *IrrigationHandler) CompleteSchedule(c *fiber.Ctx) error {
	return h.scheduleAction(c, h.irrigation.CompleteSchedule)
}

// SkipSchedule handles POST /irrigation/schedules/:id/skip
func (h *IrrigationHandler) SkipSchedule(c *fiber.Ctx) error {
	return h.scheduleAction(c, h.irrigation.SkipSchedule)
}

// RecordMoisture handles POST /irrigation/moisture. The body is a single
// reading, a JSON array of readings or {"readings": [...]}.
func (h *IrrigationHandler) RecordMoisture(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	readings, err := parseReadings(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	n, err := h.irrigation.RecordMoisture(c.Context(), a, readings)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, fiber.Map{"recorded": n})
}

func parseReadings(c *fiber.Ctx) ([]domain.SoilMoistureReading, error) {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil, apperrors.BadRequest("Invalid request body")
	}

	var batch moistureBatch
	switch {
	case body[0] == '[':
		if err := c.BodyParser(&batch.Readings); err != nil {
			return nil, apperrors.BadRequest("Invalid request body")
		}
	case bytes.Contains(body, []byte(`"readings"`)):
		if err := c.BodyParser(&batch); err != nil {
			return nil, apperrors.BadRequest("Invalid request body")
		}
	default:
		var single domain.SoilMoistureReading
		if err := c.BodyParser(&single); err != nil {
			return nil, apperrors.BadRequest("Invalid request body")
		}
		batch.Readings = []domain.SoilMoistureReading{single}
	}

	if err := validator.Validate(&batch); err != nil {
		return nil, err
	}
	return batch.Readings, nil
}

// MoistureHistory handles GET /irrigation/fields/:id/moisture?hours=
func (h *IrrigationHandler) MoistureHistory(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	hours, err := queryIntRange(c, "hours", 24, 1, 24*90)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	readings, err := h.irrigation.MoistureHistory(c.Context(), a, id, hours)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	if readings == nil {
		readings = []domain.SoilMoistureReading{}
	}

	return ok(c, readings)
}

// Analyze handles GET /irrigation/fields/:id/analysis
func (h *IrrigationHandler) Analyze(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	analysis, err := h.irrigation.Analyze(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, analysis)
}

// Optimize handles POST /irrigation/fields/:id/optimize
func (h *IrrigationHandler) Optimize(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.OptimizeRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return errorResponse(c, h.logger, err)
		}
	}
	if c.QueryBool("persist", false) {
		input.Persist = true
	}

	plan, err := h.irrigation.Optimize(c.Context(), a, id, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	if input.Persist {
		return created(c, plan)
	}
	return ok(c, plan)
}

// ET0 handles POST /irrigation/et0
func (h *IrrigationHandler) ET0(c *fiber.Ctx) error {
	var input et0Request
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, h.logger, apperrors.BadRequest("Invalid request body"))
	}
	if err := validator.Validate(&input.ET0Input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	stage := input.GrowthStage
	if stage == "" {
		stage = domain.StageMid
	}
	if !stage.IsValid() {
		return errorResponse(c, h.logger, apperrors.Validation("Invalid growthStage").WithDetail("growthStage", "unknown growth stage"))
	}

	return ok(c, h.irrigation.ET0(&input.ET0Input, stage))
}

func (h *IrrigationHandler) scheduleAction(c *fiber.Ctx, fn func(context.Context, service.Actor, uuid.UUID) (*domain.IrrigationSchedule, error)) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	schedule, err := fn(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, schedule)
}
