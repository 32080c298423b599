package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
)

// SystemService reports on the health of the process and its stores
type SystemService interface {
	Check(ctx context.Context) (string, map[string]domain.ComponentStatus)
	Ready(ctx context.Context) error
	Status(ctx context.Context) (*domain.SystemStatus, error)
	MetricsSummary() (map[string]float64, error)
	Version() string
	Uptime() time.Duration
}

// HealthHandler handles health check and system status endpoints
type HealthHandler struct {
	system SystemService
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(system SystemService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		system: system,
		logger: logger,
	}
}

// HealthStatus represents health check status
type HealthStatus struct {
	Status    string                            `json:"status"`
	Version   string                            `json:"version"`
	Uptime    string                            `json:"uptime"`
	Timestamp string                            `json:"timestamp"`
	Checks    map[string]domain.ComponentStatus `json:"checks"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	overall, checks := h.system.Check(ctx)
	status := HealthStatus{
		Status:    overall,
		Version:   h.system.Version(),
		Uptime:    h.system.Uptime().Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := fiber.StatusOK
	if overall == service.StatusUnhealthy {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(status)
}

// Liveness handles GET /livez - basic liveness check
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// Readiness handles GET /readyz - readiness check
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	if err := h.system.Ready(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"reason": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status": "ready",
	})
}

// Version handles GET /version
func (h *HealthHandler) Version(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"version": h.system.Version(),
		"uptime":  h.system.Uptime().Round(time.Second).String(),
	})
}

// Status handles GET /api/v1/system/status
func (h *HealthHandler) Status(c *fiber.Ctx) error {
	status, err := h.system.Status(c.Context())
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, status)
}

// MetricsSummary handles GET /api/v1/system/metrics/summary (staff)
func (h *HealthHandler) MetricsSummary(c *fiber.Ctx) error {
	summary, err := h.system.MetricsSummary()
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, summary)
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/healthz", h.Health)
	app.Get("/livez", h.Liveness)
	app.Get("/readyz", h.Readiness)
	app.Get("/version", h.Version)
}
