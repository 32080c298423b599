package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
)

// MarketService stores and analyses commodity prices
type MarketService interface {
	ListPrices(ctx context.Context, filter *domain.PriceFilter, p pagination.Params) (pagination.Page[domain.MarketPrice], error)
	Record(ctx context.Context, input *domain.MarketPriceInput) (*domain.MarketPrice, error)
	RecordBatch(ctx context.Context, batch *domain.MarketPriceBatch) (int, error)
	Latest(ctx context.Context, commodity string) ([]domain.MarketPrice, error)
	Trend(ctx context.Context, commodity, mkt string, days int) (*domain.TrendAnalysis, error)
	Predict(ctx context.Context, commodity, mkt string, horizon int) (*domain.PricePrediction, error)
	Indicators(ctx context.Context, commodity, mkt string, days, tail int) (*domain.IndicatorSeries, error)
	Import(ctx context.Context, req *domain.ImportRequest) (*domain.ImportResult, error)
}

// ReportService queues and tracks spreadsheet exports
type ReportService interface {
	Request(ctx context.Context, actor service.Actor, req *domain.ReportRequest) (*domain.Report, error)
	Get(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.Report, error)
}

// MarketHandler handles market price endpoints
type MarketHandler struct {
	market  MarketService
	reports ReportService
	logger  *zap.Logger
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(market MarketService, reports ReportService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		market:  market,
		reports: reports,
		logger:  logger,
	}
}

// ListPrices handles GET /market/prices
func (h *MarketHandler) ListPrices(c *fiber.Ctx) error {
	filter := &domain.PriceFilter{
		Commodity: c.Query("commodity"),
		Market:    c.Query("market"),
		State:     c.Query("state"),
	}
	var err error
	if filter.From, err = queryDate(c, "from"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return errorResponse(c, h.logger, err)
	}

	page, err := h.market.ListPrices(c.Context(), filter, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// RecordPrice handles POST /market/prices (staff)
func (h *MarketHandler) RecordPrice(c *fiber.Ctx) error {
	var input domain.MarketPriceInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	price, err := h.market.Record(c.Context(), &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, price)
}

// RecordBatch handles POST /market/prices/batch (staff)
func (h *MarketHandler) RecordBatch(c *fiber.Ctx) error {
	var batch domain.MarketPriceBatch
	if err := parseBody(c, &batch); err != nil {
		return errorResponse(c, h.logger, err)
	}

	n, err := h.market.RecordBatch(c.Context(), &batch)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, fiber.Map{"recorded": n})
}

// Latest handles GET /market/prices/latest?commodity=
func (h *MarketHandler) Latest(c *fiber.Ctx) error {
	prices, err := h.market.Latest(c.Context(), c.Query("commodity"))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	if prices == nil {
		prices = []domain.MarketPrice{}
	}

	return ok(c, prices)
}

// Trend handles GET /market/commodities/:commodity/trend
func (h *MarketHandler) Trend(c *fiber.Ctx) error {
	commodity, err := commodityParam(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	days, err := queryIntRange(c, "days", 0, 0, 365)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	trend, err := h.market.Trend(c.Context(), commodity, c.Query("market"), days)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, trend)
}

// Predict handles GET /market/commodities/:commodity/predict
func (h *MarketHandler) Predict(c *fiber.Ctx) error {
	commodity, err := commodityParam(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	horizon, err := queryIntRange(c, "horizon", 7, 1, 90)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	prediction, err := h.market.Predict(c.Context(), commodity, c.Query("market"), horizon)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, prediction)
}

// Indicators handles GET /market/commodities/:commodity/indicators
func (h *MarketHandler) Indicators(c *fiber.Ctx) error {
	commodity, err := commodityParam(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	days, err := queryIntRange(c, "days", 0, 0, 365)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	tail, err := queryIntRange(c, "tail", 0, 0, 365)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	series, err := h.market.Indicators(c.Context(), commodity, c.Query("market"), days, tail)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, series)
}

// Import handles POST /market/import (staff)
func (h *MarketHandler) Import(c *fiber.Ctx) error {
	var input domain.ImportRequest
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	result, err := h.market.Import(c.Context(), &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, result)
}

// RequestReport handles POST /reports
func (h *MarketHandler) RequestReport(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.ReportRequest
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	report, err := h.reports.Request(c.Context(), a, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(DataResponse{Success: true, Data: report})
}

// GetReport handles GET /reports/:id
func (h *MarketHandler) GetReport(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	report, err := h.reports.Get(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, report)
}

func commodityParam(c *fiber.Ctx) (string, error) {
	commodity := c.Params("commodity")
	if commodity == "" {
		return "", apperrors.Validation("commodity is required").WithDetail("commodity", "required")
	}
	return commodity, nil
}
