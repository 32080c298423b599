package handler

import (
	"context"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/validator"
)

// CropService manages the crop catalogue
type CropService interface {
	Create(ctx context.Context, input *domain.CropInput) (*domain.Crop, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Crop, error)
	Update(ctx context.Context, id uuid.UUID, input *domain.CropInput) (*domain.Crop, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.CropFilter, p pagination.Params) (pagination.Page[domain.Crop], error)
	Recommend(ctx context.Context, req *domain.CropRecommendationRequest) ([]domain.CropSuitability, error)
	Suitability(ctx context.Context, id uuid.UUID, site domain.SiteConditions) (*domain.CropSuitability, error)
}

// DiseaseService diagnoses crop images
type DiseaseService interface {
	Detect(ctx context.Context, actor service.Actor, upload *service.DetectionUpload) (*domain.DiseaseDetection, error)
	Get(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.DiseaseDetection, error)
	List(ctx context.Context, actor service.Actor, p pagination.Params) (pagination.Page[domain.DiseaseDetection], error)
	Knowledge(crop string) []domain.DiseaseInfo
}

// CropsHandler handles crop catalogue and disease detection endpoints
type CropsHandler struct {
	crops    CropService
	diseases DiseaseService
	logger   *zap.Logger
}

// NewCropsHandler creates a new crops handler
func NewCropsHandler(crops CropService, diseases DiseaseService, logger *zap.Logger) *CropsHandler {
	return &CropsHandler{
		crops:    crops,
		diseases: diseases,
		logger:   logger,
	}
}

// ListCrops handles GET /crops
func (h *CropsHandler) ListCrops(c *fiber.Ctx) error {
	filter := &domain.CropFilter{Search: c.Query("search")}
	if category := domain.CropCategory(c.Query("category")); category != "" {
		filter.Category = &category
	}
	if season := domain.Season(c.Query("season")); season != "" {
		filter.Season = &season
	}

	page, err := h.crops.List(c.Context(), filter, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// GetCrop handles GET /crops/:id
func (h *CropsHandler) GetCrop(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	crop, err := h.crops.Get(c.Context(), id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, crop)
}

// CreateCrop handles POST /crops (staff)
func (h *CropsHandler) CreateCrop(c *fiber.Ctx) error {
	var input domain.CropInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	crop, err := h.crops.Create(c.Context(), &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, crop)
}

// UpdateCrop handles PUT /crops/:id (staff)
func (h *CropsHandler) UpdateCrop(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	var input domain.CropInput
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	crop, err := h.crops.Update(c.Context(), id, &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, crop)
}

// DeleteCrop handles DELETE /crops/:id (staff)
func (h *CropsHandler) DeleteCrop(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	if err := h.crops.Delete(c.Context(), id); err != nil {
		return errorResponse(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Recommend handles POST /crops/recommend
func (h *CropsHandler) Recommend(c *fiber.Ctx) error {
	var input domain.CropRecommendationRequest
	if err := parseBody(c, &input); err != nil {
		return errorResponse(c, h.logger, err)
	}

	ranked, err := h.crops.Recommend(c.Context(), &input)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, ranked)
}

// Suitability handles GET /crops/:id/suitability
func (h *CropsHandler) Suitability(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	site := domain.SiteConditions{
		SoilType: domain.SoilType(c.Query("soilType")),
		Season:   domain.Season(c.Query("season")),
	}
	if site.Temperature, err = queryFloat(c, "temperature"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if site.Rainfall, err = queryFloat(c, "rainfall"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if site.SoilPH, err = queryFloat(c, "ph"); err != nil {
		return errorResponse(c, h.logger, err)
	}
	if err := validator.Validate(&site); err != nil {
		return errorResponse(c, h.logger, err)
	}

	result, err := h.crops.Suitability(c.Context(), id, site)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, result)
}

// Detect handles POST /disease-detections (multipart)
func (h *CropsHandler) Detect(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return errorResponse(c, h.logger, apperrors.Validation("image is required").WithDetail("image", "required"))
	}
	f, err := file.Open()
	if err != nil {
		return errorResponse(c, h.logger, apperrors.BadRequest("Could not read image"))
	}
	defer f.Close()
	image, err := io.ReadAll(f)
	if err != nil {
		return errorResponse(c, h.logger, apperrors.BadRequest("Could not read image"))
	}

	upload := &service.DetectionUpload{
		CropName: c.FormValue("cropName"),
		Image:    image,
	}
	if raw := c.FormValue("fieldId"); raw != "" {
		fieldID, err := uuid.Parse(raw)
		if err != nil {
			return errorResponse(c, h.logger, apperrors.Validation("Invalid fieldId").WithDetail("fieldId", "must be a UUID"))
		}
		upload.FieldID = &fieldID
	}

	detection, err := h.diseases.Detect(c.Context(), a, upload)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return created(c, detection)
}

// ListDetections handles GET /disease-detections
func (h *CropsHandler) ListDetections(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	page, err := h.diseases.List(c.Context(), a, pageParams(c))
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return paged(c, page)
}

// GetDetection handles GET /disease-detections/:id
func (h *CropsHandler) GetDetection(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}
	id, err := paramUUID(c, "id")
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	detection, err := h.diseases.Get(c.Context(), a, id)
	if err != nil {
		return errorResponse(c, h.logger, err)
	}

	return ok(c, detection)
}

// Diseases handles GET /diseases?crop=
func (h *CropsHandler) Diseases(c *fiber.Ctx) error {
	return ok(c, h.diseases.Knowledge(c.Query("crop")))
}
