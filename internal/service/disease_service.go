package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/agronomy"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const imageURLTTL = time.Hour

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ObjectStorage stores uploaded and generated files
type ObjectStorage interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// DetectionRepository defines disease detection repository operations
type DetectionRepository interface {
	Create(ctx context.Context, d *domain.DiseaseDetection) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DiseaseDetection, error)
	List(ctx context.Context, userID *uuid.UUID, p pagination.Params) ([]domain.DiseaseDetection, int64, error)
}

// DetectionUpload is a crop image submitted for diagnosis
type DetectionUpload struct {
	CropName string
	FieldID  *uuid.UUID
	Image    []byte
}

// DiseaseService diagnoses crop images
type DiseaseService struct {
	ownership
	detections DetectionRepository
	objects    ObjectStorage
	alerts     *AlertService
	bucket     string
	maxBytes   int
	log        *zap.Logger
}

// NewDiseaseService creates a new disease service
func NewDiseaseService(
	farms FarmRepository,
	fields FieldRepository,
	detections DetectionRepository,
	objects ObjectStorage,
	alerts *AlertService,
	bucket string,
	maxImageMB int,
	log *zap.Logger,
) *DiseaseService {
	return &DiseaseService{
		ownership:  ownership{farms: farms, fields: fields},
		detections: detections,
		objects:    objects,
		alerts:     alerts,
		bucket:     bucket,
		maxBytes:   maxImageMB << 20,
		log:        log,
	}
}

// Detect stores the image, classifies it and records the diagnosis. Severe
// findings on a known field raise an alert for the farm.
func (s *DiseaseService) Detect(ctx context.Context, actor Actor, upload *DetectionUpload) (*domain.DiseaseDetection, error) {
	if len(upload.Image) == 0 {
		return nil, apperrors.Validation("image is required").WithDetail("image", "required")
	}
	if s.maxBytes > 0 && len(upload.Image) > s.maxBytes {
		return nil, apperrors.Validation("image is too large").
			WithDetail("image", fmt.Sprintf("must be at most %d MB", s.maxBytes>>20))
	}
	contentType := http.DetectContentType(upload.Image)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, apperrors.Validation("unsupported image type").WithDetail("image", "must be jpeg, png or webp")
	}
	crop := strings.ToLower(strings.TrimSpace(upload.CropName))
	if crop == "" {
		return nil, apperrors.Validation("crop name is required").WithDetail("cropName", "required")
	}

	var farm *domain.Farm
	if upload.FieldID != nil {
		_, f, err := s.field(ctx, actor, *upload.FieldID)
		if err != nil {
			return nil, err
		}
		farm = f
	}

	sum := sha256.Sum256(upload.Image)
	key := fmt.Sprintf("detections/%s/%s.%s", actor.UserID, hex.EncodeToString(sum[:]), ext)
	if err := s.objects.Put(ctx, s.bucket, key, upload.Image, contentType); err != nil {
		if !apperrors.IsUnavailable(err) {
			return nil, apperrors.Unavailable("image storage is unavailable").WithError(err)
		}
		// storage is switched off: diagnose without keeping the image
		s.log.Warn("object storage disabled, image not stored", zap.String("user_id", actor.UserID.String()))
		key = ""
	}

	diagnosis := agronomy.ClassifyImage(crop, sum[:])
	detection := &domain.DiseaseDetection{
		ID:              uuid.New(),
		UserID:          actor.UserID,
		FieldID:         upload.FieldID,
		CropName:        crop,
		ImageKey:        key,
		DetectedDisease: diagnosis.Disease,
		Confidence:      diagnosis.Confidence,
		Severity:        diagnosis.Severity,
		Symptoms:        diagnosis.Symptoms,
		Treatments:      diagnosis.Treatments,
		Status:          domain.DetectionCompleted,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.detections.Create(ctx, detection); err != nil {
		return nil, fmt.Errorf("failed to create detection: %w", err)
	}

	if s.alerts != nil && farm != nil && (detection.Severity == domain.SeverityHigh || detection.Severity == domain.SeverityCritical) {
		alert := &domain.Alert{
			FarmID:   &farm.ID,
			UserID:   farm.OwnerID,
			Type:     domain.AlertDisease,
			Severity: detection.Severity,
			Title:    fmt.Sprintf("%s detected on %s", detection.DetectedDisease, crop),
			Message:  fmt.Sprintf("Confidence %.0f%%. %s", detection.Confidence*100, strings.Join(detection.Treatments, "; ")),
		}
		if err := s.alerts.Raise(ctx, alert); err != nil {
			s.log.Warn("failed to raise disease alert", zap.String("detection_id", detection.ID.String()), zap.Error(err))
		}
	}

	s.withURL(ctx, detection)
	return detection, nil
}

// Get returns one of the actor's detections
func (s *DiseaseService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*domain.DiseaseDetection, error) {
	d, err := s.detections.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get detection: %w", err)
	}
	if !actor.Owns(d.UserID) {
		return nil, apperrors.NotFound("detection")
	}
	s.withURL(ctx, d)
	return d, nil
}

// List lists the actor's detections, newest first
func (s *DiseaseService) List(ctx context.Context, actor Actor, p pagination.Params) (pagination.Page[domain.DiseaseDetection], error) {
	items, total, err := s.detections.List(ctx, actor.ownerScope(), p)
	if err != nil {
		return pagination.Page[domain.DiseaseDetection]{}, fmt.Errorf("failed to list detections: %w", err)
	}
	return pagination.NewPage(items, p, total), nil
}

// Knowledge returns the disease catalogue, optionally for one crop
func (s *DiseaseService) Knowledge(crop string) []domain.DiseaseInfo {
	return agronomy.Diseases(strings.ToLower(strings.TrimSpace(crop)))
}

func (s *DiseaseService) withURL(ctx context.Context, d *domain.DiseaseDetection) {
	if d.ImageKey == "" {
		return
	}
	url, err := s.objects.PresignedURL(ctx, s.bucket, d.ImageKey, imageURLTTL)
	if err != nil {
		s.log.Debug("image link unavailable", zap.String("key", d.ImageKey), zap.Error(err))
		return
	}
	d.ImageURL = url
}
