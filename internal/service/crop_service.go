package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/agronomy"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// DefaultRecommendations is the number of crops returned by Recommend when no limit is given
const DefaultRecommendations = 5

// CropRepository defines crop catalogue operations
type CropRepository interface {
	Create(ctx context.Context, crop *domain.Crop) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Crop, error)
	GetByName(ctx context.Context, name string) (*domain.Crop, error)
	Update(ctx context.Context, crop *domain.Crop) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.CropFilter, p pagination.Params) ([]domain.Crop, int64, error)
	All(ctx context.Context) ([]domain.Crop, error)
	Count(ctx context.Context) (int64, error)
}

// CropService manages the crop catalogue and scores crops against sites
type CropService struct {
	crops CropRepository
}

// NewCropService creates a new crop service
func NewCropService(crops CropRepository) *CropService {
	return &CropService{crops: crops}
}

// Create adds a crop to the catalogue
func (s *CropService) Create(ctx context.Context, input *domain.CropInput) (*domain.Crop, error) {
	crop := input.ToCrop(uuid.New(), time.Now().UTC())
	if err := s.crops.Create(ctx, crop); err != nil {
		return nil, fmt.Errorf("failed to create crop: %w", err)
	}
	return crop, nil
}

// Get returns a crop by id
func (s *CropService) Get(ctx context.Context, id uuid.UUID) (*domain.Crop, error) {
	crop, err := s.crops.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get crop: %w", err)
	}
	return crop, nil
}

// Update replaces a crop's attributes
func (s *CropService) Update(ctx context.Context, id uuid.UUID, input *domain.CropInput) (*domain.Crop, error) {
	existing, err := s.crops.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get crop: %w", err)
	}

	crop := input.ToCrop(id, time.Now().UTC())
	crop.CreatedAt = existing.CreatedAt
	if err := s.crops.Update(ctx, crop); err != nil {
		return nil, fmt.Errorf("failed to update crop: %w", err)
	}
	return crop, nil
}

// Delete removes a crop; fields planted with it become unplanted
func (s *CropService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.crops.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete crop: %w", err)
	}
	return nil
}

// List searches the catalogue
func (s *CropService) List(ctx context.Context, filter *domain.CropFilter, p pagination.Params) (pagination.Page[domain.Crop], error) {
	crops, total, err := s.crops.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[domain.Crop]{}, fmt.Errorf("failed to list crops: %w", err)
	}
	return pagination.NewPage(crops, p, total), nil
}

// Recommend ranks the whole catalogue for a site and returns the best crops
func (s *CropService) Recommend(ctx context.Context, req *domain.CropRecommendationRequest) ([]domain.CropSuitability, error) {
	crops, err := s.crops.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load crops: %w", err)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultRecommendations
	}
	return agronomy.RankCrops(crops, req.SiteConditions, limit), nil
}

// Suitability scores one crop for a site
func (s *CropService) Suitability(ctx context.Context, id uuid.UUID, site domain.SiteConditions) (*domain.CropSuitability, error) {
	crop, err := s.crops.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get crop: %w", err)
	}
	result := agronomy.ScoreCrop(*crop, site)
	return &result, nil
}
