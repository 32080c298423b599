package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/agronomy"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// areaEpsilon absorbs floating point noise when comparing hectares
const areaEpsilon = 1e-9

// FieldRepository defines field repository operations
type FieldRepository interface {
	// Create and Update run check, when set, under the farm row lock
	Create(ctx context.Context, field *domain.Field, check domain.AreaCheck) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Field, error)
	Update(ctx context.Context, field *domain.Field, check domain.AreaCheck) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByFarm(ctx context.Context, farmID uuid.UUID) ([]domain.Field, error)
	List(ctx context.Context, filter *domain.FieldFilter, p pagination.Params) ([]domain.Field, int64, error)
	Count(ctx context.Context) (int64, error)
}

// FieldService manages the plots of a farm
type FieldService struct {
	ownership
	crops      CropRepository
	weather    WeatherLookup
	activities activityLog
	log        *zap.Logger
}

// NewFieldService creates a new field service
func NewFieldService(farms FarmRepository, fields FieldRepository, crops CropRepository, activities ActivityRepository, log *zap.Logger) *FieldService {
	return &FieldService{
		ownership:  ownership{farms: farms, fields: fields},
		crops:      crops,
		activities: activityLog{repo: activities, log: log},
		log:        log,
	}
}

// SetWeather lets yield predictions use the farm's current temperature
func (s *FieldService) SetWeather(w WeatherLookup) {
	s.weather = w
}

// Create adds a field to one of the actor's farms
func (s *FieldService) Create(ctx context.Context, actor Actor, input *domain.FieldInput) (*domain.Field, error) {
	farm, err := s.farm(ctx, actor, input.FarmID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	field := &domain.Field{
		ID:           uuid.New(),
		FarmID:       farm.ID,
		Name:         input.Name,
		Area:         input.Area,
		CropID:       input.CropID,
		SoilType:     input.SoilType,
		SoilPH:       input.SoilPH,
		PlantingDate: input.PlantingDate,
		GrowthStage:  input.GrowthStage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.applyCrop(ctx, field, input.ExpectedHarvestDate); err != nil {
		return nil, err
	}

	if err := s.fields.Create(ctx, field, fitsFarm(field.Area)); err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}

	s.activities.record(ctx, farm.ID, actor.UserID, domain.ActivityFieldCreated,
		fmt.Sprintf("Field %q created", field.Name),
		map[string]any{"fieldId": field.ID.String(), "area": field.Area},
	)
	return field, nil
}

// Get returns a field of one of the actor's farms
func (s *FieldService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Field, error) {
	field, _, err := s.field(ctx, actor, id)
	return field, err
}

// Update applies a partial update. The expected harvest date is re-derived
// when the crop or planting date moves, unless the input sets it.
func (s *FieldService) Update(ctx context.Context, actor Actor, id uuid.UUID, input *domain.FieldUpdateInput) (*domain.Field, error) {
	field, farm, err := s.field(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	var check domain.AreaCheck
	if input.Area != nil && *input.Area != field.Area {
		check = fitsFarm(*input.Area)
	}

	explicit := input.ExpectedHarvestDate
	if explicit == nil && !input.ChangesCropTiming() {
		explicit = field.ExpectedHarvestDate
	}
	input.Apply(field)
	if err := s.applyCrop(ctx, field, explicit); err != nil {
		return nil, err
	}
	field.UpdatedAt = time.Now().UTC()

	if err := s.fields.Update(ctx, field, check); err != nil {
		return nil, fmt.Errorf("failed to update field: %w", err)
	}

	s.activities.record(ctx, farm.ID, actor.UserID, domain.ActivityFieldUpdated,
		fmt.Sprintf("Field %q updated", field.Name),
		map[string]any{"fieldId": field.ID.String(), "growthStage": string(field.GrowthStage)},
	)
	return field, nil
}

// Delete removes a field
func (s *FieldService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	field, farm, err := s.field(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.fields.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}

	s.activities.record(ctx, farm.ID, actor.UserID, domain.ActivityFieldDeleted,
		fmt.Sprintf("Field %q deleted", field.Name),
		map[string]any{"fieldId": field.ID.String()},
	)
	return nil
}

// List lists fields of the actor's farms
func (s *FieldService) List(ctx context.Context, actor Actor, filter *domain.FieldFilter, p pagination.Params) (pagination.Page[domain.Field], error) {
	if filter.FarmID != nil {
		if _, err := s.farm(ctx, actor, *filter.FarmID); err != nil {
			return pagination.Page[domain.Field]{}, err
		}
	}
	if owner := actor.ownerScope(); owner != nil {
		filter.OwnerID = owner
	}
	fields, total, err := s.fields.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[domain.Field]{}, fmt.Errorf("failed to list fields: %w", err)
	}
	return pagination.NewPage(fields, p, total), nil
}

// PredictYield estimates the harvest of a planted field. The site is the
// middle of the crop's optimal envelope corrected by what is known about the
// field: its soil, its pH and the farm's current temperature.
func (s *FieldService) PredictYield(ctx context.Context, actor Actor, id uuid.UUID) (*domain.YieldPrediction, error) {
	field, farm, err := s.field(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if field.CropID == nil {
		return nil, apperrors.BadRequest("field has no crop planted")
	}

	crop := field.Crop
	if crop == nil {
		crop, err = s.crops.GetByID(ctx, *field.CropID)
		if err != nil {
			return nil, fmt.Errorf("failed to get crop: %w", err)
		}
	}

	site := domain.SiteConditions{
		Temperature: (crop.OptimalTempMin + crop.OptimalTempMax) / 2,
		Rainfall:    (crop.OptimalRainfallMin + crop.OptimalRainfallMax) / 2,
		SoilPH:      (crop.OptimalPHMin + crop.OptimalPHMax) / 2,
		SoilType:    field.SoilType,
		Season:      crop.Season,
	}
	if field.SoilPH != nil {
		site.SoilPH = *field.SoilPH
	}
	if s.weather != nil && farm.HasCoordinates() {
		obs, err := s.weather.Current(ctx, *farm.Latitude, *farm.Longitude)
		if err != nil {
			s.log.Warn("yield prediction without weather", zap.String("field_id", id.String()), zap.Error(err))
		} else {
			site.Temperature = obs.Temperature
		}
	}

	suitability := agronomy.ScoreCrop(*crop, site)
	prediction := agronomy.PredictYield(*field, *crop, suitability.Score)
	return &prediction, nil
}

// fitsFarm rejects a field of the given area when the farm's other fields
// leave too little room
func fitsFarm(area float64) domain.AreaCheck {
	return func(farm *domain.Farm, used float64) error {
		if used+area > farm.TotalArea+areaEpsilon {
			return apperrors.Conflict(domain.ErrFieldAreaExceeded.Error()).
				WithDetail("area", fmt.Sprintf("only %.2f ha of %.2f ha remain", farm.TotalArea-used, farm.TotalArea))
		}
		return nil
	}
}

// applyCrop resolves the field's crop and sets the stage and harvest date.
// harvest wins over the date derived from the crop's growth duration.
func (s *FieldService) applyCrop(ctx context.Context, field *domain.Field, harvest *time.Time) error {
	if field.CropID == nil {
		field.Crop = nil
		field.ExpectedHarvestDate = nil
		if field.GrowthStage == "" {
			field.GrowthStage = domain.StageFallow
		}
		return nil
	}

	crop, err := s.crops.GetByID(ctx, *field.CropID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.Validation("unknown crop").WithDetail("cropId", "does not exist")
		}
		return fmt.Errorf("failed to get crop: %w", err)
	}
	field.Crop = crop
	if harvest != nil {
		if field.PlantingDate != nil && harvest.Before(*field.PlantingDate) {
			return apperrors.Validation("invalid harvest date").WithDetail("expectedHarvestDate", "is before the planting date")
		}
		h := *harvest
		field.ExpectedHarvestDate = &h
	} else {
		field.ExpectedHarvestDate = agronomy.ExpectedHarvest(field.PlantingDate, crop)
	}
	if field.GrowthStage == "" || field.GrowthStage == domain.StageFallow {
		field.GrowthStage = domain.StageInitial
	}
	return nil
}
