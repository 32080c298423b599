package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// dashboardItems caps the recommendations and activities shown on a dashboard
const dashboardItems = 5

// FarmRepository defines farm repository operations
type FarmRepository interface {
	Create(ctx context.Context, farm *domain.Farm) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Farm, error)
	// Update locks the farm row, applies fn and writes the result back in one transaction
	// fn also gets the area currently covered by the farm's fields
	Update(ctx context.Context, id uuid.UUID, fn func(farm *domain.Farm, fieldArea float64) error) (*domain.Farm, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.FarmFilter, p pagination.Params) ([]domain.Farm, int64, error)
	ListWithCoordinates(ctx context.Context) ([]domain.Farm, error)
	Count(ctx context.Context) (int64, error)
}

// WeatherLookup is the slice of the weather service other services depend on
type WeatherLookup interface {
	Current(ctx context.Context, lat, lon float64) (*domain.WeatherObservation, error)
	Forecast(ctx context.Context, lat, lon float64, days int) (*domain.Forecast, error)
}

// FarmService manages farms and their dashboards
type FarmService struct {
	ownership
	sessions   SessionRepository
	alerts     AlertRepository
	weather    WeatherLookup
	activities activityLog
	log        *zap.Logger
}

// NewFarmService creates a new farm service
func NewFarmService(
	farms FarmRepository,
	fields FieldRepository,
	sessions SessionRepository,
	alerts AlertRepository,
	activities ActivityRepository,
	log *zap.Logger,
) *FarmService {
	return &FarmService{
		ownership:  ownership{farms: farms, fields: fields},
		sessions:   sessions,
		alerts:     alerts,
		activities: activityLog{repo: activities, log: log},
		log:        log,
	}
}

// SetWeather enables current weather on dashboards
func (s *FarmService) SetWeather(w WeatherLookup) {
	s.weather = w
}

// Create creates a farm owned by the actor
func (s *FarmService) Create(ctx context.Context, actor Actor, input *domain.FarmInput) (*domain.Farm, error) {
	now := time.Now().UTC()
	farm := &domain.Farm{
		ID:             uuid.New(),
		OwnerID:        actor.UserID,
		Name:           input.Name,
		Location:       input.Location,
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		TotalArea:      input.TotalArea,
		CultivatedArea: input.CultivatedArea,
		SoilType:       input.SoilType,
		IrrigationType: input.IrrigationType,
		WaterSource:    input.WaterSource,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := checkFarmAreas(farm); err != nil {
		return nil, err
	}

	if err := s.farms.Create(ctx, farm); err != nil {
		return nil, fmt.Errorf("failed to create farm: %w", err)
	}

	s.activities.record(ctx, farm.ID, actor.UserID, domain.ActivityFarmCreated,
		fmt.Sprintf("Farm %q created", farm.Name),
		map[string]any{"totalArea": farm.TotalArea, "cultivatedArea": farm.CultivatedArea},
	)
	return farm, nil
}

// Get returns a farm the actor owns
func (s *FarmService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Farm, error) {
	return s.farm(ctx, actor, id)
}

// Update applies a partial update. The area invariant is checked against the
// merged farm, and the total area may not shrink below the area of its fields.
func (s *FarmService) Update(ctx context.Context, actor Actor, id uuid.UUID, input *domain.FarmUpdateInput) (*domain.Farm, error) {
	if _, err := s.farm(ctx, actor, id); err != nil {
		return nil, err
	}

	var changed []string
	farm, err := s.farms.Update(ctx, id, func(f *domain.Farm, fieldArea float64) error {
		changed = input.Apply(f)
		if err := checkFarmAreas(f); err != nil {
			return err
		}
		if input.TotalArea != nil && fieldArea > f.TotalArea+areaEpsilon {
			return apperrors.Conflict(fmt.Sprintf("fields already cover %.2f ha, total area cannot be %.2f ha", fieldArea, f.TotalArea))
		}
		f.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update farm: %w", err)
	}

	if len(changed) > 0 {
		s.activities.record(ctx, farm.ID, actor.UserID, domain.ActivityFarmUpdated,
			fmt.Sprintf("Farm %q updated", farm.Name),
			map[string]any{"fields": changed},
		)
	}
	return farm, nil
}

// Delete removes a farm with its fields, sessions and alerts
func (s *FarmService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.farm(ctx, actor, id); err != nil {
		return err
	}
	if err := s.farms.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete farm: %w", err)
	}
	return nil
}

// List lists the actor's farms; staff see every farm
func (s *FarmService) List(ctx context.Context, actor Actor, filter *domain.FarmFilter, p pagination.Params) (pagination.Page[domain.Farm], error) {
	if owner := actor.ownerScope(); owner != nil {
		filter.OwnerID = owner
	}
	farms, total, err := s.farms.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[domain.Farm]{}, fmt.Errorf("failed to list farms: %w", err)
	}
	return pagination.NewPage(farms, p, total), nil
}

// Activities returns a farm's audit trail, newest first
func (s *FarmService) Activities(ctx context.Context, actor Actor, id uuid.UUID, p pagination.Params) (pagination.Page[domain.FarmActivity], error) {
	if _, err := s.farm(ctx, actor, id); err != nil {
		return pagination.Page[domain.FarmActivity]{}, err
	}
	if s.activities.repo == nil {
		return pagination.NewPage[domain.FarmActivity](nil, p, 0), nil
	}
	items, total, err := s.activities.repo.ListByFarm(ctx, id, p)
	if err != nil {
		return pagination.Page[domain.FarmActivity]{}, fmt.Errorf("failed to list activities: %w", err)
	}
	return pagination.NewPage(items, p, total), nil
}

// Dashboard aggregates what the farmer sees first for a farm. Weather is
// best effort and omitted when the provider fails.
func (s *FarmService) Dashboard(ctx context.Context, actor Actor, id uuid.UUID) (*domain.FarmDashboard, error) {
	farm, err := s.farm(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	fields, err := s.fields.ListByFarm(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	active, err := s.sessions.CountActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	unread, err := s.alerts.CountUnread(ctx, farm.OwnerID, &id)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}

	dash := &domain.FarmDashboard{
		Farm:             farm,
		FieldCount:       len(fields),
		ActiveSessions:   active,
		UnreadAlerts:     unread,
		Recommendations:  []domain.Recommendation{},
		RecentActivities: []domain.FarmActivity{},
	}
	for _, f := range fields {
		if f.GrowthStage.IsGrowing() {
			dash.PlantedArea += f.Area
		}
	}

	if s.weather != nil && farm.HasCoordinates() {
		obs, err := s.weather.Current(ctx, *farm.Latitude, *farm.Longitude)
		if err != nil {
			s.log.Warn("dashboard weather unavailable", zap.String("farm_id", id.String()), zap.Error(err))
		} else {
			dash.CurrentWeather = obs
		}
	}

	latest, err := s.sessions.LatestWithRecommendations(ctx, id)
	switch {
	case err == nil:
		recs := append([]domain.Recommendation(nil), latest.Recommendations...)
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Priority.Rank() > recs[j].Priority.Rank()
		})
		if len(recs) > dashboardItems {
			recs = recs[:dashboardItems]
		}
		dash.Recommendations = recs
	case !apperrors.IsNotFound(err):
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}

	if s.activities.repo != nil {
		recent, _, err := s.activities.repo.ListByFarm(ctx, id, pagination.NewParams(1, dashboardItems))
		if err != nil {
			s.log.Warn("dashboard activities unavailable", zap.String("farm_id", id.String()), zap.Error(err))
		} else {
			dash.RecentActivities = recent
		}
	}
	return dash, nil
}

func checkFarmAreas(f *domain.Farm) error {
	if err := f.CheckAreas(); err != nil {
		verr := apperrors.Validation(err.Error())
		if errors.Is(err, domain.ErrCultivatedExceedsTotal) {
			verr.WithDetail("cultivatedArea", "must not exceed totalArea")
		}
		return verr
	}
	return nil
}
