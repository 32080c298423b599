package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/agronomy"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const (
	moistureAnalysisWindow = 72 * time.Hour
	moistureCheckWindow    = 2 * time.Hour
	moistureAlertCooldown  = 6 * time.Hour
	defaultHistoryHours    = 24
	maxHistoryHours        = 24 * 30
	maxPlanHorizonDays     = 14
)

// ScheduleRepository defines irrigation schedule repository operations
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.IrrigationSchedule) error
	// CreateBatch inserts all schedules in one transaction
	CreateBatch(ctx context.Context, schedules []domain.IrrigationSchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.IrrigationSchedule, error)
	Update(ctx context.Context, schedule *domain.IrrigationSchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ScheduleFilter, p pagination.Params) ([]domain.IrrigationSchedule, int64, error)
}

// MoistureRepository stores soil moisture readings
type MoistureRepository interface {
	Insert(ctx context.Context, readings []domain.SoilMoistureReading) error
	Since(ctx context.Context, fieldID uuid.UUID, since time.Time) ([]domain.SoilMoistureReading, error)
	FieldsReportingSince(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

// IrrigationService plans and tracks irrigation
type IrrigationService struct {
	ownership
	schedules  ScheduleRepository
	readings   MoistureRepository
	weather    WeatherLookup
	alerts     *AlertService
	activities activityLog
	cfg        config.IrrigationConfig
	now        func() time.Time
	log        *zap.Logger
}

var _ MoistureSource = (*IrrigationService)(nil)

// NewIrrigationService creates a new irrigation service
func NewIrrigationService(
	farms FarmRepository,
	fields FieldRepository,
	schedules ScheduleRepository,
	readings MoistureRepository,
	activities ActivityRepository,
	cfg config.IrrigationConfig,
	log *zap.Logger,
) *IrrigationService {
	return &IrrigationService{
		ownership:  ownership{farms: farms, fields: fields},
		schedules:  schedules,
		readings:   readings,
		activities: activityLog{repo: activities, log: log},
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// SetWeather enables forecast based schedule optimisation
func (s *IrrigationService) SetWeather(w WeatherLookup) { s.weather = w }

// SetAlerts enables moisture alerts from CheckFields
func (s *IrrigationService) SetAlerts(a *AlertService) { s.alerts = a }

// CreateSchedule plans a single irrigation
func (s *IrrigationService) CreateSchedule(ctx context.Context, actor Actor, input *domain.ScheduleInput) (*domain.IrrigationSchedule, error) {
	if _, _, err := s.field(ctx, actor, input.FieldID); err != nil {
		return nil, err
	}

	now := s.now()
	schedule := &domain.IrrigationSchedule{
		ID:              uuid.New(),
		FieldID:         input.FieldID,
		ScheduledDate:   input.ScheduledDate.UTC(),
		DurationMinutes: input.DurationMinutes,
		WaterAmountMM:   input.WaterAmountMM,
		Method:          input.Method,
		Status:          domain.ScheduleScheduled,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return schedule, nil
}

// GetSchedule returns a schedule on one of the actor's fields
func (s *IrrigationService) GetSchedule(ctx context.Context, actor Actor, id uuid.UUID) (*domain.IrrigationSchedule, error) {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if _, _, err := s.field(ctx, actor, schedule.FieldID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("schedule")
		}
		return nil, err
	}
	return schedule, nil
}

// UpdateSchedule edits a schedule that has not happened yet
func (s *IrrigationService) UpdateSchedule(ctx context.Context, actor Actor, id uuid.UUID, input *domain.ScheduleUpdateInput) (*domain.IrrigationSchedule, error) {
	schedule, err := s.GetSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if schedule.Status != domain.ScheduleScheduled {
		return nil, apperrors.Conflict(fmt.Sprintf("schedule is %s and can no longer change", schedule.Status))
	}

	if input.ScheduledDate != nil {
		schedule.ScheduledDate = input.ScheduledDate.UTC()
	}
	if input.DurationMinutes != nil {
		schedule.DurationMinutes = *input.DurationMinutes
	}
	if input.WaterAmountMM != nil {
		schedule.WaterAmountMM = *input.WaterAmountMM
	}
	if input.Notes != nil {
		schedule.Notes = *input.Notes
	}
	schedule.UpdatedAt = s.now()

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}
	return schedule, nil
}

// DeleteSchedule removes a schedule
func (s *IrrigationService) DeleteSchedule(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.GetSchedule(ctx, actor, id); err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}

// ListSchedules lists schedules on the actor's fields
func (s *IrrigationService) ListSchedules(ctx context.Context, actor Actor, filter *domain.ScheduleFilter, p pagination.Params) (pagination.Page[domain.IrrigationSchedule], error) {
	if filter.FieldID != nil {
		if _, _, err := s.field(ctx, actor, *filter.FieldID); err != nil {
			return pagination.Page[domain.IrrigationSchedule]{}, err
		}
	}
	if filter.FarmID != nil {
		if _, err := s.farm(ctx, actor, *filter.FarmID); err != nil {
			return pagination.Page[domain.IrrigationSchedule]{}, err
		}
	}
	if owner := actor.ownerScope(); owner != nil {
		filter.OwnerID = owner
	}

	items, total, err := s.schedules.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[domain.IrrigationSchedule]{}, fmt.Errorf("failed to list schedules: %w", err)
	}
	return pagination.NewPage(items, p, total), nil
}

// CompleteSchedule records that a planned irrigation happened
func (s *IrrigationService) CompleteSchedule(ctx context.Context, actor Actor, id uuid.UUID) (*domain.IrrigationSchedule, error) {
	return s.transition(ctx, actor, id, domain.ScheduleCompleted)
}

// SkipSchedule records that a planned irrigation was not carried out
func (s *IrrigationService) SkipSchedule(ctx context.Context, actor Actor, id uuid.UUID) (*domain.IrrigationSchedule, error) {
	return s.transition(ctx, actor, id, domain.ScheduleSkipped)
}

func (s *IrrigationService) transition(ctx context.Context, actor Actor, id uuid.UUID, to domain.ScheduleStatus) (*domain.IrrigationSchedule, error) {
	schedule, err := s.GetSchedule(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if schedule.Status != domain.ScheduleScheduled {
		return nil, apperrors.Conflict(fmt.Sprintf("schedule is already %s", schedule.Status))
	}
	schedule.Status = to
	schedule.UpdatedAt = s.now()
	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}
	return schedule, nil
}

// RecordMoisture stores sensor readings for the actor's fields
func (s *IrrigationService) RecordMoisture(ctx context.Context, actor Actor, readings []domain.SoilMoistureReading) (int, error) {
	if len(readings) == 0 {
		return 0, apperrors.Validation("no readings").WithDetail("readings", "at least one reading is required")
	}

	checked := make(map[uuid.UUID]bool)
	now := s.now()
	for i := range readings {
		r := &readings[i]
		if !checked[r.FieldID] {
			if _, _, err := s.field(ctx, actor, r.FieldID); err != nil {
				return 0, err
			}
			checked[r.FieldID] = true
		}
		if r.RecordedAt.IsZero() {
			r.RecordedAt = now
		}
		if r.RecordedAt.After(now.Add(5 * time.Minute)) {
			return 0, apperrors.Validation("reading is in the future").
				WithDetail(fmt.Sprintf("readings[%d].recordedAt", i), "must not be in the future")
		}
		r.RecordedAt = r.RecordedAt.UTC()
	}

	if err := s.readings.Insert(ctx, readings); err != nil {
		return 0, fmt.Errorf("failed to store readings: %w", err)
	}
	return len(readings), nil
}

// MoistureHistory returns a field's readings over the last hours
func (s *IrrigationService) MoistureHistory(ctx context.Context, actor Actor, fieldID uuid.UUID, hours int) ([]domain.SoilMoistureReading, error) {
	if _, _, err := s.field(ctx, actor, fieldID); err != nil {
		return nil, err
	}
	if hours <= 0 {
		hours = defaultHistoryHours
	}
	if hours > maxHistoryHours {
		hours = maxHistoryHours
	}
	readings, err := s.readings.Since(ctx, fieldID, s.now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}
	return readings, nil
}

// Analyze grades the moisture of one of the actor's fields
func (s *IrrigationService) Analyze(ctx context.Context, actor Actor, fieldID uuid.UUID) (*domain.MoistureAnalysis, error) {
	field, _, err := s.field(ctx, actor, fieldID)
	if err != nil {
		return nil, err
	}
	return s.AnalyzeField(ctx, field)
}

// AnalyzeField grades a field's moisture from the readings of the last three days
func (s *IrrigationService) AnalyzeField(ctx context.Context, field *domain.Field) (*domain.MoistureAnalysis, error) {
	now := s.now()
	readings, err := s.readings.Since(ctx, field.ID, now.Add(-moistureAnalysisWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}
	if len(readings) == 0 {
		return nil, apperrors.InsufficientData("no soil moisture readings in the last 72 hours")
	}
	return agronomy.AnalyzeMoisture(field.ID, readings, agronomy.ThresholdsFor(field.SoilType), now)
}

// Optimize plans irrigation for a field over the forecast horizon. With
// Persist set the planned events are stored as schedules.
func (s *IrrigationService) Optimize(ctx context.Context, actor Actor, fieldID uuid.UUID, req *domain.OptimizeRequest) (*domain.IrrigationPlan, error) {
	field, farm, err := s.field(ctx, actor, fieldID)
	if err != nil {
		return nil, err
	}
	if !field.GrowthStage.IsGrowing() {
		return nil, apperrors.BadRequest("field has no standing crop to irrigate")
	}
	if s.weather == nil || !farm.HasCoordinates() {
		return nil, apperrors.BadRequest("farm coordinates are required for a forecast based plan")
	}

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.cfg.DefaultHorizonDays
	}
	if horizon > maxPlanHorizonDays {
		horizon = maxPlanHorizonDays
	}

	forecast, err := s.weather.Forecast(ctx, *farm.Latitude, *farm.Longitude, horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast: %w", err)
	}

	input := agronomy.PlanInput{
		FieldID:            field.ID,
		AreaHa:             field.Area,
		Soil:               field.SoilType,
		Stage:              field.GrowthStage,
		Method:             farm.IrrigationType,
		Days:               WeatherDays(forecast, *farm.Latitude),
		InitialDepletionMM: req.InitialDepletionMM,
		RainEfficiency:     s.cfg.RainEfficiency,
	}
	if req.WaterBudgetLiters != nil {
		budget := *req.WaterBudgetLiters
		input.BudgetLiters = &budget
	}

	plan, err := agronomy.OptimizeSchedule(input)
	if err != nil {
		return nil, apperrors.InsufficientData(err.Error())
	}

	if req.Persist && len(plan.Events) > 0 {
		now := s.now()
		schedules := make([]domain.IrrigationSchedule, 0, len(plan.Events))
		for _, ev := range plan.Events {
			schedules = append(schedules, domain.IrrigationSchedule{
				ID:              uuid.New(),
				FieldID:         field.ID,
				ScheduledDate:   ev.Date,
				DurationMinutes: ev.DurationMinutes,
				WaterAmountMM:   ev.WaterAmountMM,
				Method:          farm.IrrigationType,
				Status:          domain.ScheduleScheduled,
				Notes:           fmt.Sprintf("Planned refill, depletion %.1f mm", ev.DepletionBefore),
				CreatedAt:       now,
				UpdatedAt:       now,
			})
		}
		if err := s.schedules.CreateBatch(ctx, schedules); err != nil {
			return nil, fmt.Errorf("failed to store planned schedules: %w", err)
		}
		plan.Schedules = schedules

		s.activities.record(ctx, farm.ID, actor.UserID, domain.ActivityIrrigationPlan,
			fmt.Sprintf("Irrigation planned for field %q", field.Name),
			map[string]any{"fieldId": field.ID.String(), "events": len(schedules), "totalWaterMm": plan.TotalWaterMM},
		)
	}
	return plan, nil
}

// ET0 computes reference and crop evapotranspiration for one day
func (s *IrrigationService) ET0(input *domain.ET0Input, stage domain.GrowthStage) domain.ET0Result {
	if stage == "" {
		stage = domain.StageMid
	}
	return agronomy.CropET(*input, stage)
}

// CheckFields analyses every field that reported recently and raises
// moisture alerts, at most one per kind and field every few hours. It
// returns the number of alerts raised.
func (s *IrrigationService) CheckFields(ctx context.Context) (int, error) {
	ids, err := s.readings.FieldsReportingSince(ctx, s.now().Add(-moistureCheckWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list reporting fields: %w", err)
	}

	raised := 0
	for _, id := range ids {
		field, err := s.fields.GetByID(ctx, id)
		if err != nil {
			s.log.Warn("skipping moisture check", zap.String("field_id", id.String()), zap.Error(err))
			continue
		}
		farm, err := s.farms.GetByID(ctx, field.FarmID)
		if err != nil {
			s.log.Warn("skipping moisture check", zap.String("field_id", id.String()), zap.Error(err))
			continue
		}
		analysis, err := s.AnalyzeField(ctx, field)
		if err != nil {
			continue
		}
		if s.alerts == nil {
			continue
		}

		for _, a := range analysis.Alerts {
			ok, err := s.alerts.RaiseOnce(ctx, &domain.Alert{
				FarmID:   &farm.ID,
				UserID:   farm.OwnerID,
				Type:     domain.AlertMoisture,
				Severity: a.Severity,
				Title:    fmt.Sprintf("%s: %s", field.Name, a.Kind),
				Message:  a.Message,
			}, moistureAlertCooldown)
			if err != nil {
				s.log.Warn("failed to raise moisture alert", zap.String("field_id", id.String()), zap.Error(err))
				continue
			}
			if ok {
				raised++
			}
		}
	}
	return raised, nil
}

// WeatherDays turns a forecast into the water balance inputs
func WeatherDays(forecast *domain.Forecast, latitude float64) []agronomy.WeatherDay {
	days := make([]agronomy.WeatherDay, 0, len(forecast.Days))
	for _, d := range forecast.Days {
		in := domain.ET0Input{
			TempMax:      d.TempMax,
			TempMin:      d.TempMin,
			HumidityMean: d.Humidity,
			WindSpeed:    d.WindSpeed,
			Latitude:     latitude,
			DayOfYear:    d.Date.YearDay(),
		}
		if d.SolarRadiation > 0 {
			rs := d.SolarRadiation
			in.SolarRadiation = &rs
		}
		et0, _ := agronomy.ReferenceET(in)
		days = append(days, agronomy.WeatherDay{Date: d.Date, ET0: et0, RainMM: d.Rainfall})
	}
	return days
}
