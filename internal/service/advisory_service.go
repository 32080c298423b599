package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/advisory"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/agronomy"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/metrics"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const (
	adviceForecastDays    = 7
	adviceCropSuggestions = 3
	adviceTrendWindowDays = 90
	triggerSession        = "session"
	triggerOneShot        = "one_shot"
)

// SessionRepository defines advisory session repository operations
type SessionRepository interface {
	Create(ctx context.Context, session *domain.AdvisorySession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AdvisorySession, error)
	Update(ctx context.Context, session *domain.AdvisorySession) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.SessionFilter, p pagination.Params) ([]domain.AdvisorySession, int64, error)
	CountActive(ctx context.Context, farmID uuid.UUID) (int64, error)
	CountAllActive(ctx context.Context) (int64, error)
	// LatestWithRecommendations returns the most recently updated session of
	// the farm that has recommendations
	LatestWithRecommendations(ctx context.Context, farmID uuid.UUID) (*domain.AdvisorySession, error)
	// ArchiveInactive archives active sessions not updated since before
	ArchiveInactive(ctx context.Context, before time.Time) (int64, error)
}

// MoistureSource analyses a field's recent soil moisture
type MoistureSource interface {
	AnalyzeField(ctx context.Context, field *domain.Field) (*domain.MoistureAnalysis, error)
}

// TrendSource analyses a commodity's recent prices
type TrendSource interface {
	Trend(ctx context.Context, commodity, market string, days int) (*domain.TrendAnalysis, error)
}

// AdvisoryService runs the advisory engine for farms and manages sessions
type AdvisoryService struct {
	ownership
	sessions   SessionRepository
	crops      CropRepository
	engine     *advisory.Engine
	aggregator *advisory.Aggregator
	weather    WeatherLookup
	moisture   MoistureSource
	trends     TrendSource
	publisher  EventPublisher
	activities activityLog
	log        *zap.Logger
}

// NewAdvisoryService creates a new advisory service
func NewAdvisoryService(
	farms FarmRepository,
	fields FieldRepository,
	sessions SessionRepository,
	crops CropRepository,
	activities ActivityRepository,
	engine *advisory.Engine,
	aggregator *advisory.Aggregator,
	log *zap.Logger,
) *AdvisoryService {
	return &AdvisoryService{
		ownership:  ownership{farms: farms, fields: fields},
		sessions:   sessions,
		crops:      crops,
		engine:     engine,
		aggregator: aggregator,
		activities: activityLog{repo: activities, log: log},
		log:        log,
	}
}

// SetWeather feeds live weather and forecast alerts into the engine
func (s *AdvisoryService) SetWeather(w WeatherLookup) { s.weather = w }

// SetMoisture feeds field moisture analyses into the engine
func (s *AdvisoryService) SetMoisture(m MoistureSource) { s.moisture = m }

// SetTrends feeds market trends into the engine
func (s *AdvisoryService) SetTrends(t TrendSource) { s.trends = t }

// SetPublisher enables session events on the user's stream
func (s *AdvisoryService) SetPublisher(p EventPublisher) { s.publisher = p }

// Start opens a session about one of the actor's farms
func (s *AdvisoryService) Start(ctx context.Context, actor Actor, input *domain.SessionInput) (*domain.AdvisorySession, error) {
	farm, err := s.farm(ctx, actor, input.FarmID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.AdvisorySession{
		ID:              uuid.New(),
		FarmID:          farm.ID,
		UserID:          actor.UserID,
		Title:           input.Title,
		Query:           input.Query,
		Season:          input.Season,
		Status:          domain.SessionActive,
		Recommendations: []domain.Recommendation{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.activities.record(ctx, farm.ID, actor.UserID, domain.ActivitySessionStarted,
		fmt.Sprintf("Advisory session %q started", session.Title),
		map[string]any{"sessionId": session.ID.String()},
	)
	return session, nil
}

// Get returns one of the actor's sessions
func (s *AdvisoryService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*domain.AdvisorySession, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !actor.Owns(session.UserID) {
		return nil, apperrors.NotFound("session")
	}
	return session, nil
}

// Update edits a session that is not archived
func (s *AdvisoryService) Update(ctx context.Context, actor Actor, id uuid.UUID, input *domain.SessionUpdateInput) (*domain.AdvisorySession, error) {
	session, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionArchived {
		return nil, apperrors.Conflict("archived sessions cannot be modified")
	}

	if input.Title != nil {
		session.Title = *input.Title
	}
	if input.Query != nil {
		session.Query = *input.Query
	}
	if input.Season != nil {
		session.Season = *input.Season
	}
	if input.Summary != nil {
		session.Summary = *input.Summary
	}
	session.UpdatedAt = time.Now().UTC()

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

// Delete removes a session
func (s *AdvisoryService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List lists the actor's sessions; staff see every session
func (s *AdvisoryService) List(ctx context.Context, actor Actor, filter *domain.SessionFilter, p pagination.Params) (pagination.Page[domain.AdvisorySession], error) {
	if owner := actor.ownerScope(); owner != nil {
		filter.UserID = owner
	}
	sessions, total, err := s.sessions.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[domain.AdvisorySession]{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	return pagination.NewPage(sessions, p, total), nil
}

// Generate runs the engine for an active session's farm and stores the result
func (s *AdvisoryService) Generate(ctx context.Context, actor Actor, id uuid.UUID) (*domain.AdvisorySession, error) {
	session, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionActive {
		return nil, apperrors.Conflict(fmt.Sprintf("session is %s, advice can only be generated for active sessions", session.Status))
	}

	farm, err := s.farms.GetByID(ctx, session.FarmID)
	if err != nil {
		return nil, fmt.Errorf("failed to get farm: %w", err)
	}

	advice, err := s.advise(ctx, farm, nil, nil, session.Season)
	if err != nil {
		return nil, err
	}
	metrics.AdvisoryGenerated(triggerSession)

	session.Recommendations = advice.Recommendations
	session.Confidence = advice.Confidence
	session.Summary = summarize(advice)
	session.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	s.activities.record(ctx, farm.ID, actor.UserID, domain.ActivityAdviceGenerated,
		fmt.Sprintf("Advice generated for session %q", session.Title),
		map[string]any{"sessionId": session.ID.String(), "overallScore": advice.OverallScore},
	)
	s.publish(ctx, session.UserID, EventTypeAdviceGenerated, map[string]any{
		"sessionId":       session.ID,
		"recommendations": len(session.Recommendations),
	})
	return session, nil
}

// Complete closes an active session
func (s *AdvisoryService) Complete(ctx context.Context, actor Actor, id uuid.UUID) (*domain.AdvisorySession, error) {
	session, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionActive {
		return nil, apperrors.Conflict(fmt.Sprintf("session is already %s", session.Status))
	}

	now := time.Now().UTC()
	session.Status = domain.SessionCompleted
	session.CompletedAt = &now
	session.UpdatedAt = now
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	s.publish(ctx, session.UserID, EventTypeSessionCompleted, map[string]any{"sessionId": session.ID})
	return session, nil
}

// Archive hides a session from the active views
func (s *AdvisoryService) Archive(ctx context.Context, actor Actor, id uuid.UUID) (*domain.AdvisorySession, error) {
	session, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if session.Status == domain.SessionArchived {
		return nil, apperrors.Conflict("session is already archived")
	}

	session.Status = domain.SessionArchived
	session.UpdatedAt = time.Now().UTC()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to archive session: %w", err)
	}
	return session, nil
}

// Advice answers a one-shot request without storing anything
func (s *AdvisoryService) Advice(ctx context.Context, actor Actor, req *domain.AdviceRequest) (*domain.ComprehensiveAdvice, error) {
	farm, err := s.farm(ctx, actor, req.FarmID)
	if err != nil {
		return nil, err
	}

	var field *domain.Field
	if req.FieldID != nil {
		f, fieldFarm, err := s.field(ctx, actor, *req.FieldID)
		if err != nil {
			return nil, err
		}
		if fieldFarm.ID != farm.ID {
			return nil, apperrors.Validation("field does not belong to the farm").WithDetail("fieldId", "not on this farm")
		}
		field = f
	}

	advice, err := s.advise(ctx, farm, field, req.CropID, req.Season)
	if err != nil {
		return nil, err
	}
	metrics.AdvisoryGenerated(triggerOneShot)
	return advice, nil
}

// CleanupInactive archives active sessions idle for longer than inactiveAfter
func (s *AdvisoryService) CleanupInactive(ctx context.Context, inactiveAfter time.Duration) (int64, error) {
	n, err := s.sessions.ArchiveInactive(ctx, time.Now().UTC().Add(-inactiveAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to archive inactive sessions: %w", err)
	}
	if n > 0 {
		s.log.Info("archived inactive sessions", zap.Int64("count", n))
	}
	return n, nil
}

// advise gathers what is known about the farm, runs the engine and merges
// its recommendations with those of the individual analyses. Every source
// except the crop catalogue is optional and failures only narrow the input.
func (s *AdvisoryService) advise(ctx context.Context, farm *domain.Farm, field *domain.Field, cropID *uuid.UUID, season domain.Season) (*domain.ComprehensiveAdvice, error) {
	in := advisory.Input{Farm: *farm}
	log := s.log.With(zap.String("farm_id", farm.ID.String()))

	if cropID == nil && field != nil {
		cropID = field.CropID
	}
	if cropID != nil {
		crop, err := s.crops.GetByID(ctx, *cropID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.Validation("unknown crop").WithDetail("cropId", "does not exist")
			}
			return nil, fmt.Errorf("failed to get crop: %w", err)
		}
		in.Crop = crop
	}

	if s.weather != nil && farm.HasCoordinates() {
		if obs, err := s.weather.Current(ctx, *farm.Latitude, *farm.Longitude); err != nil {
			log.Warn("advice without current weather", zap.Error(err))
		} else {
			in.Weather = obs
		}
		if fc, err := s.weather.Forecast(ctx, *farm.Latitude, *farm.Longitude, adviceForecastDays); err != nil {
			log.Warn("advice without forecast", zap.Error(err))
		} else {
			in.Forecast = fc.Days
		}
	}

	site := s.siteFor(farm, field, in.Crop, in.Weather, season)
	if in.Crop != nil {
		score := agronomy.ScoreCrop(*in.Crop, site)
		in.Suitability = &score
	}

	var ranked []domain.CropSuitability
	crops, err := s.crops.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load crops: %w", err)
	}
	if len(crops) > 0 {
		ranked = agronomy.RankCrops(crops, site, adviceCropSuggestions)
	}

	if s.moisture != nil && field != nil {
		if m, err := s.moisture.AnalyzeField(ctx, field); err != nil {
			log.Debug("advice without moisture analysis", zap.Error(err))
		} else {
			in.Moisture = m
		}
	}

	if s.trends != nil && in.Crop != nil {
		if t, err := s.trends.Trend(ctx, in.Crop.Name, "", adviceTrendWindowDays); err != nil {
			log.Debug("advice without market trend", zap.Error(err))
		} else {
			in.Trend = t
		}
	}

	advice := s.engine.Generate(in)
	advice.Recommendations = s.aggregator.Merge(
		advice.Recommendations,
		advisory.FromWeatherAlerts(agronomy.EvaluateWeatherAlerts(in.Forecast)),
		advisory.FromMoisture(in.Moisture),
		advisory.FromSuitability(ranked, adviceCropSuggestions),
		advisory.FromTrend(in.Trend),
	)
	return advice, nil
}

// siteFor describes the farm as crop scoring sees it. Without a crop the
// rainfall and pH fall back to neutral mid values.
func (s *AdvisoryService) siteFor(farm *domain.Farm, field *domain.Field, crop *domain.Crop, obs *domain.WeatherObservation, season domain.Season) domain.SiteConditions {
	site := domain.SiteConditions{
		Temperature: 25,
		Rainfall:    800,
		SoilPH:      6.8,
		SoilType:    farm.SoilType,
		Season:      season,
	}
	if crop != nil {
		site.Temperature = (crop.OptimalTempMin + crop.OptimalTempMax) / 2
		site.Rainfall = (crop.OptimalRainfallMin + crop.OptimalRainfallMax) / 2
		site.SoilPH = (crop.OptimalPHMin + crop.OptimalPHMax) / 2
	}
	if obs != nil {
		site.Temperature = obs.Temperature
	}
	if field != nil {
		site.SoilType = field.SoilType
		if field.SoilPH != nil {
			site.SoilPH = *field.SoilPH
		}
	}
	return site
}

func (s *AdvisoryService) publish(ctx context.Context, userID uuid.UUID, eventType string, data any) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, userID, eventType, data)
	}
}

func summarize(a *domain.ComprehensiveAdvice) string {
	summary := fmt.Sprintf("Overall farm score %.0f/100 with %.0f%% confidence.", a.OverallScore, a.Confidence*100)
	if len(a.Recommendations) > 0 {
		top := a.Recommendations[0]
		summary += fmt.Sprintf(" Top priority (%s): %s.", top.Priority, top.Title)
	}
	return summary
}
