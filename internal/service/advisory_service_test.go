package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/advisory"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

type advisoryFixture struct {
	farms    *MockFarmRepository
	fields   *MockFieldRepository
	sessions *MockSessionRepository
	crops    *MockCropRepository
	events   *recordingPublisher
	svc      *AdvisoryService
}

func newAdvisoryFixture() *advisoryFixture {
	f := &advisoryFixture{
		farms:    new(MockFarmRepository),
		fields:   new(MockFieldRepository),
		sessions: new(MockSessionRepository),
		crops:    new(MockCropRepository),
		events:   &recordingPublisher{},
	}
	f.svc = NewAdvisoryService(f.farms, f.fields, f.sessions, f.crops, nil,
		advisory.NewEngine(7), advisory.NewAggregator(10), zap.NewNop())
	f.svc.SetPublisher(f.events)
	return f
}

func activeSession(owner, farmID uuid.UUID) *domain.AdvisorySession {
	now := time.Now().UTC()
	return &domain.AdvisorySession{
		ID:              uuid.New(),
		FarmID:          farmID,
		UserID:          owner,
		Title:           "Rabi planning",
		Season:          domain.SeasonRabi,
		Status:          domain.SessionActive,
		Recommendations: []domain.Recommendation{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestAdvisoryService_Start(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("opens an active session", func(t *testing.T) {
		f := newAdvisoryFixture()
		farm := ownedFarm(owner)
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*domain.AdvisorySession")).Return(nil)

		session, err := f.svc.Start(ctx, Actor{UserID: owner}, &domain.SessionInput{
			FarmID: farm.ID,
			Title:  "Rabi planning",
			Season: domain.SeasonRabi,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.SessionActive, session.Status)
		assert.Equal(t, owner, session.UserID)
		assert.NotNil(t, session.Recommendations)
	})

	t.Run("farms of other users are not found", func(t *testing.T) {
		f := newAdvisoryFixture()
		farm := ownedFarm(uuid.New())
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)

		_, err := f.svc.Start(ctx, Actor{UserID: owner}, &domain.SessionInput{FarmID: farm.ID, Title: "Mine?"})

		assert.True(t, apperrors.IsNotFound(err))
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAdvisoryService_Get(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	f := newAdvisoryFixture()
	session := activeSession(owner, uuid.New())
	f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)

	got, err := f.svc.Get(ctx, Actor{UserID: owner}, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = f.svc.Get(ctx, Actor{UserID: uuid.New()}, session.ID)
	assert.True(t, apperrors.IsNotFound(err))

	got, err = f.svc.Get(ctx, Actor{UserID: uuid.New(), IsStaff: true}, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestAdvisoryService_Generate(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("stores recommendations and notifies the owner", func(t *testing.T) {
		f := newAdvisoryFixture()
		farm := ownedFarm(owner)
		session := activeSession(owner, farm.ID)

		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.crops.On("All", ctx).Return([]domain.Crop{*wheat()}, nil)
		f.sessions.On("Update", ctx, session).Return(nil)

		got, err := f.svc.Generate(ctx, Actor{UserID: owner}, session.ID)

		require.NoError(t, err)
		assert.NotEmpty(t, got.Recommendations)
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 1.0)
		assert.Contains(t, got.Summary, "Overall farm score")
		assert.Equal(t, []string{EventTypeAdviceGenerated}, f.events.types())
	})

	t.Run("only active sessions", func(t *testing.T) {
		f := newAdvisoryFixture()
		session := activeSession(owner, uuid.New())
		session.Status = domain.SessionCompleted
		f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)

		_, err := f.svc.Generate(ctx, Actor{UserID: owner}, session.ID)

		assert.True(t, apperrors.IsConflict(err))
		assert.Empty(t, f.events.types())
	})
}

func TestAdvisoryService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	actor := Actor{UserID: owner}

	f := newAdvisoryFixture()
	session := activeSession(owner, uuid.New())
	f.sessions.On("GetByID", ctx, session.ID).Return(session, nil)
	f.sessions.On("Update", ctx, session).Return(nil)

	completed, err := f.svc.Complete(ctx, actor, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	_, err = f.svc.Complete(ctx, actor, session.ID)
	assert.True(t, apperrors.IsConflict(err))

	archived, err := f.svc.Archive(ctx, actor, session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionArchived, archived.Status)

	_, err = f.svc.Archive(ctx, actor, session.ID)
	assert.True(t, apperrors.IsConflict(err))

	title := "Renamed"
	_, err = f.svc.Update(ctx, actor, session.ID, &domain.SessionUpdateInput{Title: &title})
	assert.True(t, apperrors.IsConflict(err))

	assert.Equal(t, []string{EventTypeSessionCompleted}, f.events.types())
}

func TestAdvisoryService_List_ScopesToOwner(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	p := pagination.Params{Page: 1, PageSize: 20}

	f := newAdvisoryFixture()
	f.sessions.On("List", ctx, mock.MatchedBy(func(filter *domain.SessionFilter) bool {
		return filter.UserID != nil && *filter.UserID == owner
	}), p).Return([]domain.AdvisorySession{*activeSession(owner, uuid.New())}, int64(1), nil)

	page, err := f.svc.List(ctx, Actor{UserID: owner}, &domain.SessionFilter{}, p)

	require.NoError(t, err)
	assert.Len(t, page.Results, 1)
	assert.Equal(t, int64(1), page.Info.Count)
}

func TestAdvisoryService_Advice(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("field must be on the farm", func(t *testing.T) {
		f := newAdvisoryFixture()
		farm := ownedFarm(owner)
		other := ownedFarm(owner)
		field := &domain.Field{ID: uuid.New(), FarmID: other.ID, SoilType: domain.SoilLoamy, Area: 2}

		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.fields.On("GetByID", ctx, field.ID).Return(field, nil)
		f.farms.On("GetByID", ctx, other.ID).Return(other, nil)

		_, err := f.svc.Advice(ctx, Actor{UserID: owner}, &domain.AdviceRequest{FarmID: farm.ID, FieldID: &field.ID})

		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown crop is a validation error", func(t *testing.T) {
		f := newAdvisoryFixture()
		farm := ownedFarm(owner)
		cropID := uuid.New()

		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.crops.On("GetByID", ctx, cropID).Return(nil, apperrors.NotFound("crop"))

		_, err := f.svc.Advice(ctx, Actor{UserID: owner}, &domain.AdviceRequest{FarmID: farm.ID, CropID: &cropID})

		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("scores every section", func(t *testing.T) {
		f := newAdvisoryFixture()
		farm := ownedFarm(owner)
		crop := wheat()

		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.crops.On("GetByID", ctx, crop.ID).Return(crop, nil)
		f.crops.On("All", ctx).Return([]domain.Crop{*crop}, nil)

		advice, err := f.svc.Advice(ctx, Actor{UserID: owner}, &domain.AdviceRequest{FarmID: farm.ID, CropID: &crop.ID, Season: domain.SeasonRabi})

		require.NoError(t, err)
		for _, score := range []float64{advice.Weather.Score, advice.Crop.Score, advice.Irrigation.Score, advice.Market.Score, advice.OverallScore} {
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
		}
		assert.Empty(t, f.events.types())
	})
}

func TestAdvisoryService_CleanupInactive(t *testing.T) {
	ctx := context.Background()
	f := newAdvisoryFixture()

	f.sessions.On("ArchiveInactive", ctx, mock.MatchedBy(func(before time.Time) bool {
		return time.Since(before) > 29*24*time.Hour
	})).Return(int64(3), nil)

	n, err := f.svc.CleanupInactive(ctx, 30*24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
