package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

type farmFixture struct {
	farms      *MockFarmRepository
	fields     *MockFieldRepository
	sessions   *MockSessionRepository
	alerts     *MockAlertRepository
	activities *MockActivityRepository
	svc        *FarmService
}

func newFarmFixture() *farmFixture {
	f := &farmFixture{
		farms:      new(MockFarmRepository),
		fields:     new(MockFieldRepository),
		sessions:   new(MockSessionRepository),
		alerts:     new(MockAlertRepository),
		activities: new(MockActivityRepository),
	}
	f.svc = NewFarmService(f.farms, f.fields, f.sessions, f.alerts, f.activities, zap.NewNop())
	return f
}

func TestFarmService_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("cultivated area above total is rejected", func(t *testing.T) {
		f := newFarmFixture()

		_, err := f.svc.Create(ctx, Actor{UserID: owner}, &domain.FarmInput{Name: "Big", TotalArea: 5, CultivatedArea: 6, SoilType: domain.SoilLoamy})

		require.True(t, apperrors.IsValidation(err))
		assert.Contains(t, apperrors.GetAppError(err).Details, "cultivatedArea")
		f.farms.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("activity failure does not fail the create", func(t *testing.T) {
		f := newFarmFixture()
		f.farms.On("Create", ctx, mock.AnythingOfType("*domain.Farm")).Return(nil)
		f.activities.On("Create", ctx, mock.AnythingOfType("*domain.FarmActivity")).Return(errors.New("db down"))

		farm, err := f.svc.Create(ctx, Actor{UserID: owner}, &domain.FarmInput{Name: "Small", TotalArea: 5, CultivatedArea: 4, SoilType: domain.SoilLoamy})

		require.NoError(t, err)
		assert.Equal(t, owner, farm.OwnerID)
		f.activities.AssertExpectations(t)
	})
}

func TestFarmService_Update(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	actor := Actor{UserID: owner}

	setup := func(fieldArea float64) (*farmFixture, *domain.Farm) {
		f := newFarmFixture()
		farm := ownedFarm(owner)
		farm.CultivatedArea = 8
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.farms.On("Update", ctx, farm.ID).Return(farm, fieldArea, nil)
		f.activities.On("Create", ctx, mock.AnythingOfType("*domain.FarmActivity")).Return(nil).Maybe()
		return f, farm
	}

	t.Run("area invariant checks the merged farm", func(t *testing.T) {
		f, farm := setup(0)
		total := 7.0

		// only totalArea is sent, the stored cultivatedArea of 8 now exceeds it
		_, err := f.svc.Update(ctx, actor, farm.ID, &domain.FarmUpdateInput{TotalArea: &total})

		require.True(t, apperrors.IsValidation(err))
		f.activities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("merged update within bounds succeeds", func(t *testing.T) {
		f, farm := setup(0)
		cultivated := 9.5

		updated, err := f.svc.Update(ctx, actor, farm.ID, &domain.FarmUpdateInput{CultivatedArea: &cultivated})

		require.NoError(t, err)
		assert.Equal(t, 9.5, updated.CultivatedArea)
		assert.Equal(t, 10.0, updated.TotalArea)
		f.activities.AssertCalled(t, "Create", ctx, mock.MatchedBy(func(a *domain.FarmActivity) bool {
			return a.Action == domain.ActivityFarmUpdated
		}))
	})

	t.Run("total cannot shrink below its fields", func(t *testing.T) {
		f, farm := setup(9)
		total, cultivated := 8.5, 8.0

		_, err := f.svc.Update(ctx, actor, farm.ID, &domain.FarmUpdateInput{TotalArea: &total, CultivatedArea: &cultivated})

		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, 409, apperrors.GetStatusCode(err))
	})

	t.Run("shrinking to exactly the field area is allowed", func(t *testing.T) {
		f, farm := setup(9)
		total := 9.0

		updated, err := f.svc.Update(ctx, actor, farm.ID, &domain.FarmUpdateInput{TotalArea: &total})

		require.NoError(t, err)
		assert.Equal(t, 9.0, updated.TotalArea)
	})

	t.Run("other users' farms are not found", func(t *testing.T) {
		f := newFarmFixture()
		farm := ownedFarm(uuid.New())
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		name := "Mine now"

		_, err := f.svc.Update(ctx, actor, farm.ID, &domain.FarmUpdateInput{Name: &name})

		assert.True(t, apperrors.IsNotFound(err))
		f.farms.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestFarmService_Dashboard(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	actor := Actor{UserID: owner}

	t.Run("aggregates fields sessions alerts and recommendations", func(t *testing.T) {
		f := newFarmFixture()
		farm := ownedFarm(owner)
		f.svc.SetWeather(stubWeather{})
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.fields.On("ListByFarm", ctx, farm.ID).Return([]domain.Field{
			{Area: 3, GrowthStage: domain.StageMid},
			{Area: 2, GrowthStage: domain.StageInitial},
			{Area: 4, GrowthStage: domain.StageFallow},
		}, nil)
		f.sessions.On("CountActive", ctx, farm.ID).Return(int64(2), nil)
		f.alerts.On("CountUnread", ctx, owner, &farm.ID).Return(int64(3), nil)

		recs := []domain.Recommendation{
			{Title: "a", Priority: domain.PriorityLow},
			{Title: "b", Priority: domain.PriorityCritical},
			{Title: "c", Priority: domain.PriorityMedium},
			{Title: "d", Priority: domain.PriorityHigh},
			{Title: "e", Priority: domain.PriorityLow},
			{Title: "f", Priority: domain.PriorityHigh},
		}
		f.sessions.On("LatestWithRecommendations", ctx, farm.ID).Return(&domain.AdvisorySession{Recommendations: recs}, nil)
		f.activities.On("ListByFarm", ctx, farm.ID, pagination.NewParams(1, dashboardItems)).
			Return([]domain.FarmActivity{{Action: domain.ActivityFarmCreated}}, int64(1), nil)

		dash, err := f.svc.Dashboard(ctx, actor, farm.ID)

		require.NoError(t, err)
		assert.Equal(t, 3, dash.FieldCount)
		assert.InDelta(t, 5.0, dash.PlantedArea, 1e-9)
		assert.Equal(t, int64(2), dash.ActiveSessions)
		assert.Equal(t, int64(3), dash.UnreadAlerts)
		require.NotNil(t, dash.CurrentWeather)
		require.Len(t, dash.Recommendations, dashboardItems)
		assert.Equal(t, domain.PriorityCritical, dash.Recommendations[0].Priority)
		assert.Equal(t, domain.PriorityLow, dash.Recommendations[dashboardItems-1].Priority)
		assert.Len(t, dash.RecentActivities, 1)
		assert.Len(t, recs, 6, "stored session recommendations are not reordered")
		assert.Equal(t, "a", recs[0].Title)
	})

	t.Run("farm without sessions has empty recommendations", func(t *testing.T) {
		f := newFarmFixture()
		farm := ownedFarm(owner)
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.fields.On("ListByFarm", ctx, farm.ID).Return([]domain.Field{}, nil)
		f.sessions.On("CountActive", ctx, farm.ID).Return(int64(0), nil)
		f.alerts.On("CountUnread", ctx, owner, &farm.ID).Return(int64(0), nil)
		f.sessions.On("LatestWithRecommendations", ctx, farm.ID).Return(nil, apperrors.NotFound("session"))
		f.activities.On("ListByFarm", ctx, farm.ID, mock.Anything).Return([]domain.FarmActivity{}, int64(0), nil)

		dash, err := f.svc.Dashboard(ctx, actor, farm.ID)

		require.NoError(t, err)
		assert.NotNil(t, dash.Recommendations)
		assert.Empty(t, dash.Recommendations)
		assert.Nil(t, dash.CurrentWeather)
	})
}
