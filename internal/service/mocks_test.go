package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User, profile *domain.UserProfile) error {
	args := m.Called(ctx, user, profile)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockUserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *domain.User, profile *domain.UserProfile) error {
	args := m.Called(ctx, user, profile)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter *domain.UserFilter, p pagination.Params) ([]domain.User, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]domain.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockFarmRepository is a mock implementation of FarmRepository
type MockFarmRepository struct {
	mock.Mock
}

func (m *MockFarmRepository) Create(ctx context.Context, farm *domain.Farm) error {
	args := m.Called(ctx, farm)
	return args.Error(0)
}

func (m *MockFarmRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Farm, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Farm), args.Error(1)
}

// Update runs fn against a copy of the farm returned by the expectation,
// which also supplies the area covered by the farm's fields
func (m *MockFarmRepository) Update(ctx context.Context, id uuid.UUID, fn func(farm *domain.Farm, fieldArea float64) error) (*domain.Farm, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(2)
	}
	farm := *args.Get(0).(*domain.Farm)
	if err := fn(&farm, args.Get(1).(float64)); err != nil {
		return nil, err
	}
	return &farm, args.Error(2)
}

func (m *MockFarmRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFarmRepository) List(ctx context.Context, filter *domain.FarmFilter, p pagination.Params) ([]domain.Farm, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]domain.Farm), args.Get(1).(int64), args.Error(2)
}

func (m *MockFarmRepository) ListWithCoordinates(ctx context.Context) ([]domain.Farm, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Farm), args.Error(1)
}

func (m *MockFarmRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockFieldRepository is a mock implementation of FieldRepository
type MockFieldRepository struct {
	mock.Mock
}

// Create expects Return(lockedFarm, usedArea, err); check runs when both are set
func (m *MockFieldRepository) Create(ctx context.Context, field *domain.Field, check domain.AreaCheck) error {
	return runAreaCheck(m.Called(ctx, field), check)
}

func (m *MockFieldRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Field, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Field), args.Error(1)
}

func (m *MockFieldRepository) Update(ctx context.Context, field *domain.Field, check domain.AreaCheck) error {
	return runAreaCheck(m.Called(ctx, field), check)
}

func runAreaCheck(args mock.Arguments, check domain.AreaCheck) error {
	if farm, ok := args.Get(0).(*domain.Farm); ok && farm != nil && check != nil {
		if err := check(farm, args.Get(1).(float64)); err != nil {
			return err
		}
	}
	return args.Error(2)
}

func (m *MockFieldRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFieldRepository) ListByFarm(ctx context.Context, farmID uuid.UUID) ([]domain.Field, error) {
	args := m.Called(ctx, farmID)
	return args.Get(0).([]domain.Field), args.Error(1)
}

func (m *MockFieldRepository) List(ctx context.Context, filter *domain.FieldFilter, p pagination.Params) ([]domain.Field, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]domain.Field), args.Get(1).(int64), args.Error(2)
}

func (m *MockFieldRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockCropRepository is a mock implementation of CropRepository
type MockCropRepository struct {
	mock.Mock
}

func (m *MockCropRepository) Create(ctx context.Context, crop *domain.Crop) error {
	args := m.Called(ctx, crop)
	return args.Error(0)
}

func (m *MockCropRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Crop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Crop), args.Error(1)
}

func (m *MockCropRepository) GetByName(ctx context.Context, name string) (*domain.Crop, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Crop), args.Error(1)
}

func (m *MockCropRepository) Update(ctx context.Context, crop *domain.Crop) error {
	args := m.Called(ctx, crop)
	return args.Error(0)
}

func (m *MockCropRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCropRepository) List(ctx context.Context, filter *domain.CropFilter, p pagination.Params) ([]domain.Crop, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]domain.Crop), args.Get(1).(int64), args.Error(2)
}

func (m *MockCropRepository) All(ctx context.Context) ([]domain.Crop, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Crop), args.Error(1)
}

func (m *MockCropRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockAlertRepository is a mock implementation of AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) List(ctx context.Context, filter *domain.AlertFilter, p pagination.Params) ([]domain.Alert, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]domain.Alert), args.Get(1).(int64), args.Error(2)
}

func (m *MockAlertRepository) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockAlertRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) CountUnread(ctx context.Context, userID uuid.UUID, farmID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, farmID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) ExistsSince(ctx context.Context, farmID uuid.UUID, alertType domain.AlertType, title string, since time.Time) (bool, error) {
	args := m.Called(ctx, farmID, alertType, title, since)
	return args.Bool(0), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.AdvisorySession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AdvisorySession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdvisorySession), args.Error(1)
}

func (m *MockSessionRepository) Update(ctx context.Context, session *domain.AdvisorySession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) List(ctx context.Context, filter *domain.SessionFilter, p pagination.Params) ([]domain.AdvisorySession, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]domain.AdvisorySession), args.Get(1).(int64), args.Error(2)
}

func (m *MockSessionRepository) CountActive(ctx context.Context, farmID uuid.UUID) (int64, error) {
	args := m.Called(ctx, farmID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) CountAllActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) LatestWithRecommendations(ctx context.Context, farmID uuid.UUID) (*domain.AdvisorySession, error) {
	args := m.Called(ctx, farmID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdvisorySession), args.Error(1)
}

func (m *MockSessionRepository) ArchiveInactive(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Create(ctx context.Context, activity *domain.FarmActivity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityRepository) ListByFarm(ctx context.Context, farmID uuid.UUID, p pagination.Params) ([]domain.FarmActivity, int64, error) {
	args := m.Called(ctx, farmID, p)
	return args.Get(0).([]domain.FarmActivity), args.Get(1).(int64), args.Error(2)
}

// MockScheduleRepository is a mock implementation of ScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *domain.IrrigationSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) CreateBatch(ctx context.Context, schedules []domain.IrrigationSchedule) error {
	args := m.Called(ctx, schedules)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.IrrigationSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IrrigationSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Update(ctx context.Context, schedule *domain.IrrigationSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScheduleRepository) List(ctx context.Context, filter *domain.ScheduleFilter, p pagination.Params) ([]domain.IrrigationSchedule, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]domain.IrrigationSchedule), args.Get(1).(int64), args.Error(2)
}

// MockMoistureRepository is a mock implementation of MoistureRepository
type MockMoistureRepository struct {
	mock.Mock
}

func (m *MockMoistureRepository) Insert(ctx context.Context, readings []domain.SoilMoistureReading) error {
	args := m.Called(ctx, readings)
	return args.Error(0)
}

func (m *MockMoistureRepository) Since(ctx context.Context, fieldID uuid.UUID, since time.Time) ([]domain.SoilMoistureReading, error) {
	args := m.Called(ctx, fieldID, since)
	return args.Get(0).([]domain.SoilMoistureReading), args.Error(1)
}

func (m *MockMoistureRepository) FieldsReportingSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockPriceRepository is a mock implementation of PriceRepository
type MockPriceRepository struct {
	mock.Mock
}

func (m *MockPriceRepository) Insert(ctx context.Context, prices []domain.MarketPrice) error {
	args := m.Called(ctx, prices)
	return args.Error(0)
}

func (m *MockPriceRepository) List(ctx context.Context, filter *domain.PriceFilter, p pagination.Params) ([]domain.MarketPrice, int64, error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).([]domain.MarketPrice), args.Get(1).(int64), args.Error(2)
}

func (m *MockPriceRepository) Latest(ctx context.Context, commodity string) ([]domain.MarketPrice, error) {
	args := m.Called(ctx, commodity)
	return args.Get(0).([]domain.MarketPrice), args.Error(1)
}

func (m *MockPriceRepository) DailySeries(ctx context.Context, commodity, market string, from time.Time) ([]domain.PricePoint, error) {
	args := m.Called(ctx, commodity, market, from)
	return args.Get(0).([]domain.PricePoint), args.Error(1)
}

func (m *MockPriceRepository) Commodities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []RealtimeEvent
}

func (p *recordingPublisher) Publish(_ context.Context, userID uuid.UUID, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, RealtimeEvent{Type: eventType, UserID: userID, Data: data})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// MockDetectionRepository is a mock implementation of DetectionRepository
type MockDetectionRepository struct {
	mock.Mock
}

func (m *MockDetectionRepository) Create(ctx context.Context, d *domain.DiseaseDetection) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDetectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiseaseDetection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiseaseDetection), args.Error(1)
}

func (m *MockDetectionRepository) List(ctx context.Context, userID *uuid.UUID, p pagination.Params) ([]domain.DiseaseDetection, int64, error) {
	args := m.Called(ctx, userID, p)
	return args.Get(0).([]domain.DiseaseDetection), args.Get(1).(int64), args.Error(2)
}

// memoryObjects is an in-memory ObjectStorage
type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: make(map[string][]byte)}
}

func (o *memoryObjects) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	if o.putErr != nil {
		return o.putErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[bucket+"/"+key] = append([]byte(nil), data...)
	return nil
}

func (o *memoryObjects) PresignedURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + bucket + "/" + key, nil
}

func (o *memoryObjects) get(bucket, key string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[bucket+"/"+key]
	return data, ok
}

func ownedFarm(owner uuid.UUID) *domain.Farm {
	lat, lon := 18.52, 73.85
	return &domain.Farm{
		ID:        uuid.New(),
		OwnerID:   owner,
		Name:      "North Farm",
		TotalArea: 10,
		Latitude:  &lat,
		Longitude: &lon,
		SoilType:  domain.SoilLoamy,
	}
}
