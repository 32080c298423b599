package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/testutil"
)

type MockCropService struct {
	mock.Mock
}

func (m *MockCropService) crop(args mock.Arguments) (*domain.Crop, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Crop), args.Error(1)
}

func (m *MockCropService) Create(ctx context.Context, input *domain.CropInput) (*domain.Crop, error) {
	return m.crop(m.Called(ctx, input))
}

func (m *MockCropService) Get(ctx context.Context, id uuid.UUID) (*domain.Crop, error) {
	return m.crop(m.Called(ctx, id))
}

func (m *MockCropService) Update(ctx context.Context, id uuid.UUID, input *domain.CropInput) (*domain.Crop, error) {
	return m.crop(m.Called(ctx, id, input))
}

func (m *MockCropService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCropService) List(ctx context.Context, filter *domain.CropFilter, p pagination.Params) (pagination.Page[domain.Crop], error) {
	args := m.Called(ctx, filter, p)
	return args.Get(0).(pagination.Page[domain.Crop]), args.Error(1)
}

func (m *MockCropService) Recommend(ctx context.Context, req *domain.CropRecommendationRequest) ([]domain.CropSuitability, error) {
	args := m.Called(ctx, req)
	return args.Get(0).([]domain.CropSuitability), args.Error(1)
}

func (m *MockCropService) Suitability(ctx context.Context, id uuid.UUID, site domain.SiteConditions) (*domain.CropSuitability, error) {
	args := m.Called(ctx, id, site)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CropSuitability), args.Error(1)
}

type MockDiseaseService struct {
	mock.Mock
}

func (m *MockDiseaseService) Detect(ctx context.Context, actor service.Actor, upload *service.DetectionUpload) (*domain.DiseaseDetection, error) {
	args := m.Called(ctx, actor, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiseaseDetection), args.Error(1)
}

func (m *MockDiseaseService) Get(ctx context.Context, actor service.Actor, id uuid.UUID) (*domain.DiseaseDetection, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiseaseDetection), args.Error(1)
}

func (m *MockDiseaseService) List(ctx context.Context, actor service.Actor, p pagination.Params) (pagination.Page[domain.DiseaseDetection], error) {
	args := m.Called(ctx, actor, p)
	return args.Get(0).(pagination.Page[domain.DiseaseDetection]), args.Error(1)
}

func (m *MockDiseaseService) Knowledge(crop string) []domain.DiseaseInfo {
	args := m.Called(crop)
	return args.Get(0).([]domain.DiseaseInfo)
}

var leafPNG = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{7}, 256)...)

// doMultipart posts form fields and an optional image part
func doMultipart(t *testing.T, app *fiber.App, path string, fields map[string]string, image []byte) (*http.Response, envelope) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "leaf.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func TestCropsHandler_Recommend(t *testing.T) {
	site := map[string]any{"temperature": 28, "rainfall": 1400, "soilPh": 6, "soilType": "clay", "season": "kharif", "limit": 3}

	t.Run("ranks crops", func(t *testing.T) {
		crops := new(MockCropService)
		crops.On("Recommend", mock.Anything, &domain.CropRecommendationRequest{
			SiteConditions: domain.SiteConditions{Temperature: 28, Rainfall: 1400, SoilPH: 6, SoilType: domain.SoilClay, Season: domain.SeasonKharif},
			Limit:          3,
		}).Return([]domain.CropSuitability{{CropName: "rice", Score: 100, Suitable: true}}, nil)

		app := newTestApp()
		h := NewCropsHandler(crops, new(MockDiseaseService), zap.NewNop())
		app.Post("/crops/recommend", h.Recommend)

		resp, env := doJSON(t, app, http.MethodPost, "/crops/recommend", site)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got []domain.CropSuitability
		require.NoError(t, json.Unmarshal(env.Data, &got))
		require.Len(t, got, 1)
		assert.Equal(t, "rice", got[0].CropName)
		crops.AssertExpectations(t)
	})

	t.Run("soil type is required", func(t *testing.T) {
		crops := new(MockCropService)
		app := newTestApp()
		h := NewCropsHandler(crops, new(MockDiseaseService), zap.NewNop())
		app.Post("/crops/recommend", h.Recommend)

		resp, env := doJSON(t, app, http.MethodPost, "/crops/recommend", map[string]any{"temperature": 28, "rainfall": 1400, "soilPh": 6})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Details, "soilType")
		crops.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything)
	})
}

func TestCropsHandler_Suitability(t *testing.T) {
	cropID := uuid.New()

	t.Run("scores from query parameters", func(t *testing.T) {
		crops := new(MockCropService)
		crops.On("Suitability", mock.Anything, cropID, domain.SiteConditions{Temperature: 20, Rainfall: 550, SoilPH: 6.8, SoilType: domain.SoilLoamy, Season: domain.SeasonRabi}).
			Return(&domain.CropSuitability{CropID: cropID, Score: 100, Suitable: true}, nil)

		app := newTestApp()
		h := NewCropsHandler(crops, new(MockDiseaseService), zap.NewNop())
		app.Get("/crops/:id/suitability", h.Suitability)

		resp, env := doJSON(t, app, http.MethodGet,
			"/crops/"+cropID.String()+"/suitability?temperature=20&rainfall=550&ph=6.8&soilType=loamy&season=rabi", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(env.Data), `"suitable":true`)
	})

	t.Run("missing measurement", func(t *testing.T) {
		crops := new(MockCropService)
		app := newTestApp()
		h := NewCropsHandler(crops, new(MockDiseaseService), zap.NewNop())
		app.Get("/crops/:id/suitability", h.Suitability)

		resp, env := doJSON(t, app, http.MethodGet, "/crops/"+cropID.String()+"/suitability?temperature=20&ph=6.8&soilType=loamy", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Details, "rainfall")
	})

	t.Run("unknown crop", func(t *testing.T) {
		crops := new(MockCropService)
		crops.On("Suitability", mock.Anything, cropID, mock.Anything).Return(nil, apperrors.NotFound("crop"))

		app := newTestApp()
		h := NewCropsHandler(crops, new(MockDiseaseService), zap.NewNop())
		app.Get("/crops/:id/suitability", h.Suitability)

		resp, _ := doJSON(t, app, http.MethodGet, "/crops/"+cropID.String()+"/suitability?temperature=20&rainfall=550&ph=6.8&soilType=loamy", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCropsHandler_CreateCrop(t *testing.T) {
	staffID := uuid.New()
	crops := new(MockCropService)
	crops.On("Create", mock.Anything, mock.MatchedBy(func(in *domain.CropInput) bool {
		return in.Name == "millet" && in.Season == domain.SeasonKharif
	})).Return(&domain.Crop{ID: uuid.New(), Name: "millet"}, nil)

	app := newTestApp()
	h := NewCropsHandler(crops, new(MockDiseaseService), zap.NewNop())
	app.Post("/crops", testutil.TestStaffMiddleware(staffID), h.CreateCrop)

	resp, _ := doJSON(t, app, http.MethodPost, "/crops", map[string]any{
		"name": "millet", "category": "cereal", "season": "kharif", "growthDurationDays": 90,
		"optimalTempMin": 25, "optimalTempMax": 35, "optimalRainfallMin": 400, "optimalRainfallMax": 700,
		"optimalPhMin": 5.5, "optimalPhMax": 7.5,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/crops", map[string]any{
		"name": "millet", "category": "cereal", "season": "kharif", "growthDurationDays": 90,
		"optimalTempMin": 35, "optimalTempMax": 25,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Details, "optimalTempMin")
	crops.AssertNumberOfCalls(t, "Create", 1)
}

func TestCropsHandler_Detect(t *testing.T) {
	userID := uuid.New()
	me := service.Actor{UserID: userID}

	setup := func(diseases *MockDiseaseService) *fiber.App {
		app := newTestApp()
		h := NewCropsHandler(new(MockCropService), diseases, zap.NewNop())
		app.Post("/disease-detections", testutil.TestUserMiddleware(userID), h.Detect)
		return app
	}

	t.Run("uploads image with crop and field", func(t *testing.T) {
		fieldID := uuid.New()
		diseases := new(MockDiseaseService)
		diseases.On("Detect", mock.Anything, me, mock.MatchedBy(func(u *service.DetectionUpload) bool {
			return u.CropName == "tomato" && u.FieldID != nil && *u.FieldID == fieldID && bytes.Equal(u.Image, leafPNG)
		})).Return(&domain.DiseaseDetection{ID: uuid.New(), CropName: "tomato", DetectedDisease: "Early blight", Status: domain.DetectionCompleted}, nil)

		resp, env := doMultipart(t, setup(diseases), "/disease-detections",
			map[string]string{"cropName": "tomato", "fieldId": fieldID.String()}, leafPNG)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got domain.DiseaseDetection
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "Early blight", got.DetectedDisease)
		diseases.AssertExpectations(t)
	})

	t.Run("missing image", func(t *testing.T) {
		diseases := new(MockDiseaseService)

		resp, env := doMultipart(t, setup(diseases), "/disease-detections", map[string]string{"cropName": "tomato"}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Details, "image")
		diseases.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed field id", func(t *testing.T) {
		diseases := new(MockDiseaseService)

		resp, env := doMultipart(t, setup(diseases), "/disease-detections",
			map[string]string{"cropName": "tomato", "fieldId": "plot-7"}, leafPNG)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Details, "fieldId")
	})

	t.Run("service validation is passed through", func(t *testing.T) {
		diseases := new(MockDiseaseService)
		diseases.On("Detect", mock.Anything, me, mock.Anything).
			Return(nil, apperrors.Validation("unsupported image type").WithDetail("image", "must be jpeg, png or webp"))

		resp, env := doMultipart(t, setup(diseases), "/disease-detections", map[string]string{"cropName": "tomato"}, []byte("GIF89a"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, apperrors.CodeValidation, env.Code)
	})
}

func TestCropsHandler_Detections(t *testing.T) {
	userID := uuid.New()
	me := service.Actor{UserID: userID}
	diseases := new(MockDiseaseService)
	h := NewCropsHandler(new(MockCropService), diseases, zap.NewNop())
	app := newTestApp()
	app.Get("/disease-detections", testutil.TestUserMiddleware(userID), h.ListDetections)
	app.Get("/disease-detections/:id", testutil.TestUserMiddleware(userID), h.GetDetection)
	app.Get("/diseases", h.Diseases)

	id := uuid.New()
	diseases.On("List", mock.Anything, me, pagination.NewParams(1, 20)).
		Return(pagination.NewPage([]domain.DiseaseDetection{{ID: id}}, pagination.NewParams(1, 20), 1), nil)
	diseases.On("Get", mock.Anything, me, id).Return(&domain.DiseaseDetection{ID: id, ImageURL: "https://objects.test/x.png"}, nil)
	diseases.On("Knowledge", "rice").Return([]domain.DiseaseInfo{{Name: "Blast"}})

	resp, env := doJSON(t, app, http.MethodGet, "/disease-detections", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, int64(1), env.Pagination.Count)

	resp, env = doJSON(t, app, http.MethodGet, "/disease-detections/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "objects.test")

	resp, env = doJSON(t, app, http.MethodGet, "/diseases?crop=rice", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), "Blast")
}
