package service

import (
	"bytes"
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
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/storage"
)

const diseaseBucket = "crop-images"

func pngImage(size int) []byte {
	header := []byte("\x89PNG\r\n\x1a\n")
	return append(header, bytes.Repeat([]byte{0x42}, size-len(header))...)
}

type diseaseFixture struct {
	farms      *MockFarmRepository
	fields     *MockFieldRepository
	detections *MockDetectionRepository
	alerts     *MockAlertRepository
	svc        *DiseaseService
}

func newDiseaseFixture(objects ObjectStorage) *diseaseFixture {
	f := &diseaseFixture{
		farms:      new(MockFarmRepository),
		fields:     new(MockFieldRepository),
		detections: new(MockDetectionRepository),
		alerts:     new(MockAlertRepository),
	}
	alerts := NewAlertService(f.alerts, nil, zap.NewNop())
	f.svc = NewDiseaseService(f.farms, f.fields, f.detections, objects, alerts, diseaseBucket, 1, zap.NewNop())
	return f
}

func TestDiseaseService_DetectValidation(t *testing.T) {
	ctx := context.Background()
	actor := Actor{UserID: uuid.New()}

	tests := []struct {
		name   string
		upload *DetectionUpload
		detail string
	}{
		{"empty image", &DetectionUpload{CropName: "tomato"}, "image"},
		{"over the size limit", &DetectionUpload{CropName: "tomato", Image: pngImage(1<<20 + 1)}, "image"},
		{"not an image", &DetectionUpload{CropName: "tomato", Image: []byte("just some plain text, not a leaf")}, "image"},
		{"missing crop", &DetectionUpload{CropName: "  ", Image: pngImage(512)}, "cropName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDiseaseFixture(newMemoryObjects())

			_, err := f.svc.Detect(ctx, actor, tt.upload)

			require.True(t, apperrors.IsValidation(err))
			assert.Contains(t, apperrors.GetAppError(err).Details, tt.detail)
			f.detections.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("image at the size limit is accepted", func(t *testing.T) {
		f := newDiseaseFixture(newMemoryObjects())
		f.detections.On("Create", ctx, mock.AnythingOfType("*domain.DiseaseDetection")).Return(nil)

		_, err := f.svc.Detect(ctx, actor, &DetectionUpload{CropName: "tomato", Image: pngImage(1 << 20)})

		require.NoError(t, err)
	})
}

func TestDiseaseService_DetectOnField(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	t.Run("other users' fields are not found", func(t *testing.T) {
		f := newDiseaseFixture(newMemoryObjects())
		farm := ownedFarm(uuid.New())
		field := &domain.Field{ID: uuid.New(), FarmID: farm.ID}
		f.fields.On("GetByID", ctx, field.ID).Return(field, nil)
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)

		_, err := f.svc.Detect(ctx, Actor{UserID: owner}, &DetectionUpload{CropName: "rice", FieldID: &field.ID, Image: pngImage(256)})

		assert.True(t, apperrors.IsNotFound(err))
		f.detections.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("own field is recorded on the detection", func(t *testing.T) {
		f := newDiseaseFixture(newMemoryObjects())
		farm := ownedFarm(owner)
		field := &domain.Field{ID: uuid.New(), FarmID: farm.ID}
		f.fields.On("GetByID", ctx, field.ID).Return(field, nil)
		f.farms.On("GetByID", ctx, farm.ID).Return(farm, nil)
		f.detections.On("Create", ctx, mock.AnythingOfType("*domain.DiseaseDetection")).Return(nil)
		f.alerts.On("Create", ctx, mock.MatchedBy(func(a *domain.Alert) bool {
			return a.Type == domain.AlertDisease && *a.FarmID == farm.ID && a.UserID == owner
		})).Return(nil).Maybe()

		d, err := f.svc.Detect(ctx, Actor{UserID: owner}, &DetectionUpload{CropName: "Rice", FieldID: &field.ID, Image: pngImage(256)})

		require.NoError(t, err)
		assert.Equal(t, &field.ID, d.FieldID)
		assert.Equal(t, "rice", d.CropName)
		assert.Equal(t, domain.DetectionCompleted, d.Status)
	})
}

func TestDiseaseService_DetectStorage(t *testing.T) {
	ctx := context.Background()
	actor := Actor{UserID: uuid.New()}
	image := pngImage(2048)

	t.Run("stored image gets a link", func(t *testing.T) {
		objects := newMemoryObjects()
		f := newDiseaseFixture(objects)
		f.detections.On("Create", ctx, mock.AnythingOfType("*domain.DiseaseDetection")).Return(nil)

		d, err := f.svc.Detect(ctx, actor, &DetectionUpload{CropName: "tomato", Image: image})

		require.NoError(t, err)
		require.NotEmpty(t, d.ImageKey)
		assert.Contains(t, d.ImageKey, ".png")
		assert.Contains(t, d.ImageURL, d.ImageKey)
		stored, ok := objects.get(diseaseBucket, d.ImageKey)
		require.True(t, ok)
		assert.Equal(t, image, stored)
	})

	t.Run("disabled storage still diagnoses", func(t *testing.T) {
		f := newDiseaseFixture(storage.Disabled{})
		f.detections.On("Create", ctx, mock.MatchedBy(func(d *domain.DiseaseDetection) bool {
			return d.ImageKey == ""
		})).Return(nil)

		d, err := f.svc.Detect(ctx, actor, &DetectionUpload{CropName: "tomato", Image: image})

		require.NoError(t, err)
		assert.Empty(t, d.ImageKey)
		assert.Empty(t, d.ImageURL)
		assert.NotEmpty(t, d.DetectedDisease)
		f.detections.AssertExpectations(t)
	})

	t.Run("failing storage is unavailable", func(t *testing.T) {
		objects := newMemoryObjects()
		objects.putErr = errors.New("connection refused")
		f := newDiseaseFixture(objects)

		_, err := f.svc.Detect(ctx, actor, &DetectionUpload{CropName: "tomato", Image: image})

		assert.Equal(t, 503, apperrors.GetStatusCode(err))
		f.detections.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestDiseaseService_GetScopesToOwner(t *testing.T) {
	ctx := context.Background()
	f := newDiseaseFixture(newMemoryObjects())
	d := &domain.DiseaseDetection{ID: uuid.New(), UserID: uuid.New(), ImageKey: "detections/x.png"}
	f.detections.On("GetByID", ctx, d.ID).Return(d, nil)

	_, err := f.svc.Get(ctx, Actor{UserID: uuid.New()}, d.ID)
	assert.True(t, apperrors.IsNotFound(err))

	got, err := f.svc.Get(ctx, Actor{UserID: d.UserID}, d.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ImageURL)

	f.detections.On("List", ctx, (*uuid.UUID)(nil), pagination.NewParams(1, 20)).Return([]domain.DiseaseDetection{*d}, int64(1), nil)
	page, err := f.svc.List(ctx, Actor{UserID: uuid.New(), IsStaff: true}, pagination.NewParams(1, 20))
	require.NoError(t, err)
	assert.Len(t, page.Results, 1)
}
