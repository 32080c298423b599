package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
)

type MockReportBuilder struct {
	mock.Mock
}

func (m *MockReportBuilder) Build(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

type MockTaskClient struct {
	mock.Mock
}

func (m *MockTaskClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

func TestNewReportExportTask(t *testing.T) {
	id := uuid.New()

	task, err := NewReportExportTask(id)
	require.NoError(t, err)
	assert.Equal(t, TypeReportExport, task.Type())

	var decoded ReportExportPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, id, decoded.ReportID)
}

func TestExportWorker_ProcessTask(t *testing.T) {
	t.Run("builds report", func(t *testing.T) {
		id := uuid.New()
		reports := new(MockReportBuilder)
		reports.On("Build", mock.Anything, id).Return(&domain.Report{ID: id, Rows: 42, ObjectKey: "reports/x.xlsx"}, nil)

		task, err := NewReportExportTask(id)
		require.NoError(t, err)

		err = NewExportWorker(zap.NewNop(), reports).ProcessTask(context.Background(), task)
		assert.NoError(t, err)
		reports.AssertExpectations(t)
	})

	t.Run("expired report is not retried", func(t *testing.T) {
		id := uuid.New()
		reports := new(MockReportBuilder)
		reports.On("Build", mock.Anything, id).Return(nil, apperrors.NotFound("report"))

		task, err := NewReportExportTask(id)
		require.NoError(t, err)

		err = NewExportWorker(zap.NewNop(), reports).ProcessTask(context.Background(), task)
		require.Error(t, err)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("upload failure is retried", func(t *testing.T) {
		id := uuid.New()
		reports := new(MockReportBuilder)
		reports.On("Build", mock.Anything, id).Return(nil, errors.New("failed to upload report: timeout"))

		task, err := NewReportExportTask(id)
		require.NoError(t, err)

		err = NewExportWorker(zap.NewNop(), reports).ProcessTask(context.Background(), task)
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("invalid payload", func(t *testing.T) {
		task := asynq.NewTask(TypeReportExport, []byte("not json"))

		err := NewExportWorker(zap.NewNop(), new(MockReportBuilder)).ProcessTask(context.Background(), task)
		require.Error(t, err)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestEnqueuer_EnqueueReport(t *testing.T) {
	id := uuid.New()

	t.Run("enqueues on the configured queue", func(t *testing.T) {
		client := new(MockTaskClient)
		client.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
			var p ReportExportPayload
			return task.Type() == TypeReportExport && json.Unmarshal(task.Payload(), &p) == nil && p.ReportID == id
		}), mock.Anything).Return(&asynq.TaskInfo{ID: "t1", Queue: "default"}, nil)

		err := NewEnqueuer(client, "default").EnqueueReport(context.Background(), id)
		assert.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("broker down", func(t *testing.T) {
		client := new(MockTaskClient)
		client.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))

		err := NewEnqueuer(client, "default").EnqueueReport(context.Background(), id)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enqueue report export")
	})
}
