package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/metrics"
)

const (
	// TypeWeatherSync refreshes the weather of every farm with coordinates
	TypeWeatherSync = "weather:sync"
	// TypeIrrigationCheck analyses recent moisture readings
	TypeIrrigationCheck = "irrigation:check"
	// TypeMarketRefresh recomputes the cached commodity trends
	TypeMarketRefresh = "market:refresh"
	// TypeReportExport builds one XLSX report
	TypeReportExport = "report:export"
	// TypeSessionCleanup archives idle advisory sessions
	TypeSessionCleanup = "session:cleanup"
)

// ReportExportPayload is the payload for report export tasks
type ReportExportPayload struct {
	ReportID uuid.UUID `json:"report_id"`
}

// SessionCleanupPayload is the payload for session cleanup tasks. A zero
// InactiveDays uses the configured default.
type SessionCleanupPayload struct {
	InactiveDays int `json:"inactive_days,omitempty"`
}

// NewReportExportTask creates a report export task
func NewReportExportTask(reportID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(ReportExportPayload{ReportID: reportID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report export payload: %w", err)
	}
	return asynq.NewTask(TypeReportExport, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// NewSessionCleanupTask creates a session cleanup task
func NewSessionCleanupTask(payload *SessionCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session cleanup payload: %w", err)
	}
	return asynq.NewTask(TypeSessionCleanup, data, asynq.MaxRetry(1), asynq.Timeout(5*time.Minute)), nil
}

// NewWeatherSyncTask creates a weather sync task
func NewWeatherSyncTask() *asynq.Task {
	return asynq.NewTask(TypeWeatherSync, nil, asynq.MaxRetry(1), asynq.Timeout(15*time.Minute))
}

// NewIrrigationCheckTask creates an irrigation check task
func NewIrrigationCheckTask() *asynq.Task {
	return asynq.NewTask(TypeIrrigationCheck, nil, asynq.MaxRetry(1), asynq.Timeout(15*time.Minute))
}

// NewMarketRefreshTask creates a market refresh task
func NewMarketRefreshTask() *asynq.Task {
	return asynq.NewTask(TypeMarketRefresh, nil, asynq.MaxRetry(2), asynq.Timeout(30*time.Minute))
}

type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer puts on-demand tasks on the queue
type Enqueuer struct {
	client taskClient
	queue  string
}

// NewEnqueuer creates an enqueuer for the given queue
func NewEnqueuer(client taskClient, queue string) *Enqueuer {
	return &Enqueuer{client: client, queue: queue}
}

// EnqueueReport schedules the build of a queued report
func (e *Enqueuer) EnqueueReport(ctx context.Context, reportID uuid.UUID) error {
	task, err := NewReportExportTask(reportID)
	if err != nil {
		return err
	}
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(e.queue)); err != nil {
		return fmt.Errorf("failed to enqueue report export: %w", err)
	}
	return nil
}

// finish records the outcome of a task run
func finish(logger *zap.Logger, taskType string, started time.Time, err error, fields ...zap.Field) error {
	metrics.TaskProcessed(taskType, err)
	fields = append(fields, zap.String("type", taskType), zap.Duration("duration", time.Since(started)))
	if err != nil {
		logger.Error("task failed", append(fields, zap.Error(err))...)
		return err
	}
	logger.Info("task completed", fields...)
	return nil
}
