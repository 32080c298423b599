package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
)

// ReportBuilder renders a queued report and uploads it
type ReportBuilder interface {
	Build(ctx context.Context, id uuid.UUID) (*domain.Report, error)
}

// ExportWorker handles report export tasks
type ExportWorker struct {
	logger  *zap.Logger
	reports ReportBuilder
}

// NewExportWorker creates a new export worker
func NewExportWorker(logger *zap.Logger, reports ReportBuilder) *ExportWorker {
	return &ExportWorker{logger: logger, reports: reports}
}

// ProcessTask builds the report named in the payload. Reports that expired
// from the store are not retried.
func (w *ExportWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReportExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal report export payload: %v: %w", err, asynq.SkipRetry)
	}

	started := time.Now()
	fields := []zap.Field{zap.String("report_id", payload.ReportID.String())}

	report, err := w.reports.Build(ctx, payload.ReportID)
	if apperrors.IsNotFound(err) {
		err = fmt.Errorf("report %s is gone: %w", payload.ReportID, asynq.SkipRetry)
	}
	if err == nil {
		fields = append(fields, zap.Int("rows", report.Rows), zap.String("object_key", report.ObjectKey))
	}
	return finish(w.logger, TypeReportExport, started, err, fields...)
}
