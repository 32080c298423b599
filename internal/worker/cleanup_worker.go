package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// SessionArchiver archives advisory sessions that went idle
type SessionArchiver interface {
	CleanupInactive(ctx context.Context, inactiveAfter time.Duration) (int64, error)
}

// CleanupWorker handles session cleanup tasks
type CleanupWorker struct {
	logger        *zap.Logger
	sessions      SessionArchiver
	inactiveAfter time.Duration
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(logger *zap.Logger, sessions SessionArchiver, inactiveAfter time.Duration) *CleanupWorker {
	return &CleanupWorker{
		logger:        logger,
		sessions:      sessions,
		inactiveAfter: inactiveAfter,
	}
}

// ProcessTask archives sessions idle for longer than the payload or the
// configured default allows
func (w *CleanupWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload SessionCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal session cleanup payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	inactiveAfter := w.inactiveAfter
	if payload.InactiveDays > 0 {
		inactiveAfter = time.Duration(payload.InactiveDays) * 24 * time.Hour
	}
	if inactiveAfter <= 0 {
		return fmt.Errorf("no inactivity window configured: %w", asynq.SkipRetry)
	}

	started := time.Now()
	archived, err := w.sessions.CleanupInactive(ctx, inactiveAfter)
	return finish(w.logger, TypeSessionCleanup, started, err,
		zap.Duration("inactive_after", inactiveAfter),
		zap.Int64("archived", archived),
	)
}
