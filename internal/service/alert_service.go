package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/metrics"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// AlertRepository defines alert repository operations
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	List(ctx context.Context, filter *domain.AlertFilter, p pagination.Params) ([]domain.Alert, int64, error)
	// MarkRead marks one of userID's alerts read; NotFound for other users' alerts
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID, farmID *uuid.UUID) (int64, error)
	// ExistsSince reports whether an alert with this title was raised for the farm after since
	ExistsSince(ctx context.Context, farmID uuid.UUID, alertType domain.AlertType, title string, since time.Time) (bool, error)
}

// AlertService stores alerts and pushes them to connected clients
type AlertService struct {
	alerts    AlertRepository
	publisher EventPublisher
	log       *zap.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(alerts AlertRepository, publisher EventPublisher, log *zap.Logger) *AlertService {
	return &AlertService{alerts: alerts, publisher: publisher, log: log}
}

// Raise stores an alert and notifies the user's streams
func (s *AlertService) Raise(ctx context.Context, alert *domain.Alert) error {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	metrics.AlertRaised(string(alert.Type), string(alert.Severity))
	if s.publisher != nil {
		s.publisher.Publish(ctx, alert.UserID, EventTypeAlertRaised, alert)
	}
	return nil
}

// RaiseOnce raises the alert unless the same one was raised for the farm
// within window. It reports whether a new alert was stored.
func (s *AlertService) RaiseOnce(ctx context.Context, alert *domain.Alert, window time.Duration) (bool, error) {
	if alert.FarmID != nil {
		exists, err := s.alerts.ExistsSince(ctx, *alert.FarmID, alert.Type, alert.Title, time.Now().UTC().Add(-window))
		if err != nil {
			return false, fmt.Errorf("failed to check recent alerts: %w", err)
		}
		if exists {
			return false, nil
		}
	}
	if err := s.Raise(ctx, alert); err != nil {
		return false, err
	}
	return true, nil
}

// List lists the user's alerts, newest first
func (s *AlertService) List(ctx context.Context, userID uuid.UUID, farmID *uuid.UUID, unreadOnly bool, p pagination.Params) (pagination.Page[domain.Alert], error) {
	filter := &domain.AlertFilter{UserID: userID, FarmID: farmID, UnreadOnly: unreadOnly}
	alerts, total, err := s.alerts.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[domain.Alert]{}, fmt.Errorf("failed to list alerts: %w", err)
	}
	return pagination.NewPage(alerts, p, total), nil
}

// MarkRead marks one alert read
func (s *AlertService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.alerts.MarkRead(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}
	return nil
}

// MarkAllRead marks every alert of the user read and returns how many changed
func (s *AlertService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.alerts.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark alerts read: %w", err)
	}
	return n, nil
}
