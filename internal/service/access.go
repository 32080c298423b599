package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

// Actor is the authenticated user a service call is made on behalf of
type Actor struct {
	UserID  uuid.UUID
	IsStaff bool
}

// Owns reports whether the actor may act on something owned by ownerID.
// Staff may act on everything.
func (a Actor) Owns(ownerID uuid.UUID) bool {
	return a.IsStaff || a.UserID == ownerID
}

// ownerScope restricts listings to the actor's own rows unless they are staff
func (a Actor) ownerScope() *uuid.UUID {
	if a.IsStaff {
		return nil
	}
	id := a.UserID
	return &id
}

// ownership resolves farms and fields while enforcing that the actor owns
// them. Rows of other users are reported as not found.
type ownership struct {
	farms  FarmRepository
	fields FieldRepository
}

func (o ownership) farm(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Farm, error) {
	farm, err := o.farms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get farm: %w", err)
	}
	if !actor.Owns(farm.OwnerID) {
		return nil, apperrors.NotFound("farm")
	}
	return farm, nil
}

func (o ownership) field(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Field, *domain.Farm, error) {
	field, err := o.fields.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get field: %w", err)
	}
	farm, err := o.farms.GetByID(ctx, field.FarmID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get farm: %w", err)
	}
	if !actor.Owns(farm.OwnerID) {
		return nil, nil, apperrors.NotFound("field")
	}
	return field, farm, nil
}

// ActivityRepository defines farm activity log operations
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.FarmActivity) error
	ListByFarm(ctx context.Context, farmID uuid.UUID, p pagination.Params) ([]domain.FarmActivity, int64, error)
}

// activityLog writes farm audit entries. Failures are logged and never fail
// the operation being recorded.
type activityLog struct {
	repo ActivityRepository
	log  *zap.Logger
}

func (l activityLog) record(ctx context.Context, farmID, userID uuid.UUID, action, description string, metadata map[string]any) {
	if l.repo == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	activity := &domain.FarmActivity{
		ID:          uuid.New(),
		FarmID:      farmID,
		UserID:      userID,
		Action:      action,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, activity); err != nil {
		l.log.Warn("failed to record farm activity",
			zap.String("farm_id", farmID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
