package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const detectionColumns = `id, user_id, field_id, crop_name, image_key, detected_disease, confidence,
	severity, symptoms, treatments, status, created_at`

// DetectionRepository handles disease detections in PostgreSQL
type DetectionRepository struct {
	db *database.PostgresDB
}

// NewDetectionRepository creates a new detection repository
func NewDetectionRepository(db *database.PostgresDB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

func scanDetection(row pgx.Row) (*domain.DiseaseDetection, error) {
	var d domain.DiseaseDetection
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.FieldID,
		&d.CropName,
		&d.ImageKey,
		&d.DetectedDisease,
		&d.Confidence,
		&d.Severity,
		&d.Symptoms,
		&d.Treatments,
		&d.Status,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Create records a detection
func (r *DetectionRepository) Create(ctx context.Context, d *domain.DiseaseDetection) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO disease_detections (`+detectionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		d.ID,
		d.UserID,
		d.FieldID,
		d.CropName,
		d.ImageKey,
		d.DetectedDisease,
		d.Confidence,
		string(d.Severity),
		nonNil(d.Symptoms),
		nonNil(d.Treatments),
		string(d.Status),
		d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create detection: %w", err)
	}
	return nil
}

// GetByID retrieves a detection by ID
func (r *DetectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DiseaseDetection, error) {
	d, err := scanDetection(r.db.Pool.QueryRow(ctx, `SELECT `+detectionColumns+` FROM disease_detections WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get detection: %w", notFound(err, "detection"))
	}
	return d, nil
}

// List lists detections, newest first. A nil user lists everyone's.
func (r *DetectionRepository) List(ctx context.Context, userID *uuid.UUID, p pagination.Params) ([]domain.DiseaseDetection, int64, error) {
	var c conditions
	if userID != nil {
		c.add("user_id = $%d", *userID)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM disease_detections`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count detections: %w", err)
	}

	limit, args := c.page(p)
	rows, err := r.db.Pool.Query(ctx, `SELECT `+detectionColumns+` FROM disease_detections`+c.where()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var detections []domain.DiseaseDetection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, *d)
	}
	return detections, total, rows.Err()
}
