package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
)

// getTestDB returns a migrated database connection for integration tests.
// Returns nil if the database is not available (skips tests).
func getTestDB(t *testing.T) *database.PostgresDB {
	if os.Getenv("POSTGRES_TEST_HOST") == "" {
		t.Skip("Skipping integration test: POSTGRES_TEST_HOST not set")
		return nil
	}

	cfg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_TEST_HOST"),
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}
	if cfg.Database == "" {
		cfg.Database = "test_smartcrop"
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}

	ctx := context.Background()
	sqlxDB, err := database.NewSQLX(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}
	defer sqlxDB.Close()
	require.NoError(t, database.Migrate(sqlxDB))

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}
	return db
}

// cleanupUsers removes test users, and through cascades their farms
func cleanupUsers(t *testing.T, db *database.PostgresDB, emails ...string) {
	ctx := context.Background()
	for _, email := range emails {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM users WHERE email = $1", email)
	}
}

// createTestUser inserts a user with a default profile
func createTestUser(t *testing.T, db *database.PostgresDB, email string) *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     "u" + uuid.NewString()[:8],
		PasswordHash: "$2a$10$testpasswordhash",
		FirstName:    "Test",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user, domain.DefaultProfile(user.ID)))
	return user
}

// createTestFarm inserts a located farm for owner
func createTestFarm(t *testing.T, db *database.PostgresDB, owner uuid.UUID, total float64) *domain.Farm {
	lat, lon := 18.52, 73.85
	now := time.Now().UTC().Truncate(time.Microsecond)
	farm := &domain.Farm{
		ID:             uuid.New(),
		OwnerID:        owner,
		Name:           "Test Farm",
		Location:       "Pune",
		Latitude:       &lat,
		Longitude:      &lon,
		TotalArea:      total,
		CultivatedArea: total / 2,
		SoilType:       domain.SoilLoamy,
		IrrigationType: domain.IrrigationDrip,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, NewFarmRepository(db).Create(context.Background(), farm))
	return farm
}
