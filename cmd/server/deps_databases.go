package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/middleware"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/storage"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/worker"
)

const (
	localKVSize   = 100_000
	localKVMaxTTL = 30 * 24 * time.Hour
)

// objectStore is what the services and health checks need from MinIO
type objectStore interface {
	service.ObjectStorage
	service.Pinger
}

// Databases holds all database connections
type Databases struct {
	Postgres   *database.PostgresDB
	SQL        *sqlx.DB
	ClickHouse *database.ClickHouseDB

	// Redis is nil when the server runs on the in-process fallback
	Redis       *database.RedisDB
	KV          database.KVStore
	Limiter     middleware.Limiter
	Objects     objectStore
	AsynqClient *asynq.Client
}

// initDatabases initializes all database connections
func initDatabases(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Databases, error) {
	dbs := &Databases{}

	// Initialize PostgreSQL
	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	dbs.Postgres = pgDB

	sqlDB, err := database.NewSQLX(ctx, cfg.Postgres)
	if err != nil {
		dbs.Close()
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	dbs.SQL = sqlDB

	if cfg.Postgres.AutoMigrate {
		if err := database.Migrate(sqlDB); err != nil {
			dbs.Close()
			return nil, err
		}
	}

	// Initialize ClickHouse
	chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		dbs.Close()
		return nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
	}
	dbs.ClickHouse = chDB

	if err := chDB.EnsureSchema(ctx); err != nil {
		dbs.Close()
		return nil, err
	}

	// Initialize Redis, falling back to in-process tokens and caches
	redisDB, err := database.NewRedis(ctx, cfg.Redis)
	switch {
	case err == nil:
		dbs.Redis = redisDB
		dbs.KV = redisDB
		dbs.Limiter = redisDB
		dbs.AsynqClient = asynq.NewClient(worker.RedisOpt(cfg))
	case cfg.Redis.Required:
		dbs.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	default:
		logger.Warn("Redis unavailable, using in-process store; report exports are disabled", zap.Error(err))
		local := database.NewLocalKV(localKVSize, localKVMaxTTL)
		dbs.KV = local
		dbs.Limiter = local
	}

	// Initialize MinIO (optional)
	objects, err := storage.NewObjectStore(ctx, cfg.MinIO, cfg.MinIO.ImageBucket, cfg.MinIO.ReportBucket)
	if err != nil {
		logger.Warn("failed to initialize MinIO, image and report storage will be unavailable", zap.Error(err))
		dbs.Objects = storage.Disabled{}
	} else {
		dbs.Objects = objects
	}

	return dbs, nil
}

// Close closes all database connections
func (d *Databases) Close() {
	if d.AsynqClient != nil {
		_ = d.AsynqClient.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.ClickHouse != nil {
		_ = d.ClickHouse.Close()
	}
	if d.SQL != nil {
		_ = d.SQL.Close()
	}
	if d.Postgres != nil {
		d.Postgres.Close()
	}
}
