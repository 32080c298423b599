package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/advisory"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/logger"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/storage"
	chrepo "github.com/DibVibe/SmartCropAdvisory-sub000/internal/repository/clickhouse"
	pgrepo "github.com/DibVibe/SmartCropAdvisory-sub000/internal/repository/postgres"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "smartcrop-worker"}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer func() { _ = logger.Sync() }()

	log.Info("starting worker service")

	// Initialize dependencies
	deps, cleanup, err := initWorkerDependencies(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer cleanup()

	// Create worker server
	workerServer, err := worker.NewServer(log, cfg, deps)
	if err != nil {
		log.Fatal("failed to create worker server", zap.Error(err))
	}

	// Start worker in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	log.Info("worker stopped")
}

// initWorkerDependencies initializes dependencies for the worker. Unlike the
// API server the worker cannot run without Redis.
func initWorkerDependencies(cfg *config.Config, log *zap.Logger) (*worker.Dependencies, func(), error) {
	ctx := context.Background()

	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	sqlDB, err := database.NewSQLX(ctx, cfg.Postgres)
	if err != nil {
		pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	chDB, err := database.NewClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		_ = sqlDB.Close()
		pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
	}

	redisDB, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = chDB.Close()
		_ = sqlDB.Close()
		pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	var objects service.ObjectStorage = storage.Disabled{}
	if store, err := storage.NewObjectStore(ctx, cfg.MinIO, cfg.MinIO.ReportBucket); err != nil {
		log.Warn("failed to initialize MinIO, report exports will fail", zap.Error(err))
	} else {
		objects = store
	}

	// Repositories
	farms := pgrepo.NewFarmRepository(pgDB)
	fields := pgrepo.NewFieldRepository(pgDB)
	crops := pgrepo.NewCropRepository(pgDB)
	sessions := pgrepo.NewSessionRepository(pgDB)
	schedules := pgrepo.NewScheduleRepository(pgDB)
	activities := pgrepo.NewActivityRepository(sqlDB)
	prices := chrepo.NewPriceRepository(chDB)

	// Services; events reach the API servers through Redis
	publisher := service.NewRedisEventPublisher(redisDB, log)
	alerts := service.NewAlertService(pgrepo.NewAlertRepository(pgDB), publisher, log)

	var provider service.WeatherProvider
	if !cfg.Weather.UseMock() {
		provider = service.NewHTTPWeatherProvider(cfg.Weather, service.NewHTTPFetcher(cfg.Market.ImportUserAgent, cfg.Weather.Timeout), log)
	}
	weather := service.NewWeatherService(
		provider,
		service.NewSyntheticWeatherProvider(nil),
		database.NewCache(redisDB, "weather:current:", cfg.Weather.CurrentCacheTTL),
		database.NewCache(redisDB, "weather:forecast:", cfg.Weather.ForecastCacheTTL),
		chrepo.NewWeatherRepository(chDB),
		farms,
		log,
	)
	weather.SetAlerts(alerts)

	irrigation := service.NewIrrigationService(farms, fields, schedules, chrepo.NewMoistureRepository(chDB), activities, cfg.Irrigation, log)
	irrigation.SetWeather(weather)
	irrigation.SetAlerts(alerts)

	market := service.NewMarketService(
		prices,
		database.NewCache(redisDB, "market:trend:", cfg.Market.TrendCacheTTL),
		nil,
		cfg.Market,
		log,
	)

	reports := service.NewReportService(redisDB, farms, fields, prices, schedules, objects, cfg.MinIO.ReportBucket, log)
	reports.SetPublisher(publisher)

	advisoryService := service.NewAdvisoryService(
		farms,
		fields,
		sessions,
		crops,
		activities,
		advisory.NewEngine(cfg.Advisory.Seed),
		advisory.NewAggregator(cfg.Advisory.MaxRecommendations),
		log,
	)

	deps := &worker.Dependencies{
		Weather:    weather,
		Irrigation: irrigation,
		Market:     market,
		Reports:    reports,
		Sessions:   advisoryService,
	}

	cleanup := func() {
		_ = redisDB.Close()
		_ = chDB.Close()
		_ = sqlDB.Close()
		pgDB.Close()
	}

	return deps, cleanup, nil
}
