package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/middleware"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Databases    *Databases
	Repositories *Repositories
	Services     *Services
	Handlers     *Handlers

	// Middleware
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	AuthRateLimit       *middleware.RateLimitMiddleware

	stopRelay context.CancelFunc
}

// initDependencies initializes all dependencies
func initDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	ctx := context.Background()

	dbs, err := initDatabases(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	repos := initRepositories(dbs)
	svcs := initServices(cfg, logger, dbs, repos)

	deps := &Dependencies{
		Config:         cfg,
		Logger:         logger,
		Databases:      dbs,
		Repositories:   repos,
		Services:       svcs,
		Handlers:       initHandlers(logger, svcs),
		AuthMiddleware: middleware.NewAuthMiddleware(svcs.Auth),
	}

	apiLimit := middleware.DefaultRateLimitConfig()
	apiLimit.Max = cfg.RateLimit.RequestsPerMinute
	deps.RateLimitMiddleware = middleware.NewRateLimitMiddleware(dbs.Limiter, logger, apiLimit)

	deps.AuthRateLimit = middleware.NewRateLimitMiddleware(dbs.Limiter, logger, middleware.RateLimitConfig{
		Max:          cfg.RateLimit.AuthPerMinute,
		Window:       time.Minute,
		Prefix:       "auth",
		KeyGenerator: middleware.IPKey,
	})

	// Relay events published by the worker and other API instances
	if dbs.Redis != nil {
		relayCtx, cancel := context.WithCancel(ctx)
		deps.stopRelay = cancel
		go svcs.Realtime.Relay(dbs.Redis.Subscribe(relayCtx, service.EventsChannel), logger)
	}

	return deps, nil
}

// Close releases all resources
func (d *Dependencies) Close() {
	if d.stopRelay != nil {
		d.stopRelay()
	}
	if d.Databases != nil {
		d.Databases.Close()
	}
}
