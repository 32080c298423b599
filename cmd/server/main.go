package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/handler"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/middleware"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/logger"
)

const appName = "smartcrop-api"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: appName}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer func() { _ = logger.Sync() }()

	// Initialize Sentry if enabled
	sentryEnabled := cfg.Sentry.Enabled()
	if sentryEnabled {
		env := cfg.Sentry.Environment
		if env == "" {
			env = cfg.Server.Env
		}
		err := middleware.InitSentry(middleware.SentryConfig{
			DSN:          cfg.Sentry.DSN,
			Environment:  env,
			Release:      appName + "@" + cfg.Server.Version,
			SampleRate:   cfg.Sentry.SampleRate,
			FlushTimeout: 5 * time.Second,
		})
		if err != nil {
			log.Error("failed to initialize Sentry", zap.Error(err))
			sentryEnabled = false
		} else {
			log.Info("Sentry initialized", zap.String("environment", env))
			defer middleware.FlushSentry(5 * time.Second)
		}
	}

	// Initialize dependencies
	deps, err := initDependencies(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "SmartCrop Advisory API",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: cfg.IsProduction(),
		ErrorHandler:          errorHandler(log, sentryEnabled),
	})

	// Apply global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.NewLoggerMiddleware(middleware.DefaultLoggerConfig(log)).Handler())
	app.Use(middleware.RecoverWithSentry(log, sentryEnabled))
	app.Use(middleware.NewCORSMiddleware(middleware.CORSConfigFor(cfg.Server.CORSOrigins)).Handler())
	app.Use(middleware.NewMetricsMiddleware(middleware.DefaultMetricsConfig()).Handler())

	// Register routes
	registerRoutes(app, deps)

	// Start server
	go func() {
		addr := cfg.Server.Addr()
		log.Info("starting server",
			zap.String("addr", addr),
			zap.String("version", cfg.Server.Version),
			zap.Bool("weather_mock", cfg.Weather.UseMock()),
		)
		if err := app.Listen(addr); err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
}

// errorHandler renders errors in the API envelope and reports 5xx to Sentry
func errorHandler(log *zap.Logger, sentryEnabled bool) fiber.ErrorHandler {
	render := handler.ErrorHandler(log)
	return func(c *fiber.Ctx, err error) error {
		if rerr := render(c, err); rerr != nil {
			return rerr
		}
		if sentryEnabled && c.Response().StatusCode() >= fiber.StatusInternalServerError {
			middleware.CaptureError(c, err)
		}
		return nil
	}
}
