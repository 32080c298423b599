package main

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/advisory"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/service"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/worker"
)

var errRedisFallback = errors.New("not connected, running on the in-process store")

// Services holds all service instances
type Services struct {
	Tokens     *service.TokenManager
	Auth       *service.AuthService
	User       *service.UserService
	Crop       *service.CropService
	Farm       *service.FarmService
	Field      *service.FieldService
	Disease    *service.DiseaseService
	Irrigation *service.IrrigationService
	Market     *service.MarketService
	Weather    *service.WeatherService
	Advisory   *service.AdvisoryService
	Alert      *service.AlertService
	Report     *service.ReportService
	Realtime   *service.RealtimeService
	System     *service.SystemService
}

// initServices initializes all services
func initServices(cfg *config.Config, logger *zap.Logger, dbs *Databases, repos *Repositories) *Services {
	svcs := &Services{}

	// Realtime fan-out. With Redis, events go through the shared channel so
	// that every API instance and the worker reach the same subscribers.
	svcs.Realtime = service.NewRealtimeService()
	var publisher service.EventPublisher = svcs.Realtime
	if dbs.Redis != nil {
		publisher = service.NewRedisEventPublisher(dbs.Redis, logger)
	}

	// Auth
	svcs.Tokens = service.NewTokenManager(dbs.KV, cfg.JWT.RefreshExpiry)
	svcs.Auth = service.NewAuthService(cfg, repos.User, svcs.Tokens, logger)
	svcs.User = service.NewUserService(repos.User, svcs.Tokens, logger)

	svcs.Alert = service.NewAlertService(repos.Alert, publisher, logger)
	svcs.Crop = service.NewCropService(repos.Crop)

	// Weather: the HTTP provider only when an API key is configured
	var provider service.WeatherProvider
	if !cfg.Weather.UseMock() {
		fetcher := service.NewHTTPFetcher(cfg.Market.ImportUserAgent, cfg.Weather.Timeout)
		provider = service.NewHTTPWeatherProvider(cfg.Weather, fetcher, logger)
	}
	svcs.Weather = service.NewWeatherService(
		provider,
		service.NewSyntheticWeatherProvider(nil),
		database.NewCache(dbs.KV, "weather:current:", cfg.Weather.CurrentCacheTTL),
		database.NewCache(dbs.KV, "weather:forecast:", cfg.Weather.ForecastCacheTTL),
		repos.Weather,
		repos.Farm,
		logger,
	)
	svcs.Weather.SetAlerts(svcs.Alert)

	// Farms and fields
	svcs.Farm = service.NewFarmService(repos.Farm, repos.Field, repos.Session, repos.Alert, repos.Activity, logger)
	svcs.Farm.SetWeather(svcs.Weather)
	svcs.Field = service.NewFieldService(repos.Farm, repos.Field, repos.Crop, repos.Activity, logger)
	svcs.Field.SetWeather(svcs.Weather)

	svcs.Disease = service.NewDiseaseService(
		repos.Farm,
		repos.Field,
		repos.Detection,
		dbs.Objects,
		svcs.Alert,
		cfg.MinIO.ImageBucket,
		cfg.MinIO.MaxImageMB,
		logger,
	)

	svcs.Irrigation = service.NewIrrigationService(
		repos.Farm,
		repos.Field,
		repos.Schedule,
		repos.Moisture,
		repos.Activity,
		cfg.Irrigation,
		logger,
	)
	svcs.Irrigation.SetWeather(svcs.Weather)
	svcs.Irrigation.SetAlerts(svcs.Alert)

	svcs.Market = service.NewMarketService(
		repos.Price,
		database.NewCache(dbs.KV, "market:trend:", cfg.Market.TrendCacheTTL),
		service.NewHTTPFetcher(cfg.Market.ImportUserAgent, 0),
		cfg.Market,
		logger,
	)

	// Advisory engine fed by the other analyses
	svcs.Advisory = service.NewAdvisoryService(
		repos.Farm,
		repos.Field,
		repos.Session,
		repos.Crop,
		repos.Activity,
		advisory.NewEngine(cfg.Advisory.Seed),
		advisory.NewAggregator(cfg.Advisory.MaxRecommendations),
		logger,
	)
	svcs.Advisory.SetWeather(svcs.Weather)
	svcs.Advisory.SetMoisture(svcs.Irrigation)
	svcs.Advisory.SetTrends(svcs.Market)
	svcs.Advisory.SetPublisher(publisher)

	svcs.Report = service.NewReportService(
		dbs.KV,
		repos.Farm,
		repos.Field,
		repos.Price,
		repos.Schedule,
		dbs.Objects,
		cfg.MinIO.ReportBucket,
		logger,
	)
	svcs.Report.SetPublisher(publisher)
	if dbs.AsynqClient != nil {
		svcs.Report.SetQueue(worker.NewEnqueuer(dbs.AsynqClient, cfg.Worker.QueueDefault))
	}

	// System status
	svcs.System = service.NewSystemService(repos.User, repos.Farm, repos.Field, repos.Session, repos.Crop, cfg.Server.Version, logger)
	svcs.System.AddComponent("postgres", dbs.Postgres, true)
	svcs.System.AddComponent("clickhouse", dbs.ClickHouse, true)
	if dbs.Redis != nil {
		svcs.System.AddComponent("redis", dbs.Redis, true)
	} else {
		svcs.System.AddComponent("redis", service.PingFunc(func(context.Context) error {
			return errRedisFallback
		}), false)
	}
	svcs.System.AddComponent("minio", dbs.Objects, false)

	return svcs
}
