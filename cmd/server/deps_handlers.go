package main

import (
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/handler"
)

// Handlers holds all handler instances
type Handlers struct {
	Health     *handler.HealthHandler
	Events     *handler.EventsHandler
	Auth       *handler.AuthHandler
	Farms      *handler.FarmsHandler
	Advisory   *handler.AdvisoryHandler
	Crops      *handler.CropsHandler
	Irrigation *handler.IrrigationHandler
	Market     *handler.MarketHandler
	Weather    *handler.WeatherHandler
}

// initHandlers initializes all handlers
func initHandlers(logger *zap.Logger, svcs *Services) *Handlers {
	return &Handlers{
		Health:     handler.NewHealthHandler(svcs.System, logger),
		Events:     handler.NewEventsHandler(svcs.Realtime, logger),
		Auth:       handler.NewAuthHandler(svcs.Auth, svcs.User, logger),
		Farms:      handler.NewFarmsHandler(svcs.Farm, svcs.Field, logger),
		Advisory:   handler.NewAdvisoryHandler(svcs.Advisory, svcs.Alert, logger),
		Crops:      handler.NewCropsHandler(svcs.Crop, svcs.Disease, logger),
		Irrigation: handler.NewIrrigationHandler(svcs.Irrigation, logger),
		Market:     handler.NewMarketHandler(svcs.Market, svcs.Report, logger),
		Weather:    handler.NewWeatherHandler(svcs.Weather, logger),
	}
}
