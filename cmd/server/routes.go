package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	h := deps.Handlers // Shorthand for handlers
	cfg := deps.Config

	// Health check routes (no auth required)
	h.Health.RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	jwt := deps.AuthMiddleware.RequireJWT()
	staff := deps.AuthMiddleware.RequireStaff()

	// Auth (public, per-IP limits)
	auth := api.Group("/auth")
	if cfg.RateLimit.Enabled {
		auth.Use(deps.AuthRateLimit.Handler())
	}
	{
		auth.Post("/register", h.Auth.Register)
		auth.Post("/login", h.Auth.Login)
		auth.Post("/refresh", h.Auth.Refresh)
		auth.Post("/logout", jwt, h.Auth.Logout)
		auth.Get("/me", jwt, h.Auth.Me)
	}

	// Everything below requires a valid access token
	protected := api.Group("", jwt)
	if cfg.RateLimit.Enabled {
		protected.Use(deps.RateLimitMiddleware.Handler())
	}

	// Users
	users := protected.Group("/users")
	{
		users.Get("/profile", h.Auth.Me)
		users.Put("/profile", h.Auth.UpdateProfile)
		users.Post("/change-password", h.Auth.ChangePassword)
		users.Get("/", staff, h.Auth.ListUsers)
		users.Patch("/:id/status", staff, h.Auth.SetUserStatus)
	}

	// Advisory: farms, sessions, one-shot advice and alerts
	advisory := protected.Group("/advisory")
	{
		advisory.Get("/farms", h.Farms.ListFarms)
		advisory.Post("/farms", h.Farms.CreateFarm)
		advisory.Get("/farms/:id", h.Farms.GetFarm)
		advisory.Put("/farms/:id", h.Farms.UpdateFarm)
		advisory.Patch("/farms/:id", h.Farms.UpdateFarm)
		advisory.Delete("/farms/:id", h.Farms.DeleteFarm)
		advisory.Get("/farms/:id/activities", h.Farms.Activities)
		advisory.Get("/farms/:id/dashboard", h.Farms.Dashboard)

		advisory.Get("/sessions", h.Advisory.ListSessions)
		advisory.Post("/sessions", h.Advisory.StartSession)
		advisory.Get("/sessions/:id", h.Advisory.GetSession)
		advisory.Put("/sessions/:id", h.Advisory.UpdateSession)
		advisory.Patch("/sessions/:id", h.Advisory.UpdateSession)
		advisory.Delete("/sessions/:id", h.Advisory.DeleteSession)
		advisory.Post("/sessions/:id/generate", h.Advisory.Generate)
		advisory.Post("/sessions/:id/complete", h.Advisory.Complete)
		advisory.Post("/sessions/:id/archive", h.Advisory.Archive)

		advisory.Post("/advice", h.Advisory.Advice)

		advisory.Get("/alerts", h.Advisory.ListAlerts)
		advisory.Post("/alerts/read-all", h.Advisory.MarkAllAlertsRead)
		advisory.Post("/alerts/:id/read", h.Advisory.MarkAlertRead)
	}

	// Crop analysis: catalogue, fields and disease detection.
	// Static segments go before /:id.
	crops := protected.Group("/crops")
	{
		crops.Get("/fields", h.Farms.ListFields)
		crops.Post("/fields", h.Farms.CreateField)
		crops.Get("/fields/:id", h.Farms.GetField)
		crops.Put("/fields/:id", h.Farms.UpdateField)
		crops.Patch("/fields/:id", h.Farms.UpdateField)
		crops.Delete("/fields/:id", h.Farms.DeleteField)
		crops.Get("/fields/:id/yield-prediction", h.Farms.PredictYield)

		crops.Post("/disease-detections", h.Crops.Detect)
		crops.Get("/disease-detections", h.Crops.ListDetections)
		crops.Get("/disease-detections/:id", h.Crops.GetDetection)
		crops.Get("/diseases", h.Crops.Diseases)

		crops.Post("/recommend", h.Crops.Recommend)
		crops.Get("/", h.Crops.ListCrops)
		crops.Post("/", staff, h.Crops.CreateCrop)
		crops.Get("/:id", h.Crops.GetCrop)
		crops.Put("/:id", staff, h.Crops.UpdateCrop)
		crops.Delete("/:id", staff, h.Crops.DeleteCrop)
		crops.Get("/:id/suitability", h.Crops.Suitability)
	}

	// Irrigation
	irrigation := protected.Group("/irrigation")
	{
		irrigation.Get("/schedules", h.Irrigation.ListSchedules)
		irrigation.Post("/schedules", h.Irrigation.CreateSchedule)
		irrigation.Get("/schedules/:id", h.Irrigation.GetSchedule)
		irrigation.Put("/schedules/:id", h.Irrigation.UpdateSchedule)
		irrigation.Patch("/schedules/:id", h.Irrigation.UpdateSchedule)
		irrigation.Delete("/schedules/:id", h.Irrigation.DeleteSchedule)
		irrigation.Post("/schedules/:id/complete", h.Irrigation.CompleteSchedule)
		irrigation.Post("/schedules/:id/skip", h.Irrigation.SkipSchedule)

		irrigation.Post("/moisture", h.Irrigation.RecordMoisture)
		irrigation.Get("/fields/:id/moisture", h.Irrigation.MoistureHistory)
		irrigation.Get("/fields/:id/analysis", h.Irrigation.Analyze)
		irrigation.Post("/fields/:id/optimize", h.Irrigation.Optimize)
		irrigation.Post("/et0", h.Irrigation.ET0)
	}

	// Market analysis
	market := protected.Group("/market")
	{
		market.Get("/prices", h.Market.ListPrices)
		market.Post("/prices", staff, h.Market.RecordPrice)
		market.Post("/prices/batch", staff, h.Market.RecordBatch)
		market.Get("/prices/latest", h.Market.Latest)

		market.Get("/commodities/:commodity/trend", h.Market.Trend)
		market.Get("/commodities/:commodity/predict", h.Market.Predict)
		market.Get("/commodities/:commodity/indicators", h.Market.Indicators)

		market.Post("/import", staff, h.Market.Import)

		market.Post("/reports", h.Market.RequestReport)
		market.Get("/reports/:id", h.Market.GetReport)
	}

	// Weather
	weather := protected.Group("/weather")
	{
		weather.Get("/current", h.Weather.Current)
		weather.Get("/forecast", h.Weather.Forecast)
		weather.Get("/history", h.Weather.History)
		weather.Get("/alerts", h.Weather.Alerts)
		weather.Get("/agro-advice", h.Weather.AgroAdvice)
	}

	// System status
	system := protected.Group("/system")
	{
		system.Get("/status", h.Health.Status)
		system.Get("/metrics/summary", staff, h.Health.MetricsSummary)
	}

	// Server-Sent Events
	events := protected.Group("/events")
	{
		events.Get("/stream", h.Events.StreamEvents)
		events.Get("/subscribers", h.Events.Subscribers)
	}
}
