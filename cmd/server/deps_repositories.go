package main

import (
	chrepo "github.com/DibVibe/SmartCropAdvisory-sub000/internal/repository/clickhouse"
	pgrepo "github.com/DibVibe/SmartCropAdvisory-sub000/internal/repository/postgres"
)

// Repositories holds all repository instances
type Repositories struct {
	// PostgreSQL repositories (relational data)
	User      *pgrepo.UserRepository
	Farm      *pgrepo.FarmRepository
	Field     *pgrepo.FieldRepository
	Crop      *pgrepo.CropRepository
	Session   *pgrepo.SessionRepository
	Alert     *pgrepo.AlertRepository
	Detection *pgrepo.DetectionRepository
	Schedule  *pgrepo.ScheduleRepository
	Activity  *pgrepo.ActivityRepository

	// ClickHouse repositories (time-series data)
	Moisture *chrepo.MoistureRepository
	Price    *chrepo.PriceRepository
	Weather  *chrepo.WeatherRepository
}

// initRepositories initializes all repositories
func initRepositories(dbs *Databases) *Repositories {
	return &Repositories{
		User:      pgrepo.NewUserRepository(dbs.Postgres),
		Farm:      pgrepo.NewFarmRepository(dbs.Postgres),
		Field:     pgrepo.NewFieldRepository(dbs.Postgres),
		Crop:      pgrepo.NewCropRepository(dbs.Postgres),
		Session:   pgrepo.NewSessionRepository(dbs.Postgres),
		Alert:     pgrepo.NewAlertRepository(dbs.Postgres),
		Detection: pgrepo.NewDetectionRepository(dbs.Postgres),
		Schedule:  pgrepo.NewScheduleRepository(dbs.Postgres),
		Activity:  pgrepo.NewActivityRepository(dbs.SQL),

		Moisture: chrepo.NewMoistureRepository(dbs.ClickHouse),
		Price:    chrepo.NewPriceRepository(dbs.ClickHouse),
		Weather:  chrepo.NewWeatherRepository(dbs.ClickHouse),
	}
}
