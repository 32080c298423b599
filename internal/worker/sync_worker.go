package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// WeatherSyncer refreshes and persists farm weather
type WeatherSyncer interface {
	SyncFarms(ctx context.Context) (int, error)
}

// FieldChecker raises moisture alerts for recently reporting fields
type FieldChecker interface {
	CheckFields(ctx context.Context) (int, error)
}

// TrendRefresher recomputes cached commodity trends
type TrendRefresher interface {
	RefreshTrends(ctx context.Context) (int, error)
}

// SyncWorker runs the periodic weather, moisture and market passes
type SyncWorker struct {
	logger     *zap.Logger
	weather    WeatherSyncer
	irrigation FieldChecker
	market     TrendRefresher
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(logger *zap.Logger, weather WeatherSyncer, irrigation FieldChecker, market TrendRefresher) *SyncWorker {
	return &SyncWorker{
		logger:     logger,
		weather:    weather,
		irrigation: irrigation,
		market:     market,
	}
}

// ProcessWeatherSync handles weather:sync
func (w *SyncWorker) ProcessWeatherSync(ctx context.Context, _ *asynq.Task) error {
	started := time.Now()
	n, err := w.weather.SyncFarms(ctx)
	return finish(w.logger, TypeWeatherSync, started, err, zap.Int("farms", n))
}

// ProcessIrrigationCheck handles irrigation:check
func (w *SyncWorker) ProcessIrrigationCheck(ctx context.Context, _ *asynq.Task) error {
	started := time.Now()
	n, err := w.irrigation.CheckFields(ctx)
	return finish(w.logger, TypeIrrigationCheck, started, err, zap.Int("alerts", n))
}

// ProcessMarketRefresh handles market:refresh
func (w *SyncWorker) ProcessMarketRefresh(ctx context.Context, _ *asynq.Task) error {
	started := time.Now()
	n, err := w.market.RefreshTrends(ctx)
	return finish(w.logger, TypeMarketRefresh, started, err, zap.Int("commodities", n))
}
