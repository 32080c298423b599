package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
)

var fixedNow = func() time.Time { return time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC) }

// stubProvider answers with canned weather or a fixed error
type stubProvider struct {
	calls    atomic.Int32
	err      error
	forecast []domain.DailyForecast
}

func (p *stubProvider) Name() string { return SourceProvider }

func (p *stubProvider) Current(_ context.Context, lat, lon float64) (*domain.WeatherObservation, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &domain.WeatherObservation{Latitude: lat, Longitude: lon, Temperature: 31, Source: SourceProvider, ObservedAt: fixedNow()}, nil
}

func (p *stubProvider) Forecast(_ context.Context, lat, lon float64, days int) (*domain.Forecast, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	out := p.forecast
	if len(out) > days {
		out = out[:days]
	}
	return &domain.Forecast{Latitude: lat, Longitude: lon, Source: SourceProvider, Days: out}, nil
}

func newTestWeatherService(provider WeatherProvider, farms FarmRepository) *WeatherService {
	kv := database.NewLocalKV(100, time.Hour)
	return NewWeatherService(
		provider,
		NewSyntheticWeatherProvider(fixedNow),
		database.NewCache(kv, "weather:current:", 10*time.Minute),
		database.NewCache(kv, "weather:forecast:", time.Hour),
		nil,
		farms,
		zap.NewNop(),
	)
}

func TestSyntheticWeatherProvider_Deterministic(t *testing.T) {
	ctx := context.Background()
	a := NewSyntheticWeatherProvider(fixedNow)
	b := NewSyntheticWeatherProvider(fixedNow)

	fa, err := a.Forecast(ctx, 18.52, 73.85, 14)
	require.NoError(t, err)
	fb, err := b.Forecast(ctx, 18.52, 73.85, 14)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	require.Len(t, fa.Days, 14)

	for i, d := range fa.Days {
		assert.Equal(t, fixedNow().Truncate(24*time.Hour).AddDate(0, 0, i), d.Date)
		assert.LessOrEqual(t, d.TempMin, d.TempMax)
		assert.GreaterOrEqual(t, d.Rainfall, 0.0)
		assert.LessOrEqual(t, d.Humidity, 100.0)
	}
	// northern monsoon in July
	assert.Equal(t, 65.0, fa.Days[0].RainProbability)

	ca, err := a.Current(ctx, 18.52, 73.85)
	require.NoError(t, err)
	cb, err := b.Current(ctx, 18.52, 73.85)
	require.NoError(t, err)
	assert.Equal(t, ca, cb)
	assert.Equal(t, SourceSynthetic, ca.Source)
}

func TestWeatherService_CurrentIsCached(t *testing.T) {
	ctx := context.Background()
	provider := &stubProvider{}
	svc := newTestWeatherService(provider, nil)

	first, err := svc.Current(ctx, 18.52, 73.85)
	require.NoError(t, err)
	second, err := svc.Current(ctx, 18.52, 73.85)
	require.NoError(t, err)

	assert.Equal(t, first.Temperature, second.Temperature)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestWeatherService_Fallback(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider uses synthetic data", func(t *testing.T) {
		svc := newTestWeatherService(nil, nil)
		obs, err := svc.Current(ctx, 10, 10)
		require.NoError(t, err)
		assert.Equal(t, SourceSynthetic, obs.Source)
	})

	t.Run("open breaker uses synthetic data", func(t *testing.T) {
		svc := newTestWeatherService(&stubProvider{err: gobreaker.ErrOpenState}, nil)
		fc, err := svc.Forecast(ctx, 10, 10, 5)
		require.NoError(t, err)
		assert.Equal(t, SourceSynthetic, fc.Source)
		assert.Len(t, fc.Days, 5)
	})

	t.Run("provider failure is unavailable", func(t *testing.T) {
		svc := newTestWeatherService(&stubProvider{err: errors.New("status 500")}, nil)
		_, err := svc.Current(ctx, 10, 10)
		require.Error(t, err)
		assert.True(t, apperrors.IsUnavailable(err))
	})
}

func TestWeatherService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestWeatherService(nil, nil)

	_, err := svc.Forecast(ctx, 10, 10, 15)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Current(ctx, 91, 10)
	assert.True(t, apperrors.IsValidation(err))

	to := fixedNow()
	_, err = svc.History(ctx, 10, 10, to, to.Add(-time.Hour))
	assert.True(t, apperrors.IsValidation(err))

	obs, err := svc.History(ctx, 10, 10, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestWeatherService_ForecastSlicesCachedHorizon(t *testing.T) {
	ctx := context.Background()
	days := make([]domain.DailyForecast, 14)
	for i := range days {
		days[i] = domain.DailyForecast{Date: fixedNow().AddDate(0, 0, i), TempMin: 20, TempMax: 30}
	}
	provider := &stubProvider{forecast: days}
	svc := newTestWeatherService(provider, nil)

	short, err := svc.Forecast(ctx, 1, 1, 3)
	require.NoError(t, err)
	assert.Len(t, short.Days, 3)

	long, err := svc.Forecast(ctx, 1, 1, 14)
	require.NoError(t, err)
	assert.Len(t, long.Days, 14)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestWeatherService_SyncFarmsRaisesAlerts(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	farm := ownedFarm(owner)

	frost := []domain.DailyForecast{
		{Date: fixedNow(), TempMin: 1, TempMax: 12, Rainfall: 5},
		{Date: fixedNow().AddDate(0, 0, 1), TempMin: 4, TempMax: 14, Rainfall: 2},
	}
	farms := new(MockFarmRepository)
	farms.On("ListWithCoordinates", ctx).Return([]domain.Farm{*farm}, nil)

	alertsRepo := new(MockAlertRepository)
	alertsRepo.On("ExistsSince", ctx, farm.ID, domain.AlertWeather, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(false, nil)
	alertsRepo.On("Create", ctx, mock.MatchedBy(func(a *domain.Alert) bool {
		return a.Type == domain.AlertWeather && a.UserID == owner && *a.FarmID == farm.ID
	})).Return(nil)

	publisher := &recordingPublisher{}
	svc := newTestWeatherService(&stubProvider{forecast: frost}, farms)
	svc.SetAlerts(NewAlertService(alertsRepo, publisher, zap.NewNop()))

	synced, err := svc.SyncFarms(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, synced)
	alertsRepo.AssertCalled(t, "Create", ctx, mock.Anything)
	assert.Contains(t, publisher.types(), EventTypeAlertRaised)
}

// fakeFetcher returns a canned body for every URL
type fakeFetcher struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	return f.body, f.err
}

func TestHTTPWeatherProvider_Decode(t *testing.T) {
	ctx := context.Background()
	fetcher := &fakeFetcher{body: []byte(`{
		"current": {"dt": 1784102400, "temp": 29.5, "feels_like": 33.1, "pressure": 1006, "humidity": 78,
			"clouds": 90, "wind_speed": 4.2, "wind_deg": 240, "rain": {"1h": 1.4}, "weather": [{"main": "Rain"}]},
		"daily": [
			{"dt": 1784102400, "temp": {"min": 24, "max": 31}, "humidity": 80, "wind_speed": 5, "rain": 12.5, "pop": 0.86, "weather": [{"main": "Rain"}]},
			{"dt": 1784188800, "temp": {"min": 23, "max": 30}, "humidity": 75, "wind_speed": 4, "pop": 0.2, "weather": [{"main": "Clouds"}]}
		]
	}`)}
	p := NewHTTPWeatherProvider(config.WeatherConfig{BaseURL: "https://weather.test", APIKey: "k"}, fetcher, zap.NewNop())

	obs, err := p.Current(ctx, 18.52, 73.85)
	require.NoError(t, err)
	assert.Equal(t, 29.5, obs.Temperature)
	assert.Equal(t, 1.4, obs.Rainfall)
	assert.Equal(t, "Rain", obs.Condition)
	assert.Contains(t, fetcher.urls[0], "appid=k")
	assert.Contains(t, fetcher.urls[0], "units=metric")

	fc, err := p.Forecast(ctx, 18.52, 73.85, 1)
	require.NoError(t, err)
	require.Len(t, fc.Days, 1)
	assert.Equal(t, 86.0, fc.Days[0].RainProbability)
	assert.Equal(t, 12.5, fc.Days[0].Rainfall)
}
