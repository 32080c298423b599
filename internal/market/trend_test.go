package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

var seriesStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // a Monday

func series(prices ...float64) []domain.PricePoint {
	out := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = domain.PricePoint{Date: seriesStart.AddDate(0, 0, i), Price: p}
	}
	return out
}

func linear(n int, start, step float64) []domain.PricePoint {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = start + step*float64(i)
	}
	return series(prices...)
}

func TestDirection(t *testing.T) {
	tests := []struct {
		slope, mean float64
		want        domain.TrendDirection
	}{
		{1, 100, domain.TrendUp},        // 7% a week
		{0.05, 100, domain.TrendStable}, // 0.35% a week
		{-0.1, 100, domain.TrendDown},   // -0.7% a week
		{5, 0, domain.TrendStable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Direction(tt.slope, tt.mean))
	}
}

func TestAnalyzeTrend(t *testing.T) {
	t.Run("needs two points", func(t *testing.T) {
		_, err := AnalyzeTrend("onion", "", series(100))
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("steady rise", func(t *testing.T) {
		res, err := AnalyzeTrend("onion", "Lasalgaon", linear(10, 100, 2))
		require.NoError(t, err)

		assert.Equal(t, 10, res.Points)
		assert.Equal(t, 118.0, res.LatestPrice)
		assert.Equal(t, 109.0, res.AveragePrice)
		assert.Equal(t, 2.0, res.SlopePerDay)
		assert.Equal(t, 18.0, res.PercentChange)
		assert.Equal(t, 1.0, res.RSquared)
		assert.Equal(t, domain.TrendUp, res.Direction)
		assert.Greater(t, res.Volatility, 0.0)
		require.NotNil(t, res.SMA7)
		assert.Equal(t, 112.0, *res.SMA7)
		assert.Nil(t, res.SMA30)
		assert.Nil(t, res.RSI)
		assert.Nil(t, res.MACD)
		assert.Equal(t, seriesStart, res.From)
	})

	t.Run("flat prices are stable", func(t *testing.T) {
		res, err := AnalyzeTrend("onion", "", linear(5, 100, 0))
		require.NoError(t, err)

		assert.Equal(t, domain.TrendStable, res.Direction)
		assert.Equal(t, 0.0, res.SlopePerDay)
		assert.Equal(t, 0.0, res.Volatility)
		assert.Equal(t, domain.SignalHold, res.Signal)
	})

	t.Run("unsorted input", func(t *testing.T) {
		pts := linear(5, 100, 2)
		pts[0], pts[4] = pts[4], pts[0]
		res, err := AnalyzeTrend("onion", "", pts)
		require.NoError(t, err)
		assert.Equal(t, 108.0, res.LatestPrice)
	})

	t.Run("overbought sells", func(t *testing.T) {
		res, err := AnalyzeTrend("onion", "", linear(40, 100, 1))
		require.NoError(t, err)

		require.NotNil(t, res.RSI)
		assert.Equal(t, 100.0, *res.RSI)
		assert.Equal(t, domain.SignalSell, res.Signal)
		assert.True(t, strings.Contains(res.Reasons[0], "overbought"))
		assert.NotNil(t, res.MACD)
		assert.NotNil(t, res.Bollinger)
		assert.NotNil(t, res.SMA30)
	})

	t.Run("oversold buys", func(t *testing.T) {
		res, err := AnalyzeTrend("onion", "", linear(20, 200, -2))
		require.NoError(t, err)

		assert.Equal(t, domain.TrendDown, res.Direction)
		require.NotNil(t, res.RSI)
		assert.Equal(t, 0.0, *res.RSI)
		assert.Equal(t, domain.SignalBuy, res.Signal)
	})
}

func TestTradingSignal_MACDCrossover(t *testing.T) {
	sig, reasons := tradingSignal(domain.TrendUp, 55, true, []float64{-0.2, 0.3})
	assert.Equal(t, domain.SignalBuy, sig)
	assert.Len(t, reasons, 2)

	sig, _ = tradingSignal(domain.TrendDown, 45, true, []float64{0.1, -0.4})
	assert.Equal(t, domain.SignalSell, sig)

	// crossover against the trend is ignored
	sig, _ = tradingSignal(domain.TrendDown, 50, true, []float64{-0.2, 0.3})
	assert.Equal(t, domain.SignalHold, sig)
}

func TestIndicators(t *testing.T) {
	res, err := Indicators("onion", linear(40, 100, 1), 10)
	require.NoError(t, err)

	assert.Len(t, res.Dates, 10)
	assert.Len(t, res.Prices, 10)
	assert.Len(t, res.SMA30, 10)
	assert.Equal(t, 139.0, res.Prices[9])
	require.NotNil(t, res.SMA7[9])
	assert.Equal(t, 136.0, *res.SMA7[9])

	_, err = Indicators("onion", nil, 10)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPredict(t *testing.T) {
	t.Run("validates horizon", func(t *testing.T) {
		_, err := Predict("onion", "", linear(10, 100, 1), 0)
		assert.ErrorIs(t, err, ErrInvalidHorizon)
		_, err = Predict("onion", "", linear(10, 100, 1), 91)
		assert.ErrorIs(t, err, ErrInvalidHorizon)
	})

	t.Run("needs seven points", func(t *testing.T) {
		_, err := Predict("onion", "", linear(6, 100, 1), 5)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("extends a perfect line", func(t *testing.T) {
		res, err := Predict("onion", "Lasalgaon", linear(14, 100, 2), 3)
		require.NoError(t, err)

		assert.Equal(t, ModelLinearWeekday, res.Model)
		assert.Equal(t, 14, res.TrainPoints)
		assert.Equal(t, 0.0, res.RMSE)
		require.Len(t, res.Predictions, 3)
		assert.Equal(t, 128.0, res.Predictions[0].Price)
		assert.Equal(t, 132.0, res.Predictions[2].Price)
		assert.Equal(t, res.Predictions[0].Price, res.Predictions[0].Lower)
		assert.Equal(t, seriesStart.AddDate(0, 0, 14), res.Predictions[0].Date)
	})

	t.Run("floors at zero", func(t *testing.T) {
		res, err := Predict("onion", "", linear(7, 70, -10), 3)
		require.NoError(t, err)
		for _, p := range res.Predictions {
			assert.Equal(t, 0.0, p.Price)
			assert.Equal(t, 0.0, p.Lower)
		}
	})

	t.Run("carries the weekday pattern", func(t *testing.T) {
		prices := make([]float64, 28)
		for i := range prices {
			prices[i] = 100
			if seriesStart.AddDate(0, 0, i).Weekday() == time.Sunday {
				prices[i] = 110
			}
		}
		res, err := Predict("onion", "", series(prices...), 7)
		require.NoError(t, err)

		for _, p := range res.Predictions {
			if p.Date.Weekday() == time.Sunday {
				assert.InDelta(t, 111.15, p.Price, 0.01)
			} else {
				assert.InDelta(t, 101.15, p.Price, 0.01)
			}
			assert.Greater(t, p.Upper, p.Price)
		}
		assert.InDelta(t, 0.51, res.RMSE, 0.01)
	})
}
