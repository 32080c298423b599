package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// ErrInsufficientData is returned when a series is too short for an analysis
var ErrInsufficientData = errors.New("insufficient price history")

// StableBandPerWeek is the weekly move (% of mean price) inside which a trend is stable
const StableBandPerWeek = 0.5

// RSI levels for the trading signal
const (
	RSIOversold   = 30.0
	RSIOverbought = 70.0
)

const day = 24 * time.Hour

// normalize sorts points by date and collapses them to UTC days
func normalize(points []domain.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, len(points))
	for i, p := range points {
		out[i] = domain.PricePoint{Date: p.Date.UTC().Truncate(day), Price: p.Price}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// regressionInputs returns day offsets from the first point and the prices
func regressionInputs(points []domain.PricePoint) (xs, ys []float64) {
	xs = make([]float64, len(points))
	ys = make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Date.Sub(points[0].Date).Hours() / 24
		ys[i] = p.Price
	}
	return xs, ys
}

// fitLine returns intercept and slope, falling back to a flat line at the
// mean when every point shares the same day
func fitLine(xs, ys []float64) (alpha, beta float64) {
	if xs[len(xs)-1] == xs[0] {
		return stat.Mean(ys, nil), 0
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

// Direction classifies a daily slope relative to the mean price
func Direction(slopePerDay, mean float64) domain.TrendDirection {
	if mean == 0 {
		return domain.TrendStable
	}
	weekly := slopePerDay * 7 / mean * 100
	switch {
	case weekly > StableBandPerWeek:
		return domain.TrendUp
	case weekly < -StableBandPerWeek:
		return domain.TrendDown
	}
	return domain.TrendStable
}

// AnalyzeTrend computes the trend and technical indicators of a price
// series. At least two points are required; indicators needing more
// history are omitted.
func AnalyzeTrend(commodity, market string, points []domain.PricePoint) (*domain.TrendAnalysis, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientData
	}

	pts := normalize(points)
	xs, ys := regressionInputs(pts)
	alpha, beta := fitLine(xs, ys)
	mean := stat.Mean(ys, nil)

	res := &domain.TrendAnalysis{
		Commodity:    commodity,
		Market:       market,
		Points:       len(pts),
		From:         pts[0].Date,
		To:           pts[len(pts)-1].Date,
		LatestPrice:  ys[len(ys)-1],
		AveragePrice: round2(mean),
		SlopePerDay:  round2(beta),
		Direction:    Direction(beta, mean),
	}

	if ys[0] != 0 {
		res.PercentChange = round2((ys[len(ys)-1] - ys[0]) / ys[0] * 100)
	}
	if beta != 0 {
		res.RSquared = round2(stat.RSquared(xs, ys, nil, alpha, beta))
	}
	if r := Returns(ys); len(r) > 1 {
		res.Volatility = round2(stat.StdDev(r, nil) * 100)
	}

	if v, ok := last(SMA(ys, ShortSMA)); ok {
		v = round2(v)
		res.SMA7 = &v
	}
	if v, ok := last(SMA(ys, LongSMA)); ok {
		v = round2(v)
		res.SMA30 = &v
	}
	rsi, hasRSI := last(RSI(ys, RSIPeriod))
	if hasRSI {
		v := round2(rsi)
		res.RSI = &v
	}

	line, sig, hist := MACD(ys, MACDFast, MACDSlow, MACDSignal)
	if h, ok := last(hist); ok {
		res.MACD = &domain.MACD{
			MACD:      round2(line[len(line)-1]),
			Signal:    round2(sig[len(sig)-1]),
			Histogram: round2(h),
		}
	}

	upper, middle, lower := BollingerBands(ys, BollingerPeriod, BollingerWidth)
	if m, ok := last(middle); ok {
		res.Bollinger = &domain.Bollinger{
			Upper:  round2(upper[len(upper)-1]),
			Middle: round2(m),
			Lower:  round2(lower[len(lower)-1]),
		}
	}

	res.Signal, res.Reasons = tradingSignal(res.Direction, rsi, hasRSI, hist)
	return res, nil
}

// tradingSignal applies the RSI extremes first, then a MACD histogram
// crossover confirmed by the trend direction
func tradingSignal(dir domain.TrendDirection, rsi float64, hasRSI bool, hist []float64) (domain.MarketSignal, []string) {
	if hasRSI && rsi < RSIOversold {
		return domain.SignalBuy, []string{fmt.Sprintf("RSI %.1f is below %.0f (oversold)", rsi, RSIOversold)}
	}
	if hasRSI && rsi > RSIOverbought {
		return domain.SignalSell, []string{fmt.Sprintf("RSI %.1f is above %.0f (overbought)", rsi, RSIOverbought)}
	}

	n := len(hist)
	if n >= 2 && !math.IsNaN(hist[n-1]) && !math.IsNaN(hist[n-2]) {
		prev, cur := hist[n-2], hist[n-1]
		if prev <= 0 && cur > 0 && dir == domain.TrendUp {
			return domain.SignalBuy, []string{"MACD histogram turned positive", "price trend is up"}
		}
		if prev >= 0 && cur < 0 && dir == domain.TrendDown {
			return domain.SignalSell, []string{"MACD histogram turned negative", "price trend is down"}
		}
	}

	return domain.SignalHold, []string{fmt.Sprintf("no confirmed signal, trend is %s", dir)}
}

// Indicators returns the last tail points of each indicator series
func Indicators(commodity string, points []domain.PricePoint, tail int) (*domain.IndicatorSeries, error) {
	if len(points) < 2 {
		return nil, ErrInsufficientData
	}
	pts := normalize(points)
	_, ys := regressionInputs(pts)

	start := 0
	if tail > 0 && len(pts) > tail {
		start = len(pts) - tail
	}

	dates := make([]time.Time, 0, len(pts)-start)
	for _, p := range pts[start:] {
		dates = append(dates, p.Date)
	}

	return &domain.IndicatorSeries{
		Commodity: commodity,
		Dates:     dates,
		Prices:    ys[start:],
		SMA7:      pointers(SMA(ys, ShortSMA))[start:],
		SMA30:     pointers(SMA(ys, LongSMA))[start:],
		EMA12:     pointers(EMA(ys, MACDFast))[start:],
		EMA26:     pointers(EMA(ys, MACDSlow))[start:],
		RSI14:     pointers(RSI(ys, RSIPeriod))[start:],
	}, nil
}
