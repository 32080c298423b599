package market

import (
	"errors"
	"math"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// Predictor limits
const (
	MinPredictionPoints = 7
	MaxHorizonDays      = 90
	ModelLinearWeekday  = "linear_trend_weekday"

	bandZ = 1.96
)

// ErrInvalidHorizon is returned for horizons outside 1..MaxHorizonDays
var ErrInvalidHorizon = errors.New("horizon must be between 1 and 90 days")

// Predict forecasts horizon days past the last point with a least-squares
// trend plus the mean residual of each weekday. The band is ±1.96 RMSE of
// the in-sample fit. Prices and bounds never go below zero.
func Predict(commodity, market string, points []domain.PricePoint, horizon int) (*domain.PricePrediction, error) {
	if horizon < 1 || horizon > MaxHorizonDays {
		return nil, ErrInvalidHorizon
	}
	if len(points) < MinPredictionPoints {
		return nil, ErrInsufficientData
	}

	pts := normalize(points)
	xs, ys := regressionInputs(pts)
	alpha, beta := fitLine(xs, ys)

	var sums, counts [7]float64
	for i, p := range pts {
		wd := p.Date.Weekday()
		sums[wd] += ys[i] - (alpha + beta*xs[i])
		counts[wd]++
	}
	var seasonal [7]float64
	for wd := range seasonal {
		if counts[wd] > 0 {
			seasonal[wd] = sums[wd] / counts[wd]
		}
	}

	var sse float64
	for i, p := range pts {
		fitted := alpha + beta*xs[i] + seasonal[p.Date.Weekday()]
		sse += (ys[i] - fitted) * (ys[i] - fitted)
	}
	rmse := math.Sqrt(sse / float64(len(pts)))
	band := bandZ * rmse

	lastDate := pts[len(pts)-1].Date
	lastX := xs[len(xs)-1]
	preds := make([]domain.PredictedPrice, 0, horizon)
	for k := 1; k <= horizon; k++ {
		d := lastDate.AddDate(0, 0, k)
		price := math.Max(alpha+beta*(lastX+float64(k))+seasonal[d.Weekday()], 0)
		preds = append(preds, domain.PredictedPrice{
			Date:  d,
			Price: round2(price),
			Lower: round2(math.Max(price-band, 0)),
			Upper: round2(price + band),
		})
	}

	return &domain.PricePrediction{
		Commodity:   commodity,
		Market:      market,
		Model:       ModelLinearWeekday,
		HorizonDays: horizon,
		TrainPoints: len(pts),
		RMSE:        round2(rmse),
		Predictions: preds,
	}, nil
}
