package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrPriceOrder is returned when a price row violates min <= modal <= max
var ErrPriceOrder = errors.New("prices must satisfy min <= modal <= max")

// MarketPrice is one mandi price observation for a commodity
type MarketPrice struct {
	ID              uuid.UUID `json:"id" ch:"id"`
	Commodity       string    `json:"commodity" ch:"commodity"`
	Market          string    `json:"market" ch:"market"`
	State           string    `json:"state" ch:"state"`
	Variety         string    `json:"variety" ch:"variety"`
	MinPrice        float64   `json:"minPrice" ch:"min_price"`
	MaxPrice        float64   `json:"maxPrice" ch:"max_price"`
	ModalPrice      float64   `json:"modalPrice" ch:"modal_price"`
	Unit            string    `json:"unit" ch:"unit"`
	ArrivalQuantity float64   `json:"arrivalQuantity" ch:"arrival_quantity"`
	PriceDate       time.Time `json:"priceDate" ch:"price_date"`
	Source          string    `json:"source" ch:"source"`
	CreatedAt       time.Time `json:"createdAt" ch:"created_at"`
}

// CheckOrder enforces min <= modal <= max
func (p MarketPrice) CheckOrder() error {
	if p.MinPrice > p.ModalPrice || p.ModalPrice > p.MaxPrice {
		return ErrPriceOrder
	}
	return nil
}

// MarketPriceInput represents one price to record
type MarketPriceInput struct {
	Commodity       string    `json:"commodity" validate:"required,min=2,max=100"`
	Market          string    `json:"market" validate:"required,min=2,max=150"`
	State           string    `json:"state" validate:"max=100"`
	Variety         string    `json:"variety" validate:"max=100"`
	MinPrice        float64   `json:"minPrice" validate:"gte=0,ltefield=ModalPrice"`
	MaxPrice        float64   `json:"maxPrice" validate:"gte=0"`
	ModalPrice      float64   `json:"modalPrice" validate:"gt=0,ltefield=MaxPrice"`
	Unit            string    `json:"unit" validate:"omitempty,oneof=quintal kg tonne"`
	ArrivalQuantity float64   `json:"arrivalQuantity" validate:"gte=0"`
	PriceDate       time.Time `json:"priceDate" validate:"required"`
}

// MarketPriceBatch wraps a batch upload
type MarketPriceBatch struct {
	Prices []MarketPriceInput `json:"prices" validate:"required,min=1,max=5000,dive"`
}

// PriceFilter filters price queries
type PriceFilter struct {
	Commodity string
	Market    string
	State     string
	From      *time.Time
	To        *time.Time
}

// PricePoint is a daily price used by the analyses
type PricePoint struct {
	Date  time.Time `json:"date" ch:"day"`
	Price float64   `json:"price" ch:"price"`
}

// TrendDirection is the overall price direction
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// MarketSignal is a trading suggestion for the farmer
type MarketSignal string

const (
	SignalBuy  MarketSignal = "buy"
	SignalSell MarketSignal = "sell"
	SignalHold MarketSignal = "hold"
)

// MACD holds the latest MACD values
type MACD struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Bollinger holds the latest Bollinger band values
type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// TrendAnalysis is the result of analysing a commodity's price history
type TrendAnalysis struct {
	Commodity     string         `json:"commodity"`
	Market        string         `json:"market,omitempty"`
	Points        int            `json:"points"`
	From          time.Time      `json:"from"`
	To            time.Time      `json:"to"`
	LatestPrice   float64        `json:"latestPrice"`
	AveragePrice  float64        `json:"averagePrice"`
	Direction     TrendDirection `json:"direction"`
	SlopePerDay   float64        `json:"slopePerDay"`
	PercentChange float64        `json:"percentChange"`
	RSquared      float64        `json:"rSquared"`
	Volatility    float64        `json:"volatility"`
	SMA7          *float64       `json:"sma7,omitempty"`
	SMA30         *float64       `json:"sma30,omitempty"`
	RSI           *float64       `json:"rsi,omitempty"`
	MACD          *MACD          `json:"macd,omitempty"`
	Bollinger     *Bollinger     `json:"bollinger,omitempty"`
	Signal        MarketSignal   `json:"signal"`
	Reasons       []string       `json:"reasons,omitempty"`
}

// PredictedPrice is one forecast point with its band
type PredictedPrice struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// PricePrediction is a commodity forecast
type PricePrediction struct {
	Commodity   string           `json:"commodity"`
	Market      string           `json:"market,omitempty"`
	Model       string           `json:"model"`
	HorizonDays int              `json:"horizonDays"`
	TrainPoints int              `json:"trainPoints"`
	RMSE        float64          `json:"rmse"`
	Predictions []PredictedPrice `json:"predictions"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// IndicatorSeries is the tail of each indicator aligned with dates
type IndicatorSeries struct {
	Commodity string      `json:"commodity"`
	Dates     []time.Time `json:"dates"`
	Prices    []float64   `json:"prices"`
	SMA7      []*float64  `json:"sma7"`
	SMA30     []*float64  `json:"sma30"`
	EMA12     []*float64  `json:"ema12"`
	EMA26     []*float64  `json:"ema26"`
	RSI14     []*float64  `json:"rsi14"`
}

// ReportStatus tracks an asynchronous export
type ReportStatus string

const (
	ReportQueued     ReportStatus = "queued"
	ReportProcessing ReportStatus = "processing"
	ReportReady      ReportStatus = "ready"
	ReportFailed     ReportStatus = "failed"
)

// ReportKind names the exported dataset
type ReportKind string

const (
	ReportMarketPrices ReportKind = "market_prices"
	ReportIrrigation   ReportKind = "irrigation"
)

// ReportRequest asks for an XLSX export
type ReportRequest struct {
	Kind      ReportKind `json:"kind" validate:"required,oneof=market_prices irrigation"`
	Commodity string     `json:"commodity,omitempty" validate:"required_if=Kind market_prices"`
	Market    string     `json:"market,omitempty"`
	FarmID    *uuid.UUID `json:"farmId,omitempty" validate:"required_if=Kind irrigation"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
}

// Report is the tracked state of an export job
type Report struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"userId"`
	Request     ReportRequest `json:"request"`
	Status      ReportStatus  `json:"status"`
	ObjectKey   string        `json:"objectKey,omitempty"`
	DownloadURL string        `json:"downloadUrl,omitempty"`
	Rows        int           `json:"rows"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// ImportRequest asks the server to scrape a price board
type ImportRequest struct {
	URL       string `json:"url,omitempty" validate:"omitempty,url"`
	HTML      string `json:"html,omitempty"`
	Commodity string `json:"commodity,omitempty"`
	Source    string `json:"source,omitempty" validate:"max=50"`
}

// ImportResult reports how many rows an import stored
type ImportResult struct {
	Parsed   int      `json:"parsed"`
	Stored   int      `json:"stored"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}
