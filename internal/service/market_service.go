package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/config"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/market"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/metrics"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const (
	predictionHistoryDays = 180
	defaultIndicatorTail  = 60
	defaultUnit           = "quintal"
	sourceManual          = "manual"
	sourceImport          = "import"
)

// PriceRepository defines market price storage operations
type PriceRepository interface {
	Insert(ctx context.Context, prices []domain.MarketPrice) error
	List(ctx context.Context, filter *domain.PriceFilter, p pagination.Params) ([]domain.MarketPrice, int64, error)
	// Latest returns the newest price of the commodity in each market
	Latest(ctx context.Context, commodity string) ([]domain.MarketPrice, error)
	// DailySeries averages modal prices per day since from
	DailySeries(ctx context.Context, commodity, market string, from time.Time) ([]domain.PricePoint, error)
	Commodities(ctx context.Context) ([]string, error)
}

// MarketService records prices and analyses their movement
type MarketService struct {
	prices  PriceRepository
	trends  *database.Cache
	fetcher PageFetcher
	cfg     config.MarketConfig
	now     func() time.Time
	log     *zap.Logger
}

var _ TrendSource = (*MarketService)(nil)

// NewMarketService creates a new market service. trends may be nil to
// disable trend caching.
func NewMarketService(prices PriceRepository, trends *database.Cache, fetcher PageFetcher, cfg config.MarketConfig, log *zap.Logger) *MarketService {
	return &MarketService{
		prices:  prices,
		trends:  trends,
		fetcher: fetcher,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log,
	}
}

// ListPrices searches recorded prices
func (s *MarketService) ListPrices(ctx context.Context, filter *domain.PriceFilter, p pagination.Params) (pagination.Page[domain.MarketPrice], error) {
	filter.Commodity = normalizeCommodity(filter.Commodity)
	items, total, err := s.prices.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[domain.MarketPrice]{}, fmt.Errorf("failed to list prices: %w", err)
	}
	return pagination.NewPage(items, p, total), nil
}

// Record stores one price
func (s *MarketService) Record(ctx context.Context, input *domain.MarketPriceInput) (*domain.MarketPrice, error) {
	prices, err := s.toPrices([]domain.MarketPriceInput{*input}, sourceManual)
	if err != nil {
		return nil, err
	}
	if err := s.prices.Insert(ctx, prices); err != nil {
		return nil, fmt.Errorf("failed to store price: %w", err)
	}
	return &prices[0], nil
}

// RecordBatch stores a batch of prices; one bad row rejects the batch
func (s *MarketService) RecordBatch(ctx context.Context, batch *domain.MarketPriceBatch) (int, error) {
	prices, err := s.toPrices(batch.Prices, sourceManual)
	if err != nil {
		return 0, err
	}
	if err := s.prices.Insert(ctx, prices); err != nil {
		return 0, fmt.Errorf("failed to store prices: %w", err)
	}
	return len(prices), nil
}

// Latest returns the newest price of a commodity per market
func (s *MarketService) Latest(ctx context.Context, commodity string) ([]domain.MarketPrice, error) {
	commodity = normalizeCommodity(commodity)
	if commodity == "" {
		return nil, apperrors.Validation("commodity is required").WithDetail("commodity", "required")
	}
	prices, err := s.prices.Latest(ctx, commodity)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest prices: %w", err)
	}
	return prices, nil
}

// Trend analyses the last days of a commodity's prices. Results are cached.
func (s *MarketService) Trend(ctx context.Context, commodity, mkt string, days int) (*domain.TrendAnalysis, error) {
	commodity = normalizeCommodity(commodity)
	if days <= 0 {
		days = s.cfg.DefaultTrendDays
	}

	key := trendKey(commodity, mkt, days)
	if s.trends != nil {
		var cached domain.TrendAnalysis
		found, err := s.trends.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.Warn("trend cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	trend, err := s.computeTrend(ctx, commodity, mkt, days)
	if err != nil {
		return nil, err
	}
	s.cacheTrend(ctx, key, trend)
	return trend, nil
}

// Predict forecasts a commodity's price horizon days ahead
func (s *MarketService) Predict(ctx context.Context, commodity, mkt string, horizon int) (*domain.PricePrediction, error) {
	commodity = normalizeCommodity(commodity)
	maxHorizon := s.cfg.MaxHorizonDays
	if maxHorizon <= 0 || maxHorizon > market.MaxHorizonDays {
		maxHorizon = market.MaxHorizonDays
	}
	if horizon < 1 || horizon > maxHorizon {
		return nil, apperrors.Validation(fmt.Sprintf("horizon must be between 1 and %d days", maxHorizon)).
			WithDetail("horizon", "out of range")
	}

	points, err := s.prices.DailySeries(ctx, commodity, mkt, s.now().AddDate(0, 0, -predictionHistoryDays))
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}

	prediction, err := market.Predict(commodity, mkt, points, horizon)
	if err != nil {
		return nil, analysisError(err, market.MinPredictionPoints)
	}
	prediction.GeneratedAt = s.now()
	metrics.PricePredicted(commodity)
	return prediction, nil
}

// Indicators returns the tail of each technical indicator series
func (s *MarketService) Indicators(ctx context.Context, commodity, mkt string, days, tail int) (*domain.IndicatorSeries, error) {
	commodity = normalizeCommodity(commodity)
	if days <= 0 {
		days = s.cfg.DefaultTrendDays
	}
	if tail <= 0 {
		tail = defaultIndicatorTail
	}

	points, err := s.prices.DailySeries(ctx, commodity, mkt, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	series, err := market.Indicators(commodity, points, tail)
	if err != nil {
		return nil, analysisError(err, 2)
	}
	return series, nil
}

// Import parses a price board posted as HTML or fetched from a URL and
// stores its rows
func (s *MarketService) Import(ctx context.Context, req *domain.ImportRequest) (*domain.ImportResult, error) {
	page := []byte(req.HTML)
	if len(page) == 0 {
		if req.URL == "" {
			return nil, apperrors.Validation("either url or html is required").WithDetail("url", "required without html")
		}
		if s.fetcher == nil {
			return nil, apperrors.Unavailable("remote import is disabled")
		}
		body, err := s.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			return nil, apperrors.BadRequest("could not download the price board").WithError(err)
		}
		page = body
	}

	board, err := market.ParseBoard(bytes.NewReader(page), market.BoardDefaults{
		Commodity: req.Commodity,
		Date:      s.now().Truncate(24 * time.Hour),
		Unit:      defaultUnit,
	})
	if err != nil {
		if errors.Is(err, market.ErrNoPriceTable) {
			return nil, apperrors.BadRequest("no price table found on the page")
		}
		return nil, fmt.Errorf("failed to parse price board: %w", err)
	}

	result := &domain.ImportResult{
		Parsed:   len(board.Rows) + board.Skipped,
		Skipped:  board.Skipped,
		Warnings: board.Warnings,
	}
	if len(board.Rows) == 0 {
		return result, nil
	}

	source := req.Source
	if source == "" {
		source = sourceImport
	}
	prices, err := s.toPrices(board.Rows, source)
	if err != nil {
		return nil, err
	}
	if err := s.prices.Insert(ctx, prices); err != nil {
		return nil, fmt.Errorf("failed to store imported prices: %w", err)
	}
	result.Stored = len(prices)

	s.log.Info("price board imported",
		zap.String("source", source),
		zap.Int("stored", result.Stored),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// RefreshTrends recomputes and caches the default trend of every commodity.
// Commodities without enough history are skipped.
func (s *MarketService) RefreshTrends(ctx context.Context) (int, error) {
	commodities, err := s.prices.Commodities(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list commodities: %w", err)
	}

	days := s.cfg.DefaultTrendDays
	refreshed := 0
	for _, c := range commodities {
		trend, err := s.computeTrend(ctx, c, "", days)
		if err != nil {
			if !apperrors.IsAppError(err) {
				s.log.Warn("trend refresh failed", zap.String("commodity", c), zap.Error(err))
			}
			continue
		}
		s.cacheTrend(ctx, trendKey(c, "", days), trend)
		refreshed++
	}
	return refreshed, nil
}

func (s *MarketService) computeTrend(ctx context.Context, commodity, mkt string, days int) (*domain.TrendAnalysis, error) {
	points, err := s.prices.DailySeries(ctx, commodity, mkt, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	trend, err := market.AnalyzeTrend(commodity, mkt, points)
	if err != nil {
		return nil, analysisError(err, 2)
	}
	return trend, nil
}

func (s *MarketService) cacheTrend(ctx context.Context, key string, trend *domain.TrendAnalysis) {
	if s.trends == nil {
		return
	}
	if err := s.trends.SetJSON(ctx, key, trend); err != nil {
		s.log.Warn("trend cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *MarketService) toPrices(inputs []domain.MarketPriceInput, source string) ([]domain.MarketPrice, error) {
	now := s.now()
	out := make([]domain.MarketPrice, 0, len(inputs))
	for i, in := range inputs {
		p := domain.MarketPrice{
			ID:              uuid.New(),
			Commodity:       normalizeCommodity(in.Commodity),
			Market:          strings.TrimSpace(in.Market),
			State:           strings.TrimSpace(in.State),
			Variety:         strings.TrimSpace(in.Variety),
			MinPrice:        in.MinPrice,
			MaxPrice:        in.MaxPrice,
			ModalPrice:      in.ModalPrice,
			Unit:            in.Unit,
			ArrivalQuantity: in.ArrivalQuantity,
			PriceDate:       in.PriceDate.UTC().Truncate(24 * time.Hour),
			Source:          source,
			CreatedAt:       now,
		}
		if p.Unit == "" {
			p.Unit = defaultUnit
		}
		if err := p.CheckOrder(); err != nil {
			return nil, apperrors.Validation(err.Error()).WithDetail(fmt.Sprintf("prices[%d]", i), "min <= modal <= max")
		}
		if p.Commodity == "" {
			return nil, apperrors.Validation("commodity is required").WithDetail(fmt.Sprintf("prices[%d].commodity", i), "required")
		}
		out = append(out, p)
	}
	return out, nil
}

// analysisError maps the analysers' sentinel errors onto client errors
func analysisError(err error, minPoints int) error {
	switch {
	case errors.Is(err, market.ErrInsufficientData):
		return apperrors.InsufficientData(fmt.Sprintf("at least %d days of prices are required", minPoints))
	case errors.Is(err, market.ErrInvalidHorizon):
		return apperrors.Validation(err.Error()).WithDetail("horizon", "out of range")
	}
	return err
}

func normalizeCommodity(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

func trendKey(commodity, mkt string, days int) string {
	return fmt.Sprintf("%s:%s:%d", commodity, strings.ToLower(mkt), days)
}
