package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const priceColumns = `id, commodity, market, state, variety, min_price, max_price, modal_price,
	unit, arrival_quantity, price_date, source, created_at`

// PriceRepository stores mandi prices in ClickHouse. Rows for the same
// commodity, market, variety and day replace each other.
type PriceRepository struct {
	db *database.ClickHouseDB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *database.ClickHouseDB) *PriceRepository {
	return &PriceRepository{db: db}
}

// Insert appends prices in one batch
func (r *PriceRepository) Insert(ctx context.Context, prices []domain.MarketPrice) error {
	if len(prices) == 0 {
		return nil
	}

	batch, err := r.db.PrepareBatch(ctx, `INSERT INTO market_prices (`+priceColumns+`)`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, p := range prices {
		if err := batch.Append(
			p.ID,
			p.Commodity,
			p.Market,
			p.State,
			p.Variety,
			p.MinPrice,
			p.MaxPrice,
			p.ModalPrice,
			p.Unit,
			p.ArrivalQuantity,
			p.PriceDate,
			p.Source,
			p.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	return batch.Send()
}

// List retrieves prices with filtering and pagination, newest first
func (r *PriceRepository) List(ctx context.Context, filter *domain.PriceFilter, p pagination.Params) ([]domain.MarketPrice, int64, error) {
	var (
		conditions []string
		args       []any
	)
	if filter != nil {
		if filter.Commodity != "" {
			conditions = append(conditions, "commodity = ?")
			args = append(args, filter.Commodity)
		}
		if filter.Market != "" {
			conditions = append(conditions, "market = ?")
			args = append(args, filter.Market)
		}
		if filter.State != "" {
			conditions = append(conditions, "state = ?")
			args = append(args, filter.State)
		}
		if filter.From != nil {
			conditions = append(conditions, "price_date >= ?")
			args = append(args, *filter.From)
		}
		if filter.To != nil {
			conditions = append(conditions, "price_date <= ?")
			args = append(args, *filter.To)
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total uint64
	countQuery := fmt.Sprintf("SELECT count() FROM market_prices FINAL %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count prices: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM market_prices FINAL
		%s
		ORDER BY price_date DESC, commodity, market
		LIMIT ? OFFSET ?
	`, priceColumns, whereClause)

	var prices []domain.MarketPrice
	if err := r.db.Select(ctx, &prices, query, append(args, p.Limit(), p.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("failed to list prices: %w", err)
	}
	return prices, int64(total), nil
}

// Latest returns the newest price of the commodity in each market
func (r *PriceRepository) Latest(ctx context.Context, commodity string) ([]domain.MarketPrice, error) {
	query := `
		SELECT ` + priceColumns + `
		FROM market_prices FINAL
		WHERE commodity = ?
		ORDER BY market, price_date DESC
		LIMIT 1 BY market
	`

	var prices []domain.MarketPrice
	if err := r.db.Select(ctx, &prices, query, commodity); err != nil {
		return nil, fmt.Errorf("failed to get latest prices: %w", err)
	}
	return prices, nil
}

// DailySeries averages modal prices per day since from. An empty market
// averages across all markets.
func (r *PriceRepository) DailySeries(ctx context.Context, commodity, market string, from time.Time) ([]domain.PricePoint, error) {
	conditions := []string{"commodity = ?", "price_date >= ?"}
	args := []any{commodity, from}
	if market != "" {
		conditions = append(conditions, "market = ?")
		args = append(args, market)
	}

	query := fmt.Sprintf(`
		SELECT
			toDateTime(price_date) AS day,
			avg(modal_price) AS price
		FROM market_prices FINAL
		WHERE %s
		GROUP BY day
		ORDER BY day
	`, strings.Join(conditions, " AND "))

	var points []domain.PricePoint
	if err := r.db.Select(ctx, &points, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query price series: %w", err)
	}
	return points, nil
}

// Commodities lists every commodity with recorded prices
func (r *PriceRepository) Commodities(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.Select(ctx, &names, `SELECT DISTINCT commodity FROM market_prices ORDER BY commodity`); err != nil {
		return nil, fmt.Errorf("failed to list commodities: %w", err)
	}
	return names, nil
}
