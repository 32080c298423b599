package market

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// ErrNoPriceTable is returned when no table on the page looks like a price board
var ErrNoPriceTable = errors.New("no price table found")

type column int

const (
	colCommodity column = iota
	colMarket
	colState
	colVariety
	colMin
	colMax
	colModal
	colDate
	colArrival
	colUnit
)

// headerAliases maps lower-cased header text fragments to columns. Order
// matters: more specific fragments come first.
var headerAliases = []struct {
	fragment string
	col      column
}{
	{"commodity", colCommodity},
	{"crop", colCommodity},
	{"market", colMarket},
	{"mandi", colMarket},
	{"apmc", colMarket},
	{"state", colState},
	{"variety", colVariety},
	{"date", colDate},
	{"arrival", colArrival},
	{"unit", colUnit},
	{"min", colMin},
	{"max", colMax},
	{"modal", colModal},
	{"price", colModal},
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// BoardDefaults fill columns a board does not carry
type BoardDefaults struct {
	Commodity string
	Date      time.Time
	Unit      string
}

// BoardResult is the outcome of parsing one board
type BoardResult struct {
	Rows     []domain.MarketPriceInput
	Skipped  int
	Warnings []string
}

// ParseBoard extracts price rows from the first HTML table whose header
// names a price column. Rows that cannot be parsed or break the
// min <= modal <= max ordering are skipped with a warning.
func ParseBoard(r io.Reader, defaults BoardDefaults) (*BoardResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	var (
		table   *goquery.Selection
		columns map[column]int
	)
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		cols := headerColumns(t)
		if _, ok := cols[colModal]; ok {
			table, columns = t, cols
			return false
		}
		return true
	})
	if table == nil {
		return nil, ErrNoPriceTable
	}

	// without a thead the first row is the header, whatever its cell tags
	headerInBody := table.Find("thead").Length() == 0

	res := &BoardResult{}
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 || (headerInBody && i == 0) {
			return
		}
		texts := make([]string, cells.Length())
		cells.Each(func(j int, td *goquery.Selection) {
			texts[j] = strings.TrimSpace(td.Text())
		})

		row, err := parseRow(texts, columns, defaults)
		if err != nil {
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d: %v", i, err))
			return
		}
		res.Rows = append(res.Rows, row)
	})
	return res, nil
}

func headerColumns(t *goquery.Selection) map[column]int {
	cols := make(map[column]int)
	header := t.Find("thead tr").First()
	if header.Length() == 0 {
		header = t.Find("tr").First()
	}
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(cell.Text()))
		for _, a := range headerAliases {
			if strings.Contains(text, a.fragment) {
				if _, taken := cols[a.col]; !taken {
					cols[a.col] = i
				}
				return
			}
		}
	})
	return cols
}

func parseRow(cells []string, cols map[column]int, defaults BoardDefaults) (domain.MarketPriceInput, error) {
	get := func(c column) string {
		idx, ok := cols[c]
		if !ok || idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}

	row := domain.MarketPriceInput{
		Commodity: get(colCommodity),
		Market:    get(colMarket),
		State:     get(colState),
		Variety:   get(colVariety),
		Unit:      normalizeUnit(get(colUnit)),
		PriceDate: defaults.Date,
	}
	if row.Commodity == "" {
		row.Commodity = defaults.Commodity
	}
	if row.Commodity == "" {
		return row, errors.New("missing commodity")
	}
	if row.Market == "" {
		return row, errors.New("missing market")
	}
	if row.Unit == "" {
		row.Unit = defaults.Unit
	}

	modal, err := parsePrice(get(colModal))
	if err != nil {
		return row, fmt.Errorf("modal price: %w", err)
	}
	row.ModalPrice = modal
	row.MinPrice, row.MaxPrice = modal, modal
	if s := get(colMin); s != "" {
		if row.MinPrice, err = parsePrice(s); err != nil {
			return row, fmt.Errorf("min price: %w", err)
		}
	}
	if s := get(colMax); s != "" {
		if row.MaxPrice, err = parsePrice(s); err != nil {
			return row, fmt.Errorf("max price: %w", err)
		}
	}
	if s := get(colArrival); s != "" {
		row.ArrivalQuantity, _ = parsePrice(s)
	}
	if s := get(colDate); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return row, err
		}
		row.PriceDate = d
	}
	if row.PriceDate.IsZero() {
		return row, errors.New("missing date")
	}
	if row.MinPrice > row.ModalPrice || row.ModalPrice > row.MaxPrice {
		return row, domain.ErrPriceOrder
	}
	return row, nil
}

func normalizeUnit(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "quintal"), strings.Contains(s, "qtl"):
		return "quintal"
	case strings.Contains(s, "tonne"), strings.Contains(s, "ton"):
		return "tonne"
	case strings.Contains(s, "kg"):
		return "kg"
	}
	return ""
}

func parsePrice(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "₹", "", "Rs.", "", "Rs", "", " ", "").Replace(s)
	if cleaned == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %q", s)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
