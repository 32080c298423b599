package advisory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// DefaultLimit caps merged recommendation lists
const DefaultLimit = 10

// Aggregator merges recommendations from several analyses into one ranked list
type Aggregator struct {
	limit int
}

// NewAggregator creates an aggregator returning at most limit entries
func NewAggregator(limit int) *Aggregator {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Aggregator{limit: limit}
}

// Merge de-duplicates by title (case-insensitive), keeping the more urgent
// then more confident copy, and sorts by priority then confidence
func (a *Aggregator) Merge(sources ...[]domain.Recommendation) []domain.Recommendation {
	byTitle := make(map[string]int)
	merged := make([]domain.Recommendation, 0)

	for _, src := range sources {
		for _, r := range src {
			key := strings.ToLower(strings.TrimSpace(r.Title))
			if key == "" {
				continue
			}
			if i, ok := byTitle[key]; ok {
				if outranks(r, merged[i]) {
					merged[i] = r
				}
				continue
			}
			byTitle[key] = len(merged)
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return outranks(merged[i], merged[j])
	})
	if len(merged) > a.limit {
		merged = merged[:a.limit]
	}
	return merged
}

func outranks(x, y domain.Recommendation) bool {
	if x.Priority.Rank() != y.Priority.Rank() {
		return x.Priority.Rank() > y.Priority.Rank()
	}
	return x.Confidence > y.Confidence
}

// FromSuitability recommends the best suitable crops of a ranking
func FromSuitability(ranked []domain.CropSuitability, n int) []domain.Recommendation {
	if n <= 0 {
		return nil
	}
	out := make([]domain.Recommendation, 0, n)
	for _, s := range ranked {
		if len(out) >= n {
			break
		}
		if !s.Suitable {
			continue
		}
		priority := domain.PriorityMedium
		if s.Score >= 85 {
			priority = domain.PriorityHigh
		}
		out = append(out, domain.Recommendation{
			Category:    domain.CategoryCrop,
			Title:       fmt.Sprintf("Consider growing %s", s.CropName),
			Description: fmt.Sprintf("%s scores %.0f/100 for this site", s.CropName, s.Score),
			Priority:    priority,
			Confidence:  round2(s.Score / 100),
			ActionItems: s.Notes,
		})
	}
	return out
}

// FromMoisture turns moisture alerts into irrigation recommendations
func FromMoisture(m *domain.MoistureAnalysis) []domain.Recommendation {
	if m == nil {
		return nil
	}
	var priority domain.Priority
	switch m.Status {
	case domain.MoistureCritical:
		priority = domain.PriorityCritical
	case domain.MoistureLow, domain.MoistureSaturated:
		priority = domain.PriorityHigh
	default:
		if len(m.Alerts) == 0 {
			return nil
		}
		priority = domain.PriorityMedium
	}

	actions := make([]string, 0, len(m.Alerts))
	for _, al := range m.Alerts {
		actions = append(actions, al.Message)
	}
	return []domain.Recommendation{{
		Category:    domain.CategoryIrrigation,
		Title:       m.Recommendation,
		Description: fmt.Sprintf("Soil moisture is %s at %.1f%%", m.Status, m.Current),
		Priority:    priority,
		Confidence:  0.9,
		ActionItems: actions,
	}}
}

// FromTrend turns a buy or sell signal into a market recommendation
func FromTrend(t *domain.TrendAnalysis) []domain.Recommendation {
	if t == nil || t.Signal == domain.SignalHold {
		return nil
	}
	title := fmt.Sprintf("Hold %s stock for better prices", t.Commodity)
	if t.Signal == domain.SignalSell {
		title = fmt.Sprintf("Sell %s while prices are high", t.Commodity)
	}
	return []domain.Recommendation{{
		Category:    domain.CategoryMarket,
		Title:       title,
		Description: fmt.Sprintf("%s prices are %s (%.1f%% over the period)", t.Commodity, t.Direction, t.PercentChange),
		Priority:    domain.PriorityMedium,
		Confidence:  0.7,
		ActionItems: t.Reasons,
	}}
}

// FromWeatherAlerts turns forecast hazards into weather recommendations
func FromWeatherAlerts(alerts []domain.WeatherAlert) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(alerts))
	for _, al := range alerts {
		priority := domain.PriorityMedium
		switch al.Severity {
		case domain.SeverityCritical:
			priority = domain.PriorityCritical
		case domain.SeverityHigh:
			priority = domain.PriorityHigh
		}
		out = append(out, domain.Recommendation{
			Category:    domain.CategoryWeather,
			Title:       al.Title,
			Description: al.Message,
			Priority:    priority,
			Confidence:  0.8,
		})
	}
	return out
}
