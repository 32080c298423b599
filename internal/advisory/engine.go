package advisory

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
)

// Section weights of the overall score
const (
	weightWeather    = 0.2
	weightCrop       = 0.25
	weightIrrigation = 0.2
	weightFertilizer = 0.1
	weightPest       = 0.15
	weightMarket     = 0.1
)

// Input is everything the engine knows about a farm when it is asked for advice
type Input struct {
	Farm        domain.Farm
	Crop        *domain.Crop
	Weather     *domain.WeatherObservation
	Forecast    []domain.DailyForecast
	Suitability *domain.CropSuitability
	Moisture    *domain.MoistureAnalysis
	Trend       *domain.TrendAnalysis
}

// Engine produces comprehensive advice. It is a placeholder for a trained
// model: section scores are drawn from plausible ranges, narrowed by the
// real observations in Input when they are present. Each call draws from its
// own stream keyed on the seed, the farm and the UTC day, so the same seed
// and inputs give the same advice on a given day.
type Engine struct {
	seed uint64
	now  func() time.Time
}

// NewEngine creates an engine seeded with seed
func NewEngine(seed int64) *Engine {
	return NewEngineWithClock(seed, time.Now)
}

// NewEngineWithClock creates an engine with an explicit clock
func NewEngineWithClock(seed int64, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{seed: uint64(seed), now: now}
}

// source derives the random stream of one generation
func (e *Engine) source(farmID uuid.UUID, day time.Time) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write(farmID[:])
	_, _ = h.Write([]byte(day.Format(time.DateOnly)))
	return rand.New(rand.NewPCG(e.seed^h.Sum64(), e.seed^0x5eed))
}

// generation holds the draws of a single Generate call
type generation struct {
	rnd *rand.Rand
}

// between draws uniformly from [lo, hi)
func (g *generation) between(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

// jitter perturbs v by up to ±spread and clamps to 0..100
func (g *generation) jitter(v, spread float64) float64 {
	return clampScore(v + g.between(-spread, spread))
}

// Generate builds advice for the input
func (e *Engine) Generate(in Input) *domain.ComprehensiveAdvice {
	now := e.now().UTC()
	g := &generation{rnd: e.source(in.Farm.ID, now)}

	advice := &domain.ComprehensiveAdvice{
		FarmID:     in.Farm.ID,
		Weather:    g.weatherSection(in),
		Crop:       g.cropSection(in),
		Irrigation: g.irrigationSection(in),
		Fertilizer: g.fertilizerSection(in),
		Pest:       g.pestSection(in),
		Market:     g.marketSection(in),
	}
	if in.Crop != nil {
		advice.CropName = in.Crop.Name
	}

	overall := advice.Weather.Score*weightWeather +
		advice.Crop.Score*weightCrop +
		advice.Irrigation.Score*weightIrrigation +
		advice.Fertilizer.Score*weightFertilizer +
		advice.Pest.Score*weightPest +
		advice.Market.Score*weightMarket
	advice.OverallScore = round1(overall)

	// every real observation makes the answer more trustworthy
	confidence := g.between(0.6, 0.8)
	for _, known := range []bool{in.Weather != nil, in.Suitability != nil, in.Moisture != nil, in.Trend != nil} {
		if known {
			confidence += 0.04
		}
	}
	advice.Confidence = round2(math.Min(confidence, 0.95))

	advice.Recommendations = g.recommendations(advice)
	advice.GeneratedAt = now
	return advice
}

func (g *generation) weatherSection(in Input) domain.AdviceSection {
	if in.Weather == nil {
		score := round1(g.between(60, 90))
		return domain.AdviceSection{Score: score, Status: statusFor(score), Summary: "No live observation, seasonal conditions assumed"}
	}

	w := in.Weather
	base := 100 - math.Abs(w.Temperature-25)*3
	if w.WindSpeed > 10 {
		base -= 10
	}
	score := round1(g.jitter(base, 5))

	sec := domain.AdviceSection{
		Score:   score,
		Status:  statusFor(score),
		Summary: fmt.Sprintf("%.0f°C, %.0f%% humidity, %s", w.Temperature, w.Humidity, w.Condition),
	}
	if w.Temperature >= 35 {
		sec.Actions = append(sec.Actions, "Irrigate in the early morning to limit heat stress")
	}
	if w.Temperature <= 4 {
		sec.Actions = append(sec.Actions, "Cover nurseries overnight against frost")
	}
	if w.WindSpeed > 10 {
		sec.Actions = append(sec.Actions, "Postpone spraying until wind drops")
	}
	return sec
}

func (g *generation) cropSection(in Input) domain.AdviceSection {
	if in.Suitability != nil {
		score := round1(g.jitter(in.Suitability.Score, 3))
		sec := domain.AdviceSection{
			Score:   score,
			Status:  statusFor(score),
			Summary: fmt.Sprintf("%s suitability %.0f/100", in.Suitability.CropName, in.Suitability.Score),
			Actions: append([]string(nil), in.Suitability.Notes...),
		}
		return sec
	}
	score := round1(g.between(55, 95))
	summary := "Crop condition estimated from regional averages"
	if in.Crop != nil {
		summary = fmt.Sprintf("%s condition estimated from regional averages", in.Crop.Name)
	}
	return domain.AdviceSection{Score: score, Status: statusFor(score), Summary: summary}
}

func (g *generation) irrigationSection(in Input) domain.AdviceSection {
	if in.Moisture != nil {
		var base float64
		switch in.Moisture.Status {
		case domain.MoistureCritical:
			base = 20
		case domain.MoistureLow:
			base = 45
		case domain.MoistureOptimal:
			base = 85
		case domain.MoistureHigh:
			base = 70
		default:
			base = 40
		}
		score := round1(g.jitter(base, 5))
		return domain.AdviceSection{
			Score:   score,
			Status:  statusFor(score),
			Summary: fmt.Sprintf("Soil moisture %.1f%% (%s)", in.Moisture.Current, in.Moisture.Status),
			Actions: []string{in.Moisture.Recommendation},
		}
	}

	rain := recentRain(in)
	// dry spells push the need for irrigation up and the score down
	lo, hi := 60.0, 90.0
	if rain < 2 && in.Farm.IrrigationType != domain.IrrigationRainfed {
		lo, hi = 30, 60
	}
	score := round1(g.between(lo, hi))
	sec := domain.AdviceSection{
		Score:   score,
		Status:  statusFor(score),
		Summary: fmt.Sprintf("%.1f mm rain expected or recorded", rain),
	}
	if score < 60 {
		sec.Actions = []string{fmt.Sprintf("Plan %s irrigation within 48 hours", in.Farm.IrrigationType)}
	}
	return sec
}

func (g *generation) fertilizerSection(in Input) domain.AdviceSection {
	score := round1(g.between(50, 90))
	sec := domain.AdviceSection{Score: score, Status: statusFor(score), Summary: "Nutrient status estimated, soil test recommended"}
	if score < 65 {
		sec.Actions = []string{"Apply split nitrogen dose", "Get a soil test before the next sowing"}
	}
	return sec
}

func (g *generation) pestSection(in Input) domain.AdviceSection {
	lo, hi := 65.0, 92.0
	if in.Weather != nil && in.Weather.Humidity > 80 {
		lo, hi = 40, 65
	}
	score := round1(g.between(lo, hi))
	sec := domain.AdviceSection{Score: score, Status: statusFor(score), Summary: "Pest pressure estimated from humidity and season"}
	if score < 60 {
		sec.Actions = []string{"Scout fields twice a week", "Set pheromone traps"}
	}
	return sec
}

func (g *generation) marketSection(in Input) domain.AdviceSection {
	if in.Trend != nil {
		var base float64
		switch in.Trend.Direction {
		case domain.TrendUp:
			base = 80
		case domain.TrendDown:
			base = 45
		default:
			base = 65
		}
		score := round1(g.jitter(base, 5))
		return domain.AdviceSection{
			Score:   score,
			Status:  statusFor(score),
			Summary: fmt.Sprintf("%s prices %s, signal %s", in.Trend.Commodity, in.Trend.Direction, in.Trend.Signal),
			Actions: append([]string(nil), in.Trend.Reasons...),
		}
	}
	score := round1(g.between(50, 85))
	return domain.AdviceSection{Score: score, Status: statusFor(score), Summary: "No recent price history"}
}

func (g *generation) recommendations(a *domain.ComprehensiveAdvice) []domain.Recommendation {
	sections := []struct {
		category domain.RecommendationCategory
		section  domain.AdviceSection
		title    string
	}{
		{domain.CategoryWeather, a.Weather, "Adapt field work to the weather"},
		{domain.CategoryCrop, a.Crop, "Review crop choice for this farm"},
		{domain.CategoryIrrigation, a.Irrigation, "Adjust irrigation"},
		{domain.CategoryFertilizer, a.Fertilizer, "Correct nutrient supply"},
		{domain.CategoryPest, a.Pest, "Increase pest monitoring"},
		{domain.CategoryMarket, a.Market, "Plan the sale of produce"},
	}

	out := make([]domain.Recommendation, 0, len(sections))
	for _, s := range sections {
		if s.section.Score >= 75 && len(s.section.Actions) == 0 {
			continue
		}
		out = append(out, domain.Recommendation{
			Category:    s.category,
			Title:       s.title,
			Description: s.section.Summary,
			Priority:    priorityFor(s.section.Score),
			Confidence:  round2(a.Confidence * g.between(0.9, 1.0)),
			ActionItems: s.section.Actions,
		})
	}
	return out
}

func recentRain(in Input) float64 {
	var rain float64
	if in.Weather != nil {
		rain += in.Weather.Rainfall
	}
	for i, d := range in.Forecast {
		if i >= 3 {
			break
		}
		rain += d.Rainfall
	}
	return rain
}

func statusFor(score float64) string {
	switch {
	case score >= 80:
		return "good"
	case score >= 60:
		return "fair"
	case score >= 40:
		return "attention"
	}
	return "critical"
}

func priorityFor(score float64) domain.Priority {
	switch {
	case score < 40:
		return domain.PriorityCritical
	case score < 60:
		return domain.PriorityHigh
	case score < 75:
		return domain.PriorityMedium
	}
	return domain.PriorityLow
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
