package compliance

import (
	"math"
	"time"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
)

const (
	DefaultCompliance = 0.55
	proximityWindow   = 42.0 // days
	proximityWeight   = 0.35
)

var trendWeights = [4]float64{0.4, 0.3, 0.2, 0.1}

type Components struct {
	Compliance          float64 `json:"compliance"`
	Trend               float64 `json:"trend"`
	Recency             float64 `json:"recency"`
	ProximityMultiplier float64 `json:"proximityMultiplier"`
}

type ReadinessResult struct {
	Score      int        `json:"score"`
	Label      string     `json:"label"`
	Components Components `json:"components"`
	DaysToRace *int       `json:"daysToRace,omitempty"`
}

// Engine is stateless apart from its tuning; it is safe for concurrent use.
type Engine struct {
	defaultCompliance float64
}

// NewEngine uses DefaultCompliance when defaultCompliance is outside [0,1].
func NewEngine(defaultCompliance float64) *Engine {
	if defaultCompliance < 0 || defaultCompliance > 1 || math.IsNaN(defaultCompliance) {
		defaultCompliance = DefaultCompliance
	}
	return &Engine{defaultCompliance: defaultCompliance}
}

// Ratio is completed/planned over [from, to] (inclusive ISO dates). ok is false when nothing was planned.
func (e *Engine) Ratio(planned []domain.Session, activities []domain.CompletedActivity, from, to string) (float64, bool) {
	m := newMatcher(activities)
	total, done := 0, 0
	for _, s := range planned {
		if s.Date < from || s.Date > to {
			continue
		}
		total++
		if m.completed(s) {
			done++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(done) / float64(total), true
}

func (e *Engine) ratioOrDefault(planned []domain.Session, activities []domain.CompletedActivity, from, to string) float64 {
	if r, ok := e.Ratio(planned, activities, from, to); ok {
		return r
	}
	return e.defaultCompliance
}

// Readiness blends plan-to-date compliance, a four week weighted trend and the last seven
// days, then scales by race proximity. A zero raceDate disables the proximity adjustment.
func (e *Engine) Readiness(planned []domain.Session, activities []domain.CompletedActivity, now, raceDate time.Time) ReadinessResult {
	today := planner.DateOnly(now)
	todayKey := today.Format(planner.DateLayout)

	compliance := e.ratioOrDefault(planned, activities, "", todayKey)
	trend := e.trend(planned, activities, today)
	recency := e.ratioOrDefault(planned, activities, today.AddDate(0, 0, -6).Format(planner.DateLayout), todayKey)

	res := ReadinessResult{}
	pressure := 0.0
	if !raceDate.IsZero() {
		days := int(planner.DateOnly(raceDate).Sub(today).Hours() / 24)
		res.DaysToRace = &days
		pressure = clamp((proximityWindow-float64(days))/proximityWindow, 0, 1)
	}
	multiplier := 1 - pressure*(1-compliance)*proximityWeight

	raw := 100 * (0.5*compliance + 0.25*trend + 0.25*recency) * multiplier
	res.Score = int(clamp(math.Round(raw), 0, 100))
	res.Label = Label(res.Score)
	res.Components = Components{
		Compliance:          compliance,
		Trend:               trend,
		Recency:             recency,
		ProximityMultiplier: multiplier,
	}
	return res
}

// trend weighs the weekly ratios of the current and three previous Monday-based weeks,
// most recent first, normalized over the weeks that had anything planned.
func (e *Engine) trend(planned []domain.Session, activities []domain.CompletedActivity, today time.Time) float64 {
	monday := planner.MondayOf(today)
	sum, weights := 0.0, 0.0
	for k, w := range trendWeights {
		start := monday.AddDate(0, 0, -7*k)
		end := start.AddDate(0, 0, 6)
		if end.After(today) {
			end = today
		}
		r, ok := e.Ratio(planned, activities, start.Format(planner.DateLayout), end.Format(planner.DateLayout))
		if !ok {
			continue
		}
		sum += w * r
		weights += w
	}
	if weights == 0 {
		return e.defaultCompliance
	}
	return sum / weights
}

func Label(score int) string {
	switch {
	case score >= 85:
		return "On track"
	case score >= 65:
		return "Mostly on track"
	case score >= 45:
		return "Needs consistency"
	default:
		return "At risk"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
