package compliance

import (
	"math"
	"time"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
)

type DayStatus string

const (
	DayRest      DayStatus = "rest"
	DayCompleted DayStatus = "completed"
	DayPartial   DayStatus = "partial"
	DayMissed    DayStatus = "missed"
	DayUpcoming  DayStatus = "upcoming"
	DayExtra     DayStatus = "extra" // trained without anything planned
)

// WeeklyComparison is one calendar day of planned versus actual training.
type WeeklyComparison struct {
	Date           string               `json:"date"`
	Planned        map[domain.Sport]int `json:"planned"`
	PlannedMinutes int                  `json:"plannedMinutes"`
	Completed      int                  `json:"completed"`
	ActualMinutes  float64              `json:"actualMinutes"`
	PaceDelta      *float64             `json:"paceDeltaSecKm,omitempty"`   // avg run pace minus threshold pace, negative is faster
	PowerDelta     *float64             `json:"powerDeltaWatts,omitempty"` // avg bike power minus FTP
	Status         DayStatus            `json:"status"`
}

// CompareWeek reconciles the Monday..Sunday week containing weekStart.
func (e *Engine) CompareWeek(weekStart time.Time, planned []domain.Session, activities []domain.CompletedActivity, thresholds domain.Thresholds, now time.Time) []WeeklyComparison {
	today := planner.DateOnly(now).Format(planner.DateLayout)
	keys := planner.CanonicalDateKeys(weekStart)

	plannedByDate := make(map[string][]domain.Session)
	for _, s := range planned {
		plannedByDate[s.Date] = append(plannedByDate[s.Date], s)
	}
	actualByDate := make(map[string][]domain.CompletedActivity)
	for _, a := range activities {
		actualByDate[a.Date] = append(actualByDate[a.Date], a)
	}

	out := make([]WeeklyComparison, 0, len(keys))
	for _, date := range keys {
		day := WeeklyComparison{Date: date, Planned: make(map[domain.Sport]int)}
		sessions := plannedByDate[date]
		acts := actualByDate[date]

		m := newMatcher(acts)
		for _, s := range sessions {
			day.Planned[s.Sport]++
			if s.StructuredWorkout != nil {
				day.PlannedMinutes += s.StructuredWorkout.DurationMinutes
			}
			if m.completed(s) {
				day.Completed++
			}
		}
		for _, a := range acts {
			day.ActualMinutes += a.DurationMinutes
		}
		day.PaceDelta = averageDelta(acts, domain.SportRun, thresholds.RunThresholdPaceSecK, func(a domain.CompletedActivity) *float64 { return a.AvgPaceSecKm })
		day.PowerDelta = averageDelta(acts, domain.SportBike, thresholds.BikeFTPWatts, func(a domain.CompletedActivity) *float64 { return a.AvgPowerWatts })
		day.Status = dayStatus(len(sessions), day.Completed, len(acts), date, today)

		out = append(out, day)
	}
	return out
}

func dayStatus(planned, completed, actual int, date, today string) DayStatus {
	switch {
	case planned == 0 && actual == 0:
		return DayRest
	case planned == 0:
		return DayExtra
	case completed == planned:
		return DayCompleted
	case completed > 0:
		return DayPartial
	case date >= today:
		return DayUpcoming
	default:
		return DayMissed
	}
}

func averageDelta(acts []domain.CompletedActivity, sport domain.Sport, threshold *float64, metric func(domain.CompletedActivity) *float64) *float64 {
	if threshold == nil {
		return nil
	}
	sum, n := 0.0, 0
	for _, a := range acts {
		v := metric(a)
		if a.Sport != sport || v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	d := math.Round((sum/float64(n)-*threshold)*10) / 10
	return &d
}
