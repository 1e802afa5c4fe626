package planner

import (
	"strings"
	"time"

	"alcyxob/endurance-planner/internal/domain"
)

const (
	mediumLongMin = 55
	mediumLongMax = 80
	longSession   = 70
	bigRunDay     = 60
)

// WeekFacts is everything the rules need, computed once per validation.
type WeekFacts struct {
	Dates          [7]time.Time
	Sessions       [7][]ParsedSession
	Runs           [7][]ParsedSession
	TotalMinutes   int // every sport with a parseable duration
	RunMinutes     [7]int
	LongestRun     [7]int
	RunCount       int
	TimedRunCount  int
	ParseableRatio float64

	LongRunMinutes int
	LongRunDay     int // -1 when the week has no timed run
	LongRunRef     runRef

	HardDays     [7]bool
	HardDayCount int
	HardMinutes  int

	DurationHistogram map[int]int // run durations rounded to 5 minutes
	LongSessionCount  int
	DoubleDays        []int
	StridesCue        bool
	ShortEasyRuns     int
	MediumLongRuns    int
	UntimedRuns       []string
}

type runRef struct {
	day, idx int
}

// ComputeFacts reads a canonical week. Hardness and duration rules consider run sessions only.
// Items on the race date are not scored; the race entry is added by the materializer.
// When two runs tie for the longest, the one on longRunDay is the long run.
func ComputeFacts(content WeekContent, week domain.WeekMeta, longRunDay time.Weekday) WeekFacts {
	canonical := Canonicalize(content, week.StartDate)
	f := WeekFacts{
		Dates:             CanonicalDates(week.StartDate),
		LongRunDay:        -1,
		LongRunRef:        runRef{-1, -1},
		DurationHistogram: make(map[int]int),
	}
	raceIdx := -1
	if week.RaceDay != nil {
		race := DateOnly(*week.RaceDay)
		for d, date := range f.Dates {
			if date.Equal(race) {
				raceIdx = d
			}
		}
	}

	for d, day := range canonical {
		if d == raceIdx {
			continue
		}
		for _, raw := range day.Items {
			p := ParseSession(raw)
			if IsRestMarker(p) {
				continue
			}
			f.Sessions[d] = append(f.Sessions[d], p)
			f.TotalMinutes += p.Minutes()
			if p.Sport != domain.SportRun {
				continue
			}

			f.Runs[d] = append(f.Runs[d], p)
			f.RunCount++
			if p.DurationMinutes == nil {
				f.UntimedRuns = append(f.UntimedRuns, day.Date+" "+p.Title)
				continue
			}
			m := *p.DurationMinutes
			f.TimedRunCount++
			f.RunMinutes[d] += m
			f.LongestRun[d] = max(f.LongestRun[d], m)
			f.DurationHistogram[roundTo5(m)]++
			if m >= longSession {
				f.LongSessionCount++
			}
			onLongRunDay := f.Dates[d].Weekday() == longRunDay
			if m > f.LongRunMinutes || (m == f.LongRunMinutes && onLongRunDay && f.LongRunDay >= 0 && f.Dates[f.LongRunDay].Weekday() != longRunDay) {
				f.LongRunMinutes = m
				f.LongRunDay = d
				f.LongRunRef = runRef{d, len(f.Runs[d]) - 1}
			}
		}
	}

	f.ParseableRatio = 1
	if f.RunCount > 0 {
		f.ParseableRatio = float64(f.TimedRunCount) / float64(f.RunCount)
	}

	for d := range f.Runs {
		if len(f.Runs[d]) > 1 {
			f.DoubleDays = append(f.DoubleDays, d)
		}
		for i, r := range f.Runs[d] {
			if r.IsHard {
				f.HardDays[d] = true
				f.HardMinutes += r.Minutes()
				continue
			}
			if hasStridesCue(r) {
				f.StridesCue = true
			}
			if r.DurationMinutes == nil {
				continue
			}
			m := *r.DurationMinutes
			if m < mediumLongMin {
				f.ShortEasyRuns++
			}
			isLong := f.LongRunRef.day == d && f.LongRunRef.idx == i
			if !isLong && m >= mediumLongMin && m <= mediumLongMax {
				f.MediumLongRuns++
			}
		}
		if f.HardDays[d] {
			f.HardDayCount++
		}
	}
	return f
}

func hasStridesCue(p ParsedSession) bool {
	text := strings.ToLower(p.Title + " " + p.Details)
	return strings.Contains(text, "stride") || strings.Contains(text, "pickups") || strings.Contains(text, "pick-ups")
}

func roundTo5(m int) int {
	return (m + 2) / 5 * 5
}
