package planner

import (
	"fmt"
	"math"
	"time"

	"alcyxob/endurance-planner/internal/domain"
)

// baseShare is the fraction of the non-peak, non-taper weeks given to Base.
const baseShare = 0.6

// BuildMacrocycle partitions totalWeeks into Base/Build/Peak/Taper weeks starting from the
// Monday of start. The final week is always Taper and carries the race day.
func BuildMacrocycle(totalWeeks int, start, raceDate time.Time) []domain.WeekMeta {
	if totalWeeks < 1 {
		totalWeeks = 1
	}

	peak := 0
	switch {
	case totalWeeks >= 10:
		peak = 2
	case totalWeeks >= 8:
		peak = 1
	}
	taper := 1
	if totalWeeks >= 10 {
		taper = 2
	}
	remaining := totalWeeks - peak - taper
	if remaining < 0 {
		remaining = 0
	}
	base := int(math.Round(float64(remaining) * baseShare))
	build := remaining - base

	monday := MondayOf(start)
	weeks := make([]domain.WeekMeta, totalWeeks)
	for i := range weeks {
		var phase domain.Phase
		switch {
		case i < base:
			phase = domain.PhaseBase
		case i < base+build:
			phase = domain.PhaseBuild
		case i < base+build+peak:
			phase = domain.PhasePeak
		default:
			phase = domain.PhaseTaper
		}

		deload := false
		if phase == domain.PhaseBase || phase == domain.PhaseBuild {
			deload = i > 0 && (i+1)%4 == 0
		}

		weeks[i] = domain.WeekMeta{
			Index:     i,
			Label:     fmt.Sprintf("Week %d", i+1),
			Phase:     phase,
			Deload:    deload,
			StartDate: monday.AddDate(0, 0, 7*i),
		}
	}

	last := &weeks[totalWeeks-1]
	last.Phase = domain.PhaseTaper
	last.Deload = false
	last.RaceDay = raceDayIn(*last, raceDate)

	return weeks
}

// raceDayIn places the race on its real calendar date when it falls inside the week,
// otherwise on the week's Sunday.
func raceDayIn(week domain.WeekMeta, raceDate time.Time) *time.Time {
	dates := CanonicalDates(week.StartDate)
	day := dates[6]
	if !raceDate.IsZero() {
		rd := DateOnly(raceDate)
		if !rd.Before(dates[0]) && !rd.After(dates[6]) {
			day = rd
		}
	}
	return &day
}
