package planner

import (
	"strings"
	"time"

	"alcyxob/endurance-planner/internal/domain"
)

const missingDetailsSuffix = " — Details"

// strengthDays are the only weekdays strength work may sit on during Base and Build.
var strengthDays = map[time.Weekday]bool{time.Tuesday: true, time.Thursday: true}

// ApplyPlacementGuard relocates bricks outside the athlete's brick days and, in Base/Build,
// strength sessions outside Tuesday/Thursday. Sessions are never dropped and never leave
// the seven canonical dates. The input is not modified.
func ApplyPlacementGuard(content WeekContent, week domain.WeekMeta, profile domain.AthleteProfile) WeekContent {
	out := Canonicalize(content, week.StartDate)
	dates := CanonicalDates(week.StartDate)

	allowedBrick := make(map[time.Weekday]bool)
	for _, wd := range profile.AllowedBrickDays() {
		allowedBrick[wd] = true
	}
	confineStrength := week.Phase == domain.PhaseBase || week.Phase == domain.PhaseBuild

	type move struct {
		to   int
		item string
	}
	var moves []move

	for i := range out {
		wd := dates[i].Weekday()
		kept := out[i].Items[:0]
		for _, item := range out[i].Items {
			target := i
			switch ParseSession(item).Sport {
			case domain.SportBrick:
				if !allowedBrick[wd] {
					target = nextAllowedDay(i, dates, allowedBrick)
				}
			case domain.SportStrength:
				if confineStrength && !strengthDays[wd] {
					target = weekdayIndex(time.Tuesday)
				}
			}
			if target != i {
				moves = append(moves, move{to: target, item: withDetails(item)})
				continue
			}
			kept = append(kept, item)
		}
		out[i].Items = kept
	}

	for _, m := range moves {
		out[m.to].Items = append(out[m.to].Items, m.item)
	}
	return out
}

// nextAllowedDay finds the smallest positive offset from day i to an allowed weekday,
// wrapping inside the same canonical week.
func nextAllowedDay(i int, dates [7]time.Time, allowed map[time.Weekday]bool) int {
	for offset := 1; offset < 7; offset++ {
		j := (i + offset) % 7
		if allowed[dates[j].Weekday()] {
			return j
		}
	}
	return i
}

func withDetails(item string) string {
	for _, sep := range titleSeparators {
		if strings.Contains(item, sep) {
			return item
		}
	}
	return strings.TrimSpace(item) + missingDetailsSuffix
}
