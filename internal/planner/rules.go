package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"alcyxob/endurance-planner/internal/domain"
)

// Rule is one independent check over the computed week facts. Check returns zero or more
// violation messages.
type Rule struct {
	Name string
	// NeedsDurations marks rules that are skipped when too few runs carry a duration.
	NeedsDurations bool
	Check          func(rc *RuleContext) []string
}

// RuleContext bundles the inputs shared by every rule.
type RuleContext struct {
	Facts   WeekFacts
	Targets domain.WeekTargets
	Week    domain.WeekMeta
	Profile domain.AthleteProfile
	Prev    domain.WeekSummary
}

// TrueBeginner relaxes the medium-long requirement for athletes who are just starting out.
func (rc *RuleContext) TrueBeginner() bool {
	return rc.Profile.Experience == domain.ExperienceBeginner && rc.Prev.TotalMinutes < 150
}

func (rc *RuleContext) day(d int) string {
	return rc.Facts.Dates[d].Format(DateLayout)
}

// DefaultRules is the full rule set used for every generated week.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "weekly-total", NeedsDurations: true, Check: checkWeeklyTotal},
		{Name: "long-run-max", Check: checkLongRunMax},
		{Name: "long-run-target", NeedsDurations: true, Check: checkLongRunTarget},
		{Name: "long-run-floor", NeedsDurations: true, Check: checkLongRunFloor},
		{Name: "long-run-share", NeedsDurations: true, Check: checkLongRunShare},
		{Name: "quality-count", Check: checkQualityCount},
		{Name: "back-to-back-hard", Check: checkBackToBackHard},
		{Name: "post-hard-recovery", Check: checkPostHardRecovery},
		{Name: "hard-minutes", NeedsDurations: true, Check: checkHardMinutes},
		{Name: "session-ceiling", Check: checkSessionCeiling},
		{Name: "long-run-day", Check: checkLongRunDay},
		{Name: "quality-present", Check: checkQualityPresent},
		{Name: "medium-long", Check: checkMediumLong},
		{Name: "short-easy-runs", Check: checkShortEasyRuns},
		{Name: "strides", Check: checkStrides},
		{Name: "long-sessions", Check: checkLongSessions},
		{Name: "consecutive-long-days", Check: checkConsecutiveLongDays},
		{Name: "duration-repeats", Check: checkDurationRepeats},
		{Name: "doubles", Check: checkDoubles},
		{Name: "deload", Check: checkDeload},
	}
}

func checkWeeklyTotal(rc *RuleContext) []string {
	target := rc.Targets.WeeklyMinutes
	if target <= 0 {
		return nil
	}
	tol := int(math.Round(float64(target) * 0.05))
	lo, hi := target-tol, target+tol
	if total := rc.Facts.TotalMinutes; total < lo || total > hi {
		return []string{fmt.Sprintf("Weekly total %d min outside target %d min ±5%% (%d-%d)", total, target, lo, hi)}
	}
	return nil
}

func checkLongRunMax(rc *RuleContext) []string {
	if rc.Facts.LongRunMinutes > rc.Targets.LongRunMax && rc.Targets.LongRunMax > 0 {
		return []string{fmt.Sprintf("Long run %d min exceeds maximum %d min", rc.Facts.LongRunMinutes, rc.Targets.LongRunMax)}
	}
	return nil
}

func checkLongRunTarget(rc *RuleContext) []string {
	target := rc.Targets.LongRunMinutes
	if target <= 0 {
		return nil
	}
	tol := math.Max(8, float64(target)*0.12)
	if diff := math.Abs(float64(rc.Facts.LongRunMinutes - target)); diff > tol {
		return []string{fmt.Sprintf("Long run %d min not within ±%.0f min of target %d min", rc.Facts.LongRunMinutes, tol, target)}
	}
	return nil
}

func checkLongRunFloor(rc *RuleContext) []string {
	if floor := rc.Targets.LongRunMin; floor > 0 && rc.Facts.LongRunMinutes < floor {
		return []string{fmt.Sprintf("Long run %d min below minimum %d min", rc.Facts.LongRunMinutes, floor)}
	}
	return nil
}

func checkLongRunShare(rc *RuleContext) []string {
	total := rc.Facts.TotalMinutes
	if total <= 0 || rc.Facts.LongRunMinutes == 0 {
		return nil
	}
	limit := math.Max(defaultShareCeiling, rc.Targets.LongRunShareCeiling)
	share := float64(rc.Facts.LongRunMinutes) / float64(total)
	if share > limit+1e-9 {
		return []string{fmt.Sprintf("Long run is %.0f%% of weekly total (max %.0f%%)", share*100, limit*100)}
	}
	return nil
}

func checkQualityCount(rc *RuleContext) []string {
	if rc.Facts.HardDayCount > rc.Targets.QualityDays {
		return []string{fmt.Sprintf("%d hard run days, allowed %d", rc.Facts.HardDayCount, rc.Targets.QualityDays)}
	}
	return nil
}

func checkBackToBackHard(rc *RuleContext) []string {
	var errs []string
	for d := 1; d < 7; d++ {
		if rc.Facts.HardDays[d-1] && rc.Facts.HardDays[d] {
			errs = append(errs, fmt.Sprintf("Back-to-back hard run days: %s and %s", rc.day(d-1), rc.day(d)))
		}
	}
	return errs
}

func checkPostHardRecovery(rc *RuleContext) []string {
	var errs []string
	for d := 0; d < 6; d++ {
		if !rc.Facts.HardDays[d] || rc.Facts.HardDays[d+1] {
			continue
		}
		if m := rc.Facts.RunMinutes[d+1]; m >= bigRunDay {
			errs = append(errs, fmt.Sprintf("Day after hard session %s must be easy: %s has %d run min (max %d)", rc.day(d), rc.day(d+1), m, bigRunDay-1))
		}
	}
	return errs
}

func checkHardMinutes(rc *RuleContext) []string {
	if limit := rc.Targets.MaxQualityMinutes; rc.Facts.HardMinutes > limit {
		return []string{fmt.Sprintf("Hard session minutes %d exceed %d", rc.Facts.HardMinutes, limit)}
	}
	return nil
}

func checkSessionCeiling(rc *RuleContext) []string {
	ceiling := rc.Targets.MaxSessionMinutes
	if ceiling <= 0 {
		return nil
	}
	var errs []string
	for d, runs := range rc.Facts.Runs {
		for _, r := range runs {
			if r.Minutes() > ceiling {
				errs = append(errs, fmt.Sprintf("Run on %s is %d min, above the %d min ceiling", rc.day(d), r.Minutes(), ceiling))
			}
		}
	}
	return errs
}

// checkLongRunDay does not apply in race week: the race takes the long-run slot.
func checkLongRunDay(rc *RuleContext) []string {
	d := rc.Facts.LongRunDay
	if d < 0 || rc.Week.RaceDay != nil {
		return nil
	}
	if got := rc.Facts.Dates[d].Weekday(); got != rc.Targets.LongRunDay {
		return []string{fmt.Sprintf("Long run is on %s (%s), expected %s", got, rc.day(d), rc.Targets.LongRunDay)}
	}
	return nil
}

func checkQualityPresent(rc *RuleContext) []string {
	if rc.Targets.QualityDays >= 1 && rc.Facts.HardDayCount == 0 {
		return []string{"No quality session; include at least one tempo, threshold, interval or hill run"}
	}
	return nil
}

func checkMediumLong(rc *RuleContext) []string {
	if rc.Profile.RaceFamily != domain.RaceMarathon || rc.TrueBeginner() || rc.Week.Phase == domain.PhaseTaper || rc.Week.RaceDay != nil {
		return nil
	}
	if rc.Facts.MediumLongRuns == 0 {
		return []string{fmt.Sprintf("Missing medium-long aerobic run (%d-%d min)", mediumLongMin, mediumLongMax)}
	}
	return nil
}

func checkShortEasyRuns(rc *RuleContext) []string {
	lo, hi := 2, 3
	if rc.TrueBeginner() {
		hi = 4
	}
	if n := rc.Facts.ShortEasyRuns; n < lo || n > hi {
		return []string{fmt.Sprintf("%d short easy runs (<%d min), expected %d-%d", n, mediumLongMin, lo, hi)}
	}
	return nil
}

func checkStrides(rc *RuleContext) []string {
	if rc.Facts.RunCount > 0 && !rc.Facts.StridesCue {
		return []string{"No easy run includes strides"}
	}
	return nil
}

func checkLongSessions(rc *RuleContext) []string {
	exempt := rc.Profile.Experience == domain.ExperienceAdvanced &&
		rc.Week.Phase == domain.PhasePeak &&
		rc.Prev.TotalMinutes >= 320
	if !exempt && rc.Facts.LongSessionCount > 2 {
		return []string{fmt.Sprintf("%d runs of %d+ min, allowed 2", rc.Facts.LongSessionCount, longSession)}
	}
	return nil
}

func checkConsecutiveLongDays(rc *RuleContext) []string {
	streak := 0
	for d := 0; d < 7; d++ {
		if rc.Facts.LongestRun[d] >= bigRunDay {
			streak++
			if streak == 3 {
				return []string{fmt.Sprintf("More than 2 consecutive days with %d+ min runs ending %s", bigRunDay, rc.day(d))}
			}
			continue
		}
		streak = 0
	}
	return nil
}

func checkDurationRepeats(rc *RuleContext) []string {
	var repeated []string
	for m, n := range rc.Facts.DurationHistogram {
		if n > 2 {
			repeated = append(repeated, fmt.Sprintf("%d min x%d", m, n))
		}
	}
	if len(repeated) == 0 {
		return nil
	}
	sort.Strings(repeated)
	return []string{"Run durations repeated more than twice: " + strings.Join(repeated, ", ")}
}

func checkDoubles(rc *RuleContext) []string {
	if rc.Profile.Experience == domain.ExperienceAdvanced {
		return nil
	}
	var errs []string
	for _, d := range rc.Facts.DoubleDays {
		errs = append(errs, fmt.Sprintf("Multiple runs on %s; doubles are for advanced athletes only", rc.day(d)))
	}
	return errs
}

func checkDeload(rc *RuleContext) []string {
	if !rc.Week.Deload || rc.Prev.TotalMinutes <= 0 {
		return nil
	}
	var errs []string
	if limit := float64(rc.Prev.TotalMinutes) * 0.9; float64(rc.Facts.TotalMinutes) > limit {
		errs = append(errs, fmt.Sprintf("Deload week total %d min must be at most 90%% of previous %d min", rc.Facts.TotalMinutes, rc.Prev.TotalMinutes))
	}
	if rc.Prev.LongRunMinutes > 0 && rc.Facts.LongRunMinutes >= rc.Prev.LongRunMinutes {
		errs = append(errs, fmt.Sprintf("Deload long run %d min must be shorter than previous %d min", rc.Facts.LongRunMinutes, rc.Prev.LongRunMinutes))
	}
	return errs
}
