package planner

import (
	"math"

	"alcyxob/endurance-planner/internal/domain"
)

const (
	availabilityShare   = 0.78
	minBaselineMinutes  = 180 // 3 h
	maxBaselineMinutes  = 840 // 14 h
	defaultWeeklyHours  = 5.0
	deloadVolumeFactor  = 0.82
	deloadVolumeCap     = 0.88
	weeklyGrowthCap     = 1.08
	deloadLongRunFactor = 0.88
	taperLongRunFactor  = 0.62
	raceWeekLongFactor  = 0.45
	reducedFloorFactor  = 0.6
	genericLongShare    = 0.26
	defaultShareCeiling = 0.35
)

// CalculateTargets derives the numeric bounds for one week. prev is the realized summary of
// the previous accepted week, zero for the first week.
func CalculateTargets(p domain.AthleteProfile, w domain.WeekMeta, prev domain.WeekSummary) domain.WeekTargets {
	prevTotal := float64(max(prev.TotalMinutes, 0))
	prevLong := float64(max(prev.LongRunMinutes, 0))

	hours := p.MaxWeeklyHours
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		hours = defaultWeeklyHours
	}
	availability := clampFloat(hours*60*availabilityShare, minBaselineMinutes, maxBaselineMinutes)

	baseline := availability
	if prevTotal > 0 {
		baseline = prevTotal
	}

	reduced := w.Deload || w.Phase == domain.PhaseTaper

	weekly := baseline
	if !w.Deload {
		weekly *= 1 + rampFor(p.Experience)
	}
	weekly *= phaseFactor(w.Phase)
	if w.Deload {
		weekly *= deloadVolumeFactor
	}

	band := volumeBandFor(p.RaceFamily, p.Experience)
	floor := float64(band.floor)
	if reduced {
		floor *= reducedFloorFactor
	}
	weekly = clampFloat(weekly, floor, float64(band.ceiling))
	weekly = math.Min(weekly, hours*60)
	if prevTotal > 0 {
		switch {
		case w.Deload:
			weekly = math.Min(weekly, prevTotal*deloadVolumeCap)
		case w.Phase != domain.PhaseTaper:
			weekly = math.Min(weekly, prevTotal*weeklyGrowthCap)
		}
	}
	weeklyMin := roundNonNegative(weekly)

	long, longMin, longMax, shareCeiling := longRunTargets(p, w, float64(weeklyMin), baseline, prevLong)

	return domain.WeekTargets{
		WeeklyMinutes:       weeklyMin,
		LongRunMinutes:      long,
		LongRunMin:          longMin,
		LongRunMax:          longMax,
		LongRunShareCeiling: shareCeiling,
		MaxSessionMinutes:   SessionCeiling(p.Experience),
		QualityDays:         qualityDays(w.Phase, p.Experience),
		MaxQualityMinutes:   maxQualityMinutesByPhase[w.Phase],
		LongRunDay:          p.LongRunDay,
	}
}

func longRunTargets(p domain.AthleteProfile, w domain.WeekMeta, weekly, baseline, prevLong float64) (int, int, int, float64) {
	share := LongRunShare(p.RaceFamily, w.Phase)
	shareCeiling := LongRunShareCeiling(p.RaceFamily, w.Phase, p.Experience)
	step := float64(ProgressionStep(p.RaceFamily, w.Phase, p.Experience))

	long := weekly * share
	floor := 0.0
	if p.RaceFamily == domain.RaceMarathon && !w.Deload && w.Phase != domain.PhaseTaper {
		if w.Index < 3 {
			floor = clampFloat(baseline*0.22, 45, 75)
		} else {
			floor = clampFloat(baseline*0.25, 60, 110)
		}
	}

	ceiling := math.Min(float64(longRunCeilingFor(p.RaceFamily, p.Experience)), float64(SessionCeiling(p.Experience)))
	ceiling = math.Min(ceiling, weekly*shareCeiling)

	switch {
	case w.Phase == domain.PhaseTaper:
		factor := taperLongRunFactor
		if w.RaceDay != nil {
			factor = raceWeekLongFactor
		}
		ref := long
		if prevLong > 0 {
			ref = prevLong
		}
		long = ref * factor
	case w.Deload:
		if prevLong > 0 {
			long = math.Min(long, prevLong*deloadLongRunFactor)
			ceiling = math.Min(ceiling, prevLong-1)
		}
	default:
		long = math.Max(long, floor)
		if prevLong > 0 {
			ceiling = math.Min(ceiling, prevLong+step)
		}
	}

	ceiling = math.Max(ceiling, 0)
	if floor > ceiling {
		floor = ceiling
	}
	long = clampFloat(long, floor, ceiling)

	maxMin := int(math.Floor(ceiling))
	return min(roundNonNegative(long), maxMin), min(roundNonNegative(floor), maxMin), maxMin, shareCeiling
}

// LongRunShare is the fraction of weekly volume aimed at the long run.
func LongRunShare(race domain.RaceFamily, phase domain.Phase) float64 {
	if race == domain.RaceMarathon {
		if s, ok := marathonLongRunShare[phase]; ok {
			return s
		}
	}
	return genericLongShare
}

// LongRunShareCeiling is the largest fraction of the weekly total a long run may take.
func LongRunShareCeiling(race domain.RaceFamily, phase domain.Phase, e domain.Experience) float64 {
	c := defaultShareCeiling
	if race == domain.RaceMarathon && (phase == domain.PhaseBuild || phase == domain.PhasePeak) {
		c = 0.40
	}
	if e == domain.ExperienceAdvanced {
		c += 0.03
	}
	return c
}

// ProgressionStep is the largest allowed week-over-week long run increase in minutes.
func ProgressionStep(race domain.RaceFamily, phase domain.Phase, e domain.Experience) int {
	long := race == domain.RaceHalf || race == domain.RaceMarathon || race == domain.Race703 || race == domain.RaceIronman
	if long && (phase == domain.PhaseBuild || phase == domain.PhasePeak) {
		if e == domain.ExperienceBeginner {
			return 12
		}
		return 15
	}
	return 10
}

func qualityDays(phase domain.Phase, e domain.Experience) int {
	switch phase {
	case domain.PhaseBuild, domain.PhasePeak:
		if e == domain.ExperienceBeginner || e == domain.ExperienceUnknown {
			return 1
		}
		return 2
	default:
		return 1
	}
}

func rampFor(e domain.Experience) float64 {
	if r, ok := rampByExperience[e]; ok {
		return r
	}
	return rampByExperience[domain.ExperienceUnknown]
}

func phaseFactor(phase domain.Phase) float64 {
	if f, ok := phaseVolumeFactors[phase]; ok {
		return f
	}
	return 1.0
}

func clampFloat(v, lo, hi float64) float64 {
	if hi < lo {
		return hi
	}
	return math.Max(lo, math.Min(v, hi))
}

func roundNonNegative(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int(math.Round(v))
}
