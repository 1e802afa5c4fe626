package planner

import "alcyxob/endurance-planner/internal/domain"

type volumeBand struct {
	floor, ceiling int // minutes per week
}

// weeklyVolumeBands is indexed by race family, then beginner/intermediate/advanced.
var weeklyVolumeBands = map[domain.RaceFamily][3]volumeBand{
	domain.Race5K:       {{120, 240}, {150, 330}, {180, 480}},
	domain.Race10K:      {{120, 270}, {160, 360}, {200, 520}},
	domain.RaceHalf:     {{140, 330}, {180, 420}, {240, 580}},
	domain.RaceMarathon: {{150, 390}, {200, 480}, {270, 650}},
	domain.RaceSprint:   {{150, 360}, {200, 450}, {270, 600}},
	domain.RaceOlympic:  {{180, 420}, {240, 540}, {320, 720}},
	domain.Race703:      {{240, 540}, {300, 660}, {400, 840}},
	domain.RaceIronman:  {{300, 660}, {360, 780}, {480, 960}},
}

// longRunPeakCeilings caps the long run in minutes for each race family and tier.
var longRunPeakCeilings = map[domain.RaceFamily][3]int{
	domain.Race5K:       {60, 75, 90},
	domain.Race10K:      {70, 85, 100},
	domain.RaceHalf:     {100, 120, 135},
	domain.RaceMarathon: {150, 170, 180},
	domain.RaceSprint:   {50, 60, 75},
	domain.RaceOlympic:  {70, 85, 100},
	domain.Race703:      {100, 110, 125},
	domain.RaceIronman:  {130, 150, 165},
}

// sessionSafetyCeilings is the absolute single-run ceiling per tier.
var sessionSafetyCeilings = [3]int{150, 180, 210}

var rampByExperience = map[domain.Experience]float64{
	domain.ExperienceBeginner:     0.06,
	domain.ExperienceIntermediate: 0.07,
	domain.ExperienceAdvanced:     0.08,
	domain.ExperienceUnknown:      0.06,
}

var phaseVolumeFactors = map[domain.Phase]float64{
	domain.PhaseBase:  1.0,
	domain.PhaseBuild: 1.05,
	domain.PhasePeak:  1.02,
	domain.PhaseTaper: 0.72,
}

var maxQualityMinutesByPhase = map[domain.Phase]int{
	domain.PhaseBase:  25,
	domain.PhaseBuild: 50,
	domain.PhasePeak:  55,
	domain.PhaseTaper: 20,
}

var marathonLongRunShare = map[domain.Phase]float64{
	domain.PhaseBase:  0.30,
	domain.PhaseBuild: 0.32,
	domain.PhasePeak:  0.35,
	domain.PhaseTaper: 0.30,
}

// tierIndex maps unknown experience onto the beginner row.
func tierIndex(e domain.Experience) int {
	switch e {
	case domain.ExperienceIntermediate:
		return 1
	case domain.ExperienceAdvanced:
		return 2
	default:
		return 0
	}
}

func volumeBandFor(race domain.RaceFamily, e domain.Experience) volumeBand {
	bands, ok := weeklyVolumeBands[race]
	if !ok {
		bands = weeklyVolumeBands[domain.RaceHalf]
	}
	return bands[tierIndex(e)]
}

func longRunCeilingFor(race domain.RaceFamily, e domain.Experience) int {
	ceilings, ok := longRunPeakCeilings[race]
	if !ok {
		ceilings = longRunPeakCeilings[domain.RaceHalf]
	}
	return ceilings[tierIndex(e)]
}

// SessionCeiling is the longest single run allowed for the experience tier.
func SessionCeiling(e domain.Experience) int {
	return sessionSafetyCeilings[tierIndex(e)]
}
