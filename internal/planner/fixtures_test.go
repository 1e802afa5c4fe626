package planner_test

import (
	"time"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
)

// 2025-03-03 is a Monday.
var buildWeekStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func marathonProfile() domain.AthleteProfile {
	return domain.AthleteProfile{
		RaceFamily:     domain.RaceMarathon,
		RaceName:       "City Marathon",
		RaceDate:       time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC),
		Experience:     domain.ExperienceIntermediate,
		MaxWeeklyHours: 8,
		RestDay:        time.Monday,
		LongRunDay:     time.Sunday,
	}
}

func buildWeek() domain.WeekMeta {
	return domain.WeekMeta{Index: 5, Label: "Week 6", Phase: domain.PhaseBuild, StartDate: buildWeekStart}
}

// validBuildWeek satisfies every default rule for marathonProfile/buildWeek with prev 300/90.
func validBuildWeek() planner.WeekContent {
	return planner.WeekContent{
		{Date: "2025-03-03", Items: []string{"🛌 Rest day"}},
		{Date: "2025-03-04", Items: []string{"🏃 Tempo run 45 min — 15 min warm-up, 20 min tempo, 10 min cool-down"}},
		{Date: "2025-03-05", Items: []string{"🏃 Easy run 40 min — conversational pace with 6x20s strides"}},
		{Date: "2025-03-06", Items: []string{"🏃 Easy run 35 min — relaxed"}},
		{Date: "2025-03-07", Items: []string{"🏃 Medium-long run 65 min — steady aerobic"}},
		{Date: "2025-03-08", Items: []string{"🏃 Easy run 30 min — recovery jog"}},
		{Date: "2025-03-09", Items: []string{"🏃 Long run 104 min — easy, fuel every 30 min"}},
	}
}

func prevBuildSummary() domain.WeekSummary {
	return domain.WeekSummary{TotalMinutes: 300, LongRunMinutes: 90}
}

func validationInput() planner.ValidationInput {
	p := marathonProfile()
	w := buildWeek()
	prev := prevBuildSummary()
	return planner.ValidationInput{
		Week:    w,
		Targets: planner.CalculateTargets(p, w, prev),
		Profile: p,
		Prev:    prev,
	}
}

func replaceDay(c planner.WeekContent, date string, items ...string) planner.WeekContent {
	out := c.Clone()
	for i := range out {
		if out[i].Date == date {
			out[i].Items = items
		}
	}
	return out
}
