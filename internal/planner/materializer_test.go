package planner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
)

func TestCanonicalize_RedistributesInvalidDates(t *testing.T) {
	start := time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)
	content := planner.WeekContent{
		{Date: "2025-02-24", Items: []string{"Rest"}},
		{Date: "2025-02-25", Items: []string{"🏃 Easy run 30 min"}},
		{Date: "2025-02-29", Items: []string{"🏃 Tempo run 40 min"}},
		{Date: "2025-02-27", Items: []string{"🏊 Swim 30 min"}},
		{Date: "2025-03-09", Items: []string{"🚴 Ride 60 min"}},
	}

	out := planner.Canonicalize(content, start)

	require.Len(t, out, 7)
	assert.Equal(t, []string{"2025-02-24", "2025-02-25", "2025-02-26", "2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"},
		[]string{out[0].Date, out[1].Date, out[2].Date, out[3].Date, out[4].Date, out[5].Date, out[6].Date})
	assert.Equal(t, []string{"🏃 Tempo run 40 min"}, out.Items("2025-02-26"))
	assert.Equal(t, []string{"🚴 Ride 60 min"}, out.Items("2025-02-28"))
	assert.Equal(t, 5, out.SessionCount())
}

func TestCanonicalize_LeftoverExtrasGoToLeastLoadedDay(t *testing.T) {
	keys := planner.CanonicalDateKeys(buildWeekStart)
	var content planner.WeekContent
	for i, k := range keys {
		items := []string{"Easy run 30 min"}
		if i != 2 {
			items = append(items, "Swim 20 min")
		}
		content = append(content, planner.DayItems{Date: k, Items: items})
	}
	content = append(content, planner.DayItems{Date: "Monday", Items: []string{"Strength 20 min"}})

	out := planner.Canonicalize(content, buildWeekStart)

	assert.Equal(t, []string{"Easy run 30 min", "Strength 20 min"}, out.Items(keys[2]))
}

func TestMaterialize(t *testing.T) {
	userID, planID := primitive.NewObjectID(), primitive.NewObjectID()
	start := time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)
	week := domain.WeekMeta{StartDate: start, Phase: domain.PhaseBase}
	content := planner.WeekContent{
		{Date: "2025-02-24", Items: []string{"🛌 Rest day", ""}},
		{Date: "2025-02-25", Items: []string{"🏃 Easy run 30 min", "🏃 Easy run 30 min — flat loop with 4 strides"}},
		{Date: "2025-02-29", Items: []string{"🏃 Tempo run 40 min — 20 min at tempo"}},
		{Date: "2025-03-02", Items: []string{"🏃 Long run 80 min — easy", "Run 20 min"}},
	}

	sessions := planner.Materialize(content, week, userID, planID)

	allowed := map[string]bool{}
	for _, k := range planner.CanonicalDateKeys(start) {
		allowed[k] = true
	}
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		assert.True(t, allowed[s.Date], "foreign date %s", s.Date)
		assert.Equal(t, userID, s.UserID)
		assert.Equal(t, planID, s.PlanID)
		assert.Equal(t, domain.SessionPlanned, s.Status)
		assert.Equal(t, domain.SportRun, s.Sport)
	}

	// the longer duplicate wins but keeps the first position
	assert.Equal(t, "2025-02-25", sessions[0].Date)
	assert.Equal(t, "flat loop with 4 strides", sessions[0].Details)

	assert.Equal(t, "2025-02-26", sessions[1].Date, "invalid date key lands on the first empty canonical day")
	require.NotNil(t, sessions[1].StructuredWorkout)
	assert.Equal(t, domain.IntensityHard, sessions[1].StructuredWorkout.Intensity)
	assert.Equal(t, 40, sessions[1].StructuredWorkout.DurationMinutes)

	assert.Equal(t, "2025-03-02", sessions[2].Date)
	assert.Equal(t, "🏃 Long run 80 min", sessions[2].Title)
}

func TestRaceDaySession(t *testing.T) {
	race := time.Date(2025, 5, 24, 0, 0, 0, 0, time.UTC)
	week := domain.WeekMeta{StartDate: time.Date(2025, 5, 19, 0, 0, 0, 0, time.UTC), RaceDay: &race}
	profile := domain.AthleteProfile{RaceName: "Half Ironman (70.3)"}

	s := planner.RaceDaySession(week, profile, primitive.NilObjectID, primitive.NilObjectID)
	require.NotNil(t, s)
	assert.Equal(t, "2025-05-24", s.Date)
	assert.Equal(t, domain.SportOther, s.Sport)
	assert.Equal(t, "🏁 Race Day: Half Ironman (70.3)", s.Raw)

	week.RaceDay = nil
	assert.Nil(t, planner.RaceDaySession(week, profile, primitive.NilObjectID, primitive.NilObjectID))
}
