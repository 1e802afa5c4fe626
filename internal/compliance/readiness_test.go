package compliance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/endurance-planner/internal/compliance"
	"alcyxob/endurance-planner/internal/domain"
)

// 2025-04-09 is a Wednesday.
var now = time.Date(2025, 4, 9, 18, 0, 0, 0, time.UTC)

func session(date string, sport domain.Sport, title string) domain.Session {
	return domain.Session{Date: date, Sport: sport, Title: title, Status: domain.SessionPlanned}
}

func activity(date string, sport domain.Sport, title string) domain.CompletedActivity {
	return domain.CompletedActivity{Date: date, Sport: sport, Title: title, DurationMinutes: 40}
}

func TestRatio(t *testing.T) {
	e := compliance.NewEngine(0.55)
	planned := []domain.Session{
		session("2025-04-07", domain.SportRun, "Easy run"),
		session("2025-04-07", domain.SportSwim, "Swim"),
		session("2025-04-08", domain.SportBrick, "Brick"),
		session("2025-04-09", domain.SportStrength, "Core circuit"),
		{Date: "2025-04-06", Sport: domain.SportRun, Title: "Long run", Status: domain.SessionDone},
		{Date: "2025-04-05", Sport: domain.SportRun, Title: "Tempo", Status: domain.SessionSkipped},
	}
	activities := []domain.CompletedActivity{
		activity("2025-04-07", domain.Sport("RUN"), "Morning Run"),
		activity("2025-04-08", domain.SportBike, "Brick bike leg"),
		activity("2025-04-09", domain.SportOther, "core circuit"),
		activity("2025-04-05", domain.SportRun, "Tempo"),
	}

	r, ok := e.Ratio(planned, activities, "2025-04-07", "2025-04-09")
	require.True(t, ok)
	assert.InDelta(t, 3.0/4.0, r, 1e-9) // swim missed; brick via bike; strength via title

	r, ok = e.Ratio(planned, activities, "2025-04-05", "2025-04-06")
	require.True(t, ok)
	assert.InDelta(t, 0.5, r, 1e-9) // done counts, skipped does not

	_, ok = e.Ratio(planned, activities, "2025-05-01", "2025-05-31")
	assert.False(t, ok)
}

func TestRatio_ActivityUsedOnce(t *testing.T) {
	e := compliance.NewEngine(0.55)
	planned := []domain.Session{
		session("2025-04-07", domain.SportRun, "AM run"),
		session("2025-04-07", domain.SportRun, "PM run"),
	}
	activities := []domain.CompletedActivity{activity("2025-04-07", domain.SportRun, "Run")}

	r, ok := e.Ratio(planned, activities, "2025-04-07", "2025-04-07")
	require.True(t, ok)
	assert.InDelta(t, 0.5, r, 1e-9)
}

func TestReadiness_NoDataUsesDefault(t *testing.T) {
	res := compliance.NewEngine(0.55).Readiness(nil, nil, now, time.Time{})

	assert.InDelta(t, 0.55, res.Components.Compliance, 1e-9)
	assert.InDelta(t, 0.55, res.Components.Trend, 1e-9)
	assert.InDelta(t, 0.55, res.Components.Recency, 1e-9)
	assert.InDelta(t, 1.0, res.Components.ProximityMultiplier, 1e-9)
	assert.Equal(t, 55, res.Score)
	assert.Equal(t, "Needs consistency", res.Label)
	assert.Nil(t, res.DaysToRace)
}

func TestReadiness_FullComplianceFarFromRace(t *testing.T) {
	var planned []domain.Session
	var acts []domain.CompletedActivity
	for d := 0; d < 28; d++ {
		date := now.AddDate(0, 0, -d).Format("2006-01-02")
		planned = append(planned, session(date, domain.SportRun, "Run"))
		acts = append(acts, activity(date, domain.SportRun, "Run"))
	}
	race := now.AddDate(0, 0, 90)

	res := compliance.NewEngine(0.55).Readiness(planned, acts, now, race)

	assert.Equal(t, 100, res.Score)
	assert.Equal(t, "On track", res.Label)
	require.NotNil(t, res.DaysToRace)
	assert.Equal(t, 90, *res.DaysToRace)
}

func TestReadiness_ProximityPenalizesLowCompliance(t *testing.T) {
	// two planned sessions per day, one completed: compliance 0.5 everywhere
	var planned []domain.Session
	var acts []domain.CompletedActivity
	for d := 0; d < 28; d++ {
		date := now.AddDate(0, 0, -d).Format("2006-01-02")
		planned = append(planned, session(date, domain.SportRun, "Run"), session(date, domain.SportSwim, "Swim"))
		acts = append(acts, activity(date, domain.SportRun, "Run"))
	}
	e := compliance.NewEngine(0.55)

	far := e.Readiness(planned, acts, now, now.AddDate(0, 0, 60))
	raceDay := e.Readiness(planned, acts, now, now)

	assert.Equal(t, 50, far.Score)
	// pressure 1: multiplier = 1 - 1*(0.5)*0.35 = 0.825
	assert.InDelta(t, 0.825, raceDay.Components.ProximityMultiplier, 1e-9)
	assert.Equal(t, 41, raceDay.Score)
	assert.Equal(t, "At risk", raceDay.Label)
}

func TestReadiness_TrendWeightsRecentWeeks(t *testing.T) {
	// current week (Mon 7th..Wed 9th) fully done, the previous week fully missed
	var planned []domain.Session
	var acts []domain.CompletedActivity
	for d := 0; d < 10; d++ {
		date := now.AddDate(0, 0, -d).Format("2006-01-02")
		planned = append(planned, session(date, domain.SportRun, "Run"))
		if d < 3 {
			acts = append(acts, activity(date, domain.SportRun, "Run"))
		}
	}

	res := compliance.NewEngine(0.55).Readiness(planned, acts, now, time.Time{})

	// weeks: current 1.0 (w .4), previous 0 (w .3); older weeks had nothing planned
	assert.InDelta(t, 0.4/0.7, res.Components.Trend, 1e-9)
	assert.InDelta(t, 3.0/7.0, res.Components.Recency, 1e-9)
	assert.InDelta(t, 3.0/10.0, res.Components.Compliance, 1e-9)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "On track", compliance.Label(85))
	assert.Equal(t, "Mostly on track", compliance.Label(84))
	assert.Equal(t, "Mostly on track", compliance.Label(65))
	assert.Equal(t, "Needs consistency", compliance.Label(45))
	assert.Equal(t, "At risk", compliance.Label(44))
}
