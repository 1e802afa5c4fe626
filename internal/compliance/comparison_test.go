package compliance_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/endurance-planner/internal/compliance"
	"alcyxob/endurance-planner/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestCompareWeek(t *testing.T) {
	weekStart := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	planned := []domain.Session{
		{Date: "2025-04-07", Sport: domain.SportRun, Title: "Easy run", StructuredWorkout: &domain.StructuredWorkout{DurationMinutes: 40}},
		{Date: "2025-04-08", Sport: domain.SportBike, Title: "Ride", StructuredWorkout: &domain.StructuredWorkout{DurationMinutes: 60}},
		{Date: "2025-04-08", Sport: domain.SportSwim, Title: "Swim"},
		{Date: "2025-04-09", Sport: domain.SportRun, Title: "Tempo"},
		{Date: "2025-04-11", Sport: domain.SportRun, Title: "Easy run"},
	}
	activities := []domain.CompletedActivity{
		{Date: "2025-04-07", Sport: domain.SportRun, DurationMinutes: 42, AvgPaceSecKm: ptr(330)},
		{Date: "2025-04-08", Sport: domain.SportBike, DurationMinutes: 65, AvgPowerWatts: ptr(190)},
		{Date: "2025-04-10", Sport: domain.SportSwim, DurationMinutes: 30},
	}
	thresholds := domain.Thresholds{RunThresholdPaceSecK: ptr(300), BikeFTPWatts: ptr(250)}

	days := compliance.NewEngine(0.55).CompareWeek(weekStart, planned, activities, thresholds, now)

	require.Len(t, days, 7)
	assert.Equal(t, compliance.DayCompleted, days[0].Status)
	assert.Equal(t, 40, days[0].PlannedMinutes)
	assert.InDelta(t, 42, days[0].ActualMinutes, 1e-9)
	require.NotNil(t, days[0].PaceDelta)
	assert.InDelta(t, 30, *days[0].PaceDelta, 1e-9)

	assert.Equal(t, compliance.DayPartial, days[1].Status)
	assert.Equal(t, 1, days[1].Planned[domain.SportSwim])
	require.NotNil(t, days[1].PowerDelta)
	assert.InDelta(t, -60, *days[1].PowerDelta, 1e-9)

	assert.Equal(t, compliance.DayUpcoming, days[2].Status) // today, not done yet
	assert.Equal(t, compliance.DayExtra, days[3].Status)
	assert.Equal(t, compliance.DayUpcoming, days[4].Status)
	assert.Equal(t, compliance.DayRest, days[5].Status)
}
