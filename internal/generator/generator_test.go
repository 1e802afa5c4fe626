package generator_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/generator"
)

func TestParseWeekResponse(t *testing.T) {
	raw := "Here is the week:\n```json\n" + `{
  "label": "Week 3",
  "phase": "Base",
  "startDate": "2025-03-17",
  "deload": false,
  "days": {
    "2025-03-17": ["🛌 Rest"],
    "2025-03-18": ["🏃 Easy run 40 min — with strides"],
    "2025-03-23": ["🏃 Long run 80 min — easy"]
  }
}` + "\n```\nGood luck!"

	week, err := generator.ParseWeekResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Week 3", week.Label)
	assert.Equal(t, "2025-03-17", week.StartDate)
	require.Len(t, week.Days, 3)
	assert.Equal(t, "2025-03-17", week.Days[0].Date)
	assert.Equal(t, []string{"🏃 Long run 80 min — easy"}, week.Days[2].Items)
}

func TestParseWeekResponse_Failures(t *testing.T) {
	testCases := map[string]string{
		"not json":       "I cannot help with that.",
		"truncated":      `{"label": "Week 1", "days": {"2025-03-17": ["Run 30`,
		"no days":        `{"label": "Week 1"}`,
		"empty days":     `{"label": "Week 1", "days": {"2025-03-17": []}}`,
		"wrong day type": `{"label": "Week 1", "days": {"2025-03-17": [{"title": "Run"}]}}`,
	}
	for name, raw := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := generator.ParseWeekResponse(raw)
			require.Error(t, err)
			assert.True(t, generator.IsParseError(err))
		})
	}
}

func TestGenerationError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := fmt.Errorf("week 2: %w", &generator.GenerationError{Kind: generator.KindTransport, Err: cause})

	assert.False(t, generator.IsParseError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "transport")
}

func TestRenderPrompt(t *testing.T) {
	ftp := 240.0
	pace := 285.0
	race := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	req := generator.WeekRequest{
		Profile: domain.AthleteProfile{
			RaceFamily:     domain.Race703,
			RaceName:       "Half Ironman (70.3)",
			RaceDate:       race,
			Experience:     domain.ExperienceIntermediate,
			MaxWeeklyHours: 8,
			RestDay:        time.Monday,
			LongRunDay:     time.Sunday,
			Thresholds:     domain.Thresholds{BikeFTPWatts: &ftp, RunThresholdPaceSecK: &pace},
			Preferences:    "no swimming on Fridays",
		},
		Week: domain.WeekMeta{
			Label:     "Week 4",
			Phase:     domain.PhaseBase,
			Deload:    true,
			StartDate: time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC),
		},
		Targets: domain.WeekTargets{
			WeeklyMinutes:     320,
			LongRunMinutes:    70,
			LongRunMax:        80,
			MaxSessionMinutes: 180,
			QualityDays:       1,
			MaxQualityMinutes: 25,
			LongRunDay:        time.Sunday,
		},
		Previous:   domain.WeekSummary{TotalMinutes: 390, LongRunMinutes: 85},
		Violations: []string{"Back-to-back hard run days: 2025-03-25 and 2025-03-26"},
	}

	prompt := generator.RenderPrompt(req)

	for _, want := range []string{
		"Half Ironman (70.3)",
		"2025-03-24, 2025-03-25, 2025-03-26, 2025-03-27, 2025-03-28, 2025-03-29, 2025-03-30",
		"DELOAD",
		"Weekly total: 320 min",
		"never above 80 min",
		"Bike FTP: 240 W",
		"Run threshold pace: 4:45 /km",
		"no swimming on Fridays",
		"Brick days: Saturday",
		"Strength sessions only on Tuesday or Thursday",
		"Last week: 390 min total",
		"Back-to-back hard run days: 2025-03-25 and 2025-03-26",
	} {
		assert.Contains(t, prompt, want)
	}
	assert.NotContains(t, prompt, "medium-long")
}

func TestRenderPrompt_RaceWeekFreesLongRunDay(t *testing.T) {
	race := time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC)
	req := generator.WeekRequest{
		Profile: domain.AthleteProfile{
			RaceFamily: domain.RaceMarathon,
			RaceDate:   race,
			Experience: domain.ExperienceIntermediate,
			RestDay:    time.Monday,
			LongRunDay: time.Sunday,
		},
		Week: domain.WeekMeta{
			Label:     "Week 10",
			Phase:     domain.PhaseTaper,
			StartDate: time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC),
			RaceDay:   &race,
		},
		Targets: domain.WeekTargets{WeeklyMinutes: 180, LongRunMinutes: 45, LongRunMax: 60, LongRunDay: time.Sunday},
	}

	prompt := generator.RenderPrompt(req)

	assert.Contains(t, prompt, "Race day is 2025-05-11")
	assert.Contains(t, prompt, "on any day before the race")
	assert.NotContains(t, prompt, "min, on Sunday")
}
