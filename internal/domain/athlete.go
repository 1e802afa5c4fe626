package domain

import (
	"strings"
	"time"
)

// RaceFamily groups race distances that share volume and long-run tables.
type RaceFamily string

const (
	Race5K       RaceFamily = "5k"
	Race10K      RaceFamily = "10k"
	RaceHalf     RaceFamily = "half"
	RaceMarathon RaceFamily = "marathon"
	RaceSprint   RaceFamily = "sprint"
	RaceOlympic  RaceFamily = "olympic"
	Race703      RaceFamily = "70.3"
	RaceIronman  RaceFamily = "ironman"
)

// ParseRaceFamily maps free-form race names ("Half Ironman (70.3)", "Half Marathon") to a family.
func ParseRaceFamily(s string) (RaceFamily, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return "", false
	case strings.Contains(v, "70.3"), strings.Contains(v, "half iron"), strings.Contains(v, "half-iron"), strings.Contains(v, "middle distance"):
		return Race703, true
	case strings.Contains(v, "ironman"), strings.Contains(v, "140.6"), strings.Contains(v, "full distance"), strings.Contains(v, "full-distance"), strings.Contains(v, "long distance"):
		return RaceIronman, true
	case strings.Contains(v, "olympic"), strings.Contains(v, "standard"):
		return RaceOlympic, true
	case strings.Contains(v, "sprint"):
		return RaceSprint, true
	case strings.Contains(v, "half"), strings.Contains(v, "21k"), strings.Contains(v, "21.1"):
		return RaceHalf, true
	case strings.Contains(v, "marathon"), strings.Contains(v, "42k"), strings.Contains(v, "42.2"):
		return RaceMarathon, true
	case strings.Contains(v, "10k"), strings.Contains(v, "10 k"):
		return Race10K, true
	case strings.Contains(v, "5k"), strings.Contains(v, "5 k"):
		return Race5K, true
	}
	return "", false
}

func (r RaceFamily) IsTriathlon() bool {
	switch r {
	case RaceSprint, RaceOlympic, Race703, RaceIronman:
		return true
	}
	return false
}

type Experience string

const (
	ExperienceBeginner     Experience = "beginner"
	ExperienceIntermediate Experience = "intermediate"
	ExperienceAdvanced     Experience = "advanced"
	ExperienceUnknown      Experience = "unknown"
)

func ParseExperience(s string) Experience {
	switch e := Experience(strings.ToLower(strings.TrimSpace(s))); e {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceAdvanced:
		return e
	}
	return ExperienceUnknown
}

// Thresholds are optional performance anchors supplied by the athlete.
type Thresholds struct {
	BikeFTPWatts         *float64 `bson:"bikeFtpWatts,omitempty" json:"bikeFtpWatts,omitempty"`
	RunThresholdPaceSecK *float64 `bson:"runThresholdPaceSecKm,omitempty" json:"runThresholdPaceSecKm,omitempty"` // seconds per km
	SwimCSSSec100m       *float64 `bson:"swimCssSec100m,omitempty" json:"swimCssSec100m,omitempty"`               // seconds per 100 m
}

// AthleteProfile is fixed for the duration of a generation run.
type AthleteProfile struct {
	RaceFamily     RaceFamily     `bson:"raceFamily" json:"raceFamily"`
	RaceName       string         `bson:"raceName" json:"raceName"`
	RaceDate       time.Time      `bson:"raceDate" json:"raceDate"`
	Experience     Experience     `bson:"experience" json:"experience"`
	MaxWeeklyHours float64        `bson:"maxWeeklyHours" json:"maxWeeklyHours"`
	RestDay        time.Weekday   `bson:"restDay" json:"restDay"`
	LongRunDay     time.Weekday   `bson:"longRunDay" json:"longRunDay"`
	BrickDays      []time.Weekday `bson:"brickDays,omitempty" json:"brickDays,omitempty"`
	Thresholds     Thresholds     `bson:"thresholds" json:"thresholds"`
	Preferences    string         `bson:"preferences,omitempty" json:"preferences,omitempty"`
}

// AllowedBrickDays falls back to Saturday when the athlete has no preference.
func (p AthleteProfile) AllowedBrickDays() []time.Weekday {
	if len(p.BrickDays) == 0 {
		return []time.Weekday{time.Saturday}
	}
	return p.BrickDays
}

// ParseWeekday accepts full or three-letter English weekday names in any case.
func ParseWeekday(s string) (time.Weekday, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) < 3 {
		return time.Sunday, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, true
		}
	}
	return time.Sunday, false
}
