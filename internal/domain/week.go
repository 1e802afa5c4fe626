package domain

import "time"

type Phase string

const (
	PhaseBase  Phase = "Base"
	PhaseBuild Phase = "Build"
	PhasePeak  Phase = "Peak"
	PhaseTaper Phase = "Taper"
)

// WeekMeta describes one week of the macrocycle. StartDate is always a Monday (UTC midnight).
type WeekMeta struct {
	Index     int        `bson:"index" json:"index"` // 0-based
	Label     string     `bson:"label" json:"label"`
	Phase     Phase      `bson:"phase" json:"phase"`
	Deload    bool       `bson:"deload" json:"deload"`
	StartDate time.Time  `bson:"startDate" json:"startDate"`
	RaceDay   *time.Time `bson:"raceDay,omitempty" json:"raceDay,omitempty"`
}

// WeekSummary is the realized volume of an accepted week, threaded into the next week's targets.
type WeekSummary struct {
	TotalMinutes   int `bson:"totalMinutes" json:"totalMinutes"`
	LongRunMinutes int `bson:"longRunMinutes" json:"longRunMinutes"`
}

// WeekTargets bounds what a generated week may contain.
type WeekTargets struct {
	WeeklyMinutes       int          `bson:"weeklyMinutes" json:"weeklyMinutes"`
	LongRunMinutes      int          `bson:"longRunMinutes" json:"longRunMinutes"`
	LongRunMin          int          `bson:"longRunMin" json:"longRunMin"`
	LongRunMax          int          `bson:"longRunMax" json:"longRunMax"`
	LongRunShareCeiling float64      `bson:"longRunShareCeiling" json:"longRunShareCeiling"`
	MaxSessionMinutes   int          `bson:"maxSessionMinutes" json:"maxSessionMinutes"`
	QualityDays         int          `bson:"qualityDays" json:"qualityDays"`
	MaxQualityMinutes   int          `bson:"maxQualityMinutes" json:"maxQualityMinutes"`
	LongRunDay          time.Weekday `bson:"longRunDay" json:"longRunDay"`
}
