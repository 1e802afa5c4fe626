package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanStatus string

const (
	PlanStatusGenerating PlanStatus = "generating"
	PlanStatusActive     PlanStatus = "active"
	PlanStatusFailed     PlanStatus = "failed"
	PlanStatusArchived   PlanStatus = "archived" // replaced by a newer active plan
)

// PlanWeek is the persisted record of one accepted week.
type PlanWeek struct {
	WeekMeta `bson:",inline"`
	Targets  WeekTargets `bson:"targets" json:"targets"`
	Summary  WeekSummary `bson:"summary" json:"summary"`
	Attempts int         `bson:"attempts" json:"attempts"`
	Warnings []string    `bson:"warnings,omitempty" json:"warnings,omitempty"`
}

// TrainingPlan is the outcome of one generation run. Only one plan per user is active at a time.
type TrainingPlan struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	RunID         string             `bson:"runId" json:"runId"`
	Name          string             `bson:"name" json:"name"`
	Profile       AthleteProfile     `bson:"profile" json:"profile"`
	StartDate     time.Time          `bson:"startDate" json:"startDate"`
	RaceDate      time.Time          `bson:"raceDate" json:"raceDate"`
	TotalWeeks    int                `bson:"totalWeeks" json:"totalWeeks"`
	Status        PlanStatus         `bson:"status" json:"status"`
	Weeks         []PlanWeek         `bson:"weeks,omitempty" json:"weeks,omitempty"`
	FailureReason string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	ArchiveKey    string             `bson:"archiveKey,omitempty" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
	CompletedAt   *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

func (p *TrainingPlan) IsActive() bool {
	return p.Status == PlanStatusActive
}
