package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Sport string

const (
	SportSwim     Sport = "swim"
	SportBike     Sport = "bike"
	SportRun      Sport = "run"
	SportStrength Sport = "strength"
	SportBrick    Sport = "brick"
	SportOther    Sport = "other"
)

// SessionStatus tracks a planned session through completion tracking.
type SessionStatus string

const (
	SessionPlanned SessionStatus = "planned"
	SessionDone    SessionStatus = "done"
	SessionSkipped SessionStatus = "skipped"
	SessionMissed  SessionStatus = "missed"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPlanned, SessionDone, SessionSkipped, SessionMissed:
		return true
	}
	return false
}

type Intensity string

const (
	IntensityEasy Intensity = "easy"
	IntensityHard Intensity = "hard"
)

type StructuredWorkout struct {
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes"`
	Intensity       Intensity `bson:"intensity" json:"intensity"`
}

// Session is one dated, materialized workout of a plan.
type Session struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID            primitive.ObjectID `bson:"planId" json:"planId"`
	Date              string             `bson:"date" json:"date"` // YYYY-MM-DD
	Sport             Sport              `bson:"sport" json:"sport"`
	Title             string             `bson:"title" json:"title"`
	Details           string             `bson:"details,omitempty" json:"details,omitempty"`
	Raw               string             `bson:"raw" json:"raw"`
	Status            SessionStatus      `bson:"status" json:"status"`
	StructuredWorkout *StructuredWorkout `bson:"structuredWorkout,omitempty" json:"structuredWorkout,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
