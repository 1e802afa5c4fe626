package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletedActivity is a finished workout reported by an ingestion source (watch, Strava export, manual entry).
type CompletedActivity struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	ExternalID      string             `bson:"externalId,omitempty" json:"externalId,omitempty"`
	Source          string             `bson:"source,omitempty" json:"source,omitempty"`
	Date            string             `bson:"date" json:"date"` // YYYY-MM-DD
	Sport           Sport              `bson:"sport" json:"sport"`
	Title           string             `bson:"title" json:"title"`
	DurationMinutes float64            `bson:"durationMinutes" json:"durationMinutes"`
	AvgPaceSecKm    *float64           `bson:"avgPaceSecKm,omitempty" json:"avgPaceSecKm,omitempty"`
	AvgPowerWatts   *float64           `bson:"avgPowerWatts,omitempty" json:"avgPowerWatts,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
