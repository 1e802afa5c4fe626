package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/endurance-planner/internal/domain"
)

var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository stores athlete accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// PlanRepository stores generation runs and their accepted week summaries.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error)
	Update(ctx context.Context, plan *domain.TrainingPlan) error
	// ArchiveOtherPlansForUser moves every other active plan of the user to archived.
	ArchiveOtherPlansForUser(ctx context.Context, userID, keepPlanID primitive.ObjectID) error
}

// SessionRepository stores materialized sessions. Date bounds are inclusive YYYY-MM-DD keys.
type SessionRepository interface {
	InsertMany(ctx context.Context, sessions []domain.Session) error
	DeleteByPlan(ctx context.Context, planID primitive.ObjectID) (int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Session, error)
	ListByPlanRange(ctx context.Context, planID primitive.ObjectID, from, to string) ([]domain.Session, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.SessionStatus) error
	// ListPlannedBefore returns sessions still planned on a date strictly before the given key, across all users.
	ListPlannedBefore(ctx context.Context, date string, limit int) ([]domain.Session, error)
}

// ActivityRepository stores externally ingested completed activities.
type ActivityRepository interface {
	// InsertMany skips records whose (userId, externalId) already exists and returns the number stored.
	InsertMany(ctx context.Context, activities []domain.CompletedActivity) (int, error)
	ListByUserRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.CompletedActivity, error)
}
