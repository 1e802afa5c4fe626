package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
	"alcyxob/endurance-planner/internal/repository"
)

var ErrInvalidActivity = errors.New("invalid activity")

type ActivityService interface {
	// Record stores a batch for the user and returns how many were new.
	Record(ctx context.Context, userID primitive.ObjectID, activities []domain.CompletedActivity) (int, error)
	List(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.CompletedActivity, error)
}

type activityService struct {
	activities repository.ActivityRepository
}

func NewActivityService(activities repository.ActivityRepository) ActivityService {
	return &activityService{activities: activities}
}

func (s *activityService) Record(ctx context.Context, userID primitive.ObjectID, activities []domain.CompletedActivity) (int, error) {
	if len(activities) == 0 {
		return 0, nil
	}
	batch := make([]domain.CompletedActivity, 0, len(activities))
	for i, a := range activities {
		date, err := time.Parse(planner.DateLayout, strings.TrimSpace(a.Date))
		if err != nil {
			return 0, fmt.Errorf("%w: item %d: date %q is not YYYY-MM-DD", ErrInvalidActivity, i, a.Date)
		}
		if a.DurationMinutes < 0 {
			return 0, fmt.Errorf("%w: item %d: negative duration", ErrInvalidActivity, i)
		}
		a.ID = primitive.NilObjectID
		a.UserID = userID
		a.Date = date.Format(planner.DateLayout)
		a.Sport = domain.Sport(strings.ToLower(strings.TrimSpace(string(a.Sport))))
		if a.Sport == "" {
			a.Sport = domain.SportOther
		}
		batch = append(batch, a)
	}

	n, err := s.activities.InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("store activities: %w", err)
	}
	return n, nil
}

func (s *activityService) List(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.CompletedActivity, error) {
	return s.activities.ListByUserRange(ctx, userID, from, to)
}
