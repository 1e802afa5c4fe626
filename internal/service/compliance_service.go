package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/endurance-planner/internal/compliance"
	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/planner"
	"alcyxob/endurance-planner/internal/repository"
)

type ComplianceService interface {
	// Readiness scores the active plan up to today. raceDate overrides the plan's race date when non-zero.
	Readiness(ctx context.Context, userID primitive.ObjectID, raceDate time.Time) (compliance.ReadinessResult, error)
	WeeklyComparison(ctx context.Context, userID primitive.ObjectID, weekStart time.Time) ([]compliance.WeeklyComparison, error)
}

type complianceService struct {
	plans      repository.PlanRepository
	sessions   repository.SessionRepository
	activities repository.ActivityRepository
	engine     *compliance.Engine
	now        func() time.Time
}

func NewComplianceService(plans repository.PlanRepository, sessions repository.SessionRepository, activities repository.ActivityRepository, engine *compliance.Engine, now func() time.Time) ComplianceService {
	if now == nil {
		now = time.Now
	}
	return &complianceService{
		plans:      plans,
		sessions:   sessions,
		activities: activities,
		engine:     engine,
		now:        now,
	}
}

// activePlan returns nil without error when the user has no active plan.
func (s *complianceService) activePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.plans.GetActiveByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active plan: %w", err)
	}
	return plan, nil
}

func (s *complianceService) Readiness(ctx context.Context, userID primitive.ObjectID, raceDate time.Time) (compliance.ReadinessResult, error) {
	now := s.now()
	today := planner.DateOnly(now).Format(planner.DateLayout)

	plan, err := s.activePlan(ctx, userID)
	if err != nil {
		return compliance.ReadinessResult{}, err
	}

	var (
		planned    []domain.Session
		activities []domain.CompletedActivity
	)
	if plan != nil {
		from := plan.StartDate.Format(planner.DateLayout)
		if planned, err = s.sessions.ListByPlanRange(ctx, plan.ID, from, today); err != nil {
			return compliance.ReadinessResult{}, fmt.Errorf("list sessions: %w", err)
		}
		if activities, err = s.activities.ListByUserRange(ctx, userID, from, today); err != nil {
			return compliance.ReadinessResult{}, fmt.Errorf("list activities: %w", err)
		}
		if raceDate.IsZero() {
			raceDate = plan.RaceDate
		}
	}

	return s.engine.Readiness(planned, activities, now, raceDate), nil
}

func (s *complianceService) WeeklyComparison(ctx context.Context, userID primitive.ObjectID, weekStart time.Time) ([]compliance.WeeklyComparison, error) {
	now := s.now()
	if weekStart.IsZero() {
		weekStart = now
	}
	keys := planner.CanonicalDateKeys(planner.MondayOf(weekStart))

	plan, err := s.activePlan(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		planned    []domain.Session
		thresholds domain.Thresholds
	)
	if plan != nil {
		if planned, err = s.sessions.ListByPlanRange(ctx, plan.ID, keys[0], keys[6]); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		thresholds = plan.Profile.Thresholds
	}
	activities, err := s.activities.ListByUserRange(ctx, userID, keys[0], keys[6])
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	return s.engine.CompareWeek(planner.MondayOf(weekStart), planned, activities, thresholds, now), nil
}
