// Package memory holds map-backed repositories for local runs (database.driver=memory) and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]domain.User)}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, fmt.Errorf("user %s: %w", user.Email, repository.ErrDuplicate)
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type PlanRepository struct {
	mu    sync.RWMutex
	plans map[primitive.ObjectID]domain.TrainingPlan
}

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{plans: make(map[primitive.ObjectID]domain.TrainingPlan)}
}

var _ repository.PlanRepository = (*PlanRepository)(nil)

func (r *PlanRepository) Create(_ context.Context, plan *domain.TrainingPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.plans[plan.ID] = clonePlan(*plan)
	return plan.ID, nil
}

func (r *PlanRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.TrainingPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = clonePlan(p)
	return &p, nil
}

func (r *PlanRepository) GetActiveByUser(_ context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *domain.TrainingPlan
	for _, p := range r.plans {
		if p.UserID != userID || p.Status != domain.PlanStatusActive {
			continue
		}
		if found == nil || completedAfter(p, *found) {
			c := clonePlan(p)
			found = &c
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func completedAfter(a, b domain.TrainingPlan) bool {
	if a.CompletedAt == nil || b.CompletedAt == nil {
		return a.CompletedAt != nil
	}
	return a.CompletedAt.After(*b.CompletedAt)
}

func (r *PlanRepository) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plans := []domain.TrainingPlan{}
	for _, p := range r.plans {
		if p.UserID == userID {
			p.Weeks = nil
			plans = append(plans, p)
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.After(plans[j].CreatedAt) })
	return plans, nil
}

func (r *PlanRepository) Update(_ context.Context, plan *domain.TrainingPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plans[plan.ID]; !ok {
		return repository.ErrNotFound
	}
	plan.UpdatedAt = time.Now().UTC()
	r.plans[plan.ID] = clonePlan(*plan)
	return nil
}

func (r *PlanRepository) ArchiveOtherPlansForUser(_ context.Context, userID, keepPlanID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.plans {
		if p.UserID == userID && id != keepPlanID && p.Status == domain.PlanStatusActive {
			p.Status = domain.PlanStatusArchived
			p.UpdatedAt = time.Now().UTC()
			r.plans[id] = p
		}
	}
	return nil
}

func clonePlan(p domain.TrainingPlan) domain.TrainingPlan {
	p.Weeks = append([]domain.PlanWeek(nil), p.Weeks...)
	return p
}

type SessionRepository struct {
	mu       sync.RWMutex
	sessions []domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) InsertMany(_ context.Context, sessions []domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for i := range sessions {
		if sessions[i].ID == primitive.NilObjectID {
			sessions[i].ID = primitive.NewObjectID()
		}
		sessions[i].CreatedAt = now
		sessions[i].UpdatedAt = now
		r.sessions = append(r.sessions, sessions[i])
	}
	return nil
}

func (r *SessionRepository) DeleteByPlan(_ context.Context, planID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.sessions[:0]
	var deleted int64
	for _, s := range r.sessions {
		if s.PlanID == planID {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	r.sessions = kept
	return deleted, nil
}

func (r *SessionRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SessionRepository) ListByPlanRange(_ context.Context, planID primitive.ObjectID, from, to string) ([]domain.Session, error) {
	return r.filter(func(s domain.Session) bool {
		return s.PlanID == planID && inRange(s.Date, from, to)
	}, 0), nil
}

func (r *SessionRepository) UpdateStatus(_ context.Context, id primitive.ObjectID, status domain.SessionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.sessions {
		if r.sessions[i].ID == id {
			r.sessions[i].Status = status
			r.sessions[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *SessionRepository) ListPlannedBefore(_ context.Context, date string, limit int) ([]domain.Session, error) {
	return r.filter(func(s domain.Session) bool {
		return s.Status == domain.SessionPlanned && s.Date < date
	}, limit), nil
}

func (r *SessionRepository) filter(keep func(domain.Session) bool, limit int) []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Session{}
	for _, s := range r.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type ActivityRepository struct {
	mu         sync.RWMutex
	activities []domain.CompletedActivity
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

var _ repository.ActivityRepository = (*ActivityRepository)(nil)

func (r *ActivityRepository) InsertMany(_ context.Context, activities []domain.CompletedActivity) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := 0
	for _, a := range activities {
		if a.ExternalID != "" && r.hasExternal(a.UserID, a.ExternalID) {
			continue
		}
		if a.ID == primitive.NilObjectID {
			a.ID = primitive.NewObjectID()
		}
		a.CreatedAt = now
		r.activities = append(r.activities, a)
		stored++
	}
	return stored, nil
}

func (r *ActivityRepository) hasExternal(userID primitive.ObjectID, externalID string) bool {
	for _, a := range r.activities {
		if a.UserID == userID && a.ExternalID == externalID {
			return true
		}
	}
	return false
}

func (r *ActivityRepository) ListByUserRange(_ context.Context, userID primitive.ObjectID, from, to string) ([]domain.CompletedActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.CompletedActivity{}
	for _, a := range r.activities {
		if a.UserID == userID && inRange(a.Date, from, to) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func inRange(date, from, to string) bool {
	return (from == "" || date >= from) && (to == "" || date <= to)
}
