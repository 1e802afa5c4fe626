package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"

	"alcyxob/endurance-planner/internal/compliance"
	"alcyxob/endurance-planner/internal/metrics"
	"alcyxob/endurance-planner/internal/planner"
	"alcyxob/endurance-planner/internal/repository"
)

const defaultReconcileBatch = 500

// Reconciler closes out past planned sessions against ingested activities on a schedule.
type Reconciler struct {
	sessions   repository.SessionRepository
	activities repository.ActivityRepository
	engine     *compliance.Engine
	metrics    *metrics.Manager
	now        func() time.Time
	batchSize  int

	running sync.Mutex
	cron    *cron.Cron
}

func NewReconciler(sessions repository.SessionRepository, activities repository.ActivityRepository, engine *compliance.Engine, m *metrics.Manager, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	if m == nil {
		m = metrics.NewTestManager()
	}
	return &Reconciler{
		sessions:   sessions,
		activities: activities,
		engine:     engine,
		metrics:    m,
		now:        now,
		batchSize:  defaultReconcileBatch,
	}
}

// Start schedules RunOnce with a cron spec such as "@every 1h".
func (r *Reconciler) Start(spec string) error {
	c := cron.New()
	if err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			logrus.WithError(err).Error("session reconciliation failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule reconciler %q: %w", spec, err)
	}
	c.Start()
	r.cron = c
	logrus.Infof("session reconciler scheduled (%s)", spec)
	return nil
}

func (r *Reconciler) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// RunOnce processes one batch of overdue planned sessions and returns how many changed.
// Overlapping calls return immediately.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	if !r.running.TryLock() {
		logrus.Debug("reconciliation already running, skipping tick")
		return 0, nil
	}
	defer r.running.Unlock()

	today := planner.DateOnly(r.now()).Format(planner.DateLayout)
	pending, err := r.sessions.ListPlannedBefore(ctx, today, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending sessions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	type planSpan struct {
		userID   primitive.ObjectID
		from, to string
	}
	spans := make(map[primitive.ObjectID]*planSpan)
	var order []primitive.ObjectID
	for _, s := range pending {
		span, ok := spans[s.PlanID]
		if !ok {
			span = &planSpan{userID: s.UserID, from: s.Date, to: s.Date}
			spans[s.PlanID] = span
			order = append(order, s.PlanID)
		}
		if s.Date < span.from {
			span.from = s.Date
		}
		if s.Date > span.to {
			span.to = s.Date
		}
	}

	var (
		errs    error
		changed int
	)
	for _, planID := range order {
		span := spans[planID]
		sessions, err := r.sessions.ListByPlanRange(ctx, planID, span.from, span.to)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("plan %s sessions: %w", planID.Hex(), err))
			continue
		}
		acts, err := r.activities.ListByUserRange(ctx, span.userID, span.from, span.to)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("user %s activities: %w", span.userID.Hex(), err))
			continue
		}

		for _, c := range r.engine.Resolve(sessions, acts, today) {
			if err := r.sessions.UpdateStatus(ctx, c.SessionID, c.Status); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("session %s: %w", c.SessionID.Hex(), err))
				continue
			}
			r.metrics.CounterReconciled.WithLabelValues(string(c.Status)).Inc()
			changed++
		}
	}

	logrus.WithFields(logrus.Fields{"pending": len(pending), "changed": changed}).Info("sessions reconciled")
	return changed, errs
}
