package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/generator"
	"alcyxob/endurance-planner/internal/metrics"
	"alcyxob/endurance-planner/internal/planner"
	"alcyxob/endurance-planner/internal/repository"
	"alcyxob/endurance-planner/internal/storage"
)

// maxPlanWeeks caps the horizon of one macrocycle.
const maxPlanWeeks = 52

var (
	ErrInvalidProfile       = errors.New("invalid athlete profile")
	ErrInvalidRaceDate      = errors.New("race date must be after the plan start date")
	ErrRaceTooFar           = fmt.Errorf("race is more than %d weeks away", maxPlanWeeks)
	ErrGenerationInProgress = errors.New("a plan generation is already running for this user")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrInvalidStatus        = errors.New("invalid session status")
	ErrArchiveUnavailable   = errors.New("plan archive is not available")
	ErrShuttingDown         = errors.New("service is shutting down")
)

// WeekGenerationError is a fatal failure of one week; it aborts the whole run.
type WeekGenerationError struct {
	Week       string
	Attempts   int
	Violations []string
	Err        error
}

func (e *WeekGenerationError) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("%s rejected after %d attempts: %s", e.Week, e.Attempts, strings.Join(e.Violations, "; "))
	}
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Week, e.Attempts, e.Err)
}

func (e *WeekGenerationError) Unwrap() error {
	return e.Err
}

// StartPlanInput is the raw athlete request. Free-form fields are normalized by StartPlan.
type StartPlanInput struct {
	Name           string
	RaceType       string
	RaceName       string
	RaceDate       time.Time
	StartDate      time.Time // zero means today
	Experience     string
	MaxWeeklyHours float64
	RestDay        time.Weekday
	LongRunDay     time.Weekday
	BrickDays      []time.Weekday
	Thresholds     domain.Thresholds
	Preferences    string
}

type PlanService interface {
	// StartPlan validates the request, stores a generating plan and synthesizes it in the background.
	StartPlan(ctx context.Context, userID primitive.ObjectID, in StartPlanInput) (*domain.TrainingPlan, error)
	GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.TrainingPlan, error)
	GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error)
	ListPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error)
	ListSessions(ctx context.Context, userID, planID primitive.ObjectID, from, to string) ([]domain.Session, error)
	UpdateSessionStatus(ctx context.Context, userID, sessionID primitive.ObjectID, status domain.SessionStatus) (*domain.Session, error)
	ArchiveURL(ctx context.Context, userID, planID primitive.ObjectID) (string, error)
	// Shutdown cancels running generations and waits for them to record their outcome.
	Shutdown(ctx context.Context) error
}

// WeekValidator is satisfied by *planner.Validator.
type WeekValidator interface {
	Validate(content planner.WeekContent, in planner.ValidationInput) planner.ValidationResult
}

type PlanServiceConfig struct {
	MaxParseAttempts      int
	MaxValidationAttempts int
	GenerationTimeout     time.Duration
	MaxConcurrentRuns     int
	ArchivePrefix         string
	PresignExpiry         time.Duration
}

type PlanServiceDeps struct {
	Plans     repository.PlanRepository
	Sessions  repository.SessionRepository
	Generator generator.WeekGenerator
	Validator WeekValidator       // defaults to planner.NewValidator()
	Archive   storage.FileStorage // optional
	Metrics   *metrics.Manager
	Now       func() time.Time
}

type planService struct {
	plans     repository.PlanRepository
	sessions  repository.SessionRepository
	generator generator.WeekGenerator
	validator WeekValidator
	archive   storage.FileStorage
	metrics   *metrics.Manager
	now       func() time.Time
	cfg       PlanServiceConfig

	sem      chan struct{}
	mu       sync.Mutex
	inFlight map[primitive.ObjectID]struct{}
	closed   bool
	wg       sync.WaitGroup
	baseCtx  context.Context
	cancel   context.CancelFunc
}

func NewPlanService(deps PlanServiceDeps, cfg PlanServiceConfig) PlanService {
	if cfg.MaxParseAttempts < 1 {
		cfg.MaxParseAttempts = 3
	}
	if cfg.MaxValidationAttempts < 1 {
		cfg.MaxValidationAttempts = 3
	}
	if cfg.MaxConcurrentRuns < 1 {
		cfg.MaxConcurrentRuns = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 20 * time.Minute
	}
	if deps.Validator == nil {
		deps.Validator = planner.NewValidator()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewTestManager()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	return &planService{
		plans:     deps.Plans,
		sessions:  deps.Sessions,
		generator: deps.Generator,
		validator: deps.Validator,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		now:       deps.Now,
		cfg:       cfg,
		sem:       make(chan struct{}, cfg.MaxConcurrentRuns),
		inFlight:  make(map[primitive.ObjectID]struct{}),
		baseCtx:   baseCtx,
		cancel:    cancel,
	}
}

func (s *planService) StartPlan(ctx context.Context, userID primitive.ObjectID, in StartPlanInput) (*domain.TrainingPlan, error) {
	profile, err := buildProfile(in)
	if err != nil {
		return nil, err
	}

	start := planner.DateOnly(in.StartDate)
	if in.StartDate.IsZero() {
		start = planner.DateOnly(s.now())
	}
	if !profile.RaceDate.After(start) {
		return nil, ErrInvalidRaceDate
	}
	totalWeeks := planner.WeeksUntilRace(start, profile.RaceDate)
	if totalWeeks > maxPlanWeeks {
		return nil, ErrRaceTooFar
	}

	if err := s.acquireUser(userID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = fmt.Sprintf("%s plan (%s)", raceLabel(profile), profile.RaceDate.Format(planner.DateLayout))
	}
	plan := &domain.TrainingPlan{
		UserID:     userID,
		RunID:      uuid.NewString(),
		Name:       name,
		Profile:    profile,
		StartDate:  planner.MondayOf(start),
		RaceDate:   profile.RaceDate,
		TotalWeeks: totalWeeks,
		Status:     domain.PlanStatusGenerating,
	}
	if _, err := s.plans.Create(ctx, plan); err != nil {
		s.releaseUser(userID)
		s.wg.Done()
		return nil, fmt.Errorf("create plan: %w", err)
	}

	s.metrics.CounterPlansStarted.Inc()
	logrus.WithFields(logrus.Fields{
		"plan_id": plan.ID.Hex(),
		"user_id": userID.Hex(),
		"run_id":  plan.RunID,
		"weeks":   totalWeeks,
	}).Info("plan generation queued")

	// the run owns its own copy; the caller may serialize plan concurrently
	runPlan := *plan
	go s.run(&runPlan)

	return plan, nil
}

func buildProfile(in StartPlanInput) (domain.AthleteProfile, error) {
	family, ok := domain.ParseRaceFamily(in.RaceType)
	if !ok {
		return domain.AthleteProfile{}, fmt.Errorf("%w: unknown race type %q", ErrInvalidProfile, in.RaceType)
	}
	if in.RaceDate.IsZero() {
		return domain.AthleteProfile{}, fmt.Errorf("%w: race date is required", ErrInvalidProfile)
	}
	if in.MaxWeeklyHours < 0 {
		return domain.AthleteProfile{}, fmt.Errorf("%w: weekly hours must not be negative", ErrInvalidProfile)
	}
	if in.RestDay == in.LongRunDay {
		return domain.AthleteProfile{}, fmt.Errorf("%w: rest day and long run day must differ", ErrInvalidProfile)
	}
	return domain.AthleteProfile{
		RaceFamily:     family,
		RaceName:       strings.TrimSpace(in.RaceName),
		RaceDate:       planner.DateOnly(in.RaceDate),
		Experience:     domain.ParseExperience(in.Experience),
		MaxWeeklyHours: in.MaxWeeklyHours,
		RestDay:        in.RestDay,
		LongRunDay:     in.LongRunDay,
		BrickDays:      in.BrickDays,
		Thresholds:     in.Thresholds,
		Preferences:    strings.TrimSpace(in.Preferences),
	}, nil
}

func raceLabel(p domain.AthleteProfile) string {
	if p.RaceName != "" {
		return p.RaceName
	}
	return string(p.RaceFamily)
}

// acquireUser reserves the user's generation slot and counts the run for Shutdown under one lock.
func (s *planService) acquireUser(userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrShuttingDown
	}
	if _, busy := s.inFlight[userID]; busy {
		return ErrGenerationInProgress
	}
	s.inFlight[userID] = struct{}{}
	s.wg.Add(1)
	return nil
}

func (s *planService) releaseUser(userID primitive.ObjectID) {
	s.mu.Lock()
	delete(s.inFlight, userID)
	s.mu.Unlock()
}

func (s *planService) run(plan *domain.TrainingPlan) {
	defer s.wg.Done()
	defer s.releaseUser(plan.UserID)

	log := logrus.WithFields(logrus.Fields{"plan_id": plan.ID.Hex(), "user_id": plan.UserID.Hex(), "run_id": plan.RunID})
	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.GenerationTimeout)
	defer cancel()

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.fail(plan, fmt.Errorf("waiting for a generation slot: %w", ctx.Err()), log)
		return
	}

	s.metrics.GaugeGenerationsActive.Inc()
	defer s.metrics.GaugeGenerationsActive.Dec()
	started := time.Now()

	weeks, sessions, err := s.synthesize(ctx, plan, log)
	s.metrics.HistPlanGenerationDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.fail(plan, err, log)
		return
	}

	s.activate(plan, weeks, sessions, log)
}

// synthesize folds the macrocycle week by week; each week's targets depend on the previous week's realized summary.
func (s *planService) synthesize(ctx context.Context, plan *domain.TrainingPlan, log *logrus.Entry) ([]domain.PlanWeek, []domain.Session, error) {
	macro := planner.BuildMacrocycle(plan.TotalWeeks, plan.StartDate, plan.RaceDate)

	var (
		prev     domain.WeekSummary
		weeks    = make([]domain.PlanWeek, 0, len(macro))
		sessions []domain.Session
	)
	for _, week := range macro {
		targets := planner.CalculateTargets(plan.Profile, week, prev)

		content, res, attempts, err := s.generateWeek(ctx, plan.Profile, week, targets, prev)
		if err != nil {
			return nil, nil, err
		}

		sessions = append(sessions, planner.Materialize(content, week, plan.UserID, plan.ID)...)
		if race := planner.RaceDaySession(week, plan.Profile, plan.UserID, plan.ID); race != nil {
			sessions = append(sessions, *race)
		}

		weeks = append(weeks, domain.PlanWeek{
			WeekMeta: week,
			Targets:  targets,
			Summary:  res.Summary,
			Attempts: attempts,
			Warnings: res.Warnings,
		})
		prev = res.Summary

		log.WithFields(logrus.Fields{
			"week":     week.Label,
			"phase":    week.Phase,
			"attempts": attempts,
			"minutes":  res.Summary.TotalMinutes,
		}).Debug("week accepted")
	}
	return weeks, sessions, nil
}

// generateWeek runs the bounded regeneration loop for one week. Malformed responses and
// rule violations draw from separate budgets; violations are fed into the next prompt.
func (s *planService) generateWeek(ctx context.Context, profile domain.AthleteProfile, week domain.WeekMeta, targets domain.WeekTargets, prev domain.WeekSummary) (planner.WeekContent, planner.ValidationResult, int, error) {
	var (
		violations       []string
		parseFailures    int
		validationFailed int
		lastErr          error
	)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, planner.ValidationResult{}, attempt - 1, &WeekGenerationError{Week: week.Label, Attempts: attempt - 1, Err: err}
		}

		generated, err := s.generator.GenerateWeek(ctx, generator.WeekRequest{
			Profile:    profile,
			Week:       week,
			Targets:    targets,
			Previous:   prev,
			Violations: violations,
			Attempt:    attempt,
		})
		if err != nil {
			outcome := "transport_error"
			if generator.IsParseError(err) {
				outcome = "parse_error"
			}
			s.metrics.CounterGeneratorAttempts.WithLabelValues(outcome).Inc()
			lastErr = err
			parseFailures++
			if parseFailures >= s.cfg.MaxParseAttempts || ctx.Err() != nil {
				return nil, planner.ValidationResult{}, attempt, &WeekGenerationError{Week: week.Label, Attempts: attempt, Err: lastErr}
			}
			continue
		}

		content := planner.ApplyPlacementGuard(generated.Days, week, profile)
		res := s.validator.Validate(content, planner.ValidationInput{
			Week:    week,
			Targets: targets,
			Profile: profile,
			Prev:    prev,
		})
		if res.OK {
			s.metrics.CounterGeneratorAttempts.WithLabelValues("accepted").Inc()
			return content, res, attempt, nil
		}

		s.metrics.CounterGeneratorAttempts.WithLabelValues("rejected").Inc()
		for _, rule := range res.FailedRules {
			s.metrics.CounterRuleViolations.WithLabelValues(rule).Inc()
		}
		violations = res.Errors
		validationFailed++
		if validationFailed >= s.cfg.MaxValidationAttempts {
			return nil, res, attempt, &WeekGenerationError{Week: week.Label, Attempts: attempt, Violations: res.Errors}
		}
	}
}

// fail records the failure; any previously active plan stays active.
func (s *planService) fail(plan *domain.TrainingPlan, cause error, log *logrus.Entry) {
	s.metrics.CounterPlansFinished.WithLabelValues("failed").Inc()
	log.WithError(cause).Error("plan generation failed")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.baseCtx), 10*time.Second)
	defer cancel()

	now := s.now().UTC()
	plan.Status = domain.PlanStatusFailed
	plan.FailureReason = cause.Error()
	plan.CompletedAt = &now
	if err := s.plans.Update(ctx, plan); err != nil {
		log.WithError(err).Error("failed to record plan failure")
	}
}

// activate persists sessions best effort, then promotes the plan. Session or archive errors
// are logged; they never demote a validated plan.
func (s *planService) activate(plan *domain.TrainingPlan, weeks []domain.PlanWeek, sessions []domain.Session, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.baseCtx), 30*time.Second)
	defer cancel()

	if err := s.replaceSessions(ctx, plan.ID, sessions); err != nil {
		log.WithError(err).Error("session persistence incomplete")
	}

	now := s.now().UTC()
	plan.Status = domain.PlanStatusActive
	plan.Weeks = weeks
	plan.FailureReason = ""
	plan.CompletedAt = &now
	if err := s.plans.Update(ctx, plan); err != nil {
		s.metrics.CounterPlansFinished.WithLabelValues("failed").Inc()
		log.WithError(err).Error("failed to activate plan")
		return
	}
	if err := s.plans.ArchiveOtherPlansForUser(ctx, plan.UserID, plan.ID); err != nil {
		log.WithError(err).Warn("failed to archive previous plans")
	}

	if key, err := s.archivePlan(ctx, plan, sessions); err != nil {
		log.WithError(err).Warn("plan archive upload failed")
	} else if key != "" {
		plan.ArchiveKey = key
		if err := s.plans.Update(ctx, plan); err != nil {
			log.WithError(err).Warn("failed to record archive key")
		}
	}

	s.metrics.CounterPlansFinished.WithLabelValues("succeeded").Inc()
	log.WithField("sessions", len(sessions)).Info("plan generation succeeded")
}

// replaceSessions clears whatever an earlier run left under the plan id, then inserts the batch.
func (s *planService) replaceSessions(ctx context.Context, planID primitive.ObjectID, sessions []domain.Session) error {
	var errs error
	if _, err := s.sessions.DeleteByPlan(ctx, planID); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delete sessions: %w", err))
	}
	if err := s.sessions.InsertMany(ctx, sessions); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("insert sessions: %w", err))
	}
	return errs
}

type planArchive struct {
	Plan     *domain.TrainingPlan `json:"plan"`
	Sessions []domain.Session     `json:"sessions"`
}

func (s *planService) archivePlan(ctx context.Context, plan *domain.TrainingPlan, sessions []domain.Session) (string, error) {
	if s.archive == nil {
		return "", nil
	}
	body, err := json.Marshal(planArchive{Plan: plan, Sessions: sessions})
	if err != nil {
		return "", fmt.Errorf("marshal archive: %w", err)
	}
	key := fmt.Sprintf("%s/%s/%s-%s.json", strings.Trim(s.cfg.ArchivePrefix, "/"), plan.UserID.Hex(), plan.ID.Hex(), uuid.NewString())
	if err := s.archive.PutObject(ctx, key, "application/json", body); err != nil {
		return "", err
	}
	return key, nil
}

func (s *planService) GetPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	if plan.UserID != userID {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *planService) GetActivePlan(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPlan, error) {
	plan, err := s.plans.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get active plan: %w", err)
	}
	return plan, nil
}

func (s *planService) ListPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingPlan, error) {
	return s.plans.ListByUser(ctx, userID)
}

func (s *planService) ListSessions(ctx context.Context, userID, planID primitive.ObjectID, from, to string) ([]domain.Session, error) {
	if _, err := s.GetPlan(ctx, userID, planID); err != nil {
		return nil, err
	}
	return s.sessions.ListByPlanRange(ctx, planID, from, to)
}

func (s *planService) UpdateSessionStatus(ctx context.Context, userID, sessionID primitive.ObjectID, status domain.SessionStatus) (*domain.Session, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	if err := s.sessions.UpdateStatus(ctx, sessionID, status); err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	session.Status = status
	return session, nil
}

func (s *planService) ArchiveURL(ctx context.Context, userID, planID primitive.ObjectID) (string, error) {
	plan, err := s.GetPlan(ctx, userID, planID)
	if err != nil {
		return "", err
	}
	if s.archive == nil || plan.ArchiveKey == "" {
		return "", ErrArchiveUnavailable
	}
	return s.archive.GeneratePresignedDownloadURL(ctx, plan.ArchiveKey, s.cfg.PresignExpiry)
}

func (s *planService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
