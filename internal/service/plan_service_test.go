package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/generator"
	"alcyxob/endurance-planner/internal/metrics"
	"alcyxob/endurance-planner/internal/planner"
	"alcyxob/endurance-planner/internal/repository/memory"
	"alcyxob/endurance-planner/internal/service"
	"alcyxob/endurance-planner/internal/storage"
)

// Monday 2025-03-03; a race on Sunday 2025-03-30 gives a four week plan.
var (
	fixedNow = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	raceDate = time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)
)

// stubValidator replays results in order, then accepts everything.
type stubValidator struct {
	mu      sync.Mutex
	results []planner.ValidationResult
	calls   int
}

func (v *stubValidator) Validate(_ planner.WeekContent, _ planner.ValidationInput) planner.ValidationResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.calls
	v.calls++
	if i < len(v.results) {
		return v.results[i]
	}
	return planner.ValidationResult{OK: true, Summary: domain.WeekSummary{TotalMinutes: 175, LongRunMinutes: 90}}
}

type planFixture struct {
	svc      service.PlanService
	plans    *memory.PlanRepository
	sessions *memory.SessionRepository
	archive  *storage.MemoryStorage
	userID   primitive.ObjectID
}

func newPlanFixture(t *testing.T, gen generator.WeekGenerator, validator service.WeekValidator) *planFixture {
	t.Helper()
	f := &planFixture{
		plans:    memory.NewPlanRepository(),
		sessions: memory.NewSessionRepository(),
		archive:  storage.NewMemoryStorage(),
		userID:   primitive.NewObjectID(),
	}
	f.svc = service.NewPlanService(service.PlanServiceDeps{
		Plans:     f.plans,
		Sessions:  f.sessions,
		Generator: gen,
		Validator: validator,
		Archive:   f.archive,
		Metrics:   metrics.NewTestManager(),
		Now:       func() time.Time { return fixedNow },
	}, service.PlanServiceConfig{
		MaxParseAttempts:      2,
		MaxValidationAttempts: 2,
		GenerationTimeout:     time.Minute,
		MaxConcurrentRuns:     2,
		ArchivePrefix:         "plans",
		PresignExpiry:         time.Minute,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, f.svc.Shutdown(ctx))
	})
	return f
}

func marathonInput() service.StartPlanInput {
	return service.StartPlanInput{
		RaceType:       "Spring Marathon",
		RaceDate:       raceDate,
		Experience:     "intermediate",
		MaxWeeklyHours: 6,
		RestDay:        time.Monday,
		LongRunDay:     time.Sunday,
	}
}

// weekFor answers every request with three runs on canonical dates.
func weekFor(_ context.Context, req generator.WeekRequest) (*generator.GeneratedWeek, error) {
	keys := planner.CanonicalDateKeys(req.Week.StartDate)
	return &generator.GeneratedWeek{
		Label:     req.Week.Label,
		Phase:     string(req.Week.Phase),
		StartDate: keys[0],
		Days: planner.WeekContent{
			{Date: keys[0], Items: []string{"🛌 Rest"}},
			{Date: keys[1], Items: []string{"🏃 Easy run 40 min — relaxed with strides"}},
			{Date: keys[3], Items: []string{"🏃 Tempo 45 min — 3x8 min threshold"}},
			{Date: keys[6], Items: []string{"🏃 Long run 90 min — easy"}},
		},
	}, nil
}

func (f *planFixture) waitForStatus(t *testing.T, planID primitive.ObjectID, status domain.PlanStatus) *domain.TrainingPlan {
	t.Helper()
	var plan *domain.TrainingPlan
	require.Eventually(t, func() bool {
		p, err := f.plans.GetByID(context.Background(), planID)
		if err != nil {
			return false
		}
		plan = p
		return p.Status == status
	}, 5*time.Second, 10*time.Millisecond)
	return plan
}

func TestStartPlan_Succeeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockWeekGenerator(ctrl)
	gen.EXPECT().GenerateWeek(gomock.Any(), gomock.Any()).DoAndReturn(weekFor).Times(4)

	f := newPlanFixture(t, gen, &stubValidator{})
	ctx := context.Background()

	previous := &domain.TrainingPlan{UserID: f.userID, Name: "old", Status: domain.PlanStatusActive}
	_, err := f.plans.Create(ctx, previous)
	require.NoError(t, err)

	plan, err := f.svc.StartPlan(ctx, f.userID, marathonInput())
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusGenerating, plan.Status)
	assert.Equal(t, 4, plan.TotalWeeks)
	assert.Equal(t, domain.RaceMarathon, plan.Profile.RaceFamily)
	assert.NotEmpty(t, plan.RunID)

	f.waitForStatus(t, plan.ID, domain.PlanStatusActive)
	// the archive key is the last write of a successful run
	require.Eventually(t, func() bool {
		p, _ := f.plans.GetByID(ctx, plan.ID)
		return p != nil && p.ArchiveKey != ""
	}, 5*time.Second, 10*time.Millisecond)
	done, err := f.plans.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, done.Weeks, 4)
	assert.Equal(t, domain.PhaseTaper, done.Weeks[3].Phase)
	assert.Equal(t, 1, done.Weeks[0].Attempts)
	assert.Equal(t, 175, done.Weeks[2].Summary.TotalMinutes)
	require.NotNil(t, done.CompletedAt)

	sessions, err := f.sessions.ListByPlanRange(ctx, plan.ID, "", "")
	require.NoError(t, err)
	// 3 runs per week plus the race day entry
	require.Len(t, sessions, 13)
	last := sessions[len(sessions)-1]
	assert.Equal(t, "2025-03-30", last.Date)
	for _, s := range sessions {
		assert.Equal(t, f.userID, s.UserID)
		assert.Equal(t, domain.SessionPlanned, s.Status)
	}

	old, err := f.plans.GetByID(ctx, previous.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusArchived, old.Status)

	active, err := f.svc.GetActivePlan(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, active.ID)

	body, ok := f.archive.Object(done.ArchiveKey)
	require.True(t, ok)
	var decoded struct {
		Sessions []domain.Session `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Len(t, decoded.Sessions, 13)

	url, err := f.svc.ArchiveURL(ctx, f.userID, plan.ID)
	require.NoError(t, err)
	assert.Contains(t, url, done.ArchiveKey)
}

func TestStartPlan_ViolationsAreFedBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockWeekGenerator(ctrl)
	violation := "Back-to-back hard run days: 2025-03-04 and 2025-03-05"

	gomock.InOrder(
		gen.EXPECT().GenerateWeek(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req generator.WeekRequest) (*generator.GeneratedWeek, error) {
				assert.Empty(t, req.Violations)
				assert.Equal(t, 1, req.Attempt)
				return weekFor(ctx, req)
			}),
		gen.EXPECT().GenerateWeek(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req generator.WeekRequest) (*generator.GeneratedWeek, error) {
				assert.Equal(t, []string{violation}, req.Violations)
				assert.Equal(t, 2, req.Attempt)
				return weekFor(ctx, req)
			}),
	)

	validator := &stubValidator{results: []planner.ValidationResult{
		{Errors: []string{violation}, FailedRules: []string{"back-to-back-hard"}},
	}}
	f := newPlanFixture(t, gen, validator)

	in := marathonInput()
	in.RaceDate = time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) // same week: a single taper week
	plan, err := f.svc.StartPlan(context.Background(), f.userID, in)
	require.NoError(t, err)
	require.Equal(t, 1, plan.TotalWeeks)

	done := f.waitForStatus(t, plan.ID, domain.PlanStatusActive)
	require.Len(t, done.Weeks, 1)
	assert.Equal(t, 2, done.Weeks[0].Attempts)
}

func TestStartPlan_ParseFailuresKeepPreviousPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockWeekGenerator(ctrl)
	gen.EXPECT().GenerateWeek(gomock.Any(), gomock.Any()).
		Return(nil, &generator.GenerationError{Kind: generator.KindParse, Err: errors.New("no JSON object in response")}).
		Times(2)

	f := newPlanFixture(t, gen, &stubValidator{})
	ctx := context.Background()

	previous := &domain.TrainingPlan{UserID: f.userID, Name: "old", Status: domain.PlanStatusActive}
	_, err := f.plans.Create(ctx, previous)
	require.NoError(t, err)

	plan, err := f.svc.StartPlan(ctx, f.userID, marathonInput())
	require.NoError(t, err)

	failed := f.waitForStatus(t, plan.ID, domain.PlanStatusFailed)
	assert.Contains(t, failed.FailureReason, "Week 1")
	assert.Empty(t, failed.Weeks)

	active, err := f.svc.GetActivePlan(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, previous.ID, active.ID)

	sessions, err := f.sessions.ListByPlanRange(ctx, plan.ID, "", "")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStartPlan_ValidationBudgetExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockWeekGenerator(ctrl)
	gen.EXPECT().GenerateWeek(gomock.Any(), gomock.Any()).DoAndReturn(weekFor).Times(2)

	rejected := planner.ValidationResult{Errors: []string{"Long run 140 min exceeds max 105 min"}, FailedRules: []string{"long-run-max"}}
	f := newPlanFixture(t, gen, &stubValidator{results: []planner.ValidationResult{rejected, rejected}})

	plan, err := f.svc.StartPlan(context.Background(), f.userID, marathonInput())
	require.NoError(t, err)

	failed := f.waitForStatus(t, plan.ID, domain.PlanStatusFailed)
	assert.Contains(t, failed.FailureReason, "rejected after 2 attempts")
	assert.Contains(t, failed.FailureReason, "exceeds max 105 min")
}

func TestStartPlan_OneRunPerUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockWeekGenerator(ctrl)
	release := make(chan struct{})
	gen.EXPECT().GenerateWeek(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req generator.WeekRequest) (*generator.GeneratedWeek, error) {
			<-release
			return weekFor(ctx, req)
		}).AnyTimes()

	f := newPlanFixture(t, gen, &stubValidator{})
	ctx := context.Background()

	first, err := f.svc.StartPlan(ctx, f.userID, marathonInput())
	require.NoError(t, err)

	_, err = f.svc.StartPlan(ctx, f.userID, marathonInput())
	assert.ErrorIs(t, err, service.ErrGenerationInProgress)

	// other users are not blocked
	other, err := f.svc.StartPlan(ctx, primitive.NewObjectID(), marathonInput())
	require.NoError(t, err)

	close(release)
	f.waitForStatus(t, first.ID, domain.PlanStatusActive)
	f.waitForStatus(t, other.ID, domain.PlanStatusActive)

	require.Eventually(t, func() bool {
		_, err := f.svc.StartPlan(ctx, f.userID, marathonInput())
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStartPlan_ShutdownCancelsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockWeekGenerator(ctrl)
	started := make(chan struct{})
	gen.EXPECT().GenerateWeek(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ generator.WeekRequest) (*generator.GeneratedWeek, error) {
			close(started)
			<-ctx.Done()
			return nil, &generator.GenerationError{Kind: generator.KindTransport, Err: ctx.Err()}
		}).Times(1)

	f := newPlanFixture(t, gen, &stubValidator{})
	plan, err := f.svc.StartPlan(context.Background(), f.userID, marathonInput())
	require.NoError(t, err)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.svc.Shutdown(ctx))

	failed, err := f.plans.GetByID(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusFailed, failed.Status)
	assert.Contains(t, failed.FailureReason, "context canceled")

	_, err = f.svc.StartPlan(context.Background(), f.userID, marathonInput())
	assert.ErrorIs(t, err, service.ErrShuttingDown)
}

func TestShutdown_WaitsForAcceptedRuns(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := NewMockWeekGenerator(ctrl)
	gen.EXPECT().GenerateWeek(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ generator.WeekRequest) (*generator.GeneratedWeek, error) {
			<-ctx.Done()
			return nil, &generator.GenerationError{Kind: generator.KindTransport, Err: ctx.Err()}
		}).AnyTimes()

	f := newPlanFixture(t, gen, &stubValidator{})

	const users = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []primitive.ObjectID
	)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plan, err := f.svc.StartPlan(context.Background(), primitive.NewObjectID(), marathonInput())
			if err != nil {
				assert.ErrorIs(t, err, service.ErrShuttingDown)
				return
			}
			mu.Lock()
			accepted = append(accepted, plan.ID)
			mu.Unlock()
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.svc.Shutdown(ctx))
	wg.Wait()

	// every run accepted before Shutdown returned has already recorded its outcome
	for _, id := range accepted {
		p, err := f.plans.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanStatusFailed, p.Status, "plan %s", id.Hex())
	}
}

func TestStartPlan_RejectsInvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newPlanFixture(t, NewMockWeekGenerator(ctrl), &stubValidator{})
	ctx := context.Background()

	in := marathonInput()
	in.RaceType = "ultra trail"
	_, err := f.svc.StartPlan(ctx, f.userID, in)
	assert.ErrorIs(t, err, service.ErrInvalidProfile)

	in = marathonInput()
	in.RaceDate = fixedNow.AddDate(0, 0, -1)
	_, err = f.svc.StartPlan(ctx, f.userID, in)
	assert.ErrorIs(t, err, service.ErrInvalidRaceDate)

	in = marathonInput()
	in.RaceDate = fixedNow.AddDate(2, 0, 0)
	_, err = f.svc.StartPlan(ctx, f.userID, in)
	assert.ErrorIs(t, err, service.ErrRaceTooFar)

	in = marathonInput()
	in.RestDay = time.Sunday
	_, err = f.svc.StartPlan(ctx, f.userID, in)
	assert.ErrorIs(t, err, service.ErrInvalidProfile)
}

func TestPlanAccessIsScopedToOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newPlanFixture(t, NewMockWeekGenerator(ctrl), &stubValidator{})
	ctx := context.Background()

	plan := &domain.TrainingPlan{UserID: f.userID, Name: "mine", Status: domain.PlanStatusActive}
	_, err := f.plans.Create(ctx, plan)
	require.NoError(t, err)
	require.NoError(t, f.sessions.InsertMany(ctx, []domain.Session{
		{UserID: f.userID, PlanID: plan.ID, Date: "2025-03-04", Sport: domain.SportRun, Status: domain.SessionPlanned},
	}))
	sessions, err := f.svc.ListSessions(ctx, f.userID, plan.ID, "", "")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	stranger := primitive.NewObjectID()
	_, err = f.svc.GetPlan(ctx, stranger, plan.ID)
	assert.ErrorIs(t, err, service.ErrPlanNotFound)
	_, err = f.svc.ListSessions(ctx, stranger, plan.ID, "", "")
	assert.ErrorIs(t, err, service.ErrPlanNotFound)
	_, err = f.svc.UpdateSessionStatus(ctx, stranger, sessions[0].ID, domain.SessionDone)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	_, err = f.svc.UpdateSessionStatus(ctx, f.userID, sessions[0].ID, "finished")
	assert.ErrorIs(t, err, service.ErrInvalidStatus)

	updated, err := f.svc.UpdateSessionStatus(ctx, f.userID, sessions[0].ID, domain.SessionSkipped)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionSkipped, updated.Status)

	_, err = f.svc.ArchiveURL(ctx, f.userID, plan.ID)
	assert.ErrorIs(t, err, service.ErrArchiveUnavailable)
}
