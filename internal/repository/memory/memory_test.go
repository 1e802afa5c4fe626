package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/endurance-planner/internal/domain"
	"alcyxob/endurance-planner/internal/repository"
	"alcyxob/endurance-planner/internal/repository/memory"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	id, err := repo.Create(ctx, &domain.User{Name: "Ana", Email: "Ana@Example.com", PasswordHash: "x"})
	require.NoError(t, err)

	u, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)

	_, err = repo.Create(ctx, &domain.User{Email: "ana@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = repo.GetByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPlanRepository_ActiveAndArchive(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPlanRepository()
	user := primitive.NewObjectID()

	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	first := &domain.TrainingPlan{UserID: user, Name: "A", Status: domain.PlanStatusActive, CompletedAt: &older}
	second := &domain.TrainingPlan{UserID: user, Name: "B", Status: domain.PlanStatusActive, CompletedAt: &newer}
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)

	active, err := repo.GetActiveByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	require.NoError(t, repo.ArchiveOtherPlansForUser(ctx, user, second.ID))
	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusArchived, got.Status)

	_, err = repo.GetActiveByUser(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewSessionRepository()
	planA, planB := primitive.NewObjectID(), primitive.NewObjectID()

	require.NoError(t, repo.InsertMany(ctx, []domain.Session{
		{PlanID: planA, Date: "2025-03-05", Status: domain.SessionPlanned},
		{PlanID: planA, Date: "2025-03-03", Status: domain.SessionPlanned},
		{PlanID: planB, Date: "2025-03-04", Status: domain.SessionDone},
	}))

	list, err := repo.ListByPlanRange(ctx, planA, "2025-03-01", "2025-03-04")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-03-03", list[0].Date)

	pending, err := repo.ListPlannedBefore(ctx, "2025-03-06", 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "2025-03-03", pending[0].Date)

	require.NoError(t, repo.UpdateStatus(ctx, pending[0].ID, domain.SessionMissed))
	s, err := repo.GetByID(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionMissed, s.Status)

	n, err := repo.DeleteByPlan(ctx, planA)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, pending[0].ID, domain.SessionDone), repository.ErrNotFound)
}

func TestActivityRepository_DedupesExternalIDs(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewActivityRepository()
	user := primitive.NewObjectID()

	n, err := repo.InsertMany(ctx, []domain.CompletedActivity{
		{UserID: user, ExternalID: "strava-1", Date: "2025-03-03"},
		{UserID: user, ExternalID: "strava-1", Date: "2025-03-03"},
		{UserID: user, Date: "2025-03-04"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := repo.ListByUserRange(ctx, user, "2025-03-04", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
