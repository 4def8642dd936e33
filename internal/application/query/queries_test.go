package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
	"github.com/readbridge-edu/readbridge-progress/internal/infrastructure/persistence/memory"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

const (
	queryStudentUUID  = "0b9954b3-48d5-4f0e-a2bd-24b62b6bb2e1"
	queryStudentEmail = "leo@example.org"
)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestStore() *memory.Store {
	store := memory.NewStore()
	store.SeedStudents(&student.Student{
		ID:       queryStudentUUID,
		LegacyID: 31184,
		Email:    queryStudentEmail,
		FullName: "Leo M.",
		Grade:    "2",
	})
	return store
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: discard{}, Level: logger.LevelError})
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestGetCategoryProgress_FirstAccessCreatesDefault(t *testing.T) {
	store := newTestStore()
	handler := NewGetCategoryProgressHandler(store, testLogger()).WithClock(fixedClock())

	result, err := handler.Handle(context.Background(), GetCategoryProgressQuery{RawStudentID: queryStudentUUID})
	require.NoError(t, err)

	assert.Equal(t, queryStudentUUID, result.StudentID)
	assert.Len(t, result.Categories, len(progression.Catalog))
	assert.Equal(t, len(progression.Catalog), result.TotalCategories)
	assert.Zero(t, result.CompletedCategories)
	assert.Zero(t, result.OverallProgress)
	for i, entry := range result.Categories {
		assert.Equal(t, progression.Catalog[i].ID, entry.ID, "catalog order preserved")
		assert.Equal(t, progression.CategoryPending, entry.Status)
	}

	// The default was persisted, not fabricated per call.
	again, err := handler.Handle(context.Background(), GetCategoryProgressQuery{RawStudentID: queryStudentEmail})
	require.NoError(t, err)
	assert.Equal(t, result.UpdatedAt, again.UpdatedAt)
}

func TestGetCategoryProgress_UnknownStudent(t *testing.T) {
	store := newTestStore()
	handler := NewGetCategoryProgressHandler(store, testLogger())

	_, err := handler.Handle(context.Background(), GetCategoryProgressQuery{RawStudentID: "nobody@example.org"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetCategoryProgress_EmptyIdentifier(t *testing.T) {
	store := newTestStore()
	handler := NewGetCategoryProgressHandler(store, testLogger())

	_, err := handler.Handle(context.Background(), GetCategoryProgressQuery{RawStudentID: "  "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestGetProgression_FirstAccessCreatesBaseline(t *testing.T) {
	store := newTestStore()
	handler := NewGetProgressionHandler(store, testLogger()).WithClock(fixedClock())

	result, err := handler.Handle(context.Background(), GetProgressionQuery{RawStudentID: queryStudentUUID})
	require.NoError(t, err)

	assert.Equal(t, progression.DefaultBaselineLevel, result.CurrentLevel)
	assert.Equal(t, progression.DefaultBaselineLevel, result.InitialLevel)
	require.Len(t, result.History, 1)
	assert.Nil(t, result.History[0].EndedAt)

	reqs := result.Advancement
	assert.Equal(t, progression.LevelTransitioning, reqs.CurrentLevel)
	assert.Equal(t, progression.LevelAtGradeLevel, reqs.NextLevel)
	assert.Equal(t, []int{progression.CategoryFluency, progression.CategoryComprehension}, reqs.RequiredCategoryIDs)
	assert.Empty(t, reqs.CompletedCategoryIDs)
	assert.Equal(t, reqs.RequiredCategoryIDs, reqs.RemainingCategoryIDs)
}

func TestGetProgression_CrossReferencesCompletedCategories(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	now := fixedClock()()

	// Seed a progress record with Reading Fluency completed.
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	progress, err := progression.NewDefaultCategoryProgress(queryStudentUUID, now)
	require.NoError(t, err)
	_, _, err = progress.RecordResult("asm-reading-fluency", 90, true, now)
	require.NoError(t, err)
	require.NoError(t, uow.LockStudent(ctx, queryStudentUUID))
	require.NoError(t, uow.Progress().Save(ctx, progress))
	require.NoError(t, uow.Commit(ctx))

	handler := NewGetProgressionHandler(store, testLogger()).WithClock(fixedClock())
	result, err := handler.Handle(ctx, GetProgressionQuery{RawStudentID: queryStudentUUID})
	require.NoError(t, err)

	assert.Equal(t, []int{progression.CategoryFluency}, result.Advancement.CompletedCategoryIDs)
	assert.Equal(t, []int{progression.CategoryComprehension}, result.Advancement.RemainingCategoryIDs)
}

func TestGetProgression_UnknownStudent(t *testing.T) {
	store := newTestStore()
	handler := NewGetProgressionHandler(store, testLogger())

	_, err := handler.Handle(context.Background(), GetProgressionQuery{RawStudentID: "42424242"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
