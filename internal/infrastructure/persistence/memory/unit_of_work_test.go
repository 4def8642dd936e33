package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
)

const storeStudentID = "c2c1f1f1-5f7e-4d38-9f00-9b8a4c2d1e0f"

func seededStore() *Store {
	store := NewStore()
	store.SeedStudents(&student.Student{
		ID:       storeStudentID,
		LegacyID: 555,
		Email:    "mia@example.org",
	})
	return store
}

func newResponse(t *testing.T, at time.Time) *assessment.Response {
	t.Helper()
	response, err := assessment.NewResponse("resp-1", storeStudentID, "asm-vocabulary", at)
	require.NoError(t, err)
	return response
}

func TestUnitOfWork_WritesInvisibleUntilCommit(t *testing.T) {
	store := seededStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	writer, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, writer.Responses().Save(ctx, newResponse(t, now)))

	// A parallel reader sees nothing before the commit.
	reader, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = reader.Responses().GetByStudentAndAssessment(ctx, storeStudentID, "asm-vocabulary")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	require.NoError(t, reader.Rollback(ctx))

	require.NoError(t, writer.Commit(ctx))

	after, err := store.Begin(ctx)
	require.NoError(t, err)
	defer after.Rollback(ctx)
	saved, err := after.Responses().GetByStudentAndAssessment(ctx, storeStudentID, "asm-vocabulary")
	require.NoError(t, err)
	assert.Equal(t, assessment.ResponseInProgress, saved.Status)
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	store := seededStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Responses().Save(ctx, newResponse(t, now)))
	require.NoError(t, uow.Rollback(ctx))

	check, err := store.Begin(ctx)
	require.NoError(t, err)
	defer check.Rollback(ctx)
	_, err = check.Responses().GetByStudentAndAssessment(ctx, storeStudentID, "asm-vocabulary")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnitOfWork_ConcurrentWriteConflict(t *testing.T) {
	store := seededStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	first, err := store.Begin(ctx)
	require.NoError(t, err)
	second, err := store.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, first.LockStudent(ctx, storeStudentID))
	require.NoError(t, second.LockStudent(ctx, storeStudentID))

	require.NoError(t, first.Responses().Save(ctx, newResponse(t, now)))
	require.NoError(t, first.Commit(ctx))

	progress, err := progression.NewDefaultCategoryProgress(storeStudentID, now)
	require.NoError(t, err)
	require.NoError(t, second.Progress().Save(ctx, progress))

	err = second.Commit(ctx)
	assert.ErrorIs(t, err, shared.ErrConcurrentModification)
	assert.True(t, shared.IsRetryable(err))

	// The losing transaction left nothing behind.
	check, err := store.Begin(ctx)
	require.NoError(t, err)
	defer check.Rollback(ctx)
	_, err = check.Progress().GetByStudent(ctx, storeStudentID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnitOfWork_DifferentStudentsDoNotConflict(t *testing.T) {
	store := seededStore()
	store.SeedStudents(&student.Student{ID: "other-student", LegacyID: 556, Email: "kim@example.org"})
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	first, err := store.Begin(ctx)
	require.NoError(t, err)
	second, err := store.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, first.LockStudent(ctx, storeStudentID))
	require.NoError(t, second.LockStudent(ctx, "other-student"))

	require.NoError(t, first.Responses().Save(ctx, newResponse(t, now)))
	otherProgress, err := progression.NewDefaultCategoryProgress("other-student", now)
	require.NoError(t, err)
	require.NoError(t, second.Progress().Save(ctx, otherProgress))

	require.NoError(t, first.Commit(ctx))
	require.NoError(t, second.Commit(ctx))
}

func TestUnitOfWork_ReadsOwnPendingWrites(t *testing.T) {
	store := seededStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback(ctx)

	require.NoError(t, uow.Responses().Save(ctx, newResponse(t, now)))
	pending, err := uow.Responses().GetByStudentAndAssessment(ctx, storeStudentID, "asm-vocabulary")
	require.NoError(t, err)
	assert.Equal(t, "resp-1", pending.ID)

	// Mutating the returned copy does not alter the buffered record.
	pending.Status = assessment.ResponseCompleted
	again, err := uow.Responses().GetByStudentAndAssessment(ctx, storeStudentID, "asm-vocabulary")
	require.NoError(t, err)
	assert.Equal(t, assessment.ResponseInProgress, again.Status)
}

func TestUnitOfWork_CommitTwiceFails(t *testing.T) {
	store := seededStore()
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(ctx))
	assert.ErrorIs(t, uow.Commit(ctx), shared.ErrTransactionAborted)
}

func TestUnitOfWork_AuditAppendOnly(t *testing.T) {
	store := seededStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	record := &progression.ProfileUpdateRecord{
		ID:        "audit-1",
		StudentID: storeStudentID,
		Field:     progression.AuditFieldReadingLevel,
		NewValue:  "Developing",
		ActorID:   "system",
		CreatedAt: now,
	}
	require.NoError(t, uow.Audit().Append(ctx, record))
	require.NoError(t, uow.Commit(ctx))

	check, err := store.Begin(ctx)
	require.NoError(t, err)
	defer check.Rollback(ctx)
	records, err := check.Audit().ListByStudent(ctx, storeStudentID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "audit-1", records[0].ID)

	// Callers get copies; the stored record stays intact.
	records[0].NewValue = "tampered"
	fresh, err := check.Audit().ListByStudent(ctx, storeStudentID)
	require.NoError(t, err)
	assert.Equal(t, "Developing", fresh[0].NewValue)
}
