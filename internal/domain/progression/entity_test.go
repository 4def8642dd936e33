package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

func TestNewDefaultCategoryProgress(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	progress, err := NewDefaultCategoryProgress("student-1", now)
	require.NoError(t, err)

	assert.Len(t, progress.Categories, len(Catalog))
	for i, entry := range progress.Categories {
		assert.Equal(t, Catalog[i].ID, entry.ID)
		assert.Equal(t, CategoryPending, entry.Status)
		assert.False(t, entry.Completed)
	}
	assert.Zero(t, progress.CompletedCategories)
	assert.Zero(t, progress.OverallProgress)
}

func TestRecordResultRecomputesDerivedFields(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	progress, err := NewDefaultCategoryProgress("student-1", now)
	require.NoError(t, err)

	entry, previous, err := progress.RecordResult("asm-reading-fluency", 80, true, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, CategoryPending, previous)
	assert.Equal(t, CategoryFluency, entry.ID)
	assert.Equal(t, CategoryCompleted, entry.Status)
	assert.True(t, entry.Completed)
	assert.Equal(t, 1, entry.AttemptCount)

	assert.Equal(t, 1, progress.CompletedCategories)
	assert.InDelta(t, 100.0/float64(len(Catalog)), progress.OverallProgress, 1e-9)
}

func TestRecordResultFailedAttempt(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	progress, err := NewDefaultCategoryProgress("student-1", now)
	require.NoError(t, err)

	entry, _, err := progress.RecordResult("asm-phonics-word-study", 40, false, now)
	require.NoError(t, err)
	assert.Equal(t, CategoryInProgress, entry.Status)
	assert.False(t, entry.Completed)
	assert.Zero(t, progress.CompletedCategories)

	// A later failed retake of a completed category does not un-complete it.
	_, _, err = progress.RecordResult("asm-phonics-word-study", 90, true, now)
	require.NoError(t, err)
	entry2, _, err := progress.RecordResult("asm-phonics-word-study", 30, false, now)
	require.NoError(t, err)
	assert.True(t, entry2.Completed)
	assert.Equal(t, CategoryCompleted, entry2.Status)
	assert.Equal(t, 3, entry2.AttemptCount)
	assert.Equal(t, 1, progress.CompletedCategories)
}

func TestRecordResultUnknownAssessment(t *testing.T) {
	now := time.Now()
	progress, err := NewDefaultCategoryProgress("student-1", now)
	require.NoError(t, err)

	_, _, err = progress.RecordResult("asm-ghost", 10, false, now)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOverallProgressInvariantAfterEveryMutation(t *testing.T) {
	now := time.Now()
	progress, err := NewDefaultCategoryProgress("student-1", now)
	require.NoError(t, err)

	for _, def := range Catalog {
		_, _, err := progress.RecordResult(def.MainAssessmentID, 90, true, now)
		require.NoError(t, err)

		expected := float64(progress.CompletedCategories) / float64(len(progress.Categories)) * 100
		assert.InDelta(t, expected, progress.OverallProgress, 1e-9)
	}
	assert.InDelta(t, 100, progress.OverallProgress, 1e-9)
}

func TestProgressionAdvance(t *testing.T) {
	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	progression, err := NewProgression("student-1", LevelTransitioning, start)
	require.NoError(t, err)

	assert.Equal(t, LevelTransitioning, progression.CurrentLevel)
	assert.Equal(t, LevelTransitioning, progression.InitialLevel)
	assert.Equal(t, 1, progression.OpenHistoryEntries())
	assert.Equal(t, LevelAtGradeLevel, progression.Requirements.NextLevel)

	advancedAt := start.AddDate(0, 1, 0)
	require.NoError(t, progression.AdvanceTo(LevelAtGradeLevel, advancedAt))

	assert.Equal(t, LevelAtGradeLevel, progression.CurrentLevel)
	assert.Equal(t, LevelTransitioning, progression.InitialLevel)
	require.Len(t, progression.History, 2)

	// The previous entry is closed in the same mutation.
	require.NotNil(t, progression.History[0].EndedAt)
	assert.Equal(t, advancedAt, *progression.History[0].EndedAt)
	assert.Nil(t, progression.History[1].EndedAt)
	assert.Equal(t, 1, progression.OpenHistoryEntries())

	// Requirements follow the new level.
	assert.True(t, progression.Requirements.IsTerminal())
}

func TestProgressionAdvanceToSameLevelRejected(t *testing.T) {
	progression, err := NewProgression("student-1", LevelDeveloping, time.Now())
	require.NoError(t, err)

	err = progression.AdvanceTo(LevelDeveloping, time.Now())
	assert.ErrorIs(t, err, ErrAdvanceSameLevel)
	assert.Len(t, progression.History, 1)
}

func TestProgressionAdvanceUnknownLevelRejected(t *testing.T) {
	progression, err := NewProgression("student-1", LevelDeveloping, time.Now())
	require.NoError(t, err)

	err = progression.AdvanceTo(ReadingLevel("Superb"), time.Now())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestProgressionSingleOpenEntryAcrossManyAdvances(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	progression, err := NewProgression("student-1", LevelNotAssessed, at)
	require.NoError(t, err)

	path := []ReadingLevel{LevelLowEmerging, LevelHighEmerging, LevelDeveloping, LevelTransitioning, LevelAtGradeLevel}
	for _, next := range path {
		at = at.AddDate(0, 1, 0)
		require.NoError(t, progression.AdvanceTo(next, at))
		assert.Equal(t, 1, progression.OpenHistoryEntries())
	}
	assert.Len(t, progression.History, len(path)+1)
}
