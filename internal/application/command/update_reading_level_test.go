package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

func TestUpdateReadingLevel_ManualChange(t *testing.T) {
	f := newFixture(t)

	result, err := f.update.Handle(context.Background(), UpdateReadingLevelCommand{
		RawStudentID: testStudentUUID,
		NewLevel:     "Developing",
		Reason:       "specialist assessment",
		ActorID:      "specialist-7",
	})
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, progression.LevelTransitioning, result.PreviousLevel)
	assert.Equal(t, progression.LevelDeveloping, result.CurrentLevel)
	assert.Equal(t, 1, result.Progression.OpenHistoryEntries())

	records := f.store.AuditRecords()
	require.Len(t, records, 1)
	assert.Equal(t, progression.AuditFieldReadingLevel, records[0].Field)
	assert.Equal(t, "specialist-7", records[0].ActorID)
	assert.Equal(t, "specialist assessment", records[0].Reason)
	assert.Equal(t, "Transitioning", records[0].PreviousValue)
	assert.Equal(t, "Developing", records[0].NewValue)
}

func TestUpdateReadingLevel_SameLevelIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.update.Handle(ctx, UpdateReadingLevelCommand{
		RawStudentID: testStudentUUID,
		NewLevel:     "Developing",
		Reason:       "placement",
		ActorID:      "specialist-7",
	})
	require.NoError(t, err)
	require.True(t, first.Changed)

	second, err := f.update.Handle(ctx, UpdateReadingLevelCommand{
		RawStudentID: testStudentUUID,
		NewLevel:     "developing", // level names are case-insensitive
		Reason:       "duplicate request",
		ActorID:      "specialist-7",
	})
	require.NoError(t, err)

	assert.False(t, second.Changed)
	assert.Equal(t, progression.LevelDeveloping, second.CurrentLevel)
	assert.Len(t, second.Progression.History, len(first.Progression.History))
	assert.Len(t, f.store.AuditRecords(), 1, "no audit record for a no-op")
}

func TestUpdateReadingLevel_DemotionAllowed(t *testing.T) {
	// Manual updates may move in either direction, unlike automatic
	// advancement which only follows the policy table.
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.update.Handle(ctx, UpdateReadingLevelCommand{
		RawStudentID: testStudentUUID,
		NewLevel:     "At Grade Level",
		Reason:       "placement",
		ActorID:      "specialist-7",
	})
	require.NoError(t, err)

	result, err := f.update.Handle(ctx, UpdateReadingLevelCommand{
		RawStudentID: testStudentUUID,
		NewLevel:     "High Emerging",
		Reason:       "re-evaluation after absence",
		ActorID:      "specialist-7",
	})
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, progression.LevelHighEmerging, result.CurrentLevel)
	assert.Equal(t, 1, result.Progression.OpenHistoryEntries())
}

func TestUpdateReadingLevel_UnknownLevelRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.update.Handle(context.Background(), UpdateReadingLevelCommand{
		RawStudentID: testStudentUUID,
		NewLevel:     "Superb",
		Reason:       "typo",
		ActorID:      "specialist-7",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Empty(t, f.store.AuditRecords())
}

func TestUpdateReadingLevel_MissingActorRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.update.Handle(context.Background(), UpdateReadingLevelCommand{
		RawStudentID: testStudentUUID,
		NewLevel:     "Developing",
		Reason:       "placement",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestUpdateReadingLevel_UnknownStudent(t *testing.T) {
	f := newFixture(t)

	_, err := f.update.Handle(context.Background(), UpdateReadingLevelCommand{
		RawStudentID: "unknown@example.org",
		NewLevel:     "Developing",
		Reason:       "placement",
		ActorID:      "specialist-7",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
