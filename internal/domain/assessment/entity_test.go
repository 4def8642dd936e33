package assessment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseLifecycle(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	response, err := NewResponse("resp-1", "student-1", "asm-letters", started)
	require.NoError(t, err)
	assert.Equal(t, ResponseInProgress, response.Status)
	assert.Zero(t, response.AttemptCount)

	completed := started.Add(7 * time.Minute)
	err = response.Complete(AnswerSet{"q1": "a"}, ScoreResult{Raw: 1, TotalPossible: 2, Percentage: 50}, completed)
	require.NoError(t, err)

	assert.Equal(t, ResponseCompleted, response.Status)
	assert.Equal(t, 1, response.AttemptCount)
	require.NotNil(t, response.CompletedAt)
	assert.Equal(t, 7*time.Minute, response.ElapsedTime())

	// Submitting again without re-arming is rejected.
	err = response.Complete(AnswerSet{}, ScoreResult{}, completed.Add(time.Minute))
	assert.ErrorIs(t, err, ErrAttemptNotStarted)
}

func TestResponseRearmPreservesAttempts(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	response, err := NewResponse("resp-1", "student-1", "asm-letters", started)
	require.NoError(t, err)

	// Re-arming an in-progress response is a conflict.
	assert.ErrorIs(t, response.Rearm(started.Add(time.Minute)), ErrAttemptInProgress)

	require.NoError(t, response.Complete(AnswerSet{"q1": "a"}, ScoreResult{Raw: 2, TotalPossible: 2, Percentage: 100, Passed: true}, started.Add(time.Minute)))

	retakeStart := started.Add(time.Hour)
	require.NoError(t, response.Rearm(retakeStart))
	assert.Equal(t, ResponseInProgress, response.Status)
	assert.Nil(t, response.CompletedAt)
	assert.Equal(t, 1, response.AttemptCount)

	require.NoError(t, response.Complete(AnswerSet{"q1": "b"}, ScoreResult{TotalPossible: 2}, retakeStart.Add(time.Minute)))
	assert.Equal(t, 2, response.AttemptCount)
}

func TestResponseCompleteBeforeStartRejected(t *testing.T) {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	response, err := NewResponse("resp-1", "student-1", "asm-letters", started)
	require.NoError(t, err)

	err = response.Complete(AnswerSet{}, ScoreResult{}, started.Add(-time.Second))
	assert.ErrorIs(t, err, ErrCompletionBeforeStart)
}

func TestNewResponseValidation(t *testing.T) {
	now := time.Now()

	_, err := NewResponse("", "student-1", "asm-1", now)
	assert.ErrorIs(t, err, ErrInvalidResponseID)

	_, err = NewResponse("resp-1", "", "asm-1", now)
	assert.ErrorIs(t, err, ErrInvalidStudentID)

	_, err = NewResponse("resp-1", "student-1", "", now)
	assert.ErrorIs(t, err, ErrInvalidAssessmentID)
}

func TestAssignmentMarkCompletedIdempotent(t *testing.T) {
	assigned := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assignment := &Assignment{
		ID:           "asg-1",
		AssessmentID: "asm-letters",
		StudentID:    "student-1",
		Status:       AssignmentAssigned,
		AssignedAt:   assigned,
	}

	first := assigned.AddDate(0, 0, 3)
	assignment.MarkCompleted(first)
	require.NotNil(t, assignment.CompletedAt)
	assert.Equal(t, first, *assignment.CompletedAt)

	// A retake keeps the original completion time.
	assignment.MarkCompleted(first.AddDate(0, 0, 2))
	assert.Equal(t, first, *assignment.CompletedAt)
}
