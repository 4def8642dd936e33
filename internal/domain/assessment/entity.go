// Package assessment contains domain entities and business logic for
// assessment definitions, submitted responses, and scoring.
// This is a pure domain layer with zero external dependencies.
package assessment

import (
	"errors"
	"time"
)

// Domain errors for the assessment package.
var (
	ErrInvalidResponseID   = errors.New("assessment: invalid response ID")
	ErrInvalidStudentID    = errors.New("assessment: invalid student ID")
	ErrInvalidAssessmentID = errors.New("assessment: invalid assessment ID")
	ErrAttemptInProgress   = errors.New("assessment: attempt already in progress")
	ErrAttemptNotStarted   = errors.New("assessment: attempt not started")
	ErrCompletionBeforeStart = errors.New("assessment: completion time cannot be before start time")
)

// DefaultPassingThreshold is the pass percentage used when a definition
// does not specify its own.
const DefaultPassingThreshold = 75.0

// ID identifies an assessment definition.
type ID string

// IsValid checks if the assessment ID is valid.
func (id ID) IsValid() bool {
	return id != ""
}

// String returns the string representation of the ID.
func (id ID) String() string {
	return string(id)
}

// QuestionID identifies a question within a definition.
type QuestionID string

// OptionID identifies an answer option within a question.
type OptionID string

// Option is one possible answer for a question. Exactly one option per
// question is marked correct by content authoring.
type Option struct {
	ID      OptionID `json:"id"`
	Text    string   `json:"text"`
	Correct bool     `json:"correct"`
}

// Question is a multiple-choice question with a point value.
type Question struct {
	ID      QuestionID `json:"id"`
	Prompt  string     `json:"prompt"`
	Options []Option   `json:"options"`
	Points  int        `json:"points"` // defaults to 1 if zero
}

// PointValue returns the question's point value, defaulting to 1.
func (q Question) PointValue() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// CorrectOption returns the ID of the option marked correct.
func (q Question) CorrectOption() (OptionID, bool) {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID, true
		}
	}
	return "", false
}

// Definition is a read-only assessment definition owned by content
// authoring. The scoring core never mutates it.
type Definition struct {
	ID         ID         `json:"id"`
	Title      string     `json:"title"`
	CategoryID int        `json:"categoryId"` // legacy numeric skill-category id
	Questions  []Question `json:"questions"`

	// PassingThreshold is the pass percentage; zero means use the default.
	PassingThreshold float64 `json:"passingThreshold"`
}

// Threshold returns the effective passing threshold.
func (d Definition) Threshold() float64 {
	if d.PassingThreshold <= 0 {
		return DefaultPassingThreshold
	}
	return d.PassingThreshold
}

// TotalPossible returns the sum of point values over all questions,
// independent of how many were answered.
func (d Definition) TotalPossible() int {
	total := 0
	for _, q := range d.Questions {
		total += q.PointValue()
	}
	return total
}

// AnswerSet maps question IDs to the chosen option.
type AnswerSet map[QuestionID]OptionID

// ResponseStatus represents the lifecycle state of a response.
type ResponseStatus string

const (
	ResponseInProgress ResponseStatus = "in_progress"
	ResponseCompleted  ResponseStatus = "completed"
)

// Response is the single record for one (student, assessment) pair.
// It is created when the student starts the assessment and mutated once
// per scored submission.
type Response struct {
	ID           string
	StudentID    string
	AssessmentID ID
	Status       ResponseStatus

	Answers     AnswerSet
	StartedAt   time.Time
	CompletedAt *time.Time // nil while in progress

	RawScore      int
	TotalPossible int
	Percentage    float64
	Passed        bool
	AttemptCount  int

	CorrectQuestionIDs   []QuestionID
	IncorrectQuestionIDs []QuestionID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewResponse creates the response shell written by StartAssessment.
func NewResponse(id, studentID string, assessmentID ID, startedAt time.Time) (*Response, error) {
	if id == "" {
		return nil, ErrInvalidResponseID
	}
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}
	if !assessmentID.IsValid() {
		return nil, ErrInvalidAssessmentID
	}

	return &Response{
		ID:           id,
		StudentID:    studentID,
		AssessmentID: assessmentID,
		Status:       ResponseInProgress,
		Answers:      AnswerSet{},
		StartedAt:    startedAt,
		CreatedAt:    startedAt,
		UpdatedAt:    startedAt,
	}, nil
}

// Rearm re-initializes a completed response for a retake. The attempt
// counter is preserved; score fields keep the previous attempt's values
// until the next submission overwrites them.
func (r *Response) Rearm(startedAt time.Time) error {
	if r.Status == ResponseInProgress {
		return ErrAttemptInProgress
	}
	r.Status = ResponseInProgress
	r.StartedAt = startedAt
	r.CompletedAt = nil
	r.UpdatedAt = startedAt
	return nil
}

// Complete applies a scored submission to the response and increments the
// attempt counter.
func (r *Response) Complete(answers AnswerSet, result ScoreResult, completedAt time.Time) error {
	if r.Status != ResponseInProgress {
		return ErrAttemptNotStarted
	}
	if completedAt.Before(r.StartedAt) {
		return ErrCompletionBeforeStart
	}

	r.Status = ResponseCompleted
	r.Answers = answers
	r.CompletedAt = &completedAt
	r.RawScore = result.Raw
	r.TotalPossible = result.TotalPossible
	r.Percentage = result.Percentage
	r.Passed = result.Passed
	r.AttemptCount++
	r.CorrectQuestionIDs = result.CorrectIDs
	r.IncorrectQuestionIDs = result.IncorrectIDs
	r.UpdatedAt = completedAt
	return nil
}

// ElapsedTime returns how long the attempt took. For in-progress
// responses it returns the time since the attempt started.
func (r *Response) ElapsedTime() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}

// AssignmentStatus represents a student's state on an assigned assessment.
type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Assignment tracks that an assessment was assigned to a student.
type Assignment struct {
	ID           string
	AssessmentID ID
	StudentID    string
	Status       AssignmentStatus
	AssignedAt   time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// MarkCompleted flips the assignment to completed. Idempotent: a retake
// keeps the original completion time.
func (a *Assignment) MarkCompleted(at time.Time) {
	if a.Status == AssignmentCompleted {
		return
	}
	a.Status = AssignmentCompleted
	a.CompletedAt = &at
	a.UpdatedAt = at
}
