package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ASSESSMENT COMMAND
// The write path of the scoring core. One transaction covers: score the
// submission, update the response, flip the assignment, refresh category
// progress, and advance the reading level when requirements are met.
// Any failure rolls the whole update back; nothing partially persists.
// ══════════════════════════════════════════════════════════════════════════════

// SystemActorID marks automatic changes in the audit log.
const SystemActorID = "system"

// SubmitAssessmentCommand carries one scored submission.
type SubmitAssessmentCommand struct {
	// RawStudentID is any of the supported identifier forms.
	RawStudentID string

	// AssessmentID is the assessment definition id.
	AssessmentID assessment.ID

	// Answers maps question ids to the chosen option.
	Answers assessment.AnswerSet
}

// Validate validates the command. InvalidInput is detected before any
// transaction opens.
func (c SubmitAssessmentCommand) Validate() error {
	if strings.TrimSpace(c.RawStudentID) == "" {
		return shared.ErrEmptyIdentifier
	}
	if !c.AssessmentID.IsValid() {
		return shared.NewDomainError("assessment", "Submit", shared.ErrInvalidInput, "assessment id is required")
	}
	if len(c.Answers) == 0 {
		return shared.ErrNoAnswers
	}
	return nil
}

// SubmitAssessmentResult summarizes the scored submission.
type SubmitAssessmentResult struct {
	StudentID  string
	Percentage float64
	Passed     bool

	// Advanced reports whether the submission triggered a reading-level
	// advancement, and to which level.
	Advanced bool
	NewLevel progression.ReadingLevel
}

// SubmitAssessmentHandler handles SubmitAssessmentCommand.
type SubmitAssessmentHandler struct {
	factory     progression.UnitOfWorkFactory
	definitions assessment.DefinitionSource
	log         *logger.Logger
	clock       clock
}

// NewSubmitAssessmentHandler creates the handler.
func NewSubmitAssessmentHandler(factory progression.UnitOfWorkFactory, definitions assessment.DefinitionSource, log *logger.Logger) *SubmitAssessmentHandler {
	return &SubmitAssessmentHandler{
		factory:     factory,
		definitions: definitions,
		log:         log.With(logger.Component("submit_assessment")),
	}
}

// WithClock overrides the time source. Test-only.
func (h *SubmitAssessmentHandler) WithClock(now clock) *SubmitAssessmentHandler {
	h.clock = now
	return h
}

// Handle scores the submission and propagates the result across the
// response, assignment, category progress, and reading-level records.
func (h *SubmitAssessmentHandler) Handle(ctx context.Context, cmd SubmitAssessmentCommand) (*SubmitAssessmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *SubmitAssessmentResult
	err := runInUnitOfWork(ctx, h.factory, func(ctx context.Context, uow progression.UnitOfWork) error {
		// Step 1: resolve identity.
		resolved, err := student.NewResolver(uow.Students()).Resolve(ctx, cmd.RawStudentID)
		if err != nil {
			return err
		}
		if err := uow.LockStudent(ctx, resolved.ID); err != nil {
			return err
		}

		// Step 2: the response shell must exist.
		response, err := uow.Responses().GetByStudentAndAssessment(ctx, resolved.ID, cmd.AssessmentID)
		if err != nil {
			return err
		}
		if response.Status != assessment.ResponseInProgress {
			return shared.NewDomainError("assessment", "Submit", shared.ErrConflict, "no attempt in progress for this assessment")
		}

		// Step 3: read-only definition.
		definition, err := h.definitions.GetDefinition(ctx, cmd.AssessmentID)
		if err != nil {
			return err
		}

		// Step 4: pure scoring.
		score := assessment.Score(definition, cmd.Answers)

		// Step 5: mutate the response (one mutation per submission).
		now := h.clock.now()
		if err := response.Complete(cmd.Answers, score, now); err != nil {
			return err
		}
		if err := uow.Responses().Save(ctx, response); err != nil {
			return err
		}

		// Step 6: flip the matching assignment entry, when one exists.
		// Assessments can be taken unassigned (e.g., placement runs), so a
		// missing assignment is not an error.
		assignment, err := uow.Assignments().GetByStudentAndAssessment(ctx, resolved.ID, cmd.AssessmentID)
		switch {
		case err == nil:
			assignment.MarkCompleted(now)
			if err := uow.Assignments().Save(ctx, assignment); err != nil {
				return err
			}
		case shared.IsNotFound(err):
			// not assigned; nothing to flip
		default:
			return err
		}

		// Steps 7-8: category progress and conditional advancement.
		advanced, newLevel, err := h.applyProgress(ctx, uow, resolved.ID, definition, score)
		if err != nil {
			return err
		}

		result = &SubmitAssessmentResult{
			StudentID:  resolved.ID,
			Percentage: score.Percentage,
			Passed:     score.Passed,
			Advanced:   advanced,
			NewLevel:   newLevel,
		}
		return nil
	})
	if err != nil {
		return nil, classify("Submit", err)
	}

	h.log.Info("assessment submitted",
		logger.StudentID(result.StudentID),
		logger.AssessmentID(cmd.AssessmentID.String()),
		logger.Percentage(result.Percentage),
		logger.Bool("passed", result.Passed),
		logger.Bool("advanced", result.Advanced),
	)
	return result, nil
}

// applyProgress updates the category entry matching the assessment and,
// when the completed set now satisfies the advancement requirements for
// the student's current level, advances the reading level.
func (h *SubmitAssessmentHandler) applyProgress(ctx context.Context, uow progression.UnitOfWork, studentID string, definition assessment.Definition, score assessment.ScoreResult) (bool, progression.ReadingLevel, error) {
	now := h.clock.now()

	progress, err := uow.Progress().GetByStudent(ctx, studentID)
	if shared.IsNotFound(err) {
		progress, err = progression.NewDefaultCategoryProgress(studentID, now)
	}
	if err != nil {
		return false, "", err
	}

	entry, previousStatus, err := progress.RecordResult(definition.ID, score.Percentage, score.Passed, now)
	if shared.IsNotFound(err) {
		// The assessment is not a category's main assessment (practice or
		// diagnostic content); the response stays recorded, but category
		// and level records are untouched.
		return false, "", nil
	}
	if err != nil {
		return false, "", err
	}
	if err := uow.Progress().Save(ctx, progress); err != nil {
		return false, "", err
	}

	if entry.Status != previousStatus {
		record := &progression.ProfileUpdateRecord{
			ID:            uuid.NewString(),
			StudentID:     studentID,
			Field:         progression.AuditFieldCategoryStatus,
			PreviousValue: string(previousStatus),
			NewValue:      string(entry.Status),
			Reason:        fmt.Sprintf("assessment %s scored %.1f%%", definition.ID, score.Percentage),
			ActorID:       SystemActorID,
			CreatedAt:     now,
		}
		if err := uow.Audit().Append(ctx, record); err != nil {
			return false, "", err
		}
	}

	prog, err := uow.Progressions().GetByStudent(ctx, studentID)
	if shared.IsNotFound(err) {
		prog, err = progression.NewProgression(studentID, progression.DefaultBaselineLevel, now)
		if err == nil {
			err = uow.Progressions().Save(ctx, prog)
		}
	}
	if err != nil {
		return false, "", err
	}

	reqs := prog.Requirements
	if reqs.IsTerminal() || !reqs.Satisfied(progress.CompletedIDs()) {
		return false, "", nil
	}

	previousLevel := prog.CurrentLevel
	if err := prog.AdvanceTo(reqs.NextLevel, now); err != nil {
		return false, "", err
	}
	if err := uow.Progressions().Save(ctx, prog); err != nil {
		return false, "", err
	}

	record := &progression.ProfileUpdateRecord{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		Field:         progression.AuditFieldReadingLevel,
		PreviousValue: previousLevel.String(),
		NewValue:      prog.CurrentLevel.String(),
		Reason:        "advancement requirements met",
		ActorID:       SystemActorID,
		CreatedAt:     now,
	}
	if err := uow.Audit().Append(ctx, record); err != nil {
		return false, "", err
	}

	return true, prog.CurrentLevel, nil
}
