package command

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// START ASSESSMENT COMMAND
// Creates (or re-arms) the response shell for a (student, assessment)
// pair and stamps the attempt's start time.
// ══════════════════════════════════════════════════════════════════════════════

// StartAssessmentCommand identifies the student and assessment to start.
type StartAssessmentCommand struct {
	// RawStudentID is any of the supported identifier forms.
	RawStudentID string

	// AssessmentID is the assessment definition id.
	AssessmentID assessment.ID
}

// Validate validates the command.
func (c StartAssessmentCommand) Validate() error {
	if strings.TrimSpace(c.RawStudentID) == "" {
		return shared.ErrEmptyIdentifier
	}
	if !c.AssessmentID.IsValid() {
		return shared.NewDomainError("assessment", "Start", shared.ErrInvalidInput, "assessment id is required")
	}
	return nil
}

// StartAssessmentResult contains the initialized response shell.
type StartAssessmentResult struct {
	Response *assessment.Response
}

// StartAssessmentHandler handles StartAssessmentCommand.
type StartAssessmentHandler struct {
	factory     progression.UnitOfWorkFactory
	definitions assessment.DefinitionSource
	log         *logger.Logger
	clock       clock
}

// NewStartAssessmentHandler creates the handler.
func NewStartAssessmentHandler(factory progression.UnitOfWorkFactory, definitions assessment.DefinitionSource, log *logger.Logger) *StartAssessmentHandler {
	return &StartAssessmentHandler{
		factory:     factory,
		definitions: definitions,
		log:         log.With(logger.Component("start_assessment")),
	}
}

// WithClock overrides the time source. Test-only.
func (h *StartAssessmentHandler) WithClock(now clock) *StartAssessmentHandler {
	h.clock = now
	return h
}

// Handle starts an assessment attempt. Fails with NotFound when the
// student or definition is unknown and with Conflict when an attempt is
// already in progress.
func (h *StartAssessmentHandler) Handle(ctx context.Context, cmd StartAssessmentCommand) (*StartAssessmentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var result *StartAssessmentResult
	err := runInUnitOfWork(ctx, h.factory, func(ctx context.Context, uow progression.UnitOfWork) error {
		resolved, err := student.NewResolver(uow.Students()).Resolve(ctx, cmd.RawStudentID)
		if err != nil {
			return err
		}
		if err := uow.LockStudent(ctx, resolved.ID); err != nil {
			return err
		}

		if _, err := h.definitions.GetDefinition(ctx, cmd.AssessmentID); err != nil {
			return err
		}

		now := h.clock.now()
		response, err := uow.Responses().GetByStudentAndAssessment(ctx, resolved.ID, cmd.AssessmentID)
		switch {
		case err == nil:
			if response.Status == assessment.ResponseInProgress {
				return shared.ErrAssessmentInProgress
			}
			if err := response.Rearm(now); err != nil {
				return err
			}
		case shared.IsNotFound(err):
			response, err = assessment.NewResponse(uuid.NewString(), resolved.ID, cmd.AssessmentID, now)
			if err != nil {
				return err
			}
		default:
			return err
		}

		if err := uow.Responses().Save(ctx, response); err != nil {
			return err
		}
		result = &StartAssessmentResult{Response: response}
		return nil
	})
	if err != nil {
		return nil, classify("Start", err)
	}

	h.log.Info("assessment started",
		logger.StudentID(result.Response.StudentID),
		logger.AssessmentID(cmd.AssessmentID.String()),
		logger.AttemptNumber(result.Response.AttemptCount+1),
	)
	return result, nil
}
