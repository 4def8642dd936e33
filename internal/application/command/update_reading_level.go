package command

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE READING LEVEL COMMAND
// Manual override path for specialists: performs the same
// close-then-append history update as automatic advancement, plus an
// audit record naming the actor and reason.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateReadingLevelCommand carries a manual level change.
type UpdateReadingLevelCommand struct {
	// RawStudentID is any of the supported identifier forms.
	RawStudentID string

	// NewLevel is the target level name; validated against the fixed set.
	NewLevel string

	// Reason documents why the level was changed.
	Reason string

	// ActorID identifies who made the change.
	ActorID string
}

// Validate validates the command and normalizes the level name.
// InvalidInput is detected before any transaction opens.
func (c *UpdateReadingLevelCommand) Validate() (progression.ReadingLevel, error) {
	if strings.TrimSpace(c.RawStudentID) == "" {
		return "", shared.ErrEmptyIdentifier
	}
	level, err := progression.ParseLevel(c.NewLevel)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(c.ActorID) == "" {
		return "", shared.NewDomainError("progression", "Update", shared.ErrInvalidInput, "actor id is required")
	}
	return level, nil
}

// UpdateReadingLevelResult is the progression snapshot after the change.
type UpdateReadingLevelResult struct {
	StudentID     string
	PreviousLevel progression.ReadingLevel
	CurrentLevel  progression.ReadingLevel

	// Changed is false when the requested level equals the current one;
	// in that case nothing was written.
	Changed bool

	Progression *progression.Progression
}

// UpdateReadingLevelHandler handles UpdateReadingLevelCommand.
type UpdateReadingLevelHandler struct {
	factory progression.UnitOfWorkFactory
	log     *logger.Logger
	clock   clock
}

// NewUpdateReadingLevelHandler creates the handler.
func NewUpdateReadingLevelHandler(factory progression.UnitOfWorkFactory, log *logger.Logger) *UpdateReadingLevelHandler {
	return &UpdateReadingLevelHandler{
		factory: factory,
		log:     log.With(logger.Component("update_reading_level")),
	}
}

// WithClock overrides the time source. Test-only.
func (h *UpdateReadingLevelHandler) WithClock(now clock) *UpdateReadingLevelHandler {
	h.clock = now
	return h
}

// Handle applies the manual level change. Setting the current level is a
// no-op: no history entry is appended and no audit record written.
func (h *UpdateReadingLevelHandler) Handle(ctx context.Context, cmd UpdateReadingLevelCommand) (*UpdateReadingLevelResult, error) {
	level, err := cmd.Validate()
	if err != nil {
		return nil, err
	}

	var result *UpdateReadingLevelResult
	err = runInUnitOfWork(ctx, h.factory, func(ctx context.Context, uow progression.UnitOfWork) error {
		resolved, err := student.NewResolver(uow.Students()).Resolve(ctx, cmd.RawStudentID)
		if err != nil {
			return err
		}
		if err := uow.LockStudent(ctx, resolved.ID); err != nil {
			return err
		}

		now := h.clock.now()
		prog, err := uow.Progressions().GetByStudent(ctx, resolved.ID)
		if shared.IsNotFound(err) {
			prog, err = progression.NewProgression(resolved.ID, progression.DefaultBaselineLevel, now)
			if err == nil {
				err = uow.Progressions().Save(ctx, prog)
			}
		}
		if err != nil {
			return err
		}

		previous := prog.CurrentLevel
		if level == previous {
			result = &UpdateReadingLevelResult{
				StudentID:     resolved.ID,
				PreviousLevel: previous,
				CurrentLevel:  previous,
				Changed:       false,
				Progression:   prog,
			}
			return nil
		}

		if err := prog.AdvanceTo(level, now); err != nil {
			return err
		}
		if err := uow.Progressions().Save(ctx, prog); err != nil {
			return err
		}

		record := &progression.ProfileUpdateRecord{
			ID:            uuid.NewString(),
			StudentID:     resolved.ID,
			Field:         progression.AuditFieldReadingLevel,
			PreviousValue: previous.String(),
			NewValue:      level.String(),
			Reason:        cmd.Reason,
			ActorID:       cmd.ActorID,
			CreatedAt:     now,
		}
		if err := uow.Audit().Append(ctx, record); err != nil {
			return err
		}

		result = &UpdateReadingLevelResult{
			StudentID:     resolved.ID,
			PreviousLevel: previous,
			CurrentLevel:  level,
			Changed:       true,
			Progression:   prog,
		}
		return nil
	})
	if err != nil {
		return nil, classify("UpdateReadingLevel", err)
	}

	if result.Changed {
		h.log.Info("reading level updated",
			logger.StudentID(result.StudentID),
			logger.ReadingLevel(result.CurrentLevel.String()),
			logger.String("previous_level", result.PreviousLevel.String()),
			logger.String("actor_id", cmd.ActorID),
		)
	}
	return result, nil
}
