package query

import (
	"context"
	"strings"
	"time"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESSION QUERY
// Returns the student's reading-level snapshot: current and initial
// level, level history, and advancement requirements cross-referenced
// with completed categories. First access creates the record at the
// baseline level.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressionQuery identifies the student.
type GetProgressionQuery struct {
	// RawStudentID is any of the supported identifier forms.
	RawStudentID string
}

// Validate validates the query.
func (q GetProgressionQuery) Validate() error {
	if strings.TrimSpace(q.RawStudentID) == "" {
		return shared.ErrEmptyIdentifier
	}
	return nil
}

// AdvancementView is the requirements block of the snapshot, derived
// from the current level via the policy table and from the category
// progress record.
type AdvancementView struct {
	CurrentLevel         progression.ReadingLevel `json:"currentLevel"`
	NextLevel            progression.ReadingLevel `json:"nextLevel"`
	RequiredCategoryIDs  []int                    `json:"requiredCategoryIds"`
	CompletedCategoryIDs []int                    `json:"completedCategoryIds"`
	RemainingCategoryIDs []int                    `json:"remainingCategoryIds"`
}

// GetProgressionResult is the reading-level snapshot.
type GetProgressionResult struct {
	StudentID    string                          `json:"studentId"`
	CurrentLevel progression.ReadingLevel        `json:"currentReadingLevel"`
	InitialLevel progression.ReadingLevel        `json:"initialReadingLevel"`
	History      []progression.LevelHistoryEntry `json:"levelHistory"`
	Advancement  AdvancementView                 `json:"advancementRequirements"`
	UpdatedAt    time.Time                       `json:"updatedAt"`
}

// GetProgressionHandler handles GetProgressionQuery.
type GetProgressionHandler struct {
	factory progression.UnitOfWorkFactory
	log     *logger.Logger
	clock   func() time.Time
}

// NewGetProgressionHandler creates the handler.
func NewGetProgressionHandler(factory progression.UnitOfWorkFactory, log *logger.Logger) *GetProgressionHandler {
	return &GetProgressionHandler{
		factory: factory,
		log:     log.With(logger.Component("get_progression")),
	}
}

// WithClock overrides the time source. Test-only.
func (h *GetProgressionHandler) WithClock(now func() time.Time) *GetProgressionHandler {
	h.clock = now
	return h
}

func (h *GetProgressionHandler) now() time.Time {
	if h.clock == nil {
		return time.Now().UTC()
	}
	return h.clock()
}

// Handle returns the snapshot, creating the record at the baseline level
// on first access for a student with no assessed level yet.
func (h *GetProgressionHandler) Handle(ctx context.Context, q GetProgressionQuery) (*GetProgressionResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var result *GetProgressionResult
	err := runInUnitOfWork(ctx, h.factory, func(ctx context.Context, uow progression.UnitOfWork) error {
		resolved, err := student.NewResolver(uow.Students()).Resolve(ctx, q.RawStudentID)
		if err != nil {
			return err
		}

		prog, err := uow.Progressions().GetByStudent(ctx, resolved.ID)
		if shared.IsNotFound(err) {
			if err := uow.LockStudent(ctx, resolved.ID); err != nil {
				return err
			}
			prog, err = progression.NewProgression(resolved.ID, progression.DefaultBaselineLevel, h.now())
			if err != nil {
				return err
			}
			if err := uow.Progressions().Save(ctx, prog); err != nil {
				return err
			}
			h.log.Info("created default progression",
				logger.StudentID(resolved.ID),
				logger.ReadingLevel(prog.CurrentLevel.String()),
			)
		} else if err != nil {
			return err
		}

		// Cross-reference the requirements with completed categories. A
		// student without a progress record simply has nothing completed.
		completedIDs := []int{}
		if progress, err := uow.Progress().GetByStudent(ctx, resolved.ID); err == nil {
			completedIDs = progress.CompletedIDs()
		} else if !shared.IsNotFound(err) {
			return err
		}

		reqs := prog.Requirements
		completedRequired := []int{}
		remaining := reqs.Remaining(completedIDs)
		remainingSet := make(map[int]bool, len(remaining))
		for _, id := range remaining {
			remainingSet[id] = true
		}
		for _, id := range reqs.RequiredCategoryIDs {
			if !remainingSet[id] {
				completedRequired = append(completedRequired, id)
			}
		}

		result = &GetProgressionResult{
			StudentID:    prog.StudentID,
			CurrentLevel: prog.CurrentLevel,
			InitialLevel: prog.InitialLevel,
			History:      prog.History,
			Advancement: AdvancementView{
				CurrentLevel:         reqs.CurrentLevel,
				NextLevel:            reqs.NextLevel,
				RequiredCategoryIDs:  reqs.RequiredCategoryIDs,
				CompletedCategoryIDs: completedRequired,
				RemainingCategoryIDs: remaining,
			},
			UpdatedAt: prog.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
