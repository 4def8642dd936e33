// Package query contains read operations (CQRS - Queries).
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
// GET CATEGORY PROGRESS QUERY
// Returns the student's category progress snapshot. A student with no
// prior record gets a default all-pending snapshot created on first
// access - the one write a read path is allowed to make.
// ══════════════════════════════════════════════════════════════════════════════

// GetCategoryProgressQuery identifies the student.
type GetCategoryProgressQuery struct {
	// RawStudentID is any of the supported identifier forms.
	RawStudentID string
}

// Validate validates the query.
func (q GetCategoryProgressQuery) Validate() error {
	if strings.TrimSpace(q.RawStudentID) == "" {
		return shared.ErrEmptyIdentifier
	}
	return nil
}

// GetCategoryProgressResult is the snapshot returned to callers.
type GetCategoryProgressResult struct {
	StudentID           string                       `json:"studentId"`
	Categories          []progression.CategoryEntry  `json:"categories"`
	CompletedCategories int                          `json:"completedCategories"`
	TotalCategories     int                          `json:"totalCategories"`
	OverallProgress     float64                      `json:"overallProgress"`
	UpdatedAt           time.Time                    `json:"updatedAt"`
}

// GetCategoryProgressHandler handles GetCategoryProgressQuery.
type GetCategoryProgressHandler struct {
	factory progression.UnitOfWorkFactory
	log     *logger.Logger
	clock   func() time.Time
}

// NewGetCategoryProgressHandler creates the handler.
func NewGetCategoryProgressHandler(factory progression.UnitOfWorkFactory, log *logger.Logger) *GetCategoryProgressHandler {
	return &GetCategoryProgressHandler{
		factory: factory,
		log:     log.With(logger.Component("get_category_progress")),
	}
}

// WithClock overrides the time source. Test-only.
func (h *GetCategoryProgressHandler) WithClock(now func() time.Time) *GetCategoryProgressHandler {
	h.clock = now
	return h
}

func (h *GetCategoryProgressHandler) now() time.Time {
	if h.clock == nil {
		return time.Now().UTC()
	}
	return h.clock()
}

// Handle returns the snapshot, creating the default record on first
// access. Storage errors propagate; no placeholder data is fabricated.
func (h *GetCategoryProgressHandler) Handle(ctx context.Context, q GetCategoryProgressQuery) (*GetCategoryProgressResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var result *GetCategoryProgressResult
	err := runInUnitOfWork(ctx, h.factory, func(ctx context.Context, uow progression.UnitOfWork) error {
		resolved, err := student.NewResolver(uow.Students()).Resolve(ctx, q.RawStudentID)
		if err != nil {
			return err
		}

		progress, err := uow.Progress().GetByStudent(ctx, resolved.ID)
		if shared.IsNotFound(err) {
			if err := uow.LockStudent(ctx, resolved.ID); err != nil {
				return err
			}
			progress, err = progression.NewDefaultCategoryProgress(resolved.ID, h.now())
			if err != nil {
				return err
			}
			if err := uow.Progress().Save(ctx, progress); err != nil {
				return err
			}
			h.log.Info("created default category progress", logger.StudentID(resolved.ID))
		} else if err != nil {
			return err
		}

		result = &GetCategoryProgressResult{
			StudentID:           progress.StudentID,
			Categories:          progress.Categories,
			CompletedCategories: progress.CompletedCategories,
			TotalCategories:     len(progress.Categories),
			OverallProgress:     progress.OverallProgress,
			UpdatedAt:           progress.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
