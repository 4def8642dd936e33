package progression

import (
	"context"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
)

// ProgressRepository persists per-student category progress.
type ProgressRepository interface {
	// GetByStudent returns the student's category progress.
	// Returns shared.ErrProgressNotFound when none exists yet.
	GetByStudent(ctx context.Context, studentID string) (*CategoryProgress, error)

	// Save inserts or updates the progress record.
	Save(ctx context.Context, progress *CategoryProgress) error
}

// ProgressionRepository persists per-student reading-level progressions.
type ProgressionRepository interface {
	// GetByStudent returns the student's progression.
	// Returns shared.ErrProgressionNotFound when none exists yet.
	GetByStudent(ctx context.Context, studentID string) (*Progression, error)

	// Save inserts or updates the progression record.
	Save(ctx context.Context, progression *Progression) error
}

// AuditRepository appends profile update records. There is no update or
// delete: the log is immutable once written.
type AuditRepository interface {
	Append(ctx context.Context, record *ProfileUpdateRecord) error

	// ListByStudent returns a student's audit entries, newest first.
	ListByStudent(ctx context.Context, studentID string) ([]*ProfileUpdateRecord, error)
}

// UnitOfWork scopes every repository it exposes to one transaction.
// Writes become visible only on Commit; any error path must Rollback.
// Mutable per-student records are touched exclusively through a unit of
// work — no component may write them outside one.
type UnitOfWork interface {
	// Students returns the transaction-scoped identity directory.
	Students() student.Directory

	// Responses returns the transaction-scoped response repository.
	Responses() assessment.ResponseRepository

	// Assignments returns the transaction-scoped assignment repository.
	Assignments() assessment.AssignmentRepository

	// Progress returns the transaction-scoped category progress repository.
	Progress() ProgressRepository

	// Progressions returns the transaction-scoped progression repository.
	Progressions() ProgressionRepository

	// Audit returns the transaction-scoped audit log.
	Audit() AuditRepository

	// LockStudent serializes concurrent transactions touching the same
	// student's records. Two submissions for one student cannot
	// interleave their category or level mutations.
	LockStudent(ctx context.Context, studentID string) error

	// Commit makes every write visible atomically.
	Commit(ctx context.Context) error

	// Rollback discards every write. Safe to call after Commit.
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory begins units of work. Implementations surface
// transient write collisions as shared.ErrConcurrentModification so the
// caller can retry the whole function body.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
