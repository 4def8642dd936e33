package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNIT OF WORK
// One pgx transaction per unit of work. LockStudent takes a row lock on
// the student record so concurrent submissions for the same student
// queue up instead of interleaving; serialization failures and deadlocks
// surface as shared.ErrConcurrentModification for the caller to retry.
// ══════════════════════════════════════════════════════════════════════════════

// TxManager implements progression.UnitOfWorkFactory over a connection pool.
type TxManager struct {
	conn *Connection
}

// NewTxManager creates a new TxManager.
func NewTxManager(conn *Connection) *TxManager {
	return &TxManager{conn: conn}
}

// Begin starts a transaction-backed unit of work.
func (m *TxManager) Begin(ctx context.Context) (progression.UnitOfWork, error) {
	tx, err := m.conn.BeginTx(ctx, DefaultTxOptions())
	if err != nil {
		return nil, shared.WrapError("progress", "Begin", shared.ErrTransactionAborted, "could not begin transaction", err)
	}
	return &unitOfWork{tx: tx}, nil
}

type unitOfWork struct {
	tx pgx.Tx
}

func (u *unitOfWork) Students() student.Directory {
	return NewStudentRepository(u.tx)
}

func (u *unitOfWork) Responses() assessment.ResponseRepository {
	return NewResponseRepository(u.tx)
}

func (u *unitOfWork) Assignments() assessment.AssignmentRepository {
	return NewAssignmentRepository(u.tx)
}

func (u *unitOfWork) Progress() progression.ProgressRepository {
	return NewProgressRepository(u.tx)
}

func (u *unitOfWork) Progressions() progression.ProgressionRepository {
	return NewProgressionRepository(u.tx)
}

func (u *unitOfWork) Audit() progression.AuditRepository {
	return NewAuditRepository(u.tx)
}

// LockStudent takes a FOR UPDATE lock on the student row. Every write
// path locks before mutating, so per-student updates serialize at the
// database.
func (u *unitOfWork) LockStudent(ctx context.Context, studentID string) error {
	var id string
	err := u.tx.QueryRow(ctx, "SELECT id FROM students WHERE id = $1 FOR UPDATE", studentID).Scan(&id)
	if IsNoRows(err) {
		return shared.ErrStudentNotFound
	}
	if err != nil {
		return mapTxError("LockStudent", err)
	}
	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return mapTxError("Commit", err)
	}
	return nil
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return shared.WrapError("progress", "Rollback", shared.ErrTransactionAborted, "rollback failed", err)
	}
	return nil
}

// mapTxError translates driver errors into the domain taxonomy.
func mapTxError(op string, err error) error {
	if IsSerializationFailure(err) {
		return shared.WrapError("progress", op, shared.ErrConcurrentModification, "transaction collided with a concurrent write", err)
	}
	return shared.WrapError("progress", op, shared.ErrTransactionAborted, "transaction failed", err)
}
