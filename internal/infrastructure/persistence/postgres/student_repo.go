package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT DIRECTORY IMPLEMENTATION
// Read-only identity lookups. The scoring engine never creates or
// mutates student records; enrollment owns them.
// ══════════════════════════════════════════════════════════════════════════════

const studentColumns = `id, COALESCE(legacy_id, 0), email, full_name, grade, created_at, updated_at`

// StudentRepository implements student.Directory for PostgreSQL.
type StudentRepository struct {
	q Querier
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(q Querier) *StudentRepository {
	return &StudentRepository{q: q}
}

// GetByID returns a student by canonical UUID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	return r.scanStudent(r.q.QueryRow(ctx, query, id))
}

// GetByLegacyID returns a student by their numeric id from the previous
// system.
func (r *StudentRepository) GetByLegacyID(ctx context.Context, legacyID int64) (*student.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE legacy_id = $1", studentColumns)
	return r.scanStudent(r.q.QueryRow(ctx, query, legacyID))
}

// GetByEmail returns a student by email, case-insensitively.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*student.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE LOWER(email) = LOWER($1)", studentColumns)
	return r.scanStudent(r.q.QueryRow(ctx, query, email))
}

func (r *StudentRepository) scanStudent(row pgx.Row) (*student.Student, error) {
	var s student.Student
	err := row.Scan(
		&s.ID,
		&s.LegacyID,
		&s.Email,
		&s.FullName,
		&s.Grade,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}
	return &s, nil
}
