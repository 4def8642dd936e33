package postgres

import (
	"context"
	"fmt"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ASSIGNMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AssignmentRepository implements assessment.AssignmentRepository for PostgreSQL.
type AssignmentRepository struct {
	q Querier
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(q Querier) *AssignmentRepository {
	return &AssignmentRepository{q: q}
}

// GetByStudentAndAssessment returns the assignment entry for the pair.
func (r *AssignmentRepository) GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID assessment.ID) (*assessment.Assignment, error) {
	query := `
		SELECT id, student_id, assessment_id, status, assigned_at, completed_at, updated_at
		FROM assignment_records
		WHERE student_id = $1 AND assessment_id = $2
	`

	row := r.q.QueryRow(ctx, query, studentID, assessmentID.String())

	var assignment assessment.Assignment
	var rawAssessmentID, status string

	err := row.Scan(
		&assignment.ID,
		&assignment.StudentID,
		&rawAssessmentID,
		&status,
		&assignment.AssignedAt,
		&assignment.CompletedAt,
		&assignment.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.NewDomainError("assessment", "LoadAssignment", shared.ErrNotFound, "assignment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}

	assignment.AssessmentID = assessment.ID(rawAssessmentID)
	assignment.Status = assessment.AssignmentStatus(status)
	return &assignment, nil
}

// Save inserts or updates an assignment.
func (r *AssignmentRepository) Save(ctx context.Context, assignment *assessment.Assignment) error {
	query := `
		INSERT INTO assignment_records (
			id, student_id, assessment_id, status, assigned_at, completed_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, assessment_id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.Exec(ctx, query,
		assignment.ID,
		assignment.StudentID,
		assignment.AssessmentID.String(),
		string(assignment.Status),
		assignment.AssignedAt,
		assignment.CompletedAt,
		assignment.UpdatedAt,
	)
	if err != nil {
		return mapTxError("SaveAssignment", err)
	}

	return nil
}
