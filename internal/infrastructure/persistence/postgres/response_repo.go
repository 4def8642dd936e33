package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE REPOSITORY IMPLEMENTATION
// One row per (student, assessment) pair, enforced by a unique
// constraint; Save is an upsert keyed on that pair.
// ══════════════════════════════════════════════════════════════════════════════

// ResponseRepository implements assessment.ResponseRepository for PostgreSQL.
type ResponseRepository struct {
	q Querier
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(q Querier) *ResponseRepository {
	return &ResponseRepository{q: q}
}

// GetByStudentAndAssessment returns the single response for the pair.
func (r *ResponseRepository) GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID assessment.ID) (*assessment.Response, error) {
	query := `
		SELECT id, student_id, assessment_id, status, answers, started_at, completed_at,
			   raw_score, total_possible, percentage, passed, attempt_count,
			   correct_question_ids, incorrect_question_ids, created_at, updated_at
		FROM assessment_responses
		WHERE student_id = $1 AND assessment_id = $2
	`

	row := r.q.QueryRow(ctx, query, studentID, assessmentID.String())

	var response assessment.Response
	var assessmentID2, status string
	var answersJSON, correctJSON, incorrectJSON []byte

	err := row.Scan(
		&response.ID,
		&response.StudentID,
		&assessmentID2,
		&status,
		&answersJSON,
		&response.StartedAt,
		&response.CompletedAt,
		&response.RawScore,
		&response.TotalPossible,
		&response.Percentage,
		&response.Passed,
		&response.AttemptCount,
		&correctJSON,
		&incorrectJSON,
		&response.CreatedAt,
		&response.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan response: %w", err)
	}

	response.AssessmentID = assessment.ID(assessmentID2)
	response.Status = assessment.ResponseStatus(status)
	if err := json.Unmarshal(answersJSON, &response.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}
	if err := json.Unmarshal(correctJSON, &response.CorrectQuestionIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal correct question ids: %w", err)
	}
	if err := json.Unmarshal(incorrectJSON, &response.IncorrectQuestionIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incorrect question ids: %w", err)
	}

	return &response, nil
}

// Save inserts or updates a response.
func (r *ResponseRepository) Save(ctx context.Context, response *assessment.Response) error {
	query := `
		INSERT INTO assessment_responses (
			id, student_id, assessment_id, status, answers, started_at, completed_at,
			raw_score, total_possible, percentage, passed, attempt_count,
			correct_question_ids, incorrect_question_ids, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (student_id, assessment_id) DO UPDATE SET
			status = EXCLUDED.status,
			answers = EXCLUDED.answers,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at,
			raw_score = EXCLUDED.raw_score,
			total_possible = EXCLUDED.total_possible,
			percentage = EXCLUDED.percentage,
			passed = EXCLUDED.passed,
			attempt_count = EXCLUDED.attempt_count,
			correct_question_ids = EXCLUDED.correct_question_ids,
			incorrect_question_ids = EXCLUDED.incorrect_question_ids,
			updated_at = EXCLUDED.updated_at
	`

	answersJSON, err := json.Marshal(response.Answers)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	correctJSON, err := json.Marshal(nonNilQuestionIDs(response.CorrectQuestionIDs))
	if err != nil {
		return fmt.Errorf("failed to marshal correct question ids: %w", err)
	}
	incorrectJSON, err := json.Marshal(nonNilQuestionIDs(response.IncorrectQuestionIDs))
	if err != nil {
		return fmt.Errorf("failed to marshal incorrect question ids: %w", err)
	}

	_, err = r.q.Exec(ctx, query,
		response.ID,
		response.StudentID,
		response.AssessmentID.String(),
		string(response.Status),
		answersJSON,
		response.StartedAt,
		response.CompletedAt,
		response.RawScore,
		response.TotalPossible,
		response.Percentage,
		response.Passed,
		response.AttemptCount,
		correctJSON,
		incorrectJSON,
		response.CreatedAt,
		response.UpdatedAt,
	)
	if err != nil {
		return mapTxError("SaveResponse", err)
	}

	return nil
}

func nonNilQuestionIDs(ids []assessment.QuestionID) []assessment.QuestionID {
	if ids == nil {
		return []assessment.QuestionID{}
	}
	return ids
}
