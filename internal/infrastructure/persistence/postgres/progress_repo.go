package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY PROGRESS REPOSITORY IMPLEMENTATION
// The ordered category list lives in one JSONB column; the derived
// counters are stored alongside it for reporting queries that never load
// the full list.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progression.ProgressRepository for PostgreSQL.
type ProgressRepository struct {
	q Querier
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(q Querier) *ProgressRepository {
	return &ProgressRepository{q: q}
}

// GetByStudent returns the student's category progress.
func (r *ProgressRepository) GetByStudent(ctx context.Context, studentID string) (*progression.CategoryProgress, error) {
	query := `
		SELECT student_id, categories, completed_categories, overall_progress, created_at, updated_at
		FROM category_progress
		WHERE student_id = $1
	`

	row := r.q.QueryRow(ctx, query, studentID)

	var progress progression.CategoryProgress
	var categoriesJSON []byte

	err := row.Scan(
		&progress.StudentID,
		&categoriesJSON,
		&progress.CompletedCategories,
		&progress.OverallProgress,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan category progress: %w", err)
	}

	if err := json.Unmarshal(categoriesJSON, &progress.Categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}

	return &progress, nil
}

// Save inserts or updates the progress record.
func (r *ProgressRepository) Save(ctx context.Context, progress *progression.CategoryProgress) error {
	query := `
		INSERT INTO category_progress (
			student_id, categories, completed_categories, overall_progress, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id) DO UPDATE SET
			categories = EXCLUDED.categories,
			completed_categories = EXCLUDED.completed_categories,
			overall_progress = EXCLUDED.overall_progress,
			updated_at = EXCLUDED.updated_at
	`

	categoriesJSON, err := json.Marshal(progress.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	_, err = r.q.Exec(ctx, query,
		progress.StudentID,
		categoriesJSON,
		progress.CompletedCategories,
		progress.OverallProgress,
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		return mapTxError("SaveProgress", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// READING-LEVEL PROGRESSION REPOSITORY IMPLEMENTATION
// Requirements are never stored: they are a pure function of the current
// level and are rebuilt on load.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressionRepository implements progression.ProgressionRepository for PostgreSQL.
type ProgressionRepository struct {
	q Querier
}

// NewProgressionRepository creates a new ProgressionRepository.
func NewProgressionRepository(q Querier) *ProgressionRepository {
	return &ProgressionRepository{q: q}
}

// GetByStudent returns the student's reading-level progression.
func (r *ProgressionRepository) GetByStudent(ctx context.Context, studentID string) (*progression.Progression, error) {
	query := `
		SELECT student_id, current_level, initial_level, history, created_at, updated_at
		FROM reading_level_progressions
		WHERE student_id = $1
	`

	row := r.q.QueryRow(ctx, query, studentID)

	var prog progression.Progression
	var currentLevel, initialLevel string
	var historyJSON []byte

	err := row.Scan(
		&prog.StudentID,
		&currentLevel,
		&initialLevel,
		&historyJSON,
		&prog.CreatedAt,
		&prog.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrProgressionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan progression: %w", err)
	}

	prog.CurrentLevel = progression.ReadingLevel(currentLevel)
	prog.InitialLevel = progression.ReadingLevel(initialLevel)
	if err := json.Unmarshal(historyJSON, &prog.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal level history: %w", err)
	}

	reqs, err := progression.RequirementsFor(prog.CurrentLevel)
	if err != nil {
		return nil, err
	}
	prog.Requirements = reqs

	return &prog, nil
}

// Save inserts or updates the progression record.
func (r *ProgressionRepository) Save(ctx context.Context, prog *progression.Progression) error {
	query := `
		INSERT INTO reading_level_progressions (
			student_id, current_level, initial_level, history, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id) DO UPDATE SET
			current_level = EXCLUDED.current_level,
			history = EXCLUDED.history,
			updated_at = EXCLUDED.updated_at
	`

	historyJSON, err := json.Marshal(prog.History)
	if err != nil {
		return fmt.Errorf("failed to marshal level history: %w", err)
	}

	_, err = r.q.Exec(ctx, query,
		prog.StudentID,
		prog.CurrentLevel.String(),
		prog.InitialLevel.String(),
		historyJSON,
		prog.CreatedAt,
		prog.UpdatedAt,
	)
	if err != nil {
		return mapTxError("SaveProgression", err)
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT REPOSITORY IMPLEMENTATION
// Append-only. There is no update or delete statement in this file on
// purpose.
// ══════════════════════════════════════════════════════════════════════════════

// AuditRepository implements progression.AuditRepository for PostgreSQL.
type AuditRepository struct {
	q Querier
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(q Querier) *AuditRepository {
	return &AuditRepository{q: q}
}

// Append writes one profile update record.
func (r *AuditRepository) Append(ctx context.Context, record *progression.ProfileUpdateRecord) error {
	query := `
		INSERT INTO profile_update_records (
			id, student_id, field, previous_value, new_value, reason, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.q.Exec(ctx, query,
		record.ID,
		record.StudentID,
		record.Field,
		record.PreviousValue,
		record.NewValue,
		record.Reason,
		record.ActorID,
		record.CreatedAt,
	)
	if err != nil {
		return mapTxError("AppendAudit", err)
	}

	return nil
}

// ListByStudent returns a student's audit entries, newest first.
func (r *AuditRepository) ListByStudent(ctx context.Context, studentID string) ([]*progression.ProfileUpdateRecord, error) {
	query := `
		SELECT id, student_id, field, previous_value, new_value, reason, actor_id, created_at
		FROM profile_update_records
		WHERE student_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	records := []*progression.ProfileUpdateRecord{}
	for rows.Next() {
		var record progression.ProfileUpdateRecord
		err := rows.Scan(
			&record.ID,
			&record.StudentID,
			&record.Field,
			&record.PreviousValue,
			&record.NewValue,
			&record.Reason,
			&record.ActorID,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
