package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITION REPOSITORY IMPLEMENTATION
// Definitions are read-only content: the scoring engine only loads them.
// Upsert exists for the content seeding path, outside any unit of work.
// ══════════════════════════════════════════════════════════════════════════════

// DefinitionRepository implements assessment.DefinitionSource for PostgreSQL.
type DefinitionRepository struct {
	conn *Connection
}

// NewDefinitionRepository creates a new DefinitionRepository.
func NewDefinitionRepository(conn *Connection) *DefinitionRepository {
	return &DefinitionRepository{conn: conn}
}

// GetDefinition returns the definition for the given assessment ID.
func (r *DefinitionRepository) GetDefinition(ctx context.Context, id assessment.ID) (assessment.Definition, error) {
	query := `
		SELECT id, title, category_id, passing_threshold, questions
		FROM assessment_definitions
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id.String())

	var def assessment.Definition
	var rawID string
	var questionsJSON []byte

	err := row.Scan(
		&rawID,
		&def.Title,
		&def.CategoryID,
		&def.PassingThreshold,
		&questionsJSON,
	)
	if IsNoRows(err) {
		return assessment.Definition{}, shared.ErrDefinitionNotFound
	}
	if err != nil {
		return assessment.Definition{}, fmt.Errorf("failed to scan definition: %w", err)
	}

	def.ID = assessment.ID(rawID)
	if err := json.Unmarshal(questionsJSON, &def.Questions); err != nil {
		return assessment.Definition{}, fmt.Errorf("failed to unmarshal questions: %w", err)
	}

	return def, nil
}

// Upsert inserts or replaces a definition.
func (r *DefinitionRepository) Upsert(ctx context.Context, def assessment.Definition) error {
	query := `
		INSERT INTO assessment_definitions (
			id, title, category_id, passing_threshold, questions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			category_id = EXCLUDED.category_id,
			passing_threshold = EXCLUDED.passing_threshold,
			questions = EXCLUDED.questions,
			updated_at = EXCLUDED.updated_at
	`

	questionsJSON, err := json.Marshal(def.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	_, err = r.conn.Exec(ctx, query,
		def.ID.String(),
		def.Title,
		def.CategoryID,
		def.PassingThreshold,
		questionsJSON,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert definition: %w", err)
	}

	return nil
}
