package assessment

import "context"

// DefinitionSource provides read-only access to assessment definitions.
// Definitions are owned by content authoring; implementations may cache
// freely because the core never writes them.
type DefinitionSource interface {
	// GetDefinition returns the definition for the given assessment ID.
	// Returns shared.ErrDefinitionNotFound if it does not exist.
	GetDefinition(ctx context.Context, id ID) (Definition, error)
}

// ResponseRepository persists assessment responses. Implementations
// obtained from a unit of work are transaction-scoped.
type ResponseRepository interface {
	// GetByStudentAndAssessment returns the single response for the pair.
	// Returns shared.ErrResponseNotFound if the student never started it.
	GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID ID) (*Response, error)

	// Save inserts or updates a response.
	Save(ctx context.Context, response *Response) error
}

// AssignmentRepository persists assignment records.
type AssignmentRepository interface {
	// GetByStudentAndAssessment returns the assignment entry for the pair.
	// Returns shared.ErrNotFound if the assessment was never assigned.
	GetByStudentAndAssessment(ctx context.Context, studentID string, assessmentID ID) (*Assignment, error)

	// Save inserts or updates an assignment.
	Save(ctx context.Context, assignment *Assignment) error
}
