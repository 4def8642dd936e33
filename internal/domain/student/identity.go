package student

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

// Directory is the read-only identity lookup consumed by the resolver.
// Each method returns shared.ErrStudentNotFound when no record matches.
type Directory interface {
	// GetByID looks up a student by canonical UUID.
	GetByID(ctx context.Context, id string) (*Student, error)

	// GetByLegacyID looks up a student by the legacy numeric id.
	GetByLegacyID(ctx context.Context, legacyID int64) (*Student, error)

	// GetByEmail looks up a student by email equality.
	GetByEmail(ctx context.Context, email string) (*Student, error)
}

// Resolver normalizes a raw identifier into the canonical student record.
//
// Resolution precedence is fixed and deterministic:
//  1. If the raw id parses as a canonical UUID, look up by it.
//  2. Else, if it parses as an integer, look up by the legacy numeric id.
//  3. Else, treat it as an opaque string key (email) and look up by
//     equality.
//
// Exactly one strategy runs per call. When an identifier could
// syntactically satisfy more than one strategy, the order above is the
// tie-break; the resolver never falls through to a later strategy after
// the selected one misses.
type Resolver struct {
	directory Directory
}

// NewResolver creates a Resolver backed by the given directory.
func NewResolver(directory Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve returns the student matching rawID, or
// shared.ErrStudentNotFound.
func (r *Resolver) Resolve(ctx context.Context, rawID string) (*Student, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, shared.ErrEmptyIdentifier
	}

	if _, err := uuid.Parse(rawID); err == nil {
		return r.directory.GetByID(ctx, rawID)
	}

	if legacyID, err := strconv.ParseInt(rawID, 10, 64); err == nil {
		return r.directory.GetByLegacyID(ctx, legacyID)
	}

	return r.directory.GetByEmail(ctx, rawID)
}
