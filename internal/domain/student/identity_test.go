package student

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

// recordingDirectory tracks which lookup strategy the resolver picked.
type recordingDirectory struct {
	byID       map[string]*Student
	byLegacyID map[int64]*Student
	byEmail    map[string]*Student
	calls      []string
}

func (d *recordingDirectory) GetByID(_ context.Context, id string) (*Student, error) {
	d.calls = append(d.calls, "id")
	if s, ok := d.byID[id]; ok {
		return s, nil
	}
	return nil, shared.ErrStudentNotFound
}

func (d *recordingDirectory) GetByLegacyID(_ context.Context, legacyID int64) (*Student, error) {
	d.calls = append(d.calls, "legacy")
	if s, ok := d.byLegacyID[legacyID]; ok {
		return s, nil
	}
	return nil, shared.ErrStudentNotFound
}

func (d *recordingDirectory) GetByEmail(_ context.Context, email string) (*Student, error) {
	d.calls = append(d.calls, "email")
	if s, ok := d.byEmail[email]; ok {
		return s, nil
	}
	return nil, shared.ErrStudentNotFound
}

func TestResolverCanonicalUUID(t *testing.T) {
	canonical := "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"
	dir := &recordingDirectory{byID: map[string]*Student{
		canonical: {ID: canonical, FullName: "Ada L."},
	}}

	resolved, err := NewResolver(dir).Resolve(context.Background(), canonical)
	require.NoError(t, err)
	assert.Equal(t, canonical, resolved.ID)
	assert.Equal(t, []string{"id"}, dir.calls)
}

func TestResolverLegacyNumericID(t *testing.T) {
	dir := &recordingDirectory{byLegacyID: map[int64]*Student{
		20417: {ID: "uuid-1", LegacyID: 20417},
	}}

	resolved, err := NewResolver(dir).Resolve(context.Background(), "20417")
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", resolved.ID)
	assert.Equal(t, []string{"legacy"}, dir.calls)
}

func TestResolverEmailFallback(t *testing.T) {
	dir := &recordingDirectory{byEmail: map[string]*Student{
		"ada@example.org": {ID: "uuid-2", Email: "ada@example.org"},
	}}

	resolved, err := NewResolver(dir).Resolve(context.Background(), "ada@example.org")
	require.NoError(t, err)
	assert.Equal(t, "uuid-2", resolved.ID)
	assert.Equal(t, []string{"email"}, dir.calls)
}

func TestResolverSingleStrategyPerCall(t *testing.T) {
	// A UUID that exists only in the email index must NOT be found: the
	// UUID strategy is selected by its syntax, misses, and the resolver
	// never falls through to later strategies.
	canonical := "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b"
	dir := &recordingDirectory{byEmail: map[string]*Student{
		canonical: {ID: "uuid-3"},
	}}

	_, err := NewResolver(dir).Resolve(context.Background(), canonical)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, []string{"id"}, dir.calls)
}

func TestResolverNumericMissDoesNotFallThrough(t *testing.T) {
	dir := &recordingDirectory{byEmail: map[string]*Student{
		"123": {ID: "uuid-4"},
	}}

	_, err := NewResolver(dir).Resolve(context.Background(), "123")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, []string{"legacy"}, dir.calls)
}

func TestResolverEmptyIdentifier(t *testing.T) {
	dir := &recordingDirectory{}

	_, err := NewResolver(dir).Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
	assert.Empty(t, dir.calls)
}
