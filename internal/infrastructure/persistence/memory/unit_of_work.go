package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
)

// Begin starts a unit of work over the store. Writes are buffered and
// applied atomically on Commit; a concurrent committed write to a locked
// student surfaces as shared.ErrConcurrentModification.
func (s *Store) Begin(_ context.Context) (progression.UnitOfWork, error) {
	return &unitOfWork{
		store:               s,
		lockedVersions:      make(map[string]uint64),
		pendingResponses:    make(map[string]*assessment.Response),
		pendingAssignments:  make(map[string]*assessment.Assignment),
		pendingProgress:     make(map[string]*progression.CategoryProgress),
		pendingProgressions: make(map[string]*progression.Progression),
	}, nil
}

type unitOfWork struct {
	store    *Store
	done     bool
	touched  []string // student ids written in this unit of work

	lockedVersions      map[string]uint64
	pendingResponses    map[string]*assessment.Response
	pendingAssignments  map[string]*assessment.Assignment
	pendingProgress     map[string]*progression.CategoryProgress
	pendingProgressions map[string]*progression.Progression
	pendingAudit        []*progression.ProfileUpdateRecord
}

func (u *unitOfWork) Students() student.Directory                  { return (*directory)(u) }
func (u *unitOfWork) Responses() assessment.ResponseRepository     { return (*responseRepo)(u) }
func (u *unitOfWork) Assignments() assessment.AssignmentRepository { return (*assignmentRepo)(u) }
func (u *unitOfWork) Progress() progression.ProgressRepository     { return (*progressRepo)(u) }
func (u *unitOfWork) Progressions() progression.ProgressionRepository {
	return (*progressionRepo)(u)
}
func (u *unitOfWork) Audit() progression.AuditRepository { return (*auditRepo)(u) }

// LockStudent records the student's version; Commit fails with a
// transient conflict if another transaction bumped it in the meantime.
func (u *unitOfWork) LockStudent(_ context.Context, studentID string) error {
	if studentID == "" {
		return shared.ErrEmptyIdentifier
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	if _, locked := u.lockedVersions[studentID]; !locked {
		u.lockedVersions[studentID] = u.store.versions[studentID]
	}
	return nil
}

func (u *unitOfWork) Commit(_ context.Context) error {
	if u.done {
		return shared.ErrTransactionAborted
	}
	u.done = true

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	for studentID, observed := range u.lockedVersions {
		if u.store.versions[studentID] != observed {
			return shared.ErrConcurrentModification
		}
	}

	for key, r := range u.pendingResponses {
		u.store.responses[key] = cloneResponse(r)
	}
	for key, a := range u.pendingAssignments {
		u.store.assignments[key] = cloneAssignment(a)
	}
	for id, p := range u.pendingProgress {
		u.store.progress[id] = cloneProgress(p)
	}
	for id, p := range u.pendingProgressions {
		u.store.progressions[id] = cloneProgression(p)
	}
	for _, record := range u.pendingAudit {
		copied := *record
		u.store.audit = append(u.store.audit, &copied)
	}

	for _, studentID := range u.touched {
		u.store.versions[studentID]++
	}
	return nil
}

func (u *unitOfWork) Rollback(_ context.Context) error {
	u.done = true
	return nil
}

func (u *unitOfWork) markTouched(studentID string) {
	for _, id := range u.touched {
		if id == studentID {
			return
		}
	}
	u.touched = append(u.touched, studentID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Directory (read-only identity lookups)
// ─────────────────────────────────────────────────────────────────────────────

type directory unitOfWork

func (d *directory) GetByID(_ context.Context, id string) (*student.Student, error) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	if s, ok := d.store.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, shared.ErrStudentNotFound
}

func (d *directory) GetByLegacyID(_ context.Context, legacyID int64) (*student.Student, error) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	for _, s := range d.store.students {
		if s.LegacyID == legacyID && legacyID != 0 {
			copied := *s
			return &copied, nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

func (d *directory) GetByEmail(_ context.Context, email string) (*student.Student, error) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	for _, s := range d.store.students {
		if strings.EqualFold(s.Email, email) {
			copied := *s
			return &copied, nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

// ─────────────────────────────────────────────────────────────────────────────
// Responses
// ─────────────────────────────────────────────────────────────────────────────

type responseRepo unitOfWork

func (r *responseRepo) GetByStudentAndAssessment(_ context.Context, studentID string, assessmentID assessment.ID) (*assessment.Response, error) {
	key := pairKey(studentID, assessmentID)
	if pending, ok := r.pendingResponses[key]; ok {
		return cloneResponse(pending), nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if stored, ok := r.store.responses[key]; ok {
		return cloneResponse(stored), nil
	}
	return nil, shared.ErrResponseNotFound
}

func (r *responseRepo) Save(_ context.Context, response *assessment.Response) error {
	r.pendingResponses[pairKey(response.StudentID, response.AssessmentID)] = cloneResponse(response)
	(*unitOfWork)(r).markTouched(response.StudentID)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignments
// ─────────────────────────────────────────────────────────────────────────────

type assignmentRepo unitOfWork

func (r *assignmentRepo) GetByStudentAndAssessment(_ context.Context, studentID string, assessmentID assessment.ID) (*assessment.Assignment, error) {
	key := pairKey(studentID, assessmentID)
	if pending, ok := r.pendingAssignments[key]; ok {
		return cloneAssignment(pending), nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if stored, ok := r.store.assignments[key]; ok {
		return cloneAssignment(stored), nil
	}
	return nil, shared.NewDomainError("assessment", "LoadAssignment", shared.ErrNotFound, "assignment not found")
}

func (r *assignmentRepo) Save(_ context.Context, assignment *assessment.Assignment) error {
	r.pendingAssignments[pairKey(assignment.StudentID, assignment.AssessmentID)] = cloneAssignment(assignment)
	(*unitOfWork)(r).markTouched(assignment.StudentID)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Category progress
// ─────────────────────────────────────────────────────────────────────────────

type progressRepo unitOfWork

func (r *progressRepo) GetByStudent(_ context.Context, studentID string) (*progression.CategoryProgress, error) {
	if pending, ok := r.pendingProgress[studentID]; ok {
		return cloneProgress(pending), nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if stored, ok := r.store.progress[studentID]; ok {
		return cloneProgress(stored), nil
	}
	return nil, shared.ErrProgressNotFound
}

func (r *progressRepo) Save(_ context.Context, progress *progression.CategoryProgress) error {
	r.pendingProgress[progress.StudentID] = cloneProgress(progress)
	(*unitOfWork)(r).markTouched(progress.StudentID)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reading-level progressions
// ─────────────────────────────────────────────────────────────────────────────

type progressionRepo unitOfWork

func (r *progressionRepo) GetByStudent(_ context.Context, studentID string) (*progression.Progression, error) {
	if pending, ok := r.pendingProgressions[studentID]; ok {
		return cloneProgression(pending), nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if stored, ok := r.store.progressions[studentID]; ok {
		return cloneProgression(stored), nil
	}
	return nil, shared.ErrProgressionNotFound
}

func (r *progressionRepo) Save(_ context.Context, p *progression.Progression) error {
	r.pendingProgressions[p.StudentID] = cloneProgression(p)
	(*unitOfWork)(r).markTouched(p.StudentID)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Audit log
// ─────────────────────────────────────────────────────────────────────────────

type auditRepo unitOfWork

func (r *auditRepo) Append(_ context.Context, record *progression.ProfileUpdateRecord) error {
	copied := *record
	r.pendingAudit = append(r.pendingAudit, &copied)
	(*unitOfWork)(r).markTouched(record.StudentID)
	return nil
}

func (r *auditRepo) ListByStudent(_ context.Context, studentID string) ([]*progression.ProfileUpdateRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	records := []*progression.ProfileUpdateRecord{}
	for _, stored := range r.store.audit {
		if stored.StudentID == studentID {
			copied := *stored
			records = append(records, &copied)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Definitions (read-only content store, outside the unit of work)
// ─────────────────────────────────────────────────────────────────────────────

// GetDefinition implements assessment.DefinitionSource on the store
// itself: definitions are read-only and need no transaction scope.
func (s *Store) GetDefinition(_ context.Context, id assessment.ID) (assessment.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if def, ok := s.definitions[id]; ok {
		return def, nil
	}
	return assessment.Definition{}, shared.ErrDefinitionNotFound
}
