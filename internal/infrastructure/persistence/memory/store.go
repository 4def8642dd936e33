// Package memory implements the persistence interfaces on in-process
// maps. It backs unit tests and the storeless development mode; the
// transactional semantics mirror the Postgres implementation (buffered
// writes, per-student serialization, transient-conflict errors).
package memory

import (
	"sync"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
)

// Store holds every collection behind one mutex. Units of work buffer
// their writes and apply them atomically under that mutex on Commit.
type Store struct {
	mu sync.Mutex

	students     map[string]*student.Student               // canonical id -> record
	definitions  map[assessment.ID]assessment.Definition   // read-only content
	responses    map[string]*assessment.Response           // pairKey -> record
	assignments  map[string]*assessment.Assignment         // pairKey -> record
	progress     map[string]*progression.CategoryProgress  // student id -> record
	progressions map[string]*progression.Progression       // student id -> record
	audit        []*progression.ProfileUpdateRecord

	// versions guards per-student optimistic commits: every committed
	// write to a student's records bumps their version.
	versions map[string]uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		students:     make(map[string]*student.Student),
		definitions:  make(map[assessment.ID]assessment.Definition),
		responses:    make(map[string]*assessment.Response),
		assignments:  make(map[string]*assessment.Assignment),
		progress:     make(map[string]*progression.CategoryProgress),
		progressions: make(map[string]*progression.Progression),
		versions:     make(map[string]uint64),
	}
}

func pairKey(studentID string, assessmentID assessment.ID) string {
	return studentID + "/" + assessmentID.String()
}

// SeedStudents loads identity records into the directory.
func (s *Store) SeedStudents(students ...*student.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range students {
		copied := *st
		s.students[st.ID] = &copied
	}
}

// SeedDefinitions loads assessment definitions into the content store.
func (s *Store) SeedDefinitions(definitions ...assessment.Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, def := range definitions {
		s.definitions[def.ID] = def
	}
}

// SeedAssignments loads assignment records.
func (s *Store) SeedAssignments(assignments ...*assessment.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range assignments {
		s.assignments[pairKey(a.StudentID, a.AssessmentID)] = cloneAssignment(a)
	}
}

// AuditRecords returns a copy of the audit log, oldest first.
func (s *Store) AuditRecords() []*progression.ProfileUpdateRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]*progression.ProfileUpdateRecord, 0, len(s.audit))
	for _, r := range s.audit {
		copied := *r
		records = append(records, &copied)
	}
	return records
}

// ─────────────────────────────────────────────────────────────────────────────
// Deep copies. Units of work hand out copies so uncommitted mutations
// never leak into the shared maps.
// ─────────────────────────────────────────────────────────────────────────────

func cloneResponse(r *assessment.Response) *assessment.Response {
	copied := *r
	copied.Answers = make(assessment.AnswerSet, len(r.Answers))
	for q, o := range r.Answers {
		copied.Answers[q] = o
	}
	copied.CorrectQuestionIDs = append([]assessment.QuestionID(nil), r.CorrectQuestionIDs...)
	copied.IncorrectQuestionIDs = append([]assessment.QuestionID(nil), r.IncorrectQuestionIDs...)
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		copied.CompletedAt = &at
	}
	return &copied
}

func cloneAssignment(a *assessment.Assignment) *assessment.Assignment {
	copied := *a
	if a.CompletedAt != nil {
		at := *a.CompletedAt
		copied.CompletedAt = &at
	}
	return &copied
}

func cloneProgress(p *progression.CategoryProgress) *progression.CategoryProgress {
	copied := *p
	copied.Categories = append([]progression.CategoryEntry(nil), p.Categories...)
	return &copied
}

func cloneProgression(p *progression.Progression) *progression.Progression {
	copied := *p
	copied.History = make([]progression.LevelHistoryEntry, len(p.History))
	for i, entry := range p.History {
		copied.History[i] = entry
		if entry.EndedAt != nil {
			at := *entry.EndedAt
			copied.History[i].EndedAt = &at
		}
	}
	copied.Requirements.RequiredCategoryIDs = append([]int(nil), p.Requirements.RequiredCategoryIDs...)
	return &copied
}
