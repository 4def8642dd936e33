package progression

import (
	"errors"
	"time"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

// Domain errors for the progression package.
var (
	ErrInvalidStudentID = errors.New("progression: invalid student ID")
	ErrAdvanceSameLevel = errors.New("progression: cannot advance to the current level")
	ErrNoOpenHistory    = errors.New("progression: no open level history entry")
)

// Legacy numeric ids of the fixed skill-category set. The ids come from
// the previous system and are referenced by assignment data, so they are
// stable identifiers, not array indexes.
const (
	CategoryAlphabetKnowledge     = 1
	CategoryPhonologicalAwareness = 2
	CategoryPhonics               = 3
	CategoryFluency               = 4
	CategoryComprehension         = 5
	CategoryVocabulary            = 6
)

// CategoryDefinition describes one skill category and its main assessment.
type CategoryDefinition struct {
	ID               int
	Name             string
	MainAssessmentID assessment.ID
}

// Catalog is the fixed, ordered category set every student progresses
// through.
var Catalog = []CategoryDefinition{
	{ID: CategoryAlphabetKnowledge, Name: "Alphabet Knowledge", MainAssessmentID: "asm-alphabet-knowledge"},
	{ID: CategoryPhonologicalAwareness, Name: "Phonological Awareness", MainAssessmentID: "asm-phonological-awareness"},
	{ID: CategoryPhonics, Name: "Phonics & Word Study", MainAssessmentID: "asm-phonics-word-study"},
	{ID: CategoryFluency, Name: "Reading Fluency", MainAssessmentID: "asm-reading-fluency"},
	{ID: CategoryComprehension, Name: "Reading Comprehension", MainAssessmentID: "asm-reading-comprehension"},
	{ID: CategoryVocabulary, Name: "Vocabulary", MainAssessmentID: "asm-vocabulary"},
}

// CategoryStatus is the state of one category for one student.
type CategoryStatus string

const (
	CategoryPending    CategoryStatus = "pending"
	CategoryInProgress CategoryStatus = "in_progress"
	CategoryCompleted  CategoryStatus = "completed"
	CategoryLocked     CategoryStatus = "locked"
)

// CategoryEntry is one category's progress for one student.
type CategoryEntry struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	MainAssessmentID assessment.ID  `json:"mainAssessmentId"`
	Completed        bool           `json:"completed"`
	Score            float64        `json:"score"`
	Passed           bool           `json:"passed"`
	AttemptCount     int            `json:"attemptCount"`
	Status           CategoryStatus `json:"status"`
}

// CategoryProgress holds a student's ordered category list plus counters
// derived from it. CompletedCategories and OverallProgress are computed
// views: they are recomputed on every mutation and never set directly.
type CategoryProgress struct {
	StudentID  string
	Categories []CategoryEntry

	// Derived from Categories; see recompute.
	CompletedCategories int
	OverallProgress     float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDefaultCategoryProgress builds the all-pending progress record
// created on a student's first access.
func NewDefaultCategoryProgress(studentID string, now time.Time) (*CategoryProgress, error) {
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}

	categories := make([]CategoryEntry, 0, len(Catalog))
	for _, def := range Catalog {
		categories = append(categories, CategoryEntry{
			ID:               def.ID,
			Name:             def.Name,
			MainAssessmentID: def.MainAssessmentID,
			Status:           CategoryPending,
		})
	}

	progress := &CategoryProgress{
		StudentID:  studentID,
		Categories: categories,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	progress.recompute()
	return progress, nil
}

// RecordResult applies a scored submission to the category whose main
// assessment matches, then recomputes the derived counters.
// Returns the mutated entry, with its status before the mutation.
func (p *CategoryProgress) RecordResult(assessmentID assessment.ID, score float64, passed bool, at time.Time) (CategoryEntry, CategoryStatus, error) {
	for i := range p.Categories {
		entry := &p.Categories[i]
		if entry.MainAssessmentID != assessmentID {
			continue
		}

		previous := entry.Status
		entry.Score = score
		entry.Passed = passed
		entry.AttemptCount++
		if passed {
			entry.Completed = true
			entry.Status = CategoryCompleted
		} else {
			// A failed attempt keeps an already-completed category
			// completed; otherwise the category is now in progress.
			if !entry.Completed {
				entry.Status = CategoryInProgress
			}
		}

		p.UpdatedAt = at
		p.recompute()
		return *entry, previous, nil
	}
	return CategoryEntry{}, "", shared.ErrUnknownCategory
}

// CompletedIDs returns the ids of all completed categories.
func (p *CategoryProgress) CompletedIDs() []int {
	ids := []int{}
	for _, entry := range p.Categories {
		if entry.Completed {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}

// recompute refreshes CompletedCategories and OverallProgress from the
// category list. Invariant: OverallProgress == completed/total*100.
func (p *CategoryProgress) recompute() {
	completed := 0
	for _, entry := range p.Categories {
		if entry.Completed {
			completed++
		}
	}
	p.CompletedCategories = completed
	if len(p.Categories) > 0 {
		p.OverallProgress = float64(completed) / float64(len(p.Categories)) * 100
	} else {
		p.OverallProgress = 0
	}
}

// LevelHistoryEntry is one stay at a reading level. EndedAt is nil for
// the currently active level; at most one entry per student may be open.
type LevelHistoryEntry struct {
	Level     ReadingLevel `json:"level"`
	StartedAt time.Time    `json:"startedAt"`
	EndedAt   *time.Time   `json:"endedAt,omitempty"`
}

// Progression is a student's reading-level progression: the current
// level, the append-only level history, and the advancement requirements
// derived from the current level via the policy table.
type Progression struct {
	StudentID    string
	CurrentLevel ReadingLevel
	InitialLevel ReadingLevel
	History      []LevelHistoryEntry

	// Requirements is derived purely from CurrentLevel; it is refreshed
	// on every level change and never settable on its own.
	Requirements Requirements

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProgression creates a progression record starting at the given
// baseline level, with one open history entry.
func NewProgression(studentID string, baseline ReadingLevel, now time.Time) (*Progression, error) {
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}
	if !baseline.IsValid() {
		return nil, shared.ErrUnknownReadingLevel
	}

	reqs, err := RequirementsFor(baseline)
	if err != nil {
		return nil, err
	}

	return &Progression{
		StudentID:    studentID,
		CurrentLevel: baseline,
		InitialLevel: baseline,
		History: []LevelHistoryEntry{
			{Level: baseline, StartedAt: now},
		},
		Requirements: reqs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// OpenHistoryEntries counts history entries without an end date.
func (p *Progression) OpenHistoryEntries() int {
	open := 0
	for _, entry := range p.History {
		if entry.EndedAt == nil {
			open++
		}
	}
	return open
}

// AdvanceTo moves the student to a new level: the open history entry is
// closed and a new one appended in the same mutation, keeping the
// single-open-entry invariant.
func (p *Progression) AdvanceTo(next ReadingLevel, at time.Time) error {
	if !next.IsValid() {
		return shared.ErrUnknownReadingLevel
	}
	if next == p.CurrentLevel {
		return ErrAdvanceSameLevel
	}
	if p.OpenHistoryEntries() > 1 {
		return shared.ErrOpenHistoryViolation
	}

	closed := false
	for i := range p.History {
		if p.History[i].EndedAt == nil {
			ended := at
			p.History[i].EndedAt = &ended
			closed = true
		}
	}
	if !closed {
		return ErrNoOpenHistory
	}

	reqs, err := RequirementsFor(next)
	if err != nil {
		return err
	}

	p.History = append(p.History, LevelHistoryEntry{Level: next, StartedAt: at})
	p.CurrentLevel = next
	p.Requirements = reqs
	p.UpdatedAt = at
	return nil
}

// Audit field names for ProfileUpdateRecord.
const (
	AuditFieldReadingLevel   = "reading_level"
	AuditFieldCategoryStatus = "category_status"
)

// ProfileUpdateRecord is an append-only audit entry for a change of
// reading level or category status. Never mutated after creation.
type ProfileUpdateRecord struct {
	ID            string
	StudentID     string
	Field         string
	PreviousValue string
	NewValue      string
	Reason        string
	ActorID       string
	CreatedAt     time.Time
}
