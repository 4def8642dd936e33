// Package progression contains the reading-level state machine, per-student
// category progress, and the advancement policy that ties them together.
// This is a pure domain layer with zero external dependencies.
package progression

import (
	"strings"

	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
)

// ReadingLevel is an ordered stage in the curriculum progression.
type ReadingLevel string

const (
	// LevelNotAssessed is the initial state before any scored assessment.
	LevelNotAssessed ReadingLevel = "Not Assessed"

	LevelLowEmerging   ReadingLevel = "Low Emerging"
	LevelHighEmerging  ReadingLevel = "High Emerging"
	LevelDeveloping    ReadingLevel = "Developing"
	LevelTransitioning ReadingLevel = "Transitioning"

	// LevelAtGradeLevel is the terminal state; it maps to itself.
	LevelAtGradeLevel ReadingLevel = "At Grade Level"
)

// DefaultBaselineLevel is the level assumed for a student whose record has
// no assessed level when a progression snapshot is first created.
const DefaultBaselineLevel = LevelTransitioning

// orderedLevels lists all recognized levels from lowest to highest.
var orderedLevels = []ReadingLevel{
	LevelNotAssessed,
	LevelLowEmerging,
	LevelHighEmerging,
	LevelDeveloping,
	LevelTransitioning,
	LevelAtGradeLevel,
}

// IsValid reports whether the level is one of the recognized stages.
func (l ReadingLevel) IsValid() bool {
	for _, level := range orderedLevels {
		if l == level {
			return true
		}
	}
	return false
}

// String returns the display name of the level.
func (l ReadingLevel) String() string {
	return string(l)
}

// ParseLevel validates a level name, tolerating case differences.
// Returns shared.ErrUnknownReadingLevel for anything unrecognized.
func ParseLevel(raw string) (ReadingLevel, error) {
	trimmed := strings.TrimSpace(raw)
	for _, level := range orderedLevels {
		if strings.EqualFold(trimmed, string(level)) {
			return level, nil
		}
	}
	return "", shared.ErrUnknownReadingLevel
}

// Requirements describes what a student at a given level must complete to
// advance, and where advancement leads.
type Requirements struct {
	CurrentLevel        ReadingLevel `json:"currentLevel"`
	NextLevel           ReadingLevel `json:"nextLevel"`
	RequiredCategoryIDs []int        `json:"requiredCategoryIds"`
}

// advancementTable is the single source of truth for advancement
// requirements. It must not be duplicated or recomputed elsewhere.
var advancementTable = map[ReadingLevel]Requirements{
	LevelNotAssessed:   {CurrentLevel: LevelNotAssessed, NextLevel: LevelLowEmerging, RequiredCategoryIDs: []int{CategoryAlphabetKnowledge}},
	LevelLowEmerging:   {CurrentLevel: LevelLowEmerging, NextLevel: LevelHighEmerging, RequiredCategoryIDs: []int{CategoryAlphabetKnowledge, CategoryPhonologicalAwareness}},
	LevelHighEmerging:  {CurrentLevel: LevelHighEmerging, NextLevel: LevelDeveloping, RequiredCategoryIDs: []int{CategoryPhonologicalAwareness, CategoryPhonics}},
	LevelDeveloping:    {CurrentLevel: LevelDeveloping, NextLevel: LevelTransitioning, RequiredCategoryIDs: []int{CategoryPhonics, CategoryFluency}},
	LevelTransitioning: {CurrentLevel: LevelTransitioning, NextLevel: LevelAtGradeLevel, RequiredCategoryIDs: []int{CategoryFluency, CategoryComprehension}},
	LevelAtGradeLevel:  {CurrentLevel: LevelAtGradeLevel, NextLevel: LevelAtGradeLevel, RequiredCategoryIDs: []int{}},
}

// RequirementsFor returns the advancement requirements for a level. The
// lookup is a pure, total function over the recognized levels.
func RequirementsFor(level ReadingLevel) (Requirements, error) {
	reqs, ok := advancementTable[level]
	if !ok {
		return Requirements{}, shared.ErrUnknownReadingLevel
	}
	// Copy the slice so callers cannot mutate the table.
	required := make([]int, len(reqs.RequiredCategoryIDs))
	copy(required, reqs.RequiredCategoryIDs)
	reqs.RequiredCategoryIDs = required
	return reqs, nil
}

// Satisfied reports whether every required category appears in the
// completed set.
func (r Requirements) Satisfied(completedIDs []int) bool {
	return len(r.Remaining(completedIDs)) == 0
}

// Remaining returns the required category ids not yet completed.
func (r Requirements) Remaining(completedIDs []int) []int {
	completed := make(map[int]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	remaining := []int{}
	for _, id := range r.RequiredCategoryIDs {
		if !completed[id] {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

// IsTerminal reports whether the level advances to itself.
func (r Requirements) IsTerminal() bool {
	return r.CurrentLevel == r.NextLevel
}
