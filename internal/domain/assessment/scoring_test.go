package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func twoQuestionDefinition() Definition {
	return Definition{
		ID:    "asm-letters",
		Title: "Letter Recognition",
		Questions: []Question{
			{
				ID: "q1",
				Options: []Option{
					{ID: "a", Correct: true},
					{ID: "b"},
				},
			},
			{
				ID: "q2",
				Options: []Option{
					{ID: "a"},
					{ID: "b", Correct: true},
				},
			},
		},
	}
}

func TestScore_OneCorrectOneIncorrect(t *testing.T) {
	def := twoQuestionDefinition()

	result := Score(def, AnswerSet{"q1": "a", "q2": "a"})

	assert.Equal(t, 1, result.Raw)
	assert.Equal(t, 2, result.TotalPossible)
	assert.InDelta(t, 50.0, result.Percentage, 1e-9)
	assert.False(t, result.Passed)
	assert.Equal(t, []QuestionID{"q1"}, result.CorrectIDs)
	assert.Equal(t, []QuestionID{"q2"}, result.IncorrectIDs)
}

func TestScore_AllCorrectPasses(t *testing.T) {
	def := Definition{ID: "asm-fluency"}
	for _, id := range []QuestionID{"q1", "q2", "q3", "q4"} {
		def.Questions = append(def.Questions, Question{
			ID:      id,
			Options: []Option{{ID: "right", Correct: true}, {ID: "wrong"}},
		})
	}
	answers := AnswerSet{"q1": "right", "q2": "right", "q3": "right", "q4": "right"}

	result := Score(def, answers)

	assert.Equal(t, 4, result.Raw)
	assert.InDelta(t, 100.0, result.Percentage, 1e-9)
	assert.True(t, result.Passed)
}

func TestScore_UnansweredAndUnknownIgnored(t *testing.T) {
	def := twoQuestionDefinition()

	// q2 unanswered, one answer references a question not in the definition.
	result := Score(def, AnswerSet{"q1": "a", "ghost": "a"})

	assert.Equal(t, 1, result.Raw)
	assert.Equal(t, 2, result.TotalPossible)
	assert.Equal(t, []QuestionID{"q1"}, result.CorrectIDs)
	assert.Empty(t, result.IncorrectIDs)
	assert.InDelta(t, 50.0, result.Percentage, 1e-9)
}

func TestScore_PointValuesWeighted(t *testing.T) {
	def := Definition{
		ID: "asm-weighted",
		Questions: []Question{
			{ID: "q1", Points: 3, Options: []Option{{ID: "a", Correct: true}}},
			{ID: "q2", Points: 1, Options: []Option{{ID: "a", Correct: true}}},
		},
	}

	result := Score(def, AnswerSet{"q1": "a"})

	assert.Equal(t, 3, result.Raw)
	assert.Equal(t, 4, result.TotalPossible)
	assert.InDelta(t, 75.0, result.Percentage, 1e-9)
	assert.True(t, result.Passed)
}

func TestScore_EmptyDefinition(t *testing.T) {
	result := Score(Definition{ID: "asm-empty"}, AnswerSet{"q1": "a"})

	assert.Equal(t, 0, result.Raw)
	assert.Equal(t, 0, result.TotalPossible)
	assert.Zero(t, result.Percentage)
	assert.False(t, result.Passed)
}

func TestScore_CustomThreshold(t *testing.T) {
	def := twoQuestionDefinition()
	def.PassingThreshold = 50

	result := Score(def, AnswerSet{"q1": "a", "q2": "a"})

	assert.True(t, result.Passed)
}

func TestScore_PercentageAlwaysInRange(t *testing.T) {
	def := twoQuestionDefinition()
	cases := []AnswerSet{
		{},
		{"q1": "a"},
		{"q1": "b", "q2": "a"},
		{"q1": "a", "q2": "b"},
	}
	for _, answers := range cases {
		result := Score(def, answers)
		assert.GreaterOrEqual(t, result.Percentage, 0.0)
		assert.LessOrEqual(t, result.Percentage, 100.0)
		expected := float64(result.Raw) / float64(result.TotalPossible) * 100
		assert.InDelta(t, expected, result.Percentage, 1e-9)
	}
}
