package assessment

// ScoreResult summarizes one scored submission.
type ScoreResult struct {
	Raw           int
	TotalPossible int
	Percentage    float64
	Passed        bool
	CorrectIDs    []QuestionID
	IncorrectIDs  []QuestionID
}

// Score grades a set of submitted answers against a definition.
//
// The function is pure: it never touches storage and has no side effects.
// Every question in the definition counts toward TotalPossible; answered
// questions are graded against the option marked correct; unanswered
// questions and answers referencing unknown question IDs are ignored
// (neither rewarded nor penalized).
func Score(def Definition, answers AnswerSet) ScoreResult {
	result := ScoreResult{
		TotalPossible: def.TotalPossible(),
		CorrectIDs:    []QuestionID{},
		IncorrectIDs:  []QuestionID{},
	}

	for _, q := range def.Questions {
		chosen, answered := answers[q.ID]
		if !answered {
			continue
		}

		correctID, ok := q.CorrectOption()
		if ok && chosen == correctID {
			result.Raw += q.PointValue()
			result.CorrectIDs = append(result.CorrectIDs, q.ID)
		} else {
			result.IncorrectIDs = append(result.IncorrectIDs, q.ID)
		}
	}

	if result.TotalPossible > 0 {
		result.Percentage = float64(result.Raw) / float64(result.TotalPossible) * 100
	}
	result.Passed = result.Percentage >= def.Threshold()
	return result
}
