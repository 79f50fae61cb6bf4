package service

import "github.com/hiremind/hiremind-backend/internal/model"

// Grade scores answers against the quiz key. answers maps question index to
// the chosen option text; unanswered questions count as wrong. A
// disqualified session scores zero but keeps its per-question results.
func Grade(questions []model.Question, answers map[int]string, disqualified bool) (float64, []model.QuestionResult) {
	results := make([]model.QuestionResult, len(questions))
	correct := 0
	for i, q := range questions {
		given := answers[i]
		ok := given != "" && given == q.CorrectAnswer
		if ok {
			correct++
		}
		results[i] = model.QuestionResult{
			Question:    q.Question,
			Answer:      q.CorrectAnswer,
			UserAnswer:  given,
			IsCorrect:   ok,
			Explanation: q.Explanation,
		}
	}

	if disqualified || len(questions) == 0 {
		return 0, results
	}
	return float64(correct) / float64(len(questions)) * 100, results
}

// WrongAnswers returns the results that were not answered correctly.
func WrongAnswers(results []model.QuestionResult) []model.QuestionResult {
	var wrong []model.QuestionResult
	for _, r := range results {
		if !r.IsCorrect {
			wrong = append(wrong, r)
		}
	}
	return wrong
}
