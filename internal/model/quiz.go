package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is one multiple-choice item. CorrectAnswer holds the text of the
// right option, not its index.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Quiz is a generated question set as cached server side, answer key included.
type Quiz struct {
	ID              uuid.UUID  `json:"id"`
	UserID          int        `json:"user_id"`
	Questions       []Question `json:"questions"`
	DurationMinutes int        `json:"duration_minutes"`
	// Fallback marks a quiz built from the static question set because the AI
	// backend was rate limited or unavailable.
	Fallback          bool      `json:"fallback"`
	RetryAfterSeconds int       `json:"retry_after_seconds,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// PublicQuestion is a question as shown to the quiz taker.
type PublicQuestion struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// PublicQuiz is the client view of a Quiz.
type PublicQuiz struct {
	ID                uuid.UUID        `json:"id"`
	Questions         []PublicQuestion `json:"questions"`
	DurationMinutes   int              `json:"duration_minutes"`
	Fallback          bool             `json:"fallback"`
	Warning           string           `json:"warning,omitempty"`
	RetryAfterSeconds int              `json:"retry_after_seconds,omitempty"`
}

// FallbackWarning is shown with quizzes built without the AI backend.
const FallbackWarning = "AI service temporarily unavailable. Showing a basic quiz. Please retry later for tailored questions."

// Public strips the answer key.
func (q *Quiz) Public() PublicQuiz {
	out := PublicQuiz{
		ID:                q.ID,
		Questions:         make([]PublicQuestion, len(q.Questions)),
		DurationMinutes:   q.DurationMinutes,
		Fallback:          q.Fallback,
		RetryAfterSeconds: q.RetryAfterSeconds,
	}
	for i, item := range q.Questions {
		out.Questions[i] = PublicQuestion{Index: i, Question: item.Question, Options: item.Options}
	}
	if q.Fallback {
		out.Warning = FallbackWarning
	}
	return out
}
