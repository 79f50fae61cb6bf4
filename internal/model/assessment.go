package model

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentCategoryTechnical is the category of generated technical quizzes.
const AssessmentCategoryTechnical = "Technical"

// QuestionResult is the graded outcome of one question.
type QuestionResult struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	UserAnswer  string `json:"userAnswer"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation"`
}

// ViolationRecord is a recorded security violation as stored with an assessment.
type ViolationRecord struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SecuritySummary is the violation summary persisted with each assessment.
type SecuritySummary struct {
	Disqualified           bool              `json:"disqualified"`
	DisqualificationReason string            `json:"disqualification_reason,omitempty"`
	FinishReason           string            `json:"finish_reason"`
	StrikeCount            int               `json:"strike_count"`
	Violations             []ViolationRecord `json:"violations"`
}

// Assessment is a finished, graded quiz.
type Assessment struct {
	ID                 uuid.UUID        `json:"id"`
	UserID             int              `json:"user_id"`
	QuizID             uuid.UUID        `json:"quiz_id"`
	QuizScore          float64          `json:"quiz_score"`
	Questions          []QuestionResult `json:"questions"`
	Category           string           `json:"category"`
	ImprovementTip     *string          `json:"improvement_tip"`
	SecurityViolations SecuritySummary  `json:"security_violations"`
	CreatedAt          time.Time        `json:"created_at"`
}

// ViolationLog is one audit row queued for the violation worker.
type ViolationLog struct {
	UserID     int       `json:"user_id"`
	QuizID     string    `json:"quiz_id"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	Strike     int       `json:"strike"`
	RecordedAt time.Time `json:"recorded_at"`
}
