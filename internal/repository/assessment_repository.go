package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssessmentRepository handles assessment data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

// Create inserts a graded assessment. ID and CreatedAt are assigned by the database.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment) error {
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	violations, err := json.Marshal(a.SecurityViolations)
	if err != nil {
		return fmt.Errorf("encode violations: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO assessments (user_id, quiz_id, quiz_score, questions, category, improvement_tip, security_violations)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7::jsonb)
		 RETURNING id, created_at`,
		a.UserID, a.QuizID, a.QuizScore, string(questions), a.Category, a.ImprovementTip, string(violations),
	).Scan(&a.ID, &a.CreatedAt)
}

// ListByUser returns a user's assessments, oldest first.
func (r *AssessmentRepository) ListByUser(ctx context.Context, userID int) ([]model.Assessment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, quiz_id, quiz_score, questions, category, improvement_tip, security_violations, created_at
		 FROM assessments
		 WHERE user_id = $1
		 ORDER BY created_at ASC`, userID,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Assessment, error) {
		var (
			a          model.Assessment
			questions  []byte
			violations []byte
		)
		if err := row.Scan(&a.ID, &a.UserID, &a.QuizID, &a.QuizScore, &questions, &a.Category, &a.ImprovementTip, &violations, &a.CreatedAt); err != nil {
			return a, err
		}
		if err := json.Unmarshal(questions, &a.Questions); err != nil {
			return a, fmt.Errorf("decode questions: %w", err)
		}
		if err := json.Unmarshal(violations, &a.SecurityViolations); err != nil {
			return a, fmt.Errorf("decode violations: %w", err)
		}
		return a, nil
	})
}
