package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/hiremind/hiremind-backend/internal/quizsecurity"
)

// The handlers depend on these narrow views of the services so they can be
// exercised with fakes.

type authService interface {
	CheckPassword(hash, password string) error
	GenerateToken(ctx context.Context, userID int, email string) (string, error)
	Logout(ctx context.Context, userID int) error
}

type userService interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type quizService interface {
	Generate(ctx context.Context, userID int) (*model.Quiz, error)
	Get(ctx context.Context, quizID uuid.UUID, userID int) (*model.Quiz, error)
}

type assessmentService interface {
	SaveAnswer(ctx context.Context, userID int, quiz *model.Quiz, index int, answer string) error
	RecordViolation(ctx context.Context, userID int, quizID string, v quizsecurity.Violation, strike int) error
	Finalize(ctx context.Context, userID int, quiz *model.Quiz, d quizsecurity.Disposition) (*model.Assessment, error)
	List(ctx context.Context, userID int) ([]model.Assessment, error)
}
