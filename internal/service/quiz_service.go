package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hiremind/hiremind-backend/internal/ai"
	"github.com/hiremind/hiremind-backend/internal/config"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	ErrQuizNotFound     = errors.New("quiz not found or expired")
	ErrGenerationFailed = ai.ErrGenerationFailed
)

type userLookup interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
}

// QuizService generates quizzes and keeps them, answer key included, in Redis
// until they are graded or expire.
type QuizService struct {
	generator *ai.Generator
	users     userLookup
	rdb       *redis.Client
	cfg       *config.Config
	log       zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(generator *ai.Generator, users userLookup, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *QuizService {
	return &QuizService{
		generator: generator,
		users:     users,
		rdb:       rdb,
		cfg:       cfg,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// Generate writes a fresh quiz for the user's industry and skills and caches it.
func (s *QuizService) Generate(ctx context.Context, userID int) (*model.Quiz, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	gen, err := s.generator.Questions(ctx, user.Industry, user.Skills, s.cfg.QuizQuestionCount)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		ID:              uuid.New(),
		UserID:          userID,
		Questions:       gen.Questions,
		DurationMinutes: s.cfg.QuizDurationMinutes,
		Fallback:        gen.Fallback,
		CreatedAt:       time.Now().UTC(),
	}
	if gen.Fallback {
		quiz.RetryAfterSeconds = int(gen.RetryAfter / time.Second)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		return nil, fmt.Errorf("encode quiz: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.QuizPayloadKey(quiz.ID.String()), data, s.cfg.QuizTTL).Err(); err != nil {
		return nil, fmt.Errorf("cache quiz: %w", err)
	}

	s.log.Info().
		Int("user_id", userID).
		Str("quiz_id", quiz.ID.String()).
		Int("questions", len(quiz.Questions)).
		Bool("fallback", quiz.Fallback).
		Msg("Quiz generated")

	return quiz, nil
}

// Get loads a cached quiz owned by userID.
func (s *QuizService) Get(ctx context.Context, quizID uuid.UUID, userID int) (*model.Quiz, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.QuizPayloadKey(quizID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}

	var quiz model.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	// Another user's quiz is reported as missing.
	if quiz.UserID != userID {
		return nil, ErrQuizNotFound
	}
	return &quiz, nil
}
