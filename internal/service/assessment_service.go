package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/hiremind/hiremind-backend/internal/ai"
	"github.com/hiremind/hiremind-backend/internal/config"
	"github.com/hiremind/hiremind-backend/internal/metrics"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/hiremind/hiremind-backend/internal/quizsecurity"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	ErrInvalidAnswer    = errors.New("answer does not match any option")
	ErrInvalidIndex     = errors.New("question index out of range")
	ErrSaveFailed       = errors.New("failed to save quiz result")
)

type assessmentStore interface {
	Create(ctx context.Context, a *model.Assessment) error
	ListByUser(ctx context.Context, userID int) ([]model.Assessment, error)
}

// AssessmentService autosaves answers, grades finished quizzes and stores
// the resulting assessments.
type AssessmentService struct {
	repo      assessmentStore
	generator *ai.Generator
	users     userLookup
	rdb       *redis.Client
	cfg       *config.Config
	log       zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	repo assessmentStore,
	generator *ai.Generator,
	users userLookup,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		repo:      repo,
		generator: generator,
		users:     users,
		rdb:       rdb,
		cfg:       cfg,
		log:       log.With().Str("component", "assessment_service").Logger(),
	}
}

// SaveAnswer stores the chosen option for one question.
func (s *AssessmentService) SaveAnswer(ctx context.Context, userID int, quiz *model.Quiz, index int, answer string) error {
	if index < 0 || index >= len(quiz.Questions) {
		return ErrInvalidIndex
	}
	if !slices.Contains(quiz.Questions[index].Options, answer) {
		return ErrInvalidAnswer
	}

	quizID := quiz.ID.String()
	done, err := s.rdb.Exists(ctx, config.CacheKey.QuizResultKey(userID, quizID)).Result()
	if err != nil {
		return fmt.Errorf("check result: %w", err)
	}
	if done > 0 {
		return ErrAlreadySubmitted
	}

	key := config.CacheKey.UserQuizAnswersKey(userID, quizID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(index), answer)
	pipe.Expire(ctx, key, s.cfg.QuizTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

// RecordViolation queues an audit row for the violation worker.
func (s *AssessmentService) RecordViolation(ctx context.Context, userID int, quizID string, v quizsecurity.Violation, strike int) error {
	metrics.RecordViolation(string(v.Kind))

	payload, err := json.Marshal(model.ViolationLog{
		UserID:     userID,
		QuizID:     quizID,
		Kind:       string(v.Kind),
		Message:    v.Message,
		Strike:     strike,
		RecordedAt: v.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("encode violation: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, payload).Err(); err != nil {
		return fmt.Errorf("queue violation: %w", err)
	}
	return nil
}

// Finalize grades the quiz from the autosaved answers and stores the
// assessment. A quiz is graded at most once per user.
func (s *AssessmentService) Finalize(ctx context.Context, userID int, quiz *model.Quiz, d quizsecurity.Disposition) (*model.Assessment, error) {
	quizID := quiz.ID.String()
	resultKey := config.CacheKey.QuizResultKey(userID, quizID)

	claimed, err := s.rdb.SetNX(ctx, resultKey, string(d.Reason), s.cfg.QuizTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("claim result: %w", err)
	}
	if !claimed {
		return nil, ErrAlreadySubmitted
	}

	answersKey := config.CacheKey.UserQuizAnswersKey(userID, quizID)
	raw, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		s.rdb.Del(ctx, resultKey)
		return nil, fmt.Errorf("load answers: %w", err)
	}
	answers := make(map[int]string, len(raw))
	for k, v := range raw {
		if i, err := strconv.Atoi(k); err == nil {
			answers[i] = v
		}
	}

	score, results := Grade(quiz.Questions, answers, d.IsDisqualified)

	assessment := &model.Assessment{
		UserID:             userID,
		QuizID:             quiz.ID,
		QuizScore:          score,
		Questions:          results,
		Category:           model.AssessmentCategoryTechnical,
		SecurityViolations: securitySummary(d),
	}

	if wrong := WrongAnswers(results); len(wrong) > 0 && !d.IsDisqualified {
		assessment.ImprovementTip = s.improvementTip(ctx, userID, wrong)
	}

	if err := s.repo.Create(ctx, assessment); err != nil {
		s.rdb.Del(ctx, resultKey)
		s.log.Error().Err(err).Int("user_id", userID).Str("quiz_id", quizID).Msg("Persist assessment failed")
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	s.rdb.Del(ctx, answersKey)

	metrics.RecordFinalize(string(d.Reason), d.IsDisqualified)
	s.log.Info().
		Int("user_id", userID).
		Str("quiz_id", quizID).
		Str("reason", string(d.Reason)).
		Float64("score", score).
		Int("strikes", d.StrikeCount).
		Bool("disqualified", d.IsDisqualified).
		Msg("Quiz finalized and graded")

	return assessment, nil
}

// List returns the user's assessments, oldest first.
func (s *AssessmentService) List(ctx context.Context, userID int) ([]model.Assessment, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return list, nil
}

func (s *AssessmentService) improvementTip(ctx context.Context, userID int, wrong []model.QuestionResult) *string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("Skipping improvement tip")
		return nil
	}
	tip, err := s.generator.ImprovementTip(ctx, user.Industry, wrong)
	if err != nil || tip == "" {
		if err != nil {
			s.log.Warn().Err(err).Int("user_id", userID).Msg("Improvement tip generation failed")
		}
		return nil
	}
	return &tip
}

func securitySummary(d quizsecurity.Disposition) model.SecuritySummary {
	out := model.SecuritySummary{
		Disqualified:           d.IsDisqualified,
		DisqualificationReason: d.DisqualificationReason,
		FinishReason:           string(d.Reason),
		StrikeCount:            d.StrikeCount,
		Violations:             make([]model.ViolationRecord, 0, len(d.Violations)),
	}
	for _, v := range d.Violations {
		out.Violations = append(out.Violations, model.ViolationRecord{
			Kind:      string(v.Kind),
			Message:   v.Message,
			Timestamp: v.Timestamp,
		})
	}
	return out
}
