package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hiremind/hiremind-backend/internal/metrics"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// ErrGenerationFailed is returned when the model fails for a reason other
// than rate limiting.
var ErrGenerationFailed = errors.New("failed to generate quiz questions")

// Settings tunes the breaker around the backend.
type Settings struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// CallTimeout bounds a single backend call.
	CallTimeout time.Duration
}

// Generation is the outcome of a quiz request.
type Generation struct {
	Questions []model.Question
	// Fallback is set when the static quiz was served instead of model output.
	Fallback   bool
	RetryAfter time.Duration
}

// Generator writes quizzes and improvement tips.
type Generator struct {
	backend Backend
	cb      *gobreaker.CircuitBreaker[string]
	timeout time.Duration
	log     zerolog.Logger
}

// NewGenerator wraps backend. A nil backend makes every quiz a fallback quiz.
func NewGenerator(backend Backend, s Settings, log zerolog.Logger) *Generator {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.CallTimeout <= 0 {
		s.CallTimeout = 45 * time.Second
	}

	g := &Generator{
		backend: backend,
		timeout: s.CallTimeout,
		log:     log.With().Str("component", "ai_generator").Logger(),
	}

	name := "genai"
	metrics.AIBreakerState.WithLabelValues(name).Set(0)
	g.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		// Context cancellation by the caller is not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("AI circuit breaker state change")
			metrics.AIBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return g
}

// Questions generates count questions for the profile. Rate limiting or an
// open breaker yields the fallback quiz; other failures return
// ErrGenerationFailed.
func (g *Generator) Questions(ctx context.Context, industry string, skills []string, count int) (Generation, error) {
	if g.backend == nil {
		metrics.RecordAIRequest("quiz", "fallback")
		return Generation{Questions: FallbackQuestions(industry, skills), Fallback: true, RetryAfter: DefaultRetryAfter}, nil
	}

	text, err := g.call(ctx, "quiz", quizPrompt(industry, skills, count), FormatJSON)
	if err != nil {
		if IsRateLimited(err) {
			retry := RetryAfter(err)
			g.log.Warn().Err(err).Dur("retry_after", retry).Msg("AI rate limited, serving fallback quiz")
			return Generation{Questions: FallbackQuestions(industry, skills), Fallback: true, RetryAfter: retry}, nil
		}
		g.log.Error().Err(err).Msg("Quiz generation failed")
		return Generation{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	questions, err := parseQuestions(text)
	if err != nil {
		g.log.Error().Err(err).Msg("Quiz completion unusable")
		return Generation{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if count > 0 && len(questions) > count {
		questions = questions[:count]
	}
	return Generation{Questions: questions}, nil
}

// ImprovementTip asks for a short study hint based on the wrong answers.
func (g *Generator) ImprovementTip(ctx context.Context, industry string, wrong []model.QuestionResult) (string, error) {
	if g.backend == nil {
		return "", errors.New("no AI backend configured")
	}
	if len(wrong) == 0 {
		return "", nil
	}
	text, err := g.call(ctx, "improvement_tip", tipPrompt(industry, wrong), FormatText)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) call(ctx context.Context, op, prompt string, format Format) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.cb.Execute(func() (string, error) {
		return g.backend.Generate(ctx, prompt, format)
	})

	switch {
	case err == nil:
		metrics.RecordAIRequest(op, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordAIRequest(op, "rejected")
	case IsRateLimited(err):
		metrics.RecordAIRequest(op, "rate_limited")
	default:
		metrics.RecordAIRequest(op, "failure")
	}
	return text, err
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
