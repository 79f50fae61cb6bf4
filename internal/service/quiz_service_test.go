package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hiremind/hiremind-backend/internal/ai"
	"github.com/hiremind/hiremind-backend/internal/config"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuizServiceGenerateCachesFallback(t *testing.T) {
	mr, rdb := newTestRedis(t)
	users := fakeUsers{1: {ID: 1, Industry: "tech-software", Skills: []string{"Go"}}}
	cfg := testConfig()
	s := NewQuizService(mustGenerator(t, nil), users, rdb, cfg, zerolog.Nop())
	ctx := context.Background()

	quiz, err := s.Generate(ctx, 1)
	require.NoError(t, err)
	assert.True(t, quiz.Fallback)
	assert.Equal(t, int(ai.DefaultRetryAfter.Seconds()), quiz.RetryAfterSeconds)
	assert.Equal(t, 30, quiz.DurationMinutes)
	assert.Len(t, quiz.Questions, 6)

	key := config.CacheKey.QuizPayloadKey(quiz.ID.String())
	assert.True(t, mr.Exists(key))
	assert.Equal(t, cfg.QuizTTL, mr.TTL(key))

	loaded, err := s.Get(ctx, quiz.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, quiz.Questions, loaded.Questions)

	pub := loaded.Public()
	assert.Equal(t, model.FallbackWarning, pub.Warning)
}

func TestQuizServiceGet(t *testing.T) {
	_, rdb := newTestRedis(t)
	users := fakeUsers{1: {ID: 1, Industry: "finance"}}
	s := NewQuizService(mustGenerator(t, nil), users, rdb, testConfig(), zerolog.Nop())
	ctx := context.Background()

	quiz, err := s.Generate(ctx, 1)
	require.NoError(t, err)

	_, err = s.Get(ctx, quiz.ID, 2)
	assert.ErrorIs(t, err, ErrQuizNotFound)

	_, err = s.Get(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuizServiceUnknownUser(t *testing.T) {
	_, rdb := newTestRedis(t)
	s := NewQuizService(mustGenerator(t, nil), fakeUsers{}, rdb, testConfig(), zerolog.Nop())

	_, err := s.Generate(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestQuizServiceGenerationFailure(t *testing.T) {
	_, rdb := newTestRedis(t)
	users := fakeUsers{1: {ID: 1, Industry: "tech"}}
	backend := &tipBackend{tip: "this is not json"}
	s := NewQuizService(mustGenerator(t, backend), users, rdb, testConfig(), zerolog.Nop())

	_, err := s.Generate(context.Background(), 1)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}
