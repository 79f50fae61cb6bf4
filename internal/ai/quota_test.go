package ai

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"api 429", genai.APIError{Code: 429}, true},
		{"wrapped api 429", fmt.Errorf("call: %w", genai.APIError{Code: 429}), true},
		{"api 500", genai.APIError{Code: 500, Message: "internal"}, false},
		{"message 429", errors.New("got HTTP 429 from upstream"), true},
		{"too many requests", errors.New("Too Many Requests"), true},
		{"quota", errors.New("Quota exceeded for metric"), true},
		{"open breaker", gobreaker.ErrOpenState, true},
		{"half-open", gobreaker.ErrTooManyRequests, true},
		{"other", errors.New("connection refused"), false},
		{"number containing 429", errors.New("id 14290 not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	detail := genai.APIError{
		Code: 429,
		Details: []map[string]any{
			{"@type": "type.googleapis.com/google.rpc.QuotaFailure"},
			{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "42s"},
		},
	}

	assert.Equal(t, 42*time.Second, RetryAfter(detail))

	detail.Details[1]["retryDelay"] = "12.5s"
	assert.Equal(t, 13*time.Second, RetryAfter(detail))
	detail.Details[1]["retryDelay"] = "1.000001s"
	assert.Equal(t, 2*time.Second, RetryAfter(detail))
	detail.Details[1]["retryDelay"] = "soon"
	assert.Equal(t, DefaultRetryAfter, RetryAfter(detail))

	assert.Equal(t, 13*time.Second, RetryAfter(errors.New("Please retry in 12.3s.")))
	assert.Equal(t, 5*time.Second, RetryAfter(errors.New("retry in 5s")))
	assert.Equal(t, DefaultRetryAfter, RetryAfter(errors.New("quota")))
	assert.Equal(t, DefaultRetryAfter, RetryAfter(nil))
}

func TestParseQuestionsStripsFences(t *testing.T) {
	qs, err := parseQuestions("```\n{\"questions\":[{\"question\":\"Q\",\"options\":[\"a\",\"b\"],\"correctAnswer\":\"b\"}]}\n```")
	assert.NoError(t, err)
	assert.Len(t, qs, 1)

	_, err = parseQuestions(`{"questions":[]}`)
	assert.Error(t, err)
}

func TestFallbackQuestions(t *testing.T) {
	assert.Len(t, FallbackQuestions("Finance", nil), 5)

	qs := FallbackQuestions("Finance", []string{"Excel", "SQL"})
	assert.Len(t, qs, 6)
	for _, q := range qs {
		assert.Contains(t, q.Options, q.CorrectAnswer, q.Question)
	}
}
