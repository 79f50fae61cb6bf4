// Package ai wraps the generative model used to write quiz questions and
// improvement tips, behind a circuit breaker with a static fallback quiz.
package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Backend produces a completion for a single text prompt.
type Backend interface {
	Generate(ctx context.Context, prompt string, format Format) (string, error)
}

// Format is the requested response encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// GeminiBackend calls the Gemini API through google.golang.org/genai.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini client for the given model.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiBackend{client: client, model: model}, nil
}

// Generate sends prompt as a single user turn and returns the response text.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string, format Format) (string, error) {
	var cfg *genai.GenerateContentConfig
	if format == FormatJSON {
		cfg = &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

// Name returns the backend identifier used in logs.
func (b *GeminiBackend) Name() string {
	return "gemini:" + b.model
}
