package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/hiremind/hiremind-backend/internal/model"
)

var codeFence = regexp.MustCompile("```(?:json)?\\n?")

func quizPrompt(industry string, skills []string, count int) string {
	var expertise string
	if len(skills) > 0 {
		expertise = " with expertise in " + strings.Join(skills, ", ")
	}
	return fmt.Sprintf(`Generate %d technical interview questions for a %s professional%s.

Each question should be multiple choice with 4 options.

Return the response in this JSON format only, no additional text:
{
  "questions": [
    {
      "question": "string",
      "options": ["string", "string", "string", "string"],
      "correctAnswer": "string",
      "explanation": "string"
    }
  ]
}`, count, industry, expertise)
}

func tipPrompt(industry string, wrong []model.QuestionResult) string {
	parts := make([]string, 0, len(wrong))
	for _, q := range wrong {
		parts = append(parts, fmt.Sprintf("Question: %q\nCorrect Answer: %q\nUser Answer: %q", q.Question, q.Answer, q.UserAnswer))
	}
	return fmt.Sprintf(`The user got the following %s technical interview questions wrong:

%s

Based on these mistakes, provide a concise, specific improvement tip.
Focus on the knowledge gaps revealed by these wrong answers.
Keep the response under 2 sentences and make it encouraging.
Don't explicitly mention the mistakes, instead focus on what to learn/practice.`, industry, strings.Join(parts, "\n\n"))
}

// stripCodeFences removes markdown fences models wrap JSON in.
func stripCodeFences(text string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(text, ""))
}

// parseQuestions decodes a quiz completion. Items without a question, with
// fewer than two options or whose correct answer is not one of the options
// are dropped; an empty result is an error.
func parseQuestions(text string) ([]model.Question, error) {
	var payload struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &payload); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}

	out := payload.Questions[:0]
	for _, q := range payload.Questions {
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" || len(q.Options) < 2 || !slices.Contains(q.Options, q.CorrectAnswer) {
			continue
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, errors.New("quiz contains no usable questions")
	}
	return out, nil
}
