package ai

import (
	"fmt"

	"github.com/hiremind/hiremind-backend/internal/model"
)

// FallbackQuestions builds the static quiz served while the model is rate
// limited: five general questions plus one about the first listed skill.
func FallbackQuestions(industry string, skills []string) []model.Question {
	questions := []model.Question{
		{
			Question: fmt.Sprintf("What is the primary purpose of version control in %s development?", industry),
			Options: []string{
				"To track changes in code over time",
				"To compile code faster",
				"To reduce memory usage",
				"To improve code readability",
			},
			CorrectAnswer: "To track changes in code over time",
			Explanation:   "Version control systems like Git help track changes, collaborate with teams, and maintain code history.",
		},
		{
			Question: fmt.Sprintf("Which of the following is NOT a best practice in %s development?", industry),
			Options: []string{
				"Writing unit tests",
				"Using meaningful variable names",
				"Hardcoding sensitive information",
				"Following coding standards",
			},
			CorrectAnswer: "Hardcoding sensitive information",
			Explanation:   "Hardcoding sensitive information like passwords or API keys is a security risk and should be avoided.",
		},
		{
			Question: "What does DRY stand for in software development?",
			Options: []string{
				"Don't Repeat Yourself",
				"Data Retrieval Yield",
				"Dynamic Resource Yield",
				"Database Response Yield",
			},
			CorrectAnswer: "Don't Repeat Yourself",
			Explanation:   "DRY principle encourages avoiding code duplication to improve maintainability.",
		},
		{
			Question: fmt.Sprintf("Which approach is better for handling errors in %s applications?", industry),
			Options: []string{
				"Silently ignoring errors",
				"Handling errors explicitly where they occur",
				"Logging errors only",
				"Throwing all errors to the user",
			},
			CorrectAnswer: "Handling errors explicitly where they occur",
			Explanation:   "Handling errors where they occur allows graceful degradation and clear recovery paths.",
		},
		{
			Question: "What is the main benefit of code documentation?",
			Options: []string{
				"Makes code run faster",
				"Reduces file size",
				"Improves code maintainability",
				"Increases compilation speed",
			},
			CorrectAnswer: "Improves code maintainability",
			Explanation:   "Good documentation helps other developers understand and maintain the code.",
		},
	}

	if len(skills) > 0 {
		questions = append(questions, model.Question{
			Question: fmt.Sprintf("Which of these is most important when working with %s?", skills[0]),
			Options: []string{
				"Understanding the underlying concepts",
				"Memorizing all syntax",
				"Using the latest version always",
				"Avoiding documentation",
			},
			CorrectAnswer: "Understanding the underlying concepts",
			Explanation:   "Understanding core concepts is more valuable than memorizing syntax or always using the latest version.",
		})
	}
	return questions
}
