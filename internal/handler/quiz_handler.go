package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hiremind/hiremind-backend/internal/middleware"
	"github.com/hiremind/hiremind-backend/internal/quizsecurity"
	"github.com/hiremind/hiremind-backend/internal/response"
	"github.com/hiremind/hiremind-backend/internal/service"
)

// QuizHandler serves quiz generation and the security policy clients enforce.
type QuizHandler struct {
	quizService quizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService quizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

// Generate godoc
// POST /api/v1/quizzes
// Generates a quiz for the caller's industry and skills. The answer key stays
// on the server.
func (h *QuizHandler) Generate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quiz, err := h.quizService.Generate(c.Request.Context(), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrGenerationFailed):
			response.Fail(c, http.StatusBadGateway, response.ErrQuizGeneration)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, quiz.Public())
}

// Get godoc
// GET /api/v1/quizzes/:quiz_id
func (h *QuizHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrQuizNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, quiz.Public())
}

// Shortcuts godoc
// GET /api/v1/security/shortcuts
// Lists the keyboard shortcuts the page must report while a quiz runs.
func (h *QuizHandler) Shortcuts(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"shortcuts":    quizsecurity.BlockedShortcuts(),
		"strike_limit": quizsecurity.StrikeLimit,
	})
}
