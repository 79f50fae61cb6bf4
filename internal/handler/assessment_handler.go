package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hiremind/hiremind-backend/internal/middleware"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/hiremind/hiremind-backend/internal/response"
)

// AssessmentHandler exposes the caller's graded quizzes.
type AssessmentHandler struct {
	assessmentService assessmentService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService assessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

// List godoc
// GET /api/v1/assessments
// Returns the caller's assessments, oldest first.
func (h *AssessmentHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	list, err := h.assessmentService.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if list == nil {
		list = []model.Assessment{}
	}

	response.Success(c, http.StatusOK, gin.H{"assessments": list})
}
