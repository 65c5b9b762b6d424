package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mafiacoder/backend/internal/domain"
	"github.com/mafiacoder/backend/internal/middleware"
	"github.com/mafiacoder/backend/internal/service"
)

// SubmissionHandler handles solution submission and history requests
type SubmissionHandler struct {
	judgeService *service.JudgeService
	subRepo      domain.SubmissionRepository
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(judgeService *service.JudgeService, subRepo domain.SubmissionRepository) *SubmissionHandler {
	return &SubmissionHandler{
		judgeService: judgeService,
		subRepo:      subRepo,
	}
}

// Submit judges a solution and returns the verdict. The request blocks
// until every test case has run or the verdict short-circuits.
// POST /api/submissions
func (h *SubmissionHandler) Submit(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	var req domain.SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	submission, err := h.judgeService.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		switch err {
		case domain.ErrProblemNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Problem not found",
			})
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		case domain.ErrUnsupportedLanguage:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unsupported language",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to judge submission",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, submission.ToResponse())
}

// ListMySubmissions returns the authenticated user's submissions
// GET /api/submissions
func (h *SubmissionHandler) ListMySubmissions(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	submissions, err := h.subRepo.FindByUserID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve submissions",
		})
		return
	}

	responses := make([]domain.SubmissionResponse, 0, len(submissions))
	for i := range submissions {
		responses = append(responses, submissions[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"submissions": responses,
		"count":       len(responses),
	})
}

// GetSubmission returns one submission owned by the authenticated user
// GET /api/submissions/:id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid submission ID",
		})
		return
	}

	submission, err := h.subRepo.FindByID(submissionID)
	if err != nil {
		switch err {
		case domain.ErrSubmissionNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Submission not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve submission",
			})
		}
		return
	}

	if submission.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied",
		})
		return
	}

	c.JSON(http.StatusOK, submission.ToResponse())
}
