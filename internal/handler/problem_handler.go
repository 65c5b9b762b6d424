package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mafiacoder/backend/internal/domain"
	"github.com/mafiacoder/backend/internal/middleware"
	"github.com/mafiacoder/backend/internal/service"
)

// ProblemHandler handles problem-bank HTTP requests
type ProblemHandler struct {
	problemService *service.ProblemService
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(problemService *service.ProblemService) *ProblemHandler {
	return &ProblemHandler{
		problemService: problemService,
	}
}

// ListProblems returns all problems matching the query filters
// GET /api/problems?difficulty=Easy&tag=array&company=Google
func (h *ProblemHandler) ListProblems(c *gin.Context) {
	var filter domain.ProblemFilter

	if raw := c.Query("difficulty"); raw != "" {
		difficulty := domain.Difficulty(raw)
		if difficulty.Weight() == 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid difficulty, must be Easy, Medium, or Hard",
			})
			return
		}
		filter.Difficulty = &difficulty
	}
	filter.Tag = c.Query("tag")
	filter.Company = c.Query("company")

	problems, err := h.problemService.GetProblems(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve problems",
		})
		return
	}

	responses := make([]domain.ProblemResponse, 0, len(problems))
	for i := range problems {
		responses = append(responses, problems[i].ToSummary())
	}

	c.JSON(http.StatusOK, gin.H{
		"problems": responses,
		"count":    len(responses),
	})
}

// GetProblem returns one problem with its statement and visible examples
// GET /api/problems/:slug
func (h *ProblemHandler) GetProblem(c *gin.Context) {
	problem, err := h.problemService.GetProblemBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		switch err {
		case domain.ErrProblemNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Problem not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve problem",
			})
		}
		return
	}

	c.JSON(http.StatusOK, problem.ToResponse())
}

// CreateProblem creates a new problem (admin only)
// POST /api/problems
func (h *ProblemHandler) CreateProblem(c *gin.Context) {
	if _, ok := middleware.RequireAdmin(c); !ok {
		return
	}

	var req domain.CreateProblemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	problem, err := h.problemService.CreateProblem(c.Request.Context(), &req)
	if err != nil {
		switch err {
		case domain.ErrSlugTaken:
			c.JSON(http.StatusConflict, gin.H{
				"error": "A problem with this slug already exists",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create problem",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, problem.ToResponse())
}

// AppendTestCasesRequest is the request body for appending test cases
type AppendTestCasesRequest struct {
	TestCases []domain.TestCaseRequest `json:"test_cases" binding:"required,min=1"`
}

// AppendTestCases appends judging test cases to a problem (admin only)
// POST /api/problems/:slug/testcases
func (h *ProblemHandler) AppendTestCases(c *gin.Context) {
	if _, ok := middleware.RequireAdmin(c); !ok {
		return
	}

	var req AppendTestCasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	problem, err := h.problemService.AppendTestCases(c.Request.Context(), c.Param("slug"), req.TestCases)
	if err != nil {
		switch err {
		case domain.ErrProblemNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Problem not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to append test cases",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"problem":          problem.ToSummary(),
		"total_test_cases": len(problem.TestCases),
	})
}
