package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mafiacoder/backend/internal/domain"
	"github.com/mafiacoder/backend/internal/execution"
)

// ExecutionHandler exposes raw code execution without judging, for the
// editor's "run" button. No verdict, no persistence.
type ExecutionHandler struct {
	runner execution.Runner
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(runner execution.Runner) *ExecutionHandler {
	return &ExecutionHandler{runner: runner}
}

// ExecuteRequest is the run-code request body
type ExecuteRequest struct {
	Language string `json:"language" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Stdin    string `json:"stdin"`
}

// Execute runs code against the execution backend and returns raw output
// POST /api/execute
func (h *ExecutionHandler) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	result, err := h.runner.Execute(c.Request.Context(), req.Language, req.Code, req.Stdin)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedLanguage):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Unsupported language",
				"supported": execution.SupportedLanguages(),
			})
		default:
			c.JSON(http.StatusBadGateway, gin.H{
				"error": "Code execution failed",
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Languages lists the supported execution languages
// GET /api/execute/languages
func (h *ExecutionHandler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": execution.SupportedLanguages(),
	})
}
