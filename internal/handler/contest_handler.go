package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mafiacoder/backend/internal/domain"
	"github.com/mafiacoder/backend/internal/middleware"
	"github.com/mafiacoder/backend/internal/service"
)

// ContestHandler handles contest-related HTTP requests
type ContestHandler struct {
	contestService *service.ContestService
}

// NewContestHandler creates a new contest handler
func NewContestHandler(contestService *service.ContestService) *ContestHandler {
	return &ContestHandler{
		contestService: contestService,
	}
}

// ListContests returns all contests with their derived status
// GET /api/contests
func (h *ContestHandler) ListContests(c *gin.Context) {
	contests, err := h.contestService.GetContests(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve contests",
		})
		return
	}

	now := time.Now()
	responses := make([]domain.ContestResponse, 0, len(contests))
	for i := range contests {
		responses = append(responses, contests[i].ToResponse(now))
	}

	c.JSON(http.StatusOK, gin.H{
		"contests": responses,
		"count":    len(responses),
	})
}

// GetContest returns one contest with its problem set
// GET /api/contests/:id
func (h *ContestHandler) GetContest(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid contest ID",
		})
		return
	}

	contest, err := h.contestService.GetContest(c.Request.Context(), contestID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve contest",
			})
		}
		return
	}

	c.JSON(http.StatusOK, contest.ToResponse(time.Now()))
}

// CreateContest creates a new contest (admin only)
// POST /api/contests
func (h *ContestHandler) CreateContest(c *gin.Context) {
	if _, ok := middleware.RequireAdmin(c); !ok {
		return
	}

	var req domain.CreateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if !req.EndTime.After(req.StartTime) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "End time must be after start time",
		})
		return
	}

	contest, err := h.contestService.CreateContest(c.Request.Context(), &req)
	if err != nil {
		switch err {
		case domain.ErrProblemNotFound:
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "One or more problems do not exist",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create contest",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, contest.ToResponse(time.Now()))
}

// Register enrolls the authenticated user in a contest
// POST /api/contests/:id/register
func (h *ContestHandler) Register(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid contest ID",
		})
		return
	}

	contest, err := h.contestService.Register(c.Request.Context(), contestID, userID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		case domain.ErrAlreadyRegistered:
			c.JSON(http.StatusConflict, gin.H{
				"error": "Already registered for this contest",
			})
		case domain.ErrRegistrationClosed:
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Registration for this contest has closed",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to register for contest",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Registered successfully",
		"contest": contest.ToResponse(time.Now()),
	})
}

// GetLeaderboard returns the ranked standings for a contest
// GET /api/contests/:id/leaderboard
func (h *ContestHandler) GetLeaderboard(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid contest ID",
		})
		return
	}

	entries, err := h.contestService.Leaderboard(c.Request.Context(), contestID)
	if err != nil {
		switch err {
		case domain.ErrContestNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Contest not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve leaderboard",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"count":       len(entries),
	})
}
