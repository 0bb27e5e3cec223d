package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"focusblock/internal/middleware"
	"focusblock/internal/service"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

type startRequest struct {
	DepartmentID    string `json:"departmentId"`
	ProjectID       string `json:"projectId"`
	DurationMinutes int    `json:"durationMinutes"`
	PlannedTitle    string `json:"plannedTitle"`
}

type completeRequest struct {
	Completed   bool   `json:"completed"`
	ActualTitle string `json:"actualTitle"`
	Notes       string `json:"notes"`
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	session, apiErr := h.sessionService.Start(c.Request.Context(), middleware.UserID(c), service.StartInput{
		DepartmentID:    req.DepartmentID,
		ProjectID:       req.ProjectID,
		DurationMinutes: req.DurationMinutes,
		PlannedTitle:    req.PlannedTitle,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, apiErr := h.sessionService.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Pause(c *gin.Context) {
	session, apiErr := h.sessionService.Pause(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Resume(c *gin.Context) {
	session, apiErr := h.sessionService.Resume(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Cancel(c *gin.Context) {
	session, apiErr := h.sessionService.Cancel(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	session, apiErr := h.sessionService.Complete(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.CompleteInput{
		Completed:   req.Completed,
		ActualTitle: req.ActualTitle,
		Notes:       req.Notes,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) History(c *gin.Context) {
	limit := 50
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.sessionService.History(c.Request.Context(), middleware.UserID(c), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
