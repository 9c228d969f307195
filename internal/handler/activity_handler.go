package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackjoi/internal/service/activity"
)

type ActivityHandler struct {
	svc    *activity.Service
	logger *zap.Logger
}

func NewActivityHandler(svc *activity.Service, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, logger: logger}
}

// List handles GET /api/activities
func (h *ActivityHandler) List(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	activities, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to load activities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"activities": activities,
	})
}

// Create handles POST /api/activities
func (h *ActivityHandler) Create(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req activity.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and days of week are required"})
		return
	}

	a, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err, "failed to create activity")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "activity created",
		"activity": a,
	})
}

// Update handles PUT /api/activities/:id
func (h *ActivityHandler) Update(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	activityID, ok := getActivityID(c)
	if !ok {
		return
	}

	var req activity.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and days of week are required"})
		return
	}

	a, err := h.svc.Update(c.Request.Context(), userID, activityID, req)
	if err != nil {
		respondError(c, h.logger, err, "failed to update activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "activity updated",
		"activity": a,
	})
}

// Delete handles DELETE /api/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	activityID, ok := getActivityID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, activityID); err != nil {
		respondError(c, h.logger, err, "failed to delete activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "activity deleted",
	})
}

// Complete handles POST /api/activities/:id/complete
func (h *ActivityHandler) Complete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	activityID, ok := getActivityID(c)
	if !ok {
		return
	}

	// the body is optional
	var req activity.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.svc.RecordCompletion(c.Request.Context(), userID, activityID, req); err != nil {
		respondError(c, h.logger, err, "failed to update activity status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "activity status updated",
	})
}
