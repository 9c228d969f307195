package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackjoi/internal/service/stats"
)

type StatsHandler struct {
	svc    *stats.Service
	logger *zap.Logger
}

func NewStatsHandler(svc *stats.Service, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

// Get handles GET /api/stats
func (h *StatsHandler) Get(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to load statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   summary,
	})
}
