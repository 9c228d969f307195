package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackjoi/internal/apperror"
	"trackjoi/pkg/logger"
)

// UserIDKey is the gin context key the auth middleware stores the caller under.
const UserIDKey = "user_id"

// respondError writes {"error": msg} with the status apperror assigns to err.
// Server-side failures are logged; their details never reach the client.
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	status, msg := apperror.Status(err, fallback)
	if status >= http.StatusInternalServerError {
		logger.WithTrace(c.Request.Context(), log).Error(fallback,
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// getUserID reads the authenticated caller set by the auth middleware.
func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token is missing"})
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		return 0, false
	}
	return id, true
}

// getActivityID parses the :id path segment. Anything that is not a positive
// integer cannot name an activity, so it is reported as not found.
func getActivityID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "activity not found"})
		return 0, false
	}
	return id, true
}
