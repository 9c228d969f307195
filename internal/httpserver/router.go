package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"trackjoi/internal/handler"
	"trackjoi/pkg/otel"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Auth     *handler.AuthHandler
	Activity *handler.ActivityHandler
	Stats    *handler.StatsHandler
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(h Handlers, verifier TokenVerifier, db Pinger, requestTimeout time.Duration, logger *zap.Logger) *Router {
	r := gin.New()
	r.Use(
		Recovery(logger),
		TraceMiddleware(),
		RequestLogger(logger),
		otel.GinMiddleware(),
		RequestTimeout(requestTimeout),
	)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", health(db, logger))

	// Public
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)

	// Protected
	auth := api.Group("/")
	auth.Use(AuthMiddleware(verifier))
	{
		auth.GET("/activities", h.Activity.List)
		auth.POST("/activities", h.Activity.Create)
		auth.PUT("/activities/:id", h.Activity.Update)
		auth.DELETE("/activities/:id", h.Activity.Delete)
		auth.POST("/activities/:id/complete", h.Activity.Complete)
		auth.GET("/stats", h.Stats.Get)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return &Router{Engine: r}
}

func health(db Pinger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Error("Health check failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "ERROR", "message": "database connection failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "database connected"})
	}
}
