package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackjoi/internal/config"
	"trackjoi/internal/handler"
	"trackjoi/internal/httpserver"
	"trackjoi/internal/repository"
	"trackjoi/internal/service/activity"
	"trackjoi/internal/service/auth"
	"trackjoi/internal/service/stats"
	pkgconfig "trackjoi/pkg/config"
	"trackjoi/pkg/db"
	"trackjoi/pkg/logger"
	"trackjoi/pkg/mq"
	"trackjoi/pkg/otel"
	"trackjoi/pkg/outbox"
	redisclient "trackjoi/pkg/redis"
	"trackjoi/pkg/util"
)

func main() {
	cfg, err := config.Load(pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.App.LogLevel)
	defer log.Sync()

	log.Info("Starting trackjoi API...",
		zap.String("env", cfg.App.Env),
		zap.String("timezone", cfg.App.Timezone),
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.Bool("mq_enabled", cfg.MQ.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// OpenTelemetry
	shutdownOtel, err := otel.Init(cfg.Otel, log)
	if err != nil {
		log.Warn("Failed to initialize OpenTelemetry, continuing without tracing", zap.Error(err))
		shutdownOtel = func() {}
	}
	defer shutdownOtel()

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Outbox + RabbitMQ publisher
	var outboxRepo *outbox.Repository
	if cfg.MQ.Enabled {
		publisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init publisher", zap.Error(err))
		}
		defer publisher.Close()

		outboxRepo = outbox.NewRepository(dbConn)
		dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log).
			WithInterval(cfg.MQ.PollInterval).
			WithBatchSize(cfg.MQ.BatchSize).
			WithMaxRetries(cfg.MQ.MaxRetries)
		go dispatcher.Start(ctx)
	}

	// Repositories
	userRepo := repository.NewUserRepository(dbConn, log)
	activityRepo := repository.NewActivityRepository(dbConn, outboxRepo, log)
	logRepo := repository.NewActivityLogRepository(dbConn, outboxRepo, log)
	statsRepo := repository.NewStatsRepository(dbConn, log)

	// Services
	tokens := util.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := auth.NewService(userRepo, tokens, log)
	if cfg.Redis.Addr != "" {
		rdb, err := redisclient.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, login throttle disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			counter := util.NewAttemptCounter(rdb, "login_fail", cfg.Throttle.Window, log)
			authService.WithThrottle(counter, cfg.Throttle.MaxAttempts)
		}
	}
	activityService := activity.NewService(activityRepo, logRepo, cfg.Location(), log)
	statsService := stats.NewService(statsRepo, cfg.Location())

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Handlers
	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:     handler.NewAuthHandler(authService, log),
		Activity: handler.NewActivityHandler(activityService, log),
		Stats:    handler.NewStatsHandler(statsService, log),
	}, authService, dbConn, cfg.Server.RequestTimeout, log)

	server := httpserver.NewServer(cfg.Server, router.Engine, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("trackjoi API stopped")
}
