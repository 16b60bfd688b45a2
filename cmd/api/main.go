package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/careloop/intake-api/internal/agent"
	"github.com/careloop/intake-api/internal/config"
	"github.com/careloop/intake-api/internal/handler"
	auditHandler "github.com/careloop/intake-api/internal/handler/audit"
	sessionHandler "github.com/careloop/intake-api/internal/handler/session"
	"github.com/careloop/intake-api/internal/middleware"
	"github.com/careloop/intake-api/internal/repository/postgres"
	"github.com/careloop/intake-api/internal/router"
	auditService "github.com/careloop/intake-api/internal/service/audit"
	"github.com/careloop/intake-api/internal/service/notification"
	sessionService "github.com/careloop/intake-api/internal/service/session"
	"github.com/careloop/intake-api/pkg/auth"
	"github.com/careloop/intake-api/pkg/logger"
	"github.com/careloop/intake-api/pkg/messaging"
	redisBroker "github.com/careloop/intake-api/pkg/messaging/redis"
	"github.com/careloop/intake-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	sessionRepo := postgres.NewSessionRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	connectionRepo := postgres.NewConnectionRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// The broker is optional: without a redis URL the service runs with
	// notifications disabled.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   3,
			RetryBackoff: 100 * time.Millisecond,
			PoolSize:     10,
			MinIdleConns: 2,
		}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	m := metrics.NewMetrics("intake")

	auditSvc := auditService.NewService(auditRepo)
	notifier := notification.NewService(broker)
	sessionSvc := sessionService.NewService(
		sessionRepo,
		messageRepo,
		appointmentRepo,
		connectionRepo,
		auditSvc,
		notifier,
		agent.Limits{
			OfferConclusion: cfg.Intake.OfferConclusionAt,
			ForceHandover:   cfg.Intake.ForceHandoverAt,
		},
		m,
	)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, userRepo)

	h := handler.NewHandler(db)
	sessionH := sessionHandler.NewHandler(sessionSvc)
	auditH := auditHandler.NewHandler(auditSvc)

	r := router.NewRouter(authMiddleware, sessionH, auditH, h, router.RouterConfig{
		RateLimit:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:     cfg.RateLimit.Burst,
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "intake_http",
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
