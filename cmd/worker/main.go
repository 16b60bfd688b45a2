package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/careloop/intake-api/internal/config"
	"github.com/careloop/intake-api/internal/email"
	"github.com/careloop/intake-api/internal/repository/postgres"
	"github.com/careloop/intake-api/internal/worker"
	"github.com/careloop/intake-api/pkg/logger"
	redisBroker "github.com/careloop/intake-api/pkg/messaging/redis"
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

	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     5,
		MinIdleConns: 1,
	}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	notifier := worker.NewEmailNotifier(
		broker,
		postgres.NewConnectionRepository(db),
		postgres.NewUserRepository(db),
		email.NewService(cfg.SMTP),
		appLogger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down worker...")
		cancel()
	}()

	log.Info().Msg("intake event worker started")
	if err := notifier.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("worker stopped")
	}

	log.Info().Msg("worker exited properly")
}
