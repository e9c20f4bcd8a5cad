// Command server runs the event pickup dispatch API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/99minutos/event-pickup/internal/api"
	"github.com/99minutos/event-pickup/internal/api/handler"
	"github.com/99minutos/event-pickup/internal/core/ports"
	"github.com/99minutos/event-pickup/internal/core/routing"
	"github.com/99minutos/event-pickup/internal/core/service"
	"github.com/99minutos/event-pickup/internal/infrastructure/config"
	"github.com/99minutos/event-pickup/internal/infrastructure/db/mongo"
	"github.com/99minutos/event-pickup/internal/infrastructure/db/redis"
	"github.com/99minutos/event-pickup/internal/infrastructure/notify"
	"github.com/99minutos/event-pickup/internal/infrastructure/queue"
	"github.com/99minutos/event-pickup/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{Service: "event-pickup"})
		l.Error().Err(err).Msg("invalid configuration")
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "event-pickup",
	})

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set")
	}

	eta, err := routing.NewEstimator(cfg.Dispatch.AverageSpeedKmh)
	if err != nil {
		log.Error().Err(err).Msg("invalid dispatch configuration")
		return err
	}

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to mongodb")
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	pickupRepo := mongo.NewPickupRepository(db)
	if err := pickupRepo.EnsureIndexes(ctx); err != nil {
		log.Error().Err(err).Msg("failed to create pickup indexes")
		return err
	}

	healthChecks := map[string]handler.Check{
		"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, db) },
	}

	var (
		sink  ports.NotificationSink = notify.NewLogSink(log.With().Str("component", "notify").Logger())
		dedup ports.DeliveryDeduper
		lock  ports.DispatchLock
	)
	if cfg.RedisEnabled() {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to redis")
			return err
		}
		defer rdb.Close()

		sink = notify.NewRedisSink(rdb, cfg.Dispatch.NotifyChannelPrefix)
		dedup = redis.NewDedupChecker(rdb)
		lock = redis.NewDispatchLock(rdb, cfg.Dispatch.LockTTL)
		healthChecks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb) }
	} else {
		log.Warn().Msg("REDIS_ADDR not set: dispatch lock and notification dedup are process-local")
	}

	notifier := service.NewNotificationDispatcher(
		notify.NewInstrumented(sink),
		dedup,
		service.NotifierOptions{
			Timeout:     cfg.Dispatch.NotifyTimeout,
			Concurrency: cfg.Dispatch.NotifyConcurrency,
		},
		log.With().Str("component", "notifier").Logger(),
	)
	pickups := service.NewPickupService(pickupRepo, log.With().Str("component", "pickups").Logger())
	dispatch := service.NewDispatchService(
		routing.NewSequencer(eta),
		pickups,
		notifier,
		lock,
		log.With().Str("component", "dispatch").Logger(),
	)

	signals := queue.NewDispatcher(cfg.Signals.Workers, dispatch, log.With().Str("component", "signals").Logger())
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	signals.Start(workerCtx)

	e := api.NewRouter(api.Deps{
		Dispatch:     dispatch,
		Signals:      signals,
		HealthChecks: healthChecks,
		JWTSecret:    cfg.JWTSecret,
		Log:          log,
	})

	srvErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
			stopWorkers()
			return err
		}
	case <-ctx.Done():
	}

	return shutdown(e, signals, stopWorkers, log)
}

func shutdown(e interface{ Shutdown(context.Context) error }, signals *queue.Dispatcher, stopWorkers context.CancelFunc, log zerolog.Logger) error {
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := e.Shutdown(ctx)
	if err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	stopWorkers()
	signals.Wait()
	log.Info().Msg("shutdown complete")
	return err
}
