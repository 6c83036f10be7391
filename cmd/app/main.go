package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch/cmd"
	"dispatch/internal/adapters/out/memqueue"
	pgadapter "dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/rabbitmq"
	"dispatch/internal/adapters/out/redislock"
	"dispatch/internal/core/ports"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("engine stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	_ = godotenv.Load(".env")

	config, err := cmd.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.Open(config.DatabaseDSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = pgadapter.Migrate(gormDB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	queue, err := newJobQueue(config, logger)
	if err != nil {
		return fmt.Errorf("failed to create job queue: %w", err)
	}
	defer func() {
		if closeErr := queue.Close(); closeErr != nil {
			logger.Error("failed to close job queue", "error", closeErr)
		}
	}()

	redisClient := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
	defer redisClient.Close()
	zoneLock := redislock.NewZoneLock(redisClient)

	root, err := cmd.NewCompositionRoot(config, gormDB, queue, zoneLock, logger)
	if err != nil {
		return fmt.Errorf("failed to build composition root: %w", err)
	}

	jobManager := root.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		return fmt.Errorf("failed to start background jobs: %w", err)
	}
	defer jobManager.StopAll()

	e := echo.New()
	e.HideBanner = true
	root.CreateHTTPServer().RegisterRoutes(e)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- e.Start(fmt.Sprintf("0.0.0.0:%s", config.HTTPPort))
	}()
	logger.Info("engine started", "http_port", config.HTTPPort)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-serverErrors:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err = e.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
	}

	return nil
}

// newJobQueue picks RabbitMQ when an AMQP URL is configured, and the
// in-process queue otherwise.
func newJobQueue(config cmd.Config, logger *slog.Logger) (ports.JobQueue, error) {
	if config.AmqpURL != "" {
		return rabbitmq.Dial(config.AmqpURL, rabbitmq.Options{
			MaxAttempts: config.QueueMaxAttempts,
			BaseDelay:   config.QueueBaseDelay,
			MaxDelay:    config.QueueMaxDelay,
			JobTimeout:  config.QueueJobTimeout,
		}, logger)
	}

	logger.Warn("AMQP_URL not set, using in-process job queue")
	return memqueue.New(memqueue.Options{
		MaxAttempts: config.QueueMaxAttempts,
		BaseDelay:   config.QueueBaseDelay,
		MaxDelay:    config.QueueMaxDelay,
		JobTimeout:  config.QueueJobTimeout,
	}, logger), nil
}
