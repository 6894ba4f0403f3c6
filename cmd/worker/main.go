package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/careconnect/api/internal/config"
	"github.com/careconnect/api/internal/email"
	"github.com/careconnect/api/internal/repository/postgres"
	notifworker "github.com/careconnect/api/internal/worker"
	"github.com/careconnect/api/pkg/logger"
	redisbroker "github.com/careconnect/api/pkg/messaging/redis"
	"github.com/careconnect/api/pkg/metrics"
	"github.com/careconnect/api/pkg/worker"
)

// The worker binary runs the outbox relay and the email notifier. It shares
// the database and broker with the API but scales independently.
func main() {
	cfg, err := config.Load("./config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Logging.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	zl := zerolog.New(os.Stdout).With().Timestamp().Str("component", "broker").Logger()
	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &zl)
	if err != nil {
		log.Fatal(err, "failed to connect to broker")
	}
	defer broker.Close()

	m := metrics.NewMetrics("careconnect", "worker")

	outboxRepo := postgres.NewOutboxRepository(db)
	processor := worker.NewOutboxProcessor(outboxRepo, broker, m, log, worker.OutboxConfig{
		PollInterval: cfg.Worker.PollInterval,
		BatchSize:    cfg.Worker.BatchSize,
		MaxRetries:   cfg.Worker.MaxRetries,
		Retention:    time.Duration(cfg.Worker.RetentionDays) * 24 * time.Hour,
	})

	emailSvc := email.NewService(cfg.Email, log)
	notifier := notifworker.NewNotifier(
		broker,
		emailSvc,
		postgres.NewUserRepository(db),
		postgres.NewDoctorRepository(db),
		postgres.NewPatientRepository(db),
		m,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Start(ctx)
	go func() {
		if err := notifier.Start(ctx); err != nil {
			log.Fatal(err, "notifier failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("worker shutting down")
	cancel()
	// Give in-flight deliveries a moment to finish.
	time.Sleep(2 * time.Second)
}
