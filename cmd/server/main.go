// Command server wires configuration, storage, the workflow engine, and the
// HTTP API, then runs until interrupted. Business logic lives in the internal
// packages; main stays assembly only.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"bloodline/internal/delivery"
	"bloodline/internal/donation"
	donationhandler "bloodline/internal/donation/handler"
	"bloodline/internal/events"
	"bloodline/internal/monitoring"
	monitoringhandler "bloodline/internal/monitoring/handler"
	"bloodline/internal/platform/config"
	"bloodline/internal/platform/httpserver"
	"bloodline/internal/platform/logger"
	"bloodline/internal/platform/metrics"
	platformredis "bloodline/internal/platform/redis"
	"bloodline/internal/receive"
	receivehandler "bloodline/internal/receive/handler"
	"bloodline/internal/registry"
	"bloodline/internal/token"
	httptransport "bloodline/internal/transport/http"
	"bloodline/internal/workflow"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Every external dependency is optional; unset config falls back to the
	// in-memory implementation so a dev instance runs with no services.
	var (
		donations donation.Store   = donation.NewInMemoryStore()
		requests  receive.Store    = receive.NewInMemoryStore()
		logs      monitoring.Store = monitoring.NewInMemoryStore()
	)
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		donations = donation.NewPostgres(db)
		requests = receive.NewPostgres(db)
		logs = monitoring.NewPostgres(pool)
		log.Info("using postgres storage")
	}

	var tracker delivery.Tracker = delivery.NewInMemoryTracker()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		tracker = delivery.NewRedisTracker(redisClient.Client)
		log.Info("using redis delivery tracker")
	}

	var sink events.Sink = events.NewInMemorySink()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := events.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("using kafka event sink", "topic", cfg.Kafka.Topic)
	}
	publisher := events.NewPublisher(sink, events.WithAsyncBuffer(256))
	defer publisher.Close()

	reg := registry.New()
	m := metrics.New(prometheus.DefaultRegisterer)
	validator := workflow.NewValidator(reg, tracker)
	dispatcher := workflow.NewDispatcher(tracker, publisher, log)
	engine := workflow.NewEngine(validator, donations, requests, logs, dispatcher, m, log,
		workflow.WithMaxAttempts(cfg.TransitionMaxAttempts))

	tokens := token.NewService(cfg.Server.JWTSigningKey, "bloodline")
	router := httptransport.NewRouter(log, tokens,
		donationhandler.New(engine, donations, reg, log),
		receivehandler.New(engine, requests, tracker, reg, log),
		monitoringhandler.New(engine, logs, log),
	)

	srv := httpserver.New(cfg.Server.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting bloodline", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
