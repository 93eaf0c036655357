package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"holly/internal/audit"
	"holly/internal/compliance"
	compliancehandler "holly/internal/compliance/handler"
	"holly/internal/lead"
	"holly/internal/outreach"
	"holly/internal/platform/config"
	"holly/internal/platform/health"
	"holly/internal/platform/httpserver"
	"holly/internal/platform/logger"
	"holly/internal/platform/metrics"
	"holly/internal/platform/postgres"
	platformredis "holly/internal/platform/redis"
	"holly/internal/policy"
	"holly/internal/review"
	reviewhandler "holly/internal/review/handler"
	reviewmetrics "holly/internal/review/metrics"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages; failures during wiring are fatal.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres connect failed", "error", err.Error())
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, lead.Schema); err != nil {
		log.Error("lead schema apply failed", "error", err.Error())
		os.Exit(1)
	}

	// The audit outbox runs on database/sql so the transactional outbox
	// tooling can share the connection.
	auditDB, err := sql.Open("postgres", cfg.Postgres.URL)
	if err != nil {
		log.Error("audit db open failed", "error", err.Error())
		os.Exit(1)
	}
	defer auditDB.Close()
	if _, err := auditDB.ExecContext(ctx, audit.OutboxSchema); err != nil {
		log.Error("audit schema apply failed", "error", err.Error())
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err.Error())
		os.Exit(1)
	}

	var suppression compliance.SuppressionList
	if redisClient != nil {
		defer redisClient.Close()
		suppression = compliance.NewRedisSuppressionList(redisClient)
	} else {
		log.Warn("redis not configured, using in-memory suppression list")
		suppression = compliance.NewInMemorySuppressionList()
	}

	var kafkaPub *audit.KafkaPublisher
	if cfg.Kafka.Brokers != "" {
		kafkaPub = audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kafkaPub.Close()
	}
	auditPub := audit.NewPublisher(audit.NewOutbox(auditDB), kafkaPub, log)

	leadStore := lead.NewPostgres(pool)
	gate := compliance.NewGate(leadStore, suppression, auditPub, log)
	engine := policy.NewEngine(policy.Config{
		MaxAttempts:    cfg.Review.MaxAttempts,
		AttemptWindow:  cfg.Review.AttemptWindow,
		RetryDelay:     cfg.Review.RetryDelay,
		FollowUpDelay:  cfg.Review.FollowUpDelay,
		EngagedDelay:   cfg.Review.EngagedDelay,
		NurtureDelay:   cfg.Review.NurtureDelay,
		CallRetryDelay: cfg.Review.CallRetryDelay,
		DefaultDelay:   cfg.Review.DefaultDelay,
	})
	outreachClient := outreach.NewHTTPClient(cfg.Outreach)

	platformMetrics := metrics.New()
	runner := review.NewRunner(
		leadStore,
		engine,
		gate,
		outreachClient,
		auditPub,
		log,
		reviewmetrics.New(),
		review.Config{
			Concurrency:     cfg.Review.Concurrency,
			BatchLimit:      cfg.Review.BatchLimit,
			ProviderBackoff: cfg.Review.ProviderBackoff,
		},
	)

	healthz := health.New(log)
	healthz.Add("postgres", func(ctx context.Context) error { return pool.Ping(ctx) })
	if redisClient != nil {
		healthz.Add("redis", redisClient.Health)
	}

	router := chi.NewRouter()
	router.Method(http.MethodGet, "/healthz", healthz)
	router.Handle("/metrics", promhttp.Handler())
	reviewhandler.New(runner, log, platformMetrics, cfg.Server.TriggerSecret).Register(router)
	compliancehandler.New(gate, leadStore, auditPub, log, platformMetrics, cfg.Server.TriggerSecret).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("holly listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}
