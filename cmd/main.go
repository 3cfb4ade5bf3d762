// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventgate/eventgate/internal/audit"
	"github.com/eventgate/eventgate/internal/cache"
	"github.com/eventgate/eventgate/internal/config"
	"github.com/eventgate/eventgate/internal/database"
	"github.com/eventgate/eventgate/internal/handler"
	"github.com/eventgate/eventgate/internal/identifier"
	"github.com/eventgate/eventgate/internal/metrics"
	"github.com/eventgate/eventgate/internal/repository"
	"github.com/eventgate/eventgate/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	// Event-config cache: shared Redis when configured, in-process otherwise.
	var eventCache cache.EventCache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedis(cfg.Redis.URL, cfg.EventCacheTTL, logger)
		if err != nil {
			logger.Error("redis", "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		eventCache = redisCache
		logger.Info("event cache backed by redis")
	} else {
		eventCache = cache.NewMemory(cfg.EventCacheTTL, cfg.EventCacheSize)
	}

	// Audit trail: local store always, Kafka sink when brokers are set.
	auditOpts := []audit.PublisherOption{
		audit.WithAsyncBuffer(256),
		audit.WithLogger(logger),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Error("kafka", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, audit.WithSink(sink))
		logger.Info("audit trail published to kafka", "topic", cfg.Kafka.Topic)
	}
	auditPublisher := audit.NewPublisher(audit.NewInMemoryStore(), auditOpts...)
	defer auditPublisher.Close()

	m := metrics.New()

	eventRepo := repository.NewEventRepository(pool)
	recordRepo := repository.NewRecordRepository(pool)
	generator := identifier.New(
		recordRepo,
		identifier.NewQRSigner(cfg.QRSigningKey),
		identifier.WithRetryHook(m.CodeRetries.Inc),
	)
	svc := service.New(eventRepo, recordRepo, generator,
		service.WithLogger(logger),
		service.WithEventCache(eventCache),
		service.WithMetrics(m),
		service.WithAuditPublisher(auditPublisher),
	)
	h := handler.New(svc, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.RequestLogger(logger))

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	h.Register(r)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
