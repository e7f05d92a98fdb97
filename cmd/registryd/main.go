package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subject-registry/internal/platform/config"
	"subject-registry/internal/platform/httpserver"
	"subject-registry/internal/platform/logger"
	"subject-registry/internal/platform/postgres"
	platformredis "subject-registry/internal/platform/redis"
	"subject-registry/internal/subject/events"
	"subject-registry/internal/subject/metrics"
	"subject-registry/internal/subject/service"
	"subject-registry/internal/subject/store"
	"subject-registry/pkg/domain"
	"subject-registry/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// The process exposes only operational endpoints; the registry itself is
// consumed as a library by embedding services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	st, cleanup, err := buildStore(cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", "backend", string(cfg.Storage), "error", err)
		os.Exit(1)
	}
	defer cleanup()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		emitter, err := events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("failed to initialize kafka emitter", "error", err)
			os.Exit(1)
		}
		defer emitter.Close()
		opts = append(opts, service.WithEmitter(emitter))
	}

	registry := service.New(st, opts...)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(requesttime.Middleware)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// Readiness means the store answers queries, not just that the
		// process is up.
		if _, err := registry.ListIDsByStatus(r.Context(), domain.SubjectStatusActive); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("storage unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting subject-registry", "addr", cfg.Addr, "storage", string(cfg.Storage))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildStore selects the configured storage backend. The cleanup func closes
// whatever connections were opened.
func buildStore(cfg config.Server, log *slog.Logger) (service.Store, func(), error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		if err := postgres.RunMigrations(cfg.PostgresDSN); err != nil {
			return nil, nil, err
		}
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store.NewPostgres(db), func() { _ = db.Close() }, nil

	case config.StorageRedis:
		client, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		if client == nil {
			return nil, nil, errors.New("redis storage selected but SUBJECT_REGISTRY_REDIS_URL is empty")
		}
		return store.NewRedis(client.Client), func() { _ = client.Close() }, nil

	default:
		log.Warn("using in-memory storage, subjects will not survive restarts")
		return store.NewInMemory(), func() {}, nil
	}
}
