package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"urec/internal/occupancy/events"
	occmetrics "urec/internal/occupancy/metrics"
	occservice "urec/internal/occupancy/service"
	occstore "urec/internal/occupancy/store"
	"urec/internal/platform/config"
	"urec/internal/platform/httpserver"
	"urec/internal/platform/logger"
	"urec/internal/platform/postgres"
	platformredis "urec/internal/platform/redis"
	registryservice "urec/internal/registry/service"
	registrystore "urec/internal/registry/store"
	httptransport "urec/internal/transport/http"
)

// main wires the dependency graph and owns the process lifecycle. Backends
// are chosen from configuration: Postgres for the registry when DATABASE_URL
// is set, Redis for counters when REDIS_URL is set, in-memory fallbacks for
// single-process deployments and local development.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var areaStore registrystore.AreaStore
	if db != nil {
		areaStore = registrystore.NewPostgres(db)
	} else {
		areaStore = registrystore.NewInMemory()
	}

	var counterStore occstore.CounterStore
	switch {
	case redisClient != nil:
		counterStore = occstore.NewRedis(redisClient.Client)
	case db != nil:
		counterStore = occstore.NewPostgres(db)
	default:
		counterStore = occstore.NewMemoryStore()
	}

	if cfg.SeedDefaultAreas {
		created, err := registrystore.SeedDefaultAreas(ctx, areaStore, counterStore, time.Now().UTC())
		if err != nil {
			log.Error("seed default areas failed", "error", err)
			os.Exit(1)
		}
		if created > 0 {
			log.Info("seeded default areas", "created", created)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	kafkaPublisher, err := events.NewKafka(cfg.Kafka, log)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}
	if kafkaPublisher != nil {
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
	}

	occupancy := occservice.New(counterStore, areaStore, log,
		occservice.WithMetrics(occmetrics.New()),
		occservice.WithPublisher(publisher),
	)
	registry := registryservice.New(areaStore, counterStore, log)

	var checks []httptransport.HealthCheck
	if db != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "database", Probe: db.PingContext})
	}
	if redisClient != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Probe: redisClient.Health})
	}
	if kafkaPublisher != nil {
		checks = append(checks, httptransport.HealthCheck{Name: "kafka", Probe: kafkaPublisher.Health})
	}

	router := httptransport.NewRouter(
		httptransport.RouterConfig{
			AdminToken:         cfg.AdminToken,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		httptransport.NewOccupancyHandler(occupancy),
		httptransport.NewAreaHandler(registry),
		httptransport.NewHealthHandler(checks...),
		log,
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting occupancy-tracker", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
