package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/config"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/handler"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/logger"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/preference"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue/rabbitmq"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/repository/clickhouse"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/repository/postgres"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		if err := log.Sync(); err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Broker connection for publishing events.
	broker, err := rabbitmq.NewClient(cfg.AMQP, log)
	if err != nil {
		log.Fatal("Failed to create broker client", zap.Error(err))
	}
	defer func() {
		if err := broker.Close(); err != nil {
			log.Error("Failed to close broker client", zap.Error(err))
		}
	}()

	// Analytics storage for the metrics endpoint.
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()
	clickRepo := clickhouse.NewRepository(chClient, log)

	// Preference storage.
	db, err := postgres.NewDB(&cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to connect to postgres", zap.Error(err))
	}
	store := preference.NewStore(db, log)
	registry := preference.NewDeviceTokenRegistry(db, store, log)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	eventService := service.NewEventService(broker, clickRepo, log)
	preferenceService := service.NewPreferenceService(store, registry, log)
	limiter := handler.NewRateLimiter(redisClient, cfg.Redis.RateLimitPerMinute, log)

	h := handler.NewHandler(eventService, preferenceService, limiter, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
