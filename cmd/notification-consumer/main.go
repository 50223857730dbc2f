package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/config"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/consumer"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/idempotency"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/logger"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/notification"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/preference"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue/rabbitmq"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/repository/postgres"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/retention"
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

	log.Info("Starting notification consumer",
		zap.String("environment", cfg.Service.Environment),
		zap.String("queue", cfg.AMQP.NotificationQueue))

	db, err := postgres.NewDB(&cfg.Postgres, log)
	if err != nil {
		log.Fatal("Failed to connect to postgres", zap.Error(err))
	}

	broker, err := rabbitmq.NewClient(cfg.AMQP, log)
	if err != nil {
		log.Fatal("Failed to create broker client", zap.Error(err))
	}
	broker.SetPrefetch(cfg.Consumer.PrefetchCount)
	defer func() {
		if err := broker.Close(); err != nil {
			log.Error("Failed to close broker client", zap.Error(err))
		}
	}()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	guard := idempotency.New(redisClient, cfg.Redis, log)

	store := preference.NewStore(db, log)
	records := postgres.NewNotificationRepository(db, log)
	fanout := notification.NewFanout(store, guard, records, broker, log)

	dispatcher := consumer.NewDispatcher(broker, consumer.DispatcherConfig{
		Queue:       cfg.AMQP.NotificationQueue,
		Workers:     cfg.Consumer.Workers,
		MaxAttempts: cfg.Consumer.MaxAttempts,
	}, log)
	dispatcher.Register(domain.EventURLCreated, fanout)
	dispatcher.Register(domain.EventUserCreated, fanout)
	dispatcher.Register(domain.EventPasswordResetRequested, fanout)
	dispatcher.Register(domain.EventPasswordResetCompleted, fanout)

	receiver := consumer.NewReceiver(broker, consumer.ReceiverConfig{
		Queue: cfg.AMQP.NotificationQueue,
	}, log)
	parser := consumer.NewParserStage(consumer.NewJSONEnvelopeParser(), log)
	pipeline := consumer.NewPipeline(receiver, parser, dispatcher, log)

	sweeper := retention.NewSweeper(
		time.Duration(cfg.Retention.SweepIntervalSec)*time.Second,
		[]retention.Target{
			{
				Name:      "notification_records",
				Retention: time.Duration(cfg.Retention.NotificationDays) * 24 * time.Hour,
				Purge:     records.PurgeOlderThan,
			},
		},
		log,
	)

	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		addr := ":" + cfg.Consumer.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweeper.Start(ctx)

	go func() {
		if err := pipeline.Start(ctx); err != nil {
			log.Fatal("Consumer error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down notification consumer gracefully")
	cancel()
}
