package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/config"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/consumer"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/logger"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue/rabbitmq"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/repository/clickhouse"
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

	log.Info("Starting analytics consumer",
		zap.String("environment", cfg.Service.Environment),
		zap.String("queue", cfg.AMQP.AnalyticsQueue))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	repo := clickhouse.NewRepository(chClient, log)
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}
	log.Info("Analytics schema initialized")

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

	receiver := consumer.NewReceiver(broker, consumer.ReceiverConfig{
		Queue: cfg.AMQP.AnalyticsQueue,
	}, log)
	parser := consumer.NewParserStage(consumer.NewJSONEnvelopeParser(), log)
	batchWriter := consumer.NewBatchWriter(repo, consumer.BatchWriterConfig{
		MaxBatchSize: cfg.Consumer.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Consumer.BatchTimeoutSec) * time.Second,
	}, log)
	pipeline := consumer.NewPipeline(receiver, parser, batchWriter, log)

	sweeper := retention.NewSweeper(
		time.Duration(cfg.Retention.SweepIntervalSec)*time.Second,
		[]retention.Target{
			{
				Name:      "click_events",
				Retention: time.Duration(cfg.Retention.AnalyticsDays) * 24 * time.Hour,
				Purge:     repo.PurgeOlderThan,
			},
		},
		log,
	)

	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := repo.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		addr := ":" + cfg.Consumer.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	go sweeper.Start(ctx)

	go func() {
		if err := pipeline.Start(ctx); err != nil {
			log.Fatal("Consumer error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down analytics consumer gracefully")
	cancel()
}
