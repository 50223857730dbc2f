package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the immutable process configuration, loaded once at boot and
// passed to components at construction.
type Config struct {
	Service    Service
	AMQP       AMQP
	Postgres   Postgres
	ClickHouse ClickHouse
	Redis      Redis
	Consumer   Consumer
	Retention  Retention
}

type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" required:"true"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
	Host        string `envconfig:"SERVICE_HOST" default:"localhost:8080"`
}

type AMQP struct {
	URI                string `envconfig:"AMQP_URI" required:"true"`
	EventsExchange     string `envconfig:"AMQP_EVENTS_EXCHANGE" default:"shortener.events"`
	DeliveriesExchange string `envconfig:"AMQP_DELIVERIES_EXCHANGE" default:"shortener.deliveries"`
	DeadLetterExchange string `envconfig:"AMQP_DEAD_LETTER_EXCHANGE" default:"shortener.events.dlx"`
	NotificationQueue  string `envconfig:"AMQP_NOTIFICATION_QUEUE" default:"notifications.events"`
	AnalyticsQueue     string `envconfig:"AMQP_ANALYTICS_QUEUE" default:"analytics.events"`
}

type Postgres struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	Database string `envconfig:"POSTGRES_DB" default:"notifications"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:""`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
}

type ClickHouse struct {
	Host            string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port            string `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database        string `envconfig:"CLICKHOUSE_DB" default:"analytics"`
	User            string `envconfig:"CLICKHOUSE_USER" default:""`
	Password        string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	UseTLS          bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

type Redis struct {
	Addr                string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	IdempotencyEnabled  bool   `envconfig:"REDIS_IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyFailOpen bool   `envconfig:"REDIS_IDEMPOTENCY_FAIL_OPEN" default:"true"`
	IdempotencyTTLSec   int    `envconfig:"REDIS_IDEMPOTENCY_TTL_SEC" default:"86400"`
	RateLimitPerMinute  int    `envconfig:"REDIS_RATE_LIMIT_PER_MINUTE" default:"60"`
}

type Consumer struct {
	Workers         int    `envconfig:"CONSUMER_WORKERS" default:"8"`
	MaxAttempts     int    `envconfig:"CONSUMER_MAX_ATTEMPTS" default:"3"`
	PrefetchCount   int    `envconfig:"CONSUMER_PREFETCH_COUNT" default:"64"`
	BatchSizeMax    int    `envconfig:"CONSUMER_BATCH_SIZE_MAX" default:"2000"`
	BatchTimeoutSec int    `envconfig:"CONSUMER_BATCH_TIMEOUT_SEC" default:"10"`
	HealthCheckPort string `envconfig:"CONSUMER_HEALTH_CHECK_PORT" default:"8081"`
}

type Retention struct {
	NotificationDays int `envconfig:"RETENTION_NOTIFICATION_DAYS" default:"30"`
	AnalyticsDays    int `envconfig:"RETENTION_ANALYTICS_DAYS" default:"365"`
	SweepIntervalSec int `envconfig:"RETENTION_SWEEP_INTERVAL_SEC" default:"3600"`
}

func Load() (*Config, error) {
	// A .env file is optional; deployed environments set variables directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
