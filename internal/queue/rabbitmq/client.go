package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/config"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue"
)

// RetryCountHeader carries the handling attempt count across
// republishes so retries stay bounded.
const RetryCountHeader = "x-retry-count"

// Client wraps an AMQP connection and channel. Channels are not safe
// for concurrent publishing, so all writes go through the mutex.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex

	cfg           config.AMQP
	prefetchCount int
	log           *zap.Logger
}

// NewClient dials the broker and declares the full topology. Topology
// declarations are idempotent; multiple service instances declare
// concurrently at startup.
func NewClient(cfg config.AMQP, log *zap.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Client{conn: conn, ch: ch, cfg: cfg, log: log}

	if err := c.declareTopology(); err != nil {
		_ = c.Close()
		return nil, err
	}

	log.Info("Broker connection established",
		zap.String("events_exchange", cfg.EventsExchange),
		zap.String("deliveries_exchange", cfg.DeliveriesExchange))

	return c, nil
}

// PublishEvent publishes a persistent envelope to the events exchange
// with the routing key equal to the event type. Fire-and-forget once
// the broker accepts it; the caller decides how to handle failure.
func (c *Client) PublishEvent(ctx context.Context, env *domain.Envelope) error {
	if !env.Type.Known() {
		return fmt.Errorf("%w: %q", queue.ErrUnknownEventType, env.Type)
	}
	if env.ProducedAt.IsZero() {
		env.ProducedAt = time.Now().UTC()
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	if err := c.publish(ctx, c.cfg.EventsExchange, env.RoutingKey(), body, nil); err != nil {
		return err
	}

	c.log.Info("Event published",
		zap.String("type", string(env.Type)),
		zap.String("routing_key", env.RoutingKey()))
	return nil
}

// PublishDelivery publishes a channel-routed delivery request to the
// deliveries exchange.
func (c *Client) PublishDelivery(ctx context.Context, req *domain.DeliveryRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery request: %w", err)
	}
	return c.publish(ctx, c.cfg.DeliveriesExchange, req.RoutingKey(), body, nil)
}

// Consume starts draining a queue with manual acknowledgments. The
// prefetch window bounds how many unacked messages a process holds.
func (c *Client) Consume(ctx context.Context, queueName string) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(c.prefetch(), 0, false); err != nil {
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := c.ch.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming from %s: %w", queueName, err)
	}
	return deliveries, nil
}

// Republish puts a message back on its queue for another handling
// attempt, via the default exchange so the routing key is the queue.
func (c *Client) Republish(ctx context.Context, queueName string, body []byte, headers amqp.Table) error {
	return c.publish(ctx, "", queueName, body, headers)
}

// DeadLetter routes an exhausted message to the dead-letter exchange,
// which delivers it to <queue>.dlq for manual inspection and replay.
func (c *Client) DeadLetter(ctx context.Context, queueName string, body []byte, headers amqp.Table) error {
	return c.publish(ctx, c.cfg.DeadLetterExchange, queueName, body, headers)
}

func (c *Client) publish(ctx context.Context, exchange, routingKey string, body []byte, headers amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         body,
	})
	if err != nil {
		return &queue.PublishError{Exchange: exchange, RoutingKey: routingKey, Err: err}
	}
	return nil
}

// SetPrefetch overrides the per-consumer unacked message window.
// Must be called before Consume.
func (c *Client) SetPrefetch(n int) {
	c.prefetchCount = n
}

func (c *Client) prefetch() int {
	if c.prefetchCount > 0 {
		return c.prefetchCount
	}
	return 64
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil {
		if err := c.ch.Close(); err != nil {
			c.log.Error("Error closing channel", zap.Error(err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("failed to close broker connection: %w", err)
		}
	}
	return nil
}
