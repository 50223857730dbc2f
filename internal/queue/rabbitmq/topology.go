package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// notificationBindings are the routing-key patterns the notification
// queue subscribes to. Routing-key granularity is the unit of selective
// delivery: the queue never sees url.redirect.
var notificationBindings = []string{
	domain.EventURLCreated.RoutingKey(),
	domain.EventUserCreated.RoutingKey(),
	"password.reset.*",
}

// analyticsBindings feed click counting and aggregates.
var analyticsBindings = []string{
	domain.EventURLCreated.RoutingKey(),
	domain.EventURLRedirect.RoutingKey(),
}

// declareTopology declares the exchanges, queues, bindings, and
// dead-letter queues. Redeclaring with identical properties is a no-op
// on the broker side.
func (c *Client) declareTopology() error {
	for _, exchange := range []string{c.cfg.EventsExchange, c.cfg.DeliveriesExchange, c.cfg.DeadLetterExchange} {
		if err := c.ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
		}
	}

	if err := c.declareBoundQueue(c.cfg.NotificationQueue, notificationBindings); err != nil {
		return err
	}
	if err := c.declareBoundQueue(c.cfg.AnalyticsQueue, analyticsBindings); err != nil {
		return err
	}

	return nil
}

func (c *Client) declareBoundQueue(name string, bindings []string) error {
	if _, err := c.ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	for _, key := range bindings {
		if err := c.ch.QueueBind(name, key, c.cfg.EventsExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to %s: %w", name, key, err)
		}
	}

	// Dead-letter destination, bound by the source queue name.
	dlq := name + ".dlq"
	if _, err := c.ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead-letter queue %s: %w", dlq, err)
	}
	if err := c.ch.QueueBind(dlq, name, c.cfg.DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead-letter queue %s: %w", dlq, err)
	}

	return nil
}

// AttemptFromHeaders reads the retry counter from message headers.
// A message without the header is on its first attempt.
func AttemptFromHeaders(headers amqp.Table) int {
	if headers == nil {
		return 1
	}
	switch v := headers[RetryCountHeader].(type) {
	case int:
		return v + 1
	case int32:
		return int(v) + 1
	case int64:
		return int(v) + 1
	default:
		return 1
	}
}

// HeadersForAttempt stamps the retry counter for a republish.
func HeadersForAttempt(attempt int) amqp.Table {
	return amqp.Table{RetryCountHeader: int32(attempt)}
}
