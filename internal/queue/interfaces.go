package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// EventPublisher publishes domain events to the events exchange.
type EventPublisher interface {
	PublishEvent(ctx context.Context, env *domain.Envelope) error
}

// DeliveryPublisher publishes channel-routed delivery requests to the
// deliveries exchange.
type DeliveryPublisher interface {
	PublishDelivery(ctx context.Context, req *domain.DeliveryRequest) error
}

// QueueConsumer is the consumer-side broker surface: draining a queue,
// requeueing a message for another attempt, and dead-lettering.
type QueueConsumer interface {
	Consume(ctx context.Context, queue string) (<-chan amqp.Delivery, error)
	Republish(ctx context.Context, queue string, body []byte, headers amqp.Table) error
	DeadLetter(ctx context.Context, queue string, body []byte, headers amqp.Table) error
}
