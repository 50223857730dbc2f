package consumer

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue"
)

// ReceiverConfig configures the broker receiver.
type ReceiverConfig struct {
	Queue          string
	ReconnectDelay time.Duration
}

// Receiver drains deliveries from a bound queue and feeds the pipeline.
type Receiver struct {
	consumer queue.QueueConsumer
	config   ReceiverConfig
	log      *zap.Logger
}

// NewReceiver creates a receiver for the given queue.
func NewReceiver(consumer queue.QueueConsumer, config ReceiverConfig, log *zap.Logger) *Receiver {
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = time.Second
	}
	return &Receiver{
		consumer: consumer,
		config:   config,
		log:      log,
	}
}

// Start receives deliveries and sends them to the output channel until
// the context is cancelled. A closed delivery channel (connection loss)
// triggers a re-subscribe after a short delay; unacked messages are
// redelivered by the broker.
func (r *Receiver) Start(ctx context.Context, out chan<- amqp.Delivery) {
	defer close(out)

	for {
		deliveries, err := r.consumer.Consume(ctx, r.config.Queue)
		if err != nil {
			r.log.Error("Error subscribing to queue",
				zap.String("queue", r.config.Queue),
				zap.Error(err))
			select {
			case <-ctx.Done():
				r.log.Info("Receiver shutting down")
				return
			case <-time.After(r.config.ReconnectDelay):
				continue
			}
		}

		if !r.drain(ctx, deliveries, out) {
			r.log.Info("Receiver shutting down")
			return
		}

		r.log.Warn("Delivery stream closed, resubscribing",
			zap.String("queue", r.config.Queue))
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.config.ReconnectDelay):
		}
	}
}

// drain forwards deliveries until the stream closes (returns true) or
// the context is cancelled (returns false).
func (r *Receiver) drain(ctx context.Context, deliveries <-chan amqp.Delivery, out chan<- amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case d, ok := <-deliveries:
			if !ok {
				return true
			}
			select {
			case <-ctx.Done():
				return false
			case out <- d:
			}
		}
	}
}
