package consumer

import (
	"context"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue/rabbitmq"
)

// DispatcherConfig configures the handler dispatch stage.
type DispatcherConfig struct {
	Queue       string
	Workers     int
	MaxAttempts int
}

// Dispatcher routes decoded events to handlers by event type on a
// bounded worker pool. Messages are partitioned across workers by user
// id, which serializes handling for the same user while keeping
// distinct users concurrent.
type Dispatcher struct {
	consumer queue.QueueConsumer
	handlers map[domain.EventType]Handler
	config   DispatcherConfig
	log      *zap.Logger
}

// NewDispatcher creates a dispatcher for the given queue.
func NewDispatcher(consumer queue.QueueConsumer, config DispatcherConfig, log *zap.Logger) *Dispatcher {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	return &Dispatcher{
		consumer: consumer,
		handlers: make(map[domain.EventType]Handler),
		config:   config,
		log:      log,
	}
}

// Register binds a handler to an event type. Not safe to call after
// Start.
func (d *Dispatcher) Register(t domain.EventType, h Handler) {
	d.handlers[t] = h
}

// Start processes messages until the input channel closes or the
// context is cancelled. In-flight handlers finish before returning;
// anything unacknowledged at that point redelivers.
func (d *Dispatcher) Start(ctx context.Context, in <-chan *Message) {
	lanes := make([]chan *Message, d.config.Workers)
	var wg sync.WaitGroup

	for i := range lanes {
		lanes[i] = make(chan *Message)
		wg.Add(1)
		go func(lane <-chan *Message) {
			defer wg.Done()
			for msg := range lane {
				d.process(ctx, msg)
			}
		}(lanes[i])
	}

	for {
		select {
		case <-ctx.Done():
			d.log.Info("Dispatcher shutting down")
			d.closeLanes(lanes)
			wg.Wait()
			return
		case msg, ok := <-in:
			if !ok {
				d.log.Info("Dispatcher input channel closed")
				d.closeLanes(lanes)
				wg.Wait()
				return
			}
			lane := lanes[d.laneFor(msg)]
			select {
			case <-ctx.Done():
				// Leave the message unacked for redelivery.
				d.closeLanes(lanes)
				wg.Wait()
				return
			case lane <- msg:
			}
		}
	}
}

func (d *Dispatcher) closeLanes(lanes []chan *Message) {
	for _, lane := range lanes {
		close(lane)
	}
}

// laneFor partitions messages by the user they concern so same-user
// preference reads and writes never race.
func (d *Dispatcher) laneFor(msg *Message) int {
	key := msg.Event.EventID()
	if userID, _, err := msg.Event.Recipient(); err == nil {
		key = userID
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(d.config.Workers))
}

// process runs the handler for one message and settles it: ack on
// success, bounded republish on handler failure, dead-letter once the
// attempts are exhausted.
func (d *Dispatcher) process(ctx context.Context, msg *Message) {
	handler, ok := d.handlers[msg.Event.Type]
	if !ok {
		// The queue bindings should make this unreachable; reject
		// explicitly rather than silently dropping.
		d.log.Warn("No handler registered for event type",
			zap.String("type", string(msg.Event.Type)))
		if err := msg.Reject(false); err != nil {
			d.log.Error("Failed to reject unhandled message", zap.Error(err))
		}
		return
	}

	err := handler.Handle(ctx, msg.Event)
	if err == nil {
		if err := msg.Ack(); err != nil {
			d.log.Error("Failed to ack message",
				zap.String("type", string(msg.Event.Type)),
				zap.Error(err))
		}
		return
	}

	d.log.Warn("Handler failed",
		zap.String("type", string(msg.Event.Type)),
		zap.Int("attempt", msg.Attempt),
		zap.Int("max_attempts", d.config.MaxAttempts),
		zap.Error(err))

	if msg.Attempt >= d.config.MaxAttempts {
		d.deadLetter(ctx, msg)
		return
	}
	d.requeue(ctx, msg)
}

// requeue republishes the message with an incremented attempt counter
// and acks the original, so retries stay bounded instead of cycling
// through broker redelivery forever.
func (d *Dispatcher) requeue(ctx context.Context, msg *Message) {
	headers := rabbitmq.HeadersForAttempt(msg.Attempt)
	if err := d.consumer.Republish(ctx, d.config.Queue, msg.Body, headers); err != nil {
		d.log.Error("Failed to republish message, leaving for redelivery", zap.Error(err))
		if err := msg.Reject(true); err != nil {
			d.log.Error("Failed to reject message", zap.Error(err))
		}
		return
	}
	if err := msg.Ack(); err != nil {
		d.log.Error("Failed to ack republished message", zap.Error(err))
	}
}

func (d *Dispatcher) deadLetter(ctx context.Context, msg *Message) {
	headers := rabbitmq.HeadersForAttempt(msg.Attempt)
	if err := d.consumer.DeadLetter(ctx, d.config.Queue, msg.Body, headers); err != nil {
		d.log.Error("Failed to dead-letter message, leaving for redelivery", zap.Error(err))
		if err := msg.Reject(true); err != nil {
			d.log.Error("Failed to reject message", zap.Error(err))
		}
		return
	}
	d.log.Warn("Message dead-lettered",
		zap.String("type", string(msg.Event.Type)),
		zap.Int("attempts", msg.Attempt))
	if err := msg.Ack(); err != nil {
		d.log.Error("Failed to ack dead-lettered message", zap.Error(err))
	}
}
