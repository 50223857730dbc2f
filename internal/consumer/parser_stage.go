package consumer

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/queue/rabbitmq"
)

// ParserStage decodes broker deliveries into pipeline messages.
type ParserStage struct {
	parser EnvelopeParser
	log    *zap.Logger
}

// NewParserStage creates a new parser stage.
func NewParserStage(parser EnvelopeParser, log *zap.Logger) *ParserStage {
	return &ParserStage{
		parser: parser,
		log:    log,
	}
}

// Start decodes deliveries and outputs messages until the input channel
// closes or the context is cancelled.
func (p *ParserStage) Start(ctx context.Context, in <-chan amqp.Delivery, out chan<- *Message) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Parser stage shutting down")
			return
		case d, ok := <-in:
			if !ok {
				p.log.Info("Parser stage input channel closed")
				return
			}

			msg := p.parseDelivery(d)
			if msg == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- msg:
			}
		}
	}
}

// parseDelivery decodes one delivery. Decoding failure is terminal for
// the message: reject without requeue and log the body for manual
// replay; the consumer process keeps running.
func (p *ParserStage) parseDelivery(d amqp.Delivery) *Message {
	env, err := p.parser.Parse(d.Body)
	if err != nil {
		p.log.Warn("Rejecting undecodable message",
			zap.String("routing_key", d.RoutingKey),
			zap.ByteString("body", d.Body),
			zap.Error(err))
		if err := d.Reject(false); err != nil {
			p.log.Error("Failed to reject malformed message", zap.Error(err))
		}
		return nil
	}

	attempt := rabbitmq.AttemptFromHeaders(d.Headers)
	body := d.Body

	ack := func() error {
		return d.Ack(false)
	}
	reject := func(requeue bool) error {
		return d.Reject(requeue)
	}

	return NewMessage(env, body, attempt, ack, reject)
}
