package consumer

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Pipeline wires the three consumer stages: receive deliveries, decode
// envelopes, and hand them to a sink (dispatcher or batch writer).
type Pipeline struct {
	receiver *Receiver
	parser   *ParserStage
	sink     Stage
	log      *zap.Logger
}

// NewPipeline assembles a consumer pipeline.
func NewPipeline(receiver *Receiver, parser *ParserStage, sink Stage, log *zap.Logger) *Pipeline {
	return &Pipeline{
		receiver: receiver,
		parser:   parser,
		sink:     sink,
		log:      log,
	}
}

// Start runs all stages until the context is cancelled and every stage
// has drained.
func (p *Pipeline) Start(ctx context.Context) error {
	deliveryChan := make(chan amqp.Delivery, 100)
	messageChan := make(chan *Message, 100)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		p.receiver.Start(ctx, deliveryChan)
	}()

	go func() {
		defer wg.Done()
		p.parser.Start(ctx, deliveryChan, messageChan)
	}()

	go func() {
		defer wg.Done()
		p.sink.Start(ctx, messageChan)
	}()

	wg.Wait()
	return nil
}
