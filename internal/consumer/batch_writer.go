package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/repository"
)

// BatchWriterConfig configures the analytics batch writer.
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter batches analytics events and writes them to the click
// repository. Duplicate rows from at-least-once delivery are collapsed
// by the storage engine, so the writer only has to deliver them.
type BatchWriter struct {
	repository repository.ClickRepository
	config     BatchWriterConfig
	log        *zap.Logger
}

// NewBatchWriter creates a new batch writer.
func NewBatchWriter(repo repository.ClickRepository, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	return &BatchWriter{
		repository: repo,
		config:     config,
		log:        log,
	}
}

// Start consumes messages, batching on size or timeout, until the input
// channel closes or the context is cancelled. The final partial batch
// is flushed on shutdown.
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Message) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Message, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down")
			w.flush(ctx, batch)
			return

		case msg, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed")
				w.flush(ctx, batch)
				return
			}

			batch = append(batch, msg)

			if len(batch) >= w.config.MaxBatchSize {
				w.log.Info("Batch size threshold reached", zap.Int("batch_size", len(batch)))
				w.processBatch(ctx, batch)
				batch = make([]*Message, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Info("Batch timeout reached", zap.Int("message_count", len(batch)))
				w.processBatch(ctx, batch)
				batch = make([]*Message, 0, w.config.MaxBatchSize)
			}
		}
	}
}

func (w *BatchWriter) flush(ctx context.Context, batch []*Message) {
	if len(batch) == 0 {
		return
	}
	w.log.Info("Flushing final batch", zap.Int("message_count", len(batch)))
	w.processBatch(ctx, batch)
}

// processBatch converts, inserts, and settles one batch. Messages that
// cannot be projected into a click event are rejected without requeue;
// an insert failure requeues the whole batch for another attempt.
func (w *BatchWriter) processBatch(ctx context.Context, batch []*Message) {
	events := make([]*domain.ClickEvent, 0, len(batch))
	writable := make([]*Message, 0, len(batch))

	for _, msg := range batch {
		event, err := domain.ClickEventFromEnvelope(msg.Event)
		if err != nil {
			w.log.Warn("Dropping unprojectable analytics message",
				zap.String("type", string(msg.Event.Type)),
				zap.Error(err))
			if err := msg.Reject(false); err != nil {
				w.log.Error("Failed to reject message", zap.Error(err))
			}
			continue
		}
		events = append(events, event)
		writable = append(writable, msg)
	}

	if len(events) == 0 {
		return
	}

	insertedCount, err := w.repository.InsertBatch(ctx, events)
	if err != nil {
		w.log.Error("Failed to insert batch",
			zap.Error(err),
			zap.Int("event_count", len(events)))
		w.requeueAll(writable)
		return
	}

	if insertedCount != len(events) {
		w.log.Warn("Partial insert success",
			zap.Int("inserted", insertedCount),
			zap.Int("expected", len(events)))
		w.requeueAll(writable)
		return
	}

	w.log.Info("Successfully inserted events", zap.Int("count", insertedCount))
	for _, msg := range writable {
		if err := msg.Ack(); err != nil {
			w.log.Error("Failed to ack message", zap.Error(err))
		}
	}
}

func (w *BatchWriter) requeueAll(batch []*Message) {
	for _, msg := range batch {
		if err := msg.Reject(true); err != nil {
			w.log.Error("Failed to requeue message", zap.Error(err))
		}
	}
}
