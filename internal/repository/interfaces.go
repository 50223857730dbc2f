package repository

import (
	"context"
	"time"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// MetricsQuery represents an analytics metrics query.
type MetricsQuery struct {
	EventType string
	From      int64
	To        int64
	GroupBy   string
}

// MetricsGroupResult represents aggregated metrics for a specific group.
type MetricsGroupResult struct {
	GroupValue string
	TotalCount uint64
}

// MetricsResult represents the result of a metrics query.
type MetricsResult struct {
	TotalCount  uint64
	UniqueUsers uint64
	Groups      []MetricsGroupResult
}

// ClickRepository defines analytics event storage operations.
type ClickRepository interface {
	// InsertBatch inserts a batch of click events.
	InsertBatch(ctx context.Context, events []*domain.ClickEvent) (int, error)

	// InitSchema creates tables if they do not exist.
	InitSchema(ctx context.Context) error

	// Ping checks if the storage connection is alive.
	Ping(ctx context.Context) error

	// Close releases storage resources.
	Close() error

	// GetMetrics retrieves aggregated metrics based on the query.
	GetMetrics(ctx context.Context, query MetricsQuery) (*MetricsResult, error)

	// PurgeOlderThan deletes events processed before the cutoff.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationRepository defines notification audit record storage.
type NotificationRepository interface {
	// Insert writes a record unless its dedupe key already exists.
	// Returns false when the record was a duplicate.
	Insert(ctx context.Context, record *domain.NotificationRecord) (bool, error)

	// Remove deletes a record by its dedupe key, undoing a claim whose
	// delivery could not be published.
	Remove(ctx context.Context, record *domain.NotificationRecord) error

	// PurgeOlderThan deletes records created before the cutoff and
	// returns the number deleted.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
