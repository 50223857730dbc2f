package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// NotificationRepository stores fanout audit records in Postgres.
type NotificationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewNotificationRepository creates a repository on the given database.
func NewNotificationRepository(db *gorm.DB, log *zap.Logger) *NotificationRepository {
	return &NotificationRepository{db: db, log: log}
}

// Insert writes a record unless its dedupe key (user, channel,
// category, event) already exists. The conflict path is the idempotency
// backstop when the redis guard fails open.
func (r *NotificationRepository) Insert(ctx context.Context, record *domain.NotificationRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)
	if result.Error != nil {
		return false, fmt.Errorf("failed to insert notification record: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Remove deletes a record by its dedupe key. Fanout compensates with
// this when the delivery publish fails, so the retry is not suppressed
// by its own half-finished attempt.
func (r *NotificationRepository) Remove(ctx context.Context, record *domain.NotificationRecord) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND channel = ? AND category = ? AND event_id = ?",
			record.UserID, record.Channel, record.Category, record.EventID).
		Delete(&domain.NotificationRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove notification record: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes records created before the cutoff. Deleting by
// age predicate keeps the sweep safe against concurrent writes: a row
// arriving mid-sweep is only removed if it is already past the window.
func (r *NotificationRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.NotificationRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge notification records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
