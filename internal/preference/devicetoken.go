package preference

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// DeviceTokenRegistry manages push tokens attached to a user's
// preference record. Token uniqueness is scoped to the user.
type DeviceTokenRegistry struct {
	db    *gorm.DB
	store *Store
	log   *zap.Logger
}

// NewDeviceTokenRegistry creates a registry sharing the store's
// database.
func NewDeviceTokenRegistry(db *gorm.DB, store *Store, log *zap.Logger) *DeviceTokenRegistry {
	return &DeviceTokenRegistry{db: db, store: store, log: log}
}

// AddToken upserts a device token: an existing entry with the same
// token value is removed first, then the token is appended with a fresh
// last-seen timestamp. The same token never appears twice for a user.
func (r *DeviceTokenRegistry) AddToken(ctx context.Context, userID, token, device string) (*domain.Preference, error) {
	pref, err := r.store.GetOrCreate(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("preference_id = ? AND token = ?", pref.ID, token).
			Delete(&domain.DeviceToken{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove prior token entry: %w", err)
		}
		entry := domain.DeviceToken{
			PreferenceID: pref.ID,
			Token:        token,
			Device:       device,
			LastSeenAt:   time.Now().UTC(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to add device token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("Device token registered",
		zap.String("user_id", userID),
		zap.String("device", device))
	return r.store.Get(ctx, userID)
}

// RemoveToken removes a device token. Removing a token that does not
// exist is a no-op, not an error.
func (r *DeviceTokenRegistry) RemoveToken(ctx context.Context, userID, token string) (*domain.Preference, error) {
	pref, err := r.store.GetOrCreate(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Where("preference_id = ? AND token = ?", pref.ID, token).
		Delete(&domain.DeviceToken{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to remove device token: %w", err)
	}

	return r.store.Get(ctx, userID)
}
