package preference

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// ChannelFlags is a full per-channel override for one category.
type ChannelFlags struct {
	Email bool
	Push  bool
	InApp bool
}

// UpdateRequest carries a partial preference update. Nil fields are
// left unchanged; categories present in the map replace that category's
// override.
type UpdateRequest struct {
	Email          *string
	EmailEnabled   *bool
	PushEnabled    *bool
	InAppEnabled   *bool
	EmailFrequency *domain.EmailFrequency
	Categories     map[domain.Category]ChannelFlags
}

// Store owns all preference reads and writes. Handlers never touch
// preference rows directly.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewStore creates a preference store on the given database.
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// GetOrCreate returns the user's preference record, creating it with
// system defaults on first access. Concurrent first access from
// multiple consumer instances is resolved by the unique constraint on
// user_id: the loser of the create race re-fetches the winner's row.
func (s *Store) GetOrCreate(ctx context.Context, userID, email string) (*domain.Preference, error) {
	pref, err := s.Get(ctx, userID)
	if err == nil {
		return pref, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := domain.DefaultPreference(userID, email)
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another instance won the create race; their row is ours.
			return s.Get(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create preference for %s: %w", userID, err)
	}

	s.log.Info("Created default preference", zap.String("user_id", userID))
	return s.Get(ctx, userID)
}

// Get fetches a preference record with its category settings and device
// tokens. Returns gorm.ErrRecordNotFound when the user has none.
func (s *Store) Get(ctx context.Context, userID string) (*domain.Preference, error) {
	var pref domain.Preference
	err := s.db.WithContext(ctx).
		Preload("CategorySettings").
		Preload("DeviceTokens").
		Where("user_id = ?", userID).
		First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// Update merges the supplied fields into the user's record, creating it
// first if needed. Unspecified fields are unchanged.
func (s *Store) Update(ctx context.Context, userID string, upd UpdateRequest) (*domain.Preference, error) {
	if upd.EmailFrequency != nil && !upd.EmailFrequency.Valid() {
		return nil, fmt.Errorf("invalid email frequency %q", *upd.EmailFrequency)
	}

	pref, err := s.GetOrCreate(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if upd.Email != nil {
			updates["email"] = *upd.Email
		}
		if upd.EmailEnabled != nil {
			updates["email_enabled"] = *upd.EmailEnabled
		}
		if upd.PushEnabled != nil {
			updates["push_enabled"] = *upd.PushEnabled
		}
		if upd.InAppEnabled != nil {
			updates["in_app_enabled"] = *upd.InAppEnabled
		}
		if upd.EmailFrequency != nil {
			updates["email_frequency"] = *upd.EmailFrequency
		}
		if len(updates) > 0 {
			if err := tx.Model(&domain.Preference{}).Where("id = ?", pref.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update preference: %w", err)
			}
		}

		for category, flags := range upd.Categories {
			setting := domain.CategorySetting{
				PreferenceID: pref.ID,
				Category:     category,
				EmailEnabled: flags.Email,
				PushEnabled:  flags.Push,
				InAppEnabled: flags.InApp,
			}
			err := tx.Where("preference_id = ? AND category = ?", pref.ID, category).
				Delete(&domain.CategorySetting{}).Error
			if err != nil {
				return fmt.Errorf("failed to replace category setting: %w", err)
			}
			if err := tx.Create(&setting).Error; err != nil {
				return fmt.Errorf("failed to create category setting: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// ResolveChannels returns the channels enabled for a category. A
// category override wins over the root flags; without one the root
// flags apply. Pure computation, no store access.
func ResolveChannels(pref *domain.Preference, category domain.Category) []domain.Channel {
	email, push, inApp := pref.EmailEnabled, pref.PushEnabled, pref.InAppEnabled

	for _, setting := range pref.CategorySettings {
		if setting.Category == category {
			email, push, inApp = setting.EmailEnabled, setting.PushEnabled, setting.InAppEnabled
			break
		}
	}

	var channels []domain.Channel
	if email {
		channels = append(channels, domain.ChannelEmail)
	}
	if push {
		channels = append(channels, domain.ChannelPush)
	}
	if inApp {
		channels = append(channels, domain.ChannelInApp)
	}
	return channels
}
