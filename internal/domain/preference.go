package domain

import "time"

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "inApp"
)

// EmailFrequency governs whether an email delivery request is sent
// immediately or annotated for deferred batching.
type EmailFrequency string

const (
	FrequencyImmediate EmailFrequency = "immediate"
	FrequencyHourly    EmailFrequency = "hourly"
	FrequencyDaily     EmailFrequency = "daily"
	FrequencyWeekly    EmailFrequency = "weekly"
)

// Valid reports whether f is one of the supported frequencies.
func (f EmailFrequency) Valid() bool {
	switch f {
	case FrequencyImmediate, FrequencyHourly, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// Preference holds a user's notification settings. One row per user,
// created lazily on first lookup with system defaults.
type Preference struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           string `gorm:"uniqueIndex;not null"`
	Email            string
	EmailEnabled     bool
	PushEnabled      bool
	InAppEnabled     bool
	EmailFrequency   EmailFrequency    `gorm:"type:varchar(16)"`
	CategorySettings []CategorySetting `gorm:"constraint:OnDelete:CASCADE"`
	DeviceTokens     []DeviceToken     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CategorySetting overrides the root channel flags for one category.
// Presence of a row overrides all three channels for that category.
type CategorySetting struct {
	ID           uint     `gorm:"primaryKey"`
	PreferenceID uint     `gorm:"uniqueIndex:idx_category_settings_pref_category;not null"`
	Category     Category `gorm:"uniqueIndex:idx_category_settings_pref_category;type:varchar(32);not null"`
	EmailEnabled bool
	PushEnabled  bool
	InAppEnabled bool
}

// DeviceToken is a push token attached to a preference record, unique
// per user by token value.
type DeviceToken struct {
	ID           uint   `gorm:"primaryKey"`
	PreferenceID uint   `gorm:"uniqueIndex:idx_device_tokens_pref_token;not null"`
	Token        string `gorm:"uniqueIndex:idx_device_tokens_pref_token;not null"`
	Device       string
	LastSeenAt   time.Time
}

// DefaultPreference returns the system-wide defaults for a user: email
// off, push off, in-app on, immediate email frequency. The store owns
// these defaults; producing services never embed default policy.
func DefaultPreference(userID, email string) Preference {
	return Preference{
		UserID:         userID,
		Email:          email,
		EmailEnabled:   false,
		PushEnabled:    false,
		InAppEnabled:   true,
		EmailFrequency: FrequencyImmediate,
	}
}

// NotificationRecord is the audit row written for each channel a fanout
// decision actually dispatched to. The dedupe index doubles as the
// idempotency backstop for at-least-once delivery.
type NotificationRecord struct {
	ID              uint     `gorm:"primaryKey"`
	UserID          string   `gorm:"uniqueIndex:idx_notification_dedupe;not null"`
	Channel         Channel  `gorm:"uniqueIndex:idx_notification_dedupe;type:varchar(16);not null"`
	Category        Category `gorm:"uniqueIndex:idx_notification_dedupe;type:varchar(32);not null"`
	EventID         string   `gorm:"uniqueIndex:idx_notification_dedupe;not null"`
	SourceEventType string
	CreatedAt       time.Time `gorm:"index"`
}
