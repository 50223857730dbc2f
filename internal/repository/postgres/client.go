package postgres

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/config"
	"github.com/JaNuArY-17th/URL-Shortener-sub002/internal/domain"
)

// NewDB opens the preference/notification database and migrates the
// schema. TranslateError is on so unique violations surface as
// gorm.ErrDuplicatedKey, which the get-or-create race depends on.
func NewDB(cfg *config.Postgres, log *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Postgres connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))
	return db, nil
}

// Migrate creates or updates the preference and notification tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Preference{},
		&domain.CategorySetting{},
		&domain.DeviceToken{},
		&domain.NotificationRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
