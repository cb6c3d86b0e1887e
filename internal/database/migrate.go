package database

import (
	"fmt"

	"gorm.io/gorm"

	"qurux/internal/domain/booking"
	"qurux/internal/domain/catalog"
	"qurux/internal/domain/profile"
)

// Migrate creates or updates every table the service owns, including the
// partial unique index that guards active slot claims.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&profile.Account{},
		&profile.Profile{},
		&catalog.Salon{},
		&catalog.Service{},
	); err != nil {
		return fmt.Errorf("migrate catalog/profile: %w", err)
	}
	if err := booking.Migrate(db); err != nil {
		return fmt.Errorf("migrate bookings: %w", err)
	}
	return nil
}
