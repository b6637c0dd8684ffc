package database

import (
	"gorm.io/gorm"
)

// MigrateIndexes adds the composite indexes AutoMigrate cannot express from struct tags.
func MigrateIndexes(db *gorm.DB) error {
	// A user's tickets are always read newest first
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tickets_user_booking_date
		ON tickets (user_id, booking_date DESC);
	`).Error
	if err != nil {
		return err
	}

	// Admin listing of an event's active tickets
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_tickets_event_status
		ON tickets (event_id, status);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
