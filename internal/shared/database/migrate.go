package database

import (
	"showtime/internal/events"
	"showtime/internal/seats"
	"showtime/internal/tickets"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&events.Event{},
		&seats.AvailabilityOverlay{},
		&tickets.Ticket{},
	)
}
