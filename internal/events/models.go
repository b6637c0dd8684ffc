package events

import (
	"time"

	"showtime/internal/venues"
)

// Baseline statuses an event may ship with.
const (
	BaselineAvailable = "available"
	BaselineBooked    = "booked"
)

// Event is a catalog entry. Its seating layout is fixed once the event exists.
type Event struct {
	ID          int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title       string    `gorm:"not null" json:"title" binding:"required"`
	Description string    `json:"description"`
	Category    string    `gorm:"index" json:"category"`
	Date        string    `gorm:"not null" json:"date" binding:"required"`
	Time        string    `json:"time"`
	Venue       string    `gorm:"not null" json:"venue" binding:"required"`
	Location    string    `json:"location"`
	Price       float64   `gorm:"not null" json:"price" binding:"gte=0"`
	Image       string    `json:"image"`
	Seating     Seating   `gorm:"type:jsonb;serializer:json" json:"seating"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Seating carries the layout and the shipped default availability (the baseline).
// Seats missing from Availability are available.
type Seating struct {
	Layout       venues.Layout     `json:"layout"`
	Availability map[string]string `json:"availability,omitempty"`
}

func (Event) TableName() string {
	return "events"
}
