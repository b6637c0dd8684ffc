package seats

import (
	"time"
)

type SeatStatus string

const (
	StatusAvailable SeatStatus = "available"
	StatusBooked    SeatStatus = "booked"
)

func (s SeatStatus) Valid() bool {
	return s == StatusAvailable || s == StatusBooked
}

// AvailabilityRecord is the status of every seat of an event. UpdatedAt is the
// last overlay write, nil when the event has never been booked.
type AvailabilityRecord struct {
	EventID   int                   `json:"eventId"`
	Seats     map[string]SeatStatus `json:"seats"`
	UpdatedAt *time.Time            `json:"updatedAt,omitempty"`
}

// SeatOverlay holds the seats whose status changed after the event shipped.
type SeatOverlay map[string]SeatStatus

// AvailabilityOverlay is the persisted overlay of one event.
type AvailabilityOverlay struct {
	EventID     int         `gorm:"primaryKey;autoIncrement:false" json:"eventId"`
	SeatOverlay SeatOverlay `gorm:"type:jsonb;serializer:json;not null" json:"seatUpdates"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (AvailabilityOverlay) TableName() string {
	return "availability_overlays"
}

// CommitRequest is one batch status change. Baseline carries the shipped status of
// each requested seat so the store can evaluate effective status inside its own
// transaction boundary.
type CommitRequest struct {
	EventID  int
	SeatIDs  []string
	Status   SeatStatus
	Baseline map[string]SeatStatus
}

// OverlayStats summarises every stored overlay.
type OverlayStats struct {
	EventsWithUpdates int        `json:"eventsWithUpdates"`
	TotalSeatUpdates  int        `json:"totalSeatUpdates"`
	LastUpdated       *time.Time `json:"lastUpdated,omitempty"`
}
