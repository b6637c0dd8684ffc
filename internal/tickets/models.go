package tickets

import (
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusUsed      Status = "used"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusUsed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a ticket may move from one status to another.
// Only active tickets change; used and cancelled are final.
func CanTransition(from, to Status) bool {
	return from == StatusActive && (to == StatusUsed || to == StatusCancelled)
}

// Ticket is the durable record of one committed booking.
type Ticket struct {
	ID               string    `gorm:"primaryKey;type:varchar(40)" json:"id"`
	UserID           string    `gorm:"type:varchar(64);index;not null" json:"userId"`
	EventID          int       `gorm:"index;not null" json:"eventId"`
	BookingID        string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"bookingId"`
	EventTitle       string    `gorm:"not null" json:"eventTitle"`
	EventDescription string    `json:"eventDescription"`
	EventImage       string    `json:"eventImage"`
	Venue            string    `json:"venue"`
	Location         string    `json:"location"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	Category         string    `gorm:"index" json:"category"`
	SeatIDs          []string  `gorm:"type:jsonb;serializer:json;not null" json:"selectedSeats"`
	TotalAmount      float64   `gorm:"not null" json:"totalAmount"`
	PaymentMethod    string    `gorm:"type:varchar(32);not null" json:"paymentMethod"`
	TransactionID    string    `gorm:"type:varchar(64)" json:"transactionId,omitempty"`
	BookingDate      time.Time `gorm:"index;not null" json:"bookingDate"`
	QRPayload        string    `gorm:"type:text" json:"qrCode"`
	Status           Status    `gorm:"type:varchar(20);index;check:status IN ('active', 'used', 'cancelled');default:'active'" json:"status"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// TicketInput is everything the booking engine knows when it saves a ticket.
type TicketInput struct {
	UserID           string
	EventID          int
	BookingID        string
	EventTitle       string
	EventDescription string
	EventImage       string
	Venue            string
	Location         string
	Date             string
	Time             string
	Category         string
	SeatIDs          []string
	TotalAmount      float64
	PaymentMethod    string
	TransactionID    string
	BookingDate      time.Time
}
