package notifications

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeBookingCommitted    EventType = "BOOKING_COMMITTED"
	EventTypeTicketStatusChanged EventType = "TICKET_STATUS_CHANGED"
)

// BookingEvent is published after a durable booking change. Events of the same
// catalog event share a partition, so consumers see them in commit order.
type BookingEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          EventType `json:"type"`
	EventID       int       `json:"event_id"`
	UserID        string    `json:"user_id"`
	BookingID     string    `json:"booking_id"`
	TicketID      string    `json:"ticket_id,omitempty"`
	SeatIDs       []string  `json:"seat_ids"`
	TotalAmount   float64   `json:"total_amount,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	FromStatus    string    `json:"from_status,omitempty"`
	ToStatus      string    `json:"to_status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewBookingCommitted(eventID int, userID, bookingID, ticketID string, seatIDs []string, total float64, method string) *BookingEvent {
	return &BookingEvent{
		ID:            uuid.New(),
		Type:          EventTypeBookingCommitted,
		EventID:       eventID,
		UserID:        userID,
		BookingID:     bookingID,
		TicketID:      ticketID,
		SeatIDs:       seatIDs,
		TotalAmount:   total,
		PaymentMethod: method,
		OccurredAt:    time.Now().UTC(),
	}
}

func NewTicketStatusChanged(eventID int, userID, bookingID, ticketID string, seatIDs []string, from, to string) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.New(),
		Type:       EventTypeTicketStatusChanged,
		EventID:    eventID,
		UserID:     userID,
		BookingID:  bookingID,
		TicketID:   ticketID,
		SeatIDs:    seatIDs,
		FromStatus: from,
		ToStatus:   to,
		OccurredAt: time.Now().UTC(),
	}
}

func (e *BookingEvent) PartitionKey() string {
	return strconv.Itoa(e.EventID)
}

// ChangesAvailability reports whether the event moved seats in the overlay.
func (e *BookingEvent) ChangesAvailability() bool {
	switch e.Type {
	case EventTypeBookingCommitted:
		return true
	case EventTypeTicketStatusChanged:
		return e.ToStatus == "cancelled"
	}
	return false
}

func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (*BookingEvent, error) {
	var e BookingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
