package bookings

import (
	"time"

	"showtime/internal/shared/apperrors"
)

type State string

const (
	StateSelecting       State = "selecting"
	StateReviewing       State = "reviewing"
	StateAwaitingPayment State = "awaiting_payment"
	StateCommitted       State = "committed"
	StateFailed          State = "failed"
)

// IsTerminal reports whether a checkout in this state can never move again.
func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateFailed
}

var transitions = map[State][]State{
	StateSelecting:       {StateReviewing},
	StateReviewing:       {StateAwaitingPayment},
	StateAwaitingPayment: {StateAwaitingPayment, StateCommitted, StateFailed},
}

func canTransition(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Checkout is one attempt to turn a selection into a booking.
type Checkout struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	SessionID     string     `json:"sessionId"`
	EventID       int        `json:"eventId"`
	State         State      `json:"state"`
	SeatIDs       []string   `json:"seatIds"`
	UnitPrice     float64    `json:"unitPrice"`
	TotalAmount   float64    `json:"totalAmount"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	BookingID     string     `json:"bookingId,omitempty"`
	TicketID      string     `json:"ticketId,omitempty"`
	TransactionID string     `json:"transactionId,omitempty"`
	RetryOf       string     `json:"retryOf,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	CommittedAt   *time.Time `json:"committedAt,omitempty"`

	// Set when the attempt failed or the last payment was declined
	FailureReason    string   `json:"failureReason,omitempty"`
	ConflictingSeats []string `json:"conflictingSeats,omitempty"`
	LastError        string   `json:"lastError,omitempty"`
	PaymentRefunded  bool     `json:"paymentRefunded,omitempty"`
}

func (c *Checkout) moveTo(to State, now time.Time) error {
	if !canTransition(c.State, to) {
		return &apperrors.InvalidTransitionError{Entity: "checkout", From: string(c.State), To: string(to)}
	}
	c.State = to
	c.UpdatedAt = now
	return nil
}

func (c *Checkout) clone() *Checkout {
	copied := *c
	copied.SeatIDs = append([]string(nil), c.SeatIDs...)
	copied.ConflictingSeats = append([]string(nil), c.ConflictingSeats...)
	if c.CommittedAt != nil {
		at := *c.CommittedAt
		copied.CommittedAt = &at
	}
	return &copied
}
