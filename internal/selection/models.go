package selection

import (
	"time"

	"showtime/internal/seats"
	"showtime/internal/venues"
)

// Session is the transient, per-user set of seats picked for one event.
// Seats keeps the order in which seats were picked.
type Session struct {
	ID        string    `json:"id"`
	EventID   int       `json:"eventId"`
	Seats     []string  `json:"seats"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Session) IsSelected(seatID string) bool {
	for _, id := range s.Seats {
		if id == seatID {
			return true
		}
	}
	return false
}

func (s *Session) remove(seatID string) {
	kept := s.Seats[:0]
	for _, id := range s.Seats {
		if id != seatID {
			kept = append(kept, id)
		}
	}
	s.Seats = kept
}

// SeatMapSeat is one drawable seat with its live status. Stale marks a picked
// seat that has since been booked by someone else.
type SeatMapSeat struct {
	venues.Position
	Status   seats.SeatStatus `json:"status"`
	Selected bool             `json:"selected"`
	Stale    bool             `json:"stale,omitempty"`
}

// SeatMap is the effective availability of an event merged with a session's picks,
// in layout order.
type SeatMap struct {
	SessionID string            `json:"sessionId"`
	EventID   int               `json:"eventId"`
	Kind      venues.LayoutKind `json:"kind"`
	Seats     []SeatMapSeat     `json:"seats"`
	Selected  []string          `json:"selected"`
	Stale     []string          `json:"stale,omitempty"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty"`
}
