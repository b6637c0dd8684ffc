package tickets

import (
	"encoding/json"
	"fmt"
	"strings"

	"showtime/internal/shared/apperrors"
)

// QRPayload is the content printed in a ticket's QR code. Field order is fixed, so
// two tickets with the same data always encode to the same string.
type QRPayload struct {
	BookingID  string `json:"bookingId"`
	EventID    int    `json:"eventId"`
	UserID     string `json:"userId"`
	EventTitle string `json:"eventTitle"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Seats      string `json:"seats"`
	Venue      string `json:"venue"`
}

// SeatIDs splits the comma-joined seat list back into ids.
func (p QRPayload) SeatIDs() []string {
	if strings.TrimSpace(p.Seats) == "" {
		return []string{}
	}
	parts := strings.Split(p.Seats, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func EncodeQR(t *Ticket) (string, error) {
	raw, err := json.Marshal(QRPayload{
		BookingID:  t.BookingID,
		EventID:    t.EventID,
		UserID:     t.UserID,
		EventTitle: t.EventTitle,
		Date:       t.Date,
		Time:       t.Time,
		Seats:      strings.Join(t.SeatIDs, ", "),
		Venue:      t.Venue,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode QR payload: %w", err)
	}
	return string(raw), nil
}

func DecodeQR(payload string) (*QRPayload, error) {
	var p QRPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &p); err != nil {
		return nil, apperrors.Invalid("qr", "payload is not valid JSON")
	}
	if p.BookingID == "" {
		return nil, apperrors.Invalid("qr", "missing booking id")
	}
	return &p, nil
}
