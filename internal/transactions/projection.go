package transactions

import (
	"fmt"
	"math"
	"strings"

	"showtime/internal/tickets"
)

// Share of a total attributed to each receipt line.
const (
	subtotalShare = 0.85
	taxShare      = 0.13
	feeShare      = 0.02
)

// FromTicket projects a ticket into its transaction view.
func FromTicket(t tickets.Ticket) Transaction {
	status := StatusCompleted
	if t.Status == tickets.StatusCancelled {
		status = StatusRefunded
	}

	return Transaction{
		ID:            "txn_" + t.ID,
		UserID:        t.UserID,
		TransactionID: transactionID(t),
		EventID:       t.EventID,
		EventTitle:    t.EventTitle,
		EventImage:    t.EventImage,
		Venue:         t.Venue,
		Location:      t.Location,
		EventDate:     t.Date,
		EventTime:     t.Time,
		PurchaseDate:  t.BookingDate,
		TotalAmount:   t.TotalAmount,
		PaymentMethod: t.PaymentMethod,
		BookingID:     t.BookingID,
		SeatsCount:    len(t.SeatIDs),
		SelectedSeats: append([]string(nil), t.SeatIDs...),
		Status:        status,
		Category:      t.Category,
		ReceiptData:   Breakdown(t.TotalAmount),
	}
}

func Breakdown(total float64) ReceiptData {
	return ReceiptData{
		Subtotal: round2(total * subtotalShare),
		Taxes:    round2(total * taxShare),
		Fees:     round2(total * feeShare),
		Total:    total,
	}
}

// transactionID falls back to an id derived from the ticket when the payment step
// did not record one, so the projection stays deterministic.
func transactionID(t tickets.Ticket) string {
	if t.TransactionID != "" {
		return t.TransactionID
	}
	suffix := t.ID
	if i := strings.LastIndex(suffix, "-"); i >= 0 {
		suffix = suffix[i+1:]
	}
	return fmt.Sprintf("TXN_%d_%s", t.BookingDate.Unix(), suffix)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
