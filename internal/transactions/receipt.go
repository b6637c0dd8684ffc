package transactions

import (
	"fmt"
	"strings"
	"time"
)

var (
	doubleRule = strings.Repeat("=", 47)
	singleRule = strings.Repeat("-", 47)
)

// RenderReceipt formats a transaction as the plain-text receipt offered for download.
func RenderReceipt(tx Transaction) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("SHOWTIME CANADA")
	line("TRANSACTION RECEIPT")
	line(doubleRule)
	line("")
	line("Transaction ID: %s", tx.TransactionID)
	line("Booking Reference: %s", tx.BookingID)
	line("Purchase Date: %s", formatTimestamp(tx.PurchaseDate))
	line("")
	line("EVENT DETAILS")
	line(singleRule)
	line("Event: %s", tx.EventTitle)
	line("Date: %s at %s", formatEventDate(tx.EventDate), tx.EventTime)
	line("Venue: %s", tx.Venue)
	line("Location: %s", tx.Location)
	line("Category: %s", strings.ToUpper(tx.Category))
	line("")
	line("TICKET DETAILS")
	line(singleRule)
	line("Seats: %s", strings.Join(tx.SelectedSeats, ", "))
	line("Quantity: %d ticket(s)", tx.SeatsCount)
	line("")
	line("PAYMENT BREAKDOWN")
	line(singleRule)
	line("Subtotal:           $%.2f", tx.ReceiptData.Subtotal)
	line("Taxes (HST/GST):    $%.2f", tx.ReceiptData.Taxes)
	line("Processing Fees:    $%.2f", tx.ReceiptData.Fees)
	line(singleRule)
	line("TOTAL PAID:         $%.2f", tx.ReceiptData.Total)
	line("")
	line("Payment Method: %s", strings.ToUpper(tx.PaymentMethod))
	line("Status: %s", strings.ToUpper(string(tx.Status)))
	line("")
	line(doubleRule)
	line("Thank you for choosing Showtime Canada!")
	line("Visit us at: www.showtimecanada.com")
	line("")
	line("This receipt serves as proof of purchase.")
	line("Please retain for your records.")
	b.WriteString(doubleRule)

	return b.String()
}

func formatTimestamp(t time.Time) string {
	return t.Format("January 2, 2006, 15:04")
}

// formatEventDate renders YYYY-MM-DD dates in long form and passes anything else through.
func formatEventDate(date string) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return parsed.Format("January 2, 2006")
}
