package transactions

import (
	"time"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
)

type Period string

const (
	PeriodAll     Period = "all"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Transaction is a read-only financial view of one ticket.
type Transaction struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	TransactionID string      `json:"transactionId"`
	EventID       int         `json:"eventId"`
	EventTitle    string      `json:"eventTitle"`
	EventImage    string      `json:"eventImage"`
	Venue         string      `json:"venue"`
	Location      string      `json:"location"`
	EventDate     string      `json:"eventDate"`
	EventTime     string      `json:"eventTime"`
	PurchaseDate  time.Time   `json:"purchaseDate"`
	TotalAmount   float64     `json:"totalAmount"`
	PaymentMethod string      `json:"paymentMethod"`
	BookingID     string      `json:"bookingId"`
	SeatsCount    int         `json:"seatsCount"`
	SelectedSeats []string    `json:"selectedSeats"`
	Status        Status      `json:"status"`
	Category      string      `json:"category"`
	ReceiptData   ReceiptData `json:"receiptData"`
}

// ReceiptData splits a total into its display components. Total is always the
// amount charged; the parts are rounded independently.
type ReceiptData struct {
	Subtotal float64 `json:"subtotal"`
	Taxes    float64 `json:"taxes"`
	Fees     float64 `json:"fees"`
	Total    float64 `json:"total"`
}

type Filters struct {
	Period        Period `form:"period"`
	PaymentMethod string `form:"payment_method"`
	Search        string `form:"search"`
}

type Stats struct {
	TotalSpent             float64            `json:"totalSpent"`
	TotalTransactions      int                `json:"totalTransactions"`
	TotalTickets           int                `json:"totalTickets"`
	AverageSpending        float64            `json:"averageSpending"`
	PaymentMethodBreakdown map[string]float64 `json:"paymentMethodBreakdown"`
	CategoryBreakdown      map[string]float64 `json:"categoryBreakdown"`
	LastTransactionDate    *time.Time         `json:"lastTransactionDate"`
}
