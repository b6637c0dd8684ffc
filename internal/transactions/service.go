package transactions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"showtime/internal/shared/apperrors"
	"showtime/internal/tickets"
)

// TicketSource is the subset of the ticket service the ledger reads from.
type TicketSource interface {
	FindByUser(ctx context.Context, userID string) ([]tickets.Ticket, error)
}

type Service interface {
	ListForUser(ctx context.Context, userID string, filters Filters) ([]Transaction, error)
	Get(ctx context.Context, userID, bookingID string) (*Transaction, error)
	StatsForUser(ctx context.Context, userID string) (*Stats, error)
	Receipt(ctx context.Context, userID, bookingID string) (string, error)
}

type service struct {
	tickets TicketSource
	now     func() time.Time
}

func NewService(source TicketSource) Service {
	return NewServiceWithClock(source, time.Now)
}

func NewServiceWithClock(source TicketSource, now func() time.Time) Service {
	return &service{tickets: source, now: now}
}

// ListForUser returns the user's transactions, newest first, matching every filter.
func (s *service) ListForUser(ctx context.Context, userID string, filters Filters) ([]Transaction, error) {
	since, err := periodStart(filters.Period, s.now())
	if err != nil {
		return nil, err
	}

	all, err := s.all(ctx, userID)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filters.Search))
	out := make([]Transaction, 0, len(all))
	for _, tx := range all {
		if since != nil && tx.PurchaseDate.Before(*since) {
			continue
		}
		if filters.PaymentMethod != "" && !strings.EqualFold(tx.PaymentMethod, filters.PaymentMethod) {
			continue
		}
		if search != "" && !matches(tx, search) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, bookingID string) (*Transaction, error) {
	all, err := s.all(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].BookingID == bookingID {
			return &all[i], nil
		}
	}
	return nil, apperrors.NotFound("transaction", bookingID)
}

func (s *service) StatsForUser(ctx context.Context, userID string) (*Stats, error) {
	all, err := s.all(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		PaymentMethodBreakdown: map[string]float64{},
		CategoryBreakdown:      map[string]float64{},
	}
	for _, tx := range all {
		stats.TotalSpent += tx.TotalAmount
		stats.TotalTransactions++
		stats.TotalTickets += tx.SeatsCount
		stats.PaymentMethodBreakdown[tx.PaymentMethod] += tx.TotalAmount
		stats.CategoryBreakdown[tx.Category] += tx.TotalAmount
	}

	stats.TotalSpent = round2(stats.TotalSpent)
	for k, v := range stats.PaymentMethodBreakdown {
		stats.PaymentMethodBreakdown[k] = round2(v)
	}
	for k, v := range stats.CategoryBreakdown {
		stats.CategoryBreakdown[k] = round2(v)
	}
	if stats.TotalTransactions > 0 {
		stats.AverageSpending = round2(stats.TotalSpent / float64(stats.TotalTransactions))
		last := all[0].PurchaseDate
		stats.LastTransactionDate = &last
	}
	return stats, nil
}

func (s *service) Receipt(ctx context.Context, userID, bookingID string) (string, error) {
	tx, err := s.Get(ctx, userID, bookingID)
	if err != nil {
		return "", err
	}
	return RenderReceipt(*tx), nil
}

// all projects every ticket of the user, newest first.
func (s *service) all(ctx context.Context, userID string) ([]Transaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Invalid("user_id", "is required")
	}

	owned, err := s.tickets.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}

	out := make([]Transaction, 0, len(owned))
	for _, t := range owned {
		out = append(out, FromTicket(t))
	}
	return out, nil
}

func periodStart(period Period, now time.Time) (*time.Time, error) {
	var since time.Time
	switch period {
	case "", PeriodAll:
		return nil, nil
	case PeriodWeek:
		since = now.AddDate(0, 0, -7)
	case PeriodMonth:
		since = now.AddDate(0, -1, 0)
	case PeriodQuarter:
		since = now.AddDate(0, -3, 0)
	case PeriodYear:
		since = now.AddDate(-1, 0, 0)
	default:
		return nil, apperrors.Invalid("period", fmt.Sprintf("unsupported period %q", period))
	}
	return &since, nil
}

func matches(tx Transaction, needle string) bool {
	return strings.Contains(strings.ToLower(tx.EventTitle), needle) ||
		strings.Contains(strings.ToLower(tx.BookingID), needle) ||
		strings.Contains(strings.ToLower(tx.Venue), needle)
}
