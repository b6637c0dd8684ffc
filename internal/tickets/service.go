package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"showtime/internal/shared/apperrors"
	"showtime/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	Save(ctx context.Context, input TicketInput) (*Ticket, error)
	Get(ctx context.Context, ticketID string) (*Ticket, error)
	FindByUser(ctx context.Context, userID string) ([]Ticket, error)
	FindByBookingID(ctx context.Context, bookingID string) (*Ticket, error)
	FindByEvent(ctx context.Context, eventID int) ([]Ticket, error)
	FindByStatus(ctx context.Context, userID string, status Status) ([]Ticket, error)
	FindByCategory(ctx context.Context, userID, category string) ([]Ticket, error)
	SetStatus(ctx context.Context, ticketID string, status Status) (*Ticket, error)
	Purge(ctx context.Context, ticketID string) error
	Verify(ctx context.Context, payload string) (*Ticket, error)
}

// saveAttempts bounds how often Save draws a new ticket id after a collision.
const saveAttempts = 3

type service struct {
	repo  Repository
	now   func() time.Time
	newID func(time.Time) string
	log   *logger.Logger
}

func NewService(repo Repository) Service {
	return &service{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: generateTicketID,
		log:   logger.GetDefault(),
	}
}

// Save stores a new active ticket with its QR payload. A booking id that already
// has a ticket fails with DuplicateBookingError.
func (s *service) Save(ctx context.Context, input TicketInput) (*Ticket, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	bookingDate := input.BookingDate
	if bookingDate.IsZero() {
		bookingDate = s.now()
	}

	ticket := &Ticket{
		UserID:           input.UserID,
		EventID:          input.EventID,
		BookingID:        input.BookingID,
		EventTitle:       input.EventTitle,
		EventDescription: input.EventDescription,
		EventImage:       input.EventImage,
		Venue:            input.Venue,
		Location:         input.Location,
		Date:             input.Date,
		Time:             input.Time,
		Category:         input.Category,
		SeatIDs:          append([]string(nil), input.SeatIDs...),
		TotalAmount:      input.TotalAmount,
		PaymentMethod:    input.PaymentMethod,
		TransactionID:    input.TransactionID,
		BookingDate:      bookingDate,
		Status:           StatusActive,
	}

	for attempt := 1; ; attempt++ {
		ticket.ID = s.newID(s.now())
		qr, err := EncodeQR(ticket)
		if err != nil {
			return nil, err
		}
		ticket.QRPayload = qr

		err = s.repo.Create(ctx, ticket)
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, ErrTicketIDTaken) || attempt == saveAttempts {
			return nil, err
		}
		s.log.WarnWithContext(ctx, "Ticket id collided, drawing a new one", err, map[string]interface{}{
			"booking_id": ticket.BookingID,
			"attempt":    attempt,
		})
	}
}

func (s *service) Get(ctx context.Context, ticketID string) (*Ticket, error) {
	return s.repo.GetByID(ctx, ticketID)
}

func (s *service) FindByUser(ctx context.Context, userID string) ([]Ticket, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) FindByBookingID(ctx context.Context, bookingID string) (*Ticket, error) {
	return s.repo.GetByBookingID(ctx, bookingID)
}

func (s *service) FindByEvent(ctx context.Context, eventID int) ([]Ticket, error) {
	return s.repo.ListByEvent(ctx, eventID)
}

func (s *service) FindByStatus(ctx context.Context, userID string, status Status) ([]Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.Invalid("status", fmt.Sprintf("unsupported ticket status %q", status))
	}
	return s.filterUser(ctx, userID, func(t Ticket) bool { return t.Status == status })
}

func (s *service) FindByCategory(ctx context.Context, userID, category string) ([]Ticket, error) {
	return s.filterUser(ctx, userID, func(t Ticket) bool { return t.Category == category })
}

// SetStatus applies a status transition. Only active tickets move.
func (s *service) SetStatus(ctx context.Context, ticketID string, status Status) (*Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.Invalid("status", fmt.Sprintf("unsupported ticket status %q", status))
	}

	ticket, err := s.repo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(ticket.Status, status) {
		return nil, &apperrors.InvalidTransitionError{Entity: "ticket", From: string(ticket.Status), To: string(status)}
	}

	if err := s.repo.UpdateStatus(ctx, ticketID, ticket.Status, status); err != nil {
		return nil, err
	}

	s.log.LogTicketStatusChanged(ctx, ticket.ID, ticket.BookingID, string(ticket.Status), string(status))
	ticket.Status = status
	return ticket, nil
}

func (s *service) Purge(ctx context.Context, ticketID string) error {
	if err := s.repo.Delete(ctx, ticketID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "Ticket purged", "ticket_id", ticketID)
	return nil
}

// Verify resolves a scanned QR payload to its ticket and checks the seats match.
func (s *service) Verify(ctx context.Context, payload string) (*Ticket, error) {
	qr, err := DecodeQR(payload)
	if err != nil {
		return nil, err
	}

	ticket, err := s.repo.GetByBookingID(ctx, qr.BookingID)
	if err != nil {
		return nil, err
	}
	if ticket.EventID != qr.EventID || strings.Join(ticket.SeatIDs, ", ") != strings.Join(qr.SeatIDs(), ", ") {
		return nil, apperrors.Invalid("qr", "payload does not match booking "+qr.BookingID)
	}
	return ticket, nil
}

func (s *service) filterUser(ctx context.Context, userID string, keep func(Ticket) bool) ([]Ticket, error) {
	all, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Ticket, 0, len(all))
	for _, t := range all {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func validateInput(input TicketInput) error {
	switch {
	case strings.TrimSpace(input.UserID) == "":
		return apperrors.Invalid("user_id", "is required")
	case strings.TrimSpace(input.BookingID) == "":
		return apperrors.Invalid("booking_id", "is required")
	case input.EventID <= 0:
		return apperrors.Invalid("event_id", "must be a positive integer")
	case len(input.SeatIDs) == 0:
		return apperrors.Invalid("seat_ids", "at least one seat is required")
	case input.TotalAmount < 0:
		return apperrors.Invalid("total_amount", "cannot be negative")
	}
	return nil
}

// generateTicketID returns TKT-{unix seconds}-{8 hex chars}.
func generateTicketID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("TKT-%d-%s", now.Unix(), strings.ToUpper(suffix))
}
