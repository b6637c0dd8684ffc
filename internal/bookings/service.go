package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"showtime/internal/events"
	"showtime/internal/notifications"
	"showtime/internal/seats"
	"showtime/internal/selection"
	"showtime/internal/shared/apperrors"
	"showtime/internal/tickets"
	"showtime/pkg/logger"

	"github.com/google/uuid"
)

// Selections is the part of the selection service a checkout reads and clears.
type Selections interface {
	Current(ctx context.Context, sessionID string) (*selection.Session, error)
	Clear(ctx context.Context, sessionID string) error
}

// Availability is the write side of the seat availability service.
type Availability interface {
	Commit(ctx context.Context, eventID int, seatIDs []string, status seats.SeatStatus) error
	Release(ctx context.Context, eventID int, seatIDs []string) error
}

type Tickets interface {
	Save(ctx context.Context, input tickets.TicketInput) (*tickets.Ticket, error)
	Get(ctx context.Context, ticketID string) (*tickets.Ticket, error)
	SetStatus(ctx context.Context, ticketID string, status tickets.Status) (*tickets.Ticket, error)
}

type EventSource interface {
	GetEvent(ctx context.Context, id int) (*events.Event, error)
}

type Service interface {
	StartCheckout(ctx context.Context, userID, sessionID string) (*Checkout, error)
	Get(ctx context.Context, userID, checkoutID string) (*Checkout, error)
	Review(ctx context.Context, userID, checkoutID string) (*Checkout, error)
	ChoosePayment(ctx context.Context, userID, checkoutID, method string) (*Checkout, error)
	// Confirm returns the checkout even when it fails so callers can show the reason.
	Confirm(ctx context.Context, userID, checkoutID string) (*Checkout, error)
	Retry(ctx context.Context, userID, checkoutID string) (*Checkout, error)
	Cancel(ctx context.Context, userID, ticketID string) (*tickets.Ticket, error)
}

type Dependencies struct {
	Checkouts    CheckoutStore
	Selections   Selections
	Availability Availability
	Tickets      Tickets
	Events       EventSource
	Payments     PaymentGateway
	Publisher    notifications.Publisher
}

type service struct {
	checkouts    CheckoutStore
	selections   Selections
	availability Availability
	tickets      Tickets
	events       EventSource
	payments     PaymentGateway
	publisher    notifications.Publisher
	locks        *keyedMutex
	now          func() time.Time
	newBookingID func(now time.Time) (string, error)
	log          *logger.Logger
}

func NewService(deps Dependencies) Service {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	checkouts := deps.Checkouts
	if checkouts == nil {
		checkouts = NewMemoryCheckoutStore()
	}

	return &service{
		checkouts:    checkouts,
		selections:   deps.Selections,
		availability: deps.Availability,
		tickets:      deps.Tickets,
		events:       deps.Events,
		payments:     deps.Payments,
		publisher:    publisher,
		locks:        newKeyedMutex(),
		now:          func() time.Time { return time.Now().UTC() },
		newBookingID: generateBookingID,
		log:          logger.GetDefault(),
	}
}

func (s *service) StartCheckout(ctx context.Context, userID, sessionID string) (*Checkout, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.Invalid("user_id", "is required")
	}
	session, err := s.selections.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	checkout := &Checkout{
		ID:        uuid.New().String(),
		UserID:    userID,
		SessionID: session.ID,
		EventID:   session.EventID,
		State:     StateSelecting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	return checkout, nil
}

func (s *service) Get(ctx context.Context, userID, checkoutID string) (*Checkout, error) {
	return s.load(ctx, userID, checkoutID)
}

// Review snapshots the selection and prices it. Nothing is written outside the checkout.
func (s *service) Review(ctx context.Context, userID, checkoutID string) (*Checkout, error) {
	unlock := s.locks.Lock(checkoutID)
	defer unlock()

	checkout, err := s.load(ctx, userID, checkoutID)
	if err != nil {
		return nil, err
	}
	if !canTransition(checkout.State, StateReviewing) {
		return nil, &apperrors.InvalidTransitionError{Entity: "checkout", From: string(checkout.State), To: string(StateReviewing)}
	}

	if err := s.snapshot(ctx, checkout); err != nil {
		return nil, err
	}
	if err := checkout.moveTo(StateReviewing, s.now()); err != nil {
		return nil, err
	}
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	return checkout, nil
}

func (s *service) ChoosePayment(ctx context.Context, userID, checkoutID, method string) (*Checkout, error) {
	unlock := s.locks.Lock(checkoutID)
	defer unlock()

	checkout, err := s.load(ctx, userID, checkoutID)
	if err != nil {
		return nil, err
	}
	method = normaliseMethod(method)
	if method == "" {
		return nil, apperrors.Invalid("payment_method", "is required")
	}
	if !s.payments.Supports(method) {
		return nil, apperrors.Invalid("payment_method", fmt.Sprintf("%q is not supported", method))
	}

	if err := checkout.moveTo(StateAwaitingPayment, s.now()); err != nil {
		return nil, err
	}
	checkout.PaymentMethod = method
	checkout.LastError = ""
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	return checkout, nil
}

// Confirm charges the payment and then commits the seats and the ticket. Seats
// committed for a ticket that could not be saved are released again, and any
// failure after the charge refunds it.
func (s *service) Confirm(ctx context.Context, userID, checkoutID string) (*Checkout, error) {
	unlock := s.locks.Lock(checkoutID)
	defer unlock()

	checkout, err := s.load(ctx, userID, checkoutID)
	if err != nil {
		return nil, err
	}
	if checkout.State != StateAwaitingPayment {
		return nil, &apperrors.InvalidTransitionError{Entity: "checkout", From: string(checkout.State), To: string(StateCommitted)}
	}

	event, err := s.events.GetEvent(ctx, checkout.EventID)
	if err != nil {
		return nil, err
	}

	// Step 1: Payment. A declined charge leaves the checkout waiting for another method
	receipt, err := s.payments.Charge(ctx, checkout.PaymentMethod, checkout.TotalAmount)
	if err != nil {
		checkout.LastError = err.Error()
		checkout.UpdatedAt = s.now()
		if saveErr := s.checkouts.Save(ctx, checkout); saveErr != nil {
			return nil, fmt.Errorf("failed to save checkout: %w", saveErr)
		}
		return checkout, err
	}
	checkout.TransactionID = receipt.TransactionID
	checkout.LastError = ""

	// Step 2: Booking id
	bookingID, err := s.newBookingID(s.now())
	if err != nil {
		return s.failAfterCharge(ctx, checkout, receipt, fmt.Errorf("failed to generate booking id: %w", err))
	}
	checkout.BookingID = bookingID

	// Step 3: Commit seats. This is the only place a cross-session race is decided
	if err := s.availability.Commit(ctx, checkout.EventID, checkout.SeatIDs, seats.StatusBooked); err != nil {
		var conflict *apperrors.SeatConflictError
		if errors.As(err, &conflict) {
			checkout.ConflictingSeats = append([]string(nil), conflict.SeatIDs...)
			s.log.LogSeatConflict(ctx, checkout.EventID, conflict.SeatIDs)
		}
		return s.failAfterCharge(ctx, checkout, receipt, err)
	}

	// Step 4: Ticket
	ticket, err := s.tickets.Save(ctx, tickets.TicketInput{
		UserID:           checkout.UserID,
		EventID:          event.ID,
		BookingID:        bookingID,
		EventTitle:       event.Title,
		EventDescription: event.Description,
		EventImage:       event.Image,
		Venue:            event.Venue,
		Location:         event.Location,
		Date:             event.Date,
		Time:             event.Time,
		Category:         event.Category,
		SeatIDs:          checkout.SeatIDs,
		TotalAmount:      checkout.TotalAmount,
		PaymentMethod:    checkout.PaymentMethod,
		TransactionID:    receipt.TransactionID,
		BookingDate:      receipt.ProcessedAt,
	})
	if err != nil {
		if releaseErr := s.availability.Release(ctx, checkout.EventID, checkout.SeatIDs); releaseErr != nil {
			s.log.ErrorWithContext(ctx, "Failed to release seats after ticket save failed", releaseErr, map[string]interface{}{
				"checkout_id": checkout.ID,
				"event_id":    checkout.EventID,
				"seat_ids":    checkout.SeatIDs,
			})
		}
		return s.failAfterCharge(ctx, checkout, receipt, err)
	}

	now := s.now()
	if err := checkout.moveTo(StateCommitted, now); err != nil {
		return nil, err
	}
	checkout.TicketID = ticket.ID
	checkout.CommittedAt = &now
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}

	// Step 5: Clear the selection
	if err := s.selections.Clear(ctx, checkout.SessionID); err != nil {
		s.log.WarnWithContext(ctx, "Failed to clear selection after booking", err, map[string]interface{}{
			"session_id": checkout.SessionID,
		})
	}

	// Step 6: Notify
	committed := notifications.NewBookingCommitted(checkout.EventID, checkout.UserID, bookingID, ticket.ID,
		checkout.SeatIDs, checkout.TotalAmount, checkout.PaymentMethod)
	if err := s.publisher.Publish(ctx, committed); err != nil {
		s.log.WarnWithContext(ctx, "Failed to publish booking event", err, map[string]interface{}{
			"booking_id": bookingID,
		})
	}

	s.log.LogBookingCommitted(ctx, bookingID, checkout.EventID, checkout.UserID, checkout.SeatIDs)
	return checkout, nil
}

// Retry starts a fresh checkout in review from a failed one, using whatever the
// session holds now.
func (s *service) Retry(ctx context.Context, userID, checkoutID string) (*Checkout, error) {
	failed, err := s.load(ctx, userID, checkoutID)
	if err != nil {
		return nil, err
	}
	if failed.State != StateFailed {
		return nil, &apperrors.InvalidTransitionError{Entity: "checkout", From: string(failed.State), To: "retry"}
	}

	now := s.now()
	checkout := &Checkout{
		ID:        uuid.New().String(),
		UserID:    failed.UserID,
		SessionID: failed.SessionID,
		EventID:   failed.EventID,
		State:     StateReviewing,
		RetryOf:   failed.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.snapshot(ctx, checkout); err != nil {
		return nil, err
	}
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	return checkout, nil
}

// Cancel cancels an active ticket and hands its seats back.
func (s *service) Cancel(ctx context.Context, userID, ticketID string) (*tickets.Ticket, error) {
	ticket, err := s.tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, apperrors.NotFound("ticket", ticketID)
	}

	from := ticket.Status
	cancelled, err := s.tickets.SetStatus(ctx, ticketID, tickets.StatusCancelled)
	if err != nil {
		return nil, err
	}
	if err := s.availability.Release(ctx, cancelled.EventID, cancelled.SeatIDs); err != nil {
		return nil, fmt.Errorf("ticket %s cancelled but seats were not released: %w", ticketID, err)
	}

	event := notifications.NewTicketStatusChanged(cancelled.EventID, cancelled.UserID, cancelled.BookingID,
		cancelled.ID, cancelled.SeatIDs, string(from), string(cancelled.Status))
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WarnWithContext(ctx, "Failed to publish cancellation event", err, map[string]interface{}{
			"ticket_id": ticketID,
		})
	}
	return cancelled, nil
}

func (s *service) load(ctx context.Context, userID, checkoutID string) (*Checkout, error) {
	checkout, err := s.checkouts.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if checkout.UserID != userID {
		return nil, apperrors.NotFound("checkout", checkoutID)
	}
	return checkout, nil
}

// snapshot copies the session's seats onto the checkout and prices them.
func (s *service) snapshot(ctx context.Context, checkout *Checkout) error {
	session, err := s.selections.Current(ctx, checkout.SessionID)
	if err != nil {
		return err
	}
	if len(session.Seats) == 0 {
		return apperrors.Invalid("seats", "selection is empty")
	}

	event, err := s.events.GetEvent(ctx, checkout.EventID)
	if err != nil {
		return err
	}

	checkout.SeatIDs = append([]string(nil), session.Seats...)
	checkout.UnitPrice = event.Price
	checkout.TotalAmount = round2(event.Price * float64(len(checkout.SeatIDs)))
	return nil
}

func (s *service) fail(ctx context.Context, checkout *Checkout, cause error) (*Checkout, error) {
	if err := checkout.moveTo(StateFailed, s.now()); err != nil {
		return nil, err
	}
	checkout.FailureReason = cause.Error()
	if err := s.checkouts.Save(ctx, checkout); err != nil {
		return nil, fmt.Errorf("failed to save checkout: %w", err)
	}
	s.log.LogBookingFailed(ctx, checkout.ID, checkout.EventID, cause)
	return checkout, cause
}

// failAfterCharge refunds a captured payment before failing the checkout. A
// refund that does not go through is logged and the transaction id kept.
func (s *service) failAfterCharge(ctx context.Context, checkout *Checkout, receipt *PaymentReceipt, cause error) (*Checkout, error) {
	if err := s.payments.Refund(ctx, receipt); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to refund payment for failed booking", err, map[string]interface{}{
			"checkout_id":    checkout.ID,
			"transaction_id": receipt.TransactionID,
			"amount":         receipt.Amount,
		})
	} else {
		checkout.PaymentRefunded = true
	}
	return s.fail(ctx, checkout, cause)
}

const bookingLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateBookingID returns BC, the unix millis and six random uppercase letters.
func generateBookingID(now time.Time) (string, error) {
	var suffix strings.Builder
	limit := big.NewInt(int64(len(bookingLetters)))
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		suffix.WriteByte(bookingLetters[n.Int64()])
	}
	return fmt.Sprintf("BC%d%s", now.UnixMilli(), suffix.String()), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
