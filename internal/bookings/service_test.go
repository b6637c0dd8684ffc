package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"showtime/internal/events"
	"showtime/internal/notifications"
	"showtime/internal/seats"
	"showtime/internal/selection"
	"showtime/internal/shared/apperrors"
	"showtime/internal/shared/config"
	"showtime/internal/shared/middleware"
	"showtime/internal/tickets"
	"showtime/internal/venues"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventID = 5

type recordingPublisher struct {
	mu     sync.Mutex
	events []*notifications.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *notifications.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []notifications.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notifications.EventType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// recordingGateway counts refunds and can fail them.
type recordingGateway struct {
	PaymentGateway
	mu        sync.Mutex
	refunded  []string
	refundErr error
}

func (g *recordingGateway) Refund(ctx context.Context, receipt *PaymentReceipt) error {
	if g.refundErr != nil {
		return g.refundErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunded = append(g.refunded, receipt.TransactionID)
	return g.PaymentGateway.Refund(ctx, receipt)
}

type fixture struct {
	service      *service
	selections   selection.Service
	availability seats.Service
	tickets      tickets.Service
	publisher    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	eventService := events.NewService(events.NewMemoryRepository())
	require.NoError(t, eventService.SaveEvent(ctx, &events.Event{
		ID:       eventID,
		Title:    "Quartet Night",
		Category: "music",
		Date:     "2026-11-20",
		Time:     "20:00",
		Venue:    "Small Hall",
		Price:    12.5,
		Seating: events.Seating{
			Layout: venues.Layout{Kind: venues.KindRowBased, RowBased: &venues.RowBasedLayout{
				Rows: []string{"A"}, SeatsPerRow: 5,
			}},
		},
	}))

	availability := seats.NewService(seats.NewMemoryStore(), eventService, nil, 0)
	selections := selection.NewService(selection.NewMemoryStore(time.Minute), availability, eventService)
	ticketService := tickets.NewService(tickets.NewMemoryRepository())
	publisher := &recordingPublisher{}

	svc := NewService(Dependencies{
		Selections:   selections,
		Availability: availability,
		Tickets:      ticketService,
		Events:       eventService,
		Payments: NewSimulatedGateway(config.PaymentConfig{
			Methods:        []string{"creditcard", "paypal", "applepay", "bankwire"},
			DeclineMethods: []string{"bankwire"},
		}),
		Publisher: publisher,
	}).(*service)

	return &fixture{
		service:      svc,
		selections:   selections,
		availability: availability,
		tickets:      ticketService,
		publisher:    publisher,
	}
}

// pick starts a session holding seatIDs.
func (f *fixture) pick(t *testing.T, seatIDs ...string) *selection.Session {
	t.Helper()
	ctx := context.Background()
	session, err := f.selections.Start(ctx, eventID)
	require.NoError(t, err)
	for _, id := range seatIDs {
		session, err = f.selections.Toggle(ctx, session.ID, id)
		require.NoError(t, err)
	}
	return session
}

// ready drives a checkout to awaiting_payment.
func (f *fixture) ready(t *testing.T, userID, sessionID, method string) *Checkout {
	t.Helper()
	ctx := context.Background()
	checkout, err := f.service.StartCheckout(ctx, userID, sessionID)
	require.NoError(t, err)
	_, err = f.service.Review(ctx, userID, checkout.ID)
	require.NoError(t, err)
	checkout, err = f.service.ChoosePayment(ctx, userID, checkout.ID, method)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingPayment, checkout.State)
	return checkout
}

func TestBookTwoOfFiveSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session := f.pick(t, "A1", "A3")
	checkout := f.ready(t, "u1", session.ID, "creditcard")
	assert.Equal(t, 25.0, checkout.TotalAmount)

	committed, err := f.service.Confirm(ctx, "u1", checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, committed.State)
	assert.Regexp(t, regexp.MustCompile(`^BC\d{13}[A-Z]{6}$`), committed.BookingID)
	assert.Regexp(t, regexp.MustCompile(`^TXN_\d+_[0-9A-F]{8}$`), committed.TransactionID)
	require.NotNil(t, committed.CommittedAt)

	effective, err := f.availability.GetEffective(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, map[string]seats.SeatStatus{
		"A1": seats.StatusBooked,
		"A2": seats.StatusAvailable,
		"A3": seats.StatusBooked,
		"A4": seats.StatusAvailable,
		"A5": seats.StatusAvailable,
	}, effective.Seats)

	ticket, err := f.tickets.FindByBookingID(ctx, committed.BookingID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A3"}, ticket.SeatIDs)
	assert.Equal(t, 25.0, ticket.TotalAmount)
	assert.Equal(t, committed.TicketID, ticket.ID)

	// The selection is gone once the booking lands
	_, err = f.selections.Current(ctx, session.ID)
	assert.True(t, selection.IsNotFound(err))

	other := f.pick(t)
	_, err = f.selections.Toggle(ctx, other.ID, "A1")
	var unavailable *apperrors.SeatUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "A1", unavailable.SeatID)

	assert.Equal(t, []notifications.EventType{notifications.EventTypeBookingCommitted}, f.publisher.types())
}

func TestTwoSessionsRaceForTheSameSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.ready(t, "u1", f.pick(t, "A1", "A2").ID, "creditcard")
	second := f.ready(t, "u2", f.pick(t, "A1").ID, "paypal")

	type result struct {
		checkout *Checkout
		err      error
	}
	results := make([]result, 2)
	var wg sync.WaitGroup
	for i, c := range []*Checkout{first, second} {
		wg.Add(1)
		go func(i int, c *Checkout) {
			defer wg.Done()
			checkout, err := f.service.Confirm(ctx, c.UserID, c.ID)
			results[i] = result{checkout, err}
		}(i, c)
	}
	wg.Wait()

	var committed, failed int
	for _, r := range results {
		require.NotNil(t, r.checkout)
		switch r.checkout.State {
		case StateCommitted:
			committed++
			assert.NoError(t, r.err)
		case StateFailed:
			failed++
			var conflict *apperrors.SeatConflictError
			require.True(t, errors.As(r.err, &conflict))
			assert.Equal(t, []string{"A1"}, conflict.SeatIDs)
			assert.Equal(t, []string{"A1"}, r.checkout.ConflictingSeats)
			assert.NotEmpty(t, r.checkout.FailureReason)
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, failed)

	issued, err := f.tickets.FindByEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, issued, 1)
}

func TestDeclinedPaymentKeepsCheckoutOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checkout := f.ready(t, "u1", f.pick(t, "A2").ID, "bankwire")

	declined, err := f.service.Confirm(ctx, "u1", checkout.ID)
	var payment *apperrors.PaymentError
	require.True(t, errors.As(err, &payment))
	assert.Equal(t, StateAwaitingPayment, declined.State)
	assert.NotEmpty(t, declined.LastError)

	effective, err := f.availability.GetEffective(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, seats.StatusAvailable, effective.Seats["A2"])

	_, err = f.service.ChoosePayment(ctx, "u1", checkout.ID, "applepay")
	require.NoError(t, err)
	committed, err := f.service.Confirm(ctx, "u1", checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, committed.State)
	assert.Empty(t, committed.LastError)
	assert.True(t, strings.HasSuffix(committed.TransactionID, "-APPLEPAY"))
}

func TestDuplicateBookingIDReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.service.newBookingID = func(time.Time) (string, error) { return "BC1700000000000QWERTY", nil }

	first := f.ready(t, "u1", f.pick(t, "A1").ID, "creditcard")
	_, err := f.service.Confirm(ctx, "u1", first.ID)
	require.NoError(t, err)

	second := f.ready(t, "u2", f.pick(t, "A4", "A5").ID, "creditcard")
	failed, err := f.service.Confirm(ctx, "u2", second.ID)
	var duplicate *apperrors.DuplicateBookingError
	require.True(t, errors.As(err, &duplicate))
	assert.Equal(t, StateFailed, failed.State)

	effective, err := f.availability.GetEffective(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, seats.StatusBooked, effective.Seats["A1"])
	assert.Equal(t, seats.StatusAvailable, effective.Seats["A4"])
	assert.Equal(t, seats.StatusAvailable, effective.Seats["A5"])
}

func TestSeatConflictRefundsTheLoser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gateway := &recordingGateway{PaymentGateway: f.service.payments}
	f.service.payments = gateway

	winner := f.ready(t, "u1", f.pick(t, "A3").ID, "creditcard")
	loser := f.ready(t, "u2", f.pick(t, "A3", "A4").ID, "paypal")

	committed, err := f.service.Confirm(ctx, "u1", winner.ID)
	require.NoError(t, err)
	assert.False(t, committed.PaymentRefunded)

	failed, err := f.service.Confirm(ctx, "u2", loser.ID)
	var conflict *apperrors.SeatConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, StateFailed, failed.State)
	assert.True(t, failed.PaymentRefunded)
	require.NotEmpty(t, failed.TransactionID)
	assert.Equal(t, []string{failed.TransactionID}, gateway.refunded)

	stored, err := f.service.Get(ctx, "u2", loser.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaymentRefunded)
}

func TestFailedRefundStillFailsCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.service.payments = &recordingGateway{PaymentGateway: f.service.payments, refundErr: errors.New("gateway unreachable")}
	f.service.newBookingID = func(time.Time) (string, error) { return "", errors.New("entropy exhausted") }

	checkout := f.ready(t, "u1", f.pick(t, "A1").ID, "creditcard")
	failed, err := f.service.Confirm(ctx, "u1", checkout.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
	assert.Equal(t, StateFailed, failed.State)
	assert.False(t, failed.PaymentRefunded)
	assert.NotEmpty(t, failed.TransactionID)
}

func TestDeclinedPaymentIsNotRefunded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gateway := &recordingGateway{PaymentGateway: f.service.payments}
	f.service.payments = gateway

	checkout := f.ready(t, "u1", f.pick(t, "A2").ID, "bankwire")
	_, err := f.service.Confirm(ctx, "u1", checkout.ID)
	require.Error(t, err)
	assert.Empty(t, gateway.refunded)
}

func TestRetryStartsFreshCheckoutFromAdjustedSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	winner := f.ready(t, "u1", f.pick(t, "A3").ID, "creditcard")
	loserSession := f.pick(t, "A3", "A4")
	loser := f.ready(t, "u2", loserSession.ID, "paypal")

	_, err := f.service.Confirm(ctx, "u1", winner.ID)
	require.NoError(t, err)
	failed, err := f.service.Confirm(ctx, "u2", loser.ID)
	require.Error(t, err)
	require.Equal(t, StateFailed, failed.State)

	_, err = f.service.ChoosePayment(ctx, "u2", loser.ID, "paypal")
	var transition *apperrors.InvalidTransitionError
	assert.True(t, errors.As(err, &transition))

	_, err = f.selections.Toggle(ctx, loserSession.ID, "A3")
	require.NoError(t, err)

	retried, err := f.service.Retry(ctx, "u2", loser.ID)
	require.NoError(t, err)
	assert.NotEqual(t, loser.ID, retried.ID)
	assert.Equal(t, loser.ID, retried.RetryOf)
	assert.Equal(t, StateReviewing, retried.State)
	assert.Equal(t, []string{"A4"}, retried.SeatIDs)
	assert.Equal(t, 12.5, retried.TotalAmount)

	_, err = f.service.ChoosePayment(ctx, "u2", retried.ID, "paypal")
	require.NoError(t, err)
	committed, err := f.service.Confirm(ctx, "u2", retried.ID)
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, committed.State)
}

func TestInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.pick(t, "A2")

	checkout, err := f.service.StartCheckout(ctx, "u1", session.ID)
	require.NoError(t, err)

	_, err = f.service.ChoosePayment(ctx, "u1", checkout.ID, "paypal")
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.HTTPStatus(err))

	_, err = f.service.Confirm(ctx, "u1", checkout.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.HTTPStatus(err))

	_, err = f.service.Retry(ctx, "u1", checkout.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.HTTPStatus(err))

	_, err = f.service.Review(ctx, "u1", checkout.ID)
	require.NoError(t, err)
	_, err = f.service.Review(ctx, "u1", checkout.ID)
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.HTTPStatus(err))

	_, err = f.service.ChoosePayment(ctx, "u1", checkout.ID, "cheque")
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))

	_, err = f.service.Get(ctx, "someone-else", checkout.ID)
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))
}

func TestReviewRejectsEmptySelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checkout, err := f.service.StartCheckout(ctx, "u1", f.pick(t).ID)
	require.NoError(t, err)

	_, err = f.service.Review(ctx, "u1", checkout.ID)
	var validation *apperrors.ValidationError
	assert.True(t, errors.As(err, &validation))

	stored, err := f.service.Get(ctx, "u1", checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, StateSelecting, stored.State)
}

func TestCancelReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checkout := f.ready(t, "u1", f.pick(t, "A1", "A2").ID, "creditcard")
	committed, err := f.service.Confirm(ctx, "u1", checkout.ID)
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, "u2", committed.TicketID)
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(err))

	cancelled, err := f.service.Cancel(ctx, "u1", committed.TicketID)
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusCancelled, cancelled.Status)

	effective, err := f.availability.GetEffective(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, seats.StatusAvailable, effective.Seats["A1"])
	assert.Equal(t, seats.StatusAvailable, effective.Seats["A2"])

	_, err = f.service.Cancel(ctx, "u1", committed.TicketID)
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.HTTPStatus(err))

	assert.Equal(t, []notifications.EventType{
		notifications.EventTypeBookingCommitted,
		notifications.EventTypeTicketStatusChanged,
	}, f.publisher.types())
}

func TestGenerateBookingIDIsUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id, err := generateBookingID(now)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate booking id %s", id)
		seen[id] = true
	}
}

func TestConfirmHandlerReportsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	ctx := context.Background()

	winner := f.ready(t, "u1", f.pick(t, "A5").ID, "creditcard")
	loser := f.ready(t, "u2", f.pick(t, "A5").ID, "creditcard")
	_, err := f.service.Confirm(ctx, "u1", winner.ID)
	require.NoError(t, err)

	router := gin.New()
	auth := []gin.HandlerFunc{func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set(middleware.ContextUserID, user)
		}
		c.Next()
	}}
	SetupBookingRoutes(router.Group("/api/v1"), NewController(f.service), auth...)

	tests := []struct {
		name string
		path string
		user string
		code int
	}{
		{"unauthenticated", "/api/v1/checkouts/" + loser.ID + "/confirm", "", http.StatusUnauthorized},
		{"other user", "/api/v1/checkouts/" + loser.ID + "/confirm", "u1", http.StatusNotFound},
		{"conflict", "/api/v1/checkouts/" + loser.ID + "/confirm", "u2", http.StatusConflict},
		{"already failed", "/api/v1/checkouts/" + loser.ID + "/confirm", "u2", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.user != "" {
				req.Header.Set("X-Test-User", tt.user)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)

			if tt.code == http.StatusConflict {
				var body struct {
					Data   Checkout        `json:"data"`
					Errors CheckoutFailure `json:"errors"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, StateFailed, body.Data.State)
				assert.Equal(t, []string{"A5"}, body.Errors.ConflictingSeats)
			}
		})
	}
}
