package tickets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"showtime/internal/shared/apperrors"
	"showtime/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func input(bookingID, userID string, bookedAt time.Time) TicketInput {
	return TicketInput{
		UserID:        userID,
		EventID:       1,
		BookingID:     bookingID,
		EventTitle:    "Hamlet",
		Venue:         "Royal Alexandra",
		Date:          "2026-11-02",
		Time:          "19:30",
		Category:      "Theatre",
		SeatIDs:       []string{"A4", "A5"},
		TotalAmount:   170,
		PaymentMethod: "visa",
		BookingDate:   bookedAt,
	}
}

func TestSaveAssignsIdentityAndQR(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ticket, err := svc.Save(context.Background(), input("BC1700000000000ABCDEF", "u1", time.Now()))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^TKT-\d+-[0-9A-F]{8}$`), ticket.ID)
	assert.Equal(t, StatusActive, ticket.Status)

	qr, err := DecodeQR(ticket.QRPayload)
	require.NoError(t, err)
	assert.Equal(t, ticket.BookingID, qr.BookingID)
	assert.Equal(t, ticket.EventID, qr.EventID)
	assert.Equal(t, ticket.SeatIDs, qr.SeatIDs())
	assert.Equal(t, "A4, A5", qr.Seats)
}

func TestSaveRejectsDuplicateBooking(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Save(ctx, input("BC1", "u1", time.Now()))
	require.NoError(t, err)

	_, err = svc.Save(ctx, input("BC1", "u2", time.Now()))
	var dup *apperrors.DuplicateBookingError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "BC1", dup.BookingID)
}

func TestSaveDrawsNewIDAfterCollision(t *testing.T) {
	svc := NewService(NewMemoryRepository()).(*service)
	ctx := context.Background()

	ids := []string{"TKT-1-AAAAAAAA", "TKT-1-AAAAAAAA", "TKT-1-BBBBBBBB"}
	svc.newID = func(time.Time) string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := svc.Save(ctx, input("BC1", "u1", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "TKT-1-AAAAAAAA", first.ID)

	second, err := svc.Save(ctx, input("BC2", "u1", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "TKT-1-BBBBBBBB", second.ID)
	assert.Empty(t, ids)

	svc.newID = func(time.Time) string { return "TKT-1-AAAAAAAA" }
	_, err = svc.Save(ctx, input("BC3", "u1", time.Now()))
	assert.ErrorIs(t, err, ErrTicketIDTaken)
	var dup *apperrors.DuplicateBookingError
	assert.False(t, errors.As(err, &dup), "an id collision is not a duplicate booking")

	_, err = svc.FindByBookingID(ctx, "BC3")
	assert.Error(t, err)
}

func TestSaveValidatesInput(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	tests := []struct {
		name   string
		mutate func(*TicketInput)
	}{
		{"missing user", func(in *TicketInput) { in.UserID = "" }},
		{"missing booking id", func(in *TicketInput) { in.BookingID = " " }},
		{"no seats", func(in *TicketInput) { in.SeatIDs = nil }},
		{"bad event", func(in *TicketInput) { in.EventID = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input("BC2", "u1", time.Now())
			tt.mutate(&in)
			_, err := svc.Save(context.Background(), in)
			var validation *apperrors.ValidationError
			assert.True(t, errors.As(err, &validation))
		})
	}
}

func TestFindByUserNewestFirst(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"BC-old", "BC-new", "BC-mid"} {
		offsets := []time.Duration{0, 48 * time.Hour, 24 * time.Hour}
		_, err := svc.Save(ctx, input(id, "u1", base.Add(offsets[i])))
		require.NoError(t, err)
	}
	_, err := svc.Save(ctx, input("BC-other", "u2", base))
	require.NoError(t, err)

	tickets, err := svc.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	assert.Equal(t, "BC-new", tickets[0].BookingID)
	assert.Equal(t, "BC-mid", tickets[1].BookingID)
	assert.Equal(t, "BC-old", tickets[2].BookingID)
}

func TestStatusTransitions(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	ticket, err := svc.Save(ctx, input("BC3", "u1", time.Now()))
	require.NoError(t, err)

	used, err := svc.SetStatus(ctx, ticket.ID, StatusUsed)
	require.NoError(t, err)
	assert.Equal(t, StatusUsed, used.Status)

	_, err = svc.SetStatus(ctx, ticket.ID, StatusCancelled)
	var transition *apperrors.InvalidTransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, "used", transition.From)

	_, err = svc.SetStatus(ctx, "TKT-missing", StatusUsed)
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nf))

	active, err := svc.FindByStatus(ctx, "u1", StatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	past, err := svc.FindByStatus(ctx, "u1", StatusUsed)
	require.NoError(t, err)
	assert.Len(t, past, 1)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusActive, StatusUsed))
	assert.True(t, CanTransition(StatusActive, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusActive))
	assert.False(t, CanTransition(StatusUsed, StatusActive))
	assert.False(t, CanTransition(StatusActive, StatusActive))
}

func TestFindByCategoryAndPurge(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	theatre, err := svc.Save(ctx, input("BC4", "u1", time.Now()))
	require.NoError(t, err)
	comedy := input("BC5", "u1", time.Now())
	comedy.Category = "Comedy"
	_, err = svc.Save(ctx, comedy)
	require.NoError(t, err)

	found, err := svc.FindByCategory(ctx, "u1", "Comedy")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "BC5", found[0].BookingID)

	require.NoError(t, svc.Purge(ctx, theatre.ID))
	_, err = svc.FindByBookingID(ctx, "BC4")
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Error(t, svc.Purge(ctx, theatre.ID))
}

func TestVerifyQR(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	ticket, err := svc.Save(ctx, input("BC6", "u1", time.Now()))
	require.NoError(t, err)

	verified, err := svc.Verify(ctx, "  "+ticket.QRPayload+"\n")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, verified.ID)

	tampered := strings.Replace(ticket.QRPayload, "A4, A5", "A4, A6", 1)
	_, err = svc.Verify(ctx, tampered)
	var validation *apperrors.ValidationError
	assert.True(t, errors.As(err, &validation))

	_, err = svc.Verify(ctx, "not-json")
	assert.True(t, errors.As(err, &validation))
}

func TestTicketHandlersScopeToCurrentUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(NewMemoryRepository())
	ticket, err := svc.Save(context.Background(), input("BC7", "owner", time.Now()))
	require.NoError(t, err)

	asUser := func(userID string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(middleware.ContextUserID, userID)
			c.Next()
		}
	}

	tests := []struct {
		name   string
		user   string
		method string
		path   string
		status int
	}{
		{"owner reads ticket", "owner", http.MethodGet, "/api/v1/me/tickets/BC7", http.StatusOK},
		{"stranger cannot read", "stranger", http.MethodGet, "/api/v1/me/tickets/BC7", http.StatusNotFound},
		{"bad status filter", "owner", http.MethodGet, "/api/v1/me/tickets?status=lost", http.StatusBadRequest},
		{"stranger cannot use", "stranger", http.MethodPost, "/api/v1/me/tickets/" + ticket.ID + "/use", http.StatusNotFound},
		{"owner uses", "owner", http.MethodPost, "/api/v1/me/tickets/" + ticket.ID + "/use", http.StatusOK},
		{"second use rejected", "owner", http.MethodPost, "/api/v1/me/tickets/" + ticket.ID + "/use", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			SetupTicketRoutes(router.Group("/api/v1"), NewController(svc), []gin.HandlerFunc{asUser(tt.user)}, nil)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
