package selection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"showtime/internal/events"
	"showtime/internal/seats"
	"showtime/internal/shared/apperrors"
	"showtime/internal/venues"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventID = 7

type fixture struct {
	availability seats.Service
	service      Service
	store        Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	eventService := events.NewService(events.NewMemoryRepository())
	require.NoError(t, eventService.SaveEvent(ctx, &events.Event{
		ID:    eventID,
		Title: "Late Show",
		Date:  "2026-12-01",
		Venue: "Studio",
		Price: 25,
		Seating: events.Seating{
			Layout: venues.Layout{Kind: venues.KindRowBased, RowBased: &venues.RowBasedLayout{
				Rows: []string{"A", "B"}, SeatsPerRow: 4,
			}},
			Availability: map[string]string{"B4": events.BaselineBooked},
		},
	}))

	availability := seats.NewService(seats.NewMemoryStore(), eventService, nil, 0)
	store := NewMemoryStore(time.Minute)
	return &fixture{
		availability: availability,
		service:      NewService(store, availability, eventService),
		store:        store,
	}
}

func TestStartRequiresKnownEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.service.Start(ctx, eventID)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Empty(t, session.Seats)

	_, err = f.service.Start(ctx, 404)
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestToggleSelectsAndDeselectsInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.service.Start(ctx, eventID)
	require.NoError(t, err)

	for _, id := range []string{"A3", "A1", "B2"} {
		_, err = f.service.Toggle(ctx, session.ID, id)
		require.NoError(t, err)
	}
	current, err := f.service.Toggle(ctx, session.ID, "A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A3", "B2"}, current.Seats)

	stored, err := f.service.Current(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A3", "B2"}, stored.Seats)
}

func TestToggleRejectsBookedSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.service.Start(ctx, eventID)
	require.NoError(t, err)
	_, err = f.service.Toggle(ctx, session.ID, "A1")
	require.NoError(t, err)

	_, err = f.service.Toggle(ctx, session.ID, "B4")
	var unavailable *apperrors.SeatUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "B4", unavailable.SeatID)

	current, err := f.service.Current(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, current.Seats, "rejected toggle leaves the selection unchanged")
}

func TestDeselectAllowedAfterSeatWasBookedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.service.Start(ctx, eventID)
	require.NoError(t, err)
	_, err = f.service.Toggle(ctx, session.ID, "A2")
	require.NoError(t, err)

	require.NoError(t, f.availability.Commit(ctx, eventID, []string{"A2"}, seats.StatusBooked))

	seatMap, err := f.service.SeatMap(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A2"}, seatMap.Selected)
	assert.Equal(t, []string{"A2"}, seatMap.Stale)
	require.Equal(t, "A2", seatMap.Seats[1].SeatID)
	assert.True(t, seatMap.Seats[1].Stale)
	assert.Equal(t, seats.StatusBooked, seatMap.Seats[1].Status)
	assert.False(t, seatMap.Seats[0].Stale)

	current, err := f.service.Toggle(ctx, session.ID, "A2")
	require.NoError(t, err)
	assert.Empty(t, current.Seats)
}

func TestToggleRejectsUnknownSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.service.Start(ctx, eventID)
	require.NoError(t, err)

	_, err = f.service.Toggle(ctx, session.ID, "Z1")
	var validation *apperrors.ValidationError
	assert.True(t, errors.As(err, &validation))

	_, err = f.service.Toggle(ctx, "missing", "A1")
	assert.True(t, IsNotFound(err))
}

func TestSeatMapFollowsLayoutOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.service.Start(ctx, eventID)
	require.NoError(t, err)
	_, err = f.service.Toggle(ctx, session.ID, "B1")
	require.NoError(t, err)

	seatMap, err := f.service.SeatMap(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, seatMap.Seats, 8)
	assert.Equal(t, venues.KindRowBased, seatMap.Kind)
	assert.Equal(t, "A1", seatMap.Seats[0].SeatID)
	assert.Equal(t, "B4", seatMap.Seats[7].SeatID)
	assert.Equal(t, seats.StatusBooked, seatMap.Seats[7].Status)
	assert.True(t, seatMap.Seats[4].Selected)
	assert.False(t, seatMap.Seats[0].Selected)
	assert.Empty(t, seatMap.Stale)
}

func TestClearIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.service.Start(ctx, eventID)
	require.NoError(t, err)

	require.NoError(t, f.service.Clear(ctx, session.ID))
	require.NoError(t, f.service.Clear(ctx, session.ID))

	_, err = f.service.Current(ctx, session.ID)
	assert.True(t, IsNotFound(err))
}

func TestMemoryStoreExpiresIdleSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute).(*memoryStore)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "s1", EventID: eventID, Seats: []string{"A1"}}))

	now = now.Add(59 * time.Second)
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = store.Get(ctx, "s1")
	assert.True(t, IsNotFound(err))
}

func TestToggleHandlerReportsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	session, err := f.service.Start(context.Background(), eventID)
	require.NoError(t, err)

	router := gin.New()
	SetupSelectionRoutes(router.Group("/api/v1"), NewController(f.service))

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"pick free seat", http.MethodPost, "/api/v1/sessions/" + session.ID + "/seats/A1/toggle", "", http.StatusOK},
		{"pick booked seat", http.MethodPost, "/api/v1/sessions/" + session.ID + "/seats/B4/toggle", "", http.StatusConflict},
		{"unknown session", http.MethodGet, "/api/v1/sessions/nope", "", http.StatusNotFound},
		{"start without event", http.MethodPost, "/api/v1/sessions", `{}`, http.StatusBadRequest},
		{"start", http.MethodPost, "/api/v1/sessions", `{"event_id":7}`, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		})
	}
}
