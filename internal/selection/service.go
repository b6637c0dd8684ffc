package selection

import (
	"context"
	"errors"
	"strings"
	"time"

	"showtime/internal/events"
	"showtime/internal/seats"
	"showtime/internal/shared/apperrors"
	"showtime/internal/venues"
	"showtime/pkg/logger"

	"github.com/google/uuid"
)

// Availability is the read side of the seat availability service.
type Availability interface {
	GetEffective(ctx context.Context, eventID int) (*seats.AvailabilityRecord, error)
}

type EventSource interface {
	GetEvent(ctx context.Context, id int) (*events.Event, error)
}

type Service interface {
	Start(ctx context.Context, eventID int) (*Session, error)
	Toggle(ctx context.Context, sessionID, seatID string) (*Session, error)
	Current(ctx context.Context, sessionID string) (*Session, error)
	Clear(ctx context.Context, sessionID string) error
	SeatMap(ctx context.Context, sessionID string) (*SeatMap, error)
}

type service struct {
	store        Store
	availability Availability
	events       EventSource
	now          func() time.Time
	log          *logger.Logger
}

func NewService(store Store, availability Availability, eventSource EventSource) Service {
	return &service{
		store:        store,
		availability: availability,
		events:       eventSource,
		now:          func() time.Time { return time.Now().UTC() },
		log:          logger.GetDefault(),
	}
}

func (s *service) Start(ctx context.Context, eventID int) (*Session, error) {
	if eventID <= 0 {
		return nil, apperrors.Invalid("event_id", "must be a positive integer")
	}
	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}

	now := s.now()
	session := &Session{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Seats:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Toggle picks or drops one seat. Dropping is always allowed; picking a seat that is
// currently booked is refused and leaves the session as it was.
func (s *service) Toggle(ctx context.Context, sessionID, seatID string) (*Session, error) {
	seatID = strings.TrimSpace(seatID)
	if seatID == "" {
		return nil, apperrors.Invalid("seat_id", "is required")
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	record, err := s.availability.GetEffective(ctx, session.EventID)
	if err != nil {
		return nil, err
	}
	status, known := record.Seats[seatID]
	if !known {
		return nil, apperrors.Invalid("seat_id", "unknown seat "+seatID)
	}

	switch {
	case session.IsSelected(seatID):
		session.remove(seatID)
	case status != seats.StatusAvailable:
		return nil, &apperrors.SeatUnavailableError{SeatID: seatID}
	default:
		session.Seats = append(session.Seats, seatID)
	}

	session.UpdatedAt = s.now()
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *service) Current(ctx context.Context, sessionID string) (*Session, error) {
	return s.store.Get(ctx, sessionID)
}

// Clear drops the session. Clearing an unknown or expired session is a no-op.
func (s *service) Clear(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func (s *service) SeatMap(ctx context.Context, sessionID string) (*SeatMap, error) {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	event, err := s.events.GetEvent(ctx, session.EventID)
	if err != nil {
		return nil, err
	}
	positions, err := venues.Positions(event.Seating.Layout)
	if err != nil {
		return nil, err
	}

	record, err := s.availability.GetEffective(ctx, session.EventID)
	if err != nil {
		return nil, err
	}

	seatMap := &SeatMap{
		SessionID: session.ID,
		EventID:   session.EventID,
		Kind:      event.Seating.Layout.Kind,
		Seats:     make([]SeatMapSeat, 0, len(positions)),
		Selected:  session.Seats,
		UpdatedAt: record.UpdatedAt,
	}
	for _, p := range positions {
		status, ok := record.Seats[p.SeatID]
		if !ok {
			status = seats.StatusAvailable
		}
		selected := session.IsSelected(p.SeatID)
		seatMap.Seats = append(seatMap.Seats, SeatMapSeat{
			Position: p,
			Status:   status,
			Selected: selected,
			Stale:    selected && status == seats.StatusBooked,
		})
	}

	if stale := staleSelections(session, record); len(stale) > 0 {
		seatMap.Stale = stale
		s.log.WarnContext(ctx, "Selection holds seats booked elsewhere",
			"session_id", session.ID,
			"event_id", session.EventID,
			"seat_ids", stale,
		)
	}
	return seatMap, nil
}

// staleSelections lists picked seats that have since been booked by someone else.
func staleSelections(session *Session, record *seats.AvailabilityRecord) []string {
	var stale []string
	for _, id := range session.Seats {
		if record.Seats[id] == seats.StatusBooked {
			stale = append(stale, id)
		}
	}
	return stale
}

// IsNotFound reports whether err means the session is gone or never existed.
func IsNotFound(err error) bool {
	var nf *apperrors.NotFoundError
	return errors.As(err, &nf)
}
