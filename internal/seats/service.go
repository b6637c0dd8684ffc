package seats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"showtime/internal/events"
	"showtime/internal/shared/apperrors"
	"showtime/internal/shared/constants"
	"showtime/internal/venues"
	"showtime/pkg/cache"
	"showtime/pkg/logger"
)

// EventSource supplies the layout and baseline of an event.
type EventSource interface {
	GetEvent(ctx context.Context, id int) (*events.Event, error)
}

type Service interface {
	GetBaseline(ctx context.Context, eventID int) (*AvailabilityRecord, error)
	GetEffective(ctx context.Context, eventID int) (*AvailabilityRecord, error)
	Commit(ctx context.Context, eventID int, seatIDs []string, status SeatStatus) error
	Release(ctx context.Context, eventID int, seatIDs []string) error
	ResetOverlay(ctx context.Context, eventID int) error
	Stats(ctx context.Context) (*OverlayStats, error)
	// InvalidateCache drops the cached effective view of an event.
	InvalidateCache(ctx context.Context, eventID int)
}

type service struct {
	store    Store
	events   EventSource
	cache    cache.Service
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService wires the availability service. cacheService may be nil, in which case
// every effective read goes to the store.
func NewService(store Store, eventSource EventSource, cacheService cache.Service, cacheTTL time.Duration) Service {
	if cacheTTL <= 0 {
		cacheTTL = constants.TTL_REALTIME_SHORT
	}
	return &service{
		store:    store,
		events:   eventSource,
		cache:    cacheService,
		cacheTTL: cacheTTL,
		log:      logger.GetDefault(),
	}
}

// GetBaseline returns the shipped status of every layout seat.
func (s *service) GetBaseline(ctx context.Context, eventID int) (*AvailabilityRecord, error) {
	seatIDs, baseline, err := s.baseline(ctx, eventID)
	if err != nil {
		return nil, err
	}

	record := &AvailabilityRecord{EventID: eventID, Seats: make(map[string]SeatStatus, len(seatIDs))}
	for _, id := range seatIDs {
		record.Seats[id] = effectiveStatus(nil, baseline, id)
	}
	return record, nil
}

// GetEffective merges the overlay over the baseline. Reads may be served from cache;
// commits never are. Cached views are keyed by the event's write generation, which
// is read before the overlay: a view built from a pre-commit overlay lands under a
// generation that the commit has already moved past.
func (s *service) GetEffective(ctx context.Context, eventID int) (*AvailabilityRecord, error) {
	if s.cache == nil {
		return s.loadEffective(ctx, eventID)
	}

	generation, err := s.generation(ctx, eventID)
	if err != nil {
		s.log.WarnWithContext(ctx, "Availability cache generation unreadable, reading store", err, map[string]interface{}{"event_id": eventID})
		return s.loadEffective(ctx, eventID)
	}

	var record AvailabilityRecord
	err = s.cache.GetOrSet(ctx, constants.EffectiveAvailabilityCacheKey(eventID, generation), s.cacheTTL, func() (interface{}, error) {
		return s.loadEffective(ctx, eventID)
	}, &record)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Commit applies status to every seat in seatIDs, or to none of them.
func (s *service) Commit(ctx context.Context, eventID int, seatIDs []string, status SeatStatus) error {
	if !status.Valid() {
		return apperrors.Invalid("status", fmt.Sprintf("unsupported seat status %q", status))
	}

	requested := dedupe(seatIDs)
	if len(requested) == 0 {
		return apperrors.Invalid("seat_ids", "at least one seat is required")
	}

	layoutIDs, baseline, err := s.baseline(ctx, eventID)
	if err != nil {
		return err
	}
	if unknown := unknownSeats(layoutIDs, requested); len(unknown) > 0 {
		return apperrors.Invalid("seat_ids", "unknown seats: "+strings.Join(unknown, ", "))
	}

	req := CommitRequest{
		EventID:  eventID,
		SeatIDs:  requested,
		Status:   status,
		Baseline: make(map[string]SeatStatus, len(requested)),
	}
	for _, id := range requested {
		req.Baseline[id] = effectiveStatus(nil, baseline, id)
	}

	if err := s.store.Commit(ctx, req); err != nil {
		var conflict *apperrors.SeatConflictError
		if errors.As(err, &conflict) {
			s.log.LogSeatConflict(ctx, eventID, conflict.SeatIDs)
			return err
		}
		return fmt.Errorf("failed to commit seats: %w", err)
	}

	s.InvalidateCache(ctx, eventID)
	return nil
}

// Release returns seats to available. Releasing an available seat is a no-op.
func (s *service) Release(ctx context.Context, eventID int, seatIDs []string) error {
	return s.Commit(ctx, eventID, seatIDs, StatusAvailable)
}

func (s *service) ResetOverlay(ctx context.Context, eventID int) error {
	if err := s.store.Reset(ctx, eventID); err != nil {
		return err
	}
	s.InvalidateCache(ctx, eventID)
	return nil
}

func (s *service) Stats(ctx context.Context) (*OverlayStats, error) {
	return s.store.Stats(ctx)
}

func (s *service) loadEffective(ctx context.Context, eventID int) (*AvailabilityRecord, error) {
	seatIDs, baseline, err := s.baseline(ctx, eventID)
	if err != nil {
		return nil, err
	}

	overlay, err := s.store.GetOverlay(ctx, eventID)
	if err != nil {
		return nil, err
	}

	record := &AvailabilityRecord{EventID: eventID, Seats: make(map[string]SeatStatus, len(seatIDs))}
	for _, id := range seatIDs {
		record.Seats[id] = effectiveStatus(overlay.SeatOverlay, baseline, id)
	}
	if !overlay.UpdatedAt.IsZero() {
		updated := overlay.UpdatedAt
		record.UpdatedAt = &updated
	}
	return record, nil
}

func (s *service) baseline(ctx context.Context, eventID int) ([]string, map[string]SeatStatus, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}

	seatIDs, err := venues.Expand(event.Seating.Layout)
	if err != nil {
		return nil, nil, err
	}

	baseline := make(map[string]SeatStatus, len(event.Seating.Availability))
	for id, status := range event.Seating.Availability {
		baseline[id] = SeatStatus(status)
	}
	return seatIDs, baseline, nil
}

// InvalidateCache moves the event to a new generation so no cached view built
// before this call is served again.
func (s *service) InvalidateCache(ctx context.Context, eventID int) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Increment(ctx, constants.AvailabilityGenerationKey(eventID)); err != nil {
		s.log.WarnWithContext(ctx, "Failed to invalidate availability cache", err, map[string]interface{}{"event_id": eventID})
	}
}

func (s *service) generation(ctx context.Context, eventID int) (int64, error) {
	var generation int64
	err := s.cache.Get(ctx, constants.AvailabilityGenerationKey(eventID), &generation)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	return generation, err
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func unknownSeats(layoutIDs, requested []string) []string {
	known := make(map[string]struct{}, len(layoutIDs))
	for _, id := range layoutIDs {
		known[id] = struct{}{}
	}

	var unknown []string
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}
