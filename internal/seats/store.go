package seats

import (
	"context"
	"sync"
	"time"

	"showtime/internal/shared/apperrors"
)

// Store persists availability overlays. Commit must evaluate and apply the whole
// batch atomically with respect to other commits on the same event.
type Store interface {
	// GetOverlay returns the overlay of an event, empty when none was written.
	GetOverlay(ctx context.Context, eventID int) (*AvailabilityOverlay, error)
	Commit(ctx context.Context, req CommitRequest) error
	Reset(ctx context.Context, eventID int) error
	Stats(ctx context.Context) (*OverlayStats, error)
}

// effectiveStatus resolves overlay, then baseline, then available.
func effectiveStatus(overlay SeatOverlay, baseline map[string]SeatStatus, seatID string) SeatStatus {
	if status, ok := overlay[seatID]; ok {
		return status
	}
	if status, ok := baseline[seatID]; ok {
		return status
	}
	return StatusAvailable
}

// conflictingSeats lists, in request order, the seats that block a booked commit.
func conflictingSeats(overlay SeatOverlay, req CommitRequest) []string {
	if req.Status != StatusBooked {
		return nil
	}

	var conflicts []string
	for _, id := range req.SeatIDs {
		if effectiveStatus(overlay, req.Baseline, id) != StatusAvailable {
			conflicts = append(conflicts, id)
		}
	}
	return conflicts
}

type memoryStore struct {
	mu       sync.Mutex
	overlays map[int]*AvailabilityOverlay
	now      func() time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{
		overlays: make(map[int]*AvailabilityOverlay),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *memoryStore) GetOverlay(_ context.Context, eventID int) (*AvailabilityOverlay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.overlays[eventID]
	if !ok {
		return &AvailabilityOverlay{EventID: eventID, SeatOverlay: SeatOverlay{}}, nil
	}

	copied := &AvailabilityOverlay{EventID: eventID, SeatOverlay: make(SeatOverlay, len(stored.SeatOverlay)), UpdatedAt: stored.UpdatedAt}
	for k, v := range stored.SeatOverlay {
		copied.SeatOverlay[k] = v
	}
	return copied, nil
}

func (m *memoryStore) Commit(_ context.Context, req CommitRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.overlays[req.EventID]
	if !ok {
		stored = &AvailabilityOverlay{EventID: req.EventID, SeatOverlay: SeatOverlay{}}
	}

	if conflicts := conflictingSeats(stored.SeatOverlay, req); len(conflicts) > 0 {
		return &apperrors.SeatConflictError{EventID: req.EventID, SeatIDs: conflicts}
	}

	for _, id := range req.SeatIDs {
		stored.SeatOverlay[id] = req.Status
	}
	stored.UpdatedAt = m.now()
	m.overlays[req.EventID] = stored
	return nil
}

func (m *memoryStore) Reset(_ context.Context, eventID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.overlays, eventID)
	return nil
}

func (m *memoryStore) Stats(_ context.Context) (*OverlayStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	overlays := make([]*AvailabilityOverlay, 0, len(m.overlays))
	for _, o := range m.overlays {
		overlays = append(overlays, o)
	}
	return summarise(overlays), nil
}

func summarise(overlays []*AvailabilityOverlay) *OverlayStats {
	stats := &OverlayStats{}
	for _, o := range overlays {
		if len(o.SeatOverlay) == 0 {
			continue
		}
		stats.EventsWithUpdates++
		stats.TotalSeatUpdates += len(o.SeatOverlay)
		if stats.LastUpdated == nil || o.UpdatedAt.After(*stats.LastUpdated) {
			updated := o.UpdatedAt
			stats.LastUpdated = &updated
		}
	}
	return stats
}
