package seats

import (
	"context"
	"fmt"
	"time"

	"showtime/internal/shared/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postgresStore keeps one overlay row per event and serialises commits with a row lock.
type postgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) Store {
	return &postgresStore{db: db}
}

func (r *postgresStore) GetOverlay(ctx context.Context, eventID int) (*AvailabilityOverlay, error) {
	var overlays []AvailabilityOverlay
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Limit(1).
		Find(&overlays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load overlay for event %d: %w", eventID, err)
	}

	if len(overlays) == 0 {
		return &AvailabilityOverlay{EventID: eventID, SeatOverlay: SeatOverlay{}}, nil
	}
	if overlays[0].SeatOverlay == nil {
		overlays[0].SeatOverlay = SeatOverlay{}
	}
	return &overlays[0], nil
}

// Commit locks the event's overlay row, re-reads it and applies the batch or nothing.
func (r *postgresStore) Commit(ctx context.Context, req CommitRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Make sure a row exists so there is something to lock
		seed := AvailabilityOverlay{EventID: req.EventID, SeatOverlay: SeatOverlay{}, UpdatedAt: time.Now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("failed to initialise overlay: %w", err)
		}

		// 2. Lock it for the rest of the transaction
		var locked AvailabilityOverlay
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("event_id = ?", req.EventID).
			First(&locked).Error
		if err != nil {
			return fmt.Errorf("failed to lock overlay: %w", err)
		}
		if locked.SeatOverlay == nil {
			locked.SeatOverlay = SeatOverlay{}
		}

		// 3. Check against what is stored now, not what the caller saw
		if conflicts := conflictingSeats(locked.SeatOverlay, req); len(conflicts) > 0 {
			return &apperrors.SeatConflictError{EventID: req.EventID, SeatIDs: conflicts}
		}

		// 4. Apply
		for _, id := range req.SeatIDs {
			locked.SeatOverlay[id] = req.Status
		}
		locked.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&locked).Error; err != nil {
			return fmt.Errorf("failed to save overlay: %w", err)
		}
		return nil
	})
}

func (r *postgresStore) Reset(ctx context.Context, eventID int) error {
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&AvailabilityOverlay{}).Error
	if err != nil {
		return fmt.Errorf("failed to reset overlay for event %d: %w", eventID, err)
	}
	return nil
}

func (r *postgresStore) Stats(ctx context.Context) (*OverlayStats, error) {
	var overlays []AvailabilityOverlay
	if err := r.db.WithContext(ctx).Find(&overlays).Error; err != nil {
		return nil, fmt.Errorf("failed to load overlays: %w", err)
	}

	ptrs := make([]*AvailabilityOverlay, len(overlays))
	for i := range overlays {
		ptrs[i] = &overlays[i]
	}
	return summarise(ptrs), nil
}
