package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"showtime/internal/shared/apperrors"
	"showtime/internal/venues"
	"showtime/pkg/logger"
)

type Service interface {
	GetEvent(ctx context.Context, id int) (*Event, error)
	ListEvents(ctx context.Context, category string) ([]Event, error)
	SaveEvent(ctx context.Context, event *Event) error
	SeedCatalog(ctx context.Context) (int, error)
}

type service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository) Service {
	return &service{repo: repo, log: logger.GetDefault()}
}

// GetEvent returns an event whose layout and baseline have been checked.
func (s *service) GetEvent(ctx context.Context, id int) (*Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateSeating(event.Seating); err != nil {
		return nil, fmt.Errorf("event %d: %w", id, err)
	}
	return event, nil
}

func (s *service) ListEvents(ctx context.Context, category string) ([]Event, error) {
	return s.repo.List(ctx, strings.TrimSpace(category))
}

// SaveEvent stores a new event. An existing event keeps its layout.
func (s *service) SaveEvent(ctx context.Context, event *Event) error {
	if event.ID <= 0 {
		return apperrors.Invalid("id", "must be a positive integer")
	}
	if err := ValidateSeating(event.Seating); err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, event.ID)
	if err == nil {
		if !sameLayout(existing.Seating.Layout, event.Seating.Layout) {
			return &apperrors.ConfigurationError{Subject: "layout", Reason: fmt.Sprintf("event %d already has a different layout", event.ID)}
		}
	} else if !isNotFound(err) {
		return err
	}

	return s.repo.Upsert(ctx, event)
}

// SeedCatalog loads the embedded catalog, skipping entries that fail validation.
func (s *service) SeedCatalog(ctx context.Context) (int, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return 0, err
	}

	seeded := 0
	for i := range catalog {
		if err := s.SaveEvent(ctx, &catalog[i]); err != nil {
			s.log.ErrorWithContext(ctx, "Skipping catalog event", err, map[string]interface{}{"event_id": catalog[i].ID})
			continue
		}
		seeded++
	}
	return seeded, nil
}

// ValidateSeating checks the layout and that every baseline entry names a layout seat
// with a known status.
func ValidateSeating(seating Seating) error {
	ids, err := venues.Expand(seating.Layout)
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}

	var problems []string
	for seatID, status := range seating.Availability {
		if _, ok := known[seatID]; !ok {
			problems = append(problems, fmt.Sprintf("unknown seat %s", seatID))
			continue
		}
		if status != BaselineAvailable && status != BaselineBooked {
			problems = append(problems, fmt.Sprintf("seat %s has status %q", seatID, status))
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &apperrors.ConfigurationError{Subject: "baseline", Reason: strings.Join(problems, "; ")}
	}
	return nil
}

func sameLayout(a, b venues.Layout) bool {
	left, errA := venues.Expand(a)
	right, errB := venues.Expand(b)
	if errA != nil || errB != nil || len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func isNotFound(err error) bool {
	var nf *apperrors.NotFoundError
	return errors.As(err, &nf)
}
