package events

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"showtime/internal/shared/apperrors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	GetByID(ctx context.Context, id int) (*Event, error)
	List(ctx context.Context, category string) ([]Event, error)
	Upsert(ctx context.Context, event *Event) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int) (*Event, error) {
	var event Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("event", id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (r *repository) List(ctx context.Context, category string) ([]Event, error) {
	var events []Event
	query := r.db.WithContext(ctx).Model(&Event{})
	if category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if err := query.Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *repository) Upsert(ctx context.Context, event *Event) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(event).Error
	if err != nil {
		return fmt.Errorf("failed to save event %d: %w", event.ID, err)
	}
	return nil
}

// memoryRepository keeps the catalog in process; used by the memory backend and tests.
type memoryRepository struct {
	mu     sync.RWMutex
	events map[int]Event
}

func NewMemoryRepository() Repository {
	return &memoryRepository{events: make(map[int]Event)}
}

func (r *memoryRepository) GetByID(_ context.Context, id int) (*Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, ok := r.events[id]
	if !ok {
		return nil, apperrors.NotFound("event", id)
	}
	return &event, nil
}

func (r *memoryRepository) List(_ context.Context, category string) ([]Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]Event, 0, len(r.events))
	for _, e := range r.events {
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (r *memoryRepository) Upsert(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.ID] = *event
	return nil
}
