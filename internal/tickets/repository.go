package tickets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"showtime/internal/shared/apperrors"

	"gorm.io/gorm"
)

// ErrTicketIDTaken means the generated ticket id collided with a stored ticket;
// the caller may retry with a fresh id.
var ErrTicketIDTaken = errors.New("ticket id already taken")

type Repository interface {
	// Core ticket operations
	Create(ctx context.Context, ticket *Ticket) error
	GetByID(ctx context.Context, id string) (*Ticket, error)
	GetByBookingID(ctx context.Context, bookingID string) (*Ticket, error)

	// Listing, newest booking first
	ListByUser(ctx context.Context, userID string) ([]Ticket, error)
	ListByEvent(ctx context.Context, eventID int) ([]Ticket, error)

	// UpdateStatus moves a ticket only if it is still in status from.
	UpdateStatus(ctx context.Context, id string, from, to Status) error

	// Admin operations
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository expects db to be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, ticket *Ticket) error {
	err := r.db.WithContext(ctx).Create(ticket).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// TranslateError drops the constraint name, so ask which unique key was hit
		var taken int64
		if countErr := r.db.WithContext(ctx).Model(&Ticket{}).Where("booking_id = ?", ticket.BookingID).Count(&taken).Error; countErr != nil {
			return fmt.Errorf("failed to create ticket: %w", countErr)
		}
		if taken > 0 {
			return &apperrors.DuplicateBookingError{BookingID: ticket.BookingID}
		}
		return fmt.Errorf("%w: %s", ErrTicketIDTaken, ticket.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("ticket", id)
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID string) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("booking", bookingID)
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("booking_date DESC").
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) ListByEvent(ctx context.Context, eventID int) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("booking_date DESC").
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status) error {
	result := r.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update ticket status: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return &apperrors.InvalidTransitionError{Entity: "ticket", From: string(current.Status), To: string(to)}
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Ticket{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete ticket: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("ticket", id)
	}
	return nil
}

type memoryRepository struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
}

func NewMemoryRepository() Repository {
	return &memoryRepository{tickets: make(map[string]Ticket)}
}

func (m *memoryRepository) Create(_ context.Context, ticket *Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tickets {
		if t.BookingID == ticket.BookingID {
			return &apperrors.DuplicateBookingError{BookingID: ticket.BookingID}
		}
	}
	if _, exists := m.tickets[ticket.ID]; exists {
		return fmt.Errorf("%w: %s", ErrTicketIDTaken, ticket.ID)
	}

	now := time.Now()
	ticket.CreatedAt, ticket.UpdatedAt = now, now
	m.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id string) (*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tickets[id]
	if !ok {
		return nil, apperrors.NotFound("ticket", id)
	}
	t = cloneTicket(t)
	return &t, nil
}

func (m *memoryRepository) GetByBookingID(_ context.Context, bookingID string) (*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tickets {
		if t.BookingID == bookingID {
			t = cloneTicket(t)
			return &t, nil
		}
	}
	return nil, apperrors.NotFound("booking", bookingID)
}

func (m *memoryRepository) ListByUser(_ context.Context, userID string) ([]Ticket, error) {
	return m.filter(func(t Ticket) bool { return t.UserID == userID }), nil
}

func (m *memoryRepository) ListByEvent(_ context.Context, eventID int) ([]Ticket, error) {
	return m.filter(func(t Ticket) bool { return t.EventID == eventID }), nil
}

func (m *memoryRepository) UpdateStatus(_ context.Context, id string, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return apperrors.NotFound("ticket", id)
	}
	if t.Status != from {
		return &apperrors.InvalidTransitionError{Entity: "ticket", From: string(t.Status), To: string(to)}
	}
	t.Status = to
	t.UpdatedAt = time.Now()
	m.tickets[id] = t
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tickets[id]; !ok {
		return apperrors.NotFound("ticket", id)
	}
	delete(m.tickets, id)
	return nil
}

func (m *memoryRepository) filter(keep func(Ticket) bool) []Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Ticket, 0)
	for _, t := range m.tickets {
		if keep(t) {
			out = append(out, cloneTicket(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BookingDate.After(out[j].BookingDate)
	})
	return out
}

func cloneTicket(t Ticket) Ticket {
	t.SeatIDs = append([]string(nil), t.SeatIDs...)
	return t
}
