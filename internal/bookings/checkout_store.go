package bookings

import (
	"context"
	"sync"

	"showtime/internal/shared/apperrors"
)

// CheckoutStore holds in-flight checkouts. Like the selection they belong to,
// checkouts are transient and do not survive a restart.
type CheckoutStore interface {
	Get(ctx context.Context, id string) (*Checkout, error)
	Save(ctx context.Context, checkout *Checkout) error
}

type memoryCheckoutStore struct {
	mu        sync.RWMutex
	checkouts map[string]*Checkout
}

func NewMemoryCheckoutStore() CheckoutStore {
	return &memoryCheckoutStore{checkouts: make(map[string]*Checkout)}
}

func (m *memoryCheckoutStore) Get(_ context.Context, id string) (*Checkout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.checkouts[id]
	if !ok {
		return nil, apperrors.NotFound("checkout", id)
	}
	return c.clone(), nil
}

func (m *memoryCheckoutStore) Save(_ context.Context, checkout *Checkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checkouts[checkout.ID] = checkout.clone()
	return nil
}

// keyedMutex serialises work on one checkout without blocking the others.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
