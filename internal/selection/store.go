package selection

import (
	"context"
	"sync"
	"time"

	"showtime/internal/shared/apperrors"
)

// Store keeps selection sessions. Sessions expire after the store's TTL of inactivity
// and are never durable across restarts.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	// Save writes the whole session and refreshes its expiry.
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

type memoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) Store {
	return &memoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *memoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.NotFound("selection session", id)
	}
	if m.ttl > 0 && m.now().After(entry.expiresAt) {
		delete(m.sessions, id)
		return nil, apperrors.NotFound("selection session", id)
	}

	session := entry.session
	session.Seats = append([]string(nil), entry.session.Seats...)
	return &session, nil
}

func (m *memoryStore) Save(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *session
	stored.Seats = append([]string(nil), session.Seats...)
	m.sessions[session.ID] = memoryEntry{session: stored, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}
