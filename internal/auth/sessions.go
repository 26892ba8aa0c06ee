package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrSessionNotFound is returned for handles that are unknown, invalidated or expired.
var ErrSessionNotFound = errors.New("session not found")

// Handle is the opaque identifier of an admin session.
type Handle string

// Session is the server-side state of a logged-in admin.
type Session struct {
	Handle    Handle
	AdminID   int64
	Username  string
	Name      string
	CreatedAt time.Time
	LastSeen  time.Time
}

// SessionStore keeps admin sessions addressable by handle.
type SessionStore interface {
	Create(s Session) Handle
	Get(h Handle) (Session, error)
	Invalidate(h Handle) error
	Rename(h Handle, name string) error
}

// MemorySessionStore is an in-process SessionStore with idle expiry. Sessions
// do not survive a restart.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[Handle]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemorySessionStore{
		sessions: make(map[Handle]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores s under a fresh handle and returns it.
func (m *MemorySessionStore) Create(s Session) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s.Handle = Handle(ulid.Make().String())
	s.CreatedAt = now
	s.LastSeen = now
	m.sessions[s.Handle] = &s
	return s.Handle
}

// Get returns the session for h and refreshes its idle timer.
func (m *MemorySessionStore) Get(h Handle) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[h]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	now := m.now()
	if now.Sub(s.LastSeen) > m.ttl {
		delete(m.sessions, h)
		return Session{}, ErrSessionNotFound
	}
	s.LastSeen = now
	return *s, nil
}

// Invalidate removes the session for h.
func (m *MemorySessionStore) Invalidate(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[h]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, h)
	return nil
}

// Rename updates the display name carried by the session for h.
func (m *MemorySessionStore) Rename(h Handle, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[h]
	if !ok {
		return ErrSessionNotFound
	}
	s.Name = name
	return nil
}

// Sweep drops every session idle for longer than the TTL and returns how many were removed.
func (m *MemorySessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for h, s := range m.sessions {
		if now.Sub(s.LastSeen) > m.ttl {
			delete(m.sessions, h)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

var _ SessionStore = (*MemorySessionStore)(nil)
