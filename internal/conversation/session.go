package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/zombor/receipt-bot/internal/invoice"
)

// ErrSessionNotFound is returned when a user has no dialogue in progress
var ErrSessionNotFound = errors.New("session not found")

// Session is a user's dialogue in progress
type Session struct {
	Step      Step             `json:"step"`
	Invoice   *invoice.Invoice `json:"invoice"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (s *Session) clone() *Session {
	c := *s
	c.Invoice = s.Invoice.Clone()
	return &c
}

// SessionStore holds at most one session per user
type SessionStore interface {
	// Get returns the user's session or ErrSessionNotFound
	Get(user string) (*Session, error)

	// Put creates or replaces the user's session
	Put(user string, session *Session) error

	// Delete removes the user's session; deleting a missing session is not an error
	Delete(user string) error

	// Close releases the store
	Close() error
}

// MemoryStore keeps sessions in process memory
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get returns a copy of the user's session
func (m *MemoryStore) Get(user string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[user]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.clone(), nil
}

// Put stores a copy of the session
func (m *MemoryStore) Put(user string, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[user] = session.clone()
	return nil
}

// Delete removes the user's session
func (m *MemoryStore) Delete(user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, user)
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
