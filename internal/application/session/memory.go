package session

import (
	"context"
	"sync"

	"github.com/garyjia/firm-portal/internal/application/port"
	"github.com/garyjia/firm-portal/internal/domain/entity"
)

// MemoryStore keeps sessions for the life of the process
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[entity.Scope]entity.Session
	visitorID string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[entity.Scope]entity.Session)}
}

func (m *MemoryStore) Load(_ context.Context, scope entity.Scope) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[scope]
	if !ok {
		return nil, port.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, session *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Scope] = *session
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, scope entity.Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, scope)
	return nil
}

func (m *MemoryStore) VisitorID(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.visitorID == "" {
		return "", port.ErrNotFound
	}
	return m.visitorID, nil
}

func (m *MemoryStore) SaveVisitorID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.visitorID == "" {
		m.visitorID = id
	}
	return nil
}

var _ port.SessionStore = (*MemoryStore)(nil)
