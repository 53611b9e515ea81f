package memory

import (
	"context"
	"sync"

	"github.com/aretw0/stagehand/pkg/domain"
)

// SessionStore implements ports.SessionStore in memory.
// Safe for concurrent use. Contents are lost on restart, which the engine
// tolerates by falling back to the metadata tier.
type SessionStore struct {
	data map[int64]*domain.Session
	mu   sync.RWMutex
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		data: make(map[int64]*domain.Session),
	}
}

// Save persists the session in memory.
func (s *SessionStore) Save(ctx context.Context, chatID int64, session *domain.Session) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := session.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[chatID] = copied
	return nil
}

// Load retrieves the session from memory.
func (s *SessionStore) Load(ctx context.Context, chatID int64) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[chatID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so the caller can't mutate store state through the pointer
	return session.Clone(), nil
}

// Delete removes the session.
func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, chatID)
	return nil
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
