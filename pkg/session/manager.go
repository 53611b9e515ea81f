package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/stagehand/internal/logging"
	"github.com/aretw0/stagehand/pkg/domain"
	"github.com/aretw0/stagehand/pkg/ports"
)

// Manager wraps a SessionStore with the engine's "absent on failure" policy.
type Manager struct {
	store  ports.SessionStore
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the chat's session, or a fresh one when it is missing or
// cannot be read. It never returns nil.
func (m *Manager) Load(ctx context.Context, chatID int64) *domain.Session {
	s, err := m.store.Load(ctx, chatID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			m.logger.Warn("Session read failed, treating as absent",
				"chat_id", chatID,
				"err", err,
			)
		}
		return domain.NewSession()
	}
	if s == nil {
		return domain.NewSession()
	}
	if s.MessageScenes == nil {
		s.MessageScenes = make(map[int32]string)
	}
	return s
}

// Save persists the session. Failures are logged and returned.
func (m *Manager) Save(ctx context.Context, chatID int64, s *domain.Session) error {
	if err := m.store.Save(ctx, chatID, s); err != nil {
		m.logger.Warn("Session write failed",
			"chat_id", chatID,
			"err", err,
		)
		return err
	}
	return nil
}

// Update loads the session, applies fn and saves the result when fn reports a
// change. It returns the (possibly modified) session either way.
func (m *Manager) Update(ctx context.Context, chatID int64, fn func(s *domain.Session) bool) *domain.Session {
	s := m.Load(ctx, chatID)
	if fn(s) {
		_ = m.Save(ctx, chatID, s)
	}
	return s
}

// Delete removes the chat's session.
func (m *Manager) Delete(ctx context.Context, chatID int64) error {
	return m.store.Delete(ctx, chatID)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}
