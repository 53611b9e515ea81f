// Package redis provides Redis-backed session and metadata stores.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the stores.
const DefaultPrefix = "stagehand:"

// Option configures the Redis stores.
type Option func(*options)

type options struct {
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithTTL sets the session expiration. Zero keeps sessions forever.
// Metadata records carry their own TTL and ignore this option.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithClock overrides time.Now when computing remaining metadata lifetimes.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient dials Redis.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// SessionStore implements ports.SessionStore using Redis strings holding JSON.
type SessionStore struct {
	client *backend.Client
	opts   options
}

// NewSessionStore creates a session store from an existing client.
func NewSessionStore(client *backend.Client, opts ...Option) *SessionStore {
	return &SessionStore{client: client, opts: newOptions(opts)}
}

func (s *SessionStore) key(chatID int64) string {
	return s.opts.prefix + "session:" + strconv.FormatInt(chatID, 10)
}

// Save replaces the chat's session.
func (s *SessionStore) Save(ctx context.Context, chatID int64, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(chatID), data, s.opts.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Load retrieves the chat's session.
func (s *SessionStore) Load(ctx context.Context, chatID int64) (*domain.Session, error) {
	val, err := s.client.Get(ctx, s.key(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}

	session := domain.NewSession()
	if err := json.Unmarshal(val, session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

// Delete removes the chat's session.
func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, s.key(chatID)).Err()
}

// Close closes the redis client.
func (s *SessionStore) Close() error {
	return s.client.Close()
}
