package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/stagehand/pkg/domain"
)

type metaKey struct {
	chatID    int64
	messageID int32
}

// MetadataStore implements ports.MetadataStore in memory.
// Expiry is enforced on read and by Sweep.
type MetadataStore struct {
	mu   sync.RWMutex
	data map[metaKey]domain.MessageMetadata
	now  func() time.Time
}

// MetadataOption configures a MetadataStore.
type MetadataOption func(*MetadataStore)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) MetadataOption {
	return func(s *MetadataStore) {
		s.now = now
	}
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore(opts ...MetadataOption) *MetadataStore {
	s := &MetadataStore{
		data: make(map[metaKey]domain.MessageMetadata),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the record unless it is missing or expired.
func (s *MetadataStore) Get(ctx context.Context, chatID int64, messageID int32) (*domain.MessageMetadata, error) {
	s.mu.RLock()
	meta, ok := s.data[metaKey{chatID, messageID}]
	s.mu.RUnlock()

	if !ok || meta.Expired(s.now()) {
		return nil, domain.ErrMetadataNotFound
	}
	return &meta, nil
}

// Put stores the record.
func (s *MetadataStore) Put(ctx context.Context, chatID int64, messageID int32, meta domain.MessageMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[metaKey{chatID, messageID}] = meta
	return nil
}

// Delete removes the record.
func (s *MetadataStore) Delete(ctx context.Context, chatID int64, messageID int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, metaKey{chatID, messageID})
	return nil
}

// Sweep drops expired records and returns how many were removed.
func (s *MetadataStore) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for k, meta := range s.data {
		if meta.Expired(now) {
			delete(s.data, k)
			removed++
		}
	}
	return removed, nil
}

// NoopMetadataStore discards every record. Restores then rely on the session
// tier alone.
type NoopMetadataStore struct{}

func (NoopMetadataStore) Get(ctx context.Context, chatID int64, messageID int32) (*domain.MessageMetadata, error) {
	return nil, domain.ErrMetadataNotFound
}

func (NoopMetadataStore) Put(ctx context.Context, chatID int64, messageID int32, meta domain.MessageMetadata) error {
	return nil
}

func (NoopMetadataStore) Delete(ctx context.Context, chatID int64, messageID int32) error {
	return nil
}
