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

// MetadataStore implements ports.MetadataStore. Each record is a JSON string
// whose key expires when the record does, so Redis owns expiry.
type MetadataStore struct {
	client *backend.Client
	opts   options
}

// NewMetadataStore creates a metadata store from an existing client.
func NewMetadataStore(client *backend.Client, opts ...Option) *MetadataStore {
	return &MetadataStore{client: client, opts: newOptions(opts)}
}

func (s *MetadataStore) key(chatID int64, messageID int32) string {
	return s.opts.prefix + "meta:" + strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(int64(messageID), 10)
}

// Put stores meta with the lifetime it has left. Records already past their
// expiry are deleted instead.
func (s *MetadataStore) Put(ctx context.Context, chatID int64, messageID int32, meta domain.MessageMetadata) error {
	key := s.key(chatID, messageID)

	var ttl time.Duration
	if meta.TTLSecs > 0 {
		ttl = meta.ExpiresAt().Sub(s.opts.now())
		if ttl <= 0 {
			return s.client.Del(ctx, key).Err()
		}
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save metadata to redis: %w", err)
	}
	return nil
}

// Get retrieves the record for (chatID, messageID).
func (s *MetadataStore) Get(ctx context.Context, chatID int64, messageID int32) (*domain.MessageMetadata, error) {
	val, err := s.client.Get(ctx, s.key(chatID, messageID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrMetadataNotFound
		}
		return nil, fmt.Errorf("failed to get metadata from redis: %w", err)
	}

	var meta domain.MessageMetadata
	if err := json.Unmarshal(val, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Delete removes the record for (chatID, messageID).
func (s *MetadataStore) Delete(ctx context.Context, chatID int64, messageID int32) error {
	return s.client.Del(ctx, s.key(chatID, messageID)).Err()
}
