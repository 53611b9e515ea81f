package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aretw0/stagehand/pkg/domain"
)

// MetadataStore implements ports.MetadataStore. Expired rows are filtered on
// read and removed by Sweep.
type MetadataStore struct {
	db   *sql.DB
	opts options
}

// NewMetadataStore wraps a database prepared by Open.
func NewMetadataStore(db *sql.DB, opts ...Option) *MetadataStore {
	return &MetadataStore{db: db, opts: newOptions(opts)}
}

// Put writes the record. expires_at is 0 for records that never expire.
func (s *MetadataStore) Put(ctx context.Context, chatID int64, messageID int32, meta domain.MessageMetadata) error {
	var expiresAt int64
	if meta.TTLSecs > 0 {
		expiresAt = meta.ExpiresAt().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_metadata
			(chat_id, message_id, scene_id, scene_version, state_json, state_ref, state_checksum, created_at, ttl_secs, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(chat_id, message_id) DO UPDATE SET
			scene_id = excluded.scene_id,
			scene_version = excluded.scene_version,
			state_json = excluded.state_json,
			state_ref = excluded.state_ref,
			state_checksum = excluded.state_checksum,
			created_at = excluded.created_at,
			ttl_secs = excluded.ttl_secs,
			expires_at = excluded.expires_at`,
		chatID, messageID, meta.SceneID, meta.SceneVersion,
		nullString(meta.StateJSON), nullString(meta.StateRef), nullString(meta.StateChecksum),
		meta.CreatedAt, meta.TTLSecs, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

// Get retrieves the record unless it is missing or expired.
func (s *MetadataStore) Get(ctx context.Context, chatID int64, messageID int32) (*domain.MessageMetadata, error) {
	var (
		meta                     domain.MessageMetadata
		stateJSON, ref, checksum sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT scene_id, scene_version, state_json, state_ref, state_checksum, created_at, ttl_secs
		 FROM message_metadata
		 WHERE chat_id = ? AND message_id = ? AND (expires_at = 0 OR expires_at > ?)`,
		chatID, messageID, s.opts.now().Unix(),
	).Scan(&meta.SceneID, &meta.SceneVersion, &stateJSON, &ref, &checksum, &meta.CreatedAt, &meta.TTLSecs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMetadataNotFound
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	meta.StateJSON = stringPtr(stateJSON)
	meta.StateRef = stringPtr(ref)
	meta.StateChecksum = stringPtr(checksum)
	return &meta, nil
}

// Delete removes the record.
func (s *MetadataStore) Delete(ctx context.Context, chatID int64, messageID int32) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM message_metadata WHERE chat_id = ? AND message_id = ?`, chatID, messageID,
	); err != nil {
		return fmt.Errorf("failed to delete metadata: %w", err)
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed.
func (s *MetadataStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM message_metadata WHERE expires_at != 0 AND expires_at <= ?`, s.opts.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep metadata: %w", err)
	}
	return res.RowsAffected()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return domain.Ptr(ns.String)
}
