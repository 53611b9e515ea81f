package domain

import "time"

// DefaultMetadataTTL is how long message metadata is kept when not configured.
const DefaultMetadataTTL = 3 * 24 * time.Hour

// MessageMetadata is the durable record of which scene (and state) produced a
// message. It is keyed by (chat id, message id); the backend owns expiry.
type MessageMetadata struct {
	SceneID       string  `json:"scene_id"`
	SceneVersion  uint16  `json:"scene_version"`
	StateJSON     *string `json:"state_json,omitempty"`
	StateRef      *string `json:"state_ref,omitempty"`
	StateChecksum *string `json:"state_checksum,omitempty"`
	CreatedAt     int64   `json:"created_at"`
	TTLSecs       uint32  `json:"ttl_secs"`
}

// MetadataFromSnapshot builds a metadata record stamped at now.
func MetadataFromSnapshot(s Snapshot, now time.Time, ttl time.Duration) MessageMetadata {
	return MessageMetadata{
		SceneID:       s.SceneID,
		SceneVersion:  s.SceneVersion,
		StateJSON:     s.StateJSON,
		StateChecksum: s.Checksum,
		CreatedAt:     now.Unix(),
		TTLSecs:       uint32(ttl / time.Second),
	}
}

// Snapshot converts the record into the restore pipeline's wire form.
func (m MessageMetadata) Snapshot() Snapshot {
	return Snapshot{
		SceneID:      m.SceneID,
		SceneVersion: m.SceneVersion,
		StateJSON:    m.StateJSON,
		Checksum:     m.StateChecksum,
	}
}

// TTL returns the record lifetime. Zero means it never expires.
func (m MessageMetadata) TTL() time.Duration {
	return time.Duration(m.TTLSecs) * time.Second
}

// ExpiresAt returns the expiry instant, or the zero time when it never expires.
func (m MessageMetadata) ExpiresAt() time.Time {
	if m.TTLSecs == 0 {
		return time.Time{}
	}
	return time.Unix(m.CreatedAt, 0).Add(m.TTL())
}

// Expired reports whether the record is past its TTL at now.
func (m MessageMetadata) Expired(now time.Time) bool {
	if m.TTLSecs == 0 {
		return false
	}
	return !now.Before(m.ExpiresAt())
}
