package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Checksum returns the lowercase hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Snapshot is the wire form of a scene's state while it moves through the
// restore pipeline. Checksum, when present, is Checksum(StateJSON).
type Snapshot struct {
	SceneID      string  `json:"scene_id"`
	SceneVersion uint16  `json:"scene_version"`
	StateJSON    *string `json:"state_json,omitempty"`
	Checksum     *string `json:"checksum,omitempty"`
}

// NewSnapshot builds a checksummed snapshot from serialized state.
func NewSnapshot(sceneID string, version uint16, stateJSON []byte) Snapshot {
	raw := string(stateJSON)
	sum := Checksum(stateJSON)
	return Snapshot{
		SceneID:      sceneID,
		SceneVersion: version,
		StateJSON:    &raw,
		Checksum:     &sum,
	}
}

// ChecksumValid reports whether the snapshot's checksum, if any, matches a
// fresh hash of its state. A snapshot without a checksum is accepted.
func (s Snapshot) ChecksumValid() bool {
	if s.Checksum == nil {
		return true
	}
	if s.StateJSON == nil {
		return false
	}
	return *s.Checksum == Checksum([]byte(*s.StateJSON))
}

// EncodeSceneHint serializes the snapshot as the integrity-tagged envelope
// stored in Session.MessageScenes.
func EncodeSceneHint(s Snapshot) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeSceneHint parses an envelope written by EncodeSceneHint. Envelopes
// without a scene id, without a checksum or whose checksum does not match
// their state are rejected.
func DecodeSceneHint(hint string) (Snapshot, bool) {
	var s Snapshot
	if err := json.Unmarshal([]byte(hint), &s); err != nil {
		return Snapshot{}, false
	}
	if s.SceneID == "" || s.Checksum == nil || !s.ChecksumValid() {
		return Snapshot{}, false
	}
	return s, true
}
