// Package file provides a filesystem-backed session store for single-process
// deployments and the console simulator.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aretw0/stagehand/pkg/domain"
)

// DefaultDir is used when New is given an empty directory.
var DefaultDir = filepath.Join(".stagehand", "sessions")

// SessionStore implements ports.SessionStore with one JSON file per chat.
type SessionStore struct {
	BasePath string
}

// New creates a SessionStore rooted at basePath.
func New(basePath string) *SessionStore {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &SessionStore{BasePath: basePath}
}

func (s *SessionStore) path(chatID int64) string {
	return filepath.Join(s.BasePath, strconv.FormatInt(chatID, 10)+".json")
}

// Save writes the session atomically: temp file, fsync, rename.
func (s *SessionStore) Save(ctx context.Context, chatID int64, session *domain.Session) error {
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+strconv.FormatInt(chatID, 10)+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(chatID)
	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace session file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the chat's session file.
func (s *SessionStore) Load(ctx context.Context, chatID int64) (*domain.Session, error) {
	data, err := os.ReadFile(s.path(chatID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	session := domain.NewSession()
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

// Delete removes the chat's session file. Missing files are not an error.
func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	err := os.Remove(s.path(chatID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the chat ids with a stored session.
func (s *SessionStore) List(ctx context.Context) ([]int64, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []int64{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		id, err := strconv.ParseInt(name[:len(name)-len(".json")], 10, 64)
		if err != nil {
			continue // temp files and strays
		}
		ids = append(ids, id)
	}
	return ids, nil
}
