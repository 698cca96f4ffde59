package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// fileDoc is the on-disk layout. Entries are oldest first.
type fileDoc struct {
	Version       int     `json:"version"`
	LastUpdatedMs int64   `json:"last_updated_ms"`
	Entries       []Entry `json:"entries"`
}

// FileStore keeps entries in a single JSON file.
type FileStore struct {
	mu   sync.RWMutex
	path string
	keep int
	doc  fileDoc
}

// DefaultFilePath returns ~/.bpassist/history.json.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bpassist", "history.json"), nil
}

// OpenFile loads path, or starts empty when it does not exist. An empty
// path means DefaultFilePath.
func OpenFile(path string, keep int) (*FileStore, error) {
	if path == "" {
		p, err := DefaultFilePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if keep <= 0 {
		keep = MaxEntries
	}

	s := &FileStore{path: path, keep: keep, doc: fileDoc{Version: 1}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Append adds e, drops the oldest entries beyond the limit and saves.
func (s *FileStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Entries = append(s.doc.Entries, NewEntry(e))
	if over := len(s.doc.Entries) - s.keep; over > 0 {
		s.doc.Entries = append([]Entry(nil), s.doc.Entries[over:]...)
	}
	s.doc.LastUpdatedMs = time.Now().UnixMilli()
	return s.saveUnsafe()
}

// saveUnsafe writes to disk without locking (caller must hold lock).
func (s *FileStore) saveUnsafe() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

func (s *FileStore) List(_ context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.doc.Entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.doc.Entries[i])
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }
