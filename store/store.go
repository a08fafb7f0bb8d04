// Package store persists the last successful scrape as a JSON file.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/use-agent/tablescout/models"
)

// FileStore keeps one models.Envelope on disk. Writes go to a temporary
// file in the same directory and are renamed over the target, so readers
// see either the old or the new envelope, never a partial one.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

// New creates a FileStore backed by path. Nothing is read or written
// until Save or Load.
func New(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Save replaces the stored envelope.
func (s *FileStore) Save(env models.Envelope) error {
	if env.Restaurants == nil {
		env.Restaurants = []models.Restaurant{}
	}
	data, err := encode(env)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}

// encode writes indented JSON with &, < and > left as is, so names read
// the same in the file as on the page.
func encode(env models.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load returns the stored envelope. ok is false when nothing has been
// saved yet; err is set when the file exists but cannot be read or decoded.
func (s *FileStore) Load() (env *models.Envelope, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: read: %w", err)
	}

	var e models.Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	if e.Restaurants == nil {
		e.Restaurants = []models.Restaurant{}
	}
	return &e, true, nil
}
