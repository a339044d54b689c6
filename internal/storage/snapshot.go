package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var keyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Store persists whole-value JSON documents keyed by name. Every Save
// rewrites the full document for its key; there is no incremental log.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) validateKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("invalid snapshot key: %q", key)
	}
	return nil
}

// Save writes the full document for key.
func (s *Store) Save(key string, value any) error {
	if err := s.validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot store: marshal %s: %w", key, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, key+".json"), data, 0o644); err != nil {
		return fmt.Errorf("snapshot store: write %s: %w", key, err)
	}
	return nil
}

// Load reads the document for key into out. It reports false with no
// error when the key has never been saved.
func (s *Store) Load(key string, out any) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, key+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("snapshot store: read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("snapshot store: unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the document for key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	if err := s.validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filepath.Join(s.dir, key+".json")); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("snapshot store: delete %s: %w", key, err)
	}
	return nil
}
