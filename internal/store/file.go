package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a file-backed KeyValueStore. The whole keyspace lives in one
// JSON document that is rewritten atomically (temp file + rename) on every
// mutation, so a crash never leaves a half-written store behind.
type FileStore struct {
	path    string
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

// NewFileStore opens (or creates) the store file at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	s := &FileStore{
		path:    path,
		entries: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read store file: %w", err)
		}
	} else if len(data) > 0 {
		if err := json.Unmarshal(data, &s.entries); err != nil {
			return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
		}
	}

	log.Printf("[FileStore] Opened %s (%d keys)", path, len(s.entries))
	return s, nil
}

// Get retrieves a value by key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Set stores a value and flushes the whole document to disk before
// returning. A nil return means the bytes are on disk.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, had := s.entries[key]

	valueCopy := make(json.RawMessage, len(value))
	copy(valueCopy, value)
	s.entries[key] = valueCopy

	if err := s.flushLocked(); err != nil {
		if had {
			s.entries[key] = previous
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

// Delete removes a value by key and flushes.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.entries[key]
	if !ok {
		return ErrKeyNotFound
	}
	delete(s.entries, key)

	if err := s.flushLocked(); err != nil {
		s.entries[key] = previous
		return err
	}
	return nil
}

// flushLocked rewrites the store file. Callers must hold mu.
func (s *FileStore) flushLocked() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// Close is a no-op; every mutation is already flushed.
func (s *FileStore) Close() error {
	return nil
}

// Ensure FileStore implements KeyValueStore
var _ KeyValueStore = (*FileStore)(nil)
