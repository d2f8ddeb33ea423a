// Package storage provides file-backed storage for small text blobs keyed
// by a logical identifier, such as the persisted permission settings.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrNotFound = errors.New("not found")
)

// Store persists text blobs under a base directory, one file per key.
type Store struct {
	basePath string
	mu       sync.Mutex
	locks    map[string]*FileLock
}

// New creates a new Store rooted at basePath.
func New(basePath string) *Store {
	return &Store{
		basePath: basePath,
		locks:    make(map[string]*FileLock),
	}
}

// keyToFile maps a logical key to its backing file.
func (s *Store) keyToFile(key string) string {
	return filepath.Join(s.basePath, key+".env")
}

// LoadBlob reads the blob stored under key. Returns ErrNotFound if the
// key has never been written.
func (s *Store) LoadBlob(ctx context.Context, key string) (string, error) {
	data, err := os.ReadFile(s.keyToFile(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read blob: %w", err)
	}
	return string(data), nil
}

// SaveBlob writes the blob under key, creating the base directory as
// needed. The write is atomic: a temp file is renamed into place while an
// exclusive file lock is held.
func (s *Store) SaveBlob(ctx context.Context, key string, blob string) error {
	filePath := s.keyToFile(key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	lock := s.getLock(filePath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	tmpPath := filePath + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(blob), 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// DeleteBlob removes the blob stored under key. Deleting a missing key is
// not an error.
func (s *Store) DeleteBlob(ctx context.Context, key string) error {
	filePath := s.keyToFile(key)

	lock := s.getLock(filePath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer lock.Unlock()

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Exists reports whether a blob is stored under key.
func (s *Store) Exists(ctx context.Context, key string) bool {
	_, err := os.Stat(s.keyToFile(key))
	return err == nil
}

// getLock returns the file lock for a path, creating it on first use.
func (s *Store) getLock(filePath string) *FileLock {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[filePath]
	if !ok {
		lock = NewFileLock(filePath)
		s.locks[filePath] = lock
	}
	return lock
}
