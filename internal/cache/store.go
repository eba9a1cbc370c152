package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const entryFileExtension = ".json"

// Errors shared by all stores.
var (
	ErrNotFound   = errors.New("cache entry not found")
	ErrExpired    = errors.New("cache entry expired")
	ErrInvalidKey = errors.New("cache key cannot be empty")
)

// Store is the behaviour shared by FileStore and MemoryStore.
type Store interface {
	Get(key string) (*Entry, error)
	Set(key string, data json.RawMessage) error
	Delete(key string) error
	Clear() error
}

// FileStore keeps entries as JSON files in a directory. Safe for concurrent use
// within a process; writes are atomic (temp file + rename) across processes.
type FileStore struct {
	directory string
	ttl       time.Duration
	mu        sync.RWMutex
}

// NewFileStore creates the directory if needed and returns a store whose
// entries live for ttl.
func NewFileStore(directory string, ttl time.Duration) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{directory: directory, ttl: ttl}, nil
}

// Get reads an entry. Expired entries are removed and reported as ErrExpired.
func (s *FileStore) Get(key string) (*Entry, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.keyToFilePath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", unmarshalErr)
	}
	if entry.IsExpired() {
		_ = os.Remove(path)
		return nil, ErrExpired
	}
	return &entry, nil
}

// Set writes an entry, replacing any existing one.
func (s *FileStore) Set(key string, data json.RawMessage) error {
	if key == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.MarshalIndent(NewEntry(key, data, s.ttl), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	path := s.keyToFilePath(key)
	tmp := path + ".tmp"
	if writeErr := os.WriteFile(tmp, encoded, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write cache file: %w", writeErr)
	}
	if renameErr := os.Rename(tmp, path); renameErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename cache file: %w", renameErr)
	}
	return nil
}

// Take reads and removes an entry in one step, so a value written once is
// handed out at most once even when two processes race for it.
func (s *FileStore) Take(key string) (*Entry, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.keyToFilePath(key)
	claimed := fmt.Sprintf("%s.%d.claim", path, os.Getpid())
	if err := os.Rename(path, claimed); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim cache file: %w", err)
	}
	defer func() { _ = os.Remove(claimed) }()

	data, err := os.ReadFile(claimed)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	var entry Entry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", unmarshalErr)
	}
	if entry.IsExpired() {
		return nil, ErrExpired
	}
	return &entry, nil
}

// Delete removes an entry. Missing entries are not an error.
func (s *FileStore) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.keyToFilePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Clear removes every entry file in the directory.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != entryFileExtension {
			continue
		}
		if removeErr := os.Remove(filepath.Join(s.directory, e.Name())); removeErr != nil {
			return fmt.Errorf("failed to remove cache file %s: %w", e.Name(), removeErr)
		}
	}
	return nil
}

// Directory returns the backing directory.
func (s *FileStore) Directory() string {
	return s.directory
}

func (s *FileStore) keyToFilePath(key string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(key)
	return filepath.Join(s.directory, safe+entryFileExtension)
}
