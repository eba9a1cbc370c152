package cache

import (
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore is an in-process Store with a bounded number of entries.
// When full, the least recently used entry is evicted.
type MemoryStore struct {
	ttl time.Duration
	lru *expirable.LRU[string, *Entry]
}

// NewMemoryStore returns a store whose entries live for ttl. maxEntries <= 0 means unbounded.
func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		ttl: ttl,
		lru: expirable.NewLRU[string, *Entry](max(maxEntries, 0), nil, ttl),
	}
}

// Get returns a live entry.
func (s *MemoryStore) Get(key string) (*Entry, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	// A non-positive ttl disables the LRU's own expiry.
	if entry.IsExpired() {
		s.lru.Remove(key)
		return nil, ErrExpired
	}
	cp := *entry
	return &cp, nil
}

// Set stores data under key.
func (s *MemoryStore) Set(key string, data json.RawMessage) error {
	if key == "" {
		return ErrInvalidKey
	}
	s.lru.Add(key, NewEntry(key, data, s.ttl))
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	s.lru.Remove(key)
	return nil
}

// Clear drops every entry.
func (s *MemoryStore) Clear() error {
	s.lru.Purge()
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
