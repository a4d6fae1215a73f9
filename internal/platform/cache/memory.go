package cache

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemoryEntries = 10000

// MemoryStore implements Store with an in-process expirable LRU.
type MemoryStore struct {
	lru *lru.LRU[string, []byte]
}

// NewMemoryStore creates a MemoryStore holding at most size entries for ttl.
// A zero ttl keeps entries until evicted.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = defaultMemoryEntries
	}
	return &MemoryStore{lru: lru.NewLRU[string, []byte](size, nil, ttl)}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := m.lru.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return value, nil
}

// Set implements Store.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.lru.Add(key, value)
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// DeletePrefix implements Store.
func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range m.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.lru.Remove(key)
		}
	}
	return nil
}

// Len reports the number of live entries.
func (m *MemoryStore) Len() int {
	return m.lru.Len()
}
