package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is a process local cache with expiry.
type Memory struct {
	items *gocache.Cache
}

// NewMemory returns an empty cache. Entries expire after ttl; a ttl of zero
// keeps them until the process exits.
func NewMemory(ttl time.Duration) *Memory {
	expiry := ttl
	if expiry <= 0 {
		expiry = gocache.NoExpiration
	}
	return &Memory{items: gocache.New(expiry, cleanupInterval(ttl))}
}

// Get returns a copy of the cached value.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	b := v.([]byte)
	return append([]byte(nil), b...), true, nil
}

// Set stores a copy of value with the default expiry.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.items.SetDefault(key, append([]byte(nil), value...))
	return nil
}

// Len is the number of cached entries, including expired ones not yet
// cleaned up.
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

// Close drops every entry.
func (m *Memory) Close() error {
	m.items.Flush()
	return nil
}
