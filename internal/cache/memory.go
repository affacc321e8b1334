package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates a memory store whose entries expire after ttl by default
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryStore{c: gocache.New(ttl, 10*time.Minute)}
}

// Get returns a copy of the stored value
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

// Set stores a copy of value. A non-positive ttl uses the store default.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.c.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Name returns "memory"
func (s *MemoryStore) Name() string {
	return "memory"
}

// Len returns the number of entries, expired ones included until cleanup
func (s *MemoryStore) Len() int {
	return s.c.ItemCount()
}
