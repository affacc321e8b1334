package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/mohamedkhairy/tifft/internal/config"
)

// Store is a byte-oriented key/value store with expiry
type Store interface {
	// Get returns the value and whether the key was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Name identifies the store in logs and metrics
	Name() string
}

// NewStore builds the store selected by CACHE_TYPE. It returns nil for "none".
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Cache.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryStore(cfg.Cache.TTL), nil
	case "redis":
		store, err := NewRedisStore(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Cache.Type)
	}
}
