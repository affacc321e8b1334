package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mohamedkhairy/tifft/internal/data"
	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// CachingProvider serves fetches from a Store and falls through to the wrapped
// provider on a miss. Store failures never fail a fetch.
type CachingProvider struct {
	next  data.Provider
	store Store
	ttl   time.Duration
}

// NewCachingProvider wraps next with store
func NewCachingProvider(next data.Provider, store Store, ttl time.Duration) *CachingProvider {
	return &CachingProvider{next: next, store: store, ttl: ttl}
}

// Name returns the wrapped provider's name
func (p *CachingProvider) Name() string {
	return p.next.Name()
}

// Fetch returns the cached series for req or fetches and caches it
func (p *CachingProvider) Fetch(ctx context.Context, req data.Request) (*indicator.Series, error) {
	key := Key(p.next.Name(), req)

	result := "miss"
	raw, ok, err := p.store.Get(ctx, key)
	switch {
	case err != nil:
		logger.Warn("Cache read failed",
			logger.String("store", p.store.Name()),
			logger.String("key", key),
			logger.ErrorField(err),
		)
		result = "error"
	case ok:
		var s indicator.Series
		if err := json.Unmarshal(raw, &s); err == nil {
			logger.Debug("Cache hit", logger.String("key", key))
			logger.CacheRequests.WithLabelValues(p.store.Name(), "hit").Inc()
			return &s, nil
		}
		logger.Warn("Discarding undecodable cache entry", logger.String("key", key))
	}
	logger.CacheRequests.WithLabelValues(p.store.Name(), result).Inc()

	s, err := p.next.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	raw, err = json.Marshal(s)
	if err != nil {
		logger.Warn("Failed to encode series for cache", logger.ErrorField(err))
		return s, nil
	}
	if err := p.store.Set(ctx, key, raw, p.ttl); err != nil {
		logger.Warn("Cache write failed",
			logger.String("store", p.store.Name()),
			logger.String("key", key),
			logger.ErrorField(err),
		)
	}
	return s, nil
}

// Key builds the cache key of a request
func Key(provider string, req data.Request) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		provider,
		strings.ToUpper(strings.TrimSpace(req.Symbol)),
		formatBound(req.Start),
		formatBound(req.End),
	)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(data.DateLayout)
}
