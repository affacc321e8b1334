package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedkhairy/tifft/internal/config"
	"github.com/mohamedkhairy/tifft/internal/data"
	"github.com/mohamedkhairy/tifft/pkg/indicator"
)

// fakeRedis is an in-memory RedisClient
type fakeRedis struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	err    error
	closed bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

// failingStore fails every operation
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}

func (failingStore) Name() string { return "failing" }

func newMock(t *testing.T) *data.MockProvider {
	t.Helper()
	p, err := data.NewMockProvider(data.ProviderConfig{})
	require.NoError(t, err)
	return p.(*data.MockProvider)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte("v1")
	require.NoError(t, store.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), got)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "memory", store.Name())
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	client := newFakeRedis()
	store := NewRedisStoreWithClient(client, "tifft:")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Hour))
	assert.Contains(t, client.data, "tifft:k")
	assert.Equal(t, time.Hour, client.ttls["tifft:k"])

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	client.err = errors.New("connection refused")
	_, _, err = store.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, store.Set(ctx, "k", []byte("v"), time.Hour))

	require.NoError(t, store.Close())
	assert.True(t, client.closed)
}

func TestNewStore(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Type: "none"}}
	store, err := NewStore(cfg)
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg.Cache.Type = "memory"
	store, err = NewStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, "memory", store.Name())

	cfg.Cache.Type = "disk"
	_, err = NewStore(cfg)
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "fred:SP500:2020-01-02:-", Key("fred", data.Request{Symbol: " sp500 ", Start: start}))
	assert.Equal(t, "mock:X:-:-", Key("mock", data.Request{Symbol: "X"}))
}

func TestCachingProvider_HitAfterMiss(t *testing.T) {
	mock := newMock(t)
	provider := NewCachingProvider(mock, NewMemoryStore(time.Minute), time.Minute)
	ctx := context.Background()
	req := data.Request{Symbol: "SP500"}

	first, err := provider.Fetch(ctx, req)
	require.NoError(t, err)
	second, err := provider.Fetch(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, mock.Calls("SP500"))
	assert.Equal(t, "mock", provider.Name())

	require.Equal(t, first.Len(), second.Len())
	assert.Equal(t, first.Name, second.Name)
	for i := range first.Points {
		assert.True(t, first.Points[i].Time.Equal(second.Points[i].Time))
		assert.Equal(t, first.Points[i].Missing(), second.Points[i].Missing())
		if !first.Points[i].Missing() {
			assert.Equal(t, first.Points[i].Value, second.Points[i].Value)
		}
	}
}

func TestCachingProvider_ErrorsNotCached(t *testing.T) {
	mock := newMock(t)
	mock.SetError("GONE", data.ErrNotFound)
	store := NewMemoryStore(time.Minute)
	provider := NewCachingProvider(mock, store, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := provider.Fetch(context.Background(), data.Request{Symbol: "GONE"})
		assert.ErrorIs(t, err, data.ErrNotFound)
	}
	assert.Equal(t, 2, mock.Calls("GONE"))
	assert.Equal(t, 0, store.Len())
}

func TestCachingProvider_StoreFailureFallsThrough(t *testing.T) {
	mock := newMock(t)
	provider := NewCachingProvider(mock, failingStore{}, time.Minute)

	s, err := provider.Fetch(context.Background(), data.Request{Symbol: "SP500"})
	require.NoError(t, err)
	assert.Positive(t, s.Len())
	assert.Equal(t, 1, mock.Calls("SP500"))
}

func TestCachingProvider_CorruptEntryRefetched(t *testing.T) {
	mock := newMock(t)
	store := NewMemoryStore(time.Minute)
	req := data.Request{Symbol: "SP500"}
	require.NoError(t, store.Set(context.Background(), Key("mock", req), []byte("{not json"), 0))

	provider := NewCachingProvider(mock, store, time.Minute)
	_, err := provider.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls("SP500"))

	// The refetched series replaces the corrupt entry
	raw, ok, err := store.Get(context.Background(), Key("mock", req))
	require.NoError(t, err)
	require.True(t, ok)
	var s indicator.Series
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, "SP500", s.Name)

	_, err = provider.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Calls("SP500"))
}
