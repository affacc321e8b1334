package data

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/mohamedkhairy/tifft/pkg/indicator"
)

const (
	mockObservations = 750
	// every mockGapEvery-th observation is missing, like FRED holidays
	mockGapEvery = 23
)

var mockEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// MockProvider is a mock implementation of Provider for testing.
// Every symbol yields a deterministic daily random walk unless a series or an
// error has been set for it.
type MockProvider struct {
	name   string
	config ProviderConfig
	series map[string]*indicator.Series
	errs   map[string]error
	calls  map[string]int
	mu     sync.RWMutex
}

// NewMockProvider creates a new mock provider
func NewMockProvider(config ProviderConfig) (Provider, error) {
	return &MockProvider{
		name:   "mock",
		config: config,
		series: make(map[string]*indicator.Series),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}, nil
}

// Name returns the provider name
func (m *MockProvider) Name() string {
	return m.name
}

// SetSeries fixes the series returned for a symbol
func (m *MockProvider) SetSeries(symbol string, s *indicator.Series) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[strings.ToUpper(symbol)] = s
}

// SetError makes every fetch of a symbol fail with err
func (m *MockProvider) SetError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[strings.ToUpper(symbol)] = err
}

// Calls returns how many times a symbol has been fetched
func (m *MockProvider) Calls(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[strings.ToUpper(symbol)]
}

// Fetch returns the series for the request
func (m *MockProvider) Fetch(ctx context.Context, req Request) (*indicator.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	m.mu.Lock()
	m.calls[symbol]++
	err := m.errs[symbol]
	fixed := m.series[symbol]
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fixed == nil {
		fixed = generateSeries(symbol)
	}

	out := fixed.Between(req.Start, req.End)
	out.Name = symbol
	return out, nil
}

// generateSeries builds a random walk seeded from the symbol
func generateSeries(symbol string) *indicator.Series {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	points := make([]indicator.Point, mockObservations)
	price := 50 + rng.Float64()*100
	for i := range points {
		price = math.Max(1, price+rng.NormFloat64())
		points[i] = indicator.Point{
			Time:  mockEpoch.AddDate(0, 0, i),
			Value: price,
		}
		if i > 0 && i%mockGapEvery == 0 {
			points[i].Value = math.NaN()
		}
	}
	return &indicator.Series{Name: symbol, Points: points}
}
