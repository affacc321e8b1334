package data

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohamedkhairy/tifft/pkg/indicator"
)

var (
	// ErrNotFound is returned when the data source has no series under the requested symbol
	ErrNotFound = errors.New("series not found")
	// ErrRateLimited is returned when the data source refuses the request for exceeding its rate limit
	ErrRateLimited = errors.New("rate limited by data source")
	// ErrInvalidSymbol is returned when an invalid symbol is provided
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrUnknownProvider is returned when a provider type is not registered
	ErrUnknownProvider = errors.New("unknown provider type")
)

// Request describes one series download. A zero Start or End leaves that side of the range open.
type Request struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

// Validate checks the symbol and the date range
func (r Request) Validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return ErrInvalidSymbol
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s precedes start %s", indicator.ErrInvalidInput,
			r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return nil
}

// DateLayout is the date format used by the data sources and the CLI
const DateLayout = "2006-01-02"

// Provider defines the interface for remote series providers
type Provider interface {
	// Fetch downloads the series named by the request
	Fetch(ctx context.Context, req Request) (*indicator.Series, error)

	// Name returns the name/type of the provider (e.g., "fred", "mock")
	Name() string
}

// ProviderFactory creates provider instances
type ProviderFactory interface {
	// CreateProvider creates a new provider instance based on the provider type
	CreateProvider(providerType string, config ProviderConfig) (Provider, error)

	// RegisterProvider registers a custom provider factory function
	RegisterProvider(providerType string, factoryFunc func(ProviderConfig) (Provider, error)) error

	// ListProviders returns a list of available provider types
	ListProviders() []string
}

// ProviderConfig holds configuration for a provider
type ProviderConfig struct {
	// Provider-specific configuration
	APIKey   string
	BaseURL  string
	GraphURL string

	// Connection settings
	HTTPTimeout time.Duration
	UserAgent   string

	// HTTPClient overrides the client built from HTTPTimeout
	HTTPClient *http.Client
}

// DefaultProviderFactory is the default implementation of ProviderFactory
type DefaultProviderFactory struct {
	mu        sync.RWMutex
	factories map[string]func(ProviderConfig) (Provider, error)
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory() *DefaultProviderFactory {
	factory := &DefaultProviderFactory{
		factories: make(map[string]func(ProviderConfig) (Provider, error)),
	}

	// Register built-in providers
	_ = factory.RegisterProvider("fred", NewFREDProvider)
	_ = factory.RegisterProvider("mock", NewMockProvider)

	return factory
}

// CreateProvider creates a new provider instance
func (f *DefaultProviderFactory) CreateProvider(providerType string, config ProviderConfig) (Provider, error) {
	f.mu.RLock()
	factoryFunc, exists := f.factories[strings.ToLower(providerType)]
	f.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerType)
	}

	return factoryFunc(config)
}

// RegisterProvider registers a custom provider factory function
func (f *DefaultProviderFactory) RegisterProvider(providerType string, factoryFunc func(ProviderConfig) (Provider, error)) error {
	if providerType == "" || factoryFunc == nil {
		return errors.New("provider type and factory function are required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.ToLower(providerType)
	if _, exists := f.factories[key]; exists {
		return errors.New("provider type already registered: " + providerType)
	}
	f.factories[key] = factoryFunc
	return nil
}

// ListProviders returns a sorted list of available provider types
func (f *DefaultProviderFactory) ListProviders() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	providers := make([]string, 0, len(f.factories))
	for providerType := range f.factories {
		providers = append(providers, providerType)
	}
	sort.Strings(providers)
	return providers
}
