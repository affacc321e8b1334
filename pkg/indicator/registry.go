package indicator

import (
	"fmt"
	"sort"
	"sync"
)

// Indicator kinds registered by NewDefaultRegistry
const (
	KindMACD      = "macd"
	KindBollinger = "bb"
	KindRSI       = "rsi"
)

// Factory builds a calculator from raw parameters
type Factory func(params Params) (Calculator, error)

// Metadata describes a registered indicator
type Metadata struct {
	Kind        string            `json:"kind"`
	Description string            `json:"description"`
	Category    string            `json:"category"` // "momentum", "trend", "volatility"
	Parameters  map[string]string `json:"parameters"`
	Columns     []string          `json:"columns"`
}

// Registry manages indicator factories by kind
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	metadata  map[string]Metadata
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		metadata:  make(map[string]Metadata),
	}
}

// NewDefaultRegistry creates a registry with MACD, Bollinger Bands and RSI registered
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	macd := DefaultMACDConfig()
	bb := DefaultBollingerConfig()
	rsi := DefaultRSIConfig()

	// Registration into an empty registry cannot collide
	_ = r.Register(KindMACD, func(p Params) (Calculator, error) {
		cfg, err := MACDConfigFromParams(p)
		if err != nil {
			return nil, err
		}
		return NewMACDCalculator(cfg)
	}, Metadata{
		Description: "Moving Average Convergence/Divergence",
		Category:    "trend",
		Parameters: map[string]string{
			ParamFastSpan:   fmt.Sprint(macd.FastSpan),
			ParamSlowSpan:   fmt.Sprint(macd.SlowSpan),
			ParamSignalSpan: fmt.Sprint(macd.SignalSpan),
		},
		Columns: append([]string(nil), macdColumns...),
	})

	_ = r.Register(KindBollinger, func(p Params) (Calculator, error) {
		cfg, err := BollingerConfigFromParams(p)
		if err != nil {
			return nil, err
		}
		return NewBollingerCalculator(cfg)
	}, Metadata{
		Description: "Bollinger Bands",
		Category:    "volatility",
		Parameters: map[string]string{
			ParamWindowSize:   fmt.Sprint(bb.WindowSize),
			ParamSDMultiplier: fmt.Sprint(bb.SDMultiplier),
		},
		Columns: append([]string(nil), bollingerColumns...),
	})

	_ = r.Register(KindRSI, func(p Params) (Calculator, error) {
		cfg, err := RSIConfigFromParams(p)
		if err != nil {
			return nil, err
		}
		return NewRSICalculator(cfg)
	}, Metadata{
		Description: "Relative Strength Index (Wilder's smoothing)",
		Category:    "momentum",
		Parameters: map[string]string{
			ParamWindowSize: fmt.Sprint(rsi.WindowSize),
			ParamUpperLine:  fmt.Sprint(rsi.UpperLine),
			ParamLowerLine:  fmt.Sprint(rsi.LowerLine),
		},
		Columns: append([]string(nil), rsiColumns...),
	})

	return r
}

// Register registers a factory under kind
func (r *Registry) Register(kind string, factory Factory, metadata Metadata) error {
	if kind == "" {
		return fmt.Errorf("indicator kind cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory for %q cannot be nil", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("indicator %q already registered", kind)
	}

	metadata.Kind = kind
	r.factories[kind] = factory
	r.metadata[kind] = metadata
	return nil
}

// Build creates a calculator of the given kind
func (r *Registry) Build(kind string, params Params) (Calculator, error) {
	r.mu.RLock()
	factory, exists := r.factories[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, kind)
	}
	return factory(params)
}

// Metadata returns the metadata of a registered kind
func (r *Registry) Metadata(kind string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	metadata, exists := r.metadata[kind]
	return metadata, exists
}

// List returns the registered kinds in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// AllMetadata returns the metadata of every registered kind, sorted by kind
func (r *Registry) AllMetadata() []Metadata {
	kinds := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metadata, 0, len(kinds))
	for _, kind := range kinds {
		result = append(result, r.metadata[kind])
	}
	return result
}
