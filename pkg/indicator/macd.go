package indicator

import (
	"fmt"

	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// MACD column names
const (
	ColumnFastEMA   = "fast_ema"
	ColumnSlowEMA   = "slow_ema"
	ColumnMACD      = "macd"
	ColumnSignal    = "signal"
	ColumnHistogram = "histogram"
	ColumnTrend     = "trend"
)

var macdColumns = []string{
	ColumnValue, ColumnFastEMA, ColumnSlowEMA, ColumnMACD, ColumnSignal, ColumnHistogram, ColumnTrend,
}

// MACDConfig holds the spans of the MACD calculator
type MACDConfig struct {
	FastSpan   int
	SlowSpan   int
	SignalSpan int
}

// DefaultMACDConfig returns the conventional 12/26/9 configuration
func DefaultMACDConfig() MACDConfig {
	return MACDConfig{FastSpan: 12, SlowSpan: 26, SignalSpan: 9}
}

// Validate checks that every span is positive. Equal fast and slow spans are
// accepted and produce a zero MACD line.
func (c MACDConfig) Validate() error {
	if c.FastSpan < 1 {
		return fmt.Errorf("%w: fast span must be at least 1, got %d", ErrInvalidConfiguration, c.FastSpan)
	}
	if c.SlowSpan < 1 {
		return fmt.Errorf("%w: slow span must be at least 1, got %d", ErrInvalidConfiguration, c.SlowSpan)
	}
	if c.SignalSpan < 1 {
		return fmt.Errorf("%w: signal span must be at least 1, got %d", ErrInvalidConfiguration, c.SignalSpan)
	}
	return nil
}

// MACDCalculator computes the Moving Average Convergence/Divergence oscillator.
// MACD = fast EMA - slow EMA, signal = EMA of MACD, histogram = MACD - signal.
type MACDCalculator struct {
	config MACDConfig
	name   string
}

// NewMACDCalculator creates a MACD calculator
func NewMACDCalculator(config MACDConfig) (*MACDCalculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &MACDCalculator{
		config: config,
		name:   fmt.Sprintf("macd_%d_%d_%d", config.FastSpan, config.SlowSpan, config.SignalSpan),
	}
	logger.Debug("MACD calculator created",
		logger.Int("fast_span", config.FastSpan),
		logger.Int("slow_span", config.SlowSpan),
		logger.Int("signal_span", config.SignalSpan),
	)
	return c, nil
}

// Name returns the indicator name
func (c *MACDCalculator) Name() string {
	return c.name
}

// Config returns the calculator configuration
func (c *MACDCalculator) Config() MACDConfig {
	return c.config
}

// Columns returns the output column names
func (c *MACDCalculator) Columns() []string {
	return append([]string(nil), macdColumns...)
}

// Calculate computes the MACD table. Every row is defined from the first
// observation onward; rows before it (leading missing values) are Undefined.
func (c *MACDCalculator) Calculate(series *Series) (*Table, error) {
	filled, first, err := prepare(series)
	if err != nil {
		return nil, err
	}

	table := newTable(c.name, series, macdColumns)
	valueColumn(series, table.Columns[0].Cells)

	observed := filled[first:]
	fast := ema(observed, c.config.FastSpan)
	slow := ema(observed, c.config.SlowSpan)

	macd := make([]float64, len(observed))
	for i := range observed {
		macd[i] = fast[i] - slow[i]
	}
	signal := ema(macd, c.config.SignalSpan)

	for i := range observed {
		t := first + i
		histogram := macd[i] - signal[i]
		table.Columns[1].Cells[t] = Defined(fast[i])
		table.Columns[2].Cells[t] = Defined(slow[i])
		table.Columns[3].Cells[t] = Defined(macd[i])
		table.Columns[4].Cells[t] = Defined(signal[i])
		table.Columns[5].Cells[t] = Defined(histogram)
		table.Columns[6].Cells[t] = Defined(macdTrend(macd[i], histogram))
	}

	if err := table.checkFinite(); err != nil {
		return nil, err
	}
	return table, nil
}

// macdTrend classifies a row: +2 bullish crossover above zero, +1 bullish,
// -2 bearish crossover below zero, -1 bearish, 0 flat
func macdTrend(macd, histogram float64) float64 {
	switch {
	case histogram > 0 && macd > 0:
		return 2
	case histogram > 0:
		return 1
	case histogram < 0 && macd < 0:
		return -2
	case histogram < 0:
		return -1
	default:
		return 0
	}
}
