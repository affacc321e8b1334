package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// RSI column names
const (
	ColumnAvgGain   = "avg_gain"
	ColumnAvgLoss   = "avg_loss"
	ColumnRSI       = "rsi"
	ColumnUpperLine = "upper_line"
	ColumnLowerLine = "lower_line"
	ColumnZone      = "zone"
)

var rsiColumns = []string{
	ColumnValue, ColumnAvgGain, ColumnAvgLoss, ColumnRSI, ColumnUpperLine, ColumnLowerLine, ColumnZone,
}

// FlatRSI is reported when both average gain and average loss are zero.
// This is a fixed convention of this package, not a textbook value.
const FlatRSI = 50.0

// RSIConfig holds the window and threshold lines of the RSI calculator
type RSIConfig struct {
	WindowSize int
	UpperLine  float64
	LowerLine  float64
}

// DefaultRSIConfig returns the conventional 14-period, 70/30 configuration
func DefaultRSIConfig() RSIConfig {
	return RSIConfig{WindowSize: 14, UpperLine: 70, LowerLine: 30}
}

// Validate checks the window and that the thresholds are finite and ordered
func (c RSIConfig) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("%w: window size must be at least 1, got %d", ErrInvalidConfiguration, c.WindowSize)
	}
	if math.IsNaN(c.UpperLine) || math.IsInf(c.UpperLine, 0) {
		return fmt.Errorf("%w: upper line must be finite, got %v", ErrInvalidConfiguration, c.UpperLine)
	}
	if math.IsNaN(c.LowerLine) || math.IsInf(c.LowerLine, 0) {
		return fmt.Errorf("%w: lower line must be finite, got %v", ErrInvalidConfiguration, c.LowerLine)
	}
	if c.UpperLine <= c.LowerLine {
		return fmt.Errorf("%w: upper line %v must be greater than lower line %v",
			ErrInvalidConfiguration, c.UpperLine, c.LowerLine)
	}
	return nil
}

// RSICalculator computes the Relative Strength Index with Wilder's smoothing
// RSI = 100 - (100 / (1 + RS)), RS = Average Gain / Average Loss
type RSICalculator struct {
	config RSIConfig
	name   string
}

// NewRSICalculator creates an RSI calculator
func NewRSICalculator(config RSIConfig) (*RSICalculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &RSICalculator{
		config: config,
		name:   fmt.Sprintf("rsi_%d", config.WindowSize),
	}
	logger.Debug("RSI calculator created",
		logger.Int("window_size", config.WindowSize),
		logger.Float64("upper_line", config.UpperLine),
		logger.Float64("lower_line", config.LowerLine),
	)
	return c, nil
}

// Name returns the indicator name
func (c *RSICalculator) Name() string {
	return c.name
}

// Config returns the calculator configuration
func (c *RSICalculator) Config() RSIConfig {
	return c.config
}

// Columns returns the output column names
func (c *RSICalculator) Columns() []string {
	return append([]string(nil), rsiColumns...)
}

// Calculate computes the RSI table. The first WindowSize price changes seed
// the averages with their simple mean, so rows before index first+WindowSize
// are Undefined. The threshold lines are defined on every row.
func (c *RSICalculator) Calculate(series *Series) (*Table, error) {
	filled, first, err := prepare(series)
	if err != nil {
		return nil, err
	}

	table := newTable(c.name, series, rsiColumns)
	valueColumn(series, table.Columns[0].Cells)
	for t := range filled {
		table.Columns[4].Cells[t] = Defined(c.config.UpperLine)
		table.Columns[5].Cells[t] = Defined(c.config.LowerLine)
	}

	n := c.config.WindowSize
	seed := first + n
	if seed >= len(filled) {
		return table, nil
	}

	// Initial averages: simple mean of the first n gains and losses
	avgGain, avgLoss := seedAverages(filled[first:seed+1], n, 1)
	if math.IsInf(avgGain, 0) || math.IsInf(avgLoss, 0) {
		avgGain, avgLoss = seedAverages(filled[first:seed+1], n, float64(n))
	}
	c.fill(table, seed, avgGain, avgLoss)

	// Wilder's smoothing: New Avg = ((Old Avg * (n - 1)) + Current) / n,
	// written as Old Avg + (Current - Old Avg) / n to stay in range
	for t := seed + 1; t < len(filled); t++ {
		gain, loss := change(filled[t-1], filled[t])
		avgGain += (gain - avgGain) / float64(n)
		avgLoss += (loss - avgLoss) / float64(n)
		c.fill(table, t, avgGain, avgLoss)
	}

	if err := table.checkFinite(); err != nil {
		return nil, err
	}
	return table, nil
}

func (c *RSICalculator) fill(table *Table, t int, avgGain, avgLoss float64) {
	rsi := relativeStrengthIndex(avgGain, avgLoss)
	table.Columns[1].Cells[t] = Defined(avgGain)
	table.Columns[2].Cells[t] = Defined(avgLoss)
	table.Columns[3].Cells[t] = Defined(rsi)

	zone := 0.0
	switch {
	case rsi > c.config.UpperLine:
		zone = 1
	case rsi < c.config.LowerLine:
		zone = -1
	}
	table.Columns[6].Cells[t] = Defined(zone)
}

// seedAverages is the mean gain and loss over the changes of values. Each
// change is divided by pre before summing, which keeps large sums finite.
func seedAverages(values []float64, n int, pre float64) (avgGain, avgLoss float64) {
	var sumGain, sumLoss float64
	for t := 1; t < len(values); t++ {
		gain, loss := change(values[t-1], values[t])
		sumGain += gain / pre
		sumLoss += loss / pre
	}
	post := float64(n) / pre
	return sumGain / post, sumLoss / post
}

// change splits a price change into its gain and loss parts, both non-negative
func change(prev, cur float64) (gain, loss float64) {
	delta := cur - prev
	switch {
	case delta > 0:
		return delta, 0
	case delta < 0:
		return 0, -delta
	default:
		return 0, 0
	}
}

func relativeStrengthIndex(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return FlatRSI
		}
		return 100.0 // All gains, no losses
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
