package indicator

import (
	"fmt"
	"math"

	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// Bollinger Bands column names
const (
	ColumnMA           = "ma"
	ColumnSD           = "sd"
	ColumnUpperBB      = "upper_bb"
	ColumnLowerBB      = "lower_bb"
	ColumnBandPosition = "band_position"
)

var bollingerColumns = []string{
	ColumnValue, ColumnMA, ColumnSD, ColumnUpperBB, ColumnLowerBB, ColumnBandPosition,
}

// integerTolerance snaps z-scores that are within rounding error of an integer
const integerTolerance = 1e-10

// BollingerConfig holds the window and band width of the Bollinger Bands calculator
type BollingerConfig struct {
	WindowSize   int
	SDMultiplier float64
}

// DefaultBollingerConfig returns the conventional 20-period, 2-SD configuration
func DefaultBollingerConfig() BollingerConfig {
	return BollingerConfig{WindowSize: 20, SDMultiplier: 2}
}

// Validate checks the window and the multiplier
func (c BollingerConfig) Validate() error {
	if c.WindowSize < 1 {
		return fmt.Errorf("%w: window size must be at least 1, got %d", ErrInvalidConfiguration, c.WindowSize)
	}
	if math.IsNaN(c.SDMultiplier) || math.IsInf(c.SDMultiplier, 0) {
		return fmt.Errorf("%w: SD multiplier must be finite, got %v", ErrInvalidConfiguration, c.SDMultiplier)
	}
	return nil
}

// BollingerCalculator computes a rolling mean with bands at a multiple of
// the rolling sample standard deviation.
type BollingerCalculator struct {
	config BollingerConfig
	name   string
}

// NewBollingerCalculator creates a Bollinger Bands calculator
func NewBollingerCalculator(config BollingerConfig) (*BollingerCalculator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &BollingerCalculator{
		config: config,
		name:   fmt.Sprintf("bb_%d_%g", config.WindowSize, config.SDMultiplier),
	}
	logger.Debug("Bollinger Bands calculator created",
		logger.Int("window_size", config.WindowSize),
		logger.Float64("sd_multiplier", config.SDMultiplier),
	)
	return c, nil
}

// Name returns the indicator name
func (c *BollingerCalculator) Name() string {
	return c.name
}

// Config returns the calculator configuration
func (c *BollingerCalculator) Config() BollingerConfig {
	return c.config
}

// Columns returns the output column names
func (c *BollingerCalculator) Columns() []string {
	return append([]string(nil), bollingerColumns...)
}

// Calculate computes the bands. A row is defined once WindowSize observed
// values end at it; earlier rows are Undefined.
func (c *BollingerCalculator) Calculate(series *Series) (*Table, error) {
	filled, first, err := prepare(series)
	if err != nil {
		return nil, err
	}

	table := newTable(c.name, series, bollingerColumns)
	valueColumn(series, table.Columns[0].Cells)

	n := c.config.WindowSize
	k := c.config.SDMultiplier
	for t := first + n - 1; t < len(filled); t++ {
		window := filled[t-n+1 : t+1]
		ma := windowMean(window)
		sd := windowStdDev(window, ma)

		table.Columns[1].Cells[t] = Defined(ma)
		table.Columns[2].Cells[t] = Defined(sd)
		table.Columns[3].Cells[t] = Defined(ma + k*sd)
		table.Columns[4].Cells[t] = Defined(ma - k*sd)
		table.Columns[5].Cells[t] = Defined(bandPosition(filled[t], ma, sd))
	}

	if err := table.checkFinite(); err != nil {
		return nil, err
	}
	return table, nil
}

// bandPosition is the z-score of value truncated toward zero
func bandPosition(value, ma, sd float64) float64 {
	if sd == 0 {
		return 0
	}
	z := (value - ma) / sd
	if r := math.Round(z); math.Abs(z-r) <= integerTolerance {
		return r
	}
	return math.Trunc(z)
}
