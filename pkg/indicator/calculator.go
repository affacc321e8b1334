package indicator

// Calculator is the interface shared by every indicator.
// Implementations are immutable after construction and safe for concurrent use.
type Calculator interface {
	// Name returns the indicator name including its parameters (e.g., "macd_12_26_9")
	Name() string

	// Columns returns the output column names in order
	Columns() []string

	// Calculate derives the indicator table from the series.
	// Returns ErrInvalidInput for an empty or malformed series.
	Calculate(series *Series) (*Table, error)
}

// ColumnValue holds the original observations in every table
const ColumnValue = "value"
