package storage

import (
	"context"

	"github.com/mohamedkhairy/tifft/pkg/indicator"
)

// TableStore defines the interface for indicator table storage operations
type TableStore interface {
	// WriteTable replaces the stored cells of one symbol/indicator pair and
	// returns the number of cells written
	WriteTable(ctx context.Context, symbol string, table *indicator.Table) (int, error)

	// ReadTable rebuilds a stored table
	ReadTable(ctx context.Context, symbol, indicatorName string) (*indicator.Table, error)

	// Close closes the storage connection
	Close() error
}
