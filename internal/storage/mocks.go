package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/mohamedkhairy/tifft/pkg/indicator"
)

// MockTableStore is a mock implementation of TableStore for testing
type MockTableStore struct {
	mu       sync.Mutex
	Tables   map[string]*indicator.Table
	WriteErr error
	ReadErr  error
	Closed   bool
}

// NewMockTableStore creates an empty mock store
func NewMockTableStore() *MockTableStore {
	return &MockTableStore{Tables: make(map[string]*indicator.Table)}
}

// WriteTable stores the table under symbol and indicator name
func (m *MockTableStore) WriteTable(ctx context.Context, symbol string, table *indicator.Table) (int, error) {
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tables[symbol+"/"+table.Indicator] = table
	return len(FlattenTable(table)), nil
}

// ReadTable returns the stored table or ErrTableNotFound
func (m *MockTableStore) ReadTable(ctx context.Context, symbol, indicatorName string) (*indicator.Table, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tables[symbol+"/"+indicatorName]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrTableNotFound, symbol, indicatorName)
	}
	return t, nil
}

// Close marks the store as closed
func (m *MockTableStore) Close() error {
	m.Closed = true
	return nil
}
