package indicator

import (
	"math/rand"
	"testing"
	"time"
)

// randomWalk returns a reproducible price path starting at 100
func randomWalk(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	price := 100.0
	for i := range values {
		price += (r.Float64() - 0.5) * 4.0
		if price < 1 {
			price = 1
		}
		values[i] = price
	}
	return values
}

func dailySeries(t *testing.T, values []float64) *Series {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(values))
	for i := range values {
		times[i] = start.AddDate(0, 0, i)
	}
	s, err := NewSeries("TEST", times, values)
	if err != nil {
		t.Fatalf("Failed to build series: %v", err)
	}
	return s
}

func mustColumn(t *testing.T, table *Table, name string) []Cell {
	t.Helper()
	cells, ok := table.Column(name)
	if !ok {
		t.Fatalf("Column %q not found in %v", name, table.ColumnNames())
	}
	return cells
}
