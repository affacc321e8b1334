package indicator

import (
	"fmt"
	"math"
	"time"
)

// Cell is one optionally defined number of an output table
type Cell struct {
	Value float64
	Valid bool
}

// Undefined marks a cell without a value (warm-up rows, missing input)
var Undefined = Cell{}

// Defined wraps a value into a valid cell
func Defined(v float64) Cell {
	return Cell{Value: v, Valid: true}
}

// Float returns the value and whether it is defined
func (c Cell) Float() (float64, bool) {
	return c.Value, c.Valid
}

// Column is a named column of cells aligned to the table index
type Column struct {
	Name  string `json:"name"`
	Cells []Cell `json:"cells"`
}

// Table is the result of a calculation: one row per input observation
type Table struct {
	Indicator string      `json:"indicator"`
	Index     []time.Time `json:"index"`
	Columns   []Column    `json:"columns"`
}

func newTable(indicator string, s *Series, names []string) *Table {
	rows := s.Len()
	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Cells: make([]Cell, rows)}
	}
	return &Table{
		Indicator: indicator,
		Index:     s.Times(),
		Columns:   columns,
	}
}

// Rows returns the number of rows
func (t *Table) Rows() int {
	return len(t.Index)
}

// ColumnNames returns the column names in output order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the cells of the named column
func (t *Table) Column(name string) ([]Cell, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Cells, true
		}
	}
	return nil, false
}

// Row returns the cells of row i in column order
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Cells[i]
	}
	return row
}

// valueColumn fills the value column with the original, unfilled observations
func valueColumn(s *Series, cells []Cell) {
	for i, p := range s.Points {
		if !p.Missing() {
			cells[i] = Defined(p.Value)
		}
	}
}

// checkFinite rejects a table whose derived values left the float64 range.
// Inputs close to ±MaxFloat64 can overflow differences such as MACD.
func (t *Table) checkFinite() error {
	for _, c := range t.Columns {
		for i, cell := range c.Cells {
			if cell.Valid && (math.IsInf(cell.Value, 0) || math.IsNaN(cell.Value)) {
				return fmt.Errorf("%w: %s overflows at row %d", ErrInvalidInput, c.Name, i)
			}
		}
	}
	return nil
}
