package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/mohamedkhairy/tifft/internal/config"
	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// ErrTableNotFound is returned when nothing is stored for a symbol/indicator pair
var ErrTableNotFound = errors.New("indicator table not found")

// undefinedTable is the SQLSTATE Postgres reports for a missing relation
const undefinedTable = "42P01"

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS indicator_values (
		symbol      TEXT             NOT NULL,
		indicator   TEXT             NOT NULL,
		row_num     INTEGER          NOT NULL,
		ts          TIMESTAMPTZ      NOT NULL,
		column_pos  SMALLINT         NOT NULL,
		column_name TEXT             NOT NULL,
		value       DOUBLE PRECISION,
		PRIMARY KEY (symbol, indicator, row_num, column_name)
	);
	CREATE INDEX IF NOT EXISTS indicator_values_ts_idx
		ON indicator_values (symbol, indicator, ts);
`

// CellRow is one cell of a table in long format. A nil Value is an undefined cell.
type CellRow struct {
	Row       int
	Timestamp time.Time
	ColumnPos int
	Column    string
	Value     *float64
}

// PostgresStore implements TableStore for PostgreSQL
type PostgresStore struct {
	db       *sql.DB
	dbConfig config.DatabaseConfig
}

// NewPostgresStore opens and checks a connection pool
func NewPostgresStore(dbConfig config.DatabaseConfig) (*PostgresStore, error) {
	// Open database connection
	db, err := sql.Open("postgres", dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(dbConfig.MaxConnections)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		logger.String("host", dbConfig.Host),
		logger.Int("port", dbConfig.Port),
		logger.String("database", dbConfig.Database),
	)

	return NewPostgresStoreWithDB(db, dbConfig), nil
}

// NewPostgresStoreWithDB wraps an open pool
func NewPostgresStoreWithDB(db *sql.DB, dbConfig config.DatabaseConfig) *PostgresStore {
	return &PostgresStore{db: db, dbConfig: dbConfig}
}

// EnsureSchema creates the indicator_values table if it does not exist
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// WriteTable replaces the stored cells of symbol/table.Indicator in one transaction
func (p *PostgresStore) WriteTable(ctx context.Context, symbol string, table *indicator.Table) (int, error) {
	if symbol == "" || table == nil || table.Indicator == "" {
		return 0, errors.New("symbol and a named table are required")
	}

	startTime := time.Now()
	rows := FlattenTable(table)

	// Use transaction for atomicity
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM indicator_values WHERE symbol = $1 AND indicator = $2`,
		symbol, table.Indicator,
	); err != nil {
		return 0, wrapSchemaError("failed to clear previous rows", err)
	}

	// Prepare statement for batch insert
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO indicator_values (symbol, indicator, row_num, ts, column_pos, column_name, value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		var value sql.NullFloat64
		if r.Value != nil {
			value = sql.NullFloat64{Float64: *r.Value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			symbol,
			table.Indicator,
			r.Row,
			r.Timestamp,
			r.ColumnPos,
			r.Column,
			value,
		); err != nil {
			return 0, fmt.Errorf("failed to insert cell: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.RowsPersisted.WithLabelValues(table.Indicator).Add(float64(len(rows)))
	logger.Debug("Wrote indicator table",
		logger.String("symbol", symbol),
		logger.String("indicator", table.Indicator),
		logger.Int("cells", len(rows)),
		logger.Duration("latency", time.Since(startTime)),
	)

	return len(rows), nil
}

// ReadTable rebuilds a stored table
func (p *PostgresStore) ReadTable(ctx context.Context, symbol, indicatorName string) (*indicator.Table, error) {
	query := `
		SELECT row_num, ts, column_pos, column_name, value
		FROM indicator_values
		WHERE symbol = $1 AND indicator = $2
		ORDER BY row_num ASC, column_pos ASC
	`

	rows, err := p.db.QueryContext(ctx, query, symbol, indicatorName)
	if err != nil {
		return nil, wrapSchemaError("failed to query indicator values", err)
	}
	defer rows.Close()

	var cells []CellRow
	for rows.Next() {
		var (
			r     CellRow
			value sql.NullFloat64
		)
		if err := rows.Scan(&r.Row, &r.Timestamp, &r.ColumnPos, &r.Column, &value); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		if value.Valid {
			v := value.Float64
			r.Value = &v
		}
		cells = append(cells, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrTableNotFound, symbol, indicatorName)
	}
	return BuildTable(indicatorName, cells)
}

// Close closes the database connection
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

// FlattenTable converts a table to long format, row-major
func FlattenTable(table *indicator.Table) []CellRow {
	out := make([]CellRow, 0, table.Rows()*len(table.Columns))
	for i, ts := range table.Index {
		for j, col := range table.Columns {
			r := CellRow{Row: i, Timestamp: ts, ColumnPos: j, Column: col.Name}
			if v, ok := col.Cells[i].Float(); ok {
				r.Value = &v
			}
			out = append(out, r)
		}
	}
	return out
}

// BuildTable pivots long-format cells back into a table
func BuildTable(indicatorName string, cells []CellRow) (*indicator.Table, error) {
	sorted := append([]CellRow(nil), cells...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].ColumnPos < sorted[j].ColumnPos
	})

	names := map[int]string{}
	rowTimes := map[int]time.Time{}
	nRows, nCols := 0, 0
	for _, c := range sorted {
		if c.Row < 0 || c.ColumnPos < 0 {
			return nil, fmt.Errorf("invalid cell position %d/%d", c.Row, c.ColumnPos)
		}
		if name, ok := names[c.ColumnPos]; ok && name != c.Column {
			return nil, fmt.Errorf("column %d stored as both %q and %q", c.ColumnPos, name, c.Column)
		}
		names[c.ColumnPos] = c.Column
		rowTimes[c.Row] = c.Timestamp
		nRows = max(nRows, c.Row+1)
		nCols = max(nCols, c.ColumnPos+1)
	}
	if len(names) != nCols {
		return nil, fmt.Errorf("stored columns are not contiguous: %d of %d", len(names), nCols)
	}

	table := &indicator.Table{
		Indicator: indicatorName,
		Index:     make([]time.Time, nRows),
		Columns:   make([]indicator.Column, nCols),
	}
	for j := range table.Columns {
		table.Columns[j] = indicator.Column{Name: names[j], Cells: make([]indicator.Cell, nRows)}
	}
	for i := range table.Index {
		table.Index[i] = rowTimes[i].UTC()
	}
	for _, c := range sorted {
		if c.Value != nil {
			table.Columns[c.ColumnPos].Cells[c.Row] = indicator.Defined(*c.Value)
		}
	}
	return table, nil
}

// wrapSchemaError points at EnsureSchema when the table is missing
func wrapSchemaError(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
		return fmt.Errorf("%s: indicator_values does not exist, run with schema creation enabled: %w", msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
