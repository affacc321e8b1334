// Package report renders indicator tables for the console and CSV files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// IndexColumn is the header of the date column
const IndexColumn = "DATE"

// Ellipsis marks the rows elided by a row limit
const Ellipsis = "..."

// Param is one echoed calculation parameter
type Param struct {
	Key   string
	Value interface{}
}

// Printer writes progress lines and tables to a console
type Printer struct {
	w       io.Writer
	maxRows int
}

// NewPrinter creates a printer. maxRows <= 0 prints every row.
func NewPrinter(w io.Writer, maxRows int) *Printer {
	return &Printer{w: w, maxRows: maxRows}
}

// Step prints a progress line such as ">>\tGet data from fred:\tSP500"
func (p *Printer) Step(label, subject string) {
	fmt.Fprintf(p.w, ">>\t%s:\t%s\n", label, subject)
}

// Params prints one "KEY NAME:\tvalue" line per parameter
func (p *Printer) Params(params []Param) {
	for _, param := range params {
		key := strings.ToUpper(strings.ReplaceAll(param.Key, "_", " "))
		fmt.Fprintf(p.w, "%s:\t%v\n", key, param.Value)
	}
}

// Table prints the results header followed by an aligned table
func (p *Printer) Table(name string, t *indicator.Table) error {
	p.Step("Print results", name)

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := append([]string{IndexColumn}, upperNames(t)...)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, i := range visibleRows(t.Rows(), p.maxRows) {
		if i < 0 {
			fmt.Fprintln(tw, strings.Repeat(Ellipsis+"\t", len(header)))
			continue
		}
		fields := make([]string, 0, len(header))
		fields = append(fields, formatIndex(t.Index[i], i))
		for _, c := range t.Row(i) {
			fields = append(fields, formatConsole(c))
		}
		fmt.Fprintln(tw, strings.Join(fields, "\t")+"\t")
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(p.w, "\n[%d rows x %d columns]\n", t.Rows(), len(t.Columns))
	return nil
}

// visibleRows returns the row indices to print; -1 stands for the elided block
func visibleRows(rows, maxRows int) []int {
	if maxRows <= 0 || rows <= maxRows {
		out := make([]int, rows)
		for i := range out {
			out[i] = i
		}
		return out
	}

	head := (maxRows + 1) / 2
	tail := maxRows / 2
	out := make([]int, 0, maxRows+1)
	for i := 0; i < head; i++ {
		out = append(out, i)
	}
	out = append(out, -1)
	for i := rows - tail; i < rows; i++ {
		out = append(out, i)
	}
	return out
}

// WriteCSV writes a table with a DATE column and upper-cased column names.
// Undefined cells are left empty.
func WriteCSV(w io.Writer, t *indicator.Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{IndexColumn}, upperNames(t)...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := 0; i < t.Rows(); i++ {
		record[0] = formatIndex(t.Index[i], i)
		for j, c := range t.Row(i) {
			record[j+1] = formatCSV(c)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes a table to path, replacing any existing file, and
// returns the absolute path written
func WriteCSVFile(path string, t *indicator.Table) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", abs, err)
	}

	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", abs, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", abs, err)
	}

	logger.Info("Wrote CSV file",
		logger.String("path", abs),
		logger.Int("rows", t.Rows()),
	)
	return abs, nil
}

func upperNames(t *indicator.Table) []string {
	names := t.ColumnNames()
	for i, n := range names {
		names[i] = strings.ToUpper(n)
	}
	return names
}

// formatIndex prints dates without a clock when they fall on midnight UTC.
// Tables built without timestamps fall back to the row number.
func formatIndex(ts time.Time, row int) string {
	switch {
	case ts.IsZero():
		return strconv.Itoa(row)
	case ts.Equal(ts.UTC().Truncate(24 * time.Hour)):
		return ts.UTC().Format("2006-01-02")
	default:
		return ts.Format(time.RFC3339)
	}
}

func formatConsole(c indicator.Cell) string {
	v, ok := c.Float()
	if !ok {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatCSV(c indicator.Cell) string {
	v, ok := c.Float()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
