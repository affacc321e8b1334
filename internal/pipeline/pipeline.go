package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mohamedkhairy/tifft/internal/data"
	"github.com/mohamedkhairy/tifft/internal/report"
	"github.com/mohamedkhairy/tifft/internal/storage"
	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// HistoryIndicator names the table built from raw series
const HistoryIndicator = "history"

var (
	// ErrNoSymbols is returned when a history request names no series
	ErrNoSymbols = errors.New("at least one symbol is required")
	// ErrNoStore is returned when a request needs the database but none is configured
	ErrNoStore = errors.New("no database is configured")
)

// HistoryRequest asks for one or more raw series
type HistoryRequest struct {
	Symbols   []string
	Start     time.Time
	End       time.Time
	DropNA    bool
	OutputCSV string
}

// CalculateRequest asks for one indicator over one series
type CalculateRequest struct {
	Kind      string
	Symbol    string
	Start     time.Time
	End       time.Time
	Params    indicator.Params
	DropNA    bool
	OutputCSV string
	Persist   bool
}

// StoredRequest asks for a table persisted by an earlier calculation
type StoredRequest struct {
	Symbol    string
	Indicator string // full indicator name, e.g. "rsi_14"
	OutputCSV string
}

// Pipeline fetches series, runs calculators and hands results to the outputs
type Pipeline struct {
	provider data.Provider
	registry *indicator.Registry
	store    storage.TableStore
	printer  *report.Printer
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithStore persists calculated tables when a request asks for it
func WithStore(store storage.TableStore) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithPrinter echoes progress and results to a console
func WithPrinter(printer *report.Printer) Option {
	return func(p *Pipeline) { p.printer = printer }
}

// New creates a pipeline
func New(provider data.Provider, registry *indicator.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{provider: provider, registry: registry}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the calculator registry
func (p *Pipeline) Registry() *indicator.Registry {
	return p.registry
}

// Fetch downloads one series and records fetch metrics
func (p *Pipeline) Fetch(ctx context.Context, req data.Request) (*indicator.Series, error) {
	start := time.Now()
	s, err := p.provider.Fetch(ctx, req)
	logger.FetchDuration.WithLabelValues(p.provider.Name()).Observe(time.Since(start).Seconds())
	logger.FetchTotal.WithLabelValues(p.provider.Name(), fetchStatus(err)).Inc()
	if err != nil {
		logger.Error("Failed to fetch series",
			logger.String("provider", p.provider.Name()),
			logger.String("symbol", req.Symbol),
			logger.ErrorField(err),
		)
		return nil, err
	}

	logger.Debug("Fetched series",
		logger.String("symbol", s.Name),
		logger.Int("observations", s.Len()),
	)
	return s, nil
}

// History fetches every requested series concurrently and joins them on their dates
func (p *Pipeline) History(ctx context.Context, req HistoryRequest) (*indicator.Table, error) {
	if len(req.Symbols) == 0 {
		return nil, ErrNoSymbols
	}
	title := strings.Join(req.Symbols, ", ")
	p.step("Get data from "+p.provider.Name(), title)

	series := make([]*indicator.Series, len(req.Symbols))
	errs := make([]error, len(req.Symbols))

	var wg sync.WaitGroup
	for i, symbol := range req.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			series[i], errs[i] = p.Fetch(ctx, data.Request{Symbol: symbol, Start: req.Start, End: req.End})
		}(i, symbol)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", req.Symbols[i], err)
		}
	}

	table := Merge(series)
	if req.DropNA {
		table = DropUndefinedRows(table)
	}

	if err := p.output(title, table, req.OutputCSV); err != nil {
		return nil, err
	}
	return table, nil
}

// Calculate fetches one series and runs the requested calculator over it
func (p *Pipeline) Calculate(ctx context.Context, req CalculateRequest) (*indicator.Table, error) {
	// Build first so a bad configuration never costs a download
	calc, err := p.registry.Build(req.Kind, req.Params)
	if err != nil {
		return nil, err
	}

	p.step("Get data from "+p.provider.Name(), req.Symbol)
	s, err := p.Fetch(ctx, data.Request{Symbol: req.Symbol, Start: req.Start, End: req.End})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", req.Symbol, err)
	}
	if req.DropNA {
		s = s.DropMissing()
	}

	label, params := describe(calc)
	p.step("Calculate "+label, req.Symbol)
	if p.printer != nil {
		p.printer.Params(params)
	}

	start := time.Now()
	table, err := calc.Calculate(s)
	logger.CalculationDuration.WithLabelValues(req.Kind).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.CalculationTotal.WithLabelValues(req.Kind, "error").Inc()
		return nil, fmt.Errorf("failed to calculate %s for %s: %w", calc.Name(), req.Symbol, err)
	}
	logger.CalculationTotal.WithLabelValues(req.Kind, "success").Inc()

	if err := p.output(req.Symbol, table, req.OutputCSV); err != nil {
		return nil, err
	}

	if req.Persist {
		if p.store == nil {
			return nil, fmt.Errorf("persistence requested: %w", ErrNoStore)
		}
		n, err := p.store.WriteTable(ctx, strings.ToUpper(req.Symbol), table)
		if err != nil {
			return nil, fmt.Errorf("failed to persist %s: %w", table.Indicator, err)
		}
		logger.Info("Persisted indicator table",
			logger.String("symbol", req.Symbol),
			logger.String("indicator", table.Indicator),
			logger.Int("cells", n),
		)
	}
	return table, nil
}

// Stored reads a persisted table back and sends it to the outputs
func (p *Pipeline) Stored(ctx context.Context, req StoredRequest) (*indicator.Table, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	name := strings.ToLower(strings.TrimSpace(req.Indicator))

	p.step("Read stored "+name, symbol)
	table, err := p.store.ReadTable(ctx, symbol, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for %s: %w", name, symbol, err)
	}

	if err := p.output(symbol, table, req.OutputCSV); err != nil {
		return nil, err
	}
	return table, nil
}

func (p *Pipeline) output(title string, table *indicator.Table, csvPath string) error {
	if p.printer != nil {
		if err := p.printer.Table(title, table); err != nil {
			return fmt.Errorf("failed to print results: %w", err)
		}
	}
	if csvPath == "" {
		return nil
	}

	abs, err := report.WriteCSVFile(csvPath, table)
	if err != nil {
		return err
	}
	p.step("Write a CSV file", abs)
	return nil
}

func (p *Pipeline) step(label, subject string) {
	if p.printer != nil {
		p.printer.Step(label, subject)
	}
}

// describe returns a display label and the resolved parameters of a calculator
func describe(calc indicator.Calculator) (string, []report.Param) {
	switch c := calc.(type) {
	case *indicator.MACDCalculator:
		cfg := c.Config()
		return "MACD", []report.Param{
			{Key: "fast_ema_span", Value: cfg.FastSpan},
			{Key: "slow_ema_span", Value: cfg.SlowSpan},
			{Key: "macd_ema_span", Value: cfg.SignalSpan},
		}
	case *indicator.BollingerCalculator:
		cfg := c.Config()
		return "Bollinger Bands", []report.Param{
			{Key: "window_size", Value: cfg.WindowSize},
			{Key: "sd_multiplier", Value: cfg.SDMultiplier},
		}
	case *indicator.RSICalculator:
		cfg := c.Config()
		return "RSI", []report.Param{
			{Key: "window_size", Value: cfg.WindowSize},
			{Key: "upper_line", Value: cfg.UpperLine},
			{Key: "lower_line", Value: cfg.LowerLine},
		}
	default:
		return calc.Name(), nil
	}
}

func fetchStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, data.ErrNotFound):
		return "not_found"
	case errors.Is(err, data.ErrRateLimited):
		return "rate_limited"
	default:
		return "error"
	}
}

// Merge outer-joins series on their timestamps into a table with one column per series
func Merge(series []*indicator.Series) *indicator.Table {
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		for _, pt := range s.Points {
			seen[pt.Time] = struct{}{}
		}
	}
	index := make([]time.Time, 0, len(seen))
	for ts := range seen {
		index = append(index, ts)
	}
	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })

	rowOf := make(map[time.Time]int, len(index))
	for i, ts := range index {
		rowOf[ts] = i
	}

	table := &indicator.Table{
		Indicator: HistoryIndicator,
		Index:     index,
		Columns:   make([]indicator.Column, len(series)),
	}
	for j, s := range series {
		cells := make([]indicator.Cell, len(index))
		for _, pt := range s.Points {
			if !pt.Missing() {
				cells[rowOf[pt.Time]] = indicator.Defined(pt.Value)
			}
		}
		table.Columns[j] = indicator.Column{Name: s.Name, Cells: cells}
	}
	return table
}

// DropUndefinedRows removes every row holding at least one undefined cell
func DropUndefinedRows(t *indicator.Table) *indicator.Table {
	out := &indicator.Table{
		Indicator: t.Indicator,
		Index:     make([]time.Time, 0, t.Rows()),
		Columns:   make([]indicator.Column, len(t.Columns)),
	}
	for j, c := range t.Columns {
		out.Columns[j] = indicator.Column{Name: c.Name, Cells: make([]indicator.Cell, 0, t.Rows())}
	}

rows:
	for i := 0; i < t.Rows(); i++ {
		for _, c := range t.Columns {
			if !c.Cells[i].Valid {
				continue rows
			}
		}
		out.Index = append(out.Index, t.Index[i])
		for j, c := range t.Columns {
			out.Columns[j].Cells = append(out.Columns[j].Cells, c.Cells[i])
		}
	}
	return out
}
