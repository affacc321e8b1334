// Package cli implements the tifft command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohamedkhairy/tifft/internal/cache"
	"github.com/mohamedkhairy/tifft/internal/config"
	"github.com/mohamedkhairy/tifft/internal/data"
	"github.com/mohamedkhairy/tifft/internal/pipeline"
	"github.com/mohamedkhairy/tifft/internal/report"
	"github.com/mohamedkhairy/tifft/internal/storage"
	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// globalFlags are shared by every command
type globalFlags struct {
	dataSource string
	apiKey     string
	start      string
	end        string
	maxRows    int
	dropNA     bool
	outputCSV  string
	outputDB   bool
	debug      bool
	info       bool
}

// app holds what PersistentPreRunE prepared for a command
type app struct {
	flags globalFlags
	cfg   *config.Config
}

// NewRootCommand builds the tifft command tree
func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tifft",
		Short: "Technical indicators for financial trading",
		Long: `tifft fetches time series from a remote data source (FRED by default)
and calculates MACD, Bollinger Bands and RSI over them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.flags.dataSource, "data-source", "", "data source name (default from DATA_SOURCE, fred)")
	f.StringVar(&a.flags.apiKey, "api-key", "", "API key for the data source (default from FRED_API_KEY)")
	f.StringVar(&a.flags.start, "start", "", "start date (YYYY-MM-DD)")
	f.StringVar(&a.flags.end, "end", "", "end date (YYYY-MM-DD)")
	f.IntVar(&a.flags.maxRows, "max-rows", 60, "maximum rows to print, 0 for all")
	f.BoolVar(&a.flags.dropNA, "drop-na", false, "drop rows with missing values")
	f.StringVar(&a.flags.outputCSV, "output-csv", "", "write the results to a CSV file")
	f.BoolVar(&a.flags.outputDB, "output-db", false, "persist indicator results to PostgreSQL")
	f.BoolVar(&a.flags.debug, "debug", false, "set logging level to debug")
	f.BoolVar(&a.flags.info, "info", false, "set logging level to info")

	root.AddCommand(
		a.historyCommand(),
		a.macdCommand(),
		a.bbCommand(),
		a.rsiCommand(),
		a.showCommand(),
		a.serveCommand(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	switch {
	case a.flags.debug:
		level = "debug"
	case a.flags.info:
		level = "info"
	}
	if err := logger.Init(level, cfg.Environment); err != nil {
		return err
	}

	if a.flags.dataSource != "" {
		cfg.DataSource.Provider = a.flags.dataSource
	}
	if a.flags.apiKey != "" {
		cfg.DataSource.APIKey = a.flags.apiKey
	}
	if a.flags.outputDB {
		cfg.Database.Enabled = true
	}
	a.cfg = cfg

	logger.Debug("Configuration loaded",
		logger.String("data_source", cfg.DataSource.Provider),
		logger.String("cache", cfg.Cache.Type),
		logger.Bool("db", cfg.Database.Enabled),
	)
	return nil
}

// dateRange parses --start and --end
func (a *app) dateRange() (start, end time.Time, err error) {
	if a.flags.start != "" {
		if start, err = time.Parse(data.DateLayout, a.flags.start); err != nil {
			return start, end, fmt.Errorf("%w: --start %q is not YYYY-MM-DD", indicator.ErrInvalidInput, a.flags.start)
		}
	}
	if a.flags.end != "" {
		if end, err = time.Parse(data.DateLayout, a.flags.end); err != nil {
			return start, end, fmt.Errorf("%w: --end %q is not YYYY-MM-DD", indicator.ErrInvalidInput, a.flags.end)
		}
	}
	return start, end, nil
}

// newPipeline wires provider, cache and sink from the loaded configuration.
// The returned cleanup closes whatever was opened.
func (a *app) newPipeline(out io.Writer, console bool) (*pipeline.Pipeline, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	provider, err := data.NewProviderFactory().CreateProvider(a.cfg.DataSource.Provider, data.ProviderConfig{
		APIKey:      a.cfg.DataSource.APIKey,
		BaseURL:     a.cfg.DataSource.BaseURL,
		GraphURL:    a.cfg.DataSource.GraphURL,
		HTTPTimeout: a.cfg.DataSource.HTTPTimeout,
		UserAgent:   a.cfg.DataSource.UserAgent,
	})
	if err != nil {
		return nil, cleanup, err
	}

	store, err := cache.NewStore(a.cfg)
	if err != nil {
		return nil, cleanup, err
	}
	if store != nil {
		if c, ok := store.(interface{ Close() error }); ok {
			closers = append(closers, c.Close)
		}
		provider = cache.NewCachingProvider(provider, store, a.cfg.Cache.TTL)
	}

	var opts []pipeline.Option
	if console {
		opts = append(opts, pipeline.WithPrinter(report.NewPrinter(out, a.flags.maxRows)))
	}

	if a.cfg.Database.Enabled {
		pg, err := storage.NewPostgresStore(a.cfg.Database)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, pg.Close)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		opts = append(opts, pipeline.WithStore(pg))
	}

	return pipeline.New(provider, indicator.NewDefaultRegistry(), opts...), cleanup, nil
}

// normalizeSymbol trims and upper-cases a series name
func normalizeSymbol(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
