package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/mohamedkhairy/tifft/internal/api"
	"github.com/mohamedkhairy/tifft/internal/pipeline"
	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

func (a *app) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <name>...",
		Short: "Fetch and print historical data",
		Example: `  tifft history SP500
  tifft history DGS10 DGS2 --start 2020-01-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := a.dateRange()
			if err != nil {
				return err
			}

			p, cleanup, err := a.newPipeline(cmd.OutOrStdout(), true)
			defer cleanup()
			if err != nil {
				return err
			}

			symbols := make([]string, len(args))
			for i, arg := range args {
				symbols[i] = normalizeSymbol(arg)
			}

			_, err = p.History(cmd.Context(), pipeline.HistoryRequest{
				Symbols:   symbols,
				Start:     start,
				End:       end,
				DropNA:    a.flags.dropNA,
				OutputCSV: a.flags.outputCSV,
			})
			return err
		},
	}
}

func (a *app) macdCommand() *cobra.Command {
	var fast, slow, signal int

	cmd := &cobra.Command{
		Use:   "macd <name>",
		Short: "Calculate MACD (Moving Average Convergence Divergence)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.calculate(cmd, indicator.KindMACD, args[0], indicator.Params{
				indicator.ParamFastSpan:   cast.ToString(fast),
				indicator.ParamSlowSpan:   cast.ToString(slow),
				indicator.ParamSignalSpan: cast.ToString(signal),
			})
		},
	}

	defaults := indicator.DefaultMACDConfig()
	cmd.Flags().IntVar(&fast, "fast-ema-span", defaults.FastSpan, "span for fast EMA")
	cmd.Flags().IntVar(&slow, "slow-ema-span", defaults.SlowSpan, "span for slow EMA")
	cmd.Flags().IntVar(&signal, "macd-ema-span", defaults.SignalSpan, "span for MACD EMA")
	return cmd
}

func (a *app) bbCommand() *cobra.Command {
	var window int
	var multiplier float64

	cmd := &cobra.Command{
		Use:   "bb <name>",
		Short: "Calculate Bollinger Bands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.calculate(cmd, indicator.KindBollinger, args[0], indicator.Params{
				indicator.ParamWindowSize:   cast.ToString(window),
				indicator.ParamSDMultiplier: cast.ToString(multiplier),
			})
		},
	}

	defaults := indicator.DefaultBollingerConfig()
	cmd.Flags().IntVar(&window, "bb-window", defaults.WindowSize, "window size for Bollinger Bands")
	cmd.Flags().Float64Var(&multiplier, "sd-multiplier", defaults.SDMultiplier, "multiplier for the standard deviation")
	return cmd
}

func (a *app) rsiCommand() *cobra.Command {
	var window int
	var upper, lower float64

	cmd := &cobra.Command{
		Use:   "rsi <name>",
		Short: "Calculate RSI (Relative Strength Index)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.calculate(cmd, indicator.KindRSI, args[0], indicator.Params{
				indicator.ParamWindowSize: cast.ToString(window),
				indicator.ParamUpperLine:  cast.ToString(upper),
				indicator.ParamLowerLine:  cast.ToString(lower),
			})
		},
	}

	defaults := indicator.DefaultRSIConfig()
	cmd.Flags().IntVar(&window, "rsi-window", defaults.WindowSize, "window size for RSI")
	cmd.Flags().Float64Var(&upper, "upper-rsi", defaults.UpperLine, "upper threshold for RSI")
	cmd.Flags().Float64Var(&lower, "lower-rsi", defaults.LowerLine, "lower threshold for RSI")
	return cmd
}

func (a *app) calculate(cmd *cobra.Command, kind, name string, params indicator.Params) error {
	start, end, err := a.dateRange()
	if err != nil {
		return err
	}

	p, cleanup, err := a.newPipeline(cmd.OutOrStdout(), true)
	defer cleanup()
	if err != nil {
		return err
	}

	_, err = p.Calculate(cmd.Context(), pipeline.CalculateRequest{
		Kind:      kind,
		Symbol:    normalizeSymbol(name),
		Start:     start,
		End:       end,
		Params:    params,
		DropNA:    a.flags.dropNA,
		OutputCSV: a.flags.outputCSV,
		Persist:   a.flags.outputDB,
	})
	return err
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name> <indicator>",
		Short: "Print an indicator table persisted with --output-db",
		Example: `  tifft show SP500 rsi_14
  tifft show DGS10 macd_12_26_9 --output-csv macd.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Database.Enabled = true

			p, cleanup, err := a.newPipeline(cmd.OutOrStdout(), true)
			defer cleanup()
			if err != nil {
				return err
			}

			_, err = p.Stored(cmd.Context(), pipeline.StoredRequest{
				Symbol:    normalizeSymbol(args[0]),
				Indicator: args[1],
				OutputCSV: a.flags.outputCSV,
			})
			return err
		},
	}
}

func (a *app) serveCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve indicators over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port > 0 {
				a.cfg.API.Port = port
			}

			p, cleanup, err := a.newPipeline(cmd.OutOrStdout(), false)
			defer cleanup()
			if err != nil {
				return err
			}

			server := api.NewServer(a.cfg.API, p)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server",
					logger.String("addr", server.Addr),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			// Graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from API_PORT)")
	return cmd
}
