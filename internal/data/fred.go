package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

const (
	defaultFREDBaseURL  = "https://api.stlouisfed.org/fred"
	defaultFREDGraphURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"
	defaultHTTPTimeout  = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 32 << 20
)

// FREDProvider downloads series from the Federal Reserve Economic Data service.
// Without an API key it uses the public graph CSV download, with one the JSON web service.
type FREDProvider struct {
	config     ProviderConfig
	client     *http.Client
	normalizer *Normalizer
}

// NewFREDProvider creates a new FRED provider
func NewFREDProvider(config ProviderConfig) (Provider, error) {
	if config.BaseURL == "" {
		config.BaseURL = defaultFREDBaseURL
	}
	if config.GraphURL == "" {
		config.GraphURL = defaultFREDGraphURL
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = defaultHTTPTimeout
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.HTTPTimeout}
	}

	return &FREDProvider{
		config:     config,
		client:     client,
		normalizer: NewNormalizer("fred"),
	}, nil
}

// Name returns the provider name
func (p *FREDProvider) Name() string {
	return "fred"
}

// Fetch downloads one series and trims it to the requested range
func (p *FREDProvider) Fetch(ctx context.Context, req Request) (*indicator.Series, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))

	endpoint, err := p.endpoint(symbol, req)
	if err != nil {
		return nil, err
	}

	logger.Info("Fetching series",
		logger.String("provider", p.Name()),
		logger.String("symbol", symbol),
		logger.Bool("api", p.config.APIKey != ""),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if p.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", p.config.UserAgent)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from fred: %w", symbol, redactKey(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response for %s: %w", symbol, err)
	}

	if err := statusError(resp.StatusCode, symbol); err != nil {
		logger.Warn("FRED request failed",
			logger.String("symbol", symbol),
			logger.Int("status", resp.StatusCode),
		)
		return nil, err
	}

	var series *indicator.Series
	if p.config.APIKey != "" {
		series, err = p.normalizer.ParseJSON(symbol, body)
	} else {
		series, err = p.normalizer.ParseCSV(symbol, body)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", symbol, err)
	}

	return series.Between(req.Start, req.End), nil
}

// redactKey masks the api_key query value in transport errors, whose
// message includes the request URL
func redactKey(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		uerr.URL = "(redacted)"
		return err
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
		uerr.URL = u.String()
	}
	return err
}

func (p *FREDProvider) endpoint(symbol string, req Request) (string, error) {
	var (
		base string
		q    = url.Values{}
	)

	if p.config.APIKey != "" {
		base = strings.TrimRight(p.config.BaseURL, "/") + "/series/observations"
		q.Set("series_id", symbol)
		q.Set("api_key", p.config.APIKey)
		q.Set("file_type", "json")
		if !req.Start.IsZero() {
			q.Set("observation_start", req.Start.Format(DateLayout))
		}
		if !req.End.IsZero() {
			q.Set("observation_end", req.End.Format(DateLayout))
		}
	} else {
		base = p.config.GraphURL
		q.Set("id", symbol)
		if !req.Start.IsZero() {
			q.Set("cosd", req.Start.Format(DateLayout))
		}
		if !req.End.IsZero() {
			q.Set("coed", req.End.Format(DateLayout))
		}
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid fred url %q: %w", base, err)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func statusError(status int, symbol string) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusNotFound, status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrNotFound, symbol)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, symbol)
	default:
		return fmt.Errorf("fred returned status %d for %s", status, symbol)
	}
}
