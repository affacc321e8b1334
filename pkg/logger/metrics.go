package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics shared by the CLI pipeline and the HTTP API

var (
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tifft_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tifft_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tifft_fetch_total",
			Help: "Total number of series fetches from remote data sources",
		},
		[]string{"provider", "status"}, // "success", "not_found", "rate_limited", "error"
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tifft_fetch_duration_seconds",
			Help:    "Duration of series fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	CalculationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tifft_calculations_total",
			Help: "Total number of indicator calculations",
		},
		[]string{"indicator", "status"},
	)

	CalculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tifft_calculation_duration_seconds",
			Help:    "Duration of indicator calculations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"indicator"},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tifft_cache_requests_total",
			Help: "Fetch cache lookups by result",
		},
		[]string{"store", "result"}, // "hit", "miss", "error"
	)

	RowsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tifft_rows_persisted_total",
			Help: "Indicator cells written to the database sink",
		},
		[]string{"indicator"},
	)
)
