package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohamedkhairy/tifft/internal/config"
	"github.com/mohamedkhairy/tifft/internal/pipeline"
)

// NewRouter sets up every route of the API
func NewRouter(p *pipeline.Pipeline) *mux.Router {
	handler := NewIndicatorHandler(p)

	router := mux.NewRouter()
	router.Use(MetricsMiddleware())

	// API v1 routes
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/indicators", handler.ListIndicators).Methods("GET")
	v1.HandleFunc("/indicators/{kind}/{symbol}", handler.GetIndicator).Methods("GET")
	v1.HandleFunc("/series/{symbol}", handler.GetSeries).Methods("GET")
	v1.HandleFunc("/stored/{symbol}/{indicator}", handler.GetStored).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	return router
}

// NewServer wraps the router with the middleware chain in an http.Server
func NewServer(cfg config.APIConfig, p *pipeline.Pipeline) *http.Server {
	middlewares := ChainMiddleware(
		CORSMiddleware(),
		LoggingMiddleware(),
		ErrorHandlingMiddleware(),
		RateLimitMiddleware(cfg.RateLimitRPS, cfg.TrustProxy),
	)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      middlewares(NewRouter(p)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
