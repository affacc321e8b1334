package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/mohamedkhairy/tifft/internal/data"
	"github.com/mohamedkhairy/tifft/internal/pipeline"
	"github.com/mohamedkhairy/tifft/internal/storage"
	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

// Query parameters with a fixed meaning; every other one must be an indicator parameter
const (
	queryStart  = "start"
	queryEnd    = "end"
	queryDropNA = "drop_na"
)

// upstreamFailure replaces the message of 5xx responses, whose errors can
// carry transport details
const upstreamFailure = "failed to fetch data from upstream source"

// IndicatorHandler handles indicator and series endpoints
type IndicatorHandler struct {
	pipeline *pipeline.Pipeline
}

// NewIndicatorHandler creates a new indicator handler
func NewIndicatorHandler(p *pipeline.Pipeline) *IndicatorHandler {
	return &IndicatorHandler{pipeline: p}
}

// TableResponse is the JSON form of a calculated table
type TableResponse struct {
	Symbol string `json:"symbol"`
	*indicator.Table
}

// ListIndicators handles GET /api/v1/indicators
func (h *IndicatorHandler) ListIndicators(w http.ResponseWriter, r *http.Request) {
	all := h.pipeline.Registry().AllMetadata()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"indicators": all,
		"count":      len(all),
	})
}

// GetIndicator handles GET /api/v1/indicators/{kind}/{symbol}
func (h *IndicatorHandler) GetIndicator(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := strings.ToLower(vars["kind"])
	symbol := strings.ToUpper(vars["symbol"])

	start, end, dropNA, err := parseRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	meta, ok := h.pipeline.Registry().Metadata(kind)
	if !ok {
		h.respondWithFailure(w, fmt.Errorf("%w: %s", indicator.ErrUnknownIndicator, kind), kind, symbol)
		return
	}

	params := indicator.Params{}
	for key, values := range r.URL.Query() {
		switch key {
		case queryStart, queryEnd, queryDropNA:
			continue
		}
		if _, known := meta.Parameters[key]; !known {
			respondWithError(w, http.StatusBadRequest,
				fmt.Sprintf("unknown parameter %q for %s", key, kind))
			return
		}
		if len(values) > 0 {
			params[key] = values[len(values)-1]
		}
	}

	table, err := h.pipeline.Calculate(r.Context(), pipeline.CalculateRequest{
		Kind:   kind,
		Symbol: symbol,
		Start:  start,
		End:    end,
		Params: params,
		DropNA: dropNA,
	})
	if err != nil {
		h.respondWithFailure(w, err, kind, symbol)
		return
	}

	respondWithJSON(w, http.StatusOK, TableResponse{Symbol: symbol, Table: table})
}

// GetSeries handles GET /api/v1/series/{symbol}
func (h *IndicatorHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	start, end, dropNA, err := parseRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.pipeline.Fetch(r.Context(), data.Request{Symbol: symbol, Start: start, End: end})
	if err != nil {
		h.respondWithFailure(w, err, "series", symbol)
		return
	}
	if dropNA {
		s = s.DropMissing()
	}

	respondWithJSON(w, http.StatusOK, s)
}

// GetStored handles GET /api/v1/stored/{symbol}/{indicator}
func (h *IndicatorHandler) GetStored(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := strings.ToUpper(vars["symbol"])
	name := strings.ToLower(vars["indicator"])

	table, err := h.pipeline.Stored(r.Context(), pipeline.StoredRequest{Symbol: symbol, Indicator: name})
	if err != nil {
		h.respondWithFailure(w, err, name, symbol)
		return
	}

	respondWithJSON(w, http.StatusOK, TableResponse{Symbol: symbol, Table: table})
}

func (h *IndicatorHandler) respondWithFailure(w http.ResponseWriter, err error, kind, symbol string) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			logger.String("kind", kind),
			logger.String("symbol", symbol),
			logger.ErrorField(err),
		)
		respondWithError(w, status, upstreamFailure)
		return
	}
	respondWithError(w, status, err.Error())
}

// StatusFor maps a pipeline error to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, indicator.ErrInvalidConfiguration),
		errors.Is(err, indicator.ErrInvalidInput),
		errors.Is(err, data.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, indicator.ErrUnknownIndicator),
		errors.Is(err, data.ErrNotFound),
		errors.Is(err, storage.ErrTableNotFound),
		errors.Is(err, pipeline.ErrNoStore):
		return http.StatusNotFound
	case errors.Is(err, data.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func parseRange(r *http.Request) (start, end time.Time, dropNA bool, err error) {
	q := r.URL.Query()
	if v := q.Get(queryStart); v != "" {
		if start, err = time.Parse(data.DateLayout, v); err != nil {
			return start, end, false, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", v)
		}
	}
	if v := q.Get(queryEnd); v != "" {
		if end, err = time.Parse(data.DateLayout, v); err != nil {
			return start, end, false, fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", v)
		}
	}
	if v := q.Get(queryDropNA); v != "" {
		if dropNA, err = strconv.ParseBool(v); err != nil {
			return start, end, false, fmt.Errorf("invalid drop_na %q", v)
		}
	}
	return start, end, dropNA, nil
}
