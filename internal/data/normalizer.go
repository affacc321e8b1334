package data

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/mohamedkhairy/tifft/pkg/logger"
)

var (
	// ErrUnsupportedFormat is returned when the payload format is not supported
	ErrUnsupportedFormat = errors.New("unsupported payload format")
	// ErrInvalidPayload is returned when the payload cannot be parsed
	ErrInvalidPayload = errors.New("invalid payload")
)

// missingMarker is how FRED encodes an absent observation
const missingMarker = "."

// Normalizer converts raw data source payloads into series
type Normalizer struct {
	providerName string
}

// NewNormalizer creates a new normalizer for the given provider
func NewNormalizer(providerName string) *Normalizer {
	return &Normalizer{providerName: providerName}
}

// GetProviderName returns the provider name
func (n *Normalizer) GetProviderName() string {
	return n.providerName
}

// ParseCSV parses a two-column date/value download (fredgraph.csv).
// The header row is skipped whatever its column names are.
func (n *Normalizer) ParseCSV(name string, payload []byte) (*indicator.Series, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty CSV body", ErrInvalidPayload)
	}

	r := csv.NewReader(bytes.NewReader(payload))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: expected a date and a value column, got %d columns", ErrUnsupportedFormat, len(header))
	}

	var points []indicator.Point
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrInvalidPayload, line, len(record))
		}

		point, err := parseObservation(record[0], record[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidPayload, line, err)
		}
		points = append(points, point)
	}

	return n.toSeries(name, points), nil
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// ParseJSON parses a fred/series/observations JSON response
func (n *Normalizer) ParseJSON(name string, payload []byte) (*indicator.Series, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty JSON body", ErrInvalidPayload)
	}

	var resp observationsResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	points := make([]indicator.Point, 0, len(resp.Observations))
	for i, obs := range resp.Observations {
		point, err := parseObservation(obs.Date, obs.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: observation %d: %v", ErrInvalidPayload, i, err)
		}
		points = append(points, point)
	}

	return n.toSeries(name, points), nil
}

func (n *Normalizer) toSeries(name string, points []indicator.Point) *indicator.Series {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})

	logger.Debug("Normalized series",
		logger.String("provider", n.providerName),
		logger.String("name", name),
		logger.Int("observations", len(points)),
	)

	return &indicator.Series{Name: name, Points: points}
}

func parseObservation(date, value string) (indicator.Point, error) {
	ts, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return indicator.Point{}, fmt.Errorf("invalid date %q", date)
	}

	value = strings.TrimSpace(value)
	if value == "" || value == missingMarker {
		return indicator.Point{Time: ts, Value: math.NaN()}, nil
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return indicator.Point{}, fmt.Errorf("invalid value %q", value)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return indicator.Point{}, fmt.Errorf("non-finite value %q", value)
	}
	return indicator.Point{Time: ts, Value: v}, nil
}
