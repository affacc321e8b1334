package indicator

import (
	"fmt"
	"math"
	"time"
)

// Point is a single observation of a series. A NaN value marks a missing observation.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Missing reports whether the observation has no value
func (p Point) Missing() bool {
	return math.IsNaN(p.Value)
}

// Series is an ordered, timestamp-indexed sequence of observations
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// NewSeries builds a series from parallel time and value slices.
// Timestamps must be non-decreasing; values must be finite or NaN (missing).
func NewSeries(name string, times []time.Time, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values", ErrInvalidInput, len(times), len(values))
	}

	points := make([]Point, len(values))
	for i := range values {
		points[i] = Point{Time: times[i], Value: values[i]}
	}

	s := &Series{Name: name, Points: points}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// FromValues builds a series without timestamps, for plain lists of prices
func FromValues(name string, values []float64) *Series {
	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{Value: v}
	}
	return &Series{Name: name, Points: points}
}

// Validate checks ordering and value domain. An empty series is valid here;
// calculators reject it separately.
func (s *Series) Validate() error {
	for i, p := range s.Points {
		if math.IsInf(p.Value, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidInput, i)
		}
		if i > 0 && p.Time.Before(s.Points[i-1].Time) {
			return fmt.Errorf("%w: timestamp at index %d precedes index %d", ErrInvalidInput, i, i-1)
		}
	}
	return nil
}

// Len returns the number of observations
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Values returns a copy of the observation values
func (s *Series) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// Times returns a copy of the index
func (s *Series) Times() []time.Time {
	times := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		times[i] = p.Time
	}
	return times
}

// DropMissing returns a new series without missing observations
func (s *Series) DropMissing() *Series {
	points := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if !p.Missing() {
			points = append(points, p)
		}
	}
	return &Series{Name: s.Name, Points: points}
}

// Between returns the observations within [start, end]. A zero bound is open.
func (s *Series) Between(start, end time.Time) *Series {
	points := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if !start.IsZero() && p.Time.Before(start) {
			continue
		}
		if !end.IsZero() && p.Time.After(end) {
			continue
		}
		points = append(points, p)
	}
	return &Series{Name: s.Name, Points: points}
}

// prepare validates the series for calculation and returns the
// forward-filled values along with the index of the first observed value.
// When every value is missing, first equals len(values).
func prepare(s *Series) (filled []float64, first int, err error) {
	if s.Len() == 0 {
		return nil, 0, fmt.Errorf("%w: series is empty", ErrInvalidInput)
	}
	if err := s.Validate(); err != nil {
		return nil, 0, err
	}

	filled = make([]float64, len(s.Points))
	first = len(s.Points)
	last := math.NaN()
	for i, p := range s.Points {
		if !p.Missing() {
			last = p.Value
			if first == len(s.Points) {
				first = i
			}
		}
		filled[i] = last
	}
	return filled, first, nil
}
