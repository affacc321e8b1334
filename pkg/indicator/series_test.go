package indicator

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries_Validation(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewSeries("X", []time.Time{day}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewSeries("X", []time.Time{day, day.AddDate(0, 0, -1)}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewSeries("X", []time.Time{day, day}, []float64{1, math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// Duplicate timestamps and missing values are allowed
	s, err := NewSeries("X", []time.Time{day, day}, []float64{1, math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestSeries_DropMissingAndBetween(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{day, day.AddDate(0, 0, 1), day.AddDate(0, 0, 2), day.AddDate(0, 0, 3)}
	s, err := NewSeries("X", times, []float64{1, math.NaN(), 3, 4})
	require.NoError(t, err)

	dropped := s.DropMissing()
	assert.Equal(t, []float64{1, 3, 4}, dropped.Values())

	between := s.Between(times[1], times[2])
	assert.Equal(t, 2, between.Len())
	assert.Equal(t, times[1], between.Points[0].Time)

	assert.Equal(t, 4, s.Between(time.Time{}, time.Time{}).Len())
}

func TestSeries_JSONRoundTripKeepsMissing(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s, err := NewSeries("DGS10", []time.Time{day, day.AddDate(0, 0, 1)}, []float64{4.25, math.NaN()})
	require.NoError(t, err)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":null`)

	var decoded Series
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "DGS10", decoded.Name)
	assert.Equal(t, 4.25, decoded.Points[0].Value)
	assert.True(t, decoded.Points[1].Missing())
}

func TestTable_JSONUndefinedIsNull(t *testing.T) {
	rsi, _ := NewRSICalculator(RSIConfig{WindowSize: 1, UpperLine: 70, LowerLine: 30})
	table, err := rsi.Calculate(FromValues("X", []float64{1, 2}))
	require.NoError(t, err)

	data, err := json.Marshal(table)
	require.NoError(t, err)

	var decoded Table
	require.NoError(t, json.Unmarshal(data, &decoded))
	cells, ok := decoded.Column(ColumnRSI)
	require.True(t, ok)
	assert.Equal(t, []Cell{Undefined, Defined(100)}, cells)
}
