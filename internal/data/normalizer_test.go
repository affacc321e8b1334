package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_ParseCSV(t *testing.T) {
	normalizer := NewNormalizer("fred")
	assert.Equal(t, "fred", normalizer.GetProviderName())

	payload := []byte("observation_date,SP500\n2020-01-03,3234.85\n2020-01-02,3257.85\n2020-01-06,.\n2020-01-07,\n")

	s, err := normalizer.ParseCSV("SP500", payload)
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())

	assert.Equal(t, "SP500", s.Name)
	// Sorted by date
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), s.Points[0].Time)
	assert.Equal(t, 3257.85, s.Points[0].Value)
	assert.Equal(t, 3234.85, s.Points[1].Value)
	assert.True(t, s.Points[2].Missing())
	assert.True(t, s.Points[3].Missing())
}

func TestNormalizer_ParseCSV_Invalid(t *testing.T) {
	normalizer := NewNormalizer("fred")

	_, err := normalizer.ParseCSV("X", []byte(""))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = normalizer.ParseCSV("X", []byte("<html>\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = normalizer.ParseCSV("X", []byte("DATE,X\nyesterday,1\n"))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = normalizer.ParseCSV("X", []byte("DATE,X\n2020-01-01,abc\n"))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = normalizer.ParseCSV("X", []byte("DATE,X\n2020-01-01,+Inf\n"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNormalizer_ParseJSON(t *testing.T) {
	normalizer := NewNormalizer("fred")

	payload := []byte(`{
		"realtime_start": "2024-01-01",
		"observations": [
			{"date": "2020-01-01", "value": "1.5"},
			{"date": "2020-01-02", "value": "."},
			{"date": "2020-01-03", "value": "2.25"}
		]
	}`)

	s, err := normalizer.ParseJSON("DGS10", payload)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, 1.5, s.Points[0].Value)
	assert.True(t, s.Points[1].Missing())
	assert.Equal(t, 2.25, s.Points[2].Value)
}

func TestNormalizer_ParseJSON_Invalid(t *testing.T) {
	normalizer := NewNormalizer("fred")

	_, err := normalizer.ParseJSON("X", nil)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = normalizer.ParseJSON("X", []byte("not json"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = normalizer.ParseJSON("X", []byte(`{"observations":[{"date":"2020-13-01","value":"1"}]}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
