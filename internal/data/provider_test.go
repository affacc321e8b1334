package data

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohamedkhairy/tifft/pkg/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Validate(t *testing.T) {
	assert.ErrorIs(t, Request{Symbol: "  "}.Validate(), ErrInvalidSymbol)

	start := time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	err := Request{Symbol: "SP500", Start: start, End: end}.Validate()
	assert.ErrorIs(t, err, indicator.ErrInvalidInput)

	assert.NoError(t, Request{Symbol: "SP500", Start: start}.Validate())
}

func TestMockProvider_Fetch(t *testing.T) {
	provider, err := NewMockProvider(ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Name())

	ctx := context.Background()
	s, err := provider.Fetch(ctx, Request{Symbol: "sp500"})
	require.NoError(t, err)
	assert.Equal(t, "SP500", s.Name)
	assert.Equal(t, mockObservations, s.Len())
	assert.NoError(t, s.Validate())
	assert.True(t, s.Points[mockGapEvery].Missing())
	assert.False(t, s.Points[0].Missing())

	// Deterministic per symbol
	again, err := provider.Fetch(ctx, Request{Symbol: "SP500"})
	require.NoError(t, err)
	assert.Equal(t, s.Values()[:10], again.Values()[:10])
	assert.Equal(t, 2, provider.(*MockProvider).Calls("sp500"))

	other, err := provider.Fetch(ctx, Request{Symbol: "DGS10"})
	require.NoError(t, err)
	assert.NotEqual(t, s.Points[1].Value, other.Points[1].Value)
}

func TestMockProvider_Range(t *testing.T) {
	provider, _ := NewMockProvider(ProviderConfig{})
	start := mockEpoch.AddDate(0, 0, 10)
	end := mockEpoch.AddDate(0, 0, 19)

	s, err := provider.Fetch(context.Background(), Request{Symbol: "X", Start: start, End: end})
	require.NoError(t, err)
	require.Equal(t, 10, s.Len())
	assert.True(t, s.Points[0].Time.Equal(start))
	assert.True(t, s.Points[9].Time.Equal(end))
}

func TestMockProvider_FixedSeriesAndErrors(t *testing.T) {
	provider, _ := NewMockProvider(ProviderConfig{})
	mock := provider.(*MockProvider)

	mock.SetSeries("flat", indicator.FromValues("flat", []float64{1, 1, 1}))
	s, err := provider.Fetch(context.Background(), Request{Symbol: "FLAT"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, s.Values())

	mock.SetError("gone", ErrNotFound)
	_, err = provider.Fetch(context.Background(), Request{Symbol: "gone"})
	assert.ErrorIs(t, err, ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = provider.Fetch(ctx, Request{Symbol: "X"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestProviderFactory(t *testing.T) {
	factory := NewProviderFactory()

	// Test list providers
	assert.Equal(t, []string{"fred", "mock"}, factory.ListProviders())

	// Test create provider
	provider, err := factory.CreateProvider("FRED", ProviderConfig{})
	require.NoError(t, err)
	assert.Equal(t, "fred", provider.Name())

	// Test unknown provider
	_, err = factory.CreateProvider("yahoo", ProviderConfig{})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	// Test register custom provider
	err = factory.RegisterProvider("custom", NewMockProvider)
	require.NoError(t, err)
	assert.Contains(t, factory.ListProviders(), "custom")

	// Test duplicate registration
	err = factory.RegisterProvider("mock", NewMockProvider)
	assert.Error(t, err)

	err = factory.RegisterProvider("nil", nil)
	assert.Error(t, err)
}
