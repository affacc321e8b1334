package indicator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Default(t *testing.T) {
	registry := NewDefaultRegistry()
	assert.Equal(t, []string{"bb", "macd", "rsi"}, registry.List())

	metadata, ok := registry.Metadata(KindRSI)
	require.True(t, ok)
	assert.Equal(t, "rsi", metadata.Kind)
	assert.Equal(t, "momentum", metadata.Category)
	assert.Equal(t, "14", metadata.Parameters[ParamWindowSize])
	assert.Equal(t, rsiColumns, metadata.Columns)

	assert.Len(t, registry.AllMetadata(), 3)
}

func TestRegistry_Build(t *testing.T) {
	registry := NewDefaultRegistry()

	calc, err := registry.Build(KindMACD, Params{ParamFastSpan: "5", ParamSlowSpan: "10"})
	require.NoError(t, err)
	assert.Equal(t, "macd_5_10_9", calc.Name())

	calc, err = registry.Build(KindBollinger, Params{ParamSDMultiplier: "2.5"})
	require.NoError(t, err)
	assert.Equal(t, "bb_20_2.5", calc.Name())

	calc, err = registry.Build(KindRSI, nil)
	require.NoError(t, err)
	assert.Equal(t, "rsi_14", calc.Name())
}

func TestRegistry_BuildErrors(t *testing.T) {
	registry := NewDefaultRegistry()

	_, err := registry.Build("stoch", nil)
	assert.ErrorIs(t, err, ErrUnknownIndicator)

	_, err = registry.Build(KindRSI, Params{ParamWindowSize: "abc"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = registry.Build(KindRSI, Params{ParamUpperLine: "20", ParamLowerLine: "80"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = registry.Build(KindMACD, Params{ParamSignalSpan: "0"})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	factory := func(Params) (Calculator, error) { return NewRSICalculator(DefaultRSIConfig()) }

	require.NoError(t, registry.Register("custom", factory, Metadata{Category: "momentum"}))
	assert.Error(t, registry.Register("custom", factory, Metadata{}))
	assert.Error(t, registry.Register("", factory, Metadata{}))
	assert.Error(t, registry.Register("nil", nil, Metadata{}))
}

func TestRegistry_ConcurrentBuild(t *testing.T) {
	registry := NewDefaultRegistry()
	series := FromValues("X", randomWalk(9, 100))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(kind string) {
			defer wg.Done()
			calc, err := registry.Build(kind, nil)
			if !assert.NoError(t, err) {
				return
			}
			_, err = calc.Calculate(series)
			assert.NoError(t, err)
		}(registry.List()[i%3])
	}
	wg.Wait()
}

func TestParams(t *testing.T) {
	p := Params{"a": "12", "b": " 2.5 ", "c": "", "d": "x"}

	v, err := p.Int("a", 1)
	require.NoError(t, err)
	assert.Equal(t, 12, v)

	f, err := p.Float("b", 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	v, err = p.Int("c", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = p.Int("missing", 9)
	require.NoError(t, err)
	assert.Equal(t, 9, v)

	_, err = p.Float("d", 0)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParams_DecimalOnly(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "010", want: 10},
		{raw: "+7", want: 7},
		{raw: "5.0", want: 5},
		{raw: "1e2", want: 100},
		{raw: "0x10", wantErr: true},
		{raw: "0o17", wantErr: true},
		{raw: "0b11", wantErr: true},
		{raw: "2.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, err := Params{ParamWindowSize: tt.raw}.Int(ParamWindowSize, 1)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	_, err := Params{ParamSDMultiplier: "0x1p4"}.Float(ParamSDMultiplier, 2)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	calc, err := NewDefaultRegistry().Build(KindBollinger, Params{ParamWindowSize: "010"})
	require.NoError(t, err)
	assert.Equal(t, "bb_10_2", calc.Name())
}
