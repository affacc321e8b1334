package indicator

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestMACD_NewMACDCalculator(t *testing.T) {
	calc, err := NewMACDCalculator(DefaultMACDConfig())
	if err != nil {
		t.Fatalf("Failed to create MACD: %v", err)
	}
	if calc.Name() != "macd_12_26_9" {
		t.Errorf("Expected name 'macd_12_26_9', got '%s'", calc.Name())
	}

	invalid := []MACDConfig{
		{FastSpan: 0, SlowSpan: 26, SignalSpan: 9},
		{FastSpan: 12, SlowSpan: -1, SignalSpan: 9},
		{FastSpan: 12, SlowSpan: 26, SignalSpan: 0},
	}
	for _, cfg := range invalid {
		if _, err := NewMACDCalculator(cfg); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("Expected ErrInvalidConfiguration for %+v, got %v", cfg, err)
		}
	}
}

func TestMACD_EmptySeries(t *testing.T) {
	calc, _ := NewMACDCalculator(DefaultMACDConfig())
	_, err := calc.Calculate(FromValues("EMPTY", nil))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestMACD_ShortSeriesFullyDefined(t *testing.T) {
	calc, _ := NewMACDCalculator(MACDConfig{FastSpan: 12, SlowSpan: 26, SignalSpan: 9})
	values := []float64{10, 11, 12, 11, 10}

	table, err := calc.Calculate(FromValues("X", values))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if table.Rows() != 5 {
		t.Fatalf("Expected 5 rows, got %d", table.Rows())
	}
	for i := 0; i < table.Rows(); i++ {
		for j, cell := range table.Row(i) {
			if !cell.Valid {
				t.Errorf("Row %d column %s is undefined", i, table.Columns[j].Name)
			}
		}
	}

	fast := mustColumn(t, table, ColumnFastEMA)
	slow := mustColumn(t, table, ColumnSlowEMA)
	if fast[0].Value != 10 || slow[0].Value != 10 {
		t.Errorf("EMAs should be seeded with 10, got fast=%f slow=%f", fast[0].Value, slow[0].Value)
	}

	fastAlpha := 2.0 / 13.0
	slowAlpha := 2.0 / 27.0
	expFast, expSlow := 10.0, 10.0
	for i := 1; i < len(values); i++ {
		expFast = fastAlpha*values[i] + (1-fastAlpha)*expFast
		expSlow = slowAlpha*values[i] + (1-slowAlpha)*expSlow
		if fast[i].Value != expFast {
			t.Errorf("Fast EMA at %d: expected %v, got %v", i, expFast, fast[i].Value)
		}
		if slow[i].Value != expSlow {
			t.Errorf("Slow EMA at %d: expected %v, got %v", i, expSlow, slow[i].Value)
		}
	}
}

func TestMACD_HistogramIdentity(t *testing.T) {
	calc, _ := NewMACDCalculator(DefaultMACDConfig())
	table, err := calc.Calculate(dailySeries(t, randomWalk(1, 300)))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	macd := mustColumn(t, table, ColumnMACD)
	signal := mustColumn(t, table, ColumnSignal)
	histogram := mustColumn(t, table, ColumnHistogram)
	for i := range histogram {
		if histogram[i].Value != macd[i].Value-signal[i].Value {
			t.Errorf("Row %d: histogram %v != macd %v - signal %v",
				i, histogram[i].Value, macd[i].Value, signal[i].Value)
		}
	}
}

func TestMACD_EqualSpansGiveZeroLine(t *testing.T) {
	calc, err := NewMACDCalculator(MACDConfig{FastSpan: 10, SlowSpan: 10, SignalSpan: 5})
	if err != nil {
		t.Fatalf("Equal spans should be accepted: %v", err)
	}
	table, _ := calc.Calculate(dailySeries(t, randomWalk(2, 100)))

	for i, cell := range mustColumn(t, table, ColumnMACD) {
		if cell.Value != 0 {
			t.Errorf("Row %d: expected MACD 0, got %v", i, cell.Value)
		}
	}
}

func TestMACD_Trend(t *testing.T) {
	tests := []struct {
		macd, histogram, expected float64
	}{
		{1, 0.5, 2},
		{-1, 0.5, 1},
		{-1, -0.5, -2},
		{1, -0.5, -1},
		{1, 0, 0},
	}
	for _, tt := range tests {
		if got := macdTrend(tt.macd, tt.histogram); got != tt.expected {
			t.Errorf("macdTrend(%v, %v) = %v, expected %v", tt.macd, tt.histogram, got, tt.expected)
		}
	}
}

func TestMACD_LeadingMissingValues(t *testing.T) {
	calc, _ := NewMACDCalculator(MACDConfig{FastSpan: 3, SlowSpan: 6, SignalSpan: 2})
	values := []float64{math.NaN(), math.NaN(), 10, math.NaN(), 12}
	table, err := calc.Calculate(FromValues("X", values))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	fast := mustColumn(t, table, ColumnFastEMA)
	value := mustColumn(t, table, ColumnValue)
	if fast[0].Valid || fast[1].Valid {
		t.Error("Rows before the first observation should be undefined")
	}
	if fast[2].Value != 10 {
		t.Errorf("EMA should seed at first observation, got %v", fast[2].Value)
	}
	// Missing observation is forward filled for the EMA but reported as missing
	if fast[3].Value != 10 {
		t.Errorf("Forward-filled EMA should stay at 10, got %v", fast[3].Value)
	}
	if value[3].Valid {
		t.Error("Value column should keep the missing observation undefined")
	}
}

func TestMACD_Idempotent(t *testing.T) {
	calc, _ := NewMACDCalculator(DefaultMACDConfig())
	series := dailySeries(t, randomWalk(3, 80))

	first, _ := calc.Calculate(series)
	second, _ := calc.Calculate(series)
	if !reflect.DeepEqual(first, second) {
		t.Error("Repeated calculation should produce identical tables")
	}
}

func TestMACD_Columns(t *testing.T) {
	calc, _ := NewMACDCalculator(DefaultMACDConfig())
	expected := []string{"value", "fast_ema", "slow_ema", "macd", "signal", "histogram", "trend"}
	if !reflect.DeepEqual(calc.Columns(), expected) {
		t.Errorf("Expected columns %v, got %v", expected, calc.Columns())
	}
}

func TestMACD_OverflowRejected(t *testing.T) {
	// A span of 1 follows the input, so fast - slow exceeds MaxFloat64
	calc, _ := NewMACDCalculator(MACDConfig{FastSpan: 1, SlowSpan: 26, SignalSpan: 9})
	_, err := calc.Calculate(FromValues("X", []float64{1e308, -1e308, 1e308, -1e308, 1e308}))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestMACD_LargeValuesKeepIdentity(t *testing.T) {
	calc, _ := NewMACDCalculator(MACDConfig{FastSpan: 2, SlowSpan: 3, SignalSpan: 2})
	table, err := calc.Calculate(FromValues("X", []float64{1e307, -1e307, 1e307, -1e307, 1e307}))
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	macd := mustColumn(t, table, ColumnMACD)
	signal := mustColumn(t, table, ColumnSignal)
	histogram := mustColumn(t, table, ColumnHistogram)
	for i := range histogram {
		if histogram[i].Value != macd[i].Value-signal[i].Value {
			t.Errorf("Row %d: histogram %v != macd - signal", i, histogram[i].Value)
		}
		if math.IsInf(histogram[i].Value, 0) || math.IsNaN(histogram[i].Value) {
			t.Errorf("Row %d: histogram not finite", i)
		}
	}
}
