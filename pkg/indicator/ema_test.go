package indicator

import (
	"errors"
	"math"
	"testing"
)

func TestEMA_InvalidSpan(t *testing.T) {
	_, err := EMA([]float64{1, 2, 3}, 0)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestEMA_SeededWithFirstValue(t *testing.T) {
	values := []float64{100, 105, 103, 110}
	out, err := EMA(values, 3)
	if err != nil {
		t.Fatalf("EMA failed: %v", err)
	}

	if out[0] != 100 {
		t.Errorf("Expected first EMA 100, got %f", out[0])
	}

	alpha := 2.0 / 4.0
	expected := 100.0
	for i := 1; i < len(values); i++ {
		expected = alpha*values[i] + (1-alpha)*expected
		if out[i] != expected {
			t.Errorf("Index %d: expected %f, got %f", i, expected, out[i])
		}
	}
}

func TestEMA_SpanOneTracksInput(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5}
	out, _ := EMA(values, 1)
	for i := range values {
		if out[i] != values[i] {
			t.Errorf("Index %d: expected %f, got %f", i, values[i], out[i])
		}
	}
}

func TestEMA_Convergence(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 100
	}
	values[0] = 50

	out, _ := EMA(values, 20)
	if math.Abs(out[len(out)-1]-100) > 0.01 {
		t.Errorf("EMA should converge to 100, got %f", out[len(out)-1])
	}
}

func TestEMA_Empty(t *testing.T) {
	out, err := EMA(nil, 5)
	if err != nil {
		t.Fatalf("EMA failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Expected empty output, got %d values", len(out))
	}
}
