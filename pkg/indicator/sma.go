package indicator

import (
	"fmt"
	"math"
)

// SMA calculates the Simple Moving Average over a trailing window.
// Positions with fewer than window values are Undefined.
func SMA(values []float64, window int) ([]Cell, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: SMA window must be at least 1, got %d", ErrInvalidConfiguration, window)
	}

	out := make([]Cell, len(values))
	for t := window - 1; t < len(values); t++ {
		out[t] = Defined(windowMean(values[t-window+1 : t+1]))
	}
	return out, nil
}

// windowMean averages the window relative to its first value so that a
// window of identical values yields exactly that value.
func windowMean(window []float64) float64 {
	base := window[0]
	var sum float64
	for _, v := range window {
		sum += v - base
	}
	return base + sum/float64(len(window))
}

// windowStdDev is the sample standard deviation (divisor n-1) around mean.
// A single-value window has no spread and yields 0. Deviations are scaled by
// the largest one when squaring them would overflow.
func windowStdDev(window []float64, mean float64) float64 {
	n := len(window)
	if n < 2 {
		return 0
	}
	var peak float64
	for _, v := range window {
		peak = math.Max(peak, math.Abs(v-mean))
	}
	scale := 1.0
	if peak > largeDeviation {
		scale = peak
	}
	var ss float64
	for _, v := range window {
		d := (v - mean) / scale
		ss += d * d
	}
	return scale * math.Sqrt(ss/float64(n-1))
}

// largeDeviation keeps n squared deviations below MaxFloat64
const largeDeviation = 1e150
