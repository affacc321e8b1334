package indicator

import (
	"fmt"
)

// EMA calculates the Exponential Moving Average of values.
// The first EMA equals the first value; afterwards
// EMA_t = alpha*x_t + (1-alpha)*EMA_{t-1} with alpha = 2 / (span + 1).
// Every position of the result is defined.
func EMA(values []float64, span int) ([]float64, error) {
	if span < 1 {
		return nil, fmt.Errorf("%w: EMA span must be at least 1, got %d", ErrInvalidConfiguration, span)
	}
	return ema(values, span), nil
}

func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for t := 1; t < len(values); t++ {
		out[t] = alpha*values[t] + (1-alpha)*out[t-1]
	}
	return out
}
