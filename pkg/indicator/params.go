package indicator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Params carries raw indicator parameters as they arrive from flags or query strings
type Params map[string]string

// Int returns the named parameter as an int, or def when it is absent.
// Values are read in base 10, so "010" is 10; integral forms such as "5.0"
// or "1e2" are accepted.
func (p Params) Int(key string, def int) (int, error) {
	raw, ok := p.lookup(key)
	if !ok {
		return def, nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	if !decimal(raw) {
		return 0, fmt.Errorf("%w: %s: %q is not a decimal integer", ErrInvalidConfiguration, key, raw)
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, key, err)
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidConfiguration, key, raw)
	}
	return int(f), nil
}

// Float returns the named parameter as a float64, or def when it is absent
func (p Params) Float(key string, def float64) (float64, error) {
	raw, ok := p.lookup(key)
	if !ok {
		return def, nil
	}
	if !decimal(raw) {
		return 0, fmt.Errorf("%w: %s: %q is not a decimal number", ErrInvalidConfiguration, key, raw)
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, key, err)
	}
	return v, nil
}

func (p Params) lookup(key string) (string, bool) {
	raw, ok := p[key]
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

// decimal reports whether raw is written in plain decimal notation
func decimal(raw string) bool {
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
		case r == '+', r == '-', r == '.', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return true
}

// Parameter names understood by the built-in factories
const (
	ParamFastSpan     = "fast_span"
	ParamSlowSpan     = "slow_span"
	ParamSignalSpan   = "signal_span"
	ParamWindowSize   = "window_size"
	ParamSDMultiplier = "sd_multiplier"
	ParamUpperLine    = "upper_line"
	ParamLowerLine    = "lower_line"
)

// MACDConfigFromParams reads a MACD configuration, defaulting absent parameters
func MACDConfigFromParams(p Params) (MACDConfig, error) {
	cfg := DefaultMACDConfig()
	var err error
	if cfg.FastSpan, err = p.Int(ParamFastSpan, cfg.FastSpan); err != nil {
		return cfg, err
	}
	if cfg.SlowSpan, err = p.Int(ParamSlowSpan, cfg.SlowSpan); err != nil {
		return cfg, err
	}
	if cfg.SignalSpan, err = p.Int(ParamSignalSpan, cfg.SignalSpan); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// BollingerConfigFromParams reads a Bollinger Bands configuration, defaulting absent parameters
func BollingerConfigFromParams(p Params) (BollingerConfig, error) {
	cfg := DefaultBollingerConfig()
	var err error
	if cfg.WindowSize, err = p.Int(ParamWindowSize, cfg.WindowSize); err != nil {
		return cfg, err
	}
	if cfg.SDMultiplier, err = p.Float(ParamSDMultiplier, cfg.SDMultiplier); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RSIConfigFromParams reads an RSI configuration, defaulting absent parameters
func RSIConfigFromParams(p Params) (RSIConfig, error) {
	cfg := DefaultRSIConfig()
	var err error
	if cfg.WindowSize, err = p.Int(ParamWindowSize, cfg.WindowSize); err != nil {
		return cfg, err
	}
	if cfg.UpperLine, err = p.Float(ParamUpperLine, cfg.UpperLine); err != nil {
		return cfg, err
	}
	if cfg.LowerLine, err = p.Float(ParamLowerLine, cfg.LowerLine); err != nil {
		return cfg, err
	}
	return cfg, nil
}
