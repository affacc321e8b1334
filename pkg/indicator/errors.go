package indicator

import "errors"

var (
	// ErrInvalidConfiguration is returned by constructors when a parameter is out of range
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput is returned by Calculate when the series cannot be processed
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownIndicator is returned when a registry lookup fails
	ErrUnknownIndicator = errors.New("unknown indicator")
)
