package indicators

import "errors"

var (
	// ErrInsufficientData marks a series shorter than the minimum
	// window a requested indicator needs. Partial windows are never
	// silently computed.
	ErrInsufficientData = errors.New("insufficient data for indicator window")

	// ErrMalformedSeries marks input that violates the series
	// invariants: empty, unordered, or duplicate dates.
	ErrMalformedSeries = errors.New("malformed bar series")

	// ErrInvalidConfig marks non-positive windows or other unusable
	// indicator parameters.
	ErrInvalidConfig = errors.New("invalid indicator config")
)
