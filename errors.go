package goacm

import "errors"

// Error taxonomy shared by all packages. Errors returned by this module wrap
// exactly one of these with context such as the offending date or window.
var (
	// ErrInsufficientData is returned when a series is too short or an
	// averaging window contains no observations.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrFitConvergence is returned when the nonlinear fit does not converge
	// or produces a degenerate result.
	ErrFitConvergence = errors.New("fit did not converge")

	// ErrInconsistentAlignment is returned when two series that must share
	// the same dates do not.
	ErrInconsistentAlignment = errors.New("inconsistent series alignment")

	// ErrConfiguration is returned for invalid run parameters.
	ErrConfiguration = errors.New("invalid configuration")
)
