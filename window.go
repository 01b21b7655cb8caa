package goacm

import (
	"fmt"
	"time"
)

// Window is the fitting window [Start, Cutoff). Observations dated before
// Cutoff and not before Start are used to estimate the baseline; everything
// from Cutoff onwards is only compared against it.
type Window struct {
	Start  time.Time
	Cutoff time.Time
}

// NewWindow validates and returns a fitting window.
func NewWindow(start, cutoff time.Time) (Window, error) {
	if !cutoff.After(start) {
		return Window{}, fmt.Errorf("%w: cutoff %s must be after baseline start %s",
			ErrConfiguration, cutoff.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return Window{Start: start, Cutoff: cutoff}, nil
}

// Contains reports whether d lies in the fitting window.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && d.Before(w.Cutoff)
}

// String formats the window as "start..cutoff".
func (w Window) String() string {
	return w.Start.Format(time.DateOnly) + ".." + w.Cutoff.Format(time.DateOnly)
}

// Equal reports whether both windows have the same bounds.
func (w Window) Equal(o Window) bool {
	return w.Start.Equal(o.Start) && w.Cutoff.Equal(o.Cutoff)
}
