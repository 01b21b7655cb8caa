package excess

import (
	"fmt"
	"time"

	"github.com/sartorproj/goacm"
	"github.com/sartorproj/goacm/timeindex"
	"github.com/sartorproj/goacm/timeseries"
)

// Baseline is an expected weekly mortality as a function of days since the
// epoch.
type Baseline interface {
	Eval(x float64) float64
}

// Point is one observation compared against the baseline.
type Point struct {
	Date     time.Time
	X        float64
	Observed float64
	Expected float64
	Excess   float64
	InWindow bool // Inside the fitting window
}

// Result is the excess mortality of a whole series.
type Result struct {
	Points []Point
	Window goacm.Window

	WindowExcess float64 // Sum of excess inside the fitting window
	WindowCount  int     // Observations inside the fitting window
	WindowDeaths float64 // Observed deaths inside the fitting window
}

// Compute evaluates baseline at every observation of series.
func Compute(series *timeseries.Series, idx timeindex.Index, baseline Baseline, window goacm.Window) (*Result, error) {
	if series.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series", goacm.ErrInsufficientData)
	}

	r := &Result{
		Points: make([]Point, series.Len()),
		Window: window,
	}
	for i, d := range series.Dates {
		x := idx.X(d)
		expected := baseline.Eval(x)
		p := Point{
			Date:     d,
			X:        x,
			Observed: series.Values[i],
			Expected: expected,
			Excess:   series.Values[i] - expected,
			InWindow: window.Contains(d),
		}
		if p.InWindow {
			r.WindowExcess += p.Excess
			r.WindowCount++
			r.WindowDeaths += p.Observed
		}
		r.Points[i] = p
	}
	return r, nil
}

// Excess returns the excess series.
func (r *Result) Excess() *timeseries.Series {
	return r.column("excess", func(p Point) float64 { return p.Excess })
}

// Expected returns the baseline evaluated at every observation date.
func (r *Result) Expected() *timeseries.Series {
	return r.column("baseline", func(p Point) float64 { return p.Expected })
}

// Observed returns the observations.
func (r *Result) Observed() *timeseries.Series {
	return r.column("observed", func(p Point) float64 { return p.Observed })
}

// WindowMean returns the mean excess inside the fitting window.
func (r *Result) WindowMean() float64 {
	if r.WindowCount == 0 {
		return 0
	}
	return r.WindowExcess / float64(r.WindowCount)
}

// After returns the points dated on or after d.
func (r *Result) After(d time.Time) []Point {
	for i, p := range r.Points {
		if !p.Date.Before(d) {
			return r.Points[i:]
		}
	}
	return nil
}

func (r *Result) column(name string, fn func(Point) float64) *timeseries.Series {
	s := &timeseries.Series{
		Dates:  make([]time.Time, len(r.Points)),
		Values: make([]float64, len(r.Points)),
		Name:   name,
	}
	for i, p := range r.Points {
		s.Dates[i] = p.Date
		s.Values[i] = fn(p)
	}
	return s
}

// SubtractAligned returns a - b. Both series must have identical dates.
func SubtractAligned(a, b *timeseries.Series) (*timeseries.Series, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("%w: %d dates vs %d dates", goacm.ErrInconsistentAlignment, a.Len(), b.Len())
	}
	for i := range a.Dates {
		if !a.Dates[i].Equal(b.Dates[i]) {
			return nil, fmt.Errorf("%w: %s vs %s at position %d", goacm.ErrInconsistentAlignment,
				a.Dates[i].Format(time.DateOnly), b.Dates[i].Format(time.DateOnly), i)
		}
	}

	out := a.Copy()
	for i := range out.Values {
		out.Values[i] -= b.Values[i]
	}
	return out, nil
}
