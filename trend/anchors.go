package trend

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sartorproj/goacm"
	"github.com/sartorproj/goacm/stats"
	"github.com/sartorproj/goacm/timeindex"
	"github.com/sartorproj/goacm/timeseries"
)

// Kind tells where an anchor value comes from.
type Kind int

const (
	// Historical anchors are multi-year means of observed data.
	Historical Kind = iota
	// Forecast anchors come from external yearly mortality forecasts.
	Forecast
	// Extrapolated anchors continue the trend past the last real anchor.
	Extrapolated
)

func (k Kind) String() string {
	switch k {
	case Historical:
		return "historical"
	case Forecast:
		return "forecast"
	case Extrapolated:
		return "extrapolated"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Anchor is a trend control point: a mean weekly mortality at a date.
type Anchor struct {
	Date  time.Time
	X     float64
	Value float64
	Kind  Kind
	// Count is the number of observations averaged into a historical anchor.
	Count int
}

// Strategy selects where historical anchors are placed.
type Strategy string

const (
	Endpoints Strategy = "endpoints"
	Spaced    Strategy = "spaced"
)

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Endpoints:
		return Endpoints, nil
	case Spaced:
		return Spaced, nil
	}
	return "", fmt.Errorf("%w: unknown anchor strategy %q", goacm.ErrConfiguration, s)
}

// ForecastPoint is an external yearly mortality forecast placed at Date.
type ForecastPoint struct {
	Date        time.Time
	YearlyTotal float64
}

// Config holds trend estimation parameters.
type Config struct {
	Strategy     Strategy        // Historical anchor placement (default: Endpoints)
	IntervalDays int             // Averaging interval in days (default: 1095)
	Forecasts    []ForecastPoint // Forecast anchors appended after the historical ones
	Extrapolate  bool            // Append one extrapolated anchor
	// SlopeYears, when positive, takes the extrapolation slope from a linear
	// regression over the last SlopeYears years before the cutoff instead of
	// the last two anchors.
	SlopeYears int
}

// DefaultConfig returns the default trend configuration.
func DefaultConfig() *Config {
	return &Config{
		Strategy:     Endpoints,
		IntervalDays: 1095,
	}
}

// AnchorSet is the ordered list of anchors a trend is built from.
type AnchorSet struct {
	Anchors []Anchor
	Window  goacm.Window
	Index   timeindex.Index

	// regressionSlope is the fixed extrapolation slope, or nil when the slope
	// follows the last two anchors.
	regressionSlope *float64
}

// Estimate computes the anchor set for series over the fitting window.
func Estimate(series *timeseries.Series, window goacm.Window, idx timeindex.Index, cfg *Config) (*AnchorSet, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.IntervalDays <= 0 {
		return nil, fmt.Errorf("%w: averaging interval %d days", goacm.ErrConfiguration, cfg.IntervalDays)
	}

	fit := series.Between(window.Start, window.Cutoff)
	if fit.Len() < 2 {
		return nil, fmt.Errorf("%w: %d observations in fitting window %s", goacm.ErrInsufficientData, fit.Len(), window)
	}

	dates, err := anchorDates(fit, window, cfg)
	if err != nil {
		return nil, err
	}

	half := cfg.IntervalDays / 2
	set := &AnchorSet{Window: window, Index: idx}
	for _, d := range dates {
		part := fit.Between(d.AddDate(0, 0, -half), d.AddDate(0, 0, half))
		if part.Len() == 0 {
			return nil, fmt.Errorf("%w: no observations within %d days of %s",
				goacm.ErrInsufficientData, half, d.Format(time.DateOnly))
		}
		set.Anchors = append(set.Anchors, Anchor{
			Date:  d,
			X:     idx.X(d),
			Value: part.Mean(),
			Kind:  Historical,
			Count: part.Len(),
		})
	}
	if len(set.Anchors) < 2 {
		return nil, fmt.Errorf("%w: %d anchors in fitting window %s", goacm.ErrInsufficientData, len(set.Anchors), window)
	}

	if err := set.addForecasts(cfg.Forecasts); err != nil {
		return nil, err
	}

	if cfg.Extrapolate {
		if cfg.SlopeYears > 0 {
			recent := fit.Between(window.Cutoff.AddDate(-cfg.SlopeYears, 0, 0), window.Cutoff)
			line, err := stats.FitLine(idx.XS(recent.Dates), recent.Values)
			if err != nil {
				return nil, fmt.Errorf("extrapolation slope over %d years: %w", cfg.SlopeYears, err)
			}
			set.regressionSlope = &line.Slope
		}
		set.Anchors = append(set.Anchors, set.extrapolate(set.Anchors))
	}

	return set, nil
}

func anchorDates(fit *timeseries.Series, window goacm.Window, cfg *Config) ([]time.Time, error) {
	switch cfg.Strategy {
	case Endpoints, "":
		return []time.Time{fit.First(), fit.Last()}, nil
	case Spaced:
		var dates []time.Time
		for d := fit.First().AddDate(0, 0, cfg.IntervalDays/2); d.Before(window.Cutoff); d = d.AddDate(0, 0, cfg.IntervalDays) {
			dates = append(dates, d)
		}
		return dates, nil
	}
	return nil, fmt.Errorf("%w: unknown anchor strategy %q", goacm.ErrConfiguration, cfg.Strategy)
}

func (s *AnchorSet) addForecasts(forecasts []ForecastPoint) error {
	sorted := make([]ForecastPoint, len(forecasts))
	copy(sorted, forecasts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for _, fc := range sorted {
		last := s.Anchors[len(s.Anchors)-1]
		d := timeindex.Civil(fc.Date)
		if !d.After(last.Date) {
			return fmt.Errorf("%w: forecast at %s does not follow anchor at %s",
				goacm.ErrConfiguration, d.Format(time.DateOnly), last.Date.Format(time.DateOnly))
		}
		if fc.YearlyTotal <= 0 {
			return fmt.Errorf("%w: forecast at %s has yearly total %g",
				goacm.ErrConfiguration, d.Format(time.DateOnly), fc.YearlyTotal)
		}
		s.Anchors = append(s.Anchors, Anchor{
			Date:  d,
			X:     s.Index.X(d),
			Value: ForecastRate(d, fc.YearlyTotal),
			Kind:  Forecast,
		})
	}
	return nil
}

// extrapolate continues the last interval of anchors by one more interval.
func (s *AnchorSet) extrapolate(anchors []Anchor) Anchor {
	prev, last := anchors[len(anchors)-2], anchors[len(anchors)-1]
	dx := last.X - prev.X

	slope := (last.Value - prev.Value) / dx
	if s.regressionSlope != nil {
		slope = *s.regressionSlope
	}

	x := last.X + dx
	return Anchor{
		Date:  s.Index.DateAt(x),
		X:     x,
		Value: last.Value + slope*dx,
		Kind:  Extrapolated,
	}
}

// ForecastRate converts a yearly mortality total into the mean weekly rate
// for the calendar year of date.
func ForecastRate(date time.Time, yearlyTotal float64) float64 {
	weeks := float64(timeindex.DaysInYear(date.Year())) / 7
	return yearlyTotal / weeks
}

// Len returns the number of anchors.
func (s *AnchorSet) Len() int {
	return len(s.Anchors)
}

// NumHistorical returns the number of historical anchors. Only these are
// free parameters when anchor values are co-optimized.
func (s *AnchorSet) NumHistorical() int {
	n := 0
	for _, a := range s.Anchors {
		if a.Kind == Historical {
			n++
		}
	}
	return n
}

// HistoricalValues returns the values of the historical anchors.
func (s *AnchorSet) HistoricalValues() []float64 {
	values := make([]float64, 0, len(s.Anchors))
	for _, a := range s.Anchors {
		if a.Kind == Historical {
			values = append(values, a.Value)
		}
	}
	return values
}

// Function builds the trend function through the current anchor values.
func (s *AnchorSet) Function() (*Function, error) {
	return s.FunctionWith(s.HistoricalValues())
}

// FunctionWith builds the trend function with the historical anchor values
// replaced by values. Forecast anchors keep their values; an extrapolated
// anchor is recomputed from the revised anchors.
func (s *AnchorSet) FunctionWith(values []float64) (*Function, error) {
	anchors, err := s.withValues(values)
	if err != nil {
		return nil, err
	}

	xs := make([]float64, len(anchors))
	ys := make([]float64, len(anchors))
	for i, a := range anchors {
		xs[i] = a.X
		ys[i] = a.Value
	}
	return NewLinear(xs, ys)
}

// WithValues returns a copy of the set with revised historical values.
func (s *AnchorSet) WithValues(values []float64) (*AnchorSet, error) {
	anchors, err := s.withValues(values)
	if err != nil {
		return nil, err
	}
	out := *s
	out.Anchors = anchors
	return &out, nil
}

func (s *AnchorSet) withValues(values []float64) ([]Anchor, error) {
	if n := s.NumHistorical(); len(values) != n {
		return nil, fmt.Errorf("%w: %d anchor values for %d historical anchors", goacm.ErrFitConvergence, len(values), n)
	}

	anchors := make([]Anchor, 0, len(s.Anchors))
	next := 0
	for _, a := range s.Anchors {
		switch a.Kind {
		case Historical:
			a.Value = values[next]
			next++
		case Extrapolated:
			a = s.extrapolate(anchors)
		}
		anchors = append(anchors, a)
	}
	return anchors, nil
}
