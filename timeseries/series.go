package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrUnordered is returned when dates are not strictly increasing.
	ErrUnordered = errors.New("dates must be strictly increasing")
	// ErrLengthMismatch is returned when dates and values differ in length.
	ErrLengthMismatch = errors.New("dates and values must have the same length")
)

// Series is an ordered sequence of (date, value) pairs with strictly
// increasing dates. Operations never modify the receiver; they return a new
// Series.
type Series struct {
	Dates  []time.Time
	Values []float64
	Name   string
}

// Point is a single observation.
type Point struct {
	Date  time.Time
	Value float64
}

// New creates a series from parallel date and value slices. The slices are
// copied.
func New(dates []time.Time, values []float64) (*Series, error) {
	if len(dates) != len(values) {
		return nil, ErrLengthMismatch
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: %s follows %s", ErrUnordered,
				dates[i].Format(time.DateOnly), dates[i-1].Format(time.DateOnly))
		}
	}

	d := make([]time.Time, len(dates))
	copy(d, dates)
	v := make([]float64, len(values))
	copy(v, values)

	return &Series{Dates: d, Values: v}, nil
}

// FromPoints creates a series from points.
func FromPoints(points []Point) (*Series, error) {
	dates := make([]time.Time, len(points))
	values := make([]float64, len(points))
	for i, p := range points {
		dates[i] = p.Date
		values[i] = p.Value
	}
	return New(dates, values)
}

// Named returns a copy of the series carrying the given name.
func (s *Series) Named(name string) *Series {
	c := s.Copy()
	c.Name = name
	return c
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Points returns the series as (date, value) pairs.
func (s *Series) Points() []Point {
	points := make([]Point, len(s.Values))
	for i := range s.Values {
		points[i] = Point{Date: s.Dates[i], Value: s.Values[i]}
	}
	return points
}

// First returns the earliest date. It panics on an empty series.
func (s *Series) First() time.Time {
	return s.Dates[0]
}

// Last returns the latest date. It panics on an empty series.
func (s *Series) Last() time.Time {
	return s.Dates[len(s.Dates)-1]
}

// Sum returns the sum of all values.
func (s *Series) Sum() float64 {
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Sum() / float64(len(s.Values))
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	min := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Lookup returns the value observed on date d.
func (s *Series) Lookup(d time.Time) (float64, bool) {
	i := sort.Search(len(s.Dates), func(i int) bool { return !s.Dates[i].Before(d) })
	if i < len(s.Dates) && s.Dates[i].Equal(d) {
		return s.Values[i], true
	}
	return 0, false
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Dates: []time.Time{}, Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	dates := make([]time.Time, end-start)
	copy(dates, s.Dates[start:end])

	return &Series{
		Dates:  dates,
		Values: values,
		Name:   s.Name,
	}
}

// Between returns the observations dated in [from, to). A zero from or to
// leaves that side unbounded.
func (s *Series) Between(from, to time.Time) *Series {
	start := 0
	if !from.IsZero() {
		start = sort.Search(len(s.Dates), func(i int) bool { return !s.Dates[i].Before(from) })
	}
	end := len(s.Dates)
	if !to.IsZero() {
		end = sort.Search(len(s.Dates), func(i int) bool { return !s.Dates[i].Before(to) })
	}
	return s.Slice(start, end)
}

// Split partitions the series at cutoff into the observations before it and
// the observations from it onwards.
func (s *Series) Split(cutoff time.Time) (before, after *Series) {
	return s.Between(time.Time{}, cutoff), s.Between(cutoff, time.Time{})
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	dates := make([]time.Time, len(s.Dates))
	copy(dates, s.Dates)

	return &Series{
		Dates:  dates,
		Values: values,
		Name:   s.Name,
	}
}

// Map returns a series with fn applied to every point.
func (s *Series) Map(fn func(d time.Time, v float64) float64) *Series {
	out := s.Copy()
	for i := range out.Values {
		out.Values[i] = fn(out.Dates[i], out.Values[i])
	}
	return out
}

// Top returns the n points with the highest values, highest first. Ties keep
// chronological order.
func (s *Series) Top(n int) []Point {
	points := s.Points()
	sort.SliceStable(points, func(i, j int) bool { return points[i].Value > points[j].Value })
	if n < len(points) {
		points = points[:n]
	}
	return points
}

// MovingAverage applies the centered moving average filter with window w and
// returns a series of the same length.
func (s *Series) MovingAverage(w int) *Series {
	return &Series{
		Dates:  s.Copy().Dates,
		Values: MovingAverage(s.Values, w),
		Name:   s.Name + "_ma",
	}
}

// MovingAverage returns a sequence of the same length as values where each
// element is the mean of the window [i-(w-w/2-1), i+w/2] clipped to the
// bounds of values. For even w the window extends one further to the right
// than to the left. Near the ends the window shrinks; no padding is applied.
func MovingAverage(values []float64, w int) []float64 {
	if w < 1 {
		w = 1
	}

	n := len(values)
	result := make([]float64, n)

	left := w - w/2 - 1
	right := w / 2
	for i := range values {
		lo := max(0, i-left)
		hi := min(n-1, i+right)
		sum := 0.0
		for _, v := range values[lo : hi+1] {
			sum += v
		}
		result[i] = sum / float64(hi-lo+1)
	}

	return result
}
