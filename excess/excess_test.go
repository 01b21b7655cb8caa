package excess

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goacm"
	"github.com/sartorproj/goacm/baseline"
	"github.com/sartorproj/goacm/timeindex"
	"github.com/sartorproj/goacm/timeseries"
	"github.com/sartorproj/goacm/trend"
)

type baselineFunc func(float64) float64

func (f baselineFunc) Eval(x float64) float64 { return f(x) }

var idx = timeindex.New(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

func weekly(t *testing.T, start time.Time, values ...float64) *timeseries.Series {
	t.Helper()

	dates := make([]time.Time, len(values))
	for i := range values {
		dates[i] = start.AddDate(0, 0, 7*i)
	}
	s, err := timeseries.New(dates, values)
	require.NoError(t, err)
	return s
}

func TestCompute(t *testing.T) {
	start := time.Date(2019, 12, 12, 0, 0, 0, 0, time.UTC)
	series := weekly(t, start, 110, 90, 105, 130, 600)
	window := goacm.Window{Start: start, Cutoff: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}

	res, err := Compute(series, idx, baselineFunc(func(float64) float64 { return 100 }), window)
	require.NoError(t, err)
	require.Len(t, res.Points, 5)

	assert.Equal(t, []float64{10, -10, 5, 30, 500}, res.Excess().Values)
	assert.Equal(t, series.Values, res.Observed().Values)
	assert.Equal(t, []float64{100, 100, 100, 100, 100}, res.Expected().Values)
	assert.Equal(t, series.Dates, res.Excess().Dates)

	assert.True(t, res.Points[2].InWindow)
	assert.False(t, res.Points[3].InWindow)
	assert.InDelta(t, -20.0, res.Points[0].X, 0)

	assert.Equal(t, 3, res.WindowCount)
	assert.InDelta(t, 5.0, res.WindowExcess, 1e-12)
	assert.InDelta(t, 305.0, res.WindowDeaths, 1e-12)
	assert.InDelta(t, 5.0/3, res.WindowMean(), 1e-12)

	after := res.After(window.Cutoff)
	require.Len(t, after, 2)
	assert.InDelta(t, 500.0, after[1].Excess, 1e-12)
	assert.Nil(t, res.After(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestComputeEmpty(t *testing.T) {
	empty, err := timeseries.New(nil, nil)
	require.NoError(t, err)

	_, err = Compute(empty, idx, baselineFunc(math.Abs), goacm.Window{})
	assert.True(t, errors.Is(err, goacm.ErrInsufficientData))
}

func TestFittedWindowExcessIsUnbiased(t *testing.T) {
	window := goacm.Window{
		Start:  time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC),
		Cutoff: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var dates []time.Time
	var values []float64
	i := 0
	for d := time.Date(2008, 1, 3, 0, 0, 0, 0, time.UTC); d.Before(window.Cutoff); d = d.AddDate(0, 0, 7) {
		x := idx.X(d)
		v := (1000 + 0.01*x) * baseline.Seasonal(x, -45, 0.1, baseline.DefaultPeriodDays)
		dates = append(dates, d)
		values = append(values, v+30*math.Sin(2.3*float64(i)))
		i++
	}
	series, err := timeseries.New(dates, values)
	require.NoError(t, err)

	anchors, err := trend.Estimate(series, window, idx, nil)
	require.NoError(t, err)
	cfg := baseline.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	model, err := baseline.Fit(series, window, idx, anchors, cfg)
	require.NoError(t, err)

	res, err := Compute(series, idx, model, window)
	require.NoError(t, err)

	assert.Equal(t, series.Len(), res.WindowCount)
	assert.Less(t, math.Abs(res.WindowExcess), float64(res.WindowCount))
}

func TestCumulativeRecurrence(t *testing.T) {
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	residuals := weekly(t, start, 3, -1, 4, -1, 5, -9, 2, 6)

	cum := Cumulative(residuals, time.Time{})
	require.Equal(t, residuals.Len(), cum.Len())
	assert.InDelta(t, residuals.Values[0], cum.Values[0], 0)
	for i := 1; i < cum.Len(); i++ {
		assert.InDelta(t, cum.Values[i-1]+residuals.Values[i], cum.Values[i], 1e-12)
	}

	from := Cumulative(residuals, start.AddDate(0, 0, 14))
	assert.Equal(t, []float64{4, 3, 8, -1, 1, 7}, from.Values)
	assert.Equal(t, []float64{3, -1, 4, -1, 5, -9, 2, 6}, residuals.Values, "input must not change")
}

func TestYearlyCumulativeCalendarSeasons(t *testing.T) {
	// 2019W52 through 2021W02; 2020 has 53 ISO weeks.
	values := make([]float64, 56)
	for i := range values {
		values[i] = 1
	}
	series := weekly(t, time.Date(2019, 12, 26, 0, 0, 0, 0, time.UTC), values...)

	seasons, err := YearlyCumulative(series, 1)
	require.NoError(t, err)
	require.Len(t, seasons, 3)

	assert.Equal(t, 2019, seasons[0].Year)
	assert.InDelta(t, 1.0, seasons[0].Total(), 0)
	assert.Equal(t, []int{52}, seasons[0].Weeks)

	assert.Equal(t, "2020", seasons[1].Label())
	assert.Equal(t, 53, seasons[1].Cumulative.Len())
	assert.InDelta(t, 53.0, seasons[1].Total(), 0)
	assert.Equal(t, 1, seasons[1].Weeks[0])
	assert.Equal(t, 53, seasons[1].Weeks[52])

	assert.InDelta(t, 2.0, seasons[2].Total(), 0)
}

func TestYearlyCumulativeShiftedStart(t *testing.T) {
	// 2020W26 .. 2021W02.
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i + 1)
	}
	series := weekly(t, time.Date(2020, 6, 25, 0, 0, 0, 0, time.UTC), values...)

	seasons, err := YearlyCumulative(series, 27)
	require.NoError(t, err)
	require.Len(t, seasons, 2)

	assert.Equal(t, "2019/20", seasons[0].Label())
	assert.Equal(t, 1, seasons[0].Cumulative.Len())

	s := seasons[1]
	assert.Equal(t, "2020/21", s.Label())
	assert.Equal(t, 29, s.Cumulative.Len())
	assert.Equal(t, 1, s.Weeks[0])
	assert.Equal(t, 27, s.Weeks[26]) // 2020W53
	assert.Equal(t, 29, s.Weeks[28]) // 2021W02
	assert.InDelta(t, 2.0, s.Cumulative.Values[0], 0)
	assert.InDelta(t, 2.0+3.0, s.Cumulative.Values[1], 0)

	assert.Equal(t, 2020, SeasonOf(time.Date(2021, 1, 7, 0, 0, 0, 0, time.UTC), 27))
	assert.Equal(t, 2021, SeasonOf(time.Date(2021, 1, 7, 0, 0, 0, 0, time.UTC), 1))
}

func TestYearlyCumulativeRejectsStartWeek(t *testing.T) {
	series := weekly(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), 1, 2)

	for _, w := range []int{0, 54} {
		_, err := YearlyCumulative(series, w)
		assert.True(t, errors.Is(err, goacm.ErrConfiguration), "week %d", w)
	}
}

func TestSubtractAligned(t *testing.T) {
	start := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)
	excess := weekly(t, start, 100, 200, 300)
	covid := weekly(t, start, 10, 20, 30)

	out, err := SubtractAligned(excess, covid)
	require.NoError(t, err)
	assert.Equal(t, []float64{90, 180, 270}, out.Values)
	assert.Equal(t, []float64{100, 200, 300}, excess.Values)

	tests := []struct {
		name string
		b    *timeseries.Series
	}{
		{"shorter", weekly(t, start, 10, 20)},
		{"shifted", weekly(t, start.AddDate(0, 0, 7), 10, 20, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SubtractAligned(excess, tt.b)
			assert.True(t, errors.Is(err, goacm.ErrInconsistentAlignment), "got %v", err)
		})
	}
}

func TestCorrelate(t *testing.T) {
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	z := []float64{-1, 0, 0.5, 2, 3, 1}
	e := make([]float64, len(z))
	for i, v := range z {
		e[i] = 10 + 5*v
	}
	excess := weekly(t, start, e...)
	// One extra week on each side that has no partner.
	zscores := weekly(t, start.AddDate(0, 0, -7), append(append([]float64{9}, z...), 9)...)

	c, err := Correlate(excess, zscores)
	require.NoError(t, err)

	assert.Equal(t, len(z), c.N())
	assert.InDelta(t, 1.0, c.R, 1e-12)
	assert.InDelta(t, 5.0, c.Trend.Slope, 1e-9)
	assert.InDelta(t, 10.0, c.Trend.Intercept, 1e-9)
	assert.Equal(t, start, c.Pairs[0].Date)
}

func TestCorrelateWithoutOverlap(t *testing.T) {
	a := weekly(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), 1, 2, 3)
	b := weekly(t, time.Date(2021, 1, 7, 0, 0, 0, 0, time.UTC), 1, 2, 3)

	_, err := Correlate(a, b)
	assert.True(t, errors.Is(err, goacm.ErrInsufficientData))
}
