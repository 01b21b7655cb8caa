package pipeline

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goacm"
	"github.com/sartorproj/goacm/config"
	"github.com/sartorproj/goacm/timeindex"
	"github.com/sartorproj/goacm/timeseries"
)

var (
	epoch     = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	spikeDate = time.Date(2017, 3, 2, 0, 0, 0, 0, time.UTC)
	discard   = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// syntheticDeaths is 20 years of weekly deaths with a linear trend, a 10%
// yearly cosine peaking at the epoch, small deterministic noise and a
// +500 spike in one week after the cutoff.
func syntheticDeaths(t *testing.T) *timeseries.Series {
	t.Helper()

	idx := timeindex.New(epoch)
	var dates []time.Time
	var values []float64
	i := 0
	for d := time.Date(2000, 1, 6, 0, 0, 0, 0, time.UTC); d.Year() < 2020; d = d.AddDate(0, 0, 7) {
		x := idx.X(d)
		v := (1000+0.01*x)*(1+0.1*math.Cos(2*math.Pi*x/365.24)) + 5*math.Sin(2.1*float64(i))
		if d.Equal(spikeDate) {
			v += 500
		}
		dates = append(dates, d)
		values = append(values, v)
		i++
	}
	s, err := timeseries.New(dates, values)
	require.NoError(t, err)
	return s
}

func testRun(t *testing.T) *config.Run {
	t.Helper()

	cfg := config.Default()
	cfg.Model.Epoch = "2000-01-01"
	cfg.Model.BaselineStart = "2000-01-01"
	cfg.Model.Cutoff = "2015-01-01"
	cfg.Excess.YearlyTotalsFrom = 2010
	cfg.Excess.YearlyTotalsTo = 2012
	cfg.Excess.CorrelationFrom = "2015-01-01"

	run, err := cfg.Validate()
	require.NoError(t, err)
	return run
}

func TestRunEndToEnd(t *testing.T) {
	deaths := syntheticDeaths(t)

	// Competing cause: 10 deaths a week through 2016.
	competing := deaths.Between(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)).
		Map(func(time.Time, float64) float64 { return 10 })

	res, err := Run(testRun(t), Inputs{Deaths: deaths, Competing: competing}, discard)
	require.NoError(t, err)

	// Generating parameters are recovered.
	assert.InDelta(t, 0.0, res.Model.Params.PhaseOffset, 1.0)
	assert.InDelta(t, 0.1, res.Model.Params.Amplitude, 2e-3)

	// The injected spike shows up as excess on exactly that date.
	var spike float64
	found := false
	for _, p := range res.Excess.Points {
		if p.Date.Equal(spikeDate) {
			spike, found = p.Excess, true
		} else if !p.InWindow {
			assert.Less(t, math.Abs(p.Excess), 50.0, "excess on %s", p.Date.Format(time.DateOnly))
		}
	}
	require.True(t, found)
	assert.InDelta(t, 500.0, spike, 20.0)

	// Unbiased over the fitting window.
	assert.Less(t, math.Abs(res.Excess.WindowExcess), float64(res.Excess.WindowCount))

	// All-time cumulative starts at the baseline start and ends at the total.
	assert.Equal(t, deaths.First(), res.AllTime.First())
	assert.InDelta(t, res.Excess.Excess().Sum(), res.AllTime.Values[res.AllTime.Len()-1], 1e-6)

	require.Contains(t, res.Seasons, 1)
	require.Contains(t, res.Seasons, 16)
	assert.Len(t, res.Seasons[1], 20)

	require.NotNil(t, res.NetExcess)
	assert.Equal(t, competing.Len(), res.NetExcess.Len())
	net0, ok := res.Excess.Excess().Lookup(res.NetExcess.First())
	require.True(t, ok)
	assert.InDelta(t, net0-10, res.NetExcess.Values[0], 1e-9)
	assert.Contains(t, res.NetSeasons, 16)

	require.Len(t, res.YearlyTotals, 3)
	for _, yt := range res.YearlyTotals {
		assert.InEpsilon(t, yt.Observed*float64(timeindex.DaysInYear(yt.Year))/7/float64(yt.Weeks), yt.Model, 0.01, "year %d", yt.Year)
	}

	require.NotEmpty(t, res.TopWeeks)
	assert.Equal(t, spikeDate, res.TopWeeks[0].Date)
	assert.Len(t, res.TopWeeks, 20)

	assert.Equal(t, deaths.Len(), res.Averaged.Len())
	assert.Nil(t, res.Correlation)
	require.NotNil(t, res.Summary)
	assert.Equal(t, res.Excess.WindowCount, res.Summary.NObs)
}

func TestRunCorrelatesZScores(t *testing.T) {
	deaths := syntheticDeaths(t)
	run := testRun(t)

	// Z-scores proportional to excess after 2015, computed from a first pass.
	first, err := Run(run, Inputs{Deaths: deaths}, discard)
	require.NoError(t, err)
	z := first.Excess.Excess().Map(func(_ time.Time, v float64) float64 { return v / 100 })

	res, err := Run(run, Inputs{Deaths: deaths, ZScores: z}, discard)
	require.NoError(t, err)
	require.NotNil(t, res.Correlation)

	assert.Equal(t, deaths.Between(run.CorrelationFrom, time.Time{}).Len(), res.Correlation.N())
	assert.InDelta(t, 1.0, res.Correlation.R, 1e-9)
	assert.InDelta(t, 100.0, res.Correlation.Trend.Slope, 1e-6)
}

func TestRunErrors(t *testing.T) {
	deaths := syntheticDeaths(t)
	run := testRun(t)

	aligned := deaths.Between(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2016, 6, 1, 0, 0, 0, 0, time.UTC))

	shifted := aligned.Copy()
	for i := range shifted.Dates {
		shifted.Dates[i] = shifted.Dates[i].AddDate(0, 0, 1)
	}

	// One week missing inside the covered range.
	gappy, err := timeseries.New(
		append(append([]time.Time{}, aligned.Dates[:3]...), aligned.Dates[4:]...),
		append(append([]float64{}, aligned.Values[:3]...), aligned.Values[4:]...))
	require.NoError(t, err)

	empty, err := timeseries.New(nil, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   Inputs
		want error
	}{
		{"no deaths", Inputs{Deaths: empty}, goacm.ErrInsufficientData},
		{"nil deaths", Inputs{}, goacm.ErrInsufficientData},
		{"misaligned competing", Inputs{Deaths: deaths, Competing: shifted}, goacm.ErrInconsistentAlignment},
		{"gappy competing", Inputs{Deaths: deaths, Competing: gappy}, goacm.ErrInconsistentAlignment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(run, tt.in, discard)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
