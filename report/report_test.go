package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goacm/config"
	"github.com/sartorproj/goacm/excess"
	"github.com/sartorproj/goacm/pipeline"
	"github.com/sartorproj/goacm/timeindex"
	"github.com/sartorproj/goacm/timeseries"
)

var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// analysis runs the pipeline over 12 years of synthetic weekly deaths with a
// competing cause covering 2011.
func analysis(t *testing.T) *pipeline.Result {
	t.Helper()

	idx := timeindex.New(epoch)
	var dates []time.Time
	var values []float64
	for d := time.Date(2000, 1, 6, 0, 0, 0, 0, time.UTC); d.Year() < 2012; d = d.AddDate(0, 0, 7) {
		x := idx.X(d)
		dates = append(dates, d)
		values = append(values, (800+0.02*x)*(1+0.08*math.Cos(2*math.Pi*x/365.24)))
	}
	deaths, err := timeseries.New(dates, values)
	require.NoError(t, err)

	competing := deaths.Between(time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{}).
		Map(func(time.Time, float64) float64 { return 3 })

	cfg := config.Default()
	cfg.Model.Epoch = "2000-01-01"
	cfg.Model.BaselineStart = "2000-01-01"
	cfg.Model.Cutoff = "2009-01-01"
	cfg.Excess.YearlyTotalsFrom = 2005
	cfg.Excess.YearlyTotalsTo = 2007
	cfg.Excess.TopWeeks = 5
	run, err := cfg.Validate()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := pipeline.Run(run, pipeline.Inputs{Deaths: deaths, Competing: competing}, logger)
	require.NoError(t, err)
	return res
}

func readCSV(t *testing.T, r io.Reader) [][]string {
	t.Helper()

	records, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteTables(t *testing.T) {
	res := analysis(t)

	var buf bytes.Buffer
	require.NoError(t, WriteTables(&buf, res))

	out := buf.String()
	for _, title := range []string{
		"Seasonal baseline",
		"Trend anchors",
		"Cumulative excess by season",
		"Estimated yearly mortality",
		"Top deaths per week",
	} {
		assert.Contains(t, out, title)
	}
	assert.Contains(t, out, "2000-01-01..2009-01-01")
	assert.NotContains(t, out, "<nil>")
}

func TestSigned(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1234.4, "+1,234"},
		{-5012.6, "-5,013"},
		{0.2, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, signed(tt.in))
	}
}

func TestWriteExcessCSV(t *testing.T) {
	res := analysis(t)

	var buf bytes.Buffer
	require.NoError(t, WriteExcessCSV(&buf, res.Excess))

	records := readCSV(t, &buf)
	require.Len(t, records, len(res.Excess.Points)+1)
	assert.Equal(t, []string{"x", "date", "week", "observed", "baseline", "excess"}, records[0])

	first := records[1]
	assert.Equal(t, "2000-01-06", first[1])
	assert.Equal(t, "2000W01", first[2])
	assert.Equal(t, "5", first[0])
}

func TestWriteSeriesCSV(t *testing.T) {
	d0 := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	s, err := timeseries.New([]time.Time{d0, d0.AddDate(0, 0, 7)}, []float64{1.5, -2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSeriesCSV(&buf, s, timeindex.New(epoch), "net_excess"))

	assert.Equal(t, [][]string{
		{"x", "date", "week", "net_excess"},
		{"7306", "2020-01-02", "2020W01", "1.5"},
		{"7313", "2020-01-09", "2020W02", "-2"},
	}, readCSV(t, &buf))
}

func TestWriteSeasonsCSV(t *testing.T) {
	var dates []time.Time
	var values []float64
	for d := time.Date(2019, 12, 19, 0, 0, 0, 0, time.UTC); d.Before(time.Date(2020, 1, 20, 0, 0, 0, 0, time.UTC)); d = d.AddDate(0, 0, 7) {
		dates = append(dates, d)
		values = append(values, 1)
	}
	s, err := timeseries.New(dates, values)
	require.NoError(t, err)

	seasons, err := excess.YearlyCumulative(s, 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSeasonsCSV(&buf, seasons))

	assert.Equal(t, [][]string{
		{"season", "season_week", "date", "week", "cumulative"},
		{"2019", "51", "2019-12-19", "2019W51", "1"},
		{"2019", "52", "2019-12-26", "2019W52", "2"},
		{"2020", "1", "2020-01-02", "2020W01", "1"},
		{"2020", "2", "2020-01-09", "2020W02", "2"},
		{"2020", "3", "2020-01-16", "2020W03", "3"},
	}, readCSV(t, &buf))
}

func TestWriteJSON(t *testing.T) {
	res := analysis(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "2000-01-01", doc.Epoch)
	assert.InDelta(t, 0.08, doc.Fit.Amplitude, 1e-3)
	assert.Len(t, doc.Anchors, len(res.Model.Anchors.Anchors))
	assert.Len(t, doc.YearlyTotals, 3)
	assert.Len(t, doc.TopWeeks, 5)
	assert.Nil(t, doc.Correlation)
	require.NotNil(t, doc.NetExcessSum)
	assert.InDelta(t, res.NetExcess.Sum(), *doc.NetExcessSum, 1e-6)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.NotContains(t, raw, "correlation")
}

func TestFinite(t *testing.T) {
	assert.Nil(t, finite(math.NaN()))
	assert.Nil(t, finite(math.Inf(1)))
	require.NotNil(t, finite(2.5))
	assert.Equal(t, 2.5, *finite(2.5))
}

func TestWriteChart(t *testing.T) {
	res := analysis(t)

	var buf bytes.Buffer
	require.NoError(t, WriteChart(&buf, res))

	out := buf.String()
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "<!DOCTYPE html>") || strings.Contains(out, "<html"))
	assert.Contains(t, out, "Weekly mortality")
	assert.Contains(t, out, "Yearly cumulative excess mortality")
	assert.Contains(t, out, "Excess minus competing deaths")
	assert.NotContains(t, out, "NaN")
}

func TestPoint(t *testing.T) {
	assert.Equal(t, "-", point(math.NaN()).Value)
	assert.Equal(t, "-", point(math.Inf(-1)).Value)
	assert.Equal(t, 12.3, point(12.34).Value)
}

func TestSave(t *testing.T) {
	res := analysis(t)
	dir := filepath.Join(t.TempDir(), "out")

	written, err := Save(res, dir, true)
	require.NoError(t, err)

	want := []string{
		ExcessFile,
		AllTimeFile,
		SeasonsFile(1),
		SeasonsFile(16),
		NetExcessFile,
		SummaryFile,
		ChartFile,
	}
	require.Len(t, written, len(want))
	for i, name := range want {
		assert.Equal(t, filepath.Join(dir, name), written[i])
		info, err := os.Stat(written[i])
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Equal(t, "yearly_cumulative_excess_mortality_start_16.csv", SeasonsFile(16))

	f, err := os.Open(filepath.Join(dir, NetExcessFile))
	require.NoError(t, err)
	defer f.Close()
	records := readCSV(t, f)
	assert.Equal(t, []string{"x", "date", "week", "net_excess"}, records[0])
	assert.Len(t, records, res.NetExcess.Len()+1)
}

func TestSaveWithoutChart(t *testing.T) {
	res := analysis(t)
	dir := t.TempDir()

	written, err := Save(res, dir, false)
	require.NoError(t, err)
	assert.NotContains(t, written, filepath.Join(dir, ChartFile))

	_, err = os.Stat(filepath.Join(dir, ChartFile))
	assert.True(t, os.IsNotExist(err))
}
