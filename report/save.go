package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sartorproj/goacm/pipeline"
)

// File names written by Save.
const (
	ExcessFile     = "excess_mortality.csv"
	AllTimeFile    = "all_time_cumulative_excess_mortality.csv"
	NetExcessFile  = "net_excess_mortality.csv"
	SummaryFile    = "summary.json"
	ChartFile      = "chart.html"
	seasonsPattern = "yearly_cumulative_excess_mortality_start_%d.csv"
)

// SeasonsFile returns the file name of the yearly cumulative excess for
// seasons starting at startWeek.
func SeasonsFile(startWeek int) string {
	return fmt.Sprintf(seasonsPattern, startWeek)
}

// Save writes the outputs of res into dir, creating it if needed, and
// returns the paths written.
func Save(res *pipeline.Result, dir string, chart bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var written []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	idx := res.Run.Index
	if err := write(ExcessFile, func(w io.Writer) error {
		return WriteExcessCSV(w, res.Excess)
	}); err != nil {
		return written, err
	}
	if err := write(AllTimeFile, func(w io.Writer) error {
		return WriteCumulativeCSV(w, res.AllTime, idx)
	}); err != nil {
		return written, err
	}
	for _, week := range res.Run.CumulativeStartWeeks {
		seasons := res.Seasons[week]
		if err := write(SeasonsFile(week), func(w io.Writer) error {
			return WriteSeasonsCSV(w, seasons)
		}); err != nil {
			return written, err
		}
	}
	if res.NetExcess != nil {
		if err := write(NetExcessFile, func(w io.Writer) error {
			return WriteSeriesCSV(w, res.NetExcess, idx, "net_excess")
		}); err != nil {
			return written, err
		}
	}
	if err := write(SummaryFile, func(w io.Writer) error {
		return WriteJSON(w, res)
	}); err != nil {
		return written, err
	}
	if chart {
		if err := write(ChartFile, func(w io.Writer) error {
			return WriteChart(w, res)
		}); err != nil {
			return written, err
		}
	}
	return written, nil
}
