package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sartorproj/goacm/excess"
	"github.com/sartorproj/goacm/timeindex"
	"github.com/sartorproj/goacm/timeseries"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteExcessCSV writes one record per observation:
// x,date,week,observed,baseline,excess.
func WriteExcessCSV(w io.Writer, res *excess.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "date", "week", "observed", "baseline", "excess"}); err != nil {
		return err
	}
	for _, p := range res.Points {
		record := []string{
			formatFloat(p.X),
			p.Date.Format(time.DateOnly),
			timeindex.WeekLabel(p.Date),
			formatFloat(p.Observed),
			formatFloat(p.Expected),
			formatFloat(p.Excess),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCumulativeCSV writes a cumulative series as x,date,week,cumulative.
func WriteCumulativeCSV(w io.Writer, s *timeseries.Series, idx timeindex.Index) error {
	return WriteSeriesCSV(w, s, idx, "cumulative")
}

// WriteSeriesCSV writes s as x,date,week followed by a value column.
func WriteSeriesCSV(w io.Writer, s *timeseries.Series, idx timeindex.Index, column string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "date", "week", column}); err != nil {
		return err
	}
	for i, d := range s.Dates {
		record := []string{
			strconv.Itoa(idx.Offset(d)),
			d.Format(time.DateOnly),
			timeindex.WeekLabel(d),
			formatFloat(s.Values[i]),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeasonsCSV writes yearly cumulative excess as
// season,season_week,date,week,cumulative.
func WriteSeasonsCSV(w io.Writer, seasons []excess.Season) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"season", "season_week", "date", "week", "cumulative"}); err != nil {
		return err
	}
	for _, s := range seasons {
		label := s.Label()
		for i, d := range s.Cumulative.Dates {
			record := []string{
				label,
				strconv.Itoa(s.Weeks[i]),
				d.Format(time.DateOnly),
				timeindex.WeekLabel(d),
				formatFloat(s.Cumulative.Values[i]),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("season %s: %w", label, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
