package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sartorproj/goacm/pipeline"
)

// WriteTables renders the summary tables of res.
func WriteTables(w io.Writer, res *pipeline.Result) error {
	tables := []table.Writer{
		fitTable(res),
		anchorTable(res),
		seasonTable(res),
		yearlyTable(res),
		topWeeksTable(res),
	}
	for _, tbl := range tables {
		if tbl == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", tbl.Render()); err != nil {
			return err
		}
	}
	return nil
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	return tbl
}

func fitTable(res *pipeline.Result) table.Writer {
	s := res.Summary
	tbl := newTable("Seasonal baseline")
	tbl.AppendHeader(table.Row{"Parameter", "Value"})
	tbl.AppendRows([]table.Row{
		{"Fitting window", s.Window},
		{"Cosine time offset", fmt.Sprintf("%.2f days (%.3f rad)", s.PhaseDays, s.PhaseRadians)},
		{"Cosine amplitude factor", fmt.Sprintf("%.4f", s.Amplitude)},
		{"Anchors co-optimized", s.CoOptimized},
		{"Observations", humanize.Comma(int64(s.NObs))},
		{"RMSE", fmt.Sprintf("%.1f", s.RMSE)},
		{"Iterations", fmt.Sprintf("%d (%s)", s.Iterations, s.Convergence)},
	})
	if !math.IsNaN(s.AmplitudeStdErr) {
		tbl.AppendRow(table.Row{"Amplitude std. error", fmt.Sprintf("%.4f", s.AmplitudeStdErr)})
	}
	if len(s.SignificantLags) > 0 {
		tbl.AppendRow(table.Row{"Autocorrelated residual lags", fmt.Sprint(s.SignificantLags)})
	}
	if lb := s.LjungBox; lb != nil {
		tbl.AppendRow(table.Row{"Ljung-Box Q", fmt.Sprintf("%.1f (lags 1-%d)", lb.Statistic, lb.Lags)})
	}
	if !math.IsNaN(s.DurbinWatson) {
		tbl.AppendRow(table.Row{"Durbin-Watson", fmt.Sprintf("%.3f", s.DurbinWatson)})
	}
	tbl.AppendFooter(table.Row{"Excess in fitting window", fmt.Sprintf("%s of %s deaths",
		signed(res.Excess.WindowExcess), humanize.Comma(int64(math.Round(res.Excess.WindowDeaths))))})
	return tbl
}

func anchorTable(res *pipeline.Result) table.Writer {
	tbl := newTable("Trend anchors (average weekly deaths)")
	tbl.AppendHeader(table.Row{"Date", "Kind", "Initial", "Fitted"})
	for i, a := range res.Model.Anchors.Anchors {
		tbl.AppendRow(table.Row{
			a.Date.Format(time.DateOnly),
			a.Kind.String(),
			fmt.Sprintf("%.1f", res.Anchors.Anchors[i].Value),
			fmt.Sprintf("%.1f", a.Value),
		})
	}
	return tbl
}

func seasonTable(res *pipeline.Result) table.Writer {
	if len(res.Seasons) == 0 {
		return nil
	}

	weeks := make([]int, 0, len(res.Seasons))
	for w := range res.Seasons {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	tbl := newTable("Cumulative excess by season")
	header := table.Row{"Season start"}
	for _, w := range weeks {
		header = append(header, fmt.Sprintf("Week %d", w))
	}
	tbl.AppendHeader(header)

	// Rows keyed by the season's starting ISO year.
	years := map[int]table.Row{}
	var order []int
	for col, w := range weeks {
		for _, s := range res.Seasons[w] {
			row, ok := years[s.Year]
			if !ok {
				row = make(table.Row, len(weeks)+1)
				for i := range row {
					row[i] = ""
				}
				row[0] = s.Year
				order = append(order, s.Year)
			}
			row[col+1] = signed(s.Total())
			years[s.Year] = row
		}
	}
	sort.Ints(order)
	for _, y := range order {
		tbl.AppendRow(years[y])
	}
	return tbl
}

func yearlyTable(res *pipeline.Result) table.Writer {
	if len(res.YearlyTotals) == 0 {
		return nil
	}

	tbl := newTable("Estimated yearly mortality")
	tbl.AppendHeader(table.Row{"Year", "Model", "Observed", "Weeks"})
	for _, yt := range res.YearlyTotals {
		observed := "-"
		if yt.Weeks > 0 {
			observed = humanize.Comma(int64(math.Round(yt.Observed)))
		}
		tbl.AppendRow(table.Row{yt.Year, humanize.Comma(int64(yt.Model)), observed, yt.Weeks})
	}
	return tbl
}

func topWeeksTable(res *pipeline.Result) table.Writer {
	if len(res.TopWeeks) == 0 {
		return nil
	}

	tbl := newTable("Top deaths per week")
	tbl.AppendHeader(table.Row{"Year", "Week", "Deaths"})
	for _, p := range res.TopWeeks {
		year, week := p.Date.ISOWeek()
		tbl.AppendRow(table.Row{year, week, humanize.Comma(int64(math.Round(p.Value)))})
	}
	return tbl
}

// signed formats a death count with thousands separators and an explicit
// sign.
func signed(v float64) string {
	n := int64(math.Round(v))
	if n > 0 {
		return "+" + humanize.Comma(n)
	}
	return humanize.Comma(n)
}
