package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sartorproj/goacm/excess"
	"github.com/sartorproj/goacm/pipeline"
	"github.com/sartorproj/goacm/timeseries"
)

const (
	chartHeight = "500px"
	fullZoomPct = 100
	seasonWeeks = 53
)

// WriteChart renders the analysis as an HTML page of line charts.
func WriteChart(w io.Writer, res *pipeline.Result) error {
	page := components.NewPage()
	page.PageTitle = "Excess mortality"
	page.AddCharts(
		mortalityChart(res),
		seriesChart("Weekly excess mortality", res.Run.Window.String(), res.Excess.Excess()),
		seriesChart("Cumulative excess mortality", "since "+res.Run.Window.Start.Format(time.DateOnly), res.AllTime),
	)
	for _, week := range res.Run.CumulativeStartWeeks {
		page.AddCharts(seasonChart(week, res.Seasons[week]))
	}
	if res.NetExcess != nil {
		page.AddCharts(seriesChart("Excess minus competing deaths", "", res.NetExcess))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func newLine(title, subtitle, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "5px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct}, opts.DataZoom{Type: "inside"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	)
	return line
}

func mortalityChart(res *pipeline.Result) *charts.Line {
	line := newLine("Weekly mortality", res.Summary.Window, "Deaths per week")
	line.SetXAxis(dateLabels(res.Deaths))

	trend := make([]opts.LineData, res.Deaths.Len())
	for i, d := range res.Deaths.Dates {
		trend[i] = point(res.Model.TrendAt(d))
	}

	lineOpts := charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})
	line.AddSeries("Observed", lineData(res.Deaths.Values), lineOpts)
	line.AddSeries("Averaged", lineData(res.Averaged.Values), lineOpts)
	line.AddSeries("Baseline", lineData(res.Excess.Expected().Values), lineOpts)
	line.AddSeries("Trend", trend, lineOpts)
	return line
}

func seriesChart(title, subtitle string, s *timeseries.Series) *charts.Line {
	line := newLine(title, subtitle, "Deaths")
	line.SetXAxis(dateLabels(s))
	line.AddSeries(title, lineData(s.Values),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}),
	)
	return line
}

// seasonChart overlays every season on a common week axis. Weeks a season
// does not cover are left empty.
func seasonChart(startWeek int, seasons []excess.Season) *charts.Line {
	line := newLine("Yearly cumulative excess mortality",
		fmt.Sprintf("seasons starting at ISO week %d", startWeek), "Deaths")

	labels := make([]string, seasonWeeks)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	line.SetXAxis(labels)
	line.SetGlobalOptions(charts.WithXAxisOpts(opts.XAxis{Name: "Week of season"}))

	for _, s := range seasons {
		data := make([]opts.LineData, seasonWeeks)
		for i := range data {
			data[i] = opts.LineData{Value: "-"}
		}
		for i, week := range s.Weeks {
			if week >= 1 && week <= seasonWeeks {
				data[week-1] = point(s.Cumulative.Values[i])
			}
		}
		line.AddSeries(s.Label(), data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
	return line
}

func dateLabels(s *timeseries.Series) []string {
	labels := make([]string, s.Len())
	for i, d := range s.Dates {
		labels[i] = d.Format(time.DateOnly)
	}
	return labels
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = point(v)
	}
	return data
}

// point rounds v for display; non-finite values become gaps.
func point(v float64) opts.LineData {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: math.Round(v*10) / 10}
}
