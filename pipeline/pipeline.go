package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sartorproj/goacm"
	"github.com/sartorproj/goacm/baseline"
	"github.com/sartorproj/goacm/config"
	"github.com/sartorproj/goacm/excess"
	"github.com/sartorproj/goacm/timeseries"
	"github.com/sartorproj/goacm/trend"
)

// Inputs are the series an analysis consumes.
type Inputs struct {
	Deaths    *timeseries.Series // Weekly all-cause deaths
	Competing *timeseries.Series // Optional weekly deaths of a competing cause
	ZScores   *timeseries.Series // Optional weekly mortality z-scores
}

// YearlyTotal compares the model's implied yearly mortality with the
// observed deaths of that calendar year.
type YearlyTotal struct {
	Year     int
	Model    float64
	Observed float64 // Sum of weekly observations dated in Year
	Weeks    int     // Number of those observations
}

// Result holds every output of an analysis.
type Result struct {
	Run      *config.Run
	Deaths   *timeseries.Series
	Averaged *timeseries.Series // Centered moving average of Deaths
	Anchors  *trend.AnchorSet   // Anchors before co-optimization
	Model    *baseline.Model
	Summary  *baseline.Summary
	Excess   *excess.Result

	// AllTime is cumulative excess from the baseline start date.
	AllTime *timeseries.Series
	// Seasons maps a start week to its yearly cumulative excess.
	Seasons map[int][]excess.Season
	// NetExcess is excess minus the competing cause over the dates the
	// competing series covers; nil without one.
	NetExcess  *timeseries.Series
	NetSeasons map[int][]excess.Season

	YearlyTotals []YearlyTotal
	TopWeeks     []timeseries.Point
	Correlation  *excess.Correlation
}

// Run performs the analysis.
func Run(run *config.Run, in Inputs, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if in.Deaths == nil || in.Deaths.Len() == 0 {
		return nil, fmt.Errorf("%w: no death observations", goacm.ErrInsufficientData)
	}

	res := &Result{
		Run:      run,
		Deaths:   in.Deaths,
		Averaged: in.Deaths.MovingAverage(run.MovingAverageWeeks).Named("averaged"),
	}

	logger.Info("starting analysis",
		"observations", in.Deaths.Len(),
		"first", in.Deaths.First().Format(time.DateOnly),
		"last", in.Deaths.Last().Format(time.DateOnly),
		"window", run.Window.String())

	anchors, err := trend.Estimate(in.Deaths, run.Window, run.Index, run.Trend)
	if err != nil {
		return nil, fmt.Errorf("estimate trend: %w", err)
	}
	res.Anchors = anchors
	for _, a := range anchors.Anchors {
		logger.Info("trend anchor",
			"date", a.Date.Format(time.DateOnly),
			"kind", a.Kind.String(),
			"weekly_deaths", a.Value)
	}

	fitCfg := *run.Baseline
	fitCfg.Logger = logger
	model, err := baseline.Fit(in.Deaths, run.Window, run.Index, anchors, &fitCfg)
	if err != nil {
		return nil, fmt.Errorf("fit baseline: %w", err)
	}
	res.Model = model
	res.Summary = model.Summary()

	res.Excess, err = excess.Compute(in.Deaths, run.Index, model, run.Window)
	if err != nil {
		return nil, fmt.Errorf("compute excess: %w", err)
	}
	logger.Info("fitting window excess",
		"sum", res.Excess.WindowExcess,
		"weeks", res.Excess.WindowCount,
		"deaths", res.Excess.WindowDeaths)

	excessSeries := res.Excess.Excess()
	res.AllTime = excess.Cumulative(excessSeries, run.Window.Start).Named("cumulative_excess")

	res.Seasons, err = seasons(excessSeries, run.CumulativeStartWeeks)
	if err != nil {
		return nil, err
	}

	if in.Competing != nil && in.Competing.Len() > 0 {
		covered := excessSeries.Between(in.Competing.First(), in.Competing.Last().AddDate(0, 0, 1))
		res.NetExcess, err = excess.SubtractAligned(covered, in.Competing)
		if err != nil {
			return nil, fmt.Errorf("subtract competing deaths: %w", err)
		}
		res.NetExcess = res.NetExcess.Named("net_excess")
		if res.NetSeasons, err = seasons(res.NetExcess, run.CumulativeStartWeeks); err != nil {
			return nil, err
		}
	}

	if run.YearlyTotalsTo > 0 {
		res.YearlyTotals = yearlyTotals(model, in.Deaths, run.YearlyTotalsFrom, run.YearlyTotalsTo)
		for _, yt := range res.YearlyTotals {
			logger.Debug("model yearly mortality", "year", yt.Year, "deaths", yt.Model)
		}
	}

	res.TopWeeks = in.Deaths.Top(run.TopWeeks)

	if in.ZScores != nil && in.ZScores.Len() > 0 {
		z := in.ZScores.Between(run.CorrelationFrom, time.Time{})
		res.Correlation, err = excess.Correlate(excessSeries, z)
		if err != nil {
			return nil, fmt.Errorf("correlate z-scores: %w", err)
		}
		logger.Info("z-score correlation", "weeks", res.Correlation.N(), "r", res.Correlation.R)
	}

	return res, nil
}

func seasons(s *timeseries.Series, startWeeks []int) (map[int][]excess.Season, error) {
	out := make(map[int][]excess.Season, len(startWeeks))
	for _, w := range startWeeks {
		ss, err := excess.YearlyCumulative(s, w)
		if err != nil {
			return nil, err
		}
		out[w] = ss
	}
	return out, nil
}

func yearlyTotals(model *baseline.Model, deaths *timeseries.Series, from, to int) []YearlyTotal {
	totals := make([]YearlyTotal, 0, to-from+1)
	for year := from; year <= to; year++ {
		yt := YearlyTotal{Year: year, Model: model.YearlyTotal(year)}
		part := deaths.Between(
			time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC))
		yt.Observed = part.Sum()
		yt.Weeks = part.Len()
		totals = append(totals, yt)
	}
	return totals
}
