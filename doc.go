// Package goacm estimates a seasonal expected-mortality baseline from weekly
// all-cause mortality (ACM) series and derives excess mortality from it.
//
// The baseline is a long-run trend, built by piecewise-linear interpolation
// between multi-year averaged anchor points (optionally extended by external
// mortality forecasts), multiplied by a yearly cosine modulation whose phase
// and amplitude are fitted by nonlinear least squares. Observed deaths minus
// the baseline give excess mortality.
//
// # Quick Start
//
// Run the whole analysis for one series:
//
//	cfg, _ := config.Load("goacm.yaml")
//	run, _ := cfg.Validate()
//	series, _ := timeseries.LoadCSV("weekly_deaths.csv", nil)
//	result, err := pipeline.Run(run, pipeline.Inputs{Deaths: series}, nil)
//
// Or drive the stages directly:
//
//	idx := timeindex.New(epoch)
//	anchors, _ := trend.Estimate(series, window, idx, trend.DefaultConfig())
//	model, _ := baseline.Fit(series, window, idx, anchors, baseline.DefaultConfig())
//	res, _ := excess.Compute(series, idx, model, window)
//
// # Packages
//
//   - timeseries: dated series, moving average filter, CSV input/output
//   - timeindex: calendar date to day-offset mapping, ISO week helpers
//   - stats: regression slope, correlation, ACF and residual tests
//   - trend: anchor points and the piecewise-linear trend function
//   - lsq: Levenberg-Marquardt nonlinear least squares
//   - baseline: seasonal baseline fitting
//   - excess: excess mortality, cumulative sums, alignment, correlation
//   - config: validated run configuration
//   - pipeline: end-to-end run of the stages above
//   - report: tables, CSV, JSON and HTML chart output
//
// The goacm command in cmd/goacm wraps pipeline and report.
//
// # Errors
//
// Every failure wraps one of ErrInsufficientData, ErrFitConvergence,
// ErrInconsistentAlignment or ErrConfiguration; test with errors.Is.
package goacm
