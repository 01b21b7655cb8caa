// Package stats provides the statistics used by goacm.
//
// # Regression
//
// FitLine fits a least-squares straight line. The trend package uses its
// slope to extrapolate the long-run mortality trend past the last anchor:
//
//	line, err := stats.FitLine(xs, deaths)
//	perDay := line.Slope
//
// # Correlation
//
// Pearson's r between two equally long samples:
//
//	r, err := stats.Correlation(zscores, excess)
//
// # Autocorrelation
//
// ACF describes serial correlation left in model residuals:
//
//	acf := stats.ACFWithConfidence(residuals, 10)
//	lags := stats.SignificantLags(acf.Values, acf.ConfBounds)
//
// # Residual diagnostics
//
// LjungBox and BoxPierce condense residual autocorrelation up to a lag into
// one statistic. DurbinWatson covers the first lag only. Both describe the
// residuals; no p-values are computed:
//
//	lb := stats.LjungBox(residuals, 10)
//	dw := stats.DurbinWatson(residuals)
package stats
