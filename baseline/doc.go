// Package baseline fits the seasonal mortality baseline.
//
// The baseline is the long-run trend modulated by a yearly cosine:
//
//	baseline(t) = trend(t) * (1 + a*cos(2π(t+φ)/P))
//
// where t is days since the epoch, φ the phase offset in days, a the
// amplitude fraction and P the seasonal period (365.24 days, which averages
// out leap years over multi-year fits).
//
// # Fitting
//
// Fit estimates φ and a by nonlinear least squares against the fitting
// window of the observed series. With CoOptimize set, the values of the
// historical trend anchors are free parameters too, so the trend and the
// seasonal modulation are estimated jointly; forecast anchors stay fixed.
// The free parameters are packed into a single vector
//
//	[φ, a, anchor_0, anchor_1, ...]
//
// so any number of anchors can be co-optimized.
//
//	anchors, _ := trend.Estimate(series, window, idx, nil)
//	model, err := baseline.Fit(series, window, idx, anchors, baseline.DefaultConfig())
//	if err != nil {
//	    return err // wraps goacm.ErrFitConvergence
//	}
//	expected := model.At(date)
//
// A failed fit is never retried with different starting values.
//
// # Derived quantities
//
// The fitted model is a weekly rate, so integrating it over a calendar year
// and dividing by seven gives the implied yearly mortality (YearlyTotal).
package baseline
