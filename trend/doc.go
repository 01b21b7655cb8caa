// Package trend estimates the long-run mortality trend that the seasonal
// baseline modulates.
//
// The trend is a piecewise-linear function through a small set of anchors.
// Historical anchors are multi-year means of the observed series inside the
// fitting window. Forecast anchors convert external yearly mortality
// forecasts into weekly rates and extend the trend past the cutoff. An
// optional extrapolated anchor continues the last segment (or a regression
// slope) one more interval.
//
// # Anchor strategies
//
// Endpoints places exactly two historical anchors on the first and last
// observation of the fitting window; the seasonal fitter is expected to
// co-optimize their values. Spaced places anchors every averaging interval,
// starting half an interval after the first observation.
//
//	set, err := trend.Estimate(series, window, idx, trend.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	fn, _ := set.Function()
//	weekly := fn.Eval(idx.X(date))
//
// # Extrapolation
//
// Outside the anchor range the function continues with the slope of the
// boundary segment. Spline interpolation is deliberately not offered: it
// overshoots between sparse anchors.
package trend
