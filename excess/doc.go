// Package excess derives excess mortality from a fitted baseline.
//
// Compute evaluates the baseline at every observation, including those after
// the cutoff, and records observed minus expected. The residuals inside the
// fitting window should sum to roughly zero when the fit converged on that
// window; WindowExcess reports that sum.
//
// Cumulative variants:
//
//   - Cumulative: a running sum from a start date that never resets.
//   - YearlyCumulative: running sums that reset at a configurable ISO week
//     each year, so a season can span the turn of the year.
//
// SubtractAligned removes a competing-cause series (for example confirmed
// deaths from a specific disease) from excess mortality. Both series must
// share exactly the same dates. Correlate compares excess mortality with an
// external weekly z-score series over their common dates.
package excess
