// Package timeseries provides dated series and the operations on them.
//
// A Series is an ordered sequence of (date, value) pairs with strictly
// increasing dates, typically one value per ISO week. Series are treated as
// immutable: every operation returns a new Series.
//
// # Creating a Series
//
//	s, err := timeseries.New(dates, values)
//	if errors.Is(err, timeseries.ErrUnordered) {
//	    // duplicate or out-of-order dates
//	}
//
// # Loading from CSV
//
// The loader understands ISO week labels such as "2020W05" (mapped to the
// Thursday of the week) as well as ordinary dates:
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.DateColumn = "week"
//	opts.ValueColumn = "deaths"
//	opts.TrimTrailing = 2 // drop incomplete recent weeks
//	s, err := timeseries.LoadCSV("weekly_deaths.csv", opts)
//
// # Moving Average
//
// MovingAverage is a centered filter that keeps the input length. The window
// for element i is [i-(w-w/2-1), i+w/2] clipped to the sequence, so for even
// w it leans one element towards higher indices:
//
//	timeseries.MovingAverage([]float64{1, 3}, 3) // [2 2]
//
// # Windows
//
//	fitting, comparison := s.Split(cutoff)
//	year := s.Between(jan1, nextJan1)
package timeseries
