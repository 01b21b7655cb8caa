// Package timeindex maps calendar dates to a continuous numeric axis.
//
// All curve fitting and interpolation in goacm works on "days since epoch":
// a signed day count relative to a fixed reference date. The mapping is exact
// for whole days, so converting a date to its offset and back never drifts.
//
//	idx := timeindex.New(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
//	x := idx.X(time.Date(2019, 12, 25, 0, 0, 0, 0, time.UTC)) // -7
//	d := idx.Date(-7)                                         // 2019-12-25
//
// Fractional offsets are valid inputs for fitted functions (for example when
// integrating a weekly rate over a year); DateAt truncates them to the day.
//
// # ISO Weeks
//
// Weekly mortality statistics are published per ISO week. A week is
// represented by its Thursday, which always falls in the ISO year the week
// belongs to:
//
//	d, _ := timeindex.ISOWeekThursday(2020, 1) // 2020-01-02
//	timeindex.WeekLabel(d)                     // "2020W01"
package timeindex
