package timeindex

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

const day = 24 * time.Hour

// Index converts between calendar dates and days since Epoch.
type Index struct {
	Epoch time.Time
}

// New returns an Index anchored at the calendar day of epoch.
func New(epoch time.Time) Index {
	return Index{Epoch: Civil(epoch)}
}

// Civil truncates t to midnight UTC of its calendar day.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Offset returns the number of whole days from the epoch to d.
func (ix Index) Offset(d time.Time) int {
	return int(Civil(d).Sub(ix.Epoch) / day)
}

// X returns the offset of d as a float for use in fitted functions.
func (ix Index) X(d time.Time) float64 {
	return float64(ix.Offset(d))
}

// XS maps every date to its offset.
func (ix Index) XS(dates []time.Time) []float64 {
	xs := make([]float64, len(dates))
	for i, d := range dates {
		xs[i] = ix.X(d)
	}
	return xs
}

// Date returns the calendar date n days after the epoch.
func (ix Index) Date(n int) time.Time {
	return ix.Epoch.AddDate(0, 0, n)
}

// DateAt returns the calendar day containing the fractional offset x.
func (ix Index) DateAt(x float64) time.Time {
	return ix.Date(int(math.Floor(x)))
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / day)
}

// ISOWeekThursday returns the Thursday of the given ISO week.
func ISOWeekThursday(year, week int) (time.Time, error) {
	if week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("iso week %d out of range", week)
	}

	// January 4th is always in week 1.
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	sinceMonday := (int(jan4.Weekday()) + 6) % 7
	thursday := jan4.AddDate(0, 0, -sinceMonday+3+7*(week-1))

	if y, _ := thursday.ISOWeek(); y != year {
		return time.Time{}, fmt.Errorf("year %d has no iso week %d", year, week)
	}
	return thursday, nil
}

// WeekLabel formats the ISO week of d as "YYYYWww".
func WeekLabel(d time.Time) string {
	y, w := d.ISOWeek()
	return fmt.Sprintf("%dW%02d", y, w)
}

var weekLabelRe = regexp.MustCompile(`^"?(\d{4})W(\d{2})\*?"?$`)

// ParseWeekLabel parses "YYYYWww" (optionally quoted or with a trailing
// "*" marking preliminary data) into the Thursday of that week.
func ParseWeekLabel(s string) (time.Time, error) {
	m := weekLabelRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("not an iso week label: %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	return ISOWeekThursday(year, week)
}
