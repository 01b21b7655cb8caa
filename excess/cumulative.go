package excess

import (
	"fmt"
	"time"

	"github.com/sartorproj/goacm"
	"github.com/sartorproj/goacm/timeseries"
)

// Cumulative returns the running sum of s from the first observation dated
// on or after from. A zero from starts at the first observation.
func Cumulative(s *timeseries.Series, from time.Time) *timeseries.Series {
	out := s.Between(from, time.Time{})
	sum := 0.0
	for i, v := range out.Values {
		sum += v
		out.Values[i] = sum
	}
	return out
}

// Season is a yearly cumulative excess that starts at an ISO week.
type Season struct {
	Year       int // ISO year containing the start week
	StartWeek  int
	Cumulative *timeseries.Series
	// Weeks holds the 1-based position of each observation within the
	// season, for overlaying seasons on a common axis.
	Weeks []int
}

// Label names the season, "2019" for calendar seasons and "2019/20"
// otherwise.
func (s Season) Label() string {
	if s.StartWeek == 1 {
		return fmt.Sprintf("%d", s.Year)
	}
	return fmt.Sprintf("%d/%02d", s.Year, (s.Year+1)%100)
}

// Total returns the cumulative excess at the end of the season.
func (s Season) Total() float64 {
	if s.Cumulative.Len() == 0 {
		return 0
	}
	return s.Cumulative.Values[s.Cumulative.Len()-1]
}

// SeasonOf returns the ISO year of the season containing d.
func SeasonOf(d time.Time, startWeek int) int {
	year, week := d.ISOWeek()
	if week < startWeek {
		return year - 1
	}
	return year
}

// YearlyCumulative splits s into seasons starting at ISO week startWeek and
// returns the running sum within each season.
func YearlyCumulative(s *timeseries.Series, startWeek int) ([]Season, error) {
	if startWeek < 1 || startWeek > 53 {
		return nil, fmt.Errorf("%w: start week %d", goacm.ErrConfiguration, startWeek)
	}

	var seasons []Season
	var cur *Season
	sum := 0.0
	for i, d := range s.Dates {
		year := SeasonOf(d, startWeek)
		if cur == nil || cur.Year != year {
			seasons = append(seasons, Season{
				Year:       year,
				StartWeek:  startWeek,
				Cumulative: &timeseries.Series{Name: s.Name},
			})
			cur = &seasons[len(seasons)-1]
			sum = 0
		}

		sum += s.Values[i]
		cur.Cumulative.Dates = append(cur.Cumulative.Dates, d)
		cur.Cumulative.Values = append(cur.Cumulative.Values, sum)
		cur.Weeks = append(cur.Weeks, weekInSeason(d, startWeek))
	}
	return seasons, nil
}

// weekInSeason returns the 1-based week position of d in its season.
func weekInSeason(d time.Time, startWeek int) int {
	year, week := d.ISOWeek()
	if week >= startWeek {
		return week - startWeek + 1
	}
	_, lastWeek := time.Date(year-1, 12, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return lastWeek - startWeek + 1 + week
}
