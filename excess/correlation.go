package excess

import (
	"time"

	"github.com/sartorproj/goacm/stats"
	"github.com/sartorproj/goacm/timeseries"
)

// Pair is a week observed in both compared series.
type Pair struct {
	Date   time.Time
	Excess float64
	ZScore float64
}

// Correlation compares excess mortality with an external z-score series.
type Correlation struct {
	Pairs []Pair
	R     float64    // Pearson correlation coefficient
	Trend stats.Line // Least-squares excess as a function of z-score
}

// Correlate pairs excess and zscores by date, skipping dates present in only
// one of them, and fits a descriptive trend line.
func Correlate(excess, zscores *timeseries.Series) (*Correlation, error) {
	c := &Correlation{}
	var xs, ys []float64
	for i, d := range zscores.Dates {
		e, ok := excess.Lookup(d)
		if !ok {
			continue
		}
		c.Pairs = append(c.Pairs, Pair{Date: d, Excess: e, ZScore: zscores.Values[i]})
		xs = append(xs, zscores.Values[i])
		ys = append(ys, e)
	}

	r, err := stats.Correlation(xs, ys)
	if err != nil {
		return nil, err
	}
	line, err := stats.FitLine(xs, ys)
	if err != nil {
		return nil, err
	}

	c.R = r
	c.Trend = line
	return c, nil
}

// N returns the number of paired weeks.
func (c *Correlation) N() int {
	return len(c.Pairs)
}
