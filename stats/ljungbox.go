package stats

import "math"

// Portmanteau summarizes residual autocorrelation over lags 1..Lags in one
// number. Larger values mean more structure left in the residuals.
type Portmanteau struct {
	Statistic float64
	Lags      int
}

// LjungBox returns the Ljung-Box Q statistic of residuals. It returns nil
// for fewer than 10 residuals, no lags or constant input.
func LjungBox(residuals []float64, lags int) *Portmanteau {
	return portmanteau(residuals, lags, func(acf []float64, n int) float64 {
		q := 0.0
		for k := 1; k < len(acf); k++ {
			q += acf[k] * acf[k] / float64(n-k)
		}
		return q * float64(n*(n+2))
	})
}

// BoxPierce is the unweighted Box-Pierce variant of LjungBox.
func BoxPierce(residuals []float64, lags int) *Portmanteau {
	return portmanteau(residuals, lags, func(acf []float64, n int) float64 {
		q := 0.0
		for k := 1; k < len(acf); k++ {
			q += acf[k] * acf[k]
		}
		return q * float64(n)
	})
}

func portmanteau(residuals []float64, lags int, statistic func(acf []float64, n int) float64) *Portmanteau {
	n := len(residuals)
	if n < 10 || lags < 1 {
		return nil
	}
	lags = min(lags, n-1)

	acf := ACF(residuals, lags)
	if acf == nil {
		return nil
	}
	return &Portmanteau{Statistic: statistic(acf, n), Lags: lags}
}

// DurbinWatson returns the Durbin-Watson statistic for first-order
// autocorrelation of residuals: about 2 without autocorrelation, below 2 for
// positive and above 2 for negative. It returns NaN for fewer than two
// residuals or all-zero input.
func DurbinWatson(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return math.NaN()
	}

	num, den := 0.0, 0.0
	for i, r := range residuals {
		den += r * r
		if i > 0 {
			d := r - residuals[i-1]
			num += d * d
		}
	}
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
