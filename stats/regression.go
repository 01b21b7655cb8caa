package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/goacm"
)

// Line is a fitted straight line y = Intercept + Slope*x.
type Line struct {
	Intercept float64
	Slope     float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// FitLine fits a least-squares line through (x, y).
func FitLine(x, y []float64) (Line, error) {
	if err := checkPaired(x, y); err != nil {
		return Line{}, err
	}
	if floats.Max(x) == floats.Min(x) {
		return Line{}, fmt.Errorf("%w: all x values equal", goacm.ErrInsufficientData)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return Line{Intercept: alpha, Slope: beta}, nil
}

// Correlation returns Pearson's r between x and y.
func Correlation(x, y []float64) (float64, error) {
	if err := checkPaired(x, y); err != nil {
		return 0, err
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, fmt.Errorf("%w: correlation undefined for constant input", goacm.ErrInsufficientData)
	}
	return r, nil
}

func checkPaired(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: %d x values vs %d y values", goacm.ErrInconsistentAlignment, len(x), len(y))
	}
	if len(x) < 2 {
		return fmt.Errorf("%w: need at least 2 points, have %d", goacm.ErrInsufficientData, len(x))
	}
	return nil
}
