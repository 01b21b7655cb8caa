package trend

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/sartorproj/goacm"
)

// quadraturePoints is the Gauss-Legendre order used per smooth segment.
const quadraturePoints = 64

// Function is a piecewise-linear interpolant that extrapolates with the
// slope of its boundary segments.
type Function struct {
	xs []float64
	ys []float64
}

// NewLinear builds a piecewise-linear function through (xs[i], ys[i]).
// xs must be strictly increasing and hold at least two knots.
func NewLinear(xs, ys []float64) (*Function, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d knots but %d values", goacm.ErrInconsistentAlignment, len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 knots, got %d", goacm.ErrInsufficientData, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("%w: knots not strictly increasing at %g", goacm.ErrConfiguration, xs[i])
		}
	}

	f := &Function{
		xs: make([]float64, len(xs)),
		ys: make([]float64, len(ys)),
	}
	copy(f.xs, xs)
	copy(f.ys, ys)
	return f, nil
}

// Eval returns the function value at x.
func (f *Function) Eval(x float64) float64 {
	n := len(f.xs)
	k := sort.SearchFloat64s(f.xs, x) - 1
	if k < 0 {
		k = 0
	}
	if k > n-2 {
		k = n - 2
	}

	slope := (f.ys[k+1] - f.ys[k]) / (f.xs[k+1] - f.xs[k])
	return f.ys[k] + slope*(x-f.xs[k])
}

// EvalAll evaluates the function at every x.
func (f *Function) EvalAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = f.Eval(x)
	}
	return out
}

// Knots returns copies of the knot coordinates.
func (f *Function) Knots() (xs, ys []float64) {
	xs = make([]float64, len(f.xs))
	ys = make([]float64, len(f.ys))
	copy(xs, f.xs)
	copy(ys, f.ys)
	return xs, ys
}

// Integrate returns the integral of the function over [a, b].
func (f *Function) Integrate(a, b float64) float64 {
	return Integral(f.Eval, a, b, f.xs)
}

// Integral integrates fn over [a, b], splitting the interval at every break
// point inside it so that each piece is smooth. Breaks must be sorted.
func Integral(fn func(float64) float64, a, b float64, breaks []float64) float64 {
	if a == b {
		return 0
	}
	if a > b {
		return -Integral(fn, b, a, breaks)
	}

	total := 0.0
	lo := a
	for _, x := range breaks {
		if x <= lo {
			continue
		}
		if x >= b {
			break
		}
		total += quad.Fixed(fn, lo, x, quadraturePoints, nil, 0)
		lo = x
	}
	return total + quad.Fixed(fn, lo, b, quadraturePoints, nil, 0)
}
