package lsq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/goacm"
)

// Problem describes a least-squares problem: minimize the sum of squared
// residuals over the parameter vector.
type Problem struct {
	// NumResiduals is the length of the residual vector.
	NumResiduals int
	// Residuals writes the residuals at params into dst.
	Residuals func(dst, params []float64)
	// Jacobian writes d residual_i / d param_j into dst (NumResiduals x
	// len(params)). Optional.
	Jacobian func(dst *mat.Dense, params []float64)
}

// Settings controls the solver.
type Settings struct {
	MaxIterations  int     // Outer iterations before giving up (default: 200)
	FunctionTol    float64 // Relative reduction of the cost below which the fit has converged
	StepTol        float64 // Relative step size below which the fit has converged
	GradientTol    float64 // Infinity norm of the gradient below which the fit has converged
	InitialDamping float64 // Starting Levenberg-Marquardt damping factor
}

// DefaultSettings returns the default solver settings.
func DefaultSettings() *Settings {
	return &Settings{
		MaxIterations:  200,
		FunctionTol:    1e-12,
		StepTol:        1e-10,
		GradientTol:    1e-12,
		InitialDamping: 1e-3,
	}
}

// Status tells which criterion ended the iteration.
type Status int

const (
	FunctionConvergence Status = iota + 1
	StepConvergence
	GradientConvergence
)

func (s Status) String() string {
	switch s {
	case FunctionConvergence:
		return "function"
	case StepConvergence:
		return "step"
	case GradientConvergence:
		return "gradient"
	}
	return "unknown"
}

// Result is a converged solution.
type Result struct {
	Params      []float64
	Cost        float64   // Sum of squared residuals at Params
	Residuals   []float64 // Residuals at Params
	StdErrors   []float64 // Asymptotic standard errors; nil if the normal matrix is singular
	Iterations  int
	Evaluations int
	Status      Status
}

const (
	maxDamping = 1e20
	diagFloor  = 1e-12
)

// Solve minimizes the problem starting from initial.
func Solve(p Problem, initial []float64, settings *Settings) (*Result, error) {
	if settings == nil {
		settings = DefaultSettings()
	}

	n := len(initial)
	m := p.NumResiduals
	if n == 0 {
		return nil, fmt.Errorf("%w: no free parameters", goacm.ErrConfiguration)
	}
	if m < n {
		return nil, fmt.Errorf("%w: %d residuals for %d parameters", goacm.ErrInsufficientData, m, n)
	}

	s := &solver{p: p, m: m, n: n}

	x := make([]float64, n)
	copy(x, initial)
	r := make([]float64, m)
	cost := s.eval(r, x)
	if !finite(cost) {
		return nil, fmt.Errorf("%w: non-finite cost at initial parameters %v", goacm.ErrFitConvergence, initial)
	}

	jac := mat.NewDense(m, n, nil)
	xNew := make([]float64, n)
	rNew := make([]float64, m)
	lambda := settings.InitialDamping

	for iter := 1; iter <= settings.MaxIterations; iter++ {
		if err := s.jacobian(jac, x); err != nil {
			return nil, err
		}

		var jtj mat.SymDense
		jtj.SymOuterK(1, jac.T())

		var grad mat.VecDense
		grad.MulVec(jac.T(), mat.NewVecDense(m, r))
		if floats.Norm(grad.RawVector().Data, math.Inf(1)) <= settings.GradientTol*math.Max(cost, 1) {
			return s.result(x, r, cost, iter, GradientConvergence), nil
		}

		diag := make([]float64, n)
		maxDiag := 0.0
		for i := range diag {
			diag[i] = jtj.At(i, i)
			maxDiag = math.Max(maxDiag, diag[i])
		}
		for i := range diag {
			diag[i] = math.Max(diag[i], diagFloor*math.Max(maxDiag, 1))
		}

		negGrad := mat.NewVecDense(n, nil)
		negGrad.ScaleVec(-1, &grad)

		for {
			a := mat.NewSymDense(n, nil)
			a.CopySym(&jtj)
			for i := range diag {
				a.SetSym(i, i, a.At(i, i)+lambda*diag[i])
			}

			var chol mat.Cholesky
			if !chol.Factorize(a) {
				if lambda *= 10; lambda > maxDamping {
					return nil, fmt.Errorf("%w: normal equations singular at iteration %d", goacm.ErrFitConvergence, iter)
				}
				continue
			}

			var step mat.VecDense
			if err := chol.SolveVecTo(&step, negGrad); err != nil {
				if lambda *= 10; lambda > maxDamping {
					return nil, fmt.Errorf("%w: %v", goacm.ErrFitConvergence, err)
				}
				continue
			}

			delta := step.RawVector().Data
			if floats.Norm(delta, 2) <= settings.StepTol*(floats.Norm(x, 2)+settings.StepTol) {
				return s.result(x, r, cost, iter, StepConvergence), nil
			}

			floats.AddTo(xNew, x, delta)
			costNew := s.eval(rNew, xNew)

			if finite(costNew) && costNew < cost {
				reduction := (cost - costNew) / cost
				copy(x, xNew)
				copy(r, rNew)
				cost = costNew
				lambda = math.Max(lambda/10, 1e-15)

				if reduction <= settings.FunctionTol || cost == 0 {
					return s.result(x, r, cost, iter, FunctionConvergence), nil
				}
				break
			}

			if lambda *= 10; lambda > maxDamping {
				return nil, fmt.Errorf("%w: no descent direction at iteration %d (cost %g)", goacm.ErrFitConvergence, iter, cost)
			}
		}
	}

	return nil, fmt.Errorf("%w: no convergence after %d iterations (cost %g)", goacm.ErrFitConvergence, settings.MaxIterations, cost)
}

type solver struct {
	p     Problem
	m, n  int
	evals int
}

func (s *solver) eval(dst, params []float64) float64 {
	s.evals++
	s.p.Residuals(dst, params)
	return floats.Dot(dst, dst)
}

// jacobian fills jac at x.
func (s *solver) jacobian(jac *mat.Dense, x []float64) error {
	if s.p.Jacobian != nil {
		s.p.Jacobian(jac, x)
	} else {
		s.centralDifferences(jac, x)
	}

	for i := 0; i < s.m; i++ {
		for j := 0; j < s.n; j++ {
			if v := jac.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite jacobian entry for parameter %d", goacm.ErrFitConvergence, j)
			}
		}
	}
	return nil
}

// cbrt of machine epsilon balances truncation and rounding error.
var diffStep = math.Cbrt(2.220446049250313e-16)

func (s *solver) centralDifferences(jac *mat.Dense, x []float64) {
	xp := make([]float64, s.n)
	copy(xp, x)
	rp := make([]float64, s.m)
	rm := make([]float64, s.m)

	for j := 0; j < s.n; j++ {
		h := diffStep * math.Max(math.Abs(x[j]), 1)

		xp[j] = x[j] + h
		s.eval(rp, xp)
		xp[j] = x[j] - h
		s.eval(rm, xp)
		xp[j] = x[j]

		for i := 0; i < s.m; i++ {
			jac.Set(i, j, (rp[i]-rm[i])/(2*h))
		}
	}
}

func (s *solver) result(x, r []float64, cost float64, iter int, status Status) *Result {
	params := make([]float64, len(x))
	copy(params, x)
	residuals := make([]float64, len(r))
	copy(residuals, r)

	return &Result{
		Params:      params,
		Cost:        cost,
		Residuals:   residuals,
		StdErrors:   s.stdErrors(params, cost),
		Iterations:  iter,
		Evaluations: s.evals,
		Status:      status,
	}
}

// stdErrors returns sqrt(diag((J'J)^-1) * cost/(m-n)).
func (s *solver) stdErrors(x []float64, cost float64) []float64 {
	if s.m <= s.n {
		return nil
	}

	jac := mat.NewDense(s.m, s.n, nil)
	if err := s.jacobian(jac, x); err != nil {
		return nil
	}

	var jtj mat.SymDense
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if !chol.Factorize(&jtj) {
		return nil
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil
	}

	scale := cost / float64(s.m-s.n)
	errs := make([]float64, s.n)
	for i := range errs {
		errs[i] = math.Sqrt(inv.At(i, i) * scale)
	}
	return errs
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
