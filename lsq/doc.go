// Package lsq solves nonlinear least-squares problems with the
// Levenberg-Marquardt method.
//
// A Problem is expressed over a single packed parameter vector, so the number
// of free parameters is a runtime value. Callers that fit structured models
// pack their unknowns into a []float64 and unpack them inside Residuals:
//
//	prob := lsq.Problem{
//	    NumResiduals: len(ys),
//	    Residuals: func(dst, p []float64) {
//	        for i, x := range xs {
//	            dst[i] = p[0]*math.Exp(p[1]*x) - ys[i]
//	        }
//	    },
//	}
//	res, err := lsq.Solve(prob, []float64{1, 0}, nil)
//
// When Jacobian is nil it is approximated by central differences. Solve
// returns an error wrapping goacm.ErrFitConvergence when the iteration cap
// is reached or the residuals become non-finite; it never retries from a
// different starting point.
package lsq
