package utils

import (
	"math"

	"github.com/notargets/dgflow/types"
)

// Secant finds a root of f starting from the pair (x0, x1)
func Secant(name string, f func(x float64) float64, x0, x1, tol float64, maxIter int) (x float64, err error) {
	var (
		f0 = f(x0)
		f1 = f(x1)
	)
	for it := 0; it < maxIter; it++ {
		if math.Abs(f1) < tol {
			return x1, nil
		}
		den := f1 - f0
		if den == 0 || math.IsNaN(den) {
			break
		}
		x0, x1 = x1, x1-f1*(x1-x0)/den
		f0, f1 = f1, f(x1)
	}
	if math.Abs(f1) < tol {
		return x1, nil
	}
	return x1, &types.ConvergenceError{Solver: name, Input: x0, Iterations: maxIter, Residual: f1}
}

// Newton finds a root of f with derivative df starting from x0
func Newton(name string, f, df func(x float64) float64, x0, tol float64, maxIter int) (x float64, err error) {
	x = x0
	var fx float64
	for it := 0; it < maxIter; it++ {
		fx = f(x)
		if math.Abs(fx) < tol {
			return x, nil
		}
		d := df(x)
		if d == 0 || math.IsNaN(d) {
			break
		}
		x -= fx / d
	}
	if fx = f(x); math.Abs(fx) < tol {
		return x, nil
	}
	return x, &types.ConvergenceError{Solver: name, Input: x0, Iterations: maxIter, Residual: fx}
}
