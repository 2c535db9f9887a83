package stepper

import (
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

// TimeNodes returns the n point Gauss-Legendre nodes and weights on [0,1]
func TimeNodes(n int) (tau, w []float64) {
	tau, w = make([]float64, n), make([]float64, n)
	quad.Legendre{}.FixedLocations(tau, w, 0, 1)
	return
}

// TimeIntegrationMatrix is A[j][k] = int_0^tau_j l_k(s) ds for the Lagrange polynomials l_k on the nodes tau
func TimeIntegrationMatrix(tau []float64) (A *mat.Dense) {
	n := len(tau)
	A = mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		lk := func(s float64) (l float64) {
			l = 1
			for m, tm := range tau {
				if m != k {
					l *= (s - tm) / (tau[k] - tm)
				}
			}
			return
		}
		for j := 0; j < n; j++ {
			A.Set(j, k, quad.Fixed(lk, 0, tau[j], n, quad.Legendre{}, 0))
		}
	}
	return
}
