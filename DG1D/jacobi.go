package DG1D

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGL returns the N+1 Gauss-Lobatto nodes for the (alpha, beta) Jacobi weight on [-1,1]
func JacobiGL(alpha, beta float64, N int) (X []float64) {
	X = make([]float64, N+1)
	if N == 0 {
		return
	}
	X[0], X[N] = -1, 1
	if N == 1 {
		return
	}
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)
	copy(X[1:N], xint)
	return
}

// GaussLobattoWeights returns the Legendre Gauss-Lobatto weights for the nodes from JacobiGL(0,0,N)
func GaussLobattoWeights(X []float64) (W []float64) {
	var (
		N  = len(X) - 1
		fN = float64(N)
	)
	W = make([]float64, N+1)
	if N == 0 {
		W[0] = 2
		return
	}
	for i, x := range X {
		p := LegendreP(N, x)
		W[i] = 2. / (fN * (fN + 1) * p * p)
	}
	return
}

// JacobiGQ returns the N+1 Gauss quadrature nodes and weights for the (alpha, beta) Jacobi weight
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	var (
		fac        float64
		h1, d0, d1 []float64
	)
	if N == 0 {
		X = []float64{-(alpha - beta) / (alpha + beta + 2.)}
		W = []float64{2.}
		return
	}

	h1 = make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: diag(-1/2*(alpha^2-beta^2)./(h1+2)./h1)
	d0 = make([]float64, N+1)
	fac = -.5 * (alpha*alpha - beta*beta)
	for i := 0; i < N+1; i++ {
		val := h1[i]
		d0[i] = fac / (val * (val + 2.))
	}
	// Handle division by zero
	eps := 1.e-16
	if alpha+beta < 10*eps {
		d0[0] = 0.
	}

	// 1st upper diagonal
	var ip1 float64
	d1 = make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 = float64(i + 1)
		val := h1[i]
		d1[i] = 2. / (val + 2.)
		d1[i] *= math.Sqrt(ip1 * (ip1 + alpha + beta) * (ip1 + alpha) * (ip1 + beta) / ((val + 1.) * (val + 3.)))
	}

	JJ := mat.NewSymDense(N+1, nil)
	for i := 0; i < N+1; i++ {
		JJ.SetSym(i, i, d0[i])
		if i < N {
			JJ.SetSym(i, i+1, d1[i])
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	X = eig.Values(nil)

	VVr := mat.NewDense(N+1, N+1, nil)
	eig.VectorsTo(VVr)
	g0 := gamma0(alpha, beta)
	W = make([]float64, N+1)
	for i, v := range VVr.RawRowView(0) {
		W[i] = v * v * g0
	}
	return
}

// JacobiP evaluates the orthonormal Jacobi polynomial of degree N at r
func JacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	var (
		Nc = len(r)
	)
	rg := 1. / math.Sqrt(gamma0(alpha, beta))
	pold := make([]float64, Nc)
	for i := range pold {
		pold[i] = rg
	}
	if N == 0 {
		return pold
	}
	ab := alpha + beta
	rg1 := 1. / math.Sqrt(gamma1(alpha, beta))
	pcur := make([]float64, Nc)
	for i := 0; i < Nc; i++ {
		pcur[i] = rg1 * ((ab+2.0)*r[i]/2.0 + (alpha-beta)/2.0)
	}
	if N == 1 {
		return pcur
	}

	a1 := alpha + 1.
	b1 := beta + 1.
	ab1 := ab + 1.
	aold := 2.0 * math.Sqrt(a1*b1/(ab+3.0)) / (ab + 2.0)
	for i := 0; i < N-1; i++ {
		ip1 := float64(i + 1)
		ip2 := ip1 + 1
		h1 := 2.0*ip1 + ab
		anew := 2.0 / (h1 + 2.0) * math.Sqrt(ip2*(ip1+ab1)*(ip1+a1)*(ip1+b1)/(h1+1.0)/(h1+3.0))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		pnew := make([]float64, Nc)
		for j := range pnew {
			pnew[j] = (-aold*pold[j] + (r[j]-bnew)*pcur[j]) / anew
		}
		pold, pcur = pcur, pnew
		aold = anew
	}
	return pcur
}

func GradJacobiP(r []float64, alpha, beta float64, N int) (p []float64) {
	if N == 0 {
		p = make([]float64, len(r))
		return
	}
	p = JacobiP(r, alpha+1, beta+1, N-1)
	fN := float64(N)
	fac := math.Sqrt(fN * (fN + alpha + beta + 1))
	for i, val := range p {
		p[i] = val * fac
	}
	return
}

// LegendreP evaluates the classical (unnormalized) Legendre polynomial, P_n(1) = 1
func LegendreP(n int, x float64) float64 {
	if n == 0 {
		return 1
	}
	p0, p1 := 1., x
	for k := 1; k < n; k++ {
		fk := float64(k)
		p0, p1 = p1, ((2*fk+1)*x*p1-fk*p0)/(fk+1)
	}
	return p1
}

func Vandermonde1D(N int, R []float64) (V *mat.Dense) {
	V = mat.NewDense(len(R), N+1, nil)
	for j := 0; j < N+1; j++ {
		V.SetCol(j, JacobiP(R, 0, 0, j))
	}
	return
}

func GradVandermonde1D(N int, R []float64) (Vr *mat.Dense) {
	Vr = mat.NewDense(len(R), N+1, nil)
	for j := 0; j < N+1; j++ {
		Vr.SetCol(j, GradJacobiP(R, 0, 0, j))
	}
	return
}
