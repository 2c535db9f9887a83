package DG1D

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

func TestJacobiGQ(t *testing.T) {
	for N := 0; N < 9; N++ {
		X, W := JacobiGQ(0, 0, N)
		assert.Equal(t, N+1, len(X))
		var sum float64
		for _, w := range W {
			sum += w
		}
		assert.True(t, near(sum, 2))
		// Matches the gonum Legendre rule
		xg, wg := make([]float64, N+1), make([]float64, N+1)
		quad.Legendre{}.FixedLocations(xg, wg, -1, 1)
		sort.Float64s(xg) // weights are symmetric, so only the nodes need ordering
		assert.True(t, nearVec(xg, X, 1e-12))
		assert.True(t, nearVec(wg, W, 1e-12))
		// Exact for polynomials through degree 2N+1
		for deg := 0; deg <= 2*N+1; deg++ {
			var integral float64
			for i, x := range X {
				integral += W[i] * math.Pow(x, float64(deg))
			}
			exact := 0.
			if deg%2 == 0 {
				exact = 2. / float64(deg+1)
			}
			assert.InDelta(t, exact, integral, 1e-13)
		}
	}
}

func TestJacobiGL(t *testing.T) {
	X := JacobiGL(0, 0, 3)
	assert.True(t, nearVec([]float64{-1, -0.4472135955, 0.4472135955, 1}, X, 1e-9))
	W := GaussLobattoWeights(X)
	assert.True(t, nearVec([]float64{1. / 6, 5. / 6, 5. / 6, 1. / 6}, W, 1e-12))
	for N := 1; N < 8; N++ {
		X = JacobiGL(0, 0, N)
		W = GaussLobattoWeights(X)
		// Exact through degree 2N-1
		for deg := 0; deg <= 2*N-1; deg++ {
			var integral float64
			for i, x := range X {
				integral += W[i] * math.Pow(x, float64(deg))
			}
			exact := 0.
			if deg%2 == 0 {
				exact = 2. / float64(deg+1)
			}
			assert.InDelta(t, exact, integral, 1e-12)
		}
	}
	assert.Equal(t, []float64{0}, JacobiGL(0, 0, 0))
}

func TestVandermonde(t *testing.T) {
	var (
		N    = 4
		X, W = JacobiGQ(0, 0, N)
		V    = Vandermonde1D(N, X)
	)
	// Orthonormal modes: V' diag(W) V = I
	WV := mat.NewDense(N+1, N+1, nil)
	WV.Apply(func(i, j int, v float64) float64 { return W[i] * v }, V)
	var M mat.Dense
	M.Mul(V.T(), WV)
	for i := 0; i < N+1; i++ {
		for j := 0; j < N+1; j++ {
			exp := 0.
			if i == j {
				exp = 1.
			}
			assert.InDelta(t, exp, M.At(i, j), 1e-12)
		}
	}
	// Derivative of the degree 1 mode is constant sqrt(3/2)
	Vr := GradVandermonde1D(N, X)
	for i := range X {
		assert.InDelta(t, math.Sqrt(1.5), Vr.At(i, 1), 1e-12)
		assert.InDelta(t, 0., Vr.At(i, 0), 1e-14)
	}
	// Legendre relationship P_n = sqrt(2/(2n+1)) * orthonormal P_n
	r := []float64{0.3}
	for n := 0; n < 6; n++ {
		assert.InDelta(t, LegendreP(n, 0.3), JacobiP(r, 0, 0, n)[0]*math.Sqrt(2./float64(2*n+1)), 1e-13)
	}
}

func near(a, b float64) (l bool) {
	if math.Abs(a-b) < 1.e-08*math.Abs(a) {
		l = true
	}
	return
}

func nearVec(a, b []float64, tol float64) (l bool) {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
