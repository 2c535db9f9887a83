package elements

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflow/basis"
	"github.com/notargets/dgflow/mesh"
	"github.com/notargets/dgflow/types"
)

func newSegElements(t *testing.T, family string, N, K int) *Elements {
	m, err := mesh.NewSegmentMesh(K, 0, 2, true)
	require.NoError(t, err)
	b, err := basis.ForShape(family, basis.Segment, N)
	require.NoError(t, err)
	el, err := NewElements(m, b, basis.GaussLegendre)
	require.NoError(t, err)
	return el
}

func TestSegmentGeometry(t *testing.T) {
	el := newSegElements(t, "Legendre", 3, 4)
	assert.InDelta(t, 0.5, el.HMin, 1e-15)
	var vol float64
	for k := 0; k < el.K; k++ {
		vol += el.Vol[k]
		assert.Equal(t, -1., el.Normal(k, 0, 0)[0])
		assert.Equal(t, 1., el.Normal(k, 1, 0)[0])
	}
	assert.InDelta(t, 2., vol, 1e-13)
	assert.InDelta(t, 0.5, el.FaceQuadX(0, 1, 0)[0], 1e-15)
	// Physical derivative of the degree one mode is sqrt(3/2) / (h/2)
	assert.InDelta(t, math.Sqrt(1.5)/0.25, el.GradPhi(2, 0, 1)[0], 1e-12)
}

func TestProjectAndMean(t *testing.T) {
	for _, family := range []string{"Legendre", "Lagrange"} {
		el := newSegElements(t, family, 3, 4)
		U := types.NewTensor(el.K, el.Nb, 2)
		// A cubic is reproduced exactly
		f := func(x float64) float64 { return 1 + x - 2*x*x + 0.5*x*x*x }
		require.NoError(t, el.Project(2, func(k int, x, u []float64) error {
			u[0], u[1] = f(x[0]), 3
			return nil
		}, U))
		Uq := make([]float64, el.Nq*2)
		for k := 0; k < el.K; k++ {
			el.EvalVolume(U.Elem(k), 2, Uq)
			for i := 0; i < el.Nq; i++ {
				assert.InDelta(t, f(el.QuadX(k, i)[0]), Uq[2*i], 1e-12)
				assert.InDelta(t, 3., Uq[2*i+1], 1e-12)
			}
			mean := make([]float64, 2)
			el.Mean(k, U.Elem(k), 2, mean)
			assert.InDelta(t, 3., mean[1], 1e-12)
			// Constant coefficients reproduce 1 everywhere
			Uf := make([]float64, 1)
			el.EvalFace(el.ConstCoeffs[k*el.Nb:(k+1)*el.Nb], 1, 1, Uf)
			assert.InDelta(t, 1., Uf[0], 1e-12)
		}
	}
}

func TestApplyInverseMass(t *testing.T) {
	el := newSegElements(t, "Lagrange", 2, 3)
	// R = M c for known c, then dt M^-1 R = dt c
	var (
		Ns = 1
		U  = types.NewTensor(el.K, el.Nb, Ns)
		R  = U.NewLike()
	)
	require.NoError(t, el.Project(Ns, func(k int, x, u []float64) error {
		u[0] = math.Sin(x[0])
		return nil
	}, U))
	for k := 0; k < el.K; k++ {
		for i := 0; i < el.Nq; i++ {
			var uq float64
			for a := 0; a < el.Nb; a++ {
				uq += el.Phi[i*el.Nb+a] * U.At(k, a, 0)
			}
			for a := 0; a < el.Nb; a++ {
				R.Elem(k)[a] += el.WJ[k*el.Nq+i] * el.Phi[i*el.Nb+a] * uq
			}
		}
	}
	Rk := append([]float64(nil), R.Elem(1)...)
	MulInverseMass(el.MInv[1], Ns, Rk)
	assert.InDeltaSlice(t, U.Elem(1), Rk, 1e-13)
	require.NoError(t, el.ApplyInverseMass(0.5, R, R))
	for i := range U.Data {
		assert.InDelta(t, 0.5*U.Data[i], R.Data[i], 1e-13)
	}
	assert.Error(t, el.ApplyInverseMass(1, R, types.NewTensor(1, 1, 1)))
}

func TestQuadGeometry(t *testing.T) {
	m, err := mesh.NewQuadMesh(2, 3, 0, 2, 0, 3, false, false)
	require.NoError(t, err)
	b, err := basis.New("LegendreQuad", 2)
	require.NoError(t, err)
	el, err := NewElements(m, b, basis.GaussLegendre)
	require.NoError(t, err)
	assert.InDelta(t, 1., el.HMin, 1e-15)
	for k := 0; k < el.K; k++ {
		assert.InDelta(t, 1., el.Vol[k], 1e-13)
		// The closed surface integral of the normal vanishes, and each face has length 1
		var sx, sy float64
		for f := 0; f < 4; f++ {
			var length float64
			for i := 0; i < el.NqF; i++ {
				n := el.Normal(k, f, i)
				sx += el.FaceW[i] * n[0]
				sy += el.FaceW[i] * n[1]
				length += el.FaceW[i] * math.Hypot(n[0], n[1])
			}
			assert.InDelta(t, 1., length, 1e-13)
		}
		assert.InDelta(t, 0., sx, 1e-13)
		assert.InDelta(t, 0., sy, 1e-13)
	}
	// Outward normal of the right face of element 0
	n := el.Normal(0, 1, 0)
	assert.InDelta(t, 0.5, n[0], 1e-15)
	assert.InDelta(t, 0., n[1], 1e-15)
	// Neighbor face points coincide
	for _, f := range m.InteriorFaces {
		for i := 0; i < el.NqF; i++ {
			xl := el.FaceQuadX(f.L.Elem, f.L.Face, i)
			xr := el.FaceQuadX(f.R.Elem, f.R.Face, el.NeighborPoint(i))
			assert.InDelta(t, xl[0], xr[0], 1e-13)
			assert.InDelta(t, xl[1], xr[1], 1e-13)
		}
	}

	_, err = NewElements(m, basis.NewLegendreSeg(1), basis.GaussLegendre)
	assert.ErrorIs(t, err, types.ErrUnsupportedConfiguration)
}
