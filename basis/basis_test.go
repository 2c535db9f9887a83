package basis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflow/types"
)

func TestNew(t *testing.T) {
	for label := range BasisNames {
		b, err := New(label, 3)
		require.NoError(t, err)
		assert.Equal(t, label, b.Name())
		assert.Equal(t, 3, b.Order())
	}
	_, err := New("Bernstein", 2)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
	_, err = New("LegendreSeg", -1)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))

	b, err := ForShape("Lagrange", Quadrilateral, 2)
	require.NoError(t, err)
	assert.Equal(t, 9, b.NumBasis())
	assert.Equal(t, Quadrilateral, b.Shape())
}

func TestLagrangeSegIsNodal(t *testing.T) {
	b := NewLagrangeSeg(4)
	phi := make([]float64, b.NumBasis())
	for i, x := range b.Nodes {
		b.Values([]float64{x}, phi)
		for j := range phi {
			exp := 0.
			if i == j {
				exp = 1.
			}
			assert.InDelta(t, exp, phi[j], 1e-12)
		}
	}
	// Partition of unity, derivatives sum to zero
	dphi := make([]float64, b.NumBasis())
	b.Values([]float64{0.37}, phi)
	b.Gradients([]float64{0.37}, dphi)
	var s, ds float64
	for j := range phi {
		s += phi[j]
		ds += dphi[j]
	}
	assert.InDelta(t, 1., s, 1e-12)
	assert.InDelta(t, 0., ds, 1e-11)
}

func TestLegendreSegOrthonormal(t *testing.T) {
	var (
		b   = NewLegendreSeg(5)
		q   = NewRule(GaussLegendre, Segment, QuadratureOrder(5, 1, 1))
		nb  = b.NumBasis()
		phi = make([]float64, nb)
		M   = make([]float64, nb*nb)
	)
	for i := 0; i < q.NumPoints(); i++ {
		b.Values(q.Point(i), phi)
		for a := 0; a < nb; a++ {
			for c := 0; c < nb; c++ {
				M[a*nb+c] += q.Weights[i] * phi[a] * phi[c]
			}
		}
	}
	for a := 0; a < nb; a++ {
		for c := 0; c < nb; c++ {
			exp := 0.
			if a == c {
				exp = 1.
			}
			assert.InDelta(t, exp, M[a*nb+c], 1e-12)
		}
	}
}

func TestTensorQuadGradients(t *testing.T) {
	// Finite difference check of the tensor product gradient
	var (
		b    = NewTensorQuad(NewLagrangeSeg(2))
		nb   = b.NumBasis()
		r    = []float64{0.2, -0.45}
		h    = 1e-6
		dphi = make([]float64, 2*nb)
		pp   = make([]float64, nb)
		pm   = make([]float64, nb)
	)
	b.Gradients(r, dphi)
	for d := 0; d < 2; d++ {
		rp, rm := []float64{r[0], r[1]}, []float64{r[0], r[1]}
		rp[d] += h
		rm[d] -= h
		b.Values(rp, pp)
		b.Values(rm, pm)
		for j := 0; j < nb; j++ {
			assert.InDelta(t, (pp[j]-pm[j])/(2*h), dphi[2*j+d], 1e-7)
		}
	}
}

func TestQuadratureExactness(t *testing.T) {
	integrate := func(q *Rule, deg int) (s float64) {
		for i := 0; i < q.NumPoints(); i++ {
			s += q.Weights[i] * math.Pow(q.Point(i)[0], float64(deg))
		}
		return
	}
	exact := func(deg int) float64 {
		if deg%2 == 1 {
			return 0
		}
		return 2. / float64(deg+1)
	}
	for order := 0; order < 12; order++ {
		for _, qt := range []QuadratureType{GaussLegendre, GaussLobatto} {
			q := NewRule(qt, Segment, order)
			for deg := 0; deg <= order; deg++ {
				assert.InDelta(t, exact(deg), integrate(q, deg), 1e-12, "order %d degree %d", order, deg)
			}
		}
	}
	// Tensor rule integrates x^2 y^4 exactly
	q := NewRule(GaussLegendre, Quadrilateral, 5)
	var s float64
	for i := 0; i < q.NumPoints(); i++ {
		p := q.Point(i)
		s += q.Weights[i] * p[0] * p[0] * math.Pow(p[1], 4)
	}
	assert.InDelta(t, 2./3.*2./5., s, 1e-13)
	assert.Equal(t, 7, QuadratureOrder(3, 1, 2))
	assert.Equal(t, 9, QuadratureOrder(3, 2, 2))

	_, err := NewQuadratureType("Simpson")
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
}

func TestFacePoint(t *testing.T) {
	assert.Equal(t, []float64{-1}, FacePoint(Segment, 0, 0))
	assert.Equal(t, []float64{1}, FacePoint(Segment, 1, 0))
	// Quad faces traverse the boundary counterclockwise
	assert.Equal(t, []float64{-1, -1}, FacePoint(Quadrilateral, 0, -1))
	assert.Equal(t, []float64{1, -1}, FacePoint(Quadrilateral, 1, -1))
	assert.Equal(t, []float64{1, 1}, FacePoint(Quadrilateral, 2, -1))
	assert.Equal(t, []float64{-1, 1}, FacePoint(Quadrilateral, 3, -1))
}
