package sod_shock_tube

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflow/types"
)

func TestSOD(t *testing.T) {
	X, Rho, P, U, _, x4, err := SOD_calc(0.1)
	require.NoError(t, err)
	xCheck := []float64{0, 0.3816784, 0.3816784, 0.4929727, 0.4929727, 0.5927453, 0.5927453, 0.6752156, 0.6752156, 1}
	rhoCheck := []float64{1, 1, 1, 0.4263194, 0.4263194, 0.4263194, 0.2655737, 0.2655737, 0.125, 0.125}
	assert.True(t, isNear(xCheck, X, 0.001))
	assert.True(t, isNear(rhoCheck, Rho, 0.001))
	assert.InDelta(t, 0.6752, x4, 0.0001)
	assert.InDelta(t, 0.30313, P[5], 1.e-5)
	assert.InDelta(t, 0.92745, U[6], 1.e-5)
	_, _, _, _, _, x4, err = SOD_calc(0.2)
	require.NoError(t, err)
	assert.InDelta(t, 0.8504, x4, 0.0001)
}

func TestRiemannSample(t *testing.T) {
	rs := NewSod()
	// Initial condition is the step itself
	pr, err := rs.Sample(0.4, 0)
	require.NoError(t, err)
	assert.Equal(t, rs.Left, pr)
	pr, err = rs.Sample(0.6, 0)
	require.NoError(t, err)
	assert.Equal(t, rs.Right, pr)

	// Rarefaction fan is continuous at both edges
	xe1, xe2, _, _ := rs.Positions(0.2)
	in, err := rs.Sample(xe1+1.e-10, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 1., in.Rho, 1.e-8)
	out, err := rs.Sample(xe2-1.e-10, 0.2)
	require.NoError(t, err)
	assert.InDelta(t, rs.Rho3, out.Rho, 1.e-8)
	assert.InDelta(t, rs.U2, out.U, 1.e-8)

	// Isentropic through the fan
	mid, err := rs.Sample(0.5*(xe1+xe2), 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 1., mid.P/math.Pow(mid.Rho, rs.Gamma), 1.e-10)
}

func TestRiemannConvergenceFailure(t *testing.T) {
	// A right state with a vacuum pressure has no pressure ratio
	rs := NewRiemann(Primitive{Rho: 1, P: 1}, Primitive{Rho: 1, P: 0}, 1.4, 0)
	_, err := rs.Sample(0.1, 0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConvergenceFailure))
}

func isNear(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i, val := range a {
		if math.Abs(b[i]-val) > tol {
			return false
		}
	}
	return true
}
