package Scalar

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/types"
)

func TestConstAdvScalar(t *testing.T) {
	c, err := NewConstAdvScalar([]float64{2, -1})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Dim())
	var (
		U = []float64{3}
		F = make([]float64, 2)
		G = make([]float64, 1)
	)
	require.NoError(t, c.ConvFluxInterior(nil, U, F))
	assert.Equal(t, []float64{6, -3}, F)
	require.NoError(t, c.ConvFluxProjected(nil, U, []float64{0.6, 0.8}, G))
	assert.InDelta(t, 3*(1.2-0.8), G[0], 1.e-14)
	a, err := c.MaxWaveSpeed(nil, U, []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 1., a)

	_, err = NewConstAdvScalar([]float64{1, 1, 1})
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
	_, err = c.ComputeVariable(nil, "Pressure", U)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
}

func TestBurgers(t *testing.T) {
	b := NewBurgers1D()
	F := make([]float64, 1)
	require.NoError(t, b.ConvFluxProjected(nil, []float64{-2}, []float64{-1}, F))
	assert.Equal(t, -2., F[0])
	a, err := b.MaxWaveSpeed(nil, []float64{-2}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 2., a)
}

func stateAt(t *testing.T, p physics.EquationSet, name string, params physics.Params, x []float64, tm float64) float64 {
	fn, err := p.Functions().New(name, params)
	require.NoError(t, err)
	U := make([]float64, 1)
	require.NoError(t, fn.GetState(p, x, tm, U))
	return U[0]
}

func TestFunctions(t *testing.T) {
	adv, err := NewConstAdvScalar([]float64{0.5})
	require.NoError(t, err)
	burgers := NewBurgers1D()

	// Advected profiles are shifted by c t
	assert.InDelta(t, math.Sin(2*math.Pi*0.2), stateAt(t, adv, "Sine", nil, []float64{0.7}, 1), 1.e-14)
	assert.InDelta(t, math.Exp(-2)*math.Sin(2*math.Pi*0.2),
		stateAt(t, adv, "DampingSine", physics.Params{"nu": -1}, []float64{1.2}, 2), 1.e-14)
	assert.InDelta(t, 1., stateAt(t, adv, "Gaussian", physics.Params{"x0": 0.5}, []float64{1}, 1), 1.e-14)
	assert.InDelta(t, 2., stateAt(t, adv, "ShiftedCosine", nil, []float64{0.5}, 0), 1.e-14)
	assert.Equal(t, 4., stateAt(t, adv, "Uniform", physics.Params{"state": 4}, []float64{0}, 0))

	// Burgers shock moves at (uL+uR)/2, advection at the velocity
	assert.Equal(t, 1., stateAt(t, burgers, "ScalarShock", nil, []float64{-0.05}, 1))
	assert.Equal(t, 0., stateAt(t, burgers, "ScalarShock", nil, []float64{0.05}, 1))
	assert.Equal(t, 1., stateAt(t, adv, "ScalarShock", nil, []float64{-0.05}, 0.9))

	// 2D sine is a product
	adv2, err := NewConstAdvScalar([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1., stateAt(t, adv2, "Sine", nil, []float64{0.25, 0.25}, 0), 1.e-14)

	_, err = adv.Functions().New("Square", nil)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
}

func TestSources(t *testing.T) {
	var (
		adv, _ = NewConstAdvScalar([]float64{1})
		S      = make([]float64, 1)
		S1     = make([]float64, 1)
		J      = mat.NewDense(1, 1, nil)
		U      = []float64{0.3}
		h      = 1.e-7
	)
	for _, name := range []string{"SimpleSource", "StiffSource"} {
		src, err := adv.Sources().New(name, physics.Params{"nu": -2, "stiffness": 0.1})
		require.NoError(t, err)
		J.Zero()
		require.NoError(t, src.GetSource(adv, nil, U, []float64{0}, 0, S))
		require.NoError(t, src.GetJacobian(adv, nil, U, []float64{0}, 0, J))
		require.NoError(t, src.GetSource(adv, nil, []float64{U[0] + h}, []float64{0}, 0, S1))
		assert.InDelta(t, (S1[0]-S[0])/h, J.At(0, 0), 1.e-4, name)
	}
	_, err := adv.Sources().New("StiffSource", physics.Params{"stiffness": 0})
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))

	bc, err := adv.BCs().New("Extrapolate", nil)
	require.NoError(t, err)
	assert.Equal(t, types.BCWeakPrescribed, bc.Kind())
}
