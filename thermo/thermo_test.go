package thermo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflow/types"
)

func TestCaloricallyPerfectGas(t *testing.T) {
	var (
		g  = NewCaloricallyPerfectGas(1.4, 287)
		st State
	)
	require.NoError(t, g.SetStateFromRhoiP(&st, []float64{1.2}, 101325))
	assert.InDelta(t, 101325/(1.2*287), st.T, 1e-10)
	assert.InDelta(t, math.Sqrt(1.4*101325/1.2), st.C, 1e-10)
	assert.InDelta(t, 1.4, st.Gamma, 1e-14)
	assert.InDelta(t, st.E+st.P/st.Rho, st.H, 1e-9)
	assert.InDelta(t, st.Cp-st.Cv, st.R, 1e-10)

	// Setting from T, then from rho*e, gives back the same pressure
	T := st.T
	var st2 State
	require.NoError(t, g.SetStateFromRhoiT(&st2, []float64{1.2}, T))
	assert.InDelta(t, 101325, st2.P, 1e-8)
	var st3 State
	require.NoError(t, g.SetStateFromRhoiE(&st3, []float64{1.2}, 1.2*st.E))
	assert.InDelta(t, 101325, st3.P, 1e-8)
	assert.InDelta(t, T, st3.T, 1e-10)
}

func TestStateCache(t *testing.T) {
	var (
		g  = NewCaloricallyPerfectGas(1.4, 1)
		st State
	)
	require.NoError(t, g.SetStateFromRhoiP(&st, []float64{1}, 1))
	// Tamper with a derived value: an identical call keeps the cached result, a new input recomputes
	st.C = -1
	require.NoError(t, g.SetStateFromRhoiP(&st, []float64{1}, 1))
	assert.Equal(t, -1., st.C)
	require.NoError(t, g.SetStateFromRhoiT(&st, []float64{1}, 1))
	assert.InDelta(t, math.Sqrt(1.4), st.C, 1e-14)
	st.Invalidate()
	st.C = -1
	require.NoError(t, g.SetStateFromRhoiT(&st, []float64{1}, 1))
	assert.InDelta(t, math.Sqrt(1.4), st.C, 1e-14)
}

func TestNotPhysical(t *testing.T) {
	var (
		g  = NewCaloricallyPerfectGas(1.4, 287)
		st State
	)
	cases := []struct {
		name string
		err  error
	}{
		{"negative density", g.SetStateFromRhoiP(&st, []float64{-1}, 1)},
		{"zero density", g.SetStateFromRhoiP(&st, []float64{0}, 1)},
		{"negative pressure", g.SetStateFromRhoiP(&st, []float64{1}, -1)},
		{"NaN pressure", g.SetStateFromRhoiP(&st, []float64{1}, math.NaN())},
		{"negative temperature", g.SetStateFromRhoiT(&st, []float64{1}, -10)},
		{"negative energy", g.SetStateFromRhoiE(&st, []float64{1}, -3)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Error(t, c.err)
			assert.True(t, errors.Is(c.err, types.ErrNotPhysical))
			var npe *types.NotPhysicalError
			assert.True(t, errors.As(c.err, &npe))
		})
	}
	// A failed call does not leave a stale cache behind
	require.NoError(t, g.SetStateFromRhoiP(&st, []float64{1}, 1))
	assert.InDelta(t, 1., st.P, 1e-15)
}

func TestMixtureIdealGas(t *testing.T) {
	var (
		g = NewMixtureIdealGas([]Species{
			{Name: "N2", R: 296.8, Cv: 743},
			{Name: "He", R: 2077, Cv: 3116, Hf: 1000},
		})
		rhoi = []float64{0.8, 0.2}
		st   State
	)
	require.NoError(t, g.SetStateFromRhoiP(&st, rhoi, 1e5))
	assert.InDelta(t, 1., st.Rho, 1e-15)
	assert.InDelta(t, 0.8*296.8+0.2*2077, st.R, 1e-10)
	assert.InDelta(t, 0.8, st.Y[0], 1e-15)
	assert.InDelta(t, 0.8*743+0.2*3116, st.Cv, 1e-10)
	assert.InDelta(t, st.Cv*st.T+0.2*1000, st.E, 1e-8)

	var st2 State
	require.NoError(t, g.SetStateFromRhoiE(&st2, rhoi, st.Rho*st.E))
	assert.InDelta(t, 1e5, st2.P, 1e-6)
	var st3 State
	require.NoError(t, g.SetStateFromRhoiT(&st3, rhoi, st.T))
	assert.InDelta(t, 1e5, st3.P, 1e-6)

	err := g.SetStateFromRhoiP(&st, []float64{1}, 1)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
	err = g.SetStateFromRhoiP(&st, []float64{1, -0.1}, 1)
	assert.True(t, errors.Is(err, types.ErrNotPhysical))
	assert.Equal(t, []float64{1, 0}, g.DefaultY())

	// The unchecked pressure agrees with the setters and goes negative below the formation energy
	assert.InDelta(t, 1e5, g.Pressure(rhoi, st2.Rho*st2.E), 1e-6)
	assert.True(t, g.Pressure(rhoi, 100) < 0)
}

func TestUncheckedPressure(t *testing.T) {
	g := NewCaloricallyPerfectGas(1.4, 1)
	assert.InDelta(t, 0.4, g.Pressure([]float64{2}, 1), 1e-15)
	assert.InDelta(t, -0.4, g.Pressure([]float64{2}, -1), 1e-15)
}

func TestTransport(t *testing.T) {
	var (
		g  = NewCaloricallyPerfectGas(1.4, 1)
		st State
	)
	require.NoError(t, g.SetStateFromRhoiT(&st, []float64{1}, 2))
	ct, err := NewTransport("Constant", map[string]float64{"Viscosity": 0.5, "PrandtlNumber": 0.7})
	require.NoError(t, err)
	assert.Equal(t, 0.5, ct.Viscosity(&st))
	assert.InDelta(t, 0.5*st.Cp/0.7, ct.ThermalConductivity(&st), 1e-14)
	D := []float64{1}
	ct.DiffusionCoefficients(&st, D)
	assert.Equal(t, []float64{0}, D)

	sl, err := NewTransport("Sutherland", map[string]float64{"Viscosity": 2, "s": 1, "T0": 1, "beta": 1.5})
	require.NoError(t, err)
	exp := 2 * math.Pow(2, 1.5) * 2 / 3
	assert.InDelta(t, exp, sl.Viscosity(&st), 1e-14)
	// The cached viscosity follows the temperature
	require.NoError(t, g.SetStateFromRhoiT(&st, []float64{1}, 1))
	assert.InDelta(t, 2., sl.Viscosity(&st), 1e-14)
	// and the law it was evaluated with
	sl2 := &SutherlandTransport{Pr: 0.7, Mu0: 3, S: 1, T0: 1, Beta: 1.5}
	assert.InDelta(t, 3., sl2.Viscosity(&st), 1e-14)
	sl2.Mu0 = 5
	assert.InDelta(t, 5., sl2.Viscosity(&st), 1e-14)
	assert.InDelta(t, 2., sl.Viscosity(&st), 1e-14)

	_, err = NewTransport("Cantera", nil)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
	_, err = NewModel("Cantera", nil)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
	m, err := NewModel("CaloricallyPerfectGas", map[string]float64{"SpecificHeatRatio": 1.4, "GasConstant": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, m.NumSpecies())
}
