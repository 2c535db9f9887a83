package flux_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflow/flux"
	"github.com/notargets/dgflow/model_problems/Euler"
	"github.com/notargets/dgflow/model_problems/Scalar"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
)

func euler(t *testing.T, dim int, model thermo.Model) *Euler.Euler {
	c, err := Euler.NewEuler(dim, model)
	require.NoError(t, err)
	return c
}

func cons(dim int, rho, u, v, p float64) []float64 {
	if dim == 1 {
		return []float64{rho, rho * u, p/0.4 + 0.5*rho*u*u}
	}
	return []float64{rho, rho * u, rho * v, p/0.4 + 0.5*rho*(u*u+v*v)}
}

type fluxCase struct {
	name   string
	p      flux.ConvPhysics
	UL, UR []float64
	normal []float64
}

func cases(t *testing.T) (fc []fluxCase) {
	gas := thermo.NewCaloricallyPerfectGas(1.4, 1)
	e1, e2 := euler(t, 1, gas), euler(t, 2, gas)
	adv, err := Scalar.NewConstAdvScalar([]float64{1.5, -0.5})
	require.NoError(t, err)
	fc = []fluxCase{
		{"Euler1D sod", e1, cons(1, 1, 0, 0, 1), cons(1, 0.125, 0, 0, 0.1), []float64{1}},
		{"Euler1D reversed normal", e1, cons(1, 1, 0.3, 0, 1), cons(1, 0.5, -0.2, 0, 0.4), []float64{-0.5}},
		{"Euler1D supersonic", e1, cons(1, 1, 5, 0, 1), cons(1, 0.9, 4.5, 0, 0.8), []float64{1}},
		{"Euler2D oblique", e2, cons(2, 1, 0.4, -0.3, 1), cons(2, 0.7, -0.1, 0.6, 0.5), []float64{0.3, 0.4}},
		{"Euler2D supersonic", e2, cons(2, 1, -4, 0.2, 1), cons(2, 1.2, -4.5, 0.1, 1.1), []float64{0, 2}},
		{"Advection2D", adv, []float64{1}, []float64{-2}, []float64{0.6, 0.8}},
		{"Burgers", Scalar.NewBurgers1D(), []float64{1.5}, []float64{-0.5}, []float64{1}},
	}
	return
}

func norm(n []float64) (nmag float64, nhat []float64) {
	for _, v := range n {
		nmag += v * v
	}
	nmag = math.Sqrt(nmag)
	for _, v := range n {
		nhat = append(nhat, v/nmag)
	}
	return
}

func TestConsistency(t *testing.T) {
	for _, fc := range cases(t) {
		for _, name := range []string{"LaxFriedrichs", "Roe", "HLLC"} {
			nf, err := flux.New(name, fc.p)
			if _, gas := fc.p.(flux.GasPhysics); !gas && name != "LaxFriedrichs" {
				assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
				continue
			}
			require.NoError(t, err)
			t.Run(fmt.Sprintf("%s/%s", fc.name, name), func(t *testing.T) {
				var (
					ns         = fc.p.NumStateVars()
					ws         = flux.NewWorkspace(ns, fc.p.Dim())
					st         thermo.State
					F          = make([]float64, ns)
					Fexact     = make([]float64, ns)
					nmag, nhat = norm(fc.normal)
				)
				for _, U := range [][]float64{fc.UL, fc.UR} {
					require.NoError(t, nf.ComputeFlux(fc.p, U, U, fc.normal, F, ws))
					require.NoError(t, fc.p.ConvFluxProjected(&st, U, nhat, Fexact))
					for i := range F {
						assert.InDelta(t, nmag*Fexact[i], F[i], 1.e-12)
					}
				}
			})
		}
	}
}

func TestAntisymmetry(t *testing.T) {
	for _, fc := range cases(t) {
		for _, name := range []string{"LaxFriedrichs", "Roe", "HLLC"} {
			nf, err := flux.New(name, fc.p)
			if err != nil {
				continue
			}
			t.Run(fmt.Sprintf("%s/%s", fc.name, name), func(t *testing.T) {
				var (
					ns   = fc.p.NumStateVars()
					ws   = flux.NewWorkspace(ns, fc.p.Dim())
					F    = make([]float64, ns)
					Fr   = make([]float64, ns)
					nneg = make([]float64, len(fc.normal))
				)
				for i, v := range fc.normal {
					nneg[i] = -v
				}
				require.NoError(t, nf.ComputeFlux(fc.p, fc.UL, fc.UR, fc.normal, F, ws))
				require.NoError(t, nf.ComputeFlux(fc.p, fc.UR, fc.UL, nneg, Fr, ws))
				for i := range F {
					assert.InDelta(t, F[i], -Fr[i], 1.e-12)
				}
			})
		}
	}
}

func TestUpwinding(t *testing.T) {
	// Both states supersonic to the right: every upwind solver returns the left flux
	var (
		e1     = euler(t, 1, thermo.NewCaloricallyPerfectGas(1.4, 1))
		UL, UR = cons(1, 1, 5, 0, 1), cons(1, 0.9, 4.5, 0, 0.8)
		st     thermo.State
		FL     = make([]float64, 3)
		F      = make([]float64, 3)
		ws     = flux.NewWorkspace(3, 1)
	)
	require.NoError(t, e1.ConvFluxProjected(&st, UL, []float64{1}, FL))
	for _, name := range []string{"Roe", "HLLC"} {
		nf, err := flux.New(name, e1)
		require.NoError(t, err)
		require.NoError(t, nf.ComputeFlux(e1, UL, UR, []float64{2}, F, ws))
		for i := range F {
			assert.InDelta(t, 2*FL[i], F[i], 1.e-10, name)
		}
	}
}

func TestNew(t *testing.T) {
	gas := thermo.NewCaloricallyPerfectGas(1.4, 1)
	mix, err := thermo.NewModel("MixtureIdealGas", nil)
	require.NoError(t, err)

	_, err = flux.New("Godunov", euler(t, 1, gas))
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))

	// Roe is single species only, HLLC carries the mass fractions
	_, err = flux.New("Roe", euler(t, 1, mix))
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
	nf, err := flux.New("HLLC", euler(t, 1, mix))
	require.NoError(t, err)
	assert.Equal(t, "HLLC", nf.Name())

	_, err = flux.New("HLLC", Scalar.NewBurgers1D())
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
	assert.Equal(t, "Roe", flux.FLUX_Roe.String())
}

func TestHLLCMixture(t *testing.T) {
	mix, err := thermo.NewModel("MixtureIdealGas", nil)
	require.NoError(t, err)
	var (
		c  = euler(t, 1, mix)
		U  = []float64{0.3, 0.7, 0.5, 1.e5}
		F  = make([]float64, 4)
		Fx = make([]float64, 4)
		st thermo.State
		ws = flux.NewWorkspace(4, 1)
	)
	nf, err := flux.New("HLLC", c)
	require.NoError(t, err)
	require.NoError(t, nf.ComputeFlux(c, U, U, []float64{1}, F, ws))
	require.NoError(t, c.ConvFluxProjected(&st, U, []float64{1}, Fx))
	assert.InDeltaSlice(t, Fx, F, 1.e-8)
}

// lowEnthalpy reports a total enthalpy below the kinetic energy, driving the Roe averaged
// sound speed squared negative
type lowEnthalpy struct {
	*Euler.Euler
}

func (p lowEnthalpy) Primitives(st *thermo.State, U []float64, pr *flux.Primitive) error {
	if err := p.Euler.Primitives(st, U, pr); err != nil {
		return err
	}
	pr.H = 0
	return nil
}

func TestRoeNotPhysical(t *testing.T) {
	var (
		p  = lowEnthalpy{euler(t, 1, thermo.NewCaloricallyPerfectGas(1.4, 1))}
		ws = flux.NewWorkspace(3, 1)
		F  = make([]float64, 3)
	)
	nf, err := flux.New("Roe", p)
	require.NoError(t, err)
	err = nf.ComputeFlux(p, cons(1, 1, 1, 0, 1), cons(1, 2, 1, 0, 1), []float64{1}, F, ws)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNotPhysical))
	var np *types.NotPhysicalError
	require.True(t, errors.As(err, &np))
	assert.Equal(t, "c^2", np.Quantity)

	// A negative density on either side is reported before averaging
	err = nf.ComputeFlux(p, cons(1, -1, 0, 0, 1), cons(1, 1, 0, 0, 1), []float64{1}, F, ws)
	assert.True(t, errors.Is(err, types.ErrNotPhysical))
}

func BenchmarkFluxes(b *testing.B) {
	var (
		c, _   = Euler.NewEuler(2, thermo.NewCaloricallyPerfectGas(1.4, 1))
		UL, UR = cons(2, 1, 0.4, -0.3, 1), cons(2, 0.7, -0.1, 0.6, 0.5)
		normal = []float64{0.3, 0.4}
		F      = make([]float64, 4)
		ws     = flux.NewWorkspace(4, 2)
	)
	for _, name := range []string{"LaxFriedrichs", "Roe", "HLLC"} {
		nf, _ := flux.New(name, c)
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = nf.ComputeFlux(c, UL, UR, normal, F, ws)
			}
		})
	}
}
