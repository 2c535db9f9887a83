package limiter

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflow/basis"
	"github.com/notargets/dgflow/elements"
	"github.com/notargets/dgflow/mesh"
	"github.com/notargets/dgflow/model_problems/Euler"
	"github.com/notargets/dgflow/model_problems/Scalar"
	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
	"github.com/notargets/dgflow/utils"
)

func setup(t *testing.T, K int) (*elements.Elements, *utils.PartitionMap) {
	m, err := mesh.NewSegmentMesh(K, 0, 1, true)
	require.NoError(t, err)
	b, err := basis.New("LagrangeSeg", 2)
	require.NoError(t, err)
	el, err := elements.NewElements(m, b, basis.GaussLegendre)
	require.NoError(t, err)
	return el, utils.NewPartitionMap(3, K)
}

func eulerState(t *testing.T, el *elements.Elements) (*Euler.Euler, *types.Tensor) {
	c, err := Euler.NewEuler(1, thermo.NewCaloricallyPerfectGas(1.4, 1))
	require.NoError(t, err)
	U := types.NewTensor(el.K, el.Nb, 3)
	require.NoError(t, el.Project(3, func(k int, x, u []float64) error {
		rho := 1 + 0.5*math.Sin(2*math.Pi*x[0])
		u[0], u[1], u[2] = rho, 0.1*rho, 1/0.4+0.005*rho
		return nil
	}, U))
	return c, U
}

func means(el *elements.Elements, U *types.Tensor) (m [][]float64) {
	for k := 0; k < U.K; k++ {
		mk := make([]float64, U.Ns)
		el.Mean(k, U.Elem(k), U.Ns, mk)
		m = append(m, mk)
	}
	return
}

func TestNew(t *testing.T) {
	el, pm := setup(t, 4)
	c, _ := eulerState(t, el)
	burgers := Scalar.NewBurgers1D()

	lim, err := New("", c, el, pm)
	assert.NoError(t, err)
	assert.Nil(t, lim)

	for _, tc := range []struct {
		name string
		p    physics.Physics
	}{
		{"PositivityPreserving", burgers},
		{"ScalarPositivityPreserving", c},
		{"Moment", c},
	} {
		_, err = New(tc.name, tc.p, el, pm)
		assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration), tc.name)
	}
	lim, err = New("PositivityPreserving", c, el, pm)
	require.NoError(t, err)
	assert.Equal(t, "PositivityPreserving", lim.Name())
	assert.Equal(t, "ScalarPositivityPreserving", LIMITER_ScalarPositivityPreserving.String())
}

func TestPositivityPreserving(t *testing.T) {
	var (
		el, pm = setup(t, 6)
		c, U   = eulerState(t, el)
		ctx    = context.Background()
	)
	lim, err := New("PositivityPreserving", c, el, pm)
	require.NoError(t, err)
	pp := lim.(*PositivityPreserving)

	// A smooth positive state is left untouched
	U0 := U.Copy()
	require.NoError(t, lim.Limit(ctx, U))
	assert.Equal(t, U0.Data, U.Data)

	// Negative density at the left node of element 2, negative energy at the right node of element 4
	U.Set(2, 0, 0, -0.3)
	U.Set(4, 2, 2, -1)
	before := means(el, U)

	var (
		Up  = make([]float64, pp.num()*3)
		neg = func(k int) (minRho, minP float64) {
			minRho, minP = math.Inf(1), math.Inf(1)
			pp.eval(U.Elem(k), 3, Up)
			for q := 0; q < pp.num(); q++ {
				u := Up[q*3 : (q+1)*3]
				minRho = math.Min(minRho, u[0])
				minP = math.Min(minP, c.RawPressure(u))
			}
			return
		}
	)
	minRho, _ := neg(2)
	require.Less(t, minRho, 0.)
	_, minP := neg(4)
	require.Less(t, minP, 0.)

	require.NoError(t, lim.Limit(ctx, U))
	for k := 0; k < el.K; k++ {
		minRho, minP = neg(k)
		assert.GreaterOrEqual(t, minRho, POS_TOL-1.e-14, "element %d", k)
		assert.GreaterOrEqual(t, minP, POS_TOL-1.e-12, "element %d", k)
	}
	// Conservation
	after := means(el, U)
	for k := range before {
		assert.InDeltaSlice(t, before[k], after[k], 1.e-13)
	}
	// Idempotence
	U1 := U.Copy()
	require.NoError(t, lim.Limit(ctx, U))
	assert.InDeltaSlice(t, U1.Data, U.Data, 1.e-12)
}

func TestPositivityPreservingBadMean(t *testing.T) {
	var (
		el, pm = setup(t, 4)
		c, U   = eulerState(t, el)
	)
	lim, err := New("PositivityPreserving", c, el, pm)
	require.NoError(t, err)
	for a := 0; a < el.Nb; a++ {
		U.Set(1, a, 0, -1)
	}
	err = lim.Limit(context.Background(), U)
	require.Error(t, err)
	var np *types.NotPhysicalError
	require.True(t, errors.As(err, &np))
	assert.Equal(t, "mean partial density", np.Quantity)
	assert.Equal(t, "PositivityPreserving", np.Where)
}

func TestScalarPositivityPreserving(t *testing.T) {
	var (
		el, pm = setup(t, 8)
		U      = types.NewTensor(el.K, el.Nb, 1)
		ctx    = context.Background()
	)
	// The L2 projection of a step overshoots
	require.NoError(t, el.Project(1, func(k int, x, u []float64) error {
		u[0] = 0
		if x[0] < 0.43 {
			u[0] = 1
		}
		return nil
	}, U))
	lim, err := New("ScalarPositivityPreserving", Scalar.NewBurgers1D(), el, pm)
	require.NoError(t, err)
	sp := lim.(*ScalarPositivityPreserving)

	before := means(el, U)
	umin, umax := math.Inf(1), math.Inf(-1)
	for _, m := range before {
		umin, umax = math.Min(umin, m[0]), math.Max(umax, m[0])
	}
	require.NoError(t, lim.Limit(ctx, U))
	Up := make([]float64, sp.num())
	for k := 0; k < el.K; k++ {
		sp.eval(U.Elem(k), 1, Up)
		for _, u := range Up {
			assert.GreaterOrEqual(t, u, umin-1.e-13)
			assert.LessOrEqual(t, u, umax+1.e-13)
		}
	}
	after := means(el, U)
	for k := range before {
		assert.InDelta(t, before[k][0], after[k][0], 1.e-13)
	}
	U1 := U.Copy()
	require.NoError(t, lim.Limit(ctx, U))
	assert.InDeltaSlice(t, U1.Data, U.Data, 1.e-12)
}
