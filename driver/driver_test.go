package driver

import (
	"bytes"
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflow/InputParameters"
	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/types"
)

func advectionInput(t *testing.T) *InputParameters.InputParameters {
	ip := InputParameters.NewInputParameters()
	require.NoError(t, ip.Parse([]byte(`
Title: Advection
TimeStepping:
  FinalTime: 0.1
  NumTimeSteps: 10
  TimeStepper: LSRK4
Numerics:
  SolutionOrder: 2
  ParallelDegree: 2
Mesh:
  NumElemsX: 8
  PeriodicX: true
Physics:
  Type: ConstAdvScalar
InitialCondition:
  Function: Sine
ExactSolution:
  Function: Sine
`)))
	ip.Output.Prefix = filepath.Join(t.TempDir(), "advection")
	return ip
}

func TestBuild(t *testing.T) {
	ip := advectionInput(t)
	c, err := Build(ip)
	require.NoError(t, err)
	assert.Equal(t, "ConstAdvScalar", c.Solver.DG.Physics.Name())
	assert.Equal(t, "LSRK4", c.Solver.Stepper.Name())
	assert.Nil(t, c.Store)
	require.NotNil(t, c.Exact)
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 10, c.Solver.Step)
	l2, err := c.Solver.DG.L2Error(context.Background(), c.Exact, c.Solver.Time, c.Solver.U, 0)
	require.NoError(t, err)
	assert.Less(t, l2, 5.e-3)
}

func TestRestart(t *testing.T) {
	ctx := context.Background()
	ip := advectionInput(t)
	ip.Output.WriteInterval = 5
	c, err := Build(ip)
	require.NoError(t, err)
	require.NoError(t, c.Run(ctx))

	// A second case continues the first one's run at its final time
	ip.Output.Restart = true
	ip.TimeStepping.FinalTime = 0.2
	c2, err := Build(ip)
	require.NoError(t, err)
	require.NoError(t, c2.Start(ctx))
	assert.Equal(t, c.Solver.RunID, c2.Solver.RunID)
	assert.Equal(t, 10, c2.Solver.Step)
	assert.InDelta(t, 0.1, c2.Solver.Time, 1.e-12)
	assert.Equal(t, c.Solver.U.Data, c2.Solver.U.Data)

	// With no file the restart falls back to the initial condition
	ip.Output.Prefix = filepath.Join(t.TempDir(), "fresh")
	c3, err := Build(ip)
	require.NoError(t, err)
	require.NoError(t, c3.Start(ctx))
	assert.Equal(t, 0, c3.Solver.Step)
}

func TestBuildEuler(t *testing.T) {
	ip := InputParameters.NewInputParameters()
	require.NoError(t, ip.Parse([]byte(`
TimeStepping:
  FinalTime: 0.01
  CFL: 0.5
  TimeStepper: Strang
  OperatorSplittingExplicit: SSPRK3
  OperatorSplittingImplicit: BDF1
Numerics:
  SolutionOrder: 1
  SolutionBasis: Lagrange
  ElementQuadrature: GaussLobatto
  ApplyLimiters: PositivityPreserving
Mesh:
  NumElemsX: 20
Physics:
  Type: Euler
  ConvFluxNumerical: Roe
  GasConstant: 1
  Transport: Sutherland
InitialCondition:
  Function: RiemannProblem
  Params: {xd: 0.5}
BoundaryConditions:
  x1:
    BCType: StateAll
    Function: Uniform
  x2:
    BCType: SlipWall
SourceTerms:
  - Source: StiffFriction
    Params: {nu: -2}
`)))
	c, err := Build(ip)
	require.NoError(t, err)
	assert.Equal(t, "Euler1D", c.Solver.DG.Physics.Name())
	assert.Equal(t, "Strang(SSPRK3, BDF1)", c.Solver.Stepper.Name())
	_, ok := c.Solver.DG.BCs["x1"].(*physics.StateAll)
	assert.True(t, ok)
	require.NoError(t, c.Run(context.Background()))
	assert.InDelta(t, 0.01, c.Solver.Time, 1.e-12)
}

func TestBuildUnsupported(t *testing.T) {
	for _, tc := range []struct {
		name   string
		modify func(ip *InputParameters.InputParameters)
	}{
		{"physics", func(ip *InputParameters.InputParameters) { ip.Physics.Type = "Navier-Stokes" }},
		{"velocity", func(ip *InputParameters.InputParameters) { ip.Physics.ConstVelocity = []float64{1, 1} }},
		{"burgers 2D", func(ip *InputParameters.InputParameters) {
			ip.Physics.Type, ip.Physics.Dim = "Burgers1D", 2
			ip.Mesh.NumElemsY, ip.Mesh.YMax = 2, 1
		}},
		{"shape", func(ip *InputParameters.InputParameters) { ip.Mesh.ElementShape = "Triangle" }},
		{"basis", func(ip *InputParameters.InputParameters) { ip.Numerics.SolutionBasis = "Bernstein" }},
		{"quadrature", func(ip *InputParameters.InputParameters) { ip.Numerics.ElementQuadrature = "Simpson" }},
		{"flux", func(ip *InputParameters.InputParameters) { ip.Physics.ConvFluxNumerical = "Roe" }},
		{"limiter", func(ip *InputParameters.InputParameters) { ip.Numerics.ApplyLimiters = "PositivityPreserving" }},
		{"stepper", func(ip *InputParameters.InputParameters) { ip.TimeStepping.TimeStepper = "RK45" }},
		{"nested splitting", func(ip *InputParameters.InputParameters) {
			ip.TimeStepping.TimeStepper = "Strang"
			ip.TimeStepping.OperatorSplittingExplicit = "Simpler"
			ip.TimeStepping.OperatorSplittingImplicit = "BDF1"
		}},
		{"initial condition", func(ip *InputParameters.InputParameters) { ip.InitialCondition.Function = "IsentropicVortex" }},
		{"boundary on periodic mesh", func(ip *InputParameters.InputParameters) {
			ip.BoundaryConditions = map[string]InputParameters.BoundarySpec{"x1": {BCType: "Extrapolate"}}
		}},
		{"missing boundary", func(ip *InputParameters.InputParameters) { ip.Mesh.PeriodicX = false }},
		{"source", func(ip *InputParameters.InputParameters) {
			ip.SourceTerms = []InputParameters.SourceSpec{{Source: "GravitySource"}}
		}},
		{"thermo", func(ip *InputParameters.InputParameters) {
			ip.Physics.Type, ip.Physics.ThermoModel = "Euler", "VanDerWaals"
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ip := advectionInput(t)
			tc.modify(ip)
			_, err := Build(ip)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration), "%v", err)
		})
	}
}

func TestConvergence(t *testing.T) {
	ip := advectionInput(t)
	ip.TimeStepping.NumTimeSteps = 0
	ip.TimeStepping.CFL = 0.4
	cs, err := Convergence(context.Background(), ip, []int{8, 16})
	require.NoError(t, err)
	require.Len(t, cs.L2, 2)
	orders := cs.Orders()
	assert.True(t, math.IsNaN(orders[0][0]))
	assert.Greater(t, orders[1][0], 2.5)

	var buf bytes.Buffer
	require.NoError(t, cs.WriteCSV(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Title,NumElems,Order,CFL,L2(Scalar),Rate(Scalar)", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "Advection,16,2,0.4,"))

	ip.ExactSolution = nil
	_, err = Convergence(context.Background(), ip, []int{8})
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
}
