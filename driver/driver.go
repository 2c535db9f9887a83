package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/notargets/dgflow/InputParameters"
	"github.com/notargets/dgflow/basis"
	"github.com/notargets/dgflow/elements"
	"github.com/notargets/dgflow/flux"
	"github.com/notargets/dgflow/limiter"
	"github.com/notargets/dgflow/mesh"
	"github.com/notargets/dgflow/model_problems/Euler"
	"github.com/notargets/dgflow/model_problems/Scalar"
	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/restart"
	"github.com/notargets/dgflow/solver"
	"github.com/notargets/dgflow/stepper"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
	"github.com/notargets/dgflow/utils"
)

// Case is a solver built from input parameters, ready to Start
type Case struct {
	Params  *InputParameters.InputParameters
	Solver  *solver.Solver
	Initial physics.StateFunction
	Exact   physics.StateFunction // nil without an exact solution
	Store   *restart.FileStore    // nil when nothing is written
}

// Build resolves every name in ip through the registries and assembles the solver.
// Unknown names and unsupported combinations are ErrUnsupportedConfiguration.
func Build(ip *InputParameters.InputParameters) (c *Case, err error) {
	var (
		p   physics.EquationSet
		m   *mesh.Mesh
		el  *elements.Elements
		nf  flux.NumericalFlux
		lim limiter.Limiter
		st  stepper.Stepper
		dg  *solver.DG
	)
	if err = ip.Validate(); err != nil {
		return
	}
	c = &Case{Params: ip}
	if p, err = NewPhysics(ip.Physics); err != nil {
		return nil, err
	}
	if m, err = NewMesh(ip.Mesh); err != nil {
		return nil, err
	}
	if el, err = newElements(ip.Numerics, m); err != nil {
		return nil, err
	}
	if nf, err = flux.New(ip.Physics.ConvFluxNumerical, p); err != nil {
		return nil, err
	}
	np := ip.Numerics.ParallelDegree
	if np == 0 {
		np = utils.DefaultParallelDegree(m.K)
	}
	pm := utils.NewPartitionMap(np, m.K)
	if lim, err = limiter.New(ip.Numerics.ApplyLimiters, p, el, pm); err != nil {
		return nil, err
	}
	bcs, err := newBCs(p, ip.BoundaryConditions)
	if err != nil {
		return nil, err
	}
	var sources []physics.SourceTerm
	for _, spec := range ip.SourceTerms {
		var src physics.SourceTerm
		if src, err = p.Sources().New(spec.Source, spec.Params); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if dg, err = solver.NewDG(p, nf, el, bcs, sources, lim, pm); err != nil {
		return nil, err
	}
	ts := ip.TimeStepping
	if st, err = stepper.New(ts.TimeStepper, ts.OperatorSplittingExplicit, ts.OperatorSplittingImplicit); err != nil {
		return nil, err
	}
	if c.Solver, err = solver.NewSolver(dg, st, solver.Config{
		InitialTime:   ts.InitialTime,
		FinalTime:     ts.FinalTime,
		CFL:           ts.CFL,
		TimeStepSize:  ts.TimeStepSize,
		NumTimeSteps:  ts.NumTimeSteps,
		LogInterval:   ip.Output.LogInterval,
		WriteInterval: ip.Output.WriteInterval,
	}); err != nil {
		return nil, err
	}
	if c.Initial, err = p.Functions().New(ip.InitialCondition.Function, ip.InitialCondition.Params); err != nil {
		return nil, err
	}
	if ip.ExactSolution != nil {
		if c.Exact, err = p.Functions().New(ip.ExactSolution.Function, ip.ExactSolution.Params); err != nil {
			return nil, err
		}
	}
	if ip.Output.WriteInterval > 0 || ip.Output.Restart {
		c.Store = restart.NewFileStore(ip.Output.Prefix + ".restart.yaml")
		c.Solver.Store = c.Store
	}
	return
}

// NewPhysics builds the equation set named by Type: ConstAdvScalar, Burgers1D or Euler
func NewPhysics(ph InputParameters.Physics) (p physics.EquationSet, err error) {
	switch ph.Type {
	case "ConstAdvScalar":
		vel := ph.ConstVelocity
		if len(vel) == 0 {
			vel = make([]float64, ph.Dim)
			for d := range vel {
				vel[d] = 1
			}
		}
		if len(vel) != ph.Dim {
			return nil, types.Unsupported("%d advection velocity components in %d dimensions", len(vel), ph.Dim)
		}
		return Scalar.NewConstAdvScalar(vel)
	case "Burgers1D":
		if ph.Dim != 1 {
			return nil, types.Unsupported("Burgers1D in %d dimensions", ph.Dim)
		}
		return Scalar.NewBurgers1D(), nil
	case "Euler":
		var (
			model thermo.Model
			tr    thermo.Transport
			c     *Euler.Euler
		)
		if model, err = thermo.NewModel(ph.ThermoModel, map[string]float64{
			"GasConstant":       ph.GasConstant,
			"SpecificHeatRatio": ph.SpecificHeatRatio,
		}); err != nil {
			return
		}
		if c, err = Euler.NewEuler(ph.Dim, model); err != nil {
			return
		}
		if len(ph.Transport) != 0 {
			if tr, err = thermo.NewTransport(ph.Transport, ph.TransportParams); err != nil {
				return
			}
			c.SetTransport(tr)
		}
		return c, nil
	}
	return nil, types.Unsupported("physics %q", ph.Type)
}

func NewMesh(mp InputParameters.Mesh) (*mesh.Mesh, error) {
	switch mp.ElementShape {
	case basis.Segment.String():
		return mesh.NewSegmentMesh(mp.NumElemsX, mp.XMin, mp.XMax, mp.PeriodicX)
	case basis.Quadrilateral.String():
		return mesh.NewQuadMesh(mp.NumElemsX, mp.NumElemsY, mp.XMin, mp.XMax, mp.YMin, mp.YMax,
			mp.PeriodicX, mp.PeriodicY)
	}
	return nil, types.Unsupported("element shape %q", mp.ElementShape)
}

func newElements(nm InputParameters.Numerics, m *mesh.Mesh) (el *elements.Elements, err error) {
	var (
		b  basis.Basis
		qt basis.QuadratureType
	)
	if b, err = basis.ForShape(nm.SolutionBasis, m.Shape, nm.SolutionOrder); err != nil {
		return
	}
	if qt, err = basis.NewQuadratureType(nm.ElementQuadrature); err != nil {
		return
	}
	return elements.NewElements(m, b, qt)
}

func newBCs(p physics.EquationSet, specs map[string]InputParameters.BoundarySpec) (bcs map[string]physics.BoundaryCondition, err error) {
	bcs = make(map[string]physics.BoundaryCondition, len(specs))
	for group, spec := range specs {
		var bc physics.BoundaryCondition
		if spec.BCType == "StateAll" {
			var fn physics.StateFunction
			if fn, err = p.Functions().New(spec.Function, spec.Params); err != nil {
				return nil, fmt.Errorf("boundary %s: %w", group, err)
			}
			bc = physics.NewStateAll(fn)
		} else if bc, err = p.BCs().New(spec.BCType, spec.Params); err != nil {
			return nil, fmt.Errorf("boundary %s: %w", group, err)
		}
		bcs[group] = bc
	}
	return
}

// Start projects the initial condition, or continues from the restart file when the
// parameters ask for it and one exists
func (c *Case) Start(ctx context.Context) (err error) {
	if c.Params.Output.Restart && c.Store != nil {
		var snap *restart.Snapshot
		snap, err = c.Store.Load(ctx)
		switch {
		case err == nil:
			slog.Info("restarting", "file", c.Store.Path, "run", snap.RunID, "step", snap.Step, "time", snap.Time)
			return c.Solver.Restore(snap)
		case !errors.Is(err, os.ErrNotExist):
			return
		}
		slog.Debug("no restart file, starting from the initial condition", "file", c.Store.Path)
	}
	return c.Solver.Initialize(ctx, c.Initial)
}

// Run starts and solves the case, then reports the error against the exact solution if there is one
func (c *Case) Run(ctx context.Context) (err error) {
	if err = c.Start(ctx); err != nil {
		return
	}
	if err = c.Solver.Solve(ctx); err != nil {
		return
	}
	if c.Exact == nil {
		return
	}
	var l2 []float64
	if l2, err = c.Errors(ctx); err != nil {
		return
	}
	for n, name := range c.Solver.DG.Physics.StateNames() {
		slog.Info("error", "state", name, "L2", l2[n])
	}
	return
}

// Errors returns the L2 error of each state variable against the exact solution
func (c *Case) Errors(ctx context.Context) (l2 []float64, err error) {
	if c.Exact == nil {
		return nil, types.Unsupported("error norms without an ExactSolution")
	}
	s := c.Solver
	l2 = make([]float64, s.U.Ns)
	for n := range l2 {
		if l2[n], err = s.DG.L2Error(ctx, c.Exact, s.Time, s.U, n); err != nil {
			return nil, err
		}
	}
	return
}
