package stepper

import (
	"context"

	"github.com/notargets/dgflow/types"
)

/*
Splitting alternates an explicit scheme for the convective part with an implicit ODE solver
for the source part.
	Strang:  explicit dt/2 (no source), implicit dt (no convection), explicit dt/2 (no source)
	Simpler: B = R_conv(Un), implicit dt with balance +B, explicit dt/2 with balance -B
The balance of Simpler keeps a steady state of the full system steady under splitting.
*/
type Splitting struct {
	Strategy StepperType
	Explicit Stepper
	Implicit Stepper
	B, negB  *types.Tensor
}

func (sp *Splitting) Name() string {
	return sp.Strategy.String() + "(" + sp.Explicit.Name() + ", " + sp.Implicit.Name() + ")"
}

func (sp *Splitting) Init(sys System) (err error) {
	if err = sp.Explicit.Init(sys); err != nil {
		return
	}
	if err = sp.Implicit.Init(sys); err != nil {
		return
	}
	if sp.Strategy == STEPPER_Simpler {
		sp.B, sp.negB = scratch(sp.B, sys), scratch(sp.negB, sys)
	}
	return
}

func (sp *Splitting) TakeTimeStep(ctx context.Context, sys System, sc *types.StepContext, dt float64,
	U *types.Tensor) (R *types.Tensor, err error) {
	if err = sp.Init(sys); err != nil {
		return
	}
	t0 := sc.Time
	defer func() {
		sc.Reset()
		sc.Time = t0 + dt
	}()
	explicit := func(t, dt float64, balance *types.Tensor) (err error) {
		sc.Reset()
		sc.Time, sc.Source, sc.Balance = t, false, balance
		R, err = sp.Explicit.TakeTimeStep(ctx, sys, sc, dt, U)
		return
	}
	implicit := func(balance *types.Tensor) (err error) {
		sc.Reset()
		sc.Time, sc.ConvFlux, sc.Balance = t0, false, balance
		R, err = sp.Implicit.TakeTimeStep(ctx, sys, sc, dt, U)
		return
	}
	switch sp.Strategy {
	case STEPPER_Strang:
		if err = explicit(t0, 0.5*dt, nil); err != nil {
			return
		}
		if err = implicit(nil); err != nil {
			return
		}
		err = explicit(t0+0.5*dt, 0.5*dt, nil)
	default:
		sc.Reset()
		sc.Time, sc.Source = t0, false
		if err = sys.GetResidual(ctx, sc, U, sp.B); err != nil {
			return
		}
		sp.negB.CopyFrom(sp.B).Scale(-1)
		if err = implicit(sp.B); err != nil {
			return
		}
		err = explicit(t0+0.5*dt, 0.5*dt, sp.negB)
	}
	return
}
