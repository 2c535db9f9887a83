package stepper

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/types"
)

// System is the semi-discrete problem dU/dt = M^-1 R(U, t) as seen by a time stepper
type System interface {
	Shape() (K, Nb, Ns int)
	GetResidual(ctx context.Context, sc *types.StepContext, U, R *types.Tensor) error
	// ApplyInverseMass computes dU = dt M^-1 R
	ApplyInverseMass(dt float64, R, dU *types.Tensor) error
	ApplyLimiter(ctx context.Context, U *types.Tensor) error
}

// Predictor is a System able to build the space-time predictor of an ADER step
type Predictor interface {
	System
	// Predict returns the predicted states at the time nodes tau_j in [0,1] and their weights
	Predict(ctx context.Context, sc *types.StepContext, dt float64, U *types.Tensor) (Q []*types.Tensor, W []float64, err error)
}

// ElementSource evaluates the source term of single elements. It belongs to one worker.
type ElementSource interface {
	// Source computes the source residual of element k into Rk, and adds dRk/dUk into J when J is not nil
	Source(k int, t float64, Uk, Rk []float64, J *mat.Dense) error
	InverseMass(k int) *mat.Dense
}

// ImplicitSystem is a System that exposes element local source evaluation to the ODE solvers
type ImplicitSystem interface {
	System
	RunElements(ctx context.Context, fn func(ctx context.Context, kMin, kMax int, es ElementSource) error) error
}

/*
Stepper advances U in place by dt. On return sc.Time is the start time plus dt and R holds the
last residual the stepper evaluated.
Init binds the stepper to a system, allocating scratch storage and checking that the system has
the capabilities the scheme needs.
*/
type Stepper interface {
	Name() string
	Init(sys System) error
	TakeTimeStep(ctx context.Context, sys System, sc *types.StepContext, dt float64, U *types.Tensor) (R *types.Tensor, err error)
}

type StepperType uint8

const (
	STEPPER_FE StepperType = iota
	STEPPER_RK4
	STEPPER_LSRK4
	STEPPER_SSPRK3
	STEPPER_ADER
	STEPPER_Strang
	STEPPER_Simpler
)

var Names = map[string]StepperType{
	"FE":      STEPPER_FE,
	"RK4":     STEPPER_RK4,
	"LSRK4":   STEPPER_LSRK4,
	"SSPRK3":  STEPPER_SSPRK3,
	"ADER":    STEPPER_ADER,
	"Strang":  STEPPER_Strang,
	"Simpler": STEPPER_Simpler,
}

func (st StepperType) String() string {
	return [...]string{"FE", "RK4", "LSRK4", "SSPRK3", "ADER", "Strang", "Simpler"}[st]
}

func (st StepperType) IsSplitting() bool {
	return st == STEPPER_Strang || st == STEPPER_Simpler
}

type ODEType uint8

const (
	ODE_BDF1 ODEType = iota
	ODE_Trapezoidal
)

var ODENames = map[string]ODEType{
	"BDF1":        ODE_BDF1,
	"Trapezoidal": ODE_Trapezoidal,
}

func (ot ODEType) String() string {
	return [...]string{"BDF1", "Trapezoidal"}[ot]
}

// New resolves a stepper by name. The explicit and ode names are only read by the splitting schemes.
func New(label, explicit, ode string) (s Stepper, err error) {
	st, ok := Names[label]
	if !ok {
		return nil, types.Unsupported("time stepper %q", label)
	}
	if !st.IsSplitting() {
		return newSingle(st), nil
	}
	et, ok := Names[explicit]
	switch {
	case !ok:
		return nil, types.Unsupported("explicit scheme %q for %s splitting", explicit, st)
	case et.IsSplitting():
		return nil, types.Unsupported("nested splitting %s inside %s", et, st)
	}
	ot, ok := ODENames[ode]
	if !ok {
		return nil, types.Unsupported("ODE solver %q for %s splitting", ode, st)
	}
	return &Splitting{
		Strategy: st,
		Explicit: newSingle(et),
		Implicit: NewODESolver(ot),
	}, nil
}

func newSingle(st StepperType) Stepper {
	switch st {
	case STEPPER_FE:
		return ForwardEuler()
	case STEPPER_RK4:
		return RK4()
	case STEPPER_LSRK4:
		return LSRK4()
	case STEPPER_SSPRK3:
		return SSPRK3()
	case STEPPER_ADER:
		return &ADER{}
	}
	panic(fmt.Sprintf("no single stepper for %s", st))
}

// scratch returns t resized to the shape of the system
func scratch(t *types.Tensor, sys System) *types.Tensor {
	K, Nb, Ns := sys.Shape()
	if t == nil || t.K != K || t.Nb != Nb || t.Ns != Ns {
		return types.NewTensor(K, Nb, Ns)
	}
	return t
}
