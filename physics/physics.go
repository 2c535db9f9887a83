package physics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/flux"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
)

// Physics is an equation set: the state layout plus the analytic fluxes
type Physics interface {
	flux.ConvPhysics
	Name() string
	StateNames() []string
	StateIndex(name string) (int, error)
	// ConvFluxInterior fills F[ns][dim] with the exact flux of U
	ConvFluxInterior(st *thermo.State, U, F []float64) error
	ComputeVariable(st *thermo.State, name string, U []float64) (float64, error)
}

// StateFunction gives the state at a location and time: initial conditions and exact solutions
type StateFunction interface {
	GetState(p Physics, x []float64, t float64, U []float64) error
}

type BoundaryCondition interface {
	Kind() types.BCKind
	// GetBoundaryState builds the exterior state UB from the interior state UI
	GetBoundaryState(p Physics, st *thermo.State, UI, normal, x []float64, t float64, UB []float64) error
}

type SourceTerm interface {
	GetSource(p Physics, st *thermo.State, U, x []float64, t float64, S []float64) error
	// GetJacobian adds dS/dU into J
	GetJacobian(p Physics, st *thermo.State, U, x []float64, t float64, J *mat.Dense) error
}

// EquationSet is a Physics that also publishes its function, boundary and source registries
type EquationSet interface {
	Physics
	Functions() Registry[StateFunction]
	BCs() Registry[BoundaryCondition]
	Sources() Registry[SourceTerm]
}

// StateIndexIn is the StateIndex lookup shared by the equation sets
func StateIndexIn(names []string, name string) (int, error) {
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	return -1, types.Unsupported("state variable %q", name)
}

// StateAll is a weak Riemann boundary whose exterior state comes from a StateFunction
type StateAll struct {
	Function StateFunction
}

func NewStateAll(fn StateFunction) *StateAll { return &StateAll{Function: fn} }

func (b *StateAll) Kind() types.BCKind { return types.BCWeakRiemann }

func (b *StateAll) GetBoundaryState(p Physics, st *thermo.State, UI, normal, x []float64, t float64, UB []float64) error {
	return b.Function.GetState(p, x, t, UB)
}

// Extrapolate copies the interior state and uses the analytic flux
type Extrapolate struct{}

func (Extrapolate) Kind() types.BCKind { return types.BCWeakPrescribed }

func (Extrapolate) GetBoundaryState(p Physics, st *thermo.State, UI, normal, x []float64, t float64, UB []float64) error {
	copy(UB, UI)
	return nil
}
