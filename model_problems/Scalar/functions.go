package Scalar

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
)

var (
	functions = physics.Registry[physics.StateFunction]{
		"Sine": func(p physics.Params) (physics.StateFunction, error) {
			return &Sine{Omega: p.Get("omega", 2*math.Pi)}, nil
		},
		"DampingSine": func(p physics.Params) (physics.StateFunction, error) {
			return &DampingSine{Omega: p.Get("omega", 2*math.Pi), Nu: p.Get("nu", -1)}, nil
		},
		"Gaussian": func(p physics.Params) (physics.StateFunction, error) {
			return &Gaussian{X0: p.Get("x0", 0), Sigma: p.Get("sig", 1)}, nil
		},
		"ShiftedCosine": func(p physics.Params) (physics.StateFunction, error) {
			return &ShiftedCosine{Omega: p.Get("omega", 2*math.Pi)}, nil
		},
		"ScalarShock": func(p physics.Params) (physics.StateFunction, error) {
			return &ScalarShock{UL: p.Get("uL", 1), UR: p.Get("uR", 0), XShock: p.Get("xshock", -0.5)}, nil
		},
		"Uniform": func(p physics.Params) (physics.StateFunction, error) {
			return &Uniform{State: p.Get("state", 0)}, nil
		},
	}
	bcs = physics.Registry[physics.BoundaryCondition]{
		"Extrapolate": physics.Value[physics.BoundaryCondition](physics.Extrapolate{}),
	}
	sources = physics.Registry[physics.SourceTerm]{
		"SimpleSource": func(p physics.Params) (physics.SourceTerm, error) {
			return &SimpleSource{Nu: p.Get("nu", -1)}, nil
		},
		"StiffSource": func(p physics.Params) (physics.SourceTerm, error) {
			s := &StiffSource{Beta: p.Get("beta", 0.5), Stiffness: p.Get("stiffness", 1)}
			if s.Stiffness == 0 {
				return nil, types.Unsupported("StiffSource with zero stiffness")
			}
			return s, nil
		},
	}
)

// Sine is sin(omega (x - c t)), a product over dimensions in 2D
type Sine struct {
	Omega float64
}

func (f *Sine) GetState(p physics.Physics, x []float64, t float64, U []float64) error {
	U[0] = 1
	for _, xd := range advected(p, x, t) {
		U[0] *= math.Sin(f.Omega * xd)
	}
	return nil
}

// DampingSine is the exact solution of advection with the linear source nu U
type DampingSine struct {
	Omega, Nu float64
}

func (f *DampingSine) GetState(p physics.Physics, x []float64, t float64, U []float64) error {
	U[0] = math.Exp(f.Nu * t)
	for _, xd := range advected(p, x, t) {
		U[0] *= math.Sin(f.Omega * xd)
	}
	return nil
}

type Gaussian struct {
	X0, Sigma float64
}

func (f *Gaussian) GetState(p physics.Physics, x []float64, t float64, U []float64) error {
	var r2 float64
	for _, xd := range advected(p, x, t) {
		r2 += (xd - f.X0) * (xd - f.X0)
	}
	U[0] = math.Exp(-r2 / (2 * f.Sigma * f.Sigma))
	return nil
}

// ShiftedCosine is 1 - cos(omega x)
type ShiftedCosine struct {
	Omega float64
}

func (f *ShiftedCosine) GetState(p physics.Physics, x []float64, t float64, U []float64) error {
	U[0] = 1 - math.Cos(f.Omega*advected(p, x, t)[0])
	return nil
}

// ScalarShock is a step moving with the Rankine-Hugoniot speed of Burgers equation
type ScalarShock struct {
	UL, UR, XShock float64
}

func (f *ScalarShock) GetState(p physics.Physics, x []float64, t float64, U []float64) error {
	xs := f.XShock + 0.5*(f.UL+f.UR)*t
	if c, ok := p.(*ConstAdvScalar); ok {
		xs = f.XShock + c.Velocity[0]*t
	}
	U[0] = f.UR
	if x[0] <= xs {
		U[0] = f.UL
	}
	return nil
}

type Uniform struct {
	State float64
}

func (f *Uniform) GetState(p physics.Physics, x []float64, t float64, U []float64) error {
	U[0] = f.State
	return nil
}

// SimpleSource is S = nu U
type SimpleSource struct {
	Nu float64
}

func (s *SimpleSource) GetSource(p physics.Physics, st *thermo.State, U, x []float64, t float64, S []float64) error {
	S[0] = s.Nu * U[0]
	return nil
}

func (s *SimpleSource) GetJacobian(p physics.Physics, st *thermo.State, U, x []float64, t float64, J *mat.Dense) error {
	J.Set(0, 0, J.At(0, 0)+s.Nu)
	return nil
}

// StiffSource is S = -U (U - 1)(U - beta) / stiffness
type StiffSource struct {
	Beta, Stiffness float64
}

func (s *StiffSource) GetSource(p physics.Physics, st *thermo.State, U, x []float64, t float64, S []float64) error {
	u := U[0]
	S[0] = -u * (u - 1) * (u - s.Beta) / s.Stiffness
	return nil
}

func (s *StiffSource) GetJacobian(p physics.Physics, st *thermo.State, U, x []float64, t float64, J *mat.Dense) error {
	u := U[0]
	J.Set(0, 0, J.At(0, 0)-(3*u*u-2*(1+s.Beta)*u+s.Beta)/s.Stiffness)
	return nil
}
