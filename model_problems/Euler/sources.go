package Euler

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/thermo"
)

const eps = 1.e-15

var sources = physics.Registry[physics.SourceTerm]{
	"StiffFriction": func(p physics.Params) (physics.SourceTerm, error) {
		return &StiffFriction{Nu: p.Get("nu", -1)}, nil
	},
	"TaylorGreenSource": physics.Value[physics.SourceTerm](&TaylorGreenSource{}),
	"GravitySource": func(p physics.Params) (physics.SourceTerm, error) {
		return &GravitySource{Gravity: p.Get("gravity", 0)}, nil
	},
}

// StiffFriction is S = [0, nu rho u, nu rho u^2] in 1D
type StiffFriction struct {
	Nu float64
}

func (s *StiffFriction) GetSource(p physics.Physics, st *thermo.State, U, x []float64, t float64, S []float64) (err error) {
	var c *Euler
	if c, err = asEuler(p, "StiffFriction", 1); err != nil {
		return
	}
	var (
		iMom, iE = c.Indices()
		rho      float64
	)
	for i := 0; i < iMom; i++ {
		rho += U[i]
		S[i] = 0
	}
	S[iMom] = s.Nu * U[iMom]
	S[iE] = s.Nu * U[iMom] * U[iMom] / (eps + rho)
	return
}

func (s *StiffFriction) GetJacobian(p physics.Physics, st *thermo.State, U, x []float64, t float64, J *mat.Dense) (err error) {
	var c *Euler
	if c, err = asEuler(p, "StiffFriction", 1); err != nil {
		return
	}
	var (
		iMom, iE = c.Indices()
		rho      float64
	)
	for i := 0; i < iMom; i++ {
		rho += U[i]
	}
	vel := U[iMom] / (eps + rho)
	J.Set(iMom, iMom, J.At(iMom, iMom)+s.Nu)
	for i := 0; i < iMom; i++ {
		J.Set(iE, i, J.At(iE, i)-s.Nu*vel*vel)
	}
	J.Set(iE, iMom, J.At(iE, iMom)+2*s.Nu*vel)
	return
}

// TaylorGreenSource is the energy source that keeps TaylorGreenVortex steady
type TaylorGreenSource struct{}

func (s *TaylorGreenSource) GetSource(p physics.Physics, st *thermo.State, U, x []float64, t float64, S []float64) (err error) {
	var c *Euler
	if c, err = asEuler(p, "TaylorGreenSource", 2); err != nil {
		return
	}
	if err = c.SetState(st, U); err != nil {
		return
	}
	_, iE := c.Indices()
	for i := range S {
		S[i] = 0
	}
	px, py := math.Pi*x[0], math.Pi*x[1]
	S[iE] = math.Pi / (4 * (st.Gamma - 1)) * (math.Cos(3*px)*math.Cos(py) - math.Cos(px)*math.Cos(3*py))
	return
}

// GetJacobian adds nothing, the source does not depend on the state
func (s *TaylorGreenSource) GetJacobian(p physics.Physics, st *thermo.State, U, x []float64, t float64, J *mat.Dense) error {
	return nil
}

// GravitySource is a constant gravity field acting in -y
type GravitySource struct {
	Gravity float64
}

func (s *GravitySource) GetSource(p physics.Physics, st *thermo.State, U, x []float64, t float64, S []float64) (err error) {
	var c *Euler
	if c, err = asEuler(p, "GravitySource", 2); err != nil {
		return
	}
	var (
		iMom, iE = c.Indices()
		rho      float64
	)
	for i := 0; i < iMom; i++ {
		rho += U[i]
	}
	for i := range S {
		S[i] = 0
	}
	S[iMom+1] = -rho * s.Gravity
	S[iE] = -U[iMom+1] * s.Gravity
	return
}

func (s *GravitySource) GetJacobian(p physics.Physics, st *thermo.State, U, x []float64, t float64, J *mat.Dense) (err error) {
	var c *Euler
	if c, err = asEuler(p, "GravitySource", 2); err != nil {
		return
	}
	iMom, iE := c.Indices()
	for i := 0; i < iMom; i++ {
		J.Set(iMom+1, i, J.At(iMom+1, i)-s.Gravity)
	}
	J.Set(iE, iMom+1, J.At(iE, iMom+1)-s.Gravity)
	return
}
