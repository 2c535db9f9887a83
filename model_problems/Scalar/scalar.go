package Scalar

import (
	"math"

	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
)

var stateNames = []string{"Scalar"}

// ConstAdvScalar is linear advection u_t + c . grad u = S
type ConstAdvScalar struct {
	Velocity []float64
}

func NewConstAdvScalar(velocity []float64) (*ConstAdvScalar, error) {
	if len(velocity) < 1 || len(velocity) > 2 {
		return nil, types.Unsupported("scalar advection in %d dimensions", len(velocity))
	}
	return &ConstAdvScalar{Velocity: append([]float64(nil), velocity...)}, nil
}

func (c *ConstAdvScalar) Name() string         { return "ConstAdvScalar" }
func (c *ConstAdvScalar) NumStateVars() int    { return 1 }
func (c *ConstAdvScalar) Dim() int             { return len(c.Velocity) }
func (c *ConstAdvScalar) StateNames() []string { return stateNames }

func (c *ConstAdvScalar) StateIndex(n string) (int, error) {
	return physics.StateIndexIn(stateNames, n)
}

func (c *ConstAdvScalar) projectedSpeed(nhat []float64) (cn float64) {
	for d, v := range c.Velocity {
		cn += v * nhat[d]
	}
	return
}

func (c *ConstAdvScalar) ConvFluxInterior(st *thermo.State, U, F []float64) error {
	for d, v := range c.Velocity {
		F[d] = v * U[0]
	}
	return nil
}

func (c *ConstAdvScalar) ConvFluxProjected(st *thermo.State, U, nhat, F []float64) error {
	F[0] = c.projectedSpeed(nhat) * U[0]
	return nil
}

func (c *ConstAdvScalar) MaxWaveSpeed(st *thermo.State, U, nhat []float64) (float64, error) {
	return math.Abs(c.projectedSpeed(nhat)), nil
}

func (c *ConstAdvScalar) ComputeVariable(st *thermo.State, name string, U []float64) (float64, error) {
	if name != "Scalar" {
		return 0, types.Unsupported("variable %q for %s", name, c.Name())
	}
	return U[0], nil
}

func (c *ConstAdvScalar) Functions() physics.Registry[physics.StateFunction] { return functions }
func (c *ConstAdvScalar) BCs() physics.Registry[physics.BoundaryCondition]   { return bcs }
func (c *ConstAdvScalar) Sources() physics.Registry[physics.SourceTerm]       { return sources }

// Burgers1D is u_t + (u^2/2)_x = S
type Burgers1D struct{}

func NewBurgers1D() *Burgers1D { return &Burgers1D{} }

func (b *Burgers1D) Name() string         { return "Burgers1D" }
func (b *Burgers1D) NumStateVars() int    { return 1 }
func (b *Burgers1D) Dim() int             { return 1 }
func (b *Burgers1D) StateNames() []string { return stateNames }

func (b *Burgers1D) StateIndex(n string) (int, error) {
	return physics.StateIndexIn(stateNames, n)
}

func (b *Burgers1D) ConvFluxInterior(st *thermo.State, U, F []float64) error {
	F[0] = 0.5 * U[0] * U[0]
	return nil
}

func (b *Burgers1D) ConvFluxProjected(st *thermo.State, U, nhat, F []float64) error {
	F[0] = 0.5 * U[0] * U[0] * nhat[0]
	return nil
}

func (b *Burgers1D) MaxWaveSpeed(st *thermo.State, U, nhat []float64) (float64, error) {
	return math.Abs(U[0] * nhat[0]), nil
}

func (b *Burgers1D) ComputeVariable(st *thermo.State, name string, U []float64) (float64, error) {
	if name != "Scalar" {
		return 0, types.Unsupported("variable %q for %s", name, b.Name())
	}
	return U[0], nil
}

func (b *Burgers1D) Functions() physics.Registry[physics.StateFunction] { return functions }
func (b *Burgers1D) BCs() physics.Registry[physics.BoundaryCondition]   { return bcs }
func (b *Burgers1D) Sources() physics.Registry[physics.SourceTerm]       { return sources }

// advected returns x - c t for linear advection, x otherwise
func advected(p physics.Physics, x []float64, t float64) (xs []float64) {
	xs = append(xs, x...)
	if c, ok := p.(*ConstAdvScalar); ok {
		for d, v := range c.Velocity {
			xs[d] -= v * t
		}
	}
	return
}
