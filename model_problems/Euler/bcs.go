package Euler

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
)

var bcs = physics.Registry[physics.BoundaryCondition]{
	"SlipWall":        physics.Value[physics.BoundaryCondition](&SlipWall{}),
	"SlipWallRiemann": physics.Value[physics.BoundaryCondition](&SlipWall{Riemann: true}),
	"PressureOutlet": func(p physics.Params) (physics.BoundaryCondition, error) {
		bc := &PressureOutlet{P: p.Get("p", 1)}
		if !(bc.P > 0) {
			return nil, types.Unsupported("PressureOutlet with p = %g", bc.P)
		}
		return bc, nil
	},
	"AdiabaticWall": physics.Value[physics.BoundaryCondition](&AdiabaticWall{}),
	"IsothermalWall": func(p physics.Params) (physics.BoundaryCondition, error) {
		return newIsothermalWall(p, false)
	},
	"IsothermalWallRiemann": func(p physics.Params) (physics.BoundaryCondition, error) {
		return newIsothermalWall(p, true)
	},
	"Extrapolate": physics.Value[physics.BoundaryCondition](physics.Extrapolate{}),
}

// interior checks the physics and loads st from the interior state
func interior(p physics.Physics, st *thermo.State, bc string, UI []float64) (c *Euler, err error) {
	if c, err = asEuler(p, bc, 0); err != nil {
		return
	}
	if err = c.SetState(st, UI); err != nil {
		return nil, fmt.Errorf("%s: %w", bc, err)
	}
	return
}

func unitNormal(normal []float64) (nhat [2]float64) {
	var nmag float64
	for _, v := range normal {
		nmag += v * v
	}
	nmag = math.Sqrt(nmag)
	for d, v := range normal {
		nhat[d] = v / nmag
	}
	return
}

// SlipWall removes the normal momentum. The Riemann variant reflects it and feeds the
// mirrored state through the numerical flux.
type SlipWall struct {
	Riemann bool
}

func (bc *SlipWall) Kind() types.BCKind {
	if bc.Riemann {
		return types.BCWeakRiemann
	}
	return types.BCWeakPrescribed
}

func (bc *SlipWall) GetBoundaryState(p physics.Physics, st *thermo.State, UI, normal, x []float64, t float64, UB []float64) (err error) {
	var c *Euler
	if c, err = interior(p, st, "SlipWall", UI); err != nil {
		return
	}
	var (
		iMom, _ = c.Indices()
		nhat    = unitNormal(normal)
		rhoVn   float64
		scale   = 1.
	)
	if bc.Riemann {
		scale = 2
	}
	for d := 0; d < c.dim; d++ {
		rhoVn += UI[iMom+d] * nhat[d]
	}
	copy(UB, UI)
	for d := 0; d < c.dim; d++ {
		UB[iMom+d] -= scale * rhoVn * nhat[d]
	}
	return
}

// PressureOutlet prescribes the static pressure of subsonic outflow, keeping the interior
// entropy and outgoing Riemann invariant. Supersonic outflow is extrapolated.
type PressureOutlet struct {
	P float64
}

func (bc *PressureOutlet) Kind() types.BCKind { return types.BCWeakPrescribed }

func (bc *PressureOutlet) GetBoundaryState(p physics.Physics, st *thermo.State, UI, normal, x []float64, t float64, UB []float64) (err error) {
	var c *Euler
	if c, err = interior(p, st, "PressureOutlet", UI); err != nil {
		return
	}
	var (
		iMom, iE = c.Indices()
		nhat     = unitNormal(normal)
		g        = st.Gamma
		rhoI, pI = st.Rho, st.P
		cI       = st.C
		vel      [2]float64
		velnI    float64
	)
	for d := 0; d < c.dim; d++ {
		vel[d] = UI[iMom+d] / rhoI
		velnI += vel[d] * nhat[d]
	}
	copy(UB, UI)
	if velnI < 0 {
		slog.Warn("incoming flow at outlet", "x", x, "un", velnI)
	}
	if velnI/cI >= 1 {
		return
	}
	var (
		JI    = velnI + 2*cI/(g-1)
		ratio = math.Pow(bc.P/pI, 1/g)
		rhoB  = rhoI * ratio
		cB    = math.Sqrt(g * bc.P / rhoB)
		q2    float64
	)
	for i := 0; i < iMom; i++ {
		UB[i] = UI[i] * ratio
	}
	if err = c.Thermo.SetStateFromRhoiP(st, UB[:iMom], bc.P); err != nil {
		return fmt.Errorf("PressureOutlet: %w", err)
	}
	for d := 0; d < c.dim; d++ {
		vB := (JI-2*cB/(g-1))*nhat[d] + vel[d] - velnI*nhat[d]
		UB[iMom+d] = rhoB * vB
		q2 += vB * vB
	}
	UB[iE] = rhoB*st.E + 0.5*rhoB*q2
	return
}

// AdiabaticWall keeps the interior densities and temperature and stops the flow
type AdiabaticWall struct{}

func (bc *AdiabaticWall) Kind() types.BCKind { return types.BCWeakPrescribed }

func (bc *AdiabaticWall) GetBoundaryState(p physics.Physics, st *thermo.State, UI, normal, x []float64, t float64, UB []float64) (err error) {
	var c *Euler
	if c, err = interior(p, st, "AdiabaticWall", UI); err != nil {
		return
	}
	iMom, iE := c.Indices()
	copy(UB, UI)
	for d := 0; d < c.dim; d++ {
		UB[iMom+d] = 0
	}
	UB[iE] = st.Rho * st.E
	return
}

// IsothermalMethod picks what the prescribed isothermal wall state keeps from the interior
type IsothermalMethod uint8

const (
	IsothermalMatchedPressure IsothermalMethod = iota // pressure and composition
	IsothermalMatchedEnergy                           // total energy, which becomes internal energy
	IsothermalMatchedDensity                          // partial densities
)

// IsothermalWall holds the wall at Twall with zero velocity. The prescribed variant takes
// the rest of its state from the interior according to Method. The Riemann variant keeps
// the interior densities and reverses the velocity.
type IsothermalWall struct {
	Twall   float64
	Method  IsothermalMethod
	Riemann bool
}

func newIsothermalWall(p physics.Params, riemann bool) (physics.BoundaryCondition, error) {
	bc := &IsothermalWall{Twall: p.Get("Twall", 1), Riemann: riemann}
	if !(bc.Twall > 0) {
		return nil, types.Unsupported("IsothermalWall with Twall = %g", bc.Twall)
	}
	m := p.Get("method", 0)
	switch {
	case riemann && m != 0:
		return nil, types.Unsupported("IsothermalWallRiemann with method %g", m)
	case m != math.Trunc(m) || m < 0 || m > float64(IsothermalMatchedDensity):
		return nil, types.Unsupported("IsothermalWall method %g", m)
	}
	bc.Method = IsothermalMethod(m)
	return bc, nil
}

func (bc *IsothermalWall) Kind() types.BCKind {
	if bc.Riemann {
		return types.BCWeakRiemann
	}
	return types.BCWeakPrescribed
}

func (bc *IsothermalWall) GetBoundaryState(p physics.Physics, st *thermo.State, UI, normal, x []float64, t float64, UB []float64) (err error) {
	var c *Euler
	if c, err = interior(p, st, "IsothermalWall", UI); err != nil {
		return
	}
	iMom, iE := c.Indices()
	copy(UB, UI)
	if bc.Riemann {
		var ke float64
		for d := 0; d < c.dim; d++ {
			ke += UI[iMom+d] * UI[iMom+d]
			UB[iMom+d] = -UI[iMom+d]
		}
		ke *= 0.5 / st.Rho
		if err = c.Thermo.SetStateFromRhoiT(st, UI[:iMom], bc.Twall); err != nil {
			return fmt.Errorf("IsothermalWallRiemann: %w", err)
		}
		UB[iE] = st.Rho*st.E + ke
		return
	}
	for d := 0; d < c.dim; d++ {
		UB[iMom+d] = 0
	}
	switch bc.Method {
	case IsothermalMatchedEnergy:
		// rho_B e(Twall) = rhoE_I with the interior composition
		rhoI := st.Rho
		if err = c.Thermo.SetStateFromRhoiT(st, UI[:iMom], bc.Twall); err != nil {
			return fmt.Errorf("IsothermalWall: %w", err)
		}
		scale := UI[iE] / st.E / rhoI
		for i := 0; i < iMom; i++ {
			UB[i] = scale * UI[i]
		}
	case IsothermalMatchedDensity:
		if err = c.Thermo.SetStateFromRhoiT(st, UI[:iMom], bc.Twall); err != nil {
			return fmt.Errorf("IsothermalWall: %w", err)
		}
		UB[iE] = st.Rho * st.E
	default:
		// Same composition and pressure at the wall temperature
		rhoB := st.P / (st.R * bc.Twall)
		for i := 0; i < iMom; i++ {
			UB[i] = rhoB * st.Y[i]
		}
		if err = c.Thermo.SetStateFromRhoiT(st, UB[:iMom], bc.Twall); err != nil {
			return fmt.Errorf("IsothermalWall: %w", err)
		}
		UB[iE] = rhoB * st.E
	}
	return
}
