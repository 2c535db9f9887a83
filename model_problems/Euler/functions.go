package Euler

import (
	"math"

	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/sod_shock_tube"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
	"github.com/notargets/dgflow/utils"
)

var functions = physics.Registry[physics.StateFunction]{
	"SmoothIsentropicFlow": func(p physics.Params) (physics.StateFunction, error) {
		a := p.Get("a", 0.9)
		if a > 1 {
			// rho = 1 + a sin(pi x) goes negative
			return nil, types.Unsupported("SmoothIsentropicFlow amplitude %g above 1", a)
		}
		return &SmoothIsentropicFlow{A: a}, nil
	},
	"MovingShock": func(p physics.Params) (physics.StateFunction, error) {
		return &MovingShock{M: p.Get("M", 5), XShock: p.Get("xshock", 0.2)}, nil
	},
	"IsentropicVortex": func(p physics.Params) (physics.StateFunction, error) {
		return &IsentropicVortex{
			Rhob: p.Get("rhob", 1), Ub: p.Get("ub", 1), Vb: p.Get("vb", 1),
			Pb: p.Get("pb", 1), Vs: p.Get("vs", 5),
		}, nil
	},
	"DensityWave": func(p physics.Params) (physics.StateFunction, error) {
		return &DensityWave{P: p.Get("p", 1)}, nil
	},
	"RiemannProblem": func(p physics.Params) (physics.StateFunction, error) {
		return &RiemannProblem{
			Left:  sod_shock_tube.Primitive{Rho: p.Get("rhoL", 1), U: p.Get("uL", 0), P: p.Get("pL", 1)},
			Right: sod_shock_tube.Primitive{Rho: p.Get("rhoR", 0.125), U: p.Get("uR", 0), P: p.Get("pR", 0.1)},
			XD:    p.Get("xd", 0),
		}, nil
	},
	"TaylorGreenVortex": physics.Value[physics.StateFunction](&TaylorGreenVortex{}),
	"ShuOsherProblem": func(p physics.Params) (physics.StateFunction, error) {
		return &ShuOsherProblem{XShock: p.Get("xshock", -4)}, nil
	},
	"GravityRiemann": physics.Value[physics.StateFunction](&GravityRiemann{}),
	"Uniform": func(p physics.Params) (physics.StateFunction, error) {
		return &Uniform{Rho: p.Get("rho", 1), U: p.Get("u", 0), V: p.Get("v", 0), P: p.Get("p", 1)}, nil
	},
}

func asEuler(p physics.Physics, fn string, dim int) (c *Euler, err error) {
	var ok bool
	if c, ok = p.(*Euler); !ok {
		return nil, types.Unsupported("%s with %s physics", fn, p.Name())
	}
	if dim != 0 && c.dim != dim {
		return nil, types.Unsupported("%s in %d dimensions", fn, c.dim)
	}
	return
}

// gasAt returns the thermodynamic state of the default composition at (rho, p)
func (c *Euler) gasAt(rho, p float64) (st thermo.State, err error) {
	Y := c.Thermo.DefaultY()
	rhoi := make([]float64, len(Y))
	for i := range Y {
		rhoi[i] = rho * Y[i]
	}
	err = c.Thermo.SetStateFromRhoiP(&st, rhoi, p)
	return
}

// SmoothIsentropicFlow is a smooth 1D solution of characteristics that stays shock free
// for t < 0.3 with the default amplitude
type SmoothIsentropicFlow struct {
	A float64
}

func (f *SmoothIsentropicFlow) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var c *Euler
	if c, err = asEuler(p, "SmoothIsentropicFlow", 0); err != nil {
		return
	}
	var (
		st    thermo.State
		a     = f.A
		s3    = math.Sqrt(3)
		rho0  = func(xx float64) float64 { return 1 + a*math.Sin(math.Pi*xx) }
		drho0 = func(xx float64) float64 { return a * math.Pi * math.Cos(math.Pi*xx) }
		x1    float64
		x2    float64
	)
	// Characteristic feet of the two families through (x, t)
	if x1, err = utils.Newton("SmoothIsentropicFlow",
		func(xx float64) float64 { return x[0] + s3*rho0(xx)*t - xx },
		func(xx float64) float64 { return s3*drho0(xx)*t - 1 },
		x[0], 1.e-13, 50); err != nil {
		return
	}
	if x2, err = utils.Newton("SmoothIsentropicFlow",
		func(xx float64) float64 { return x[0] - s3*rho0(xx)*t - xx },
		func(xx float64) float64 { return -s3*drho0(xx)*t - 1 },
		x[0], 1.e-13, 50); err != nil {
		return
	}
	if st, err = c.gasAt(1, 1); err != nil {
		return
	}
	var (
		rho = 0.5 * (rho0(x1) + rho0(x2))
		vel = [2]float64{s3 * (rho - rho0(x1))}
	)
	return c.fill(&st, rho, vel[:], math.Pow(rho, st.Gamma), U)
}

// MovingShock is a normal shock of Mach number M moving right into gas at rest
type MovingShock struct {
	M, XShock float64
}

func (f *MovingShock) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var c *Euler
	if c, err = asEuler(p, "MovingShock", 0); err != nil {
		return
	}
	var (
		rho1, p1, u1 = 1., 1.e5, 0.
		st           thermo.State
	)
	if st, err = c.gasAt(rho1, p1); err != nil {
		return
	}
	var (
		g    = st.Gamma
		M2   = f.M * f.M
		W    = f.M * st.C
		rho2 = (g + 1) * M2 / ((g-1)*M2 + 2) * rho1
		p2   = (2*g*M2 - (g - 1)) / (g + 1) * p1
		u2   = W + u1 - W*rho1/rho2
		xs   = f.XShock + (u1+W)*t
		vel  [2]float64
	)
	if x[0] <= xs {
		vel[0] = u2
		return c.fill(&st, rho2, vel[:], p2, U)
	}
	vel[0] = u1
	return c.fill(&st, rho1, vel[:], p1, U)
}

// IsentropicVortex is a vortex convected by a uniform stream. It needs a unit gas constant.
type IsentropicVortex struct {
	Rhob, Ub, Vb, Pb, Vs float64
}

func (f *IsentropicVortex) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var c *Euler
	if c, err = asEuler(p, "IsentropicVortex", 2); err != nil {
		return
	}
	var st thermo.State
	if st, err = c.gasAt(f.Rhob, f.Pb); err != nil {
		return
	}
	if st.R != 1 {
		return types.Unsupported("IsentropicVortex with gas constant %g", st.R)
	}
	var (
		g   = st.Gamma
		Tb  = f.Pb / (f.Rhob * st.R)
		s   = f.Pb / math.Pow(f.Rhob, g)
		xr  = x[0] - f.Ub*t
		yr  = x[1] - f.Vb*t
		r2  = xr*xr + yr*yr
		dU  = f.Vs / (2 * math.Pi) * math.Exp(0.5*(1-r2))
		dT  = -(g - 1) * f.Vs * f.Vs / (8 * g * math.Pi * math.Pi) * math.Exp(1-r2)
		T   = Tb + dT
		rho = math.Pow(T/s, 1/(g-1))
		vel = []float64{f.Ub - dU*yr, f.Vb + dU*xr}
	)
	return c.fill(&st, rho, vel, rho*st.R*T, U)
}

// DensityWave is a sinusoidal density profile carried at unit velocity and constant pressure
type DensityWave struct {
	P float64
}

func (f *DensityWave) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var (
		c  *Euler
		st thermo.State
	)
	if c, err = asEuler(p, "DensityWave", 0); err != nil {
		return
	}
	vel := [2]float64{1}
	rho := 1 + 0.1*math.Sin(2*math.Pi*(x[0]-t))
	return c.fill(&st, rho, vel[:], f.P, U)
}

// RiemannProblem is the exact shock tube solution, Sod by default
type RiemannProblem struct {
	Left, Right sod_shock_tube.Primitive
	XD          float64
}

func (f *RiemannProblem) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var (
		c  *Euler
		st thermo.State
		pr sod_shock_tube.Primitive
	)
	if c, err = asEuler(p, "RiemannProblem", 0); err != nil {
		return
	}
	if st, err = c.gasAt(f.Right.Rho, f.Right.P); err != nil {
		return
	}
	rs := sod_shock_tube.NewRiemann(f.Left, f.Right, st.Gamma, f.XD)
	if pr, err = rs.Sample(x[0], t); err != nil {
		return
	}
	vel := [2]float64{pr.U}
	return c.fill(&st, pr.Rho, vel[:], pr.P, U)
}

// TaylorGreenVortex is steady when paired with TaylorGreenSource
type TaylorGreenVortex struct{}

func (f *TaylorGreenVortex) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var (
		c  *Euler
		st thermo.State
	)
	if c, err = asEuler(p, "TaylorGreenVortex", 2); err != nil {
		return
	}
	var (
		px, py = math.Pi * x[0], math.Pi * x[1]
		vel    = []float64{math.Sin(px) * math.Cos(py), -math.Cos(px) * math.Sin(py)}
		pr     = 0.25*(math.Cos(2*px)+math.Cos(2*py)) + 1
	)
	return c.fill(&st, 1, vel, pr, U)
}

// ShuOsherProblem is a Mach 3 shock running into a density wave
type ShuOsherProblem struct {
	XShock float64
}

func (f *ShuOsherProblem) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var (
		c   *Euler
		st  thermo.State
		vel [2]float64
	)
	if c, err = asEuler(p, "ShuOsherProblem", 0); err != nil {
		return
	}
	if x[0] < f.XShock {
		vel[0] = 2.629369
		return c.fill(&st, 3.857143, vel[:], 10.333333, U)
	}
	return c.fill(&st, 1+0.2*math.Sin(5*x[0]), vel[:], 1, U)
}

// GravityRiemann is a low density, low pressure 2D problem with diverging streams at x = 1
type GravityRiemann struct{}

func (f *GravityRiemann) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var (
		c   *Euler
		st  thermo.State
		vel = []float64{1, 0}
	)
	if c, err = asEuler(p, "GravityRiemann", 2); err != nil {
		return
	}
	if x[0] <= 1 {
		vel[0] = -1
	}
	return c.fill(&st, 7, vel, 0.2, U)
}

type Uniform struct {
	Rho, U, V, P float64
}

func (f *Uniform) GetState(p physics.Physics, x []float64, t float64, U []float64) (err error) {
	var (
		c  *Euler
		st thermo.State
	)
	if c, err = asEuler(p, "Uniform", 0); err != nil {
		return
	}
	return c.fill(&st, f.Rho, []float64{f.U, f.V}, f.P, U)
}
