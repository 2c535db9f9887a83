package Euler

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/flux"
	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
)

// Euler is the compressible Euler system with species partial densities.
// The state layout is [rho_1..rho_ns, rho*u_1..rho*u_dim, rhoE].
type Euler struct {
	dim       int
	Thermo    thermo.Model
	Transport thermo.Transport
	names     []string
}

func NewEuler(dim int, model thermo.Model) (c *Euler, err error) {
	if dim < 1 || dim > 2 {
		return nil, types.Unsupported("Euler equations in %d dimensions", dim)
	}
	if model == nil {
		return nil, types.Unsupported("Euler equations without a thermodynamic model")
	}
	c = &Euler{dim: dim, Thermo: model, Transport: &thermo.ConstantTransport{Pr: 0.7, Mu0: 1}}
	if model.NumSpecies() == 1 {
		c.names = append(c.names, "Density")
	} else {
		for i := 0; i < model.NumSpecies(); i++ {
			c.names = append(c.names, fmt.Sprintf("Density%d", i))
		}
	}
	c.names = append(c.names, "XMomentum")
	if dim == 2 {
		c.names = append(c.names, "YMomentum")
	}
	c.names = append(c.names, "Energy")
	return
}

// SetTransport replaces the transport model used for Viscosity and ThermalConductivity
func (c *Euler) SetTransport(tr thermo.Transport) { c.Transport = tr }

func (c *Euler) Name() string {
	return fmt.Sprintf("Euler%dD", c.dim)
}

func (c *Euler) Dim() int             { return c.dim }
func (c *Euler) NumSpecies() int      { return c.Thermo.NumSpecies() }
func (c *Euler) NumStateVars() int    { return c.Thermo.NumSpecies() + c.dim + 1 }
func (c *Euler) StateNames() []string { return c.names }

func (c *Euler) StateIndex(name string) (int, error) {
	return physics.StateIndexIn(c.names, name)
}

// Indices returns the first momentum and the energy index
func (c *Euler) Indices() (iMom, iE int) {
	iMom = c.Thermo.NumSpecies()
	iE = iMom + c.dim
	return
}

// density sums the partial densities and returns the kinetic energy per unit volume
func (c *Euler) density(U []float64) (rho, ke float64, err error) {
	iMom, _ := c.Indices()
	for _, r := range U[:iMom] {
		rho += r
	}
	if !(rho > 0) {
		return 0, 0, types.NotPhysical("rho", rho)
	}
	for d := 0; d < c.dim; d++ {
		ke += U[iMom+d] * U[iMom+d]
	}
	ke *= 0.5 / rho
	return
}

// RawPressure evaluates the pressure of U without sign checks. A non-positive density gives -Inf.
func (c *Euler) RawPressure(U []float64) float64 {
	iMom, iE := c.Indices()
	_, ke, err := c.density(U)
	if err != nil {
		return math.Inf(-1)
	}
	return c.Thermo.Pressure(U[:iMom], U[iE]-ke)
}

// SetState loads st from the conserved state
func (c *Euler) SetState(st *thermo.State, U []float64) (err error) {
	var (
		iMom, iE = c.Indices()
		ke       float64
	)
	if _, ke, err = c.density(U); err != nil {
		return
	}
	return c.Thermo.SetStateFromRhoiE(st, U[:iMom], U[iE]-ke)
}

func (c *Euler) normalVelocity(U, nhat []float64, rho float64) (vn float64) {
	iMom, _ := c.Indices()
	for d := 0; d < c.dim; d++ {
		vn += U[iMom+d] * nhat[d]
	}
	return vn / rho
}

func (c *Euler) ConvFluxProjected(st *thermo.State, U, nhat, F []float64) (err error) {
	if err = c.SetState(st, U); err != nil {
		return
	}
	var (
		iMom, iE = c.Indices()
		vn       = c.normalVelocity(U, nhat, st.Rho)
	)
	for i := 0; i < iMom; i++ {
		F[i] = U[i] * vn
	}
	for d := 0; d < c.dim; d++ {
		F[iMom+d] = U[iMom+d]*vn + st.P*nhat[d]
	}
	F[iE] = (U[iE] + st.P) * vn
	return
}

// ConvFluxInterior fills F[ns][dim]
func (c *Euler) ConvFluxInterior(st *thermo.State, U, F []float64) (err error) {
	if err = c.SetState(st, U); err != nil {
		return
	}
	var (
		iMom, iE = c.Indices()
		dim      = c.dim
	)
	for d := 0; d < dim; d++ {
		vd := U[iMom+d] / st.Rho
		for i := 0; i < iMom; i++ {
			F[i*dim+d] = U[i] * vd
		}
		for e := 0; e < dim; e++ {
			F[(iMom+e)*dim+d] = U[iMom+e] * vd
		}
		F[(iMom+d)*dim+d] += st.P
		F[iE*dim+d] = (U[iE] + st.P) * vd
	}
	return
}

func (c *Euler) MaxWaveSpeed(st *thermo.State, U, nhat []float64) (a float64, err error) {
	if err = c.SetState(st, U); err != nil {
		return
	}
	return math.Abs(c.normalVelocity(U, nhat, st.Rho)) + st.C, nil
}

func (c *Euler) Primitives(st *thermo.State, U []float64, pr *flux.Primitive) (err error) {
	var ke float64
	if _, ke, err = c.density(U); err != nil {
		return
	}
	if err = c.SetState(st, U); err != nil {
		return
	}
	iMom, _ := c.Indices()
	pr.Rho, pr.P, pr.C, pr.E, pr.Gamma = st.Rho, st.P, st.C, st.E, st.Gamma
	pr.H = st.H + ke/st.Rho
	pr.Vel = [3]float64{}
	for d := 0; d < c.dim; d++ {
		pr.Vel[d] = U[iMom+d] / st.Rho
	}
	pr.Y = append(pr.Y[:0], st.Y...)
	return
}

// ConvEigenvectors returns the right and left eigenvectors of the x direction flux
// Jacobian at Ubar, with L R = I. Only single species states are supported.
func (c *Euler) ConvEigenvectors(st *thermo.State, Ubar []float64) (R, L *mat.Dense, err error) {
	if c.NumSpecies() != 1 {
		return nil, nil, types.Unsupported("eigenvectors with %d species", c.NumSpecies())
	}
	if err = c.SetState(st, Ubar); err != nil {
		return
	}
	var (
		rho = st.Rho
		u   = Ubar[1] / rho
		v   float64
		cs  = st.C
		q2  = u * u
	)
	if c.dim == 2 {
		v = Ubar[2] / rho
		q2 += v * v
	}
	var (
		H  = st.H + 0.5*q2
		b1 = (st.Gamma - 1) / (cs * cs)
		b2 = 0.5 * b1 * q2
	)
	switch c.dim {
	case 1:
		R = mat.NewDense(3, 3, []float64{
			1, 1, 1,
			u - cs, u, u + cs,
			H - u*cs, 0.5 * q2, H + u*cs,
		})
		L = mat.NewDense(3, 3, []float64{
			0.5 * (b2 + u/cs), -0.5 * (b1*u + 1/cs), 0.5 * b1,
			1 - b2, b1 * u, -b1,
			0.5 * (b2 - u/cs), -0.5 * (b1*u - 1/cs), 0.5 * b1,
		})
	default:
		R = mat.NewDense(4, 4, []float64{
			1, 1, 0, 1,
			u - cs, u, 0, u + cs,
			v, v, 1, v,
			H - u*cs, 0.5 * q2, v, H + u*cs,
		})
		L = mat.NewDense(4, 4, []float64{
			0.5 * (b2 + u/cs), -0.5 * (b1*u + 1/cs), -0.5 * b1 * v, 0.5 * b1,
			1 - b2, b1 * u, b1 * v, -b1,
			-v, 0, 1, 0,
			0.5 * (b2 - u/cs), -0.5 * (b1*u - 1/cs), -0.5 * b1 * v, 0.5 * b1,
		})
	}
	return
}

// ComputeVariable evaluates a named derived quantity at a single state
func (c *Euler) ComputeVariable(st *thermo.State, name string, U []float64) (val float64, err error) {
	iMom, iE := c.Indices()
	if i, e := c.StateIndex(name); e == nil {
		return U[i], nil
	}
	if name == "Density" {
		var rho float64
		for _, r := range U[:iMom] {
			rho += r
		}
		return rho, nil
	}
	if err = c.SetState(st, U); err != nil {
		return
	}
	switch name {
	case "XVelocity":
		val = U[iMom] / st.Rho
	case "YVelocity":
		if c.dim < 2 {
			return 0, types.Unsupported("YVelocity in %d dimensions", c.dim)
		}
		val = U[iMom+1] / st.Rho
	case "Pressure":
		val = st.P
	case "Temperature":
		val = st.T
	case "SoundSpeed":
		val = st.C
	case "Entropy":
		val = math.Log(st.P / math.Pow(st.Rho, st.Gamma))
	case "InternalEnergy":
		val = st.Rho * st.E
	case "TotalEnthalpy":
		val = (U[iE] + st.P) / st.Rho
	case "MachNumber":
		var q2 float64
		for d := 0; d < c.dim; d++ {
			q2 += U[iMom+d] * U[iMom+d]
		}
		val = math.Sqrt(q2) / st.Rho / st.C
	case "Viscosity":
		val = c.Transport.Viscosity(st)
	case "ThermalConductivity":
		val = c.Transport.ThermalConductivity(st)
	default:
		return 0, types.Unsupported("variable %q for %s", name, c.Name())
	}
	return
}

// fill writes a single species, or default composition, state from primitives
func (c *Euler) fill(st *thermo.State, rho float64, vel []float64, p float64, U []float64) (err error) {
	var (
		iMom, iE = c.Indices()
		Y        = c.Thermo.DefaultY()
		q2       float64
	)
	for i := range Y {
		U[i] = rho * Y[i]
	}
	if err = c.Thermo.SetStateFromRhoiP(st, U[:iMom], p); err != nil {
		return
	}
	for d := 0; d < c.dim; d++ {
		U[iMom+d] = rho * vel[d]
		q2 += vel[d] * vel[d]
	}
	U[iE] = rho*st.E + 0.5*rho*q2
	return
}

func (c *Euler) Functions() physics.Registry[physics.StateFunction] { return functions }
func (c *Euler) BCs() physics.Registry[physics.BoundaryCondition]   { return bcs }
func (c *Euler) Sources() physics.Registry[physics.SourceTerm]       { return sources }
