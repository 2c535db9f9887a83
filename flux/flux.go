package flux

import (
	"math"

	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
)

// ConvPhysics is what a numerical flux needs from an equation set
type ConvPhysics interface {
	NumStateVars() int
	Dim() int
	// ConvFluxProjected computes F(U) . nhat for a unit normal
	ConvFluxProjected(st *thermo.State, U, nhat, F []float64) error
	// MaxWaveSpeed is |u.nhat| + c, or the projected advection speed for scalars
	MaxWaveSpeed(st *thermo.State, U, nhat []float64) (float64, error)
}

// Primitive holds the derived quantities of a gas dynamics state
type Primitive struct {
	Rho, P, C float64
	H         float64 // total specific enthalpy
	E         float64 // specific internal energy
	Gamma     float64
	Vel       [3]float64
	Y         []float64
}

// GasPhysics is the extra contract of the Riemann solvers
type GasPhysics interface {
	ConvPhysics
	NumSpecies() int
	Primitives(st *thermo.State, U []float64, pr *Primitive) error
}

// Workspace is the scratch space of one worker, never shared between goroutines
type Workspace struct {
	StL, StR thermo.State
	PrL, PrR Primitive
	FL, FR   []float64
	UL, UR   []float64
	Ustar    []float64
	nhat     []float64
}

func NewWorkspace(ns, dim int) *Workspace {
	return &Workspace{
		FL:    make([]float64, ns),
		FR:    make([]float64, ns),
		UL:    make([]float64, ns),
		UR:    make([]float64, ns),
		Ustar: make([]float64, ns),
		nhat:  make([]float64, dim),
	}
}

// NumericalFlux resolves a single flux from two states across a face. The normal carries the
// face Jacobian as its magnitude and the returned flux includes it.
type NumericalFlux interface {
	Name() string
	ComputeFlux(p ConvPhysics, UL, UR, normal, F []float64, ws *Workspace) error
}

type FluxType uint8

const (
	FLUX_LaxFriedrichs FluxType = iota
	FLUX_Roe
	FLUX_HLLC
)

var Names = map[string]FluxType{
	"LaxFriedrichs": FLUX_LaxFriedrichs,
	"Roe":           FLUX_Roe,
	"HLLC":          FLUX_HLLC,
}

func (ft FluxType) String() string {
	return [...]string{"LaxFriedrichs", "Roe", "HLLC"}[ft]
}

// New resolves a flux by name and checks it against the physics it will be used with
func New(label string, p ConvPhysics) (nf NumericalFlux, err error) {
	ft, ok := Names[label]
	if !ok {
		return nil, types.Unsupported("numerical flux %q", label)
	}
	if ft == FLUX_LaxFriedrichs {
		return LaxFriedrichs{}, nil
	}
	gp, ok := p.(GasPhysics)
	if !ok {
		return nil, types.Unsupported("%s flux needs gas dynamics physics", ft)
	}
	if gp.Dim() < 1 || gp.Dim() > 2 {
		return nil, types.Unsupported("%s flux in %d dimensions", ft, gp.Dim())
	}
	switch ft {
	case FLUX_Roe:
		if gp.NumSpecies() != 1 {
			return nil, types.Unsupported("Roe flux with %d species", gp.NumSpecies())
		}
		nf = Roe{Dim: gp.Dim()}
	default:
		nf = HLLC{}
	}
	return
}

// unitNormal fills nhat and returns |n|
func unitNormal(normal, nhat []float64) (nmag float64) {
	for _, v := range normal {
		nmag += v * v
	}
	nmag = math.Sqrt(nmag)
	for i, v := range normal {
		nhat[i] = v / nmag
	}
	return
}

// LaxFriedrichs is 0.5|n| (F_L + F_R - a (U_R - U_L)) with a the larger of the two wave speeds
type LaxFriedrichs struct{}

func (LaxFriedrichs) Name() string { return "LaxFriedrichs" }

func (LaxFriedrichs) ComputeFlux(p ConvPhysics, UL, UR, normal, F []float64, ws *Workspace) (err error) {
	var (
		nhat   = ws.nhat[:len(normal)]
		nmag   = unitNormal(normal, nhat)
		aL, aR float64
	)
	if err = p.ConvFluxProjected(&ws.StL, UL, nhat, ws.FL); err != nil {
		return
	}
	if aL, err = p.MaxWaveSpeed(&ws.StL, UL, nhat); err != nil {
		return
	}
	if err = p.ConvFluxProjected(&ws.StR, UR, nhat, ws.FR); err != nil {
		return
	}
	if aR, err = p.MaxWaveSpeed(&ws.StR, UR, nhat); err != nil {
		return
	}
	a := math.Max(aL, aR)
	for i := range F {
		F[i] = 0.5 * nmag * (ws.FL[i] + ws.FR[i] - a*(UR[i]-UL[i]))
	}
	return
}
