package limiter

import (
	"context"
	"math"

	"github.com/notargets/dgflow/elements"
	"github.com/notargets/dgflow/model_problems/Euler"
	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/types"
	"github.com/notargets/dgflow/utils"
)

// Limiter is a post update transform of the solution. It mutates U in place and applying it
// twice without an update in between is the same as applying it once.
type Limiter interface {
	Name() string
	Limit(ctx context.Context, U *types.Tensor) error
}

type LimiterType uint8

const (
	LIMITER_PositivityPreserving LimiterType = iota
	LIMITER_ScalarPositivityPreserving
)

var Names = map[string]LimiterType{
	"PositivityPreserving":       LIMITER_PositivityPreserving,
	"ScalarPositivityPreserving": LIMITER_ScalarPositivityPreserving,
}

func (lt LimiterType) String() string {
	return [...]string{"PositivityPreserving", "ScalarPositivityPreserving"}[lt]
}

// POS_TOL is the floor enforced on density and pressure
const POS_TOL = 1.e-10

// New resolves a limiter by name. The empty name means no limiting and returns nil.
func New(label string, p physics.Physics, el *elements.Elements, pm *utils.PartitionMap) (lim Limiter, err error) {
	if label == "" {
		return nil, nil
	}
	lt, ok := Names[label]
	if !ok {
		return nil, types.Unsupported("limiter %q", label)
	}
	base := points{el: el, pm: pm}
	switch lt {
	case LIMITER_PositivityPreserving:
		c, ok := p.(*Euler.Euler)
		if !ok {
			return nil, types.Unsupported("%s limiter with %s physics", lt, p.Name())
		}
		lim = &PositivityPreserving{points: base, Physics: c}
	default:
		if p.NumStateVars() != 1 {
			return nil, types.Unsupported("%s limiter with %d state variables", lt, p.NumStateVars())
		}
		lim = &ScalarPositivityPreserving{points: base}
	}
	return
}

// points evaluates an element at all of its volume and face quadrature points
type points struct {
	el *elements.Elements
	pm *utils.PartitionMap
}

func (pt points) num() int { return pt.el.Nq + pt.el.NFaces*pt.el.NqF }

// eval fills Up[num][Ns] from the coefficients Uk
func (pt points) eval(Uk []float64, Ns int, Up []float64) {
	var (
		el = pt.el
		n  = el.Nq * Ns
	)
	el.EvalVolume(Uk, Ns, Up[:n])
	for f := 0; f < el.NFaces; f++ {
		el.EvalFace(Uk, Ns, f, Up[n:n+el.NqF*Ns])
		n += el.NqF * Ns
	}
}

// squeeze scales the deviation of the selected states from the element mean by theta
func (pt points) squeeze(k int, Uk, mean []float64, Ns int, theta float64, states func(s int) bool) {
	var (
		Nb = pt.el.Nb
		cc = pt.el.ConstCoeffs[k*Nb : (k+1)*Nb]
	)
	for a := 0; a < Nb; a++ {
		for s := 0; s < Ns; s++ {
			if states(s) {
				ubar := cc[a] * mean[s]
				Uk[a*Ns+s] = ubar + theta*(Uk[a*Ns+s]-ubar)
			}
		}
	}
}

/*
PositivityPreserving is the Zhang-Shu limiter for the Euler equations. The partial densities
are squeezed toward the element mean until every one is non-negative and the density is above
POS_TOL at all volume and face quadrature points, then the whole state is squeezed until the
pressure is above POS_TOL. Pressure is concave in the conserved variables, so the linear
ratio is sufficient.
*/
type PositivityPreserving struct {
	points
	Physics *Euler.Euler
}

func (pp *PositivityPreserving) Name() string { return "PositivityPreserving" }

func (pp *PositivityPreserving) Limit(ctx context.Context, U *types.Tensor) error {
	return pp.pm.RunPartitions(ctx, func(ctx context.Context, bn, kMin, kMax int) (err error) {
		var (
			Ns   = U.Ns
			np   = pp.num()
			Up   = make([]float64, np*Ns)
			mean = make([]float64, Ns)
		)
		for k := kMin; k < kMax; k++ {
			if err = pp.limitElement(k, U.Elem(k), mean, Up); err != nil {
				return
			}
		}
		return
	})
}

func (pp *PositivityPreserving) limitElement(k int, Uk, mean, Up []float64) (err error) {
	var (
		c       = pp.Physics
		Ns      = len(mean)
		np      = pp.num()
		iMom, _ = c.Indices()
		rhoBar  float64
	)
	pp.el.Mean(k, Uk, Ns, mean)
	for i := 0; i < iMom; i++ {
		if !(mean[i] >= 0) {
			return types.NotPhysical("mean partial density", mean[i]).At("PositivityPreserving")
		}
		rhoBar += mean[i]
	}
	if !(rhoBar > POS_TOL) {
		return types.NotPhysical("mean density", rhoBar).At("PositivityPreserving")
	}
	pBar := c.RawPressure(mean)
	if !(pBar > POS_TOL) {
		return types.NotPhysical("mean pressure", pBar).At("PositivityPreserving")
	}

	// Densities
	pp.eval(Uk, Ns, Up)
	theta := 1.
	for q := 0; q < np; q++ {
		var (
			u   = Up[q*Ns : (q+1)*Ns]
			rho float64
		)
		for i := 0; i < iMom; i++ {
			rho += u[i]
			if u[i] < 0 {
				theta = math.Min(theta, mean[i]/(mean[i]-u[i]))
			}
		}
		if rho < POS_TOL {
			theta = math.Min(theta, (rhoBar-POS_TOL)/(rhoBar-rho))
		}
	}
	if theta < 1 {
		pp.squeeze(k, Uk, mean, Ns, theta, func(s int) bool { return s < iMom })
		pp.eval(Uk, Ns, Up)
	}

	// Pressure
	theta = 1
	for q := 0; q < np; q++ {
		if p := c.RawPressure(Up[q*Ns : (q+1)*Ns]); p < POS_TOL {
			theta = math.Min(theta, (pBar-POS_TOL)/(pBar-p))
		}
	}
	if theta < 1 {
		pp.squeeze(k, Uk, mean, Ns, math.Max(theta, 0), func(int) bool { return true })
	}
	return
}

// ScalarPositivityPreserving bounds a scalar solution to the range of the element means
type ScalarPositivityPreserving struct {
	points
	means []float64
}

func (sp *ScalarPositivityPreserving) Name() string { return "ScalarPositivityPreserving" }

func (sp *ScalarPositivityPreserving) Limit(ctx context.Context, U *types.Tensor) (err error) {
	if len(sp.means) != U.K {
		sp.means = make([]float64, U.K)
	}
	if err = sp.pm.RunPartitions(ctx, func(ctx context.Context, bn, kMin, kMax int) error {
		for k := kMin; k < kMax; k++ {
			sp.el.Mean(k, U.Elem(k), 1, sp.means[k:k+1])
		}
		return nil
	}); err != nil {
		return
	}
	var (
		umin, umax = math.Inf(1), math.Inf(-1)
	)
	for _, m := range sp.means {
		umin, umax = math.Min(umin, m), math.Max(umax, m)
	}
	return sp.pm.RunPartitions(ctx, func(ctx context.Context, bn, kMin, kMax int) error {
		Up := make([]float64, sp.num())
		for k := kMin; k < kMax; k++ {
			var (
				Uk    = U.Elem(k)
				ubar  = sp.means[k]
				theta = 1.
			)
			sp.eval(Uk, 1, Up)
			for _, u := range Up {
				switch {
				case u < umin:
					theta = math.Min(theta, (ubar-umin)/(ubar-u))
				case u > umax:
					theta = math.Min(theta, (umax-ubar)/(u-ubar))
				}
			}
			if theta < 1 {
				sp.squeeze(k, Uk, sp.means[k:k+1], 1, theta, func(int) bool { return true })
			}
		}
		return nil
	})
}
