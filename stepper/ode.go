package stepper

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/elements"
	"github.com/notargets/dgflow/types"
)

const (
	NewtonTol     = 1.e-12
	NewtonMaxIter = 25
)

/*
ODESolver integrates the source term (plus the splitting balance, when set) implicitly with an
element local Newton iteration:
	G(U) = U - Un - dt M^-1 (Theta R_s(U, t+dt) + (1-Theta) R_s(Un, t) + B)
	dG/dU = I - Theta dt (M^-1 x I) dR_s/dU
Theta is 1 for BDF1 and 1/2 for the trapezoidal rule.
*/
type ODESolver struct {
	Type  ODEType
	Theta float64
	R     *types.Tensor
}

func NewODESolver(ot ODEType) *ODESolver {
	theta := 1.
	if ot == ODE_Trapezoidal {
		theta = 0.5
	}
	return &ODESolver{Type: ot, Theta: theta}
}

func (o *ODESolver) Name() string { return o.Type.String() }

func (o *ODESolver) Init(sys System) error {
	if _, ok := sys.(ImplicitSystem); !ok {
		return types.Unsupported("%s on a system without element local sources", o.Type)
	}
	o.R = scratch(o.R, sys)
	return nil
}

func (o *ODESolver) TakeTimeStep(ctx context.Context, sys System, sc *types.StepContext, dt float64,
	U *types.Tensor) (R *types.Tensor, err error) {
	if err = o.Init(sys); err != nil {
		return
	}
	var (
		t0        = sc.Time
		balance   = sc.Balance
		_, Nb, Ns = sys.Shape()
		n         = Nb * Ns
	)
	err = sys.(ImplicitSystem).RunElements(ctx, func(ctx context.Context, kMin, kMax int, es ElementSource) (err error) {
		var (
			un    = make([]float64, n)
			rhs0  = make([]float64, n)
			Rs    = make([]float64, n)
			G     = make([]float64, n)
			Jsrc  = mat.NewDense(n, n, nil)
			Jac   = mat.NewDense(n, n, nil)
			delta = mat.NewVecDense(n, nil)
			lu    mat.LU
		)
		for k := kMin; k < kMax; k++ {
			if err = ctx.Err(); err != nil {
				return
			}
			var (
				Uk   = U.Elem(k)
				MInv = es.InverseMass(k)
				conv bool
				res  float64
			)
			copy(un, Uk)
			// rhs0 = M^-1 ((1-Theta) R_s(Un) + B)
			for i := range rhs0 {
				rhs0[i] = 0
			}
			if o.Theta < 1 {
				if err = es.Source(k, t0, un, Rs, nil); err != nil {
					return
				}
				for i := range rhs0 {
					rhs0[i] = (1 - o.Theta) * Rs[i]
				}
			}
			if balance != nil {
				for i, b := range balance.Elem(k) {
					rhs0[i] += b
				}
			}
			elements.MulInverseMass(MInv, Ns, rhs0)
			for iter := 0; iter < NewtonMaxIter; iter++ {
				Jsrc.Zero()
				if err = es.Source(k, t0+dt, Uk, Rs, Jsrc); err != nil {
					return
				}
				elements.MulInverseMass(MInv, Ns, Rs)
				for i := range G {
					G[i] = -(Uk[i] - un[i] - dt*(o.Theta*Rs[i]+rhs0[i]))
				}
				o.jacobian(MInv, Ns, dt, Jsrc, Jac)
				lu.Factorize(Jac)
				if err = lu.SolveVecTo(delta, false, mat.NewVecDense(n, G)); err != nil {
					return
				}
				res = 0
				for i := range Uk {
					Uk[i] += delta.AtVec(i)
					res = math.Max(res, math.Abs(delta.AtVec(i)))
				}
				if res < NewtonTol*(1+mat.Norm(mat.NewVecDense(n, Uk), math.Inf(1))) {
					conv = true
					break
				}
			}
			if !conv {
				slog.Warn("implicit source solve did not converge", "solver", o.Type, "element", k,
					"iterations", NewtonMaxIter, "residual", res)
			}
		}
		return
	})
	if err != nil {
		return
	}
	sc.Time = t0 + dt
	if err = sys.ApplyLimiter(ctx, U); err != nil {
		return
	}
	// Report the source residual at the new state
	if err = sys.GetResidual(ctx, sc, U, o.R); err != nil {
		return
	}
	return o.R, nil
}

// jacobian fills Jac = I - Theta dt (M^-1 x I) Jsrc, unknowns are ordered (basis, state)
func (o *ODESolver) jacobian(MInv *mat.Dense, Ns int, dt float64, Jsrc, Jac *mat.Dense) {
	var (
		n, _ = Jsrc.Dims()
		Nb   = n / Ns
	)
	for a := 0; a < Nb; a++ {
		for i := 0; i < Ns; i++ {
			row := a*Ns + i
			for col := 0; col < n; col++ {
				var sum float64
				for b := 0; b < Nb; b++ {
					sum += MInv.At(a, b) * Jsrc.At(b*Ns+i, col)
				}
				v := -o.Theta * dt * sum
				if col == row {
					v += 1
				}
				Jac.Set(row, col, v)
			}
		}
	}
}
