package solver

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/elements"
	"github.com/notargets/dgflow/stepper"
	"github.com/notargets/dgflow/types"
)

/*
Predict builds the element local space-time predictor of an ADER step. At the Gauss time nodes
tau_j of [0,1] the predictor solves
	G_j(q) = q_j - U - dt sum_l A_jl M^-1 L(q_l, t + tau_l dt) = 0
where L is the residual of the element in isolation: its own trace supplies the face flux,
which turns the weak form into the strong form -div F + S. All p+1 time nodes of an element are
solved together by Newton iteration on
	dG/dq = I - dt (A x M^-1) dL/dq
The source part of dL/dq is the analytic source Jacobian, the convective part a finite difference.
*/
func (dg *DG) Predict(ctx context.Context, sc *types.StepContext, dt float64, U *types.Tensor) (Q []*types.Tensor, W []float64, err error) {
	var (
		el = dg.El
		Nt = el.Basis.Order() + 1
		Ns = U.Ns
		n  = el.Nb * Ns
		N  = Nt * n
	)
	if len(dg.pred) != Nt || !dg.pred[0].SameShape(U) {
		dg.tau, dg.tw = stepper.TimeNodes(Nt)
		dg.A = stepper.TimeIntegrationMatrix(dg.tau)
		dg.pred = make([]*types.Tensor, Nt)
		for j := range dg.pred {
			dg.pred[j] = U.NewLike()
		}
	}
	var (
		t0   = sc.Time
		conv = sc.ConvFlux
		src  = sc.Source
	)
	err = dg.Partitions.RunPartitions(ctx, func(ctx context.Context, bn, kMin, kMax int) (err error) {
		var (
			lj = &localJacobian{
				dg: dg,
				ws: dg.work[bn],
				es: &elementSource{dg: dg, ws: dg.work[bn]},
				J:  mat.NewDense(n, n, nil),
				R:  make([]float64, n),
				Rp: make([]float64, n),
			}
			q     = make([]float64, N) // [Nt][Nb][Ns]
			L     = make([]float64, N) // M^-1 L(q_l)
			col   = make([]float64, n)
			G     = mat.NewVecDense(N, nil)
			Jac   = mat.NewDense(N, N, nil)
			delta = mat.NewVecDense(N, nil)
			lu    mat.LU
		)
		for k := kMin; k < kMax; k++ {
			if err = ctx.Err(); err != nil {
				return
			}
			var (
				Uk   = U.Elem(k)
				MInv = el.MInv[k]
				done bool
				res  float64
			)
			for j := 0; j < Nt; j++ {
				copy(q[j*n:(j+1)*n], Uk)
			}
			for iter := 0; iter < stepper.NewtonMaxIter; iter++ {
				Jac.Zero()
				for l := 0; l < Nt; l++ {
					Ll := L[l*n : (l+1)*n]
					if err = lj.eval(conv, src, t0+dg.tau[l]*dt, k, q[l*n:(l+1)*n], Ll); err != nil {
						return
					}
					elements.MulInverseMass(MInv, Ns, Ll)
					// Block (j,l) of the Jacobian is -dt A_jl M^-1 dL/dq(q_l)
					for c := 0; c < n; c++ {
						for r := range col {
							col[r] = lj.J.At(r, c)
						}
						elements.MulInverseMass(MInv, Ns, col)
						for j := 0; j < Nt; j++ {
							a := -dt * dg.A.At(j, l)
							for r, v := range col {
								Jac.Set(j*n+r, l*n+c, a*v)
							}
						}
					}
				}
				var qmax float64
				for j := 0; j < Nt; j++ {
					for r := 0; r < n; r++ {
						var sum float64
						for l := 0; l < Nt; l++ {
							sum += dg.A.At(j, l) * L[l*n+r]
						}
						i := j*n + r
						G.SetVec(i, -(q[i] - Uk[r] - dt*sum))
						Jac.Set(i, i, Jac.At(i, i)+1)
					}
				}
				lu.Factorize(Jac)
				if err = lu.SolveVecTo(delta, false, G); err != nil {
					return
				}
				res = 0
				for i := range q {
					q[i] += delta.AtVec(i)
					res = math.Max(res, math.Abs(delta.AtVec(i)))
					qmax = math.Max(qmax, math.Abs(q[i]))
				}
				if res < stepper.NewtonTol*(1+qmax) {
					done = true
					break
				}
			}
			if !done {
				slog.Warn("space-time predictor did not converge", "element", k,
					"iterations", stepper.NewtonMaxIter, "residual", res)
			}
			for j := 0; j < Nt; j++ {
				copy(dg.pred[j].Elem(k), q[j*n:(j+1)*n])
			}
		}
		return
	})
	if err != nil {
		return
	}
	return dg.pred, dg.tw, nil
}

// localJacobian evaluates the isolated element residual and its derivative with respect to the
// element coefficients
type localJacobian struct {
	dg    *DG
	ws    *workspace
	es    *elementSource
	J     *mat.Dense // [Nb*Ns][Nb*Ns]
	R, Rp []float64
}

// eval sets Lk = L(Uk, t) and J = dL/dUk. Uk is restored before returning.
func (lj *localJacobian) eval(conv, src bool, t float64, k int, Uk, Lk []float64) (err error) {
	dg, ws := lj.dg, lj.ws
	lj.J.Zero()
	for i := range Lk {
		Lk[i] = 0
	}
	if src && len(dg.Sources) > 0 {
		if err = lj.es.Source(k, t, Uk, Lk, lj.J); err != nil {
			return
		}
	}
	if !conv {
		return
	}
	for i := range lj.R {
		lj.R[i] = 0
	}
	if err = dg.localResidual(ws, true, false, t, k, Uk, lj.R); err != nil {
		return
	}
	for i, r := range lj.R {
		Lk[i] += r
	}
	for c := range Uk {
		var (
			u0 = Uk[c]
			h  = 1.e-8 * (1 + math.Abs(u0))
		)
		Uk[c] = u0 + h
		for i := range lj.Rp {
			lj.Rp[i] = 0
		}
		err = dg.localResidual(ws, true, false, t, k, Uk, lj.Rp)
		Uk[c] = u0
		if err != nil {
			return
		}
		for r := range lj.Rp {
			lj.J.Set(r, c, lj.J.At(r, c)+(lj.Rp[r]-lj.R[r])/h)
		}
	}
	return
}

// localResidual is the residual of element k with its own trace on both sides of every face
func (dg *DG) localResidual(ws *workspace, conv, src bool, t float64, k int, Uk, Rk []float64) (err error) {
	if err = dg.volume(ws, conv, src, t, k, Uk, Rk); err != nil || !conv {
		return
	}
	var (
		el = dg.El
		Ns = len(ws.Fn)
	)
	for f := 0; f < el.NFaces; f++ {
		el.EvalFace(Uk, Ns, f, ws.UL)
		for i := 0; i < el.NqF; i++ {
			if err = dg.projectedFlux(ws, ws.UL[i*Ns:(i+1)*Ns], el.Normal(k, f, i)); err != nil {
				return
			}
			dg.addFace(Rk, f, i, -1, ws.Fn)
		}
	}
	return
}
