package flux

import (
	"math"

	"github.com/notargets/dgflow/types"
)

/*
Roe is the approximate Riemann solver of P. L. Roe (1981) for one species gas dynamics,
laid out as [rho, rhou, (rhov), rhoE]. Momentum is rotated into the face frame
(normal, tangent), the jump is decomposed on the Roe averaged eigenvectors

	lambda = un-c, un, (un), un+c

and the flux is the one-sided average minus sum_k |lambda_k| alpha_k r_k, un-rotated.
*/
type Roe struct {
	Dim int
}

func (Roe) Name() string { return "Roe" }

// rotate expresses the momentum of U in the (normal, tangent) frame
func rotate(dim int, U, nhat, Ur []float64) {
	copy(Ur, U)
	if dim == 1 {
		Ur[1] = U[1] * nhat[0]
		return
	}
	Ur[1] = U[1]*nhat[0] + U[2]*nhat[1]
	Ur[2] = -U[1]*nhat[1] + U[2]*nhat[0]
}

func unrotate(dim int, F, nhat []float64) {
	if dim == 1 {
		F[1] *= nhat[0]
		return
	}
	fn, ft := F[1], F[2]
	F[1] = fn*nhat[0] - ft*nhat[1]
	F[2] = fn*nhat[1] + ft*nhat[0]
}

func (r Roe) ComputeFlux(p ConvPhysics, UL, UR, normal, F []float64, ws *Workspace) (err error) {
	var (
		gp   = p.(GasPhysics)
		dim  = r.Dim
		ns   = dim + 2
		nhat = ws.nhat[:dim]
		nmag = unitNormal(normal, nhat)
		pL   = &ws.PrL
		pR   = &ws.PrR
	)
	if err = gp.ConvFluxProjected(&ws.StL, UL, nhat, ws.FL); err != nil {
		return
	}
	if err = gp.ConvFluxProjected(&ws.StR, UR, nhat, ws.FR); err != nil {
		return
	}
	rotate(dim, UL, nhat, ws.UL)
	rotate(dim, UR, nhat, ws.UR)
	if err = gp.Primitives(&ws.StL, ws.UL, pL); err != nil {
		return
	}
	if err = gp.Primitives(&ws.StR, ws.UR, pR); err != nil {
		return
	}
	if !(pL.Rho > 0) {
		return types.NotPhysical("rhoL", pL.Rho).At("Roe")
	}
	if !(pR.Rho > 0) {
		return types.NotPhysical("rhoR", pR.Rho).At("Roe")
	}
	var (
		gamma      = pL.Gamma
		rLs, rRs   = math.Sqrt(pL.Rho), math.Sqrt(pR.Rho)
		denom      = 1 / (rLs + rRs)
		rho        = rLs * rRs
		u          = (rLs*pL.Vel[0] + rRs*pR.Vel[0]) * denom
		v          = (rLs*pL.Vel[1] + rRs*pR.Vel[1]) * denom
		H          = (rLs*pL.H + rRs*pR.H) * denom
		q2         = u*u + v*v
		c2         = (gamma - 1) * (H - 0.5*q2)
		drho, dp   = pR.Rho - pL.Rho, pR.P - pL.P
		du, dv     = pR.Vel[0] - pL.Vel[0], pR.Vel[1] - pL.Vel[1]
		alpha, lam [4]float64
		dF         = ws.Ustar
	)
	if math.IsNaN(c2) || c2 <= 0 {
		return types.NotPhysical("c^2", c2).At("Roe")
	}
	c := math.Sqrt(c2)
	// Wave strengths and |eigenvalues|, acoustic-, entropy, (shear), acoustic+
	alpha[0], lam[0] = 0.5/c2*(dp-c*rho*du), math.Abs(u-c)
	alpha[1], lam[1] = drho-dp/c2, math.Abs(u)
	alpha[3], lam[3] = 0.5/c2*(dp+c*rho*du), math.Abs(u+c)
	if dim == 2 {
		alpha[2], lam[2] = rho*dv, math.Abs(u)
	}
	// sum_k |lambda_k| alpha_k r_k, in the rotated frame
	a1, a2, a3, a4 := alpha[0]*lam[0], alpha[1]*lam[1], alpha[2]*lam[2], alpha[3]*lam[3]
	dF[0] = a1 + a2 + a4
	dF[1] = a1*(u-c) + a2*u + a4*(u+c)
	dF[ns-1] = a1*(H-u*c) + a2*0.5*q2 + a4*(H+u*c)
	if dim == 2 {
		dF[2] = (a1+a2+a4)*v + a3
		dF[3] += a3 * v
	}
	unrotate(dim, dF, nhat)
	for i := 0; i < ns; i++ {
		F[i] = 0.5 * nmag * (ws.FL[i] + ws.FR[i] - dF[i])
	}
	return
}
