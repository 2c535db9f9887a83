package flux

import (
	"math"
)

// HLLC is the Harten-Lax-van Leer-Contact solver. Wave speeds are the envelope of the
// plain, Roe and PVRS estimates, and the branch is chosen point by point.
type HLLC struct{}

func (HLLC) Name() string { return "HLLC" }

// WaveSpeeds returns the widest of the three left and right signal speed estimates
func (HLLC) WaveSpeeds(rhoL, rhoR, aL, aR, pL, pR, uL, uR, gL, gR float64) (SL, SR float64) {
	SL, SR = uL-aL, uR+aR
	// Roe average estimate
	var (
		rLs, rRs = math.Sqrt(rhoL), math.Sqrt(rhoR)
		denom    = 1 / (rLs + rRs)
		uRoe     = (rLs*uL + rRs*uR) * denom
		aRoe     = math.Sqrt((rLs*aL*aL+rRs*aR*aR)*denom + 0.5*rLs*rRs*(uR-uL)*(uR-uL)*denom*denom)
	)
	SL, SR = math.Min(SL, uRoe-aRoe), math.Max(SR, uRoe+aRoe)
	// Primitive variable Riemann solver estimate
	var (
		pStar = 0.5 * (pL + pR - (uR-uL)*0.5*(rhoL+rhoR)*0.5*(aL+aR))
		q     = func(pK, g float64) float64 {
			if pStar > pK {
				return math.Sqrt(1 + (g+1)/(2*g)*(pStar/pK-1))
			}
			return 1
		}
	)
	SL, SR = math.Min(SL, uL-aL*q(pL, gL)), math.Max(SR, uR+aR*q(pR, gR))
	return
}

func (h HLLC) ComputeFlux(p ConvPhysics, UL, UR, normal, F []float64, ws *Workspace) (err error) {
	var (
		gp   = p.(GasPhysics)
		dim  = gp.Dim()
		nsp  = gp.NumSpecies()
		ns   = gp.NumStateVars()
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
	if err = gp.Primitives(&ws.StL, UL, pL); err != nil {
		return
	}
	if err = gp.Primitives(&ws.StR, UR, pR); err != nil {
		return
	}
	var uL, uR, u2L, u2R float64
	for d := 0; d < dim; d++ {
		uL += pL.Vel[d] * nhat[d]
		uR += pR.Vel[d] * nhat[d]
		u2L += pL.Vel[d] * pL.Vel[d]
		u2R += pR.Vel[d] * pR.Vel[d]
	}
	SL, SR := h.WaveSpeeds(pL.Rho, pR.Rho, pL.C, pR.C, pL.P, pR.P, uL, uR, pL.Gamma, pR.Gamma)

	switch {
	case SR <= 0:
		copy(F, ws.FR)
	case SL >= 0:
		copy(F, ws.FL)
	default:
		var (
			alphaL = pL.Rho * (SL - uL)
			alphaR = pR.Rho * (SR - uR)
			Sstar  = (pR.P - pL.P + uL*alphaL - uR*alphaR) / (alphaL - alphaR)
			// Left star state unless the contact moves left
			Sk, uk, u2k, alphak = SL, uL, u2L, alphaL
			pr, Uk, Fk          = pL, UL, ws.FL
		)
		if Sstar < 0 {
			Sk, uk, u2k, alphak = SR, uR, u2R, alphaR
			pr, Uk, Fk = pR, UR, ws.FR
		}
		var (
			rhoStar = alphak / (Sk - Sstar)
			C       = (Sstar - uk) * (Sstar + pr.P/alphak)
			Ustar   = ws.Ustar[:ns]
		)
		for i := 0; i < nsp; i++ {
			Ustar[i] = rhoStar * pr.Y[i]
		}
		// Normal velocity replaced by S*, tangential velocity carried over
		var vn float64
		for d := 0; d < dim; d++ {
			vn += pr.Vel[d] * nhat[d]
		}
		for d := 0; d < dim; d++ {
			Ustar[nsp+d] = rhoStar * (pr.Vel[d] + nhat[d]*(Sstar-vn))
		}
		Ustar[ns-1] = rhoStar * (pr.E + 0.5*u2k + C)
		for i := 0; i < ns; i++ {
			F[i] = Fk[i] + Sk*(Ustar[i]-Uk[i])
		}
	}
	for i := 0; i < ns; i++ {
		F[i] *= nmag
	}
	return
}
