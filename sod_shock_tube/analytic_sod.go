package sod_shock_tube

import (
	"math"

	"github.com/notargets/dgflow/types"
	"github.com/notargets/dgflow/utils"
)

// Primitive is a (density, velocity, pressure) triple
type Primitive struct {
	Rho, U, P float64
}

// Riemann is the exact solution of a shock tube whose left state expands to the left
// through a rarefaction and drives a shock into the right state
type Riemann struct {
	Left, Right Primitive
	Gamma       float64
	X0          float64 // initial discontinuity
	// Regions between the rarefaction tail and the shock, filled by Solve
	P2, U2, Rho2, Rho3, C3 float64
	VShock                 float64
	solved                 bool
}

func NewRiemann(left, right Primitive, gamma, x0 float64) *Riemann {
	return &Riemann{Left: left, Right: right, Gamma: gamma, X0: x0}
}

// NewSod is the classic Sod problem on [0,1] with the diaphragm at 0.5
func NewSod() *Riemann {
	return NewRiemann(Primitive{Rho: 1, P: 1}, Primitive{Rho: 0.125, P: 0.1}, 1.4, 0.5)
}

// Solve finds the post-shock pressure ratio. A failed root solve is a convergence failure.
func (rs *Riemann) Solve() (err error) {
	if rs.solved {
		return
	}
	var (
		g      = rs.Gamma
		l, r   = rs.Left, rs.Right
		c4, c1 = math.Sqrt(g * l.P / l.Rho), math.Sqrt(g * r.P / r.Rho)
		shock  = func(y float64) float64 {
			return c1 / g * (y - 1) / math.Sqrt((g+1)/(2*g)*(y-1)+1)
		}
		f = func(y float64) float64 {
			return y*math.Pow(1+(g-1)/(2*c4)*(l.U-r.U-shock(y)), -2*g/(g-1)) - l.P/r.P
		}
		y0 = 0.5 * l.P / r.P
		y  float64
	)
	if y, err = utils.Secant("RiemannProblem", f, y0, 1.01*y0, 1.e-12, 100); err != nil {
		return
	}
	if !(y > 0) {
		return &types.ConvergenceError{Solver: "RiemannProblem", Input: y0, Iterations: 100, Residual: f(y)}
	}
	rs.P2 = y * r.P
	rs.U2 = r.U + shock(y)
	var (
		num = (g+1)/(g-1) + y
		den = 1 + (g+1)/(g-1)*y
		c2  = c1 * math.Sqrt(y*num/den)
	)
	rs.VShock = r.U + c1*math.Sqrt((g+1)/(2*g)*(y-1)+1)
	rs.Rho2 = g * rs.P2 / (c2 * c2)
	rs.C3 = (g - 1) / 2 * (l.U - rs.U2 + 2/(g-1)*c4)
	rs.Rho3 = g * rs.P2 / (rs.C3 * rs.C3)
	rs.solved = true
	return
}

// Positions returns the rarefaction head and tail, the contact and the shock at time t
func (rs *Riemann) Positions(t float64) (xe1, xe2, xc, xs float64) {
	var (
		g  = rs.Gamma
		l  = rs.Left
		c4 = math.Sqrt(g * l.P / l.Rho)
	)
	xe1 = (l.U-c4)*t + rs.X0
	xe2 = t*((g+1)/2*rs.U2-(g-1)/2*l.U-c4) + rs.X0
	xc = rs.U2*t + rs.X0
	xs = rs.VShock*t + rs.X0
	return
}

// Sample returns the exact primitive state at x and t
func (rs *Riemann) Sample(x, t float64) (pr Primitive, err error) {
	if t <= 0 {
		if x <= rs.X0 {
			return rs.Left, nil
		}
		return rs.Right, nil
	}
	if err = rs.Solve(); err != nil {
		return
	}
	var (
		g                = rs.Gamma
		l                = rs.Left
		c4               = math.Sqrt(g * l.P / l.Rho)
		xe1, xe2, xc, xs = rs.Positions(t)
	)
	switch {
	case x <= xe1:
		pr = l
	case x <= xe2:
		pr.U = 2 / (g + 1) * ((x-rs.X0)/t + (g-1)/2*l.U + c4)
		c := pr.U - (x-rs.X0)/t
		pr.P = l.P * math.Pow(c/c4, 2*g/(g-1))
		pr.Rho = g * pr.P / (c * c)
	case x <= xc:
		pr = Primitive{Rho: rs.Rho3, U: rs.U2, P: rs.P2}
	case x <= xs:
		pr = Primitive{Rho: rs.Rho2, U: rs.U2, P: rs.P2}
	default:
		pr = rs.Right
	}
	return
}

// SOD_calc tabulates the Sod solution at time t on the key positions, bracketing each wave
func SOD_calc(t float64) (X, Rho, P, U, E []float64, x4 float64, err error) {
	var (
		rs               = NewSod()
		tol              = 1.e-8
		xe1, xe2, xc, xs float64
	)
	if err = rs.Solve(); err != nil {
		return
	}
	xe1, xe2, xc, xs = rs.Positions(t)
	X = []float64{0, xe1 - tol, xe1 + tol, xe2 - tol, xe2 + tol, xc - tol, xc + tol, xs - tol, xs + tol, 1}
	Rho = make([]float64, len(X))
	P = make([]float64, len(X))
	U = make([]float64, len(X))
	E = make([]float64, len(X))
	for i, x := range X {
		var pr Primitive
		if pr, err = rs.Sample(x, t); err != nil {
			return
		}
		Rho[i], P[i], U[i] = pr.Rho, pr.P, pr.U
		E[i] = pr.P / ((rs.Gamma - 1.) * pr.Rho)
	}
	x4 = xs
	return
}
