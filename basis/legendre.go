package basis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/DG1D"
)

// Segment1D is a one dimensional basis that can be composed into a tensor product
type Segment1D interface {
	Basis
	Eval1D(r float64, phi, dphi []float64)
}

// LegendreSeg is the orthonormal modal basis on [-1,1]
type LegendreSeg struct {
	N int
}

func NewLegendreSeg(N int) *LegendreSeg { return &LegendreSeg{N: N} }

func (b *LegendreSeg) Name() string  { return "LegendreSeg" }
func (b *LegendreSeg) Shape() Shape  { return Segment }
func (b *LegendreSeg) Order() int    { return b.N }
func (b *LegendreSeg) NumBasis() int { return b.N + 1 }

func (b *LegendreSeg) Eval1D(r float64, phi, dphi []float64) {
	rr := []float64{r}
	for j := 0; j <= b.N; j++ {
		if phi != nil {
			phi[j] = DG1D.JacobiP(rr, 0, 0, j)[0]
		}
		if dphi != nil {
			dphi[j] = DG1D.GradJacobiP(rr, 0, 0, j)[0]
		}
	}
}

func (b *LegendreSeg) Values(r []float64, phi []float64)     { b.Eval1D(r[0], phi, nil) }
func (b *LegendreSeg) Gradients(r []float64, dphi []float64) { b.Eval1D(r[0], nil, dphi) }

// LagrangeSeg is the nodal basis interpolating at the Gauss-Lobatto points
type LagrangeSeg struct {
	N     int
	Nodes []float64
	Vinv  *mat.Dense
}

func NewLagrangeSeg(N int) (b *LagrangeSeg) {
	b = &LagrangeSeg{N: N}
	if N == 0 {
		b.Nodes = []float64{0}
	} else {
		b.Nodes = DG1D.JacobiGL(0, 0, N)
	}
	V := DG1D.Vandermonde1D(N, b.Nodes)
	b.Vinv = mat.NewDense(N+1, N+1, nil)
	if err := b.Vinv.Inverse(V); err != nil {
		panic(err)
	}
	return
}

func (b *LagrangeSeg) Name() string  { return "LagrangeSeg" }
func (b *LagrangeSeg) Shape() Shape  { return Segment }
func (b *LagrangeSeg) Order() int    { return b.N }
func (b *LagrangeSeg) NumBasis() int { return b.N + 1 }

// Eval1D computes l_j(r) = sum_m P_m(r) Vinv[m][j]
func (b *LagrangeSeg) Eval1D(r float64, phi, dphi []float64) {
	var (
		Np     = b.N + 1
		modal  = make([]float64, Np)
		dmodal = make([]float64, Np)
	)
	NewLegendreSeg(b.N).Eval1D(r, modal, dmodal)
	for j := 0; j < Np; j++ {
		var v, dv float64
		for m := 0; m < Np; m++ {
			v += modal[m] * b.Vinv.At(m, j)
			dv += dmodal[m] * b.Vinv.At(m, j)
		}
		if phi != nil {
			phi[j] = v
		}
		if dphi != nil {
			dphi[j] = dv
		}
	}
}

func (b *LagrangeSeg) Values(r []float64, phi []float64)     { b.Eval1D(r[0], phi, nil) }
func (b *LagrangeSeg) Gradients(r []float64, dphi []float64) { b.Eval1D(r[0], nil, dphi) }

// TensorQuad is the tensor product of a 1D basis on [-1,1]^2, index j = jy*(N+1) + jx
type TensorQuad struct {
	Seg Segment1D
}

func NewTensorQuad(seg Segment1D) *TensorQuad { return &TensorQuad{Seg: seg} }

func (b *TensorQuad) Name() string {
	switch b.Seg.(type) {
	case *LagrangeSeg:
		return "LagrangeQuad"
	}
	return "LegendreQuad"
}
func (b *TensorQuad) Shape() Shape { return Quadrilateral }
func (b *TensorQuad) Order() int   { return b.Seg.Order() }
func (b *TensorQuad) NumBasis() int {
	n := b.Seg.NumBasis()
	return n * n
}

func (b *TensorQuad) eval(r []float64) (px, py, dpx, dpy []float64) {
	n := b.Seg.NumBasis()
	px, py, dpx, dpy = make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	b.Seg.Eval1D(r[0], px, dpx)
	b.Seg.Eval1D(r[1], py, dpy)
	return
}

func (b *TensorQuad) Values(r []float64, phi []float64) {
	px, py, _, _ := b.eval(r)
	n := len(px)
	for jy := 0; jy < n; jy++ {
		for jx := 0; jx < n; jx++ {
			phi[jy*n+jx] = px[jx] * py[jy]
		}
	}
}

func (b *TensorQuad) Gradients(r []float64, dphi []float64) {
	px, py, dpx, dpy := b.eval(r)
	n := len(px)
	for jy := 0; jy < n; jy++ {
		for jx := 0; jx < n; jx++ {
			j := jy*n + jx
			dphi[2*j] = dpx[jx] * py[jy]
			dphi[2*j+1] = px[jx] * dpy[jy]
		}
	}
}
