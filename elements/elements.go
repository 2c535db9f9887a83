package elements

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/basis"
	"github.com/notargets/dgflow/mesh"
	"github.com/notargets/dgflow/types"
)

/*
Elements carries the precomputed geometry of a mesh for a given basis:
	quadrature points and weights x Jacobian in every element
	physical basis gradients at quadrature points
	face quadrature points and outward normals, the normal magnitude is the face Jacobian
	inverse mass matrices
It is built once and only read afterwards.
*/
type Elements struct {
	Mesh   *mesh.Mesh
	Basis  basis.Basis
	Quad   *basis.Rule
	K      int
	Nb     int
	Nq     int
	NqF    int
	Dim    int
	NFaces int
	Phi    []float64 // [Nq][Nb]
	X      []float64 // [K][Nq][Dim]
	WJ     []float64 // [K][Nq], quadrature weight x |J|
	GPhi   []float64 // [K][Nq][Nb][Dim]
	FaceW  []float64 // [NqF], reference face weights
	// Face data, [NFaces][NqF][Nb] for FacePhi and [K][NFaces][NqF][Dim] for the rest
	FacePhi []float64
	FaceX   []float64
	Normals []float64
	MInv    []*mat.Dense
	// Coefficients of the constant function 1 in each element, [K][Nb]
	ConstCoeffs []float64
	Vol, H      []float64
	HMin        float64
}

func NewElements(m *mesh.Mesh, b basis.Basis, qt basis.QuadratureType) (el *Elements, err error) {
	if b.Shape() != m.Shape {
		return nil, types.Unsupported("%s basis on a %s mesh", b.Shape(), m.Shape)
	}
	var (
		order  = basis.QuadratureOrder(b.Order(), 1, m.Dim)
		q      = basis.NewRule(qt, m.Shape, order)
		xf, wf = basis.FaceRule(qt, m.Shape, order)
	)
	el = &Elements{
		Mesh:   m,
		Basis:  b,
		Quad:   q,
		K:      m.K,
		Nb:     b.NumBasis(),
		Nq:     q.NumPoints(),
		NqF:    len(wf),
		Dim:    m.Dim,
		NFaces: m.NumFaces(),
		FaceW:  wf,
		HMin:   math.MaxFloat64,
	}
	el.Phi = make([]float64, el.Nq*el.Nb)
	for i := 0; i < el.Nq; i++ {
		b.Values(q.Point(i), el.Phi[i*el.Nb:(i+1)*el.Nb])
	}
	el.FacePhi = make([]float64, el.NFaces*el.NqF*el.Nb)
	for f := 0; f < el.NFaces; f++ {
		for i, s := range xf {
			ind := (f*el.NqF + i) * el.Nb
			b.Values(basis.FacePoint(m.Shape, f, s), el.FacePhi[ind:ind+el.Nb])
		}
	}
	if err = el.computeGeometry(xf); err != nil {
		return nil, err
	}
	if err = el.computeMassInverse(); err != nil {
		return nil, err
	}
	return
}

// mapping returns x(r) and the Jacobian J[i][j] = dx_i/dr_j of element k
func (el *Elements) mapping(k int, r []float64) (x []float64, J [2][2]float64) {
	xv := el.Mesh.ElementVertices(k)
	switch el.Dim {
	case 1:
		x = []float64{xv[0][0] + 0.5*(r[0]+1)*(xv[1][0]-xv[0][0])}
		J[0][0] = 0.5 * (xv[1][0] - xv[0][0])
	default:
		// Bilinear map with vertices at (-1,-1), (1,-1), (1,1), (-1,1)
		var (
			rr, ss = r[0], r[1]
			N      = [4]float64{(1 - rr) * (1 - ss), (1 + rr) * (1 - ss), (1 + rr) * (1 + ss), (1 - rr) * (1 + ss)}
			dNr    = [4]float64{-(1 - ss), 1 - ss, 1 + ss, -(1 + ss)}
			dNs    = [4]float64{-(1 - rr), -(1 + rr), 1 + rr, 1 - rr}
		)
		x = make([]float64, 2)
		for v := 0; v < 4; v++ {
			for d := 0; d < 2; d++ {
				x[d] += 0.25 * N[v] * xv[v][d]
				J[d][0] += 0.25 * dNr[v] * xv[v][d]
				J[d][1] += 0.25 * dNs[v] * xv[v][d]
			}
		}
	}
	return
}

func (el *Elements) computeGeometry(xf []float64) (err error) {
	var (
		K, Nq, Nb, Dim = el.K, el.Nq, el.Nb, el.Dim
		dphi           = make([]float64, Nb*Dim)
	)
	el.X = make([]float64, K*Nq*Dim)
	el.WJ = make([]float64, K*Nq)
	el.GPhi = make([]float64, K*Nq*Nb*Dim)
	el.FaceX = make([]float64, K*el.NFaces*el.NqF*Dim)
	el.Normals = make([]float64, K*el.NFaces*el.NqF*Dim)
	el.Vol, el.H = make([]float64, K), make([]float64, K)
	for k := 0; k < K; k++ {
		for i := 0; i < Nq; i++ {
			r := el.Quad.Point(i)
			x, J := el.mapping(k, r)
			copy(el.X[(k*Nq+i)*Dim:], x)
			var detJ float64
			var Jinv [2][2]float64
			if Dim == 1 {
				detJ = J[0][0]
				Jinv[0][0] = 1 / detJ
			} else {
				detJ = J[0][0]*J[1][1] - J[0][1]*J[1][0]
				Jinv[0][0], Jinv[0][1] = J[1][1]/detJ, -J[0][1]/detJ
				Jinv[1][0], Jinv[1][1] = -J[1][0]/detJ, J[0][0]/detJ
			}
			if !(detJ > 0) {
				return fmt.Errorf("element %d has Jacobian %v: %w", k, detJ, types.ErrUnsupportedConfiguration)
			}
			el.WJ[k*Nq+i] = el.Quad.Weights[i] * detJ
			el.Vol[k] += el.WJ[k*Nq+i]
			el.Basis.Gradients(r, dphi)
			// grad_x phi = J^-T grad_r phi
			for a := 0; a < Nb; a++ {
				g := el.GPhi[((k*Nq+i)*Nb+a)*Dim : ((k*Nq+i)*Nb+a+1)*Dim]
				for d := 0; d < Dim; d++ {
					for j := 0; j < Dim; j++ {
						g[d] += Jinv[j][d] * dphi[a*Dim+j]
					}
				}
			}
		}
		for f := 0; f < el.NFaces; f++ {
			for i, s := range xf {
				ind := ((k*el.NFaces+f)*el.NqF + i) * Dim
				x, J := el.mapping(k, basis.FacePoint(el.Mesh.Shape, f, s))
				copy(el.FaceX[ind:], x)
				n := el.Normals[ind : ind+Dim]
				if Dim == 1 {
					n[0] = 2*float64(f) - 1
					continue
				}
				// Tangent dx/ds along the counterclockwise face, the outward normal is (ty, -tx)
				var tx, ty float64
				switch f {
				case 0:
					tx, ty = J[0][0], J[1][0]
				case 1:
					tx, ty = J[0][1], J[1][1]
				case 2:
					tx, ty = -J[0][0], -J[1][0]
				default:
					tx, ty = -J[0][1], -J[1][1]
				}
				n[0], n[1] = ty, -tx
			}
		}
		el.H[k] = el.elementSize(k)
		el.HMin = math.Min(el.HMin, el.H[k])
	}
	return
}

// elementSize is the length of a segment or the shortest edge of a quad
func (el *Elements) elementSize(k int) (h float64) {
	xv := el.Mesh.ElementVertices(k)
	if el.Dim == 1 {
		return math.Abs(xv[1][0] - xv[0][0])
	}
	h = math.MaxFloat64
	for f := 0; f < el.NFaces; f++ {
		v := el.Mesh.FaceVertices(f)
		h = math.Min(h, floats.Distance(xv[v[0]], xv[v[1]], 2))
	}
	return
}

func (el *Elements) computeMassInverse() (err error) {
	var (
		K, Nq, Nb = el.K, el.Nq, el.Nb
	)
	el.MInv = make([]*mat.Dense, K)
	el.ConstCoeffs = make([]float64, K*Nb)
	for k := 0; k < K; k++ {
		M := mat.NewDense(Nb, Nb, nil)
		b := mat.NewVecDense(Nb, nil)
		for i := 0; i < Nq; i++ {
			var (
				wj  = el.WJ[k*Nq+i]
				phi = el.Phi[i*Nb : (i+1)*Nb]
			)
			for a := 0; a < Nb; a++ {
				b.SetVec(a, b.AtVec(a)+wj*phi[a])
				for c := 0; c < Nb; c++ {
					M.Set(a, c, M.At(a, c)+wj*phi[a]*phi[c])
				}
			}
		}
		el.MInv[k] = mat.NewDense(Nb, Nb, nil)
		if err = el.MInv[k].Inverse(M); err != nil {
			return fmt.Errorf("mass matrix of element %d: %w", k, err)
		}
		c := mat.NewVecDense(Nb, el.ConstCoeffs[k*Nb:(k+1)*Nb])
		c.MulVec(el.MInv[k], b)
	}
	return
}

// ApplyInverseMass computes dU = dt M^-1 R, dU may alias R
func (el *Elements) ApplyInverseMass(dt float64, R, dU *types.Tensor) (err error) {
	return el.ApplyInverseMassRange(dt, R, dU, 0, el.K)
}

// ApplyInverseMassRange applies the inverse mass to elements [kMin, kMax)
func (el *Elements) ApplyInverseMassRange(dt float64, R, dU *types.Tensor, kMin, kMax int) (err error) {
	if err = R.CheckShape(dU); err != nil {
		return
	}
	var (
		Nb, Ns = el.Nb, R.Ns
		tmp    = mat.NewDense(Nb, Ns, nil)
	)
	for k := kMin; k < kMax; k++ {
		Rk := mat.NewDense(Nb, Ns, R.Elem(k))
		tmp.Mul(el.MInv[k], Rk)
		tmp.Scale(dt, tmp)
		mat.NewDense(Nb, Ns, dU.Elem(k)).Copy(tmp)
	}
	return
}

// MulInverseMass overwrites the element coefficients v[Nb][Ns] with MInv v
func MulInverseMass(MInv *mat.Dense, Ns int, v []float64) {
	var (
		Nb, _ = MInv.Dims()
		V     = mat.NewDense(Nb, Ns, v)
		tmp   mat.Dense
	)
	tmp.Mul(MInv, V)
	V.Copy(&tmp)
}

// EvalVolume interpolates element coefficients Uk[Nb][Ns] to quadrature points, Uq[Nq][Ns]
func (el *Elements) EvalVolume(Uk []float64, Ns int, Uq []float64) {
	interpolate(el.Phi, el.Nq, el.Nb, Ns, Uk, Uq)
}

// EvalFace interpolates element coefficients to the quadrature points of local face f, Uf[NqF][Ns]
func (el *Elements) EvalFace(Uk []float64, Ns, f int, Uf []float64) {
	phi := el.FacePhi[f*el.NqF*el.Nb : (f+1)*el.NqF*el.Nb]
	interpolate(phi, el.NqF, el.Nb, Ns, Uk, Uf)
}

func interpolate(phi []float64, Nq, Nb, Ns int, Uk, Uq []float64) {
	for i := 0; i < Nq; i++ {
		u := Uq[i*Ns : (i+1)*Ns]
		for s := range u {
			u[s] = 0
		}
		for a := 0; a < Nb; a++ {
			floats.AddScaled(u, phi[i*Nb+a], Uk[a*Ns:(a+1)*Ns])
		}
	}
}

// NeighborPoint maps face quadrature point i onto the neighbor's face, which runs in the opposite direction
func (el *Elements) NeighborPoint(i int) int { return el.NqF - 1 - i }

// QuadX returns the physical location of volume quadrature point i of element k
func (el *Elements) QuadX(k, i int) []float64 {
	return el.X[(k*el.Nq+i)*el.Dim : (k*el.Nq+i+1)*el.Dim]
}

func (el *Elements) FaceQuadX(k, f, i int) []float64 {
	ind := ((k*el.NFaces+f)*el.NqF + i) * el.Dim
	return el.FaceX[ind : ind+el.Dim]
}

func (el *Elements) Normal(k, f, i int) []float64 {
	ind := ((k*el.NFaces+f)*el.NqF + i) * el.Dim
	return el.Normals[ind : ind+el.Dim]
}

// GradPhi returns the physical gradient of basis a at volume quadrature point i of element k
func (el *Elements) GradPhi(k, i, a int) []float64 {
	ind := ((k*el.Nq+i)*el.Nb + a) * el.Dim
	return el.GPhi[ind : ind+el.Dim]
}

// Mean computes the element average of each state variable from the coefficients Uk
func (el *Elements) Mean(k int, Uk []float64, Ns int, mean []float64) {
	Nb := el.Nb
	for s := range mean {
		mean[s] = 0
	}
	for i := 0; i < el.Nq; i++ {
		wj := el.WJ[k*el.Nq+i]
		for a := 0; a < Nb; a++ {
			floats.AddScaled(mean, wj*el.Phi[i*Nb+a], Uk[a*Ns:(a+1)*Ns])
		}
	}
	floats.Scale(1/el.Vol[k], mean)
}

// Project computes the L2 projection of f onto each element
func (el *Elements) Project(Ns int, f func(k int, x []float64, u []float64) error, U *types.Tensor) (err error) {
	var (
		Nb, Nq = el.Nb, el.Nq
		u      = make([]float64, Ns)
		rhs    = mat.NewDense(Nb, Ns, nil)
	)
	if U.K != el.K || U.Nb != Nb || U.Ns != Ns {
		return types.Unsupported("projection onto a %dx%dx%d tensor", U.K, U.Nb, U.Ns)
	}
	for k := 0; k < el.K; k++ {
		rhs.Zero()
		for i := 0; i < Nq; i++ {
			if err = f(k, el.QuadX(k, i), u); err != nil {
				return
			}
			wj := el.WJ[k*Nq+i]
			for a := 0; a < Nb; a++ {
				floats.AddScaled(rhs.RawRowView(a), wj*el.Phi[i*Nb+a], u)
			}
		}
		mat.NewDense(Nb, Ns, U.Elem(k)).Mul(el.MInv[k], rhs)
	}
	return
}
