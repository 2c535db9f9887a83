package basis

import (
	"math"

	"github.com/notargets/dgflow/DG1D"
	"github.com/notargets/dgflow/types"
)

type QuadratureType uint8

const (
	GaussLegendre QuadratureType = iota
	GaussLobatto
)

var QuadratureNames = map[string]QuadratureType{
	"GaussLegendre": GaussLegendre,
	"GaussLobatto":  GaussLobatto,
}

func NewQuadratureType(label string) (qt QuadratureType, err error) {
	var ok bool
	if qt, ok = QuadratureNames[label]; !ok {
		err = types.Unsupported("quadrature %q", label)
	}
	return
}

// Rule holds quadrature points (point major, dim coordinates each) and weights on a reference shape
type Rule struct {
	Dim     int
	Points  []float64
	Weights []float64
}

func (q *Rule) NumPoints() int { return len(q.Weights) }

func (q *Rule) Point(i int) []float64 { return q.Points[i*q.Dim : (i+1)*q.Dim] }

// QuadratureOrder is the polynomial order integrated exactly for basis order p on a mapping of order gorder
func QuadratureOrder(p, gorder, dim int) int {
	return 2*p + 1 + dim*(gorder-1)
}

// Rule1D returns a 1D rule on [-1,1] exact through the requested order
func Rule1D(qt QuadratureType, order int) (X, W []float64) {
	if order < 0 {
		order = 0
	}
	switch qt {
	case GaussLobatto:
		// n points are exact through 2n-3
		n := int(math.Ceil(float64(order+3) / 2))
		if n < 2 {
			n = 2
		}
		X = DG1D.JacobiGL(0, 0, n-1)
		W = DG1D.GaussLobattoWeights(X)
	default:
		// n points are exact through 2n-1
		n := int(math.Ceil(float64(order+1) / 2))
		if n < 1 {
			n = 1
		}
		X, W = DG1D.JacobiGQ(0, 0, n-1)
	}
	return
}

// NewRule builds the volume rule for a shape, tensor product for quads
func NewRule(qt QuadratureType, shape Shape, order int) (q *Rule) {
	X, W := Rule1D(qt, order)
	switch shape {
	case Quadrilateral:
		n := len(X)
		q = &Rule{Dim: 2, Points: make([]float64, 2*n*n), Weights: make([]float64, n*n)}
		for iy := 0; iy < n; iy++ {
			for ix := 0; ix < n; ix++ {
				i := iy*n + ix
				q.Points[2*i], q.Points[2*i+1] = X[ix], X[iy]
				q.Weights[i] = W[ix] * W[iy]
			}
		}
	default:
		q = &Rule{Dim: 1, Points: X, Weights: W}
	}
	return
}

// FaceRule is the rule on a face of the shape: a single point for segments, a 1D rule for quads
func FaceRule(qt QuadratureType, shape Shape, order int) (X, W []float64) {
	if shape == Segment {
		return []float64{0}, []float64{1}
	}
	return Rule1D(qt, order)
}

// FacePoint maps face coordinate s in [-1,1] onto the reference element boundary.
// Quad faces run counterclockwise: f0 bottom, f1 right, f2 top, f3 left.
func FacePoint(shape Shape, face int, s float64) (r []float64) {
	switch shape {
	case Quadrilateral:
		switch face {
		case 0:
			return []float64{s, -1}
		case 1:
			return []float64{1, s}
		case 2:
			return []float64{-s, 1}
		default:
			return []float64{-1, -s}
		}
	default:
		if face == 0 {
			return []float64{-1}
		}
		return []float64{1}
	}
}
