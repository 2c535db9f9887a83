package basis

import (
	"github.com/notargets/dgflow/types"
)

type Shape uint8

const (
	Segment Shape = iota
	Quadrilateral
)

func (s Shape) String() string {
	switch s {
	case Segment:
		return "Segment"
	case Quadrilateral:
		return "Quadrilateral"
	}
	return "Unknown"
}

func (s Shape) Dim() int {
	if s == Quadrilateral {
		return 2
	}
	return 1
}

func (s Shape) NumFaces() int {
	if s == Quadrilateral {
		return 4
	}
	return 2
}

// Basis evaluates polynomial basis functions on a reference element ([-1,1]^dim)
type Basis interface {
	Name() string
	Shape() Shape
	Order() int
	NumBasis() int
	// Values fills phi[NumBasis] at reference point r
	Values(r []float64, phi []float64)
	// Gradients fills dphi[NumBasis*dim], basis major, at reference point r
	Gradients(r []float64, dphi []float64)
}

type BasisType uint8

const (
	LegendreSegType BasisType = iota
	LagrangeSegType
	LegendreQuadType
	LagrangeQuadType
)

var BasisNames = map[string]BasisType{
	"LegendreSeg":  LegendreSegType,
	"LagrangeSeg":  LagrangeSegType,
	"LegendreQuad": LegendreQuadType,
	"LagrangeQuad": LagrangeQuadType,
}

func New(label string, order int) (b Basis, err error) {
	bt, ok := BasisNames[label]
	if !ok {
		return nil, types.Unsupported("basis %q", label)
	}
	if order < 0 {
		return nil, types.Unsupported("basis order %d", order)
	}
	switch bt {
	case LegendreSegType:
		b = NewLegendreSeg(order)
	case LagrangeSegType:
		b = NewLagrangeSeg(order)
	case LegendreQuadType:
		b = NewTensorQuad(NewLegendreSeg(order))
	case LagrangeQuadType:
		b = NewTensorQuad(NewLagrangeSeg(order))
	}
	return
}

// ForShape picks the basis family of label (Legendre or Lagrange) on the given shape
func ForShape(family string, shape Shape, order int) (Basis, error) {
	switch shape {
	case Quadrilateral:
		return New(family+"Quad", order)
	default:
		return New(family+"Seg", order)
	}
}
