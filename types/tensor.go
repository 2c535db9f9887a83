package types

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Tensor stores per-element coefficients in (element, basis, state) row-major order.
// U, R and dU all share this layout, and the shape is fixed at construction.
type Tensor struct {
	K, Nb, Ns int
	Data      []float64
}

func NewTensor(K, Nb, Ns int) *Tensor {
	return &Tensor{K: K, Nb: Nb, Ns: Ns, Data: make([]float64, K*Nb*Ns)}
}

func (t *Tensor) NewLike() *Tensor { return NewTensor(t.K, t.Nb, t.Ns) }

func (t *Tensor) Copy() *Tensor {
	c := t.NewLike()
	copy(c.Data, t.Data)
	return c
}

// Elem returns the Nb*Ns slice owned by element k. Writes go through to the tensor.
func (t *Tensor) Elem(k int) []float64 {
	n := t.Nb * t.Ns
	return t.Data[k*n : (k+1)*n : (k+1)*n]
}

func (t *Tensor) At(k, b, s int) float64 { return t.Data[(k*t.Nb+b)*t.Ns+s] }

func (t *Tensor) Set(k, b, s int, val float64) { t.Data[(k*t.Nb+b)*t.Ns+s] = val }

func (t *Tensor) SameShape(o *Tensor) bool {
	return t.K == o.K && t.Nb == o.Nb && t.Ns == o.Ns
}

func (t *Tensor) CheckShape(o *Tensor) error {
	if !t.SameShape(o) {
		return fmt.Errorf("tensor shape mismatch: [%d,%d,%d] vs [%d,%d,%d]",
			t.K, t.Nb, t.Ns, o.K, o.Nb, o.Ns)
	}
	return nil
}

// Changes receiver
func (t *Tensor) Zero() *Tensor {
	for i := range t.Data {
		t.Data[i] = 0
	}
	return t
}

// Changes receiver
func (t *Tensor) CopyFrom(o *Tensor) *Tensor {
	copy(t.Data, o.Data)
	return t
}

// AXPY computes t += alpha*x. Changes receiver
func (t *Tensor) AXPY(alpha float64, x *Tensor) *Tensor {
	floats.AddScaled(t.Data, alpha, x.Data)
	return t
}

// Changes receiver
func (t *Tensor) Scale(alpha float64) *Tensor {
	floats.Scale(alpha, t.Data)
	return t
}

func (t *Tensor) MaxAbs() float64 {
	if len(t.Data) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(t.Data)), math.Abs(floats.Min(t.Data)))
}

// MaxAbsState returns the largest magnitude of state variable s over all elements and modes.
func (t *Tensor) MaxAbsState(s int) (m float64) {
	for i := s; i < len(t.Data); i += t.Ns {
		if a := math.Abs(t.Data[i]); a > m {
			m = a
		}
	}
	return
}

func (t *Tensor) Norm2() float64 { return floats.Norm(t.Data, 2) }

func (t *Tensor) HasNaN() bool { return floats.HasNaN(t.Data) }
