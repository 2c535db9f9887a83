package stepper

import (
	"context"

	"github.com/notargets/dgflow/types"
)

// Butcher is an explicit Runge-Kutta scheme stored with all of its stages
type Butcher struct {
	Label string
	C     []float64
	A     [][]float64 // strictly lower triangular, row i has i entries
	B     []float64
	k     []*types.Tensor
	R, U0 *types.Tensor
}

func ForwardEuler() *Butcher {
	return &Butcher{
		Label: "FE",
		C:     []float64{0},
		A:     [][]float64{{}},
		B:     []float64{1},
	}
}

func RK4() *Butcher {
	return &Butcher{
		Label: "RK4",
		C:     []float64{0, 0.5, 0.5, 1},
		A:     [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		B:     []float64{1. / 6., 1. / 3., 1. / 3., 1. / 6.},
	}
}

func (bt *Butcher) Name() string { return bt.Label }

func (bt *Butcher) Init(sys System) error {
	if len(bt.k) != len(bt.B) {
		bt.k = make([]*types.Tensor, len(bt.B))
	}
	for i := range bt.k {
		bt.k[i] = scratch(bt.k[i], sys)
	}
	bt.R, bt.U0 = scratch(bt.R, sys), scratch(bt.U0, sys)
	return nil
}

func (bt *Butcher) TakeTimeStep(ctx context.Context, sys System, sc *types.StepContext, dt float64,
	U *types.Tensor) (R *types.Tensor, err error) {
	if err = bt.Init(sys); err != nil {
		return
	}
	var (
		t0 = sc.Time
		U0 = bt.U0.CopyFrom(U)
	)
	for i := range bt.B {
		if i > 0 {
			U.CopyFrom(U0)
			for j, a := range bt.A[i] {
				if a != 0 {
					U.AXPY(a, bt.k[j])
				}
			}
			if err = sys.ApplyLimiter(ctx, U); err != nil {
				return
			}
		}
		sc.Time = t0 + bt.C[i]*dt
		if err = sys.GetResidual(ctx, sc, U, bt.R); err != nil {
			return
		}
		if err = sys.ApplyInverseMass(dt, bt.R, bt.k[i]); err != nil {
			return
		}
	}
	U.CopyFrom(U0)
	for i, b := range bt.B {
		U.AXPY(b, bt.k[i])
	}
	sc.Time = t0 + dt
	if err = sys.ApplyLimiter(ctx, U); err != nil {
		return
	}
	return bt.R, nil
}

/*
LowStorage is a 2N storage Runge-Kutta scheme:
	dU = A[i] dU + dt M^-1 R(U, t + C[i] dt)
	U  = U + B[i] dU
The stage times follow from the tables: with d[i] = A[i] d[i-1] + 1, C[i+1] = C[i] + B[i] d[i].
*/
type LowStorage struct {
	Label   string
	A, B, C []float64
	R, dU   *types.Tensor
	tmp     *types.Tensor
}

func NewLowStorage(label string, A, B []float64) (ls *LowStorage) {
	ls = &LowStorage{Label: label, A: A, B: B, C: make([]float64, len(B))}
	var c, d float64
	for i := range B {
		ls.C[i] = c
		d = A[i]*d + 1
		c += B[i] * d
	}
	return
}

// LSRK4 is the five stage fourth order scheme of Carpenter and Kennedy
func LSRK4() *LowStorage {
	return NewLowStorage("LSRK4",
		[]float64{
			0,
			-567301805773. / 1357537059087.,
			-2404267990393. / 2016746695238.,
			-3550918686646. / 2091501179385.,
			-1275806237668. / 842570457699.,
		},
		[]float64{
			1432997174477. / 9575080441755.,
			5161836677717. / 13612068292357.,
			1720146321549. / 2090206949498.,
			3134564353537. / 4481467310338.,
			2277821191437. / 14882151754819.,
		})
}

// SSPRK3 is the five stage strong stability preserving scheme of Spiteri and Ruuth in 2N form
func SSPRK3() *LowStorage {
	return NewLowStorage("SSPRK3",
		[]float64{0, -2.60810978953486, -0.08977353434746, -0.60081019321053, -0.72939715170280},
		[]float64{0.67892607116139, 0.20654657933371, 0.27959340290485, 0.31738259840613, 0.30319904778284})
}

func (ls *LowStorage) Name() string { return ls.Label }

func (ls *LowStorage) Init(sys System) error {
	ls.R, ls.dU, ls.tmp = scratch(ls.R, sys), scratch(ls.dU, sys), scratch(ls.tmp, sys)
	return nil
}

func (ls *LowStorage) TakeTimeStep(ctx context.Context, sys System, sc *types.StepContext, dt float64,
	U *types.Tensor) (R *types.Tensor, err error) {
	if err = ls.Init(sys); err != nil {
		return
	}
	t0 := sc.Time
	ls.dU.Zero()
	for i := range ls.B {
		sc.Time = t0 + ls.C[i]*dt
		if err = sys.GetResidual(ctx, sc, U, ls.R); err != nil {
			return
		}
		if err = sys.ApplyInverseMass(dt, ls.R, ls.tmp); err != nil {
			return
		}
		ls.dU.Scale(ls.A[i]).AXPY(1, ls.tmp)
		U.AXPY(ls.B[i], ls.dU)
		if err = sys.ApplyLimiter(ctx, U); err != nil {
			return
		}
	}
	sc.Time = t0 + dt
	return ls.R, nil
}
