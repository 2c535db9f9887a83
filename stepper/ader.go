package stepper

import (
	"context"

	"github.com/notargets/dgflow/types"
)

// ADER corrects U with the time integral of the residual of the space-time predictor:
//	U = U + dt M^-1 sum_j w_j R(q_j, t + tau_j dt)
type ADER struct {
	R, Rsum *types.Tensor
}

func (ad *ADER) Name() string { return "ADER" }

func (ad *ADER) Init(sys System) error {
	if _, ok := sys.(Predictor); !ok {
		return types.Unsupported("ADER time stepping on a system without a space-time predictor")
	}
	ad.R, ad.Rsum = scratch(ad.R, sys), scratch(ad.Rsum, sys)
	return nil
}

func (ad *ADER) TakeTimeStep(ctx context.Context, sys System, sc *types.StepContext, dt float64,
	U *types.Tensor) (R *types.Tensor, err error) {
	if err = ad.Init(sys); err != nil {
		return
	}
	var (
		t0 = sc.Time
		Q  []*types.Tensor
		W  []float64
	)
	if Q, W, err = sys.(Predictor).Predict(ctx, sc, dt, U); err != nil {
		return
	}
	taus, _ := TimeNodes(len(W))
	ad.Rsum.Zero()
	for j, q := range Q {
		sc.Time = t0 + taus[j]*dt
		if err = sys.GetResidual(ctx, sc, q, ad.R); err != nil {
			return
		}
		ad.Rsum.AXPY(W[j], ad.R)
	}
	if err = sys.ApplyInverseMass(dt, ad.Rsum, ad.R); err != nil {
		return
	}
	U.AXPY(1, ad.R)
	sc.Time = t0 + dt
	if err = sys.ApplyLimiter(ctx, U); err != nil {
		return
	}
	return ad.Rsum, nil
}
