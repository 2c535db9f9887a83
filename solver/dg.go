package solver

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/dgflow/elements"
	"github.com/notargets/dgflow/flux"
	"github.com/notargets/dgflow/limiter"
	"github.com/notargets/dgflow/mesh"
	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/stepper"
	"github.com/notargets/dgflow/thermo"
	"github.com/notargets/dgflow/types"
	"github.com/notargets/dgflow/utils"
)

/*
DG assembles the weak form residual of a conservation law on a mesh of elements:
	R_a = sum_q wJ grad(phi_a) . F(U)  +  sum_q wJ phi_a S(U, x, t)  -  sum_faces sum_i w_i phi_a F_num
so that dU/dt = M^-1 R. Elements are split into contiguous partitions, each worked by one
goroutine with its own workspace. A face between two partitions is evaluated by both of them
and each writes only to the element it owns.
*/
type DG struct {
	Physics    physics.Physics
	Flux       flux.NumericalFlux
	El         *elements.Elements
	BCs        map[string]physics.BoundaryCondition
	Sources    []physics.SourceTerm
	Limiter    limiter.Limiter
	Partitions *utils.PartitionMap
	work       []*workspace
	faces      [][]mesh.InteriorFace // interior faces touching each partition
	bfaces     [][]boundaryFace      // boundary faces of the elements in each partition
	// ADER predictor
	pred    []*types.Tensor
	tau, tw []float64
	A       *mat.Dense
}

type boundaryFace struct {
	mesh.FaceRef
	BC physics.BoundaryCondition
}

type workspace struct {
	st     thermo.State
	fws    *flux.Workspace
	Uq     []float64 // [Nq][Ns]
	UL, UR []float64 // [NqF][Ns]
	F      []float64 // [Ns][Dim]
	S, Sq  []float64
	Fn, UB []float64
	nhat   []float64
	Jq     *mat.Dense
}

func newWorkspace(Nq, NqF, Ns, Dim int) *workspace {
	return &workspace{
		fws:  flux.NewWorkspace(Ns, Dim),
		Uq:   make([]float64, Nq*Ns),
		UL:   make([]float64, NqF*Ns),
		UR:   make([]float64, NqF*Ns),
		F:    make([]float64, Ns*Dim),
		S:    make([]float64, Ns),
		Sq:   make([]float64, Ns),
		Fn:   make([]float64, Ns),
		UB:   make([]float64, Ns),
		nhat: make([]float64, Dim),
		Jq:   mat.NewDense(Ns, Ns, nil),
	}
}

// NewDG checks that every boundary group of the mesh has a condition and shards the faces
func NewDG(p physics.Physics, nf flux.NumericalFlux, el *elements.Elements, bcs map[string]physics.BoundaryCondition,
	sources []physics.SourceTerm, lim limiter.Limiter, pm *utils.PartitionMap) (dg *DG, err error) {
	if p.Dim() != el.Dim {
		return nil, types.Unsupported("%s physics on a %d dimensional mesh", p.Name(), el.Dim)
	}
	if pm == nil {
		pm = utils.NewPartitionMap(utils.DefaultParallelDegree(el.K), el.K)
	}
	if pm.MaxIndex != el.K {
		return nil, types.Unsupported("partition map over %d elements for a mesh of %d", pm.MaxIndex, el.K)
	}
	dg = &DG{
		Physics:    p,
		Flux:       nf,
		El:         el,
		BCs:        bcs,
		Sources:    sources,
		Limiter:    lim,
		Partitions: pm,
		work:       make([]*workspace, pm.ParallelDegree),
		faces:      make([][]mesh.InteriorFace, pm.ParallelDegree),
		bfaces:     make([][]boundaryFace, pm.ParallelDegree),
	}
	Ns := p.NumStateVars()
	for bn := range dg.work {
		dg.work[bn] = newWorkspace(el.Nq, el.NqF, Ns, el.Dim)
	}
	for _, fc := range el.Mesh.InteriorFaces {
		bL, bR := pm.Owner(fc.L.Elem), pm.Owner(fc.R.Elem)
		dg.faces[bL] = append(dg.faces[bL], fc)
		if bR != bL {
			dg.faces[bR] = append(dg.faces[bR], fc)
		}
	}
	for name := range bcs {
		if _, ok := el.Mesh.BoundaryGroups[name]; !ok {
			return nil, types.Unsupported("boundary condition for unknown boundary group %q", name)
		}
	}
	for _, name := range el.Mesh.BoundaryNames() {
		bc, ok := bcs[name]
		if !ok {
			return nil, types.Unsupported("no boundary condition for boundary group %q", name)
		}
		for _, fr := range el.Mesh.BoundaryGroups[name] {
			bn := pm.Owner(fr.Elem)
			dg.bfaces[bn] = append(dg.bfaces[bn], boundaryFace{FaceRef: fr, BC: bc})
		}
	}
	return
}

func (dg *DG) Shape() (K, Nb, Ns int) { return dg.El.K, dg.El.Nb, dg.Physics.NumStateVars() }

func (dg *DG) NewTensor() *types.Tensor {
	K, Nb, Ns := dg.Shape()
	return types.NewTensor(K, Nb, Ns)
}

func (dg *DG) ApplyInverseMass(dt float64, R, dU *types.Tensor) error {
	return dg.Partitions.RunPartitions(context.Background(), func(ctx context.Context, bn, kMin, kMax int) error {
		return dg.El.ApplyInverseMassRange(dt, R, dU, kMin, kMax)
	})
}

func (dg *DG) ApplyLimiter(ctx context.Context, U *types.Tensor) error {
	if dg.Limiter == nil {
		return nil
	}
	return dg.Limiter.Limit(ctx, U)
}

// GetResidual assembles R(U) at sc.Time with the terms selected by sc
func (dg *DG) GetResidual(ctx context.Context, sc *types.StepContext, U, R *types.Tensor) (err error) {
	if err = U.CheckShape(R); err != nil {
		return
	}
	err = dg.Partitions.RunPartitions(ctx, func(ctx context.Context, bn, kMin, kMax int) (err error) {
		ws := dg.work[bn]
		for k := kMin; k < kMax; k++ {
			Rk := R.Elem(k)
			for i := range Rk {
				Rk[i] = 0
			}
			if err = dg.volume(ws, sc.ConvFlux, sc.Source, sc.Time, k, U.Elem(k), Rk); err != nil {
				return
			}
		}
		if sc.ConvFlux {
			if err = ctx.Err(); err != nil {
				return
			}
			if err = dg.interiorFaces(ws, bn, kMin, kMax, U, R); err != nil {
				return
			}
			if err = dg.boundaryFaces(ws, bn, sc.Time, U, R); err != nil {
				return
			}
		}
		if sc.Balance != nil {
			for k := kMin; k < kMax; k++ {
				floats.Add(R.Elem(k), sc.Balance.Elem(k))
			}
		}
		return
	})
	return
}

// volume adds the volume flux and source terms of element k into Rk
func (dg *DG) volume(ws *workspace, conv, src bool, t float64, k int, Uk, Rk []float64) (err error) {
	var (
		el          = dg.El
		p           = dg.Physics
		Nb, Nq, Dim = el.Nb, el.Nq, el.Dim
		Ns          = len(ws.S)
	)
	if !conv && (!src || len(dg.Sources) == 0) {
		return
	}
	el.EvalVolume(Uk, Ns, ws.Uq)
	for q := 0; q < Nq; q++ {
		var (
			u  = ws.Uq[q*Ns : (q+1)*Ns]
			wj = el.WJ[k*Nq+q]
		)
		if conv {
			if err = p.ConvFluxInterior(&ws.st, u, ws.F); err != nil {
				return
			}
			for a := 0; a < Nb; a++ {
				g := el.GradPhi(k, q, a)
				for s := 0; s < Ns; s++ {
					var v float64
					for d := 0; d < Dim; d++ {
						v += g[d] * ws.F[s*Dim+d]
					}
					Rk[a*Ns+s] += wj * v
				}
			}
		}
		if src && len(dg.Sources) > 0 {
			if err = dg.source(ws, t, u, el.QuadX(k, q)); err != nil {
				return
			}
			phi := el.Phi[q*Nb : (q+1)*Nb]
			for a := 0; a < Nb; a++ {
				floats.AddScaled(Rk[a*Ns:(a+1)*Ns], wj*phi[a], ws.S)
			}
		}
	}
	return
}

// source sums all source terms at a point into ws.S
func (dg *DG) source(ws *workspace, t float64, u, x []float64) (err error) {
	for s := range ws.S {
		ws.S[s] = 0
	}
	for _, src := range dg.Sources {
		if err = src.GetSource(dg.Physics, &ws.st, u, x, t, ws.Sq); err != nil {
			return
		}
		floats.Add(ws.S, ws.Sq)
	}
	return
}

// addFace adds scale * w_i phi_a(face point i) Fn into the coefficients Rk
func (dg *DG) addFace(Rk []float64, f, i int, scale float64, Fn []float64) {
	var (
		el  = dg.El
		Nb  = el.Nb
		Ns  = len(Fn)
		phi = el.FacePhi[(f*el.NqF+i)*Nb : (f*el.NqF+i+1)*Nb]
	)
	for a := 0; a < Nb; a++ {
		floats.AddScaled(Rk[a*Ns:(a+1)*Ns], scale*el.FaceW[i]*phi[a], Fn)
	}
}

func (dg *DG) interiorFaces(ws *workspace, bn, kMin, kMax int, U, R *types.Tensor) (err error) {
	var (
		el = dg.El
		Ns = U.Ns
	)
	for _, fc := range dg.faces[bn] {
		var (
			kL, fL = fc.L.Elem, fc.L.Face
			kR, fR = fc.R.Elem, fc.R.Face
			ownL   = kL >= kMin && kL < kMax
			ownR   = kR >= kMin && kR < kMax
		)
		el.EvalFace(U.Elem(kL), Ns, fL, ws.UL)
		el.EvalFace(U.Elem(kR), Ns, fR, ws.UR)
		for i := 0; i < el.NqF; i++ {
			j := el.NeighborPoint(i)
			if err = dg.Flux.ComputeFlux(dg.Physics, ws.UL[i*Ns:(i+1)*Ns], ws.UR[j*Ns:(j+1)*Ns],
				el.Normal(kL, fL, i), ws.Fn, ws.fws); err != nil {
				return
			}
			if ownL {
				dg.addFace(R.Elem(kL), fL, i, -1, ws.Fn)
			}
			if ownR {
				dg.addFace(R.Elem(kR), fR, j, 1, ws.Fn)
			}
		}
	}
	return
}

func (dg *DG) boundaryFaces(ws *workspace, bn int, t float64, U, R *types.Tensor) (err error) {
	var (
		el = dg.El
		p  = dg.Physics
		Ns = U.Ns
	)
	for _, bf := range dg.bfaces[bn] {
		k, f := bf.Elem, bf.Face
		el.EvalFace(U.Elem(k), Ns, f, ws.UL)
		for i := 0; i < el.NqF; i++ {
			var (
				uI = ws.UL[i*Ns : (i+1)*Ns]
				n  = el.Normal(k, f, i)
			)
			if err = bf.BC.GetBoundaryState(p, &ws.st, uI, n, el.FaceQuadX(k, f, i), t, ws.UB); err != nil {
				return
			}
			switch bf.BC.Kind() {
			case types.BCWeakRiemann:
				err = dg.Flux.ComputeFlux(p, uI, ws.UB, n, ws.Fn, ws.fws)
			default:
				err = dg.projectedFlux(ws, ws.UB, n)
			}
			if err != nil {
				return
			}
			dg.addFace(R.Elem(k), f, i, -1, ws.Fn)
		}
	}
	return
}

// projectedFlux fills ws.Fn with the analytic flux of U through the scaled normal n
func (dg *DG) projectedFlux(ws *workspace, U, n []float64) (err error) {
	nmag := floats.Norm(n, 2)
	floats.ScaleTo(ws.nhat, 1/nmag, n)
	if err = dg.Physics.ConvFluxProjected(&ws.st, U, ws.nhat, ws.Fn); err != nil {
		return
	}
	floats.Scale(nmag, ws.Fn)
	return
}

// MaxWaveSpeed is the largest |u.n| + c over all face quadrature points
func (dg *DG) MaxWaveSpeed(ctx context.Context, U *types.Tensor) (smax float64, err error) {
	var (
		el    = dg.El
		Ns    = U.Ns
		local = make([]float64, dg.Partitions.ParallelDegree)
	)
	err = dg.Partitions.RunPartitions(ctx, func(ctx context.Context, bn, kMin, kMax int) (err error) {
		ws := dg.work[bn]
		for k := kMin; k < kMax; k++ {
			for f := 0; f < el.NFaces; f++ {
				el.EvalFace(U.Elem(k), Ns, f, ws.UL)
				for i := 0; i < el.NqF; i++ {
					n := el.Normal(k, f, i)
					floats.ScaleTo(ws.nhat, 1/floats.Norm(n, 2), n)
					var s float64
					if s, err = dg.Physics.MaxWaveSpeed(&ws.st, ws.UL[i*Ns:(i+1)*Ns], ws.nhat); err != nil {
						return
					}
					local[bn] = math.Max(local[bn], s)
				}
			}
		}
		return
	})
	if err != nil {
		return
	}
	return floats.Max(local), nil
}

// TimeStep is the CFL limited step CFL h_min / (max wave speed (2p+1))
func (dg *DG) TimeStep(ctx context.Context, U *types.Tensor, CFL float64) (dt float64, err error) {
	var smax float64
	if smax, err = dg.MaxWaveSpeed(ctx, U); err != nil {
		return
	}
	if !(smax > 0) {
		return 0, types.NotPhysical("max wave speed", smax).At("TimeStep")
	}
	return CFL * dg.El.HMin / smax / float64(2*dg.El.Basis.Order()+1), nil
}

// Project sets U to the L2 projection of fn at time t
func (dg *DG) Project(fn physics.StateFunction, t float64, U *types.Tensor) error {
	return dg.El.Project(U.Ns, func(k int, x, u []float64) error {
		return fn.GetState(dg.Physics, x, t, u)
	}, U)
}

// L2Error is the L2 norm of the difference between state variable s of U and of the exact solution
func (dg *DG) L2Error(ctx context.Context, exact physics.StateFunction, t float64, U *types.Tensor, s int) (l2 float64, err error) {
	var (
		el    = dg.El
		Ns    = U.Ns
		local = make([]float64, dg.Partitions.ParallelDegree)
	)
	if s < 0 || s >= Ns {
		return 0, types.Unsupported("state index %d of %d", s, Ns)
	}
	err = dg.Partitions.RunPartitions(ctx, func(ctx context.Context, bn, kMin, kMax int) (err error) {
		var (
			ws = dg.work[bn]
			ue = make([]float64, Ns)
		)
		for k := kMin; k < kMax; k++ {
			el.EvalVolume(U.Elem(k), Ns, ws.Uq)
			for q := 0; q < el.Nq; q++ {
				if err = exact.GetState(dg.Physics, el.QuadX(k, q), t, ue); err != nil {
					return
				}
				d := ws.Uq[q*Ns+s] - ue[s]
				local[bn] += el.WJ[k*el.Nq+q] * d * d
			}
		}
		return
	})
	if err != nil {
		return
	}
	return math.Sqrt(floats.Sum(local)), nil
}

// RunElements hands each partition an evaluator of the element local source terms
func (dg *DG) RunElements(ctx context.Context, fn func(ctx context.Context, kMin, kMax int, es stepper.ElementSource) error) error {
	return dg.Partitions.RunPartitions(ctx, func(ctx context.Context, bn, kMin, kMax int) error {
		return fn(ctx, kMin, kMax, &elementSource{dg: dg, ws: dg.work[bn]})
	})
}

type elementSource struct {
	dg *DG
	ws *workspace
}

func (es *elementSource) InverseMass(k int) *mat.Dense { return es.dg.El.MInv[k] }

func (es *elementSource) Source(k int, t float64, Uk, Rk []float64, J *mat.Dense) (err error) {
	var (
		dg     = es.dg
		ws     = es.ws
		el     = dg.El
		Nb, Nq = el.Nb, el.Nq
		Ns     = len(ws.S)
	)
	for i := range Rk {
		Rk[i] = 0
	}
	if err = dg.volume(ws, false, true, t, k, Uk, Rk); err != nil || J == nil || len(dg.Sources) == 0 {
		return
	}
	// dR_(a,i),(b,j) = sum_q wJ phi_a phi_b dS_i/dU_j
	el.EvalVolume(Uk, Ns, ws.Uq)
	for q := 0; q < Nq; q++ {
		var (
			u   = ws.Uq[q*Ns : (q+1)*Ns]
			x   = el.QuadX(k, q)
			wj  = el.WJ[k*Nq+q]
			phi = el.Phi[q*Nb : (q+1)*Nb]
		)
		ws.Jq.Zero()
		for _, src := range dg.Sources {
			if err = src.GetJacobian(dg.Physics, &ws.st, u, x, t, ws.Jq); err != nil {
				return
			}
		}
		for a := 0; a < Nb; a++ {
			for b := 0; b < Nb; b++ {
				w := wj * phi[a] * phi[b]
				for i := 0; i < Ns; i++ {
					for j := 0; j < Ns; j++ {
						row, col := a*Ns+i, b*Ns+j
						J.Set(row, col, J.At(row, col)+w*ws.Jq.At(i, j))
					}
				}
			}
		}
	}
	return
}
