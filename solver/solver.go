package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notargets/dgflow/physics"
	"github.com/notargets/dgflow/restart"
	"github.com/notargets/dgflow/stepper"
	"github.com/notargets/dgflow/types"
)

// Config selects the time step policy and output cadence. The step is fixed by NumTimeSteps,
// else by TimeStepSize, else computed from the CFL number every step.
type Config struct {
	InitialTime, FinalTime float64
	CFL                    float64
	TimeStepSize           float64
	NumTimeSteps           int
	LogInterval            int // steps between progress lines, 0 logs only the first and last
	WriteInterval          int // steps between restart saves, 0 saves only at the end
}

type Solver struct {
	Config
	DG      *DG
	Stepper stepper.Stepper
	U       *types.Tensor
	Time    float64
	Step    int
	RunID   string
	Store   restart.Store // optional
	Metrics *Metrics
	// Registry holds Metrics, for serving over HTTP
	Registry *prometheus.Registry
	sc       *types.StepContext
	R        *types.Tensor // residual of the latest step
}

func NewSolver(dg *DG, st stepper.Stepper, cfg Config) (s *Solver, err error) {
	switch {
	case !(cfg.FinalTime > cfg.InitialTime):
		return nil, types.Unsupported("final time %v before initial time %v", cfg.FinalTime, cfg.InitialTime)
	case cfg.NumTimeSteps <= 0 && !(cfg.TimeStepSize > 0) && !(cfg.CFL > 0):
		return nil, types.Unsupported("no time step policy, one of NumTimeSteps, TimeStepSize or CFL is needed")
	}
	if err = st.Init(dg); err != nil {
		return
	}
	reg := prometheus.NewRegistry()
	s = &Solver{
		Config:   cfg,
		DG:       dg,
		Stepper:  st,
		U:        dg.NewTensor(),
		Time:     cfg.InitialTime,
		RunID:    restart.NewRunID(),
		Metrics:  NewMetrics(reg),
		Registry: reg,
		sc:       types.NewStepContext(cfg.InitialTime),
	}
	return
}

// Initialize projects the initial condition onto U and applies the limiter to it
func (s *Solver) Initialize(ctx context.Context, ic physics.StateFunction) error {
	if err := s.DG.Project(ic, s.Time, s.U); err != nil {
		return fmt.Errorf("initial condition: %w", err)
	}
	return s.DG.ApplyLimiter(ctx, s.U)
}

func (s *Solver) finished() bool {
	return s.FinalTime-s.Time <= 1.e-12*math.Max(1, math.Abs(s.FinalTime))
}

func (s *Solver) timeStep(ctx context.Context) (dt float64, err error) {
	switch {
	case s.NumTimeSteps > 0:
		dt = (s.FinalTime - s.InitialTime) / float64(s.NumTimeSteps)
	case s.TimeStepSize > 0:
		dt = s.TimeStepSize
	default:
		if dt, err = s.DG.TimeStep(ctx, s.U, s.CFL); err != nil {
			return
		}
	}
	if s.Time+dt > s.FinalTime {
		dt = s.FinalTime - s.Time
	}
	return
}

// Solve advances U to the final time. A failed step ends the run with a *types.StepError.
func (s *Solver) Solve(ctx context.Context) (err error) {
	var (
		elapsed time.Duration
		dt      float64
		steps   int
	)
	s.printInitialization()
	for !s.finished() {
		if err = ctx.Err(); err != nil {
			return
		}
		if dt, err = s.timeStep(ctx); err != nil {
			return s.stepError(err)
		}
		s.sc.Reset()
		s.sc.Time = s.Time
		start := time.Now()
		s.R, err = s.Stepper.TakeTimeStep(ctx, s.DG, s.sc, dt, s.U)
		took := time.Since(start)
		if err == nil && s.U.HasNaN() {
			err = types.NotPhysical("solution", math.NaN()).At(s.Stepper.Name())
		}
		if err != nil {
			return s.stepError(err)
		}
		elapsed += took
		s.Step++
		steps++
		s.Time = s.sc.Time
		s.Metrics.StepDuration.Observe(took.Seconds())
		s.Metrics.Steps.Inc()
		s.Metrics.ResidualMax.Set(s.R.MaxAbs())
		if steps == 1 || s.finished() || (s.LogInterval > 0 && s.Step%s.LogInterval == 0) {
			s.printUpdate(dt)
		}
		if s.WriteInterval > 0 && s.Step%s.WriteInterval == 0 {
			if err = s.Save(ctx); err != nil {
				return
			}
		}
	}
	if err = s.Save(ctx); err != nil {
		return
	}
	s.printFinal(elapsed, steps)
	return
}

func (s *Solver) stepError(err error) error {
	if errors.Is(err, types.ErrNotPhysical) {
		s.Metrics.NotPhysical.Inc()
	}
	return &types.StepError{Step: s.Step + 1, Time: s.Time, Err: err}
}

func (s *Solver) Snapshot() *restart.Snapshot {
	return &restart.Snapshot{
		RunID: s.RunID,
		Time:  s.Time,
		Step:  s.Step,
		K:     s.U.K,
		Nb:    s.U.Nb,
		Ns:    s.U.Ns,
		U:     append([]float64(nil), s.U.Data...),
	}
}

// Save writes a snapshot to the store, if there is one
func (s *Solver) Save(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	if err := s.Store.Save(ctx, s.Snapshot()); err != nil {
		return fmt.Errorf("saving restart at step %d: %w", s.Step, err)
	}
	return nil
}

// Restore continues the run held by a snapshot, which must match the discretization
func (s *Solver) Restore(snap *restart.Snapshot) error {
	K, Nb, Ns := s.DG.Shape()
	if snap.K != K || snap.Nb != Nb || snap.Ns != Ns {
		return types.Unsupported("restart of shape [%d,%d,%d] on a [%d,%d,%d] discretization",
			snap.K, snap.Nb, snap.Ns, K, Nb, Ns)
	}
	if len(snap.U) != len(s.U.Data) {
		return types.Unsupported("restart holds %d values, expected %d", len(snap.U), len(s.U.Data))
	}
	copy(s.U.Data, snap.U)
	s.Time, s.Step, s.RunID = snap.Time, snap.Step, snap.RunID
	s.sc.Time = snap.Time
	return nil
}

func (s *Solver) printInitialization() {
	K, Nb, Ns := s.DG.Shape()
	slog.Info("solving",
		"run", s.RunID,
		"physics", s.DG.Physics.Name(),
		"flux", s.DG.Flux.Name(),
		"stepper", s.Stepper.Name(),
		"elements", K, "basis", Nb, "states", Ns,
		"partitions", s.DG.Partitions.ParallelDegree,
		"initialTime", s.Time, "finalTime", s.FinalTime)
}

func (s *Solver) printUpdate(dt float64) {
	var (
		names = s.DG.Physics.StateNames()
		args  = []any{"iter", s.Step, "time", s.Time, "dt", dt}
		linf  float64
	)
	for n, name := range names {
		maxR := s.R.MaxAbsState(n)
		args = append(args, "Res("+name+")", maxR)
		linf = math.Max(linf, maxR)
	}
	args = append(args, "Linf", linf)
	slog.Info("step", args...)
}

func (s *Solver) printFinal(elapsed time.Duration, steps int) {
	var rate float64
	if steps > 0 {
		rate = float64(elapsed.Microseconds()) / float64(s.U.K*steps)
	}
	slog.Info("finished", "run", s.RunID, "time", s.Time, "steps", steps,
		"rate_us_per_element_iter", rate)
}
